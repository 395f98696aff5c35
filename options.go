package cowbloom

import (
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type options struct {
	logger  *slog.Logger
	backoff func() backoff.BackOff // nil means retry immediately
}

// Option configures a Filter at construction.
type Option func(*options)

func defaultOptions() options {
	return options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger used for construction and contention events.
// Both are logged at debug level. If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		o.logger = l
	}
}

// WithBackoff makes writers that lose a compare-and-swap race sleep before
// retrying, starting at initial and growing exponentially up to maxInterval.
//
// Without this option a losing writer retries immediately. Backoff only
// changes timing: every write still eventually lands, and readers are
// unaffected.
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(o *options) {
		if initial <= 0 {
			o.backoff = nil
			return
		}
		maxInterval = max(maxInterval, initial)
		o.backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = maxInterval
			b.Reset()
			return b
		}
	}
}

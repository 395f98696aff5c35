package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jcalabro/cowbloom"
	"github.com/jcalabro/cowbloom/promstats"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve filter statistics as Prometheus metrics",
		Long: `Create a filter, insert synthetic batches at a steady rate and expose the
filter's statistics on /metrics until interrupted (or until --duration
elapses).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath, cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Serve.Duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Serve.Duration)
				defer cancel()
			}

			ln, err := net.Listen("tcp", cfg.Serve.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Serve.Addr, err)
			}

			return serve(ctx, cfg, ln, newLogger(cfg.Logging, cmd.ErrOrStderr()))
		},
	}

	cmd.Flags().String("addr", defaultAddr, "metrics listen address")
	cmd.Flags().Float64("write-rate", defaultWriteRate, "synthetic AddAll calls per second")
	cmd.Flags().Int("write-burst", defaultWriteBurst, "maximum burst of AddAll calls")
	cmd.Flags().Int("batch-size", defaultBatchSize, "elements per AddAll call")
	cmd.Flags().Duration("duration", 0, "stop after this long (0 runs until interrupted)")

	return cmd
}

// serve runs the synthetic writer and the metrics server until ctx is done.
func serve(ctx context.Context, cfg *Config, ln net.Listener, logger *slog.Logger) error {
	f, err := cowbloom.NewString(cfg.Filter.Capacity, cfg.Filter.FPP, cfg.filterOptions(logger)...)
	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(promstats.NewCollector("analysis", f)); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("serving metrics", "addr", ln.Addr().String(), "filter", f.String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return writeSynthetic(ctx, f, cfg, logger)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("stopped", "stats", f.Statistics().String())

	return nil
}

// writeSynthetic inserts batches of fresh keys, paced by a token bucket,
// until ctx is done.
func writeSynthetic(ctx context.Context, f *cowbloom.Filter[string], cfg *Config, logger *slog.Logger) error {
	limiter := rate.NewLimiter(rate.Limit(cfg.Serve.WriteRate), max(cfg.Serve.WriteBurst, 1))
	batch := make([]string, cfg.Contention.BatchSize)

	var seq uint64
	for {
		if err := limiter.Wait(ctx); err != nil {
			// Wait fails once ctx is canceled or its deadline can't be met.
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for i := range batch {
			batch[i] = fmt.Sprintf("synthetic-%d", seq)
			seq++
		}

		if f.AddAll(batch...) {
			if stats := f.Statistics(); stats.RemainingCapacity == 0 {
				logger.Warn("filter saturated", "inserted", seq, "estimated_fpp", stats.EstimatedFPP)
			}
		}
	}
}

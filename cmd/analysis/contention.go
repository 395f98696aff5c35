package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jcalabro/cowbloom"
)

// ErrLostUpdates is returned when an inserted element is missing after all
// writers finished.
var ErrLostUpdates = errors.New("inserted elements missing after concurrent writes")

func newContentionCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contention",
		Short: "Verify no updates are lost under concurrent writers",
		Long: `Start several writers that each insert disjoint batches concurrently, then
check that every inserted element is reported present and measure the false
positive rate over elements that were never inserted.

The filter is sized for writers * batches * batch-size elements unless
--capacity is given explicitly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath, cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("capacity") {
				cfg.Filter.Capacity = uint64(cfg.Contention.Writers * cfg.Contention.Batches * cfg.Contention.BatchSize)
			}

			return runContention(cmd, cfg)
		},
	}

	cmd.Flags().Int("writers", defaultWriters, "number of concurrent writers")
	cmd.Flags().Int("batch-size", defaultBatchSize, "elements per AddAll call")
	cmd.Flags().Int("batches", defaultBatches, "AddAll calls per writer")
	cmd.Flags().Int("probes", defaultProbes, "number of non-member probes")

	return cmd
}

// contentionResult is the outcome of one concurrent write run.
type contentionResult struct {
	stats          cowbloom.Statistics
	inserted       int
	missing        int
	retries        uint64
	falsePositives int
	probes         int
	elapsed        time.Duration
}

func runContention(cmd *cobra.Command, cfg *Config) error {
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())

	res, err := measureContention(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("contention run complete",
		"writers", cfg.Contention.Writers,
		"inserted", res.inserted,
		"missing", res.missing,
		"retries", res.retries,
		"elapsed", res.elapsed,
	)

	rate := float64(res.falsePositives) / float64(res.probes)
	writeReport(cmd.OutOrStdout(), "Concurrent writers", res.stats,
		row{"Writers", strconv.Itoa(cfg.Contention.Writers)},
		row{"Inserted", humanize.Comma(int64(res.inserted))},
		row{"Missing", strconv.Itoa(res.missing)},
		row{"Swap retries", humanize.Comma(int64(res.retries))},
		row{"Write time", res.elapsed.String()},
		row{"Empirical FPP", formatRate(rate)},
		row{"Verdict", verdict(rate, cfg.Filter.FPP)},
	)

	if res.missing > 0 {
		return fmt.Errorf("%w: %d of %d", ErrLostUpdates, res.missing, res.inserted)
	}

	return nil
}

// measureContention runs cfg.Contention.Writers goroutines, each inserting
// its own disjoint batches, and then checks every inserted element.
func measureContention(ctx context.Context, cfg *Config, logger *slog.Logger) (contentionResult, error) {
	f, err := cowbloom.NewString(cfg.Filter.Capacity, cfg.Filter.FPP, cfg.filterOptions(logger)...)
	if err != nil {
		return contentionResult{}, fmt.Errorf("failed to create filter: %w", err)
	}

	key := func(writer, i int) string {
		return fmt.Sprintf("w%d-item-%d", writer, i)
	}

	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range cfg.Contention.Writers {
		g.Go(func() error {
			batch := make([]string, cfg.Contention.BatchSize)
			for b := range cfg.Contention.Batches {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := range batch {
					batch[i] = key(w, b*cfg.Contention.BatchSize+i)
				}
				f.AddAll(batch...)
			}
			logger.Debug("writer finished", "writer", w)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return contentionResult{}, fmt.Errorf("writers interrupted: %w", err)
	}
	elapsed := time.Since(start)

	perWriter := cfg.Contention.Batches * cfg.Contention.BatchSize
	var missing int
	for w := range cfg.Contention.Writers {
		for i := range perWriter {
			if !f.MightContain(key(w, i)) {
				missing++
			}
		}
	}

	var falsePositives int
	for i := range cfg.Probe.Count {
		if f.MightContain(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}

	return contentionResult{
		stats:          f.Statistics(),
		inserted:       cfg.Contention.Writers * perWriter,
		missing:        missing,
		retries:        f.Retries(),
		falsePositives: falsePositives,
		probes:         cfg.Probe.Count,
		elapsed:        elapsed,
	}, nil
}

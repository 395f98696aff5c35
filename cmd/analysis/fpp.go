package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jcalabro/cowbloom"
)

func newFPPCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fpp",
		Short: "Measure the empirical false positive rate",
		Long: `Fill a filter to its configured capacity, then probe it with elements that
were never inserted and compare the observed false positive rate with the
configured and estimated ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(*configPath, cmd)
			if err != nil {
				return err
			}

			return runFPP(cmd, cfg)
		},
	}

	cmd.Flags().Int("probes", defaultProbes, "number of non-member probes")
	cmd.Flags().Int("batch-size", defaultBatchSize, "elements inserted per AddAll call")

	return cmd
}

// fppResult is the outcome of one false positive measurement.
type fppResult struct {
	stats          cowbloom.Statistics
	falsePositives int
	probes         int
	elapsed        time.Duration
}

func (r fppResult) rate() float64 {
	return float64(r.falsePositives) / float64(r.probes)
}

func runFPP(cmd *cobra.Command, cfg *Config) error {
	logger := newLogger(cfg.Logging, cmd.ErrOrStderr())

	res, err := measureFPP(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("false positive measurement complete",
		"probes", res.probes,
		"false_positives", res.falsePositives,
		"rate", res.rate(),
		"elapsed", res.elapsed,
	)

	writeReport(cmd.OutOrStdout(), "False positive rate", res.stats,
		row{"Probes", humanize.Comma(int64(res.probes))},
		row{"False positives", strconv.Itoa(res.falsePositives)},
		row{"Empirical FPP", formatRate(res.rate())},
		row{"Verdict", verdict(res.rate(), cfg.Filter.FPP)},
	)

	return nil
}

// measureFPP inserts capacity distinct members and counts how many of
// cfg.Probe.Count distinct non-members the filter reports as present.
func measureFPP(cfg *Config, logger *slog.Logger) (fppResult, error) {
	f, err := cowbloom.NewString(cfg.Filter.Capacity, cfg.Filter.FPP, cfg.filterOptions(logger)...)
	if err != nil {
		return fppResult{}, fmt.Errorf("failed to create filter: %w", err)
	}

	start := time.Now()

	batch := make([]string, 0, cfg.Contention.BatchSize)
	for i := range cfg.Filter.Capacity {
		batch = append(batch, fmt.Sprintf("member-%d", i))
		if len(batch) == cap(batch) {
			f.AddAll(batch...)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		f.AddAll(batch...)
	}
	logger.Debug("filter populated", "elements", cfg.Filter.Capacity)

	var falsePositives int
	for i := range cfg.Probe.Count {
		if f.MightContain(fmt.Sprintf("probe-%d", i)) {
			falsePositives++
		}
	}

	return fppResult{
		stats:          f.Statistics(),
		falsePositives: falsePositives,
		probes:         cfg.Probe.Count,
		elapsed:        time.Since(start),
	}, nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arloliu/sircmp"
	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/internal/metrics"
	"github.com/arloliu/sircmp/internal/progress"
	"github.com/arloliu/sircmp/schedule"
	"github.com/arloliu/sircmp/snapshot"
	"github.com/arloliu/sircmp/stats"
)

const summaryEntries = 3

func newCompareCmd() *cobra.Command {
	var (
		configPath string
		flags      = defaultConfig()
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare every pair of bins and write the stats files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags(), &flags)
			if err != nil {
				return err
			}

			return runCompare(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with run settings")
	bindFlags(cmd.Flags(), &flags)

	return cmd
}

func runCompare(cmd *cobra.Command, cfg Config) error {
	p, err := cfg.parse()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := slog.Default().With("run_id", runID)

	set, suffix, err := loadSet(&cfg, p.mode, logger)
	if err != nil {
		return err
	}

	if cfg.Limit > 0 {
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
		if err := set.LimitEntries(cfg.Limit, rng); err != nil {
			return err
		}
		logger.Info("limited bin populations", "limit", cfg.Limit, "seed", cfg.Seed)
	}
	logSummary(logger, set)

	runMetrics := metrics.NewRun(runID, p.mode.String())
	opts := []schedule.Option{
		schedule.WithWorkers(cfg.Jobs),
		schedule.WithCutoff(cfg.Cutoff),
		schedule.WithMode(p.mode),
		schedule.WithLogger(logger),
		schedule.WithMetrics(runMetrics),
	}

	var bar *progress.Bar
	errOut, isFile := cmd.ErrOrStderr().(*os.File)
	if !cfg.NoProgress && isFile && progress.Enabled(errOut) {
		if bar, err = progress.New(errOut); err != nil {
			return err
		}
		bar.Start()
		defer bar.Stop()
		opts = append(opts, schedule.WithProgress(bar))
	}

	fingerprint := set.Fingerprint()
	result, err := sircmp.Compare(set, opts...)
	if bar != nil {
		// end the bar line before the stats are logged
		bar.Stop()
	}
	if err != nil {
		return err
	}

	base := filepath.Join(cfg.OutDir, cfg.outputBase(sircmp.Version, p.mode, suffix))
	if err := writeStats(base, p.compression, runID, fingerprint, result); err != nil {
		return err
	}
	meanPath, iterPath, countPath := stats.Paths(base, p.compression)
	logger.Info("wrote stats", "mean", meanPath, "iterations", iterPath, "curve_count", countPath)

	if cfg.MetricsFile != "" {
		if err := runMetrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// loadSet reads the curve set from a snapshot or by parsing the input files, and
// returns the file suffix used in output names.
func loadSet(cfg *Config, mode format.Mode, logger *slog.Logger) (*curve.Set, string, error) {
	if cfg.Snapshot != "" {
		return loadSnapshot(cfg, mode, logger)
	}

	parser, err := ingest.NewParser(cfg.ingestConfig(mode),
		ingest.WithLogger(logger),
		ingest.WithWorkers(cfg.Jobs),
	)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	set, sources, err := parser.ParseGlob(cfg.Files)
	if err != nil {
		return nil, "", err
	}
	logger.Info("parsed input",
		"files", len(sources),
		"curves", set.TotalCurves(),
		"unfinished", parser.Unfinished(),
		"dropped", parser.Dropped(),
		"elapsed", time.Since(start),
	)

	return set, suffixOf(sources, logger), nil
}

// loadSnapshot decodes cfg.Snapshot after checking that it was parsed the way the
// run asks for. A zero cfg.N is filled in from the snapshot so that output names
// describe the stored set.
func loadSnapshot(cfg *Config, mode format.Mode, logger *slog.Logger) (*curve.Set, string, error) {
	data, err := os.ReadFile(cfg.Snapshot)
	if err != nil {
		return nil, "", err
	}
	meta, err := snapshot.DecodeMeta(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", cfg.Snapshot, err)
	}

	want := cfg.ingestConfig(mode)
	want.BinSize = 0 // compared through n below
	if err := meta.Header.MatchIngest(want); err != nil {
		return nil, "", fmt.Errorf("%w: %s: %w", errInvalidConfig, cfg.Snapshot, err)
	}
	stored := int(meta.Header.BinSize) * int(meta.Header.BinCount)
	if cfg.N > 0 && cfg.N != stored {
		return nil, "", fmt.Errorf("%w: snapshot %s covers n=%d, --n is %d",
			errInvalidConfig, cfg.Snapshot, stored, cfg.N)
	}
	cfg.N = stored

	set, err := snapshot.Decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", cfg.Snapshot, err)
	}
	logger.Info("loaded snapshot", "path", cfg.Snapshot, "curves", set.TotalCurves(), "sources", len(meta.Sources))

	if len(meta.Sources) == 0 {
		return set, "snapshot", nil
	}

	return set, suffixOf(meta.Sources, logger), nil
}

func suffixOf(sources []string, logger *slog.Logger) string {
	suffix, consistent := ingest.Suffix(sources)
	if !consistent {
		logger.Warn("input suffixes do not match", "suffix", suffix)
	}

	return suffix
}

func logSummary(logger *slog.Logger, set *curve.Set) {
	logger.Info("bin populations",
		"bins", set.BinCount(),
		"curves", set.TotalCurves(),
		"reference_length", set.ReferenceLength(),
		"average", set.AverageEntries(),
		"largest", set.MaxNEntries(summaryEntries),
		"smallest", set.MinNEntries(summaryEntries),
	)
}

func writeStats(base string, compression format.CompressionType, runID string, fingerprint uint64, result *stats.Stats) (err error) {
	w, err := stats.Create(base, compression)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, w.Close()) }()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	header := []string{
		strings.Join(os.Args, " "),
		cwd,
		"run_id " + runID,
		fmt.Sprintf("fingerprint %016x", fingerprint),
	}
	for _, line := range header {
		if err := w.WriteComment(line); err != nil {
			return err
		}
	}

	return w.WriteStats(result)
}

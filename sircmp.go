// Package sircmp compares batches of epidemic trajectories grouped by initial
// condition.
//
// Simulation runs write one trajectory per line; the ingest package groups those
// lines into bins of a curve.Set. For every pair of bins with enough curves the
// engine reduces all cross pairs of curves to one scalar, the mean dissimilarity
// (or correlation) of the two bins, and collects the results in a stats.Stats
// matrix.
//
// # Basic Usage
//
//	parser, _ := ingest.NewParser(ingest.Config{
//	    Bins: 10, BinSize: 100, Every: 1, Normalize: true,
//	    DataMode: format.DataSparse,
//	})
//	set, _, _ := parser.ParseGlob("runs/*.dat.xz")
//
//	result, _ := sircmp.Compare(set, schedule.WithMode(format.ModeAbs), schedule.WithWorkers(8))
//	mean, iterations := result.At(3, 1)
//
// # Package Structure
//
// This package provides convenient top-level wrappers. The work is done by:
//   - curve: curve sets, padding, subsampling
//   - reduce: reduction functions and the ragged-length pairwise mean
//   - schedule: job planning and the worker pool
//   - stats: comparison matrices and their text output
//   - ingest: the line parser for simulation output
//   - snapshot: the binary cache format for parsed sets
package sircmp

import (
	"fmt"
	"os"

	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/schedule"
	"github.com/arloliu/sircmp/snapshot"
	"github.com/arloliu/sircmp/stats"
)

// Version is written into output file names.
const Version = "0.2.0"

// Compare runs a full comparison of set with a scheduler built from opts.
//
// Parameters:
//   - set: Curve set to compare; Corr mode pads its curves in place
//   - opts: Scheduler options (see schedule.Option)
//
// Returns:
//   - *stats.Stats: Mean and iteration matrices plus bin populations
//   - error: Invalid option
//
// Example:
//
//	result, err := sircmp.Compare(set, schedule.WithWorkers(4), schedule.WithCutoff(10))
func Compare(set *curve.Set, opts ...schedule.Option) (*stats.Stats, error) {
	s, err := schedule.New(opts...)
	if err != nil {
		return nil, err
	}

	return s.Run(set)
}

// CompareFiles parses every file matching pattern and compares the result.
func CompareFiles(pattern string, cfg ingest.Config, opts ...schedule.Option) (*stats.Stats, error) {
	parser, err := ingest.NewParser(cfg)
	if err != nil {
		return nil, err
	}
	set, _, err := parser.ParseGlob(pattern)
	if err != nil {
		return nil, err
	}

	return Compare(set, opts...)
}

// CompareSnapshot loads a snapshot file and compares the stored set.
//
// A snapshot that records its ingestion data mode must match the mode of the run:
// correlating curves cut at extinction, or taking elementwise distances over full
// lines, yields numbers that mean nothing.
//
// Returns:
//   - *stats.Stats: Comparison result
//   - error: Invalid option, a snapshot decode error, or snapshot.ErrIngestMismatch
func CompareSnapshot(path string, opts ...schedule.Option) (*stats.Stats, error) {
	s, err := schedule.New(opts...)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h, err := snapshot.ParseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if want := s.Mode().DataMode(); h.HasIngest() && h.DataMode != want {
		return nil, fmt.Errorf("%s: %w: snapshot holds %s data, %s needs %s",
			path, snapshot.ErrIngestMismatch, h.DataMode, s.Mode(), want)
	}

	set, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s.Run(set)
}

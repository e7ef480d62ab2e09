package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/sircmp/compress"
	"github.com/arloliu/sircmp/curve"
	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/internal/collision"
	"github.com/arloliu/sircmp/internal/options"
	"github.com/arloliu/sircmp/internal/pool"
)

const maxLineSize = 256 * 1024 * 1024

var (
	ErrInvalidConfig = errors.New("ingest: invalid config")
	ErrMalformedLine = errors.New("ingest: malformed line")
	ErrNoFiles       = errors.New("ingest: no files match pattern")
)

// Config describes how lines map to bins and curves.
type Config struct {
	// Bins is the number of bins of the resulting set.
	Bins int
	// BinSize is the number of consecutive energies per bin.
	BinSize int
	// Every keeps only every Every-th data line of each file, starting with the first.
	Every int
	// Normalize divides every curve by its own maximum.
	Normalize bool
	// NoSubtract bins energy e as e/BinSize instead of (e-1)/BinSize.
	NoSubtract bool
	// DataMode selects truncation at the extinction index (sparse) or full lines (naive).
	DataMode format.DataMode
}

func (c Config) validate() error {
	switch {
	case c.Bins < 1:
		return fmt.Errorf("%w: bins must be at least 1, got %d", ErrInvalidConfig, c.Bins)
	case c.BinSize < 1:
		return fmt.Errorf("%w: bin size must be at least 1, got %d", ErrInvalidConfig, c.BinSize)
	case c.Every < 1:
		return fmt.Errorf("%w: every must be at least 1, got %d", ErrInvalidConfig, c.Every)
	case c.DataMode != format.DataSparse && c.DataMode != format.DataNaive:
		return fmt.Errorf("%w: data mode %d", ErrInvalidConfig, c.DataMode)
	}

	return nil
}

// Option configures a Parser.
type Option = options.Option[*Parser]

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	})
}

// WithWorkers sets how many files ParseGlob reads concurrently. The default is 1.
func WithWorkers(n int) Option {
	return options.New(func(p *Parser) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, n)
		}
		p.workers = n

		return nil
	})
}

// Parser turns simulation output into curves.
//
// A Parser may parse several files; the unfinished and dropped counters
// accumulate across them. ParseReader and ParseFile are not safe for concurrent
// use on the same target set.
type Parser struct {
	logger  *slog.Logger
	cfg     Config
	workers int

	unfinished       atomic.Uint64
	dropped          atomic.Uint64
	warnedUnfinished atomic.Bool
}

// NewParser creates a parser for cfg.
//
// Returns:
//   - *Parser: Ready parser
//   - error: ErrInvalidConfig for an invalid config or option
func NewParser(cfg Config, opts ...Option) (*Parser, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Parser{cfg: cfg, logger: slog.Default(), workers: 1}
	if err := options.Apply(p, opts...); err != nil {
		return nil, err
	}

	return p, nil
}

// Unfinished returns how many trajectories without an extinction step were read.
func (p *Parser) Unfinished() uint64 {
	return p.unfinished.Load()
}

// Dropped returns how many lines produced an empty curve and were skipped.
func (p *Parser) Dropped() uint64 {
	return p.dropped.Load()
}

// ParseReader parses every line of r into set. name identifies r in errors and logs.
//
// Errors carry the name and line number of the offending line.
func (p *Parser) ParseReader(r io.Reader, name string, set *curve.Set) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	scratch := pool.GetFloat64Scratch()
	defer func() { pool.PutFloat64Scratch(scratch) }()

	lineNo, dataLines := 0, 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		dataLines++
		if (dataLines-1)%p.cfg.Every != 0 {
			continue
		}

		var err error
		if scratch, err = p.parseLine(line, name, lineNo, set, scratch); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	return nil
}

func (p *Parser) parseLine(line, name string, lineNo int, set *curve.Set, scratch []float64) ([]float64, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return scratch, fmt.Errorf("%w: need energy and extinction index", ErrMalformedLine)
	}

	energy, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return scratch, fmt.Errorf("%w: energy: %w", ErrMalformedLine, err)
	}
	bin, err := p.binIndex(energy)
	if err != nil {
		return scratch, err
	}

	scratch = scratch[:0]
	for _, field := range fields[2:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return scratch, fmt.Errorf("%w: sample %d: %w", ErrMalformedLine, len(scratch), err)
		}
		scratch = append(scratch, v)
	}

	keep := len(scratch)
	if p.cfg.DataMode == format.DataSparse {
		extinction, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return scratch, fmt.Errorf("%w: extinction index: %w", ErrMalformedLine, err)
		}

		if extinction == math.MaxUint64 {
			p.unfinished.Add(1)
			if !p.warnedUnfinished.Swap(true) {
				p.logger.Warn("encountered unfinished trajectory", "file", name, "line", lineNo)
			}
		} else {
			if !set.HasReferenceLength() {
				_ = set.SetReferenceLength(len(scratch))
			}
			keep = int(min(extinction+1, uint64(len(scratch)))) //nolint:gosec
		}
	} else if !set.HasReferenceLength() {
		_ = set.SetReferenceLength(len(scratch))
	}

	if keep == 0 {
		p.dropped.Add(1)
		p.logger.Warn("dropping empty curve", "file", name, "line", lineNo, "energy", energy)

		return scratch, nil
	}

	c := make(curve.Curve, keep)
	copy(c, scratch)
	if p.cfg.Normalize {
		curve.Normalize(c)
	}

	return scratch, set.Push(bin, c)
}

func (p *Parser) binIndex(energy uint64) (int, error) {
	if !p.cfg.NoSubtract {
		if energy == 0 {
			return 0, fmt.Errorf("%w: energy 0 with energy-1 binning", curve.ErrBinOutOfRange)
		}
		energy--
	}

	bin := energy / uint64(p.cfg.BinSize) //nolint:gosec
	if bin >= uint64(p.cfg.Bins) {        //nolint:gosec
		return 0, fmt.Errorf("%w: energy maps to bin %d of %d", curve.ErrBinOutOfRange, bin, p.cfg.Bins)
	}

	return int(bin), nil //nolint:gosec
}

// ParseFile parses the file at path into set, decompressing by extension.
func (p *Parser) ParseFile(path string, set *curve.Set) error {
	rc, err := compress.OpenFile(path)
	if err != nil {
		return err
	}

	err = p.ParseReader(rc, path, set)

	return errors.Join(err, rc.Close())
}

// ParseGlob parses every file matching pattern into a new set.
//
// Files are read concurrently (see WithWorkers) but merged in lexical path
// order, so the resulting set does not depend on the worker count. The
// reference length comes from the first file that fixes one.
//
// Returns:
//   - *curve.Set: Parsed set
//   - []string: Parsed files in merge order
//   - error: ErrNoFiles, a duplicate input, or the first parse error
func (p *Parser) ParseGlob(pattern string) (*curve.Set, []string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %w", err)
	}
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	slices.Sort(paths)

	tracker := collision.NewTracker()
	for _, path := range paths {
		if err := tracker.Track(path); err != nil {
			return nil, nil, err
		}
	}

	partial := make([]*curve.Set, len(paths))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		g.Go(func() error {
			s, err := curve.New(p.cfg.Bins)
			if err != nil {
				return err
			}
			p.logger.Debug("parsing file", "file", path)
			if err := p.ParseFile(path, s); err != nil {
				return err
			}
			partial[i] = s

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	set, err := curve.New(p.cfg.Bins)
	if err != nil {
		return nil, nil, err
	}
	for i, s := range partial {
		if s.HasReferenceLength() {
			if !set.HasReferenceLength() {
				_ = set.SetReferenceLength(s.ReferenceLength())
			} else if s.ReferenceLength() != set.ReferenceLength() {
				p.logger.Warn("reference length differs between files",
					"file", paths[i],
					"length", s.ReferenceLength(),
					"using", set.ReferenceLength(),
				)
			}
		}
		if err := set.Append(s); err != nil {
			return nil, nil, err
		}
	}

	return set, tracker.Sources(), nil
}

// Suffix returns the file-type suffix shared by paths: the last extension of each
// path that is not a compression extension, e.g. "dat" for run_1.dat.xz.
//
// If the paths disagree, the distinct suffixes are joined with "_" in sorted
// order and consistent is false.
func Suffix(paths []string) (suffix string, consistent bool) {
	seen := make(map[string]struct{})
	for _, path := range paths {
		parts := strings.Split(filepath.Base(path), ".")
		s := parts[0]
		for i := len(parts) - 1; i >= 0; i-- {
			if !format.IsCompressionExtension(parts[i]) {
				s = parts[i]
				break
			}
		}
		seen[s] = struct{}{}
	}

	list := make([]string, 0, len(seen))
	for s := range seen {
		list = append(list, s)
	}
	slices.Sort(list)

	return strings.Join(list, "_"), len(list) <= 1
}

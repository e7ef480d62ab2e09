package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/schedule"
)

var errInvalidConfig = errors.New("invalid configuration")

// Config holds every setting of a comparison run. It can be loaded from a YAML
// file; flags that are set explicitly override the file.
type Config struct {
	Files       string `yaml:"files" validate:"required_without=Snapshot,excluded_with=Snapshot"`
	Snapshot    string `yaml:"snapshot"`
	N           int    `yaml:"n" validate:"required_without=Snapshot,gte=0"`
	NReal       int    `yaml:"n_real" validate:"gte=0"`
	Bins        int    `yaml:"bins" validate:"gt=0"`
	Save        string `yaml:"save"`
	OutDir      string `yaml:"out_dir"`
	Jobs        int    `yaml:"jobs" validate:"gte=1"`
	Every       int    `yaml:"every" validate:"gte=1"`
	Cutoff      int    `yaml:"cutoff" validate:"gte=1"`
	Mode        string `yaml:"mode" validate:"required"`
	NoNorm      bool   `yaml:"no_norm"`
	NoSubtract  bool   `yaml:"no_subtract"`
	Limit       int    `yaml:"limit" validate:"gte=0"`
	Seed        uint64 `yaml:"seed"`
	Compression string `yaml:"compression"`
	NoProgress  bool   `yaml:"no_progress"`
	MetricsFile string `yaml:"metrics_file"`
}

func defaultConfig() Config {
	return Config{
		Jobs:        schedule.DefaultWorkers,
		Every:       1,
		Cutoff:      schedule.DefaultCutoff,
		Mode:        format.ModeAbs.String(),
		Compression: format.CompressionXz.String(),
		OutDir:      ".",
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg, _ := sl.Current().Interface().(Config)
		// a snapshot run takes n from the snapshot and checks it there
		if cfg.Snapshot == "" && cfg.N > 0 && cfg.Bins > 0 && cfg.N%cfg.Bins != 0 {
			sl.ReportError(cfg.N, "N", "n", "divisible_by_bins", "")
		}
	}, Config{})

	return v
}

// bindFlags registers the run flags on fs, backed by cfg.
func bindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Files, "files", "f", cfg.Files, "glob of simulation output files")
	fs.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "read curves from a snapshot instead of --files")
	fs.IntVarP(&cfg.N, "n", "n", cfg.N, "number of reachable nodes (energy range)")
	fs.IntVar(&cfg.NReal, "n-real", cfg.NReal, "actual number of nodes, used in the output name")
	fs.IntVarP(&cfg.Bins, "bins", "b", cfg.Bins, "number of energy bins, must divide n")
	fs.StringVar(&cfg.Save, "save", cfg.Save, "tag inserted into output file names")
	fs.StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for output files")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "number of worker goroutines")
	fs.IntVarP(&cfg.Every, "every", "e", cfg.Every, "use every nth data line of each file")
	fs.IntVar(&cfg.Cutoff, "cutoff", cfg.Cutoff, "minimum curves per bin to compare it")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "comparison mode: abs, sqrt, cbrt, corr (or 0-3)")
	fs.BoolVar(&cfg.NoNorm, "no-norm", cfg.NoNorm, "do not normalize curves by their maximum")
	fs.BoolVar(&cfg.NoSubtract, "no-subtract", cfg.NoSubtract, "bin energy e as e/size instead of (e-1)/size")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "subsample bins to at most this many curves (0 keeps all)")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for --limit subsampling")
	fs.StringVar(&cfg.Compression, "compression", cfg.Compression, "compression of the mean matrix file")
	fs.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "hide the progress bar")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "write Prometheus textfile metrics here")
}

// loadConfig merges defaults, the YAML file at path (if any) and the flags of fs
// that were set on the command line, then validates the result.
func loadConfig(path string, fs *pflag.FlagSet, flags *Config) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := flagSetters[f.Name]; ok {
			apply(&cfg, flags)
		}
	})

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return cfg, nil
}

var flagSetters = map[string]func(dst, src *Config){
	"files":        func(d, s *Config) { d.Files = s.Files },
	"snapshot":     func(d, s *Config) { d.Snapshot = s.Snapshot },
	"n":            func(d, s *Config) { d.N = s.N },
	"n-real":       func(d, s *Config) { d.NReal = s.NReal },
	"bins":         func(d, s *Config) { d.Bins = s.Bins },
	"save":         func(d, s *Config) { d.Save = s.Save },
	"out-dir":      func(d, s *Config) { d.OutDir = s.OutDir },
	"jobs":         func(d, s *Config) { d.Jobs = s.Jobs },
	"every":        func(d, s *Config) { d.Every = s.Every },
	"cutoff":       func(d, s *Config) { d.Cutoff = s.Cutoff },
	"mode":         func(d, s *Config) { d.Mode = s.Mode },
	"no-norm":      func(d, s *Config) { d.NoNorm = s.NoNorm },
	"no-subtract":  func(d, s *Config) { d.NoSubtract = s.NoSubtract },
	"limit":        func(d, s *Config) { d.Limit = s.Limit },
	"seed":         func(d, s *Config) { d.Seed = s.Seed },
	"compression":  func(d, s *Config) { d.Compression = s.Compression },
	"no-progress":  func(d, s *Config) { d.NoProgress = s.NoProgress },
	"metrics-file": func(d, s *Config) { d.MetricsFile = s.MetricsFile },
}

// parsed holds the typed values derived from a Config.
type parsed struct {
	mode        format.Mode
	compression format.CompressionType
}

func (c Config) parse() (parsed, error) {
	mode, err := format.ParseMode(c.Mode)
	if err != nil {
		return parsed{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	compression, err := format.ParseCompression(c.Compression)
	if err != nil {
		return parsed{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return parsed{mode: mode, compression: compression}, nil
}

// ingestConfig maps the run settings onto the line parser.
func (c Config) ingestConfig(mode format.Mode) ingest.Config {
	return ingest.Config{
		Bins:       c.Bins,
		BinSize:    c.N / c.Bins,
		Every:      c.Every,
		Normalize:  !c.NoNorm,
		NoSubtract: c.NoSubtract,
		DataMode:   mode.DataMode(),
	}
}

// outputBase returns the file name prefix shared by the three stats files, e.g.
// "v0.2.0_Abs_norm_N200_Reach200_b10_e1_run.dat.".
func (c Config) outputBase(version string, mode format.Mode, suffix string) string {
	norm := "norm"
	if c.NoNorm {
		norm = "NoNorm"
	}
	nActual := c.N
	if c.NReal > 0 {
		nActual = c.NReal
	}

	return fmt.Sprintf("v%s_%s_%s_N%d_Reach%d_b%d_e%d_%s.%s.",
		version, mode, norm, nActual, c.N, c.Bins, c.Every, c.Save, suffix)
}

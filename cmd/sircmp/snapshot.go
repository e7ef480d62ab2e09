package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/ingest"
	"github.com/arloliu/sircmp/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create and inspect binary curve-set snapshots",
	}
	cmd.AddCommand(newSnapshotCreateCmd(), newSnapshotInfoCmd())

	return cmd
}

type snapshotFlags struct {
	out         string
	compression string
	encoding    string
}

func newSnapshotCreateCmd() *cobra.Command {
	var (
		configPath string
		flags      = defaultConfig()
		sf         = snapshotFlags{
			compression: format.CompressionZstd.String(),
			encoding:    format.TypeGorilla.String(),
		}
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Parse input files once and store the curve set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags(), &flags)
			if err != nil {
				return err
			}

			return runSnapshotCreate(cmd, cfg, sf)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with run settings")
	bindFlags(cmd.Flags(), &flags)
	cmd.Flags().StringVarP(&sf.out, "out", "o", "", "snapshot file to write")
	cmd.Flags().StringVar(&sf.compression, "snapshot-compression", sf.compression, "snapshot body compression: none, zstd, s2, lz4, gzip, xz")
	cmd.Flags().StringVar(&sf.encoding, "encoding", sf.encoding, "sample encoding: raw, gorilla")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runSnapshotCreate(cmd *cobra.Command, cfg Config, sf snapshotFlags) error {
	if cfg.Files == "" {
		return fmt.Errorf("%w: snapshot create needs --files", errInvalidConfig)
	}
	p, err := cfg.parse()
	if err != nil {
		return err
	}
	compression, err := format.ParseCompression(sf.compression)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	encoding, err := format.ParseEncoding(sf.encoding)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	logger := slog.Default()
	ingestCfg := cfg.ingestConfig(p.mode)
	parser, err := ingest.NewParser(ingestCfg,
		ingest.WithLogger(logger),
		ingest.WithWorkers(cfg.Jobs),
	)
	if err != nil {
		return err
	}
	set, sources, err := parser.ParseGlob(cfg.Files)
	if err != nil {
		return err
	}

	err = snapshot.WriteFile(sf.out, set,
		snapshot.WithCompression(compression),
		snapshot.WithEncoding(encoding),
		snapshot.WithIngest(ingestCfg),
		snapshot.WithSources(sources),
		snapshot.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	info, err := os.Stat(sf.out)
	if err != nil {
		return err
	}
	logger.Info("wrote snapshot",
		"path", sf.out,
		"files", len(sources),
		"curves", set.TotalCurves(),
		"size", humanize.IBytes(uint64(info.Size())), //nolint:gosec
	)

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %016x\n", sf.out, set.Fingerprint())

	return err
}

func newSnapshotInfoCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "info <file>",
		Short: "Print the header and bin populations of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			meta, err := snapshot.DecodeMeta(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			w := cmd.OutOrStdout()
			h := meta.Header
			fmt.Fprintf(w, "version:          %d\n", h.Version)
			fmt.Fprintf(w, "encoding:         %s\n", h.Encoding)
			fmt.Fprintf(w, "compression:      %s\n", h.Compression)
			fmt.Fprintf(w, "size:             %s\n", humanize.IBytes(uint64(len(data))))
			fmt.Fprintf(w, "bins:             %d\n", h.BinCount)
			fmt.Fprintf(w, "curves:           %s\n", humanize.Comma(int64(h.CurveCount)))
			fmt.Fprintf(w, "samples:          %s\n", humanize.Comma(int64(meta.Samples)))
			fmt.Fprintf(w, "reference length: %d\n", h.ReferenceLength)
			fmt.Fprintf(w, "checksum:         %016x\n", h.Checksum)
			if ic, ok := h.IngestConfig(); ok {
				fmt.Fprintf(w, "data mode:        %s\n", ic.DataMode)
				fmt.Fprintf(w, "n:                %d\n", ic.Bins*ic.BinSize)
				fmt.Fprintf(w, "bin size:         %d\n", ic.BinSize)
				fmt.Fprintf(w, "every:            %d\n", ic.Every)
				fmt.Fprintf(w, "normalize:        %t\n", ic.Normalize)
				fmt.Fprintf(w, "no subtract:      %t\n", ic.NoSubtract)
			} else {
				fmt.Fprintf(w, "data mode:        not recorded\n")
			}
			fmt.Fprintf(w, "bin sizes:        %v\n", meta.BinSizes)
			if showSources {
				for _, s := range meta.Sources {
					fmt.Fprintf(w, "source:           %s\n", s)
				}
			}

			return nil
		},
	}
	cmd.Flags().BoolVar(&showSources, "sources", false, "list the source files")

	return cmd
}

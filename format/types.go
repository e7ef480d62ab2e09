// Package format defines the closed enumerations shared by every sircmp package:
// the comparison mode, the ingestion mode, the snapshot sample encoding and the
// compression type of files.
package format

import (
	"fmt"
	"path/filepath"
	"strings"
)

type (
	Mode            uint8
	DataMode        uint8
	EncodingType    uint8
	CompressionType uint8
)

const (
	ModeAbs  Mode = 0x0 // ModeAbs compares curves by |a-b|.
	ModeSqrt Mode = 0x1 // ModeSqrt compares curves by sqrt(|a-b|).
	ModeCbrt Mode = 0x2 // ModeCbrt compares curves by cbrt(|a-b|).
	ModeCorr Mode = 0x3 // ModeCorr compares curves by their Pearson correlation.

	DataSparse DataMode = 0x1 // DataSparse truncates each curve at its extinction index.
	DataNaive  DataMode = 0x2 // DataNaive keeps every sample of the line.

	TypeRaw     EncodingType = 0x1 // TypeRaw stores float samples as raw IEEE-754 words.
	TypeGorilla EncodingType = 0x3 // TypeGorilla stores float samples with Gorilla XOR encoding.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionGzip CompressionType = 0x5 // CompressionGzip represents gzip compression.
	CompressionXz   CompressionType = 0x6 // CompressionXz represents xz (LZMA2) compression.
)

// Modes lists every comparison mode in code order.
var Modes = []Mode{ModeAbs, ModeSqrt, ModeCbrt, ModeCorr}

func (m Mode) String() string {
	switch m {
	case ModeAbs:
		return "Abs"
	case ModeSqrt:
		return "Sqrt"
	case ModeCbrt:
		return "Cbrt"
	case ModeCorr:
		return "Corr"
	default:
		return "Unknown"
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m <= ModeCorr
}

// Elementwise reports whether the mode reduces curves sample by sample.
//
// Only ModeCorr is not elementwise: it needs both curves at full, equal length.
func (m Mode) Elementwise() bool {
	return m.Valid() && m != ModeCorr
}

// DataMode returns the ingestion mode a comparison mode expects.
//
// Elementwise modes work on curves truncated at extinction, correlation
// works on the complete recorded trajectories.
func (m Mode) DataMode() DataMode {
	if m == ModeCorr {
		return DataNaive
	}

	return DataSparse
}

// ParseMode parses a mode name ("abs", "sqrt", "cbrt", "corr") or its numeric code ("0".."3").
//
// Parameters:
//   - s: Mode name or code, case-insensitive
//
// Returns:
//   - Mode: Parsed mode
//   - error: Unknown mode error
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abs", "0":
		return ModeAbs, nil
	case "sqrt", "1":
		return ModeSqrt, nil
	case "cbrt", "2":
		return ModeCbrt, nil
	case "corr", "3":
		return ModeCorr, nil
	default:
		return 0, fmt.Errorf("unknown comparison mode: %q", s)
	}
}

func (d DataMode) String() string {
	switch d {
	case DataSparse:
		return "Sparse"
	case DataNaive:
		return "Naive"
	default:
		return "Unknown"
	}
}

func (e EncodingType) String() string {
	switch e {
	case TypeRaw:
		return "Raw"
	case TypeGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

// ParseEncoding parses a sample encoding name ("raw" or "gorilla").
func ParseEncoding(s string) (EncodingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw", "":
		return TypeRaw, nil
	case "gorilla":
		return TypeGorilla, nil
	default:
		return 0, fmt.Errorf("unknown sample encoding: %q", s)
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionGzip:
		return "Gzip"
	case CompressionXz:
		return "Xz"
	default:
		return "Unknown"
	}
}

// Extension returns the file extension (with leading dot) used for the compression type.
// CompressionNone and unknown types have no extension.
func (c CompressionType) Extension() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionS2:
		return ".s2"
	case CompressionLZ4:
		return ".lz4"
	case CompressionGzip:
		return ".gz"
	case CompressionXz:
		return ".xz"
	default:
		return ""
	}
}

// ParseCompression parses a compression name such as "none", "gzip", "xz", "zstd", "s2" or "lz4".
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "xz":
		return CompressionXz, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", s)
	}
}

// CompressionFromPath derives the compression type from the extension of path.
// Files without a known compression extension are treated as uncompressed.
func CompressionFromPath(path string) CompressionType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".xz":
		return CompressionXz
	case ".zst":
		return CompressionZstd
	case ".s2":
		return CompressionS2
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// IsCompressionExtension reports whether ext (without leading dot) names a compression format.
func IsCompressionExtension(ext string) bool {
	return CompressionFromPath("x."+ext) != CompressionNone
}

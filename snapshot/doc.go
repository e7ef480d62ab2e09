// Package snapshot stores a parsed curve set in a compact binary file so that
// reruns can skip the text ingestion stage.
//
// # Layout
//
// A snapshot is a fixed 48-byte header followed by one body that may be compressed
// as a whole:
//
//	Header (48 bytes, little endian)
//	  0-3   magic "SIRC"
//	  4     format version
//	  5     sample encoding (format.EncodingType)
//	  6     body compression (format.CompressionType)
//	  7     flags
//	  8-11  bin count
//	  12-15 curve count
//	  16-23 reference length
//	  24-31 xxHash64 of the uncompressed body
//	  32    ingestion data mode (format.DataMode, 0 = not recorded)
//	  33    ingestion flags (normalize, no-subtract)
//	  34-35 reserved
//	  36-39 every
//	  40-43 bin size
//	  44-47 reserved
//
//	Body
//	  bin populations   bin count   x uint32
//	  curve lengths     curve count x uint32, bin by bin
//	  sources           uint16 count, then uint16 length + UTF-8 per name
//	  samples           raw float64 words or a Gorilla bit stream
//
// Curves appear bin by bin in their in-memory order, so a decoded set has the same
// fingerprint as the encoded one.
//
// # Usage
//
//	data, err := snapshot.Encode(set,
//	    snapshot.WithCompression(format.CompressionZstd),
//	    snapshot.WithEncoding(format.TypeGorilla),
//	    snapshot.WithIngest(parserConfig),
//	)
//	...
//	set, err = snapshot.Decode(data)
//
// A reader checks Header.MatchIngest before comparing a stored set: a set cut at
// extinction (sparse) must not be correlated as if it held full lines.
package snapshot

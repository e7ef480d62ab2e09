package compress

// zstdCodec produces standard zstd frames.
//
// The pure Go implementation (klauspost/compress/zstd) is used by default;
// building with `-tags gozstd` and cgo enabled switches to valyala/gozstd.
// Snapshots written by one build can be read by the other.
type zstdCodec struct{}

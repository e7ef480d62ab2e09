// Package compress provides the compression layer of sircmp.
//
// Two shapes are offered:
//
//  1. **Block codecs** (Codec, from GetCodec) compress a whole byte slice at
//     once. The snapshot format compresses its body this way.
//  2. **Streams** (NewReader / NewWriter / OpenFile / CreateFile) wrap an
//     io.Reader or io.Writer. Simulation output is read through them and the
//     stats matrices are written through them.
//
// # Supported Algorithms
//
//	Type             | Block | Stream | Library
//	-----------------|-------|--------|------------------------------------
//	CompressionNone  | yes   | yes    | -
//	CompressionGzip  | yes   | yes    | github.com/klauspost/compress/gzip
//	CompressionXz    | yes   | yes    | github.com/ulikunitz/xz
//	CompressionZstd  | yes   | yes    | github.com/klauspost/compress/zstd
//	CompressionS2    | yes   | yes    | github.com/klauspost/compress/s2
//	CompressionLZ4   | yes   | yes    | github.com/pierrec/lz4/v4
//
// Building with `-tags gozstd` (and cgo enabled) switches the Zstd block codec to
// github.com/valyala/gozstd.
//
// Simulation runs are usually stored as .gz or .xz text, so those two are the
// formats OpenFile sees most. The mean matrix defaults to xz because it is the
// largest output and is written once.
//
// # Usage
//
//	rc, err := compress.OpenFile("run_N200.curves.xz")
//	if err != nil {
//	    return err
//	}
//	defer rc.Close()
//
//	codec, _ := compress.GetCodec(format.CompressionZstd)
//	packed, err := codec.Compress(payload)
//
// # Thread Safety
//
// Block codecs are stateless values and safe for concurrent use. Streams are not;
// use one per goroutine.
package compress

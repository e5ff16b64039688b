// Package compress provides compression and decompression codecs for
// flight-log containers.
//
// A container is one or more concatenated logs (see package container).
// Compression is applied to the whole container after the stream encoder
// has produced it, as an optional outer layer the wire format itself
// knows nothing about.
//
// # Supported algorithms
//
//   - None: no compression, useful when the transport already compresses
//     (e.g. gzip-over-HTTP) or the archive is going straight to flash
//   - Zstd: best compression ratio, moderate speed; good for cold storage
//   - S2: balanced speed and ratio; good for a catalog service decompressing
//     many archives on demand
//   - LZ4: fastest decompression; good when the same archive is scanned
//     repeatedly (e.g. re-running container.Open against different log
//     indices)
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// CreateCodec and GetCodec resolve a format.CompressionType to its codec;
// container.Open uses GetCodec after sniffing an archive's magic bytes.
package compress

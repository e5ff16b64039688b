// Package container locates the individual logs inside a blackbox
// recording and transparently undoes any whole-archive compression
// applied on top of the wire format.
//
// A single recording session can produce more than one log: the flight
// controller starts a fresh log each time blackbox logging is armed, and
// all of them are appended back to back into the same file. Each log
// begins with its own copy of the "H Product:..." banner line, so a
// container is scanned once up front to find every log's byte range,
// and Parse is then invoked separately per range by the caller.
package container

import (
	"bytes"
	"fmt"

	"github.com/flightrec/blackbox/compress"
	"github.com/flightrec/blackbox/errs"
	"github.com/flightrec/blackbox/format"
	"github.com/flightrec/blackbox/internal/hash"
)

// startMarker opens the header block of every log, including the very
// first: a log boundary is any occurrence of this string, not just the
// ones following a prior log's end.
const startMarker = "H Product:Blackbox flight data recorder by Nicholas Sherlock\n"

// maxLogs bounds the number of logs a single container may carry,
// matching the reference firmware's flash-storage directory slot count.
const maxLogs = 31

// Container indexes the logs found in a (possibly compressed) byte
// buffer. Log ranges are half-open [Begin, End) offsets into Data, the
// fully decompressed bytes.
type Container struct {
	Data    []byte
	Ranges  []Range
	Archive format.CompressionType
}

// Range is one log's half-open byte range within Container.Data.
type Range struct {
	Begin, End int
}

// Open sniffs data for a whole-archive compression magic, decompresses it
// if one is found, and scans the result for log boundaries. Compression
// is fully transparent to the caller: every offset in the returned
// Container refers to decompressed bytes, and Archive merely records what
// was undone.
func Open(data []byte) (*Container, error) {
	archive, codec := sniff(data)

	plain := data
	if codec != nil {
		out, err := codec.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("container: decompressing %s archive: %w", archive, err)
		}
		plain = out
	}

	ranges, err := scan(plain)
	if err != nil {
		return nil, err
	}

	return &Container{Data: plain, Ranges: ranges, Archive: archive}, nil
}

// sniff inspects the magic bytes at the start of data and returns the
// compression type detected (format.CompressionNone if none matched) and
// the codec to decompress it with, or a nil codec for CompressionNone.
func sniff(data []byte) (format.CompressionType, compress.Codec) {
	switch {
	case hasPrefix(data, zstdMagic):
		c, _ := compress.GetCodec(format.CompressionZstd)
		return format.CompressionZstd, c
	case hasPrefix(data, compress.S2FrameMagic):
		c, _ := compress.GetCodec(format.CompressionS2)
		return format.CompressionS2, c
	case hasPrefix(data, compress.LZ4FrameMagic):
		c, _ := compress.GetCodec(format.CompressionLZ4)
		return format.CompressionLZ4, c
	default:
		return format.CompressionNone, nil
	}
}

// zstdMagic is the four-byte magic opening every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

func hasPrefix(data, magic []byte) bool {
	return len(data) >= len(magic) && bytes.Equal(data[:len(magic)], magic)
}

// scan finds every occurrence of startMarker in data and turns them into
// half-open log ranges, the last one ending at len(data).
func scan(data []byte) ([]Range, error) {
	var starts []int
	for pos := 0; ; {
		idx := bytes.Index(data[pos:], []byte(startMarker))
		if idx < 0 {
			break
		}
		starts = append(starts, pos+idx)
		pos += idx + len(startMarker)
		if len(starts) >= maxLogs {
			break
		}
	}

	if len(starts) == 0 {
		return nil, nil
	}

	ranges := make([]Range, len(starts))
	for i, begin := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		ranges[i] = Range{Begin: begin, End: end}
	}

	return ranges, nil
}

// Count returns the number of logs found in the container.
func (c *Container) Count() int {
	return len(c.Ranges)
}

// Log returns the raw bytes of log i, ready to pass to stream.Decoder.Parse.
func (c *Container) Log(i int) ([]byte, error) {
	if i < 0 || i >= len(c.Ranges) {
		return nil, fmt.Errorf("%w: index %d, have %d logs", errs.ErrNoLog, i, len(c.Ranges))
	}

	r := c.Ranges[i]
	return c.Data[r.Begin:r.End], nil
}

// Digest returns the xxHash64 of log i's raw bytes, a cheap way for a
// caller to detect whether a log has changed across two captures of the
// same container without re-parsing either.
func (c *Container) Digest(i int) (uint64, error) {
	log, err := c.Log(i)
	if err != nil {
		return 0, err
	}

	return hash.ID(string(log)), nil
}

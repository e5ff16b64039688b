package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"

	"github.com/flightrec/blackbox/internal/pool"
)

// S2FrameMagic is the leading bytes of an s2-framed stream (the Snappy
// frame format S2 extends), used by container.Open to recognise an S2
// archive before attempting decompression.
var S2FrameMagic = []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}

type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data using S2's framed stream format, so
// the result carries a self-describing magic a container sniff can match
// on.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bb := pool.GetLogBuffer()
	defer pool.PutLogBuffer(bb)

	w := s2.NewWriter(bb)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("s2 compression failed: %w", err)
	}

	out := make([]byte, bb.Len())
	copy(out, bb.Bytes())
	return out, nil
}

// Decompress decompresses an s2-framed stream.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := s2.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("s2 decompression failed: %w", err)
	}

	return out, nil
}

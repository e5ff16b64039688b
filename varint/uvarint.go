package varint

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// maxUvarintBytes is the maximum number of bytes a 32-bit unsigned VLQ can
// occupy: ceil(32/7) = 5.
const maxUvarintBytes = 5

// AppendUvarint appends the little-endian base-128 VLQ encoding of v to dst
// and returns the extended slice.
//
// Each byte carries 7 bits of magnitude in its low bits; the top bit is set
// on every byte except the last to signal that another byte follows.
func AppendUvarint(dst []byte, v uint32) []byte {
	for v > 0x7F {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}

	return append(dst, byte(v))
}

// ReadUvarint decodes an unsigned VLQ from data starting at offset.
//
// Returns the decoded value, the number of bytes consumed, and an error. At
// most 5 bytes are read (enough for 32 bits of magnitude); a 6th
// continuation byte is reported as errs.ErrCorruptVarint. Running out of
// input mid-value is reported as errs.ErrUnexpectedEOF.
func ReadUvarint(data []byte, offset int) (v uint32, n int, err error) {
	var shift uint
	for n = 0; n < maxUvarintBytes; n++ {
		idx := offset + n
		if idx >= len(data) {
			return 0, 0, fmt.Errorf("%w: reading varint byte %d", errs.ErrUnexpectedEOF, n)
		}

		b := data[idx]
		v |= uint32(b&0x7F) << shift

		if b&0x80 == 0 {
			return v, n + 1, nil
		}
		shift += 7
	}

	return 0, 0, fmt.Errorf("%w: exceeded %d bytes", errs.ErrCorruptVarint, maxUvarintBytes)
}

// ZigZagEncode maps a signed 32-bit value to an unsigned 32-bit value so
// that small-magnitude negative values stay cheap to VLQ-encode: 0, -1, 1,
// -2, 2, ... map to 0, 1, 2, 3, 4, ...
func ZigZagEncode(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31) //nolint:gosec
}

// ZigZagDecode inverts ZigZagEncode.
func ZigZagDecode(z uint32) int32 {
	return int32(z>>1) ^ -int32(z&1) //nolint:gosec
}

// AppendSvarint appends the ZigZag + unsigned-VLQ encoding of a signed value
// to dst and returns the extended slice.
func AppendSvarint(dst []byte, v int32) []byte {
	return AppendUvarint(dst, ZigZagEncode(v))
}

// ReadSvarint decodes a ZigZag + unsigned-VLQ encoded signed value from data
// starting at offset, returning the value, bytes consumed, and an error.
func ReadSvarint(data []byte, offset int) (v int32, n int, err error) {
	z, n, err := ReadUvarint(data, offset)
	if err != nil {
		return 0, 0, err
	}

	return ZigZagDecode(z), n, nil
}

package varint

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// MaxTag8_8SVBFields is the widest group this codec supports: one bitmap
// byte has 8 flag bits, one per field. The common caller is the motor
// group, which varies from 1 to 8 fields depending on craft configuration.
const MaxTag8_8SVBFields = 8

// AppendTag8_8SVB encodes up to 8 signed values as a bitmap byte (bit i set
// when values[i] != 0) followed by one signed VLQ per nonzero value. As a
// fast path, a single-field group skips the bitmap and just emits the VLQ
// (the bitmap would otherwise cost a whole byte to say "field 0 present").
func AppendTag8_8SVB(dst []byte, values []int32) []byte {
	if len(values) > MaxTag8_8SVBFields {
		panic("varint: tag8_8svb group exceeds 8 fields")
	}

	if len(values) == 1 {
		return AppendSvarint(dst, values[0])
	}

	var bitmap byte
	for i, v := range values {
		if v != 0 {
			bitmap |= 1 << uint(i) //nolint:gosec
		}
	}
	dst = append(dst, bitmap)

	for i, v := range values {
		if bitmap&(1<<uint(i)) != 0 { //nolint:gosec
			dst = AppendSvarint(dst, v)
		}
	}

	return dst
}

// ReadTag8_8SVB decodes a group of n signed values (1..8) previously
// encoded with AppendTag8_8SVB into dst, returning the number of bytes
// consumed. dst must have length n.
//
// A single-field group has no bitmap and is read as one signed VLQ. For
// larger groups the bitmap is always read as a full 8-bit byte regardless of
// the group's actual field count, mirroring the reference decoder, which unconditionally
// walks all 8 bit positions; a group shorter than 8 fields simply never has
// its unused high bits set; no VLQ bytes are emitted or consumed for
// positions past n.
func ReadTag8_8SVB(data []byte, offset int, dst []int32) (n int, err error) {
	if len(dst) > MaxTag8_8SVBFields {
		panic("varint: tag8_8svb group exceeds 8 fields")
	}

	if len(dst) == 1 {
		v, consumed, err := ReadSvarint(data, offset)
		if err != nil {
			return 0, fmt.Errorf("%w: reading tag8_8svb single field", err)
		}
		dst[0] = v
		return consumed, nil
	}

	if offset >= len(data) {
		return 0, fmt.Errorf("%w: reading tag8_8svb bitmap", errs.ErrUnexpectedEOF)
	}
	bitmap := data[offset]
	pos := offset + 1

	for i := range dst {
		if bitmap&(1<<uint(i)) == 0 { //nolint:gosec
			dst[i] = 0
			continue
		}
		v, consumed, err := ReadSvarint(data, pos)
		if err != nil {
			return 0, fmt.Errorf("%w: reading tag8_8svb field %d", err, i)
		}
		dst[i] = v
		pos += consumed
	}

	return pos - offset, nil
}

package varint

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// tag23s32Layout identifies which of the four wire layouts a Tag2_3S32
// lead byte selects, ordered from cheapest to most expensive so the
// encoder can pick the first one that fits. The layout occupies the top
// two bits of the lead byte (parser.c's `leadByte >> 6`), not the low
// bits: 00 picks 2-bit fields, 01 picks 4-bit fields, 10 picks 6-bit
// fields, 11 picks the per-field byte-count fallback.
type tag23s32Layout uint8

const (
	layout2Bit tag23s32Layout = iota
	layout4Bit
	layout6Bit
	layoutVarByte
)

// byteFieldSize is one of the four per-field byte widths the `11` layout's
// secondary selector can choose, packed two bits per field (parser.c's
// `leadByte & 0x03` after each 2-bit right shift).
type byteFieldSize uint8

const (
	size1Byte byteFieldSize = iota
	size2Byte
	size3Byte
	size4Byte
)

// fitsSigned reports whether v fits in a signed field of the given bit
// width.
func fitsSigned(v int32, bits uint) bool {
	lo := -(int32(1) << (bits - 1))
	hi := int32(1)<<(bits-1) - 1
	return v >= lo && v <= hi
}

func tag23s32Classify(values [3]int32) tag23s32Layout {
	switch {
	case fitsSigned(values[0], 2) && fitsSigned(values[1], 2) && fitsSigned(values[2], 2):
		return layout2Bit
	case fitsSigned(values[0], 4) && fitsSigned(values[1], 4) && fitsSigned(values[2], 4):
		return layout4Bit
	case fitsSigned(values[0], 6) && fitsSigned(values[1], 6) && fitsSigned(values[2], 6):
		return layout6Bit
	default:
		return layoutVarByte
	}
}

// byteFieldSizeFor returns the smallest fixed byte width {1,2,3,4} that
// holds v as a sign-extended little-endian integer.
func byteFieldSizeFor(v int32) byteFieldSize {
	switch {
	case fitsSigned(v, 8):
		return size1Byte
	case fitsSigned(v, 16):
		return size2Byte
	case fitsSigned(v, 24):
		return size3Byte
	default:
		return size4Byte
	}
}

// AppendTag2_3S32 encodes three signed values using the four-layout scheme
// described in spec.md §4.1, bit-for-bit matching
// _examples/original_source/tools/blackbox/src/parser.c's readTag2_3S32: a
// 2-bit selector in the *top* of the lead byte chooses between packing all
// three values into the remaining 6 bits (2-bit fields), one extra byte
// (4-bit fields, the lead byte's low nibble holding field 0), two extra
// bytes (6-bit fields, each byte-aligned in its low six bits), or a
// per-field {1,2,3,4}-byte fallback selected by a secondary 6-bit selector
// packed into the lead byte's low six bits (two bits per field, LSB =
// field 0).
func AppendTag2_3S32(dst []byte, values [3]int32) []byte {
	layout := tag23s32Classify(values)

	switch layout {
	case layout2Bit:
		lead := byte(layout) << 6
		lead |= byte(uint32(values[0])&0x03) << 4
		lead |= byte(uint32(values[1])&0x03) << 2
		lead |= byte(uint32(values[2]) & 0x03)
		dst = append(dst, lead)
	case layout4Bit:
		lead := byte(layout)<<6 | byte(uint32(values[0])&0x0F)
		dst = append(dst, lead)
		dst = append(dst, byte(uint32(values[1])&0x0F)<<4|byte(uint32(values[2])&0x0F))
	case layout6Bit:
		lead := byte(layout)<<6 | byte(uint32(values[0])&0x3F)
		dst = append(dst, lead)
		dst = append(dst, byte(uint32(values[1])&0x3F))
		dst = append(dst, byte(uint32(values[2])&0x3F))
	case layoutVarByte:
		sizes := [3]byteFieldSize{
			byteFieldSizeFor(values[0]),
			byteFieldSizeFor(values[1]),
			byteFieldSizeFor(values[2]),
		}
		lead := byte(layout) << 6
		lead |= byte(sizes[0])
		lead |= byte(sizes[1]) << 2
		lead |= byte(sizes[2]) << 4
		dst = append(dst, lead)
		for i, v := range values {
			dst = appendByteField(dst, v, sizes[i])
		}
	}

	return dst
}

// appendByteField appends v as a little-endian fixed-width integer of the
// given size, truncating to the low size*8 bits (the same bits
// byteFieldSizeFor guaranteed fit v).
func appendByteField(dst []byte, v int32, size byteFieldSize) []byte {
	u := uint32(v)
	n := int(size) + 1
	for i := 0; i < n; i++ {
		dst = append(dst, byte(u))
		u >>= 8
	}
	return dst
}

// readByteField reads an n-byte little-endian integer starting at
// data[pos] and sign-extends it from n*8 bits to int32.
func readByteField(data []byte, pos int, size byteFieldSize) (int32, error) {
	n := int(size) + 1
	if pos+n > len(data) {
		return 0, fmt.Errorf("%w: reading tag2_3s32 var-byte field", errs.ErrUnexpectedEOF)
	}
	var u uint32
	for i := n - 1; i >= 0; i-- {
		u = u<<8 | uint32(data[pos+i])
	}
	return signExtend(u, uint(n*8)), nil
}

// ReadTag2_3S32 decodes three signed values previously encoded with
// AppendTag2_3S32, returning them and the total number of bytes consumed
// (including the lead byte).
func ReadTag2_3S32(data []byte, offset int) (values [3]int32, n int, err error) {
	if offset >= len(data) {
		return values, 0, fmt.Errorf("%w: reading tag2_3s32 lead byte", errs.ErrUnexpectedEOF)
	}
	lead := data[offset]
	layout := tag23s32Layout(lead >> 6)
	pos := offset + 1

	switch layout {
	case layout2Bit:
		values[0] = signExtend(uint32(lead>>4)&0x03, 2)
		values[1] = signExtend(uint32(lead>>2)&0x03, 2)
		values[2] = signExtend(uint32(lead)&0x03, 2)
	case layout4Bit:
		if pos+1 > len(data) {
			return values, 0, fmt.Errorf("%w: reading tag2_3s32 4-bit fields", errs.ErrUnexpectedEOF)
		}
		values[0] = signExtend(uint32(lead)&0x0F, 4)
		b := data[pos]
		values[1] = signExtend(uint32(b>>4)&0x0F, 4)
		values[2] = signExtend(uint32(b)&0x0F, 4)
		pos++
	case layout6Bit:
		if pos+2 > len(data) {
			return values, 0, fmt.Errorf("%w: reading tag2_3s32 6-bit fields", errs.ErrUnexpectedEOF)
		}
		values[0] = signExtend(uint32(lead)&0x3F, 6)
		values[1] = signExtend(uint32(data[pos])&0x3F, 6)
		values[2] = signExtend(uint32(data[pos+1])&0x3F, 6)
		pos += 2
	case layoutVarByte:
		sizes := [3]byteFieldSize{
			byteFieldSize(lead & 0x03),
			byteFieldSize((lead >> 2) & 0x03),
			byteFieldSize((lead >> 4) & 0x03),
		}
		for i, size := range sizes {
			values[i], err = readByteField(data, pos, size)
			if err != nil {
				return values, 0, fmt.Errorf("%w: field %d", err, i)
			}
			pos += int(size) + 1
		}
	}

	return values, pos - offset, nil
}

package varint

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// FieldSize is the per-field size class used by the Tag8_4S16 selector.
type FieldSize uint8

const (
	SizeZero   FieldSize = 0
	SizeNibble FieldSize = 1
	SizeByte   FieldSize = 2
	SizeShort  FieldSize = 3
)

// nibbleCleanup promotes an unpaired Nibble field to Byte (its neighbor keeps
// its own class, Short included) so that every Nibble in the final selector is
// paired with another Nibble sharing one byte. Indexed by a 4-bit selector
// made of two fields' raw size classes (low 2 bits = first field, high 2
// bits = second field); the result packs the two *cleaned* classes the same
// way. This is the fixed 16-entry lookup table from the reference firmware's
// rcSelectorCleanup.
var nibbleCleanup = [16]uint8{
	uint8(SizeZero)<<2 | uint8(SizeZero),   // zero, zero
	uint8(SizeZero)<<2 | uint8(SizeByte),   // zero, nibble
	uint8(SizeZero)<<2 | uint8(SizeByte),   // zero, byte
	uint8(SizeZero)<<2 | uint8(SizeShort),  // zero, short
	uint8(SizeByte)<<2 | uint8(SizeZero),   // nibble, zero
	uint8(SizeNibble)<<2 | uint8(SizeNibble), // nibble, nibble
	uint8(SizeByte)<<2 | uint8(SizeByte),   // nibble, byte
	uint8(SizeByte)<<2 | uint8(SizeShort),  // nibble, short
	uint8(SizeByte)<<2 | uint8(SizeZero),   // byte, zero
	uint8(SizeByte)<<2 | uint8(SizeByte),   // byte, nibble
	uint8(SizeByte)<<2 | uint8(SizeByte),   // byte, byte
	uint8(SizeByte)<<2 | uint8(SizeShort),  // byte, short
	uint8(SizeShort)<<2 | uint8(SizeZero),  // short, zero
	uint8(SizeShort)<<2 | uint8(SizeByte),  // short, nibble
	uint8(SizeShort)<<2 | uint8(SizeByte),  // short, byte
	uint8(SizeShort)<<2 | uint8(SizeShort), // short, short
}

// classify returns the tightest size class that fits v without promotion.
func classify(v int32) FieldSize {
	switch {
	case v == 0:
		return SizeZero
	case v >= -8 && v <= 7:
		return SizeNibble
	case v >= -128 && v <= 127:
		return SizeByte
	default:
		return SizeShort
	}
}

// tag84s16Selector classifies four values and returns the cleaned-up
// 8-bit selector byte (two bits per field, field 0 in the low bits).
func tag84s16Selector(values [4]int32) uint8 {
	var raw [4]FieldSize
	for i, v := range values {
		raw[i] = classify(v)
	}

	// Clean up each adjacent pair so a lone Nibble is promoted.
	pairLow := nibbleCleanup[uint8(raw[1])<<2|uint8(raw[0])]
	pairHigh := nibbleCleanup[uint8(raw[3])<<2|uint8(raw[2])]

	var selector uint8
	selector |= pairLow & 0x03
	selector |= (pairLow >> 2 & 0x03) << 2
	selector |= (pairHigh & 0x03) << 4
	selector |= (pairHigh >> 2 & 0x03) << 6

	return selector
}

// AppendTag8_4S16 encodes four signed values using the selector-byte plus
// packed-field layout described in spec.md §4.1. version selects the wire
// variant: 1 emits byte-aligned fields (nibble pairs share one byte, 8/16
// bit fields are byte-aligned); 2 (the variant this codec's encoders emit)
// treats the four values as a nibble stream with a one-nibble carry buffer,
// so Byte/Short fields can straddle nibble boundaries.
func AppendTag8_4S16(dst []byte, values [4]int32, version int) []byte {
	selector := tag84s16Selector(values)
	dst = append(dst, selector)

	if version < 2 {
		return appendTag84S16V1(dst, values, selector)
	}

	return appendTag84S16V2(dst, values, selector)
}

func appendTag84S16V1(dst []byte, values [4]int32, selector uint8) []byte {
	for i := 0; i < 4; i++ {
		switch FieldSize(selector >> (uint(i) * 2) & 0x03) { //nolint:gosec
		case SizeZero:
			// no bits on the wire
		case SizeNibble:
			lo := values[i]
			i++
			hi := values[i]
			dst = append(dst, byte(lo)&0x0F|byte(hi)<<4)
		case SizeByte:
			dst = append(dst, byte(values[i]))
		case SizeShort:
			v := uint16(values[i]) //nolint:gosec
			dst = append(dst, byte(v), byte(v>>8))
		}
	}

	return dst
}

func appendTag84S16V2(dst []byte, values [4]int32, selector uint8) []byte {
	var w nibbleWriter
	for i := 0; i < 4; i++ {
		switch FieldSize(selector >> (uint(i) * 2) & 0x03) { //nolint:gosec
		case SizeZero:
			// no nibbles
		case SizeNibble:
			w.writeNibble(&dst, byte(values[i])&0x0F)
		case SizeByte:
			b := byte(values[i])
			w.writeNibble(&dst, b>>4)
			w.writeNibble(&dst, b&0x0F)
		case SizeShort:
			v := uint16(values[i]) //nolint:gosec
			w.writeNibble(&dst, byte(v>>12))
			w.writeNibble(&dst, byte(v>>8)&0x0F)
			w.writeNibble(&dst, byte(v>>4)&0x0F)
			w.writeNibble(&dst, byte(v)&0x0F)
		}
	}
	w.flush(&dst)

	return dst
}

// nibbleWriter packs 4-bit nibbles two-per-byte, MSB-first, with a group
// lifetime scoped to a single Tag8_4S16 call (state never carries across
// groups, matching the reference decoder's locally-scoped nibbleIndex).
type nibbleWriter struct {
	pending   byte
	hasNibble bool
}

func (w *nibbleWriter) writeNibble(dst *[]byte, n byte) {
	if !w.hasNibble {
		w.pending = n
		w.hasNibble = true
		return
	}
	*dst = append(*dst, w.pending<<4|n&0x0F)
	w.hasNibble = false
}

// flush pads and emits a trailing unpaired nibble, if any.
func (w *nibbleWriter) flush(dst *[]byte) {
	if w.hasNibble {
		*dst = append(*dst, w.pending<<4)
		w.hasNibble = false
	}
}

// ReadTag8_4S16 decodes four signed values previously encoded with
// AppendTag8_4S16, returning them and the total number of bytes consumed
// (including the selector byte).
func ReadTag8_4S16(data []byte, offset int, version int) (values [4]int32, n int, err error) {
	if offset >= len(data) {
		return values, 0, fmt.Errorf("%w: reading tag8_4s16 selector", errs.ErrUnexpectedEOF)
	}
	selector := data[offset]
	pos := offset + 1

	if version < 2 {
		values, pos, err = readTag84S16V1(data, pos, selector)
	} else {
		values, pos, err = readTag84S16V2(data, pos, selector)
	}
	if err != nil {
		return values, 0, err
	}

	return values, pos - offset, nil
}

func readTag84S16V1(data []byte, pos int, selector uint8) (values [4]int32, next int, err error) {
	for i := 0; i < 4; i++ {
		switch FieldSize(selector >> (uint(i) * 2) & 0x03) { //nolint:gosec
		case SizeZero:
			values[i] = 0
		case SizeNibble:
			if pos >= len(data) {
				return values, 0, fmt.Errorf("%w: reading tag8_4s16 nibble pair", errs.ErrUnexpectedEOF)
			}
			b := data[pos]
			pos++
			values[i] = signExtend(uint32(b&0x0F), 4)
			i++
			values[i] = signExtend(uint32(b>>4), 4)
		case SizeByte:
			if pos >= len(data) {
				return values, 0, fmt.Errorf("%w: reading tag8_4s16 byte field", errs.ErrUnexpectedEOF)
			}
			values[i] = int32(int8(data[pos]))
			pos++
		case SizeShort:
			if pos+2 > len(data) {
				return values, 0, fmt.Errorf("%w: reading tag8_4s16 short field", errs.ErrUnexpectedEOF)
			}
			v := uint16(data[pos]) | uint16(data[pos+1])<<8
			values[i] = int32(int16(v)) //nolint:gosec
			pos += 2
		}
	}

	return values, pos, nil
}

func readTag84S16V2(data []byte, pos int, selector uint8) (values [4]int32, next int, err error) {
	r := nibbleReader{}
	for i := 0; i < 4; i++ {
		switch FieldSize(selector >> (uint(i) * 2) & 0x03) { //nolint:gosec
		case SizeZero:
			values[i] = 0
		case SizeNibble:
			n, perr := r.readNibble(data, &pos)
			if perr != nil {
				return values, 0, perr
			}
			values[i] = signExtend(uint32(n), 4)
		case SizeByte:
			n0, perr := r.readNibble(data, &pos)
			if perr != nil {
				return values, 0, perr
			}
			n1, perr := r.readNibble(data, &pos)
			if perr != nil {
				return values, 0, perr
			}
			values[i] = int32(int8(n0<<4 | n1))
		case SizeShort:
			var b uint16
			for shift := 3; shift >= 0; shift-- {
				n, perr := r.readNibble(data, &pos)
				if perr != nil {
					return values, 0, perr
				}
				b |= uint16(n) << uint(shift*4) //nolint:gosec
			}
			values[i] = int32(int16(b)) //nolint:gosec
		}
	}

	return values, pos, nil
}

// nibbleReader is the decode-side mirror of nibbleWriter: it reads whole
// bytes from data lazily, one nibble at a time, scoped to a single
// Tag8_4S16 group.
type nibbleReader struct {
	buffer    byte
	hasNibble bool
}

func (r *nibbleReader) readNibble(data []byte, pos *int) (byte, error) {
	if r.hasNibble {
		r.hasNibble = false
		return r.buffer & 0x0F, nil
	}

	if *pos >= len(data) {
		return 0, fmt.Errorf("%w: reading tag8_4s16 nibble stream", errs.ErrUnexpectedEOF)
	}
	r.buffer = data[*pos]
	*pos++
	r.hasNibble = true

	return r.buffer >> 4, nil
}

// signExtend sign-extends the low `bits` bits of v (an unsigned value) to a
// full int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift //nolint:gosec
}

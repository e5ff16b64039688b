package frame

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
	"github.com/flightrec/blackbox/predict"
	"github.com/flightrec/blackbox/schema"
	"github.com/flightrec/blackbox/varint"
)

// Kind identifies which of the four frame types a byte stream belongs to.
type Kind byte

const (
	KindIntra   Kind = 'I'
	KindInter   Kind = 'P'
	KindGPS     Kind = 'G'
	KindGPSHome Kind = 'H'
	KindEvent   Kind = 'E'
)

// IsFrameMarker reports whether b is one of the five bytes that can open a
// frame, the resynchronisation set the stream decoder scans for after a
// corrupt frame.
func IsFrameMarker(b byte) bool {
	switch Kind(b) {
	case KindIntra, KindInter, KindGPS, KindGPSHome, KindEvent:
		return true
	default:
		return false
	}
}

// TagVersion selects which Tag8_4S16 wire variant a frame's group-encoded
// fields use. It tracks schema.Config.DataVersion: versions below 2 use
// the byte-aligned v1 layout, 2 and above use the nibble-stream v2 layout.
type TagVersion int

// Decode reconstructs a frame's field values from data starting at offset,
// given the frame's field schema, the running per-field History (advanced
// by the caller after a successful decode), and a predictor Context
// pre-populated with whatever values this predictor set needs (minimum
// throttle, battery reference, GPS home, skipped-frame count). Motor0Value
// in ctx is overwritten internally once motor[0]'s own slot is decoded, so
// callers don't need to resolve it themselves.
func Decode(data []byte, offset int, fields []schema.Field, hist []predict.History, ctx predict.Context, motor0Index int, tagVersion TagVersion) (values []int32, n int, err error) {
	if len(hist) != len(fields) {
		return nil, 0, fmt.Errorf("%w: history length %d does not match field count %d", errs.ErrFrameCorrupt, len(hist), len(fields))
	}

	values = make([]int32, len(fields))
	pos := offset
	homeCoordSeen := 0

	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if motor0Index >= 0 && i > motor0Index {
			ctx.Motor0Value = values[motor0Index]
		}
		if field.Predictor == predict.HomeCoord {
			if homeCoordSeen == 1 {
				ctx.HomeCoord = ctx.HomeCoordLon
			}
			homeCoordSeen++
		}

		if field.Predictor.IsImplicit() {
			v, err := predict.Predict(field.Predictor, field.Signed, hist[i], ctx)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			values[i] = v
			continue
		}

		switch {
		case field.Encoding == schema.Tag8_4S16:
			groupLen := 4
			if i+groupLen > len(fields) {
				return nil, 0, fmt.Errorf("%w: tag8_4s16 group overruns field list at %q", errs.ErrBadGroupSchema, field.Name)
			}
			for j := 1; j < groupLen; j++ {
				if fields[i+j].Encoding != field.Encoding {
					return nil, 0, fmt.Errorf("%w: tag8_4s16 group interrupted at %q", errs.ErrBadGroupSchema, fields[i+j].Name)
				}
			}
			residuals, consumed, err := varint.ReadTag8_4S16(data, pos, int(tagVersion))
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			pos += consumed
			for j := 0; j < groupLen; j++ {
				v, err := predict.Apply(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, residuals[j])
				if err != nil {
					return nil, 0, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				values[i+j] = v
			}
			i += groupLen - 1

		case field.Encoding == schema.Tag2_3S32:
			groupLen := 3
			if i+groupLen > len(fields) {
				return nil, 0, fmt.Errorf("%w: tag2_3s32 group overruns field list at %q", errs.ErrBadGroupSchema, field.Name)
			}
			for j := 1; j < groupLen; j++ {
				if fields[i+j].Encoding != field.Encoding {
					return nil, 0, fmt.Errorf("%w: tag2_3s32 group interrupted at %q", errs.ErrBadGroupSchema, fields[i+j].Name)
				}
			}
			residuals, consumed, err := varint.ReadTag2_3S32(data, pos)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			pos += consumed
			for j := 0; j < groupLen; j++ {
				v, err := predict.Apply(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, residuals[j])
				if err != nil {
					return nil, 0, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				values[i+j] = v
			}
			i += groupLen - 1

		case field.Encoding == schema.Tag8_8SVB:
			groupLen := tag88GroupLen(fields, i)
			residuals := make([]int32, groupLen)
			consumed, err := varint.ReadTag8_8SVB(data, pos, residuals)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			pos += consumed
			for j := 0; j < groupLen; j++ {
				v, err := predict.Apply(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, residuals[j])
				if err != nil {
					return nil, 0, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				values[i+j] = v
			}
			i += groupLen - 1

		case field.Encoding == schema.Null:
			// No bits on the wire for this field; the field repeats its
			// previous value (the reference firmware never actually
			// declares this encoding in a real schema).
			values[i] = hist[i].Prev

		default:
			residual, consumed, err := decodeScalar(data, pos, field.Encoding)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			pos += consumed
			v, err := predict.Apply(field.Predictor, field.Signed, hist[i], ctx, residual)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: field %q", err, field.Name)
			}
			values[i] = v
		}
	}

	return values, pos - offset, nil
}

// Encode appends the wire bytes for actual field values to dst, given the
// same field schema, History and Context Decode would use to reconstruct
// them. Fields whose predictor is implicit contribute no bytes.
func Encode(dst []byte, values []int32, fields []schema.Field, hist []predict.History, ctx predict.Context, motor0Index int, tagVersion TagVersion) ([]byte, error) {
	if len(values) != len(fields) || len(hist) != len(fields) {
		return nil, fmt.Errorf("%w: value/history length mismatch against %d fields", errs.ErrFrameCorrupt, len(fields))
	}

	homeCoordSeen := 0
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if motor0Index >= 0 && i > motor0Index {
			ctx.Motor0Value = values[motor0Index]
		}
		if field.Predictor == predict.HomeCoord {
			if homeCoordSeen == 1 {
				ctx.HomeCoord = ctx.HomeCoordLon
			}
			homeCoordSeen++
		}

		if field.Predictor.IsImplicit() {
			continue
		}

		switch {
		case field.Encoding == schema.Tag8_4S16:
			groupLen := 4
			var residuals [4]int32
			for j := 0; j < groupLen; j++ {
				r, err := predict.Invert(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, values[i+j])
				if err != nil {
					return nil, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				residuals[j] = r
			}
			dst = varint.AppendTag8_4S16(dst, residuals, int(tagVersion))
			i += groupLen - 1

		case field.Encoding == schema.Tag2_3S32:
			groupLen := 3
			var residuals [3]int32
			for j := 0; j < groupLen; j++ {
				r, err := predict.Invert(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, values[i+j])
				if err != nil {
					return nil, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				residuals[j] = r
			}
			dst = varint.AppendTag2_3S32(dst, residuals)
			i += groupLen - 1

		case field.Encoding == schema.Tag8_8SVB:
			groupLen := tag88GroupLen(fields, i)
			residuals := make([]int32, groupLen)
			for j := 0; j < groupLen; j++ {
				r, err := predict.Invert(fields[i+j].Predictor, fields[i+j].Signed, hist[i+j], ctx, values[i+j])
				if err != nil {
					return nil, fmt.Errorf("%w: field %q", err, fields[i+j].Name)
				}
				residuals[j] = r
			}
			dst = varint.AppendTag8_8SVB(dst, residuals)
			i += groupLen - 1

		case field.Encoding == schema.Null:
			// nothing to write

		default:
			residual, err := predict.Invert(field.Predictor, field.Signed, hist[i], ctx, values[i])
			if err != nil {
				return nil, fmt.Errorf("%w: field %q", err, field.Name)
			}
			dst = encodeScalar(dst, residual, field.Encoding)
		}
	}

	return dst, nil
}

// tag88GroupLen scans forward from i to find how many consecutive fields
// share the Tag8_8SVB encoding, capped at 8 fields and the field list's
// end, mirroring the reference decoder's run-length probe.
func tag88GroupLen(fields []schema.Field, i int) int {
	j := i + 1
	for j < len(fields) && j < i+8 && fields[j].Encoding == schema.Tag8_8SVB {
		j++
	}
	return j - i
}

// fixedWidth returns the byte width of a fixed-size scalar encoding, or 0
// if enc isn't one.
func fixedWidth(enc schema.Encoding) int {
	switch enc {
	case schema.U8, schema.S8:
		return 1
	case schema.U16, schema.S16:
		return 2
	case schema.U32, schema.S32:
		return 4
	default:
		return 0
	}
}

func decodeScalar(data []byte, offset int, enc schema.Encoding) (int32, int, error) {
	switch enc {
	case schema.SignedVB:
		return varint.ReadSvarint(data, offset)
	case schema.UnsignedVB:
		v, n, err := varint.ReadUvarint(data, offset)
		return int32(v), n, err //nolint:gosec
	case schema.U8, schema.U16, schema.U32, schema.S8, schema.S16, schema.S32:
		width := fixedWidth(enc)
		if offset+width > len(data) {
			return 0, 0, fmt.Errorf("%w: reading %d-byte fixed field", errs.ErrUnexpectedEOF, width)
		}
		var u uint32
		for i := 0; i < width; i++ {
			u |= uint32(data[offset+i]) << uint(8*i) //nolint:gosec
		}
		if signedFixedWidth(enc) {
			shift := uint(32 - 8*width) //nolint:gosec
			return int32(u<<shift) >> shift, width, nil //nolint:gosec
		}
		return int32(u), width, nil //nolint:gosec
	default:
		return 0, 0, fmt.Errorf("%w: scalar encoding %s", errs.ErrUnknownEncoding, enc)
	}
}

func encodeScalar(dst []byte, residual int32, enc schema.Encoding) []byte {
	switch enc {
	case schema.SignedVB:
		return varint.AppendSvarint(dst, residual)
	case schema.UnsignedVB:
		return varint.AppendUvarint(dst, uint32(residual)) //nolint:gosec
	case schema.U8, schema.U16, schema.U32, schema.S8, schema.S16, schema.S32:
		width := fixedWidth(enc)
		u := uint32(residual) //nolint:gosec
		for i := 0; i < width; i++ {
			dst = append(dst, byte(u>>uint(8*i))) //nolint:gosec
		}
		return dst
	default:
		panic(fmt.Sprintf("frame: unsupported scalar encoding %s", enc))
	}
}

func signedFixedWidth(enc schema.Encoding) bool {
	return enc == schema.S8 || enc == schema.S16 || enc == schema.S32
}

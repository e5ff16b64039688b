package schema

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// Encoding is the closed set of per-field wire encodings. The numeric
// values 0-9 match the reference firmware's FLIGHT_LOG_FIELD_ENCODING_*
// constants; Tag2_3S32 and Tag8_8SVB (10, 11) continue the sequence past
// Null — the retained field-definitions header stopped at 9, but the
// parser's group-encoding switch proves both exist on the wire (see
// DESIGN.md).
type Encoding uint8

const (
	SignedVB   Encoding = 0
	UnsignedVB Encoding = 1
	U8         Encoding = 2
	U16        Encoding = 3
	U32        Encoding = 4
	S8         Encoding = 5
	S16        Encoding = 6
	S32        Encoding = 7
	Tag8_4S16  Encoding = 8
	Null       Encoding = 9
	Tag2_3S32  Encoding = 10
	Tag8_8SVB  Encoding = 11
)

func (e Encoding) String() string {
	switch e {
	case SignedVB:
		return "SignedVB"
	case UnsignedVB:
		return "UnsignedVB"
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case S8:
		return "S8"
	case S16:
		return "S16"
	case S32:
		return "S32"
	case Tag8_4S16:
		return "Tag8_4S16"
	case Null:
		return "Null"
	case Tag2_3S32:
		return "Tag2_3S32"
	case Tag8_8SVB:
		return "Tag8_8SVB"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the twelve known encoding ids.
func (e Encoding) Valid() bool {
	return e <= Tag8_8SVB
}

// IsGroup reports whether e consumes more than one field's slot of a
// frame's field list per invocation: Tag8_4S16 always covers 4 fields,
// Tag2_3S32 covers 3, and Tag8_8SVB covers a run of up to 8 identically
// encoded fields (the motor count).
func (e Encoding) IsGroup() bool {
	return e == Tag8_4S16 || e == Tag2_3S32 || e == Tag8_8SVB
}

// GroupSize returns the fixed field count of a group encoding, or 0 for
// Tag8_8SVB whose run length is schema-defined rather than fixed.
func (e Encoding) GroupSize() int {
	switch e {
	case Tag8_4S16:
		return 4
	case Tag2_3S32:
		return 3
	default:
		return 0
	}
}

// parseEncoding validates a raw integer against the closed id set.
func parseEncoding(raw int) (Encoding, error) {
	if raw < 0 || raw > int(Tag8_8SVB) {
		return 0, fmt.Errorf("%w: encoding id %d", errs.ErrUnknownEncoding, raw)
	}
	return Encoding(raw), nil
}

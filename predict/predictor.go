package predict

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
)

// Predictor is the closed set of field predictors. The numeric values match
// the reference firmware's FLIGHT_LOG_FIELD_PREDICTOR_* constants, with
// Const1500 and VBatRef continuing the sequence past HomeCoord (the
// retained field-definitions header only enumerated 0-7; 8 and 9 are
// recovered from the parser's predictor switch).
type Predictor uint8

const (
	None         Predictor = 0
	Previous     Predictor = 1
	StraightLine Predictor = 2
	Average2     Predictor = 3
	MinThrottle  Predictor = 4
	Motor0       Predictor = 5
	Increment    Predictor = 6
	HomeCoord    Predictor = 7
	Const1500    Predictor = 8
	VBatRef      Predictor = 9
)

func (p Predictor) String() string {
	switch p {
	case None:
		return "None"
	case Previous:
		return "Previous"
	case StraightLine:
		return "StraightLine"
	case Average2:
		return "Average2"
	case MinThrottle:
		return "MinThrottle"
	case Motor0:
		return "Motor0"
	case Increment:
		return "Increment"
	case HomeCoord:
		return "HomeCoord"
	case Const1500:
		return "Const1500"
	case VBatRef:
		return "VBatRef"
	default:
		return fmt.Sprintf("Predictor(%d)", uint8(p))
	}
}

// Valid reports whether p is one of the ten known predictor ids.
func (p Predictor) Valid() bool {
	return p <= VBatRef
}

// IsImplicit reports whether p never touches the wire: Increment is
// reconstructed purely from the previous frame's value plus the number of
// sampled-but-absent frames skipped to reach this one, so the frame layer
// must not read or write any residual bits for a field using it.
func (p Predictor) IsImplicit() bool {
	return p == Increment
}

// Context carries the run-scoped values a handful of predictors need beyond
// a field's own History: the declared minimum throttle, the reference
// battery voltage captured at arm time, the current frame's motor[0] value
// (for Motor0, which must run after motor 0 itself has been decoded), and
// the GPS home coordinate captured from the most recent H frame. A GPS
// frame carries two HomeCoord-predicted fields (latitude then longitude);
// HomeCoord holds whichever axis the frame layer is currently resolving
// and HomeCoordLon holds the second axis, so the frame layer can swap
// HomeCoord to HomeCoordLon after the first HomeCoord-predicted field in a
// frame without needing a second predictor id.
type Context struct {
	MinThrottle    int32
	VBatRef        int32
	Motor0Value    int32
	HomeCoord      int32
	HomeCoordLon   int32
	HomeCoordIsSet bool
	SkippedFrames  uint32
}

// History holds the two most recent values of a single field, as seen by
// the predictor that runs on the frame currently being built or parsed.
// Prev is the immediately preceding frame's value; Prev2 is the one before
// that. Both are zero-valued until enough frames have been seen, matching
// an Intraframe's predictors never depending on them.
type History struct {
	Prev  int32
	Prev2 int32
}

// Predict returns the predicted value for signed field using p, hist and
// ctx. The caller combines this with the wire residual: actual = predicted
// + residual, or conversely residual = actual - predicted when encoding.
// Both additions are performed with wrapping uint32 arithmetic, matching
// the reference decoder exactly (predictors and residuals are summed as
// unsigned 32-bit values before being reinterpreted as signed).
func Predict(p Predictor, signed bool, hist History, ctx Context) (int32, error) {
	switch p {
	case None:
		return 0, nil
	case Previous:
		return hist.Prev, nil
	case StraightLine:
		return straightLine(hist), nil
	case Average2:
		return average2(signed, hist), nil
	case MinThrottle:
		return ctx.MinThrottle, nil
	case Motor0:
		return ctx.Motor0Value, nil
	case Increment:
		return wrapAdd(wrapAdd(hist.Prev, 1), int32(ctx.SkippedFrames)), nil //nolint:gosec
	case HomeCoord:
		if !ctx.HomeCoordIsSet {
			return 0, nil
		}
		return ctx.HomeCoord, nil
	case Const1500:
		return 1500, nil
	case VBatRef:
		return ctx.VBatRef, nil
	default:
		return 0, fmt.Errorf("%w: predictor id %d", errs.ErrUnknownPredictor, uint8(p))
	}
}

// straightLine computes 2*prev - prev2 using wrapping uint32 arithmetic,
// mirroring the reference decoder's unsigned subtraction.
func straightLine(hist History) int32 {
	return int32(2*uint32(hist.Prev) - uint32(hist.Prev2)) //nolint:gosec
}

// average2 computes (prev + prev2) / 2. The signed path adds the two
// history values with wrapping uint32 arithmetic, reinterprets the sum as
// signed, then divides with Go's truncating-toward-zero integer division.
// The unsigned path keeps the sum and the division entirely in uint32,
// giving a floor division instead. This distinction only matters when the
// sum is negative (signed) or would differ from the reinterpreted value
// (unsigned), and is carried over exactly from the reference parser.
func average2(signed bool, hist History) int32 {
	sum := uint32(hist.Prev) + uint32(hist.Prev2) //nolint:gosec
	if signed {
		return int32(sum) / 2 //nolint:gosec
	}
	return int32(sum / 2) //nolint:gosec
}

// wrapAdd adds b to a using wrapping uint32 arithmetic.
func wrapAdd(a, b int32) int32 {
	return int32(uint32(a) + uint32(b)) //nolint:gosec
}

// Apply reconstructs a field's actual value from a wire residual on
// decode: actual = predicted(p, hist, ctx) + residual.
func Apply(p Predictor, signed bool, hist History, ctx Context, residual int32) (int32, error) {
	predicted, err := Predict(p, signed, hist, ctx)
	if err != nil {
		return 0, err
	}
	return wrapAdd(predicted, residual), nil
}

// Invert computes the wire residual for a field's actual value on encode:
// residual = actual - predicted(p, hist, ctx).
func Invert(p Predictor, signed bool, hist History, ctx Context, actual int32) (int32, error) {
	predicted, err := Predict(p, signed, hist, ctx)
	if err != nil {
		return 0, err
	}
	return wrapAdd(actual, -predicted), nil
}

// Advance shifts a new value into the history ring, demoting the current
// Prev to Prev2.
func (h *History) Advance(value int32) {
	h.Prev2 = h.Prev
	h.Prev = value
}

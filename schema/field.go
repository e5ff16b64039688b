package schema

import "github.com/flightrec/blackbox/predict"

// Field describes one column of a frame: its name (as declared by a
// "Field <type> name" header line), whether it's interpreted as signed,
// and the predictor/encoding pair that applies to it. I and P frames carry
// distinct predictor/encoding per field but share Name and Signed, since
// the reference firmware only ever emits one "Field I name" / "Field I
// signed" pair for both frame types.
type Field struct {
	Name      string
	Signed    bool
	Predictor predict.Predictor
	Encoding  Encoding
}

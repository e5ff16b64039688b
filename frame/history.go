package frame

import "github.com/flightrec/blackbox/predict"

// NewHistory returns a zero-valued History ring sized for n fields, ready
// for the first Intraframe of a stream (or of a resynchronised run).
func NewHistory(n int) []predict.History {
	return make([]predict.History, n)
}

// Advance shifts values into hist in place, one field at a time, after a
// frame has been successfully decoded or encoded.
func Advance(hist []predict.History, values []int32) {
	for i := range hist {
		hist[i].Advance(values[i])
	}
}

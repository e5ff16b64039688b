package stream

import "math"

// maxHistogramLength bounds the per-frame-type length histogram. Frames at
// or beyond this size still contribute to the running byte totals but are
// dropped from the histogram bucket.
const maxHistogramLength = 256

// FrameTypeStats accumulates the count, total bytes, and bounded length
// histogram for one of the four frame types.
type FrameTypeStats struct {
	Count           uint32
	Bytes           uint32
	LengthHistogram [maxHistogramLength]uint32
}

func (f *FrameTypeStats) record(size int) {
	f.Count++
	f.Bytes += uint32(size) //nolint:gosec
	if size >= 0 && size < maxHistogramLength {
		f.LengthHistogram[size]++
	}
}

// Statistics accumulates everything a parse run reports: per-frame-type
// counts, byte totals and length histograms, the broken/unusable/skipped
// frame counters, and the observed min/max of every main field.
type Statistics struct {
	I, P, G, H FrameTypeStats

	// NumBrokenFrames counts frame candidates discarded by
	// resynchronisation: premature EOF, or a trailing byte that doesn't
	// look like the start of the next frame.
	NumBrokenFrames uint32

	// NumUnusablePFrames counts main frames (I or P) that were decoded
	// but reported with valid=false because the main stream hadn't
	// resynchronised yet.
	NumUnusablePFrames uint32

	// IntentionallyAbsentFrames counts virtual iterations skipped by the
	// sampling fraction (P interval) between two logged main frames.
	IntentionallyAbsentFrames uint32

	// FieldMin/FieldMax track the smallest and largest value seen for
	// each main field across every valid committed I/P frame.
	FieldMin []int64
	FieldMax []int64
}

// NewStatistics returns a zeroed Statistics sized for fieldCount main
// fields, with FieldMin/FieldMax seeded so the first observed value always
// wins.
func NewStatistics(fieldCount int) Statistics {
	s := Statistics{
		FieldMin: make([]int64, fieldCount),
		FieldMax: make([]int64, fieldCount),
	}
	for i := range s.FieldMin {
		s.FieldMin[i] = math.MaxInt64
		s.FieldMax[i] = math.MinInt64
	}
	return s
}

// TotalBytes sums the byte totals of all four frame types.
func (s *Statistics) TotalBytes() uint32 {
	return s.I.Bytes + s.P.Bytes + s.G.Bytes + s.H.Bytes
}

func (s *Statistics) updateFieldRange(values []int32) {
	for i, v := range values {
		if i >= len(s.FieldMin) {
			break
		}
		iv := int64(v)
		if iv < s.FieldMin[i] {
			s.FieldMin[i] = iv
		}
		if iv > s.FieldMax[i] {
			s.FieldMax[i] = iv
		}
	}
}

// timeFieldIndex is the main schema's "time" field, field 1 in every
// default and custom schema this package accepts (field 0 is always the
// loop iteration).
const timeFieldIndex = 1

// Duration returns the span, in microseconds, between the smallest and
// largest observed "time" field across all committed main frames. It's
// zero if no frame has updated the range yet.
func (s *Statistics) Duration() int64 {
	if len(s.FieldMax) <= timeFieldIndex || s.FieldMax[timeFieldIndex] == math.MinInt64 {
		return 0
	}
	return s.FieldMax[timeFieldIndex] - s.FieldMin[timeFieldIndex]
}

package predict

import (
	"testing"

	"github.com/flightrec/blackbox/errs"
	"github.com/stretchr/testify/require"
)

func TestPredict_None(t *testing.T) {
	v, err := Predict(None, true, History{Prev: 500, Prev2: 400}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(0), v)
}

func TestPredict_Previous(t *testing.T) {
	v, err := Predict(Previous, true, History{Prev: 500, Prev2: 400}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(500), v)
}

func TestPredict_StraightLine(t *testing.T) {
	v, err := Predict(StraightLine, true, History{Prev: 500, Prev2: 400}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(600), v) // 2*500 - 400
}

func TestPredict_Average2_Signed(t *testing.T) {
	v, err := Predict(Average2, true, History{Prev: 5, Prev2: -6}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(-1)/2, v) // (5 + -6) == -1, truncating division
}

func TestPredict_Average2_Unsigned(t *testing.T) {
	v, err := Predict(Average2, false, History{Prev: 400, Prev2: 401}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(400), v) // floor((400+401)/2)
}

func TestPredict_MinThrottle(t *testing.T) {
	v, err := Predict(MinThrottle, true, History{}, Context{MinThrottle: 1150})
	require.NoError(t, err)
	require.Equal(t, int32(1150), v)
}

func TestPredict_Motor0(t *testing.T) {
	v, err := Predict(Motor0, true, History{}, Context{Motor0Value: 1700})
	require.NoError(t, err)
	require.Equal(t, int32(1700), v)
}

func TestPredict_Increment(t *testing.T) {
	v, err := Predict(Increment, true, History{Prev: 10}, Context{SkippedFrames: 3})
	require.NoError(t, err)
	require.Equal(t, int32(14), v) // prev + 1 + skipped
}

func TestPredict_HomeCoord_Set(t *testing.T) {
	v, err := Predict(HomeCoord, true, History{}, Context{HomeCoord: 123456789, HomeCoordIsSet: true})
	require.NoError(t, err)
	require.Equal(t, int32(123456789), v)
}

func TestPredict_HomeCoord_NotSet(t *testing.T) {
	v, err := Predict(HomeCoord, true, History{}, Context{HomeCoordIsSet: false})
	require.NoError(t, err)
	require.Equal(t, int32(0), v)
}

func TestPredict_Const1500(t *testing.T) {
	v, err := Predict(Const1500, true, History{}, Context{})
	require.NoError(t, err)
	require.Equal(t, int32(1500), v)
}

func TestPredict_VBatRef(t *testing.T) {
	v, err := Predict(VBatRef, true, History{}, Context{VBatRef: 4095})
	require.NoError(t, err)
	require.Equal(t, int32(4095), v)
}

func TestPredict_UnknownPredictor(t *testing.T) {
	_, err := Predict(Predictor(200), true, History{}, Context{})
	require.ErrorIs(t, err, errs.ErrUnknownPredictor)
}

func TestApplyInvert_RoundTrip(t *testing.T) {
	hist := History{Prev: 1000, Prev2: 900}
	ctx := Context{MinThrottle: 1150, VBatRef: 4095, Motor0Value: 1800, SkippedFrames: 2}

	for _, p := range []Predictor{None, Previous, StraightLine, Average2, MinThrottle, Motor0, Increment, Const1500, VBatRef} {
		for _, actual := range []int32{0, 1, -1, 12345, -12345} {
			residual, err := Invert(p, true, hist, ctx, actual)
			require.NoError(t, err)
			got, err := Apply(p, true, hist, ctx, residual)
			require.NoError(t, err)
			require.Equal(t, actual, got, "predictor %s", p)
		}
	}
}

func TestPredictorValid(t *testing.T) {
	require.True(t, VBatRef.Valid())
	require.True(t, None.Valid())
	require.False(t, Predictor(10).Valid())
}

func TestPredictorIsImplicit(t *testing.T) {
	require.True(t, Increment.IsImplicit())
	require.False(t, Previous.IsImplicit())
}

func TestHistory_Advance(t *testing.T) {
	h := History{Prev: 10, Prev2: 5}
	h.Advance(20)
	require.Equal(t, History{Prev: 20, Prev2: 10}, h)
}

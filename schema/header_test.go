package schema

import (
	"testing"

	"github.com/flightrec/blackbox/errs"
	"github.com/flightrec/blackbox/predict"
	"github.com/stretchr/testify/require"
)

func TestHeader_ParseLine_FieldVectors(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Field I name:loopIteration,time,motor[0]"))
	require.NoError(t, h.ParseLine("Field I signed:0,0,0"))
	require.NoError(t, h.ParseLine("Field I predictor:0,0,4"))
	require.NoError(t, h.ParseLine("Field I encoding:1,1,1"))
	require.NoError(t, h.ParseLine("Field P predictor:6,2,5"))
	require.NoError(t, h.ParseLine("Field P encoding:0,0,0"))

	iFields, pFields, _, _, err := h.Finalize()
	require.NoError(t, err)

	require.Len(t, iFields, 3)
	require.Equal(t, "motor[0]", iFields[2].Name)
	require.Equal(t, predict.MinThrottle, iFields[2].Predictor)
	require.Equal(t, UnsignedVB, iFields[2].Encoding)

	require.Len(t, pFields, 3)
	require.Equal(t, predict.Increment, pFields[0].Predictor)
	require.Equal(t, predict.StraightLine, pFields[1].Predictor)
	require.Equal(t, predict.Motor0, pFields[2].Predictor)
}

func TestHeader_ParseLine_SystemConstants(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Firmware type:Cleanflight"))
	require.NoError(t, h.ParseLine("minthrottle:1150"))
	require.NoError(t, h.ParseLine("maxthrottle:1850"))
	require.NoError(t, h.ParseLine("vbatref:4095"))
	require.NoError(t, h.ParseLine("vbatcellvoltage:33,35,43"))
	require.NoError(t, h.ParseLine("I interval:32"))
	require.NoError(t, h.ParseLine("P interval:1/1"))

	_, _, _, _, err := h.Finalize()
	require.NoError(t, err)

	require.Equal(t, FirmwareCleanflight, h.Config.Firmware)
	require.Equal(t, int32(1150), h.Config.MinThrottle)
	require.Equal(t, int32(1850), h.Config.MaxThrottle)
	require.Equal(t, int32(4095), h.Config.VBatRef)
	require.Equal(t, int32(33), h.Config.VBatMinCellVolt)
	require.Equal(t, int32(35), h.Config.VBatWarnCellVolt)
	require.Equal(t, int32(43), h.Config.VBatMaxCellVolt)
	require.Equal(t, 32, h.Config.FrameIntervalI)
	require.Equal(t, 1, h.Config.FrameIntervalPNum)
	require.Equal(t, 1, h.Config.FrameIntervalPDenom)
}

func TestHeader_ParseLine_GyroScale_Cleanflight(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Firmware type:Cleanflight"))
	// 0x3c8efa35 is a plausible IEEE-754 single-precision bit pattern.
	require.NoError(t, h.ParseLine("gyro.scale:3c8efa35"))

	_, _, _, _, err := h.Finalize()
	require.NoError(t, err)
	require.NotZero(t, h.Config.GyroScale)
}

func TestHeader_ParseLine_UnrecognizedGoesToExtra(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Product:Blackbox flight data recorder by Nicholas Sherlock"))
	require.NoError(t, h.ParseLine("Board information:OMNIBUSF4"))

	require.Equal(t, "Blackbox flight data recorder by Nicholas Sherlock", h.Extra["Product"])
	require.Equal(t, "OMNIBUSF4", h.Extra["Board information"])
}

func TestHeader_ParseLine_NoSeparator(t *testing.T) {
	h := NewHeader()
	err := h.ParseLine("this has no colon")
	require.ErrorIs(t, err, errs.ErrBadHeader)
}

func TestHeader_Finalize_MismatchedVectorLengths(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Field I name:a,b,c"))
	require.NoError(t, h.ParseLine("Field I signed:0,0"))
	require.NoError(t, h.ParseLine("Field I predictor:0,0,0"))
	require.NoError(t, h.ParseLine("Field I encoding:1,1,1"))

	_, _, _, _, err := h.Finalize()
	require.ErrorIs(t, err, errs.ErrMissingSchema)
}

func TestHeader_Finalize_UnknownPredictor(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Field I name:a"))
	require.NoError(t, h.ParseLine("Field I signed:0"))
	require.NoError(t, h.ParseLine("Field I predictor:200"))
	require.NoError(t, h.ParseLine("Field I encoding:1"))

	_, _, _, _, err := h.Finalize()
	require.ErrorIs(t, err, errs.ErrUnknownPredictor)
}

func TestHeader_Finalize_UnknownEncoding(t *testing.T) {
	h := NewHeader()
	require.NoError(t, h.ParseLine("Field I name:a"))
	require.NoError(t, h.ParseLine("Field I signed:0"))
	require.NoError(t, h.ParseLine("Field I predictor:0"))
	require.NoError(t, h.ParseLine("Field I encoding:200"))

	_, _, _, _, err := h.Finalize()
	require.ErrorIs(t, err, errs.ErrUnknownEncoding)
}

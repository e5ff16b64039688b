package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteHeader_RoundTripsThroughParseLine(t *testing.T) {
	cfg := Config{
		DataVersion:         1,
		Firmware:            FirmwareCleanflight,
		MinThrottle:         1150,
		MaxThrottle:         1850,
		RCRate:              90,
		VBatScale:           110,
		VBatRef:             4095,
		VBatMinCellVolt:     33,
		VBatWarnCellVolt:    35,
		VBatMaxCellVolt:     43,
		GyroScale:           0.0001,
		Acc1G:               4096,
		FrameIntervalI:      32,
		FrameIntervalPNum:   1,
		FrameIntervalPDenom: 1,
	}
	iFields, pFields, gpsFields, gpsHomeFields := DefaultFields(4)

	text := WriteHeader(cfg, iFields, pFields, gpsFields, gpsHomeFields)

	h := NewHeader()
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		// Strip the "H " marker WriteHeader puts at the start of each line.
		require.True(t, strings.HasPrefix(line, "H "))
		require.NoError(t, h.ParseLine(line[2:]))
	}

	gotI, gotP, gotGPS, gotGPSHome, err := h.Finalize()
	require.NoError(t, err)

	require.Equal(t, iFields, gotI)
	require.Equal(t, pFields, gotP)
	require.Equal(t, gpsFields, gotGPS)
	require.Equal(t, gpsHomeFields, gotGPSHome)

	require.Equal(t, cfg.Firmware, h.Config.Firmware)
	require.Equal(t, cfg.MinThrottle, h.Config.MinThrottle)
	require.Equal(t, cfg.VBatRef, h.Config.VBatRef)
	require.Equal(t, cfg.FrameIntervalI, h.Config.FrameIntervalI)
	require.Equal(t, cfg.FrameIntervalPNum, h.Config.FrameIntervalPNum)
	require.Equal(t, cfg.FrameIntervalPDenom, h.Config.FrameIntervalPDenom)
	require.InDelta(t, cfg.GyroScale, h.Config.GyroScale, 1e-9)
}

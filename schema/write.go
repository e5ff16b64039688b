package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// WriteHeader renders the full header block an encoder session emits for
// the given field schemas and config: the product/version banner, the
// field name/signed/predictor/encoding vectors for each frame type that
// has fields, the sampling intervals, and the system constants a decoder
// needs to resolve MinThrottle/VBatRef/HomeCoord predictors and interpret
// gyro/accelerometer readings.
func WriteHeader(cfg Config, iFields, pFields, gpsFields, gpsHomeFields []Field) string {
	return WriteBanner(cfg) + WriteFieldInfo(iFields, pFields, gpsFields, gpsHomeFields) + WriteSysInfo(cfg)
}

// WriteBanner renders the product/version/firmware-type lines an encoder
// session emits first, in its SendHeader state.
func WriteBanner(cfg Config) string {
	var b strings.Builder
	b.WriteString("H Product:Blackbox flight data recorder by Nicholas Sherlock\n")
	b.WriteString("H Blackbox version:1\n")
	fmt.Fprintf(&b, "H Data version:%d\n", cfg.DataVersion)
	fmt.Fprintf(&b, "H Firmware type:%s\n", cfg.Firmware)
	return b.String()
}

// WriteFieldInfo renders the name/signed/predictor/encoding vectors for
// every frame type that has fields, the lines an encoder session emits in
// its SendFieldInfo state (SendGpsHeaders is folded in here: G and H
// share the same vector shape as I/P, just with their own independent
// name+signed pair).
func WriteFieldInfo(iFields, pFields, gpsFields, gpsHomeFields []Field) string {
	var b strings.Builder

	// "Field I name" and "Field I signed" are shared by I and P frames: the
	// reference firmware never emits a "Field P name"/"Field P signed" line,
	// only "Field P predictor"/"Field P encoding" against the same names.
	writeFieldNames(&b, "I", iFields)
	writeFieldSigned(&b, "I", iFields)
	writeFieldPredictors(&b, "I", iFields)
	writeFieldEncodings(&b, "I", iFields)
	writeFieldPredictors(&b, "P", pFields)
	writeFieldEncodings(&b, "P", pFields)

	writeFieldNames(&b, "G", gpsFields)
	writeFieldSigned(&b, "G", gpsFields)
	writeFieldPredictors(&b, "G", gpsFields)
	writeFieldEncodings(&b, "G", gpsFields)

	writeFieldNames(&b, "H", gpsHomeFields)
	writeFieldSigned(&b, "H", gpsHomeFields)
	writeFieldPredictors(&b, "H", gpsHomeFields)
	writeFieldEncodings(&b, "H", gpsHomeFields)

	return b.String()
}

// WriteSysInfo renders the sampling intervals and system constants an
// encoder session emits last, in its SendSysInfo state.
func WriteSysInfo(cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "H I interval:%d\n", cfg.FrameIntervalI)
	fmt.Fprintf(&b, "H P interval:%d/%d\n", cfg.FrameIntervalPNum, cfg.FrameIntervalPDenom)

	fmt.Fprintf(&b, "H minthrottle:%d\n", cfg.MinThrottle)
	fmt.Fprintf(&b, "H maxthrottle:%d\n", cfg.MaxThrottle)
	fmt.Fprintf(&b, "H rcRate:%d\n", cfg.RCRate)
	fmt.Fprintf(&b, "H vbatscale:%d\n", cfg.VBatScale)
	fmt.Fprintf(&b, "H vbatref:%d\n", cfg.VBatRef)
	fmt.Fprintf(&b, "H vbatcellvoltage:%d,%d,%d\n", cfg.VBatMinCellVolt, cfg.VBatWarnCellVolt, cfg.VBatMaxCellVolt)
	fmt.Fprintf(&b, "H gyro.scale:%08x\n", gyroScaleBits(cfg))
	fmt.Fprintf(&b, "H acc_1G:%d\n", cfg.Acc1G)

	return b.String()
}

// gyroScaleBits inverts Header.Finalize's degrees/sec normalisation so the
// value round-trips through a decoder for the same firmware lineage.
func gyroScaleBits(cfg Config) uint32 {
	scale := cfg.GyroScale
	if cfg.Firmware == FirmwareCleanflight && scale != 0 {
		scale = scale / ((math.Pi / 180.0) * 0.000001)
	}
	return math.Float32bits(float32(scale))
}

func writeFieldNames(b *strings.Builder, frameType string, fields []Field) {
	if len(fields) == 0 {
		return
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	fmt.Fprintf(b, "H Field %s name:%s\n", frameType, strings.Join(names, ","))
}

func writeFieldSigned(b *strings.Builder, frameType string, fields []Field) {
	if len(fields) == 0 {
		return
	}
	signed := make([]string, len(fields))
	for i, f := range fields {
		signed[i] = boolDigit(f.Signed)
	}
	fmt.Fprintf(b, "H Field %s signed:%s\n", frameType, strings.Join(signed, ","))
}

func writeFieldPredictors(b *strings.Builder, frameType string, fields []Field) {
	if len(fields) == 0 {
		return
	}
	predictors := make([]string, len(fields))
	for i, f := range fields {
		predictors[i] = strconv.Itoa(int(f.Predictor))
	}
	fmt.Fprintf(b, "H Field %s predictor:%s\n", frameType, strings.Join(predictors, ","))
}

func writeFieldEncodings(b *strings.Builder, frameType string, fields []Field) {
	if len(fields) == 0 {
		return
	}
	encodings := make([]string, len(fields))
	for i, f := range fields {
		encodings[i] = strconv.Itoa(int(f.Encoding))
	}
	fmt.Fprintf(b, "H Field %s encoding:%s\n", frameType, strings.Join(encodings, ","))
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

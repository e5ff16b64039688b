package schema

import "github.com/flightrec/blackbox/predict"

// DefaultMainFieldNames is the reference firmware's full 29-field main
// frame layout (loop/time, PID terms, RC command, gyro, accelerometer,
// and up to 8 motors). A craft with fewer motors trims from the end.
var DefaultMainFieldNames = []string{
	"loopIteration", "time",
	"axisP[0]", "axisP[1]", "axisP[2]",
	"axisI[0]", "axisI[1]", "axisI[2]",
	"axisD[0]", "axisD[1]", "axisD[2]",
	"rcCommand[0]", "rcCommand[1]", "rcCommand[2]", "rcCommand[3]",
	"gyroData[0]", "gyroData[1]", "gyroData[2]",
	"accSmooth[0]", "accSmooth[1]", "accSmooth[2]",
	"motor[0]", "motor[1]", "motor[2]", "motor[3]",
	"motor[4]", "motor[5]", "motor[6]", "motor[7]",
}

// DefaultMainFieldSigned mirrors "H Field I signed" for DefaultMainFieldNames.
var DefaultMainFieldSigned = []bool{
	false, false,
	true, true, true,
	true, true, true,
	true, true, true,
	true, true, true,
	false,
	true, true, true,
	true, true, true,
	false, false, false, false,
	false, false, false, false,
}

// DefaultIPredictors mirrors "H Field I predictor".
var DefaultIPredictors = []predict.Predictor{
	predict.None, predict.None,
	predict.None, predict.None, predict.None,
	predict.None, predict.None, predict.None,
	predict.None, predict.None, predict.None,
	predict.None, predict.None, predict.None,
	predict.MinThrottle,
	predict.None, predict.None, predict.None,
	predict.None, predict.None, predict.None,
	predict.MinThrottle,
	predict.Motor0, predict.Motor0, predict.Motor0,
	predict.Motor0, predict.Motor0, predict.Motor0, predict.Motor0,
}

// DefaultIEncodings mirrors "H Field I encoding".
var DefaultIEncodings = []Encoding{
	UnsignedVB, UnsignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	UnsignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	UnsignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB, SignedVB,
}

// DefaultPPredictors mirrors "H Field P predictor": loop iteration always
// increments, time follows a straight line, PIDs and RC command predict
// from the previous frame (RC command additionally groups via Tag8_4S16),
// and the noisy sensor/motor channels average their last two samples.
var DefaultPPredictors = []predict.Predictor{
	predict.Increment, predict.StraightLine,
	predict.Previous, predict.Previous, predict.Previous,
	predict.Previous, predict.Previous, predict.Previous,
	predict.Previous, predict.Previous, predict.Previous,
	predict.Previous, predict.Previous, predict.Previous,
	predict.Previous,
	predict.Average2, predict.Average2, predict.Average2,
	predict.Average2, predict.Average2, predict.Average2,
	predict.Average2,
	predict.Average2, predict.Average2, predict.Average2,
	predict.Average2, predict.Average2, predict.Average2, predict.Average2,
}

// DefaultPEncodings mirrors "H Field P encoding": the four rcCommand
// fields are grouped with Tag8_4S16, everything else carries its
// predictor residual as a plain signed VLQ.
var DefaultPEncodings = []Encoding{
	SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	Tag8_4S16, Tag8_4S16, Tag8_4S16, Tag8_4S16,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB,
	SignedVB, SignedVB, SignedVB,
	SignedVB, SignedVB, SignedVB, SignedVB,
}

// DefaultGPSFieldNames mirrors "H Field G name".
var DefaultGPSFieldNames = []string{"GPS_numSat", "GPS_coord[0]", "GPS_coord[1]", "GPS_altitude", "GPS_speed"}

// DefaultGPSFieldSigned mirrors "H Field G signed".
var DefaultGPSFieldSigned = []bool{false, true, true, false, false}

// DefaultGPSPredictors mirrors "H Field G predictor": the two coordinate
// fields predict from the GPS home position.
var DefaultGPSPredictors = []predict.Predictor{predict.None, predict.HomeCoord, predict.HomeCoord, predict.None, predict.None}

// DefaultGPSEncodings mirrors "H Field G encoding".
var DefaultGPSEncodings = []Encoding{UnsignedVB, SignedVB, SignedVB, UnsignedVB, UnsignedVB}

// DefaultGPSHomeFieldNames mirrors "H Field H name".
var DefaultGPSHomeFieldNames = []string{"GPS_home[0]", "GPS_home[1]"}

// DefaultGPSHomeFieldSigned mirrors "H Field H signed".
var DefaultGPSHomeFieldSigned = []bool{true, true}

// DefaultGPSHomePredictors mirrors "H Field H predictor": home itself
// carries no prediction, since it's the reference point other fields
// predict from.
var DefaultGPSHomePredictors = []predict.Predictor{predict.None, predict.None}

// DefaultGPSHomeEncodings mirrors "H Field H encoding".
var DefaultGPSHomeEncodings = []Encoding{SignedVB, SignedVB}

// Motor0FieldIndex returns the index of "motor[0]" within names, or -1 if
// absent. Used by the frame layer to resolve predict.Context.Motor0Value
// before decoding any field whose predictor is Motor0 (which, per the
// default schema, can only ever appear after motor[0]'s own field slot).
func Motor0FieldIndex(names []string) int {
	for i, name := range names {
		if name == "motor[0]" {
			return i
		}
	}
	return -1
}

// DefaultFields builds the four frame types' Field slices from the
// reference firmware's default header, trimmed to motorCount motors (1-8).
// It's the schema an encoder session falls back to when the caller hasn't
// supplied a custom one, and the schema the regression tests decode fixed
// reference frames against.
func DefaultFields(motorCount int) (iFields, pFields, gpsFields, gpsHomeFields []Field) {
	if motorCount < 1 {
		motorCount = 1
	}
	if motorCount > 8 {
		motorCount = 8
	}
	trim := 8 - motorCount
	cut := len(DefaultMainFieldNames) - trim

	iFields = zipFields(DefaultMainFieldNames[:cut], DefaultMainFieldSigned[:cut], DefaultIPredictors[:cut], DefaultIEncodings[:cut])
	pFields = zipFields(DefaultMainFieldNames[:cut], DefaultMainFieldSigned[:cut], DefaultPPredictors[:cut], DefaultPEncodings[:cut])
	gpsFields = zipFields(DefaultGPSFieldNames, DefaultGPSFieldSigned, DefaultGPSPredictors, DefaultGPSEncodings)
	gpsHomeFields = zipFields(DefaultGPSHomeFieldNames, DefaultGPSHomeFieldSigned, DefaultGPSHomePredictors, DefaultGPSHomeEncodings)

	return iFields, pFields, gpsFields, gpsHomeFields
}

func zipFields(names []string, signed []bool, predictors []predict.Predictor, encodings []Encoding) []Field {
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{
			Name:      name,
			Signed:    signed[i],
			Predictor: predictors[i],
			Encoding:  encodings[i],
		}
	}
	return fields
}

package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/flightrec/blackbox/errs"
	"github.com/flightrec/blackbox/predict"
)

// FirmwareType distinguishes the two gyro-scale conventions a log's
// producer might use; Header.Finalize uses it to normalize GyroScale to
// radians per microsecond regardless of which one wrote the log.
type FirmwareType uint8

const (
	FirmwareBaseflight FirmwareType = iota
	FirmwareCleanflight
)

func (f FirmwareType) String() string {
	if f == FirmwareCleanflight {
		return "Cleanflight"
	}
	return "Baseflight"
}

// Config is the immutable bundle of system constants a header declares
// alongside its field vectors: throttle range and RC rate for the
// predictors that reference them, battery calibration, sensor scale, and
// the frame-sampling intervals that let the stream layer compute how many
// frames were intentionally skipped between two logged ones.
type Config struct {
	DataVersion int
	Firmware    FirmwareType

	MinThrottle int32
	MaxThrottle int32
	RCRate      int32

	VBatScale        int32
	VBatRef          int32
	VBatMinCellVolt  int32
	VBatWarnCellVolt int32
	VBatMaxCellVolt  int32

	GyroScale float64
	Acc1G     int32

	FrameIntervalI      int
	FrameIntervalPNum   int
	FrameIntervalPDenom int
}

// Header accumulates header lines as they're parsed and, once complete,
// resolves them into a Config plus the per-frame-type field schemas.
type Header struct {
	Config Config

	mainNames  []string
	mainSigned []int

	iPredictors []int
	iEncodings  []int
	pPredictors []int
	pEncodings  []int

	gpsNames      []string
	gpsSigned     []int
	gpsPredictors []int
	gpsEncodings  []int

	gpsHomeNames      []string
	gpsHomeSigned     []int
	gpsHomePredictors []int
	gpsHomeEncodings  []int

	gyroScaleRaw uint32
	haveGyroScale bool

	// Extra holds header lines this package doesn't interpret structurally
	// (Product, Blackbox version, board/craft identification, firmware
	// revision) so callers can surface them without the schema layer
	// needing to know every metadata field a firmware might emit.
	Extra map[string]string
}

// NewHeader returns an empty Header ready to accumulate lines.
func NewHeader() *Header {
	return &Header{Extra: make(map[string]string)}
}

// ParseLine applies one "name:value" header line (already stripped of the
// leading "H " marker and trailing newline) to h.
func (h *Header) ParseLine(line string) error {
	sep := strings.IndexByte(line, ':')
	if sep < 0 {
		return fmt.Errorf("%w: no ':' separator in %q", errs.ErrBadHeader, line)
	}
	name := line[:sep]
	value := line[sep+1:]

	switch name {
	case "Field I name":
		h.mainNames = splitCSV(value)
	case "Field I signed":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field I signed", err)
		}
		h.mainSigned = ints
	case "Field I predictor":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field I predictor", err)
		}
		h.iPredictors = ints
	case "Field I encoding":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field I encoding", err)
		}
		h.iEncodings = ints
	case "Field P predictor":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field P predictor", err)
		}
		h.pPredictors = ints
	case "Field P encoding":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field P encoding", err)
		}
		h.pEncodings = ints
	case "Field G name":
		h.gpsNames = splitCSV(value)
	case "Field G signed":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field G signed", err)
		}
		h.gpsSigned = ints
	case "Field G predictor":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field G predictor", err)
		}
		h.gpsPredictors = ints
	case "Field G encoding":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field G encoding", err)
		}
		h.gpsEncodings = ints
	case "Field H name":
		h.gpsHomeNames = splitCSV(value)
	case "Field H signed":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field H signed", err)
		}
		h.gpsHomeSigned = ints
	case "Field H predictor":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field H predictor", err)
		}
		h.gpsHomePredictors = ints
	case "Field H encoding":
		ints, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: Field H encoding", err)
		}
		h.gpsHomeEncodings = ints
	case "I interval":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			n = 1
		}
		h.Config.FrameIntervalI = n
	case "P interval":
		num, denom, ok := strings.Cut(value, "/")
		if ok {
			h.Config.FrameIntervalPNum, _ = strconv.Atoi(num)
			h.Config.FrameIntervalPDenom, _ = strconv.Atoi(denom)
		}
	case "Data version":
		h.Config.DataVersion, _ = strconv.Atoi(value)
	case "Firmware type":
		if value == "Cleanflight" {
			h.Config.Firmware = FirmwareCleanflight
		} else {
			h.Config.Firmware = FirmwareBaseflight
		}
	case "minthrottle":
		h.Config.MinThrottle = atoi32(value)
	case "maxthrottle":
		h.Config.MaxThrottle = atoi32(value)
	case "rcRate":
		h.Config.RCRate = atoi32(value)
	case "vbatscale":
		h.Config.VBatScale = atoi32(value)
	case "vbatref":
		h.Config.VBatRef = atoi32(value)
	case "vbatcellvoltage":
		cells, err := parseCSVInts(value)
		if err != nil {
			return fmt.Errorf("%w: vbatcellvoltage", err)
		}
		if len(cells) >= 3 {
			h.Config.VBatMinCellVolt = int32(cells[0])
			h.Config.VBatWarnCellVolt = int32(cells[1])
			h.Config.VBatMaxCellVolt = int32(cells[2])
		}
	case "gyro.scale":
		raw, err := strconv.ParseUint(value, 16, 32)
		if err != nil {
			return fmt.Errorf("%w: gyro.scale %q", errs.ErrBadHeader, value)
		}
		h.gyroScaleRaw = uint32(raw) //nolint:gosec
		h.haveGyroScale = true
	case "acc_1G":
		h.Config.Acc1G = atoi32(value)
	default:
		h.Extra[name] = value
	}

	return nil
}

// Finalize validates that every field vector for a frame type arrived with
// a matching length and assembles the per-frame-type Field slices. It must
// be called once, after the header block has been fully consumed and
// before any data frame is parsed.
func (h *Header) Finalize() (iFields, pFields, gpsFields, gpsHomeFields []Field, err error) {
	if h.haveGyroScale {
		scale := float64(math.Float32frombits(h.gyroScaleRaw))
		if h.Config.Firmware == FirmwareCleanflight {
			scale = scale * (math.Pi / 180.0) * 0.000001
		}
		h.Config.GyroScale = scale
	}

	iFields, err = buildFields(h.mainNames, h.mainSigned, h.iPredictors, h.iEncodings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: I-frame schema", err)
	}
	pFields, err = buildFields(h.mainNames, h.mainSigned, h.pPredictors, h.pEncodings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: P-frame schema", err)
	}
	gpsFields, err = buildFields(h.gpsNames, h.gpsSigned, h.gpsPredictors, h.gpsEncodings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: GPS-frame schema", err)
	}
	gpsHomeFields, err = buildFields(h.gpsHomeNames, h.gpsHomeSigned, h.gpsHomePredictors, h.gpsHomeEncodings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: GPS-home-frame schema", err)
	}

	return iFields, pFields, gpsFields, gpsHomeFields, nil
}

func buildFields(names []string, signed, predictors, encodings []int) ([]Field, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if len(signed) != len(names) || len(predictors) != len(names) || len(encodings) != len(names) {
		return nil, fmt.Errorf("%w: field vector length mismatch (names=%d signed=%d predictor=%d encoding=%d)",
			errs.ErrMissingSchema, len(names), len(signed), len(predictors), len(encodings))
	}

	fields := make([]Field, len(names))
	for i, name := range names {
		p := predict.Predictor(predictors[i]) //nolint:gosec
		if !p.Valid() {
			return nil, fmt.Errorf("%w: field %q predictor id %d", errs.ErrUnknownPredictor, name, predictors[i])
		}
		e, err := parseEncoding(encodings[i])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q", err, name)
		}
		fields[i] = Field{
			Name:      name,
			Signed:    signed[i] != 0,
			Predictor: p,
			Encoding:  e,
		}
	}

	return fields, nil
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func parseCSVInts(value string) ([]int, error) {
	parts := splitCSV(value)
	ints := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", errs.ErrBadHeader, p)
		}
		ints[i] = n
	}
	return ints, nil
}

func atoi32(value string) int32 {
	n, _ := strconv.Atoi(value)
	return int32(n) //nolint:gosec
}

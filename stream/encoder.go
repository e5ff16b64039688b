package stream

import (
	"github.com/flightrec/blackbox/frame"
	"github.com/flightrec/blackbox/internal/pool"
	"github.com/flightrec/blackbox/predict"
	"github.com/flightrec/blackbox/schema"
)

// EncoderState walks the embedded producer's lifecycle, one phase at a
// time, from the moment logging is armed to the moment it's stopped.
type EncoderState int

const (
	Disabled EncoderState = iota
	Stopped
	SendHeader
	SendFieldInfo
	SendGPSHeaders
	SendSysInfo
	Running
)

func (s EncoderState) String() string {
	switch s {
	case Disabled:
		return "Disabled"
	case Stopped:
		return "Stopped"
	case SendHeader:
		return "SendHeader"
	case SendFieldInfo:
		return "SendFieldInfo"
	case SendGPSHeaders:
		return "SendGPSHeaders"
	case SendSysInfo:
		return "SendSysInfo"
	case Running:
		return "Running"
	default:
		return "EncoderState(?)"
	}
}

// Sink is the encoder's transport: a single non-blocking byte write that
// may drop the byte (e.g. a full UART ring buffer). A refused header byte
// is offered again on the next Tick; a refused frame byte is not retried.
type Sink interface {
	Write(b byte) bool
}

// GPSSample is a producer's GPS fix at the moment Tick samples it.
type GPSSample struct {
	NumSat    int32
	Coord     [2]int32 // latitude, longitude, degrees * 1e7
	Altitude  int32
	Speed     int32
	HomeCoord [2]int32
}

// SampleSource is the producer-side structure spec.md's "Encoder-to-
// transport interface" says the encoder consults every Tick: the current
// microsecond time, RC commands, gyro and accelerometer readings, the
// configured motor outputs, and an optional GPS fix.
type SampleSource interface {
	Time() uint32
	RCCommand() [4]int32
	Gyro() [3]int32
	AccSmooth() [3]int32
	Motors() []int32
	GPS() (GPSSample, bool)
}

// Config bundles the field schema configuration with the encoder-specific
// knobs that have no decoder-side meaning: how many motors to emit, the
// chunk size used to avoid overflowing the transport during header
// transmission, and the GPS home refresh cadence.
type Config struct {
	schema.Config
	MotorCount int

	// ChunkSize bounds how many header bytes Tick writes per call, so a
	// slow Sink never stalls the caller. Defaults to 16 if zero, matching
	// the reference firmware's SERIAL_CHUNK_SIZE.
	ChunkSize int

	// GPSHomeRefreshCycles and GPSHomeRefreshSlot set the cadence an
	// unchanged GPS home position is still re-sent on, so a single
	// dropped H frame doesn't strand every subsequent G frame's
	// HomeCoord-predicted fields. A home frame is emitted whenever it
	// has changed, or on the last interframe of a main-frame cycle when
	// the running intraframe count modulo GPSHomeRefreshCycles equals
	// GPSHomeRefreshSlot.
	GPSHomeRefreshCycles int
	GPSHomeRefreshSlot   int
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return 16
	}
	return c.ChunkSize
}

func (c Config) gpsHomeRefreshCycles() int {
	if c.GPSHomeRefreshCycles <= 0 {
		return 128
	}
	return c.GPSHomeRefreshCycles
}

// Encoder drives one flight-data-recorder session: it owns the field
// schema, the two-value predictor history for each frame type, and the
// byte cursor into whichever header section is currently transmitting.
// Tick is meant to be called from a fixed-rate scheduler; it does a
// bounded amount of work and returns.
type Encoder struct {
	cfg Config

	iFields, pFields, gpsFields, gpsHomeFields []schema.Field
	motor0Index                                int
	tagVersion                                 frame.TagVersion

	mainHist, gpsHist, gpsHomeHist []predict.History
	ctx                            predict.Context

	state      EncoderState
	headerText string
	headerPos  int

	iteration      uint32
	gpsNumSat      int32
	gpsCoord       [2]int32
	gpsHomeCoord   [2]int32
	gpsHomeEverSet bool
}

// NewEncoder builds an Encoder from cfg, deriving its field schema from
// schema.DefaultFields(cfg.MotorCount). The encoder starts Disabled; call
// Start to arm it.
func NewEncoder(cfg Config) *Encoder {
	e := &Encoder{cfg: cfg, state: Disabled}
	e.iFields, e.pFields, e.gpsFields, e.gpsHomeFields = schema.DefaultFields(cfg.MotorCount)
	e.motor0Index = schema.Motor0FieldIndex(schema.DefaultMainFieldNames[:len(e.iFields)])
	e.tagVersion = frame.TagVersion(1)
	if cfg.DataVersion >= 2 {
		e.tagVersion = frame.TagVersion(2)
	}
	e.mainHist = frame.NewHistory(len(e.iFields))
	e.gpsHist = frame.NewHistory(len(e.gpsFields))
	e.gpsHomeHist = frame.NewHistory(len(e.gpsHomeFields))
	e.ctx = predict.Context{
		MinThrottle: cfg.MinThrottle,
		VBatRef:     cfg.VBatRef,
	}
	return e
}

// Start arms the encoder: it transitions Disabled/Stopped to SendHeader
// and resets the per-session iteration counter and predictor history.
func (e *Encoder) Start() {
	e.state = SendHeader
	e.headerText = schema.WriteBanner(e.cfg.Config)
	e.headerPos = 0
	e.iteration = 0
	e.mainHist = frame.NewHistory(len(e.iFields))
	e.gpsHist = frame.NewHistory(len(e.gpsFields))
	e.gpsHomeHist = frame.NewHistory(len(e.gpsHomeFields))
	e.gpsHomeEverSet = false
}

// State returns the encoder's current lifecycle phase.
func (e *Encoder) State() EncoderState {
	return e.state
}

// Finish flushes nothing (Tick already wrote everything it could) and
// transitions the encoder to Stopped. Safe to call from any state.
func (e *Encoder) Finish() {
	e.state = Stopped
}

// Tick advances the encoder by one scheduler step: during the header
// phases it writes up to a chunk's worth of header bytes to sink, and
// during Running it samples src and emits exactly one main frame (I or
// P) plus whatever GPS frames the emission policy calls for this
// iteration. It returns false only in a header phase, when sink refused
// the first header byte offered this Tick; in Running it always returns
// true, and frame bytes sink refuses are dropped.
func (e *Encoder) Tick(sink Sink, src SampleSource) bool {
	switch e.state {
	case Disabled, Stopped:
		return true

	case SendHeader:
		return e.tickHeaderChunk(sink, SendFieldInfo, func() string {
			return schema.WriteFieldInfo(e.iFields, e.pFields, e.gpsFields, e.gpsHomeFields)
		})

	case SendFieldInfo:
		return e.tickHeaderChunk(sink, SendGPSHeaders, func() string { return "" })

	case SendGPSHeaders:
		return e.tickHeaderChunk(sink, SendSysInfo, func() string {
			return schema.WriteSysInfo(e.cfg.Config)
		})

	case SendSysInfo:
		return e.tickHeaderChunk(sink, Running, func() string { return "" })

	case Running:
		e.tickRunning(sink, src)
		return true

	default:
		return true
	}
}

// tickHeaderChunk writes up to a chunk of e.headerText to sink. Once
// headerText is exhausted it advances to next, loading next's own text
// via load (called lazily so SendFieldInfo, which has no header text of
// its own beyond what SendHeader already queued, can pass a no-op).
func (e *Encoder) tickHeaderChunk(sink Sink, next EncoderState, load func() string) bool {
	chunk := e.cfg.chunkSize()
	for i := 0; i < chunk && e.headerPos < len(e.headerText); i++ {
		if !sink.Write(e.headerText[e.headerPos]) {
			return i > 0
		}
		e.headerPos++
	}
	if e.headerPos >= len(e.headerText) {
		e.state = next
		e.headerText = load()
		e.headerPos = 0
	}
	return true
}

const mainFrameCycleLength = 32

func (e *Encoder) tickRunning(sink Sink, src SampleSource) {
	values, cleanup := pool.GetInt32Slice(len(e.iFields))
	defer cleanup()
	e.sampleMainFrame(src, values)

	intercycleIndex := int(e.iteration % mainFrameCycleLength)
	intracycleIndex := int(e.iteration / mainFrameCycleLength)

	if intercycleIndex == 0 {
		e.writeMainFrame(sink, frame.KindIntra, e.iFields, values)
	} else {
		e.writeMainFrame(sink, frame.KindInter, e.pFields, values)

		if gps, ok := src.GPS(); ok {
			e.emitGPS(sink, gps, intercycleIndex, intracycleIndex)
		}
	}

	e.iteration++
}

func (e *Encoder) sampleMainFrame(src SampleSource, values []int32) {
	values[0] = int32(e.iteration) //nolint:gosec
	values[1] = int32(src.Time())  //nolint:gosec

	rc := src.RCCommand()
	gyro := src.Gyro()
	acc := src.AccSmooth()
	motors := src.Motors()

	// Field order follows schema.DefaultMainFieldNames: loopIteration,
	// time, axisP/I/D[0..2], rcCommand[0..3], gyroData[0..2],
	// accSmooth[0..2], motor[0..N].
	i := 2
	i += 9 // axisP/I/D are sampled by the flight controller, not this package
	for j := 0; j < 4 && i < len(values); j, i = j+1, i+1 {
		values[i] = rc[j]
	}
	for j := 0; j < 3 && i < len(values); j, i = j+1, i+1 {
		values[i] = gyro[j]
	}
	for j := 0; j < 3 && i < len(values); j, i = j+1, i+1 {
		values[i] = acc[j]
	}
	for j := 0; i < len(values); j, i = j+1, i+1 {
		if j < len(motors) {
			values[i] = motors[j]
		}
	}
}

func (e *Encoder) writeMainFrame(sink Sink, kind frame.Kind, fields []schema.Field, values []int32) {
	buf, err := frame.Encode([]byte{byte(kind)}, values, fields, e.mainHist, e.ctx, e.motor0Index, e.tagVersion)
	if err != nil {
		return
	}
	for _, b := range buf {
		sink.Write(b)
	}
	frame.Advance(e.mainHist, values)
}

// emitGPS implements the reference emission policy: a G frame rides on
// the current iteration's tick whenever the position or satellite count
// changed, and an H frame precedes it whenever the home position changed
// or the periodic refresh slot is due.
func (e *Encoder) emitGPS(sink Sink, gps GPSSample, intercycleIndex, intracycleIndex int) {
	homeChanged := !e.gpsHomeEverSet || gps.HomeCoord != e.gpsHomeCoord
	refreshDue := intercycleIndex == mainFrameCycleLength-1 &&
		intracycleIndex%e.cfg.gpsHomeRefreshCycles() == e.cfg.GPSHomeRefreshSlot

	if homeChanged || refreshDue {
		e.writeGPSHomeFrame(sink, gps)
		e.writeGPSFrame(sink, gps)
		return
	}

	if gps.NumSat != e.gpsNumSat || gps.Coord != e.gpsCoord {
		e.writeGPSFrame(sink, gps)
	}
}

func (e *Encoder) writeGPSHomeFrame(sink Sink, gps GPSSample) {
	values := []int32{gps.HomeCoord[0], gps.HomeCoord[1]}
	buf, err := frame.Encode([]byte{byte(frame.KindGPSHome)}, values, e.gpsHomeFields, e.gpsHomeHist, e.ctx, -1, e.tagVersion)
	if err != nil {
		return
	}
	for _, b := range buf {
		sink.Write(b)
	}
	frame.Advance(e.gpsHomeHist, values)
	e.gpsHomeCoord = gps.HomeCoord
	e.gpsHomeEverSet = true
	e.ctx.HomeCoord = gps.HomeCoord[0]
	e.ctx.HomeCoordLon = gps.HomeCoord[1]
	e.ctx.HomeCoordIsSet = true
}

func (e *Encoder) writeGPSFrame(sink Sink, gps GPSSample) {
	values := []int32{gps.NumSat, gps.Coord[0], gps.Coord[1], gps.Altitude, gps.Speed}
	buf, err := frame.Encode([]byte{byte(frame.KindGPS)}, values, e.gpsFields, e.gpsHist, e.ctx, -1, e.tagVersion)
	if err != nil {
		return
	}
	for _, b := range buf {
		sink.Write(b)
	}
	frame.Advance(e.gpsHist, values)
	e.gpsNumSat = gps.NumSat
	e.gpsCoord = gps.Coord
}

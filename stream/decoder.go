package stream

import (
	"fmt"

	"github.com/flightrec/blackbox/errs"
	"github.com/flightrec/blackbox/frame"
	"github.com/flightrec/blackbox/predict"
	"github.com/flightrec/blackbox/schema"
	"github.com/flightrec/blackbox/varint"
)

type parserState int

const (
	stateHeader parserState = iota
	stateBeforeFirstFrame
	stateData
)

// FrameCallback reports one frame candidate. When valid is false, values
// is nil and fieldCount is 0: the frame was discarded by
// resynchronisation and carries no usable data.
type FrameCallback func(valid bool, values []int32, frameType frame.Kind, fieldCount, offset, size int)

// MetadataCallback fires once, right after the header block has been
// fully parsed and the per-frame-type schemas resolved, before any frame
// callback.
type MetadataCallback func(cfg schema.Config, iFields, pFields, gpsFields, gpsHomeFields []schema.Field)

// LogEventCallback fires for each 'E' event frame encountered in the data
// block.
type LogEventCallback func(ev LogEvent)

// Decoder replays a single log's byte range into callbacks, following the
// Header→BeforeFirstFrame→Data progression and resynchronisation rule of
// the reference offline decoder. A Decoder parses exactly one log; create
// a fresh one (or call Parse again, which resets all state) per log index
// a container.Container exposes.
type Decoder struct {
	OnMetadataReady MetadataCallback
	OnFrameReady    FrameCallback
	OnLogEvent      LogEventCallback

	// Raw disables the I-frame iteration/time monotonicity check that
	// normally gates whether the main stream is trusted after an I
	// frame is seen.
	Raw bool

	Stats Statistics

	header *schema.Header

	iFields, pFields, gpsFields, gpsHomeFields []schema.Field
	motor0Index                                int
	tagVersion                                 frame.TagVersion

	mainHist    []predict.History
	gpsHist     []predict.History
	gpsHomeHist []predict.History

	ctx predict.Context
}

// NewDecoder returns a Decoder ready to Parse a log's bytes.
func NewDecoder() *Decoder {
	return &Decoder{header: schema.NewHeader()}
}

// Parse consumes data from its start to its end, invoking the configured
// callbacks along the way. Callers restrict data to a single log's byte
// range (e.g. a container.Container's log slice) before calling Parse.
//
// It returns false plus a non-nil error only for header-level failures
// (§7's fatal propagation class: MissingSchema, BadHeader, an empty data
// file). Per-frame errors are always locally recovered via
// resynchronisation and never escape as a returned error; they surface
// only as OnFrameReady(valid=false, ...) plus Stats.NumBrokenFrames.
func (d *Decoder) Parse(data []byte) (bool, error) {
	*d = Decoder{
		OnMetadataReady: d.OnMetadataReady,
		OnFrameReady:    d.OnFrameReady,
		OnLogEvent:      d.OnLogEvent,
		Raw:             d.Raw,
		header:          schema.NewHeader(),
	}

	state := stateHeader
	pos := 0

	mainValid := false
	var lastFrameType frame.Kind
	frameStart := 0
	prematureEOF := false
	var pending []int32

	for {
		command, eof := byteAt(data, pos)
		if !eof {
			pos++
		}

		switch state {
		case stateHeader:
			switch {
			case !eof && command == 'H':
				line, next, err := readHeaderLine(data, pos)
				if err != nil {
					return false, fmt.Errorf("%w: %s", errs.ErrBadHeader, err)
				}
				if err := d.header.ParseLine(line); err != nil {
					return false, err
				}
				pos = next
			case !eof && (command == byte(frame.KindIntra) || command == byte(frame.KindInter) || command == byte(frame.KindGPS)):
				if err := d.finalizeSchema(); err != nil {
					return false, err
				}
				pos-- // put the marker back for BeforeFirstFrame to consume
				state = stateBeforeFirstFrame
				if d.OnMetadataReady != nil {
					d.OnMetadataReady(d.header.Config, d.iFields, d.pFields, d.gpsFields, d.gpsHomeFields)
				}
			case eof:
				return false, fmt.Errorf("%w: data file contained no events", errs.ErrUnexpectedEOF)
			default:
				return false, fmt.Errorf("%w: unexpected byte 0x%02x before header", errs.ErrBadHeader, command)
			}

		case stateBeforeFirstFrame:
			lastFrameType = frame.Kind(command)
			frameStart = pos
			switch {
			case !eof && command == 'I':
				values, n, err := d.decodeMain(d.iFields, data, pos)
				pos += n
				if err != nil {
					prematureEOF = true
				} else {
					frame.Advance(d.mainHist, values)
					pending = values
					state = stateData
				}
			case eof:
				return false, fmt.Errorf("%w: data file contained no events", errs.ErrUnexpectedEOF)
			default:
				// Ignore leading garbage before the first I frame.
			}

		case stateData:
			if lastFrameType == frame.KindIntra || lastFrameType == frame.KindInter {
				lastFrameSize := pos - frameStart
				looksLikeNewFrame := eof || frame.IsFrameMarker(command)

				if !prematureEOF && looksLikeNewFrame {
					d.commitMainFrame(lastFrameType, pending, lastFrameSize, frameStart, &mainValid)
				} else {
					d.Stats.NumBrokenFrames++
					mainValid = false
					if d.OnFrameReady != nil {
						d.OnFrameReady(false, nil, lastFrameType, 0, frameStart, lastFrameSize)
					}
					pos = frameStart
					lastFrameType = 0
					prematureEOF = false
					continue
				}
			}

			if eof {
				return true, nil
			}

			lastFrameType = frame.Kind(command)
			frameStart = pos

			switch frame.Kind(command) {
			case frame.KindIntra:
				skipped := d.countSkippedFrames()
				d.Stats.IntentionallyAbsentFrames += skipped
				d.ctx.SkippedFrames = skipped
				values, n, err := d.decodeMain(d.iFields, data, pos)
				pos += n
				if err != nil {
					prematureEOF = true
					pending = nil
				} else {
					frame.Advance(d.mainHist, values)
					pending = values
				}

			case frame.KindInter:
				skipped := d.countSkippedFrames()
				d.Stats.IntentionallyAbsentFrames += skipped
				d.ctx.SkippedFrames = skipped
				values, n, err := d.decodeMain(d.pFields, data, pos)
				pos += n
				if err != nil {
					prematureEOF = true
					pending = nil
				} else {
					frame.Advance(d.mainHist, values)
					pending = values
				}

			case frame.KindGPS:
				pos = d.decodeGPS(data, frameStart)

			case frame.KindGPSHome:
				pos = d.decodeGPSHome(data, frameStart)

			case frame.KindEvent:
				ev, n, err := decodeLogEvent(data, pos)
				pos += n
				if err != nil {
					d.Stats.NumBrokenFrames++
				} else if d.OnLogEvent != nil {
					d.OnLogEvent(ev)
				}

			default:
				mainValid = false
			}
		}

		if eof {
			break
		}
	}

	return true, nil
}

func (d *Decoder) finalizeSchema() error {
	iFields, pFields, gpsFields, gpsHomeFields, err := d.header.Finalize()
	if err != nil {
		return err
	}
	if len(iFields) == 0 {
		return fmt.Errorf("%w: no main field schema declared", errs.ErrMissingSchema)
	}

	d.iFields, d.pFields, d.gpsFields, d.gpsHomeFields = iFields, pFields, gpsFields, gpsHomeFields
	d.motor0Index = schema.Motor0FieldIndex(fieldNames(iFields))
	d.tagVersion = frame.TagVersion(1)
	if d.header.Config.DataVersion >= 2 {
		d.tagVersion = frame.TagVersion(2)
	}

	d.mainHist = frame.NewHistory(len(iFields))
	d.gpsHist = frame.NewHistory(len(gpsFields))
	d.gpsHomeHist = frame.NewHistory(len(gpsHomeFields))
	d.Stats = NewStatistics(len(iFields))
	d.ctx = predict.Context{
		MinThrottle: d.header.Config.MinThrottle,
		VBatRef:     d.header.Config.VBatRef,
	}

	return nil
}

func (d *Decoder) decodeMain(fields []schema.Field, data []byte, pos int) ([]int32, int, error) {
	return frame.Decode(data, pos, fields, d.mainHist, d.ctx, d.motor0Index, d.tagVersion)
}

// commitMainFrame applies the reference decoder's commit rule for the
// just-completed I/P frame: an I frame always contributes to its own
// stats and, if its iteration/time are non-decreasing (or Raw is set),
// marks the main stream valid; a P frame only contributes if the main
// stream was already valid coming in. Field min/max only widen on a
// frame the main stream currently trusts.
func (d *Decoder) commitMainFrame(kind frame.Kind, values []int32, size, offset int, mainValid *bool) {
	switch kind {
	case frame.KindIntra:
		d.Stats.I.record(size)
		if d.Raw || d.monotonic(values) {
			*mainValid = true
		}
	case frame.KindInter:
		if *mainValid {
			d.Stats.P.record(size)
		}
	}

	if *mainValid {
		d.Stats.updateFieldRange(values)
	} else {
		d.Stats.NumUnusablePFrames++
	}

	if d.OnFrameReady != nil {
		d.OnFrameReady(*mainValid, values, kind, len(values), offset, size)
	}
}

func (d *Decoder) monotonic(values []int32) bool {
	const iterationField, timeField = 0, 1
	if len(values) <= timeField {
		return true
	}
	return uint32(values[iterationField]) >= uint32(maxOrZero(d.Stats.FieldMax, iterationField)) && //nolint:gosec
		uint32(values[timeField]) >= uint32(maxOrZero(d.Stats.FieldMax, timeField)) //nolint:gosec
}

func maxOrZero(fieldMax []int64, i int) int64 {
	if i >= len(fieldMax) || fieldMax[i] < 0 {
		return 0
	}
	return fieldMax[i]
}

func (d *Decoder) shouldHaveFrame(frameIndex uint32) bool {
	interval := d.header.Config.FrameIntervalI
	if interval <= 0 {
		interval = 1
	}
	num := d.header.Config.FrameIntervalPNum
	denom := d.header.Config.FrameIntervalPDenom
	if denom <= 0 {
		denom = 1
	}
	return (int(frameIndex)%interval+num-1)%denom < num
}

// countSkippedFrames walks the virtual iteration counter forward from the
// last committed main frame's iteration field, counting indices the
// sampling fraction intentionally omits, per §4.5. The cap guards against
// a malformed P-interval (e.g. num <= 0) that would otherwise never
// satisfy shouldHaveFrame.
func (d *Decoder) countSkippedFrames() uint32 {
	const maxScan = 1 << 20
	next := uint32(d.mainHist[0].Prev) + 1
	var skipped uint32
	for i := 0; i < maxScan && !d.shouldHaveFrame(next); i++ {
		skipped++
		next++
	}
	return skipped
}

// decodeGPS decodes a G frame body starting at frameStart (the position
// right after its type marker) and returns the position to resume
// scanning from.
func (d *Decoder) decodeGPS(data []byte, frameStart int) int {
	values, n, err := frame.Decode(data, frameStart, d.gpsFields, d.gpsHist, d.ctx, -1, d.tagVersion)
	size := 1 + n
	if err != nil {
		d.Stats.NumBrokenFrames++
		if d.OnFrameReady != nil {
			d.OnFrameReady(false, nil, frame.KindGPS, 0, frameStart, size)
		}
		return frameStart + 1
	}
	frame.Advance(d.gpsHist, values)
	d.Stats.G.record(size)
	if d.OnFrameReady != nil {
		d.OnFrameReady(true, values, frame.KindGPS, len(values), frameStart, size)
	}
	return frameStart + n
}

// decodeGPSHome decodes an H (GPS-home) data frame body starting at
// frameStart and returns the position to resume scanning from. A
// successful decode updates ctx.HomeCoord/HomeCoordLon for the HomeCoord
// predictor used by subsequent G frames.
func (d *Decoder) decodeGPSHome(data []byte, frameStart int) int {
	values, n, err := frame.Decode(data, frameStart, d.gpsHomeFields, d.gpsHomeHist, d.ctx, -1, d.tagVersion)
	size := 1 + n
	if err != nil {
		d.Stats.NumBrokenFrames++
		if d.OnFrameReady != nil {
			d.OnFrameReady(false, nil, frame.KindGPSHome, 0, frameStart, size)
		}
		return frameStart + 1
	}
	frame.Advance(d.gpsHomeHist, values)
	if len(values) >= 2 {
		d.ctx.HomeCoord = values[0]
		d.ctx.HomeCoordLon = values[1]
		d.ctx.HomeCoordIsSet = true
	}
	d.Stats.H.record(size)
	if d.OnFrameReady != nil {
		d.OnFrameReady(true, values, frame.KindGPSHome, len(values), frameStart, size)
	}
	return frameStart + n
}

// decodeLogEvent reads one 'E' frame body: a one-byte event type tag
// followed by a single unsigned VLQ payload.
func decodeLogEvent(data []byte, pos int) (LogEvent, int, error) {
	start := pos
	if pos >= len(data) {
		return LogEvent{}, 0, errs.ErrUnexpectedEOF
	}
	tag := EventType(data[pos])
	pos++

	payload, n, err := varint.ReadUvarint(data, pos)
	if err != nil {
		return LogEvent{}, 0, err
	}
	pos += n

	ev := LogEvent{Type: tag}
	switch tag {
	case EventSyncBeep:
		ev.SyncBeepTime = payload
	case EventFlightModeChange:
		ev.NewFlightMode = payload
	default:
		return LogEvent{}, 0, fmt.Errorf("%w: unknown event type %d", errs.ErrFrameCorrupt, tag)
	}

	return ev, pos - start, nil
}

func fieldNames(fields []schema.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func byteAt(data []byte, pos int) (byte, bool) {
	if pos >= len(data) {
		return 0, true
	}
	return data[pos], false
}

// readHeaderLine reads one "H <name>:<value>\n" line's content (minus the
// "H " marker and trailing newline), starting at pos (the position right
// after the already-consumed 'H'). It returns the line and the position of
// the byte following the newline.
func readHeaderLine(data []byte, pos int) (string, int, error) {
	if pos >= len(data) || data[pos] != ' ' {
		return "", 0, fmt.Errorf("missing space after 'H' at offset %d", pos)
	}
	pos++

	start := pos
	for pos < len(data) && data[pos] != '\n' {
		pos++
	}
	if pos >= len(data) {
		return "", 0, fmt.Errorf("unterminated header line starting at offset %d", start)
	}
	line := string(data[start:pos])
	pos++ // consume '\n'

	return line, pos, nil
}

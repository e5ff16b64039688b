// Package errs defines the sentinel errors returned by the codec, frame,
// schema, stream and container packages.
//
// Callers should use errors.Is against these sentinels rather than comparing
// error strings; call sites in this module wrap them with fmt.Errorf("%w: ...")
// to attach context, following the same convention throughout the codebase.
package errs

import "errors"

var (
	// ErrCorruptVarint is returned when an unsigned VLQ runs past 5 bytes
	// without terminating (more than 32 bits of magnitude).
	ErrCorruptVarint = errors.New("corrupt varint")

	// ErrUnexpectedEOF is returned when the byte source runs out while a
	// frame body, header line, or codec is still expecting more input.
	ErrUnexpectedEOF = errors.New("unexpected end of stream")

	// ErrUnknownEncoding is returned when a schema vector names an encoding
	// id outside the closed set this package implements.
	ErrUnknownEncoding = errors.New("unknown encoding")

	// ErrUnknownPredictor is returned when a schema vector names a
	// predictor id outside the closed set this package implements.
	ErrUnknownPredictor = errors.New("unknown predictor")

	// ErrMissingSchema is returned when a data byte is encountered before
	// the header has declared a complete field schema for that frame type.
	ErrMissingSchema = errors.New("missing schema")

	// ErrBadHeader is returned for a malformed "H " line: no colon
	// separator, binary content where ASCII is required, or a header
	// block that never terminates before EOF.
	ErrBadHeader = errors.New("malformed header line")

	// ErrFrameCorrupt is returned when a candidate frame fails validation:
	// premature EOF inside the frame body, a group encoding that read past
	// the declared field count, or (for an I frame) a non-monotonic
	// iteration/time pair.
	ErrFrameCorrupt = errors.New("frame corrupt")

	// ErrNoLog is returned when the requested log index is outside the
	// range the container detected in the file.
	ErrNoLog = errors.New("no such log")

	// ErrBadGroupSchema is returned when a group encoding (Tag8_4S16,
	// Tag2_3S32, Tag8_8SVB) is interrupted mid-group by a field whose
	// encoding doesn't match, so the group cursor can't advance cleanly.
	ErrBadGroupSchema = errors.New("group encoding interrupted by incompatible field")
)

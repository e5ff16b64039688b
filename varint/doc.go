// Package varint implements the bit-level codecs used by the flight log
// wire format: little-endian base-128 unsigned VLQ, ZigZag-mapped signed
// VLQ, and the three tagged multi-field group codecs (Tag8_4S16, Tag2_3S32,
// Tag8_8SVB) that let several small residuals share a byte.
//
// Every codec in this package operates directly on a []byte cursor rather
// than an io.Reader/Writer, so the frame layer can advance a single byte
// offset across mixed field-at-a-time and group reads without allocating an
// intermediate buffered reader per frame — the same zero-intermediate-slice
// discipline the teacher's encoding package uses for timestamp/value
// columns.
//
// Encode functions append to a caller-provided []byte and return the
// extended slice, mirroring encoding/binary.AppendUvarint. Decode functions
// take a []byte and a byte offset and return the decoded value, the number
// of bytes consumed, and an error.
package varint

// Package frame assembles and disassembls the four wire frame types (I, P,
// G, H) by walking a schema.Field list, applying or inverting each field's
// predictor, and reading or writing the resulting residual with the
// varint package's scalar or grouped codecs.
//
// Decode and Encode are the two halves of the same walk: Decode turns wire
// bytes plus a running History into reconstructed field values, Encode
// turns field values plus the same History into wire bytes. Both are
// driven by an identical field-cursor loop so a change to how one group
// encoding's field count is resolved can't drift between the two
// directions.
package frame

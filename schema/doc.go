// Package schema describes the textual "H name:value\n" header block that
// precedes every log's frame data: the per-field name/signedness/predictor/
// encoding vectors for each frame type, and the system constants (throttle
// range, battery reference, gyro/accelerometer scale) that a handful of
// predictors and downstream consumers need.
//
// A Header is built field-by-field as header lines are parsed, then
// Finalize'd into an immutable Config plus per-frame-type []Field slices
// once "Field I name" and friends have all arrived; nothing here chooses
// between firmware dialects, it just records what the header said.
package schema

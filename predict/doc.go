// Package predict implements the closed set of frame-field predictors used
// to turn raw telemetry values into small residuals before they reach the
// varint layer, and to invert that transform on decode.
//
// Every predictor operates against a field's History: the previous two
// frames' values for that same field index. An
// Intraframe resets History (no cross-frame predictor may run); an
// Interframe predicts from History as it stood after the prior frame.
package predict

// Package stream drives the two halves of a flight-data-recorder session:
// Encoder, a bounded-tick embedded producer walking
// Disabled→Stopped→SendHeader→SendFieldInfo→SendGpsHeaders→SendSysInfo→Running,
// and Decoder, an offline parser replaying a log's bytes through
// OnMetadataReady/OnFrameReady/OnLogEvent callbacks with the reference
// resynchronisation algorithm: a corrupt frame is discarded and the search
// for the next frame marker resumes one byte past where the bad frame
// began, rather than aborting the parse.
package stream

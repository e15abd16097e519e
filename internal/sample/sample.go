// Package sample holds the element type shared by the engine's real-time
// producer and the writer workers' non-real-time consumer, kept in its own
// package so neither side has to import the other just for this one type.
package sample

// Recorded is one sample from one input channel, the element type of the
// track-recording queue (§3 "RecordedSample").
type Recorded struct {
	TrackID uint16
	Sample  float32
}

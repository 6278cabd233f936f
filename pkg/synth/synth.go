// Package synth streams reply text to the speech-synthesis upstream and
// returns PCM audio chunks as they arrive.
package synth

import "context"

// Chunk is one slice of synthesized audio. Audio is 16-bit little-endian PCM
// at the synthesis sample rate, with any container header already removed.
// Final marks the last chunk of an utterance.
type Chunk struct {
	Audio []byte
	Final bool
}

// Synthesizer is one live synthesis connection. The chunks channel closes
// when the upstream connection ends.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Chunks() <-chan Chunk
	Close() error
}

// Package speech provides the text-to-speech backends behind the
// announcer: synthesizers, audio sinks, an audio cache and the adapter
// that turns them into a domain.SpeechBackend.
package speech

import "context"

// Synthesizer converts text into raw PCM (signed 16-bit little endian,
// SampleRate, ChannelCount).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	// Voice identifies the voice; it is part of every cache key.
	Voice() string
}

// AudioSink plays PCM on an output device.
type AudioSink interface {
	// Play blocks until the audio finishes, Stop is called, or ctx is done.
	Play(ctx context.Context, pcm []byte) error
	// Stop interrupts the current playback, if any. Safe to call when idle.
	Stop()
}

package speech

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ AudioSink = (*Player)(nil)

// Player handles audio playback of PCM data via oto.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	volume float64
	playMu sync.Mutex // one Play owns the output at a time
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer creates an audio player. Initializes the system audio context.
// Returns an error if the audio device is unavailable. oto allows a single
// context per process, so call this once.
func NewPlayer(volume float64, log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d, volume=%.2f)", SampleRate, ChannelCount, volume)
	return &Player{ctx: ctx, log: log, volume: volume}, nil
}

// Play plays PCM synchronously. Blocks until playback finishes, Stop is
// called, or ctx is done. Concurrent calls take turns; a call whose ctx is
// already done plays nothing.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.SetVolume(p.volume)

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	// Wait for playback to complete or be interrupted.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
		case <-ticker.C:
		}
	}

	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()

	if err := player.Close(); err != nil {
		return err
	}
	return ctx.Err()
}

// Stop interrupts the currently playing audio, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

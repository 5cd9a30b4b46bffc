package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ AudioSink = (*MiniaudioPlayer)(nil)

// MiniaudioPlayer plays PCM through a miniaudio playback device. The
// device runs for the lifetime of the player; Play feeds it a buffer and
// waits until the data callback has drained it.
type MiniaudioPlayer struct {
	audioCtx *malgo.AllocatedContext
	device   *malgo.Device
	log      *logger.Logger
	volume   float64

	playMu sync.Mutex // one Play owns the device at a time

	mu      sync.Mutex
	pending []byte
	drained chan struct{} // owned by the Play in progress, nil when idle
}

// NewMiniaudioPlayer initializes the default playback device.
func NewMiniaudioPlayer(volume float64, log *logger.Logger) (*MiniaudioPlayer, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init miniaudio context: %w", err)
	}

	p := &MiniaudioPlayer{audioCtx: audioCtx, log: log, volume: volume}

	format := malgo.FormatS16
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.SampleRate = SampleRate
	cfg.Playback.Format = format
	cfg.Playback.Channels = ChannelCount
	cfg.Alsa.NoMMap = 1
	cfg.PeriodSizeInFrames = SampleRate / 10 // ~100ms of audio
	cfg.Periods = 4

	bytesPerFrame := malgo.SampleSizeInBytes(format) * ChannelCount
	p.device, err = malgo.InitDevice(audioCtx.Context, cfg, malgo.DeviceCallbacks{
		Data: p.processAudio(bytesPerFrame),
	})
	if err != nil {
		_ = audioCtx.Uninit()
		audioCtx.Free()
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	if err := p.device.Start(); err != nil {
		p.Close()
		return nil, fmt.Errorf("start playback device: %w", err)
	}

	log.Debug("miniaudio player initialized (rate=%d, channels=%d, volume=%.2f)", SampleRate, ChannelCount, volume)
	return p, nil
}

// Play queues pcm on the device and blocks until it has been consumed,
// Stop is called, or ctx is done. Concurrent calls take turns; a call
// whose ctx is already done never touches the device.
func (p *MiniaudioPlayer) Play(ctx context.Context, pcm []byte) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.pending = scaleVolume(pcm, p.volume)
	p.drained = done
	p.mu.Unlock()

	p.log.Debug("miniaudio player: playing %d bytes of PCM", len(pcm))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.release(done)
		return ctx.Err()
	}
}

// Stop discards whatever has not been played yet.
func (p *MiniaudioPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drained == nil {
		return
	}
	p.pending = nil
	close(p.drained)
	p.drained = nil
	p.log.Debug("miniaudio player: interrupted")
}

// release drops pending audio only if it still belongs to done.
func (p *MiniaudioPlayer) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.drained != done {
		return
	}
	p.pending = nil
	close(done)
	p.drained = nil
}

// Close releases the device and context.
func (p *MiniaudioPlayer) Close() {
	p.Stop()
	if p.device != nil {
		p.device.Uninit()
		p.device = nil
	}
	if p.audioCtx != nil {
		_ = p.audioCtx.Uninit()
		p.audioCtx.Free()
		p.audioCtx = nil
	}
}

func (p *MiniaudioPlayer) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := int(frameCount) * bytesPerFrame

		p.mu.Lock()
		defer p.mu.Unlock()

		n := copy(pOutput[:need], p.pending)
		clear(pOutput[n:need])
		p.pending = p.pending[n:]

		if len(p.pending) == 0 && p.drained != nil {
			close(p.drained)
			p.drained = nil
		}
	}
}

// scaleVolume returns a copy of s16le pcm multiplied by volume.
func scaleVolume(pcm []byte, volume float64) []byte {
	out := make([]byte, len(pcm))
	if volume >= 1 {
		copy(out, pcm)
		return out
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		s := int16(binary.LittleEndian.Uint16(pcm[i:]))
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(float64(s)*volume)))
	}
	return out
}

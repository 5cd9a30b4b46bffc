package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ domain.SpeechBackend = (*AudioBackend)(nil)

// BackendOption configures the AudioBackend.
type BackendOption func(*AudioBackend)

// WithChunkSize sets the approximate max character count per synthesis
// request. Longer text is split at sentence boundaries and synthesized in
// parallel so playback doesn't stall between sentences.
func WithChunkSize(n int) BackendOption {
	return func(b *AudioBackend) {
		b.chunkSize = n
	}
}

// WithCacheDir sets the filesystem directory used for persistent audio
// caching. If empty, the disk layer is disabled (pure in-memory).
func WithCacheDir(dir string) BackendOption {
	return func(b *AudioBackend) {
		b.cacheDir = dir
	}
}

// WithDiskWrite controls whether new cache entries are written to disk.
// Even when false, existing on-disk entries are still read.
func WithDiskWrite(enabled bool) BackendOption {
	return func(b *AudioBackend) {
		b.diskWrite = enabled
	}
}

// WithCacheLimit bounds the synthesized audio kept in memory, in bytes.
// Zero means unbounded.
func WithCacheLimit(bytes int64) BackendOption {
	return func(b *AudioBackend) {
		b.cacheLimit = bytes
	}
}

// AudioBackend turns a Synthesizer and an AudioSink into the single speech
// stream the announcer drives. Each submitted request gets its own worker
// goroutine: chunk -> synthesize (parallel, cached) -> play (sequential) ->
// report completion.
type AudioBackend struct {
	synth Synthesizer
	sink  AudioSink
	log   *logger.Logger
	cache *AudioCache
	base  context.Context

	chunkSize  int
	cacheDir   string
	diskWrite  bool
	cacheLimit int64

	mu      sync.Mutex
	handler domain.CompletionHandler
	cancel  context.CancelFunc // cancels the worker in flight
	seq     uint64             // identifies the worker owning cancel
}

// NewAudioBackend creates the backend. Workers stop when ctx is done.
func NewAudioBackend(ctx context.Context, synth Synthesizer, sink AudioSink, log *logger.Logger, opts ...BackendOption) *AudioBackend {
	b := &AudioBackend{
		synth:     synth,
		sink:      sink,
		log:       log,
		base:      ctx,
		chunkSize: DefaultChunkSize,
		diskWrite: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.cache = NewAudioCache(synth.Voice(), log,
		WithClipDir(b.cacheDir, b.diskWrite),
		WithMemoryLimit(b.cacheLimit),
	)
	return b
}

// Supported reports true: a synthesizer and a sink are wired.
func (b *AudioBackend) Supported() bool { return true }

// SetCompletionHandler registers the function told about finished requests.
func (b *AudioBackend) SetCompletionHandler(h domain.CompletionHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Submit starts speaking req in the background. A request still in flight
// is superseded. Never blocks.
func (b *AudioBackend) Submit(req domain.AnnouncementRequest) {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
	}
	ctx, cancel := context.WithCancel(b.base)
	b.seq++
	seq := b.seq
	b.cancel = cancel
	handler := b.handler
	b.mu.Unlock()

	go b.run(ctx, cancel, seq, handler, req)
}

// Cancel stops the request in flight. Its worker still reports completion
// (with domain.ErrCanceled).
func (b *AudioBackend) Cancel() {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	b.mu.Unlock()

	b.sink.Stop()
}

// Cache returns the audio cache. Useful for stats/logging.
func (b *AudioBackend) Cache() *AudioCache { return b.cache }

func (b *AudioBackend) run(ctx context.Context, cancel context.CancelFunc, seq uint64, handler domain.CompletionHandler, req domain.AnnouncementRequest) {
	err := b.speak(ctx, req.Text)
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %s", domain.ErrCanceled, req.ID)
	}
	if err != nil && !errors.Is(err, domain.ErrCanceled) {
		b.log.Error("backend: %s failed: %v", req.ID, err)
	}

	b.mu.Lock()
	if b.seq == seq {
		b.cancel = nil
	}
	b.mu.Unlock()
	cancel()

	if handler != nil {
		handler(req.ID, err)
	}
}

// speak synthesizes and plays text, using chunked parallel synthesis for
// long text.
func (b *AudioBackend) speak(ctx context.Context, text string) error {
	chunks := splitChunks(text, b.chunkSize)
	if len(chunks) <= 1 {
		pcm, err := b.synthesizeWithCache(ctx, text)
		if err != nil {
			return fmt.Errorf("synthesis failed: %w", err)
		}
		// A superseded worker must not reach the sink; it would steal
		// playback from the request that replaced it.
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.sink.Play(ctx, pcm); err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
		return nil
	}

	b.log.Debug("backend: split into %d chunks for parallel synthesis", len(chunks))

	type result struct {
		idx int
		pcm []byte
		err error
	}
	results := make(chan result, len(chunks))

	for i, chunk := range chunks {
		go func(idx int, text string) {
			pcm, err := b.synthesizeWithCache(ctx, text)
			results <- result{idx: idx, pcm: pcm, err: err}
		}(i, chunk)
	}

	slots := make([][]byte, len(chunks))
	var errs []error
	for range chunks {
		r := <-results
		if r.err != nil {
			b.log.Error("backend: chunk %d synthesis failed: %v", r.idx, r.err)
			errs = append(errs, fmt.Errorf("chunk %d: %w", r.idx, r.err))
			continue
		}
		slots[r.idx] = r.pcm
	}

	// Play in order, skipping chunks that failed.
	for i, pcm := range slots {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pcm == nil {
			continue
		}
		if err := b.sink.Play(ctx, pcm); err != nil {
			errs = append(errs, fmt.Errorf("chunk %d playback: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// synthesizeWithCache checks the cache first, otherwise calls the
// synthesizer and stores the result.
func (b *AudioBackend) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if pcm, ok := b.cache.Get(text); ok {
		return pcm, nil
	}
	pcm, err := b.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	b.cache.Put(text, pcm)
	return pcm, nil
}

// Prefetch pre-synthesizes the given texts in background goroutines and
// stores the results in the audio cache. Non-blocking.
//
// Call it for lines you know are coming (the welcome messages, every
// platform description) so playback starts instantly.
func (b *AudioBackend) Prefetch(ctx context.Context, texts ...string) {
	var chunks []string
	for _, text := range texts {
		chunks = append(chunks, splitChunks(text, b.chunkSize)...)
	}
	for _, chunk := range b.cache.Missing(chunks...) {
		go func(t string) {
			pcm, err := b.synth.Synthesize(ctx, t)
			if err != nil {
				b.log.Error("prefetch: synthesis failed: %v", err)
				return
			}
			b.cache.Put(t, pcm)
		}(chunk)
	}
}

package speech

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// CacheOption configures an AudioCache.
type CacheOption func(*AudioCache)

// WithClipDir keeps clips on disk under dir, in one subdirectory per
// voice. When persist is false existing clips are still read but new ones
// stay in memory.
func WithClipDir(dir string, persist bool) CacheOption {
	return func(c *AudioCache) {
		c.root = dir
		c.persist = persist
	}
}

// WithMemoryLimit bounds the PCM held in memory. Least recently spoken
// clips are dropped first. Zero means unbounded.
func WithMemoryLimit(bytes int64) CacheOption {
	return func(c *AudioCache) {
		c.limit = bytes
	}
}

// CacheStats is a snapshot of cache activity.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Clips     int   // clips held in memory
	Bytes     int64 // PCM held in memory
}

// clip is one synthesized line held in memory.
type clip struct {
	key string
	pcm []byte
}

// AudioCache holds synthesized lines for one voice so repeated narration
// (the welcome, a link described twice) never goes back to the engine.
// Lines are looked up in memory first and then on disk; disk hits are
// promoted. It is safe for concurrent use.
type AudioCache struct {
	log     *logger.Logger
	voice   string
	root    string // empty = memory only
	persist bool
	limit   int64

	mu    sync.Mutex
	clips map[string]*list.Element
	lru   *list.List // front = most recently spoken
	size  int64
	stats CacheStats
}

// NewAudioCache creates the cache for voice.
func NewAudioCache(voice string, log *logger.Logger, opts ...CacheOption) *AudioCache {
	c := &AudioCache{
		log:   log,
		voice: voice,
		clips: make(map[string]*list.Element),
		lru:   list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if dir := c.voiceDir(); dir != "" && c.persist {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("cache: cannot create %s, clips stay in memory: %v", dir, err)
			c.persist = false
		}
	}
	return c
}

// Get returns the clip for text, if any.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	key := clipKey(text)

	c.mu.Lock()
	if el, ok := c.clips[key]; ok {
		c.lru.MoveToFront(el)
		c.stats.Hits++
		pcm := el.Value.(*clip).pcm
		c.mu.Unlock()
		c.log.Debug("cache: hit %q (%s)", logger.Excerpt(text, 40), humanize.Bytes(uint64(len(pcm))))
		return pcm, true
	}
	c.mu.Unlock()

	if pcm, ok := c.readClip(key); ok {
		c.mu.Lock()
		c.stats.Hits++
		c.keepLocked(key, pcm)
		c.mu.Unlock()
		c.log.Debug("cache: hit on disk %q (%s)", logger.Excerpt(text, 40), humanize.Bytes(uint64(len(pcm))))
		return pcm, true
	}

	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores the clip for text.
func (c *AudioCache) Put(text string, pcm []byte) {
	key := clipKey(text)

	c.mu.Lock()
	c.keepLocked(key, pcm)
	clips, size := c.lru.Len(), c.size
	c.mu.Unlock()

	c.log.Debug("cache: stored %q (%d clips, %s in memory)", logger.Excerpt(text, 40), clips, humanize.Bytes(uint64(size)))

	if c.persist {
		c.writeClip(key, pcm)
	}
}

// Has reports whether a clip for text exists in memory or on disk. It
// does not count as a hit.
func (c *AudioCache) Has(text string) bool {
	key := clipKey(text)

	c.mu.Lock()
	_, ok := c.clips[key]
	c.mu.Unlock()
	if ok {
		return true
	}

	if path := c.clipPath(key); path != "" {
		_, err := os.Stat(path)
		return err == nil
	}
	return false
}

// Missing returns the lines of texts with no clip yet, without duplicates
// and in their original order.
func (c *AudioCache) Missing(texts ...string) []string {
	seen := make(map[string]bool, len(texts))
	var out []string
	for _, t := range texts {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if !c.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of clips held in memory.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns a snapshot of cache activity.
func (c *AudioCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Clips = c.lru.Len()
	s.Bytes = c.size
	return s
}

// Clear forgets every clip held in memory and resets the counters. Clips
// on disk are kept.
func (c *AudioCache) Clear() {
	c.mu.Lock()
	c.clips = make(map[string]*list.Element)
	c.lru.Init()
	c.size = 0
	c.stats = CacheStats{}
	c.mu.Unlock()
	c.log.Debug("cache: cleared memory for voice %s", c.voice)
}

// keepLocked inserts or refreshes a clip and enforces the memory limit.
// Must be called with c.mu held.
func (c *AudioCache) keepLocked(key string, pcm []byte) {
	if el, ok := c.clips[key]; ok {
		cl := el.Value.(*clip)
		c.size += int64(len(pcm) - len(cl.pcm))
		cl.pcm = pcm
		c.lru.MoveToFront(el)
	} else {
		c.clips[key] = c.lru.PushFront(&clip{key: key, pcm: pcm})
		c.size += int64(len(pcm))
	}

	// The clip just kept is never evicted, even if it alone exceeds the
	// limit.
	for c.limit > 0 && c.size > c.limit && c.lru.Len() > 1 {
		oldest := c.lru.Back()
		cl := oldest.Value.(*clip)
		c.lru.Remove(oldest)
		delete(c.clips, cl.key)
		c.size -= int64(len(cl.pcm))
		c.stats.Evictions++
	}
}

// voiceDir is where this voice's clips live on disk, or "" without a
// disk layer.
func (c *AudioCache) voiceDir() string {
	if c.root == "" {
		return ""
	}
	return filepath.Join(c.root, voiceSlug(c.voice))
}

func (c *AudioCache) clipPath(key string) string {
	dir := c.voiceDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, key+".pcm")
}

func (c *AudioCache) readClip(key string) ([]byte, bool) {
	path := c.clipPath(key)
	if path == "" {
		return nil, false
	}
	pcm, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return pcm, true
}

func (c *AudioCache) writeClip(key string, pcm []byte) {
	path := c.clipPath(key)
	if err := os.WriteFile(path, pcm, 0o644); err != nil {
		c.log.Error("cache: cannot write %s: %v", path, err)
	}
}

// clipKey names a line within one voice's clips.
func clipKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:16])
}

// voiceSlug turns a voice name into a safe directory name.
func voiceSlug(voice string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(voice))
	if slug == "" || strings.Trim(slug, ".") == "" {
		return "default"
	}
	return slug
}

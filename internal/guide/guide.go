// Package guide turns card interactions into narration: hover dwell
// descriptions, click confirmations, the welcome greeting and the voice
// toggle.
package guide

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
	"github.com/hammamikhairi/voiceguide/internal/speech"
)

// Narrator is the part of the announcer the guide drives.
type Narrator interface {
	Speak(text string, priority domain.Priority)
	Stop()
	SetEnabled(enabled bool)
	Enabled() bool
	IsSpeaking() bool
}

// Option configures the Guide.
type Option func(*Guide)

// WithHoverDwell sets how long the pointer must rest on a card before its
// description is spoken.
func WithHoverDwell(d time.Duration) Option {
	return func(g *Guide) {
		g.hoverDwell = d
	}
}

// WithClickDelay sets the pause between a click and "Opening ...".
func WithClickDelay(d time.Duration) Option {
	return func(g *Guide) {
		g.clickDelay = d
	}
}

// WithWelcomeDelay sets when the automatic welcome plays after Start.
func WithWelcomeDelay(d time.Duration) Option {
	return func(g *Guide) {
		g.welcomeDelay = d
	}
}

// WithRand sets the source used to pick welcome lines.
func WithRand(r *rand.Rand) Option {
	return func(g *Guide) {
		g.rng = r
	}
}

// Guide wires UI events to a Narrator. All methods are safe for concurrent
// use and never block on speech.
type Guide struct {
	narrator Narrator
	links    domain.LinkSource
	log      *logger.Logger

	hoverDwell   time.Duration
	clickDelay   time.Duration
	welcomeDelay time.Duration

	mu      sync.Mutex
	rng     *rand.Rand
	hover   *time.Timer
	hovered string
	clicks  map[*time.Timer]struct{}
	welcome *time.Timer
	hidden  bool
	running bool
	ctx     context.Context
}

// New creates a guide. Call Start to schedule the automatic welcome.
func New(narrator Narrator, links domain.LinkSource, log *logger.Logger, opts ...Option) *Guide {
	g := &Guide{
		narrator:     narrator,
		links:        links,
		log:          log,
		hoverDwell:   1 * time.Second,
		clickDelay:   300 * time.Millisecond,
		welcomeDelay: 2500 * time.Millisecond,
		clicks:       make(map[*time.Timer]struct{}),
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start schedules the automatic welcome. Non-blocking. Timers are
// disarmed when ctx is done or Stop is called.
func (g *Guide) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		g.log.Warn("guide: already running")
		return
	}
	g.running = true
	g.ctx = ctx

	g.welcome = time.AfterFunc(g.welcomeDelay, func() {
		if g.narrator.Enabled() {
			g.Welcome()
		}
	})
	context.AfterFunc(ctx, g.Stop)

	g.log.Info("guide: started (dwell=%s, click=%s, welcome=%s)", g.hoverDwell, g.clickDelay, g.welcomeDelay)
}

// Stop disarms every pending timer. Speech already queued is untouched.
func (g *Guide) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.welcome != nil {
		g.welcome.Stop()
		g.welcome = nil
	}
	g.cancelHoverLocked()
	for t := range g.clicks {
		t.Stop()
	}
	clear(g.clicks)

	if g.running {
		g.running = false
		g.log.Info("guide: stopped")
	}
}

// Welcome greets the visitor with a random welcome line, interrupting
// anything in progress.
func (g *Guide) Welcome() {
	name := ""
	if p, err := g.links.Profile(g.context()); err == nil {
		name = p.Name
	}

	g.mu.Lock()
	line := speech.LineWelcome(g.rng, name)
	g.mu.Unlock()

	g.narrator.Speak(line, domain.PriorityHigh)
}

// Describe queues the description of platform. Unknown platforms are
// ignored.
func (g *Guide) Describe(platform string) {
	link, err := g.links.Get(g.context(), platform)
	if err != nil || link.Description == "" {
		g.log.Debug("guide: nothing to describe for %q", platform)
		return
	}
	g.narrator.Speak(speech.LineDescribe(link.DisplayName(), link.Description), domain.PriorityNormal)
}

// HoverStart arms the dwell timer for platform, replacing any previous
// hover. Nothing is armed while narration is off.
func (g *Guide) HoverStart(platform string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelHoverLocked()
	if !g.narrator.Enabled() {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(g.hoverDwell, func() {
		g.mu.Lock()
		current := g.hover == t
		if current {
			g.hover = nil
			g.hovered = ""
		}
		g.mu.Unlock()

		if current {
			g.Describe(platform)
		}
	})
	g.hover = t
	g.hovered = platform
}

// HoverEnd disarms the dwell timer. Speech already queued is untouched.
func (g *Guide) HoverEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelHoverLocked()
}

// Hovered returns the platform whose dwell timer is armed, if any.
func (g *Guide) Hovered() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hovered
}

// Click announces that platform is being opened, after a short delay.
func (g *Guide) Click(platform string) {
	if !g.narrator.Enabled() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(g.clickDelay, func() {
		g.mu.Lock()
		_, armed := g.clicks[t]
		delete(g.clicks, t)
		g.mu.Unlock()

		if !armed || !g.narrator.Enabled() {
			return
		}
		name := platform
		if link, err := g.links.Get(g.context(), platform); err == nil {
			name = link.DisplayName()
		}
		g.narrator.Speak(speech.LineOpening(name), domain.PriorityNormal)
	})
	g.clicks[t] = struct{}{}
}

// Toggle flips narration on or off and reports the new state. Turning it
// on greets the visitor; turning it off silences everything.
func (g *Guide) Toggle() bool {
	if g.narrator.Enabled() {
		g.Mute()
		return false
	}
	g.narrator.SetEnabled(true)
	g.log.Info("guide: narration on")
	g.Welcome()
	return true
}

// Mute turns narration off and stops whatever is playing.
func (g *Guide) Mute() {
	g.mu.Lock()
	g.cancelHoverLocked()
	g.mu.Unlock()

	// Stop first so listeners see a single Stopped transition.
	g.narrator.Stop()
	g.narrator.SetEnabled(false)
	g.log.Info("guide: narration off")
}

// SetHidden records whether the card is out of view. Going out of view
// while speaking stops playback.
func (g *Guide) SetHidden(hidden bool) {
	g.mu.Lock()
	changed := g.hidden != hidden
	g.hidden = hidden
	if hidden {
		g.cancelHoverLocked()
	}
	g.mu.Unlock()

	if changed {
		g.log.Debug("guide: hidden=%t", hidden)
	}
	if hidden && g.narrator.IsSpeaking() {
		g.narrator.Stop()
	}
}

// Hidden reports the last value passed to SetHidden.
func (g *Guide) Hidden() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hidden
}

func (g *Guide) cancelHoverLocked() {
	if g.hover != nil {
		g.hover.Stop()
		g.hover = nil
	}
	g.hovered = ""
}

func (g *Guide) context() context.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctx
}

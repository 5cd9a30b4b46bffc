// Package announcer serializes narration onto a single speech stream.
//
// An [Announcer] owns the enabled flag, the pending queue and the request
// currently in flight. Normal-priority requests wait their turn in FIFO
// order; high-priority requests discard whatever is playing and start
// immediately. Backend failures are reduced to [domain.StatusError] and
// never returned to callers of [Announcer.Speak].
package announcer

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Option configures the Announcer.
type Option func(*Announcer)

// WithMaxQueue caps the number of pending normal-priority requests. When
// the cap is reached the oldest pending request is dropped. Zero (the
// default) means unbounded.
func WithMaxQueue(n int) Option {
	return func(a *Announcer) {
		a.maxQueue = n
	}
}

// WithEnabled sets the initial enabled flag. Announcers start enabled.
func WithEnabled(enabled bool) Option {
	return func(a *Announcer) {
		a.enabled = enabled
	}
}

// WithTracer overrides the OpenTelemetry tracer used for announcement spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Announcer) {
		a.tracer = t
	}
}

// StatusListener receives every status transition, in order.
type StatusListener func(domain.Status)

// inFlight is the request the backend is currently playing.
type inFlight struct {
	req  domain.AnnouncementRequest
	span trace.Span
}

// Announcer is the voice announcement queue. All methods are safe for
// concurrent use.
type Announcer struct {
	backend domain.SpeechBackend
	log     *logger.Logger
	tracer  trace.Tracer
	newID   func() string

	mu        sync.Mutex
	enabled   bool
	current   *inFlight // nil when idle
	queue     []domain.AnnouncementRequest
	status    domain.Status
	maxQueue  int
	listeners []listenerEntry
	nextSub   int
}

type listenerEntry struct {
	id int
	fn StatusListener
}

// New creates an announcer on top of the given backend and registers its
// completion handler. The handler is registered once for the lifetime of
// the announcer.
func New(backend domain.SpeechBackend, log *logger.Logger, opts ...Option) *Announcer {
	a := &Announcer{
		backend: backend,
		log:     log,
		tracer:  tracer,
		newID:   uuid.NewString,
		enabled: true,
		status:  domain.StatusReady,
	}
	for _, opt := range opts {
		opt(a)
	}
	if !backend.Supported() {
		a.status = domain.StatusUnsupported
		log.Warn("announcer: speech backend not supported, narration disabled")
	}
	backend.SetCompletionHandler(a.onFinished)
	return a
}

// Speak requests narration of text. It never blocks and never fails: when
// the announcer is disabled, the backend is unsupported, or text is blank
// the call does nothing.
func (a *Announcer) Speak(text string, priority domain.Priority) {
	text = strings.TrimSpace(text)

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled || text == "" || !a.backend.Supported() {
		return
	}

	req := domain.AnnouncementRequest{
		ID:       a.newID(),
		Text:     text,
		Priority: priority,
		QueuedAt: time.Now(),
	}

	if priority == domain.PriorityHigh || a.current == nil {
		if a.current != nil {
			a.log.Debug("announcer: %s pre-empts %s", req.ID, a.current.req.ID)
			a.cancelCurrentLocked("preempted")
		}
		a.submitLocked(req)
		return
	}

	a.enqueueLocked(req)
}

// Stop cancels whatever is playing and discards every pending request.
func (a *Announcer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.backend.Supported() {
		return
	}
	a.haltLocked("stopped")
}

// SetEnabled turns narration on or off. Disabling while speaking halts
// playback and clears the queue.
func (a *Announcer) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.enabled == enabled {
		return
	}
	a.enabled = enabled
	a.log.Info("announcer: enabled=%t", enabled)

	if !enabled && a.current != nil {
		a.haltLocked("disabled")
	}
}

// Enabled reports whether narration is turned on.
func (a *Announcer) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// IsSupported reports whether the backend can produce speech at all.
func (a *Announcer) IsSupported() bool {
	return a.backend.Supported()
}

// IsSpeaking returns true while a request is in flight.
func (a *Announcer) IsSpeaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current != nil
}

// Status returns the current status.
func (a *Announcer) Status() domain.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// QueueLen returns the number of pending requests.
func (a *Announcer) QueueLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Pending returns the texts of the pending requests in the order they
// will be spoken.
func (a *Announcer) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, len(a.queue))
	for i, req := range a.queue {
		out[i] = req.Text
	}
	return out
}

// Current returns the request in flight, if any.
func (a *Announcer) Current() (domain.AnnouncementRequest, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return domain.AnnouncementRequest{}, false
	}
	return a.current.req, true
}

// Subscribe registers a listener for status transitions and returns a
// function that removes it. Listeners run synchronously while the
// announcer is locked: they must return quickly and must not call back
// into the announcer.
func (a *Announcer) Subscribe(fn StatusListener) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	a.listeners = append(a.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

// onFinished is the one completion handler registered with the backend.
// Completions for anything but the request in flight are stale (the
// request was pre-empted or stopped) and are dropped.
func (a *Announcer) onFinished(id string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil || a.current.req.ID != id {
		a.log.Debug("announcer: ignoring stale completion for %s (err=%v)", id, err)
		return
	}

	finished := a.current
	a.current = nil

	if err != nil {
		a.log.Warn("announcer: %s failed: %v", id, err)
		finished.span.RecordError(err)
		finished.span.SetStatus(codes.Error, err.Error())
		finished.span.SetAttributes(attribute.String("announcement.outcome", "error"))
		finished.span.End()
		a.setStatusLocked(domain.StatusError)
	} else {
		a.log.Debug("announcer: %s finished after %s", id, time.Since(finished.req.QueuedAt).Round(time.Millisecond))
		finished.span.SetAttributes(attribute.String("announcement.outcome", "completed"))
		finished.span.End()
		a.setStatusLocked(domain.StatusReady)
	}

	a.drainLocked()
}

// submitLocked hands req to the backend and marks it in flight.
// Must be called with a.mu held.
func (a *Announcer) submitLocked(req domain.AnnouncementRequest) {
	_, span := a.tracer.Start(context.Background(), "speak announcement",
		trace.WithAttributes(
			attribute.String("announcement.id", req.ID),
			attribute.String("announcement.priority", req.Priority.String()),
			attribute.Int("announcement.text_length", utf8.RuneCountInString(req.Text)),
			attribute.Int("announcement.queue_length", len(a.queue)),
		),
	)

	a.current = &inFlight{req: req, span: span}
	a.log.Debug("announcer: speaking %s (priority=%s, waited=%s): %s",
		req.ID, req.Priority, time.Since(req.QueuedAt).Round(time.Millisecond), logger.Excerpt(req.Text, 60))
	a.backend.Submit(req)
	a.setStatusLocked(domain.StatusSpeaking)
}

// enqueueLocked appends req to the tail of the queue, dropping the oldest
// pending request when a cap is configured and reached.
// Must be called with a.mu held.
func (a *Announcer) enqueueLocked(req domain.AnnouncementRequest) {
	if a.maxQueue > 0 && len(a.queue) >= a.maxQueue {
		dropped := a.queue[0]
		a.queue = a.queue[1:]
		a.log.Debug("announcer: queue full (%d), dropped %s", a.maxQueue, dropped.ID)
	}
	a.queue = append(a.queue, req)
	a.log.Debug("announcer: queued %s (queue_len=%d): %s", req.ID, len(a.queue), logger.Excerpt(req.Text, 60))
}

// drainLocked starts the head of the queue, if any.
// Must be called with a.mu held.
func (a *Announcer) drainLocked() {
	if len(a.queue) == 0 {
		return
	}
	next := a.queue[0]
	a.queue = a.queue[1:]
	a.submitLocked(next)
}

// cancelCurrentLocked discards the request in flight. The backend's
// completion for it will arrive later and be ignored as stale.
// Must be called with a.mu held.
func (a *Announcer) cancelCurrentLocked(outcome string) {
	if a.current == nil {
		return
	}
	a.backend.Cancel()
	a.current.span.SetAttributes(attribute.String("announcement.outcome", outcome))
	a.current.span.End()
	a.current = nil
}

// haltLocked cancels the request in flight, clears the queue and reports
// Stopped. Must be called with a.mu held.
func (a *Announcer) haltLocked(reason string) {
	a.cancelCurrentLocked(reason)
	if n := len(a.queue); n > 0 {
		a.log.Debug("announcer: discarded %d pending requests (%s)", n, reason)
	}
	a.queue = nil
	a.setStatusLocked(domain.StatusStopped)
}

// setStatusLocked records a transition and notifies listeners.
// Must be called with a.mu held.
func (a *Announcer) setStatusLocked(s domain.Status) {
	a.status = s
	for _, l := range a.listeners {
		l.fn(s)
	}
}

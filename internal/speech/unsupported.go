package speech

import (
	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ domain.SpeechBackend = (*Unsupported)(nil)

// Unsupported is the backend used when no synthesizer or audio device is
// available. The announcer treats it as a permanent no-op.
type Unsupported struct {
	reason string
	log    *logger.Logger
}

// NewUnsupported creates the no-op backend. reason is logged once.
func NewUnsupported(reason string, log *logger.Logger) *Unsupported {
	log.Info("speech output unavailable: %s", reason)
	return &Unsupported{reason: reason, log: log}
}

// Reason explains why speech is unavailable.
func (u *Unsupported) Reason() string { return u.reason }

// Supported always returns false.
func (u *Unsupported) Supported() bool { return false }

// SetCompletionHandler does nothing; nothing ever completes.
func (u *Unsupported) SetCompletionHandler(domain.CompletionHandler) {}

// Submit drops the request.
func (u *Unsupported) Submit(req domain.AnnouncementRequest) {
	u.log.Debug("speech unsupported: would say %q", req.Text)
}

// Cancel does nothing.
func (u *Unsupported) Cancel() {}

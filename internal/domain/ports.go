package domain

import "context"

// CompletionHandler is called by a SpeechBackend when the request with the
// given ID stops playing. err is nil on natural completion.
type CompletionHandler func(id string, err error)

// SpeechBackend is the single audio output stream narration is played on.
// Submit and Cancel must not block, and the completion handler must never
// be invoked synchronously from inside Submit or Cancel.
type SpeechBackend interface {
	Supported() bool
	SetCompletionHandler(h CompletionHandler)
	Submit(req AnnouncementRequest)
	Cancel()
}

// LinkSource provides the links shown on the card. Implementations can be
// the built-in profile, a YAML file, or anything else.
type LinkSource interface {
	Profile(ctx context.Context) (Profile, error)
	List(ctx context.Context) ([]Link, error)
	Get(ctx context.Context, platform string) (Link, error)
	Search(ctx context.Context, query string) ([]Link, error)
}

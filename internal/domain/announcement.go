// Package domain defines the core types and interfaces for the voice guide.
// All other packages depend on domain; domain depends on nothing.
package domain

import "time"

// Priority decides whether a request waits its turn or cuts in.
type Priority int

const (
	PriorityNormal Priority = iota // hover descriptions, click feedback
	PriorityHigh                   // welcome line, explicit toggle
)

// String returns a human-readable priority.
func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// AnnouncementRequest is a single piece of narration. It is never mutated
// after the announcer creates it.
type AnnouncementRequest struct {
	ID       string
	Text     string
	Priority Priority
	QueuedAt time.Time
}

// Status is the announcer state shown by the status widget.
type Status string

const (
	StatusReady       Status = "Ready"
	StatusSpeaking    Status = "Speaking"
	StatusError       Status = "Error"
	StatusStopped     Status = "Stopped"
	StatusUnsupported Status = "Unsupported"
)

// Status widget colours.
const (
	ColorReady    = "#60a5fa"
	ColorSpeaking = "#fbbf24"
	ColorError    = "#ef4444"
	ColorMuted    = "#94a3b8"
)

// Color returns the hex colour the status text is rendered in.
func (s Status) Color() string {
	switch s {
	case StatusSpeaking:
		return ColorSpeaking
	case StatusError:
		return ColorError
	case StatusUnsupported:
		return ColorMuted
	default:
		return ColorReady
	}
}

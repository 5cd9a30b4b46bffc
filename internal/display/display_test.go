package display

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
	"github.com/hammamikhairi/voiceguide/internal/profile"
)

// fakeGuide records the interactions the model forwards.
type fakeGuide struct {
	mu    sync.Mutex
	calls []string
}

func (g *fakeGuide) record(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, s)
}

func (g *fakeGuide) HoverStart(p string) { g.record("hover:" + p) }
func (g *fakeGuide) HoverEnd() { g.record("leave") }
func (g *fakeGuide) Click(p string) { g.record("click:" + p) }
func (g *fakeGuide) Toggle() bool { g.record("toggle"); return true }
func (g *fakeGuide) Mute() { g.record("mute") }
func (g *fakeGuide) Welcome() { g.record("welcome") }

func (g *fakeGuide) SetHidden(hidden bool) {
	if hidden {
		g.record("hidden")
		return
	}
	g.record("visible")
}

func (g *fakeGuide) recorded() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

type fakeVoice struct {
	status    domain.Status
	enabled   bool
	supported bool
	queued    int
	stops     int
}

func (v *fakeVoice) Status() domain.Status { return v.status }
func (v *fakeVoice) Enabled() bool { return v.enabled }
func (v *fakeVoice) IsSupported() bool { return v.supported }
func (v *fakeVoice) QueueLen() int { return v.queued }
func (v *fakeVoice) Stop() { v.stops++ }

func newTestModel(t *testing.T, voice *fakeVoice) (model, *fakeGuide) {
	t.Helper()
	src, err := profile.NewMemorySource(profile.Default(), logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	g := &fakeGuide{}
	return newModel(context.Background(), src, g, voice), g
}

func press(m model, msg tea.KeyMsg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectionIsHover(t *testing.T) {
	m, g := newTestModel(t, &fakeVoice{status: domain.StatusReady, enabled: true, supported: true})

	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selected != 1 {
		t.Fatalf("expected selection 1, got %d", m.selected)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != len(m.profile.Links)-1 {
		t.Fatalf("expected wrap to last card, got %d", m.selected)
	}

	want := []string{"leave", "hover:github", "leave", "hover:youtube", "leave", "hover:blog"}
	if got := g.recorded(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestKeysForwardToGuide(t *testing.T) {
	voice := &fakeVoice{status: domain.StatusReady, enabled: true, supported: true}
	m, g := newTestModel(t, voice)

	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	m = press(m, runes("w"))
	m = press(m, runes("s"))

	want := []string{"click:youtube", "toggle", "mute", "welcome"}
	if got := g.recorded(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if voice.stops != 1 {
		t.Fatalf("expected s to stop narration, got %d stops", voice.stops)
	}
	if m.opened != "https://www.youtube.com/" {
		t.Fatalf("expected opened url, got %q", m.opened)
	}
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, &fakeVoice{enabled: true, supported: true})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestFocusChangesVisibility(t *testing.T) {
	m, g := newTestModel(t, &fakeVoice{enabled: true, supported: true})

	next, _ := m.Update(tea.BlurMsg{})
	next.(model).Update(tea.FocusMsg{})

	want := []string{"hidden", "visible"}
	if got := g.recorded(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStatusWidget(t *testing.T) {
	tests := []struct {
		name  string
		voice fakeVoice
		text  string
		color string
	}{
		{"ready", fakeVoice{status: domain.StatusReady, enabled: true, supported: true}, "Ready", domain.ColorReady},
		{"speaking", fakeVoice{status: domain.StatusSpeaking, enabled: true, supported: true}, "Speaking", domain.ColorSpeaking},
		{"error", fakeVoice{status: domain.StatusError, enabled: true, supported: true}, "Error", domain.ColorError},
		{"muted", fakeVoice{status: domain.StatusStopped, enabled: false, supported: true}, "Muted", domain.ColorMuted},
		{"unsupported", fakeVoice{status: domain.StatusUnsupported, enabled: true, supported: false}, "Not Supported", domain.ColorMuted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voice := tt.voice
			m, _ := newTestModel(t, &voice)
			if got := m.statusText(); got != tt.text {
				t.Errorf("text: expected %q, got %q", tt.text, got)
			}
			if got := m.statusColor(); got != tt.color {
				t.Errorf("color: expected %q, got %q", tt.color, got)
			}
		})
	}
}

func TestTickPollsStatus(t *testing.T) {
	voice := &fakeVoice{status: domain.StatusReady, enabled: true, supported: true}
	m, _ := newTestModel(t, voice)

	voice.status = domain.StatusSpeaking
	voice.queued = 2
	next, _ := m.Update(tickMsg{})
	m = next.(model)

	if m.status != domain.StatusSpeaking || m.queued != 2 {
		t.Fatalf("expected polled status, got %s/%d", m.status, m.queued)
	}
	if view := m.View(); !strings.Contains(view, "Speaking") || !strings.Contains(view, "2 queued") {
		t.Fatalf("view missing status:\n%s", view)
	}
}

func TestViewShowsSelectedDescription(t *testing.T) {
	m, _ := newTestModel(t, &fakeVoice{status: domain.StatusReady, enabled: true, supported: true})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(model)

	view := m.View()
	for _, want := range []string{"YouTube", "GitHub", "technology tutorials"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

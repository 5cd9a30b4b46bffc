// Package display provides the terminal card using Bubble Tea.
//
// The [UI] renders the profile as a grid of platform cards with a voice
// status widget underneath. Moving the selection counts as hovering a
// card, enter opens it, and focus changes of the terminal are forwarded
// as visibility changes.
package display

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// ── Styles ───────────────────────────────────────────────────────

var (
	// BannerStyle is muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4e7")).
			Bold(true)

	taglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa")).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3f3f46")).
			Padding(0, 1).
			Width(cardWidth)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8")).
			PaddingLeft(2)

	openedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			PaddingLeft(2)

	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#71717a"))
)

const (
	cardWidth    = 22
	tickInterval = 200 * time.Millisecond
)

// Guide receives the interactions the card produces.
type Guide interface {
	HoverStart(platform string)
	HoverEnd()
	Click(platform string)
	Toggle() bool
	Mute()
	Welcome()
	SetHidden(hidden bool)
}

// Narration is what the status widget polls.
type Narration interface {
	Status() domain.Status
	Enabled() bool
	IsSupported() bool
	QueueLen() int
	Stop()
}

// ── Keys ─────────────────────────────────────────────────────────

type keyMap struct {
	Prev    key.Binding
	Next    key.Binding
	Open    key.Binding
	Toggle  key.Binding
	Mute    key.Binding
	Welcome key.Binding
	Stop    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Open, k.Toggle, k.Mute, k.Welcome, k.Stop, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Prev:    key.NewBinding(key.WithKeys("up", "left", "k", "h", "shift+tab"), key.WithHelp("←/↑", "prev")),
	Next:    key.NewBinding(key.WithKeys("down", "right", "j", "l", "tab"), key.WithHelp("→/↓", "next")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "voice on/off")),
	Mute:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "mute")),
	Welcome: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "welcome")),
	Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
type UI struct {
	links domain.LinkSource
	guide Guide
	voice Narration
	log   *logger.Logger
}

// NewUI creates the display. Call Run to start.
func NewUI(links domain.LinkSource, guide Guide, voice Narration, log *logger.Logger) *UI {
	return &UI{links: links, guide: guide, voice: voice, log: log}
}

// Run starts the Bubble Tea event loop. Blocks until the user quits or
// ctx is done.
func (u *UI) Run(ctx context.Context) error {
	m := newModel(ctx, u.links, u.guide, u.voice)
	program := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	u.log.Debug("display: starting card")
	_, err := program.Run()
	u.log.Debug("display: card closed")
	if err != nil && ctx.Err() != nil {
		// Shutdown by context is a normal exit.
		return nil
	}
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	ctx   context.Context
	links domain.LinkSource
	guide Guide
	voice Narration
	help  help.Model

	profile  domain.Profile
	selected int
	opened   string
	width    int

	status    domain.Status
	enabled   bool
	supported bool
	queued    int
}

type tickMsg time.Time

func newModel(ctx context.Context, links domain.LinkSource, guide Guide, voice Narration) model {
	m := model{
		ctx:   ctx,
		links: links,
		guide: guide,
		voice: voice,
		help:  help.New(),
	}
	m.refresh()
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.SetWindowTitle("VoiceGuide"))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.FocusMsg:
		m.guide.SetHidden(false)
		return m, nil

	case tea.BlurMsg:
		m.guide.SetHidden(true)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		prev := m.status
		m.refresh()
		cmds := []tea.Cmd{tickCmd()}
		if m.status != prev {
			cmds = append(cmds, tea.SetWindowTitle("VoiceGuide · "+m.statusText()))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.guide.HoverEnd()
		return m, tea.Quit

	case key.Matches(msg, keys.Prev):
		m.move(-1)
	case key.Matches(msg, keys.Next):
		m.move(1)

	case key.Matches(msg, keys.Open):
		if link, ok := m.current(); ok {
			m.opened = link.URL
			m.guide.Click(link.Platform)
		}

	case key.Matches(msg, keys.Toggle):
		m.guide.Toggle()
	case key.Matches(msg, keys.Mute):
		m.guide.Mute()
	case key.Matches(msg, keys.Welcome):
		m.guide.Welcome()
	case key.Matches(msg, keys.Stop):
		m.voice.Stop()
	}

	m.pollStatus()
	return m, nil
}

// move shifts the selection and treats it as the pointer leaving one card
// and entering the next.
func (m *model) move(delta int) {
	n := len(m.profile.Links)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
	m.opened = ""

	m.guide.HoverEnd()
	m.guide.HoverStart(m.profile.Links[m.selected].Platform)
}

func (m model) current() (domain.Link, bool) {
	if m.selected < 0 || m.selected >= len(m.profile.Links) {
		return domain.Link{}, false
	}
	return m.profile.Links[m.selected], true
}

// refresh re-reads the profile, which may have been reloaded from disk,
// and polls the status.
func (m *model) refresh() {
	if p, err := m.links.Profile(m.ctx); err == nil {
		m.profile = p
		if m.selected >= len(p.Links) {
			m.selected = 0
		}
	}
	m.pollStatus()
}

func (m *model) pollStatus() {
	m.status = m.voice.Status()
	m.enabled = m.voice.Enabled()
	m.supported = m.voice.IsSupported()
	m.queued = m.voice.QueueLen()
}

// ── Rendering ────────────────────────────────────────────────────

func (m model) View() string {
	var b strings.Builder

	b.WriteString(RenderBanner(m.width))
	b.WriteByte('\n')

	if m.profile.Name != "" {
		b.WriteString(nameStyle.Render("  "+m.profile.Name) + "\n")
	}
	if m.profile.Tagline != "" {
		b.WriteString(taglineStyle.Render("  "+m.profile.Tagline) + "\n")
	}
	b.WriteByte('\n')

	b.WriteString(m.renderGrid())
	b.WriteString("\n\n")

	if link, ok := m.current(); ok {
		width := m.width - 4
		if width <= 0 {
			width = 76
		}
		b.WriteString(descStyle.Render(wordwrap.String(link.Description, width)))
		b.WriteByte('\n')
	}
	if m.opened != "" {
		b.WriteString(openedStyle.Render("Opening "+m.opened) + "\n")
	}
	b.WriteByte('\n')

	b.WriteString("  " + m.renderStatus() + "\n\n")
	b.WriteString("  " + m.help.View(keys))
	return b.String()
}

func (m model) renderGrid() string {
	cols := 3
	if m.width > 0 {
		cols = max(1, (m.width-2)/(cardWidth+4))
	}

	var rows []string
	var row []string
	for i, link := range m.profile.Links {
		row = append(row, m.renderCard(link, i == m.selected))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderCard(link domain.Link, selected bool) string {
	color := lipgloss.Color(link.Color)
	if link.Color == "" {
		color = lipgloss.Color(domain.ColorReady)
	}

	title := lipgloss.NewStyle().Foreground(color).Bold(selected).
		Render(truncate.StringWithTail(link.DisplayName(), cardWidth-2, "…"))
	url := urlStyle.Render(truncate.StringWithTail(link.URL, cardWidth-2, "…"))

	style := cardStyle
	if selected {
		style = style.BorderForeground(color).Border(lipgloss.ThickBorder())
	}
	return style.Render(title + "\n" + url)
}

func (m model) renderStatus() string {
	text := m.statusText()
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(m.statusColor())).Render("● " + text)
	if m.queued > 0 {
		st += statusLabelStyle.Render(fmt.Sprintf("  (%d queued)", m.queued))
	}
	return statusLabelStyle.Render("voice: ") + st
}

func (m model) statusText() string {
	switch {
	case !m.supported:
		return "Not Supported"
	case !m.enabled:
		return "Muted"
	default:
		return string(m.status)
	}
}

func (m model) statusColor() string {
	if !m.supported || !m.enabled {
		return domain.ColorMuted
	}
	return m.status.Color()
}

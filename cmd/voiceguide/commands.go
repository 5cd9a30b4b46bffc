package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hammamikhairi/voiceguide/internal/config"
	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/speech"
)

var (
	sayHigh bool

	sayCmd = &cobra.Command{
		Use:   "say TEXT...",
		Short: "Speak a line and wait for it to finish",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSay,
	}

	platformSearch string

	platformsCmd = &cobra.Command{
		Use:   "platforms",
		Short: "List the links on the card",
		Args:  cobra.NoArgs,
		RunE:  runPlatforms,
	}
)

func init() {
	sayCmd.Flags().BoolVar(&sayHigh, "high", false, "speak with high priority")
	platformsCmd.Flags().StringVarP(&platformSearch, "search", "s", "", "only list links matching the query")
}

func runSay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, logOut, closeLog, err := setupLog(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	tp, shutdown, err := setupTracing(logOut, cfg.Trace)
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, log, tp)
	if err != nil {
		return err
	}
	defer a.Close()

	text := speech.CleanForSpeech(strings.Join(args, " "))
	switch {
	case text == "":
		return errors.New("nothing to say")
	case !a.voice.IsSupported():
		return domain.ErrUnsupported
	case !a.voice.Enabled():
		return errors.New("narration is off")
	}

	priority := domain.PriorityNormal
	if sayHigh {
		priority = domain.PriorityHigh
	}

	return speakAndWait(ctx, a, text, priority)
}

// speakAndWait blocks until the utterance finishes, fails or ctx is done.
func speakAndWait(ctx context.Context, a *app, text string, priority domain.Priority) error {
	statuses := make(chan domain.Status, 8)
	unsubscribe := a.voice.Subscribe(func(s domain.Status) {
		select {
		case statuses <- s:
		default:
		}
	})
	defer unsubscribe()

	a.voice.Speak(text, priority)

	for {
		select {
		case <-ctx.Done():
			a.voice.Stop()
			return ctx.Err()
		case s := <-statuses:
			switch s {
			case domain.StatusReady, domain.StatusStopped:
				return nil
			case domain.StatusError:
				return errors.New("speech failed, see the log for details")
			}
		}
	}
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, _, closeLog, err := setupLog(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	// Listing needs no speech.
	cfg.Speech.Engine = config.EngineNone
	a, err := newApp(cmd.Context(), cfg, log, noop.NewTracerProvider())
	if err != nil {
		return err
	}
	defer a.Close()

	links, err := a.links.List(cmd.Context())
	if platformSearch != "" {
		links, err = a.links.Search(cmd.Context(), platformSearch)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(domain.ColorMuted))
	for _, l := range links {
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(l.Color)).Bold(true).Width(12).Render(l.DisplayName())
		fmt.Fprintf(out, "%s %s\n", name, dim.Render(l.URL))
		fmt.Fprintf(out, "%12s %s\n", "", l.Description)
	}
	if len(links) == 0 {
		fmt.Fprintln(out, "no matching links")
	}
	return nil
}

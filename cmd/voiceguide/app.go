package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/hammamikhairi/voiceguide/internal/announcer"
	"github.com/hammamikhairi/voiceguide/internal/config"
	"github.com/hammamikhairi/voiceguide/internal/display"
	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/guide"
	"github.com/hammamikhairi/voiceguide/internal/logger"
	"github.com/hammamikhairi/voiceguide/internal/profile"
	"github.com/hammamikhairi/voiceguide/internal/speech"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	tracing trace.TracerProvider
	links   *profile.MemorySource
	backend domain.SpeechBackend
	audio   *speech.AudioBackend // nil when speech is unsupported
	voice   *announcer.Announcer
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp builds the link source, the speech pipeline and the announcer.
// Announcement and synthesis spans go to tp.
func newApp(ctx context.Context, cfg config.Config, log *logger.Logger, tp trace.TracerProvider) (*app, error) {
	a := &app{cfg: cfg, log: log, tracing: tp}

	p := profile.Default()
	if cfg.Profile != "" {
		loaded, err := profile.Load(cfg.Profile)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	links, err := profile.NewMemorySource(p, log)
	if err != nil {
		return nil, err
	}
	a.links = links

	a.backend = a.newBackend(ctx)
	a.voice = announcer.New(a.backend, log,
		announcer.WithMaxQueue(cfg.Guide.MaxQueue),
		announcer.WithEnabled(cfg.Voice),
		announcer.WithTracer(tp.Tracer(announcer.ScopeName)),
	)
	unsubscribe := a.voice.Subscribe(func(s domain.Status) {
		log.Debug("voice status: %s", s)
	})
	a.closers = append(a.closers, unsubscribe)

	return a, nil
}

// newBackend picks the synthesizer and audio sink. Anything missing
// degrades to the unsupported backend rather than failing the program.
func (a *app) newBackend(ctx context.Context) domain.SpeechBackend {
	sc := a.cfg.Speech

	synth, err := newSynthesizer(sc, a.log, a.tracing)
	if err != nil {
		a.log.Info("speech disabled: %v", err)
		return speech.NewUnsupported(err.Error(), a.log)
	}

	sink, closeSink, err := newSink(sc, a.log)
	if err != nil {
		a.log.Error("audio output init failed, speech disabled: %v", err)
		return speech.NewUnsupported(err.Error(), a.log)
	}
	a.closers = append(a.closers, closeSink)

	a.audio = speech.NewAudioBackend(ctx, synth, sink, a.log,
		speech.WithChunkSize(sc.ChunkSize),
		speech.WithCacheDir(sc.CacheDir),
		speech.WithDiskWrite(sc.DiskCache),
		speech.WithCacheLimit(sc.CacheMax),
	)
	a.log.Info("speech enabled (engine=%s, voice=%s, audio=%s)", sc.ResolveEngine(), synth.Voice(), sc.Audio)
	return a.audio
}

func newSynthesizer(sc config.SpeechConfig, log *logger.Logger, tp trace.TracerProvider) (speech.Synthesizer, error) {
	switch sc.ResolveEngine() {
	case config.EngineAzure:
		if sc.AzureKey == "" || sc.AzureRegion == "" {
			return nil, fmt.Errorf("set %s and %s to use azure", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		}
		return speech.NewAzureClient(sc.AzureKey, sc.AzureRegion, log,
			speech.WithVoice(sc.Voice),
			speech.WithLanguage(sc.Language),
			speech.WithProsody(sc.Prosody),
			speech.WithHTTPTimeout(sc.Timeout),
			speech.WithAzureTracerProvider(tp),
		), nil
	case config.EngineDeepgram:
		if sc.DeepgramKey == "" {
			return nil, fmt.Errorf("set %s to use deepgram", speech.EnvDeepgramKey)
		}
		return speech.NewDeepgramClient(sc.DeepgramKey, log,
			speech.WithDeepgramModel(sc.Model),
			speech.WithDeepgramTimeout(sc.Timeout),
		), nil
	default:
		return nil, fmt.Errorf("%w: no speech engine configured (set %s/%s or %s)",
			domain.ErrUnsupported, speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion, speech.EnvDeepgramKey)
	}
}

func newSink(sc config.SpeechConfig, log *logger.Logger) (speech.AudioSink, func(), error) {
	if sc.Audio == config.AudioMiniaudio {
		p, err := speech.NewMiniaudioPlayer(sc.Prosody.Volume, log)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	}
	p, err := speech.NewPlayer(sc.Prosody.Volume, log)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {}, nil
}

// prefetch warms the audio cache with every line the card can speak.
func (a *app) prefetch(ctx context.Context, p domain.Profile) {
	if a.audio == nil {
		return
	}
	a.audio.Prefetch(ctx, speech.WelcomeLines(p.Name)...)
	for _, l := range p.Links {
		a.audio.Prefetch(ctx,
			speech.LineDescribe(l.DisplayName(), l.Description),
			speech.LineOpening(l.DisplayName()),
		)
	}
}

// runCard runs the interactive card.
func runCard(cmd *cobra.Command, _ []string) error {
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

	p, _ := a.links.Profile(ctx)
	a.prefetch(ctx, p)

	if cfg.Watch {
		if cfg.Profile == "" {
			return errors.New("--watch needs --profile")
		}
		go func() {
			err := profile.Watch(ctx, cfg.Profile, log, func(p domain.Profile) {
				if err := a.links.Replace(p); err != nil {
					log.Warn("profile reload rejected: %v", err)
					return
				}
				a.prefetch(ctx, p)
			})
			if err != nil {
				log.Error("profile watcher stopped: %v", err)
			}
		}()
	}

	g := guide.New(a.voice, a.links, log,
		guide.WithHoverDwell(cfg.Guide.HoverDwell),
		guide.WithClickDelay(cfg.Guide.ClickDelay),
		guide.WithWelcomeDelay(cfg.Guide.WelcomeDelay),
	)
	g.Start(ctx)
	defer g.Stop()

	ui := display.NewUI(a.links, g, a.voice, log)
	err = ui.Run(ctx)

	a.voice.Stop()
	if a.audio != nil {
		if s := a.audio.Cache().Stats(); s.Hits+s.Misses > 0 {
			log.Info("audio cache: %d hits, %d misses, %d evicted, %s in memory",
				s.Hits, s.Misses, s.Evictions, humanize.Bytes(uint64(s.Bytes)))
		}
	}
	return err
}

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hammamikhairi/voiceguide/internal/announcer"
	"github.com/hammamikhairi/voiceguide/internal/config"
	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
	"github.com/hammamikhairi/voiceguide/internal/speech"
)

func TestNewSynthesizer(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)

	tests := []struct {
		name    string
		cfg     config.SpeechConfig
		voice   string
		wantErr bool
	}{
		{"none", config.SpeechConfig{Engine: config.EngineNone}, "", true},
		{"auto without keys", config.SpeechConfig{Engine: config.EngineAuto}, "", true},
		{"azure without keys", config.SpeechConfig{Engine: config.EngineAzure}, "", true},
		{"azure", config.SpeechConfig{Engine: config.EngineAuto, AzureKey: "k", AzureRegion: "r", Voice: "en-GB-SoniaNeural", Prosody: speech.DefaultProsody}, "en-GB-SoniaNeural", false},
		{"deepgram", config.SpeechConfig{Engine: config.EngineDeepgram, DeepgramKey: "d", Model: "aura-2-orion-en"}, "aura-2-orion-en", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth, err := newSynthesizer(tt.cfg, log, noop.NewTracerProvider())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if synth.Voice() != tt.voice {
				t.Fatalf("expected voice %s, got %s", tt.voice, synth.Voice())
			}
		})
	}

	if _, err := newSynthesizer(config.SpeechConfig{Engine: config.EngineNone}, log, noop.NewTracerProvider()); !errors.Is(err, domain.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

// asyncBackend completes every request shortly after Submit, failing
// when fail is set.
type asyncBackend struct {
	handler domain.CompletionHandler
	fail    error
}

func (b *asyncBackend) Supported() bool { return true }
func (b *asyncBackend) SetCompletionHandler(h domain.CompletionHandler) { b.handler = h }
func (b *asyncBackend) Cancel()                                      {}

func (b *asyncBackend) Submit(req domain.AnnouncementRequest) {
	go func() {
		time.Sleep(5 * time.Millisecond)
		b.handler(req.ID, b.fail)
	}()
}

func testApp(backend domain.SpeechBackend) *app {
	log := logger.New(logger.LevelOff, nil)
	return &app{log: log, backend: backend, voice: announcer.New(backend, log)}
}

func TestSpeakAndWait(t *testing.T) {
	a := testApp(&asyncBackend{})
	if err := speakAndWait(context.Background(), a, "hello", domain.PriorityNormal); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.voice.Status() != domain.StatusReady {
		t.Fatalf("expected Ready, got %s", a.voice.Status())
	}
}

func TestSpeakAndWaitReportsFailure(t *testing.T) {
	a := testApp(&asyncBackend{fail: errors.New("device lost")})
	if err := speakAndWait(context.Background(), a, "hello", domain.PriorityHigh); err == nil {
		t.Fatal("expected error")
	}
}

func TestSpeakAndWaitCanceled(t *testing.T) {
	a := testApp(&neverBackend{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := speakAndWait(ctx, a, "hello", domain.PriorityNormal); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if a.voice.Status() != domain.StatusStopped {
		t.Fatalf("expected Stopped, got %s", a.voice.Status())
	}
}

// neverBackend accepts requests and never finishes them.
type neverBackend struct{}

func (neverBackend) Supported() bool { return true }
func (neverBackend) SetCompletionHandler(domain.CompletionHandler) {}
func (neverBackend) Submit(domain.AnnouncementRequest)          {}
func (neverBackend) Cancel()                                    {}

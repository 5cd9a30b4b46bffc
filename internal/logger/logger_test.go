package logger

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestLevelOffWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelOff, &buf)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	log.Warn("warn %d", 3)
	log.Error("error %d", 4)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestNormalHidesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden line")
	log.Info("visible line %s", "ok")

	out := buf.String()
	if strings.Contains(out, "hidden line") {
		t.Fatalf("debug output leaked at normal level: %q", out)
	}
	if !strings.Contains(out, "visible line ok") {
		t.Fatalf("expected info output, got %q", out)
	}
}

func TestSetLevelVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)
	log.SetLevel(LevelVerbose)

	if log.GetLevel() != LevelVerbose {
		t.Fatalf("expected verbose, got %s", log.GetLevel())
	}

	log.Debug("queue_len=%d", 3)
	if !strings.Contains(buf.String(), "queue_len=3") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off":     LevelOff,
		"quiet":   LevelOff,
		"verbose": LevelVerbose,
		"debug":   LevelVerbose,
		"normal":  LevelNormal,
		"":        LevelNormal,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestExcerptKeepsRunesWhole(t *testing.T) {
	if got := Excerpt("Opening github", 40); got != "Opening github" {
		t.Fatalf("short text must pass through, got %q", got)
	}

	got := Excerpt("Ouvrir la page éééééééééé", 20)
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n > 20 {
		t.Fatalf("expected at most 20 runes, got %d (%q)", n, got)
	}
}

package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

func newDefaultSource(t *testing.T) *MemorySource {
	t.Helper()
	src, err := NewMemorySource(Default(), logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	return src
}

func TestDefaultProfile(t *testing.T) {
	p := Default()
	if len(p.Links) != 12 {
		t.Fatalf("expected 12 links, got %d", len(p.Links))
	}
	if err := Validate(p); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	for _, l := range p.Links {
		if l.Description == "" || l.Color == "" {
			t.Errorf("link %s missing description or colour", l.Platform)
		}
	}
}

func TestMemorySourceGet(t *testing.T) {
	src := newDefaultSource(t)
	ctx := context.Background()

	tests := []struct {
		platform string
		wantErr  error
	}{
		{"github", nil},
		{"GitHub", nil},
		{"myspace", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			l, err := src.Get(ctx, tt.platform)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l.Platform != "github" {
				t.Fatalf("expected github, got %s", l.Platform)
			}
		})
	}
}

func TestMemorySourceListKeepsOrder(t *testing.T) {
	src := newDefaultSource(t)
	links, err := src.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if links[0].Platform != "youtube" || links[len(links)-1].Platform != "blog" {
		t.Fatalf("unexpected order: first=%s last=%s", links[0].Platform, links[len(links)-1].Platform)
	}

	// Callers get a copy.
	links[0].Platform = "changed"
	again, _ := src.List(context.Background())
	if again[0].Platform != "youtube" {
		t.Fatal("List must not expose internal state")
	}
}

func TestMemorySourceSearch(t *testing.T) {
	src := newDefaultSource(t)
	got, err := src.Search(context.Background(), "SOCIAL")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// bluesky, mastodon, threads, facebook mention "social".
	if len(got) != 4 {
		t.Fatalf("expected 4 matches, got %d: %v", len(got), got)
	}
}

func TestMemorySourceReplace(t *testing.T) {
	src := newDefaultSource(t)

	bad := domain.Profile{Links: []domain.Link{{Platform: "a"}, {Platform: "A"}}}
	if err := src.Replace(bad); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if _, err := src.Get(context.Background(), "github"); err != nil {
		t.Fatal("invalid replace must keep the old profile")
	}

	if err := src.Replace(domain.Profile{Name: "Ada", Links: []domain.Link{{Platform: "blog"}}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	p, _ := src.Profile(context.Background())
	if p.Name != "Ada" || len(p.Links) != 1 {
		t.Fatalf("unexpected profile after replace: %+v", p)
	}
	if _, err := src.Get(context.Background(), "github"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected github gone, got %v", err)
	}
}

func TestMemorySourcePaddedPlatform(t *testing.T) {
	src := newDefaultSource(t)

	links := []domain.Link{{Platform: " GitHub ", URL: "https://github.com/ada"}}
	if err := src.Replace(domain.Profile{Links: links}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	for _, key := range []string{"github", " github", "GITHUB"} {
		l, err := src.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("Get(%q): %v", key, err)
		}
		if l.Platform != "GitHub" {
			t.Fatalf("expected trimmed platform, got %q", l.Platform)
		}
	}
	if links[0].Platform != " GitHub " {
		t.Fatal("Replace must not modify the caller's links")
	}

	dup := domain.Profile{Links: []domain.Link{{Platform: "blog"}, {Platform: " Blog"}}}
	if err := src.Replace(dup); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected padded duplicate rejected, got %v", err)
	}
}

const sampleYAML = `
name: Ada
tagline: Engines and notes
links:
  - platform: github
    label: GitHub
    url: https://github.com/ada
    description: Code & experiments.
    color: "#6e5494"
  - platform: blog
    description: Long-form notes.
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Name != "Ada" || len(p.Links) != 2 {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.Links[1].DisplayName() != "blog" {
		t.Fatalf("expected platform fallback label, got %q", p.Links[1].DisplayName())
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing platform": "links:\n  - label: Nothing\n",
		"not yaml":         "links: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); !errors.Is(err, domain.ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("links:\n  - platform: blog\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Profile, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, logger.New(logger.LevelOff, nil), func(p domain.Profile) {
			select {
			case got <- p:
			default:
			}
		})
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	// A write may surface as several events; wait for the full content.
	timeout := time.After(3 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case p := <-got:
			reloaded = p.Name == "Ada"
		case <-timeout:
			t.Fatal("timed out waiting for reload")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch returned %v", err)
	}
}

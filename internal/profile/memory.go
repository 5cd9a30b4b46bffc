package profile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ domain.LinkSource = (*MemorySource)(nil)

// MemorySource holds a profile in memory. Safe for concurrent use; Replace
// swaps the whole profile atomically.
type MemorySource struct {
	mu      sync.RWMutex
	profile domain.Profile
	index   map[string]int // lower-cased platform -> position in Links
	log     *logger.Logger
}

// NewMemorySource creates a source serving p. p must be valid.
func NewMemorySource(p domain.Profile, log *logger.Logger) (*MemorySource, error) {
	s := &MemorySource{log: log}
	if err := s.Replace(p); err != nil {
		return nil, err
	}
	return s, nil
}

// Profile returns a copy of the whole profile.
func (s *MemorySource) Profile(ctx context.Context) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.profile
	p.Links = append([]domain.Link(nil), s.profile.Links...)
	return p, nil
}

// List returns the links in display order.
func (s *MemorySource) List(ctx context.Context) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing links, count=%d", len(s.profile.Links))
	return append([]domain.Link(nil), s.profile.Links...), nil
}

// Get returns a link by platform key, case-insensitively.
func (s *MemorySource) Get(ctx context.Context, platform string) (domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[platformKey(platform)]
	if !ok {
		s.log.Debug("link not found: %s", platform)
		return domain.Link{}, domain.ErrNotFound
	}
	return s.profile.Links[i], nil
}

// Search returns links whose platform, label or description contain query.
func (s *MemorySource) Search(ctx context.Context, query string) ([]domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	s.log.Debug("searching links for: %s", q)

	var out []domain.Link
	for _, l := range s.profile.Links {
		if matches(l, q) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Replace swaps in a new profile. The old one is kept if p is invalid.
func (s *MemorySource) Replace(p domain.Profile) error {
	if err := Validate(p); err != nil {
		return err
	}

	p.Links = append([]domain.Link(nil), p.Links...)
	index := make(map[string]int, len(p.Links))
	for i := range p.Links {
		p.Links[i].Platform = strings.TrimSpace(p.Links[i].Platform)
		index[platformKey(p.Links[i].Platform)] = i
	}

	s.mu.Lock()
	s.profile = p
	s.index = index
	s.mu.Unlock()

	s.log.Info("profile loaded: %d links", len(p.Links))
	return nil
}

// Validate checks that every link has a platform key and that keys are
// unique, ignoring case.
func Validate(p domain.Profile) error {
	seen := make(map[string]bool, len(p.Links))
	for i, l := range p.Links {
		key := platformKey(l.Platform)
		if key == "" {
			return fmt.Errorf("%w: link %d has no platform", domain.ErrInvalidProfile, i)
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate platform %q", domain.ErrInvalidProfile, l.Platform)
		}
		seen[key] = true
	}
	return nil
}

// platformKey is how links are indexed: trimmed and lower-cased.
func platformKey(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func matches(l domain.Link, query string) bool {
	for _, field := range []string{l.Platform, l.Label, l.Description} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/voiceguide/internal/domain"
	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Load reads and validates a YAML profile file.
func Load(path string) (domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("reading profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (domain.Profile, error) {
	var p domain.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", domain.ErrInvalidProfile, err)
	}
	if err := Validate(p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// Watch reloads path whenever it is written or re-created and hands the new
// profile to fn. Invalid files are logged and skipped. Blocks until ctx is
// done.
//
// The parent directory is watched rather than the file so editors that
// save by rename keep triggering reloads.
func Watch(ctx context.Context, path string, log *logger.Logger, fn func(domain.Profile)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log.Info("watching profile %s", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			p, err := Load(abs)
			if err != nil {
				log.Warn("profile reload skipped: %v", err)
				continue
			}
			log.Debug("profile reloaded from %s", abs)
			fn(p)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Error("profile watcher: %v", err)
		}
	}
}

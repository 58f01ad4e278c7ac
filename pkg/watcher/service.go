// Package watcher polls inbox directories for new survey files.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultExtensions are the file types picked up when none are configured.
var DefaultExtensions = []string{".txt", ".shp"}

// Service monitors multiple directories for new files.
type Service struct {
	paths       []string
	exts        []string
	lastChecked time.Time
	mu          sync.Mutex
	seen        map[string]time.Time
}

// NewService creates a new monitor for the given directories. Only files
// whose extension is in exts (case-insensitive) are reported; an empty exts
// selects DefaultExtensions. Files already present are ignored.
func NewService(paths, exts []string) *Service {
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			slog.Warn("Watcher: inbox directory does not exist", "path", path)
		}
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}

	return &Service{
		paths:       paths,
		exts:        lower,
		lastChecked: time.Now(),
		seen:        make(map[string]time.Time),
	}
}

func (s *Service) matches(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// CheckNew returns every matching file created or modified since the last
// check, oldest first. A file is reported again only if it is modified again.
func (s *Service) CheckNew() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	type found struct {
		path string
		mod  time.Time
	}
	var files []found
	newest := s.lastChecked

	for _, dir := range s.paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !s.matches(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			mod := info.ModTime()
			full := filepath.Join(dir, entry.Name())
			if mod.Before(s.lastChecked) {
				continue
			}
			if prev, ok := s.seen[full]; ok && !mod.After(prev) {
				continue
			}
			s.seen[full] = mod
			files = append(files, found{path: full, mod: mod})
			if mod.After(newest) {
				newest = mod
			}
		}
	}
	s.lastChecked = newest

	sort.Slice(files, func(i, j int) bool {
		if files[i].mod.Equal(files[j].mod) {
			return files[i].path < files[j].path
		}
		return files[i].mod.Before(files[j].mod)
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out
}

// Run polls every interval until ctx is done and calls handle for each new
// file. Errors from handle are logged; polling continues.
func (s *Service) Run(ctx context.Context, interval time.Duration, handle func(ctx context.Context, path string) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range s.CheckNew() {
				slog.Info("Watcher: new survey file detected", "file", path)
				if err := handle(ctx, path); err != nil {
					slog.Error("Watcher: failed to process file", "file", path, "error", err)
				}
			}
		}
	}
}

package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc re-reads the configuration and applies the parts that can
// change at runtime.
type ReloadFunc func(ctx context.Context) error

// Service watches the configuration file and calls its ReloadFunc after the
// file changes. Editors that save by rename are handled by watching the
// parent directory. When fsnotify does not work for the directory the
// service falls back to polling the file's modification time.
type Service struct {
	path         string
	reload       ReloadFunc
	logger       *slog.Logger
	debounce     time.Duration
	pollInterval time.Duration
	probeTimeout time.Duration
	forcePoll    bool
}

// NewService creates a config file watcher.
func NewService(path string, reload ReloadFunc, logger *slog.Logger) *Service {
	return &Service{
		path:         filepath.Clean(path),
		reload:       reload,
		logger:       logger.With(slog.String("component", "config-watcher")),
		debounce:     500 * time.Millisecond,
		pollInterval: 30 * time.Second,
		probeTimeout: 2 * time.Second,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (s *Service) SetDebounce(d time.Duration) {
	s.debounce = d
}

// SetPolling forces mtime polling at the given interval (for testing and
// for mounts where the probe gives a false positive).
func (s *Service) SetPolling(interval time.Duration) {
	s.forcePoll = true
	s.pollInterval = interval
}

// Start blocks until ctx is canceled.
func (s *Service) Start(ctx context.Context) {
	dir := filepath.Dir(s.path)

	var w *fsnotify.Watcher
	if !s.forcePoll && ProbeFSNotify(dir, s.probeTimeout) {
		var err error
		w, err = fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(dir)
		}
		if err != nil {
			s.logger.Warn("fsnotify unavailable, polling config file", slog.String("error", err.Error()))
			if w != nil {
				w.Close() //nolint:errcheck
				w = nil
			}
		}
	}

	// Nil channels never receive, which disables the unused source.
	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	var pollCh <-chan time.Time
	if w != nil {
		defer w.Close() //nolint:errcheck
		eventCh = w.Events
		errCh = w.Errors
		s.logger.Info("watching config file", slog.String("path", s.path))
	} else {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		pollCh = ticker.C
		s.logger.Info("polling config file",
			slog.String("path", s.path),
			slog.Duration("interval", s.pollInterval))
	}

	lastMod := s.modTime()

	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	pending := false
	schedule := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(s.debounce)
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("config watcher stopping")
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if s.relevant(ev) {
				schedule()
			}

		case err, ok := <-errCh:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", slog.String("error", err.Error()))

		case <-pollCh:
			if mod := s.modTime(); !mod.Equal(lastMod) {
				lastMod = mod
				schedule()
			}

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			if err := s.reload(ctx); err != nil {
				s.logger.Error("config reload failed, keeping previous settings",
					slog.String("path", s.path),
					slog.String("error", err.Error()))
				continue
			}
			s.logger.Info("config reloaded", slog.String("path", s.path))
		}
	}
}

func (s *Service) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != s.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (s *Service) modTime() time.Time {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/gemini-token-dashboard/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watcher reloads the configuration when its .env file changes.
type Watcher struct {
	mu            sync.Mutex
	path          string
	overrides     Overrides
	watcher       *fsnotify.Watcher
	updates       chan *Config
	stopChan      chan struct{}
	debounceTimer *time.Timer
	closed        bool
}

// NewWatcher starts watching cfg.EnvFile. It returns nil when the
// configuration did not come from a file.
func NewWatcher(cfg *Config, o Overrides) (*Watcher, error) {
	if cfg == nil || cfg.EnvFile == "" {
		return nil, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are still seen.
	if err := fsw.Add(filepath.Dir(cfg.EnvFile)); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.EnvFile, err)
	}

	o.EnvFile = cfg.EnvFile
	w := &Watcher{
		path:      cfg.EnvFile,
		overrides: o,
		watcher:   fsw,
		updates:   make(chan *Config, 1),
		stopChan:  make(chan struct{}),
	}

	go w.watchLoop()
	return w, nil
}

// Updates delivers each successfully reloaded configuration.
func (w *Watcher) Updates() <-chan *Config {
	return w.updates
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.overrides)
	if err != nil {
		logger.Warn("ignoring invalid configuration change", "path", w.path, "error", err)
		return
	}
	logger.Info("configuration reloaded", "path", w.path, "api", cfg.APIBaseURL)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	// Only the newest configuration matters.
	select {
	case w.updates <- cfg:
	default:
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- cfg:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	close(w.updates)
	w.mu.Unlock()

	return w.watcher.Close()
}

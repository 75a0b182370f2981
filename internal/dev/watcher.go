package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeTemplate ChangeType = iota
	ChangeData
	ChangeConfig
	ChangeOther
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTemplate:
		return "template"
	case ChangeData:
		return "data"
	case ChangeConfig:
		return "config"
	}
	return "other"
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Files are the files to watch. Missing files are picked up once they
	// appear.
	Files []string

	// Interval is the polling interval (default 100ms).
	Interval time.Duration
}

// Watcher polls a fixed set of files for modifications.
type Watcher struct {
	config     WatcherConfig
	onChange   func(Change)
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
	timestamps map[string]time.Time
}

// NewWatcher creates a new file watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval == 0 {
		config.Interval = 100 * time.Millisecond
	}
	return &Watcher{
		config:     config,
		timestamps: make(map[string]time.Time),
	}
}

// OnChange sets the callback for file changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.scan(false)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.scan(true)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// scan records modification times and reports files that changed since
// the previous scan. Deleted files are not reported.
func (w *Watcher) scan(report bool) {
	w.mu.Lock()
	callback := w.onChange
	var changes []Change
	for _, p := range w.config.Files {
		info, err := os.Stat(p)
		if err != nil {
			delete(w.timestamps, p)
			continue
		}
		last, seen := w.timestamps[p]
		if seen && !info.ModTime().After(last) {
			continue
		}
		w.timestamps[p] = info.ModTime()
		changes = append(changes, Change{Path: p, Type: classifyChange(p)})
	}
	w.mu.Unlock()

	if !report || callback == nil {
		return
	}
	for _, c := range changes {
		callback(c)
	}
}

// classifyChange determines the type of change based on file name.
func classifyChange(path string) ChangeType {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, "stencil.") {
		return ChangeConfig
	}
	switch filepath.Ext(name) {
	case ".html", ".htm", ".tmpl":
		return ChangeTemplate
	case ".json", ".yaml", ".yml":
		return ChangeData
	}
	return ChangeOther
}

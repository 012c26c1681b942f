package config

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// stamp identifies one version of a file. The hash filters out touches that
// change the modification time but not the content.
type stamp struct {
	mtime time.Time
	sum   [sha256.Size]byte
}

// readStamped returns the content of path with its stamp.
func readStamped(path string) ([]byte, stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, stamp{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stamp{}, err
	}
	return data, stamp{mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}

// Watcher polls the config file, and the story file it names, for edits.
// A valid config edit is reported through the change callback; an invalid
// one is logged and the last good config stays current. Story edits cannot
// be applied to a running play-through and are only reported.
type Watcher struct {
	path          string
	interval      time.Duration
	onChange      func(old, new *Config)
	onStoryChange func(path string)

	mu      sync.Mutex
	current *Config
	conf    stamp
	story   stamp

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets the polling interval. Default: 5s.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithStoryChange registers fn to be called with the story file path when
// its content changes.
func WithStoryChange(fn func(path string)) WatcherOption {
	return func(w *Watcher) { w.onStoryChange = fn }
}

// NewWatcher loads path and starts polling it in the background.
func NewWatcher(path string, onChange func(old, new *Config), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		interval: 5 * time.Second,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	data, st, err := readStamped(path)
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current, w.conf = cfg, st
	w.story = storyStamp(cfg)

	go w.poll()
	return w, nil
}

func storyStamp(cfg *Config) stamp {
	if cfg.Story.File == "" {
		return stamp{}
	}
	_, st, err := readStamped(cfg.Story.File)
	if err != nil {
		return stamp{}
	}
	return st
}

// Current returns the last valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop ends polling. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.checkConfig()
			w.checkStory()
		}
	}
}

func (w *Watcher) checkConfig() {
	info, err := os.Stat(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot stat file", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	seen := info.ModTime().Equal(w.conf.mtime)
	w.mu.Unlock()
	if seen {
		return
	}

	data, st, err := readStamped(w.path)
	if err != nil {
		slog.Warn("config watcher: cannot read file", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	sameContent := st.sum == w.conf.sum
	w.conf.mtime = st.mtime
	w.mu.Unlock()
	if sameContent {
		return
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Warn("config watcher: keeping previous config", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	old := w.current
	w.current, w.conf = cfg, st
	w.mu.Unlock()

	slog.Info("config watcher: configuration reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

func (w *Watcher) checkStory() {
	w.mu.Lock()
	path := w.current.Story.File
	prev := w.story
	w.mu.Unlock()
	if path == "" {
		return
	}
	_, st, err := readStamped(path)
	if err != nil || st.sum == prev.sum {
		return
	}
	w.mu.Lock()
	w.story = st
	w.mu.Unlock()

	slog.Info("config watcher: story file changed", "path", path)
	if w.onStoryChange != nil {
		w.onStoryChange(path)
	}
}

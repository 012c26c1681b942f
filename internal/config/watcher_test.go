package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrWong99/storytrail/internal/config"
)

func writeConfig(t *testing.T, path, body string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReportsChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storytrail.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, "server: {log_level: info}\n", base)

	changed := make(chan config.ConfigDiff, 1)
	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		changed <- config.Diff(old, new)
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "server: {log_level: debug}\n", base.Add(time.Minute))

	select {
	case d := <-changed:
		if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
			t.Fatalf("diff = %+v, want log level change to debug", d)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
	if got := w.Current().Server.LogLevel; got != config.LogDebug {
		t.Fatalf("Current().Server.LogLevel = %q, want debug", got)
	}
}

func TestWatcher_IgnoresInvalidEdit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "storytrail.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, path, "server: {log_level: warn}\n", base)

	called := make(chan struct{}, 1)
	w, err := config.NewWatcher(path, func(_, _ *config.Config) { called <- struct{}{} },
		config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, "server: {log_level: shouting}\n", base.Add(time.Minute))
	select {
	case <-called:
		t.Fatal("onChange called for invalid config")
	case <-time.After(100 * time.Millisecond):
	}
	if got := w.Current().Server.LogLevel; got != config.LogWarn {
		t.Fatalf("Current().Server.LogLevel = %q, want warn", got)
	}
}

func TestWatcher_ReportsStoryChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	storyPath := filepath.Join(dir, "story.yaml")
	base := time.Now().Add(-time.Hour)
	writeConfig(t, storyPath, "beats:\n  - prompt: A\n    answer: end\n", base)
	path := filepath.Join(dir, "storytrail.yaml")
	writeConfig(t, path, "story: {file: "+storyPath+"}\n", base)

	changed := make(chan string, 1)
	w, err := config.NewWatcher(path, nil,
		config.WithInterval(10*time.Millisecond),
		config.WithStoryChange(func(p string) { changed <- p }),
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	writeConfig(t, storyPath, "beats:\n  - prompt: B\n    answer: end\n", base.Add(time.Minute))
	select {
	case got := <-changed:
		if got != storyPath {
			t.Fatalf("story change path = %q, want %q", got, storyPath)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no story change reported")
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()
	old := &config.Config{}
	old.ApplyDefaults()
	same := *old
	if d := config.Diff(old, &same); d.LogLevelChanged || len(d.RestartRequired) != 0 {
		t.Fatalf("Diff(equal) = %+v, want no changes", d)
	}

	changed := *old
	changed.Story.ChildAge = 6
	changed.Providers.TTS.Name = "coqui"
	d := config.Diff(old, &changed)
	if d.LogLevelChanged {
		t.Errorf("LogLevelChanged = true, want false")
	}
	if len(d.RestartRequired) != 2 || d.RestartRequired[0] != "story" || d.RestartRequired[1] != "providers" {
		t.Errorf("RestartRequired = %v, want [story providers]", d.RestartRequired)
	}
}

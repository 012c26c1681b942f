package execplayer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew_MissingExecutable(t *testing.T) {
	t.Parallel()
	if _, err := New([]string{"definitely-not-a-player-binary"}); err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestPlay_AppendsPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	p, err := New([]string{"sh", "-c", `printf '%s' "$1" > "` + out + `"`, "player"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Play(context.Background(), "/tmp/clip.mp3"); err != nil {
		t.Fatalf("Play: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "/tmp/clip.mp3" {
		t.Errorf("player received %q", got)
	}
}

func TestPlay_ExitCode(t *testing.T) {
	t.Parallel()
	p, err := New([]string{"sh", "-c", "exit 3", "player"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = p.Play(context.Background(), "clip.mp3")
	if err == nil || !strings.Contains(err.Error(), "exited with 3") {
		t.Fatalf("err = %v", err)
	}
}

func TestPlay_Cancel(t *testing.T) {
	t.Parallel()
	p, err := New([]string{"sleep"})
	if err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Play(ctx, "10")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Play did not stop on cancellation")
	}
}

package story_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/storytrail/pkg/story"
)

const sampleStory = `
title: "Tiny"
beats:
  - prompt: "A"
  - prompt: "B"
    answer: l
  - prompt: "C"
    answer: end
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()
	s, title, err := story.LoadFromReader(strings.NewReader(sampleStory))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if title != "Tiny" {
		t.Errorf("title = %q, want Tiny", title)
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	b, _ := s.BeatAt(1)
	if b.Kind != story.KindChoice || b.Answer != story.AnswerLeft {
		t.Errorf("beat 1 = %+v, want left choice", b)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, _, err := story.LoadFromReader(strings.NewReader("beats:\n  - prompt: A\n    colour: red\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_BadAnswer(t *testing.T) {
	t.Parallel()
	_, _, err := story.LoadFromReader(strings.NewReader("beats:\n  - prompt: A\n    answer: up\n"))
	if !errors.Is(err, story.ErrInvalidAnswer) {
		t.Fatalf("err = %v, want ErrInvalidAnswer", err)
	}
	if !strings.Contains(err.Error(), "beats[0]") {
		t.Errorf("error should name the beat, got: %v", err)
	}
}

func TestLoadFromReader_NoBeats(t *testing.T) {
	t.Parallel()
	_, _, err := story.LoadFromReader(strings.NewReader("title: empty\n"))
	if !errors.Is(err, story.ErrEmptyScript) {
		t.Fatalf("err = %v, want ErrEmptyScript", err)
	}
}

func TestEncode_RoundTripsBuiltin(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := story.Encode(&buf, story.BuiltinTitle, story.Builtin()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	s, title, err := story.LoadFromReader(&buf)
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if title != story.BuiltinTitle {
		t.Errorf("title = %q", title)
	}
	want := story.Builtin().Beats()
	got := s.Beats()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("beat %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadFile_Shipped(t *testing.T) {
	t.Parallel()
	s, title, err := story.LoadFile(filepath.Join("..", "..", "stories", "lollipops.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if title == "" || s.Len() != 9 {
		t.Errorf("title = %q, len = %d", title, s.Len())
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	_, _, err := story.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

package story_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/storytrail/pkg/story"
)

func TestNew_Empty(t *testing.T) {
	t.Parallel()
	if _, err := story.New(nil); !errors.Is(err, story.ErrEmptyScript) {
		t.Fatalf("err = %v, want ErrEmptyScript", err)
	}
}

func TestNew_EmptyPrompt(t *testing.T) {
	t.Parallel()
	_, err := story.New([]story.Beat{story.Scene("A"), story.Scene("  ")})
	if !errors.Is(err, story.ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
}

func TestNew_ChoiceWithoutAnswer(t *testing.T) {
	t.Parallel()
	_, err := story.New([]story.Beat{{Prompt: "A", Kind: story.KindChoice}})
	if !errors.Is(err, story.ErrInvalidAnswer) {
		t.Fatalf("err = %v, want ErrInvalidAnswer", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	t.Parallel()
	beats := []story.Beat{story.Scene("A"), story.Terminal("B")}
	s := story.MustNew(beats)
	beats[0].Prompt = "changed"

	b, err := s.BeatAt(0)
	if err != nil {
		t.Fatalf("BeatAt: %v", err)
	}
	if b.Prompt != "A" {
		t.Errorf("prompt = %q, want %q", b.Prompt, "A")
	}
}

func TestBeatAt_OutOfRange(t *testing.T) {
	t.Parallel()
	s := story.MustNew([]story.Beat{story.Scene("A")})
	for _, i := range []int{-1, 1, 42} {
		if _, err := s.BeatAt(i); !errors.Is(err, story.ErrOutOfRange) {
			t.Errorf("BeatAt(%d) err = %v, want ErrOutOfRange", i, err)
		}
		if _, err := s.Classify(i); !errors.Is(err, story.ErrOutOfRange) {
			t.Errorf("Classify(%d) err = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestClassify_ChoiceIffAnswer(t *testing.T) {
	t.Parallel()
	s := story.MustNew([]story.Beat{
		story.Scene("A"),
		story.Choice("B", story.AnswerLeft),
		story.Choice("C", story.AnswerRight),
		story.Terminal("D"),
	})
	for i := 0; i < s.Len(); i++ {
		b, _ := s.BeatAt(i)
		kind, err := s.Classify(i)
		if err != nil {
			t.Fatalf("Classify(%d): %v", i, err)
		}
		wantChoice := b.Answer != story.AnswerNone
		if (kind == story.KindChoice) != wantChoice {
			t.Errorf("Classify(%d) = %v, answer = %v", i, kind, b.Answer)
		}
	}
	if k, _ := s.Classify(s.LastIndex()); k != story.KindScene {
		t.Errorf("terminal beat classified as %v, want scene", k)
	}
}

func TestImageKey_StableAndDistinct(t *testing.T) {
	t.Parallel()
	a1 := story.Scene("a whale").ImageKey()
	a2 := story.Choice("a whale", story.AnswerLeft).ImageKey()
	b := story.Scene("a unicorn").ImageKey()

	if a1 != a2 {
		t.Errorf("same prompt produced different keys: %q vs %q", a1, a2)
	}
	if a1 == b {
		t.Errorf("different prompts produced the same key %q", a1)
	}
	// md5("hello")
	if got := story.KeyFor("hello"); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Errorf("KeyFor(hello) = %q", got)
	}
}

func TestParseAnswer(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw        string
		wantKind   story.Kind
		wantAnswer story.Answer
		wantErr    bool
	}{
		{"", story.KindScene, story.AnswerNone, false},
		{"l", story.KindChoice, story.AnswerLeft, false},
		{"R", story.KindChoice, story.AnswerRight, false},
		{" left ", story.KindChoice, story.AnswerLeft, false},
		{"end", story.KindTerminal, story.AnswerNone, false},
		{"up", story.KindScene, story.AnswerNone, true},
	}
	for _, tt := range tests {
		kind, answer, err := story.ParseAnswer(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAnswer(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if kind != tt.wantKind || answer != tt.wantAnswer {
			t.Errorf("ParseAnswer(%q) = (%v, %v), want (%v, %v)", tt.raw, kind, answer, tt.wantKind, tt.wantAnswer)
		}
	}
}

func TestBuiltin(t *testing.T) {
	t.Parallel()
	s := story.Builtin()
	if s.Len() != 9 {
		t.Fatalf("Len = %d, want 9", s.Len())
	}
	last, _ := s.BeatAt(s.LastIndex())
	if last.Kind != story.KindTerminal {
		t.Errorf("last beat kind = %v, want terminal", last.Kind)
	}
}

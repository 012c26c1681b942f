package story

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrOutOfRange is returned when a script is indexed outside its bounds.
	ErrOutOfRange = errors.New("story: index out of range")

	// ErrEmptyScript is returned by [New] when no beats are supplied.
	ErrEmptyScript = errors.New("story: script must contain at least one beat")

	// ErrEmptyPrompt is returned by [New] when a beat has no prompt text.
	ErrEmptyPrompt = errors.New("story: beat prompt must not be empty")
)

// Script is an ordered, read-only sequence of beats. The zero value is not
// usable; construct scripts with [New]. A Script is never mutated after
// construction and is safe for concurrent reads.
type Script struct {
	beats []Beat
}

// New validates beats and returns a Script holding a private copy of them.
func New(beats []Beat) (*Script, error) {
	if len(beats) == 0 {
		return nil, ErrEmptyScript
	}
	var errs []error
	for i, b := range beats {
		if strings.TrimSpace(b.Prompt) == "" {
			errs = append(errs, fmt.Errorf("%w: beat %d", ErrEmptyPrompt, i))
		}
		if b.Kind == KindChoice && b.Answer == AnswerNone {
			errs = append(errs, fmt.Errorf("%w: beat %d is a choice without an answer", ErrInvalidAnswer, i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	cp := make([]Beat, len(beats))
	copy(cp, beats)
	return &Script{beats: cp}, nil
}

// MustNew is like [New] but panics on error. Intended for static content.
func MustNew(beats []Beat) *Script {
	s, err := New(beats)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of beats.
func (s *Script) Len() int {
	return len(s.beats)
}

// LastIndex returns the index of the final (win) beat.
func (s *Script) LastIndex() int {
	return len(s.beats) - 1
}

// BeatAt returns the beat at position i.
func (s *Script) BeatAt(i int) (Beat, error) {
	if i < 0 || i >= len(s.beats) {
		return Beat{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(s.beats))
	}
	return s.beats[i], nil
}

// Classify reports whether the beat at position i is presented as a scene or
// a choice. A beat is a choice exactly when it has a correct answer; the
// terminal marker is presented as a scene.
func (s *Script) Classify(i int) (Kind, error) {
	b, err := s.BeatAt(i)
	if err != nil {
		return KindScene, err
	}
	if b.Answer == AnswerNone {
		return KindScene, nil
	}
	return KindChoice, nil
}

// Beats returns a copy of all beats in order.
func (s *Script) Beats() []Beat {
	cp := make([]Beat, len(s.beats))
	copy(cp, s.beats)
	return cp
}

// Prompts returns the prompt text of every beat in order.
func (s *Script) Prompts() []string {
	out := make([]string, len(s.beats))
	for i, b := range s.beats {
		out[i] = b.Prompt
	}
	return out
}

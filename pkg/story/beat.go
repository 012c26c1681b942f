// Package story defines the immutable content model of a play-through: an
// ordered [Script] of [Beat] values loaded once at startup.
//
// A Beat is either a scene the child simply reads, a choice point with a
// correct answer (left or right), or the terminal marker on the last beat.
// Every beat carries a stable [ImageKey] derived from its prompt text so that
// illustration and narration caches can deduplicate by content.
package story

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAnswer is returned by [ParseAnswer] for unknown answer tags.
var ErrInvalidAnswer = errors.New("story: invalid answer tag")

// Kind classifies a beat.
type Kind int

const (
	// KindScene is a beat without a question; the child continues.
	KindScene Kind = iota

	// KindChoice asks the child to pick left or right.
	KindChoice

	// KindTerminal marks the final beat of a script.
	KindTerminal
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScene:
		return "scene"
	case KindChoice:
		return "choice"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Answer is the expected direction at a choice beat.
type Answer int

const (
	AnswerNone Answer = iota
	AnswerLeft
	AnswerRight
)

// String returns "none", "left" or "right".
func (a Answer) String() string {
	switch a {
	case AnswerLeft:
		return "left"
	case AnswerRight:
		return "right"
	default:
		return "none"
	}
}

// ImageKey identifies the illustration for a prompt. It is the lower-case hex
// MD5 digest of the prompt text, so identical prompts share one key.
type ImageKey string

// Fingerprint returns the content fingerprint of text. The same text always
// yields the same fingerprint.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// KeyFor returns the [ImageKey] for prompt.
func KeyFor(prompt string) ImageKey {
	return ImageKey(Fingerprint(prompt))
}

// Beat is one node of the story.
type Beat struct {
	// Prompt is the display and narration text. Never empty in a valid script.
	Prompt string

	// Kind is derived from the answer tag in the content.
	Kind Kind

	// Answer is the correct direction; only meaningful when Kind is KindChoice.
	Answer Answer
}

// Scene returns a scene beat.
func Scene(prompt string) Beat {
	return Beat{Prompt: prompt, Kind: KindScene}
}

// Choice returns a choice beat whose correct answer is answer.
func Choice(prompt string, answer Answer) Beat {
	return Beat{Prompt: prompt, Kind: KindChoice, Answer: answer}
}

// Terminal returns the closing beat of a script.
func Terminal(prompt string) Beat {
	return Beat{Prompt: prompt, Kind: KindTerminal}
}

// ImageKey returns the illustration key for the beat's prompt.
func (b Beat) ImageKey() ImageKey {
	return KeyFor(b.Prompt)
}

// ParseAnswer maps a content answer tag to a beat kind and answer:
// "" is a scene, "l"/"r" (or "left"/"right") a choice and "end" the terminal
// marker. Matching ignores case and surrounding whitespace.
func ParseAnswer(raw string) (Kind, Answer, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return KindScene, AnswerNone, nil
	case "l", "left":
		return KindChoice, AnswerLeft, nil
	case "r", "right":
		return KindChoice, AnswerRight, nil
	case "end":
		return KindTerminal, AnswerNone, nil
	}
	return KindScene, AnswerNone, fmt.Errorf("%w: %q", ErrInvalidAnswer, raw)
}

// Tag is the inverse of [ParseAnswer] and returns the short content tag.
func (b Beat) Tag() string {
	switch {
	case b.Kind == KindTerminal:
		return "end"
	case b.Answer == AnswerLeft:
		return "l"
	case b.Answer == AnswerRight:
		return "r"
	default:
		return ""
	}
}

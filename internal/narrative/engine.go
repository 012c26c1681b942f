// Package narrative implements the story state machine.
//
// The [Engine] is a pure transition function over an explicit [State] value:
// [Engine.Advance] consumes one input [Event] and returns the next state plus a
// [RenderEffect] describing what must be shown and narrated. The engine never
// performs I/O and keeps no state between calls; the driver loop owns the
// State and executes the effects.
//
// Advance is not safe for concurrent use on the same State, but an Engine may
// be shared because it only reads its immutable script.
package narrative

import (
	"errors"
	"fmt"

	"github.com/MrWong99/storytrail/pkg/story"
)

// ErrInvalidPosition is returned by [Engine.Advance] when the state's position
// lies outside the script. It signals a caller or content bug.
var ErrInvalidPosition = errors.New("narrative: invalid position")

// State is the mutable state of a single play-through.
type State struct {
	// Position indexes the current beat in the script.
	Position int

	// Mode is the current high-level state.
	Mode Mode

	// LastNarrated is the fingerprint of the last narrated text.
	LastNarrated string
}

// Engine advances play-throughs of one script.
type Engine struct {
	script *story.Script
}

// New returns an Engine for script. script must be non-nil.
func New(script *story.Script) *Engine {
	return &Engine{script: script}
}

// Script returns the script the engine plays.
func (e *Engine) Script() *story.Script {
	return e.script
}

// Start returns the initial state of a play-through together with the effect
// for the intro screen.
func (e *Engine) Start() (State, RenderEffect) {
	s, eff, _ := e.effectFor(State{Position: 0, Mode: ModeIntro})
	return s, eff
}

// Advance applies ev to s and returns the resulting state and render effect.
// Events that make no sense in the current mode lead to [ModeHelp] without
// moving the position. Advance is deterministic: equal inputs always produce
// equal outputs.
func (e *Engine) Advance(s State, ev Event) (State, RenderEffect, error) {
	if s.Position < 0 || s.Position >= e.script.Len() {
		return s, RenderEffect{}, fmt.Errorf("%w: %d: %w", ErrInvalidPosition, s.Position, story.ErrOutOfRange)
	}
	next, err := e.transition(s, ev)
	if err != nil {
		return s, RenderEffect{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	out, eff, err := e.effectFor(next)
	if err != nil {
		return s, RenderEffect{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return out, eff, nil
}

func (e *Engine) transition(s State, ev Event) (State, error) {
	next := s

	switch ev {
	case EventQuit:
		if !s.Mode.Done() {
			next.Mode = ModeQuit
		}
		return next, nil
	case EventWindowClose:
		if !s.Mode.Done() {
			next.Mode = ModeClosed
		}
		return next, nil
	}

	switch s.Mode {
	case ModeWin, ModeQuit, ModeClosed:
		return s, nil

	case ModeIntro:
		if ev == EventContinue {
			return e.presentAt(next, 0)
		}

	case ModeScene:
		if ev == EventContinue {
			if s.Position >= e.script.LastIndex() {
				next.Mode = ModeWin
				return next, nil
			}
			return e.presentAt(next, s.Position+1)
		}

	case ModeChoice:
		if ev == EventChooseLeft || ev == EventChooseRight {
			b, err := e.script.BeatAt(s.Position)
			if err != nil {
				return s, err
			}
			if chosen(ev) == b.Answer {
				next.Mode = ModeCorrect
				return next, nil
			}
			next.Mode = ModeIncorrect
			next.Position = 0
			return next, nil
		}

	case ModeCorrect:
		if ev == EventContinue {
			if s.Position >= e.script.LastIndex() {
				next.Mode = ModeWin
				return next, nil
			}
			return e.presentAt(next, s.Position+1)
		}

	case ModeIncorrect, ModeHelp:
		if ev == EventContinue {
			return e.presentAt(next, s.Position)
		}
	}

	next.Mode = ModeHelp
	return next, nil
}

// presentAt moves s to position and into the scene or choice mode for the
// beat found there.
func (e *Engine) presentAt(s State, position int) (State, error) {
	kind, err := e.script.Classify(position)
	if err != nil {
		return s, err
	}
	s.Position = position
	if kind == story.KindChoice {
		s.Mode = ModeChoice
	} else {
		s.Mode = ModeScene
	}
	return s, nil
}

func chosen(ev Event) story.Answer {
	switch ev {
	case EventChooseLeft:
		return story.AnswerLeft
	case EventChooseRight:
		return story.AnswerRight
	}
	return story.AnswerNone
}

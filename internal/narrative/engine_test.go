package narrative_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/storytrail/internal/narrative"
	"github.com/MrWong99/storytrail/pkg/story"
)

func abcScript() *story.Script {
	return story.MustNew([]story.Beat{
		story.Scene("A"),
		story.Choice("B", story.AnswerLeft),
		story.Terminal("C"),
	})
}

func mustAdvance(t *testing.T, e *narrative.Engine, s narrative.State, ev narrative.Event) (narrative.State, narrative.RenderEffect) {
	t.Helper()
	next, eff, err := e.Advance(s, ev)
	if err != nil {
		t.Fatalf("Advance(%+v, %v): %v", s, ev, err)
	}
	return next, eff
}

func TestStart(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s, eff := e.Start()
	if s.Mode != narrative.ModeIntro || s.Position != 0 {
		t.Fatalf("start state = %+v, want intro at 0", s)
	}
	if eff.Text != narrative.IntroText {
		t.Errorf("text = %q", eff.Text)
	}
	if !eff.ShouldNarrate {
		t.Error("intro should be narrated")
	}
	if eff.HasImage() {
		t.Error("intro should not show an image")
	}
}

func TestAdvance_Scenario(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s, _ := e.Start()

	steps := []struct {
		ev      narrative.Event
		wantM   narrative.Mode
		wantPos int
	}{
		{narrative.EventContinue, narrative.ModeScene, 0},
		{narrative.EventContinue, narrative.ModeChoice, 1},
		{narrative.EventChooseRight, narrative.ModeIncorrect, 0},
		{narrative.EventContinue, narrative.ModeScene, 0},
		{narrative.EventContinue, narrative.ModeChoice, 1},
		{narrative.EventChooseLeft, narrative.ModeCorrect, 1},
		{narrative.EventContinue, narrative.ModeScene, 2},
		{narrative.EventContinue, narrative.ModeWin, 2},
		{narrative.EventContinue, narrative.ModeWin, 2},
		{narrative.EventQuit, narrative.ModeQuit, 2},
	}
	for i, step := range steps {
		s, _ = mustAdvance(t, e, s, step.ev)
		if s.Mode != step.wantM || s.Position != step.wantPos {
			t.Fatalf("step %d (%v): got %v at %d, want %v at %d",
				i, step.ev, s.Mode, s.Position, step.wantM, step.wantPos)
		}
	}
}

func TestAdvance_SceneAndChoiceEffects(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s, _ := e.Start()

	s, eff := mustAdvance(t, e, s, narrative.EventContinue)
	if eff.Text != "A\nPress c to continue..." {
		t.Errorf("scene text = %q", eff.Text)
	}
	if eff.Image != story.KeyFor("A") {
		t.Errorf("scene image = %q, want key of A", eff.Image)
	}

	_, eff = mustAdvance(t, e, s, narrative.EventContinue)
	if eff.Text != "B\nPress l for left or r for right..." {
		t.Errorf("choice text = %q", eff.Text)
	}
	if eff.Image != story.KeyFor("B") {
		t.Errorf("choice image = %q, want key of B", eff.Image)
	}
	if eff.Mode != narrative.ModeChoice {
		t.Errorf("effect mode = %v", eff.Mode)
	}
}

func TestAdvance_IncorrectResetsFromAnyPosition(t *testing.T) {
	t.Parallel()
	beats := []story.Beat{
		story.Choice("one", story.AnswerLeft),
		story.Choice("two", story.AnswerRight),
		story.Scene("three"),
		story.Choice("four", story.AnswerLeft),
		story.Choice("five", story.AnswerRight),
		story.Terminal("end"),
	}
	script := story.MustNew(beats)
	e := narrative.New(script)

	for p, b := range beats {
		if b.Kind != story.KindChoice {
			continue
		}
		wrong := narrative.EventChooseLeft
		if b.Answer == story.AnswerLeft {
			wrong = narrative.EventChooseRight
		}
		next, eff, err := e.Advance(narrative.State{Position: p, Mode: narrative.ModeChoice}, wrong)
		if err != nil {
			t.Fatalf("position %d: %v", p, err)
		}
		if next.Position != 0 || next.Mode != narrative.ModeIncorrect {
			t.Errorf("position %d: got %v at %d, want incorrect at 0", p, next.Mode, next.Position)
		}
		if eff.Text != narrative.IncorrectText || eff.HasImage() {
			t.Errorf("position %d: effect = %+v", p, eff)
		}
	}
}

func TestAdvance_CorrectKeepsPosition(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	next, _ := mustAdvance(t, e, narrative.State{Position: 1, Mode: narrative.ModeChoice}, narrative.EventChooseLeft)
	if next.Mode != narrative.ModeCorrect || next.Position != 1 {
		t.Fatalf("got %v at %d, want correct at 1", next.Mode, next.Position)
	}
}

func TestAdvance_TerminalWinFromLastChoice(t *testing.T) {
	t.Parallel()
	script := story.MustNew([]story.Beat{
		story.Scene("A"),
		story.Choice("Z", story.AnswerRight),
	})
	e := narrative.New(script)

	s, _ := mustAdvance(t, e, narrative.State{Position: 1, Mode: narrative.ModeChoice}, narrative.EventChooseRight)
	if s.Mode != narrative.ModeCorrect {
		t.Fatalf("mode = %v, want correct", s.Mode)
	}
	s, eff := mustAdvance(t, e, s, narrative.EventContinue)
	if s.Mode != narrative.ModeWin || s.Position != 1 {
		t.Fatalf("got %v at %d, want win at 1", s.Mode, s.Position)
	}
	if eff.Text != "Z\nPress q to quit..." || eff.Image != story.KeyFor("Z") {
		t.Errorf("win effect = %+v", eff)
	}
}

func TestAdvance_HelpFallback(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())

	tests := []struct {
		name string
		from narrative.State
		ev   narrative.Event
	}{
		{"choose in scene", narrative.State{Position: 0, Mode: narrative.ModeScene}, narrative.EventChooseLeft},
		{"choose in intro", narrative.State{Position: 0, Mode: narrative.ModeIntro}, narrative.EventChooseRight},
		{"continue in choice", narrative.State{Position: 1, Mode: narrative.ModeChoice}, narrative.EventContinue},
		{"choose in correct", narrative.State{Position: 1, Mode: narrative.ModeCorrect}, narrative.EventChooseLeft},
		{"choose in incorrect", narrative.State{Position: 0, Mode: narrative.ModeIncorrect}, narrative.EventChooseRight},
		{"choose in help", narrative.State{Position: 1, Mode: narrative.ModeHelp}, narrative.EventChooseLeft},
		{"request help in choice", narrative.State{Position: 1, Mode: narrative.ModeChoice}, narrative.EventRequestHelp},
		{"unknown event", narrative.State{Position: 0, Mode: narrative.ModeScene}, narrative.Event(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next, eff := mustAdvance(t, e, tt.from, tt.ev)
			if next.Mode != narrative.ModeHelp {
				t.Errorf("mode = %v, want help", next.Mode)
			}
			if next.Position != tt.from.Position {
				t.Errorf("position = %d, want %d", next.Position, tt.from.Position)
			}
			if eff.Text != narrative.HelpText {
				t.Errorf("text = %q", eff.Text)
			}
		})
	}
}

func TestAdvance_HelpContinueReturnsToBeat(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s, _ := mustAdvance(t, e, narrative.State{Position: 1, Mode: narrative.ModeHelp}, narrative.EventContinue)
	if s.Mode != narrative.ModeChoice || s.Position != 1 {
		t.Fatalf("got %v at %d, want choice at 1", s.Mode, s.Position)
	}
}

func TestAdvance_QuitAndWindowClose(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	for _, m := range []narrative.Mode{
		narrative.ModeIntro, narrative.ModeScene, narrative.ModeChoice, narrative.ModeCorrect,
		narrative.ModeIncorrect, narrative.ModeHelp, narrative.ModeWin,
	} {
		from := narrative.State{Position: 0, Mode: m}
		if m == narrative.ModeChoice || m == narrative.ModeCorrect {
			from.Position = 1
		}

		q, qeff := mustAdvance(t, e, from, narrative.EventQuit)
		if q.Mode != narrative.ModeQuit || q.Position != from.Position {
			t.Errorf("%v + quit = %v at %d", m, q.Mode, q.Position)
		}
		if qeff.Text != narrative.QuitText || !qeff.ShouldNarrate {
			t.Errorf("%v + quit effect = %+v", m, qeff)
		}

		c, ceff := mustAdvance(t, e, from, narrative.EventWindowClose)
		if c.Mode != narrative.ModeClosed {
			t.Errorf("%v + window close = %v", m, c.Mode)
		}
		if ceff.Text != "" || ceff.ShouldNarrate || ceff.HasImage() {
			t.Errorf("%v + window close effect = %+v, want empty", m, ceff)
		}
	}
}

func TestAdvance_DoneModesAreAbsorbing(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	events := []narrative.Event{
		narrative.EventContinue, narrative.EventChooseLeft, narrative.EventChooseRight,
		narrative.EventRequestHelp, narrative.EventQuit, narrative.EventWindowClose,
	}
	for _, m := range []narrative.Mode{narrative.ModeQuit, narrative.ModeClosed} {
		for _, ev := range events {
			from := narrative.State{Position: 1, Mode: m}
			next, _ := mustAdvance(t, e, from, ev)
			if next.Mode != m || next.Position != 1 {
				t.Errorf("%v + %v = %v at %d", m, ev, next.Mode, next.Position)
			}
		}
	}
}

func TestAdvance_NoRepeatNarration(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s := narrative.State{Position: 0, Mode: narrative.ModeScene}

	s, first := mustAdvance(t, e, s, narrative.EventRequestHelp)
	if !first.ShouldNarrate {
		t.Fatal("first help screen should narrate")
	}
	_, second := mustAdvance(t, e, s, narrative.EventRequestHelp)
	if second.Text != first.Text {
		t.Fatalf("texts differ: %q vs %q", first.Text, second.Text)
	}
	if second.ShouldNarrate {
		t.Error("repeated text should not narrate again")
	}
}

func TestAdvance_WinRepeatDoesNotNarrate(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	s, eff := mustAdvance(t, e, narrative.State{Position: 2, Mode: narrative.ModeScene}, narrative.EventContinue)
	if s.Mode != narrative.ModeWin || !eff.ShouldNarrate {
		t.Fatalf("got %v, narrate=%v", s.Mode, eff.ShouldNarrate)
	}
	_, eff = mustAdvance(t, e, s, narrative.EventContinue)
	if eff.ShouldNarrate {
		t.Error("win re-render should not narrate again")
	}
}

func TestAdvance_Pure(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	states := []narrative.State{
		{Position: 0, Mode: narrative.ModeIntro},
		{Position: 1, Mode: narrative.ModeChoice},
		{Position: 1, Mode: narrative.ModeChoice, LastNarrated: story.Fingerprint(narrative.HelpText)},
		{Position: 2, Mode: narrative.ModeCorrect},
	}
	events := []narrative.Event{
		narrative.EventContinue, narrative.EventChooseLeft, narrative.EventChooseRight,
		narrative.EventRequestHelp, narrative.EventQuit, narrative.EventWindowClose,
	}
	for _, s := range states {
		for _, ev := range events {
			s1, e1, err1 := e.Advance(s, ev)
			s2, e2, err2 := e.Advance(s, ev)
			if s1 != s2 || e1 != e2 || (err1 == nil) != (err2 == nil) {
				t.Errorf("Advance(%+v, %v) not deterministic: (%+v, %+v) vs (%+v, %+v)", s, ev, s1, e1, s2, e2)
			}
		}
	}
}

func TestAdvance_InvalidPosition(t *testing.T) {
	t.Parallel()
	e := narrative.New(abcScript())
	for _, p := range []int{-1, 3, 100} {
		_, _, err := e.Advance(narrative.State{Position: p, Mode: narrative.ModeScene}, narrative.EventContinue)
		if !errors.Is(err, narrative.ErrInvalidPosition) {
			t.Errorf("position %d: err = %v, want ErrInvalidPosition", p, err)
		}
		if !errors.Is(err, story.ErrOutOfRange) {
			t.Errorf("position %d: err = %v, should wrap ErrOutOfRange", p, err)
		}
	}
}

func TestAdvance_SingleBeatScript(t *testing.T) {
	t.Parallel()
	e := narrative.New(story.MustNew([]story.Beat{story.Terminal("only")}))
	s, _ := e.Start()
	s, _ = mustAdvance(t, e, s, narrative.EventContinue)
	if s.Mode != narrative.ModeScene || s.Position != 0 {
		t.Fatalf("got %v at %d", s.Mode, s.Position)
	}
	s, _ = mustAdvance(t, e, s, narrative.EventContinue)
	if s.Mode != narrative.ModeWin || s.Position != 0 {
		t.Fatalf("got %v at %d, want win at 0", s.Mode, s.Position)
	}
}

func TestMode_TerminalAndDone(t *testing.T) {
	t.Parallel()
	for _, m := range []narrative.Mode{narrative.ModeWin, narrative.ModeQuit, narrative.ModeClosed} {
		if !m.Terminal() {
			t.Errorf("%v should be terminal", m)
		}
	}
	if narrative.ModeWin.Done() {
		t.Error("win should not end the driver loop")
	}
	if narrative.ModeChoice.Terminal() {
		t.Error("choice should not be terminal")
	}
}

package narrative

import "github.com/MrWong99/storytrail/pkg/story"

// Screen texts. Beat prompts are followed by a key hint on a new line.
const (
	IntroText     = "Hi, welcome to the best game in the world!\nPress c to continue..."
	CorrectText   = "Correct! How will you remember the right answer?\nPress c to continue..."
	IncorrectText = "Wrong! You go all the way back to the start!\nPress c to continue..."
	HelpText      = "Please press l for left, r for right or press q to quit!\nPress c to continue..."
	QuitText      = "Thanks for playing! Goodbye."

	sceneHint  = "\nPress c to continue..."
	choiceHint = "\nPress l for left or r for right..."
	winHint    = "\nPress q to quit..."
)

// RenderEffect describes what the driver should show and say after a
// transition. It carries no behaviour; the driver performs all I/O.
type RenderEffect struct {
	// Mode is the mode being rendered.
	Mode Mode

	// Text is the text to display. Empty for [ModeClosed].
	Text string

	// Image is the illustration to show behind the text. Empty means none.
	Image story.ImageKey

	// ShouldNarrate is false when Text was already narrated by the previous
	// effect.
	ShouldNarrate bool
}

// HasImage reports whether the effect carries an illustration.
func (e RenderEffect) HasImage() bool {
	return e.Image != ""
}

// describe builds the text and image for mode at position. The beat lookup
// only happens for modes that show a beat.
func (e *Engine) describe(mode Mode, position int) (string, story.ImageKey, error) {
	switch mode {
	case ModeIntro:
		return IntroText, "", nil
	case ModeCorrect:
		return CorrectText, "", nil
	case ModeIncorrect:
		return IncorrectText, "", nil
	case ModeHelp:
		return HelpText, "", nil
	case ModeQuit:
		return QuitText, "", nil
	case ModeClosed:
		return "", "", nil
	case ModeScene, ModeChoice:
		b, err := e.script.BeatAt(position)
		if err != nil {
			return "", "", err
		}
		hint := sceneHint
		if mode == ModeChoice {
			hint = choiceHint
		}
		return b.Prompt + hint, b.ImageKey(), nil
	case ModeWin:
		b, err := e.script.BeatAt(e.script.LastIndex())
		if err != nil {
			return "", "", err
		}
		return b.Prompt + winHint, b.ImageKey(), nil
	}
	return "", "", nil
}

// effectFor completes next with the render effect for its mode and updates
// the narration fingerprint.
func (e *Engine) effectFor(next State) (State, RenderEffect, error) {
	text, img, err := e.describe(next.Mode, next.Position)
	if err != nil {
		return State{}, RenderEffect{}, err
	}
	eff := RenderEffect{Mode: next.Mode, Text: text, Image: img}
	if text != "" {
		fp := story.Fingerprint(text)
		if fp != next.LastNarrated {
			eff.ShouldNarrate = true
			next.LastNarrated = fp
		}
	}
	return next, eff, nil
}

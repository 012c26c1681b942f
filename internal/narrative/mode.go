package narrative

// Mode is the engine's high-level state.
type Mode int

const (
	ModeIntro Mode = iota
	ModeScene
	ModeChoice
	ModeCorrect
	ModeIncorrect
	ModeHelp
	ModeWin
	ModeQuit

	// ModeClosed is reached through [EventWindowClose]. Unlike ModeQuit it
	// renders nothing and narrates nothing.
	ModeClosed
)

// String returns the lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIntro:
		return "intro"
	case ModeScene:
		return "scene"
	case ModeChoice:
		return "choice"
	case ModeCorrect:
		return "correct"
	case ModeIncorrect:
		return "incorrect"
	case ModeHelp:
		return "help"
	case ModeWin:
		return "win"
	case ModeQuit:
		return "quit"
	case ModeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no event can move the play-through forward any
// more. Win still accepts Quit and WindowClose.
func (m Mode) Terminal() bool {
	return m == ModeWin || m == ModeQuit || m == ModeClosed
}

// Done reports whether the driver loop should stop.
func (m Mode) Done() bool {
	return m == ModeQuit || m == ModeClosed
}

// Event is an input fed to [Engine.Advance].
type Event int

const (
	EventContinue Event = iota
	EventChooseLeft
	EventChooseRight
	EventRequestHelp
	EventQuit
	EventWindowClose
)

// String returns the lower-case name of the event.
func (e Event) String() string {
	switch e {
	case EventContinue:
		return "continue"
	case EventChooseLeft:
		return "choose_left"
	case EventChooseRight:
		return "choose_right"
	case EventRequestHelp:
		return "help"
	case EventQuit:
		return "quit"
	case EventWindowClose:
		return "window_close"
	default:
		return "unknown"
	}
}

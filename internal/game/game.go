// Package game drives one play-through: it renders each effect produced by
// the narrative engine, starts its narration, waits for the next input event
// and feeds it back into the engine until the player quits or closes the
// window.
package game

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MrWong99/storytrail/internal/narrative"
	"github.com/MrWong99/storytrail/internal/observe"
	"github.com/MrWong99/storytrail/internal/render"
	"github.com/MrWong99/storytrail/pkg/story"
)

// ImageSource produces illustrations for beat prompts.
type ImageSource interface {
	// EnsureImage makes sure an illustration for prompt exists and returns
	// its key. Repeated calls for one prompt are cheap.
	EnsureImage(ctx context.Context, prompt string) (story.ImageKey, error)

	// Path returns the file holding the illustration for key.
	Path(key story.ImageKey) string
}

// Narrator speaks texts in the background.
type Narrator interface {
	// Narrate starts speaking text, interrupting any current narration.
	Narrate(ctx context.Context, text string)

	// Stop interrupts the current narration.
	Stop()
}

// InputSource yields player events.
type InputSource interface {
	Next(ctx context.Context) (narrative.Event, error)
}

// Renderer shows frames.
type Renderer interface {
	Render(ctx context.Context, f render.Frame) error
}

// Option configures a [Game].
type Option func(*Game)

// WithImages enables illustrations. Without it every screen is text only.
func WithImages(src ImageSource) Option {
	return func(g *Game) { g.images = src }
}

// WithNarrator enables narration. Without it the game is silent.
func WithNarrator(n Narrator) Option {
	return func(g *Game) { g.narrator = n }
}

// WithLineWidth sets the word-wrap width. Default: [render.DefaultWidth].
func WithLineWidth(w int) Option {
	return func(g *Game) { g.width = w }
}

// WithMetrics records transitions, restarts and active play-throughs on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Game) { g.metrics = m }
}

// Game runs play-throughs of one engine's script.
type Game struct {
	engine   *narrative.Engine
	input    InputSource
	renderer Renderer
	images   ImageSource
	narrator Narrator
	width    int
	metrics  *observe.Metrics
	prompts  map[story.ImageKey]string
}

// New returns a [Game] reading events from in and showing frames on out.
func New(engine *narrative.Engine, in InputSource, out Renderer, opts ...Option) *Game {
	g := &Game{
		engine:   engine,
		input:    in,
		renderer: out,
		width:    render.DefaultWidth,
		prompts:  make(map[story.ImageKey]string),
	}
	for _, o := range opts {
		o(g)
	}
	for _, b := range engine.Script().Beats() {
		g.prompts[b.ImageKey()] = b.Prompt
	}
	return g
}

// Result summarises a finished play-through.
type Result struct {
	// Final is the state the play-through ended in.
	Final narrative.State

	// Steps is the number of events consumed.
	Steps int

	// Restarts counts wrong answers.
	Restarts int

	// Won reports whether the last beat was reached.
	Won bool
}

// Play runs one play-through until the engine reaches a mode where the game
// is over. It returns early with ctx's error when ctx is done, or with an
// error wrapping [narrative.ErrInvalidPosition] when the engine rejects the
// state.
func (g *Game) Play(ctx context.Context) (Result, error) {
	if g.metrics != nil {
		g.metrics.ActivePlays.Add(ctx, 1)
		defer g.metrics.ActivePlays.Add(context.WithoutCancel(ctx), -1)
	}

	st, eff := g.engine.Start()
	var res Result
	for {
		res.Final = st
		if err := g.show(ctx, st, eff); err != nil {
			return res, err
		}
		if st.Mode.Done() {
			slog.Info("play-through finished", "mode", st.Mode, "steps", res.Steps, "restarts", res.Restarts)
			return res, nil
		}

		ev, err := g.input.Next(ctx)
		if err != nil {
			return res, fmt.Errorf("game: next event: %w", err)
		}
		if g.narrator != nil {
			g.narrator.Stop()
		}
		res.Steps++

		next, nextEff, err := g.engine.Advance(st, ev)
		if err != nil {
			slog.Error("engine rejected state", "position", st.Position, "mode", st.Mode, "event", ev, "err", err)
			return res, fmt.Errorf("game: advance: %w", err)
		}
		slog.Debug("transition", "event", ev, "from", st.Mode, "mode", next.Mode, "position", next.Position)
		if next.Mode == narrative.ModeIncorrect {
			res.Restarts++
			if g.metrics != nil {
				g.metrics.Restarts.Add(ctx, 1)
			}
		}
		if next.Mode == narrative.ModeWin {
			res.Won = true
		}
		if g.metrics != nil {
			g.metrics.RecordTransition(ctx, ev.String(), next.Mode.String())
		}
		st, eff = next, nextEff
	}
}

// show executes one render effect. Missing illustrations and narration
// failures degrade the screen; only renderer errors are returned.
func (g *Game) show(ctx context.Context, st narrative.State, eff narrative.RenderEffect) error {
	if eff.Mode == narrative.ModeClosed {
		return nil
	}
	frame := render.Frame{
		Mode:  eff.Mode.String(),
		Lines: render.Wrap(eff.Text, g.width),
	}
	if eff.HasImage() && g.images != nil {
		frame.ImagePath = g.imagePath(ctx, eff.Image)
	}
	if err := g.renderer.Render(ctx, frame); err != nil {
		return fmt.Errorf("game: render %s at %d: %w", eff.Mode, st.Position, err)
	}
	if eff.ShouldNarrate && g.narrator != nil {
		g.narrator.Narrate(ctx, eff.Text)
	}
	return nil
}

func (g *Game) imagePath(ctx context.Context, want story.ImageKey) string {
	prompt, ok := g.prompts[want]
	if !ok {
		slog.Warn("no prompt for illustration", "key", want)
		return ""
	}
	key, err := g.images.EnsureImage(ctx, prompt)
	if err != nil {
		slog.Warn("showing screen without illustration", "key", want, "err", err)
		return ""
	}
	return g.images.Path(key)
}

// Package app wires the storytrail subsystems into a running application.
//
// The App struct owns the full lifecycle: New loads the script and connects
// the providers, caches and front end, Run plays the story, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithScript, WithInput,
// WithRenderer, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/MrWong99/storytrail/internal/config"
	"github.com/MrWong99/storytrail/internal/discord"
	"github.com/MrWong99/storytrail/internal/game"
	"github.com/MrWong99/storytrail/internal/health"
	"github.com/MrWong99/storytrail/internal/history"
	"github.com/MrWong99/storytrail/internal/imagecache"
	"github.com/MrWong99/storytrail/internal/input"
	"github.com/MrWong99/storytrail/internal/narration"
	"github.com/MrWong99/storytrail/internal/narrative"
	"github.com/MrWong99/storytrail/internal/observe"
	"github.com/MrWong99/storytrail/internal/render"
	"github.com/MrWong99/storytrail/internal/resilience"
	"github.com/MrWong99/storytrail/pkg/audio"
	"github.com/MrWong99/storytrail/pkg/provider/image"
	"github.com/MrWong99/storytrail/pkg/provider/tts"
	"github.com/MrWong99/storytrail/pkg/story"
)

// goodbyeWait bounds how long Run lets the final narration play.
const goodbyeWait = 5 * time.Second

// Providers holds the provider chains built by main.go via the config
// registry. The first entry of each chain is the primary. An empty chain
// disables the feature.
type Providers struct {
	Image  []config.Named[image.Provider]
	TTS    []config.Named[tts.Provider]
	Player audio.Player
}

// App owns all subsystem lifetimes and runs play-throughs.
type App struct {
	cfg       *config.Config
	providers *Providers
	metrics   *observe.Metrics

	script   *story.Script
	title    string
	engine   *narrative.Engine
	imageFB  *resilience.ImageFallback
	ttsFB    *resilience.TTSFallback
	images   *imagecache.Cache
	narrator *narration.Narrator
	input    game.InputSource
	output   game.Renderer
	game     *game.Game
	history  *history.FileStore
	headless bool

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithScript plays s instead of loading the configured story.
func WithScript(s *story.Script, title string) Option {
	return func(a *App) {
		a.script = s
		a.title = title
	}
}

// WithInput injects the event source instead of the configured front end.
func WithInput(in game.InputSource) Option {
	return func(a *App) { a.input = in }
}

// WithRenderer injects the renderer instead of the configured front end.
func WithRenderer(r game.Renderer) Option {
	return func(a *App) { a.output = r }
}

// WithHeadless skips the front end. A headless App can pre-generate
// illustrations but not play.
func WithHeadless() Option {
	return func(a *App) { a.headless = true }
}

// WithMetrics records on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers come
// from main.go (populated via the config registry); nil providers disable
// illustrations, narration and playback.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	ready := false
	defer func() {
		if !ready {
			a.runClosers()
		}
	}()

	if err := a.initScript(); err != nil {
		return nil, fmt.Errorf("app: init script: %w", err)
	}
	a.engine = narrative.New(a.script)

	if err := a.initImages(); err != nil {
		return nil, fmt.Errorf("app: init images: %w", err)
	}
	if err := a.initNarration(); err != nil {
		return nil, fmt.Errorf("app: init narration: %w", err)
	}
	if err := a.initFrontend(ctx); err != nil {
		return nil, fmt.Errorf("app: init frontend: %w", err)
	}

	gameOpts := []game.Option{
		game.WithLineWidth(cfg.Story.LineWidth),
		game.WithMetrics(a.metrics),
	}
	if a.images != nil {
		gameOpts = append(gameOpts, game.WithImages(a.images))
	}
	if a.narrator != nil {
		gameOpts = append(gameOpts, game.WithNarrator(a.narrator))
	}
	a.game = game.New(a.engine, a.input, a.output, gameOpts...)
	if cfg.Cache.HistoryFile != "" {
		a.history = history.NewFileStore(cfg.Cache.HistoryFile)
	}

	slog.Info("app initialised",
		"story", a.title,
		"beats", a.script.Len(),
		"images", a.images != nil,
		"narration", a.narrator != nil,
		"frontend", cfg.Frontend.Kind,
	)
	ready = true
	return a, nil
}

func (a *App) initScript() error {
	if a.script != nil {
		return nil
	}
	if a.cfg.Story.File == "" {
		a.script, a.title = story.Builtin(), story.BuiltinTitle
		return nil
	}
	s, title, err := story.LoadFile(a.cfg.Story.File)
	if err != nil {
		return err
	}
	a.script, a.title = s, title
	return nil
}

func (a *App) initImages() error {
	chain := a.providers.Image
	if len(chain) == 0 {
		slog.Warn("no image provider configured, screens will have no illustrations")
		return nil
	}
	a.imageFB = resilience.NewImageFallback(chain[0].Provider, chain[0].Name, fallbackConfig("image"))
	for _, n := range chain[1:] {
		a.imageFB.AddFallback(n.Name, n.Provider)
	}
	c, err := imagecache.New(a.cfg.Cache.ImageDir, a.imageFB,
		imagecache.WithChildAge(a.cfg.Story.ChildAge),
		imagecache.WithMetrics(a.metrics),
		imagecache.WithProviderName(chain[0].Name),
	)
	if err != nil {
		return err
	}
	a.images = c
	return nil
}

func (a *App) initNarration() error {
	chain := a.providers.TTS
	if len(chain) == 0 {
		slog.Warn("no tts provider configured, the story will not be read aloud")
		return nil
	}
	a.ttsFB = resilience.NewTTSFallback(chain[0].Provider, chain[0].Name, fallbackConfig("tts"))
	for _, n := range chain[1:] {
		a.ttsFB.AddFallback(n.Name, n.Provider)
	}
	if a.providers.Player == nil {
		slog.Warn("no audio player available, narration clips are cached but not played")
	}
	n, err := narration.New(a.cfg.Cache.SoundDir, a.ttsFB, a.providers.Player,
		narration.WithVoice(tts.Voice{
			ID:       a.cfg.Narration.Voice,
			Language: a.cfg.Narration.Language,
			Speed:    a.cfg.Narration.Speed,
		}),
		narration.WithMetrics(a.metrics),
		narration.WithProviderName(chain[0].Name),
	)
	if err != nil {
		return err
	}
	a.narrator = n
	a.closers = append(a.closers, n.Close)
	return nil
}

func (a *App) initFrontend(ctx context.Context) error {
	if a.headless || (a.input != nil && a.output != nil) {
		return nil
	}
	parser := input.NewParser()
	switch a.cfg.Frontend.Kind {
	case config.FrontendDiscord:
		bot, err := discord.New(ctx, a.cfg.Frontend.Discord, parser)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, bot.Close)
		if a.input == nil {
			a.input = bot
		}
		if a.output == nil {
			a.output = bot
		}
	default:
		if a.input == nil {
			term := input.NewTerminal(os.Stdin, parser)
			a.closers = append(a.closers, term.Close)
			a.input = term
		}
		if a.output == nil {
			a.output = render.NewTerminal(os.Stdout, render.WithClearScreen(true))
		}
	}
	return nil
}

// runClosers releases whatever New acquired before failing.
func (a *App) runClosers() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			slog.Debug("closer error during failed init", "err", err)
		}
	}
}

// fallbackConfig returns the breaker settings shared by the provider chains.
// State changes are logged so an operator can see a provider being skipped.
func fallbackConfig(kind string) resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			OnStateChange: func(name string, from, to resilience.State) {
				slog.Warn("provider circuit breaker changed state",
					"kind", kind, "provider", name, "from", from, "to", to)
			},
		},
	}
}

// Script returns the script being played.
func (a *App) Script() *story.Script { return a.script }

// Images returns the illustration cache, or nil when illustrations are off.
func (a *App) Images() *imagecache.Cache { return a.images }

// Narrator returns the narrator, or nil when narration is off.
func (a *App) Narrator() *narration.Narrator { return a.narrator }

// Checkers returns readiness checks for the caches and provider chains.
func (a *App) Checkers() []health.Checker {
	var out []health.Checker
	if a.images != nil {
		out = append(out,
			health.WritableDir("image_cache", a.images.Dir()),
			health.AnyAvailable("image_providers", breakerStates(a.imageFB.Group()), resilience.StateOpen.String()),
		)
	}
	if a.narrator != nil {
		out = append(out,
			health.WritableDir("sound_cache", a.cfg.Cache.SoundDir),
			health.AnyAvailable("tts_providers", breakerStates(a.ttsFB.Group()), resilience.StateOpen.String()),
		)
	}
	return out
}

func breakerStates[T any](fg *resilience.FallbackGroup[T]) func() map[string]string {
	return func() map[string]string {
		states := fg.States()
		out := make(map[string]string, len(states))
		for name, st := range states {
			out[name] = st.String()
		}
		return out
	}
}

// Pregenerate makes sure every illustration of the script is on disk. It
// returns zero stats when illustrations are off.
func (a *App) Pregenerate(ctx context.Context) (imagecache.Stats, error) {
	if a.images == nil {
		return imagecache.Stats{}, nil
	}
	start := time.Now()
	stats, err := a.images.Pregenerate(ctx, a.script.Prompts(), a.cfg.Cache.PregenerateWorkers)
	slog.Info("illustrations ready",
		"generated", stats.Generated,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return stats, err
}

// Run warms the illustration cache in the background and plays one
// play-through. It returns when the player quits, closes the window, or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) (game.Result, error) {
	if a.headless {
		return game.Result{}, errors.New("app: run: no front end in headless mode")
	}
	pregenCtx, cancelPregen := context.WithCancel(ctx)
	pregenDone := make(chan struct{})
	go func() {
		defer close(pregenDone)
		if _, err := a.Pregenerate(pregenCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("background illustration generation incomplete", "err", err)
		}
	}()
	defer func() {
		cancelPregen()
		<-pregenDone
	}()

	start := time.Now()
	res, err := a.game.Play(ctx)
	if err != nil {
		return res, err
	}
	a.recordHistory(res, time.Since(start))

	if a.narrator != nil && res.Final.Mode == narrative.ModeQuit {
		waitCtx, cancel := context.WithTimeout(ctx, goodbyeWait)
		defer cancel()
		if err := a.narrator.Wait(waitCtx); err != nil {
			slog.Debug("goodbye narration cut short", "err", err)
		}
	}
	return res, nil
}

func (a *App) recordHistory(res game.Result, elapsed time.Duration) {
	if a.history == nil {
		return
	}
	err := a.history.Save(history.Record{
		Story:    a.title,
		Frontend: string(a.cfg.Frontend.Kind),
		Outcome:  res.Final.Mode.String(),
		Won:      res.Won,
		Steps:    res.Steps,
		Restarts: res.Restarts,
		Duration: elapsed.Round(time.Millisecond),
	})
	if err != nil {
		slog.Warn("failed to record play-through", "path", a.history.Path(), "err", err)
	}
}

// Shutdown releases all resources. It is safe to call more than once; only
// the first call does any work.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// Command storytrail plays an illustrated, narrated branching story for
// young children in the terminal or a Discord channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MrWong99/storytrail/internal/app"
	"github.com/MrWong99/storytrail/internal/config"
	"github.com/MrWong99/storytrail/internal/health"
	"github.com/MrWong99/storytrail/internal/history"
	"github.com/MrWong99/storytrail/internal/observe"
	"github.com/MrWong99/storytrail/pkg/audio"
	"github.com/MrWong99/storytrail/pkg/audio/execplayer"
	"github.com/MrWong99/storytrail/pkg/provider/image"
	imagemock "github.com/MrWong99/storytrail/pkg/provider/image/mock"
	oaimage "github.com/MrWong99/storytrail/pkg/provider/image/openai"
	"github.com/MrWong99/storytrail/pkg/provider/tts"
	"github.com/MrWong99/storytrail/pkg/provider/tts/coqui"
	"github.com/MrWong99/storytrail/pkg/provider/tts/elevenlabs"
	ttsmock "github.com/MrWong99/storytrail/pkg/provider/tts/mock"
	oaitts "github.com/MrWong99/storytrail/pkg/provider/tts/openai"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "storytrail.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	pregenOnly := flag.Bool("pregenerate-only", false, "generate all missing illustrations and exit")
	showHistory := flag.Bool("history", false, "print a summary of past play-throughs and exit")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, usingFile, err := loadConfig(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "storytrail: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "storytrail: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	var level slog.LevelVar
	level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("storytrail starting",
		"version", version,
		"config", *configPath,
		"config_file", usingFile,
		"log_level", cfg.Server.LogLevel,
	)
	if !usingFile {
		slog.Info("no config file found, using defaults", "path", *configPath)
	}

	if usingFile {
		watcher, err := config.NewWatcher(*configPath, func(old, cur *config.Config) {
			d := config.Diff(old, cur)
			if d.LogLevelChanged {
				level.Set(slogLevel(d.NewLogLevel))
				slog.Info("log level changed", "level", d.NewLogLevel)
			}
			if len(d.RestartRequired) > 0 {
				slog.Warn("config changes take effect after a restart", "sections", d.RestartRequired)
			}
		}, config.WithStoryChange(func(path string) {
			slog.Warn("story file changed; restart to play the new version", "path", path)
		}))
		if err != nil {
			slog.Warn("config hot reload disabled", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	if *showHistory {
		return printHistory(cfg.Cache.HistoryFile)
	}

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsRegistry := observe.NewRegistry()
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "storytrail",
		ServiceVersion: version,
		Registry:       metricsRegistry,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	printStartupSummary(cfg, providers)

	var appOpts []app.Option
	if *pregenOnly {
		appOpts = append(appOpts, app.WithHeadless())
	}
	application, err := app.New(ctx, cfg, providers, appOpts...)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	if *pregenOnly {
		stats, err := application.Pregenerate(ctx)
		if err != nil {
			slog.Error("pre-generation aborted", "err", err)
			return 1
		}
		if stats.Failed > 0 {
			return 1
		}
		return 0
	}

	// ── Ops endpoint ──────────────────────────────────────────────────────────
	if cfg.Server.ListenAddr != "" {
		srv := newOpsServer(cfg.Server.ListenAddr, metricsRegistry, application.Checkers())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops server error", "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		slog.Info("ops endpoint listening", "addr", cfg.Server.ListenAddr)
	}

	res, err := application.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye", "mode", res.Final.Mode, "steps", res.Steps, "restarts", res.Restarts)
	return 0
}

// loadConfig loads path. A missing file at the default location yields the
// default configuration; a missing file named explicitly is an error.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, os.ErrNotExist) && !flagSet("config") {
		cfg, err := config.LoadFromReader(strings.NewReader(""))
		return cfg, false, err
	}
	return nil, false, err
}

func flagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// newOpsServer serves /healthz, /readyz and /metrics.
func newOpsServer(addr string, reg *prometheus.Registry, checkers []health.Checker) *http.Server {
	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(observe.DefaultMetrics())(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// builtinProviders maps provider kinds to the implementations that ship with
// storytrail. Used for startup logging.
var builtinProviders = map[string][]string{
	"image": {"openai", "mock"},
	"tts":   {"openai", "elevenlabs", "coqui", "mock"},
}

// tracedClient returns an HTTP client whose requests are traced and timed.
func tracedClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry, cfg *config.Config) {
	// ── Image ─────────────────────────────────────────────────────────────────

	reg.RegisterImage("openai", func(entry config.ProviderEntry) (image.Provider, error) {
		opts := []oaimage.Option{oaimage.WithHTTPClient(tracedClient())}
		if entry.BaseURL != "" {
			opts = append(opts, oaimage.WithBaseURL(entry.BaseURL))
		}
		if size, ok := entry.OptionString("size"); ok {
			opts = append(opts, oaimage.WithSize(size))
		}
		if quality, ok := entry.OptionString("quality"); ok {
			opts = append(opts, oaimage.WithQuality(quality))
		}
		if secs, ok := entry.OptionFloat("timeout_seconds"); ok {
			opts = append(opts, oaimage.WithTimeout(seconds(secs)))
		}
		return oaimage.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterImage("mock", func(config.ProviderEntry) (image.Provider, error) {
		return &imagemock.Provider{}, nil
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Provider, error) {
		opts := []oaitts.Option{oaitts.WithHTTPClient(tracedClient())}
		if entry.BaseURL != "" {
			opts = append(opts, oaitts.WithBaseURL(entry.BaseURL))
		}
		if secs, ok := entry.OptionFloat("timeout_seconds"); ok {
			opts = append(opts, oaitts.WithTimeout(seconds(secs)))
		}
		return oaitts.New(entry.APIKey, entry.Model, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if outputFmt, ok := entry.OptionString("output_format"); ok {
			opts = append(opts, elevenlabs.WithOutputFormat(outputFmt))
		}
		if entry.BaseURL != "" {
			opts = append(opts, elevenlabs.WithBaseURL(entry.BaseURL))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		lang, ok := entry.OptionString("language")
		if !ok {
			lang = cfg.Narration.Language
		}
		opts := []coqui.Option{
			coqui.WithLanguage(lang),
			coqui.WithHTTPClient(tracedClient()),
		}
		if secs, ok := entry.OptionFloat("timeout_seconds"); ok {
			opts = append(opts, coqui.WithTimeout(seconds(secs)))
		}
		return coqui.New(entry.BaseURL, opts...)
	})

	reg.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	for kind, names := range builtinProviders {
		for _, name := range names {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates the configured provider chains and the audio
// player. Providers with an empty name are left out.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.Image.Name; name != "" {
		chain, err := reg.ImageChain(cfg.Providers.Image)
		if err != nil {
			return nil, fmt.Errorf("create image providers: %w", err)
		}
		ps.Image = chain
		slog.Info("provider created", "kind", "image", "name", name, "fallbacks", len(chain)-1)
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		chain, err := reg.TTSChain(cfg.Providers.TTS)
		if err != nil {
			return nil, fmt.Errorf("create tts providers: %w", err)
		}
		ps.TTS = chain
		slog.Info("provider created", "kind", "tts", "name", name, "fallbacks", len(chain)-1)
	}

	ps.Player = buildPlayer(cfg.Player)
	return ps, nil
}

// buildPlayer returns nil when playback is disabled or the player command is
// missing; narration then only fills the sound cache.
func buildPlayer(pc config.PlayerConfig) audio.Player {
	if pc.Disabled {
		return nil
	}
	p, err := execplayer.New(pc.Command)
	if err != nil {
		slog.Warn("audio playback unavailable", "err", err)
		return nil
	}
	return p
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, ps *app.Providers) {
	story := cfg.Story.File
	if story == "" {
		story = "(built-in)"
	}
	player := "enabled"
	if ps.Player == nil {
		player = "(disabled)"
	}
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       storytrail startup summary      ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("Story", story)
	printProvider("Images", cfg.Providers.Image)
	printProvider("Narration", cfg.Providers.TTS)
	printRow("Player", player)
	printRow("Front end", string(cfg.Frontend.Kind))
	printRow("Line width", fmt.Sprint(cfg.Story.LineWidth))
	if cfg.Server.ListenAddr != "" {
		printRow("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind string, e config.ProviderEntry) {
	value := e.Name
	if value == "" {
		value = "(not configured)"
	} else if e.Model != "" {
		value = e.Name + " / " + e.Model
	}
	printRow(kind, value)
}

func printRow(label, value string) {
	if len([]rune(value)) > 19 {
		value = string([]rune(value)[:16]) + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", label, value)
}

func printHistory(path string) int {
	if path == "" {
		fmt.Fprintln(os.Stderr, "storytrail: cache.history_file is not configured")
		return 1
	}
	records, err := history.NewFileStore(path).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storytrail: %v\n", err)
		return 1
	}
	sum := history.Summarize(records)
	titles := make([]string, 0, len(sum))
	for title := range sum {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		s := sum[title]
		fmt.Printf("%-30s plays=%d wins=%d restarts=%d\n", title, s.Plays, s.Wins, s.Restarts)
	}
	return 0
}

// slogLevel maps a config level to its slog equivalent.
func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists the built-in provider names per kind. [Validate]
// only warns about other names since third-party factories may be registered.
var ValidProviderNames = map[string][]string{
	"image": {"openai", "mock"},
	"tts":   {"openai", "elevenlabs", "coqui", "mock"},
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Unknown keys are rejected. An empty document yields
// the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg and returns all problems joined into one error.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Story.LineWidth < 10 {
		errs = append(errs, fmt.Errorf("story.line_width %d is too small; minimum 10", cfg.Story.LineWidth))
	}
	if cfg.Story.ChildAge < 1 || cfg.Story.ChildAge > 18 {
		errs = append(errs, fmt.Errorf("story.child_age %d is out of range [1, 18]", cfg.Story.ChildAge))
	}
	if cfg.Story.File != "" {
		if _, err := os.Stat(cfg.Story.File); err != nil {
			errs = append(errs, fmt.Errorf("story.file: %w", err))
		}
	}
	if cfg.Cache.PregenerateWorkers < 1 {
		errs = append(errs, fmt.Errorf("cache.pregenerate_workers %d must be at least 1", cfg.Cache.PregenerateWorkers))
	}

	errs = append(errs, validateProvider("image", "providers.image", cfg.Providers.Image)...)
	errs = append(errs, validateProvider("tts", "providers.tts", cfg.Providers.TTS)...)

	if !cfg.Frontend.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("frontend.kind %q is invalid; valid values: terminal, discord", cfg.Frontend.Kind))
	}
	if cfg.Frontend.Kind == FrontendDiscord {
		if cfg.Frontend.Discord.Token == "" {
			errs = append(errs, errors.New("frontend.discord.token is required when frontend.kind is discord"))
		}
		if cfg.Frontend.Discord.ChannelID == "" {
			errs = append(errs, errors.New("frontend.discord.channel_id is required when frontend.kind is discord"))
		}
	}

	if _, err := language.Parse(cfg.Narration.Language); err != nil {
		errs = append(errs, fmt.Errorf("narration.language %q is not a valid BCP-47 tag: %w", cfg.Narration.Language, err))
	}
	if cfg.Narration.Speed != 0 && (cfg.Narration.Speed < 0.25 || cfg.Narration.Speed > 4.0) {
		errs = append(errs, fmt.Errorf("narration.speed %.2f is out of range [0.25, 4.0]", cfg.Narration.Speed))
	}
	if cfg.Providers.TTS.Name == "" {
		slog.Warn("providers.tts is not configured; the story will not be narrated")
	}
	if cfg.Providers.Image.Name == "" {
		slog.Warn("providers.image is not configured; screens will have no illustrations")
	}

	return errors.Join(errs...)
}

func validateProvider(kind, prefix string, e ProviderEntry) []error {
	var errs []error
	if e.Name == "" {
		if len(e.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("%s.fallbacks requires %s.name", prefix, prefix))
		}
		return errs
	}
	warnUnknownProvider(kind, e.Name)
	for i, fb := range e.Fallbacks {
		p := fmt.Sprintf("%s.fallbacks[%d]", prefix, i)
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", p))
			continue
		}
		if len(fb.Fallbacks) > 0 {
			errs = append(errs, fmt.Errorf("%s.fallbacks: nested fallbacks are not supported", p))
		}
		warnUnknownProvider(kind, fb.Name)
	}
	return errs
}

func warnUnknownProvider(kind, name string) {
	if slices.Contains(ValidProviderNames[kind], name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", ValidProviderNames[kind],
	)
}

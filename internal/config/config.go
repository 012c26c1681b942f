// Package config defines the storytrail configuration schema, loads it from
// YAML, validates it, and maps provider names to constructors through a
// [Registry].
package config

import "github.com/MrWong99/storytrail/internal/discord"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// FrontendKind selects where the story is played.
type FrontendKind string

const (
	// FrontendTerminal reads keys from stdin and prints screens to stdout.
	FrontendTerminal FrontendKind = "terminal"

	// FrontendDiscord plays in a Discord text channel.
	FrontendDiscord FrontendKind = "discord"
)

// IsValid reports whether k is a recognised front end.
func (k FrontendKind) IsValid() bool {
	return k == FrontendTerminal || k == FrontendDiscord
}

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultLineWidth          = 50
	DefaultChildAge           = 3
	DefaultImageDir           = "images"
	DefaultSoundDir           = "sounds"
	DefaultPregenerateWorkers = 4
	DefaultLanguage           = "en"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Story     StoryConfig     `yaml:"story"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Player    PlayerConfig    `yaml:"player"`
	Frontend  FrontendConfig  `yaml:"frontend"`
	Narration NarrationConfig `yaml:"narration"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// ListenAddr is the ops endpoint (/healthz, /readyz, /metrics). Empty
	// disables it.
	ListenAddr string `yaml:"listen_addr"`
}

// StoryConfig selects the script and how it is presented.
type StoryConfig struct {
	// File is a story YAML file. Empty plays the built-in story.
	File string `yaml:"file"`

	// LineWidth is the word-wrap width.
	LineWidth int `yaml:"line_width"`

	// ChildAge is mentioned in the illustration brief.
	ChildAge int `yaml:"child_age"`
}

// ProvidersConfig holds one provider chain per kind. An empty Name disables
// the kind: no illustrations or no narration.
type ProvidersConfig struct {
	Image ProviderEntry `yaml:"image"`
	TTS   ProviderEntry `yaml:"tts"`
}

// ProviderEntry configures one provider and the fallbacks tried after it.
type ProviderEntry struct {
	// Name selects the registered implementation (e.g. "openai", "coqui").
	Name string `yaml:"name"`

	// APIKey authenticates against the provider, if needed.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific values.
	Options map[string]any `yaml:"options"`

	// Fallbacks are tried in order when this provider fails. Nested
	// fallbacks are not allowed.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// OptionString returns Options[key] when it is a string.
func (e ProviderEntry) OptionString(key string) (string, bool) {
	v, ok := e.Options[key].(string)
	return v, ok
}

// OptionFloat returns Options[key] when it is numeric.
func (e ProviderEntry) OptionFloat(key string) (float64, bool) {
	switch v := e.Options[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// CacheConfig configures the on-disk asset caches.
type CacheConfig struct {
	ImageDir           string `yaml:"image_dir"`
	SoundDir           string `yaml:"sound_dir"`
	PregenerateWorkers int    `yaml:"pregenerate_workers"`

	// HistoryFile collects one JSON line per finished play-through. Empty
	// disables the history.
	HistoryFile string `yaml:"history_file"`
}

// PlayerConfig configures narration playback.
type PlayerConfig struct {
	// Command is the audio player invocation; the clip path is appended.
	// Empty uses ffplay.
	Command []string `yaml:"command"`

	// Disabled turns playback off while still caching clips.
	Disabled bool `yaml:"disabled"`
}

// FrontendConfig selects the play surface.
type FrontendConfig struct {
	Kind    FrontendKind   `yaml:"kind"`
	Discord discord.Config `yaml:"discord"`
}

// NarrationConfig configures the narration voice.
type NarrationConfig struct {
	// Language is a BCP-47 tag passed to the TTS provider.
	Language string `yaml:"language"`

	// Voice is the provider-specific voice ID. Empty uses the provider
	// default.
	Voice string `yaml:"voice"`

	// Speed is the speaking rate; 0 means provider default.
	Speed float64 `yaml:"speed"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Story.LineWidth == 0 {
		c.Story.LineWidth = DefaultLineWidth
	}
	if c.Story.ChildAge == 0 {
		c.Story.ChildAge = DefaultChildAge
	}
	if c.Cache.ImageDir == "" {
		c.Cache.ImageDir = DefaultImageDir
	}
	if c.Cache.SoundDir == "" {
		c.Cache.SoundDir = DefaultSoundDir
	}
	if c.Cache.PregenerateWorkers == 0 {
		c.Cache.PregenerateWorkers = DefaultPregenerateWorkers
	}
	if c.Frontend.Kind == "" {
		c.Frontend.Kind = FrontendTerminal
	}
	if c.Narration.Language == "" {
		c.Narration.Language = DefaultLanguage
	}
}

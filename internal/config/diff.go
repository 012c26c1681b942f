package config

import "reflect"

// ConfigDiff describes what changed between two configs. Only the log level
// can be applied to a running game; every other change is listed in
// RestartRequired by section name.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel
	RestartRequired []string
}

// Diff compares old and new.
func Diff(old, new *Config) ConfigDiff {
	var d ConfigDiff
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	sections := []struct {
		name     string
		old, new any
	}{
		{"server.listen_addr", old.Server.ListenAddr, new.Server.ListenAddr},
		{"story", old.Story, new.Story},
		{"providers", old.Providers, new.Providers},
		{"cache", old.Cache, new.Cache},
		{"player", old.Player, new.Player},
		{"frontend", old.Frontend, new.Frontend},
		{"narration", old.Narration, new.Narration},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.new) {
			d.RestartRequired = append(d.RestartRequired, s.name)
		}
	}
	return d
}

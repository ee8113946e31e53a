package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/pilot.yaml
var defaultYAML []byte

// Default returns the hardcoded default configuration.
func Default() Config {
	return Config{
		Game: GameConfig{
			Preset: "normal",
		},
		Autoplay: AutoplayConfig{
			TargetScore:          2000,
			MaxGames:             10,
			MaxMoves:             100000,
			MaxConsecutiveErrors: 5,
		},
		Remote: RemoteConfig{
			Addr:         ":8048",
			ReadTimeout:  60 * time.Second,
			ResumeWindow: 2 * time.Minute,
		},
		Storage: StorageConfig{
			DBPath: "~/.pilot2048/results.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		SSH: SSHConfig{
			Addr:        ":23248",
			IdleTimeout: 30 * time.Minute,
		},
		Watch: WatchConfig{
			FPS: 8,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}

// Package config provides YAML-based configuration loading for the
// autopilot, its viewer and its servers.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/pilot2048/internal/game"
)

// Config contains all configuration for pilot2048.
type Config struct {
	// Seed drives tile spawning and tie-breaks. 0 picks a time-based seed.
	Seed int64 `yaml:"seed"`

	Game     GameConfig     `yaml:"game"`
	Autoplay AutoplayConfig `yaml:"autoplay"`
	Remote   RemoteConfig   `yaml:"remote"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	SSH      SSHConfig      `yaml:"ssh"`
	Watch    WatchConfig    `yaml:"watch"`
}

// GameConfig defines local game parameters.
type GameConfig struct {
	Preset string  `yaml:"preset"` // easy, normal or hard
	Spawn4 float64 `yaml:"spawn4"` // overrides the preset when non-zero
}

// AutoplayConfig defines autopilot limits.
type AutoplayConfig struct {
	TargetScore          int           `yaml:"target_score"`
	MaxGames             int           `yaml:"max_games"`
	MaxMoves             int           `yaml:"max_moves"`
	MoveDelay            time.Duration `yaml:"move_delay"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors"`
}

// RemoteConfig defines the websocket provider.
type RemoteConfig struct {
	URL         string        `yaml:"url"`  // client side
	Addr        string        `yaml:"addr"` // server side
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ResumeWindow is how long the server keeps a game whose connection
	// dropped, so the client can reattach to it.
	ResumeWindow time.Duration `yaml:"resume_window"`
}

// StorageConfig defines where results are kept.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LogConfig defines logger output.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SSHConfig defines the SSH viewer server.
type SSHConfig struct {
	Addr        string        `yaml:"addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// WatchConfig defines the viewer.
type WatchConfig struct {
	FPS int `yaml:"fps"`
}

// Log levels accepted in LogConfig.Level.
var LogLevels = []string{"debug", "info", "warn", "error"}

const maxFPS = 60

// Validate reports the first invalid value.
func (c Config) Validate() error {
	if _, err := game.LookupPreset(c.Game.Preset); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Game.Spawn4 < 0 || c.Game.Spawn4 > 1 {
		return fmt.Errorf("config: game.spawn4 %v outside [0, 1]", c.Game.Spawn4)
	}

	a := c.Autoplay
	switch {
	case a.TargetScore < 0:
		return errors.New("config: autoplay.target_score must not be negative")
	case a.MaxGames < 0:
		return errors.New("config: autoplay.max_games must not be negative")
	case a.MaxMoves < 0:
		return errors.New("config: autoplay.max_moves must not be negative")
	case a.MoveDelay < 0:
		return errors.New("config: autoplay.move_delay must not be negative")
	case a.MaxConsecutiveErrors < 0:
		return errors.New("config: autoplay.max_consecutive_errors must not be negative")
	}

	if c.Remote.ReadTimeout < 0 {
		return errors.New("config: remote.read_timeout must not be negative")
	}
	if c.Remote.ResumeWindow < 0 {
		return errors.New("config: remote.resume_window must not be negative")
	}
	if c.SSH.IdleTimeout < 0 {
		return errors.New("config: ssh.idle_timeout must not be negative")
	}

	if !validLevel(c.Log.Level) {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("config: log rotation limits must not be negative")
	}

	if c.Watch.FPS <= 0 || c.Watch.FPS > maxFPS {
		return fmt.Errorf("config: watch.fps %d outside [1, %d]", c.Watch.FPS, maxFPS)
	}
	return nil
}

func validLevel(level string) bool {
	for _, l := range LogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Spawn4 returns the probability of spawning a 4: the explicit value when
// set, otherwise the preset's.
func (c Config) Spawn4() float64 {
	if c.Game.Spawn4 > 0 {
		return c.Game.Spawn4
	}
	p, err := game.LookupPreset(c.Game.Preset)
	if err != nil {
		return game.DefaultSpawn4
	}
	return p.Spawn4
}

// ResolveSeed returns Seed, or a time-based seed when Seed is 0.
func (c Config) ResolveSeed() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}

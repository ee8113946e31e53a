package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads, merges and validates the configuration.
//
// Without customPath the first existing file of ~/.pilot2048/config.yaml and
// ./configs/pilot.yaml wins, then the embedded defaults. Files are decoded
// over Default(), so a file only needs the keys it changes. A file that
// exists but cannot be read or parsed is an error, as is a missing
// customPath.
func Load(customPath string) (Config, error) {
	var (
		cfg Config
		err error
	)
	if customPath != "" {
		cfg, err = loadFile(customPath)
	} else {
		cfg, err = loadFirst(searchPaths())
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func searchPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pilot2048", "config.yaml"))
	}
	return append(paths, filepath.Join("configs", "pilot.yaml"))
}

// loadFirst skips missing files and falls back to the embedded defaults.
func loadFirst(paths []string) (Config, error) {
	for _, p := range paths {
		cfg, err := loadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	if cfg, err := parse(defaultYAML); err == nil {
		return cfg, nil
	}
	return Default(), nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := parse(data)
	if err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// parse rejects unknown keys so a misspelt option is not silently ignored.
func parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Default(), err
	}
	return cfg, nil
}

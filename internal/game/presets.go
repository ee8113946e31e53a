package game

import (
	"fmt"
	"strings"
)

// Preset is a named spawn profile for the local game.
type Preset struct {
	Name   string
	Spawn4 float64 // Probability of spawning 4 instead of 2 (0.0-1.0)
}

// Presets lists the spawn profiles, easiest first.
var Presets = []Preset{
	{Name: "easy", Spawn4: 0.05},
	{Name: "normal", Spawn4: 0.10},
	{Name: "hard", Spawn4: 0.25},
}

// DefaultSpawn4 is the spawn-4 probability of the classic game.
const DefaultSpawn4 = 0.10

// PresetNames returns the names of all presets.
func PresetNames() []string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = p.Name
	}
	return names
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, error) {
	for _, p := range Presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("game: unknown preset %q (want %s)", name, strings.Join(PresetNames(), ", "))
}

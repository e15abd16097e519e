// Package config loads and validates stems.yaml, following the teacher's
// util.ReadYamlFile search path and the reference implementation's
// config.rs structure and validation rules.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/odaacabeef/stems/internal/engine"
	"github.com/odaacabeef/stems/util"
)

// Default per-track values applied to any track not listed under `tracks:`
// (§4.10, §6).
const (
	DefaultLevel float32 = 1.0
	DefaultPan   float32 = 0.0
)

// Config mirrors the wire format in §6.
type Config struct {
	Devices Devices             `yaml:"devices"`
	Tracks  map[int]TrackConfig `yaml:"tracks"`
	Audio   []AudioFileConfig   `yaml:"audio"`
}

// Devices holds the device-selection keys, overridable by the matching CLI
// flags (CLI wins over file).
type Devices struct {
	Audio           string `yaml:"audio"`
	MonitorChannels string `yaml:"monitorch"`
	MidiIn          string `yaml:"midiin"`
}

// TrackConfig holds per-track defaults. Pointer fields distinguish "unset"
// from the zero value, matching the reference implementation's
// Option<T> fields in TrackConfig.
type TrackConfig struct {
	Arm     *bool    `yaml:"arm"`
	Monitor *bool    `yaml:"monitor"`
	Solo    *bool    `yaml:"solo"`
	Level   *float32 `yaml:"level"`
	Pan     *float32 `yaml:"pan"`
}

// AudioFileConfig is one configured playback entry.
type AudioFileConfig struct {
	File    string   `yaml:"file"`
	Monitor *bool    `yaml:"monitor"`
	Solo    *bool    `yaml:"solo"`
	Level   *float32 `yaml:"level"`
	Pan     *float32 `yaml:"pan"`
}

// Load reads path via the shared util.ReadYamlFile search path (binary dir,
// cwd, ~/.config/stems/) and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := util.ReadYamlFile(cfg, path); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate applies the checks in §4.10, before any stream opens.
func (c *Config) Validate() error {
	if c.Devices.MonitorChannels != "" {
		if _, _, err := ParseMonitorChannels(c.Devices.MonitorChannels); err != nil {
			return fmt.Errorf("config: devices.monitorch: %w", err)
		}
	}

	for n, t := range c.Tracks {
		if n < 1 {
			return fmt.Errorf("config: track %d: track numbers must be >= 1", n)
		}
		if t.Level != nil && (*t.Level < 0 || *t.Level > 1) {
			return fmt.Errorf("config: track %d: level %v out of [0,1]", n, *t.Level)
		}
		if t.Pan != nil && (*t.Pan < -1 || *t.Pan > 1) {
			return fmt.Errorf("config: track %d: pan %v out of [-1,1]", n, *t.Pan)
		}
	}

	for i, a := range c.Audio {
		if a.File == "" {
			return fmt.Errorf("config: audio[%d]: file is required", i)
		}
		if !util.FileExists(a.File) {
			return fmt.Errorf("config: audio[%d]: file %q does not exist", i, a.File)
		}
		if a.Level != nil && (*a.Level < 0 || *a.Level > 1) {
			return fmt.Errorf("config: audio[%d]: level %v out of [0,1]", i, *a.Level)
		}
		if a.Pan != nil && (*a.Pan < -1 || *a.Pan > 1) {
			return fmt.Errorf("config: audio[%d]: pan %v out of [-1,1]", i, *a.Pan)
		}
	}

	return nil
}

// ParseMonitorChannels parses "START-END" (1-indexed) requiring a 2-channel
// span, returning 0-indexed start/end. Shared by the CLI's
// --monitor-channels flag and devices.monitorch.
func ParseMonitorChannels(s string) (start, end int, err error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("monitor channel range %q must be of the form START-END", s)
	}

	a, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("monitor channel range %q: %w", s, err)
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("monitor channel range %q: %w", s, err)
	}

	if a < 1 {
		return 0, 0, fmt.Errorf("monitor channel range %q: start must be >= 1", s)
	}
	if b != a+1 {
		return 0, 0, fmt.Errorf("monitor channel range %q: end must equal start+1", s)
	}

	return a - 1, b - 1, nil
}

// TrackDefaults converts the loaded per-track config into the map
// engine.Open expects, applying the documented defaults to every field left
// unset in the file.
func (c *Config) TrackDefaults() map[int]engine.TrackDefault {
	out := make(map[int]engine.TrackDefault, len(c.Tracks))
	for n, t := range c.Tracks {
		out[n] = engine.TrackDefault{
			Arm:     boolOr(t.Arm, false),
			Monitor: boolOr(t.Monitor, false),
			Solo:    boolOr(t.Solo, false),
			Level:   floatOr(t.Level, DefaultLevel),
			Pan:     floatOr(t.Pan, DefaultPan),
		}
	}
	return out
}

// PlaybackFiles converts the loaded audio[] list into engine.Open's input
// type, applying the same defaults.
func (c *Config) PlaybackFiles() []engine.PlaybackFile {
	out := make([]engine.PlaybackFile, len(c.Audio))
	for i, a := range c.Audio {
		out[i] = engine.PlaybackFile{
			Path:    a.File,
			Monitor: boolOr(a.Monitor, false),
			Solo:    boolOr(a.Solo, false),
			Level:   floatOr(a.Level, DefaultLevel),
			Pan:     floatOr(a.Pan, DefaultPan),
		}
	}
	return out
}

// boolOr and floatOr apply a TrackConfig/AudioFileConfig pointer field over
// its default, matching the "unset falls back to default" rule in §4.10.
func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
}

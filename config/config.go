package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tonebox/synth"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Sample formats understood by the audio package
const (
	FormatFloat32 = "f32"
	FormatInt16   = "s16"
	FormatUint8   = "u8"
)

// Config is the main configuration structure
type Config struct {
	// Audio output
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	Format     string `json:"format"`
	BufferMs   int    `json:"bufferMs"`

	// Engine
	FadeIn  float64 `json:"fadeIn"`
	FadeOut float64 `json:"fadeOut"`
	Volume  float64 `json:"volume"`

	// MIDI input
	Port        string `json:"port,omitempty"` // name substring or index, "" = first
	MIDIChannel int    `json:"midiChannel"`    // 0-15, -1 = omni

	// UI
	Palette string `json:"palette,omitempty"` // GIMP .gpl path, "" = built-in
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	engine := synth.DefaultConfig()
	return &Config{
		SampleRate:  44100,
		Channels:    2,
		Format:      FormatFloat32,
		BufferMs:    20,
		FadeIn:      engine.FadeIn,
		FadeOut:     engine.FadeOut,
		Volume:      synth.DefaultVolume,
		MIDIChannel: 0,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tonebox"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the default config file, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults. A missing file is not an error.
// Fields absent from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges. Errors wrap ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sampleRate %d", ErrInvalid, c.SampleRate)
	case c.Channels < 1 || c.Channels > 8:
		return fmt.Errorf("%w: channels %d (want 1-8)", ErrInvalid, c.Channels)
	case c.BufferMs <= 0:
		return fmt.Errorf("%w: bufferMs %d", ErrInvalid, c.BufferMs)
	case c.FadeIn <= 0:
		return fmt.Errorf("%w: fadeIn %v", ErrInvalid, c.FadeIn)
	case c.FadeOut <= 0:
		return fmt.Errorf("%w: fadeOut %v", ErrInvalid, c.FadeOut)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume %v (want 0-1)", ErrInvalid, c.Volume)
	case c.MIDIChannel < -1 || c.MIDIChannel > 15:
		return fmt.Errorf("%w: midiChannel %d (want -1-15)", ErrInvalid, c.MIDIChannel)
	}
	switch c.Format {
	case FormatFloat32, FormatInt16, FormatUint8:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalid, c.Format)
	}
	return nil
}

// EngineConfig returns the envelope settings for the synth
func (c *Config) EngineConfig() synth.Config {
	return synth.Config{
		FadeIn:  c.FadeIn,
		FadeOut: c.FadeOut,
	}
}

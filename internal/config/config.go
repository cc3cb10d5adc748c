package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides. Sections are separated by a double
// underscore: PRISM_CAMERA__FOV -> camera.fov.
const EnvPrefix = "PRISM_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validToneMappings = map[string]bool{
	ToneMappingNone:       true,
	ToneMappingACESFilmic: true,
}

var validColorSpaces = map[string]bool{
	ColorSpaceSRGB:       true,
	ColorSpaceLinearSRGB: true,
}

var validEases = map[string]bool{
	EaseOut:    true,
	EaseLinear: true,
	EaseSpring: true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}

	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("camera fov must be in (0, 180), got %v", c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clipping planes invalid: near=%v far=%v", c.Camera.Near, c.Camera.Far)
	}

	if !validToneMappings[c.Render.ToneMapping] {
		return fmt.Errorf("invalid tone_mapping %q: must be one of none, aces_filmic", c.Render.ToneMapping)
	}
	if !validColorSpaces[c.Render.ColorSpace] {
		return fmt.Errorf("invalid color_space %q: must be one of srgb, linear_srgb", c.Render.ColorSpace)
	}
	if c.Render.Exposure <= 0 {
		return fmt.Errorf("exposure must be positive")
	}
	if c.Render.MaxPixelRatio < 1 {
		return fmt.Errorf("max_pixel_ratio must be at least 1")
	}
	if c.Render.Samples < 0 {
		return fmt.Errorf("samples must be non-negative")
	}
	if c.Render.EnvironmentSize < 16 {
		return fmt.Errorf("environment_size must be at least 16")
	}

	if c.Interaction.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds must be non-negative")
	}
	if !validEases[c.Interaction.Ease] {
		return fmt.Errorf("invalid ease %q: must be one of ease_out, linear, spring", c.Interaction.Ease)
	}

	if c.Assets.HDRI == "" {
		return fmt.Errorf("assets.hdri is required")
	}
	if c.Assets.Model == "" {
		return fmt.Errorf("assets.model is required")
	}
	return nil
}

// Package config holds the user-facing settings for the companion-video
// pipeline. The core components only read a snapshot; persistence belongs to
// the settings layer (see Store).
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the typed settings schema. JSON tags double as the canonical
// dashed option names used by the settings API and the persistent store.
type Config struct {
	// Enable is the master on/off switch for the whole pipeline.
	Enable bool `json:"enable"`
	// Blur applies a blur filter to the surface (host-side effect).
	Blur bool `json:"blur"`
	// Cover selects cover fit-mode for the underlying video (host-side).
	Cover bool `json:"cover"`
	// Darken / Lighten are host-side visual filters.
	Darken  bool `json:"darken"`
	Lighten bool `json:"lighten"`
	// SearchKeyword is the keyword template; {name} and {artist} are
	// substituted per track.
	SearchKeyword string `json:"search-kwd"`
	// FilterLength enables the duration stage of the ranking pipeline.
	FilterLength bool `json:"filter-length"`
	// FilterPlay is the popularity threshold; -1 disables the stage.
	FilterPlay int `json:"filter-play"`
	// LogLevel / LogEnable control logging verbosity.
	LogLevel  string `json:"log-level"`
	LogEnable bool   `json:"log-enable"`
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Enable:        true,
		Blur:          false,
		Cover:         true,
		Darken:        false,
		Lighten:       false,
		SearchKeyword: "{name} {artist} MV/PV",
		FilterLength:  true,
		FilterPlay:    5000,
		LogLevel:      "info",
		LogEnable:     true,
	}
}

// FromEnv returns defaults overridden by PWB_* environment variables.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("PWB_ENABLE"); v != "" {
		cfg.Enable = v == "true" || v == "1"
	}
	if v := os.Getenv("PWB_SEARCH_KWD"); v != "" {
		cfg.SearchKeyword = v
	}
	if v := os.Getenv("PWB_FILTER_LENGTH"); v != "" {
		cfg.FilterLength = v == "true" || v == "1"
	}
	if v := os.Getenv("PWB_FILTER_PLAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FilterPlay = n
		}
	}
	if v := os.Getenv("PWB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

// Apply sets one option by its dashed name from a JSON-decoded value.
// Unknown names and mistyped values are rejected.
func (c *Config) Apply(name string, value any) error {
	switch name {
	case "enable":
		return setBool(&c.Enable, name, value)
	case "blur":
		return setBool(&c.Blur, name, value)
	case "cover":
		return setBool(&c.Cover, name, value)
	case "darken":
		return setBool(&c.Darken, name, value)
	case "lighten":
		return setBool(&c.Lighten, name, value)
	case "search-kwd":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("config: %s must be a string", name)
		}
		c.SearchKeyword = s
		return nil
	case "filter-length":
		return setBool(&c.FilterLength, name, value)
	case "filter-play":
		// JSON numbers decode as float64.
		switch n := value.(type) {
		case float64:
			c.FilterPlay = int(n)
		case int:
			c.FilterPlay = n
		default:
			return fmt.Errorf("config: %s must be a number", name)
		}
		return nil
	case "log-level":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("config: %s must be a string", name)
		}
		c.LogLevel = s
		return nil
	case "log-enable":
		return setBool(&c.LogEnable, name, value)
	default:
		return fmt.Errorf("config: unknown option %q", name)
	}
}

func setBool(dst *bool, name string, value any) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("config: %s must be a boolean", name)
	}
	*dst = b
	return nil
}

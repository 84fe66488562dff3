// Package config loads carbrowse settings from defaults, an optional JSON5
// file with a ".local" override next to it, and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/titanous/json5"
)

// Duration is a time.Duration that reads "500ms" style strings or plain
// milliseconds from config files.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = Duration(time.Duration(x) * time.Millisecond)
	case string:
		p, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("config: duration %q: %w", x, err)
		}
		*d = Duration(p)
	default:
		return fmt.Errorf("config: invalid duration %s", b)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all carbrowse settings.
type Config struct {
	APIHost     string `json:"api_host"`
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	UnsplashKey string `json:"unsplash_key"`

	RequestsPerSecond float64  `json:"requests_per_second"`
	Burst             int      `json:"burst"`
	MaxRetries        int      `json:"max_retries"`
	InitialBackoff    Duration `json:"initial_backoff"`

	PrefetchDelay Duration `json:"prefetch_delay"`
	// CacheSize > 0 bounds each session cache as an LRU; 0 is unbounded.
	CacheSize  int  `json:"cache_size"`
	Synthesize bool `json:"synthesize"`

	NATSURL string `json:"nats_url"`
	Subject string `json:"subject"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		APIHost:           "car-specs.p.rapidapi.com",
		BaseURL:           "https://car-specs.p.rapidapi.com/v2/cars",
		RequestsPerSecond: 5,
		Burst:             2,
		MaxRetries:        3,
		InitialBackoff:    Duration(500 * time.Millisecond),
		PrefetchDelay:     Duration(700 * time.Millisecond),
		Synthesize:        true,
		Subject:           "carbrowse.cars.loaded",
	}
}

// Load builds the configuration. path may be empty; a missing file is not
// an error. Environment variables win over file values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		err := ReadFile(path, &cfg)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	envOr := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	cfg.APIKey = envOr("RAPIDAPI_KEY", cfg.APIKey)
	cfg.APIHost = envOr("RAPIDAPI_HOST", cfg.APIHost)
	cfg.BaseURL = envOr("CARAPI_BASE_URL", cfg.BaseURL)
	cfg.UnsplashKey = envOr("UNSPLASH_KEY", cfg.UnsplashKey)
	cfg.NATSURL = envOr("NATS_URL", cfg.NATSURL)
	cfg.Subject = envOr("CARBROWSE_SUBJECT", cfg.Subject)

	if v := getenv("CARAPI_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: CARAPI_RPS: %w", err)
		}
		cfg.RequestsPerSecond = rps
	}
	if v := getenv("CARAPI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CARAPI_MAX_RETRIES: %w", err)
		}
		cfg.MaxRetries = n
	}
	if v := getenv("CARBROWSE_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CARBROWSE_CACHE_SIZE: %w", err)
		}
		cfg.CacheSize = n
	}
	if v := getenv("CARBROWSE_SYNTHESIZE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CARBROWSE_SYNTHESIZE: %w", err)
		}
		cfg.Synthesize = b
	}
	return nil
}

// ReadFile decodes name and then "<base>.local.<ext>" from the same
// directory into out. Keys a file sets replace what out holds, zero values
// included; keys it omits are left alone. It returns os.ErrNotExist when
// neither file exists.
func ReadFile[T any](name string, out *T) error {
	found := false
	for _, p := range []string{name, localName(name)} {
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := json5.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if p != name {
			slog.Info("merging config with local overrides", "local", p)
		}
		found = true
	}
	if !found {
		return os.ErrNotExist
	}
	return nil
}

func localName(name string) string {
	dir, base := filepath.Split(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+".local"+ext)
}

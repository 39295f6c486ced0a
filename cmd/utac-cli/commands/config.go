package commands

import (
	"errors"
	"fmt"
	"os"
	"time"
	"utac-backend/internal/components/configutil"
	"utac-backend/internal/notify"
	"utac-backend/internal/scrapers/utac"
)

type Config struct {
	SearchUrl            string            `json:"search_url"`
	TimeoutSeconds       int               `json:"timeout_seconds"`
	RequestsPerSecond    float64           `json:"requests_per_second"`
	Concurrency          int               `json:"concurrency"`
	RegionTimeoutSeconds int               `json:"region_timeout_seconds"`
	MaxPageTransitions   int               `json:"max_page_transitions"`
	CheckpointDir        string            `json:"checkpoint_dir"`
	Resume               bool              `json:"resume"`
	Database             string            `json:"database"`
	CloudflareBypass     bool              `json:"cloudflare_bypass"`
	Smtp                 notify.SmtpConfig `json:"smtp"`
}

func DefaultConfig() Config {
	return Config{
		SearchUrl:          utac.DefaultSearchUrl,
		TimeoutSeconds:     int(utac.DefaultTimeout / time.Second),
		RequestsPerSecond:  2,
		Concurrency:        1,
		MaxPageTransitions: utac.DefaultMaxPageTransitions,
		CheckpointDir:      "/tmp/utac_regions",
	}
}

// LoadConfig reads the config file at path (and its .local override), a
// missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	err = configutil.WithDefaults(&cfg, DefaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}
	if cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) RegionTimeout() time.Duration {
	return time.Duration(c.RegionTimeoutSeconds) * time.Second
}

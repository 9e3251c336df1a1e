package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. TRAILBOOK_STORE_DRIVER
const EnvPrefix = "TRAILBOOK_"

// Store drivers
const (
	DriverMemory     = "memory"
	DriverSQLite     = "sqlite"
	DriverBadger     = "badger"
	DriverFilesystem = "filesystem"
)

// Config is the complete runtime configuration
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Capture CaptureConfig `koanf:"capture"`
	Graph   GraphConfig   `koanf:"graph"`
	Filter  FilterConfig  `koanf:"filter"`
	Kernel  KernelConfig  `koanf:"kernel"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// StoreConfig selects the metadata store backend
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory sqlite badger filesystem"`
	// Path is the database file (sqlite) or directory (badger, filesystem);
	// empty uses the driver's default location
	Path string `koanf:"path"`
}

// CaptureConfig tunes interaction capture
type CaptureConfig struct {
	Debounce time.Duration `koanf:"debounce" validate:"gt=0"`
}

// GraphConfig tunes state storage in the provenance graph
type GraphConfig struct {
	CheckpointEvery int `koanf:"checkpoint_every" validate:"gte=1"`
	CacheSize       int `koanf:"cache_size" validate:"gte=0"`
}

// FilterConfig selects what a baked brush keeps
type FilterConfig struct {
	Mode string `koanf:"mode" validate:"oneof=exclude keep"`
}

// KernelConfig configures the Python executor used for data extraction
type KernelConfig struct {
	Python  string `koanf:"python" validate:"required"`
	Prelude string `koanf:"prelude"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `koanf:"level" validate:"oneof=debug info warn error"`
	Development bool   `koanf:"development"`
	// File receives log output; empty means stderr
	File string `koanf:"file"`
}

// MetricsConfig configures the Prometheus endpoint; empty Addr disables it
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]any {
	return map[string]any{
		"store.driver":           DriverSQLite,
		"store.path":             "",
		"capture.debounce":       "300ms",
		"graph.checkpoint_every": 10,
		"graph.cache_size":       256,
		"filter.mode":            "exclude",
		"kernel.python":          "python3",
		"kernel.prelude":         "",
		"log.level":              "info",
		"log.development":        false,
		"log.file":               "",
		"metrics.addr":           "",
	}
}

// ConfigPath returns the config file path from TRAILBOOK_CONFIG env var,
// falling back to config.toml under the XDG config directory.
func ConfigPath() string {
	if env := os.Getenv(EnvPrefix + "CONFIG"); env != "" {
		return env
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "trailbook", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path and
// TRAILBOOK_* environment variables, in increasing precedence. An empty
// path uses ConfigPath and tolerates a missing file; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}
	path = expandHome(path)
	if _, err := os.Stat(path); err == nil || explicit {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	// TRAILBOOK_GRAPH_CHECKPOINT_EVERY -> graph.checkpoint_every
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks every field against its allowed values
func Validate(cfg *Config) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

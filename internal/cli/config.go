package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	apperr "github.com/matzehuels/multilevel/pkg/errors"
	"github.com/matzehuels/multilevel/pkg/pipeline"
)

// configFileName is looked up in the working directory, then in configDir().
const configFileName = appName + ".toml"

// validate is a singleton validator instance
var validate = validator.New()

// Config holds the defaults read from multilevel.toml:
//
//	[build]
//	strategy = "indexed"
//	parallel = 4
//
//	[render]
//	direction = "LR"
//
//	[cache]
//	backend = "redis"
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Build  BuildConfig  `toml:"build"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// BuildConfig holds hierarchy build defaults.
type BuildConfig struct {
	Strategy string `toml:"strategy" validate:"omitempty,oneof=indexed rescan"`
	Parallel int    `toml:"parallel" validate:"gte=0,lte=1024"`
	Verify   bool   `toml:"verify"`
}

// RenderConfig holds DOT rendering defaults.
type RenderConfig struct {
	Direction      string `toml:"direction" validate:"omitempty,oneof=TB BT LR RL"`
	Detailed       bool   `toml:"detailed"`
	HideCrossEdges bool   `toml:"hide_cross_edges"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend" validate:"omitempty,oneof=file redis none"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr         string `toml:"addr" validate:"omitempty,hostname_port"`
	MaxBodyBytes int64  `toml:"max_body_bytes" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() Config {
	return Config{
		Cache:  CacheConfig{Backend: cacheFile},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Validate checks field constraints and cross-field requirements.
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, formatValidationError(err), "invalid config")
	}
	if cfg.Cache.Backend == cacheRedis && cfg.Cache.Redis.Addr == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "invalid config: cache.redis.addr is required for the redis backend")
	}
	return nil
}

// PipelineOptions returns the build and render defaults as pipeline options.
func (cfg *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Strategy:       cfg.Build.Strategy,
		Parallel:       cfg.Build.Parallel,
		Verify:         cfg.Build.Verify,
		Direction:      cfg.Render.Direction,
		Detailed:       cfg.Render.Detailed,
		HideCrossEdges: cfg.Render.HideCrossEdges,
	}
}

// LoadConfig reads path over the defaults. Keys the file sets replace the
// default; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, apperr.Wrap(apperr.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, apperr.New(apperr.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = cacheFile
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadConfig loads --config if given, otherwise the first default location
// that exists. Without a file the defaults stay in place.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		path = findConfig()
		if path == "" {
			return nil
		}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)
	return nil
}

func findConfig() string {
	candidates := []string{configFileName}
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, configFileName))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		field := e.Namespace()
		switch e.Tag() {
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %q", field, e.Param(), e.Value())
		case "gte", "lte":
			return fmt.Errorf("%s: out of range (%s %s)", field, e.Tag(), e.Param())
		case "hostname_port":
			return fmt.Errorf("%s: must be host:port, got %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}

// Package config provides configuration management for imprint using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration supports YAML files, environment variable overrides with
// the IMPRINT_ prefix, and validation. It covers the project root, font
// discovery, the package cache, structured input data, watch mode and
// logging.
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	hosterrors "github.com/conneroisu/imprint/internal/errors"
	"github.com/conneroisu/imprint/internal/packages"
	"github.com/conneroisu/imprint/internal/value"
)

// validate is shared; building a validator is expensive.
var validate = validator.New()

type Config struct {
	Root     string         `mapstructure:"root" yaml:"root" validate:"required"`
	Main     string         `mapstructure:"main" yaml:"main"`
	Output   string         `mapstructure:"output" yaml:"output"`
	Engine   string         `mapstructure:"engine" yaml:"engine" validate:"required"`
	Fonts    FontsConfig    `mapstructure:"fonts" yaml:"fonts"`
	Packages PackagesConfig `mapstructure:"packages" yaml:"packages"`
	Data     string         `mapstructure:"data" yaml:"data"`
	Inputs   []string       `mapstructure:"inputs" yaml:"inputs"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

type FontsConfig struct {
	Paths        []string `mapstructure:"paths" yaml:"paths"`
	IgnoreSystem bool     `mapstructure:"ignore_system" yaml:"ignore_system"`
}

type PackagesConfig struct {
	CacheDir string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	LocalDir string        `mapstructure:"local_dir" yaml:"local_dir"`
	Registry string        `mapstructure:"registry" yaml:"registry" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
	Offline  bool          `mapstructure:"offline" yaml:"offline"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" validate:"gte=0"`
	Ignore   []string      `mapstructure:"ignore" yaml:"ignore"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error off"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "IMPRINT"

// Keys returns every configuration key in dotted form, e.g. "watch.debounce".
func Keys() []string {
	return keysOf(reflect.TypeOf(Config{}), "")
}

func keysOf(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + tag
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			keys = append(keys, keysOf(field.Type, key+".")...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// BindEnv makes every key settable through an IMPRINT_<SECTION>_<OPTION>
// variable. Unmarshal only sees keys viper knows about, so keys without a
// flag or a config file entry must be bound explicitly.
func BindEnv() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range Keys() {
		if err := viper.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration from viper: flags, IMPRINT_ variables and
// the config file, then fills in defaults and validates the result.
func Load() (*Config, error) {
	if err := BindEnv(); err != nil {
		return nil, hosterrors.NewConfigError("cannot bind environment", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, hosterrors.NewConfigError("cannot read configuration", err)
	}

	// Handle slices set via viper from flags or env (workaround for viper slice handling)
	if viper.IsSet("fonts.paths") && len(config.Fonts.Paths) == 0 {
		config.Fonts.Paths = viper.GetStringSlice("fonts.paths")
	}
	if viper.IsSet("inputs") && len(config.Inputs) == 0 {
		config.Inputs = viper.GetStringSlice("inputs")
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, hosterrors.NewConfigError("invalid configuration", err)
	}

	return &config, nil
}

// applyDefaults fills in every unset value.
func applyDefaults(config *Config) {
	if config.Root == "" {
		config.Root = "."
	}
	if config.Engine == "" {
		config.Engine = "typst"
	}
	if config.Packages.CacheDir == "" {
		config.Packages.CacheDir = packages.DefaultCacheDir()
	}
	if config.Packages.Registry == "" {
		config.Packages.Registry = packages.DefaultRegistry
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = 300 * time.Millisecond
	}
	if len(config.Watch.Ignore) == 0 {
		config.Watch.Ignore = []string{".git", "node_modules", "*.pdf"}
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return err
	}

	if err := validatePath(config.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}

	if config.Main != "" {
		if err := validatePath(config.Main); err != nil {
			return fmt.Errorf("main: %w", err)
		}
	}

	for _, path := range config.Fonts.Paths {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid font path '%s': %w", path, err)
		}
	}

	if err := validatePackagesConfig(&config.Packages); err != nil {
		return fmt.Errorf("packages config: %w", err)
	}

	if config.Data != "" {
		if err := validatePath(config.Data); err != nil {
			return fmt.Errorf("data: %w", err)
		}
		if _, ok := value.FormatOf(config.Data); !ok {
			return fmt.Errorf("data file %q must be .json, .jsonc, .yaml, .yml, .toml or .cbor", config.Data)
		}
	}

	if _, err := value.ParseInputs(config.Inputs); err != nil {
		return err
	}

	return nil
}

// validatePackagesConfig validates package cache configuration values
func validatePackagesConfig(config *PackagesConfig) error {
	if err := validatePath(config.CacheDir); err != nil {
		return fmt.Errorf("cache_dir: %w", err)
	}

	if config.LocalDir != "" {
		if err := validatePath(config.LocalDir); err != nil {
			return fmt.Errorf("local_dir: %w", err)
		}
		if filepath.Clean(config.LocalDir) == filepath.Clean(config.CacheDir) {
			return fmt.Errorf("local_dir and cache_dir must differ")
		}
	}

	if !strings.HasPrefix(config.Registry, "https://") && !strings.HasPrefix(config.Registry, "http://") {
		return fmt.Errorf("registry must be an http(s) URL: %s", config.Registry)
	}

	return nil
}

// validatePath rejects empty paths and paths with control characters
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("path contains control character %U", r)
		}
	}

	return nil
}

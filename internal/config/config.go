// Package config loads recordkit configuration from config.yaml, the
// RECORDKIT_* environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. RECORDKIT_CACHE_DRIVER.
	EnvPrefix = "RECORDKIT"
)

// keys lists every setting so that environment variables are honored even
// when config.yaml does not mention the key.
var keys = []string{
	"backend",
	"data_dir",
	"table_prefix",
	"time_zone",
	"log_level",
	"cache.driver",
	"cache.dir",
	"cache.dsn",
	"cache.default_ttl",
	"identifier.charset",
	"identifier.maximum_length",
	"identifier.prefix",
	"identifier.suffix",
	"identifier.exclude_look_alike",
	"identifier.exclude_lowercase",
	"identifier.each_character_once",
}

// newViper returns a Viper with defaults and environment binding applied.
func newViper() *viper.Viper {
	d := types.DefaultConfig()
	v := viper.New()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("time_zone", d.TimeZone)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.default_ttl", d.Cache.DefaultTTL)
	v.SetDefault("identifier.charset", d.Identifier.Charset)
	v.SetDefault("identifier.maximum_length", d.Identifier.MaximumLength)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads config.yaml from configDir. A missing directory or file is not
// an error; defaults and environment overrides still apply. The result is
// validated.
func Load(configDir string) (types.Config, error) {
	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes cfg to configDir/config.yaml unless the file already
// exists. It reports whether the file was written.
func WriteDefault(configDir string, cfg types.Config) (bool, error) {
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

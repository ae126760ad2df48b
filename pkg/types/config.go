package types

import (
	"errors"
	"time"
)

// Config holds backend selection and the defaults every recordkit service
// reads at construction time. Nothing is resolved from global state; callers
// load a Config once and pass the relevant section to each service.
type Config struct {
	Backend     string           `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir     string           `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	TablePrefix string           `json:"table_prefix" yaml:"table_prefix" mapstructure:"table_prefix"`
	TimeZone    string           `json:"time_zone" yaml:"time_zone" mapstructure:"time_zone"`
	LogLevel    string           `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Cache       CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	Identifier  IdentifierConfig `json:"identifier" yaml:"identifier" mapstructure:"identifier"`
}

// CacheConfig selects and parameterizes the cache backend.
type CacheConfig struct {
	// Driver is one of the CacheDriver constants. Unknown drivers fall back
	// to the dummy cache when the backend is opened.
	Driver     string        `json:"driver" yaml:"driver" mapstructure:"driver"`
	Dir        string        `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
	DSN        string        `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl" mapstructure:"default_ttl"`
}

// IdentifierConfig holds identifier generator defaults.
type IdentifierConfig struct {
	Charset           string `json:"charset" yaml:"charset" mapstructure:"charset"`
	MaximumLength     int    `json:"maximum_length" yaml:"maximum_length" mapstructure:"maximum_length"`
	Prefix            string `json:"prefix,omitempty" yaml:"prefix,omitempty" mapstructure:"prefix"`
	Suffix            string `json:"suffix,omitempty" yaml:"suffix,omitempty" mapstructure:"suffix"`
	ExcludeLookAlike  bool   `json:"exclude_look_alike" yaml:"exclude_look_alike" mapstructure:"exclude_look_alike"`
	ExcludeLowercase  bool   `json:"exclude_lowercase" yaml:"exclude_lowercase" mapstructure:"exclude_lowercase"`
	EachCharacterOnce bool   `json:"each_character_once" yaml:"each_character_once" mapstructure:"each_character_once"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Supported cache drivers.
const (
	CacheDriverDummy  = "dummy"
	CacheDriverMemory = "memory"
	CacheDriverFile   = "file"
	CacheDriverSQLite = "sqlite"
)

// Default values applied by DefaultConfig.
const (
	DefaultCharset       = "1234567890abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultMaximumLength = 10
	DefaultCacheTTL      = 2629743 * time.Second // one month
	DefaultTimeZone      = "UTC"
	DefaultLogLevel      = "warn"
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrMaximumLengthInvalid = errors.New("identifier maximum length must be positive")
	ErrCacheTTLInvalid      = errors.New("cache default TTL must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendSQLite,
		TimeZone: DefaultTimeZone,
		LogLevel: DefaultLogLevel,
		Cache: CacheConfig{
			Driver:     CacheDriverMemory,
			DefaultTTL: DefaultCacheTTL,
		},
		Identifier: IdentifierConfig{
			Charset:       DefaultCharset,
			MaximumLength: DefaultMaximumLength,
		},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Cache drivers are not validated here because
// an unknown driver degrades to the dummy cache instead of failing.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Identifier.MaximumLength < 0 {
		return ErrMaximumLengthInvalid
	}
	if c.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	return nil
}

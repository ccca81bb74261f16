package config

import (
	"errors"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. HANABI_SERVER_PORT
const EnvPrefix = "HANABI"

// Config represents the root configuration structure for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // how long to wait for open connections on shutdown
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// ProtocolConfig limits what a client may send
type ProtocolConfig struct {
	MaxBulkLen int64 `mapstructure:"max_bulk_len"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Loader reads the configuration from a file and overrides it with environment variables
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader looking for config.yaml in path and in the working directory
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads the configuration. A missing config file is not an error
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Watch reloads the configuration whenever the config file is written and passes it to onChange.
// Only settings that can change at runtime (the log level) are expected to be applied
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(_ fsnotify.Event) {
		onChange(l.unmarshal())
	})
	l.v.WatchConfig()
}

// ConfigFileUsed returns the path of the config file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load is a shortcut for NewLoader(path).Load()
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "6379")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Protocol
	v.SetDefault("protocol.max_bulk_len", 512*1024*1024)

	// Metrics
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", "127.0.0.1:9121")
}

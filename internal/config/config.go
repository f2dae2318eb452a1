// internal/config/config.go
//
// Process-wide configuration, built once in main and passed down by value.
// Values come from the environment (optionally seeded from a .env file);
// see Load for the keys and defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config holds every deployment-time setting.
type Config struct {
	Port string

	EnginePath          string
	EngineArgs          string
	EngineTimeout       time.Duration
	EngineMaxConcurrent int64
	StrictToken         bool

	JournalDSN        string
	JournalMemorySize int

	CORSOrigin      string
	LogLevel        zerolog.Level
	LogPretty       bool
	ShutdownTimeout time.Duration
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("engine_path", "theseus")
	v.SetDefault("engine_args", "")
	v.SetDefault("engine_timeout", "30s")
	v.SetDefault("engine_max_concurrent", 0)
	v.SetDefault("strict_token", false)
	v.SetDefault("journal_dsn", "")
	v.SetDefault("journal_memory_size", 200)
	v.SetDefault("cors_origin", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("shutdown_timeout", "10s")
}

// Load reads .env files (if present) and then the process environment.
// Environment variables win over .env values.
func Load(envFiles ...string) (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(envFiles...)
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) (Config, error) {
	c := Config{
		Port:              v.GetString("port"),
		EnginePath:        v.GetString("engine_path"),
		EngineArgs:        v.GetString("engine_args"),
		JournalDSN:        v.GetString("journal_dsn"),
		CORSOrigin:        v.GetString("cors_origin"),
	}

	var err error
	if c.EngineTimeout, err = duration(v, "engine_timeout"); err != nil {
		return Config{}, err
	}
	if c.ShutdownTimeout, err = duration(v, "shutdown_timeout"); err != nil {
		return Config{}, err
	}
	if c.LogLevel, err = zerolog.ParseLevel(v.GetString("log_level")); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.EngineMaxConcurrent, err = int64Value(v, "engine_max_concurrent"); err != nil {
		return Config{}, err
	}
	if c.JournalMemorySize, err = intValue(v, "journal_memory_size"); err != nil {
		return Config{}, err
	}
	if c.StrictToken, err = boolValue(v, "strict_token"); err != nil {
		return Config{}, err
	}
	if c.LogPretty, err = boolValue(v, "log_pretty"); err != nil {
		return Config{}, err
	}

	switch {
	case c.Port == "":
		return Config{}, fmt.Errorf("PORT is empty")
	case c.EnginePath == "":
		return Config{}, fmt.Errorf("ENGINE_PATH is empty")
	case c.EngineTimeout < 0:
		return Config{}, fmt.Errorf("ENGINE_TIMEOUT must not be negative")
	case c.EngineMaxConcurrent < 0:
		return Config{}, fmt.Errorf("ENGINE_MAX_CONCURRENT must not be negative")
	case c.JournalMemorySize <= 0:
		return Config{}, fmt.Errorf("JOURNAL_MEMORY_SIZE must be positive")
	}
	return c, nil
}

// viper's Get* helpers turn unparsable values into zero; these report them.

func int64Value(v *viper.Viper, key string) (int64, error) {
	n, err := cast.ToInt64E(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envName(key), err)
	}
	return n, nil
}

func intValue(v *viper.Viper, key string) (int, error) {
	n, err := cast.ToIntE(v.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", envName(key), err)
	}
	return n, nil
}

func boolValue(v *viper.Viper, key string) (bool, error) {
	b, err := cast.ToBoolE(v.Get(key))
	if err != nil {
		return false, fmt.Errorf("%s: %w", envName(key), err)
	}
	return b, nil
}

func envName(key string) string { return strings.ToUpper(key) }

// duration accepts Go durations ("30s") and bare seconds ("30").
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	var secs int
	if _, err := fmt.Sscanf(raw, "%d", &secs); err == nil && fmt.Sprint(secs) == raw {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("%s: invalid duration %q", envName(key), raw)
}

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvConfig is the configuration loaded by the last successful LoadEnvConfig call.
var DefaultEnvConfig *Config

type Config struct {
	App     AppConfig      `koanf:"app" validate:"required"`
	DB      DatabaseConfig `koanf:"db" validate:"required"`
	Log     LogConfig      `koanf:"log"`
	Elastic ElasticConfig  `koanf:"elastic"`
}

type AppConfig struct {
	Port string `koanf:"port" validate:"required"`
	Env  string `koanf:"env"`
}

// DatabaseConfig selects the SQL engine. Host/Port/User/Password/Name/SSLMode
// apply to postgres, Path to sqlite (":memory:" for an in-process database).
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" validate:"required,oneof=postgres sqlite"`
	Host            string        `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int           `koanf:"port" validate:"required_if=Driver postgres"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode         string        `koanf:"ssl_mode"`
	Path            string        `koanf:"path" validate:"required_if=Driver sqlite"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type LogConfig struct {
	Level      string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	FilePath   string `koanf:"file_path"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// ElasticConfig enables the full-text search index when URL is set.
type ElasticConfig struct {
	URL   string `koanf:"url" validate:"omitempty,url"`
	Index string `koanf:"index"`
}

// Default returns the configuration used for every key missing from the environment.
func Default() Config {
	return Config{
		App: AppConfig{Port: "8080", Env: "development"},
		DB: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Name:            "postgres",
			SSLMode:         "disable",
			Path:            "employees.db",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: 20 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Elastic: ElasticConfig{Index: "employees"},
	}
}

// LoadEnvConfig reads an optional .env file, then the process environment.
// Variables keep their flat names (DB_HOST, APP_PORT, LOG_FILE_PATH, ...).
func LoadEnvConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				secondsDurationHook,
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	DefaultEnvConfig = &cfg
	return &cfg, nil
}

// secondsDurationHook reads a bare integer duration such as
// DB_CONN_MAX_LIFETIME=1200 as seconds. Other values fall through to the
// Go duration syntax ("20m").
func secondsDurationHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(data.(string)), 10, 64)
	if err != nil {
		return data, nil
	}
	return time.Duration(n) * time.Second, nil
}

// envKey maps DB_MAX_OPEN_CONNS to db.max_open_conns. Variables outside the
// known sections are dropped.
func envKey(s string) string {
	section, rest, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || rest == "" {
		return ""
	}
	switch section {
	case "app", "db", "log", "elastic":
		return section + "." + rest
	}
	return ""
}

// PostgresDSN renders the lib/pq connection string.
func (c DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

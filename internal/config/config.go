package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Backends a Config can select.
const (
	BackendMemory    = "memory"
	BackendWatermill = "watermill"
)

// Config holds all configuration for the bus and its tooling.
type Config struct {
	Backend         string `validate:"oneof=memory watermill"`
	LogFormat       string `validate:"oneof=text json"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	WatermillBuffer int64  `validate:"gte=0"`
	WatermillDebug  bool
	Metrics         bool
	Tracing         bool
	ServiceName     string `validate:"required"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend:         BackendMemory,
		LogFormat:       "text",
		LogLevel:        "info",
		WatermillBuffer: 64,
		ServiceName:     "typedbus",
	}
}

// New loads configuration from a .env file, if present, and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return Load(os.Getenv)
}

// Load reads configuration through getenv. Unset variables keep their
// defaults; malformed or invalid values are errors naming the variable.
func Load(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv("TYPEDBUS_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("TYPEDBUS_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}
	if v := getenv("TYPEDBUS_WATERMILL_BUFFER"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TYPEDBUS_WATERMILL_BUFFER: %w", err)
		}
		cfg.WatermillBuffer = n
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"TYPEDBUS_WATERMILL_DEBUG", &cfg.WatermillDebug},
		{"TYPEDBUS_METRICS", &cfg.Metrics},
		{"TYPEDBUS_TRACING_ENABLED", &cfg.Tracing},
	}
	for _, b := range bools {
		v := getenv(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envNames = map[string]string{
	"Backend":         "TYPEDBUS_BACKEND",
	"LogFormat":       "LOG_FORMAT",
	"LogLevel":        "LOG_LEVEL",
	"WatermillBuffer": "TYPEDBUS_WATERMILL_BUFFER",
	"ServiceName":     "TYPEDBUS_SERVICE_NAME",
}

// Validate checks every field against its rule.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("%s: invalid value %q (%s %s)", envNames[fe.Field()], fmt.Sprint(fe.Value()), fe.Tag(), fe.Param())
}

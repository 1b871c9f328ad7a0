package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"einvoice/internal/logger"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when an environment value is malformed or out
// of range.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// E-Invoice backend
	APIBaseURL         string `env:"EINVOICE_API_BASE_URL" validate:"required,url"`
	APIToken           string `env:"EINVOICE_API_TOKEN"`
	AppCode            string `env:"EINVOICE_APP_CODE" validate:"required"`
	SubmittedBy        string `env:"EINVOICE_SUBMITTED_BY"`
	HTTPTimeoutSeconds int    `env:"EINVOICE_HTTP_TIMEOUT_SECONDS" validate:"min=1,max=300"`

	// Grid behaviour
	PageSize     int    `env:"EINVOICE_PAGE_SIZE" validate:"min=1,max=500"`
	DebounceMS   int    `env:"EINVOICE_DEBOUNCE_MS" validate:"min=0,max=10000"`
	PrimaryColor string `env:"EINVOICE_PRIMARY_COLOR" validate:"omitempty,hexcolor"`

	// Google Sheets Configuration
	GoogleSheetURL       string `env:"GOOGLE_SHEET_URL" validate:"omitempty,url"`
	GoogleSheetWorksheet string `env:"GOOGLE_SHEET_WORKSHEET" validate:"required"`

	// Logging Configuration
	LogLevel      string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat     string `env:"LOG_FORMAT" validate:"oneof=json console"`
	LogTimeFormat string `env:"LOG_TIME_FORMAT"`
	LogOutput     string `env:"LOG_OUTPUT" validate:"required"`
}

func Load() (*Config, error) {
	var errs []error
	intEnv := func(key string, def int) int {
		n, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	config := &Config{
		APIBaseURL:           getEnv("EINVOICE_API_BASE_URL", "http://localhost:8088/e-invoice/api"),
		APIToken:             getEnv("EINVOICE_API_TOKEN", ""),
		AppCode:              getEnv("EINVOICE_APP_CODE", "einvoice"),
		SubmittedBy:          getEnv("EINVOICE_SUBMITTED_BY", ""),
		HTTPTimeoutSeconds:   intEnv("EINVOICE_HTTP_TIMEOUT_SECONDS", 10),
		PageSize:             intEnv("EINVOICE_PAGE_SIZE", 10),
		DebounceMS:           intEnv("EINVOICE_DEBOUNCE_MS", 500),
		PrimaryColor:         getEnv("EINVOICE_PRIMARY_COLOR", ""),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Invoices"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "console")),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

var validate = newValidator()

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]error, 0, len(verrs))
	for _, e := range verrs {
		problems = append(problems, fmt.Errorf("%w: %s %s", ErrInvalidConfig, e.Field(), describe(e)))
	}
	return errors.Join(problems...)
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "hexcolor":
		return "must be a hex colour such as #c0a801"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	}
	return "is invalid"
}

// Timeout returns the HTTP client timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Debounce returns the filter debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, value)
	}
	return n, nil
}

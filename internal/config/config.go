package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"spendboard/internal/render"
	"spendboard/internal/spending"
)

// Data sources.
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceSheets = "sheets"
	SourceDemo   = "demo"
)

var validSources = []string{SourceFile, SourceSQLite, SourceSheets, SourceDemo}

type Config struct {
	// Accounts
	Account  string
	Accounts []string

	// Time windows
	Timezone string

	// Data source
	DataSource       string
	TransactionsFile string
	WeatherFile      string
	SQLiteDBPath     string
	SourceTimeout    time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Assets and output
	AssetsDir  string
	FontsDir   string
	OutputPath string

	// Exclusion policy; nil means the defaults.
	ExcludedCategories []string
	ExcludedKinds      []string

	// Canvas
	CanvasWidth  int
	CanvasHeight int
	FontSizes    []float64

	// HTTP Server
	Port string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RenderInterval    time.Duration
	RenderConcurrency int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	defaults := render.DefaultLayout()
	cfg := &Config{
		Account:  getEnv("SPENDBOARD_ACCOUNT", "default"),
		Accounts: getEnvList("SPENDBOARD_ACCOUNTS"),

		Timezone: getEnv("TIMEZONE", "America/Los_Angeles"),

		DataSource:       getEnv("DATA_SOURCE", SourceFile),
		TransactionsFile: getEnv("TRANSACTIONS_FILE", "data/transactions.json"),
		WeatherFile:      getEnv("WEATHER_FILE", "data/weather.json"),
		SQLiteDBPath:     getEnv("SQLITE_DB_PATH", "./data/spendboard.db"),
		SourceTimeout:    getEnvDuration("SOURCE_TIMEOUT", 10*time.Second),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AssetsDir:  getEnv("ASSETS_DIR", "assets"),
		FontsDir:   getEnv("FONTS_DIR", "fonts"),
		OutputPath: getEnv("OUTPUT_PATH", "display.png"),

		ExcludedCategories: getEnvList("EXCLUDED_CATEGORIES"),
		ExcludedKinds:      getEnvList("EXCLUDED_KINDS"),

		CanvasWidth:  getEnvInt("CANVAS_WIDTH", defaults.Width),
		CanvasHeight: getEnvInt("CANVAS_HEIGHT", defaults.Height),
		FontSizes:    getEnvFloats("FONT_SIZES"),

		Port: getEnv("PORT", "8081"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "render_requests"),

		RenderInterval:    getEnvDuration("RENDER_INTERVAL", 15*time.Minute),
		RenderConcurrency: getEnvInt("RENDER_CONCURRENCY", 4),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	switch c.DataSource {
	case SourceFile:
		if c.TransactionsFile == "" {
			errors = append(errors, "transactions file cannot be empty when using file source")
		}
	case SourceSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.SourceTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid source timeout %v: must be positive", c.SourceTimeout))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.OutputPath == "" {
		errors = append(errors, "output path cannot be empty")
	}
	if c.CanvasWidth < 1 || c.CanvasHeight < 1 {
		errors = append(errors, fmt.Sprintf("invalid canvas %dx%d: both sides must be positive", c.CanvasWidth, c.CanvasHeight))
	}
	if c.FontSizes != nil {
		if len(c.FontSizes) != len(render.Roles) {
			errors = append(errors, fmt.Sprintf("invalid font sizes %v: need exactly %d values", c.FontSizes, len(render.Roles)))
		}
		for _, s := range c.FontSizes {
			if s <= 0 {
				errors = append(errors, fmt.Sprintf("invalid font size %v: must be positive", s))
				break
			}
		}
	}

	// Validate worker configuration
	if c.RenderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid render interval %v: must be at least 1 minute", c.RenderInterval))
	} else if c.RenderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid render interval %v: must be at most 24 hours", c.RenderInterval))
	}
	if c.RenderConcurrency < 1 || c.RenderConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid render concurrency %d: must be between 1 and 64", c.RenderConcurrency))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Policy returns the exclusion policy. Unset category exclusions keep the
// defaults.
func (c *Config) Policy() spending.Policy {
	p := spending.DefaultPolicy()
	if c.ExcludedCategories != nil {
		p.ExcludedCategories = slices.Clone(c.ExcludedCategories)
	}
	p.ExcludedKinds = slices.Clone(c.ExcludedKinds)
	return p
}

// Layout returns the default layout with the configured canvas size and font
// sizes applied.
func (c *Config) Layout() render.Layout {
	l := render.DefaultLayout()
	if c.CanvasWidth > 0 {
		l.Width = c.CanvasWidth
	}
	if c.CanvasHeight > 0 {
		l.Height = c.CanvasHeight
	}
	if len(c.FontSizes) == len(l.Sizes) {
		copy(l.Sizes[:], c.FontSizes)
	}
	return l
}

// Location returns the configured time zone, or UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RenderAccounts lists the accounts the worker refreshes.
func (c *Config) RenderAccounts() []string {
	if len(c.Accounts) > 0 {
		return c.Accounts
	}
	return []string{c.Account}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma list; unset returns nil and blank entries are
// dropped.
func getEnvList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvFloats parses a comma list of numbers; an unparseable entry becomes
// zero so that Validate reports it.
func getEnvFloats(key string) []float64 {
	parts := getEnvList(key)
	if parts == nil {
		return nil
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err == nil {
			out[i] = f
		}
	}
	return out
}

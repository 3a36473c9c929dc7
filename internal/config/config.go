package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/elliotchance/pie/v2"

	"budgetbot/internal/log"
)

// Storage backends accepted by DATA_BACKEND.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendFile, BackendMemory, BackendSQLite, BackendSheets}

type Config struct {
	// HTTP server
	Port               string
	RateLimitPerMinute int

	// Plan storage
	DataBackend  string
	PlanFilePath string
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Language model
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int
	LLMTimeout     time.Duration

	// Conversation
	CacheTTL             time.Duration
	SessionMax           int
	SessionIdleTTL       time.Duration
	HistoryExchanges     int
	StrictCategories     bool
	CategorySynonymsFile string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", BackendFile),
		PlanFilePath: getEnv("PLAN_FILE_PATH", "./data/budget_plan.json"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budgetbot.db"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Budget"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "plan_events"),

		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:      getEnv("LLM_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "llama-3.3-70b-versatile"),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 256),
		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 30*time.Second),

		CacheTTL:             getEnvDuration("CACHE_TTL", 10*time.Second),
		SessionMax:           getEnvInt("SESSION_MAX", 1000),
		SessionIdleTTL:       getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		HistoryExchanges:     getEnvInt("HISTORY_EXCHANGES", 10),
		StrictCategories:     getEnvBool("STRICT_CATEGORIES", false),
		CategorySynonymsFile: getEnv("CATEGORY_SYNONYMS_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", log.FormatConsole),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Validate collects every problem into one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !pie.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.PlanFilePath == "" {
			errors = append(errors, "plan file path cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

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

	if c.LLMBaseURL != "" {
		if u, err := url.Parse(c.LLMBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid LLM base URL '%s': must be an http(s) URL", c.LLMBaseURL))
		}
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid LLM temperature %v: must be between 0 and 2", c.LLMTemperature))
	}
	if c.LLMMaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("invalid LLM max tokens %d: must be at least 1", c.LLMMaxTokens))
	}
	if c.LLMTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid LLM timeout %v: must be at least 1 second", c.LLMTimeout))
	}

	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}
	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.SessionIdleTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session idle TTL %v: must be at least 1 minute", c.SessionIdleTTL))
	}
	if c.HistoryExchanges < 1 || c.HistoryExchanges > 100 {
		errors = append(errors, fmt.Sprintf("invalid history exchanges %d: must be between 1 and 100", c.HistoryExchanges))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if c.CategorySynonymsFile != "" {
		if _, err := os.Stat(c.CategorySynonymsFile); err != nil {
			errors = append(errors, fmt.Sprintf("category synonyms file not readable: %s", c.CategorySynonymsFile))
		}
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}
	if !pie.Contains([]string{log.FormatConsole, log.FormatText, log.FormatJSON}, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be console, text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// LLMEnabled reports whether free-form replies can be generated.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLMAPIKey) != ""
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory '%s': %v", dir, err)
		}
	}
	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

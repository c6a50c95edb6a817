package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-triage/")
	v.AddConfigPath("$HOME/.email-triage")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_TRIAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.3)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.classify_timeout", "30s")
	v.SetDefault("pipeline.generate_timeout", "30s")
	v.SetDefault("pipeline.requests_per_second", 0.0)
	v.SetDefault("pipeline.sort_by_priority", false)

	// Source defaults
	v.SetDefault("source.type", "json")
	v.SetDefault("source.email_dir", "data/sample_emails")
	v.SetDefault("source.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("source.kafka.topic", "inbound-emails")
	v.SetDefault("source.kafka.group_id", "email-triage")
	v.SetDefault("source.kafka.idle_timeout", "5s")
	v.SetDefault("source.smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("source.smtp.domain", "localhost")
	v.SetDefault("source.smtp.drain_timeout", "10s")

	// Document extraction defaults
	v.SetDefault("extract.document_dir", "data/sample_documents")

	// Evidence defaults: known false-positive phrases suppressed during name
	// extraction (field-label artifacts from bank document layouts)
	v.SetDefault("evidence.name_exclusions", []string{
		"Account Number", "Business Name", "Loan Amount", "Annual Income",
		"Credit Score", "Date Birth", "Phone Number", "Email Address",
		"Net Profit", "Total Revenue", "Account Holder", "Primary Account",
		"Secondary Account", "Business Information", "Loan Request",
		"Financial Summary", "Supporting Documents", "New Address",
		"Previous Address", "Effective Date", "Employment Update",
		"Return Date", "Transaction Date", "Credit Card",
	})

	// Template defaults
	v.SetDefault("templates.path", "")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/triage_results.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/email_triage")
	v.SetDefault("store.postgres_dsn", "postgres://localhost:5432/email_triage")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

package config

import (
	"context"
	"encoding/json"
	"time"
)

// Config represents the complete configuration for the panel CLI and its
// mock backend.
type Config struct {
	API      APIConfig      `koanf:"api"      validate:"required"`
	Session  SessionConfig  `koanf:"session"`
	List     ListConfig     `koanf:"list"     validate:"required"`
	Mutation MutationConfig `koanf:"mutation" validate:"required"`
	Notify   NotifyConfig   `koanf:"notify"`
	Runtime  RuntimeConfig  `koanf:"runtime"  validate:"required"`
	CLI      CLIConfig      `koanf:"cli"`
	Mock     MockConfig     `koanf:"mock"`
}

// APIConfig describes how to reach the REST backend. An empty UserAgent
// sends panel-cli/<version>.
type APIConfig struct {
	BaseURL    string          `koanf:"base_url"    validate:"required,base_url" env:"PANEL_BASE_URL"    flag:"base-url"`
	Timeout    time.Duration   `koanf:"timeout"     validate:"min=0"             env:"PANEL_TIMEOUT"     flag:"timeout"`
	APIKey     SensitiveString `koanf:"api_key"                                  env:"PANEL_API_KEY"                     sensitive:"true"`
	Cookie     SensitiveString `koanf:"cookie"                                   env:"PANEL_SESSION_COOKIE"              sensitive:"true"`
	RetryCount int             `koanf:"retry_count" validate:"min=0,max=5"       env:"PANEL_RETRY_COUNT"`
	UserAgent  string          `koanf:"user_agent"                               env:"PANEL_USER_AGENT"`
}

// SessionConfig carries the identity of the operator using the panel.
// When User is empty it is resolved from the backend at startup.
type SessionConfig struct {
	User string `koanf:"user" env:"PANEL_SESSION_USER" flag:"session-user"`
}

// ListConfig tunes the list view controllers.
type ListConfig struct {
	PageSize        int           `koanf:"page_size"         validate:"min=1,max=500" env:"PANEL_LIST_PAGE_SIZE" flag:"page-size"`
	Debounce        time.Duration `koanf:"debounce"          validate:"min=0"         env:"PANEL_LIST_DEBOUNCE"`
	MinSearchLength int           `koanf:"min_search_length" validate:"min=1"         env:"PANEL_LIST_MIN_SEARCH_LENGTH"`
	RequestTimeout  time.Duration `koanf:"request_timeout"   validate:"min=0"         env:"PANEL_LIST_REQUEST_TIMEOUT"`
}

// MutationConfig tunes the mutation coordinators.
type MutationConfig struct {
	// Timeout bounds a single submit or remove. Reaching it releases the
	// submission lock and reports a network error.
	Timeout time.Duration `koanf:"timeout" validate:"min=0" env:"PANEL_MUTATION_TIMEOUT"`
}

// NotifyConfig sizes the notification queue.
type NotifyConfig struct {
	QueueSize int           `koanf:"queue_size" validate:"min=1" env:"PANEL_NOTIFY_QUEUE_SIZE"`
	TTL       time.Duration `koanf:"ttl"        validate:"min=0" env:"PANEL_NOTIFY_TTL"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"PANEL_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled" env:"PANEL_LOG_LEVEL" flag:"log-level"`
	LogJSON     bool   `koanf:"log_json"                                                    env:"PANEL_LOG_JSON"  flag:"log-json"`
}

// CLIConfig contains CLI-specific configuration.
type CLIConfig struct {
	Format      string `koanf:"format"       validate:"oneof=auto json tui" env:"PANEL_FORMAT"       flag:"format"`
	Interactive bool   `koanf:"interactive"                                 env:"PANEL_INTERACTIVE"`
	EnvFile     string `koanf:"env_file"                                    env:"PANEL_ENV_FILE"     flag:"env-file"`
}

// MockConfig configures the in-memory mock backend.
type MockConfig struct {
	Addr        string        `koanf:"addr"         validate:"required" env:"PANEL_MOCK_ADDR"         flag:"addr"`
	Seed        bool          `koanf:"seed"                             env:"PANEL_MOCK_SEED"         flag:"seed"`
	SessionUser string        `koanf:"session_user"                     env:"PANEL_MOCK_SESSION_USER"`
	SMSBalance  string        `koanf:"sms_balance"  validate:"numeric"  env:"PANEL_MOCK_SMS_BALANCE"`
	SMSCost     string        `koanf:"sms_cost"     validate:"numeric"  env:"PANEL_MOCK_SMS_COST"`
	SMSRate     string        `koanf:"sms_rate"     validate:"required" env:"PANEL_MOCK_SMS_RATE"`
	Latency     time.Duration `koanf:"latency"      validate:"min=0"    env:"PANEL_MOCK_LATENCY"`
	SMSValidity time.Duration `koanf:"sms_validity" validate:"min=0"    env:"PANEL_MOCK_SMS_VALIDITY"`
}

// SensitiveString hides secrets from logs and JSON output.
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// Value returns the underlying secret.
func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns which source (default, yaml, env, cli) provided a key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	Load() (map[string]any, error)
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration using the default service.
func Load(ctx context.Context) (*Config, error) {
	return NewService().Load(ctx)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    15 * time.Second,
			RetryCount: 0,
		},
		List: ListConfig{
			PageSize:        5,
			Debounce:        300 * time.Millisecond,
			MinSearchLength: 2,
			RequestTimeout:  15 * time.Second,
		},
		Mutation: MutationConfig{
			Timeout: 30 * time.Second,
		},
		Notify: NotifyConfig{
			QueueSize: 32,
			TTL:       4 * time.Second,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		CLI: CLIConfig{
			Format: "auto",
		},
		Mock: MockConfig{
			Addr:        "127.0.0.1:8000",
			Seed:        true,
			SessionUser: "admin",
			SMSBalance:  "100",
			SMSCost:     "1.5",
			SMSRate:     "10-M",
			SMSValidity: 30 * 24 * time.Hour,
		},
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. TUTOR_LOG_LEVEL.
const EnvPrefix = "TUTOR"

// ProviderConfig represents configuration for a single LLM provider.
type ProviderConfig struct {
	Options ProviderOptions `yaml:"options" json:"options"`
}

// ProviderOptions contains the SDK-level options for a provider.
type ProviderOptions struct {
	APIKey      string  `yaml:"apiKey" json:"apiKey" envconfig:"API_KEY"`
	BaseURL     string  `yaml:"baseURL" json:"baseURL" envconfig:"BASE_URL"`
	Model       string  `yaml:"model" json:"model" envconfig:"MODEL"`
	ProjectID   string  `yaml:"projectID" json:"projectID" envconfig:"PROJECT_ID"`   // For Vertex AI
	Location    string  `yaml:"location" json:"location" envconfig:"LOCATION"`       // For Vertex AI
	Timeout     int     `yaml:"timeout" json:"timeout" envconfig:"TIMEOUT"`          // Request timeout in ms
	Temperature float64 `yaml:"temperature" json:"temperature" envconfig:"TEMP"`     // Sampling temperature
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens" envconfig:"MAX_TOKENS"` // Max tokens to generate
}

// HTTPConfig contains the assistant API server settings.
type HTTPConfig struct {
	Addr       string `yaml:"addr" envconfig:"ADDR"`
	APIKey     string `yaml:"api_key" envconfig:"API_KEY"`
	DailyLimit int    `yaml:"daily_limit" envconfig:"DAILY_LIMIT"` // Assistant calls per identity per day, negative disables
}

// PlatformConfig points the client at the two backends: the regular course
// API and the assistant API.
type PlatformConfig struct {
	BaseURL   string        `yaml:"base_url" envconfig:"BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	AIBaseURL string        `yaml:"ai_base_url" envconfig:"AI_BASE_URL"`
	AITimeout time.Duration `yaml:"ai_timeout" envconfig:"AI_TIMEOUT"`
}

// WalletConfig tunes wallet reconnection.
type WalletConfig struct {
	MaxRetries    int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	RetryInterval time.Duration `yaml:"retry_interval" envconfig:"RETRY_INTERVAL"`
	DisabledViews []string      `yaml:"disabled_views" envconfig:"DISABLED_VIEWS"`
}

// AssistantConfig tunes the tutoring chat.
type AssistantConfig struct {
	HintRetries    int           `yaml:"hint_retries" envconfig:"HINT_RETRIES"`
	HintRetryDelay time.Duration `yaml:"hint_retry_delay" envconfig:"HINT_RETRY_DELAY"`
	TypingSpeed    time.Duration `yaml:"typing_speed" envconfig:"TYPING_SPEED"`
	IncludeDiff    bool          `yaml:"include_diff" envconfig:"INCLUDE_DIFF"`
	HintQuestion   string        `yaml:"hint_question" envconfig:"HINT_QUESTION"`
}

// Config is the root configuration structure.
type Config struct {
	// ActiveProvider explicitly sets the active provider (optional).
	// If not set, auto-detection is used based on available API keys.
	ActiveProvider string `yaml:"active_provider" envconfig:"ACTIVE_PROVIDER"`

	// LogLevel controls structured logging verbosity (DEBUG, VERBOSE, INFO, WARNING, ERROR).
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// DataDir holds the persisted auth record and chat transcript.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	// Providers is a map of provider ID to its configuration.
	Providers map[string]ProviderConfig `yaml:"provider"`

	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Platform  PlatformConfig  `yaml:"platform" envconfig:"PLATFORM"`
	Wallet    WalletConfig    `yaml:"wallet" envconfig:"WALLET"`
	Assistant AssistantConfig `yaml:"assistant" envconfig:"ASSISTANT"`

	// DevMode enables development features like Swagger UI.
	DevMode bool `yaml:"dev_mode" envconfig:"DEV_MODE"`
}

// ProviderEnvVars maps provider IDs to their environment variable names for auto-detection.
// The first env var in the list that is set will be used.
var ProviderEnvVars = map[string]struct {
	APIKey  []string
	BaseURL []string
	Model   []string
}{
	"gemini": {
		APIKey: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"},
		Model:  []string{"GEMINI_MODEL"},
	},
	"openai": {
		APIKey:  []string{"OPENAI_API_KEY"},
		BaseURL: []string{"OPENAI_API_BASE", "OPENAI_BASE_URL"},
		Model:   []string{"OPENAI_MODEL"},
	},
	"deepseek": {
		APIKey: []string{"DEEPSEEK_API_KEY"},
		Model:  []string{"DEEPSEEK_MODEL"},
	},
}

// ProviderDefaults contains default options for each provider.
var ProviderDefaults = map[string]ProviderOptions{
	"gemini": {
		Model: "gemini-2.0-flash",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
}

// autoDetectOrder is the provider probe order when nothing is set explicitly.
var autoDetectOrder = []string{"gemini", "openai", "deepseek"}

// GetActiveProvider returns the active provider ID and its configuration.
// Priority: ActiveProvider field > First provider with API key in env > First configured provider.
func (c *Config) GetActiveProvider() (string, ProviderOptions, error) {
	if c.ActiveProvider != "" {
		if p, ok := c.Providers[c.ActiveProvider]; ok {
			opts := mergeOptions(ProviderDefaults[c.ActiveProvider], p.Options)
			return c.ActiveProvider, opts, nil
		}
		if opts, ok := c.detectProviderFromEnv(c.ActiveProvider); ok {
			return c.ActiveProvider, opts, nil
		}
		return "", ProviderOptions{}, fmt.Errorf("active provider %q not configured", c.ActiveProvider)
	}

	for _, providerID := range autoDetectOrder {
		if opts, ok := c.detectProviderFromEnv(providerID); ok {
			return providerID, opts, nil
		}
	}

	for _, providerID := range autoDetectOrder {
		if p, ok := c.Providers[providerID]; ok && p.Options.APIKey != "" {
			return providerID, mergeOptions(ProviderDefaults[providerID], p.Options), nil
		}
	}

	return "", ProviderOptions{}, fmt.Errorf("no provider configured or detected")
}

// detectProviderFromEnv checks if a provider can be configured from environment variables.
func (c *Config) detectProviderFromEnv(providerID string) (ProviderOptions, bool) {
	envVars, ok := ProviderEnvVars[providerID]
	if !ok {
		return ProviderOptions{}, false
	}

	apiKey := firstEnv(envVars.APIKey)
	if apiKey == "" {
		return ProviderOptions{}, false
	}

	opts := ProviderDefaults[providerID]
	opts.APIKey = apiKey
	if v := firstEnv(envVars.BaseURL); v != "" {
		opts.BaseURL = v
	}
	if v := firstEnv(envVars.Model); v != "" {
		opts.Model = v
	}

	// Merge with config if exists
	if p, ok := c.Providers[providerID]; ok {
		opts = mergeOptions(opts, p.Options)
	}

	return opts, true
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// mergeOptions merges two ProviderOptions, with 'override' taking precedence.
func mergeOptions(base, override ProviderOptions) ProviderOptions {
	result := base
	if override.APIKey != "" {
		result.APIKey = override.APIKey
	}
	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	if override.ProjectID != "" {
		result.ProjectID = override.ProjectID
	}
	if override.Location != "" {
		result.Location = override.Location
	}
	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	// 0 means unset for Temperature; an explicit 0.0 cannot be expressed here.
	if override.Temperature > 0 {
		result.Temperature = override.Temperature
	}
	if override.MaxTokens != 0 {
		result.MaxTokens = override.MaxTokens
	}
	return result
}

// Load reads configuration from the specified path, or defaults if path is empty.
// Priority: Env Vars > Config File > Defaults
func Load(path string) (*Config, error) {
	// Try loading .env files (ignore error if not present)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			defaultPath := filepath.Join(home, ".movelearn", "config.yaml")
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
			}
		}

		// Local config.yaml wins over the home directory one.
		localPath := "config.yaml"
		if _, err := os.Stat(localPath); err == nil {
			path = localPath
		}
	}

	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// This will override values from config file if set in Env
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.DataDir == "" {
		c.DataDir = ".movelearn"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8100"
	}
	if c.HTTP.DailyLimit == 0 {
		c.HTTP.DailyLimit = 50
	}
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = "http://localhost:3000/back"
	}
	if c.Platform.Timeout == 0 {
		c.Platform.Timeout = 30 * time.Second
	}
	if c.Platform.AIBaseURL == "" {
		c.Platform.AIBaseURL = "http://localhost:8100"
	}
	if c.Platform.AITimeout == 0 {
		c.Platform.AITimeout = 1000 * time.Second
	}
	if c.Wallet.MaxRetries == 0 {
		c.Wallet.MaxRetries = 3
	}
	if c.Wallet.RetryInterval == 0 {
		c.Wallet.RetryInterval = 2 * time.Second
	}
	if c.Wallet.DisabledViews == nil {
		c.Wallet.DisabledViews = []string{"/login", "/"}
	}
	if c.Assistant.HintRetries == 0 {
		c.Assistant.HintRetries = 2
	}
	if c.Assistant.HintRetryDelay == 0 {
		c.Assistant.HintRetryDelay = time.Second
	}
	if c.Assistant.TypingSpeed == 0 {
		c.Assistant.TypingSpeed = 30 * time.Millisecond
	}
	if c.Assistant.HintQuestion == "" {
		c.Assistant.HintQuestion = "我正在学习Move语言，可以给我一些学习提示或建议吗？"
	}
}

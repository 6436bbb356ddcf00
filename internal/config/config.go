package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/crowquill/internal/decision"
	"github.com/user/crowquill/internal/types"
)

// BackendConfig holds credentials and defaults for one generation backend.
type BackendConfig struct {
	BaseURL     string  `json:"base_url,omitempty"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

// DecisionConfig is the decision-engine configuration shared between
// the global and per-account layers.
type DecisionConfig struct {
	Enabled          bool                         `json:"enabled"`
	UseSentiment     bool                         `json:"use_sentiment"`
	PreferStructured bool                         `json:"prefer_structured"`
	DefaultKind      string                       `json:"default_kind"`
	Thresholds       *decision.ThresholdOverrides `json:"thresholds,omitempty"`
}

// AccountConfig configures one managed account.
type AccountConfig struct {
	ID          types.AccountID `json:"id"`
	Active      bool            `json:"active"`
	SelfHandles []string        `json:"self_handles"`
	Keywords    []string        `json:"keywords"`

	// Source is the content feed for candidates; StyleSource (optional)
	// is the feed for the account's own posts.
	Source      string `json:"source"`
	StyleSource string `json:"style_source,omitempty"`

	// SessionSchedule is a cron expression for recurring sessions.
	SessionSchedule string `json:"session_schedule,omitempty"`

	ActionsPerHour  int `json:"actions_per_hour"`
	MaxHours        int `json:"max_hours"`
	MinDelaySeconds int `json:"min_delay_seconds"`
	MaxDelaySeconds int `json:"max_delay_seconds"`
	RetryLimit      int `json:"retry_limit"`

	PreferredBackend    string          `json:"preferred_backend,omitempty"`
	StylePromptTemplate string          `json:"style_prompt_template,omitempty"`
	Decision            *DecisionConfig `json:"decision,omitempty"`
}

type Config struct {
	DataDir               string `json:"data_dir"`
	LogLevel              string `json:"log_level"`
	MaxConcurrentAccounts int    `json:"max_concurrent_accounts"`
	LLM                   struct {
		PreferenceOrder  []string      `json:"preference_order"`
		DefaultMaxTokens int           `json:"default_max_tokens"`
		OpenAI           BackendConfig `json:"openai"`
		Azure            BackendConfig `json:"azure"`
		Gemini           BackendConfig `json:"gemini"`
		MaxContextTokens int           `json:"max_context_tokens"`
		OutputReserve    int           `json:"output_reserve"`
	} `json:"llm"`
	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
	Decision DecisionConfig  `json:"decision"`
	Accounts []AccountConfig `json:"accounts"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:               filepath.Join(os.Getenv("HOME"), ".crowquill"),
		LogLevel:              "info",
		MaxConcurrentAccounts: 2,
	}
	cfg.LLM.PreferenceOrder = []string{"openai", "gemini"}
	cfg.LLM.DefaultMaxTokens = 250
	cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	cfg.LLM.OpenAI.Model = "gpt-4o-mini"
	cfg.LLM.Gemini.Model = "gemini-1.5-flash"
	cfg.LLM.MaxContextTokens = 128000
	cfg.LLM.OutputReserve = 4096
	cfg.Decision = DecisionConfig{
		Enabled:          true,
		UseSentiment:     true,
		PreferStructured: true,
		DefaultKind:      string(types.ActionRepost),
	}

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := writeDefaults(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.OpenAI.BaseURL = baseURL
	}
	if apiKey := os.Getenv("AZURE_OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.Azure.APIKey = apiKey
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.LLM.Gemini.APIKey = apiKey
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// ActiveAccounts returns the accounts with Active set.
func (c *Config) ActiveAccounts() []AccountConfig {
	var out []AccountConfig
	for _, account := range c.Accounts {
		if account.Active {
			out = append(out, account)
		}
	}
	return out
}

// AccountDecision resolves the decision configuration for one account,
// layering the account block over the global block.
func (c *Config) AccountDecision(account AccountConfig) decision.Config {
	base := c.Decision
	var accountThresholds *decision.ThresholdOverrides
	if account.Decision != nil {
		base = *account.Decision
		accountThresholds = account.Decision.Thresholds
	}
	kind := types.ActionKind(base.DefaultKind)
	if kind == "" {
		kind = types.ActionRepost
	}
	return decision.Config{
		Enabled:          base.Enabled,
		UseSentiment:     base.UseSentiment,
		PreferStructured: base.PreferStructured,
		DefaultKind:      kind,
		Thresholds:       decision.Resolve(accountThresholds, c.Decision.Thresholds),
		Keywords:         account.Keywords,
	}
}

// Validate reports malformed account entries. A bad account is a fault
// for that account only; callers skip it and proceed with siblings.
func (a AccountConfig) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("account id required")
	}
	if a.Source == "" {
		return fmt.Errorf("account %s: source required", a.ID)
	}
	if a.ActionsPerHour < 1 {
		return fmt.Errorf("account %s: actions_per_hour must be at least 1", a.ID)
	}
	if a.MaxHours < 1 {
		return fmt.Errorf("account %s: max_hours must be at least 1", a.ID)
	}
	return nil
}

// MinDelay returns the configured minimum inter-action delay.
func (a AccountConfig) MinDelay() time.Duration {
	return time.Duration(a.MinDelaySeconds) * time.Second
}

// MaxDelay returns the configured maximum inter-action delay.
func (a AccountConfig) MaxDelay() time.Duration {
	return time.Duration(a.MaxDelaySeconds) * time.Second
}

func writeDefaults(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename default config: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"faqbot/internal/domain"
)

const defaultThreshold = 0.2

// Pipeline and surface selectors.
const (
	ModeRetrieval = "retrieval"
	ModeLLM       = "llm"

	UITUI  = "tui"
	UIHTTP = "http"
)

// RetrievalConfig tunes the FAQ matcher.
type RetrievalConfig struct {
	Threshold  float64 `yaml:"threshold" env:"FAQBOT_THRESHOLD"`
	TopicCount int     `yaml:"topic_count"`
}

// LLMConfig configures the OpenAI-compatible completion endpoint. The API
// key is only ever read from the environment.
type LLMConfig struct {
	BaseURL       string `yaml:"base_url" env:"OPENAI_BASE_URL"`
	APIKey        string `yaml:"-" env:"OPENAI_API_KEY"`
	Model         string `yaml:"model" env:"OPENAI_MODEL"`
	HistoryWindow int    `yaml:"history_window" env:"FAQBOT_HISTORY_WINDOW"`
	TimeoutSecs   int    `yaml:"timeout_secs"`
}

// PromptConfig personalises the system instruction.
type PromptConfig struct {
	AgentName      string `yaml:"agent_name"`
	Company        string `yaml:"company"`
	SupportContact string `yaml:"support_contact" env:"FAQBOT_SUPPORT_CONTACT"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"FAQBOT_ADDR"`
}

// LogConfig configures zap. An empty file logs to stderr.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	File  string `yaml:"file" env:"FAQBOT_LOG_FILE"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Mode      string          `yaml:"mode" env:"FAQBOT_MODE"`
	UI        string          `yaml:"ui" env:"FAQBOT_UI"`
	FAQPath   string          `yaml:"faq_path" env:"FAQBOT_FAQ_PATH"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	LLM       LLMConfig       `yaml:"llm"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads a config from a specified path, then applies environment
// overrides. If the file does not exist, defaults are used.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fromEnv(newConfig())
		}
		return nil, &domain.ConfigError{Op: "read " + path, Err: err}
	}
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &domain.ConfigError{Op: "parse " + path, Err: err}
	}
	return fromEnv(cfg)
}

// LoadDefault tries ./config.yaml first, then ~/.config/faqbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/faqbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	if err := Save(userPath, defaultConfig()); err != nil {
		return nil, "", err
	}
	cfg, err := fromEnv(newConfig())
	return cfg, userPath, err
}

// Save writes the config to the given path, creating directories as needed.
// The API key is never written.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports the first invalid setting as a *domain.ConfigError.
func (c *AppConfig) Validate() error {
	switch c.Mode {
	case ModeRetrieval, ModeLLM:
	default:
		return &domain.ConfigError{Op: "validate mode", Err: fmt.Errorf("unknown mode %q", c.Mode)}
	}
	switch c.UI {
	case UITUI, UIHTTP:
	default:
		return &domain.ConfigError{Op: "validate ui", Err: fmt.Errorf("unknown ui %q", c.UI)}
	}
	if c.Retrieval.Threshold < 0 || c.Retrieval.Threshold > 1 {
		return &domain.ConfigError{Op: "validate retrieval.threshold", Err: fmt.Errorf("%v outside [0,1]", c.Retrieval.Threshold)}
	}
	if c.Mode == ModeLLM {
		if c.LLM.APIKey == "" {
			return &domain.ConfigError{Op: "validate llm", Err: fmt.Errorf("%w: set OPENAI_API_KEY", domain.ErrMissingAPIKey)}
		}
		if c.LLM.HistoryWindow <= 0 {
			return &domain.ConfigError{Op: "validate llm.history_window", Err: fmt.Errorf("must be positive, got %d", c.LLM.HistoryWindow)}
		}
	}
	return nil
}

// fromEnv applies environment overrides, then fills remaining defaults.
func fromEnv(cfg *AppConfig) (*AppConfig, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, &domain.ConfigError{Op: "parse environment", Err: err}
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "faqbot", "config.yaml"), nil
}

// newConfig seeds the settings whose zero value is meaningful. Zero is a
// valid threshold (always answer), so its default is set before the file and
// environment are read rather than filled in afterwards.
func newConfig() *AppConfig {
	return &AppConfig{Retrieval: RetrievalConfig{Threshold: defaultThreshold}}
}

func defaultConfig() *AppConfig {
	cfg := newConfig()
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRetrieval
	}
	if cfg.UI == "" {
		cfg.UI = UITUI
	}
	if cfg.FAQPath == "" {
		cfg.FAQPath = "faq_data.json"
	}
	if cfg.Retrieval.TopicCount == 0 {
		cfg.Retrieval.TopicCount = 3
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.HistoryWindow == 0 {
		cfg.LLM.HistoryWindow = 5
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Prompt.AgentName == "" {
		cfg.Prompt.AgentName = "Ava"
	}
	if cfg.Prompt.Company == "" {
		cfg.Prompt.Company = "our company"
	}
	if cfg.Prompt.SupportContact == "" {
		cfg.Prompt.SupportContact = "support@example.com"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	// The TUI owns the terminal, so its logs go to a file.
	if cfg.Log.File == "" && cfg.UI == UITUI {
		cfg.Log.File = "faqbot.log"
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for testgen.
// It is built once per process and passed down; nothing mutates it afterwards.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	IDE      IDEConfig      `yaml:"ide"`
	Budget   BudgetConfig   `yaml:"budget"`
	Context  ContextConfig  `yaml:"context"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LLMConfig holds chat model configuration.
type LLMConfig struct {
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"base_url"`    // empty means the provider default
	APIKeyEnv      string        `yaml:"api_key_env"` // environment variable holding the API key
	Temperature    float32       `yaml:"temperature"`
	JSONMode       bool          `yaml:"json_mode"` // ask for json_object responses
	Stream         bool          `yaml:"stream"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
}

// IDEConfig holds the IDE bridge endpoint.
type IDEConfig struct {
	URL     string        `yaml:"url"`      // overrides PortEnv when set
	PortEnv string        `yaml:"port_env"` // environment variable holding the bridge port
	Timeout time.Duration `yaml:"timeout"`
}

// BudgetConfig holds token budget configuration.
type BudgetConfig struct {
	ContextSizes       map[string]int `yaml:"context_sizes"` // merged over the built-in table
	DefaultContextSize int            `yaml:"default_context_size"`
	Encoding           string         `yaml:"encoding"`
	ProposeFactor      float64        `yaml:"propose_factor"`
	WriteFactor        float64        `yaml:"write_factor"`
	RecommendFactor    float64        `yaml:"recommend_factor"`
	ReferenceFactor    float64        `yaml:"reference_factor"`
}

// ContextConfig holds context discovery configuration.
type ContextConfig struct {
	// ReferenceMatch decides whether the function body references a symbol
	// name. "identifier" (the default) requires the name's last word to occur
	// as a whole identifier, so "id" does not match "valid". "substring" is
	// plain substring containment of the name in the body.
	ReferenceMatch        string `yaml:"reference_match"`
	Recommend             bool   `yaml:"recommend"`
	MaxRecommendedSymbols int    `yaml:"max_recommended_symbols"`
	SymbolCache           bool   `yaml:"symbol_cache"`
	MaxReferenceFiles     int    `yaml:"max_reference_files"`
}

// WorkflowConfig holds per-workflow state locations and prompt language.
type WorkflowConfig struct {
	Name         string `yaml:"name"`
	StateDir     string `yaml:"state_dir"` // relative to the repo root
	ChatLanguage string `yaml:"chat_language"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"` // rotating JSON log, disabled when empty
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

const (
	MatchIdentifier = "identifier"
	MatchSubstring  = "substring"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "gpt-4-turbo-preview",
			APIKeyEnv:      "OPENAI_API_KEY",
			Temperature:    0.1,
			JSONMode:       true,
			Stream:         true,
			Timeout:        120 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			RetryMaxDelay:  10 * time.Second,
		},
		IDE: IDEConfig{
			PortEnv: "DEVCHAT_IDE_SERVICE_PORT",
			Timeout: 30 * time.Second,
		},
		Budget: BudgetConfig{
			DefaultContextSize: 4000,
			Encoding:           "cl100k_base",
			ProposeFactor:      0.95,
			WriteFactor:        0.9,
			RecommendFactor:    0.9,
			ReferenceFactor:    0.95,
		},
		Context: ContextConfig{
			ReferenceMatch:        MatchIdentifier,
			Recommend:             true,
			MaxRecommendedSymbols: 10,
			SymbolCache:           true,
			MaxReferenceFiles:     3,
		},
		Workflow: WorkflowConfig{
			Name:         "unit_tests",
			StateDir:     filepath.Join(".chat", "workflows"),
			ChatLanguage: "English",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for testgen.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "testgen.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".chat", "testgen.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies the environment variables the IDE sets for workflows.
func (c *Config) applyEnv() {
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_API_BASE"); v != "" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("TESTGEN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TESTGEN_CHAT_LANGUAGE"); v != "" {
		c.Workflow.ChatLanguage = v
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model must not be empty"))
	}
	if c.LLM.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("llm.max_retries must be at least 1, got %d", c.LLM.MaxRetries))
	}
	for name, f := range map[string]float64{
		"budget.propose_factor":   c.Budget.ProposeFactor,
		"budget.write_factor":     c.Budget.WriteFactor,
		"budget.recommend_factor": c.Budget.RecommendFactor,
		"budget.reference_factor": c.Budget.ReferenceFactor,
	} {
		if f <= 0 || f > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %v", name, f))
		}
	}
	if c.Budget.DefaultContextSize <= 0 {
		errs = append(errs, fmt.Errorf("budget.default_context_size must be positive, got %d", c.Budget.DefaultContextSize))
	}
	switch c.Context.ReferenceMatch {
	case MatchIdentifier, MatchSubstring:
	default:
		errs = append(errs, fmt.Errorf("context.reference_match must be %q or %q, got %q", MatchIdentifier, MatchSubstring, c.Context.ReferenceMatch))
	}
	if c.Context.MaxRecommendedSymbols < 0 {
		errs = append(errs, fmt.Errorf("context.max_recommended_symbols must not be negative, got %d", c.Context.MaxRecommendedSymbols))
	}
	if c.Workflow.Name == "" {
		errs = append(errs, errors.New("workflow.name must not be empty"))
	}
	return errors.Join(errs...)
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IDEURL returns the bridge base URL, or an error when neither url nor the port env is set.
func (c *Config) IDEURL() (string, error) {
	if c.IDE.URL != "" {
		return c.IDE.URL, nil
	}
	port := os.Getenv(c.IDE.PortEnv)
	if port == "" {
		return "", fmt.Errorf("IDE service not configured: set ide.url or %s", c.IDE.PortEnv)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid %s=%q: %w", c.IDE.PortEnv, port, err)
	}
	return "http://localhost:" + port, nil
}

// WorkflowDir returns the state directory of the configured workflow.
func WorkflowDir(root string, cfg *Config) string {
	return filepath.Join(root, cfg.Workflow.StateDir, cfg.Workflow.Name)
}

// LocalCacheDir returns the directory of the JSON local cache files.
func LocalCacheDir(root string, cfg *Config) string {
	return filepath.Join(WorkflowDir(root, cfg), "local_cache")
}

// StoreDBPath returns the path to the bbolt state database.
func StoreDBPath(root string, cfg *Config) string {
	return filepath.Join(WorkflowDir(root, cfg), "testgen.db")
}

// EnsureWorkflowDir ensures the workflow state directory exists.
func EnsureWorkflowDir(root string, cfg *Config) error {
	return os.MkdirAll(WorkflowDir(root, cfg), 0755)
}

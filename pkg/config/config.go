package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigVersion  = "1.0"
	ConfigDirName  = ".sidekick"
	ConfigFileName = "config.json"

	// ModelAuto lets the client walk the configured fallback chain instead of
	// pinning a single model.
	ModelAuto = "auto"
)

// GenerationParams is the per-command temperature and token budget table.
type GenerationParams struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Config is the application configuration, persisted as JSON under
// ~/.sidekick/config.json.
type Config struct {
	Version string `json:"version"`

	// Endpoint configuration
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	// Model selection: a pinned model identifier or "auto" to walk the
	// fallback chain in order.
	Model         string   `json:"model"`
	FallbackChain []string `json:"fallback_chain"`

	// Resilience knobs. A zero MaxRetries means "use the default"; set -1 to
	// disable retries entirely.
	TimeoutSeconds    int `json:"timeout_seconds"`
	MaxRetries        int `json:"max_retries"`
	RetryAfterSeconds int `json:"retry_after_seconds"`

	// Conversation bounds. A zero MaxContextWindow means "use the default";
	// set -1 to send the full history on every turn.
	MaxHistoryLength int `json:"max_history_length"`
	MaxContextWindow int `json:"max_context_window"`

	// Session storage backend: "json" or "sqlite"
	Storage string `json:"storage"`

	// Bridge server port for editor integration
	BridgePort int `json:"bridge_port,omitempty"`

	// Per-command generation overrides, keyed by command name.
	CommandParams map[string]GenerationParams `json:"command_params,omitempty"`
}

// DefaultConfig returns a config with workable defaults for a local
// OpenAI-compatible endpoint.
func DefaultConfig() *Config {
	return &Config{
		Version: ConfigVersion,
		BaseURL: "http://localhost:11434/v1",
		Model:   ModelAuto,
		FallbackChain: []string{
			"qwen2.5-coder:7b",
			"codellama:7b",
			"llama3.2:3b",
		},
		TimeoutSeconds:    30,
		MaxRetries:        2,
		RetryAfterSeconds: 300,
		MaxHistoryLength:  50,
		MaxContextWindow:  20,
		Storage:           "json",
		BridgePort:        47823,
		CommandParams: map[string]GenerationParams{
			"analyze":  {Temperature: 0.3, MaxTokens: 1500},
			"suggest":  {Temperature: 0.5, MaxTokens: 1200},
			"explain":  {Temperature: 0.4, MaxTokens: 1500},
			"optimize": {Temperature: 0.3, MaxTokens: 2000},
			"debug":    {Temperature: 0.2, MaxTokens: 1500},
			"summary":  {Temperature: 0.4, MaxTokens: 800},
			"chat":     {Temperature: 0.7, MaxTokens: 1000},
		},
	}
}

// ParamsFor returns the generation parameters for a command, falling back to
// the "chat" entry and then to a conservative default.
func (c *Config) ParamsFor(command string) GenerationParams {
	if p, ok := c.CommandParams[command]; ok {
		return p
	}
	if p, ok := c.CommandParams["chat"]; ok {
		return p
	}
	return GenerationParams{Temperature: 0.7, MaxTokens: 1000}
}

// Timeout returns the per-attempt request timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Retries returns the per-model retry count. -1 in the file means no retries.
func (c *Config) Retries() int {
	if c.MaxRetries < 0 {
		return 0
	}
	return c.MaxRetries
}

// ContextWindow returns how many trailing messages go to the model on a
// conversational turn. 0 means unbounded (set via -1 in the file).
func (c *Config) ContextWindow() int {
	if c.MaxContextWindow < 0 {
		return 0
	}
	return c.MaxContextWindow
}

// RetryAfter returns the circuit breaker cooldown duration.
func (c *Config) RetryAfter() time.Duration {
	if c.RetryAfterSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.RetryAfterSeconds) * time.Second
}

// Models resolves the attempt sequence for a request: the pinned model, or
// the fallback chain when the model is "auto". Duplicates are removed so each
// model appears at most once per attempt sequence.
func (c *Config) Models() []string {
	var chain []string
	if c.Model != "" && c.Model != ModelAuto {
		chain = []string{c.Model}
	} else {
		chain = c.FallbackChain
	}
	seen := make(map[string]bool, len(chain))
	out := make([]string, 0, len(chain))
	for _, m := range chain {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// Variable to allow overriding the config dir for testing.
var getConfigDirFunc = defaultGetConfigDir

// GetConfigDir returns the sidekick state directory, creating it if needed.
func GetConfigDir() (string, error) {
	return getConfigDirFunc()
}

func defaultGetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ConfigDirName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Load reads the config file, creating it with defaults when absent.
func Load() (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if saveErr := cfg.Save(); saveErr != nil {
			return nil, saveErr
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyMissingDefaults()
	return &cfg, nil
}

// Save writes the config file with restrictive permissions since it may hold
// credentials.
func (c *Config) Save() error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600)
}

// applyMissingDefaults fills zero-valued fields from the defaults so configs
// written by older versions keep working.
func (c *Config) applyMissingDefaults() {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if len(c.FallbackChain) == 0 {
		c.FallbackChain = def.FallbackChain
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryAfterSeconds == 0 {
		c.RetryAfterSeconds = def.RetryAfterSeconds
	}
	if c.MaxHistoryLength == 0 {
		c.MaxHistoryLength = def.MaxHistoryLength
	}
	if c.MaxContextWindow == 0 {
		c.MaxContextWindow = def.MaxContextWindow
	}
	if c.Storage == "" {
		c.Storage = def.Storage
	}
	if c.BridgePort == 0 {
		c.BridgePort = def.BridgePort
	}
	if c.CommandParams == nil {
		c.CommandParams = def.CommandParams
	}
}

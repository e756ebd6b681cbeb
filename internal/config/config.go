package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigSource represents where the configuration was loaded from
type ConfigSource string

const (
	SourceCLI         ConfigSource = "cli"          // From command line argument
	SourceEnv         ConfigSource = "env"          // From environment variables
	SourceConfigFile  ConfigSource = "config-file"  // From ~/.config/jsmcp/config.yaml
	SourceNATSContext ConfigSource = "nats-context" // From NATS CLI contexts
	SourceDefault     ConfigSource = "default"      // Default configuration
)

// Transport selects how the MCP server talks to its client.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
)

const defaultServer = "nats://localhost:4222"

// Config represents the application configuration
type Config struct {
	Contexts       []Context `yaml:"contexts"`
	DefaultContext string    `yaml:"default_context"`

	// Server-side settings, resolved from flags and environment.
	Transport    Transport `yaml:"transport,omitempty"`
	Port         int       `yaml:"port,omitempty"`
	BackupBucket string    `yaml:"backup_bucket,omitempty"`
	MetricsURL   string    `yaml:"metrics_url,omitempty"`

	currentContext *Context
	source         ConfigSource
	sourcePath     string
}

// Context represents a NATS server connection context
type Context struct {
	Name         string `yaml:"name"`
	Server       string `yaml:"server"`
	Domain       string `yaml:"domain,omitempty"`
	Token        string `yaml:"token,omitempty"`
	Creds        string `yaml:"creds,omitempty"`
	CredsContent string `yaml:"creds_content,omitempty"`
}

// natsContext represents the NATS CLI context JSON format
type natsContext struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	Creds    string `json:"creds"`
	User     string `json:"user"`
	Password string `json:"password"`
	NKey     string `json:"nkey"`
}

// expandPath expands environment variables, tilde, and relative paths
// Supports:
// - Environment variables: $HOME, ${HOME}, $VAR_NAME
// - Tilde expansion: ~/path or ~
// - Relative paths: ./creds/file.creds (relative to configDir)
func expandPath(path string, configDir string) (string, error) {
	if path == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(path)

	if strings.HasPrefix(expanded, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = filepath.Join(homeDir, expanded[2:])
	} else if expanded == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = homeDir
	}

	if !filepath.IsAbs(expanded) && configDir != "" {
		expanded = filepath.Join(configDir, expanded)
	}

	return filepath.Clean(expanded), nil
}

// getNATSContextDir returns the NATS CLI context directory path
func getNATSContextDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "nats", "context"), nil
}

// getCurrentNATSContext reads the current NATS CLI context name from context.txt
func getCurrentNATSContext() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	contextFile := filepath.Join(homeDir, ".config", "nats", "context.txt")
	data, err := os.ReadFile(contextFile)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

// readNATSContext reads a NATS CLI context JSON file and converts it to our Context format
func readNATSContext(name string) (*Context, error) {
	contextDir, err := getNATSContextDir()
	if err != nil {
		return nil, err
	}

	contextPath := filepath.Join(contextDir, name+".json")
	data, err := os.ReadFile(contextPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read NATS context '%s': %w", name, err)
	}

	var natsCtx natsContext
	if err := json.Unmarshal(data, &natsCtx); err != nil {
		return nil, fmt.Errorf("failed to parse NATS context '%s': %w", name, err)
	}

	creds := natsCtx.Creds
	if creds != "" {
		creds, err = expandPath(creds, contextDir)
		if err != nil {
			return nil, fmt.Errorf("failed to expand creds path: %w", err)
		}
	}

	token := natsCtx.Token
	if token != "" && strings.Contains(token, "$") {
		token = os.ExpandEnv(token)
	}

	return &Context{
		Name:   name,
		Server: natsCtx.URL,
		Token:  token,
		Creds:  creds,
	}, nil
}

// listNATSContexts returns a list of all available NATS CLI contexts
func listNATSContexts() ([]Context, error) {
	contextDir, err := getNATSContextDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(contextDir)
	if err != nil {
		return nil, err
	}

	var contexts []Context
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		ctx, err := readNATSContext(name)
		if err != nil {
			// Skip contexts that can't be read
			continue
		}
		contexts = append(contexts, *ctx)
	}

	return contexts, nil
}

// loadFromNATSContexts creates a config from NATS CLI contexts
func loadFromNATSContexts() (*Config, error) {
	contexts, err := listNATSContexts()
	if err != nil || len(contexts) == 0 {
		return nil, fmt.Errorf("no NATS contexts found")
	}

	currentCtx, err := getCurrentNATSContext()
	if err != nil {
		currentCtx = contexts[0].Name
	}

	contextDir, _ := getNATSContextDir()

	cfg := &Config{
		Contexts:       contexts,
		DefaultContext: currentCtx,
		source:         SourceNATSContext,
		sourcePath:     filepath.Join(contextDir, currentCtx+".json"),
	}

	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == currentCtx {
			cfg.currentContext = &cfg.Contexts[i]
			break
		}
	}

	if cfg.currentContext == nil {
		cfg.currentContext = &cfg.Contexts[0]
	}

	return cfg, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Contexts: []Context{
			{
				Name:   "local",
				Server: defaultServer,
			},
		},
		DefaultContext: "local",
		source:         SourceDefault,
		sourcePath:     "built-in default",
	}
}

// fromEnv builds a context purely from environment variables, if any of the
// connection variables are set.
func fromEnv() *Config {
	url := os.Getenv("NATS_URL")
	if url == "" {
		return nil
	}
	cfg := &Config{
		Contexts: []Context{
			{
				Name:         "env",
				Server:       url,
				Domain:       os.Getenv("JSMCP_DOMAIN"),
				Token:        os.Getenv("NATS_TOKEN"),
				Creds:        os.Getenv("NATS_CREDS"),
				CredsContent: os.Getenv("NATS_CREDS_CONTENT"),
			},
		},
		DefaultContext: "env",
		source:         SourceEnv,
		sourcePath:     "NATS_URL",
	}
	cfg.currentContext = &cfg.Contexts[0]
	return cfg
}

// Load loads configuration from file, NATS contexts, or creates default.
// Resolution order for the connection: explicit serverURL argument,
// environment, config file, NATS CLI contexts, built-in default.
func Load(configPath, serverURL string) (*Config, error) {
	cfg, err := loadConnection(configPath, serverURL)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func loadConnection(configPath, serverURL string) (*Config, error) {
	if serverURL != "" {
		cfg := &Config{
			Contexts: []Context{
				{
					Name:   "cli",
					Server: serverURL,
				},
			},
			DefaultContext: "cli",
			source:         SourceCLI,
			sourcePath:     serverURL,
		}
		cfg.currentContext = &cfg.Contexts[0]
		return cfg, nil
	}

	if cfg := fromEnv(); cfg != nil {
		return cfg, nil
	}

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".config", "jsmcp", "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if cfg, err := loadFromNATSContexts(); err == nil {
			return cfg, nil
		}
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.source = SourceConfigFile
	cfg.sourcePath = configPath

	// Expand credential paths with env vars, tilde, and relative paths
	configDir := filepath.Dir(configPath)
	for i := range cfg.Contexts {
		if cfg.Contexts[i].Creds != "" {
			expanded, err := expandPath(cfg.Contexts[i].Creds, configDir)
			if err != nil {
				return nil, fmt.Errorf("failed to expand creds path for context '%s': %w", cfg.Contexts[i].Name, err)
			}
			cfg.Contexts[i].Creds = expanded
		}
		if cfg.Contexts[i].Token != "" && strings.Contains(cfg.Contexts[i].Token, "$") {
			cfg.Contexts[i].Token = os.ExpandEnv(cfg.Contexts[i].Token)
		}
	}

	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == cfg.DefaultContext {
			cfg.currentContext = &cfg.Contexts[i]
			break
		}
	}

	if cfg.currentContext == nil && len(cfg.Contexts) > 0 {
		cfg.currentContext = &cfg.Contexts[0]
	}

	return cfg, nil
}

// applyEnvOverrides layers server-setting environment variables over
// whatever the file provided. Explicit flag values are applied later by the
// caller and win over both.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("JSMCP_TRANSPORT"); v != "" {
		c.Transport = Transport(v)
	}
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if v := os.Getenv("JSMCP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if v := os.Getenv("JSMCP_BACKUP_BUCKET"); v != "" {
		c.BackupBucket = v
	}
	if v := os.Getenv("JSMCP_METRICS_URL"); v != "" {
		c.MetricsURL = v
	}
	if v := os.Getenv("JSMCP_DOMAIN"); v != "" && c.currentContext != nil && c.currentContext.Domain == "" {
		c.currentContext.Domain = v
	}
}

// Save saves the configuration to file
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CurrentContext returns the current context
func (c *Config) CurrentContext() *Context {
	if c.currentContext != nil {
		return c.currentContext
	}
	return &Context{
		Name:   "default",
		Server: defaultServer,
	}
}

// CurrentContextName returns the current context name
func (c *Config) CurrentContextName() string {
	if c.currentContext != nil {
		return c.currentContext.Name
	}
	return "unknown"
}

// SetContext switches to a different context
func (c *Config) SetContext(name string) error {
	for i := range c.Contexts {
		if c.Contexts[i].Name == name {
			c.currentContext = &c.Contexts[i]
			c.DefaultContext = name
			return nil
		}
	}
	return fmt.Errorf("context '%s' not found", name)
}

// GetConfigSource returns where the configuration was loaded from
func (c *Config) GetConfigSource() ConfigSource {
	return c.source
}

// GetConfigSourcePath returns the specific path or identifier for the config source
func (c *Config) GetConfigSourcePath() string {
	return c.sourcePath
}

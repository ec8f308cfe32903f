package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/handlers"
	"github.com/MegaGrindStone/shopbuddy-web-ui/internal/services"
	"gopkg.in/yaml.v3"
)

type titleGeneratorConfig interface {
	titleGen(logger *slog.Logger) (handlers.TitleGenerator, error)
}

// BaseTitleGeneratorConfig contains the common fields for all title generator configurations.
type BaseTitleGeneratorConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt"`
}

type config struct {
	Port           string               `yaml:"port"`
	APIURL         string               `yaml:"apiURL"`
	LogLevel       string               `yaml:"logLevel"`
	LogFormat      string               `yaml:"logFormat"`
	TitleGenerator titleGeneratorConfig `yaml:"titleGenerator"`
	Orders         ordersConfig         `yaml:"orders"`
}

type localConfig struct {
	BaseTitleGeneratorConfig `yaml:",inline"`
}

type ollamaConfig struct {
	BaseTitleGeneratorConfig `yaml:",inline"`
	Host                     string `yaml:"host"`
}

type openAIConfig struct {
	BaseTitleGeneratorConfig `yaml:",inline"`
	APIKey                   string `yaml:"apiKey"`
	BaseURL                  string `yaml:"baseURL"`
}

type ordersConfig struct {
	Store string `yaml:"store"`
	Path  string `yaml:"path"`
}

const (
	defaultPort          = "8080"
	defaultOllamaHost    = "http://localhost:11434"
	ordersStoreMemory    = "memory"
	ordersStoreBolt      = "bolt"
	configDirName        = "shopbuddy"
	configFileName       = "config.yaml"
	ordersDBFileName     = "orders.db"
	configPathEnv        = "SHOPBUDDY_CONFIG"
	apiURLEnv            = "SHOPBUDDY_API_URL"
	ollamaHostEnv        = "OLLAMA_HOST"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	titleProviderLocal   = "local"
	titleProviderOllama  = "ollama"
	titleProviderOpenAI  = "openai"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	logFormatJSON        = "json"
	configDirPermissions = 0o755
)

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string         `yaml:"port"`
		APIURL         string         `yaml:"apiURL"`
		LogLevel       string         `yaml:"logLevel"`
		LogFormat      string         `yaml:"logFormat"`
		TitleGenerator map[string]any `yaml:"titleGenerator"`
		Orders         ordersConfig   `yaml:"orders"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.APIURL = rawConfig.APIURL
	c.LogLevel = rawConfig.LogLevel
	c.LogFormat = rawConfig.LogFormat
	c.Orders = rawConfig.Orders

	if rawConfig.TitleGenerator == nil {
		return nil
	}

	provider, ok := rawConfig.TitleGenerator["provider"].(string)
	if !ok {
		return fmt.Errorf("titleGenerator provider is required")
	}

	titleGenRawYAML, err := yaml.Marshal(rawConfig.TitleGenerator)
	if err != nil {
		return err
	}

	var titleGen titleGeneratorConfig
	switch provider {
	case titleProviderLocal:
		titleGen = &localConfig{}
	case titleProviderOllama:
		titleGen = &ollamaConfig{}
	case titleProviderOpenAI:
		titleGen = &openAIConfig{}
	default:
		return fmt.Errorf("unknown titleGenerator provider: %s", provider)
	}

	if err := yaml.Unmarshal(titleGenRawYAML, titleGen); err != nil {
		return err
	}

	c.TitleGenerator = titleGen

	return nil
}

// configPath returns the path of the configuration file, which may not exist.
func configPath() (string, error) {
	if path := os.Getenv(configPathEnv); path != "" {
		return path, nil
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config dir: %w", err)
	}
	return filepath.Join(cfgDir, configDirName, configFileName), nil
}

// loadConfig reads the configuration file at path. A missing file yields the default configuration.
func loadConfig(path string) (config, error) {
	cfg := config{}

	cfgFile, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	default:
		defer cfgFile.Close()
		if err := yaml.NewDecoder(cfgFile).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *config) applyDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if apiURL := os.Getenv(apiURLEnv); apiURL != "" {
		c.APIURL = apiURL
	}
	if c.APIURL == "" {
		c.APIURL = services.DefaultBackendURL
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.TitleGenerator == nil {
		c.TitleGenerator = &localConfig{}
	}
	if c.Orders.Store == "" {
		c.Orders.Store = ordersStoreMemory
	}
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid logLevel %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case defaultLogFormat:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case logFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown logFormat: %s", format)
}

// store opens the configured order store. cfgDir is where the bolt file lives unless a path is configured.
// The returned function releases the store.
func (o ordersConfig) store(cfgDir string) (handlers.OrderStore, func() error, error) {
	switch o.Store {
	case ordersStoreMemory:
		return services.NewMemoryOrders(), func() error { return nil }, nil
	case ordersStoreBolt:
		path := o.Path
		if path == "" {
			path = filepath.Join(cfgDir, ordersDBFileName)
		}
		if err := os.MkdirAll(filepath.Dir(path), configDirPermissions); err != nil {
			return nil, nil, fmt.Errorf("error creating orders directory: %w", err)
		}
		boltOrders, err := services.NewBoltOrders(path)
		if err != nil {
			return nil, nil, err
		}
		return boltOrders, boltOrders.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown orders store: %s", o.Store)
}

func (localConfig) titleGen(_ *slog.Logger) (handlers.TitleGenerator, error) {
	return services.Summarizer{}, nil
}

func (o ollamaConfig) titleGen(logger *slog.Logger) (handlers.TitleGenerator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	host := o.Host
	if host == "" {
		host = os.Getenv(ollamaHostEnv)
	}
	if host == "" {
		host = defaultOllamaHost
	}
	return services.NewOllama(host, o.Model, o.Prompt, logger)
}

func (o openAIConfig) titleGen(logger *slog.Logger) (handlers.TitleGenerator, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(openAIAPIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, o.Prompt, logger), nil
}

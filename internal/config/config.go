package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CKANFLOW_"

// Config defines application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	CKAN      CKANConfig      `yaml:"ckan"`
	Quality   QualityConfig   `yaml:"quality"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
}

type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" validate:"oneof=stdio http"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Path  string `yaml:"path"`
}

// CKANConfig selects and tunes the catalog backend.
type CKANConfig struct {
	ServerURL      string        `yaml:"server_url" validate:"required,url"`
	Backend        string        `yaml:"backend" validate:"oneof=mcp http"`
	MCPCommand     string        `yaml:"mcp_command" validate:"required_if=Backend mcp"`
	MCPArgs        []string      `yaml:"mcp_args"`
	Timeout        time.Duration `yaml:"timeout" validate:"min=0"`
	SearchRows     int           `yaml:"search_rows" validate:"min=1,max=1000"`
	DatastoreLimit int           `yaml:"datastore_limit" validate:"min=1,max=32000"`
	UserAgent      string        `yaml:"user_agent"`
}

// QualityConfig holds the filter threshold and level bands.
type QualityConfig struct {
	Threshold  int `yaml:"threshold" validate:"min=0,max=100"`
	Excellent  int `yaml:"excellent" validate:"max=100,gtfield=Good"`
	Good       int `yaml:"good" validate:"gtfield=Acceptable"`
	Acceptable int `yaml:"acceptable" validate:"min=0"`
}

type WorkflowConfig struct {
	ExtractLimit int `yaml:"extract_limit" validate:"min=1"`
	Concurrency  int `yaml:"concurrency" validate:"min=1,max=64"`
	MaxSteps     int `yaml:"max_steps" validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Log: LogConfig{
			Level: "info",
		},
		CKAN: CKANConfig{
			ServerURL:      "https://www.dati.gov.it/opendata",
			Backend:        "mcp",
			MCPCommand:     "ckan-mcp-server",
			Timeout:        30 * time.Second,
			SearchRows:     5,
			DatastoreLimit: 3,
			UserAgent:      "ckanflow/0.1",
		},
		Quality: QualityConfig{
			Threshold:  40,
			Excellent:  80,
			Good:       60,
			Acceptable: 40,
		},
		Workflow: WorkflowConfig{
			ExtractLimit: 5,
			Concurrency:  1,
			MaxSteps:     32,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setString(&cfg.Transport.Mode, "TRANSPORT_MODE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Path, "LOG_PATH")
	setString(&cfg.CKAN.ServerURL, "CKAN_SERVER_URL")
	setString(&cfg.CKAN.Backend, "CKAN_BACKEND")
	setString(&cfg.CKAN.MCPCommand, "CKAN_MCP_COMMAND")
	setString(&cfg.CKAN.UserAgent, "CKAN_USER_AGENT")
	if args, ok := os.LookupEnv(envPrefix + "CKAN_MCP_ARGS"); ok {
		cfg.CKAN.MCPArgs = strings.Fields(args)
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.Server.Port, "SERVER_PORT"},
		{&cfg.CKAN.SearchRows, "CKAN_SEARCH_ROWS"},
		{&cfg.CKAN.DatastoreLimit, "CKAN_DATASTORE_LIMIT"},
		{&cfg.Quality.Threshold, "QUALITY_THRESHOLD"},
		{&cfg.Quality.Excellent, "QUALITY_EXCELLENT"},
		{&cfg.Quality.Good, "QUALITY_GOOD"},
		{&cfg.Quality.Acceptable, "QUALITY_ACCEPTABLE"},
		{&cfg.Workflow.ExtractLimit, "WORKFLOW_EXTRACT_LIMIT"},
		{&cfg.Workflow.Concurrency, "WORKFLOW_CONCURRENCY"},
		{&cfg.Workflow.MaxSteps, "WORKFLOW_MAX_STEPS"},
	}
	for _, it := range ints {
		if err := setInt(it.dst, it.key); err != nil {
			return err
		}
	}

	if raw := os.Getenv(envPrefix + "CKAN_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %sCKAN_TIMEOUT: %w", envPrefix, err)
		}
		cfg.CKAN.Timeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(envPrefix + key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := os.Getenv(envPrefix + key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = v
	return nil
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds connection parameters shared by the orchestrator binaries.
type Config struct {
	// ServerAddress is the HTTP listen address of the orchestrator API.
	ServerAddress string `yaml:"server_addr"`
	// RegistryURL is the base URL of the external alarm registry service.
	RegistryURL string `yaml:"registry_url"`
	// LogSinkURL is the base URL of the external audit-log sink.
	LogSinkURL string `yaml:"log_sink_url"`
	// NotifySinkURL is the base URL of the external notification sink.
	NotifySinkURL string `yaml:"notify_sink_url"`
	// AuthSecret is the shared secret used to verify bearer credentials.
	AuthSecret string `yaml:"auth_secret"`
	// LedgerFile is the path to the JSON file persisting the trigger ledger.
	LedgerFile string `yaml:"ledger_file"`
	// LogLevel is the minimum logging level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Timeout is the duration for calls to external collaborators.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for orchestrator settings.
	DefaultConfigFilename = "alarm-orchestrator-settings.yaml"

	// DefaultLedgerFilename is the default filename for the trigger ledger JSON.
	DefaultLedgerFilename = "alarm-orchestrator-ledger.json"

	// DefaultTimeout is the default duration for upstream calls.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when the server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errRegistryURLRequired is returned when the registry base URL is missing.
	errRegistryURLRequired = errors.New("registry URL must be provided")
	// errAuthSecretRequired is returned when the auth secret is missing.
	errAuthSecretRequired = errors.New("auth secret must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file carries the auth secret.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if cfg.RegistryURL == "" {
		return errRegistryURLRequired
	}

	if cfg.AuthSecret == "" {
		return errAuthSecretRequired
	}

	for _, base := range []string{cfg.RegistryURL, cfg.LogSinkURL, cfg.NotifySinkURL} {
		if base == "" {
			continue
		}

		if _, err := url.ParseRequestURI(base); err != nil {
			return fmt.Errorf("invalid upstream URL %q: %w", base, err)
		}
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Set default ledger file if not specified.
	if cfg.LedgerFile == "" {
		cfg.LedgerFile = DefaultLedgerFilename
	}

	return nil
}

// Package config loads and saves the application settings as YAML at
// ~/.config/plainmail/config.yaml. Passwords never live here; they are
// referenced out to the system keyring.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig describes one mail server endpoint.
type ServerConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Security string `mapstructure:"security" yaml:"security"`
	Username string `mapstructure:"username" yaml:"username"`
}

// UserConfig is the sender identity stamped on outgoing mail.
type UserConfig struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Email string `mapstructure:"email" yaml:"email"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	IMAP   ServerConfig `mapstructure:"imap" yaml:"imap"`
	SMTP   ServerConfig `mapstructure:"smtp" yaml:"smtp"`
	User   UserConfig   `mapstructure:"user" yaml:"user"`
	Editor string       `mapstructure:"editor" yaml:"editor"`
}

// Complete reports whether enough is configured to connect. A fresh
// install boots into the settings screen until this holds.
func (c *AppConfig) Complete() bool {
	return c.IMAP.Host != "" && c.IMAP.Username != "" &&
		c.SMTP.Host != "" && c.User.Email != ""
}

// EditorCommand returns the configured external editor, falling back
// to $EDITOR and then vi.
func (c *AppConfig) EditorCommand() string {
	if c.Editor != "" {
		return c.Editor
	}
	if ed := strings.TrimSpace(os.Getenv("EDITOR")); ed != "" {
		return ed
	}
	return "vi"
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/plainmail/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "plainmail", "config.yaml")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		IMAP: ServerConfig{Port: "993", Security: "tls"},
		SMTP: ServerConfig{Port: "465", Security: "tls"},
	}
}

// Load reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults, which Complete() reports as
// unconfigured.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.security", "tls")
	v.SetDefault("smtp.port", "465")
	v.SetDefault("smtp.security", "tls")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the given configuration to a YAML file at path, creating
// parent directories if needed.
func Save(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("imap", cfg.IMAP)
	v.Set("smtp", cfg.SMTP)
	v.Set("user", cfg.User)
	v.Set("editor", cfg.Editor)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

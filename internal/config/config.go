// Package config provides configuration management for the sfbulk CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/open-cli-collective/sfbulk/api/auth"
	"github.com/open-cli-collective/sfbulk/internal/keychain"
)

const (
	// DirName is the name of the configuration directory
	DirName = "sfbulk"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.json"
	// DotEnvFile is loaded from the working directory when present
	DotEnvFile = ".env"
)

// File and directory permission constants for consistent security settings.
const (
	// DirPerm is the permission for config directories (owner read/write/execute only)
	DirPerm = 0700
	// FilePerm is the permission for config files (owner read/write only).
	// The file holds the client secret and refresh token when no secure
	// storage is available.
	FilePerm = 0600
)

const keyAPIVersion = "apiVersion"

// Config represents the CLI configuration. The JSON layout matches
// auth.DefaultKeys so the file can be handed to auth.Builder as-is.
type Config struct {
	Salesforce Salesforce `json:"salesforce"`
	// APIVersion overrides the default REST API version (e.g. v62.0)
	APIVersion string `json:"apiVersion,omitempty"`
}

// Salesforce holds the org connection settings.
type Salesforce struct {
	// BaseURL is the login host (e.g. https://login.salesforce.com)
	BaseURL        string         `json:"baseUrl,omitempty"`
	Authentication Authentication `json:"authentication"`
}

// Authentication holds the Connected App credentials.
type Authentication struct {
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type envBinding struct {
	key  string
	vars []string
}

// envBindings lists, per key, the environment variables consulted in order.
// SFBULK_* takes precedence over SALESFORCE_*.
func envBindings() []envBinding {
	keys := auth.DefaultKeys()
	return []envBinding{
		{keys.BaseURL, []string{"SFBULK_BASE_URL", "SALESFORCE_BASE_URL"}},
		{keys.ClientID, []string{"SFBULK_CLIENT_ID", "SALESFORCE_CLIENT_ID"}},
		{keys.ClientSecret, []string{"SFBULK_CLIENT_SECRET", "SALESFORCE_CLIENT_SECRET"}},
		{keys.RefreshToken, []string{"SFBULK_REFRESH_TOKEN", "SALESFORCE_REFRESH_TOKEN"}},
		{keyAPIVersion, []string{"SFBULK_API_VERSION", "SALESFORCE_API_VERSION"}},
	}
}

// GetConfigDir returns the configuration directory path, creating it if needed.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/sfbulk
func GetConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	configDir := filepath.Join(configHome, DirName)

	if err := os.MkdirAll(configDir, DirPerm); err != nil {
		return "", err
	}

	return configDir, nil
}

// GetConfigPath returns the full path to config.json
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// ShortenPath replaces the home directory prefix with ~ for display purposes.
// This prevents exposing full paths including usernames in error messages.
func ShortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) >= len(home) && path[:len(home)] == home {
		return "~" + path[len(home):]
	}
	return path
}

// Load loads the configuration with environment variable overrides.
// Precedence: SFBULK_* → SALESFORCE_* → .env → secure storage → config file
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit config file path.
func LoadFile(path string) (*Config, error) {
	// godotenv never overrides variables already set in the environment
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}
	return load(path, true)
}

// LoadStored loads only what Save persisted: the config file and secure
// storage, without .env or environment variables.
func LoadStored() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ShortenPath(path), err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Secure storage wins over the file; any read failure falls back to it.
	if secrets, err := keychain.GetSecrets(); err == nil {
		if err := v.MergeConfigMap(secretsMap(secrets)); err != nil {
			return nil, err
		}
	}

	if withEnv {
		for _, b := range envBindings() {
			if err := v.BindEnv(append([]string{b.key}, b.vars...)...); err != nil {
				return nil, err
			}
		}
	}

	keys := auth.DefaultKeys()
	return &Config{
		Salesforce: Salesforce{
			BaseURL: v.GetString(keys.BaseURL),
			Authentication: Authentication{
				ClientID:     v.GetString(keys.ClientID),
				ClientSecret: v.GetString(keys.ClientSecret),
				RefreshToken: v.GetString(keys.RefreshToken),
			},
		},
		APIVersion: v.GetString(keyAPIVersion),
	}, nil
}

func secretsMap(s *keychain.Secrets) map[string]any {
	authn := map[string]any{}
	if s.ClientSecret != "" {
		authn["clientSecret"] = s.ClientSecret
	}
	if s.RefreshToken != "" {
		authn["refreshToken"] = s.RefreshToken
	}
	return map[string]any{"salesforce": map[string]any{"authentication": authn}}
}

// Save saves the configuration to config.json. The client secret and refresh
// token go to secure storage when it is available and are left out of the
// file; otherwise the file keeps them.
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	onDisk := *cfg
	secrets := keychain.Secrets{
		ClientSecret: cfg.Salesforce.Authentication.ClientSecret,
		RefreshToken: cfg.Salesforce.Authentication.RefreshToken,
	}
	if !secrets.IsEmpty() && keychain.SetSecrets(&secrets) == nil {
		onDisk.Salesforce.Authentication.ClientSecret = ""
		onDisk.Salesforce.Authentication.RefreshToken = ""
	} else if err := keychain.DeleteSecrets(); err != nil {
		// A stale entry would shadow the values written to the file.
		return fmt.Errorf("failed to remove old secrets from %s: %w", keychain.GetStorageBackend(), err)
	}

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, FilePerm)
}

// Clear removes the configuration file and any secrets in secure storage
func Clear() error {
	if err := keychain.DeleteSecrets(); err != nil {
		return err
	}

	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsConfigured returns true if all four connection values are set.
func IsConfigured() bool {
	cfg, err := Load()
	if err != nil {
		return false
	}
	_, err = cfg.Configuration()
	return err == nil
}

// Source exposes the merged values under auth.DefaultKeys.
func (c *Config) Source() auth.Source {
	keys := auth.DefaultKeys()
	v := viper.New()
	v.Set(keys.BaseURL, c.Salesforce.BaseURL)
	v.Set(keys.ClientID, c.Salesforce.Authentication.ClientID)
	v.Set(keys.ClientSecret, c.Salesforce.Authentication.ClientSecret)
	v.Set(keys.RefreshToken, c.Salesforce.Authentication.RefreshToken)
	return v
}

// Configuration validates the connection values. A missing value is reported
// as *api.MissingConfigError.
func (c *Config) Configuration() (auth.Configuration, error) {
	return auth.NewBuilder().WithSource(c.Source(), auth.DefaultKeys()).Build()
}

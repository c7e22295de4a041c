// Package config handles memo backend configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Services
	Gemini GeminiConfig `json:"gemini"`

	// Vault
	Vault VaultConfig `json:"vault"`
}

// ServerConfig for the HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// GeminiConfig for the generative text and speech providers
type GeminiConfig struct {
	APIKey    string `json:"api_key"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`      // classification + chat
	LiveModel string `json:"live_model"` // native-audio sessions
}

// VaultConfig for the password vault
type VaultConfig struct {
	KeySeed string `json:"key_seed"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".memo"),
		Server: ServerConfig{
			Port: 3001,
			Host: "localhost",
		},
		Gemini: GeminiConfig{
			APIKey:    os.Getenv("GEMINI_API_KEY"),
			BaseURL:   "https://generativelanguage.googleapis.com",
			Model:     "gemini-2.5-flash-lite",
			LiveModel: "gemini-2.5-flash-native-audio-preview-09-2025",
		},
		Vault: VaultConfig{
			KeySeed: os.Getenv("VAULT_KEY_SEED"),
		},
	}
}

// Load loads config from file, falling back to defaults. A .env file in the
// working directory is read first so that env overrides see it.
func Load(path string) (*Config, error) {
	godotenv.Load()

	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded file config.
// Secrets always win from the environment so they never need to live on disk.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if seed := os.Getenv("VAULT_KEY_SEED"); seed != "" {
		c.Vault.KeySeed = seed
	}
	if port := os.Getenv("MEMO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dir := os.Getenv("MEMO_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Don't save secrets to file
	safeCfg := *c
	safeCfg.Gemini.APIKey = ""
	safeCfg.Vault.KeySeed = ""

	data, err := json.MarshalIndent(safeCfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// DatabasePath returns the sqlite file location inside the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "memo.db")
}

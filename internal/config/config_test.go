package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("default port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Gemini.Model == "" {
		t.Error("default model should be set")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server": {"port": 4000, "host": "0.0.0.0"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 4000 || cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MEMO_PORT", "5005")
	t.Setenv("MEMO_DATA_DIR", "/tmp/memo-test")
	t.Setenv("GEMINI_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"server": {"port": 4000}, "gemini": {"api_key": "file-key"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5005 {
		t.Errorf("port = %d, want env override 5005", cfg.Server.Port)
	}
	if cfg.DataDir != "/tmp/memo-test" {
		t.Errorf("data dir = %q, want env override", cfg.DataDir)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("api key = %q, env must win over file", cfg.Gemini.APIKey)
	}
}

func TestSave_StripsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Gemini.APIKey = "secret-key"
	cfg.Vault.KeySeed = "secret-seed"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret-key") || strings.Contains(string(data), "secret-seed") {
		t.Error("secrets written to disk")
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{DataDir: "/data"}
	if got := cfg.DatabasePath(); got != filepath.Join("/data", "memo.db") {
		t.Errorf("DatabasePath() = %q", got)
	}
}

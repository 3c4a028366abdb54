package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TALLY_CURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("Load without file = %+v, want defaults", cfg)
	}
	if Exists() {
		t.Fatal("Exists() = true with empty config dir")
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.General.Currency = "EUR"
	cfg.Appearance.Theme = "tokyo-night"
	cfg.Server.Addr = "127.0.0.1:9999"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatalf("config file not created at %s", Path())
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != cfg {
		t.Fatalf("Load = %+v, want %+v", got, cfg)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general]\ncurrency = \"GBP\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.General.Currency != "GBP" {
		t.Fatalf("Currency = %q, want GBP", cfg.General.Currency)
	}
	if cfg.Server.Addr != DefaultConfig().Server.Addr {
		t.Fatalf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TALLY_CURRENCY", "JPY")
	t.Setenv("TALLY_ADDR", "0.0.0.0:1234")
	t.Setenv("TALLY_RATE_LIMIT", "not-a-number")
	t.Setenv("TALLY_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.Currency != "JPY" {
		t.Fatalf("Currency = %q, want JPY", cfg.General.Currency)
	}
	if cfg.Server.Addr != "0.0.0.0:1234" {
		t.Fatalf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.RateLimit != DefaultConfig().Server.RateLimit {
		t.Fatalf("RateLimit = %v, invalid override should be ignored", cfg.Server.RateLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q", cfg.Log.Level)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg = applyDefaults(cfg)

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.ExpiryBuffer != 5*time.Minute {
		t.Errorf("expected 5m expiry buffer, got %v", cfg.Auth.ExpiryBuffer)
	}
	if cfg.Sync.PersistDelay != 300*time.Millisecond {
		t.Errorf("expected 300ms persist delay, got %v", cfg.Sync.PersistDelay)
	}
	if cfg.Sync.Profile != "default" {
		t.Errorf("expected default profile, got %s", cfg.Sync.Profile)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://shop.example.com/api")
	os.Setenv("SYNC_MERGE_COOLDOWN", "4s")
	defer os.Unsetenv("API_BASE_URL")
	defer os.Unsetenv("SYNC_MERGE_COOLDOWN")

	cfg := Config{}
	cfg = applyEnv(cfg)

	if cfg.API.BaseURL != "https://shop.example.com/api" {
		t.Errorf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.Sync.MergeCooldown != 4*time.Second {
		t.Errorf("expected 4s cooldown, got %v", cfg.Sync.MergeCooldown)
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "api:\n  base_url: http://localhost:4000/api\nsync:\n  persist_delay: 150ms\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:4000/api" {
		t.Errorf("unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.Sync.PersistDelay != 150*time.Millisecond {
		t.Errorf("unexpected persist delay: %v", cfg.Sync.PersistDelay)
	}
	// 未設定的欄位仍套用預設值
	if cfg.Sync.MergeCooldown != 2*time.Second {
		t.Errorf("defaults must still apply, got %v", cfg.Sync.MergeCooldown)
	}
}

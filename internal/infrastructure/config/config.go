package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 儲存本地 HTTP 介面、商城 API 與同步引擎的執行設定。
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	API   APIConfig   `yaml:"api"`
	DB    DBConfig    `yaml:"db"`
	Auth  AuthConfig  `yaml:"auth"`
	Sync  SyncConfig  `yaml:"sync"`
	State StateConfig `yaml:"state"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type DBConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time"`
}

type AuthConfig struct {
	ExpiryBuffer time.Duration `yaml:"expiry_buffer"`
}

type SyncConfig struct {
	PersistDelay    time.Duration `yaml:"persist_delay"`
	MergeCooldown   time.Duration `yaml:"merge_cooldown"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Profile         string        `yaml:"profile"`
}

type StateConfig struct {
	Dir     string `yaml:"dir"`
	SealKey string `yaml:"seal_key"`
}

// LoadFromFile 從 YAML 組態檔載入設定。
func LoadFromFile(path string) (Config, error) {
	// 嘗試載入 .env 檔案（如果存在）
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg = applyDefaults(cfg)
	cfg = applyEnv(cfg)
	return cfg, nil
}

func applyDefaults(cfg Config) Config {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:3000/api"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 5
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 2
	}
	if cfg.DB.MaxIdleTime == 0 {
		cfg.DB.MaxIdleTime = 15 * time.Minute
	}
	if cfg.Auth.ExpiryBuffer == 0 {
		cfg.Auth.ExpiryBuffer = 5 * time.Minute
	}
	if cfg.Sync.PersistDelay == 0 {
		cfg.Sync.PersistDelay = 300 * time.Millisecond
	}
	if cfg.Sync.MergeCooldown == 0 {
		cfg.Sync.MergeCooldown = 2 * time.Second
	}
	if cfg.Sync.RefreshInterval == 0 {
		cfg.Sync.RefreshInterval = 5 * time.Minute
	}
	if cfg.Sync.Profile == "" {
		cfg.Sync.Profile = "default"
	}
	if cfg.State.Dir == "" {
		cfg.State.Dir = "./state"
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if val := os.Getenv("HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.HTTP.Addr = ":" + val
	}
	if val := os.Getenv("API_BASE_URL"); val != "" {
		cfg.API.BaseURL = val
	}
	if val := os.Getenv("API_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.API.Timeout = d
		}
	}
	if val := os.Getenv("DB_DSN"); val != "" {
		cfg.DB.DSN = val
	}
	if val := os.Getenv("AUTH_EXPIRY_BUFFER"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Auth.ExpiryBuffer = d
		}
	}
	if val := os.Getenv("SYNC_PERSIST_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sync.PersistDelay = d
		}
	}
	if val := os.Getenv("SYNC_MERGE_COOLDOWN"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sync.MergeCooldown = d
		}
	}
	if val := os.Getenv("SYNC_REFRESH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Sync.RefreshInterval = d
		}
	}
	if val := os.Getenv("SYNC_PROFILE"); val != "" {
		cfg.Sync.Profile = val
	}
	if val := os.Getenv("STATE_DIR"); val != "" {
		cfg.State.Dir = val
	}
	if val := os.Getenv("STATE_SEAL_KEY"); val != "" {
		cfg.State.SealKey = val
	}
	return cfg
}

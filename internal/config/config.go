package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	Database    DatabaseConfig   `json:"database"`
	Storage     StorageConfig    `json:"storage"`
	LogConfig   logger.LogConfig `json:"log_config"`
	CORSOrigins []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type StorageConfig struct {
	Root              string `json:"root"`
	UploadLimitBytes  int64  `json:"upload_limit_bytes"`
	TempSweepSpec     string `json:"temp_sweep_spec"`
	TempMaxAgeMinutes int    `json:"temp_max_age_minutes"`
	ShareWindowSec    int    `json:"share_window_sec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database dsn or host/dbname are required")
	}
	if cfg.Storage.Root == "" {
		return nil, fmt.Errorf("storage.root is required")
	}
	if cfg.Storage.UploadLimitBytes == 0 {
		cfg.Storage.UploadLimitBytes = 200 * 1024 * 1024
	}
	if cfg.Storage.TempSweepSpec == "" {
		cfg.Storage.TempSweepSpec = "*/30 * * * *"
	}
	if cfg.Storage.TempMaxAgeMinutes == 0 {
		cfg.Storage.TempMaxAgeMinutes = 120
	}
	return &cfg, nil
}

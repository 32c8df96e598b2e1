package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"placement-portal/internal/archive"
	"placement-portal/internal/logger"
	"placement-portal/internal/notifier"
	"placement-portal/internal/portal"
	"placement-portal/internal/scheduler"
	"placement-portal/internal/storage"
	"placement-portal/internal/subscription"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 环境变量覆盖前缀，例如 PORTAL_SERVER_ADDR。
const EnvPrefix = "PORTAL"

// Config 应用配置。
type Config struct {
	Server       ServerConfig           `yaml:"server"`
	Database     storage.Config         `yaml:"database"`
	Redis        storage.RedisConfig    `yaml:"redis"`
	NATS         notifier.NATSConfig    `yaml:"nats"`
	Scheduler    scheduler.Config       `yaml:"scheduler"`
	Email        notifier.EmailConfig   `yaml:"email"`
	Webhook      notifier.WebhookConfig `yaml:"webhook"`
	Archive      archive.Config         `yaml:"archive"`
	Admin        portal.AdminConfig     `yaml:"admin"`
	Log          logger.Config          `yaml:"log"`
	Subscription subscription.Config    `yaml:"subscription"`
}

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Default 返回未提供配置文件时使用的默认值。
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", ShutdownTimeout: "5s"},
		Database:  storage.Config{Driver: "sqlite", Path: "data/portal.db"},
		NATS:      notifier.NATSConfig{Subject: notifier.DefaultNATSSubject},
		Scheduler: scheduler.Config{Interval: "5m", Timeout: "30s"},
		Email:     notifier.EmailConfig{Port: 587},
		Webhook:   notifier.WebhookConfig{Timeout: "10s"},
		Archive:   archive.Config{Region: "us-east-1"},
		Admin:     portal.AdminConfig{Username: "admin"},
		Log:       logger.Config{Level: "info", Format: "json"},
		Subscription: subscription.Config{
			AllowedChannels: []string{"email"},
		},
	}
}

// Load 读取 .env、YAML 配置文件，再用 PORTAL_* 环境变量覆盖。
// path 为空时依次使用 CONFIG_FILE 与 config.yaml，文件不存在时使用默认值。
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	if strings.TrimSpace(path) == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if strings.TrimSpace(path) == "" {
		path = "config.yaml"
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}

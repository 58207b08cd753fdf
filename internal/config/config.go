package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default configuration file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string `yaml:"port"`
	LogLevel                string `yaml:"logLevel"`
	BackendBaseURL          string `yaml:"backendBaseURL"`
	DataDir                 string `yaml:"dataDir"`
	RedisAddr               string `yaml:"redisAddr"`
	RedisPassword           string `yaml:"redisPassword"`
	DatabaseURL             string `yaml:"databaseURL"`
	SessionCookieName       string `yaml:"sessionCookieName"`
	SessionCookieSecure     bool   `yaml:"sessionCookieSecure"`
	SessionCookieMaxAgeSecs int    `yaml:"sessionCookieMaxAgeSeconds"`
	CartDecrementPolicy     string `yaml:"cartDecrementPolicy"`
	LoginRateLimitPerMinute int    `yaml:"loginRateLimitPerMinute"`
	MinioEndpoint           string `yaml:"minioEndpoint"`
	MinioAccessKey          string `yaml:"minioAccessKey"`
	MinioSecretKey          string `yaml:"minioSecretKey"`
	MinioBucket             string `yaml:"minioBucket"`
	MinioUseSSL             bool   `yaml:"minioUseSSL"`
}

// Load reads config from path (defaults to config.yaml).
// Environment variables override file values so deployments never need to
// patch the file; the backend base URL is deliberately a single value.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if v := os.Getenv("STOREFRONT_PORT"); v != "" {
		cfg.Port = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_BACKEND_BASE_URL"); v != "" {
		cfg.BackendBaseURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_DATA_DIR"); v != "" {
		cfg.DataDir = strings.TrimSpace(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("STOREFRONT_SESSION_COOKIE_NAME"); v != "" {
		cfg.SessionCookieName = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_SESSION_COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.SessionCookieSecure = b
		}
	}
	if v := os.Getenv("STOREFRONT_SESSION_COOKIE_MAX_AGE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.SessionCookieMaxAgeSecs = n
		}
	}
	if v := os.Getenv("STOREFRONT_CART_DECREMENT_POLICY"); v != "" {
		cfg.CartDecrementPolicy = strings.TrimSpace(v)
	}
	if v := os.Getenv("STOREFRONT_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = strings.TrimSpace(v)
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = strings.TrimSpace(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		return errors.New("config: backendBaseURL is required (set in config.yaml or STOREFRONT_BACKEND_BASE_URL)")
	}
	switch strings.TrimSpace(cfg.CartDecrementPolicy) {
	case "", "clamp", "remove":
	default:
		return fmt.Errorf("config: cartDecrementPolicy must be %q or %q", "clamp", "remove")
	}
	if cfg.SessionCookieMaxAgeSecs < 0 {
		return errors.New("config: sessionCookieMaxAgeSeconds must be >= 0")
	}
	if cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: loginRateLimitPerMinute must be >= 0")
	}
	return nil
}

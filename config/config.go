package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	APIURL         string        `yaml:"api_url"`
	APITimeout     time.Duration `yaml:"api_timeout"`
	StoreURL       string        `yaml:"store_url"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	SessionCookie  string        `yaml:"session_cookie"`
	MetricsEnabled bool          `yaml:"metrics_enabled"`
	SessionIdle    time.Duration `yaml:"session_idle"`
	HealthInterval time.Duration `yaml:"health_interval"`
}

func Default() Config {
	return Config{
		HTTPAddr:       ":8080",
		APIURL:         "http://localhost:8000",
		APITimeout:     10 * time.Second,
		StoreURL:       "file://./data/console.json",
		LogLevel:       "info",
		LogFormat:      "text",
		SessionCookie:  "sf_session",
		MetricsEnabled: true,
		SessionIdle:    24 * time.Hour,
		HealthInterval: 30 * time.Second,
	}
}

// Load resolves the config from defaults, an optional .env file, the YAML file
// named by CONFIG_FILE and finally the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.APIURL = strings.TrimRight(getenv("API_URL", cfg.APIURL), "/")
	cfg.APITimeout = getenvDuration("API_TIMEOUT", cfg.APITimeout)
	cfg.StoreURL = getenv("STORE_URL", cfg.StoreURL)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("LOG_FORMAT", cfg.LogFormat)
	cfg.SessionCookie = getenv("SESSION_COOKIE", cfg.SessionCookie)
	cfg.MetricsEnabled = getenvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.SessionIdle = getenvDuration("SESSION_IDLE", cfg.SessionIdle)
	cfg.HealthInterval = getenvDuration("HEALTH_INTERVAL", cfg.HealthInterval)

	if cfg.APIURL == "" {
		return Config{}, errors.New("API_URL must not be empty")
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

// StoreScheme keeps credentials in STORE_URL out of the logs.
func (c Config) StoreScheme() string {
	if i := strings.Index(c.StoreURL, "://"); i > 0 {
		return c.StoreURL[:i]
	}
	return c.StoreURL
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		logrus.WithField("key", key).Warn("invalid duration, using default")
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
		logrus.WithField("key", key).Warn("invalid bool, using default")
	}
	return fallback
}

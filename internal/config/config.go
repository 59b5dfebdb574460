package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Coinbase CoinbaseConfig `yaml:"coinbase"`
	Cache    CacheConfig    `yaml:"cache"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
	Swagger  SwaggerConfig  `yaml:"swagger"`
}

// ServerConfig holds the HTTP API server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// CoinbaseConfig holds the configuration for the Coinbase API client.
type CoinbaseConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	Host                 string  `yaml:"host"`
	CredentialFile       string  `yaml:"credentialFile"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimit            float64 `yaml:"rateLimit"`
	BurstLimit           int     `yaml:"burstLimit"`
}

// CacheConfig holds configuration for the request cache.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// FetchConfig holds configuration for the parallel fetch fan-out.
type FetchConfig struct {
	MaxConcurrentRequests int `yaml:"maxConcurrentRequests"`
}

// ReportConfig holds configuration for the ledger report.
type ReportConfig struct {
	// Currencies selects which account currencies appear in the report.
	Currencies []string `yaml:"currencies"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadConfig loads configuration from a YAML file and applies defaults for
// unset sections.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Coinbase.BaseURL == "" {
		cfg.Coinbase.BaseURL = "https://api.coinbase.com"
		logrus.Infof("Coinbase.BaseURL not set, defaulting to %s", cfg.Coinbase.BaseURL)
	}
	if cfg.Coinbase.Host == "" {
		cfg.Coinbase.Host = "api.coinbase.com"
		logrus.Infof("Coinbase.Host not set, defaulting to %s", cfg.Coinbase.Host)
	}
	if cfg.Coinbase.CredentialFile == "" {
		cfg.Coinbase.CredentialFile = "cdp_api_key.json"
		logrus.Infof("Coinbase.CredentialFile not set, defaulting to %s", cfg.Coinbase.CredentialFile)
	}
	if cfg.Coinbase.RequestTimeoutMillis == 0 {
		cfg.Coinbase.RequestTimeoutMillis = 10000
		logrus.Infof("Coinbase.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Coinbase.RequestTimeoutMillis)
	}
	if cfg.Coinbase.RateLimit == 0 {
		cfg.Coinbase.RateLimit = 5
		logrus.Infof("Coinbase.RateLimit not set, defaulting to %.0f req/s", cfg.Coinbase.RateLimit)
	}
	if cfg.Coinbase.BurstLimit == 0 {
		cfg.Coinbase.BurstLimit = 2
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = ".request_cache"
		logrus.Infof("Cache.Dir not set, defaulting to %s", cfg.Cache.Dir)
	}
	if cfg.Fetch.MaxConcurrentRequests == 0 {
		cfg.Fetch.MaxConcurrentRequests = 6
		logrus.Infof("Fetch.MaxConcurrentRequests not set, defaulting to %d", cfg.Fetch.MaxConcurrentRequests)
	}
	if len(cfg.Report.Currencies) == 0 {
		cfg.Report.Currencies = []string{"USD", "USDC"}
		logrus.Infof("Report.Currencies not set, defaulting to %v", cfg.Report.Currencies)
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

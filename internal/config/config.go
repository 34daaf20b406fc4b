package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the triage engine.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Sink        SinkConfig        `yaml:"sink"`
	Reasoning   ReasoningConfig   `yaml:"reasoning"`
	Model       ModelConfig       `yaml:"model"`
	Index       IndexConfig       `yaml:"index"`
	Remediation RemediationConfig `yaml:"remediation"`
	Logging     LoggingConfig     `yaml:"logging"`
	Cache       CacheConfig       `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// TelemetryConfig configures the telemetry source backend.
type TelemetryConfig struct {
	BaseURL       string        `yaml:"baseURL"`
	MetricsPath   string        `yaml:"metricsPath"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultWindow time.Duration `yaml:"defaultWindow"`
}

// EmbeddingConfig configures the external embedding service.
type EmbeddingConfig struct {
	BaseURL   string        `yaml:"baseURL"`
	EmbedPath string        `yaml:"embedPath"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SinkConfig configures the incident record persistence backend.
type SinkConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	UpsertPath string        `yaml:"upsertPath"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ReasoningConfig bounds the external reasoning calls.
type ReasoningConfig struct {
	APIKey    string        `yaml:"apiKey"`
	Model     string        `yaml:"model"`
	MaxTokens int64         `yaml:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ModelConfig locates the fitted anomaly model.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// IndexConfig controls the similarity index store.
type IndexConfig struct {
	Dir       string `yaml:"dir"`
	Dimension int    `yaml:"dimension"`
}

// RemediationConfig locates the fix template pack.
type RemediationConfig struct {
	TemplatesPath string `yaml:"templatesPath"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Redis-backed caching of telemetry lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	TelemetryTTL time.Duration `yaml:"telemetryTTL"`
}

// Load initialises Config from a YAML file and optional environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TRIAGE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			MetricsPath:   "/api/v1/telemetry/metrics",
			Timeout:       5 * time.Second,
			DefaultWindow: time.Hour,
		},
		Embedding: EmbeddingConfig{
			EmbedPath: "/api/v1/embed",
			Timeout:   5 * time.Second,
		},
		Sink: SinkConfig{
			UpsertPath: "/api/v1/incidents",
			Timeout:    5 * time.Second,
		},
		Reasoning: ReasoningConfig{
			MaxTokens: 2000,
			Timeout:   30 * time.Second,
		},
		Model: ModelConfig{Path: "models/anomaly_detector.json"},
		Index: IndexConfig{Dir: "models/index", Dimension: 768},
		Remediation: RemediationConfig{
			TemplatesPath: "configs/remediation/default.yaml",
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			TelemetryTTL: time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRIAGE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("TRIAGE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("TRIAGE_TELEMETRY_BASE_URL"); v != "" {
		cfg.Telemetry.BaseURL = v
	}
	if v := os.Getenv("TRIAGE_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("TRIAGE_SINK_BASE_URL"); v != "" {
		cfg.Sink.BaseURL = v
	}
	if v := os.Getenv("TRIAGE_REASONING_API_KEY"); v != "" {
		cfg.Reasoning.APIKey = v
	}
	if v := os.Getenv("TRIAGE_REASONING_MODEL"); v != "" {
		cfg.Reasoning.Model = v
	}
	if v := os.Getenv("TRIAGE_REASONING_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Reasoning.MaxTokens = n
		}
	}
	if v := os.Getenv("TRIAGE_REASONING_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reasoning.Timeout = d
		}
	}
	if v := os.Getenv("TRIAGE_MODEL_PATH"); v != "" {
		cfg.Model.Path = v
	}
	if v := os.Getenv("TRIAGE_INDEX_DIR"); v != "" {
		cfg.Index.Dir = v
	}
	if v := os.Getenv("TRIAGE_INDEX_DIMENSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Index.Dimension = n
		}
	}
	if v := os.Getenv("TRIAGE_REMEDIATION_TEMPLATES"); v != "" {
		cfg.Remediation.TemplatesPath = v
	}
	if v := os.Getenv("TRIAGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIAGE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("TRIAGE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("TRIAGE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("TRIAGE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("TRIAGE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("TRIAGE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("TRIAGE_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("TRIAGE_CACHE_TELEMETRY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TelemetryTTL = d
		}
	}
}

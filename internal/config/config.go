package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Node   NodeConfig
	Source SourceConfig
	Server ServerConfig
	Alert  AlertConfig
	Trace  TraceConfig
	Log    LogConfig
}

type NodeConfig struct {
	RPCURL          string
	Network         string
	Timeout         time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	RetryAttempts   int
	BreakerFailures int
	BreakerOpenSecs int
	CacheCapacity   int
	CacheTTL        time.Duration
}

type SourceConfig struct {
	// EventLogPath is the NDJSON event stream to consume; "-" reads stdin.
	EventLogPath string
	BufferSize   int
}

type ServerConfig struct {
	AdminPort int
}

type AlertConfig struct {
	WebhookURL      string
	CooldownMinutes int
}

type TraceConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Node: NodeConfig{
			RPCURL:          getEnv("NODE_RPC_URL", "http://localhost:9944"),
			Network:         getEnv("NETWORK", "testnet"),
			Timeout:         time.Duration(getEnvInt("NODE_TIMEOUT_SEC", 30)) * time.Second,
			RateLimitRPS:    getEnvFloat("NODE_RATE_LIMIT_RPS", 50),
			RateLimitBurst:  getEnvInt("NODE_RATE_LIMIT_BURST", 100),
			RetryAttempts:   getEnvInt("NODE_RETRY_ATTEMPTS", 3),
			BreakerFailures: getEnvInt("NODE_BREAKER_FAILURES", 5),
			BreakerOpenSecs: getEnvInt("NODE_BREAKER_OPEN_SEC", 30),
			CacheCapacity:   getEnvInt("QUERY_CACHE_CAPACITY", 4096),
			CacheTTL:        time.Duration(getEnvInt("QUERY_CACHE_TTL_MIN", 10)) * time.Minute,
		},
		Source: SourceConfig{
			EventLogPath: getEnv("EVENT_LOG_PATH", "-"),
			BufferSize:   getEnvInt("EVENT_BUFFER_SIZE", 64),
		},
		Server: ServerConfig{
			AdminPort: getEnvInt("ADMIN_PORT", 8080),
		},
		Alert: AlertConfig{
			WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
			CooldownMinutes: getEnvInt("ALERT_COOLDOWN_MIN", 10),
		},
		Trace: TraceConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Node.RPCURL == "" {
		return fmt.Errorf("NODE_RPC_URL is required")
	}
	if c.Node.Network == "" {
		return fmt.Errorf("NETWORK is required")
	}
	if c.Source.EventLogPath == "" {
		return fmt.Errorf("EVENT_LOG_PATH is required")
	}
	if c.Source.BufferSize <= 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

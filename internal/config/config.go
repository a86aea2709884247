// Package config centraliza o carregamento de configurações da aplicação.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/JeanGrijp/cascade-gateway/internal/core/domain"
)

type Config struct {
	Server      ServerConfig
	Internal    InternalConfig
	Policy      PolicyConfig
	Storage     StorageConfig
	RateLimiter RateLimiterConfig
	Fetch       FetchConfig
	Eval        EvalConfig
	Log         LogConfig
	FlagFile    string
	Metrics     bool
}

type ServerConfig struct {
	Port              string
	TrustProxyHeaders bool
}

type InternalConfig struct {
	Host string
	Port string
}

// BaseURL é o endereço que o gateway usa para alcançar o serviço interno.
func (c InternalConfig) BaseURL() string {
	return "http://" + net.JoinHostPort(c.Host, c.Port)
}

// LoadInternal lê apenas o endereço do serviço interno, sem validar o restante do ambiente.
func LoadInternal() InternalConfig {
	_ = godotenv.Load()
	return loadInternal()
}

func loadInternal() InternalConfig {
	return InternalConfig{
		Host: getEnv("INTERNAL_HOST", "localhost"),
		Port: getEnv("INTERNAL_PORT", "3001"),
	}
}

type PolicyConfig struct {
	Preset string
	File   string
}

type StorageConfig struct {
	Type    string
	MaxKeys int
	Redis   RedisConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ClassOverride guarda os ajustes de uma classe vindos do ambiente. Campos nil mantêm o preset.
type ClassOverride struct {
	Requests      *int
	Window        *time.Duration
	BlockDuration *time.Duration
}

type RateLimiterConfig struct {
	ClassOverrides map[string]ClassOverride
	TokenRules     map[string]domain.RateLimitRule
}

// Apply sobrepõe os ajustes do ambiente às regras do preset, sem alterar o mapa recebido.
func (c RateLimiterConfig) Apply(base map[string]domain.RateLimitRule) map[string]domain.RateLimitRule {
	out := make(map[string]domain.RateLimitRule, len(base))
	for class, rule := range base {
		out[class] = rule
	}
	for class, o := range c.ClassOverrides {
		rule := out[class]
		if o.Requests != nil {
			rule.Requests = *o.Requests
		}
		if o.Window != nil {
			rule.Window = *o.Window
		}
		if o.BlockDuration != nil {
			rule.BlockDuration = *o.BlockDuration
		}
		out[class] = rule
	}
	return out
}

type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
}

type EvalConfig struct {
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	trustProxy, err := getBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return Config{}, err
	}
	metrics, err := getBool("METRICS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}

	storageConfig, err := buildStorageConfig()
	if err != nil {
		return Config{}, err
	}

	rateLimiterConfig, err := buildRateLimiterConfig()
	if err != nil {
		return Config{}, err
	}

	fetchTimeout, err := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "5"))
	if err != nil || fetchTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: %q", os.Getenv("FETCH_TIMEOUT_SECONDS"))
	}
	fetchMaxBytes, err := strconv.ParseInt(getEnv("FETCH_MAX_BYTES", "1048576"), 10, 64)
	if err != nil || fetchMaxBytes <= 0 {
		return Config{}, fmt.Errorf("invalid FETCH_MAX_BYTES: %q", os.Getenv("FETCH_MAX_BYTES"))
	}
	evalTimeout, err := strconv.Atoi(getEnv("EVAL_TIMEOUT_MS", "1000"))
	if err != nil || evalTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid EVAL_TIMEOUT_MS: %q", os.Getenv("EVAL_TIMEOUT_MS"))
	}

	return Config{
		Server: ServerConfig{
			Port:              getEnv("SERVER_PORT", "3000"),
			TrustProxyHeaders: trustProxy,
		},
		Internal: loadInternal(),
		Policy: PolicyConfig{
			Preset: getEnv("POLICY_PRESET", "strict"),
			File:   getEnv("POLICY_FILE", ""),
		},
		Storage:     storageConfig,
		RateLimiter: rateLimiterConfig,
		Fetch: FetchConfig{
			Timeout:  time.Duration(fetchTimeout) * time.Second,
			MaxBytes: fetchMaxBytes,
		},
		Eval: EvalConfig{Timeout: time.Duration(evalTimeout) * time.Millisecond},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		FlagFile: getEnv("FLAG_FILE", "/tmp/flag.txt"),
		Metrics:  metrics,
	}, nil
}

func buildStorageConfig() (StorageConfig, error) {
	storageType := strings.ToLower(getEnv("STORAGE_TYPE", "memory"))
	if storageType != "memory" && storageType != "redis" {
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_TYPE: %s", storageType)
	}

	maxKeys, err := strconv.Atoi(getEnv("RATE_LIMIT_MAX_KEYS", "10000"))
	if err != nil || maxKeys <= 0 {
		return StorageConfig{}, fmt.Errorf("invalid RATE_LIMIT_MAX_KEYS: %q", os.Getenv("RATE_LIMIT_MAX_KEYS"))
	}

	redisConfig, err := buildRedisConfig()
	if err != nil {
		return StorageConfig{}, err
	}

	return StorageConfig{Type: storageType, MaxKeys: maxKeys, Redis: redisConfig}, nil
}

func buildRedisConfig() (RedisConfig, error) {
	host := getEnv("REDIS_HOST", "localhost")
	port, err := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return RedisConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func buildRateLimiterConfig() (RateLimiterConfig, error) {
	overrides := make(map[string]ClassOverride)
	for _, class := range []string{domain.ClassStandard, domain.ClassLookup, domain.ClassEval} {
		o, err := buildClassOverride(class)
		if err != nil {
			return RateLimiterConfig{}, err
		}
		if o.Requests != nil || o.Window != nil || o.BlockDuration != nil {
			overrides[class] = o
		}
	}

	tokenRules, err := buildTokenOverrides()
	if err != nil {
		return RateLimiterConfig{}, err
	}

	return RateLimiterConfig{ClassOverrides: overrides, TokenRules: tokenRules}, nil
}

func buildClassOverride(class string) (ClassOverride, error) {
	prefix := "RATE_LIMIT_" + strings.ToUpper(class)
	var o ClassOverride

	if raw := strings.TrimSpace(os.Getenv(prefix + "_REQUESTS")); raw != "" {
		requests, err := strconv.Atoi(raw)
		if err != nil || requests <= 0 {
			return ClassOverride{}, fmt.Errorf("invalid %s_REQUESTS: %q", prefix, raw)
		}
		o.Requests = &requests
	}
	if raw := strings.TrimSpace(os.Getenv(prefix + "_WINDOW_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return ClassOverride{}, fmt.Errorf("invalid %s_WINDOW_SECONDS: %q", prefix, raw)
		}
		window := time.Duration(seconds) * time.Second
		o.Window = &window
	}
	if raw := strings.TrimSpace(os.Getenv(prefix + "_BLOCK_DURATION_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes < 0 {
			return ClassOverride{}, fmt.Errorf("invalid %s_BLOCK_DURATION_MINUTES: %q", prefix, raw)
		}
		block := time.Duration(minutes) * time.Minute
		o.BlockDuration = &block
	}
	return o, nil
}

func buildTokenOverrides() (map[string]domain.RateLimitRule, error) {
	raw := strings.TrimSpace(os.Getenv("TOKENS"))
	if raw == "" {
		return map[string]domain.RateLimitRule{}, nil
	}

	overrides := make(map[string]domain.RateLimitRule)
	items := strings.Split(raw, ",")

	for _, item := range items {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("token override must follow TOKEN:REQUESTS:WINDOW_SECONDS:BLOCK_DURATION_MINUTES: %s", item)
		}

		token := strings.TrimSpace(parts[0])
		requests, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid requests for token %s: %w", token, err)
		}
		windowSeconds, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid window seconds for token %s: %w", token, err)
		}
		blockMinutes, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid block minutes for token %s: %w", token, err)
		}

		rule := domain.RateLimitRule{
			Requests:      requests,
			Window:        time.Duration(windowSeconds) * time.Second,
			BlockDuration: time.Duration(blockMinutes) * time.Minute,
		}
		if !rule.Valid() || blockMinutes < 0 {
			return nil, fmt.Errorf("token %s must have positive requests and window: %s", token, item)
		}
		overrides[token] = rule
	}

	return overrides, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

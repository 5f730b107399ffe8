package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP
	ListenerAddr           string
	MaxBodyBytes           int64
	ShutdownTimeoutSeconds int

	// Storage
	StoreKind  string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int

	// Redis
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Factory routing
	FactoryPartitions map[string]string
	FactoryIDs        map[string]int64
	DefaultFactory    string

	// Alert thresholds
	TemperatureHigh float64
	TemperatureLow  float64
	BatteryLow      float64
	FireDetected    bool

	// Auth
	AuthEnabled         bool
	AuthCacheTTLSeconds int
	ValidAPIKeys        []string

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	StoreKindPostgres = "postgres"
	StoreKindMemory   = "memory"
)

func Load() (*Config, error) {
	partitions, err := parsePairs(getEnv("FACTORY_PARTITIONS", "factory_1=factory_1_data,factory_2=factory_2_data"))
	if err != nil {
		return nil, fmt.Errorf("FACTORY_PARTITIONS: %w", err)
	}
	rawIDs, err := parsePairs(getEnv("FACTORY_IDS", "factory_1=1,factory_2=2"))
	if err != nil {
		return nil, fmt.Errorf("FACTORY_IDS: %w", err)
	}
	ids := make(map[string]int64, len(rawIDs))
	for key, v := range rawIDs {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("FACTORY_IDS: id for %q is not an integer: %q", key, v)
		}
		ids[key] = n
	}

	cfg := &Config{
		ListenerAddr:           getEnv("LISTENER_ADDR", "0.0.0.0:8000"),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		ShutdownTimeoutSeconds: getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10),
		StoreKind:              getEnv("STORE_KIND", StoreKindPostgres),
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "factory_user"),
		DBPassword:             getEnv("DB_PASSWORD", "factory_password"),
		DBName:                 getEnv("DB_NAME", "smart_factory"),
		DBSSLMode:              getEnv("DB_SSLMODE", "disable"),
		DBMaxConns:             getEnvInt("DB_MAX_CONNS", 10),
		RedisEnabled:           getEnvBool("REDIS_ENABLED", false),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		FactoryPartitions:      partitions,
		FactoryIDs:             ids,
		DefaultFactory:         getEnv("DEFAULT_FACTORY", "factory_1"),
		TemperatureHigh:        getEnvFloat("ALERT_TEMPERATURE_HIGH", 30.0),
		TemperatureLow:         getEnvFloat("ALERT_TEMPERATURE_LOW", 15.0),
		BatteryLow:             getEnvFloat("ALERT_BATTERY_LOW", 20.0),
		FireDetected:           getEnvBool("ALERT_FIRE_DETECTED", true),
		AuthEnabled:            getEnvBool("AUTH_ENABLED", false),
		AuthCacheTTLSeconds:    getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		ValidAPIKeys:           splitList(getEnv("VALID_API_KEYS", "")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, ok := c.FactoryPartitions[c.DefaultFactory]; !ok {
		return fmt.Errorf("default factory %q has no partition in FACTORY_PARTITIONS", c.DefaultFactory)
	}
	if c.TemperatureLow > c.TemperatureHigh {
		return fmt.Errorf("ALERT_TEMPERATURE_LOW (%.1f) is above ALERT_TEMPERATURE_HIGH (%.1f)", c.TemperatureLow, c.TemperatureHigh)
	}
	switch c.StoreKind {
	case StoreKindPostgres, StoreKindMemory:
	default:
		return fmt.Errorf("unknown STORE_KIND %q", c.StoreKind)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// parsePairs reads "k1=v1,k2=v2". Blank entries are skipped.
func parsePairs(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range splitList(s) {
		k, v, ok := strings.Cut(entry, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("malformed entry %q, want key=value", entry)
		}
		out[k] = v
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every connection setting the service needs. Values come
// from the environment with local-development defaults.
type Config struct {
	HTTPPort int

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost string
	RedisPort int
	CacheTTL  time.Duration

	RabbitHost     string
	RabbitPort     int
	RabbitUser     string
	RabbitPassword string

	ConsulHost string
	ConsulPort int
}

func Load() Config {
	return Config{
		HTTPPort: envInt("SHOP_HTTP_PORT", 8080),

		PostgresHost:     envStr("SHOP_PG_HOST", "localhost"),
		PostgresPort:     envInt("SHOP_PG_PORT", 5432),
		PostgresUser:     envStr("SHOP_PG_USER", "shopcore"),
		PostgresPassword: envStr("SHOP_PG_PASSWORD", "shopcore123"),
		PostgresDB:       envStr("SHOP_PG_DB", "shopcore"),

		RedisHost: envStr("SHOP_REDIS_HOST", "localhost"),
		RedisPort: envInt("SHOP_REDIS_PORT", 6379),
		CacheTTL:  envDuration("SHOP_CACHE_TTL", 5*time.Minute),

		RabbitHost:     envStr("SHOP_RABBIT_HOST", "localhost"),
		RabbitPort:     envInt("SHOP_RABBIT_PORT", 5672),
		RabbitUser:     envStr("SHOP_RABBIT_USER", "guest"),
		RabbitPassword: envStr("SHOP_RABBIT_PASSWORD", "guest"),

		ConsulHost: envStr("SHOP_CONSUL_HOST", "localhost"),
		ConsulPort: envInt("SHOP_CONSUL_PORT", 8500),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"os"
	"strings"
)

type Config struct {
	HTTPAddr     string
	DatabaseURL  string
	RedisAddr    string
	KafkaBrokers []string
	DirectoryURL string
	ServiceName  string
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
}

func Load() *Config {
	return &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:  mustEnv("DATABASE_URL"),
		RedisAddr:    mustEnv("REDIS_ADDR"),
		KafkaBrokers: strings.Split(mustEnv("KAFKA_BROKERS"), ","),
		DirectoryURL: mustEnv("DIRECTORY_URL"),
		ServiceName:  getEnv("SERVICE_NAME", "marketcore"),
		JWTSecret:    mustEnv("JWT_SECRET"),
		JWTIssuer:    getEnv("JWT_ISSUER", "marketplace"),
		JWTAudience:  getEnv("JWT_AUDIENCE", "marketplace-clients"),
	}
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing required env: " + k)
	}
	return v
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

package config

import (
	"os"

	"github.com/joho/godotenv"

	"pig_webapp/internal/logger"
)

// Config - настройки приложения из окружения
type Config struct {
	AppPort       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	AllowedOrigin string
	PublicURL     string // базовый адрес фронта для ссылок-приглашений
	LogLevel      string
	LogFormat     string
}

// Load читает .env (если есть) и собирает конфигурацию.
// Обязательных переменных нет: без базы и Redis сервис деградирует
// до памяти процесса.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// .env опционален, в проде переменные приходят из окружения
		logger.Debug("файл .env не загружен", "error", err)
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		PublicURL:     getEnv("PUBLIC_URL", "http://localhost:"+getEnv("APP_PORT", "8080")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pig_webapp/internal/logger"
)

// Connect открывает пул соединений к Postgres.
// Возвращает nil если url пуст или база недоступна - вызывающий
// переключается на хранение в памяти.
func Connect(url string) *pgxpool.Pool {
	if url == "" {
		logger.Warn("DATABASE_URL не задан, статистика будет храниться в памяти")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Error("не удалось создать пул соединений", "error", err)
		return nil
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("база недоступна", "error", err)
		pool.Close()
		return nil
	}

	logger.Info("подключение к базе установлено")
	return pool
}

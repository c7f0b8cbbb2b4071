package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pig_webapp/internal/logger"
)

var rateLimiterClient *redis.Client

// InitRedisRateLimiter подключает Redis для ограничения частоты запросов.
// Пустой addr или недоступный Redis отключают лимитер (пропускаем всех).
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		logger.Warn("rate limiter отключен: REDIS_ADDR не задан")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("rate limiter отключен: Redis недоступен", "error", err)
		return
	}

	rateLimiterClient = client
	logger.Info("rate limiter включен", "addr", addr)
}

// RateLimit ограничивает клиента limit запросами за window.
// Счетчик в Redis: INCR + EXPIRE на первый запрос окна.
// Без подключенного Redis - сквозной пропуск.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimiterClient == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())
		ctx := c.Request.Context()

		count, err := rateLimiterClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis отвалился - не блокируем работу сервиса
			logger.Warn("rate limiter: ошибка Redis", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rateLimiterClient.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "слишком много запросов, попробуйте позже",
			})
			return
		}

		c.Next()
	}
}

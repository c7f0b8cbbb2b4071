// Package http регистрирует маршруты приложения
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"pig_webapp/internal/config"
	"pig_webapp/internal/http/handlers"
	"pig_webapp/internal/http/middleware"
	"pig_webapp/internal/repository"
	"pig_webapp/internal/store"
	"pig_webapp/internal/ws"
)

// RegisterRoutes подключает REST и WebSocket эндпоинты
func RegisterRoutes(r *gin.Engine, dbPool *pgxpool.Pool, stats repository.Stats, rooms store.Store, hub *ws.Hub, version string, cfg *config.Config) {
	h := handlers.NewHandler(dbPool, stats, rooms, cfg.PublicURL, version)

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		// выдача токенов ограничена жестче остального API
		api.POST("/auth/guest", middleware.RateLimit(10, time.Minute), h.GuestAuth)

		authed := api.Group("", handlers.Auth())
		authed.GET("/stats", h.MyStats)
		authed.GET("/rooms/:code", middleware.RateLimit(60, time.Minute), h.RoomInfo)
	}

	r.GET("/ws/game", ws.Handler(hub, cfg.AllowedOrigin))
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pig_webapp/internal/config"
	"pig_webapp/internal/db"
	httpServer "pig_webapp/internal/http"
	"pig_webapp/internal/http/middleware"
	"pig_webapp/internal/logger"
	"pig_webapp/internal/repository"
	"pig_webapp/internal/service"
	"pig_webapp/internal/store"
	"pig_webapp/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	// Инициализация структурированного логгера
	logger.Init(cfg.LogLevel, cfg.LogFormat == "json")
	log := logger.Get()

	service.InitJWT()

	// Postgres для статистики; без базы - деградация до памяти
	dbPool := db.Connect(cfg.DatabaseURL)
	var statsRepo repository.Stats
	if dbPool != nil {
		defer dbPool.Close()
		statsRepo = repository.NewStatsRepository(dbPool)
	} else {
		statsRepo = repository.NewMemoryStatsRepository()
	}

	// Redis для сетевых комнат; без него комнаты живут в памяти процесса
	// (работает только в пределах одного инстанса)
	var rooms store.Store = store.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		rs := store.NewRedisStore(rdb)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			log.Warn("Redis недоступен, комнаты в памяти процесса", "error", err)
		} else {
			rooms = rs
			log.Info("хранилище комнат: Redis", "addr", cfg.RedisAddr)
		}
	} else {
		log.Warn("REDIS_ADDR не задан, комнаты в памяти процесса")
	}

	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, 0)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hub := ws.NewHub(rooms, statsRepo, cfg.PublicURL)
	httpServer.RegisterRoutes(r, dbPool, statsRepo, rooms, hub, Version, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Плавная остановка: закрываем подключения, выходим из комнат
	hub.Shutdown(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

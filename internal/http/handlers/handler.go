package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"pig_webapp/internal/repository"
	"pig_webapp/internal/store"
)

// Handler агрегирует зависимости HTTP-эндпоинтов
type Handler struct {
	DB        *pgxpool.Pool // nil при работе без базы
	Stats     repository.Stats
	Rooms     store.Store
	PublicURL string
	Version   string
}

func NewHandler(db *pgxpool.Pool, stats repository.Stats, rooms store.Store, publicURL, version string) *Handler {
	return &Handler{
		DB:        db,
		Stats:     stats,
		Rooms:     rooms,
		PublicURL: publicURL,
		Version:   version,
	}
}

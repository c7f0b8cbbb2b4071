package repository

import (
	"context"
	"sync"

	"pig_webapp/internal/domain"
)

// Stats - контракт хранилища статистики; реализации: Postgres и память
type Stats interface {
	Get(ctx context.Context, userID int64) (*domain.Stats, error)
	Save(ctx context.Context, userID int64, st domain.Stats) error
}

// MemoryStatsRepository - запасной вариант при недоступной базе:
// статистика живет до перезапуска процесса
type MemoryStatsRepository struct {
	mu   sync.RWMutex
	data map[int64]domain.Stats
}

func NewMemoryStatsRepository() *MemoryStatsRepository {
	return &MemoryStatsRepository{data: make(map[int64]domain.Stats)}
}

func (r *MemoryStatsRepository) Get(_ context.Context, userID int64) (*domain.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.data[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (r *MemoryStatsRepository) Save(_ context.Context, userID int64, st domain.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.data[userID]
	if st.LongestStreak < cur.LongestStreak {
		st.LongestStreak = cur.LongestStreak
	}
	r.data[userID] = st
	return nil
}

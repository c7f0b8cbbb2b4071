package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pig_webapp/internal/domain"
)

// StatsRepository хранит накопленную статистику игрока в Postgres
type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get возвращает статистику игрока; nil без ошибки, если записей еще нет
func (r *StatsRepository) Get(ctx context.Context, userID int64) (*domain.Stats, error) {
	var st domain.Stats
	err := r.db.QueryRow(ctx, `
		SELECT games_played, p1_wins, p2_wins, longest_streak
		FROM pig_stats
		WHERE user_id = $1
	`, userID).Scan(&st.GamesPlayed, &st.P1Wins, &st.P2Wins, &st.LongestStreak)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения статистики: %w", err)
	}
	return &st, nil
}

// Save перезаписывает статистику игрока целиком (upsert).
// Значения приходят из движка уже агрегированными, инкремент в SQL не нужен.
func (r *StatsRepository) Save(ctx context.Context, userID int64, st domain.Stats) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pig_stats (user_id, games_played, p1_wins, p2_wins, longest_streak, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			games_played   = EXCLUDED.games_played,
			p1_wins        = EXCLUDED.p1_wins,
			p2_wins        = EXCLUDED.p2_wins,
			longest_streak = GREATEST(pig_stats.longest_streak, EXCLUDED.longest_streak),
			updated_at     = NOW()
	`, userID, st.GamesPlayed, st.P1Wins, st.P2Wins, st.LongestStreak)

	if err != nil {
		return fmt.Errorf("ошибка сохранения статистики: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"testing"

	"pig_webapp/internal/domain"
)

func TestMemoryStatsRepository_GetMissing(t *testing.T) {
	r := NewMemoryStatsRepository()
	st, err := r.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("чтение пустого хранилища: %v", err)
	}
	if st != nil {
		t.Fatalf("до первой записи ожидался nil, получили %+v", st)
	}
}

func TestMemoryStatsRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryStatsRepository()

	in := domain.Stats{GamesPlayed: 3, P1Wins: 2, P2Wins: 1, LongestStreak: 7}
	if err := r.Save(ctx, 42, in); err != nil {
		t.Fatalf("запись: %v", err)
	}

	out, err := r.Get(ctx, 42)
	if err != nil {
		t.Fatalf("чтение: %v", err)
	}
	if out == nil || *out != in {
		t.Fatalf("ожидалось %+v, получили %+v", in, out)
	}
}

func TestMemoryStatsRepository_LongestStreakNeverShrinks(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryStatsRepository()

	r.Save(ctx, 42, domain.Stats{GamesPlayed: 1, LongestStreak: 9})
	r.Save(ctx, 42, domain.Stats{GamesPlayed: 2, LongestStreak: 4})

	out, _ := r.Get(ctx, 42)
	if out.LongestStreak != 9 {
		t.Fatalf("рекорд серии не должен уменьшаться, получили %d", out.LongestStreak)
	}
	if out.GamesPlayed != 2 {
		t.Fatalf("остальные поля должны перезаписываться, получили %d", out.GamesPlayed)
	}
}

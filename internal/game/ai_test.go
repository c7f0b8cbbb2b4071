package game

import (
	"testing"

	"pig_webapp/internal/domain"
)

func aiState(aiScore, oppScore, currentScore, winningScore int) domain.MatchState {
	return domain.MatchState{
		Scores:       [2]int{aiScore, oppScore},
		CurrentScore: currentScore,
		ActivePlayer: 0,
		Playing:      true,
		WinningScore: winningScore,
	}
}

func TestHoldThreshold_BaseValues(t *testing.T) {
	cases := []struct {
		d    Difficulty
		want int
	}{
		{DifficultyCautious, 12},
		{DifficultyBalanced, 18},
		{DifficultyRisky, 28},
		{DifficultyOptimal, 20},
	}
	for _, tc := range cases {
		got := HoldThreshold(tc.d, aiState(0, 0, 0, 100))
		if got != tc.want {
			t.Fatalf("%s: ожидался порог %d, получили %d", tc.d, tc.want, got)
		}
	}
}

func TestHoldThreshold_OptimalBehind(t *testing.T) {
	// отставание на 30 - умеренный риск
	if got := HoldThreshold(DifficultyOptimal, aiState(40, 70, 0, 100)); got != 22 {
		t.Fatalf("при отставании на 30 ожидался порог 22, получили %d", got)
	}
	// отставание больше 30 - агрессия
	if got := HoldThreshold(DifficultyOptimal, aiState(20, 60, 0, 100)); got != 25 {
		t.Fatalf("при глубоком отставании ожидался порог 25, получили %d", got)
	}
}

func TestHoldThreshold_OptimalAhead(t *testing.T) {
	// опережение больше 30 - консервативность
	if got := HoldThreshold(DifficultyOptimal, aiState(60, 20, 0, 100)); got != 15 {
		t.Fatalf("при большом опережении ожидался порог 15, получили %d", got)
	}
	if got := HoldThreshold(DifficultyOptimal, aiState(50, 30, 0, 100)); got != 17 {
		t.Fatalf("при умеренном опережении ожидался порог 17, получили %d", got)
	}
}

func TestHoldThreshold_ImmediateWin(t *testing.T) {
	// очков на руках хватает для победы - забираем немедленно
	if got := HoldThreshold(DifficultyOptimal, aiState(85, 40, 15, 100)); got != 0 {
		t.Fatalf("при немедленной победе ожидался порог 0, получили %d", got)
	}
	// простые стратегии тоже не упускают победу
	if got := HoldThreshold(DifficultyRisky, aiState(90, 40, 10, 100)); got != 0 {
		t.Fatalf("risky при немедленной победе: ожидался порог 0, получили %d", got)
	}
}

func TestHoldThreshold_NearFinish(t *testing.T) {
	// до победы 18 очков: порог ограничен остатком дистанции
	if got := HoldThreshold(DifficultyOptimal, aiState(82, 50, 0, 100)); got != 15 {
		// опережение на 32 дает 15, дистанция 18 не ниже
		t.Fatalf("ожидался порог 15, получили %d", got)
	}
	// дистанция 10 режет порог сильнее
	if got := HoldThreshold(DifficultyOptimal, aiState(90, 50, 0, 100)); got != 10 {
		t.Fatalf("ожидался порог 10, получили %d", got)
	}
}

func TestHoldThreshold_OpponentNearWin(t *testing.T) {
	// противник в 15 очках от победы - поднимаем планку до 22
	if got := HoldThreshold(DifficultyOptimal, aiState(50, 85, 0, 100)); got != 25 {
		// отставание на 35 уже дало 25, планка 22 не снижает
		t.Fatalf("ожидался порог 25, получили %d", got)
	}
	if got := HoldThreshold(DifficultyOptimal, aiState(70, 85, 0, 100)); got != 22 {
		t.Fatalf("ожидался порог 22, получили %d", got)
	}
}

func TestDecide_Deterministic(t *testing.T) {
	// nil jitter: строгое сравнение с порогом
	if got := Decide(DifficultyCautious, aiState(0, 0, 11, 100), nil); got != DecisionRoll {
		t.Fatalf("под порогом ожидался roll, получили %s", got)
	}
	if got := Decide(DifficultyCautious, aiState(0, 0, 12, 100), nil); got != DecisionHold {
		t.Fatalf("на пороге ожидался hold, получили %s", got)
	}
}

func TestDecide_JitterShiftsThreshold(t *testing.T) {
	plus2 := func(int) int { return 2 }
	if got := Decide(DifficultyCautious, aiState(0, 0, 13, 100), plus2); got != DecisionRoll {
		t.Fatalf("джиттер +2 поднимает порог до 14, ожидался roll")
	}
	if got := Decide(DifficultyCautious, aiState(0, 0, 14, 100), plus2); got != DecisionHold {
		t.Fatalf("джиттер +2: на 14 ожидался hold")
	}

	// optimal не джиттерится
	if got := Decide(DifficultyOptimal, aiState(0, 0, 20, 100), plus2); got != DecisionHold {
		t.Fatalf("optimal детерминирован, на пороге ожидался hold")
	}
}

func TestGetAIConfig_FallsBackToBalanced(t *testing.T) {
	cfg := GetAIConfig("bogus")
	if cfg.Name != "Balanced Betty" {
		t.Fatalf("неизвестная сложность должна давать balanced, получили %s", cfg.Name)
	}
}

package game

import "pig_webapp/internal/domain"

// Сложность ИИ
type Difficulty string

const (
	DifficultyCautious Difficulty = "cautious"
	DifficultyBalanced Difficulty = "balanced"
	DifficultyRisky    Difficulty = "risky"
	DifficultyOptimal  Difficulty = "optimal"
)

// Решение ИИ
type Decision string

const (
	DecisionRoll Decision = "roll"
	DecisionHold Decision = "hold"
)

// конфигурация одной стратегии ИИ
type AIConfig struct {
	Name              string
	BaseHoldThreshold int
	Description       string
}

var aiConfigs = map[Difficulty]AIConfig{
	DifficultyCautious: {
		Name:              "Cautious Carl",
		BaseHoldThreshold: 12,
		Description:       "играет осторожно, забирает очки рано",
	},
	DifficultyBalanced: {
		Name:              "Balanced Betty",
		BaseHoldThreshold: 18,
		Description:       "сбалансированный риск",
	},
	DifficultyRisky: {
		Name:              "Risky Rick",
		BaseHoldThreshold: 28,
		Description:       "агрессивный, продолжает бросать",
	},
	DifficultyOptimal: {
		Name:              "Optimal Otto",
		BaseHoldThreshold: 20,
		Description:       "подстраивает стратегию под состояние партии",
	},
}

// GetAIConfig возвращает конфигурацию стратегии (balanced по умолчанию)
func GetAIConfig(d Difficulty) AIConfig {
	if cfg, ok := aiConfigs[d]; ok {
		return cfg
	}
	return aiConfigs[DifficultyBalanced]
}

// HoldThreshold вычисляет порог, при котором ИИ забирает очки.
// Оптимальная стратегия полностью детерминирована; подстройки:
//   - отставание от противника делает ее агрессивнее (две ступени на +15 и +30),
//     опережение - консервативнее (симметрично);
//   - ближе 20 очков до победы порог ограничивается остатком дистанции;
//   - если текущие очки уже дают победу - порог 0, забираем немедленно;
//   - если противник ближе 20 очков к победе - порог поднимается минимум до 22.
func HoldThreshold(d Difficulty, s domain.MatchState) int {
	aiScore := s.Scores[s.ActivePlayer]
	opponentScore := s.Scores[1-s.ActivePlayer]
	cfg := GetAIConfig(d)

	threshold := cfg.BaseHoldThreshold

	if d == DifficultyOptimal {
		scoreDiff := opponentScore - aiScore
		distanceToWin := s.WinningScore - aiScore

		// отстаем - рискуем больше
		if scoreDiff > 30 {
			threshold = 25
		} else if scoreDiff > 15 {
			threshold = 22
		} else if scoreDiff < -30 {
			// ведем - играем спокойнее
			threshold = 15
		} else if scoreDiff < -15 {
			threshold = 17
		}

		if s.CurrentScore+aiScore >= s.WinningScore {
			threshold = 0 // можем выиграть прямо сейчас
		} else if distanceToWin <= 20 {
			// у финиша не перебираем лишнего
			if threshold > distanceToWin {
				threshold = distanceToWin
			}
		}

		// противник у финиша - давим
		if s.WinningScore-opponentScore <= 20 && threshold < 22 {
			threshold = 22
		}
	} else {
		// простые стратегии тоже не упускают немедленную победу
		if s.CurrentScore+aiScore >= s.WinningScore {
			threshold = 0
		}
	}

	return threshold
}

// Decide возвращает решение roll/hold.
// jitter вносит небольшую случайность (+-2) для всех стратегий кроме optimal;
// nil jitter делает решение полностью детерминированным.
func Decide(d Difficulty, s domain.MatchState, jitter func(spread int) int) Decision {
	threshold := HoldThreshold(d, s)

	adjusted := threshold
	if d != DifficultyOptimal && jitter != nil {
		adjusted += jitter(2)
	}

	if s.CurrentScore >= adjusted {
		return DecisionHold
	}
	return DecisionRoll
}

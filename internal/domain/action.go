package domain

import "fmt"

// Тип действия в комнате
type ActionType string

const (
	ActionRoll    ActionType = "roll"
	ActionHold    ActionType = "hold"
	ActionNewGame ActionType = "newGame"
)

// Action - последнее действие игрока в сетевом матче.
// Размеченный вариант: дискриминант Type, у каждого вида только свои поля.
type Action struct {
	Type      ActionType `json:"type"`
	Player    int        `json:"player"` // место действующего игрока: 0 хост, 1 гость
	DiceValue int        `json:"dice_value,omitempty"`
	HeldScore int        `json:"held_score,omitempty"`
	Timestamp int64      `json:"timestamp"` // unix-милли, уникален в пределах комнаты
}

// Key возвращает составной ключ дедупликации.
// Повторная доставка того же действия дает тот же ключ.
func (a Action) Key() string {
	return fmt.Sprintf("%s-%d-%d", a.Type, a.Player, a.Timestamp)
}

// StatePatch - минимальный набор изменившихся полей gameState,
// публикуемый вместе с действием. nil-поля не трогаются.
type StatePatch struct {
	Scores       *[2]int `json:"scores,omitempty"`
	CurrentScore *int    `json:"current_score,omitempty"`
	ActivePlayer *int    `json:"active_player,omitempty"`
	Playing      *bool   `json:"playing,omitempty"`
	Winner       *int    `json:"winner,omitempty"`
}

package domain

// Режим матча
type Mode string

const (
	ModeLocal  Mode = "local"  // два игрока за одним экраном
	ModeTimed  Mode = "timed"  // ход ограничен таймером
	ModeVsAI   Mode = "vsai"   // против компьютера
	ModeOnline Mode = "online" // сетевой матч через комнату
)

// проверяет, что строка является известным режимом
func (m Mode) Valid() bool {
	switch m {
	case ModeLocal, ModeTimed, ModeVsAI, ModeOnline:
		return true
	}
	return false
}

const (
	// Порог победы по умолчанию
	DefaultWinningScore = 100

	// Длительность хода в режиме на время (в секундах)
	TurnSeconds = 30
)

// MatchState - авторитетное состояние одного матча.
// Мутируется только операциями движка.
type MatchState struct {
	Scores        [2]int `json:"scores"`
	CurrentScore  int    `json:"current_score"`
	ActivePlayer  int    `json:"active_player"` // 0 или 1
	Playing       bool   `json:"playing"`
	Mode          Mode   `json:"mode"`
	WinningScore  int    `json:"winning_score"`
	CurrentStreak int    `json:"current_streak"`
	LocalPlayer   *int   `json:"local_player,omitempty"` // nil вне сетевого матча
	Winner        *int   `json:"winner,omitempty"`       // устанавливается ровно один раз
}

// Shared возвращает публикуемую в комнату часть состояния
func (s MatchState) Shared() SharedState {
	return SharedState{
		Scores:       s.Scores,
		CurrentScore: s.CurrentScore,
		ActivePlayer: s.ActivePlayer,
		Playing:      s.Playing,
		WinningScore: s.WinningScore,
		Winner:       s.Winner,
	}
}

// SharedState - под-запись gameState в комнате.
// Не содержит локальных полей (localPlayer, streak).
type SharedState struct {
	Scores       [2]int `json:"scores"`
	CurrentScore int    `json:"current_score"`
	ActivePlayer int    `json:"active_player"`
	Playing      bool   `json:"playing"`
	WinningScore int    `json:"winning_score"`
	Winner       *int   `json:"winner,omitempty"`
}

// Персистентная статистика игрока
type Stats struct {
	GamesPlayed   int `json:"games_played"`
	P1Wins        int `json:"p1_wins"`
	P2Wins        int `json:"p2_wins"`
	LongestStreak int `json:"longest_streak"`
}

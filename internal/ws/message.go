package ws

import (
	"encoding/json"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/game"
)

// Входящее сообщение клиента. Тип определяет, какие поля значимы.
type inboundMessage struct {
	Type         string `json:"type"`
	Mode         string `json:"mode,omitempty"`          // start, set_mode
	WinningScore int    `json:"winning_score,omitempty"` // start, set_winning_score
	Difficulty   string `json:"difficulty,omitempty"`    // set_difficulty
	Code         string `json:"code,omitempty"`          // join_room
}

// Типы входящих сообщений
const (
	msgStart           = "start"
	msgRoll            = "roll"
	msgHold            = "hold"
	msgNewGame         = "new_game"
	msgSetMode         = "set_mode"
	msgSetWinningScore = "set_winning_score"
	msgSetDifficulty   = "set_difficulty"
	msgCreateRoom      = "create_room"
	msgJoinRoom        = "join_room"
	msgLeaveRoom       = "leave_room"
)

// statePayload - полный снимок для UI, шлется после каждого изменения
type statePayload struct {
	Type       string            `json:"type"` // "state"
	State      domain.MatchState `json:"state"`
	Phase      game.Phase        `json:"phase"`
	Stats      domain.Stats      `json:"stats"`
	Difficulty game.Difficulty   `json:"difficulty"`
	AIName     string            `json:"ai_name"`
	Timer      float64           `json:"timer"` // доля оставшегося времени хода
}

type dicePayload struct {
	Type   string `json:"type"` // "dice"
	Value  int    `json:"value"`
	Busted bool   `json:"busted"`
}

type roomCreatedPayload struct {
	Type       string `json:"type"` // "room_created"
	Code       string `json:"code"`
	InviteLink string `json:"invite_link"`
}

type matchedPayload struct {
	Type string `json:"type"` // "matched"
	Code string `json:"code"`
	Seat int    `json:"seat"`
}

type toastPayload struct {
	Type string `json:"type"` // "toast"
	Text string `json:"text"`
}

type errorPayload struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"type":"error","message":"internal"}`)
	}
	return data
}

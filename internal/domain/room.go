package domain

// Места в комнате
const (
	SeatHost  = 0
	SeatGuest = 1
)

// Присутствие одной стороны в комнате
type PlayerPresence struct {
	Connected bool  `json:"connected"`
	LastSeen  int64 `json:"last_seen"` // unix-милли
}

// RoomRecord - общая запись одной сетевой комнаты.
// Создается хостом, мутируется действующей стороной,
// логически умирает когда обе стороны отключились (TTL хранилища).
type RoomRecord struct {
	Code       string         `json:"code"`
	CreatedAt  int64          `json:"created_at"`
	Host       PlayerPresence `json:"host"`
	Guest      PlayerPresence `json:"guest"`
	GameState  SharedState    `json:"game_state"`
	LastAction *Action        `json:"last_action,omitempty"`
}

package online

import (
	"crypto/rand"
	"math/big"
	"net/url"
	"strings"
)

// алфавит без похожих символов (I, O, 0, 1)
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// GenerateRoomCode возвращает случайный код комнаты из 6 символов
func GenerateRoomCode() string {
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	b := make([]byte, roomCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// крайне маловероятно; fallback на первый символ алфавита
			b[i] = roomCodeAlphabet[0]
			continue
		}
		b[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(b)
}

// NormalizeRoomCode приводит введенный пользователем код к каноничному виду
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// InviteLink строит ссылку-приглашение вида {base}?room={code}
func InviteLink(base, code string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?room=" + NormalizeRoomCode(code)
	}
	q := u.Query()
	q.Set("room", NormalizeRoomCode(code))
	u.RawQuery = q.Encode()
	return u.String()
}

// RoomCodeFromURL извлекает код комнаты из ссылки-приглашения,
// возвращает пустую строку если кода нет
func RoomCodeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return NormalizeRoomCode(u.Query().Get("room"))
}

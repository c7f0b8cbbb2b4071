package service

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pig_webapp/internal/logger"
)

var jwtSecret []byte

// срок жизни гостевого токена
const guestTokenTTL = 30 * 24 * time.Hour

// InitJWT загружает секрет подписи из окружения.
// Без JWT_SECRET генерируется случайный секрет на время жизни процесса:
// достаточно для локальной разработки, токены не переживут перезапуск.
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			logger.Fatal("не удалось сгенерировать JWT секрет", "error", err)
		}
		jwtSecret = buf
		logger.Warn("JWT_SECRET не задан, используется случайный секрет процесса")
		return
	}
	jwtSecret = []byte(secret)
}

// IssueGuestToken создает анонимного игрока и подписанный токен для него.
// Идентификатор случайный: регистрации нет, токен и есть личность.
func IssueGuestToken() (int64, string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, "", err
	}
	userID := int64(binary.BigEndian.Uint64(buf[:]) >> 1) // неотрицательный

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     now.Add(guestTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return 0, "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return userID, signed, nil
}

// ParseJWT проверяет подпись и срок токена, возвращает идентификатор игрока
func ParseJWT(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("невалидный токен")
	}

	raw, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("в токене нет user_id")
	}
	return int64(raw), nil
}

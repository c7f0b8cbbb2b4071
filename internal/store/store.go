// Package store - порт удаленного хранилища комнат: eventually-consistent
// дерево ключей с уведомлениями об изменениях и механизмом присутствия.
// Боевая реализация - Redis (hash + pub/sub + TTL ключей присутствия),
// локальные режимы и тесты работают на MemoryStore.
package store

import (
	"context"
	"errors"

	"pig_webapp/internal/domain"
)

var (
	ErrRoomNotFound       = errors.New("комната не найдена")
	ErrRoomFull           = errors.New("комната уже занята")
	ErrBackendUnavailable = errors.New("хранилище комнат недоступно")
)

// Вид события комнаты
type EventKind string

const (
	EventAction   EventKind = "action"   // записан lastAction
	EventState    EventKind = "state"    // опубликован полный снимок gameState
	EventPresence EventKind = "presence" // изменилось присутствие стороны
)

// Event - одно уведомление наблюдателю комнаты.
// Доставка не реже одного раза; потребитель обязан дедуплицировать.
type Event struct {
	Kind      EventKind           `json:"kind"`
	Action    *domain.Action      `json:"action,omitempty"`
	State     *domain.SharedState `json:"state,omitempty"`
	Seat      int                 `json:"seat,omitempty"`
	Connected bool                `json:"connected,omitempty"`
}

// Store - операции над записями комнат.
type Store interface {
	// CreateRoom публикует новую запись комнаты
	CreateRoom(ctx context.Context, rec *domain.RoomRecord) error

	// GetRoom читает запись; ErrRoomNotFound если ее нет
	GetRoom(ctx context.Context, code string) (*domain.RoomRecord, error)

	// JoinAsGuest атомарно занимает место гостя и включает playing.
	// ErrRoomNotFound / ErrRoomFull при отказе.
	JoinAsGuest(ctx context.Context, code string) (*domain.RoomRecord, error)

	// PublishAction пишет lastAction и минимальный патч gameState
	PublishAction(ctx context.Context, code string, act domain.Action, patch domain.StatePatch) error

	// PublishState пишет полный снимок gameState (старт/победитель)
	PublishState(ctx context.Context, code string, st domain.SharedState) error

	// Heartbeat обновляет отметку живости своей стороны
	Heartbeat(ctx context.Context, code string, seat int) error

	// SetConnected помечает сторону подключенной/отключенной
	SetConnected(ctx context.Context, code string, seat int, connected bool) error

	// Watch подписывает на события комнаты до отмены ctx.
	// Канал закрывается при отмене подписки.
	Watch(ctx context.Context, code string) (<-chan Event, error)
}

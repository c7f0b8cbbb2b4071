package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/logger"
)

const (
	// время жизни записи комнаты - внешняя политика жизненного цикла,
	// ядро комнаты активно не удаляет
	roomTTL = 24 * time.Hour

	// TTL ключа присутствия: истек - сторона считается отключенной
	presenceTTL = 30 * time.Second
)

// RedisStore - боевая реализация Store: запись комнаты в ключе
// rooms:{code}, уведомления через pub/sub канал rooms:{code}:events,
// живость сторон через TTL ключей rooms:{code}:presence:{seat}.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Ping проверяет доступность Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func roomKey(code string) string { return "rooms:" + normalize(code) }

func eventsKey(code string) string { return "rooms:" + normalize(code) + ":events" }

func presenceKey(code string, seat int) string {
	return fmt.Sprintf("rooms:%s:presence:%d", normalize(code), seat)
}

func (s *RedisStore) CreateRoom(ctx context.Context, rec *domain.RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, roomKey(rec.Code), data, roomTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return s.rdb.Set(ctx, presenceKey(rec.Code, domain.SeatHost), "1", presenceTTL).Err()
}

func (s *RedisStore) GetRoom(ctx context.Context, code string) (*domain.RoomRecord, error) {
	data, err := s.rdb.Get(ctx, roomKey(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	var rec domain.RoomRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	// сторона без живого ключа присутствия считается отключенной
	if rec.Host.Connected {
		rec.Host.Connected = s.alive(ctx, code, domain.SeatHost)
	}
	if rec.Guest.Connected {
		rec.Guest.Connected = s.alive(ctx, code, domain.SeatGuest)
	}

	return &rec, nil
}

func (s *RedisStore) alive(ctx context.Context, code string, seat int) bool {
	n, err := s.rdb.Exists(ctx, presenceKey(code, seat)).Result()
	return err == nil && n > 0
}

func (s *RedisStore) JoinAsGuest(ctx context.Context, code string) (*domain.RoomRecord, error) {
	rec, err := s.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if rec.Guest.Connected {
		return nil, ErrRoomFull
	}

	now := time.Now().UnixMilli()
	rec.Guest = domain.PlayerPresence{Connected: true, LastSeen: now}
	rec.GameState.Playing = true

	if err := s.writeRoom(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, presenceKey(code, domain.SeatGuest), "1", presenceTTL).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.publish(ctx, code, Event{Kind: EventPresence, Seat: domain.SeatGuest, Connected: true})
	return rec, nil
}

func (s *RedisStore) PublishAction(ctx context.Context, code string, act domain.Action, patch domain.StatePatch) error {
	rec, err := s.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	a := act
	rec.LastAction = &a
	applyPatch(&rec.GameState, patch)

	if err := s.writeRoom(ctx, rec); err != nil {
		return err
	}
	s.publish(ctx, code, Event{Kind: EventAction, Action: &a})
	return nil
}

func (s *RedisStore) PublishState(ctx context.Context, code string, st domain.SharedState) error {
	rec, err := s.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	rec.GameState = st
	if err := s.writeRoom(ctx, rec); err != nil {
		return err
	}
	s.publish(ctx, code, Event{Kind: EventState, State: &st})
	return nil
}

func (s *RedisStore) Heartbeat(ctx context.Context, code string, seat int) error {
	// продление ключа присутствия и есть отметка живости
	if err := s.rdb.Set(ctx, presenceKey(code, seat), "1", presenceTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) SetConnected(ctx context.Context, code string, seat int, connected bool) error {
	rec, err := s.GetRoom(ctx, code)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	if seat == domain.SeatHost {
		rec.Host = domain.PlayerPresence{Connected: connected, LastSeen: now}
	} else {
		rec.Guest = domain.PlayerPresence{Connected: connected, LastSeen: now}
	}

	if err := s.writeRoom(ctx, rec); err != nil {
		return err
	}

	if connected {
		err = s.rdb.Set(ctx, presenceKey(code, seat), "1", presenceTTL).Err()
	} else {
		err = s.rdb.Del(ctx, presenceKey(code, seat)).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	s.publish(ctx, code, Event{Kind: EventPresence, Seat: seat, Connected: connected})
	return nil
}

func (s *RedisStore) Watch(ctx context.Context, code string) (<-chan Event, error) {
	if _, err := s.GetRoom(ctx, code); err != nil {
		return nil, err
	}

	sub := s.rdb.Subscribe(ctx, eventsKey(code))
	out := make(chan Event, 64)

	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warn("не удалось разобрать событие комнаты", "room", code, "error", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *RedisStore) writeRoom(ctx context.Context, rec *domain.RoomRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, roomKey(rec.Code), data, roomTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, code string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	// ошибки публикации логируются и не повторяются: рассинхронизация
	// закрывается ближайшим полным снимком (старт/победитель)
	if err := s.rdb.Publish(ctx, eventsKey(code), data).Err(); err != nil {
		logger.Warn("не удалось опубликовать событие комнаты", "room", code, "error", err)
	}
}

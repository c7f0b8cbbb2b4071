package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"pig_webapp/internal/domain"
)

// MemoryStore - внутрипроцессная реализация Store.
// Используется когда Redis не настроен (деградация до локальной игры)
// и в тестах. Оба пира одного процесса разделяют один экземпляр.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]*domain.RoomRecord
	watchers map[string][]chan Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]*domain.RoomRecord),
		watchers: make(map[string][]chan Event),
	}
}

func (s *MemoryStore) CreateRoom(ctx context.Context, rec *domain.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.rooms[rec.Code] = &cp
	return nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, code string) (*domain.RoomRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rooms[normalize(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) JoinAsGuest(ctx context.Context, code string) (*domain.RoomRecord, error) {
	code = normalize(code)

	s.mu.Lock()
	rec, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	if rec.Guest.Connected {
		s.mu.Unlock()
		return nil, ErrRoomFull
	}

	now := time.Now().UnixMilli()
	rec.Guest = domain.PlayerPresence{Connected: true, LastSeen: now}
	rec.GameState.Playing = true
	cp := *rec
	s.mu.Unlock()

	s.notify(code, Event{Kind: EventPresence, Seat: domain.SeatGuest, Connected: true})
	return &cp, nil
}

func (s *MemoryStore) PublishAction(ctx context.Context, code string, act domain.Action, patch domain.StatePatch) error {
	code = normalize(code)

	s.mu.Lock()
	rec, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	a := act
	rec.LastAction = &a
	applyPatch(&rec.GameState, patch)
	s.mu.Unlock()

	s.notify(code, Event{Kind: EventAction, Action: &a})
	return nil
}

func (s *MemoryStore) PublishState(ctx context.Context, code string, st domain.SharedState) error {
	code = normalize(code)

	s.mu.Lock()
	rec, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	rec.GameState = st
	cp := st
	s.mu.Unlock()

	s.notify(code, Event{Kind: EventState, State: &cp})
	return nil
}

func (s *MemoryStore) Heartbeat(ctx context.Context, code string, seat int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[normalize(code)]
	if !ok {
		return ErrRoomNotFound
	}
	now := time.Now().UnixMilli()
	if seat == domain.SeatHost {
		rec.Host.LastSeen = now
	} else {
		rec.Guest.LastSeen = now
	}
	return nil
}

func (s *MemoryStore) SetConnected(ctx context.Context, code string, seat int, connected bool) error {
	code = normalize(code)

	s.mu.Lock()
	rec, ok := s.rooms[code]
	if !ok {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	now := time.Now().UnixMilli()
	if seat == domain.SeatHost {
		rec.Host = domain.PlayerPresence{Connected: connected, LastSeen: now}
	} else {
		rec.Guest = domain.PlayerPresence{Connected: connected, LastSeen: now}
	}
	s.mu.Unlock()

	s.notify(code, Event{Kind: EventPresence, Seat: seat, Connected: connected})
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, code string) (<-chan Event, error) {
	code = normalize(code)

	s.mu.Lock()
	if _, ok := s.rooms[code]; !ok {
		s.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	ch := make(chan Event, 64)
	s.watchers[code] = append(s.watchers[code], ch)
	s.mu.Unlock()

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer s.detach(code, ch)
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
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

// рассылает событие всем наблюдателям комнаты; переполненные
// каналы пропускаются (потребитель дедуплицирует и сверяется со снимками)
func (s *MemoryStore) notify(code string, ev Event) {
	s.mu.RLock()
	watchers := make([]chan Event, len(s.watchers[code]))
	copy(watchers, s.watchers[code])
	s.mu.RUnlock()

	for _, ch := range watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *MemoryStore) detach(code string, ch chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.watchers[code]
	for i, c := range list {
		if c == ch {
			s.watchers[code] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func applyPatch(st *domain.SharedState, p domain.StatePatch) {
	if p.Scores != nil {
		st.Scores = *p.Scores
	}
	if p.CurrentScore != nil {
		st.CurrentScore = *p.CurrentScore
	}
	if p.ActivePlayer != nil {
		st.ActivePlayer = *p.ActivePlayer
	}
	if p.Playing != nil {
		st.Playing = *p.Playing
	}
	if p.Winner != nil {
		st.Winner = p.Winner
	}
}

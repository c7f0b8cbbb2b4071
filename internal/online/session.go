// Package online синхронизирует движок матча с комнатой в хранилище.
// Модель доверия - advisory: каждая сторона применяет действия противника
// как присланы, авторитетного арбитра нет. Рассинхронизация закрывается
// полными снимками состояния на старте матча и при объявлении победителя.
package online

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/game"
	"pig_webapp/internal/logger"
	"pig_webapp/internal/metrics"
	"pig_webapp/internal/store"
)

const (
	// период продления присутствия
	heartbeatInterval = 10 * time.Second

	// таймаут одной операции с хранилищем
	storeTimeout = 5 * time.Second

	// попытки генерации кода при коллизии
	createAttempts = 5
)

// PresenceFunc уведомляет UI об изменении присутствия противника
type PresenceFunc func(connected bool)

// Session привязывает движок к комнате: публикует локальные действия,
// воспроизводит удаленные, следит за присутствием противника.
// Жизненный цикл: CreateRoom или JoinRoom, затем Leave.
type Session struct {
	store store.Store
	eng   *game.Engine
	log   *slog.Logger

	mu         sync.Mutex
	code       string
	seat       int
	joined     bool
	lastAction string // ключ последнего примененного действия (дедупликация)
	lastTS     int64  // монотонный источник меток времени
	cancel     context.CancelFunc
	onPresence PresenceFunc
}

func NewSession(st store.Store, eng *game.Engine, log *slog.Logger) *Session {
	if log == nil {
		log = logger.Get()
	}
	return &Session{store: st, eng: eng, log: log}
}

// SetOnPresence устанавливает колбэк присутствия противника
func (s *Session) SetOnPresence(fn PresenceFunc) {
	s.mu.Lock()
	s.onPresence = fn
	s.mu.Unlock()
}

// Code возвращает код комнаты ("" вне сессии)
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Seat возвращает место локального игрока в комнате
func (s *Session) Seat() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seat
}

// InviteURL строит ссылку-приглашение в текущую комнату
func (s *Session) InviteURL(base string) string {
	return InviteLink(base, s.Code())
}

// CreateRoom создает комнату и сажает локального игрока хостом.
// Матч не начинается до подключения гостя.
func (s *Session) CreateRoom(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.joined {
		s.mu.Unlock()
		return "", fmt.Errorf("сессия уже привязана к комнате %s", s.code)
	}
	s.mu.Unlock()

	s.eng.SetMode(domain.ModeOnline)
	st := s.eng.State()

	var code string
	created := false
	for i := 0; i < createAttempts && !created; i++ {
		code = GenerateRoomCode()
		if _, err := s.store.GetRoom(ctx, code); err == nil {
			continue // коллизия кода
		} else if !errors.Is(err, store.ErrRoomNotFound) {
			return "", err
		}

		rec := &domain.RoomRecord{
			Code:      code,
			CreatedAt: time.Now().UnixMilli(),
			Host:      domain.PlayerPresence{Connected: true, LastSeen: time.Now().UnixMilli()},
			GameState: domain.SharedState{WinningScore: st.WinningScore},
		}
		if err := s.store.CreateRoom(ctx, rec); err != nil {
			return "", err
		}
		created = true
	}
	if !created {
		return "", fmt.Errorf("не удалось подобрать свободный код комнаты")
	}

	if err := s.attach(ctx, code, domain.SeatHost); err != nil {
		return "", err
	}

	metrics.RoomsCreated.Inc()
	s.log.Info("комната создана", "room", code)
	return code, nil
}

// JoinRoom подключает локального игрока гостем в существующую комнату.
// Возвращает store.ErrRoomNotFound / store.ErrRoomFull при отказе.
func (s *Session) JoinRoom(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.joined {
		s.mu.Unlock()
		return fmt.Errorf("сессия уже привязана к комнате %s", s.code)
	}
	s.mu.Unlock()

	code = NormalizeRoomCode(code)
	rec, err := s.store.JoinAsGuest(ctx, code)
	if err != nil {
		return err
	}

	s.eng.SetMode(domain.ModeOnline)
	if err := s.attach(ctx, code, domain.SeatGuest); err != nil {
		return err
	}

	// порог победы зафиксирован создателем комнаты
	s.eng.StartMatch(domain.ModeOnline, rec.GameState.WinningScore, false)

	s.log.Info("подключились к комнате", "room", code)
	return nil
}

// общая часть CreateRoom/JoinRoom: подписка, heartbeat, проводка движка.
// Подписка живет на своем контексте до Leave, а не на контексте запроса.
func (s *Session) attach(_ context.Context, code string, seat int) error {
	loopCtx, cancel := context.WithCancel(context.Background())

	events, err := s.store.Watch(loopCtx, code)
	if err != nil {
		cancel()
		return err
	}

	s.mu.Lock()
	s.code = code
	s.seat = seat
	s.joined = true
	s.lastAction = ""
	s.cancel = cancel
	s.mu.Unlock()

	p := seat
	s.eng.SetLocalPlayer(&p)
	s.eng.SetPublisher(s)

	go s.eventLoop(loopCtx, events)
	go s.heartbeatLoop(loopCtx)
	return nil
}

// Leave отключает сессию от комнаты. Движок остается пригодным
// для локальных режимов.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return
	}
	code, seat := s.code, s.seat
	cancel := s.cancel
	s.joined = false
	s.code = ""
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.eng.SetPublisher(nil)
	s.eng.SetLocalPlayer(nil)

	if err := s.store.SetConnected(ctx, code, seat, false); err != nil {
		s.log.Warn("не удалось отметить выход из комнаты", "room", code, "error", err)
	}
	s.log.Info("покинули комнату", "room", code)
}

// --- входящий поток ---

func (s *Session) eventLoop(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleEvent(ctx context.Context, ev store.Event) {
	switch ev.Kind {
	case store.EventAction:
		s.handleAction(ev.Action)
	case store.EventState:
		s.handleState(ev.State)
	case store.EventPresence:
		s.handlePresence(ctx, ev)
	}
}

func (s *Session) handleAction(act *domain.Action) {
	if act == nil {
		return
	}

	s.mu.Lock()
	seat := s.seat
	key := act.Key()
	if act.Player == seat {
		// собственное эхо
		s.mu.Unlock()
		return
	}
	if key == s.lastAction {
		s.mu.Unlock()
		metrics.RemoteActionsDeduped.Inc()
		return
	}
	s.lastAction = key
	s.mu.Unlock()

	metrics.RemoteActionsApplied.Inc()
	switch act.Type {
	case domain.ActionRoll:
		s.eng.ReplayRoll(act.Player, act.DiceValue)
	case domain.ActionHold:
		s.eng.ReplayHold(act.Player, act.HeldScore)
	case domain.ActionNewGame:
		// прием чужого newGame: перезапуск без обратной публикации
		s.eng.NewGame(false)
	default:
		s.log.Warn("неизвестный тип действия", "type", act.Type)
	}
}

// Полные снимки применяются только на переходах, где воспроизведения
// действий недостаточно: старт матча и объявление победителя.
// Промежуточные снимки игнорируются - локальное состояние уже сошлось
// через воспроизведение действий.
func (s *Session) handleState(st *domain.SharedState) {
	if st == nil {
		return
	}
	local := s.eng.State()

	if !st.Playing && st.Winner != nil {
		s.eng.ApplyRemoteState(*st)
		return
	}
	if !st.Playing {
		return
	}
	if !local.Playing {
		s.eng.ApplyRemoteState(*st)
		return
	}
	// перезапуск с другим порогом победы: воспроизведение newGame
	// оставило старый порог, снимок его поправляет
	if st.WinningScore > 0 && st.WinningScore != local.WinningScore {
		s.eng.ApplyRemoteState(*st)
	}
}

func (s *Session) handlePresence(ctx context.Context, ev store.Event) {
	s.mu.Lock()
	seat := s.seat
	fn := s.onPresence
	code := s.code
	s.mu.Unlock()

	if ev.Seat == seat {
		return
	}

	s.log.Info("присутствие противника изменилось",
		"room", code, "seat", ev.Seat, "connected", ev.Connected)
	if fn != nil {
		fn(ev.Connected)
	}

	// хост начинает матч, когда гость занял второе место
	if seat == domain.SeatHost && ev.Connected && !s.eng.State().Playing {
		s.eng.StartMatch(domain.ModeOnline, 0, false)
		snap := s.eng.State().Shared()
		opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		if err := s.store.PublishState(opCtx, code, snap); err != nil {
			s.log.Error("не удалось опубликовать стартовое состояние", "room", code, "error", err)
		}
	}
}

func (s *Session) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			code, seat := s.code, s.seat
			joined := s.joined
			s.mu.Unlock()
			if !joined {
				return
			}

			opCtx, cancel := context.WithTimeout(ctx, storeTimeout)
			err := s.store.Heartbeat(opCtx, code, seat)
			cancel()
			if err != nil {
				s.log.Warn("heartbeat не прошел", "room", code, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// --- исходящий поток (game.Publisher) ---

// публикации не повторяются при ошибке: следующий полный снимок
// (старт/победитель) закроет расхождение

func (s *Session) PublishRoll(value int, snap domain.MatchState) {
	act := s.newAction(domain.Action{
		Type:      domain.ActionRoll,
		DiceValue: value,
	})
	cs := snap.CurrentScore
	ap := snap.ActivePlayer
	patch := domain.StatePatch{CurrentScore: &cs, ActivePlayer: &ap}
	s.publishAction(act, patch)
}

func (s *Session) PublishHold(heldScore int, snap domain.MatchState) {
	act := s.newAction(domain.Action{
		Type:      domain.ActionHold,
		HeldScore: heldScore,
	})
	scores := snap.Scores
	cs := snap.CurrentScore
	ap := snap.ActivePlayer
	patch := domain.StatePatch{Scores: &scores, CurrentScore: &cs, ActivePlayer: &ap}
	s.publishAction(act, patch)

	// победный hold дополнительно фиксируется полным снимком
	if snap.Winner != nil {
		s.publishState(snap.Shared())
	}
}

func (s *Session) PublishNewGame(snap domain.MatchState) {
	act := s.newAction(domain.Action{Type: domain.ActionNewGame})
	s.publishAction(act, domain.StatePatch{})
	s.publishState(snap.Shared())
}

// newAction дописывает место игрока и монотонную метку времени
func (s *Session) newAction(act domain.Action) domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= s.lastTS {
		now = s.lastTS + 1
	}
	s.lastTS = now

	act.Player = s.seat
	act.Timestamp = now
	return act
}

func (s *Session) publishAction(act domain.Action, patch domain.StatePatch) {
	s.mu.Lock()
	code := s.code
	joined := s.joined
	s.mu.Unlock()
	if !joined {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.PublishAction(ctx, code, act, patch); err != nil {
		s.log.Error("не удалось опубликовать действие",
			"room", code, "type", act.Type, "error", err)
	}
}

func (s *Session) publishState(st domain.SharedState) {
	s.mu.Lock()
	code := s.code
	joined := s.joined
	s.mu.Unlock()
	if !joined {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.PublishState(ctx, code, st); err != nil {
		s.log.Error("не удалось опубликовать снимок состояния", "room", code, "error", err)
	}
}

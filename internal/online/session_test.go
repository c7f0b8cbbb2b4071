package online

import (
	"context"
	"errors"
	"testing"
	"time"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/game"
	"pig_webapp/internal/store"
)

type scriptRoller struct {
	values []int
	i      int
}

func (r *scriptRoller) Roll() int {
	v := r.values[r.i%len(r.values)]
	r.i++
	return v
}

func newTestEngine(values ...int) *game.Engine {
	return game.NewEngine(game.Config{
		Roller:    &scriptRoller{values: values},
		Jitter:    func(int) int { return 0 },
		BustDelay: -1,
	})
}

// ждет пока условие не станет истинным; падает по таймауту
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("не дождались: %s", what)
}

// пара хост-гость на общем внутрипроцессном хранилище
func setupPair(t *testing.T, hostRolls, guestRolls []int) (*game.Engine, *Session, *game.Engine, *Session) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	hostEng := newTestEngine(hostRolls...)
	hostSess := NewSession(st, hostEng, nil)
	code, err := hostSess.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("создание комнаты: %v", err)
	}

	guestEng := newTestEngine(guestRolls...)
	guestSess := NewSession(st, guestEng, nil)
	if err := guestSess.JoinRoom(ctx, code); err != nil {
		t.Fatalf("подключение к комнате: %v", err)
	}

	// хост видит подключение гостя и начинает матч
	waitFor(t, "матч запущен у обеих сторон", func() bool {
		return hostEng.State().Playing && guestEng.State().Playing
	})

	t.Cleanup(func() {
		hostSess.Leave(ctx)
		guestSess.Leave(ctx)
		hostEng.Teardown()
		guestEng.Teardown()
	})
	return hostEng, hostSess, guestEng, guestSess
}

func TestJoinRoom_Errors(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	sess := NewSession(st, newTestEngine(6), nil)
	if err := sess.JoinRoom(ctx, "NOPE42"); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("ожидался ErrRoomNotFound, получили %v", err)
	}

	hostSess := NewSession(st, newTestEngine(6), nil)
	code, err := hostSess.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("создание комнаты: %v", err)
	}
	defer hostSess.Leave(ctx)

	g1 := NewSession(st, newTestEngine(6), nil)
	if err := g1.JoinRoom(ctx, code); err != nil {
		t.Fatalf("первый гость должен войти: %v", err)
	}
	defer g1.Leave(ctx)

	g2 := NewSession(st, newTestEngine(6), nil)
	if err := g2.JoinRoom(ctx, code); !errors.Is(err, store.ErrRoomFull) {
		t.Fatalf("второй гость должен получить ErrRoomFull, получили %v", err)
	}
}

func TestJoinRoom_CodeCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	hostSess := NewSession(st, newTestEngine(6), nil)
	code, err := hostSess.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("создание комнаты: %v", err)
	}
	defer hostSess.Leave(ctx)

	guest := NewSession(st, newTestEngine(6), nil)
	lower := "  " + string([]byte(code)) + " "
	if err := guest.JoinRoom(ctx, lower); err != nil {
		t.Fatalf("код с пробелами должен нормализоваться: %v", err)
	}
	guest.Leave(ctx)
}

func TestRollConvergence(t *testing.T) {
	hostEng, _, guestEng, _ := setupPair(t, []int{4}, nil)

	// ход хоста: бросает 4
	if res := hostEng.Roll(); res == nil || res.Value != 4 {
		t.Fatalf("бросок хоста должен пройти, получили %+v", res)
	}

	waitFor(t, "гость увидел бросок 4", func() bool {
		return guestEng.State().CurrentScore == 4
	})

	// собственное эхо не применяется повторно
	time.Sleep(50 * time.Millisecond)
	if got := hostEng.State().CurrentScore; got != 4 {
		t.Fatalf("эхо не должно удваивать очки хоста, получили %d", got)
	}
	if got := guestEng.State().CurrentScore; got != 4 {
		t.Fatalf("повторная доставка не должна удваивать очки гостя, получили %d", got)
	}
}

func TestHoldConvergence(t *testing.T) {
	hostEng, _, guestEng, _ := setupPair(t, []int{5}, []int{3})

	hostEng.Roll()
	if !hostEng.Hold() {
		t.Fatalf("hold хоста должен пройти")
	}

	waitFor(t, "гость увидел банк и переход хода", func() bool {
		st := guestEng.State()
		return st.Scores[0] == 5 && st.ActivePlayer == 1 && st.CurrentScore == 0
	})

	// теперь очередь гостя: его действия проходят, хост сходится
	if res := guestEng.Roll(); res == nil {
		t.Fatalf("бросок гостя в его ход должен пройти")
	}
	waitFor(t, "хост увидел бросок гостя", func() bool {
		return hostEng.State().CurrentScore > 0
	})
}

func TestTurnGating_RemoteSeat(t *testing.T) {
	_, _, guestEng, _ := setupPair(t, []int{4}, []int{4})

	// ход хоста - гость не может действовать
	if res := guestEng.Roll(); res != nil {
		t.Fatalf("бросок гостя в чужой ход должен игнорироваться")
	}
	if guestEng.Hold() {
		t.Fatalf("hold гостя в чужой ход должен игнорироваться")
	}
}

func TestDuplicateDelivery_AppliedOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	hostEng := newTestEngine(4)
	hostSess := NewSession(st, hostEng, nil)
	code, err := hostSess.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("создание комнаты: %v", err)
	}
	defer hostSess.Leave(ctx)

	guestEng := newTestEngine()
	guestSess := NewSession(st, guestEng, nil)
	if err := guestSess.JoinRoom(ctx, code); err != nil {
		t.Fatalf("подключение: %v", err)
	}
	defer guestSess.Leave(ctx)

	waitFor(t, "матч запущен", func() bool {
		return hostEng.State().Playing && guestEng.State().Playing
	})

	// публикуем одно и то же действие дважды - имитация повторной доставки
	act := domain.Action{Type: domain.ActionRoll, Player: 0, DiceValue: 4, Timestamp: time.Now().UnixMilli()}
	cs := 4
	ap := 0
	patch := domain.StatePatch{CurrentScore: &cs, ActivePlayer: &ap}

	if err := st.PublishAction(ctx, code, act, patch); err != nil {
		t.Fatalf("публикация: %v", err)
	}
	if err := st.PublishAction(ctx, code, act, patch); err != nil {
		t.Fatalf("повторная публикация: %v", err)
	}

	waitFor(t, "гость применил бросок", func() bool {
		return guestEng.State().CurrentScore == 4
	})
	time.Sleep(50 * time.Millisecond)
	if got := guestEng.State().CurrentScore; got != 4 {
		t.Fatalf("дубликат должен отбрасываться, получили %d", got)
	}
}

func TestNewGameConvergence(t *testing.T) {
	hostEng, _, guestEng, _ := setupPair(t, []int{5}, nil)

	hostEng.Roll()
	hostEng.Hold()
	waitFor(t, "гость увидел банк", func() bool {
		return guestEng.State().Scores[0] == 5
	})

	hostEng.NewGame(true)

	waitFor(t, "гость увидел перезапуск", func() bool {
		st := guestEng.State()
		return st.Playing && st.Scores == [2]int{0, 0} && st.ActivePlayer == 0
	})

	// перезапуск не зацикливается между сторонами
	time.Sleep(50 * time.Millisecond)
	if st := hostEng.State(); !st.Playing || st.Scores != [2]int{0, 0} {
		t.Fatalf("хост должен остаться в свежем матче, получили %+v", st)
	}
}

func TestWinnerConvergence(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	hostEng := newTestEngine(6, 6)
	hostSess := NewSession(st, hostEng, nil)
	code, err := hostSess.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("создание комнаты: %v", err)
	}
	defer hostSess.Leave(ctx)

	guestEng := newTestEngine()
	guestSess := NewSession(st, guestEng, nil)
	if err := guestSess.JoinRoom(ctx, code); err != nil {
		t.Fatalf("подключение: %v", err)
	}
	defer guestSess.Leave(ctx)

	waitFor(t, "матч запущен", func() bool {
		return hostEng.State().Playing && guestEng.State().Playing
	})

	// низкий порог для быстрой победы
	// (в сетевом режиме порог задает хост при создании, здесь правим напрямую)
	hostEng.StartMatch(domain.ModeOnline, 10, true)
	waitFor(t, "гость принял перезапуск", func() bool {
		return guestEng.State().WinningScore == 10
	})

	hostEng.Roll()
	hostEng.Roll()
	hostEng.Hold()

	waitFor(t, "обе стороны видят победителя", func() bool {
		h, g := hostEng.State(), guestEng.State()
		return h.Winner != nil && *h.Winner == 0 && g.Winner != nil && *g.Winner == 0
	})

	if guestEng.State().Playing {
		t.Fatalf("матч у гостя должен быть завершен")
	}
	// статистика гостя учитывает матч ровно один раз
	if got := guestEng.Stats().GamesPlayed; got != 1 {
		t.Fatalf("ожидался один сыгранный матч, получили %d", got)
	}
}

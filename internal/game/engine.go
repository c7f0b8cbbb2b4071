package game

import (
	"log/slog"
	mrand "math/rand"
	"sync"
	"time"

	"pig_webapp/internal/domain"
	"pig_webapp/internal/logger"
	"pig_webapp/internal/metrics"
)

const (
	// пауза показа "выпала единица" перед передачей хода
	DefaultBustDelay = 1500 * time.Millisecond

	// шаг обратного отсчета хода
	DefaultTimerTick = 100 * time.Millisecond

	// пауза перед действием ИИ (для естественности)
	DefaultAIDelayMin = 800 * time.Millisecond
	DefaultAIDelayMax = 1500 * time.Millisecond

	// место ИИ в режиме против компьютера
	aiSeat = 1
)

// Фаза конечного автомата матча
type Phase string

const (
	PhaseIdle       Phase = "idle"        // матч не идет
	PhaseTurnActive Phase = "turn_active" // ждем roll/hold
	PhaseResolving  Phase = "resolving"   // пауза после единицы, ввод заблокирован
	PhaseGameOver   Phase = "game_over"   // победитель определен
)

// Publisher - исходящий интерфейс к синхронизатору сессии.
// Движок зовет его после применения локального действия;
// повторное воспроизведение удаленных действий его НЕ зовет.
type Publisher interface {
	PublishRoll(value int, snapshot domain.MatchState)
	PublishHold(heldScore int, snapshot domain.MatchState)
	PublishNewGame(snapshot domain.MatchState)
}

// StatsSink принимает обновленную статистику для персистентного хранения
type StatsSink interface {
	Save(stats domain.Stats)
}

// Результат броска
type RollResult struct {
	Value  int  `json:"value"`
	Busted bool `json:"busted"`
}

// Config - параметры создания движка. Нулевые значения заменяются
// значениями по умолчанию; отрицательный BustDelay означает мгновенную
// передачу хода (для тестов).
type Config struct {
	Roller       Roller
	Jitter       func(spread int) int
	BustDelay    time.Duration
	TurnDuration time.Duration
	TimerTick    time.Duration
	AIDelayMin   time.Duration
	AIDelayMax   time.Duration
	Difficulty   Difficulty
	Stats        domain.Stats
	StatsSink    StatsSink
	Log          *slog.Logger
}

// Engine - конечный автомат одного матча.
// Все переходы сериализованы мьютексом; отложенные колбэки (пауза после
// единицы, ход ИИ, таймер хода) сверяют поколение матча, чтобы устаревший
// колбэк не тронул уже замененное состояние.
type Engine struct {
	mu    sync.Mutex
	state domain.MatchState
	phase Phase
	stats domain.Stats

	roller     Roller
	jitter     func(spread int) int
	difficulty Difficulty

	bustDelay    time.Duration
	turnDuration time.Duration
	timerTick    time.Duration
	aiDelayMin   time.Duration
	aiDelayMax   time.Duration

	publisher Publisher
	statsSink StatsSink
	onChange  func(domain.MatchState)

	timer       *TurnTimer
	pendingBust *time.Timer
	pendingAI   *time.Timer
	generation  uint64 // растет на каждый новый матч/терминацию
	isAITurn    bool
	statsCount  bool // статистика этого матча уже учтена

	rng *mrand.Rand // пауза ИИ
	log *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		roller:       cfg.Roller,
		jitter:       cfg.Jitter,
		bustDelay:    cfg.BustDelay,
		turnDuration: cfg.TurnDuration,
		timerTick:    cfg.TimerTick,
		aiDelayMin:   cfg.AIDelayMin,
		aiDelayMax:   cfg.AIDelayMax,
		difficulty:   cfg.Difficulty,
		stats:        cfg.Stats,
		statsSink:    cfg.StatsSink,
		phase:        PhaseIdle,
		log:          cfg.Log,
	}

	if e.roller == nil {
		e.roller = CryptoRoller{}
	}
	if e.jitter == nil {
		sr := NewSeededRoller(time.Now().UnixNano())
		e.jitter = sr.Jitter
	}
	if e.bustDelay == 0 {
		e.bustDelay = DefaultBustDelay
	} else if e.bustDelay < 0 {
		e.bustDelay = 0
	}
	if e.turnDuration == 0 {
		e.turnDuration = domain.TurnSeconds * time.Second
	}
	if e.timerTick == 0 {
		e.timerTick = DefaultTimerTick
	}
	if e.aiDelayMin == 0 {
		e.aiDelayMin = DefaultAIDelayMin
	}
	if e.aiDelayMax == 0 || e.aiDelayMax < e.aiDelayMin {
		e.aiDelayMax = DefaultAIDelayMax
	}
	if e.difficulty == "" {
		e.difficulty = DifficultyBalanced
	}
	if e.log == nil {
		e.log = logger.Get()
	}

	e.state.Mode = domain.ModeLocal
	e.state.WinningScore = domain.DefaultWinningScore
	e.rng = mrand.New(mrand.NewSource(time.Now().UnixNano()))

	return e
}

// SetPublisher подключает/отключает синхронизатор (nil = отключить)
func (e *Engine) SetPublisher(p Publisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.publisher = p
}

// SetOnChange устанавливает колбэк пуша состояния в UI
func (e *Engine) SetOnChange(fn func(domain.MatchState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// SetLocalPlayer назначает место локального участника (nil вне сети)
func (e *Engine) SetLocalPlayer(p *int) {
	e.mu.Lock()
	if p == nil {
		e.state.LocalPlayer = nil
	} else {
		v := *p
		e.state.LocalPlayer = &v
	}
	e.mu.Unlock()
	e.notifyChanged()
}

// SetMode переключает режим вне матча; текущий матч сбрасывается
func (e *Engine) SetMode(m domain.Mode) bool {
	if !m.Valid() {
		return false
	}
	e.mu.Lock()
	e.cancelTimersLocked()
	e.generation++
	e.state.Mode = m
	e.state.Playing = false
	e.phase = PhaseIdle
	e.mu.Unlock()
	e.notifyChanged()
	return true
}

// SetWinningScore меняет порог победы. Только до начала матча;
// в сетевом режиме порог фиксируется создателем комнаты.
func (e *Engine) SetWinningScore(ws int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ws <= 0 || e.state.Playing || e.state.Mode == domain.ModeOnline {
		return false
	}
	e.state.WinningScore = ws
	return true
}

// SetDifficulty меняет стратегию ИИ
func (e *Engine) SetDifficulty(d Difficulty) bool {
	if _, ok := aiConfigs[d]; !ok {
		return false
	}
	e.mu.Lock()
	e.difficulty = d
	e.mu.Unlock()
	return true
}

// State возвращает копию состояния матча
func (e *Engine) State() domain.MatchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Stats возвращает текущую статистику
func (e *Engine) Stats() domain.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Phase возвращает текущую фазу автомата
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Difficulty возвращает выбранную стратегию ИИ
func (e *Engine) Difficulty() Difficulty {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.difficulty
}

// TimerFraction возвращает долю оставшегося времени хода (0 вне режима на время)
func (e *Engine) TimerFraction() float64 {
	e.mu.Lock()
	t := e.timer
	e.mu.Unlock()
	if t == nil {
		return 0
	}
	return t.Fraction()
}

// StartMatch начинает новый матч: счет [0,0], ход у игрока 0.
// broadcast=true публикует newGame противнику (только когда новый матч
// инициирован локально; прием чужого newGame воспроизводится без публикации).
func (e *Engine) StartMatch(mode domain.Mode, winningScore int, broadcast bool) {
	e.mu.Lock()
	e.cancelTimersLocked()
	e.generation++

	if mode.Valid() {
		e.state.Mode = mode
	}
	if winningScore > 0 {
		e.state.WinningScore = winningScore
	}

	e.state.Scores = [2]int{0, 0}
	e.state.CurrentScore = 0
	e.state.ActivePlayer = 0
	e.state.Playing = true
	e.state.CurrentStreak = 0
	e.state.Winner = nil
	e.phase = PhaseTurnActive
	e.isAITurn = false
	e.statsCount = false

	if e.state.Mode == domain.ModeTimed {
		e.armTurnTimerLocked()
	}

	pub := e.publisher
	doBroadcast := broadcast && pub != nil && e.state.Mode == domain.ModeOnline
	snap := e.snapshotLocked()
	e.mu.Unlock()

	metrics.MatchesStarted.WithLabelValues(string(snap.Mode)).Inc()
	e.log.Debug("матч начат", "mode", snap.Mode, "winning_score", snap.WinningScore)

	if doBroadcast {
		pub.PublishNewGame(snap)
	}
	e.notifyChanged()
}

// Roll - локальный бросок. Возвращает nil если действие вне своей
// очереди/фазы (тихий отказ, не ошибка).
func (e *Engine) Roll() *RollResult {
	e.mu.Lock()
	if !e.state.Playing || e.phase != PhaseTurnActive || e.isAITurn || !e.isLocalTurnLocked() {
		e.mu.Unlock()
		return nil
	}

	value := e.roller.Roll()
	res := e.applyRollLocked(value, true)
	pub := e.publisher
	online := e.state.Mode == domain.ModeOnline
	snap := e.snapshotLocked()
	e.mu.Unlock()

	// публикация после применения: снимок отражает уже сошедшееся состояние
	if pub != nil && online {
		pub.PublishRoll(value, snap)
	}
	e.notifyChanged()
	return res
}

// ReplayRoll воспроизводит бросок противника (без повторной публикации).
// Проверка очереди сознательно не проводится: стороны доверяют друг другу,
// а значение кубика приходит из самого действия.
func (e *Engine) ReplayRoll(player, value int) *RollResult {
	e.mu.Lock()
	if !e.state.Playing || e.state.Mode != domain.ModeOnline || value < 1 || value > DiceSides {
		e.mu.Unlock()
		return nil
	}
	res := e.applyRollLocked(value, false)
	e.mu.Unlock()

	e.notifyChanged()
	return res
}

// применяет значение кубика; вызывающий держит мьютекс.
// local=true для собственного броска (серия и ее рекорд считаются только
// для локального игрока), false при воспроизведении чужого.
func (e *Engine) applyRollLocked(value int, local bool) *RollResult {
	metrics.Rolls.Inc()
	if value != 1 {
		e.state.CurrentScore += value
		if local {
			e.state.CurrentStreak++
			if e.state.CurrentStreak > e.stats.LongestStreak {
				e.stats.LongestStreak = e.state.CurrentStreak
				e.saveStatsLocked()
			}
		}
		return &RollResult{Value: value, Busted: false}
	}

	// единица - очки хода сгорают после паузы показа
	metrics.Busts.Inc()
	e.state.CurrentStreak = 0
	e.phase = PhaseResolving
	e.scheduleSwitchLocked()
	return &RollResult{Value: value, Busted: true}
}

// планирует передачу хода после паузы показа; вызывающий держит мьютекс
func (e *Engine) scheduleSwitchLocked() {
	if e.bustDelay <= 0 {
		e.switchTurnLocked()
		return
	}

	gen := e.generation
	e.pendingBust = time.AfterFunc(e.bustDelay, func() {
		e.mu.Lock()
		if gen != e.generation || !e.state.Playing {
			e.mu.Unlock()
			return
		}
		e.pendingBust = nil
		e.switchTurnLocked()
		e.mu.Unlock()
		e.notifyChanged()
	})
}

// Hold банкует очки хода. false - действие вне своей очереди/фазы
// или банковать нечего.
func (e *Engine) Hold() bool {
	e.mu.Lock()
	if !e.state.Playing || e.phase != PhaseTurnActive || e.isAITurn ||
		e.state.CurrentScore == 0 || !e.isLocalTurnLocked() {
		e.mu.Unlock()
		return false
	}

	held := e.state.CurrentScore
	player := e.state.ActivePlayer
	e.state.Scores[player] += held
	metrics.Holds.Inc()

	pub := e.publisher
	online := e.state.Mode == domain.ModeOnline

	if e.state.Scores[player] >= e.state.WinningScore {
		e.endMatchLocked(player)
		snap := e.snapshotLocked()
		e.mu.Unlock()
		if pub != nil && online {
			pub.PublishHold(held, snap)
		}
		e.notifyChanged()
		return true
	}

	e.state.CurrentStreak = 0
	e.switchTurnLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if pub != nil && online {
		pub.PublishHold(held, snap)
	}
	e.notifyChanged()
	return true
}

// ReplayHold воспроизводит hold противника: очки зачисляются месту,
// указанному в действии. Без повторной публикации.
func (e *Engine) ReplayHold(player, heldScore int) bool {
	e.mu.Lock()
	if !e.state.Playing || e.state.Mode != domain.ModeOnline ||
		player < 0 || player > 1 || heldScore <= 0 {
		e.mu.Unlock()
		return false
	}

	e.state.Scores[player] += heldScore

	if e.state.Scores[player] >= e.state.WinningScore {
		e.endMatchLocked(player)
		e.mu.Unlock()
		e.notifyChanged()
		return true
	}

	e.state.CurrentScore = 0
	e.state.CurrentStreak = 0
	e.switchTurnLocked()
	e.mu.Unlock()

	e.notifyChanged()
	return true
}

// ApplyRemoteState применяет полный снимок из комнаты. Используется
// только для переходов, где воспроизведения действий недостаточно:
// старт игры и объявление победителя. Идемпотентен - статистика
// победителя учитывается не более одного раза на матч.
func (e *Engine) ApplyRemoteState(s domain.SharedState) {
	e.mu.Lock()
	wasPlaying := e.state.Playing

	e.state.Scores = s.Scores
	e.state.CurrentScore = s.CurrentScore
	e.state.ActivePlayer = s.ActivePlayer
	e.state.Playing = s.Playing
	if s.WinningScore > 0 {
		e.state.WinningScore = s.WinningScore
	}

	if !s.Playing && s.Winner != nil {
		e.endMatchLocked(*s.Winner)
	} else if s.Playing {
		if !wasPlaying {
			// стартовый снимок
			e.cancelTimersLocked()
			e.generation++
			e.state.CurrentStreak = 0
			e.state.Winner = nil
			e.statsCount = false
			e.isAITurn = false
		}
		e.phase = PhaseTurnActive
	}
	e.mu.Unlock()

	e.notifyChanged()
}

// NewGame перезапускает матч в текущем режиме.
// broadcast различает локальную инициативу и прием чужого newGame.
func (e *Engine) NewGame(broadcast bool) {
	e.mu.Lock()
	mode := e.state.Mode
	ws := e.state.WinningScore
	e.mu.Unlock()
	e.StartMatch(mode, ws, broadcast)
}

// Teardown останавливает все отложенные колбэки; движок можно выбросить
func (e *Engine) Teardown() {
	e.mu.Lock()
	e.cancelTimersLocked()
	e.generation++
	e.publisher = nil
	e.onChange = nil
	e.mu.Unlock()
}

// --- внутреннее ---

func (e *Engine) isLocalTurnLocked() bool {
	if e.state.Mode != domain.ModeOnline || e.state.LocalPlayer == nil {
		return true
	}
	return e.state.ActivePlayer == *e.state.LocalPlayer
}

func (e *Engine) snapshotLocked() domain.MatchState {
	snap := e.state
	if e.state.LocalPlayer != nil {
		v := *e.state.LocalPlayer
		snap.LocalPlayer = &v
	}
	if e.state.Winner != nil {
		v := *e.state.Winner
		snap.Winner = &v
	}
	return snap
}

func (e *Engine) notifyChanged() {
	e.mu.Lock()
	fn := e.onChange
	snap := e.snapshotLocked()
	e.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// передает ход; вызывающий держит мьютекс
func (e *Engine) switchTurnLocked() {
	e.stopTurnTimerLocked()

	e.state.CurrentScore = 0
	e.state.CurrentStreak = 0
	e.state.ActivePlayer = 1 - e.state.ActivePlayer
	e.phase = PhaseTurnActive

	if !e.state.Playing {
		return
	}

	if e.state.Mode == domain.ModeTimed {
		e.armTurnTimerLocked()
	}

	if e.state.Mode == domain.ModeVsAI && e.state.ActivePlayer == aiSeat {
		e.isAITurn = true
		e.scheduleAILocked()
	} else {
		e.isAITurn = false
	}
}

// взводит таймер хода; вызывающий держит мьютекс
func (e *Engine) armTurnTimerLocked() {
	e.stopTurnTimerLocked()
	gen := e.generation
	e.timer = StartTurnTimer(e.turnDuration, e.timerTick, func() {
		e.mu.Lock()
		if gen != e.generation || !e.state.Playing {
			e.mu.Unlock()
			return
		}
		e.log.Debug("время хода вышло", "player", e.state.ActivePlayer)
		e.switchTurnLocked()
		e.mu.Unlock()
		e.notifyChanged()
	})
}

func (e *Engine) stopTurnTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// останавливает таймер хода, паузу после единицы и отложенный ход ИИ;
// вызывающий держит мьютекс
func (e *Engine) cancelTimersLocked() {
	e.stopTurnTimerLocked()
	if e.pendingBust != nil {
		e.pendingBust.Stop()
		e.pendingBust = nil
	}
	if e.pendingAI != nil {
		e.pendingAI.Stop()
		e.pendingAI = nil
	}
}

// планирует шаг ИИ через случайную паузу; вызывающий держит мьютекс
func (e *Engine) scheduleAILocked() {
	gen := e.generation
	delay := e.aiDelayMin
	if spread := e.aiDelayMax - e.aiDelayMin; spread > 0 {
		delay += time.Duration(e.rng.Int63n(int64(spread)))
	}
	e.pendingAI = time.AfterFunc(delay, func() {
		e.aiStep(gen)
	})
}

// один шаг хода ИИ: решение, бросок или банк, планирование следующего шага
func (e *Engine) aiStep(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || !e.state.Playing ||
		e.state.Mode != domain.ModeVsAI || e.state.ActivePlayer != aiSeat {
		e.mu.Unlock()
		return
	}
	e.pendingAI = nil

	decision := Decide(e.difficulty, e.snapshotLocked(), e.jitter)

	if decision == DecisionHold && e.state.CurrentScore > 0 {
		held := e.state.CurrentScore
		e.state.Scores[aiSeat] += held
		e.log.Debug("ИИ банкует", "held", held, "score", e.state.Scores[aiSeat])

		if e.state.Scores[aiSeat] >= e.state.WinningScore {
			e.endMatchLocked(aiSeat)
			e.mu.Unlock()
			e.notifyChanged()
			return
		}

		e.isAITurn = false
		e.switchTurnLocked()
		e.mu.Unlock()
		e.notifyChanged()
		return
	}

	// бросаем
	value := e.roller.Roll()
	if value != 1 {
		e.state.CurrentScore += value
		e.scheduleAILocked()
		e.mu.Unlock()
		e.notifyChanged()
		return
	}

	// ИИ выбросил единицу
	e.log.Debug("ИИ выбросил единицу")
	e.state.CurrentStreak = 0
	e.phase = PhaseResolving
	e.isAITurn = false
	e.scheduleSwitchLocked()
	e.mu.Unlock()
	e.notifyChanged()
}

// фиксирует победителя; вызывающий держит мьютекс.
// Статистика учитывается ровно один раз на матч независимо от того,
// каким путем (локальный hold, replay, удаленный снимок) матч закончился.
func (e *Engine) endMatchLocked(winner int) {
	e.state.Playing = false
	w := winner
	e.state.Winner = &w
	e.phase = PhaseGameOver
	e.cancelTimersLocked()
	e.generation++
	e.isAITurn = false

	if !e.statsCount {
		e.statsCount = true
		metrics.MatchesCompleted.Inc()
		e.stats.GamesPlayed++
		if winner == 0 {
			e.stats.P1Wins++
		} else {
			e.stats.P2Wins++
		}
		e.saveStatsLocked()
	}
}

// отправляет статистику в хранилище; вызывающий держит мьютекс
func (e *Engine) saveStatsLocked() {
	if e.statsSink == nil {
		return
	}
	stats := e.stats
	sink := e.statsSink
	go sink.Save(stats)
}

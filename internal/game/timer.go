package game

import (
	"sync"
	"time"
)

// TurnTimer - обратный отсчет хода для режима на время.
// Тикает маленькими шагами, отдает долю оставшегося времени для отображения
// и ровно один раз вызывает onExpire когда доходит до нуля.
// Stop в любой момент до истечения гарантирует, что колбэк не сработает.
type TurnTimer struct {
	duration time.Duration

	mu        sync.Mutex
	remaining time.Duration
	stopped   bool

	done chan struct{}
	once sync.Once
}

// StartTurnTimer запускает отсчет duration с шагом tick.
func StartTurnTimer(duration, tick time.Duration, onExpire func()) *TurnTimer {
	t := &TurnTimer{
		duration:  duration,
		remaining: duration,
		done:      make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.mu.Lock()
				t.remaining -= tick
				expired := t.remaining <= 0 && !t.stopped
				if expired {
					t.remaining = 0
					t.stopped = true
				}
				t.mu.Unlock()

				if expired {
					t.once.Do(func() { close(t.done) })
					if onExpire != nil {
						onExpire()
					}
					return
				}
			case <-t.done:
				return
			}
		}
	}()

	return t
}

// Fraction возвращает долю оставшегося времени [0,1]
func (t *TurnTimer) Fraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.duration <= 0 {
		return 0
	}
	f := float64(t.remaining) / float64(t.duration)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Stop отменяет таймер; колбэк после этого не сработает
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.once.Do(func() { close(t.done) })
}

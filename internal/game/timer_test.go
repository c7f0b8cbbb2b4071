package game

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTurnTimer_ExpiresOnce(t *testing.T) {
	var fired atomic.Int32
	timer := StartTurnTimer(30*time.Millisecond, 5*time.Millisecond, func() {
		fired.Add(1)
	})

	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("колбэк должен сработать ровно один раз, сработал %d", got)
	}
	if f := timer.Fraction(); f != 0 {
		t.Fatalf("после истечения ожидалась доля 0, получили %f", f)
	}
}

func TestTurnTimer_StopPreventsCallback(t *testing.T) {
	var fired atomic.Int32
	timer := StartTurnTimer(30*time.Millisecond, 5*time.Millisecond, func() {
		fired.Add(1)
	})

	timer.Stop()
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("после Stop колбэк не должен срабатывать, сработал %d", got)
	}

	// повторный Stop безопасен
	timer.Stop()
}

func TestTurnTimer_FractionDecreases(t *testing.T) {
	timer := StartTurnTimer(time.Second, 10*time.Millisecond, nil)
	defer timer.Stop()

	if f := timer.Fraction(); f <= 0 || f > 1 {
		t.Fatalf("доля должна быть в (0,1], получили %f", f)
	}

	time.Sleep(100 * time.Millisecond)
	f := timer.Fraction()
	if f >= 1 {
		t.Fatalf("доля должна уменьшаться, получили %f", f)
	}
	if f < 0 {
		t.Fatalf("доля не бывает отрицательной, получили %f", f)
	}
}

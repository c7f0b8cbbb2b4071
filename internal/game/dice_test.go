package game

import "testing"

func TestCryptoRoller_Range(t *testing.T) {
	r := CryptoRoller{}
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Roll()
		if v < 1 || v > DiceSides {
			t.Fatalf("значение вне диапазона кубика: %d", v)
		}
		seen[v] = true
	}
	// на 1000 бросках должны выпасть все грани
	if len(seen) != DiceSides {
		t.Fatalf("ожидались все %d граней, выпало %d", DiceSides, len(seen))
	}
}

func TestSeededRoller_Deterministic(t *testing.T) {
	a := NewSeededRoller(42)
	b := NewSeededRoller(42)
	for i := 0; i < 100; i++ {
		if av, bv := a.Roll(), b.Roll(); av != bv {
			t.Fatalf("одинаковое зерно должно давать одинаковую последовательность")
		}
	}
}

func TestSeededRoller_JitterRange(t *testing.T) {
	r := NewSeededRoller(7)
	for i := 0; i < 1000; i++ {
		v := r.Jitter(2)
		if v < -2 || v > 2 {
			t.Fatalf("джиттер вне [-2,2]: %d", v)
		}
	}
	if v := r.Jitter(0); v != 0 {
		t.Fatalf("нулевой разброс должен давать 0, получили %d", v)
	}
}

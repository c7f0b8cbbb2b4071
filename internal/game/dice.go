package game

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"sync"
)

const DiceSides = 6

// Roller выдает значение кубика 1-6
type Roller interface {
	Roll() int
}

// CryptoRoller - боевой генератор на crypto/rand
type CryptoRoller struct{}

// выполняет бросок кубика и возвращает результат (1-6)
func (CryptoRoller) Roll() int {
	n, err := rand.Int(rand.Reader, big.NewInt(DiceSides))
	if err != nil {
		// запасной вариант - никогда не должно происходить
		n = big.NewInt(0)
	}
	return int(n.Int64()) + 1 // преобразуем 0-5 в 1-6
}

// SeededRoller - детерминированный генератор для тестов и джиттера ИИ.
// Безопасен для конкурентного использования.
type SeededRoller struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

func NewSeededRoller(seed int64) *SeededRoller {
	return &SeededRoller{rng: mrand.New(mrand.NewSource(seed))}
}

func (r *SeededRoller) Roll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(DiceSides) + 1
}

// Jitter возвращает случайное целое в [-spread, +spread]
func (r *SeededRoller) Jitter(spread int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(2*spread+1) - spread
}

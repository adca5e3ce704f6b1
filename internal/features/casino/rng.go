// Package casino — rng.go содержит источники случайности для игр.
package casino

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource — равномерное целое в [0, n). Реализации потокобезопасны.
type RandomSource interface {
	IntN(n int) int
}

// cryptoRNG — источник по умолчанию.
type cryptoRNG struct{}

func (cryptoRNG) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	// Отбрасываем хвост, чтобы не было смещения по модулю
	limit := ^uint64(0) - ^uint64(0)%uint64(n)
	var buf [8]byte
	for {
		if _, err := cryptoRand.Read(buf[:]); err != nil {
			return rand.IntN(n)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v < limit {
			return int(v % uint64(n))
		}
	}
}

// DefaultRNG возвращает криптостойкий источник.
func DefaultRNG() RandomSource { return cryptoRNG{} }

const goldenRatio64 = 0x9e3779b97f4a7c15

// seededRNG — воспроизводимый PCG для тестов и симуляций.
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRNG создаёт детерминированный источник из seed.
func NewSeededRNG(seed int64) RandomSource {
	u := uint64(seed)
	return &seededRNG{r: rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))}
}

func (s *seededRNG) IntN(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Sequence выдаёт заранее заданные значения по кругу (v mod n).
// Для костей значение 5 означает грань 6.
type Sequence struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewSequence создаёт сценарный источник.
func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 || n <= 1 {
		return 0
	}
	v := s.values[s.pos%len(s.values)]
	s.pos++
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

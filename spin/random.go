package spin

import (
	cryptoRand "crypto/rand"
	"math/big"
	"math/rand/v2"
	"sync"
)

// RandomSource picks landing indices
type RandomSource interface {
	Intn(n int) int // uniform in [0, n)
}

// cryptoRandom is the default source
type cryptoRandom struct{}

func (cryptoRandom) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := cryptoRand.Int(cryptoRand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return rand.IntN(n)
	}
	return int(v.Int64())
}

// DefaultRandom returns a crypto-backed source
func DefaultRandom() RandomSource { return cryptoRandom{} }

// seededRandom is replicable across runs
type seededRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom returns a deterministic PCG source
func NewSeededRandom(seed uint64) RandomSource {
	return &seededRandom{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRandom) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// ScriptedRandom replays fixed outputs in order, wrapping each into [0, n)
// Once exhausted it repeats the last value
type ScriptedRandom struct {
	values []int
	next   int
}

// NewScriptedRandom creates a scripted source
func NewScriptedRandom(values ...int) *ScriptedRandom {
	return &ScriptedRandom{values: values}
}

func (s *ScriptedRandom) Intn(n int) int {
	if n <= 1 || len(s.values) == 0 {
		return 0
	}
	i := s.next
	if i >= len(s.values) {
		i = len(s.values) - 1
	} else {
		s.next++
	}
	v := s.values[i] % n
	if v < 0 {
		v += n
	}
	return v
}

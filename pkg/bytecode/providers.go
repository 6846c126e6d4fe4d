package bytecode

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource supplies values for RANDOM_INT. Implementations must return
// a uniform value in [0, max) for max > 0.
type RandomSource interface {
	Uint32n(max uint32) uint32
}

// Clock supplies the two time commands. WallTime feeds GET_WALL_TIME,
// Now anchors GET_PRECISE_TIME relative to machine start.
type Clock interface {
	WallTime() time.Time
	Now() time.Time
}

type systemClock struct{}

func (systemClock) WallTime() time.Time { return time.Now() }
func (systemClock) Now() time.Time      { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// FixedClock returns a Clock frozen at the given instant, for reproducible
// runs and tests.
func FixedClock(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) WallTime() time.Time { return c.t }
func (c fixedClock) Now() time.Time      { return c.t }

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Uint32n(max uint32) uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint32(l.r.Int63n(int64(max)))
}

// SeededRandom returns a deterministic RandomSource. Identical seeds give
// identical draw sequences.
func SeededRandom(seed int64) RandomSource {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// SystemRandom returns a RandomSource seeded from the current time.
func SystemRandom() RandomSource {
	return SeededRandom(time.Now().UnixNano())
}

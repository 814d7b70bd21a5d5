package main

import (
	"math/rand"
	"sync"
	"time"
)

// lockedRandSource makes a *rand.Rand safe to share across goroutines.
// The battle resolver runs inside HTTP handlers, so its source has to
// tolerate concurrent rolls.
type lockedRandSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedRandSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedRandSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedRandSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

func newLockedRand() *rand.Rand {
	src := rand.NewSource(time.Now().UnixNano()).(rand.Source64)
	return rand.New(&lockedRandSource{src: src})
}

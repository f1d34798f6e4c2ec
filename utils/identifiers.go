package utils

import (
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

const (
	RosterIDLength      = 4
	MaxRosterIDAttempts = 3
	rosterIDAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ErrAllocationExhausted is retryable: every candidate id was already taken.
var ErrAllocationExhausted = errors.New("unable to allocate a free roster id, please try again later")

// ExistsFunc reports whether a roster id is already in use.
type ExistsFunc func(id string) (bool, error)

// IDAllocator draws roster ids from its random source. The zero value is not usable; use NewIDAllocator.
type IDAllocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIDAllocator returns an allocator backed by src. A nil src uses a randomly seeded PCG source.
func NewIDAllocator(src rand.Source) *IDAllocator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &IDAllocator{rng: rand.New(src)}
}

// NextRosterID samples RosterIDLength distinct letters without replacement, in sampled order.
func (a *IDAllocator) NextRosterID() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	letters := []byte(rosterIDAlphabet)
	// Partial Fisher-Yates: the first RosterIDLength slots end up as a uniform sample.
	for i := 0; i < RosterIDLength; i++ {
		j := i + a.rng.IntN(len(letters)-i)
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters[:RosterIDLength])
}

// AllocateRosterID returns the first of up to MaxRosterIDAttempts candidates for which exists is false.
// An error from exists stops allocation and is returned unchanged.
func (a *IDAllocator) AllocateRosterID(exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= MaxRosterIDAttempts; attempt++ {
		candidate := a.NextRosterID()
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrAllocationExhausted
}

// NewEventID returns a random version 4 UUID in canonical form.
func NewEventID() string {
	return uuid.NewString()
}

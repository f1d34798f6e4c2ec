package utils

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRosterID_FourDistinctUppercaseLetters(t *testing.T) {
	alloc := NewIDAllocator(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		id := alloc.NextRosterID()
		require.Len(t, id, RosterIDLength)
		seen := map[rune]bool{}
		for _, r := range id {
			assert.True(t, r >= 'A' && r <= 'Z', "unexpected rune %q in %s", r, id)
			assert.False(t, seen[r], "letter %q repeated in %s", r, id)
			seen[r] = true
		}
		assert.True(t, IsValidRosterID(id))
	}
}

func TestNextRosterID_DeterministicForSeed(t *testing.T) {
	a := NewIDAllocator(rand.NewPCG(42, 7))
	b := NewIDAllocator(rand.NewPCG(42, 7))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.NextRosterID(), b.NextRosterID())
	}
}

func TestAllocateRosterID_FirstFreeCandidate(t *testing.T) {
	alloc := NewIDAllocator(rand.NewPCG(3, 4))
	calls := 0
	id, err := alloc.AllocateRosterID(func(string) (bool, error) {
		calls++
		return calls < 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, IsValidRosterID(id))
}

func TestAllocateRosterID_ExhaustedAfterThreeAttempts(t *testing.T) {
	alloc := NewIDAllocator(nil)
	var tried []string
	id, err := alloc.AllocateRosterID(func(candidate string) (bool, error) {
		tried = append(tried, candidate)
		return true, nil
	})
	assert.Empty(t, id)
	assert.ErrorIs(t, err, ErrAllocationExhausted)
	assert.Len(t, tried, MaxRosterIDAttempts)
}

func TestAllocateRosterID_ExistsErrorStops(t *testing.T) {
	alloc := NewIDAllocator(nil)
	boom := errors.New("store unavailable")
	calls := 0
	_, err := alloc.AllocateRosterID(func(string) (bool, error) {
		calls++
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestNewEventID_CanonicalV4(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewEventID()
		assert.True(t, IsValidEventID(id), id)
		assert.Equal(t, strings.ToLower(id), id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

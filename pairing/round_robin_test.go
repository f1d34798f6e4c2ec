package pairing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoundRobin() *RoundRobinGenerator {
	return NewRoundRobinGenerator(
		WithClock(func() time.Time { return rosterCreated.Add(time.Hour) }),
		WithEventIDs(func() string { return "22222222-2222-4222-8222-222222222222" }),
	)
}

func TestRoundRobin_FourParticipants(t *testing.T) {
	gen := newTestRoundRobin()
	roster := rosterOf("A", "B", "C", "D")

	want := [][][2]int{
		{{0, 3}, {1, 2}},
		{{0, 2}, {1, 3}},
		{{0, 1}, {2, 3}},
		{},
	}
	for i, expected := range want {
		next, event, err := gen.ComputeRound(roster)
		require.NoError(t, err)
		assert.Equal(t, expected, pairs(event), "round %d", i+1)
		roster = next
	}
	assert.Len(t, roster.Events, 4)
}

func TestRoundRobin_CoversEveryPair(t *testing.T) {
	for n := 2; n <= 9; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			names := make([]string, n)
			for i := range names {
				names[i] = fmt.Sprintf("P%d", i)
			}
			gen := newTestRoundRobin()
			roster := rosterOf(names...)

			rounds := n - 1
			if n%2 == 1 {
				rounds = n
			}
			for r := 0; r < rounds; r++ {
				next, event, err := gen.ComputeRound(roster)
				require.NoError(t, err)
				assert.Len(t, event.Edges, n/2)
				roster = next
			}
			for i, node := range roster.Nodes {
				assert.Len(t, node.Edges, n-1, "node %d", i)
			}
		})
	}
}

func TestRoundRobin_SkipsPairsThatAlreadyMet(t *testing.T) {
	roster := rosterOf("A", "B", "C", "D")
	roster.Nodes[1].Edges = []int{2}
	roster.Nodes[2].Edges = []int{1}

	_, event, err := newTestRoundRobin().ComputeRound(roster)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 3}}, pairs(event))
	assert.Equal(t, []int{1, 2}, Unmatched(4, event))
}

func TestRoundRobin_Errors(t *testing.T) {
	gen := newTestRoundRobin()
	_, _, err := gen.ComputeRound(rosterOf("Solo"))
	assert.ErrorIs(t, err, ErrInsufficientParticipants)

	bad := rosterOf("A", "B")
	bad.Nodes[1].NodeID = 7
	_, _, err = gen.ComputeRound(bad)
	assert.ErrorIs(t, err, ErrMalformedRoster)
}

func TestRoundRobin_DoesNotMutateInput(t *testing.T) {
	roster := rosterOf("A", "B", "C")
	before := roster.Clone()
	_, _, err := newTestRoundRobin().ComputeRound(roster)
	require.NoError(t, err)
	assert.Equal(t, before, roster)
	assert.Equal(t, "RoundRobin", newTestRoundRobin().GetName())
}

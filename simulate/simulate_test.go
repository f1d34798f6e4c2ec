package simulate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dosada05/chatmatch/pairing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFixedRounds(t *testing.T) {
	res, err := Run([]string{"A", "B", "C", "D"}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, res.Participants)
	require.Len(t, res.Rounds, 2)
	assert.False(t, res.Exhausted)
	assert.Equal(t, "B", res.Rounds[1].Pairs[1].NameA)
	assert.Equal(t, "D", res.Rounds[1].Pairs[1].NameB)
	assert.Empty(t, res.Rounds[0].Unmatched)
}

func TestRunUntilExhausted(t *testing.T) {
	res, err := Run([]string{"A", "B", "C", "D"}, 0, nil)
	require.NoError(t, err)
	assert.Len(t, res.Rounds, 3)
	assert.True(t, res.Exhausted)
}

func TestRunFiltersNames(t *testing.T) {
	res, err := Run([]string{"A!", "", "A", "B"}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, res.Participants)
}

func TestRunRejectsSingleParticipant(t *testing.T) {
	_, err := Run([]string{"Solo", "!!"}, 1, nil)
	assert.ErrorIs(t, err, pairing.ErrInsufficientParticipants)
}

func TestLoadRosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("names:\n  - Alice\n  - Bob\nrounds: 4\n"), 0o600))

	rf, err := LoadRosterFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, rf.Names)
	assert.Equal(t, 4, rf.Rounds)

	_, err = LoadRosterFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("names: [unclosed"), 0o600))
	_, err = LoadRosterFile(bad)
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	res, err := Run([]string{"A", "B", "C"}, 0, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res))
	assert.Equal(t, "participants: A, B, C\n"+
		"round 1: A & B | unmatched: C\n"+
		"round 2: A & C | unmatched: B\n"+
		"round 3: B & C | unmatched: A\n"+
		"no further pairings possible after 3 rounds\n", buf.String())
}

func TestGenerator(t *testing.T) {
	gen, err := Generator("")
	require.NoError(t, err)
	assert.Equal(t, "GreedyFirstFit", gen.GetName())

	gen, err = Generator("Round-Robin")
	require.NoError(t, err)
	assert.Equal(t, "RoundRobin", gen.GetName())

	_, err = Generator("swiss")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRunRoundRobinUntilExhausted(t *testing.T) {
	gen, err := Generator(StrategyRoundRobin)
	require.NoError(t, err)

	res, err := Run([]string{"A", "B", "C", "D", "E", "F"}, 0, gen)
	require.NoError(t, err)
	assert.Len(t, res.Rounds, 5)
	assert.True(t, res.Exhausted)
	for _, r := range res.Rounds {
		assert.Len(t, r.Pairs, 3)
		assert.Empty(t, r.Unmatched)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Dosada05/chatmatch/simulate"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "pairsim", cmd.Use)

	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, "run", runCmd.Name())

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestRunGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	out, err := execute(t, "run", "--names", "Alice,Bob,Carol,Dave,Eve", "--rounds", "3")
	require.NoError(t, err)
	g.Assert(t, "five_names_three_rounds", []byte(out))

	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("names: [A, B, C]\nrounds: 0\n"), 0o600))
	out, err = execute(t, "run", "--roster", path)
	require.NoError(t, err)
	g.Assert(t, "roster_file_until_exhausted", []byte(out))
}

func TestRunJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", "--names", "A,B,C,D", "-r", "2")
	require.NoError(t, err)

	var res simulate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Rounds, 2)
	assert.Equal(t, 1, res.Rounds[0].Number)
	assert.Len(t, res.Rounds[0].Pairs, 2)
}

func TestRunErrors(t *testing.T) {
	_, err := execute(t, "run")
	assert.Error(t, err, "one of --names or --roster is required")

	_, err = execute(t, "run", "--names", "A,B", "--roster", "x.yaml")
	assert.Error(t, err)

	_, err = execute(t, "--format", "xml", "run", "--names", "A,B")
	assert.Error(t, err)

	_, err = execute(t, "run", "--names", "Solo")
	assert.Error(t, err)

	_, err = execute(t, "run", "--names", "A,B", "--strategy", "swiss")
	assert.ErrorIs(t, err, simulate.ErrUnknownStrategy)
}

func TestRunRoundRobinStrategy(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", "--names", "A,B,C,D", "--rounds", "0", "--strategy", "round-robin")
	require.NoError(t, err)

	var res simulate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Rounds, 3)
	assert.True(t, res.Exhausted)
	assert.Equal(t, "A", res.Rounds[0].Pairs[0].NameA)
	assert.Equal(t, "D", res.Rounds[0].Pairs[0].NameB)
}

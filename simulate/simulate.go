// Package simulate runs pairing rounds over an in-memory roster without a store.
package simulate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/utils"
	"gopkg.in/yaml.v3"
)

const simulationRosterID = "SIMU"

const (
	StrategyGreedy     = "greedy"
	StrategyRoundRobin = "round-robin"
)

var ErrUnknownStrategy = errors.New("unknown pairing strategy")

// Generator returns the round generator registered under strategy.
func Generator(strategy string) (pairing.RoundGenerator, error) {
	switch strings.ToLower(strategy) {
	case "", StrategyGreedy:
		return pairing.NewGreedyGenerator(), nil
	case StrategyRoundRobin:
		return pairing.NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownStrategy, strategy, StrategyGreedy, StrategyRoundRobin)
	}
}

// RosterFile is the YAML input of a simulation.
type RosterFile struct {
	Names  []string `yaml:"names"`
	Rounds int      `yaml:"rounds"`
}

func LoadRosterFile(path string) (*RosterFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	var rf RosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	return &rf, nil
}

type Round struct {
	Number    int              `json:"round"`
	Pairs     []models.Pairing `json:"pairs"`
	Unmatched []string         `json:"unmatched"`
}

type Result struct {
	Participants []string `json:"participants"`
	Rounds       []Round  `json:"rounds"`
	// Exhausted is set when a round could not pair anyone.
	Exhausted bool `json:"exhausted"`
}

// Run computes up to rounds rounds for names. With rounds <= 0 it continues
// until no new pair can be formed.
func Run(names []string, rounds int, gen pairing.RoundGenerator) (*Result, error) {
	if gen == nil {
		gen = pairing.NewGreedyGenerator()
	}
	roster := models.NewRoster(simulationRosterID, utils.FilterNames(names), time.Unix(0, 0))
	result := &Result{Participants: make([]string, len(roster.Nodes)), Rounds: []Round{}}
	for i, n := range roster.Nodes {
		result.Participants[i] = n.Name
	}

	for number := 1; rounds <= 0 || number <= rounds; number++ {
		next, event, err := gen.ComputeRound(roster)
		if err != nil {
			return nil, err
		}
		if len(event.Edges) == 0 {
			result.Exhausted = true
			break
		}
		unmatched := make([]string, 0)
		for _, id := range pairing.Unmatched(len(roster.Nodes), event) {
			unmatched = append(unmatched, roster.Nodes[id].Name)
		}
		result.Rounds = append(result.Rounds, Round{Number: number, Pairs: event.Edges, Unmatched: unmatched})
		roster = next
	}
	return result, nil
}

func WriteText(w io.Writer, r *Result) error {
	if _, err := fmt.Fprintf(w, "participants: %s\n", strings.Join(r.Participants, ", ")); err != nil {
		return err
	}
	for _, round := range r.Rounds {
		pairs := make([]string, len(round.Pairs))
		for i, p := range round.Pairs {
			pairs[i] = p.NameA + " & " + p.NameB
		}
		line := fmt.Sprintf("round %d: %s", round.Number, strings.Join(pairs, ", "))
		if len(round.Unmatched) > 0 {
			line += " | unmatched: " + strings.Join(round.Unmatched, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if r.Exhausted {
		_, err := fmt.Fprintf(w, "no further pairings possible after %d rounds\n", len(r.Rounds))
		return err
	}
	return nil
}

func WriteJSON(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

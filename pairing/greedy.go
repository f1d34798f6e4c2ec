package pairing

import (
	"github.com/Dosada05/chatmatch/models"
)

// GreedyGenerator pairs participants first-fit in ascending node id order.
// It never backtracks, so it can leave more participants unmatched than an
// optimal matching would; callers rely on the exact order it produces.
type GreedyGenerator struct {
	eventSource
}

func NewGreedyGenerator(opts ...Option) *GreedyGenerator {
	return &GreedyGenerator{eventSource: newEventSource(opts)}
}

func (g *GreedyGenerator) GetName() string {
	return "GreedyFirstFit"
}

// ComputeRound returns an updated copy of roster with the new pairings recorded
// in both participants' edges, plus the event describing the round.
func (g *GreedyGenerator) ComputeRound(roster *models.Roster) (*models.Roster, *models.Event, error) {
	if err := checkRoster(roster); err != nil {
		return nil, nil, err
	}

	updated := roster.Clone()
	n := len(updated.Nodes)
	matrix := adjacencyMatrix(updated.Nodes)
	assigned := make([]bool, n)
	pairings := make([]models.Pairing, 0, n/2)

	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if assigned[j] || matrix[i][j] {
				continue
			}
			assigned[i], assigned[j] = true, true
			pairings = append(pairings, link(updated, matrix, i, j))
			break
		}
	}

	return updated, recordEvent(updated, g.now(), g.newEventID(), pairings), nil
}

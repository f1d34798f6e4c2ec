package pairing

import (
	"sort"

	"github.com/Dosada05/chatmatch/models"
)

// RoundRobinGenerator follows the circle method: node 0 stays fixed and the
// others rotate one seat per round, so a fresh roster meets every partner in
// n-1 rounds (n rounds when n is odd). Pairs that already met are skipped.
type RoundRobinGenerator struct {
	eventSource
}

func NewRoundRobinGenerator(opts ...Option) *RoundRobinGenerator {
	return &RoundRobinGenerator{eventSource: newEventSource(opts)}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) ComputeRound(roster *models.Roster) (*models.Roster, *models.Event, error) {
	if err := checkRoster(roster); err != nil {
		return nil, nil, err
	}

	updated := roster.Clone()
	matrix := adjacencyMatrix(updated.Nodes)

	pairs := circlePairs(len(updated.Nodes), len(updated.Events))
	pairings := make([]models.Pairing, 0, len(pairs))
	for _, p := range pairs {
		if matrix[p[0]][p[1]] {
			continue
		}
		pairings = append(pairings, link(updated, matrix, p[0], p[1]))
	}

	return updated, recordEvent(updated, g.now(), g.newEventID(), pairings), nil
}

// circlePairs returns the pairs of the given round for n participants, each
// with the lower id first, ordered by that id. A bye seat (-1) pads odd n.
func circlePairs(n, round int) [][2]int {
	seats := n
	if seats%2 == 1 {
		seats++
	}
	rotating := make([]int, seats-1)
	for i := range rotating {
		rotating[i] = i + 1
		if rotating[i] >= n {
			rotating[i] = -1
		}
	}
	shift := round % len(rotating)
	order := append([]int{0}, append(rotating[len(rotating)-shift:], rotating[:len(rotating)-shift]...)...)

	pairs := make([][2]int, 0, seats/2)
	for i := 0; i < seats/2; i++ {
		a, b := order[i], order[seats-1-i]
		if a < 0 || b < 0 {
			continue
		}
		if a > b {
			a, b = b, a
		}
		pairs = append(pairs, [2]int{a, b})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

package pairing

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/utils"
)

var (
	ErrInsufficientParticipants = errors.New("at least 2 participants are required to compute a round")
	ErrMalformedRoster          = errors.New("roster node ids do not match their positions")
)

// RoundGenerator computes the next round for a roster snapshot.
// Implementations must not modify the snapshot they are given.
type RoundGenerator interface {
	ComputeRound(roster *models.Roster) (*models.Roster, *models.Event, error)

	GetName() string
}

// Unmatched lists the node ids of a roster with n participants that sit out the event.
func Unmatched(n int, event *models.Event) []int {
	paired := make([]bool, n)
	for _, id := range event.Participants() {
		if id >= 0 && id < n {
			paired[id] = true
		}
	}
	left := make([]int, 0)
	for id, ok := range paired {
		if !ok {
			left = append(left, id)
		}
	}
	return left
}

type eventSource struct {
	now        func() time.Time
	newEventID func() string
}

type Option func(*eventSource)

// WithClock overrides the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *eventSource) { s.now = now }
}

// WithEventIDs overrides the event id source.
func WithEventIDs(next func() string) Option {
	return func(s *eventSource) { s.newEventID = next }
}

func newEventSource(opts []Option) eventSource {
	s := eventSource{
		now:        time.Now,
		newEventID: utils.NewEventID,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func checkRoster(roster *models.Roster) error {
	if roster == nil || len(roster.Nodes) < 2 {
		found := 0
		if roster != nil {
			found = len(roster.Nodes)
		}
		return fmt.Errorf("%w (found %d)", ErrInsufficientParticipants, found)
	}
	for i, node := range roster.Nodes {
		if node.NodeID != i {
			return fmt.Errorf("%w: position %d holds node %d", ErrMalformedRoster, i, node.NodeID)
		}
	}
	return nil
}

// adjacencyMatrix marks self pairs and every recorded edge. Edges pointing
// outside the roster are ignored.
func adjacencyMatrix(nodes []models.Node) [][]bool {
	n := len(nodes)
	matrix := make([][]bool, n)
	for i := range matrix {
		matrix[i] = make([]bool, n)
		matrix[i][i] = true
	}
	for i, node := range nodes {
		for _, j := range node.Edges {
			if j < 0 || j >= n {
				continue
			}
			matrix[i][j] = true
			matrix[j][i] = true
		}
	}
	return matrix
}

// link records the pair in both nodes' edges and in matrix.
func link(roster *models.Roster, matrix [][]bool, i, j int) models.Pairing {
	matrix[i][j], matrix[j][i] = true, true
	roster.Nodes[i].Edges = append(roster.Nodes[i].Edges, j)
	roster.Nodes[j].Edges = append(roster.Nodes[j].Edges, i)
	return models.Pairing{
		NodeA: i,
		NodeB: j,
		NameA: roster.Nodes[i].Name,
		NameB: roster.Nodes[j].Name,
	}
}

// recordEvent builds the event for pairings and appends its id to roster.
// The timestamp never precedes the roster's creation or its previous round,
// even when the clock steps backwards.
func recordEvent(roster *models.Roster, now time.Time, eventID string, pairings []models.Pairing) *models.Event {
	created := now.UTC().Truncate(models.TimePrecision)
	if created.Before(roster.Created) {
		created = roster.Created
	}
	if created.Before(roster.LastRound) {
		created = roster.LastRound
	}
	event := &models.Event{
		EventID:  eventID,
		RosterID: roster.ID,
		Created:  created,
		Edges:    pairings,
	}
	roster.Events = append(roster.Events, event.EventID)
	roster.LastRound = created
	return event
}

package models

import "time"

// Pairing is one edge produced by a round. Names are copied at pairing time.
type Pairing struct {
	NodeA int    `json:"node_a" dynamodbav:"node_a"`
	NodeB int    `json:"node_b" dynamodbav:"node_b"`
	NameA string `json:"name_a" dynamodbav:"name_a"`
	NameB string `json:"name_b" dynamodbav:"name_b"`
}

// Event is the immutable record of one completed pairing round.
type Event struct {
	EventID  string    `json:"event_id" dynamodbav:"event_id"`
	RosterID string    `json:"roster_id" dynamodbav:"roster_id"`
	Created  time.Time `json:"created" dynamodbav:"created"`
	Edges    []Pairing `json:"edges" dynamodbav:"edges"`
}

// Participants returns every node id that appears in the event's pairings.
func (e *Event) Participants() []int {
	ids := make([]int, 0, len(e.Edges)*2)
	for _, p := range e.Edges {
		ids = append(ids, p.NodeA, p.NodeB)
	}
	return ids
}

func (e *Event) Normalize() {
	if e.Edges == nil {
		e.Edges = []Pairing{}
	}
}

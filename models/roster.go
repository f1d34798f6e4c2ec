// File: models/roster.go
package models

import "time"

// Node is one participant of a roster. NodeID is the participant's position in
// Roster.Nodes and never changes once assigned.
type Node struct {
	NodeID int    `json:"node_id" dynamodbav:"node_id" yaml:"node_id"`
	Name   string `json:"name" dynamodbav:"name" yaml:"name"`
	Edges  []int  `json:"edges" dynamodbav:"edges" yaml:"edges"`
}

// HasEdge reports whether the node has already been paired with other.
func (n *Node) HasEdge(other int) bool {
	for _, e := range n.Edges {
		if e == other {
			return true
		}
	}
	return false
}

// TimePrecision is the resolution of every stored timestamp. Postgres
// timestamptz keeps microseconds, so finer values would not survive a round trip.
const TimePrecision = time.Microsecond

type Roster struct {
	ID      string    `json:"id" dynamodbav:"id" yaml:"id"`
	Created time.Time `json:"created" dynamodbav:"created" yaml:"created"`
	Events  []string  `json:"events" dynamodbav:"events" yaml:"events"`
	Nodes   []Node    `json:"nodes" dynamodbav:"nodes" yaml:"nodes"`
	// LastRound is the creation time of the newest event. Stores fill it in
	// under the round lock; it is not part of the wire form.
	LastRound time.Time `json:"-" dynamodbav:"last_round" yaml:"-"`
}

// NewRoster builds a roster whose node ids follow the order of names.
func NewRoster(id string, names []string, created time.Time) *Roster {
	nodes := make([]Node, len(names))
	for i, name := range names {
		nodes[i] = Node{NodeID: i, Name: name, Edges: []int{}}
	}
	return &Roster{
		ID:      id,
		Created: created.UTC().Truncate(TimePrecision),
		Events:  []string{},
		Nodes:   nodes,
	}
}

// Clone returns a deep copy so callers can change adjacency without touching the original.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	c := &Roster{
		ID:        r.ID,
		Created:   r.Created,
		Events:    make([]string, len(r.Events)),
		Nodes:     make([]Node, len(r.Nodes)),
		LastRound: r.LastRound,
	}
	copy(c.Events, r.Events)
	for i, n := range r.Nodes {
		edges := make([]int, len(n.Edges))
		copy(edges, n.Edges)
		c.Nodes[i] = Node{NodeID: n.NodeID, Name: n.Name, Edges: edges}
	}
	return c
}

// Normalize replaces nil slices with empty ones so the wire form always carries arrays.
func (r *Roster) Normalize() {
	if r.Events == nil {
		r.Events = []string{}
	}
	if r.Nodes == nil {
		r.Nodes = []Node{}
	}
	for i := range r.Nodes {
		if r.Nodes[i].Edges == nil {
			r.Nodes[i].Edges = []int{}
		}
	}
}

// RosterDetails is a roster together with the events recorded for it.
type RosterDetails struct {
	Roster *Roster  `json:"roster"`
	Rounds []*Event `json:"rounds"`
}

package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/Dosada05/chatmatch/models"
)

// MemoryStore keeps rosters and events in process memory. A single lock
// serializes writers, which also gives ApplyRound its exclusivity.
type MemoryStore struct {
	mu      sync.RWMutex
	rosters map[string]*models.Roster
	events  map[string]*models.Event
	seq     map[string]uint64
	nextSeq uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rosters: make(map[string]*models.Roster),
		events:  make(map[string]*models.Event),
		seq:     make(map[string]uint64),
	}
}

func (s *MemoryStore) Rosters() RosterRepository {
	return &memoryRosterRepository{store: s}
}

func (s *MemoryStore) Events() EventRepository {
	return &memoryEventRepository{store: s}
}

func cloneEvent(e *models.Event) *models.Event {
	c := *e
	c.Edges = make([]models.Pairing, len(e.Edges))
	copy(c.Edges, e.Edges)
	return &c
}

type memoryRosterRepository struct {
	store *MemoryStore
}

func (r *memoryRosterRepository) Create(_ context.Context, roster *models.Roster) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.rosters[roster.ID]; ok {
		return ErrRosterIDConflict
	}
	stored := roster.Clone()
	stored.Normalize()
	r.store.rosters[roster.ID] = stored
	return nil
}

func (r *memoryRosterRepository) Exists(_ context.Context, id string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.rosters[id]
	return ok, nil
}

func (r *memoryRosterRepository) GetByID(_ context.Context, id string) (*models.Roster, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	roster, ok := r.store.rosters[id]
	if !ok {
		return nil, ErrRosterNotFound
	}
	return roster.Clone(), nil
}

func (r *memoryRosterRepository) List(_ context.Context, limit int) ([]*models.Roster, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rosters := make([]*models.Roster, 0, len(r.store.rosters))
	for _, roster := range r.store.rosters {
		rosters = append(rosters, roster.Clone())
	}
	sort.Slice(rosters, func(i, j int) bool {
		if rosters[i].Created.Equal(rosters[j].Created) {
			return rosters[i].ID < rosters[j].ID
		}
		return rosters[i].Created.Before(rosters[j].Created)
	})
	if limit > 0 && len(rosters) > limit {
		rosters = rosters[:limit]
	}
	return rosters, nil
}

func (r *memoryRosterRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.rosters[id]; !ok {
		return ErrRosterNotFound
	}
	delete(r.store.rosters, id)
	return nil
}

func (r *memoryRosterRepository) ApplyRound(_ context.Context, id string, fn RoundFunc) (*models.Event, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.rosters[id]
	if !ok {
		return nil, ErrRosterNotFound
	}
	updated, event, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	r.store.rosters[id] = updated.Clone()
	r.store.events[event.EventID] = cloneEvent(event)
	r.store.nextSeq++
	r.store.seq[event.EventID] = r.store.nextSeq
	return event, nil
}

type memoryEventRepository struct {
	store *MemoryStore
}

func (r *memoryEventRepository) GetByID(_ context.Context, eventID string) (*models.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	event, ok := r.store.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return cloneEvent(event), nil
}

func (r *memoryEventRepository) ListByRoster(_ context.Context, rosterID string) ([]*models.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]*models.Event, 0)
	for _, event := range r.store.events {
		if event.RosterID == rosterID {
			events = append(events, cloneEvent(event))
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Created.Equal(events[j].Created) {
			return r.store.seq[events[i].EventID] < r.store.seq[events[j].EventID]
		}
		return events[i].Created.Before(events[j].Created)
	})
	return events, nil
}

func (r *memoryEventRepository) DeleteByRoster(_ context.Context, rosterID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	removed := 0
	for id, event := range r.store.events {
		if event.RosterID == rosterID {
			delete(r.store.events, id)
			delete(r.store.seq, id)
			removed++
		}
	}
	return removed, nil
}

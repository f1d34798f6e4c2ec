package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/chatmatch/models"
)

var (
	ErrRosterNotFound   = errors.New("roster not found")
	ErrRosterIDConflict = errors.New("roster id already in use")
	ErrEventNotFound    = errors.New("event not found")
	ErrConcurrentUpdate = errors.New("roster was modified concurrently")
)

// RoundFunc turns the current roster into its successor plus the event that produced it.
// It must not modify current.
type RoundFunc func(current *models.Roster) (*models.Roster, *models.Event, error)

type RosterRepository interface {
	// Create stores a new roster and fails with ErrRosterIDConflict if the id is taken.
	Create(ctx context.Context, roster *models.Roster) error
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Roster, error)
	// List returns up to limit rosters ordered by creation time.
	List(ctx context.Context, limit int) ([]*models.Roster, error)
	Delete(ctx context.Context, id string) error
	// ApplyRound reads the roster with exclusive access, runs fn and persists the
	// returned roster and event together. Errors from fn are returned unchanged
	// and nothing is written.
	ApplyRound(ctx context.Context, id string, fn RoundFunc) (*models.Event, error)
}

type EventRepository interface {
	GetByID(ctx context.Context, eventID string) (*models.Event, error)
	// ListByRoster returns the roster's events ordered by creation time.
	ListByRoster(ctx context.Context, rosterID string) ([]*models.Event, error)
	// DeleteByRoster removes every event of the roster and reports how many were removed.
	DeleteByRoster(ctx context.Context, rosterID string) (int, error)
}

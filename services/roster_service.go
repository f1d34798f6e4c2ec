package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/chatmatch/metrics"
	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/repositories"
	"github.com/Dosada05/chatmatch/storage"
	"github.com/Dosada05/chatmatch/utils"
	"golang.org/x/sync/errgroup"
)

const DefaultListLimit = 50

type RosterService interface {
	CreateRoster(ctx context.Context, names []string) (*models.Roster, error)
	GetRoster(ctx context.Context, id string) (*models.Roster, error)
	GetRosterDetails(ctx context.Context, id string) (*models.RosterDetails, error)
	ListRosters(ctx context.Context) ([]*models.Roster, error)
	DeleteRoster(ctx context.Context, id string) error
}

type rosterService struct {
	rosterRepo repositories.RosterRepository
	eventRepo  repositories.EventRepository
	allocator  *utils.IDAllocator
	archive    storage.RosterArchiver
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	listLimit  int
	now        func() time.Time
}

// NewRosterService wires the roster use cases. archive, notifier and m may be nil.
func NewRosterService(
	rosterRepo repositories.RosterRepository,
	eventRepo repositories.EventRepository,
	allocator *utils.IDAllocator,
	archive storage.RosterArchiver,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	listLimit int,
) RosterService {
	if allocator == nil {
		allocator = utils.NewIDAllocator(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &rosterService{
		rosterRepo: rosterRepo,
		eventRepo:  eventRepo,
		allocator:  allocator,
		archive:    archive,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
		listLimit:  listLimit,
		now:        time.Now,
	}
}

func (s *rosterService) CreateRoster(ctx context.Context, names []string) (*models.Roster, error) {
	filtered := utils.FilterNames(names)
	if len(filtered) == 0 {
		return nil, ErrNoValidNames
	}

	id, err := s.allocator.AllocateRosterID(func(candidate string) (bool, error) {
		return s.rosterRepo.Exists(ctx, candidate)
	})
	if err != nil {
		if errors.Is(err, utils.ErrAllocationExhausted) {
			s.metrics.Allocation(metrics.OutcomeExhausted)
			s.logger.WarnContext(ctx, "roster id space congested", slog.Int("attempts", utils.MaxRosterIDAttempts))
			return nil, err
		}
		s.metrics.Allocation(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to allocate roster id: %w", err)
	}

	roster := models.NewRoster(id, filtered, s.now())
	if err := s.rosterRepo.Create(ctx, roster); err != nil {
		if errors.Is(err, repositories.ErrRosterIDConflict) {
			s.metrics.Allocation(metrics.OutcomeExhausted)
		}
		return nil, handleRepositoryError(err)
	}
	s.metrics.Allocation(metrics.OutcomeAllocated)

	s.logger.InfoContext(ctx, "roster created", slog.String("roster_id", roster.ID), slog.Int("participants", len(roster.Nodes)))
	return roster, nil
}

func (s *rosterService) GetRoster(ctx context.Context, id string) (*models.Roster, error) {
	if err := validateRosterID(id); err != nil {
		return nil, err
	}
	roster, err := s.rosterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return roster, nil
}

func (s *rosterService) GetRosterDetails(ctx context.Context, id string) (*models.RosterDetails, error) {
	if err := validateRosterID(id); err != nil {
		return nil, err
	}

	details := &models.RosterDetails{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		roster, err := s.rosterRepo.GetByID(gCtx, id)
		if err != nil {
			return err
		}
		details.Roster = roster
		return nil
	})

	g.Go(func() error {
		events, err := s.eventRepo.ListByRoster(gCtx, id)
		if err != nil {
			return fmt.Errorf("failed to list events of roster %s: %w", id, err)
		}
		details.Rounds = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err)
	}
	if details.Rounds == nil {
		details.Rounds = []*models.Event{}
	}
	return details, nil
}

func (s *rosterService) ListRosters(ctx context.Context) ([]*models.Roster, error) {
	rosters, err := s.rosterRepo.List(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rosters: %w", err)
	}
	return rosters, nil
}

// DeleteRoster archives the roster when an archive is configured, then removes
// its events, the roster and any event committed while the delete was running.
// Orphaned events are swept even when the roster itself is already gone.
func (s *rosterService) DeleteRoster(ctx context.Context, id string) error {
	if err := validateRosterID(id); err != nil {
		return err
	}

	details, err := s.GetRosterDetails(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRosterNotFound) {
			if swept, sweepErr := s.eventRepo.DeleteByRoster(ctx, id); sweepErr != nil {
				s.logger.WarnContext(ctx, "failed to sweep orphan events", slog.String("roster_id", id), slog.Any("error", sweepErr))
			} else if swept > 0 {
				s.logger.InfoContext(ctx, "orphan events removed", slog.String("roster_id", id), slog.Int("events", swept))
			}
		}
		return err
	}

	if s.archive != nil {
		res, err := s.archive.ArchiveRoster(ctx, details)
		if err != nil {
			return fmt.Errorf("failed to archive roster %s: %w", id, err)
		}
		s.logger.InfoContext(ctx, "roster archived", slog.String("roster_id", id), slog.String("key", res.Key))
	}

	removed, err := s.eventRepo.DeleteByRoster(ctx, id)
	if err != nil {
		s.discardArchive(ctx, details)
		return fmt.Errorf("failed to delete events of roster %s: %w", id, err)
	}
	if err := s.rosterRepo.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	late, err := s.eventRepo.DeleteByRoster(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete late events of roster %s: %w", id, err)
	}
	removed += late

	s.metrics.RosterDeleted()
	s.logger.InfoContext(ctx, "roster deleted", slog.String("roster_id", id), slog.Int("events", removed))

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(pairing.RoomForRoster(id), pairing.WebSocketMessage{
			Type:    pairing.MessageRosterDeleted,
			Payload: map[string]interface{}{"roster_id": id, "events_removed": removed},
			RoomID:  pairing.RoomForRoster(id),
		})
	}
	return nil
}

// discardArchive drops the snapshot of an abandoned delete, unless some of the
// roster's events are already gone and the snapshot is their only copy.
func (s *rosterService) discardArchive(ctx context.Context, details *models.RosterDetails) {
	if s.archive == nil {
		return
	}
	id := details.Roster.ID
	events, err := s.eventRepo.ListByRoster(ctx, id)
	if err != nil || len(events) < len(details.Rounds) {
		s.logger.WarnContext(ctx, "keeping archive of partially deleted roster", slog.String("roster_id", id))
		return
	}
	if err := s.archive.DiscardRoster(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to discard archive", slog.String("roster_id", id), slog.Any("error", err))
	}
}

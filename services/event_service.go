package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/chatmatch/metrics"
	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/repositories"
	"github.com/Dosada05/chatmatch/utils"
)

type EventService interface {
	CreateEvent(ctx context.Context, rosterID string) (*models.Event, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListEventsByRoster(ctx context.Context, rosterID string) ([]*models.Event, error)
}

type eventService struct {
	rosterRepo repositories.RosterRepository
	eventRepo  repositories.EventRepository
	generator  pairing.RoundGenerator
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewEventService wires the round use cases. notifier and m may be nil.
func NewEventService(
	rosterRepo repositories.RosterRepository,
	eventRepo repositories.EventRepository,
	generator pairing.RoundGenerator,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) EventService {
	if generator == nil {
		generator = pairing.NewGreedyGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		rosterRepo: rosterRepo,
		eventRepo:  eventRepo,
		generator:  generator,
		notifier:   notifier,
		metrics:    m,
		logger:     logger,
	}
}

// CreateEvent computes the next round of a roster and stores it atomically with
// the updated adjacency.
func (s *eventService) CreateEvent(ctx context.Context, rosterID string) (*models.Event, error) {
	if err := validateRosterID(rosterID); err != nil {
		return nil, err
	}

	participants := 0
	event, err := s.rosterRepo.ApplyRound(ctx, rosterID, func(current *models.Roster) (*models.Roster, *models.Event, error) {
		participants = len(current.Nodes)
		return s.generator.ComputeRound(current)
	})
	if err != nil {
		switch {
		case errors.Is(err, pairing.ErrInsufficientParticipants):
			s.metrics.RoundRejected(metrics.RoundInsufficient)
			return nil, err
		case errors.Is(err, repositories.ErrRosterNotFound):
			return nil, ErrRosterNotFound
		default:
			s.metrics.RoundRejected(metrics.RoundFailed)
			return nil, fmt.Errorf("failed to compute round for roster %s: %w", rosterID, err)
		}
	}

	unmatched := len(pairing.Unmatched(participants, event))
	s.metrics.ObserveRound(len(event.Edges), unmatched)
	s.logger.InfoContext(ctx, "round computed",
		slog.String("roster_id", rosterID),
		slog.String("event_id", event.EventID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("pairs", len(event.Edges)),
		slog.Int("unmatched", unmatched),
	)

	if s.notifier != nil {
		s.notifier.BroadcastToRoom(pairing.RoomForRoster(rosterID), pairing.WebSocketMessage{
			Type:    pairing.MessageEventCreated,
			Payload: event,
			RoomID:  pairing.RoomForRoster(rosterID),
		})
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if !utils.IsValidEventID(eventID) {
		return nil, ErrInvalidEventID
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return event, nil
}

// ListEventsByRoster returns the roster's rounds oldest first. A roster without
// rounds yields an empty slice.
func (s *eventService) ListEventsByRoster(ctx context.Context, rosterID string) ([]*models.Event, error) {
	if err := validateRosterID(rosterID); err != nil {
		return nil, err
	}
	exists, err := s.rosterRepo.Exists(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check roster %s: %w", rosterID, err)
	}
	if !exists {
		return nil, ErrRosterNotFound
	}
	events, err := s.eventRepo.ListByRoster(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events of roster %s: %w", rosterID, err)
	}
	return events, nil
}

package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/chatmatch/models"
)

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) GetByID(ctx context.Context, eventID string) (*models.Event, error) {
	query := `
		SELECT event_id, roster_id, created_at, edges
		FROM events
		WHERE event_id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) ListByRoster(ctx context.Context, rosterID string) ([]*models.Event, error) {
	query := `
		SELECT event_id, roster_id, created_at, edges
		FROM events
		WHERE roster_id = $1
		ORDER BY created_at ASC, event_id ASC`
	rows, err := r.db.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) DeleteByRoster(ctx context.Context, rosterID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE roster_id = $1`, rosterID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return int(n), nil
}

func insertEvent(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	edges, err := json.Marshal(event.Edges)
	if err != nil {
		return fmt.Errorf("failed to encode event edges: %w", err)
	}
	query := `
		INSERT INTO events (event_id, roster_id, created_at, edges)
		VALUES ($1, $2, $3, $4)`
	_, err = exec.ExecContext(ctx, query, event.EventID, event.RosterID, event.Created, edges)
	return err
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var edges []byte
	if err := row.Scan(&event.EventID, &event.RosterID, &event.Created, &edges); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(edges, &event.Edges); err != nil {
		return nil, fmt.Errorf("failed to decode edges of event %s: %w", event.EventID, err)
	}
	event.Created = event.Created.UTC()
	event.Normalize()
	return event, nil
}

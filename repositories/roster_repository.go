package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/chatmatch/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRosterRepository struct {
	db *sql.DB
}

func NewPostgresRosterRepository(db *sql.DB) RosterRepository {
	return &postgresRosterRepository{db: db}
}

func (r *postgresRosterRepository) Create(ctx context.Context, roster *models.Roster) error {
	nodes, err := json.Marshal(roster.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode roster nodes: %w", err)
	}
	query := `
		INSERT INTO rosters (id, created_at, events, nodes)
		VALUES ($1, $2, $3, $4)`
	_, err = r.db.ExecContext(ctx, query, roster.ID, roster.Created, pq.Array(roster.Events), nodes)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrRosterIDConflict
		}
		return err
	}
	return nil
}

func (r *postgresRosterRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rosters WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *postgresRosterRepository) GetByID(ctx context.Context, id string) (*models.Roster, error) {
	return getRoster(ctx, r.db, id, false)
}

func (r *postgresRosterRepository) List(ctx context.Context, limit int) ([]*models.Roster, error) {
	query := `
		SELECT id, created_at, events, nodes
		FROM rosters
		ORDER BY created_at ASC, id ASC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := make([]*models.Roster, 0)
	for rows.Next() {
		roster, err := scanRoster(rows)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, roster)
	}
	return rosters, rows.Err()
}

func (r *postgresRosterRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rosters WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func (r *postgresRosterRepository) ApplyRound(ctx context.Context, id string, fn RoundFunc) (event *models.Event, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			event = nil
			err = fmt.Errorf("failed to commit round for roster %s: %w", id, cErr)
		}
	}()

	// FOR UPDATE keeps concurrent rounds of the same roster serialized.
	current, err := getRoster(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	var lastRound sql.NullTime
	err = tx.QueryRowContext(ctx, `SELECT max(created_at) FROM events WHERE roster_id = $1`, id).Scan(&lastRound)
	if err != nil {
		return nil, fmt.Errorf("failed to read last round of roster %s: %w", id, err)
	}
	if lastRound.Valid {
		current.LastRound = lastRound.Time.UTC()
	}
	updated, event, err := fn(current)
	if err != nil {
		return nil, err
	}

	nodes, err := json.Marshal(updated.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster nodes: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE rosters SET events = $1, nodes = $2 WHERE id = $3`,
		pq.Array(updated.Events), nodes, updated.ID,
	)
	if err != nil {
		return nil, err
	}
	if err = checkAffectedRows(result, ErrRosterNotFound); err != nil {
		return nil, err
	}
	if err = insertEvent(ctx, tx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func getRoster(ctx context.Context, exec SQLExecutor, id string, forUpdate bool) (*models.Roster, error) {
	query := `SELECT id, created_at, events, nodes FROM rosters WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	roster, err := scanRoster(exec.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}
	return roster, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoster(row rowScanner) (*models.Roster, error) {
	roster := &models.Roster{}
	var nodes []byte
	if err := row.Scan(&roster.ID, &roster.Created, pq.Array(&roster.Events), &nodes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(nodes, &roster.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes of roster %s: %w", roster.ID, err)
	}
	roster.Created = roster.Created.UTC()
	roster.Normalize()
	return roster, nil
}

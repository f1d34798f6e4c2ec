package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Dosada05/chatmatch/db"
	"github.com/Dosada05/chatmatch/models"
	"github.com/Dosada05/chatmatch/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a disposable database given by TEST_DATABASE_URL.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := db.Connect(dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn))

	rosters := NewPostgresRosterRepository(conn)
	events := NewPostgresEventRepository(conn)

	id, err := utils.NewIDAllocator(nil).AllocateRosterID(func(id string) (bool, error) {
		return rosters.Exists(ctx, id)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = events.DeleteByRoster(ctx, id)
		_ = rosters.Delete(ctx, id)
	})

	roster := models.NewRoster(id, []string{"Alice", "Bob"}, time.Now())
	require.NoError(t, rosters.Create(ctx, roster))
	assert.ErrorIs(t, rosters.Create(ctx, roster), ErrRosterIDConflict)

	eventID := utils.NewEventID()
	_, err = rosters.ApplyRound(ctx, id, roundAt(roster.Created.Add(time.Second), eventID))
	require.NoError(t, err)

	got, err := rosters.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{eventID}, got.Events)
	assert.Equal(t, []int{1}, got.Nodes[0].Edges)

	listed, err := events.ListByRoster(ctx, id)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, eventID, listed[0].EventID)
	assert.True(t, listed[0].Created.Equal(roster.Created.Add(time.Second)))
	assert.True(t, got.Created.Equal(roster.Created))

	var seenLastRound time.Time
	_, err = rosters.ApplyRound(ctx, id, func(current *models.Roster) (*models.Roster, *models.Event, error) {
		seenLastRound = current.LastRound
		return roundAt(roster.Created.Add(2*time.Second), utils.NewEventID())(current)
	})
	require.NoError(t, err)
	assert.True(t, seenLastRound.Equal(listed[0].Created), "round sees the newest event time")

	removed, err := events.DeleteByRoster(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	require.NoError(t, rosters.Delete(ctx, id))
	assert.ErrorIs(t, rosters.Delete(ctx, id), ErrRosterNotFound)
}

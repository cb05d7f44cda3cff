package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/duelsync/pkg/uid"
)

// Needs a throwaway database: TEST_DATABASE_URL=postgres://... go test ./...
func TestMatchRepo(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := Open(ctx, dsn, Options{MaxOpenConns: 2, MaxIdleConns: 2, ConnMaxLifetimeMin: 1})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(ctx, db))

	repo := NewMatchRepo(db)
	rec := MatchRecord{
		MatchID:    uid.NewMatchID(),
		RoomCode:   "K7Q2ZX",
		Winner:     1,
		Reason:     "knockout",
		Health:     []int{0, 40},
		DurationMs: 31_500,
		FinishedAt: time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, repo.SaveMatch(ctx, rec))

	rec.Reason = "time_up"
	require.NoError(t, repo.SaveMatch(ctx, rec))

	got, err := repo.RecentMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.MatchID, got[0].MatchID)
	assert.Equal(t, "time_up", got[0].Reason)
	assert.Equal(t, []int{0, 40}, got[0].Health)
	assert.True(t, rec.FinishedAt.Equal(got[0].FinishedAt))
}

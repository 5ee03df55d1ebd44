package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weighttracker/internal/domain"
)

// openTestDB connects to WEIGHTTRACKER_TEST_POSTGRES and empties the tables.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("WEIGHTTRACKER_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("WEIGHTTRACKER_TEST_POSTGRES not set")
	}
	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.sql.Exec("TRUNCATE weight_records, preferences, sessions, users RESTART IDENTITY CASCADE;")
	require.NoError(t, err)
	return db
}

func TestWeightRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)

	id1, err := db.AddWeightRecord(ctx, 70.0, base)
	require.NoError(t, err)
	id2, err := db.AddWeightRecord(ctx, 71.0, base.Add(time.Hour))
	require.NoError(t, err)
	id3, err := db.AddWeightRecord(ctx, 69.5, base.Add(time.Hour))
	require.NoError(t, err)

	records, err := db.ListWeightRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{id3, id2, id1}, []int64{records[0].ID, records[1].ID, records[2].ID})
	assert.True(t, records[2].RecordedAt.Equal(base))

	limited, err := db.ListWeightRecords(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, err := db.LatestWeightForLocalDay(ctx, "2026-03-01")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, id3, latest.ID)

	ok, err := db.DeleteWeightRecord(ctx, id1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = db.DeleteWeightRecord(ctx, id1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, found, err := db.GetPreference(ctx, domain.PreferenceTheme)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.SetPreference(ctx, domain.PreferenceTheme, "dark"))
	require.NoError(t, db.SetPreference(ctx, domain.PreferenceTheme, "light"))
	v, found, err := db.GetPreference(ctx, domain.PreferenceTheme)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "light", v)
}

func TestSessionRepository(t *testing.T) {
	db := openTestDB(t)
	sessions := NewSessionRepo(db)
	ctx := context.Background()

	u, err := db.Create(ctx, "owner", "hash")
	require.NoError(t, err)

	require.NoError(t, sessions.Create(ctx, u.ID, "live", "ua", time.Now().Add(time.Hour)))
	require.NoError(t, sessions.Create(ctx, u.ID, "stale", "ua", time.Now().Add(-time.Hour)))

	s, err := sessions.GetByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ua", s.UserAgent)

	n, err := sessions.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

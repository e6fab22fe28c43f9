package queue

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"animeatlas/pkg/database"
)

type fakeClock struct{ now time.Time }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(context.Background(), database.Config{
		Path: filepath.Join(t.TempDir(), "atlas.sqlite"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepo(t *testing.T, clock *fakeClock) *Repo {
	t.Helper()
	r := NewRepo(openDB(t))
	r.Now = clock.Now
	return r
}

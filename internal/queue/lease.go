package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"animeatlas/pkg/models"
)

var (
	ErrLeaseHeld = errors.New("ingest lease held by another runner")
	ErrLeaseLost = errors.New("ingest lease lost")
)

const DefaultLeaseName = "ingest"

// NewOwnerID returns an opaque runner identity.
func NewOwnerID() string {
	return fmt.Sprintf("runner-%d-%s", os.Getpid(), uuid.New().String())
}

// Lease is a named, expiring ownership record. It is never released
// explicitly; a crashed owner's lease frees itself after TTL.
type Lease struct {
	DB    *sql.DB
	Name  string
	Owner string
	TTL   time.Duration
	Now   func() time.Time
}

func NewLease(db *sql.DB, name, owner string, ttl time.Duration) *Lease {
	return &Lease{DB: db, Name: name, Owner: owner, TTL: ttl, Now: time.Now}
}

// Acquire takes the lease if it is free, expired, or already ours, and
// extends it by TTL. The check and the write are one statement, so two
// contenders for a live lease cannot both win.
func (l *Lease) Acquire(ctx context.Context) (bool, error) {
	now := l.Now()
	res, err := l.DB.ExecContext(ctx, `
		INSERT INTO leases (name, owner, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  owner = excluded.owner,
		  expires_at = excluded.expires_at
		WHERE leases.expires_at < ? OR leases.owner = excluded.owner
	`, l.Name, l.Owner, now.Add(l.TTL).UnixMilli(), now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.Name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Renew extends the lease. It fails with ErrLeaseLost when another
// runner has taken it over.
func (l *Lease) Renew(ctx context.Context) error {
	res, err := l.DB.ExecContext(ctx,
		`UPDATE leases SET expires_at = ? WHERE name = ? AND owner = ?`,
		l.Now().Add(l.TTL).UnixMilli(), l.Name, l.Owner)
	if err != nil {
		return fmt.Errorf("renew lease %s: %w", l.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLeaseLost
	}
	return nil
}

// Current returns the stored lease record, or nil if none exists.
func (l *Lease) Current(ctx context.Context) (*models.Lease, error) {
	var (
		rec     models.Lease
		expires int64
	)
	err := l.DB.QueryRowContext(ctx,
		`SELECT name, owner, expires_at FROM leases WHERE name = ?`, l.Name,
	).Scan(&rec.Name, &rec.Owner, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lease %s: %w", l.Name, err)
	}
	rec.ExpiresAt = time.UnixMilli(expires)
	return &rec, nil
}

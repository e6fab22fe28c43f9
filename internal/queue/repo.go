package queue

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"animeatlas/pkg/models"
)

// Execer is satisfied by both *sql.DB and *sql.Tx, so batches can be
// enqueued inside an ingest transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Enqueue inserts a PENDING batch unless (type, scope) already exists.
// It reports whether a new row was created.
func Enqueue(ctx context.Context, db Execer, t models.BatchType, scopeKey string, now time.Time) (bool, error) {
	ms := now.UnixMilli()
	res, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO batches (batch_type, scope_key, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, string(t), scopeKey, string(models.StatusPending), ms, ms)
	if err != nil {
		return false, fmt.Errorf("enqueue %s %s: %w", t, scopeKey, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db, Now: time.Now}
}

func (r *Repo) Enqueue(ctx context.Context, t models.BatchType, scopeKey string) (bool, error) {
	return Enqueue(ctx, r.DB, t, scopeKey, r.Now())
}

const batchColumns = `batch_id, batch_type, scope_key, status, attempts, last_error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*models.Batch, error) {
	var (
		b         models.Batch
		batchType string
		status    string
		lastError sql.NullString
		created   int64
		updated   int64
	)
	if err := s.Scan(&b.ID, &batchType, &b.ScopeKey, &status, &b.Attempts, &lastError, &created, &updated); err != nil {
		return nil, err
	}
	b.Type = models.BatchType(batchType)
	b.Status = models.BatchStatus(status)
	b.LastError = lastError.String
	b.CreatedAt = time.UnixMilli(created)
	b.UpdatedAt = time.UnixMilli(updated)
	return &b, nil
}

// priorityCase orders batch_type by BatchType.Priority inside SQL.
var priorityCase = func() string {
	var b strings.Builder
	b.WriteString("CASE batch_type")
	for _, t := range []models.BatchType{
		models.BatchAnimeList, models.BatchMangaList,
		models.BatchMediaStaff, models.BatchMediaCharacters,
	} {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", t, t.Priority())
	}
	fmt.Fprintf(&b, " ELSE %d END", models.BatchType("").Priority())
	return b.String()
}()

// Next returns the eligible batch with the smallest (type priority, id):
// PENDING, or FAILED with attempts below maxRetries. It returns nil when
// nothing is eligible.
func (r *Repo) Next(ctx context.Context, maxRetries int) (*models.Batch, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+batchColumns+`
		FROM batches
		WHERE status = ? OR (status = ? AND attempts < ?)
		ORDER BY `+priorityCase+`, batch_id ASC
		LIMIT 1
	`, string(models.StatusPending), string(models.StatusFailed), maxRetries)

	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select next batch: %w", err)
	}
	return b, nil
}

func (r *Repo) Get(ctx context.Context, id int64) (*models.Batch, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE batch_id = ?`, id)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %d: %w", id, err)
	}
	return b, nil
}

func (r *Repo) Find(ctx context.Context, t models.BatchType, scopeKey string) (*models.Batch, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE batch_type = ? AND scope_key = ?`,
		string(t), scopeKey)
	b, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find batch %s %s: %w", t, scopeKey, err)
	}
	return b, nil
}

// Mark moves a batch to status. Attempts only grow on failure, and
// last_error is cleared on any non-failure transition.
func (r *Repo) Mark(ctx context.Context, id int64, status models.BatchStatus, errMsg string) error {
	var lastError any
	if status == models.StatusFailed {
		lastError = errMsg
	}
	_, err := r.DB.ExecContext(ctx, `
		UPDATE batches
		SET status = ?,
		    last_error = ?,
		    attempts = CASE WHEN ? = 'FAILED' THEN attempts + 1 ELSE attempts END,
		    updated_at = ?
		WHERE batch_id = ?
	`, string(status), lastError, string(status), r.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("mark batch %d %s: %w", id, status, err)
	}
	return nil
}

// StatusCounts is the batch table grouped by type and status.
type StatusCounts map[models.BatchType]map[models.BatchStatus]int

func (c StatusCounts) Total(status models.BatchStatus) int {
	n := 0
	for _, byStatus := range c {
		n += byStatus[status]
	}
	return n
}

func (r *Repo) Counts(ctx context.Context) (StatusCounts, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT batch_type, status, COUNT(*)
		FROM batches
		GROUP BY batch_type, status
	`)
	if err != nil {
		return nil, fmt.Errorf("count batches: %w", err)
	}
	defer rows.Close()

	out := StatusCounts{}
	for rows.Next() {
		var (
			t, s string
			n    int
		)
		if err := rows.Scan(&t, &s, &n); err != nil {
			return nil, fmt.Errorf("count scan: %w", err)
		}
		bt := models.BatchType(t)
		if out[bt] == nil {
			out[bt] = map[models.BatchStatus]int{}
		}
		out[bt][models.BatchStatus(s)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// MediaMissingDone counts media rows with no DONE batch of type t for
// their scope key.
func (r *Repo) MediaMissingDone(ctx context.Context, t models.BatchType) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM media m
		WHERE NOT EXISTS (
		  SELECT 1 FROM batches b
		  WHERE b.batch_type = ?
		    AND b.scope_key = ? || ':' || m.id
		    AND b.status = ?
		)
	`, string(t), string(t), string(models.StatusDone)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count media missing %s: %w", t, err)
	}
	return n, nil
}

// RequeueOrphaned returns RUNNING batches to PENDING without charging an
// attempt.
func (r *Repo) RequeueOrphaned(ctx context.Context) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE batches SET status = ?, updated_at = ? WHERE status = ?`,
		string(models.StatusPending), r.Now().UnixMilli(), string(models.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("requeue running batches: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"animeatlas/pkg/models"
)

// Dispatcher performs the work a batch describes.
type Dispatcher interface {
	Dispatch(ctx context.Context, b models.Batch) error
}

type RunConfig struct {
	TimeBudget time.Duration
	// BatchLimit caps the batches completed (DONE) in one run.
	BatchLimit int
	MaxRetries int
	// ListPages, when positive, plans list pages once the lease is held.
	ListPages int
}

type RunSummary struct {
	Planned   int // list batches created by this run
	Processed int // batches marked DONE
	Failed    int // batches marked FAILED
	Stop      string
}

// Runner drives the work queue for one invocation. Batches run one at a
// time; stop conditions are only checked between batches.
type Runner struct {
	Repo       *Repo
	Lease      *Lease
	Dispatcher Dispatcher
	Config     RunConfig
	Now        func() time.Time
}

func NewRunner(repo *Repo, lease *Lease, d Dispatcher, cfg RunConfig) *Runner {
	return &Runner{Repo: repo, Lease: lease, Dispatcher: d, Config: cfg, Now: time.Now}
}

// Run returns ErrLeaseHeld without touching the batch table when another
// runner owns the lease. Planning happens only after the lease is held.
// Batch failures are recorded and never returned.
func (r *Runner) Run(ctx context.Context) (*RunSummary, error) {
	ok, err := r.Lease.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLeaseHeld
	}
	log.Printf("[ingest] lease %s acquired by %s", r.Lease.Name, r.Lease.Owner)

	// Only a lease holder marks batches RUNNING, so any left over belong
	// to a runner that died mid-batch.
	if n, err := r.Repo.RequeueOrphaned(ctx); err != nil {
		return nil, err
	} else if n > 0 {
		log.Printf("[ingest] requeued %d orphaned running batches", n)
	}

	summary := &RunSummary{}
	if r.Config.ListPages > 0 {
		n, err := r.Repo.EnsureWorkPlan(ctx, r.Config.ListPages)
		if err != nil {
			return nil, fmt.Errorf("plan list pages: %w", err)
		}
		summary.Planned = n
		log.Printf("[ingest] planned %d new list batches", n)
	}

	stopAt := r.Now().Add(r.Config.TimeBudget)

	for {
		switch {
		case ctx.Err() != nil:
			summary.Stop = "cancelled"
			return summary, nil
		case !r.Now().Before(stopAt):
			summary.Stop = "time budget"
			return summary, nil
		case summary.Processed >= r.Config.BatchLimit:
			summary.Stop = "batch limit"
			return summary, nil
		}

		if err := r.Lease.Renew(ctx); err != nil {
			return summary, err
		}

		b, err := r.Repo.Next(ctx, r.Config.MaxRetries)
		if err != nil {
			return summary, err
		}
		if b == nil {
			summary.Stop = "queue drained"
			return summary, nil
		}

		if err := r.Repo.Mark(ctx, b.ID, models.StatusRunning, ""); err != nil {
			return summary, err
		}

		// a started batch runs to completion; cancellation is only seen
		// between batches
		batchCtx := context.WithoutCancel(ctx)
		if err := r.dispatch(batchCtx, *b); err != nil {
			if markErr := r.Repo.Mark(batchCtx, b.ID, models.StatusFailed, err.Error()); markErr != nil {
				return summary, markErr
			}
			summary.Failed++
			log.Printf("[failed] %s %s: %v", b.Type, b.ScopeKey, err)
			continue
		}

		if err := r.Repo.Mark(batchCtx, b.ID, models.StatusDone, ""); err != nil {
			return summary, err
		}
		summary.Processed++
		log.Printf("[done] %s %s", b.Type, b.ScopeKey)
	}
}

// dispatch turns a panic inside one batch into that batch's error.
func (r *Runner) dispatch(ctx context.Context, b models.Batch) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Dispatcher.Dispatch(ctx, b)
}

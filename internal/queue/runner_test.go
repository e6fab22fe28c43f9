package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"animeatlas/pkg/models"
)

type dispatchFunc func(ctx context.Context, b models.Batch) error

func (f dispatchFunc) Dispatch(ctx context.Context, b models.Batch) error { return f(ctx, b) }

func newTestRunner(t *testing.T, clock *fakeClock, d Dispatcher, cfg RunConfig) *Runner {
	t.Helper()
	repo := newTestRepo(t, clock)
	lease := NewLease(repo.DB, DefaultLeaseName, "runner-test", 2*time.Minute)
	lease.Now = clock.Now
	r := NewRunner(repo, lease, d, cfg)
	r.Now = clock.Now
	return r
}

func defaultRunConfig() RunConfig {
	return RunConfig{TimeBudget: 30 * time.Minute, BatchLimit: 8, MaxRetries: 5}
}

func TestRunDrainsQueue(t *testing.T) {
	ctx := context.Background()
	var seen []string
	r := newTestRunner(t, newClock(), dispatchFunc(func(_ context.Context, b models.Batch) error {
		seen = append(seen, b.ScopeKey)
		return nil
	}), defaultRunConfig())

	if _, err := r.Repo.EnsureWorkPlan(ctx, 2); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Processed != 4 || sum.Stop != "queue drained" {
		t.Fatalf("summary = %+v", sum)
	}
	want := []string{"ANIME:page:1", "ANIME:page:2", "MANGA:page:1", "MANGA:page:2"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("order = %v, want %v", seen, want)
		}
	}
	counts, _ := r.Repo.Counts(ctx)
	if counts.Total(models.StatusDone) != 4 {
		t.Fatalf("done = %d, want 4", counts.Total(models.StatusDone))
	}
}

func TestRunStopsAtBatchLimit(t *testing.T) {
	ctx := context.Background()
	cfg := defaultRunConfig()
	cfg.BatchLimit = 3
	r := newTestRunner(t, newClock(), dispatchFunc(func(context.Context, models.Batch) error { return nil }), cfg)

	if _, err := r.Repo.EnsureWorkPlan(ctx, 5); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 3 || sum.Stop != "batch limit" {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunStopsAtTimeBudget(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	r := newTestRunner(t, clock, dispatchFunc(func(context.Context, models.Batch) error {
		clock.Advance(20 * time.Minute)
		return nil
	}), defaultRunConfig())

	if _, err := r.Repo.EnsureWorkPlan(ctx, 5); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 2 || sum.Stop != "time budget" {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunDeterministicFailureGivesUp(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cfg := defaultRunConfig()
	cfg.BatchLimit = 20
	r := newTestRunner(t, newClock(), dispatchFunc(func(context.Context, models.Batch) error {
		calls++
		return errors.New("always broken")
	}), cfg)

	if _, err := r.Repo.Enqueue(ctx, models.BatchMediaStaff, "MEDIA_STAFF:7"); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 5 || sum.Failed != 5 || sum.Stop != "queue drained" {
		t.Fatalf("calls=%d summary=%+v", calls, sum)
	}
	b, _ := r.Repo.Find(ctx, models.BatchMediaStaff, "MEDIA_STAFF:7")
	if b.Status != models.StatusFailed || b.Attempts != 5 || b.LastError != "always broken" {
		t.Fatalf("batch = %+v", b)
	}
}

func TestRunRecoversDispatchPanic(t *testing.T) {
	ctx := context.Background()
	cfg := defaultRunConfig()
	cfg.MaxRetries = 1
	r := newTestRunner(t, newClock(), dispatchFunc(func(_ context.Context, b models.Batch) error {
		if b.ScopeKey == "MEDIA_STAFF:1" {
			panic("bad payload")
		}
		return nil
	}), cfg)

	for _, key := range []string{"MEDIA_STAFF:1", "MEDIA_STAFF:2"} {
		if _, err := r.Repo.Enqueue(ctx, models.BatchMediaStaff, key); err != nil {
			t.Fatal(err)
		}
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Failed != 1 || sum.Processed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	b, _ := r.Repo.Find(ctx, models.BatchMediaStaff, "MEDIA_STAFF:1")
	if b.Status != models.StatusFailed || b.LastError != "panic: bad payload" {
		t.Fatalf("batch = %+v", b)
	}
}

func TestRunLeaseHeldLeavesBatchesUntouched(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	called := false
	r := newTestRunner(t, clock, dispatchFunc(func(context.Context, models.Batch) error {
		called = true
		return nil
	}), defaultRunConfig())

	other := NewLease(r.Repo.DB, DefaultLeaseName, "runner-other", 2*time.Minute)
	other.Now = clock.Now
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatal("other runner should hold the lease")
	}
	if _, err := r.Repo.EnsureWorkPlan(ctx, 1); err != nil {
		t.Fatal(err)
	}
	// a RUNNING row owned by the live holder must survive
	b, _ := r.Repo.Find(ctx, models.BatchAnimeList, "ANIME:page:1")
	if err := r.Repo.Mark(ctx, b.ID, models.StatusRunning, ""); err != nil {
		t.Fatal(err)
	}

	_, err := r.Run(ctx)
	if !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("err = %v, want ErrLeaseHeld", err)
	}
	if called {
		t.Fatal("dispatcher ran without the lease")
	}
	counts, _ := r.Repo.Counts(ctx)
	if counts.Total(models.StatusRunning) != 1 || counts.Total(models.StatusPending) != 1 {
		t.Fatalf("batch table changed: %v", counts)
	}
}

func TestRunRequeuesOrphanedBatches(t *testing.T) {
	ctx := context.Background()
	var seen []string
	r := newTestRunner(t, newClock(), dispatchFunc(func(_ context.Context, b models.Batch) error {
		seen = append(seen, b.ScopeKey)
		return nil
	}), defaultRunConfig())

	if _, err := r.Repo.Enqueue(ctx, models.BatchMediaStaff, "MEDIA_STAFF:3"); err != nil {
		t.Fatal(err)
	}
	b, _ := r.Repo.Find(ctx, models.BatchMediaStaff, "MEDIA_STAFF:3")
	if err := r.Repo.Mark(ctx, b.ID, models.StatusRunning, ""); err != nil {
		t.Fatal(err)
	}

	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 || len(seen) != 1 {
		t.Fatalf("summary=%+v seen=%v", sum, seen)
	}
	got, _ := r.Repo.Get(ctx, b.ID)
	if got.Status != models.StatusDone || got.Attempts != 0 {
		t.Fatalf("batch = %+v", got)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := newTestRunner(t, newClock(), dispatchFunc(func(context.Context, models.Batch) error {
		cancel()
		return nil
	}), defaultRunConfig())

	if _, err := r.Repo.EnsureWorkPlan(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 || sum.Stop != "cancelled" {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunBatchLimitCountsOnlyCompletedBatches(t *testing.T) {
	ctx := context.Background()
	cfg := defaultRunConfig()
	cfg.BatchLimit = 2
	r := newTestRunner(t, newClock(), dispatchFunc(func(_ context.Context, b models.Batch) error {
		if b.ScopeKey == "ANIME:page:1" {
			return errors.New("page broken")
		}
		return nil
	}), cfg)

	if _, err := r.Repo.EnsureWorkPlan(ctx, 3); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 2 || sum.Failed != 5 || sum.Stop != "batch limit" {
		t.Fatalf("summary = %+v", sum)
	}
	for _, key := range []string{"ANIME:page:2", "ANIME:page:3"} {
		b, _ := r.Repo.Find(ctx, models.BatchAnimeList, key)
		if b.Status != models.StatusDone {
			t.Fatalf("%s = %s, want DONE", key, b.Status)
		}
	}
}

func TestRunPlansAfterAcquiringLease(t *testing.T) {
	ctx := context.Background()
	cfg := defaultRunConfig()
	cfg.ListPages = 3
	r := newTestRunner(t, newClock(), dispatchFunc(func(context.Context, models.Batch) error { return nil }), cfg)

	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Planned != 6 || sum.Processed != 6 || sum.Stop != "queue drained" {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRunContendedLeavesBatchTableEmpty(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	cfg := defaultRunConfig()
	cfg.ListPages = 3
	r := newTestRunner(t, clock, dispatchFunc(func(context.Context, models.Batch) error { return nil }), cfg)

	other := NewLease(r.Repo.DB, DefaultLeaseName, "runner-other", 2*time.Minute)
	other.Now = clock.Now
	if ok, _ := other.Acquire(ctx); !ok {
		t.Fatal("other runner should hold the lease")
	}

	if _, err := r.Run(ctx); !errors.Is(err, ErrLeaseHeld) {
		t.Fatalf("err = %v, want ErrLeaseHeld", err)
	}
	var n int
	if err := r.Repo.DB.QueryRow(`SELECT COUNT(*) FROM batches`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("contended run wrote %d batches", n)
	}
}

func TestRunFinishesBatchInFlightWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := newTestRunner(t, newClock(), dispatchFunc(func(batchCtx context.Context, b models.Batch) error {
		cancel()
		return batchCtx.Err()
	}), defaultRunConfig())

	if _, err := r.Repo.Enqueue(context.Background(), models.BatchMediaStaff, "MEDIA_STAFF:4"); err != nil {
		t.Fatal(err)
	}
	sum, err := r.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 || sum.Failed != 0 || sum.Stop != "cancelled" {
		t.Fatalf("summary = %+v", sum)
	}
	b, _ := r.Repo.Find(context.Background(), models.BatchMediaStaff, "MEDIA_STAFF:4")
	if b.Status != models.StatusDone || b.Attempts != 0 {
		t.Fatalf("batch = %+v", b)
	}
}

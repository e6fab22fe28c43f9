package progress

import (
	"context"
	"log"
	"reflect"
	"time"

	"animeatlas/internal/queue"
)

// Counter reports batch counts; *queue.Repo satisfies it.
type Counter interface {
	Counts(ctx context.Context) (queue.StatusCounts, error)
}

// Watcher polls batch counts and broadcasts a snapshot whenever they
// change. It only reads.
type Watcher struct {
	Source   Counter
	Hub      *Hub
	Interval time.Duration
	Now      func() time.Time

	last queue.StatusCounts
}

func NewWatcher(src Counter, hub *Hub, interval time.Duration) *Watcher {
	return &Watcher{Source: src, Hub: hub, Interval: interval, Now: time.Now}
}

// Poll reads the counts once and reports whether a snapshot went out.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	counts, err := w.Source.Counts(ctx)
	if err != nil {
		return false, err
	}
	if w.last != nil && reflect.DeepEqual(counts, w.last) {
		return false, nil
	}
	w.last = counts
	w.Hub.BroadcastJSON(NewSnapshot(counts, w.Now()))
	return true, nil
}

// Run polls every Interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[ws] progress poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

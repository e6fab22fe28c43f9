package progress

import (
	"time"

	"animeatlas/internal/queue"
	"animeatlas/pkg/models"
)

// Snapshot is one broadcast of batch-table progress.
type Snapshot struct {
	Type    string             `json:"type"` // always "progress"
	Counts  queue.StatusCounts `json:"counts"`
	Done    int                `json:"done"`
	Pending int                `json:"pending"`
	Running int                `json:"running"`
	Failed  int                `json:"failed"`
	At      time.Time          `json:"at"`
}

func NewSnapshot(counts queue.StatusCounts, at time.Time) Snapshot {
	return Snapshot{
		Type:    "progress",
		Counts:  counts,
		Done:    counts.Total(models.StatusDone),
		Pending: counts.Total(models.StatusPending),
		Running: counts.Total(models.StatusRunning),
		Failed:  counts.Total(models.StatusFailed),
		At:      at,
	}
}

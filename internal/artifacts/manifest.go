package artifacts

import (
	"context"
	"time"

	"animeatlas/internal/queue"
	"animeatlas/pkg/models"
)

// BuildManifest reports ingestion completeness. Pending covers every
// batch that is not DONE: PENDING, RUNNING and FAILED.
func BuildManifest(ctx context.Context, batches *queue.Repo, totalMedia, totalPeople int, now time.Time) (models.Manifest, error) {
	counts, err := batches.Counts(ctx)
	if err != nil {
		return models.Manifest{}, err
	}
	missingStaff, err := batches.MediaMissingDone(ctx, models.BatchMediaStaff)
	if err != nil {
		return models.Manifest{}, err
	}
	missingChars, err := batches.MediaMissingDone(ctx, models.BatchMediaCharacters)
	if err != nil {
		return models.Manifest{}, err
	}

	pending := counts.Total(models.StatusPending) +
		counts.Total(models.StatusRunning) +
		counts.Total(models.StatusFailed)

	return models.Manifest{
		TotalMedia:             totalMedia,
		TotalPeople:            totalPeople,
		CompletedBatches:       counts.Total(models.StatusDone),
		PendingBatches:         pending,
		LastIngestRunTimestamp: now.UnixMilli(),
		HasStaffForAllMedia:    missingStaff == 0,
		HasCharsForAllMedia:    missingChars == 0,
		ArtifactEncoding:       "json",
	}, nil
}

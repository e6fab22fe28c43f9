package queue

import (
	"context"
	"fmt"

	"animeatlas/pkg/models"
)

// EnsureWorkPlan seeds list batches for pages 1..listPages of both media
// types. Existing batches are left untouched, so re-planning is safe.
func (r *Repo) EnsureWorkPlan(ctx context.Context, listPages int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin plan tx: %w", err)
	}
	defer tx.Rollback()

	now := r.Now()
	created := 0
	for p := 1; p <= listPages; p++ {
		for _, seed := range []struct {
			t         models.BatchType
			mediaType string
		}{
			{models.BatchAnimeList, models.MediaTypeAnime},
			{models.BatchMangaList, models.MediaTypeManga},
		} {
			ok, err := Enqueue(ctx, tx, seed.t, models.ListScopeKey(seed.mediaType, p), now)
			if err != nil {
				return 0, err
			}
			if ok {
				created++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit plan tx: %w", err)
	}
	return created, nil
}

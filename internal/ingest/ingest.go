package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"animeatlas/internal/anilist"
	"animeatlas/internal/queue"
	"animeatlas/pkg/models"
)

// Fetcher is the slice of the remote API the ingester needs.
type Fetcher interface {
	MediaPage(ctx context.Context, mediaType string, page, perPage int) ([]anilist.MediaNode, anilist.PageInfo, error)
	StaffPage(ctx context.Context, mediaID, page, perPage int) ([]anilist.StaffEdge, anilist.PageInfo, error)
	CharactersPage(ctx context.Context, mediaID, page, perPage int) ([]anilist.CharacterEdge, anilist.PageInfo, error)
}

// Ingester turns remote pages into store rows. Network calls happen
// before the transaction opens; each batch commits in one transaction.
type Ingester struct {
	DB      *sql.DB
	API     Fetcher
	Policy  RolePolicy
	PerPage int
	// MaxPages caps staff/character pagination per media; 0 means no cap.
	MaxPages int
	Now      func() time.Time
}

func NewIngester(db *sql.DB, api Fetcher, perPage int) *Ingester {
	return &Ingester{
		DB:      db,
		API:     api,
		Policy:  DefaultRolePolicy(),
		PerPage: perPage,
		Now:     time.Now,
	}
}

// Dispatch routes a batch to the ingest operation for its type.
func (i *Ingester) Dispatch(ctx context.Context, b models.Batch) error {
	switch b.Type {
	case models.BatchAnimeList, models.BatchMangaList:
		mediaType, page, err := models.ParseListScopeKey(b.ScopeKey)
		if err != nil {
			return err
		}
		_, err = i.IngestList(ctx, mediaType, page)
		return err
	case models.BatchMediaStaff:
		id, err := models.ParseMediaScopeKey(b.ScopeKey)
		if err != nil {
			return err
		}
		return i.IngestStaff(ctx, id)
	case models.BatchMediaCharacters:
		id, err := models.ParseMediaScopeKey(b.ScopeKey)
		if err != nil {
			return err
		}
		return i.IngestCharacters(ctx, id)
	default:
		return fmt.Errorf("unknown batch type %q", b.Type)
	}
}

// IngestList upserts one list page of media with their relations and
// enqueues staff and character batches for each media. It returns the
// number of media on the page.
func (i *Ingester) IngestList(ctx context.Context, mediaType string, page int) (int, error) {
	nodes, _, err := i.API.MediaPage(ctx, mediaType, page, i.PerPage)
	if err != nil {
		return 0, err
	}

	tx, err := i.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	st, err := prepare(ctx, tx, upsertMediaSQL, upsertRelationSQL)
	if err != nil {
		return 0, err
	}
	defer st.close()

	now := i.Now()
	updated := now.UnixMilli()
	for _, m := range nodes {
		if err := execMedia(ctx, st[upsertMediaSQL], m, updated); err != nil {
			return 0, err
		}

		n := min(len(m.Relations.Nodes), len(m.Relations.Edges))
		for k := 0; k < n; k++ {
			relType := m.Relations.Edges[k].RelationType
			if relType == "" {
				relType = "UNKNOWN"
			}
			if _, err := st[upsertRelationSQL].ExecContext(ctx, m.ID, m.Relations.Nodes[k].ID, relType); err != nil {
				return 0, fmt.Errorf("exec upsert relation %d->%d: %w", m.ID, m.Relations.Nodes[k].ID, err)
			}
		}

		for _, t := range []models.BatchType{models.BatchMediaStaff, models.BatchMediaCharacters} {
			if _, err := queue.Enqueue(ctx, tx, t, models.MediaScopeKey(t, m.ID), now); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(nodes), nil
}

func execMedia(ctx context.Context, stmt *sql.Stmt, m anilist.MediaNode, updated int64) error {
	genres, tags, studios := m.Genres, m.Tags, m.Studios.Nodes
	if genres == nil {
		genres = []string{}
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	if studios == nil {
		studios = []models.Studio{}
	}
	genresJSON, err := jsonText(genres)
	if err != nil {
		return fmt.Errorf("marshal genres for %d: %w", m.ID, err)
	}
	tagsJSON, err := jsonText(tags)
	if err != nil {
		return fmt.Errorf("marshal tags for %d: %w", m.ID, err)
	}
	studiosJSON, err := jsonText(studios)
	if err != nil {
		return fmt.Errorf("marshal studios for %d: %w", m.ID, err)
	}

	if _, err := stmt.ExecContext(ctx,
		m.ID,
		nullString(m.Type),
		nullString(m.Format),
		nullInt(m.SeasonYear),
		nullInt(m.Popularity),
		nullInt(m.AverageScore),
		nullString(m.Title.Romaji),
		nullString(m.Title.English),
		nullString(m.Title.Native),
		nullString(m.CoverImage.Large),
		nullString(m.CoverImage.Color),
		genresJSON,
		tagsJSON,
		studiosJSON,
		updated,
	); err != nil {
		return fmt.Errorf("exec upsert media %d: %w", m.ID, err)
	}
	return nil
}

// IngestStaff walks every staff page for one media, then writes people
// and weighted credits.
func (i *Ingester) IngestStaff(ctx context.Context, mediaID int) error {
	pager := anilist.NewPager(func(ctx context.Context, page int) ([]anilist.StaffEdge, anilist.PageInfo, error) {
		return i.API.StaffPage(ctx, mediaID, page, i.PerPage)
	}, i.MaxPages)
	edges, err := pager.Collect(ctx)
	if err != nil {
		return err
	}

	tx, err := i.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	st, err := prepare(ctx, tx, upsertPersonSQL, upsertCreditSQL)
	if err != nil {
		return err
	}
	defer st.close()

	updated := i.Now().UnixMilli()
	for _, e := range edges {
		if err := execPerson(ctx, st[upsertPersonSQL], e.Node, updated); err != nil {
			return err
		}
		role := e.Role
		if role == "" {
			role = "Unknown"
		}
		if _, err := st[upsertCreditSQL].ExecContext(ctx,
			mediaID, e.Node.ID, role,
			0, boolInt(i.Policy.IsLocalization(role)), i.Policy.Weight(role),
		); err != nil {
			return fmt.Errorf("exec upsert credit %d/%d: %w", mediaID, e.Node.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IngestCharacters walks every character page for one media, then writes
// characters, appearances, voice actors and their synthetic credits.
func (i *Ingester) IngestCharacters(ctx context.Context, mediaID int) error {
	pager := anilist.NewPager(func(ctx context.Context, page int) ([]anilist.CharacterEdge, anilist.PageInfo, error) {
		return i.API.CharactersPage(ctx, mediaID, page, i.PerPage)
	}, i.MaxPages)
	edges, err := pager.Collect(ctx)
	if err != nil {
		return err
	}

	tx, err := i.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	st, err := prepare(ctx, tx,
		upsertCharacterSQL, upsertAppearanceSQL, upsertPersonSQL, upsertVoiceActorSQL, upsertCreditSQL)
	if err != nil {
		return err
	}
	defer st.close()

	updated := i.Now().UnixMilli()
	for _, e := range edges {
		c := e.Node
		if _, err := st[upsertCharacterSQL].ExecContext(ctx,
			c.ID,
			nullString(c.Name.Full),
			nullString(c.Name.Native),
			nullString(c.Image.Large),
			nullString(c.SiteURL),
			updated,
		); err != nil {
			return fmt.Errorf("exec upsert character %d: %w", c.ID, err)
		}

		role := e.Role
		if role == "" {
			role = "Unknown"
		}
		if _, err := st[upsertAppearanceSQL].ExecContext(ctx, mediaID, c.ID, role); err != nil {
			return fmt.Errorf("exec upsert appearance %d/%d: %w", mediaID, c.ID, err)
		}

		label := c.Name.Full
		if label == "" {
			label = fmt.Sprint(c.ID)
		}
		for _, va := range e.VoiceActors {
			if err := execPerson(ctx, st[upsertPersonSQL], va, updated); err != nil {
				return err
			}
			if _, err := st[upsertVoiceActorSQL].ExecContext(ctx, mediaID, c.ID, va.ID); err != nil {
				return fmt.Errorf("exec upsert voice actor %d/%d/%d: %w", mediaID, c.ID, va.ID, err)
			}
			if _, err := st[upsertCreditSQL].ExecContext(ctx,
				mediaID, va.ID, fmt.Sprintf("Voice Actor (%s)", label), 1, 0, 1.0,
			); err != nil {
				return fmt.Errorf("exec upsert voice credit %d/%d: %w", mediaID, va.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

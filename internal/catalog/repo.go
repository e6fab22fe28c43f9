package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"animeatlas/pkg/models"
)

// Repo is the read side of the entity tables. It never writes.
type Repo struct {
	DB *sql.DB
}

type ListQuery struct {
	Q      string // keyword search across titles
	Type   string // ANIME or MANGA
	Limit  int
	Offset int
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

const mediaColumns = `id, type, format, season_year, popularity, average_score,
	title_romaji, title_english, title_native, cover_large, cover_color,
	genres_json, tags_json, studios_json, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (*models.Media, error) {
	var (
		m                   models.Media
		mediaType, format   sql.NullString
		year, pop, score    sql.NullInt64
		romaji, en, native  sql.NullString
		cover, color        sql.NullString
		genres, tags, studs string
		updated             int64
	)
	if err := s.Scan(
		&m.ID, &mediaType, &format, &year, &pop, &score,
		&romaji, &en, &native, &cover, &color,
		&genres, &tags, &studs, &updated,
	); err != nil {
		return nil, err
	}

	m.Type = mediaType.String
	m.Format = format.String
	m.SeasonYear = int(year.Int64)
	m.Popularity = int(pop.Int64)
	m.AverageScore = int(score.Int64)
	m.TitleRomaji = romaji.String
	m.TitleEnglish = en.String
	m.TitleNative = native.String
	m.CoverLarge = cover.String
	m.CoverColor = color.String
	m.UpdatedAt = time.UnixMilli(updated)

	// a malformed JSON column degrades to an empty list
	if err := json.Unmarshal([]byte(genres), &m.Genres); err != nil || m.Genres == nil {
		m.Genres = []string{}
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil || m.Tags == nil {
		m.Tags = []models.Tag{}
	}
	if err := json.Unmarshal([]byte(studs), &m.Studios); err != nil || m.Studios == nil {
		m.Studios = []models.Studio{}
	}
	return &m, nil
}

func scanPerson(s scanner) (*models.Person, error) {
	var (
		p                       models.Person
		full, native, lang, img sql.NullString
		site                    sql.NullString
		updated                 int64
	)
	if err := s.Scan(&p.ID, &full, &native, &lang, &img, &site, &updated); err != nil {
		return nil, err
	}
	p.NameFull = full.String
	p.NameNative = native.String
	p.Language = lang.String
	p.ImageLarge = img.String
	p.SiteURL = site.String
	p.UpdatedAt = time.UnixMilli(updated)
	return &p, nil
}

// AllMedia returns every media row ordered by id.
func (r *Repo) AllMedia(ctx context.Context) ([]models.Media, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+mediaColumns+` FROM media ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all media query: %w", err)
	}
	defer rows.Close()

	var out []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("all media scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

const personColumns = `id, name_full, name_native, language, image_large, site_url, updated_at`

// AllPeople returns every person row ordered by id.
func (r *Repo) AllPeople(ctx context.Context) ([]models.Person, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+personColumns+` FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("all people query: %w", err)
	}
	defer rows.Close()

	var out []models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("all people scan: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) queryCredits(ctx context.Context, where string, args ...any) ([]models.Credit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT media_id, person_id, role, is_voice_actor, is_localization, weight
		FROM credits `+where+`
		ORDER BY media_id, person_id, role
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("credits query: %w", err)
	}
	defer rows.Close()

	var out []models.Credit
	for rows.Next() {
		var (
			c       models.Credit
			va, loc int
		)
		if err := rows.Scan(&c.MediaID, &c.PersonID, &c.Role, &va, &loc, &c.Weight); err != nil {
			return nil, fmt.Errorf("credits scan: %w", err)
		}
		c.IsVoiceActor = va != 0
		c.IsLocalization = loc != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) AllCredits(ctx context.Context) ([]models.Credit, error) {
	return r.queryCredits(ctx, "")
}

func (r *Repo) CreditsForMedia(ctx context.Context, mediaID int) ([]models.Credit, error) {
	return r.queryCredits(ctx, "WHERE media_id = ?", mediaID)
}

func (r *Repo) CreditsForPerson(ctx context.Context, personID int) ([]models.Credit, error) {
	return r.queryCredits(ctx, "WHERE person_id = ?", personID)
}

// AllRelations returns every stored relation ordered by (media, related).
func (r *Repo) AllRelations(ctx context.Context) ([]models.MediaRelation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT media_id, related_media_id, relation_type
		FROM media_relations
		ORDER BY media_id, related_media_id
	`)
	if err != nil {
		return nil, fmt.Errorf("relations query: %w", err)
	}
	defer rows.Close()

	var out []models.MediaRelation
	for rows.Next() {
		var rel models.MediaRelation
		if err := rows.Scan(&rel.MediaID, &rel.RelatedMediaID, &rel.RelationType); err != nil {
			return nil, fmt.Errorf("relations scan: %w", err)
		}
		out = append(out, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) GetMedia(ctx context.Context, id int) (*models.Media, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	m, err := scanMedia(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan media %d: %w", id, err)
	}
	return m, nil
}

func (r *Repo) GetPerson(ctx context.Context, id int) (*models.Person, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan person %d: %w", id, err)
	}
	return p, nil
}

func (r *Repo) CountMedia(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM media`)
}

func (r *Repo) CountPeople(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM people`)
}

func (r *Repo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return n, nil
}

func (r *Repo) Count(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	return r.count(ctx, sqlStr, args...)
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Media, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Media, 0, clampLimit(q.Limit))
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

// buildListSQL builds either COUNT(*) or the paged SELECT, most popular
// first.
func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT ` + mediaColumns + ` FROM media`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM media`
	}

	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Q); kw != "" {
		where = append(where, "(LOWER(title_romaji) LIKE ? OR LOWER(title_english) LIKE ? OR title_native LIKE ?)")
		like := "%" + strings.ToLower(kw) + "%"
		args = append(args, like, like, "%"+kw+"%")
	}
	if t := strings.TrimSpace(q.Type); t != "" {
		where = append(where, "type = ?")
		args = append(args, strings.ToUpper(t))
	}

	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY COALESCE(popularity, 0) DESC, id ASC LIMIT ? OFFSET ?"
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, clampLimit(q.Limit), offset)
	}
	return sqlStr, args
}

// CharactersForMedia returns the cast of one media entry ordered by
// character id, each with its voice actor ids.
func (r *Repo) CharactersForMedia(ctx context.Context, mediaID int) ([]models.CharacterAppearance, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT a.character_id, a.role, c.name_full, c.name_native, c.image_large, c.site_url, c.updated_at
		FROM character_appearances a
		JOIN characters c ON c.id = a.character_id
		WHERE a.media_id = ?
		ORDER BY a.character_id
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("characters query: %w", err)
	}
	defer rows.Close()

	out := []models.CharacterAppearance{}
	index := map[int]int{}
	for rows.Next() {
		var (
			ch                models.Character
			role              string
			full, native, img sql.NullString
			site              sql.NullString
			updated           int64
		)
		if err := rows.Scan(&ch.ID, &role, &full, &native, &img, &site, &updated); err != nil {
			return nil, fmt.Errorf("characters scan: %w", err)
		}
		ch.NameFull = full.String
		ch.NameNative = native.String
		ch.ImageLarge = img.String
		ch.SiteURL = site.String
		ch.UpdatedAt = time.UnixMilli(updated)

		index[ch.ID] = len(out)
		out = append(out, models.CharacterAppearance{
			MediaID:       mediaID,
			CharacterID:   ch.ID,
			Role:          role,
			Character:     &ch,
			VoiceActorIDs: []int{},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	vas, err := r.DB.QueryContext(ctx, `
		SELECT character_id, va_person_id
		FROM character_voice_actors
		WHERE media_id = ?
		ORDER BY character_id, va_person_id
	`, mediaID)
	if err != nil {
		return nil, fmt.Errorf("voice actors query: %w", err)
	}
	defer vas.Close()

	for vas.Next() {
		var charID, personID int
		if err := vas.Scan(&charID, &personID); err != nil {
			return nil, fmt.Errorf("voice actors scan: %w", err)
		}
		if i, ok := index[charID]; ok {
			out[i].VoiceActorIDs = append(out[i].VoiceActorIDs, personID)
		}
	}
	if err := vas.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

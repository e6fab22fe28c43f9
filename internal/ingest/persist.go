package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"animeatlas/internal/anilist"
)

// Every upsert below replaces all non-key columns on conflict: the last
// write wins and no field-level merge happens.

const upsertMediaSQL = `
	INSERT INTO media (id, type, format, season_year, popularity, average_score,
	                   title_romaji, title_english, title_native, cover_large, cover_color,
	                   genres_json, tags_json, studios_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  type = excluded.type,
	  format = excluded.format,
	  season_year = excluded.season_year,
	  popularity = excluded.popularity,
	  average_score = excluded.average_score,
	  title_romaji = excluded.title_romaji,
	  title_english = excluded.title_english,
	  title_native = excluded.title_native,
	  cover_large = excluded.cover_large,
	  cover_color = excluded.cover_color,
	  genres_json = excluded.genres_json,
	  tags_json = excluded.tags_json,
	  studios_json = excluded.studios_json,
	  updated_at = excluded.updated_at
`

const upsertRelationSQL = `
	INSERT INTO media_relations (media_id, related_media_id, relation_type)
	VALUES (?, ?, ?)
	ON CONFLICT(media_id, related_media_id) DO UPDATE SET
	  relation_type = excluded.relation_type
`

const upsertPersonSQL = `
	INSERT INTO people (id, name_full, name_native, language, image_large, site_url, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  name_full = excluded.name_full,
	  name_native = excluded.name_native,
	  language = excluded.language,
	  image_large = excluded.image_large,
	  site_url = excluded.site_url,
	  updated_at = excluded.updated_at
`

const upsertCharacterSQL = `
	INSERT INTO characters (id, name_full, name_native, image_large, site_url, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	  name_full = excluded.name_full,
	  name_native = excluded.name_native,
	  image_large = excluded.image_large,
	  site_url = excluded.site_url,
	  updated_at = excluded.updated_at
`

const upsertCreditSQL = `
	INSERT INTO credits (media_id, person_id, role, is_voice_actor, is_localization, weight)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(media_id, person_id, role) DO UPDATE SET
	  is_voice_actor = excluded.is_voice_actor,
	  is_localization = excluded.is_localization,
	  weight = excluded.weight
`

const upsertAppearanceSQL = `
	INSERT INTO character_appearances (media_id, character_id, role)
	VALUES (?, ?, ?)
	ON CONFLICT(media_id, character_id) DO UPDATE SET
	  role = excluded.role
`

const upsertVoiceActorSQL = `
	INSERT OR IGNORE INTO character_voice_actors (media_id, character_id, va_person_id)
	VALUES (?, ?, ?)
`

// stmts prepares a fixed set of statements inside one transaction.
type stmts map[string]*sql.Stmt

func prepare(ctx context.Context, tx *sql.Tx, queries ...string) (stmts, error) {
	out := make(stmts, len(queries))
	for _, q := range queries {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			out.close()
			return nil, fmt.Errorf("prepare stmt: %w", err)
		}
		out[q] = stmt
	}
	return out, nil
}

func (s stmts) close() {
	for _, stmt := range s {
		_ = stmt.Close()
	}
}

func execPerson(ctx context.Context, stmt *sql.Stmt, p anilist.PersonNode, updated int64) error {
	if _, err := stmt.ExecContext(ctx,
		p.ID,
		nullString(p.Name.Full),
		nullString(p.Name.Native),
		nullString(p.LanguageV2),
		nullString(p.Image.Large),
		nullString(p.SiteURL),
		updated,
	); err != nil {
		return fmt.Errorf("exec upsert person %d: %w", p.ID, err)
	}
	return nil
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

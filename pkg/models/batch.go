package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BatchType names the kind of ingestion work a batch covers.
type BatchType string

const (
	BatchAnimeList       BatchType = "ANIME_LIST"
	BatchMangaList       BatchType = "MANGA_LIST"
	BatchMediaStaff      BatchType = "MEDIA_STAFF"
	BatchMediaCharacters BatchType = "MEDIA_CHARACTERS"
)

// Priority orders batch types for selection. List batches discover new
// work, so they drain before the staff/character batches they generate.
func (t BatchType) Priority() int {
	switch t {
	case BatchAnimeList:
		return 1
	case BatchMangaList:
		return 2
	case BatchMediaStaff:
		return 3
	case BatchMediaCharacters:
		return 4
	default:
		return 9
	}
}

type BatchStatus string

const (
	StatusPending BatchStatus = "PENDING"
	StatusRunning BatchStatus = "RUNNING"
	StatusDone    BatchStatus = "DONE"
	StatusFailed  BatchStatus = "FAILED"
)

// Batch is one unit of ingestion work, unique per (Type, ScopeKey).
type Batch struct {
	ID        int64       `json:"batch_id"`
	Type      BatchType   `json:"batch_type"`
	ScopeKey  string      `json:"scope_key"`
	Status    BatchStatus `json:"status"`
	Attempts  int         `json:"attempts"`
	LastError string      `json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Lease is a time-bounded exclusive ownership token.
type Lease struct {
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Media types as the remote API spells them.
const (
	MediaTypeAnime = "ANIME"
	MediaTypeManga = "MANGA"
)

// ListScopeKey builds the scope key for a list page, e.g. "ANIME:page:3".
func ListScopeKey(mediaType string, page int) string {
	return fmt.Sprintf("%s:page:%d", mediaType, page)
}

// MediaScopeKey builds the scope key for a per-media batch, e.g. "MEDIA_STAFF:21".
func MediaScopeKey(t BatchType, mediaID int) string {
	return fmt.Sprintf("%s:%d", t, mediaID)
}

// ParseListScopeKey returns the media type and page number of a list scope key.
func ParseListScopeKey(key string) (string, int, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[1] != "page" {
		return "", 0, fmt.Errorf("malformed list scope key %q", key)
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil || page <= 0 {
		return "", 0, fmt.Errorf("malformed page in scope key %q", key)
	}
	return parts[0], page, nil
}

// ParseMediaScopeKey returns the media id of a per-media scope key.
func ParseMediaScopeKey(key string) (int, error) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return 0, fmt.Errorf("malformed media scope key %q", key)
	}
	id, err := strconv.Atoi(key[i+1:])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed media id in scope key %q", key)
	}
	return id, nil
}

package models

import "time"

// Media is the stored form of an anime or manga entry. Genres, tags and
// studios are kept as JSON text columns and decoded on read.
type Media struct {
	ID           int       `json:"id"`
	Type         string    `json:"type"`
	Format       string    `json:"format,omitempty"`
	SeasonYear   int       `json:"season_year,omitempty"`
	Popularity   int       `json:"popularity,omitempty"`
	AverageScore int       `json:"average_score,omitempty"`
	TitleRomaji  string    `json:"title_romaji,omitempty"`
	TitleEnglish string    `json:"title_english,omitempty"`
	TitleNative  string    `json:"title_native,omitempty"`
	CoverLarge   string    `json:"cover_large,omitempty"`
	CoverColor   string    `json:"cover_color,omitempty"`
	Genres       []string  `json:"genres"`
	Tags         []Tag     `json:"tags"`
	Studios      []Studio  `json:"studios"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Label returns the display title: english, then romaji.
func (m Media) Label() string {
	if m.TitleEnglish != "" {
		return m.TitleEnglish
	}
	return m.TitleRomaji
}

type Tag struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Rank     *int   `json:"rank,omitempty"`
	IsAdult  bool   `json:"isAdult"`
}

type Studio struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	IsAnimationStudio bool   `json:"isAnimationStudio"`
}

// MediaRelation is a directed edge between two media entries.
type MediaRelation struct {
	MediaID        int    `json:"media_id"`
	RelatedMediaID int    `json:"related_media_id"`
	RelationType   string `json:"relation_type"`
}

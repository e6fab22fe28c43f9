package models

import "time"

type Person struct {
	ID         int       `json:"id"`
	NameFull   string    `json:"name_full,omitempty"`
	NameNative string    `json:"name_native,omitempty"`
	Language   string    `json:"language,omitempty"`
	ImageLarge string    `json:"image_large,omitempty"`
	SiteURL    string    `json:"site_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Character struct {
	ID         int       `json:"id"`
	NameFull   string    `json:"name_full,omitempty"`
	NameNative string    `json:"name_native,omitempty"`
	ImageLarge string    `json:"image_large,omitempty"`
	SiteURL    string    `json:"site_url,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Credit links a person to a media entry under one role.
// At most one row exists per (MediaID, PersonID, Role).
type Credit struct {
	MediaID        int     `json:"media_id"`
	PersonID       int     `json:"person_id"`
	Role           string  `json:"role"`
	IsVoiceActor   bool    `json:"is_voice_actor"`
	IsLocalization bool    `json:"is_localization"`
	Weight         float64 `json:"weight"`
}

// CharacterAppearance is a character's role in one media entry, with the
// voice actors credited for it there.
type CharacterAppearance struct {
	MediaID       int        `json:"media_id"`
	CharacterID   int        `json:"character_id"`
	Role          string     `json:"role"`
	Character     *Character `json:"character,omitempty"`
	VoiceActorIDs []int      `json:"va_person_ids"`
}

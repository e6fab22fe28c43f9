package anilist

import "animeatlas/pkg/models"

// PageInfo is returned with every paginated listing.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	HasNextPage bool `json:"hasNextPage"`
	LastPage    int  `json:"lastPage"`
	Total       int  `json:"total"`
	PerPage     int  `json:"perPage"`
}

type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type Name struct {
	Full   string `json:"full"`
	Native string `json:"native"`
}

type Image struct {
	Large string `json:"large"`
	Color string `json:"color"`
}

type MediaNode struct {
	ID           int          `json:"id"`
	Type         string       `json:"type"`
	Format       string       `json:"format"`
	SeasonYear   int          `json:"seasonYear"`
	Popularity   int          `json:"popularity"`
	AverageScore int          `json:"averageScore"`
	Title        Title        `json:"title"`
	CoverImage   Image        `json:"coverImage"`
	Genres       []string     `json:"genres"`
	Tags         []models.Tag `json:"tags"`
	Studios      struct {
		Nodes []models.Studio `json:"nodes"`
	} `json:"studios"`
	Relations struct {
		Edges []struct {
			RelationType string `json:"relationType"`
		} `json:"edges"`
		Nodes []struct {
			ID int `json:"id"`
		} `json:"nodes"`
	} `json:"relations"`
}

// PersonNode is a staff member or voice actor.
type PersonNode struct {
	ID         int    `json:"id"`
	Name       Name   `json:"name"`
	LanguageV2 string `json:"languageV2"`
	Image      Image  `json:"image"`
	SiteURL    string `json:"siteUrl"`
}

type CharacterNode struct {
	ID      int    `json:"id"`
	Name    Name   `json:"name"`
	Image   Image  `json:"image"`
	SiteURL string `json:"siteUrl"`
}

type StaffEdge struct {
	Role string     `json:"role"`
	Node PersonNode `json:"node"`
}

type CharacterEdge struct {
	Role        string        `json:"role"`
	Node        CharacterNode `json:"node"`
	VoiceActors []PersonNode  `json:"voiceActors"`
}

type mediaListData struct {
	Page struct {
		PageInfo PageInfo    `json:"pageInfo"`
		Media    []MediaNode `json:"media"`
	} `json:"Page"`
}

type mediaStaffData struct {
	Media *struct {
		Staff struct {
			PageInfo PageInfo    `json:"pageInfo"`
			Edges    []StaffEdge `json:"edges"`
		} `json:"staff"`
	} `json:"Media"`
}

type mediaCharactersData struct {
	Media *struct {
		Characters struct {
			PageInfo PageInfo        `json:"pageInfo"`
			Edges    []CharacterEdge `json:"edges"`
		} `json:"characters"`
	} `json:"Media"`
}

package artifacts

import (
	"bytes"
	"encoding/json"
	"strings"

	"animeatlas/pkg/models"
)

// OrderedIndex maps a label to ids and keeps labels in first-seen order,
// which is also the order they are written in.
type OrderedIndex struct {
	Keys []string
	IDs  map[string][]int
}

func NewOrderedIndex() *OrderedIndex {
	return &OrderedIndex{IDs: map[string][]int{}}
}

func (x *OrderedIndex) Add(key string, id int) {
	if _, ok := x.IDs[key]; !ok {
		x.Keys = append(x.Keys, key)
	}
	x.IDs[key] = append(x.IDs[key], id)
}

// AddUnique is Add that skips an id already listed under key.
func (x *OrderedIndex) AddUnique(key string, id int) {
	for _, have := range x.IDs[key] {
		if have == id {
			return
		}
	}
	x.Add(key, id)
}

func (x *OrderedIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range x.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		ids, err := json.Marshal(x.IDs[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(ids)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func SearchEntries(media []models.Media, people []models.Person) models.SearchDocument {
	entries := make([]models.SearchEntry, 0, len(media)+len(people))
	for _, m := range media {
		e := models.SearchEntry{
			ID:          m.ID,
			Kind:        "media",
			LabelEN:     m.Label(),
			LabelNative: m.TitleNative,
			Tags:        m.Genres,
		}
		if m.SeasonYear != 0 {
			year := m.SeasonYear
			e.Year = &year
		}
		entries = append(entries, e)
	}
	for _, p := range people {
		entries = append(entries, models.SearchEntry{
			ID:          p.ID,
			Kind:        "person",
			LabelEN:     p.NameFull,
			LabelNative: p.NameNative,
		})
	}
	return models.SearchDocument{Entries: entries}
}

// TagToMedia indexes media ids by genre.
func TagToMedia(media []models.Media) *OrderedIndex {
	idx := NewOrderedIndex()
	for _, m := range media {
		for _, g := range m.Genres {
			idx.Add(g, m.ID)
		}
	}
	return idx
}

// RoleKey is the role text before its first comma, or "Unknown".
func RoleKey(role string) string {
	key, _, _ := strings.Cut(role, ",")
	key = strings.TrimSpace(key)
	if key == "" {
		return "Unknown"
	}
	return key
}

func RoleToPeople(credits []models.Credit) *OrderedIndex {
	idx := NewOrderedIndex()
	for _, c := range credits {
		idx.AddUnique(RoleKey(c.Role), c.PersonID)
	}
	return idx
}

// Clusters summarizes the first n tag buckets by the mean position of
// their member media.
func Clusters(tags *OrderedIndex, mediaCoords map[int]Coord, n int) []models.Cluster {
	out := make([]models.Cluster, 0, min(max(n, 0), len(tags.Keys)))
	for _, label := range tags.Keys {
		if len(out) >= n {
			break
		}
		ids := tags.IDs[label]
		var sx, sy float64
		placed := 0
		for _, id := range ids {
			if c, ok := mediaCoords[id]; ok {
				sx += c.X
				sy += c.Y
				placed++
			}
		}
		placed = max(placed, 1)
		out = append(out, models.Cluster{
			Label:     label,
			CentroidX: sx / float64(placed),
			CentroidY: sy / float64(placed),
			Size:      len(ids),
		})
	}
	return out
}

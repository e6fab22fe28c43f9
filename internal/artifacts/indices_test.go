package artifacts

import (
	"encoding/json"
	"testing"

	"animeatlas/pkg/models"
)

func TestChunkRowsPagesAndLookup(t *testing.T) {
	rows := make([]models.Media, 1200)
	for i := range rows {
		rows[i] = models.Media{ID: 1000 + i}
	}

	chunks, lookup := ChunkRows("media", rows, 500, func(m models.Media) int { return m.ID })
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	sizes := []int{500, 500, 200}
	for i, c := range chunks {
		if got := len(c.Rows.([]models.Media)); got != sizes[i] {
			t.Fatalf("chunk %d has %d rows, want %d", i, got, sizes[i])
		}
	}
	if chunks[2].File != "media_00002.json" {
		t.Fatalf("last chunk file = %s", chunks[2].File)
	}

	cases := map[string]string{
		"1000": "media_00000.json",
		"1499": "media_00000.json",
		"1500": "media_00001.json",
		"2199": "media_00002.json",
	}
	for id, want := range cases {
		if lookup[id] != want {
			t.Fatalf("lookup[%s] = %s, want %s", id, lookup[id], want)
		}
	}
	if len(lookup) != 1200 {
		t.Fatalf("lookup size = %d", len(lookup))
	}
}

func TestRoleKey(t *testing.T) {
	cases := map[string]string{
		"Director":                     "Director",
		"Key Animation (eps 1, 3), OP": "Key Animation (eps 1",
		"  Music , Theme Song":         "Music",
		"":                             "Unknown",
		", Assistant":                  "Unknown",
	}
	for in, want := range cases {
		if got := RoleKey(in); got != want {
			t.Errorf("RoleKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOrderedIndexKeepsInsertionOrder(t *testing.T) {
	media := []models.Media{
		{ID: 1, Genres: []string{"Sports", "Action"}},
		{ID: 2, Genres: []string{"Action"}},
		{ID: 3, Genres: []string{"Comedy"}},
	}
	b, err := json.Marshal(TagToMedia(media))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"Sports":[1],"Action":[1,2],"Comedy":[3]}` {
		t.Fatalf("got %s", b)
	}
}

func TestRoleToPeopleDedupes(t *testing.T) {
	idx := RoleToPeople([]models.Credit{
		{MediaID: 1, PersonID: 7, Role: "Director"},
		{MediaID: 2, PersonID: 7, Role: "Director, Storyboard"},
		{MediaID: 2, PersonID: 8, Role: ""},
	})
	if got := idx.IDs["Director"]; len(got) != 1 || got[0] != 7 {
		t.Fatalf("Director = %v", got)
	}
	if got := idx.IDs["Unknown"]; len(got) != 1 || got[0] != 8 {
		t.Fatalf("Unknown = %v", got)
	}
}

func TestClustersCentroid(t *testing.T) {
	tags := NewOrderedIndex()
	tags.Add("Action", 1)
	tags.Add("Action", 2)
	tags.Add("Drama", 2)
	tags.Add("Horror", 3)
	coords := map[int]Coord{1: {X: 1, Y: 0}, 2: {X: 0, Y: 1}, 3: {X: -1, Y: -1}}

	got := Clusters(tags, coords, 2)
	if len(got) != 2 {
		t.Fatalf("clusters = %+v", got)
	}
	want := models.Cluster{Label: "Action", CentroidX: 0.5, CentroidY: 0.5, Size: 2}
	if got[0] != want {
		t.Fatalf("cluster 0 = %+v, want %+v", got[0], want)
	}
	if got[1].Label != "Drama" {
		t.Fatalf("cluster 1 = %+v", got[1])
	}
}

func TestClustersNonPositiveCount(t *testing.T) {
	tags := NewOrderedIndex()
	tags.Add("Action", 1)
	for _, n := range []int{0, -1} {
		if got := Clusters(tags, map[int]Coord{1: {}}, n); len(got) != 0 {
			t.Fatalf("n=%d clusters = %+v", n, got)
		}
	}
}

func TestSearchEntries(t *testing.T) {
	doc := SearchEntries(
		[]models.Media{{ID: 1, TitleRomaji: "Mushishi", SeasonYear: 2005, Genres: []string{"Mystery"}}, {ID: 2, TitleRomaji: "Untitled"}},
		[]models.Person{{ID: 9, NameFull: "Hiroshi Nagahama"}},
	)
	if len(doc.Entries) != 3 {
		t.Fatalf("entries = %+v", doc.Entries)
	}
	if e := doc.Entries[0]; e.Kind != "media" || e.LabelEN != "Mushishi" || e.Year == nil || *e.Year != 2005 {
		t.Fatalf("media entry = %+v", e)
	}
	if doc.Entries[1].Year != nil {
		t.Fatal("year without a season should be omitted")
	}
	if e := doc.Entries[2]; e.Kind != "person" || e.LabelEN != "Hiroshi Nagahama" {
		t.Fatalf("person entry = %+v", e)
	}
}

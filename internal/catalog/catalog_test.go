package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"animeatlas/internal/queue"
	"animeatlas/pkg/database"
	"animeatlas/pkg/models"
)

func seedDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenMigrated(ctx, database.Config{Path: filepath.Join(t.TempDir(), "atlas.sqlite")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`INSERT INTO media (id, type, popularity, title_romaji, title_english, genres_json, tags_json, updated_at)
		 VALUES (1, 'ANIME', 500, 'Shingeki no Kyojin', 'Attack on Titan', '["Action"]', '[{"id":1,"name":"Military","rank":90,"isAdult":false}]', 0)`,
		`INSERT INTO media (id, type, popularity, title_romaji, genres_json, updated_at)
		 VALUES (2, 'MANGA', 900, 'Berserk', 'not json', 0)`,
		`INSERT INTO media (id, type, popularity, title_romaji, updated_at)
		 VALUES (3, 'ANIME', 100, 'Mushishi', 0)`,
		`INSERT INTO people (id, name_full, language, updated_at) VALUES (10, 'Tetsuro Araki', 'Japanese', 0)`,
		`INSERT INTO credits (media_id, person_id, role, is_voice_actor, is_localization, weight)
		 VALUES (1, 10, 'Director', 0, 0, 1.5)`,
		`INSERT INTO media_relations (media_id, related_media_id, relation_type) VALUES (1, 3, 'OTHER')`,
		`INSERT INTO characters (id, name_full, updated_at) VALUES (50, 'Eren Yeager', 0)`,
		`INSERT INTO character_appearances (media_id, character_id, role) VALUES (1, 50, 'MAIN')`,
		`INSERT INTO character_voice_actors (media_id, character_id, va_person_id) VALUES (1, 50, 10)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return db
}

func TestRepoReadsEntities(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(seedDB(t))

	media, err := r.AllMedia(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(media) != 3 || media[0].ID != 1 {
		t.Fatalf("media = %+v", media)
	}
	if media[0].Label() != "Attack on Titan" || len(media[0].Tags) != 1 || *media[0].Tags[0].Rank != 90 {
		t.Fatalf("media[0] = %+v", media[0])
	}
	if len(media[1].Genres) != 0 {
		t.Fatalf("malformed genres decoded as %v", media[1].Genres)
	}

	credits, err := r.AllCredits(ctx)
	if err != nil || len(credits) != 1 || credits[0].Weight != 1.5 || credits[0].IsLocalization {
		t.Fatalf("credits = %+v err=%v", credits, err)
	}
	rels, err := r.AllRelations(ctx)
	if err != nil || len(rels) != 1 || rels[0].RelatedMediaID != 3 {
		t.Fatalf("relations = %+v err=%v", rels, err)
	}

	missing, err := r.GetMedia(ctx, 99)
	if err != nil || missing != nil {
		t.Fatalf("missing media = %+v err=%v", missing, err)
	}
}

func TestRepoListFilters(t *testing.T) {
	ctx := context.Background()
	r := NewRepo(seedDB(t))

	items, err := r.List(ctx, ListQuery{Type: "anime"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ID != 1 || items[1].ID != 3 {
		t.Fatalf("anime list = %+v", items)
	}

	n, err := r.Count(ctx, ListQuery{Q: "titan"})
	if err != nil || n != 1 {
		t.Fatalf("count titan = %d err=%v", n, err)
	}

	items, err = r.List(ctx, ListQuery{Limit: 1, Offset: 1})
	if err != nil || len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("paged list = %+v err=%v", items, err)
	}
}

type fakeCounter struct{}

func (fakeCounter) Counts(context.Context) (queue.StatusCounts, error) {
	return queue.StatusCounts{
		models.BatchAnimeList: {models.StatusDone: 3},
	}, nil
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(NewRepo(seedDB(t)), fakeCounter{}).RegisterRoutes(router.Group("/api"))
	return router
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerMediaList(t *testing.T) {
	router := newRouter(t)
	w := get(t, router, "/api/media?type=MANGA")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	var body struct {
		Total int            `json:"total"`
		Items []models.Media `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || len(body.Items) != 1 || body.Items[0].ID != 2 {
		t.Fatalf("body = %+v", body)
	}
}

func TestHandlerMediaDetail(t *testing.T) {
	router := newRouter(t)

	w := get(t, router, "/api/media/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Media      models.Media                 `json:"media"`
		Credits    []models.Credit              `json:"credits"`
		Characters []models.CharacterAppearance `json:"characters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Media.ID != 1 || len(body.Credits) != 1 || body.Credits[0].PersonID != 10 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Characters) != 1 {
		t.Fatalf("characters = %+v", body.Characters)
	}
	if ch := body.Characters[0]; ch.Role != "MAIN" || ch.Character.NameFull != "Eren Yeager" || len(ch.VoiceActorIDs) != 1 || ch.VoiceActorIDs[0] != 10 {
		t.Fatalf("character = %+v", ch)
	}

	if w := get(t, router, "/api/media/404"); w.Code != http.StatusNotFound {
		t.Fatalf("missing media status = %d", w.Code)
	}
	if w := get(t, router, "/api/media/abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}
}

func TestHandlerPersonAndSummary(t *testing.T) {
	router := newRouter(t)

	w := get(t, router, "/api/people/10")
	if w.Code != http.StatusOK {
		t.Fatalf("person status = %d", w.Code)
	}
	var person struct {
		Person  models.Person   `json:"person"`
		Credits []models.Credit `json:"credits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &person); err != nil {
		t.Fatal(err)
	}
	if person.Person.NameFull != "Tetsuro Araki" || len(person.Credits) != 1 {
		t.Fatalf("person = %+v", person)
	}

	w = get(t, router, "/api/batches/summary")
	var counts map[string]map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &counts); err != nil {
		t.Fatal(err)
	}
	if counts["ANIME_LIST"]["DONE"] != 3 {
		t.Fatalf("counts = %v", counts)
	}
}

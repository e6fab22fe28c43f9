package artifacts

import (
	"context"
	"database/sql"
	"log"
	"time"

	"animeatlas/internal/catalog"
	"animeatlas/internal/queue"
	"animeatlas/pkg/models"
)

type Options struct {
	ProjectionThreshold int
	ChunkSize           int
	ClusterCount        int
}

func DefaultOptions() Options {
	return Options{ProjectionThreshold: 200, ChunkSize: 500, ClusterCount: 30}
}

// Result is every artifact document of one build, ready to be written.
type Result struct {
	Points       models.PointsDocument
	Relations    models.GraphDocument
	Costaff      models.GraphDocument
	Collab       models.GraphDocument
	Clusters     []models.Cluster
	Search       models.SearchDocument
	TagToMedia   *OrderedIndex
	RoleToPeople *OrderedIndex
	MediaChunks  []Chunk
	PeopleChunks []Chunk
	MediaLookup  map[string]string
	PeopleLookup map[string]string
	Manifest     models.Manifest
}

// Builder derives artifacts from the store. It only reads, takes no
// lease and keeps no state between builds.
type Builder struct {
	Catalog *catalog.Repo
	Batches *queue.Repo
	Options Options
	Now     func() time.Time
}

func NewBuilder(db *sql.DB, opts Options) *Builder {
	return &Builder{
		Catalog: catalog.NewRepo(db),
		Batches: queue.NewRepo(db),
		Options: opts,
		Now:     time.Now,
	}
}

func (b *Builder) Build(ctx context.Context) (*Result, error) {
	media, err := b.Catalog.AllMedia(ctx)
	if err != nil {
		return nil, err
	}
	people, err := b.Catalog.AllPeople(ctx)
	if err != nil {
		return nil, err
	}
	credits, err := b.Catalog.AllCredits(ctx)
	if err != nil {
		return nil, err
	}
	relations, err := b.Catalog.AllRelations(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("[artifacts] loaded media=%d people=%d credits=%d relations=%d",
		len(media), len(people), len(credits), len(relations))

	vocab := Vocabulary(media)
	mediaCoords := Project(Features(media, vocab), b.Options.ProjectionThreshold)
	coordByID := make(map[int]Coord, len(media))
	for i, m := range media {
		coordByID[m.ID] = mediaCoords[i]
	}
	peopleCoords := PlacePeople(people, credits, coordByID)

	points := make([]models.Point, 0, len(media)+len(people))
	for i, m := range media {
		points = append(points, models.Point{ID: m.ID, Kind: models.PointMedia, X: mediaCoords[i].X, Y: mediaCoords[i].Y})
	}
	for i, p := range people {
		points = append(points, models.Point{ID: p.ID, Kind: models.PointPerson, X: peopleCoords[i].X, Y: peopleCoords[i].Y})
	}

	tags := TagToMedia(media)
	res := &Result{
		Points:       models.PointsDocument{Version: models.ArtifactVersion, Points: points},
		Relations:    RelationGraph(relations),
		Costaff:      CostaffGraph(credits),
		Collab:       CollabGraph(credits),
		Clusters:     Clusters(tags, coordByID, b.Options.ClusterCount),
		Search:       SearchEntries(media, people),
		TagToMedia:   tags,
		RoleToPeople: RoleToPeople(credits),
	}
	res.MediaChunks, res.MediaLookup = ChunkRows("media", media, b.Options.ChunkSize, func(m models.Media) int { return m.ID })
	res.PeopleChunks, res.PeopleLookup = ChunkRows("people", people, b.Options.ChunkSize, func(p models.Person) int { return p.ID })

	res.Manifest, err = BuildManifest(ctx, b.Batches, len(media), len(people), b.Now())
	if err != nil {
		return nil, err
	}
	log.Printf("[artifacts] vocab=%d relations=%d costaff=%d collab=%d clusters=%d",
		len(vocab), len(res.Relations.Edges), len(res.Costaff.Edges), len(res.Collab.Edges), len(res.Clusters))
	return res, nil
}

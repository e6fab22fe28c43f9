package models

// Artifact documents consumed by the front end. Field names are part of
// the contract; the consumer has no schema negotiation.

const ArtifactVersion = 1

// Point kinds.
const (
	PointMedia  = 0
	PointPerson = 1
)

type Point struct {
	ID   int     `json:"id"`
	Kind int     `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type PointsDocument struct {
	Version int     `json:"version"`
	Points  []Point `json:"points"`
}

type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Weight float64 `json:"weight"`
}

type GraphDocument struct {
	Version int    `json:"version"`
	Edges   []Edge `json:"edges"`
}

type SearchEntry struct {
	ID          int      `json:"id"`
	Kind        string   `json:"kind"`
	LabelEN     string   `json:"label_en"`
	LabelNative string   `json:"label_native"`
	Year        *int     `json:"year,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type SearchDocument struct {
	Entries []SearchEntry `json:"entries"`
}

type Cluster struct {
	Label     string  `json:"label"`
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
	Size      int     `json:"size"`
}

type Manifest struct {
	TotalMedia             int    `json:"total_media_in_db"`
	TotalPeople            int    `json:"total_people_in_db"`
	CompletedBatches       int    `json:"completed_batches_count"`
	PendingBatches         int    `json:"pending_batches_count"`
	LastIngestRunTimestamp int64  `json:"last_ingest_run_timestamp"`
	HasStaffForAllMedia    bool   `json:"has_staff_for_all_media"`
	HasCharsForAllMedia    bool   `json:"has_characters_for_all_media"`
	ArtifactEncoding       string `json:"artifact_encoding"`
}

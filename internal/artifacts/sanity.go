package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrMissingArtifact   = errors.New("missing artifact")
	ErrMalformedArtifact = errors.New("malformed artifact")
)

var RequiredFiles = []string{
	"manifest.json",
	"points.json",
	"graph_media_relations.json",
	"graph_media_staff.json",
	"graph_people_collab.json",
	"clusters.json",
	"index/search.json",
	"index/tag_to_media.json",
	"index/role_to_people.json",
	"lookup/media_to_meta_chunk.json",
	"lookup/people_to_meta_chunk.json",
}

var graphFiles = []string{
	"graph_media_relations.json",
	"graph_media_staff.json",
	"graph_people_collab.json",
}

var manifestCounts = []string{
	"total_media_in_db",
	"total_people_in_db",
	"completed_batches_count",
	"pending_batches_count",
}

// Check verifies the artifact tree under dir: every required file is
// present, manifest counts are numbers, and points and graphs carry
// their arrays.
func Check(dir string) error {
	for _, rel := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
			return fmt.Errorf("%w %s", ErrMissingArtifact, rel)
		}
	}

	var manifest map[string]any
	if err := readJSON(dir, "manifest.json", &manifest); err != nil {
		return err
	}
	for _, key := range manifestCounts {
		if _, ok := manifest[key].(float64); !ok {
			return fmt.Errorf("%w: manifest.%s", ErrMalformedArtifact, key)
		}
	}

	var points map[string]json.RawMessage
	if err := readJSON(dir, "points.json", &points); err != nil {
		return err
	}
	if !isArray(points["points"]) {
		return fmt.Errorf("%w: points.json", ErrMalformedArtifact)
	}

	for _, rel := range graphFiles {
		var graph map[string]json.RawMessage
		if err := readJSON(dir, rel, &graph); err != nil {
			return err
		}
		if !isArray(graph["edges"]) {
			return fmt.Errorf("%w: %s", ErrMalformedArtifact, rel)
		}
	}
	return nil
}

func readJSON(dir, rel string, v any) error {
	b, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrMissingArtifact, rel, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedArtifact, rel, err)
	}
	return nil
}

func isArray(raw json.RawMessage) bool {
	var arr []json.RawMessage
	return len(raw) > 0 && raw[0] == '[' && json.Unmarshal(raw, &arr) == nil
}

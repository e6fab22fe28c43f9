package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

type artifactFile struct {
	rel    string
	value  any
	indent bool
}

func (r *Result) files() []artifactFile {
	files := []artifactFile{
		{rel: "manifest.json", value: r.Manifest, indent: true},
		{rel: "points.json", value: r.Points},
		{rel: "graph_media_relations.json", value: r.Relations},
		{rel: "graph_media_staff.json", value: r.Costaff},
		{rel: "graph_people_collab.json", value: r.Collab},
		{rel: "clusters.json", value: r.Clusters, indent: true},
		{rel: "index/search.json", value: r.Search},
		{rel: "index/tag_to_media.json", value: r.TagToMedia},
		{rel: "index/role_to_people.json", value: r.RoleToPeople},
		{rel: "lookup/media_to_meta_chunk.json", value: r.MediaLookup, indent: true},
		{rel: "lookup/people_to_meta_chunk.json", value: r.PeopleLookup, indent: true},
	}
	for _, c := range r.MediaChunks {
		files = append(files, artifactFile{rel: "meta/" + c.File, value: c.Rows})
	}
	for _, c := range r.PeopleChunks {
		files = append(files, artifactFile{rel: "meta/" + c.File, value: c.Rows})
	}
	return files
}

// Write replaces the artifact tree under dir. Stale meta pages from a
// previous build are removed first; every file lands via rename so a
// reader never sees a half-written document.
func Write(ctx context.Context, dir string, r *Result) error {
	if err := os.RemoveAll(filepath.Join(dir, "meta")); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}
	for _, sub := range []string{"meta", "index", "lookup"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", sub, err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, f := range r.files() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeJSON(filepath.Join(dir, f.rel), f.value, f.indent)
		})
	}
	return g.Wait()
}

func writeJSON(path string, v any, indent bool) error {
	var (
		b   []byte
		err error
	)
	if indent {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

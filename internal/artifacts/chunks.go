package artifacts

import (
	"fmt"
	"strconv"
)

// Chunk is one metadata page file under meta/.
type Chunk struct {
	File string
	Rows any
}

// ChunkRows splits rows, already in id order, into pages of size and
// maps every id to the page file that holds it.
func ChunkRows[T any](kind string, rows []T, size int, id func(T) int) ([]Chunk, map[string]string) {
	if size <= 0 {
		size = 500
	}
	chunks := make([]Chunk, 0, (len(rows)+size-1)/size)
	lookup := make(map[string]string, len(rows))
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		page := rows[start:end]
		file := fmt.Sprintf("%s_%05d.json", kind, start/size)
		chunks = append(chunks, Chunk{File: file, Rows: page})
		for _, row := range page {
			lookup[strconv.Itoa(id(row))] = file
		}
	}
	return chunks, lookup
}

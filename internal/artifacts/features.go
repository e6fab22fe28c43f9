package artifacts

import (
	"sort"

	"animeatlas/pkg/models"
)

const defaultTagRank = 50

// Vocabulary returns the sorted set of feature tokens across all media:
// "g:<genre>" for genres and "t:<tag>" for tags.
func Vocabulary(media []models.Media) []string {
	seen := map[string]struct{}{}
	for _, m := range media {
		for _, g := range m.Genres {
			seen["g:"+g] = struct{}{}
		}
		for _, t := range m.Tags {
			seen["t:"+t.Name] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	return vocab
}

// tagWeight is rank/100 floored at 0.2, with a missing rank read as 50.
func tagWeight(t models.Tag) float64 {
	rank := defaultTagRank
	if t.Rank != nil {
		rank = *t.Rank
	}
	return max(float64(rank)/100, 0.2)
}

// Features builds one row per media over vocab. Genres score 1.0 and
// tags score tagWeight; everything else is zero.
func Features(media []models.Media, vocab []string) [][]float64 {
	idx := make(map[string]int, len(vocab))
	for i, tok := range vocab {
		idx[tok] = i
	}

	rows := make([][]float64, len(media))
	for i, m := range media {
		row := make([]float64, len(vocab))
		for _, g := range m.Genres {
			if j, ok := idx["g:"+g]; ok {
				row[j] = 1
			}
		}
		for _, t := range m.Tags {
			if j, ok := idx["t:"+t.Name]; ok {
				row[j] = tagWeight(t)
			}
		}
		rows[i] = row
	}
	return rows
}

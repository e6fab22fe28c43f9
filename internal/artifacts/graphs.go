package artifacts

import (
	"sort"

	"animeatlas/pkg/models"
)

type pairKey struct{ a, b int }

// RelationGraph emits one directed weight-1 edge per stored relation.
func RelationGraph(rels []models.MediaRelation) models.GraphDocument {
	edges := make([]models.Edge, 0, len(rels))
	for _, r := range rels {
		edges = append(edges, models.Edge{Source: r.MediaID, Target: r.RelatedMediaID, Weight: 1})
	}
	return models.GraphDocument{Version: models.ArtifactVersion, Edges: edges}
}

// CollabGraph links two people once per shared media, adding the smaller
// of their two credit weights. Localization credits are ignored and each
// unordered pair yields a single edge with Source < Target.
func CollabGraph(credits []models.Credit) models.GraphDocument {
	byMedia := map[int][]models.Credit{}
	var order []int
	for _, c := range credits {
		if c.IsLocalization {
			continue
		}
		if _, ok := byMedia[c.MediaID]; !ok {
			order = append(order, c.MediaID)
		}
		byMedia[c.MediaID] = append(byMedia[c.MediaID], c)
	}

	sums := map[pairKey]float64{}
	for _, mediaID := range order {
		list := byMedia[mediaID]
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i].PersonID, list[j].PersonID
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				sums[pairKey{a, b}] += min(list[i].Weight, list[j].Weight)
			}
		}
	}
	return graphFrom(sums)
}

// CostaffGraph links two media once per shared person credit pair, with
// the same min-weight accumulation as CollabGraph. The smaller media id
// is always the Source.
func CostaffGraph(credits []models.Credit) models.GraphDocument {
	byPerson := map[int][]models.Credit{}
	var people []int
	for _, c := range credits {
		if c.IsLocalization {
			continue
		}
		if _, ok := byPerson[c.PersonID]; !ok {
			people = append(people, c.PersonID)
		}
		byPerson[c.PersonID] = append(byPerson[c.PersonID], c)
	}
	sort.Ints(people)

	sums := map[pairKey]float64{}
	for _, personID := range people {
		list := byPerson[personID]
		for _, a := range list {
			for _, b := range list {
				if a.MediaID >= b.MediaID {
					continue
				}
				sums[pairKey{a.MediaID, b.MediaID}] += min(a.Weight, b.Weight)
			}
		}
	}
	return graphFrom(sums)
}

func graphFrom(sums map[pairKey]float64) models.GraphDocument {
	edges := make([]models.Edge, 0, len(sums))
	for k, w := range sums {
		edges = append(edges, models.Edge{Source: k.a, Target: k.b, Weight: w})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return models.GraphDocument{Version: models.ArtifactVersion, Edges: edges}
}

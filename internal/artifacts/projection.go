package artifacts

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"animeatlas/pkg/models"
)

const goldenAngle = 2.399963229728653

// Coord is a 2D layout position.
type Coord struct{ X, Y float64 }

// SpiralAt places index i of n on a sunflower spiral inside the unit disc.
func SpiralAt(i, n int) Coord {
	r := math.Sqrt(float64(i+1)) / math.Sqrt(float64(n+1))
	a := float64(i) * goldenAngle
	return Coord{X: math.Cos(a) * r, Y: math.Sin(a) * r}
}

func Spiral(n int) []Coord {
	out := make([]Coord, n)
	for i := range out {
		out[i] = SpiralAt(i, n)
	}
	return out
}

// Project lays out one coordinate per feature row. Below threshold rows
// the spiral is used; otherwise the first two principal components,
// scaled so the farthest point sits on the unit circle. PCA falls back
// to the spiral when the features cannot separate the rows.
func Project(features [][]float64, threshold int) []Coord {
	n := len(features)
	if n < threshold || n < 2 || len(features[0]) < 2 {
		return Spiral(n)
	}
	coords, ok := pca2(features)
	if !ok {
		return Spiral(n)
	}
	return coords
}

func pca2(features [][]float64) ([]Coord, bool) {
	n, d := len(features), len(features[0])
	data := mat.NewDense(n, d, nil)
	for i, row := range features {
		data.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, false
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	if _, cols := vecs.Dims(); cols < 2 {
		return nil, false
	}
	basis := mat.DenseCopyOf(vecs.Slice(0, d, 0, 2))

	// eigenvector sign is arbitrary; pin it so reruns match
	for k := 0; k < 2; k++ {
		best := 0
		for i := 0; i < d; i++ {
			if math.Abs(basis.At(i, k)) > math.Abs(basis.At(best, k)) {
				best = i
			}
		}
		if basis.At(best, k) < 0 {
			for i := 0; i < d; i++ {
				basis.Set(i, k, -basis.At(i, k))
			}
		}
	}

	centered := mat.DenseCopyOf(data)
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, data)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var proj mat.Dense
	proj.Mul(centered, basis)

	maxR := 0.0
	for i := 0; i < n; i++ {
		maxR = max(maxR, math.Hypot(proj.At(i, 0), proj.At(i, 1)))
	}
	if maxR == 0 || math.IsNaN(maxR) {
		return nil, false
	}

	out := make([]Coord, n)
	for i := range out {
		out[i] = Coord{X: proj.At(i, 0) / maxR, Y: proj.At(i, 1) / maxR}
	}
	return out, true
}

// PlacePeople puts each person at the weight-averaged centroid of the
// media they hold non-localization credits on. People with no such
// credit get spiral slot i of len(people).
func PlacePeople(people []models.Person, credits []models.Credit, mediaCoords map[int]Coord) []Coord {
	type acc struct{ x, y, w float64 }
	sums := map[int]*acc{}
	for _, c := range credits {
		if c.IsLocalization {
			continue
		}
		at, ok := mediaCoords[c.MediaID]
		if !ok {
			continue
		}
		a := sums[c.PersonID]
		if a == nil {
			a = &acc{}
			sums[c.PersonID] = a
		}
		a.x += at.X * c.Weight
		a.y += at.Y * c.Weight
		a.w += c.Weight
	}

	out := make([]Coord, len(people))
	for i, p := range people {
		if a := sums[p.ID]; a != nil && a.w > 0 {
			out[i] = Coord{X: a.x / a.w, Y: a.y / a.w}
			continue
		}
		out[i] = SpiralAt(i, len(people))
	}
	return out
}

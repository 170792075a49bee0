package matcher

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
	"github.com/saturnino-fabrica-de-software/ponto/internal/gallery"
)

// DefaultThreshold is the usual accept distance for 128-d dlib descriptors.
const DefaultThreshold = 0.6

// Identity is the gallery entry accepted for a query descriptor.
type Identity struct {
	FaceID   int64
	Name     string
	PhotoRef string
	Distance float64
	Index    int
}

// Matcher performs exact nearest neighbor search over a gallery snapshot.
type Matcher struct {
	threshold float64
}

func New(threshold float64) *Matcher {
	if threshold < 0 || math.IsNaN(threshold) {
		threshold = 0
	}
	return &Matcher{threshold: threshold}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match returns the nearest entry when its distance is below the threshold.
// A query with the wrong dimension never matches.
func (m *Matcher) Match(d domain.Descriptor, g *gallery.Gallery) (Identity, bool) {
	id, ok, err := m.MatchChecked(d, g)
	if err != nil {
		return Identity{}, false
	}
	return id, ok
}

// MatchChecked is Match that reports a dimension mismatch instead of hiding it.
// Equal minimal distances resolve to the earliest entry in gallery order.
func (m *Matcher) MatchChecked(d domain.Descriptor, g *gallery.Gallery) (Identity, bool, error) {
	if g == nil || g.IsEmpty() {
		return Identity{}, false, nil
	}
	if err := d.CheckDim(g.Dim()); err != nil {
		return Identity{}, false, err
	}

	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < g.Len(); i++ {
		dist := floats.Distance(d, g.Entry(i).Descriptor, 2)
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}

	if best < 0 || !m.Accepts(bestDist) {
		return Identity{Distance: bestDist, Index: -1}, false, nil
	}

	e := g.Entry(best)
	return Identity{
		FaceID:   e.ID,
		Name:     e.Name,
		PhotoRef: e.PhotoRef,
		Distance: bestDist,
		Index:    best,
	}, true, nil
}

// Accepts is strict below the threshold; an exact descriptor always matches,
// including at threshold zero.
func (m *Matcher) Accepts(dist float64) bool {
	return dist < m.threshold || dist == 0
}

// Distance is the Euclidean distance between two descriptors of equal dimension.
func Distance(a, b domain.Descriptor) (float64, error) {
	if err := a.CheckDim(b.Dim()); err != nil {
		return 0, err
	}
	return floats.Distance(a, b, 2), nil
}

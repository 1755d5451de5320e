// Package topk selects the K base documents most similar to a query vector.
package topk

import (
	"math"

	"github.com/papercomputeco/docpredict/pkg/candidates"
	"github.com/papercomputeco/docpredict/pkg/model"
)

// Prediction is one scored candidate.
type Prediction struct {
	Index int
	Score float32
}

// Scorer ranks candidates for a fixed similarity. It holds no mutable state
// and is safe for concurrent use.
type Scorer struct {
	similarity model.Similarity
}

// NewScorer returns a Scorer for sim. An empty similarity means cosine.
func NewScorer(sim model.Similarity) *Scorer {
	if sim == "" {
		sim = model.SimilarityCosine
	}
	return &Scorer{similarity: sim}
}

// Similarity returns the similarity the scorer uses.
func (s *Scorer) Similarity() model.Similarity { return s.similarity }

// TopK scores query against every candidate in idx and returns the best
// min(k, idx.Len()) predictions ordered by score descending, then candidate
// index ascending. k <= 0 yields an empty, non-nil slice.
func (s *Scorer) TopK(query []float32, idx *candidates.Index, k int) []Prediction {
	n := idx.Len()
	if k > n {
		k = n
	}
	if k <= 0 {
		return []Prediction{}
	}

	var qnorm float32
	if s.similarity == model.SimilarityCosine {
		qnorm = norm(query)
	}

	q := newQueue(k)
	for i := 0; i < n; i++ {
		q.pushBounded(Prediction{Index: i, Score: s.score(query, qnorm, idx, i)}, k)
	}
	return q.drain()
}

// Score returns the similarity between query and candidate i.
func (s *Scorer) Score(query []float32, idx *candidates.Index, i int) float32 {
	var qnorm float32
	if s.similarity == model.SimilarityCosine {
		qnorm = norm(query)
	}
	return s.score(query, qnorm, idx, i)
}

func (s *Scorer) score(query []float32, qnorm float32, idx *candidates.Index, i int) float32 {
	d := Dot(query, idx.Vector(i))
	if s.similarity != model.SimilarityCosine {
		return d
	}

	cn := idx.Norm(i)
	if qnorm == 0 || cn == 0 {
		return 0
	}
	return d / (qnorm * cn)
}

// Dot returns the inner product of a and b, which must have equal length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

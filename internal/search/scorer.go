package search

import (
	"context"
	"sort"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

const cancelCheckEvery = 256

// Scored is a candidate with a single similarity in [0,1].
type Scored struct {
	Candidate Candidate
	Score     float64
}

// SimilarityScorer compares a query embedding against candidate embeddings.
type SimilarityScorer struct {
	metric    vector.Metric
	dimension int
}

func NewSimilarityScorer(metric vector.Metric, dimension int) *SimilarityScorer {
	if metric == "" {
		metric = vector.MetricCosine
	}
	return &SimilarityScorer{metric: metric, dimension: dimension}
}

func (s *SimilarityScorer) Metric() vector.Metric {
	return s.metric
}

// Score returns the candidates whose similarity is at least threshold,
// sorted descending (ties by ascending id) and truncated to matchCount.
// A matchCount <= 0 keeps every qualifying candidate. Candidates without an
// embedding are skipped.
func (s *SimilarityScorer) Score(ctx context.Context, query vector.Embedding, candidates []Candidate, matchCount int, threshold float64) ([]Scored, error) {
	if err := query.Validate(s.dimension); err != nil {
		return nil, err
	}
	out := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(c.Embedding) == 0 {
			continue
		}
		if len(c.Embedding) != len(query) {
			return nil, appErr.ErrDimensionMismatch
		}
		score, err := vector.Similarity(s.metric, query, c.Embedding)
		if err != nil {
			return nil, err
		}
		if score >= threshold {
			out = append(out, Scored{Candidate: c, Score: score})
		}
	}
	sortScored(out)
	if matchCount > 0 && len(out) > matchCount {
		out = out[:matchCount]
	}
	return out, nil
}

func sortScored(items []Scored) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return refLess(items[i].Candidate.Ref.ID, string(items[i].Candidate.Ref.Kind),
			items[j].Candidate.Ref.ID, string(items[j].Candidate.Ref.Kind))
	})
}

func refLess(idA, kindA, idB, kindB string) bool {
	if idA != idB {
		return idA < idB
	}
	return kindA < kindB
}

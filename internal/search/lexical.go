package search

import (
	"context"

	"github.com/MeganHarrison/alleato-core/internal/model"
)

// DefaultSaturation is the half-saturation constant k of the lexical
// normalisation curve r/(r+k). With postgres ts_rank_cd a single strong
// match scores around 0.1, which then normalises to 0.5.
const DefaultSaturation = 0.1

// RawRank is an un-normalised relevance statistic from the lexical index.
type RawRank struct {
	Ref  model.Ref
	Rank float64
}

// LexicalIndex ranks candidates against a text query. Candidates that do not
// match the query must be omitted rather than returned with rank zero.
type LexicalIndex interface {
	Rank(ctx context.Context, text string, candidates []Candidate) ([]RawRank, error)
}

// LexicalScorer maps raw ranks into [0,1] with the fixed saturation curve
// r/(r+k). The curve does not depend on the candidate set, so text scores
// stay comparable across queries.
type LexicalScorer struct {
	index      LexicalIndex
	saturation float64
}

func NewLexicalScorer(index LexicalIndex, saturation float64) *LexicalScorer {
	if saturation <= 0 {
		saturation = DefaultSaturation
	}
	return &LexicalScorer{index: index, saturation: saturation}
}

// Normalize applies the saturation curve. Non-positive ranks map to 0.
func (s *LexicalScorer) Normalize(rank float64) float64 {
	if rank <= 0 {
		return 0
	}
	return rank / (rank + s.saturation)
}

// Score ranks candidates and returns normalised text similarities sorted
// descending, ties by ascending id.
func (s *LexicalScorer) Score(ctx context.Context, text string, candidates []Candidate) ([]Scored, error) {
	if len(candidates) == 0 {
		return []Scored{}, nil
	}
	ranks, err := s.index.Rank(ctx, text, candidates)
	if err != nil {
		return nil, err
	}
	byRef := make(map[model.Ref]Candidate, len(candidates))
	for _, c := range candidates {
		byRef[c.Ref] = c
	}
	out := make([]Scored, 0, len(ranks))
	for _, r := range ranks {
		c, ok := byRef[r.Ref]
		if !ok || r.Rank <= 0 {
			continue
		}
		out = append(out, Scored{Candidate: c, Score: s.Normalize(r.Rank)})
	}
	sortScored(out)
	return out, nil
}

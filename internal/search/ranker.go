package search

import (
	"sort"

	"github.com/MeganHarrison/alleato-core/internal/model"
)

// DefaultFusionWeight splits trust evenly between vector and text scores.
const DefaultFusionWeight = 0.5

// Ranked is a fused result. Vector and Text are nil when the candidate was
// not produced by the corresponding scorer.
type Ranked struct {
	Ref        model.Ref
	DocumentID string
	Combined   float64
	Vector     *float64
	Text       *float64
}

// CombinedScore fuses the two similarities. A missing score is excluded
// from the formula: with only one present the result is that score.
func CombinedScore(vec, text *float64, weight float64) float64 {
	switch {
	case vec != nil && text != nil:
		return clampScore(weight*(*vec) + (1-weight)*(*text))
	case vec != nil:
		return clampScore(*vec)
	case text != nil:
		return clampScore(*text)
	default:
		return 0
	}
}

// Fuse merges the per-scorer lists into one entry per candidate reference.
// When a reference appears several times in the same list the best score of
// that list is used.
func Fuse(vectorScores, textScores []Scored, weight float64) []Ranked {
	type agg struct {
		documentID string
		vec        *float64
		text       *float64
	}
	merged := make(map[model.Ref]*agg, len(vectorScores)+len(textScores))
	order := make([]model.Ref, 0, len(vectorScores)+len(textScores))
	get := func(c Candidate) *agg {
		a, ok := merged[c.Ref]
		if !ok {
			a = &agg{documentID: c.DocumentID}
			merged[c.Ref] = a
			order = append(order, c.Ref)
		}
		return a
	}
	for _, s := range vectorScores {
		a := get(s.Candidate)
		if a.vec == nil || s.Score > *a.vec {
			v := s.Score
			a.vec = &v
		}
	}
	for _, s := range textScores {
		a := get(s.Candidate)
		if a.text == nil || s.Score > *a.text {
			v := s.Score
			a.text = &v
		}
	}
	out := make([]Ranked, 0, len(order))
	for _, ref := range order {
		a := merged[ref]
		out = append(out, Ranked{
			Ref:        ref,
			DocumentID: a.documentID,
			Combined:   CombinedScore(a.vec, a.text, weight),
			Vector:     a.vec,
			Text:       a.text,
		})
	}
	return out
}

// Rank deduplicates by reference keeping the highest combined score, drops
// entries below threshold, sorts by combined score descending with ties by
// ascending id, and only then truncates to matchCount.
func Rank(items []Ranked, threshold float64, matchCount int) []Ranked {
	best := make(map[model.Ref]int, len(items))
	out := make([]Ranked, 0, len(items))
	for _, item := range items {
		if item.Combined < threshold {
			continue
		}
		if idx, ok := best[item.Ref]; ok {
			if item.Combined > out[idx].Combined {
				out[idx] = item
			}
			continue
		}
		best[item.Ref] = len(out)
		out = append(out, item)
	}
	SortRanked(out)
	if matchCount > 0 && len(out) > matchCount {
		out = out[:matchCount]
	}
	return out
}

// SortRanked orders by combined score descending, then id ascending.
func SortRanked(items []Ranked) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Combined != items[j].Combined {
			return items[i].Combined > items[j].Combined
		}
		return refLess(items[i].Ref.ID, string(items[i].Ref.Kind), items[j].Ref.ID, string(items[j].Ref.Kind))
	})
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

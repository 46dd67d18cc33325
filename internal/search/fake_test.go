package search

import (
	"context"
	"strings"

	"github.com/MeganHarrison/alleato-core/internal/model"
)

type memSource struct {
	kind  model.SourceKind
	items []Candidate
	calls int
	last  CandidateQuery
}

func (m *memSource) Kind() model.SourceKind { return m.kind }

func (m *memSource) Candidates(ctx context.Context, q CandidateQuery) ([]Candidate, error) {
	m.calls++
	m.last = q
	out := make([]Candidate, 0, len(m.items))
	for _, c := range m.items {
		if !q.WithEmbeddings {
			c.Embedding = nil
		}
		out = append(out, c)
	}
	return out, nil
}

// memIndex ranks by the number of query terms contained in the text.
type memIndex struct {
	text map[model.Ref]string
}

func (m *memIndex) Rank(ctx context.Context, text string, candidates []Candidate) ([]RawRank, error) {
	terms := strings.Fields(strings.ToLower(text))
	var out []RawRank
	for _, c := range candidates {
		body := strings.ToLower(m.text[c.Ref])
		hits := 0
		for _, t := range terms {
			if strings.Contains(body, t) {
				hits++
			}
		}
		if hits > 0 {
			out = append(out, RawRank{Ref: c.Ref, Rank: float64(hits) / 10})
		}
	}
	return out, nil
}

func chunkRef(id string) model.Ref {
	return model.Ref{Kind: model.SourceChunk, ID: id}
}

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

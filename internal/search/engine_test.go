package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

func newTestEngine() (*Engine, *memSource) {
	src := &memSource{kind: model.SourceChunk, items: []Candidate{
		{Ref: chunkRef("c1"), DocumentID: "d1", ProjectID: int64Ptr(1), Embedding: vector.Embedding{1, 0, 0}},
		{Ref: chunkRef("c2"), DocumentID: "d1", ProjectID: int64Ptr(1), Embedding: vector.Embedding{0.8, 0.6, 0}},
		{Ref: chunkRef("c3"), DocumentID: "d2", ProjectIDs: []int64{2, 3}, Embedding: vector.Embedding{0, 1, 0}},
		{Ref: chunkRef("c4"), DocumentID: "d3", ProjectID: int64Ptr(4), Embedding: vector.Embedding{0.6, 0.8, 0}},
	}}
	idx := &memIndex{text: map[model.Ref]string{
		chunkRef("c1"): "sprinkler pressure table",
		chunkRef("c2"): "budget",
		chunkRef("c3"): "sprinkler",
		chunkRef("c4"): "submittal sprinkler pressure",
	}}
	return NewEngine(Options{Dimension: 3, MaxMatchCount: 100}, idx, src), src
}

func isSorted(t *testing.T, out []Ranked) {
	t.Helper()
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		require.True(t, prev.Combined > cur.Combined || (prev.Combined == cur.Combined && prev.Ref.ID < cur.Ref.ID))
	}
}

func TestEngineVectorQuery(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.Search(context.Background(), VectorQuery{
		Params:    Params{MatchCount: 10, MatchThreshold: 0.5},
		Embedding: vector.Embedding{1, 0, 0},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "c1", out[0].Ref.ID)
	isSorted(t, out)
	for _, r := range out {
		require.GreaterOrEqual(t, r.Combined, 0.5)
		require.Nil(t, r.Text)
		require.Equal(t, *r.Vector, r.Combined)
	}
}

func TestEngineHybridFusesAndDeduplicates(t *testing.T) {
	e, _ := newTestEngine()
	w := 0.5
	out, err := e.Search(context.Background(), HybridQuery{
		Params:       Params{MatchCount: 10},
		Embedding:    vector.Embedding{1, 0, 0},
		Text:         "sprinkler pressure",
		FusionWeight: &w,
	})
	require.NoError(t, err)
	isSorted(t, out)
	seen := map[string]int{}
	for _, r := range out {
		seen[r.Ref.ID]++
		require.Equal(t, CombinedScore(r.Vector, r.Text, w), r.Combined)
	}
	for id, n := range seen {
		require.Equal(t, 1, n, id)
	}
	require.Equal(t, "c1", out[0].Ref.ID)
}

func TestEngineHybridWeightBoundaries(t *testing.T) {
	e, _ := newTestEngine()
	one, zero := 1.0, 0.0
	req := HybridQuery{Params: Params{MatchCount: 10}, Embedding: vector.Embedding{1, 0, 0}, Text: "sprinkler"}

	req.FusionWeight = &one
	out, err := e.Search(context.Background(), req)
	require.NoError(t, err)
	for _, r := range out {
		if r.Vector != nil && r.Text != nil {
			require.Equal(t, *r.Vector, r.Combined)
		}
	}

	req.FusionWeight = &zero
	out, err = e.Search(context.Background(), req)
	require.NoError(t, err)
	for _, r := range out {
		if r.Vector != nil && r.Text != nil {
			require.Equal(t, *r.Text, r.Combined)
		}
	}
}

func TestEngineLexicalQueryAppliesProjectFilter(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.Search(context.Background(), LexicalQuery{
		Params: Params{MatchCount: 10, Filter: Filter{ProjectIDs: []int64{3}}},
		Text:   "sprinkler",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "c3", out[0].Ref.ID)
	require.Nil(t, out[0].Vector)
}

func TestEngineEmptyFilterSeesWholeCorpus(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.Search(context.Background(), VectorQuery{
		Params:    Params{MatchCount: 100},
		Embedding: vector.Embedding{1, 1, 1},
	})
	require.NoError(t, err)
	require.Len(t, out, 4)
}

func TestEngineHandsTextAndMetricToSources(t *testing.T) {
	src := &memSource{kind: model.SourceChunk}
	e := NewEngine(Options{Dimension: 3, Metric: vector.MetricL2, PoolLimit: 50}, &memIndex{}, src)
	_, err := e.Search(context.Background(), HybridQuery{
		Params:    Params{MatchCount: 5},
		Embedding: vector.Embedding{1, 0, 0},
		Text:      "riser",
	})
	require.NoError(t, err)
	require.Equal(t, "riser", src.last.Text)
	require.Equal(t, vector.MetricL2, src.last.Metric)
	require.Equal(t, 50, src.last.PoolLimit)
	require.True(t, src.last.WithEmbeddings)

	_, err = e.Search(context.Background(), LexicalQuery{Params: Params{MatchCount: 5}, Text: "riser"})
	require.NoError(t, err)
	require.Equal(t, "riser", src.last.Text)
	require.Empty(t, src.last.Embedding)
	require.False(t, src.last.WithEmbeddings)
}

func TestEngineExcludeResolvedKeepsUnresolvedChunks(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.Search(context.Background(), LexicalQuery{
		Params: Params{MatchCount: 10, Filter: Filter{ExcludeResolved: true}},
		Text:   "sprinkler",
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
}

func TestEngineRejectsInvalidInput(t *testing.T) {
	e, _ := newTestEngine()
	ctx := context.Background()
	emb := vector.Embedding{1, 0, 0}

	_, err := e.Search(ctx, VectorQuery{Params: Params{MatchCount: 0}, Embedding: emb})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = e.Search(ctx, VectorQuery{Params: Params{MatchCount: 1, MatchThreshold: 1.5}, Embedding: emb})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = e.Search(ctx, VectorQuery{Params: Params{MatchCount: 1}, Embedding: vector.Embedding{1, 0}})
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)

	_, err = e.Search(ctx, HybridQuery{Params: Params{MatchCount: 1}, Embedding: emb})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	bad := 2.0
	_, err = e.Search(ctx, HybridQuery{Params: Params{MatchCount: 1}, Embedding: emb, Text: "x", FusionWeight: &bad})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = e.Search(ctx, VectorQuery{Params: Params{MatchCount: 1, Sources: []model.SourceKind{model.SourceFMVector}}, Embedding: emb})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestEngineNoMatchesIsEmptyNotError(t *testing.T) {
	e, _ := newTestEngine()
	out, err := e.Search(context.Background(), LexicalQuery{Params: Params{MatchCount: 5}, Text: "nonexistent"})
	require.NoError(t, err)
	require.Empty(t, out)
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

type staticSource struct {
	kind  model.SourceKind
	items []search.Candidate
	block bool
}

func (s *staticSource) Kind() model.SourceKind { return s.kind }

func (s *staticSource) Candidates(ctx context.Context, q search.CandidateQuery) ([]search.Candidate, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.items, nil
}

type mapHydrator map[string]model.ResultDetail

func (m mapHydrator) Hydrate(_ context.Context, ids []string) (map[string]model.ResultDetail, error) {
	out := make(map[string]model.ResultDetail)
	for _, id := range ids {
		if d, ok := m[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

// angled returns a 2-d vector whose cosine against (1,0) falls as i grows.
func angled(i int) vector.Embedding {
	return vector.Embedding{float32(10 - i), float32(i)}
}

func newTestSearchService(t *testing.T, n int) *SearchService {
	t.Helper()
	src := &staticSource{kind: model.SourceChunk}
	hyd := mapHydrator{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("c%02d", i)
		src.items = append(src.items, search.Candidate{
			Ref:        model.Ref{Kind: model.SourceChunk, ID: id},
			DocumentID: "doc",
			Embedding:  angled(i),
		})
		hyd[id] = model.ResultDetail{Title: "Chunk " + id, Content: "**bold** text " + id}
	}
	// a duplicate direction produces a score tie broken by id
	src.items = append(src.items, search.Candidate{
		Ref:       model.Ref{Kind: model.SourceChunk, ID: "b-dup"},
		Embedding: angled(2),
	})
	engine := search.NewEngine(search.Options{Dimension: 2, MaxMatchCount: 100}, nil, src)
	return NewSearchService(engine, map[model.SourceKind]Hydrator{model.SourceChunk: hyd}, time.Second)
}

func vectorQuery(count int) search.VectorQuery {
	return search.VectorQuery{
		Params:    search.Params{MatchCount: count},
		Embedding: vector.Embedding{1, 0},
	}
}

func TestSearchHydratesInRankOrder(t *testing.T) {
	svc := newTestSearchService(t, 4)
	res, err := svc.Search(context.Background(), vectorQuery(10))
	require.NoError(t, err)
	require.Len(t, res, 5)
	require.Equal(t, "c00", res[0].ID)
	require.Equal(t, "Chunk c00", res[0].Title)
	require.Equal(t, "bold text c00", res[0].Preview)
	require.Equal(t, "b-dup", res[2].ID)
	require.Equal(t, "c02", res[3].ID)
	require.Empty(t, res[2].Title)
	for i := 1; i < len(res); i++ {
		require.GreaterOrEqual(t, res[i-1].CombinedScore, res[i].CombinedScore)
	}
}

func TestSearchPageConcatenatesToFullRanking(t *testing.T) {
	svc := newTestSearchService(t, 7)
	full, err := svc.Search(context.Background(), vectorQuery(50))
	require.NoError(t, err)

	var got []string
	cursor := ""
	for i := 0; i < 20; i++ {
		page, err := svc.SearchPage(context.Background(), vectorQuery(50), PageInput{Cursor: cursor, PageSize: 3})
		require.NoError(t, err)
		require.Equal(t, len(full), page.TotalCount)
		for _, r := range page.Rows {
			got = append(got, r.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	var want []string
	for _, r := range full {
		want = append(want, r.ID)
	}
	require.Equal(t, want, got)
}

func TestSearchPageRejectsForeignCursor(t *testing.T) {
	svc := newTestSearchService(t, 3)
	cur := paginate.NewCursor("date", paginate.Desc, paginate.TimeKey(time.Now(), "x")).Encode()
	_, err := svc.SearchPage(context.Background(), vectorQuery(10), PageInput{Cursor: cur, PageSize: 2})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestSearchTimesOut(t *testing.T) {
	src := &staticSource{kind: model.SourceChunk, block: true}
	engine := search.NewEngine(search.Options{Dimension: 2}, nil, src)
	svc := NewSearchService(engine, nil, 20*time.Millisecond)
	_, err := svc.Search(context.Background(), vectorQuery(5))
	require.ErrorIs(t, err, appErr.ErrTimeout)
}

func TestSearchEmptyIsNotAnError(t *testing.T) {
	svc := newTestSearchService(t, 0)
	q := vectorQuery(5)
	q.Embedding = vector.Embedding{0, 1}
	q.MatchThreshold = 0.99
	res, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	require.Empty(t, res)
}

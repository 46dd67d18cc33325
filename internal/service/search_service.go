package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/pkg/mdtext"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

// SortByScore is the cursor ordering of ranked pages.
const SortByScore = "combined_score"

const previewRunes = 240

// Hydrator loads display fields for rows of one source kind.
type Hydrator interface {
	Hydrate(ctx context.Context, ids []string) (map[string]model.ResultDetail, error)
}

type SearchService struct {
	engine    *search.Engine
	hydrators map[model.SourceKind]Hydrator
	timeout   time.Duration
}

func NewSearchService(engine *search.Engine, hydrators map[model.SourceKind]Hydrator, timeout time.Duration) *SearchService {
	return &SearchService{engine: engine, hydrators: hydrators, timeout: timeout}
}

// Search ranks and hydrates. An empty slice means nothing passed the
// threshold.
func (s *SearchService) Search(ctx context.Context, req search.Request) ([]model.RankedResult, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	ranked, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	results, err := s.hydrate(ctx, ranked)
	if err != nil {
		return nil, mapTimeout(ctx, err)
	}
	return results, nil
}

// PageInput selects one page of a ranked result set.
type PageInput struct {
	Cursor   string
	PageSize int
}

// SearchPage ranks up to the request's match_count and returns one page of
// it. The cursor carries (combined_score, id); a cursor whose row dropped out
// of the ranking resumes at the next lower score.
func (s *SearchService) SearchPage(ctx context.Context, req search.Request, in PageInput) (paginate.Page[model.RankedResult], error) {
	cur, err := paginate.Decode(in.Cursor)
	if err != nil {
		return paginate.Page[model.RankedResult]{}, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	ranked, err := s.engine.Search(ctx, req)
	if err != nil {
		return paginate.Page[model.RankedResult]{}, mapTimeout(ctx, err)
	}
	if cur != nil && !containsKey(ranked, cur.Key) {
		logutil.GetLogger(ctx).Info("cursor row left the ranking, resuming after its key",
			zap.String("cursor_id", cur.Key.ID))
	}
	page, err := paginate.Slice(ranked, rankedKey, paginate.Options{
		SortBy:   SortByScore,
		Dir:      paginate.Desc,
		Cursor:   cur,
		PageSize: in.PageSize,
	})
	if err != nil {
		return paginate.Page[model.RankedResult]{}, err
	}
	rows, err := s.hydrate(ctx, page.Rows)
	if err != nil {
		return paginate.Page[model.RankedResult]{}, mapTimeout(ctx, err)
	}
	return paginate.Page[model.RankedResult]{Rows: rows, NextCursor: page.NextCursor, TotalCount: page.TotalCount}, nil
}

// rankedKey orders like the ranker: score descending, then id and kind
// ascending. The NUL separator keeps (id, kind) order under string compare.
func rankedKey(r search.Ranked) paginate.Key {
	return paginate.NumberKey(r.Combined, r.Ref.ID+"\x00"+string(r.Ref.Kind))
}

func containsKey(ranked []search.Ranked, key paginate.Key) bool {
	for _, r := range ranked {
		if paginate.Compare(rankedKey(r), key, paginate.Desc) == 0 {
			return true
		}
	}
	return false
}

func (s *SearchService) hydrate(ctx context.Context, ranked []search.Ranked) ([]model.RankedResult, error) {
	ids := make(map[model.SourceKind][]string)
	for _, r := range ranked {
		ids[r.Ref.Kind] = append(ids[r.Ref.Kind], r.Ref.ID)
	}
	details := make(map[model.Ref]model.ResultDetail, len(ranked))
	for kind, list := range ids {
		h, ok := s.hydrators[kind]
		if !ok {
			continue
		}
		found, err := h.Hydrate(ctx, list)
		if err != nil {
			return nil, fmt.Errorf("hydrate %s: %w", kind, err)
		}
		for id, d := range found {
			details[model.Ref{Kind: kind, ID: id}] = d
		}
	}
	out := make([]model.RankedResult, 0, len(ranked))
	missing := 0
	for _, r := range ranked {
		res := model.RankedResult{
			ID:               r.Ref.ID,
			Source:           r.Ref.Kind,
			CombinedScore:    r.Combined,
			VectorSimilarity: r.Vector,
			TextSimilarity:   r.Text,
			DocumentID:       r.DocumentID,
		}
		if d, ok := details[r.Ref]; ok {
			if d.DocumentID != "" {
				res.DocumentID = d.DocumentID
			}
			res.Title = d.Title
			res.Content = d.Content
			res.Preview = mdtext.Preview(d.Content, previewRunes)
			res.Metadata = d.Metadata
		} else {
			missing++
		}
		out = append(out, res)
	}
	if missing > 0 {
		logutil.GetLogger(ctx).Info("ranked rows without details", zap.Int("missing", missing))
	}
	return out, nil
}

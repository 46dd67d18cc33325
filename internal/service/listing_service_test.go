package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/reference"
	"github.com/MeganHarrison/alleato-core/internal/repo"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

type recordingLister struct {
	docQuery     repo.DocumentListQuery
	insightQuery repo.InsightListQuery
}

func (r *recordingLister) ListPage(ctx context.Context, q repo.DocumentListQuery) (paginate.Page[model.Document], error) {
	r.docQuery = q
	return paginate.Page[model.Document]{Rows: []model.Document{{ID: "d1"}}, TotalCount: 1}, nil
}

func (r *recordingLister) GetByID(ctx context.Context, id string) (*model.Document, error) {
	if id != "d1" {
		return nil, appErr.ErrNotFound
	}
	return &model.Document{ID: "d1", Title: "Kickoff"}, nil
}

type insightLister struct {
	r *recordingLister
}

func (l insightLister) ListPage(ctx context.Context, q repo.InsightListQuery) (paginate.Page[model.Insight], error) {
	l.r.insightQuery = q
	return paginate.Page[model.Insight]{Rows: []model.Insight{}}, nil
}

func newListing() (*ListingService, *recordingLister) {
	rec := &recordingLister{}
	return NewListingService(rec, insightLister{r: rec}, time.Second, 20, 50), rec
}

func TestListDocumentsDefaults(t *testing.T) {
	svc, rec := newListing()
	page, err := svc.ListDocuments(context.Background(), ListInput{
		Filter: search.Filter{ProjectIDs: []int64{7}},
		Search: "oac",
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	require.Equal(t, "date", rec.docQuery.Page.SortBy)
	require.Equal(t, paginate.Desc, rec.docQuery.Page.Dir)
	require.Equal(t, 20, rec.docQuery.Page.PageSize)
	require.Nil(t, rec.docQuery.Page.Cursor)
	require.Equal(t, "oac", rec.docQuery.Search)
	require.Equal(t, []int64{7}, rec.docQuery.Filter.ProjectIDs)
}

func TestListInsightsPassesCursor(t *testing.T) {
	svc, rec := newListing()
	cur := paginate.NewCursor("confidence", paginate.Asc, paginate.NumberKey(0.8, "i1"))
	_, err := svc.ListInsights(context.Background(), ListInput{
		Filter:   search.Filter{ExcludeResolved: true},
		SortBy:   "Confidence",
		SortDir:  "asc",
		Cursor:   cur.Encode(),
		PageSize: 5,
	})
	require.NoError(t, err)
	require.Equal(t, "confidence", rec.insightQuery.Page.SortBy)
	require.Equal(t, paginate.Asc, rec.insightQuery.Page.Dir)
	require.Equal(t, cur.Key, rec.insightQuery.Page.Cursor.Key)
	require.True(t, rec.insightQuery.Filter.ExcludeResolved)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newListing()
	ctx := context.Background()
	_, err := svc.ListDocuments(ctx, ListInput{PageSize: 500})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.ListDocuments(ctx, ListInput{SortDir: "sideways"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.ListDocuments(ctx, ListInput{Cursor: "%%%"})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err = svc.ListInsights(ctx, ListInput{Filter: search.Filter{DateFrom: &from, DateTo: &to}})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestGetDocument(t *testing.T) {
	svc, _ := newListing()
	doc, err := svc.GetDocument(context.Background(), " d1 ")
	require.NoError(t, err)
	require.Equal(t, "Kickoff", doc.Title)

	_, err = svc.GetDocument(context.Background(), "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.GetDocument(context.Background(), "d2")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestReferenceServiceInterpolate(t *testing.T) {
	rows := reference.StaticSource{
		{ID: "a", TableID: "table_8", TableNumber: 8, SystemType: model.SystemWet, ASRSType: model.ASRSMiniLoad, CeilingHeightFt: 20, PressurePSI: 30, SprinklerCount: 12},
		{ID: "b", TableID: "table_8", TableNumber: 8, SystemType: model.SystemWet, ASRSType: model.ASRSMiniLoad, CeilingHeightFt: 30, PressurePSI: 50, SprinklerCount: 16},
	}
	svc := NewReferenceService(reference.NewEngine(rows, 0), time.Second)
	res, err := svc.Interpolate(context.Background(), "table_8", 25)
	require.NoError(t, err)
	require.Equal(t, model.MatchInterpolated, res.Match)
	require.InDelta(t, 40.0, res.Outputs.PressurePSI, 1e-9)
	require.InDelta(t, 14.0, res.Outputs.SprinklerCount, 1e-9)

	_, err = svc.Interpolate(context.Background(), " ", 25)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Interpolate(context.Background(), "table_9", 25)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	opts, err := svc.Options(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"table_8"}, opts.TableIDs)
}

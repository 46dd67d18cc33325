package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/pkg/errcode"
)

func TestProjectDocumentsScopesToPath(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodGet, "/api/v1/projects/7/documents?sort_by=title&sort_dir=asc&page_size=5&date_to=2025-03-31&category=executive_weekly", nil)
	require.Equal(t, 0, env.Code)
	var page paginate.Page[model.Document]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Rows, 1)

	q := f.docs.last
	require.Equal(t, []int64{7}, q.Filter.ProjectIDs)
	require.Equal(t, model.CategoryExecutiveWeekly, q.Filter.Category)
	require.NotNil(t, q.Filter.DateTo)
	require.Equal(t, 23, q.Filter.DateTo.Hour())
	require.Equal(t, "title", q.Page.SortBy)
	require.Equal(t, paginate.Asc, q.Page.Dir)
	require.Equal(t, 5, q.Page.PageSize)
}

func TestDocumentsParsesProjectList(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodGet, "/api/v1/documents?project_ids=1,2&project_ids=3&search=roof", nil)
	require.Equal(t, 0, env.Code)
	require.Equal(t, []int64{1, 2, 3}, f.docs.last.Filter.ProjectIDs)
	require.Equal(t, "roof", f.docs.last.Search)
	require.Equal(t, "date", f.docs.last.Page.SortBy)
	require.Equal(t, 20, f.docs.last.Page.PageSize)
}

func TestDocumentByID(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodGet, "/api/v1/documents/d1", nil)
	require.Equal(t, 0, env.Code)
	var doc model.Document
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	require.Equal(t, "Kickoff", doc.Title)

	env = doJSON(t, f.router, http.MethodGet, "/api/v1/documents/missing", nil)
	require.Equal(t, errcode.ErrNotFound, env.Code)
}

func TestListingRejectsBadQuery(t *testing.T) {
	f := setupRouter(t)

	cases := []string{
		"/api/v1/projects/abc/documents",
		"/api/v1/documents?project_ids=x",
		"/api/v1/documents?page_size=0",
		"/api/v1/documents?page_size=1000",
		"/api/v1/documents?date_from=2025-05-01&date_to=2025-04-01",
		"/api/v1/documents?sort_dir=sideways",
		"/api/v1/insights?exclude_resolved=maybe",
	}
	for _, path := range cases {
		env := doJSON(t, f.router, http.MethodGet, path, nil)
		require.Equal(t, errcode.ErrInvalid, env.Code, path)
	}
}

func TestInsightsReturnsEmptyRows(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodGet, "/api/v1/insights?exclude_resolved=true", nil)
	require.Equal(t, 0, env.Code)
	var page paginate.Page[model.Insight]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.NotNil(t, page.Rows)
	require.Empty(t, page.Rows)
	require.Empty(t, page.NextCursor)
}

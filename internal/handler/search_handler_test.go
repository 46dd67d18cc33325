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

type searchData struct {
	Mode    string               `json:"mode"`
	Results []model.RankedResult `json:"results"`
}

func TestSearchPicksModeFromBody(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"match_count":     3,
	})
	require.Equal(t, 0, env.Code)
	var vec searchData
	require.NoError(t, json.Unmarshal(env.Data, &vec))
	require.Equal(t, "vector", vec.Mode)
	require.Len(t, vec.Results, 3)
	require.Equal(t, "c0", vec.Results[0].ID)
	require.Equal(t, "doc-c0", vec.Results[0].DocumentID)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_text": "sprinkler pressure",
	})
	var lex searchData
	require.NoError(t, json.Unmarshal(env.Data, &lex))
	require.Equal(t, "lexical", lex.Mode)
	require.Len(t, lex.Results, 1)
	require.Equal(t, "c5", lex.Results[0].ID)
	require.Nil(t, lex.Results[0].VectorSimilarity)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_embedding": "[1,0]",
		"query_text":      "sprinkler",
		"fusion_weight":   0.0,
	})
	var hyb searchData
	require.NoError(t, json.Unmarshal(env.Data, &hyb))
	require.Equal(t, "hybrid", hyb.Mode)
	var fused *model.RankedResult
	for i := range hyb.Results {
		if hyb.Results[i].ID == "c5" {
			fused = &hyb.Results[i]
		}
	}
	require.NotNil(t, fused)
	require.NotNil(t, fused.VectorSimilarity)
	require.NotNil(t, fused.TextSimilarity)
	require.InDelta(t, *fused.TextSimilarity, fused.CombinedScore, 1e-9)
}

func TestSearchRejectsBadRequests(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_embedding": []float32{1, 0, 0},
	})
	require.Equal(t, errcode.ErrDimensionMismatch, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"match_count":     0,
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_text": "pressure",
		"filter":     map[string]interface{}{"category": "weekly_gossip"},
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestSearchPageFollowsCursor(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/search", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"match_count":     8,
	})
	var full searchData
	require.NoError(t, json.Unmarshal(env.Data, &full))
	require.Len(t, full.Results, 8)

	var got []string
	cursor := ""
	for i := 0; i < 10; i++ {
		env = doJSON(t, f.router, http.MethodPost, "/api/v1/search/page", map[string]interface{}{
			"query_embedding": []float32{1, 0},
			"match_count":     8,
			"page_size":       3,
			"cursor":          cursor,
		})
		require.Equal(t, 0, env.Code)
		var page paginate.Page[model.RankedResult]
		require.NoError(t, json.Unmarshal(env.Data, &page))
		require.Equal(t, 8, page.TotalCount)
		for _, r := range page.Rows {
			got = append(got, r.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	var want []string
	for _, r := range full.Results {
		want = append(want, r.ID)
	}
	require.Equal(t, want, got)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search/page", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"cursor":          "not-a-cursor",
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestSearchPageDefaultsPageSize(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/search/page", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"match_count":     8,
	})
	require.Equal(t, 0, env.Code)
	var page paginate.Page[model.RankedResult]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Rows, 2)
	require.NotEmpty(t, page.NextCursor)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/search/page", map[string]interface{}{
		"query_embedding": []float32{1, 0},
		"page_size":       0,
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/handler"
	"github.com/MeganHarrison/alleato-core/internal/middleware"
	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/reference"
	"github.com/MeganHarrison/alleato-core/internal/repo"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/service"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

type memorySource struct {
	items []search.Candidate
}

func (s memorySource) Kind() model.SourceKind { return model.SourceChunk }

func (s memorySource) Candidates(context.Context, search.CandidateQuery) ([]search.Candidate, error) {
	return s.items, nil
}

// wordIndex ranks a candidate by how many query words its text contains.
type wordIndex map[string]string

func (w wordIndex) Rank(_ context.Context, text string, candidates []search.Candidate) ([]search.RawRank, error) {
	words := strings.Fields(strings.ToLower(text))
	var out []search.RawRank
	for _, c := range candidates {
		body := strings.ToLower(w[c.Ref.ID])
		hits := 0
		for _, word := range words {
			if strings.Contains(body, word) {
				hits++
			}
		}
		if hits > 0 {
			out = append(out, search.RawRank{Ref: c.Ref, Rank: float64(hits) / 10})
		}
	}
	return out, nil
}

type noDetails struct{}

func (noDetails) Hydrate(context.Context, []string) (map[string]model.ResultDetail, error) {
	return map[string]model.ResultDetail{}, nil
}

type capturedDocs struct {
	last repo.DocumentListQuery
	rows []model.Document
}

func (d *capturedDocs) ListPage(_ context.Context, q repo.DocumentListQuery) (paginate.Page[model.Document], error) {
	d.last = q
	return paginate.Page[model.Document]{Rows: d.rows, TotalCount: len(d.rows)}, nil
}

func (d *capturedDocs) GetByID(_ context.Context, id string) (*model.Document, error) {
	for _, doc := range d.rows {
		if doc.ID == id {
			return &doc, nil
		}
	}
	return nil, appErr.ErrNotFound
}

type emptyInsights struct{}

func (emptyInsights) ListPage(context.Context, repo.InsightListQuery) (paginate.Page[model.Insight], error) {
	return paginate.Page[model.Insight]{}, nil
}

type fixture struct {
	router http.Handler
	docs   *capturedDocs
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	src := memorySource{}
	words := wordIndex{}
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("c%d", i)
		src.items = append(src.items, search.Candidate{
			Ref:        model.Ref{Kind: model.SourceChunk, ID: id},
			DocumentID: "doc-" + id,
			Embedding:  vector.Embedding{float32(8 - i), float32(i)},
		})
		words[id] = "meeting notes"
	}
	words["c5"] = "sprinkler pressure for the shuttle asrs"
	engine := search.NewEngine(search.Options{Dimension: 2, MaxMatchCount: 50}, words, src)
	searchSvc := service.NewSearchService(engine, map[model.SourceKind]service.Hydrator{model.SourceChunk: noDetails{}}, time.Second)

	docs := &capturedDocs{rows: []model.Document{{ID: "d1", Title: "Kickoff"}}}
	listings := service.NewListingService(docs, emptyInsights{}, time.Second, 20, 100)

	refEngine := reference.NewEngine(reference.StaticSource{
		{ID: "r1", TableID: "table_8", TableNumber: 8, SystemType: model.SystemWet, ASRSType: model.ASRSShuttle, CeilingHeightFt: 20, KFactor: 11.2, PressurePSI: 30, SprinklerCount: 12},
		{ID: "r2", TableID: "table_8", TableNumber: 8, SystemType: model.SystemWet, ASRSType: model.ASRSShuttle, CeilingHeightFt: 30, KFactor: 11.2, PressurePSI: 50, SprinklerCount: 16},
	}, 0)
	refSvc := service.NewReferenceService(refEngine, time.Second)

	router := gin.New()
	router.Use(middleware.RequestID())
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, handler.RouterDeps{
		Search:    handler.NewSearchHandler(searchSvc, handler.SearchDefaults{MatchCount: 10, PageSize: 2}),
		Listings:  handler.NewListingHandler(listings),
		Reference: handler.NewReferenceHandler(refSvc),
	})
	return &fixture{router: router, docs: docs}
}

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotEmpty(t, resp.Header().Get(middleware.RequestIDHeader))
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/pkg/response"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/service"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// SearchDefaults fill request fields the caller left out.
type SearchDefaults struct {
	MatchCount     int
	MatchThreshold float64
	PageSize       int
}

type SearchHandler struct {
	search   *service.SearchService
	defaults SearchDefaults
}

func NewSearchHandler(search *service.SearchService, defaults SearchDefaults) *SearchHandler {
	return &SearchHandler{search: search, defaults: defaults}
}

type searchRequest struct {
	QueryEmbedding vector.Embedding `json:"query_embedding"`
	QueryText      string           `json:"query_text"`
	MatchCount     *int             `json:"match_count"`
	MatchThreshold *float64         `json:"match_threshold"`
	FusionWeight   *float64         `json:"fusion_weight"`
	Filter         filterInput      `json:"filter"`
	Sources        []string         `json:"sources"`
	Cursor         string           `json:"cursor"`
	PageSize       *int             `json:"page_size"`
}

type searchResponse struct {
	Mode    string               `json:"mode"`
	Results []model.RankedResult `json:"results"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var body searchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, appErr.Invalidf("bad request body: %v", err))
		return
	}
	req, err := h.toRequest(body)
	if err != nil {
		handleError(c, err)
		return
	}
	results, err := h.search.Search(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	if results == nil {
		results = []model.RankedResult{}
	}
	response.Success(c, searchResponse{Mode: search.Mode(req), Results: results})
}

// Page returns one cursor page of the ranked result set.
func (h *SearchHandler) Page(c *gin.Context) {
	var body searchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, appErr.Invalidf("bad request body: %v", err))
		return
	}
	req, err := h.toRequest(body)
	if err != nil {
		handleError(c, err)
		return
	}
	size := h.defaults.PageSize
	if body.PageSize != nil {
		size = *body.PageSize
	}
	page, err := h.search.SearchPage(c.Request.Context(), req, service.PageInput{
		Cursor:   body.Cursor,
		PageSize: size,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	if page.Rows == nil {
		page.Rows = []model.RankedResult{}
	}
	response.Success(c, page)
}

// toRequest picks the query variant from the body: an embedding with text
// is hybrid, an embedding alone is vector only, text alone is lexical.
func (h *SearchHandler) toRequest(body searchRequest) (search.Request, error) {
	filter, err := body.Filter.toFilter()
	if err != nil {
		return nil, err
	}
	params := search.Params{
		MatchCount:     h.defaults.MatchCount,
		MatchThreshold: h.defaults.MatchThreshold,
		Filter:         filter,
	}
	if body.MatchCount != nil {
		params.MatchCount = *body.MatchCount
	}
	if body.MatchThreshold != nil {
		params.MatchThreshold = *body.MatchThreshold
	}
	for _, raw := range body.Sources {
		kind, err := model.ParseSourceKind(raw)
		if err != nil {
			return nil, err
		}
		params.Sources = append(params.Sources, kind)
	}
	text := strings.TrimSpace(body.QueryText)
	hasEmbedding := len(body.QueryEmbedding) > 0
	switch {
	case hasEmbedding && text != "":
		return search.HybridQuery{
			Params:       params,
			Embedding:    body.QueryEmbedding,
			Text:         text,
			FusionWeight: body.FusionWeight,
		}, nil
	case hasEmbedding:
		return search.VectorQuery{Params: params, Embedding: body.QueryEmbedding}, nil
	case text != "":
		return search.LexicalQuery{Params: params, Text: text}, nil
	default:
		return nil, appErr.Invalidf("query_embedding or query_text is required")
	}
}

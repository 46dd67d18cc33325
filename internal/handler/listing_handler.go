package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/pkg/response"
	"github.com/MeganHarrison/alleato-core/internal/service"
)

type ListingHandler struct {
	listings *service.ListingService
}

func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// ProjectDocuments lists the documents of the project in the path.
func (h *ListingHandler) ProjectDocuments(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || projectID <= 0 {
		handleError(c, appErr.Invalidf("bad project id %q", c.Param("id")))
		return
	}
	in, err := listInput(c)
	if err != nil {
		handleError(c, err)
		return
	}
	in.Filter.ProjectIDs = []int64{projectID}
	h.listDocuments(c, in)
}

func (h *ListingHandler) Documents(c *gin.Context) {
	in, err := listInput(c)
	if err != nil {
		handleError(c, err)
		return
	}
	h.listDocuments(c, in)
}

func (h *ListingHandler) listDocuments(c *gin.Context, in service.ListInput) {
	page, err := h.listings.ListDocuments(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	if page.Rows == nil {
		page.Rows = []model.Document{}
	}
	response.Success(c, page)
}

func (h *ListingHandler) Document(c *gin.Context) {
	doc, err := h.listings.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *ListingHandler) Insights(c *gin.Context) {
	in, err := listInput(c)
	if err != nil {
		handleError(c, err)
		return
	}
	page, err := h.listings.ListInsights(c.Request.Context(), in)
	if err != nil {
		handleError(c, err)
		return
	}
	if page.Rows == nil {
		page.Rows = []model.Insight{}
	}
	response.Success(c, page)
}

func listInput(c *gin.Context) (service.ListInput, error) {
	projectIDs, err := parseInt64List(append(c.QueryArray("project_id"), c.QueryArray("project_ids")...))
	if err != nil {
		return service.ListInput{}, err
	}
	in := filterInput{
		ProjectIDs:   projectIDs,
		DateFrom:     c.Query("date_from"),
		DateTo:       c.Query("date_to"),
		Category:     c.Query("category"),
		DocumentType: c.Query("document_type"),
		ChunkTypes:   splitList(c.QueryArray("chunk_type")),
		DocumentIDs:  splitList(c.QueryArray("document_id")),
	}
	if raw := c.Query("exclude_resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return service.ListInput{}, appErr.Invalidf("bad exclude_resolved %q", raw)
		}
		in.ExcludeResolved = v
	}
	filter, err := in.toFilter()
	if err != nil {
		return service.ListInput{}, err
	}
	size, err := parsePageSize(c.Query("page_size"))
	if err != nil {
		return service.ListInput{}, err
	}
	return service.ListInput{
		Filter:   filter,
		Search:   c.Query("search"),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
		Cursor:   c.Query("cursor"),
		PageSize: size,
	}, nil
}

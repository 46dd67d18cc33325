package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/pkg/response"
	"github.com/MeganHarrison/alleato-core/internal/service"
)

type ReferenceHandler struct {
	reference *service.ReferenceService
}

func NewReferenceHandler(reference *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

type lookupRequest struct {
	TableID         string   `json:"table_id"`
	SystemType      string   `json:"system_type"`
	ASRSType        string   `json:"asrs_type"`
	ContainerType   string   `json:"container_type"`
	CommodityClass  string   `json:"commodity_class"`
	KFactor         float64  `json:"k_factor"`
	CeilingHeightFt *float64 `json:"ceiling_height_ft"`
	ToleranceFt     *float64 `json:"tolerance_ft"`
}

func (r lookupRequest) keys() (model.ReferenceKeys, error) {
	var keys model.ReferenceKeys
	var err error
	keys.TableID = strings.TrimSpace(r.TableID)
	if keys.SystemType, err = model.ParseSystemType(r.SystemType); err != nil {
		return keys, err
	}
	if keys.ASRSType, err = model.ParseASRSType(r.ASRSType); err != nil {
		return keys, err
	}
	if keys.ContainerType, err = model.ParseContainerType(r.ContainerType); err != nil {
		return keys, err
	}
	if keys.CommodityClass, err = model.ParseCommodityClass(r.CommodityClass); err != nil {
		return keys, err
	}
	if r.KFactor < 0 {
		return keys, appErr.Invalidf("k_factor must not be negative")
	}
	keys.KFactor = r.KFactor
	return keys, nil
}

func (h *ReferenceHandler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.Invalidf("bad request body: %v", err))
		return
	}
	if req.CeilingHeightFt == nil {
		handleError(c, appErr.Invalidf("ceiling_height_ft is required"))
		return
	}
	keys, err := req.keys()
	if err != nil {
		handleError(c, err)
		return
	}
	res, err := h.reference.Lookup(c.Request.Context(), keys, *req.CeilingHeightFt, req.ToleranceFt)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

// Interpolate resolves a height within a single table.
func (h *ReferenceHandler) Interpolate(c *gin.Context) {
	raw := c.Query("ceiling_height_ft")
	if raw == "" {
		raw = c.Query("height")
	}
	height, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		handleError(c, appErr.Invalidf("bad ceiling height %q", raw))
		return
	}
	res, err := h.reference.Interpolate(c.Request.Context(), c.Param("table_id"), height)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *ReferenceHandler) Options(c *gin.Context) {
	opts, err := h.reference.Options(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, opts)
}

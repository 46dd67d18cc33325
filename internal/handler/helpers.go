package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/pkg/errcode"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/pkg/response"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

const dateLayout = "2006-01-02"

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	if oor, ok := appErr.AsOutOfRange(err); ok {
		logger.Info("request out of range")
		response.ErrorData(c, errcode.ErrOutOfRange, oor.Error(), gin.H{
			"target": oor.Target,
			"bound":  oor.Bound,
			"side":   oor.Side,
		})
		return
	}
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		logger.Info("invalid request")
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrDimensionMismatch):
		logger.Info("invalid request")
		response.Error(c, errcode.ErrDimensionMismatch, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrTimeout):
		logger.Warn("request timed out")
		response.Error(c, errcode.ErrTimeout, "timeout")
	default:
		logger.Error("request failed")
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. A bare date
// used as an upper bound covers the whole day.
func parseDate(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, appErr.Invalidf("bad date %q", value)
	}
	return &t, nil
}

func parseInt64List(values []string) ([]int64, error) {
	var out []int64
	for _, v := range splitList(values) {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, appErr.Invalidf("bad project id %q", v)
		}
		out = append(out, id)
	}
	return out, nil
}

// splitList flattens repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parsePageSize(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	size, err := strconv.Atoi(value)
	if err != nil || size <= 0 {
		return 0, appErr.Invalidf("page_size must be a positive integer")
	}
	return size, nil
}

// filterInput is the wire form of a structural filter, shared by the JSON
// bodies and the query string listings.
type filterInput struct {
	ProjectID       *int64   `json:"project_id"`
	ProjectIDs      []int64  `json:"project_ids"`
	DateFrom        string   `json:"date_from"`
	DateTo          string   `json:"date_to"`
	Category        string   `json:"category"`
	DocumentType    string   `json:"document_type"`
	ASRSType        string   `json:"asrs_type"`
	ChunkTypes      []string `json:"chunk_types"`
	DocumentIDs     []string `json:"document_ids"`
	ExcludeResolved bool     `json:"exclude_resolved"`
}

func (in filterInput) toFilter() (search.Filter, error) {
	var f search.Filter
	var err error
	if in.ProjectID != nil {
		f.ProjectIDs = append(f.ProjectIDs, *in.ProjectID)
	}
	f.ProjectIDs = append(f.ProjectIDs, in.ProjectIDs...)
	if f.DateFrom, err = parseDate(in.DateFrom, false); err != nil {
		return search.Filter{}, err
	}
	if f.DateTo, err = parseDate(in.DateTo, true); err != nil {
		return search.Filter{}, err
	}
	if f.Category, err = model.ParseCategory(in.Category); err != nil {
		return search.Filter{}, err
	}
	if f.DocumentType, err = model.ParseDocumentType(in.DocumentType); err != nil {
		return search.Filter{}, err
	}
	if f.ASRSType, err = model.ParseASRSType(in.ASRSType); err != nil {
		return search.Filter{}, err
	}
	for _, raw := range in.ChunkTypes {
		ct, err := model.ParseChunkType(raw)
		if err != nil {
			return search.Filter{}, err
		}
		f.ChunkTypes = append(f.ChunkTypes, ct)
	}
	f.DocumentIDs = in.DocumentIDs
	f.ExcludeResolved = in.ExcludeResolved
	if err := f.Validate(); err != nil {
		return search.Filter{}, err
	}
	return f, nil
}

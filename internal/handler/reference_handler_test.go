package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/pkg/errcode"
)

func TestReferenceLookupInterpolates(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"system_type":       "wet",
		"asrs_type":         "shuttle",
		"ceiling_height_ft": 25,
	})
	require.Equal(t, 0, env.Code)
	var res model.InterpolationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, model.MatchInterpolated, res.Match)
	require.InDelta(t, 40.0, res.Outputs.PressurePSI, 1e-9)
	require.InDelta(t, 14.0, res.Outputs.SprinklerCount, 1e-9)
	require.Equal(t, "r1", res.Lower.ID)
	require.Equal(t, "r2", res.Upper.ID)
}

func TestReferenceLookupOutOfRangeCarriesBound(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"asrs_type":         "shuttle",
		"ceiling_height_ft": 45,
	})
	require.Equal(t, errcode.ErrOutOfRange, env.Code)
	var detail struct {
		Target float64 `json:"target"`
		Bound  float64 `json:"bound"`
		Side   string  `json:"side"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, 45.0, detail.Target)
	require.Equal(t, 30.0, detail.Bound)
	require.Equal(t, "upper", detail.Side)
}

func TestReferenceLookupErrors(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"asrs_type": "shuttle",
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"asrs_type":         "carousel",
		"ceiling_height_ft": 25,
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"system_type":       "dry",
		"ceiling_height_ft": 25,
	})
	require.Equal(t, errcode.ErrNotFound, env.Code)

	env = doJSON(t, f.router, http.MethodPost, "/api/v1/reference/lookup", map[string]interface{}{
		"ceiling_height_ft": 25,
	})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestReferenceInterpolateAndOptions(t *testing.T) {
	f := setupRouter(t)

	env := doJSON(t, f.router, http.MethodGet, "/api/v1/reference/tables/TABLE_8/interpolate?ceiling_height_ft=30", nil)
	require.Equal(t, 0, env.Code)
	var res model.InterpolationResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, model.MatchExact, res.Match)
	require.Equal(t, "r2", res.Exact.ID)

	env = doJSON(t, f.router, http.MethodGet, "/api/v1/reference/tables/table_8/interpolate?ceiling_height_ft=tall", nil)
	require.Equal(t, errcode.ErrInvalid, env.Code)

	env = doJSON(t, f.router, http.MethodGet, "/api/v1/reference/options", nil)
	require.Equal(t, 0, env.Code)
	var opts model.ReferenceOptions
	require.NoError(t, json.Unmarshal(env.Data, &opts))
	require.Equal(t, []string{"table_8"}, opts.TableIDs)
	require.Equal(t, []model.ASRSType{model.ASRSShuttle}, opts.ASRSTypes)
}

// Package reference resolves sprinkler design parameters from FM Global ASRS
// reference tables: an exact row when the ceiling height is present, else a
// linear interpolation between the two bracketing rows. It never
// extrapolates.
package reference

import (
	"fmt"
	"math"
	"sort"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// DefaultEpsilon is the height tolerance of the exact-hit test.
const DefaultEpsilon = 1e-6

// Resolve answers one lookup against an in-memory row set.
func Resolve(rows []model.ReferenceRow, keys model.ReferenceKeys, target, eps float64) (*model.InterpolationResult, error) {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return nil, appErr.Invalidf("target height must be a positive number")
	}
	if math.IsNaN(eps) || eps < 0 {
		return nil, appErr.Invalidf("tolerance must not be negative")
	}
	if err := checkKeys(keys); err != nil {
		return nil, err
	}
	group := make([]model.ReferenceRow, 0, len(rows))
	for _, row := range rows {
		if keys.Matches(row) {
			group = append(group, row)
		}
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("no reference rows for %s: %w", keys.CacheKey(), appErr.ErrNotFound)
	}
	sortRows(group)

	if hit := nearestWithin(group, target, eps); hit != nil {
		return exactResult(target, hit), nil
	}

	var lower, upper *model.ReferenceRow
	for i := range group {
		row := &group[i]
		if row.CeilingHeightFt < target {
			// ascending height: the last lower row wins, but among equal
			// heights the first (lowest table) is kept
			if lower == nil || row.CeilingHeightFt > lower.CeilingHeightFt {
				lower = row
			}
			continue
		}
		if upper == nil {
			upper = row
		}
	}
	if lower == nil {
		return nil, &appErr.OutOfRangeError{Target: target, Bound: group[0].CeilingHeightFt, Side: "lower"}
	}
	if upper == nil {
		return nil, &appErr.OutOfRangeError{Target: target, Bound: group[len(group)-1].CeilingHeightFt, Side: "upper"}
	}
	return interpolate(target, lower, upper), nil
}

func checkKeys(keys model.ReferenceKeys) error {
	if !keys.HasGroup() {
		return appErr.Invalidf("a table id or at least one of system, asrs, container or commodity is required")
	}
	return nil
}

// sortRows orders rows by height, then table number, table id and row id.
func sortRows(rows []model.ReferenceRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.CeilingHeightFt != b.CeilingHeightFt {
			return a.CeilingHeightFt < b.CeilingHeightFt
		}
		if a.TableNumber != b.TableNumber {
			return a.TableNumber < b.TableNumber
		}
		if a.TableID != b.TableID {
			return a.TableID < b.TableID
		}
		return a.ID < b.ID
	})
}

func nearestWithin(rows []model.ReferenceRow, target, eps float64) *model.ReferenceRow {
	var best *model.ReferenceRow
	bestDiff := math.Inf(1)
	for i := range rows {
		d := math.Abs(rows[i].CeilingHeightFt - target)
		if d <= eps && d < bestDiff {
			best = &rows[i]
			bestDiff = d
		}
	}
	return best
}

func exactResult(target float64, row *model.ReferenceRow) *model.InterpolationResult {
	hit := *row
	return &model.InterpolationResult{
		TargetHeightFt: target,
		Match:          model.MatchExact,
		Exact:          &hit,
		Outputs: model.DesignOutputs{
			PressurePSI:    hit.PressurePSI,
			PressureBar:    hit.PressureBar,
			SprinklerCount: hit.SprinklerCount,
			KFactor:        hit.KFactor,
		},
		SpecialConditions: append([]string(nil), hit.SpecialConditions...),
	}
}

func interpolate(target float64, lower, upper *model.ReferenceRow) *model.InterpolationResult {
	lo, hi := *lower, *upper
	span := hi.CeilingHeightFt - lo.CeilingHeightFt
	frac := (target - lo.CeilingHeightFt) / span
	res := &model.InterpolationResult{
		TargetHeightFt: target,
		Match:          model.MatchInterpolated,
		Lower:          &lo,
		Upper:          &hi,
		Outputs: model.DesignOutputs{
			PressurePSI:    lerp(lo.PressurePSI, hi.PressurePSI, frac),
			PressureBar:    lerp(lo.PressureBar, hi.PressureBar, frac),
			SprinklerCount: lerp(lo.SprinklerCount, hi.SprinklerCount, frac),
			KFactor:        lo.KFactor,
		},
		Fraction:          frac,
		InterpolationSpan: span,
		SpecialConditions: unionConditions(lo.SpecialConditions, hi.SpecialConditions),
	}
	if lo.KFactor != hi.KFactor {
		res.Note = fmt.Sprintf("bracketing rows use different k-factors (%g, %g); k-factor taken from the lower row", lo.KFactor, hi.KFactor)
	}
	return res
}

func lerp(lo, hi, frac float64) float64 {
	return lo + (hi-lo)*frac
}

func unionConditions(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, c := range list {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}

// Options lists the distinct categorical values present in rows, sorted.
func Options(rows []model.ReferenceRow) *model.ReferenceOptions {
	systems := map[model.SystemType]struct{}{}
	asrs := map[model.ASRSType]struct{}{}
	containers := map[model.ContainerType]struct{}{}
	commodities := map[model.CommodityClass]struct{}{}
	tables := map[string]struct{}{}
	for _, r := range rows {
		if r.SystemType != "" {
			systems[r.SystemType] = struct{}{}
		}
		if r.ASRSType != "" {
			asrs[r.ASRSType] = struct{}{}
		}
		if r.ContainerType != "" {
			containers[r.ContainerType] = struct{}{}
		}
		if r.CommodityClass != "" {
			commodities[r.CommodityClass] = struct{}{}
		}
		if r.TableID != "" {
			tables[r.TableID] = struct{}{}
		}
	}
	return &model.ReferenceOptions{
		SystemTypes:      sortedKeys(systems),
		ASRSTypes:        sortedKeys(asrs),
		ContainerTypes:   sortedKeys(containers),
		CommodityClasses: sortedKeys(commodities),
		TableIDs:         sortedKeys(tables),
	}
}

func sortedKeys[T ~string](m map[T]struct{}) []T {
	out := make([]T, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

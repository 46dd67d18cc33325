package model

import (
	"strconv"
	"strings"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// SystemType is the sprinkler system piping type.
type SystemType string

const (
	SystemWet SystemType = "wet"
	SystemDry SystemType = "dry"
)

func ParseSystemType(s string) (SystemType, error) {
	switch v := SystemType(normalizeTag(s)); v {
	case "", SystemWet, SystemDry:
		return v, nil
	default:
		return "", appErr.Invalidf("unknown system type %q", s)
	}
}

// ASRSType is the automated storage/retrieval system family.
type ASRSType string

const (
	ASRSShuttle            ASRSType = "shuttle"
	ASRSMiniLoad           ASRSType = "mini_load"
	ASRSTopLoading         ASRSType = "top_loading"
	ASRSVerticallyEnclosed ASRSType = "vertically_enclosed"
)

func ParseASRSType(s string) (ASRSType, error) {
	switch v := ASRSType(normalizeTag(s)); v {
	case "", ASRSShuttle, ASRSMiniLoad, ASRSTopLoading, ASRSVerticallyEnclosed:
		return v, nil
	default:
		return "", appErr.Invalidf("unknown asrs type %q", s)
	}
}

// ContainerType describes the storage containers held by the ASRS.
type ContainerType string

const (
	ContainerClosedTop      ContainerType = "closed_top"
	ContainerOpenTop        ContainerType = "open_top"
	ContainerNoncombustible ContainerType = "noncombustible"
)

func ParseContainerType(s string) (ContainerType, error) {
	switch v := ContainerType(normalizeTag(s)); v {
	case "", ContainerClosedTop, ContainerOpenTop, ContainerNoncombustible:
		return v, nil
	default:
		return "", appErr.Invalidf("unknown container type %q", s)
	}
}

// CommodityClass is the stored commodity hazard classification.
type CommodityClass string

const (
	CommodityClass1               CommodityClass = "class_1"
	CommodityClass2               CommodityClass = "class_2"
	CommodityClass3               CommodityClass = "class_3"
	CommodityClass4               CommodityClass = "class_4"
	CommodityCartonedUnexpanded   CommodityClass = "cartoned_unexpanded"
	CommodityCartonedExpanded     CommodityClass = "cartoned_expanded"
	CommodityUncartonedUnexpanded CommodityClass = "uncartoned_unexpanded"
	CommodityUncartonedExpanded   CommodityClass = "uncartoned_expanded"
)

func ParseCommodityClass(s string) (CommodityClass, error) {
	switch v := CommodityClass(normalizeTag(s)); v {
	case "", CommodityClass1, CommodityClass2, CommodityClass3, CommodityClass4,
		CommodityCartonedUnexpanded, CommodityCartonedExpanded,
		CommodityUncartonedUnexpanded, CommodityUncartonedExpanded:
		return v, nil
	default:
		return "", appErr.Invalidf("unknown commodity class %q", s)
	}
}

// ReferenceRow is one design point of an FM Global ASRS table: the
// categorical configuration, the ceiling height it applies to and the
// resulting sprinkler design parameters.
type ReferenceRow struct {
	ID                string         `json:"id"`
	TableID           string         `json:"table_id"`
	TableNumber       int            `json:"table_number"`
	Title             string         `json:"title,omitempty"`
	SystemType        SystemType     `json:"system_type"`
	ASRSType          ASRSType       `json:"asrs_type"`
	ContainerType     ContainerType  `json:"container_type,omitempty"`
	CommodityClass    CommodityClass `json:"commodity_class,omitempty"`
	CeilingHeightFt   float64        `json:"ceiling_height_ft"`
	KFactor           float64        `json:"k_factor"`
	PressurePSI       float64        `json:"pressure_psi"`
	PressureBar       float64        `json:"pressure_bar"`
	SprinklerCount    float64        `json:"sprinkler_count"`
	SpecialConditions []string       `json:"special_conditions,omitempty"`
}

// ReferenceKeys selects a categorical group. Empty fields are not part of
// the match. KFactor of 0 means any.
type ReferenceKeys struct {
	TableID        string         `json:"table_id,omitempty"`
	SystemType     SystemType     `json:"system_type,omitempty"`
	ASRSType       ASRSType       `json:"asrs_type,omitempty"`
	ContainerType  ContainerType  `json:"container_type,omitempty"`
	CommodityClass CommodityClass `json:"commodity_class,omitempty"`
	KFactor        float64        `json:"k_factor,omitempty"`
}

// Matches reports whether row carries every supplied categorical key.
func (k ReferenceKeys) Matches(row ReferenceRow) bool {
	if k.TableID != "" && !strings.EqualFold(k.TableID, row.TableID) {
		return false
	}
	if k.SystemType != "" && k.SystemType != row.SystemType {
		return false
	}
	if k.ASRSType != "" && k.ASRSType != row.ASRSType {
		return false
	}
	if k.ContainerType != "" && k.ContainerType != row.ContainerType {
		return false
	}
	if k.CommodityClass != "" && k.CommodityClass != row.CommodityClass {
		return false
	}
	if k.KFactor > 0 && !approxEqual(k.KFactor, row.KFactor, 1e-6) {
		return false
	}
	return true
}

// HasGroup reports whether at least one categorical key is set. A k-factor
// alone does not select a group.
func (k ReferenceKeys) HasGroup() bool {
	return k.TableID != "" ||
		k.SystemType != "" ||
		k.ASRSType != "" ||
		k.ContainerType != "" ||
		k.CommodityClass != ""
}

// CacheKey is a stable identity for the categorical group.
func (k ReferenceKeys) CacheKey() string {
	return strings.Join([]string{
		strings.ToLower(k.TableID),
		string(k.SystemType),
		string(k.ASRSType),
		string(k.ContainerType),
		string(k.CommodityClass),
		formatK(k.KFactor),
	}, "|")
}

// MatchKind says how an InterpolationResult was obtained.
type MatchKind string

const (
	MatchExact        MatchKind = "exact"
	MatchInterpolated MatchKind = "interpolated"
)

// DesignOutputs are the numeric design parameters resolved for a height.
type DesignOutputs struct {
	PressurePSI    float64 `json:"pressure_psi"`
	PressureBar    float64 `json:"pressure_bar"`
	SprinklerCount float64 `json:"sprinkler_count"`
	KFactor        float64 `json:"k_factor"`
}

// InterpolationResult is the answer of a reference lookup.
type InterpolationResult struct {
	TargetHeightFt    float64       `json:"target_height_ft"`
	Match             MatchKind     `json:"match"`
	Exact             *ReferenceRow `json:"exact,omitempty"`
	Lower             *ReferenceRow `json:"lower,omitempty"`
	Upper             *ReferenceRow `json:"upper,omitempty"`
	Outputs           DesignOutputs `json:"outputs"`
	Fraction          float64       `json:"fraction"`
	InterpolationSpan float64       `json:"interpolation_span_ft"`
	SpecialConditions []string      `json:"special_conditions,omitempty"`
	Note              string        `json:"note,omitempty"`
}

// ReferenceOptions lists the distinct categorical values present.
type ReferenceOptions struct {
	SystemTypes      []SystemType     `json:"system_types"`
	ASRSTypes        []ASRSType       `json:"asrs_types"`
	ContainerTypes   []ContainerType  `json:"container_types"`
	CommodityClasses []CommodityClass `json:"commodity_classes"`
	TableIDs         []string         `json:"table_ids"`
}

func approxEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func formatK(k float64) string {
	if k <= 0 {
		return ""
	}
	return strconv.FormatFloat(k, 'f', -1, 64)
}

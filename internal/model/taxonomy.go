package model

import (
	"strings"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// Category is the meeting/document classification assigned at ingestion.
type Category string

const (
	CategoryProjectSpecific  Category = "project_specific"
	CategoryExecutiveWeekly  Category = "executive_weekly"
	CategoryOperationsWeekly Category = "operations_weekly"
	CategoryAccountingWeekly Category = "accounting_weekly"
	CategoryCrossProject     Category = "cross_project"
)

var categories = map[Category]struct{}{
	CategoryProjectSpecific:  {},
	CategoryExecutiveWeekly:  {},
	CategoryOperationsWeekly: {},
	CategoryAccountingWeekly: {},
	CategoryCrossProject:     {},
}

// ParseCategory returns "" for an empty input, meaning no filter.
func ParseCategory(s string) (Category, error) {
	c := Category(normalizeTag(s))
	if c == "" {
		return "", nil
	}
	if _, ok := categories[c]; !ok {
		return "", appErr.Invalidf("unknown category %q", s)
	}
	return c, nil
}

// DocumentType is the kind of business document a chunk was cut from.
type DocumentType string

const (
	DocumentTypeMeeting       DocumentType = "meeting"
	DocumentTypeContract      DocumentType = "contract"
	DocumentTypeSubmittal     DocumentType = "submittal"
	DocumentTypeRFI           DocumentType = "rfi"
	DocumentTypeSpecification DocumentType = "specification"
	DocumentTypeDrawing       DocumentType = "drawing"
	DocumentTypeFMGlobal      DocumentType = "fm_global"
	DocumentTypeGeneral       DocumentType = "general"
)

var documentTypes = map[DocumentType]struct{}{
	DocumentTypeMeeting:       {},
	DocumentTypeContract:      {},
	DocumentTypeSubmittal:     {},
	DocumentTypeRFI:           {},
	DocumentTypeSpecification: {},
	DocumentTypeDrawing:       {},
	DocumentTypeFMGlobal:      {},
	DocumentTypeGeneral:       {},
}

func ParseDocumentType(s string) (DocumentType, error) {
	d := DocumentType(normalizeTag(s))
	if d == "" {
		return "", nil
	}
	if _, ok := documentTypes[d]; !ok {
		return "", appErr.Invalidf("unknown document type %q", s)
	}
	return d, nil
}

// ChunkType tags how a chunk was produced from its document.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeSummary  ChunkType = "summary"
	ChunkTypeDecision ChunkType = "decision"
	ChunkTypeRisk     ChunkType = "risk"
	ChunkTypeAction   ChunkType = "action"
	ChunkTypeTable    ChunkType = "table"
)

func ParseChunkType(s string) (ChunkType, error) {
	switch c := ChunkType(normalizeTag(s)); c {
	case ChunkTypeText, ChunkTypeSummary, ChunkTypeDecision, ChunkTypeRisk, ChunkTypeAction, ChunkTypeTable:
		return c, nil
	default:
		return "", appErr.Invalidf("unknown chunk type %q", s)
	}
}

func normalizeTag(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

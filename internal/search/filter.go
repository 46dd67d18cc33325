package search

import (
	"time"

	"github.com/MeganHarrison/alleato-core/internal/model"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// Candidate is a scorable row together with the structural attributes the
// filter inspects. Date is the document-level timestamp.
type Candidate struct {
	Ref          model.Ref
	DocumentID   string
	Embedding    vector.Embedding
	ProjectID    *int64
	ProjectIDs   []int64
	Date         time.Time
	Category     model.Category
	DocumentType model.DocumentType
	ASRSType     model.ASRSType
	ChunkType    model.ChunkType
	Resolved     bool
}

// Filter is a conjunction of structural predicates. The zero value matches
// every candidate.
type Filter struct {
	ProjectIDs      []int64
	DateFrom        *time.Time
	DateTo          *time.Time
	Category        model.Category
	DocumentType    model.DocumentType
	ASRSType        model.ASRSType
	ChunkTypes      []model.ChunkType
	DocumentIDs     []string
	ExcludeResolved bool
}

func (f Filter) IsEmpty() bool {
	return len(f.ProjectIDs) == 0 &&
		f.DateFrom == nil &&
		f.DateTo == nil &&
		f.Category == "" &&
		f.DocumentType == "" &&
		f.ASRSType == "" &&
		len(f.ChunkTypes) == 0 &&
		len(f.DocumentIDs) == 0 &&
		!f.ExcludeResolved
}

// Validate rejects inverted date ranges.
func (f Filter) Validate() error {
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return appErr.Invalidf("date_from is after date_to")
	}
	return nil
}

// HasDocumentScope reports whether the filter needs document-level
// attributes (project, date, category, document ids, chunk types) that only
// ingested documents carry.
func (f Filter) HasDocumentScope() bool {
	return len(f.ProjectIDs) > 0 || f.DateFrom != nil || f.DateTo != nil ||
		f.Category != "" || len(f.DocumentIDs) > 0 || len(f.ChunkTypes) > 0
}

// Match evaluates every predicate against c.
func (f Filter) Match(c Candidate) bool {
	if len(f.ProjectIDs) > 0 && !inProjectScope(f.ProjectIDs, c) {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		if c.Date.IsZero() {
			return false
		}
		if f.DateFrom != nil && c.Date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && c.Date.After(*f.DateTo) {
			return false
		}
	}
	if f.Category != "" && f.Category != c.Category {
		return false
	}
	if f.DocumentType != "" && f.DocumentType != c.DocumentType {
		return false
	}
	if f.ASRSType != "" && f.ASRSType != c.ASRSType {
		return false
	}
	if len(f.ChunkTypes) > 0 && !containsChunkType(f.ChunkTypes, c.ChunkType) {
		return false
	}
	if len(f.DocumentIDs) > 0 && !containsString(f.DocumentIDs, c.DocumentID) {
		return false
	}
	if f.ExcludeResolved && c.Resolved {
		return false
	}
	return true
}

// Resolve narrows candidates to those matching f. The input slice is not
// modified.
func Resolve(candidates []Candidate, f Filter) []Candidate {
	if f.IsEmpty() {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func inProjectScope(filter []int64, c Candidate) bool {
	for _, want := range filter {
		if c.ProjectID != nil && *c.ProjectID == want {
			return true
		}
		for _, id := range c.ProjectIDs {
			if id == want {
				return true
			}
		}
	}
	return false
}

func containsChunkType(list []model.ChunkType, v model.ChunkType) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

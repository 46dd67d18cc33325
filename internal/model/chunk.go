package model

import (
	"time"

	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// Chunk is a slice of a document or transcript with its own embedding.
// Chunks are immutable; re-ingestion replaces them.
type Chunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	ChunkIndex int                    `json:"chunk_index"`
	ChunkType  ChunkType              `json:"chunk_type"`
	Content    string                 `json:"content"`
	Embedding  vector.Embedding       `json:"-"`
	TokenCount int                    `json:"token_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Document owns zero or more chunks. A document is scoped to a single
// project, to several projects (cross-project content) or to none.
type Document struct {
	ID           string           `json:"id"`
	Source       string           `json:"source"`
	Title        string           `json:"title"`
	URL          string           `json:"url,omitempty"`
	Summary      string           `json:"summary,omitempty"`
	Category     Category         `json:"category,omitempty"`
	DocumentType DocumentType     `json:"document_type,omitempty"`
	ProjectID    *int64           `json:"project_id,omitempty"`
	ProjectIDs   []int64          `json:"project_ids,omitempty"`
	Embedding    vector.Embedding `json:"-"`
	Date         time.Time        `json:"date"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Insight is an extracted action/decision/risk attached to a document.
type Insight struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"document_id"`
	ProjectID       *int64    `json:"project_id,omitempty"`
	InsightType     string    `json:"insight_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ConfidenceScore float64   `json:"confidence_score"`
	Resolved        bool      `json:"resolved"`
	DocumentTitle   string    `json:"document_title,omitempty"`
	DocumentDate    time.Time `json:"document_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// SortDate is the document-level timestamp used for date filters and
// ordering: the document date when known, else its creation time.
func (d Document) SortDate() time.Time {
	if d.Date.IsZero() {
		return d.CreatedAt
	}
	return d.Date
}

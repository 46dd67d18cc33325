package model

// RankedResult is one row of a search response. VectorSimilarity and
// TextSimilarity are nil when the corresponding scorer did not run or did
// not produce the candidate.
type RankedResult struct {
	ID               string                 `json:"id"`
	Source           SourceKind             `json:"source"`
	CombinedScore    float64                `json:"combined_score"`
	VectorSimilarity *float64               `json:"vector_similarity,omitempty"`
	TextSimilarity   *float64               `json:"text_similarity,omitempty"`
	DocumentID       string                 `json:"document_id,omitempty"`
	Title            string                 `json:"title,omitempty"`
	Content          string                 `json:"content,omitempty"`
	Preview          string                 `json:"preview,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Ref returns the tagged reference for the result row.
func (r RankedResult) Ref() Ref {
	return Ref{Kind: r.Source, ID: r.ID}
}

// ResultDetail is the display payload a source attaches to a ranked row.
type ResultDetail struct {
	DocumentID string
	Title      string
	Content    string
	Metadata   map[string]interface{}
}

package search

import (
	"strings"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// Request is one of VectorQuery, HybridQuery or LexicalQuery. The variant
// decides which scorers run; ranking is shared.
type Request interface {
	params() Params
}

// Params are shared by every request variant.
type Params struct {
	MatchCount     int
	MatchThreshold float64
	Filter         Filter
	// Sources restricts the searched tables; empty means all registered.
	Sources []model.SourceKind
}

// VectorQuery ranks by embedding similarity only.
type VectorQuery struct {
	Params
	Embedding vector.Embedding
}

// HybridQuery fuses embedding similarity with full-text relevance.
// FusionWeight is the trust placed in the vector score; nil selects the
// engine default.
type HybridQuery struct {
	Params
	Embedding    vector.Embedding
	Text         string
	FusionWeight *float64
}

// LexicalQuery ranks by full-text relevance only.
type LexicalQuery struct {
	Params
	Text string
}

func (q VectorQuery) params() Params  { return q.Params }
func (q HybridQuery) params() Params  { return q.Params }
func (q LexicalQuery) params() Params { return q.Params }

// Mode names the request variant for logs and responses.
func Mode(req Request) string {
	switch req.(type) {
	case VectorQuery, *VectorQuery:
		return "vector"
	case HybridQuery, *HybridQuery:
		return "hybrid"
	case LexicalQuery, *LexicalQuery:
		return "lexical"
	default:
		return "unknown"
	}
}

// plan is the validated, variant-independent form of a request.
type plan struct {
	Params
	embedding vector.Embedding
	text      string
	weight    float64
}

func (p plan) useVector() bool  { return len(p.embedding) > 0 }
func (p plan) useLexical() bool { return strings.TrimSpace(p.text) != "" }

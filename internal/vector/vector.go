// Package vector holds the fixed-dimension embedding type used by the search
// core together with the similarity metrics that turn a pair of embeddings
// into a score in [0,1].
package vector

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// DefaultDimension matches the text-embedding-3-small vectors produced by the
// ingestion pipeline.
const DefaultDimension = 1536

// Embedding is a dense vector. Its dimensionality is validated against the
// configured dimension at the boundary with Validate.
type Embedding []float32

// Parse decodes the opaque serialized form used by the store
// ("[0.1,0.2,...]"). Whitespace around values is ignored.
func Parse(s string) (Embedding, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, appErr.Invalidf("embedding must be a bracketed list")
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, appErr.Invalidf("embedding is empty")
	}
	parts := strings.Split(body, ",")
	out := make(Embedding, 0, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, appErr.Invalidf("embedding value %d: %v", i, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// String renders the embedding in the store's text form.
func (e Embedding) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// UnmarshalJSON accepts either a JSON array of numbers or the serialized
// string form.
func (e *Embedding) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*e = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := Parse(raw)
		if err != nil {
			return err
		}
		*e = parsed
		return nil
	}
	var values []float32
	if err := json.Unmarshal(data, &values); err != nil {
		return appErr.Invalidf("embedding: %v", err)
	}
	*e = values
	return nil
}

// Validate checks the dimensionality and rejects non-finite components.
func (e Embedding) Validate(dim int) error {
	if len(e) == 0 {
		return appErr.Invalidf("embedding is empty")
	}
	if dim > 0 && len(e) != dim {
		return fmt.Errorf("%w: got %d, want %d", appErr.ErrDimensionMismatch, len(e), dim)
	}
	for i, v := range e {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return appErr.Invalidf("embedding value %d is not finite", i)
		}
	}
	return nil
}

// Metric names a similarity function producing scores in [0,1].
type Metric string

const (
	// MetricCosine is cosine similarity with negative values clamped to 0.
	MetricCosine Metric = "cosine"
	// MetricCosineShifted maps cosine similarity linearly from [-1,1] to [0,1].
	MetricCosineShifted Metric = "cosine_shifted"
	// MetricL2 converts euclidean distance d to 1/(1+d).
	MetricL2 Metric = "l2"
)

func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricCosine, nil
	case MetricCosine, MetricCosineShifted, MetricL2:
		return m, nil
	default:
		return "", appErr.Invalidf("unknown metric %q", s)
	}
}

// Similarity scores a against b under metric m. Both vectors must have the
// same length.
func Similarity(m Metric, a, b Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", appErr.ErrDimensionMismatch, len(a), len(b))
	}
	switch m {
	case MetricL2:
		return 1 / (1 + L2Distance(a, b)), nil
	case MetricCosineShifted:
		return clamp01((Cosine(a, b) + 1) / 2), nil
	default:
		return clamp01(Cosine(a, b)), nil
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector has
// zero magnitude.
func Cosine(a, b Embedding) float64 {
	var dot, normA, normB float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dot += va * vb
		normA += va * va
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func L2Distance(a, b Embedding) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

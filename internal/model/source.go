package model

import (
	"fmt"
	"strings"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// SourceKind identifies the table a search candidate or attachment lives in.
type SourceKind string

const (
	SourceChunk    SourceKind = "chunk"
	SourceFMVector SourceKind = "fm_vector"
	SourceDocument SourceKind = "document"
	SourceInsight  SourceKind = "insight"
)

func ParseSourceKind(s string) (SourceKind, error) {
	switch k := SourceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case SourceChunk, SourceFMVector, SourceDocument, SourceInsight:
		return k, nil
	default:
		return "", appErr.Invalidf("unknown source %q", s)
	}
}

// Ref points at a row in any of the source tables.
type Ref struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseRef decodes the "kind:id" form produced by Ref.String.
func ParseRef(s string) (Ref, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Ref{}, appErr.Invalidf("malformed reference %q", s)
	}
	k, err := ParseSourceKind(kind)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Kind: k, ID: id}, nil
}

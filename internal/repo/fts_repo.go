package repo

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

// ftsTables maps a source kind to the table holding its search_vector.
var ftsTables = map[model.SourceKind]string{
	model.SourceChunk:    "document_chunks",
	model.SourceFMVector: "fm_global_vectors",
}

const ftsLanguage = "english"

// FTSRepo ranks candidates with postgres full-text search. The raw statistic
// is ts_rank_cd over websearch_to_tsquery; rows that do not match the query
// are not returned.
type FTSRepo struct {
	db       *sql.DB
	language string
}

func NewFTSRepo(db *sql.DB) *FTSRepo {
	return &FTSRepo{db: db, language: ftsLanguage}
}

func (r *FTSRepo) Rank(ctx context.Context, text string, candidates []search.Candidate) ([]search.RawRank, error) {
	cleaned := sanitizeFTSQuery(text)
	if cleaned == "" || len(candidates) == 0 {
		return []search.RawRank{}, nil
	}
	byKind := make(map[model.SourceKind][]string)
	for _, c := range candidates {
		if _, ok := ftsTables[c.Ref.Kind]; ok {
			byKind[c.Ref.Kind] = append(byKind[c.Ref.Kind], c.Ref.ID)
		}
	}
	out := make([]search.RawRank, 0)
	for kind, ids := range byKind {
		ranks, err := r.rankTable(ctx, kind, cleaned, ids)
		if err != nil {
			return nil, err
		}
		out = append(out, ranks...)
	}
	return out, nil
}

func (r *FTSRepo) rankTable(ctx context.Context, kind model.SourceKind, text string, ids []string) ([]search.RawRank, error) {
	table := ftsTables[kind]
	query, args, err := sqlx.In(
		"SELECT t.id, ts_rank_cd(t.search_vector, q) FROM "+table+" t, websearch_to_tsquery(?, ?) q "+
			"WHERE t.search_vector @@ q AND t.id IN (?)",
		r.language, text, ids)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]search.RawRank, 0)
	for rows.Next() {
		var id string
		var rank float64
		if err := rows.Scan(&id, &rank); err != nil {
			return nil, err
		}
		out = append(out, search.RawRank{Ref: model.Ref{Kind: kind, ID: id}, Rank: rank})
	}
	return out, rows.Err()
}

// sanitizeFTSQuery keeps letters, digits and the websearch operators
// (quotes and a leading minus); everything else becomes a separator.
func sanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
		case r == '"' || r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

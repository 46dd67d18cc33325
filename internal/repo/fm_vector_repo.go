package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// FMVectorRepo reads the FM Global text, table and figure vectors.
type FMVectorRepo struct {
	db *sql.DB
}

func NewFMVectorRepo(db *sql.DB) *FMVectorRepo {
	return &FMVectorRepo{db: db}
}

func (r *FMVectorRepo) Kind() model.SourceKind {
	return model.SourceFMVector
}

func (r *FMVectorRepo) Candidates(ctx context.Context, q search.CandidateQuery) ([]search.Candidate, error) {
	f := q.Filter
	if f.HasDocumentScope() ||
		(f.DocumentType != "" && f.DocumentType != model.DocumentTypeFMGlobal) {
		return []search.Candidate{}, nil
	}
	var c conds
	if f.ASRSType != "" {
		c.add("asrs_type = ?", string(f.ASRSType))
	}
	cols := "id, asrs_type"
	if q.WithEmbeddings {
		cols += ", embedding"
		c.add("embedding IS NOT NULL")
	}
	base := "SELECT " + cols + " FROM fm_global_vectors"
	seen := make(map[string]struct{})
	out := make([]search.Candidate, 0)
	for _, pool := range candidatePools(c, q, "") {
		query, args := dbutil.Finalize(base+pool.suffix, pool.args)
		items, err := r.scanCandidates(ctx, query, args, q.WithEmbeddings)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if _, ok := seen[item.Ref.ID]; ok {
				continue
			}
			seen[item.Ref.ID] = struct{}{}
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *FMVectorRepo) scanCandidates(ctx context.Context, query string, args []interface{}, withEmbeddings bool) ([]search.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]search.Candidate, 0)
	for rows.Next() {
		var (
			id, asrs string
			emb      pgvector.Vector
		)
		dest := []interface{}{&id, &asrs}
		if withEmbeddings {
			dest = append(dest, &emb)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, search.Candidate{
			Ref:          model.Ref{Kind: model.SourceFMVector, ID: id},
			Embedding:    vector.Embedding(emb.Slice()),
			DocumentType: model.DocumentTypeFMGlobal,
			ASRSType:     model.ASRSType(asrs),
		})
	}
	return out, rows.Err()
}

func (r *FMVectorRepo) Hydrate(ctx context.Context, ids []string) (map[string]model.ResultDetail, error) {
	out := make(map[string]model.ResultDetail, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, content, source_type, asrs_type, table_id, metadata FROM fm_global_vectors WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, content, sourceType, asrs, tableID string
			meta                                   []byte
		)
		if err := rows.Scan(&id, &content, &sourceType, &asrs, &tableID, &meta); err != nil {
			return nil, err
		}
		detail := model.ResultDetail{Content: content, Metadata: map[string]interface{}{}}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &detail.Metadata); err != nil {
				return nil, err
			}
		}
		detail.Metadata["source_type"] = sourceType
		detail.Metadata["asrs_type"] = asrs
		detail.Title = "FM Global 8-34 " + sourceType
		if tableID != "" {
			detail.Metadata["table_id"] = tableID
			detail.Title = "FM Global 8-34 " + tableID
		}
		out[id] = detail
	}
	return out, rows.Err()
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// ChunkRepo reads document chunks joined to their documents. It is the
// search source for SourceChunk.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) Kind() model.SourceKind {
	return model.SourceChunk
}

func (r *ChunkRepo) Candidates(ctx context.Context, q search.CandidateQuery) ([]search.Candidate, error) {
	f := q.Filter
	if f.ASRSType != "" {
		// chunks carry no asrs type
		return []search.Candidate{}, nil
	}
	var c conds
	c.addDocumentScope(f, "d", "d.project_id")
	if len(f.ChunkTypes) > 0 {
		c.add("c.chunk_type = ANY(?)", pq.Array(stringsOf(f.ChunkTypes)))
	}
	if len(f.DocumentIDs) > 0 {
		c.add("c.document_id = ANY(?)", pq.Array(f.DocumentIDs))
	}
	cols := "c.id, c.document_id, c.chunk_type, d.project_id, d.project_ids, " +
		"COALESCE(d.date, d.created_at), d.category, d.document_type"
	if q.WithEmbeddings {
		cols += ", c.embedding"
		c.add("c.embedding IS NOT NULL")
	}
	base := "SELECT " + cols + " FROM document_chunks c JOIN documents d ON d.id = c.document_id"
	seen := make(map[string]struct{})
	out := make([]search.Candidate, 0)
	for _, pool := range candidatePools(c, q, "c") {
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

func (r *ChunkRepo) scanCandidates(ctx context.Context, query string, args []interface{}, withEmbeddings bool) ([]search.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]search.Candidate, 0)
	for rows.Next() {
		var (
			id, docID, chunkType, category, docType string
			projectID                               sql.NullInt64
			projectIDs                              pq.Int64Array
			date                                    time.Time
			emb                                     pgvector.Vector
		)
		dest := []interface{}{&id, &docID, &chunkType, &projectID, &projectIDs, &date, &category, &docType}
		if withEmbeddings {
			dest = append(dest, &emb)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		cand := search.Candidate{
			Ref:          model.Ref{Kind: model.SourceChunk, ID: id},
			DocumentID:   docID,
			ProjectIDs:   []int64(projectIDs),
			Date:         date,
			Category:     model.Category(category),
			DocumentType: model.DocumentType(docType),
			ChunkType:    model.ChunkType(chunkType),
		}
		if projectID.Valid {
			pid := projectID.Int64
			cand.ProjectID = &pid
		}
		if withEmbeddings {
			cand.Embedding = vector.Embedding(emb.Slice())
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

// Hydrate loads display fields for the given chunk ids.
func (r *ChunkRepo) Hydrate(ctx context.Context, ids []string) (map[string]model.ResultDetail, error) {
	out := make(map[string]model.ResultDetail, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT c.id, c.document_id, d.title, c.content, c.chunk_index, c.chunk_type, c.metadata
		FROM document_chunks c JOIN documents d ON d.id = c.document_id WHERE c.id IN (?)`, ids)
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
			id, chunkType string
			chunkIndex    int
			meta          []byte
			detail        model.ResultDetail
		)
		if err := rows.Scan(&id, &detail.DocumentID, &detail.Title, &detail.Content, &chunkIndex, &chunkType, &meta); err != nil {
			return nil, err
		}
		detail.Metadata = map[string]interface{}{}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &detail.Metadata); err != nil {
				return nil, err
			}
		}
		detail.Metadata["chunk_index"] = chunkIndex
		detail.Metadata["chunk_type"] = chunkType
		out[id] = detail
	}
	return out, rows.Err()
}

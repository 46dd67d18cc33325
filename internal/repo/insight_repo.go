package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

const insightColumns = "i.id, i.document_id, COALESCE(i.project_id, d.project_id), i.insight_type, i.title, " +
	"i.description, COALESCE(i.confidence_score, 0), i.resolved, d.title, COALESCE(d.date, d.created_at), i.created_at"

const insightTables = " FROM document_insights i JOIN documents d ON d.id = i.document_id"

var insightSorts = map[string]sortKey{
	"created_at": {expr: "i.created_at", kind: paginate.KindTime},
	"confidence": {expr: "COALESCE(i.confidence_score, 0)", kind: paginate.KindNumber},
}

type InsightRepo struct {
	db *sql.DB
}

func NewInsightRepo(db *sql.DB) *InsightRepo {
	return &InsightRepo{db: db}
}

type InsightListQuery struct {
	Filter search.Filter
	Page   paginate.Options
}

func (r *InsightRepo) ListPage(ctx context.Context, q InsightListQuery) (paginate.Page[model.Insight], error) {
	var scope conds
	scope.addDocumentScope(q.Filter, "d", "COALESCE(i.project_id, d.project_id)")
	if len(q.Filter.DocumentIDs) > 0 {
		scope.add("i.document_id = ANY(?)", pq.Array(q.Filter.DocumentIDs))
	}
	scope.addChunkTypes(q.Filter, "i.document_id")
	if q.Filter.ExcludeResolved {
		scope.add("i.resolved = false")
	}
	return pageQuery[model.Insight]{
		sorts:      insightSorts,
		idExpr:     "i.id",
		selectFrom: "SELECT " + insightColumns + insightTables,
		countFrom:  "SELECT COUNT(*)" + insightTables,
		scope:      scope,
		scan:       scanInsight,
		keyOf:      insightKey,
	}.run(ctx, r.db, q.Page)
}

func insightKey(in model.Insight, sortBy string) paginate.Key {
	if sortBy == "confidence" {
		return paginate.NumberKey(in.ConfidenceScore, in.ID)
	}
	return paginate.TimeKey(in.CreatedAt, in.ID)
}

func scanInsight(rows *sql.Rows) (model.Insight, error) {
	var (
		in        model.Insight
		projectID sql.NullInt64
	)
	if err := rows.Scan(&in.ID, &in.DocumentID, &projectID, &in.InsightType, &in.Title, &in.Description,
		&in.ConfidenceScore, &in.Resolved, &in.DocumentTitle, &in.DocumentDate, &in.CreatedAt); err != nil {
		return in, err
	}
	if projectID.Valid {
		pid := projectID.Int64
		in.ProjectID = &pid
	}
	return in, nil
}

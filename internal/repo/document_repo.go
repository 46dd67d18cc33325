package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/MeganHarrison/alleato-core/internal/model"
	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
	"github.com/MeganHarrison/alleato-core/internal/search"
)

const documentColumns = "d.id, d.source, d.title, d.url, d.summary, d.category, d.document_type, " +
	"d.project_id, d.project_ids, d.date, d.created_at, d.updated_at"

var documentSorts = map[string]sortKey{
	"date":       {expr: "COALESCE(d.date, d.created_at)", kind: paginate.KindTime},
	"created_at": {expr: "d.created_at", kind: paginate.KindTime},
	"title":      {expr: `d.title COLLATE "C"`, kind: paginate.KindText},
}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DocumentListQuery scopes a document listing. Search matches titles
// case-insensitively.
type DocumentListQuery struct {
	Filter search.Filter
	Search string
	Page   paginate.Options
}

func (r *DocumentRepo) ListPage(ctx context.Context, q DocumentListQuery) (paginate.Page[model.Document], error) {
	var scope conds
	scope.addDocumentScope(q.Filter, "d", "d.project_id")
	if len(q.Filter.DocumentIDs) > 0 {
		scope.add("d.id = ANY(?)", pq.Array(q.Filter.DocumentIDs))
	}
	scope.addChunkTypes(q.Filter, "d.id")
	if term := strings.TrimSpace(q.Search); term != "" {
		scope.add(`d.title ILIKE ? ESCAPE '\'`, "%"+escapeLike(term)+"%")
	}
	return pageQuery[model.Document]{
		sorts:      documentSorts,
		idExpr:     "d.id",
		selectFrom: "SELECT " + documentColumns + " FROM documents d",
		countFrom:  "SELECT COUNT(*) FROM documents d",
		scope:      scope,
		scan:       scanDocument,
		keyOf:      documentKey,
	}.run(ctx, r.db, q.Page)
}

func documentKey(doc model.Document, sortBy string) paginate.Key {
	switch sortBy {
	case "created_at":
		return paginate.TimeKey(doc.CreatedAt, doc.ID)
	case "title":
		return paginate.TextKey(doc.Title, doc.ID)
	default:
		return paginate.TimeKey(doc.SortDate(), doc.ID)
	}
}

// GetByID loads a single document.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	where := map[string]interface{}{
		"id":     id,
		"_limit": []uint{0, 1},
	}
	fields := strings.Split(strings.ReplaceAll(documentColumns, "d.", ""), ", ")
	sqlStr, args, err := builder.BuildSelect("documents", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	doc, err := scanDocument(rows)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocument(rows *sql.Rows) (model.Document, error) {
	var (
		doc        model.Document
		category   string
		docType    string
		projectID  sql.NullInt64
		projectIDs pq.Int64Array
		date       sql.NullTime
	)
	if err := rows.Scan(&doc.ID, &doc.Source, &doc.Title, &doc.URL, &doc.Summary, &category, &docType,
		&projectID, &projectIDs, &date, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return doc, err
	}
	doc.Category = model.Category(category)
	doc.DocumentType = model.DocumentType(docType)
	if projectID.Valid {
		pid := projectID.Int64
		doc.ProjectID = &pid
	}
	doc.ProjectIDs = []int64(projectIDs)
	if date.Valid {
		doc.Date = date.Time
	}
	return doc, nil
}

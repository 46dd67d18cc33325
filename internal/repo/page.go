package repo

import (
	"context"
	"database/sql"

	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/pkg/dbutil"
	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// sortKey is one sortable column of a listing.
type sortKey struct {
	expr string
	kind paginate.KeyKind
}

// pageQuery describes one keyset-paginated listing. selectFrom is
// "SELECT cols FROM tables" and countFrom "SELECT COUNT(*) FROM tables".
type pageQuery[T any] struct {
	sorts      map[string]sortKey
	idExpr     string
	selectFrom string
	countFrom  string
	scope      conds
	scan       func(*sql.Rows) (T, error)
	keyOf      func(item T, sortBy string) paginate.Key
}

func (q pageQuery[T]) run(ctx context.Context, db *sql.DB, opts paginate.Options) (paginate.Page[T], error) {
	sk, ok := q.sorts[opts.SortBy]
	if !ok {
		return paginate.Page[T]{}, appErr.Invalidf("unsupported sort_by %q", opts.SortBy)
	}
	if opts.PageSize <= 0 {
		return paginate.Page[T]{}, appErr.Invalidf("page_size must be positive")
	}
	if err := opts.Cursor.Check(opts.SortBy, opts.Dir); err != nil {
		return paginate.Page[T]{}, err
	}
	if opts.Cursor != nil && opts.Cursor.Key.Kind != sk.kind {
		return paginate.Page[T]{}, appErr.Invalidf("cursor key does not match sort_by %q", opts.SortBy)
	}

	countSQL, countArgs := dbutil.Finalize(q.countFrom+q.scope.where(), append([]interface{}(nil), q.scope.args...))
	var total int
	if err := db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return paginate.Page[T]{}, err
	}

	page := q.scope
	page.parts = append([]string(nil), q.scope.parts...)
	page.args = append([]interface{}(nil), q.scope.args...)
	page.addAfter(sk.expr, q.idExpr, opts.Cursor)
	query := q.selectFrom + page.where() + orderBy(sk.expr, q.idExpr, opts.Dir) + " LIMIT ?"
	args := append(page.args, opts.PageSize+1)
	query, args = dbutil.Finalize(query, args)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return paginate.Page[T]{}, err
	}
	defer rows.Close()
	fetched := make([]T, 0, opts.PageSize+1)
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return paginate.Page[T]{}, err
		}
		fetched = append(fetched, item)
	}
	if err := rows.Err(); err != nil {
		return paginate.Page[T]{}, err
	}
	keyOf := func(item T) paginate.Key { return q.keyOf(item, opts.SortBy) }
	return paginate.Finish(fetched, keyOf, opts, total), nil
}

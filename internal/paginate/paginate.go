package paginate

import (
	"sort"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Rows       []T    `json:"rows"`
	NextCursor string `json:"next_cursor,omitempty"`
	TotalCount int    `json:"total_count"`
}

// Compare orders two keys of the same kind: by sort value in dir, then by
// ascending id. It returns -1 when a comes first.
func Compare(a, b Key, dir Direction) int {
	c := compareValue(a, b)
	if dir == Desc {
		c = -c
	}
	if c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

func compareValue(a, b Key) int {
	switch a.Kind {
	case KindTime:
		return cmp3(a.Time < b.Time, a.Time > b.Time)
	case KindText:
		return cmp3(a.Text < b.Text, a.Text > b.Text)
	default:
		return cmp3(a.Num < b.Num, a.Num > b.Num)
	}
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

// After reports whether k sorts strictly after the cursor position.
func After(k, cursor Key, dir Direction) bool {
	return Compare(k, cursor, dir) > 0
}

// Options describe one page request.
type Options struct {
	SortBy   string
	Dir      Direction
	Cursor   *Cursor
	PageSize int
}

// Slice pages through rows that are already ordered by keyOf under
// opts.Dir. It resumes strictly after the cursor key, so a cursor whose row
// has since disappeared still resumes at the next surviving row.
func Slice[T any](rows []T, keyOf func(T) Key, opts Options) (Page[T], error) {
	if opts.PageSize <= 0 {
		return Page[T]{}, appErr.Invalidf("page_size must be positive")
	}
	if err := opts.Cursor.Check(opts.SortBy, opts.Dir); err != nil {
		return Page[T]{}, err
	}
	start := 0
	if opts.Cursor != nil {
		start = sort.Search(len(rows), func(i int) bool {
			return After(keyOf(rows[i]), opts.Cursor.Key, opts.Dir)
		})
	}
	end := start + opts.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	page := Page[T]{
		Rows:       append([]T(nil), rows[start:end]...),
		TotalCount: len(rows),
	}
	if page.Rows == nil {
		page.Rows = []T{}
	}
	if end < len(rows) {
		page.NextCursor = NewCursor(opts.SortBy, opts.Dir, keyOf(rows[end-1])).Encode()
	}
	return page, nil
}

// Finish trims a fetched window of at most PageSize+1 rows to a page and
// sets the next cursor when the extra row proves more rows exist. It serves
// stores that run keyset queries themselves.
func Finish[T any](fetched []T, keyOf func(T) Key, opts Options, total int) Page[T] {
	page := Page[T]{Rows: fetched, TotalCount: total}
	if page.Rows == nil {
		page.Rows = []T{}
	}
	if opts.PageSize > 0 && len(fetched) > opts.PageSize {
		page.Rows = fetched[:opts.PageSize]
		page.NextCursor = NewCursor(opts.SortBy, opts.Dir, keyOf(page.Rows[len(page.Rows)-1])).Encode()
	}
	return page
}

package repo

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/MeganHarrison/alleato-core/internal/paginate"
	"github.com/MeganHarrison/alleato-core/internal/search"
	"github.com/MeganHarrison/alleato-core/internal/vector"
)

// conds accumulates AND-ed predicates written with "?" placeholders; the
// final query goes through dbutil.Finalize.
type conds struct {
	parts []string
	args  []interface{}
}

func (c *conds) add(expr string, args ...interface{}) {
	c.parts = append(c.parts, expr)
	c.args = append(c.args, args...)
}

func (c conds) clone() conds {
	return conds{
		parts: append([]string{}, c.parts...),
		args:  append([]interface{}{}, c.args...),
	}
}

func (c *conds) where() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

// addDocumentScope adds the document-level predicates of f. alias is the
// documents table alias and projectExpr the expression holding the single
// project id.
func (c *conds) addDocumentScope(f search.Filter, alias, projectExpr string) {
	if len(f.ProjectIDs) > 0 {
		c.add("("+projectExpr+" = ANY(?) OR "+alias+".project_ids && ?)",
			pq.Array(f.ProjectIDs), pq.Array(f.ProjectIDs))
	}
	if f.DateFrom != nil {
		c.add("COALESCE("+alias+".date, "+alias+".created_at) >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		c.add("COALESCE("+alias+".date, "+alias+".created_at) <= ?", *f.DateTo)
	}
	if f.Category != "" {
		c.add(alias+".category = ?", string(f.Category))
	}
	if f.DocumentType != "" {
		c.add(alias+".document_type = ?", string(f.DocumentType))
	}
}

// addChunkTypes keeps rows whose document has at least one chunk of the
// filtered types. docIDExpr is the expression holding the document id.
func (c *conds) addChunkTypes(f search.Filter, docIDExpr string) {
	if len(f.ChunkTypes) == 0 {
		return
	}
	c.add("EXISTS (SELECT 1 FROM document_chunks ct WHERE ct.document_id = "+docIDExpr+" AND ct.chunk_type = ANY(?))",
		pq.Array(stringsOf(f.ChunkTypes)))
}

// addAfter adds the keyset predicate that resumes strictly after cur under
// the (key dir, id asc) ordering.
func (c *conds) addAfter(keyExpr, idExpr string, cur *paginate.Cursor) {
	if cur == nil {
		return
	}
	op := "<"
	if cur.Dir == paginate.Asc {
		op = ">"
	}
	v := keyValue(cur.Key)
	c.add("("+keyExpr+" "+op+" ? OR ("+keyExpr+" = ? AND "+idExpr+" > ?))", v, v, cur.Key.ID)
}

func keyValue(k paginate.Key) interface{} {
	switch k.Kind {
	case paginate.KindTime:
		return k.TimeValue()
	case paginate.KindText:
		return k.Text
	default:
		return k.Num
	}
}

func orderBy(keyExpr, idExpr string, dir paginate.Direction) string {
	d := "DESC"
	if dir == paginate.Asc {
		d = "ASC"
	}
	return " ORDER BY " + keyExpr + " " + d + ", " + idExpr + " ASC"
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// escapeLike escapes the LIKE wildcards of a user supplied term.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// poolQuery is the WHERE/ORDER/LIMIT tail of one candidate load.
type poolQuery struct {
	suffix string
	args   []interface{}
}

// candidatePools builds the candidate loads for q over the filtered rows in
// c. With a pool limit, the nearest embeddings and the best full-text
// matches are loaded as two capped pools and unioned by the caller. Without
// one, a single query returns every filtered row. alias prefixes the id,
// embedding and search_vector columns.
func candidatePools(c conds, q search.CandidateQuery, alias string) []poolQuery {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}
	text := ""
	if q.Text != "" {
		text = sanitizeFTSQuery(q.Text)
	}
	if q.Text != "" && text == "" && len(q.Embedding) == 0 {
		// nothing left to match
		return nil
	}
	if q.PoolLimit <= 0 || (len(q.Embedding) == 0 && text == "") {
		return []poolQuery{{suffix: c.where(), args: c.clone().args}}
	}
	var pools []poolQuery
	if len(q.Embedding) > 0 {
		args := append(c.clone().args, pgvector.NewVector(q.Embedding), q.PoolLimit)
		pools = append(pools, poolQuery{
			suffix: c.where() + " ORDER BY " + col("embedding") + " " + distanceOperator(q.Metric) + " ?, " + col("id") + " ASC LIMIT ?",
			args:   args,
		})
	}
	if text != "" {
		lc := c.clone()
		lc.add(col("search_vector")+" @@ websearch_to_tsquery(?, ?)", ftsLanguage, text)
		args := append(lc.args, ftsLanguage, text, q.PoolLimit)
		pools = append(pools, poolQuery{
			suffix: lc.where() + " ORDER BY ts_rank_cd(" + col("search_vector") + ", websearch_to_tsquery(?, ?)) DESC, " + col("id") + " ASC LIMIT ?",
			args:   args,
		})
	}
	return pools
}

// distanceOperator is the pgvector operator ordering rows the same way the
// metric ranks them.
func distanceOperator(m vector.Metric) string {
	if m == vector.MetricL2 {
		return "<->"
	}
	return "<=>"
}

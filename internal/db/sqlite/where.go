package sqlite

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/audiodex/internal/domain/search/filter"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

var columns = map[string]string{
	"tempo":                        "tempo",
	"tuning":                       "tuning",
	"duration":                     "duration",
	pipeline.FieldChordsConfidence: "chord_confidence",
	pipeline.FieldID:               "id",
}

// buildWhere renders the collection scope and filter conditions as a WHERE clause.
// NULL columns fail every comparison, so documents missing a field never match.
func buildWhere(collection string, expr filter.Expression) (string, []any) {
	clauses := []string{"collection = ?"}
	args := []any{collection}

	for _, cond := range expr.Must() {
		col := columns[cond.Key()]
		switch {
		case cond.IsPrefix():
			alts := make([]string, len(cond.Prefixes()))
			for i, p := range cond.Prefixes() {
				// LIKE folds ASCII case, substr compares exactly
				alts[i] = "substr(" + col + ", 1, ?) = ?"
				args = append(args, utf8.RuneCountInString(p), p)
			}
			clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
		case cond.IsRange():
			r := cond.Range()
			if r.GT() != nil {
				clauses = append(clauses, col+" > ?")
				args = append(args, *r.GT())
			}
			if r.GTE() != nil {
				clauses = append(clauses, col+" >= ?")
				args = append(args, *r.GTE())
			}
			if r.LT() != nil {
				clauses = append(clauses, col+" < ?")
				args = append(args, *r.LT())
			}
			if r.LTE() != nil {
				clauses = append(clauses, col+" <= ?")
				args = append(args, *r.LTE())
			}
		}
	}
	return strings.Join(clauses, " AND "), args
}

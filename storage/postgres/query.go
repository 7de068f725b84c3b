package postgres

import (
	"fmt"
	"strings"

	"taxiservice/pkg/search"
)

// whereClause accumulates AND-ed conditions and their positional arguments.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereClause) and(cond string) {
	w.conds = append(w.conds, cond)
}

// search ORs an ILIKE per active filter. columns whitelists the searchable fields.
func (w *whereClause) search(q search.Query, columns map[string]string) error {
	active := q.Active()
	if len(active) == 0 {
		return nil
	}
	parts := make([]string, 0, len(active))
	for _, f := range active {
		col, ok := columns[f.Field]
		if !ok {
			return fmt.Errorf("field %q is not searchable", f.Field)
		}
		parts = append(parts, col+" ILIKE "+w.arg(f.Pattern()))
	}
	w.and("(" + strings.Join(parts, " OR ") + ")")
	return nil
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

package postgres

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func newWhere(args ...any) *whereBuilder {
	return &whereBuilder{args: args}
}

// add appends a predicate. Every "?" in clause is replaced with the next placeholder.
func (w *whereBuilder) add(clause string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(w.clauses, " AND ")
}

// limit renders a LIMIT clause, or nothing for n <= 0.
func (w *whereBuilder) limit(n int) string {
	if n <= 0 {
		return ""
	}
	w.args = append(w.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(w.args))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(strings.TrimSpace(s))
}

func likePattern(search string) string {
	return "%" + escapeLike(search) + "%"
}

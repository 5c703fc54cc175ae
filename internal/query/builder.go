package query

import (
	"fmt"
	"strings"
)

// clause - одно условие WHERE; placeholder %d заменяется номером аргумента
type clause struct {
	sql string
	arg any
}

// Statement - скомпилированное условие выборки
type Statement struct {
	Where   string
	Args    []any
	OrderBy string
}

// clauses перечисляет условия фильтра в фиксированном порядке,
// пропуская незаданные.
func (f Filter) clauses() []clause {
	var cs []clause
	if f.Status != "" {
		cs = append(cs, clause{sql: "status = $%d", arg: string(f.Status)})
	}
	if f.Category != "" {
		cs = append(cs, clause{sql: "category = $%d", arg: string(f.Category)})
	}
	if f.City != "" {
		cs = append(cs, clause{sql: "LOWER(city) = LOWER($%d)", arg: f.City})
	}
	if f.From != nil {
		cs = append(cs, clause{sql: "(created_at AT TIME ZONE 'UTC')::date >= $%d::date", arg: f.From.Format(dateLayout)})
	}
	if f.To != nil {
		cs = append(cs, clause{sql: "(created_at AT TIME ZONE 'UTC')::date <= $%d::date", arg: f.To.Format(dateLayout)})
	}
	return cs
}

// Build сворачивает условия фильтра в параметризованный WHERE и ORDER BY.
// Значения никогда не подставляются в текст запроса.
func Build(f Filter) Statement {
	cs := f.clauses()
	stmt := Statement{
		Args:    make([]any, 0, len(cs)),
		OrderBy: orderBy(f.Ordering),
	}
	if len(cs) == 0 {
		return stmt
	}

	parts := make([]string, 0, len(cs))
	for i, c := range cs {
		parts = append(parts, fmt.Sprintf(c.sql, i+1))
		stmt.Args = append(stmt.Args, c.arg)
	}
	stmt.Where = " WHERE " + strings.Join(parts, " AND ")
	return stmt
}

// NextArg возвращает номер следующего позиционного параметра
func (s Statement) NextArg() int {
	return len(s.Args) + 1
}

func orderBy(o Ordering) string {
	if o == OrderCreatedAsc {
		return "created_at ASC, id ASC"
	}
	return "created_at DESC, id DESC"
}

package schema

import (
	"fmt"
	"strings"
)

// Dialect selects the bind-parameter syntax of generated statements.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// SelectColumns is the column list used by every SELECT built here.
func (t Table) SelectColumns() string {
	return strings.Join(t.ColumnNames(), ", ")
}

// UpsertSQL inserts a row or replaces every non-key column of an existing row.
func (t Table) UpsertSQL(d Dialect) string {
	names := t.ColumnNames()
	ph := make([]string, len(names))
	set := make([]string, 0, len(names)-1)
	for i, n := range names {
		ph[i] = d.Placeholder(i + 1)
		if n != ColumnID {
			set = append(set, fmt.Sprintf("%s = excluded.%s", n, n))
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		t.Name, strings.Join(names, ", "), strings.Join(ph, ", "), strings.Join(set, ", "))
}

// SelectSinceSQL selects rows with updated_at strictly after the parameter.
func (t Table) SelectSinceSQL(d Dialect) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE updated_at > %s ORDER BY updated_at, id",
		t.SelectColumns(), t.Name, d.Placeholder(1))
}

// SelectByIDSQL selects a single row by id.
func (t Table) SelectByIDSQL(d Dialect) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE id = %s", t.SelectColumns(), t.Name, d.Placeholder(1))
}

// SelectAllSQL selects every row, newest first.
func (t Table) SelectAllSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY updated_at DESC, id", t.SelectColumns(), t.Name)
}

// DeleteByIDSQL deletes a row by id.
func (t Table) DeleteByIDSQL(d Dialect) string {
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", t.Name, d.Placeholder(1))
}

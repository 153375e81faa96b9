package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/growkeeper/internal/common"
	"github.com/dmitrijs2005/growkeeper/internal/schema"
)

func lookupTable(name string) (schema.Table, error) {
	t, ok := schema.Lookup(name)
	if !ok {
		names := make([]string, 0, len(schema.Tables()))
		for _, t := range schema.Tables() {
			names = append(names, t.Name)
		}
		return schema.Table{}, fmt.Errorf("%w %q, expected one of: %s", schema.ErrUnknownTable, name, strings.Join(names, ", "))
	}
	return t, nil
}

// formatRow renders a row on one line in column order, id first.
func formatRow(t schema.Table, r schema.Row) string {
	var b strings.Builder
	b.WriteString(r.ID())
	for _, c := range t.Columns {
		if c.Name == schema.ColumnID {
			continue
		}
		v := r[c.Name]
		if v == nil {
			v = "-"
		}
		fmt.Fprintf(&b, " %s=%v", c.Name, v)
	}
	return b.String()
}

// List prints every row of a table, most recently updated first.
func (a *App) List(ctx context.Context, table string) error {
	t, err := lookupTable(table)
	if err != nil {
		return err
	}

	rs, err := a.rows.List(ctx, t)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		fmt.Fprintln(a.out, "No rows")
		return nil
	}
	for _, r := range rs {
		fmt.Fprintln(a.out, formatRow(t, r))
	}
	return nil
}

// Delete removes a row and records a tombstone for the next push.
func (a *App) Delete(ctx context.Context, table, id string) error {
	t, err := lookupTable(table)
	if err != nil {
		return err
	}

	if _, err := a.rows.Row(ctx, t, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%s %s not found", t.Name, id)
		}
		return err
	}

	if err := a.rows.RecordDeletion(ctx, t, id); err != nil {
		return err
	}

	a.logger.Info(ctx, "row deleted", "table", t.Name, "id", id)
	fmt.Fprintf(a.out, "Deleted %s %s\n", t.Name, id)
	return nil
}

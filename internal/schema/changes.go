package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Tombstone records that a row was deleted. DeletedAt is set by whichever
// side wrote the tombstone and is omitted on the wire when empty.
type Tombstone struct {
	ID        string `json:"id"`
	TableName string `json:"table_name"`
	DeletedAt string `json:"deleted_at,omitempty"`
}

// Changes is the body of both /sync/pull responses and /sync/push requests:
// one array per changed table, an optional "deleted" array and, on pull, the
// server "timestamp". Empty tables are left out when encoding.
type Changes struct {
	Tables    map[string][]Row
	Deleted   []Tombstone
	Timestamp string
}

// Add appends rows for a table.
func (c *Changes) Add(table string, rows ...Row) {
	if len(rows) == 0 {
		return
	}
	if c.Tables == nil {
		c.Tables = make(map[string][]Row)
	}
	c.Tables[table] = append(c.Tables[table], rows...)
}

// RowCount is the number of rows across all tables.
func (c Changes) RowCount() int {
	n := 0
	for _, rows := range c.Tables {
		n += len(rows)
	}
	return n
}

// Empty reports whether there are no rows and no tombstones.
func (c Changes) Empty() bool {
	return c.RowCount() == 0 && len(c.Deleted) == 0
}

// MarshalJSON flattens the tables into the top-level object.
func (c Changes) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(c.Tables)+2)
	for name, rows := range c.Tables {
		if len(rows) > 0 {
			obj[name] = rows
		}
	}
	if len(c.Deleted) > 0 {
		obj[DeletedKey] = c.Deleted
	}
	if c.Timestamp != "" {
		obj[TimestampKey] = c.Timestamp
	}
	return json.Marshal(obj)
}

// UnmarshalJSON is strict: every key must be a tracked table, "deleted" or
// "timestamp", and every row must normalize against its table. A payload
// that does not match fails as a whole instead of dropping parts of it.
func (c *Changes) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("changes: expected object")
	}

	out := Changes{}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := obj[key]
		switch key {
		case DeletedKey:
			if err := json.Unmarshal(raw, &out.Deleted); err != nil {
				return fmt.Errorf("changes: deleted: %w", err)
			}
			for _, d := range out.Deleted {
				if d.ID == "" || d.TableName == "" {
					return fmt.Errorf("changes: deleted: %w", ErrMissingID)
				}
			}
		case TimestampKey:
			if err := json.Unmarshal(raw, &out.Timestamp); err != nil {
				return fmt.Errorf("changes: timestamp: %w", err)
			}
		default:
			t, ok := Lookup(key)
			if !ok {
				return fmt.Errorf("changes: %s: %w", key, ErrUnknownTable)
			}
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			var rows []map[string]any
			if err := dec.Decode(&rows); err != nil {
				return fmt.Errorf("changes: %s: %w", key, err)
			}
			for _, r := range rows {
				nr, err := t.Normalize(r)
				if err != nil {
					return fmt.Errorf("changes: %w", err)
				}
				out.Add(key, nr)
			}
		}
	}

	*c = out
	return nil
}

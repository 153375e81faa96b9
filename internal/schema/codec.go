package schema

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/dmitrijs2005/growkeeper/internal/timex"
)

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrMissingID     = errors.New("row has no id")
	ErrInvalidValue  = errors.New("invalid column value")
)

// Normalize validates a decoded row against the table and returns a full row
// holding every column. Unknown columns are rejected, numbers are coerced to
// the column kind and timestamps are rewritten in the canonical layout.
// Missing nullable columns become nil and missing required columns take the
// zero value of their kind, except id and updated_at which must be present.
// Other timestamps that are missing or empty default to updated_at.
func (t Table) Normalize(in map[string]any) (Row, error) {
	for name := range in {
		if _, ok := t.Column(name); !ok {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, name, ErrUnknownColumn)
		}
	}

	out := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		v, present := in[c.Name]
		if s, ok := v.(string); ok && s == "" && c.Kind == Timestamp {
			present = false
		}
		if !present || v == nil {
			if c.Name == ColumnID || c.Name == ColumnUpdatedAt {
				return nil, fmt.Errorf("%s: missing %s: %w", t.Name, c.Name, ErrMissingID)
			}
			out[c.Name] = zeroValue(c.Kind)
			continue
		}
		nv, err := coerce(c.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		out[c.Name] = nv
	}

	if out.ID() == "" {
		return nil, fmt.Errorf("%s: %w", t.Name, ErrMissingID)
	}
	t.fillTimestamps(out)
	return out, nil
}

// fillTimestamps replaces empty timestamp columns with updated_at.
func (t Table) fillTimestamps(r Row) {
	updated := r.UpdatedAt()
	if updated == "" {
		return
	}
	for _, c := range t.Columns {
		if c.Kind != Timestamp {
			continue
		}
		if s, _ := r[c.Name].(string); s == "" {
			r[c.Name] = updated
		}
	}
}

// Args returns the row values in column order, ready for an upsert.
func (t Table) Args(r Row) []any {
	args := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		args[i] = r[c.Name]
	}
	return args
}

// ScanRow reads the current row of rs, which must select t's columns in
// declaration order (see SelectColumns).
func (t Table) ScanRow(rs *sql.Rows) (Row, error) {
	raw := make([]any, len(t.Columns))
	ptrs := make([]any, len(t.Columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rs.Scan(ptrs...); err != nil {
		return nil, err
	}

	out := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		v := raw[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		if v == nil {
			out[c.Name] = nil
			continue
		}
		if s, ok := v.(string); ok && s == "" && c.Kind == Timestamp {
			out[c.Name] = ""
			continue
		}
		nv, err := coerce(c.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		out[c.Name] = nv
	}
	t.fillTimestamps(out)
	return out, nil
}

func zeroValue(k Kind) any {
	switch k {
	case NullableText, NullableReal:
		return nil
	case Integer:
		return int64(0)
	case Real:
		return float64(0)
	default:
		return ""
	}
}

func coerce(k Kind, v any) (any, error) {
	switch k {
	case Text, NullableText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T: %w", v, ErrInvalidValue)
		}
		return s, nil
	case Timestamp:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want timestamp, got %T: %w", v, ErrInvalidValue)
		}
		ts, err := timex.NormalizeTimestamp(s)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidValue)
		}
		return ts, nil
	case Integer:
		return toInt64(v)
	case Real, NullableReal:
		return toFloat64(v)
	default:
		return nil, fmt.Errorf("kind %d: %w", k, ErrInvalidValue)
	}
}

func toInt64(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("want integer, got %v: %w", n, ErrInvalidValue)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("want integer, got %s: %w", n, ErrInvalidValue)
		}
		return i, nil
	case bool:
		if n {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("want integer, got %q: %w", n, ErrInvalidValue)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("want integer, got %T: %w", v, ErrInvalidValue)
	}
}

func toFloat64(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("want number, got %s: %w", n, ErrInvalidValue)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, fmt.Errorf("want number, got %q: %w", n, ErrInvalidValue)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("want number, got %T: %w", v, ErrInvalidValue)
	}
}

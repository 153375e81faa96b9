// Package schema describes the fixed set of tables that take part in
// synchronization. Client and server both consume these descriptors
// generically: the orchestrator and the remote store never hard-code a
// per-table column list.
package schema

// Kind is the storage class of a column.
type Kind int

const (
	Text Kind = iota
	NullableText
	Integer
	Real
	NullableReal
	Timestamp
)

// Nullable reports whether NULL is a legal value for the kind.
func (k Kind) Nullable() bool {
	return k == NullableText || k == NullableReal
}

// Column is a single column of a tracked table.
type Column struct {
	Name string
	Kind Kind
}

// Table is a tracked table descriptor. Every table has a text primary key
// "id" and a "updated_at" timestamp.
type Table struct {
	Name    string
	Columns []Column
}

// Row is a table row as a generic column -> value map. Values are string,
// int64, float64 or nil after normalization.
type Row map[string]any

const (
	Locations          = "locations"
	Plots              = "plots"
	Crops              = "crops"
	Records            = "records"
	RecordPhotos       = "record_photos"
	Observations       = "observations"
	ObservationEntries = "observation_entries"

	// DeletedKey is the payload key carrying tombstones on the wire.
	DeletedKey = "deleted"
	// TimestampKey is the payload key carrying the server clock on the wire.
	TimestampKey = "timestamp"

	ColumnID        = "id"
	ColumnUpdatedAt = "updated_at"
	ColumnFilePath  = "file_path"
	ColumnRemoteKey = "remote_key"
)

var tables = []Table{
	{Name: Locations, Columns: []Column{
		{"id", Text},
		{"name", Text},
		{"description", Text},
		{"environment_type", Integer},
		{"latitude", NullableReal},
		{"longitude", NullableReal},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: Plots, Columns: []Column{
		{"id", Text},
		{"location_id", Text},
		{"name", Text},
		{"cover_type", Integer},
		{"soil_type", Integer},
		{"memo", Text},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: Crops, Columns: []Column{
		{"id", Text},
		{"cultivation_name", Text},
		{"name", Text},
		{"variety", Text},
		{"plot_id", NullableText},
		{"parent_crop_id", NullableText},
		{"memo", Text},
		{"start_date", Text},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: Records, Columns: []Column{
		{"id", Text},
		{"crop_id", NullableText},
		{"location_id", NullableText},
		{"plot_id", NullableText},
		{"activity_type", Integer},
		{"date", Text},
		{"note", Text},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: RecordPhotos, Columns: []Column{
		{"id", Text},
		{"record_id", Text},
		{"file_path", Text},
		{"remote_key", NullableText},
		{"sort_order", Integer},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: Observations, Columns: []Column{
		{"id", Text},
		{"location_id", NullableText},
		{"plot_id", NullableText},
		{"category", Integer},
		{"date", Text},
		{"memo", Text},
		{"created_at", Timestamp},
		{"updated_at", Timestamp},
	}},
	{Name: ObservationEntries, Columns: []Column{
		{"id", Text},
		{"observation_id", Text},
		{"key", Text},
		{"value", Real},
		{"unit", Text},
		{"updated_at", Timestamp},
	}},
}

var byName = func() map[string]Table {
	m := make(map[string]Table, len(tables))
	for _, t := range tables {
		m[t.Name] = t
	}
	return m
}()

// Tables returns the tracked tables in dependency order (parents first).
func Tables() []Table {
	out := make([]Table, len(tables))
	copy(out, tables)
	return out
}

// Lookup returns the descriptor for a table name.
func Lookup(name string) (Table, bool) {
	t, ok := byName[name]
	return t, ok
}

// Column returns the named column of t.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ID returns the row id, or "" when absent.
func (r Row) ID() string {
	s, _ := r[ColumnID].(string)
	return s
}

// UpdatedAt returns the row's updated_at, or "" when absent.
func (r Row) UpdatedAt() string {
	s, _ := r[ColumnUpdatedAt].(string)
	return s
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

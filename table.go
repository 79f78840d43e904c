package tempograph

// A Perspective is a named point-in-time view descriptor at which an
// algorithm's results are evaluated. An unwindowed perspective observes all
// graph history up to (and including) its timestamp; a windowed perspective
// observes only the window (Timestamp-Size, Timestamp].
//
// Perspectives are produced by the TemporalGraph during Transform/Execute and
// are read-only to the Table.
type Perspective struct {
	// Epoch milliseconds, UTC.
	Timestamp int64
	// Nil for unwindowed perspectives.
	Window *Window
}

// FormattedTime renders the perspective's timestamp at full granularity of
// the default pattern. It is the value of the flattened "timestamp" column.
func (p Perspective) FormattedTime() string { return FormatTime(p.Timestamp) }

// Covers reports whether an update at time t is visible at this perspective.
func (p Perspective) Covers(t int64) bool {
	if t > p.Timestamp {
		return false
	}
	if p.Window != nil && t <= p.Timestamp-p.Window.Size {
		return false
	}
	return true
}

// A Window bounds the time range a perspective aggregates over, identified by
// its size in epoch milliseconds.
type Window struct {
	Size int64
}

// A Row is the ordered list of scalar values of one result record. Rows are
// owned by their perspective and consumed exactly once during flattening.
type Row struct {
	Values []any
}

// NewRow returns a Row over the given values.
func NewRow(values ...any) Row { return Row{Values: values} }

// A PerspectiveResult pairs one perspective with the result rows evaluated at
// it.
type PerspectiveResult struct {
	Perspective Perspective
	Rows        []Row
}

// A Table collects raw per-perspective algorithm results and flattens them
// into one uniform DataFrame. A Table is transient: Execute builds a fresh
// one per call.
//
// The zero value is an empty table ready for use.
type Table struct {
	results []PerspectiveResult
	strict  bool
}

// NewTable returns a Table over the given per-perspective results, kept in
// their production order.
func NewTable(results ...PerspectiveResult) *Table {
	return &Table{results: results}
}

// Append adds one perspective's results, preserving production order.
func (t *Table) Append(p Perspective, rows ...Row) {
	t.results = append(t.results, PerspectiveResult{Perspective: p, Rows: rows})
}

// Results returns the per-perspective results in production order.
func (t *Table) Results() []PerspectiveResult { return t.results }

// Strict returns a table over the same results that refuses to flatten a mix
// of windowed and unwindowed perspectives, failing with a
// *SchemaMismatchError instead of adopting the last-seen schema.
func (t *Table) Strict() *Table {
	return &Table{results: t.results, strict: true}
}

// Flatten merges all perspectives into one tabular structure, iterating them
// in production order (never re-sorted).
//
// For a windowed perspective the output schema is (timestamp, window,
// *columns) and each row becomes (formatted time, window size, row values);
// for an unwindowed perspective the "window" column is absent. An empty table
// flattens to an empty frame with no columns.
//
// When windowed and unwindowed perspectives are mixed in one table, rows from
// differently shaped perspectives cannot share a schema. The default
// behaviour, kept for compatibility with the original analytics pipeline, is
// that the last perspective examined determines the column header; a strict
// table (see Strict) rejects the mix instead.
func (t *Table) Flatten(columns ...string) (*DataFrame, error) {
	df := &DataFrame{}
	for i, res := range t.results {
		windowed := res.Perspective.Window != nil
		if t.strict && i > 0 {
			if prev := t.results[i-1].Perspective.Window != nil; prev != windowed {
				return nil, &SchemaMismatchError{Perspective: i}
			}
		}

		timestamp := res.Perspective.FormattedTime()
		if windowed {
			df.Columns = append([]string{"timestamp", "window"}, columns...)
			size := res.Perspective.Window.Size
			for _, r := range res.Rows {
				df.Records = append(df.Records, prepend(r.Values, timestamp, size))
			}
		} else {
			df.Columns = append([]string{"timestamp"}, columns...)
			for _, r := range res.Rows {
				df.Records = append(df.Records, prepend(r.Values, timestamp))
			}
		}
	}
	return df, nil
}

// A DataFrame is the uniform tabular output of Flatten: a column header and
// row-oriented records.
type DataFrame struct {
	Columns []string
	Records [][]any
}

func prepend(values []any, head ...any) []any {
	record := make([]any, 0, len(head)+len(values))
	record = append(record, head...)
	return append(record, values...)
}

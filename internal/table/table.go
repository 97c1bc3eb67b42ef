// Package table implements the time-indexed, column-oriented dataset every Source fills.
//
// A Table keeps a single ascending index of unique timestamps. Columns are added with
// InsertColumn, which seeds the index when the table is empty and otherwise aligns the
// new series onto the existing index by nearest timestamp. Cells that could not be
// aligned hold NaN and are reported as absent by the accessors.
package table

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// Table is an ordered mapping from timestamp to a record of named float columns.
// It is not safe for concurrent mutation.
type Table struct {
	index   []time.Time
	columns map[string][]float64
	order   []string
}

// New returns an empty table.
func New() *Table {
	return &Table{
		index:   nil,
		columns: make(map[string][]float64),
		order:   nil,
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.index)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return len(t.index) == 0
}

// Index returns a copy of the timestamp index.
func (t *Table) Index() []time.Time {
	out := make([]time.Time, len(t.index))
	copy(out, t.index)

	return out
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)

	return out
}

// HasColumn reports whether the column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]

	return ok
}

// Column returns a copy of the column aligned with Index. Absent cells are NaN.
func (t *Table) Column(name string) ([]float64, bool) {
	values, ok := t.columns[name]
	if !ok {
		return nil, false
	}

	out := make([]float64, len(values))
	copy(out, values)

	return out, true
}

// InsertColumn adds or replaces a column.
//
// When the table is empty the series seeds the index. Otherwise each existing timestamp
// inside [min(timestamps), max(timestamps)] takes the value of the nearest new timestamp,
// an exact midpoint resolving to the earlier one, and every row outside that range is
// left absent. New timestamps never extend the index.
func (t *Table) InsertColumn(name string, timestamps []time.Time, values []float64) error {
	if len(timestamps) != len(values) {
		return errors.Newf(errors.ErrCodeLengthMismatch,
			"column %s has %d timestamps but %d values", name, len(timestamps), len(values))
	}

	if len(timestamps) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "column %s has no values", name)
	}

	series := sortSeries(timestamps, values)

	for i := 1; i < len(series.index); i++ {
		if series.index[i].Equal(series.index[i-1]) {
			return errors.Newf(errors.ErrCodeDuplicateIndex,
				"duplicate timestamp %s in column %s", series.index[i].Format(time.RFC3339Nano), name)
		}
	}

	if t.Empty() {
		t.index = series.index
		for _, existing := range t.order {
			t.columns[existing] = nanColumn(len(t.index))
		}

		t.setColumn(name, series.values)

		return nil
	}

	aligned := nanColumn(len(t.index))
	first := series.index[0]
	last := series.index[len(series.index)-1]

	for row, ts := range t.index {
		if ts.Before(first) || ts.After(last) {
			continue
		}

		aligned[row] = series.values[series.nearest(ts)]
	}

	t.setColumn(name, aligned)

	return nil
}

// Append records a full row at ts, keeping the index sorted. Columns missing from the
// record are NaN in the new row; unknown columns are created with NaN history.
func (t *Table) Append(ts time.Time, record map[string]float64) error {
	pos := sort.Search(len(t.index), func(i int) bool { return !t.index[i].Before(ts) })
	if pos < len(t.index) && t.index[pos].Equal(ts) {
		return errors.Newf(errors.ErrCodeDuplicateIndex, "duplicate timestamp %s", ts.Format(time.RFC3339Nano))
	}

	for name := range record {
		if !t.HasColumn(name) {
			t.setColumn(name, nanColumn(len(t.index)))
		}
	}

	t.index = insertAt(t.index, pos, ts)

	for _, name := range t.order {
		value, ok := record[name]
		if !ok {
			value = math.NaN()
		}

		t.columns[name] = insertAt(t.columns[name], pos, value)
	}

	return nil
}

// Value returns the cell at exactly ts. Absent cells report false.
func (t *Table) Value(column string, ts time.Time) (float64, bool) {
	values, ok := t.columns[column]
	if !ok {
		return 0, false
	}

	row, ok := t.row(ts)
	if !ok || math.IsNaN(values[row]) {
		return 0, false
	}

	return values[row], true
}

// FirstValid returns the earliest timestamp with a present value in column.
func (t *Table) FirstValid(column string) (time.Time, bool) {
	values, ok := t.columns[column]
	if !ok {
		return time.Time{}, false
	}

	for i, v := range values {
		if !math.IsNaN(v) {
			return t.index[i], true
		}
	}

	return time.Time{}, false
}

// LastValid returns the latest timestamp with a present value in column.
func (t *Table) LastValid(column string) (time.Time, bool) {
	values, ok := t.columns[column]
	if !ok {
		return time.Time{}, false
	}

	for i := len(values) - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return t.index[i], true
		}
	}

	return time.Time{}, false
}

// NearestBefore returns the latest present value at or before ts.
func (t *Table) NearestBefore(column string, ts time.Time) (time.Time, float64, bool) {
	values, ok := t.columns[column]
	if !ok {
		return time.Time{}, 0, false
	}

	pos := sort.Search(len(t.index), func(i int) bool { return t.index[i].After(ts) })
	for i := pos - 1; i >= 0; i-- {
		if !math.IsNaN(values[i]) {
			return t.index[i], values[i], true
		}
	}

	return time.Time{}, 0, false
}

// NearestAfter returns the earliest present value at or after ts.
func (t *Table) NearestAfter(column string, ts time.Time) (time.Time, float64, bool) {
	values, ok := t.columns[column]
	if !ok {
		return time.Time{}, 0, false
	}

	pos := sort.Search(len(t.index), func(i int) bool { return !t.index[i].Before(ts) })
	for i := pos; i < len(values); i++ {
		if !math.IsNaN(values[i]) {
			return t.index[i], values[i], true
		}
	}

	return time.Time{}, 0, false
}

// Between returns the index timestamps within [start, end]. A zero bound is open.
func (t *Table) Between(start, end time.Time) []time.Time {
	out := make([]time.Time, 0, len(t.index))

	for _, ts := range t.index {
		if !start.IsZero() && ts.Before(start) {
			continue
		}

		if !end.IsZero() && ts.After(end) {
			break
		}

		out = append(out, ts)
	}

	return out
}

// Row returns the present cells at exactly ts.
func (t *Table) Row(ts time.Time) (map[string]float64, bool) {
	row, ok := t.row(ts)
	if !ok {
		return nil, false
	}

	record := make(map[string]float64, len(t.order))

	for _, name := range t.order {
		if v := t.columns[name][row]; !math.IsNaN(v) {
			record[name] = v
		}
	}

	return record, true
}

func (t *Table) row(ts time.Time) (int, bool) {
	pos := sort.Search(len(t.index), func(i int) bool { return !t.index[i].Before(ts) })
	if pos < len(t.index) && t.index[pos].Equal(ts) {
		return pos, true
	}

	return 0, false
}

func (t *Table) setColumn(name string, values []float64) {
	if _, ok := t.columns[name]; !ok {
		t.order = append(t.order, name)
	}

	t.columns[name] = values
}

type series struct {
	index  []time.Time
	values []float64
}

func sortSeries(timestamps []time.Time, values []float64) series {
	s := series{
		index:  make([]time.Time, len(timestamps)),
		values: make([]float64, len(values)),
	}
	copy(s.index, timestamps)
	copy(s.values, values)

	sort.Stable(s)

	return s
}

func (s series) Len() int           { return len(s.index) }
func (s series) Less(i, j int) bool { return s.index[i].Before(s.index[j]) }
func (s series) Swap(i, j int) {
	s.index[i], s.index[j] = s.index[j], s.index[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// nearest returns the position of the timestamp closest to ts; ties pick the earlier one.
func (s series) nearest(ts time.Time) int {
	pos := sort.Search(len(s.index), func(i int) bool { return !s.index[i].Before(ts) })

	switch {
	case pos == 0:
		return 0
	case pos == len(s.index):
		return len(s.index) - 1
	}

	if s.index[pos].Sub(ts) < ts.Sub(s.index[pos-1]) {
		return pos
	}

	return pos - 1
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func insertAt[T any](s []T, pos int, v T) []T {
	var zero T

	s = append(s, zero)
	copy(s[pos+1:], s[pos:])
	s[pos] = v

	return s
}

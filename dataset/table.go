// Copyright (c) 2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package dataset is the in-memory table the per-file loader produces and the
// aggregator concatenates. Cells are typed by their column and nullable.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Kind is the value type of a column.
type Kind uint8

const (
	KindNumber Kind = iota
	KindString
	KindDuration
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDuration:
		return "duration"
	default:
		return "invalid"
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Value is one cell. Durations are stored as nanoseconds in Num.
type Value struct {
	Num   float64
	Str   string
	Valid bool
}

// Null is the missing value of every kind.
var Null = Value{}

// Number returns a numeric cell; NaN becomes Null.
func Number(v float64) Value {
	if math.IsNaN(v) {
		return Null
	}
	return Value{Num: v, Valid: true}
}

func String(s string) Value {
	return Value{Str: s, Valid: true}
}

func Duration(d time.Duration) Value {
	return Value{Num: float64(d), Valid: true}
}

// Float returns the numeric value, NaN when null.
func (v Value) Float() float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Num
}

func (v Value) Duration() time.Duration {
	return time.Duration(v.Num)
}

// Format renders the value for a column of the given kind; null renders empty.
func (v Value) Format(k Kind) string {
	if !v.Valid {
		return ""
	}
	switch k {
	case KindString:
		return v.Str
	case KindDuration:
		return strconv.FormatInt(int64(v.Num), 10)
	default:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
}

// Table is a row-oriented table with a fixed column set.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table. Column names must be unique.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(t.columns, columns)
	for i, c := range columns {
		if _, ok := t.index[c.Name]; ok {
			return nil, errors.Errorf("duplicate column %q", c.Name)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// Columns returns a copy of the column definitions.
func (t *Table) Columns() []Column {
	ret := make([]Column, len(t.columns))
	copy(ret, t.columns)
	return ret
}

func (t *Table) Len() int {
	return len(t.rows)
}

// ColumnIndex returns the position of a column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Column returns the definition of a named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Append adds a row; it must have one value per column.
func (t *Table) Append(row ...Value) error {
	if len(row) != len(t.columns) {
		return errors.Errorf("row has %d values, table has %d columns", len(row), len(t.columns))
	}
	r := make([]Value, len(row))
	copy(r, row)
	t.rows = append(t.rows, r)
	return nil
}

// Row returns row i. The slice must not be modified.
func (t *Table) Row(i int) []Value {
	return t.rows[i]
}

// Get returns the cell of row i in the named column; unknown columns are null.
func (t *Table) Get(i int, name string) Value {
	c, ok := t.index[name]
	if !ok {
		return Null
	}
	return t.rows[i][c]
}

// clone returns an empty table with the same columns.
func (t *Table) clone() *Table {
	nt, _ := NewTable(t.columns...)
	return nt
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(t *Table, i int) bool) *Table {
	nt := t.clone()
	for i, r := range t.rows {
		if keep(t, i) {
			nt.rows = append(nt.rows, r)
		}
	}
	return nt
}

// Exclude drops rows whose numeric column equals one of values.
func (t *Table) Exclude(column string, values ...float64) (*Table, error) {
	c, ok := t.index[column]
	if !ok {
		return nil, errors.Errorf("unknown column %q", column)
	}
	if t.columns[c].Kind == KindString {
		return nil, errors.Errorf("column %q is not numeric", column)
	}
	drop := make(map[float64]struct{}, len(values))
	for _, v := range values {
		drop[v] = struct{}{}
	}
	return t.Filter(func(t *Table, i int) bool {
		v := t.rows[i][c]
		if !v.Valid {
			return true
		}
		_, found := drop[v.Num]
		return !found
	}), nil
}

// SortBy sorts the rows stably by the given columns. Nulls sort last.
func (t *Table) SortBy(columns ...string) error {
	idx := make([]int, len(columns))
	for i, name := range columns {
		c, ok := t.index[name]
		if !ok {
			return errors.Errorf("unknown column %q", name)
		}
		idx[i] = c
	}
	sort.SliceStable(t.rows, func(a, b int) bool {
		for _, c := range idx {
			if cmp := compareValues(t.columns[c].Kind, t.rows[a][c], t.rows[b][c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	return nil
}

func compareValues(k Kind, a, b Value) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	if k == KindString {
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		}
		return 0
	}
	switch {
	case a.Num < b.Num:
		return -1
	case a.Num > b.Num:
		return 1
	}
	return 0
}

// Concat stacks tables. The result has the union of all columns in first-seen
// order; cells of columns a table does not have are null. A column whose kind
// differs between tables becomes a string column, with the other cells
// rendered by Value.Format.
func Concat(tables ...*Table) (*Table, error) {
	var columns []Column
	seen := map[string]int{}
	for _, t := range tables {
		for _, c := range t.columns {
			if i, ok := seen[c.Name]; ok {
				if columns[i].Kind != c.Kind {
					columns[i].Kind = KindString
				}
				continue
			}
			seen[c.Name] = len(columns)
			columns = append(columns, c)
		}
	}

	out, err := NewTable(columns...)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		mapping := make([]int, len(columns))
		for i, c := range columns {
			if j, ok := t.index[c.Name]; ok {
				mapping[i] = j
			} else {
				mapping[i] = -1
			}
		}
		for _, r := range t.rows {
			nr := make([]Value, len(columns))
			for i, j := range mapping {
				if j < 0 {
					continue
				}
				nr[i] = r[j]
				if from := t.columns[j].Kind; from != columns[i].Kind && r[j].Valid {
					nr[i] = String(r[j].Format(from))
				}
			}
			out.rows = append(out.rows, nr)
		}
	}
	return out, nil
}

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

package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, cols []Column, rows ...[]Value) *Table {
	tbl, err := NewTable(cols...)
	require.Nil(t, err)
	for _, r := range rows {
		require.Nil(t, tbl.Append(r...))
	}
	return tbl
}

func TestNewTableDuplicateColumn(t *testing.T) {
	_, err := NewTable(Column{"A", KindNumber}, Column{"A", KindString})
	assert.NotNil(t, err)
}

func TestAppendChecksWidth(t *testing.T) {
	tbl := newTestTable(t, []Column{{"A", KindNumber}, {"B", KindString}})
	assert.NotNil(t, tbl.Append(Number(1)))
	assert.Nil(t, tbl.Append(Number(1), String("x")))
	assert.Equal(t, 1, tbl.Len())
}

func TestNumberNaNIsNull(t *testing.T) {
	assert.False(t, Number(math.NaN()).Valid)
	assert.True(t, math.IsNaN(Null.Float()))
	assert.Equal(t, "", Null.Format(KindNumber))
	assert.Equal(t, "1.5", Number(1.5).Format(KindNumber))
	assert.Equal(t, "1500", Duration(1500*time.Nanosecond).Format(KindDuration))
}

func TestConcatColumnSuperset(t *testing.T) {
	a := newTestTable(t, []Column{{"Source", KindString}, {"Spreading Factor", KindNumber}},
		[]Value{String("a.log"), Number(12)})
	b := newTestTable(t, []Column{{"Source", KindString}, {"Bits/s", KindNumber}},
		[]Value{String("b.log"), Number(292)},
		[]Value{String("b.log"), Number(5468)})

	c, err := Concat(a, b)
	require.Nil(t, err)
	assert.Equal(t, []Column{{"Source", KindString}, {"Spreading Factor", KindNumber}, {"Bits/s", KindNumber}},
		c.Columns())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 12.0, c.Get(0, "Spreading Factor").Num)
	assert.False(t, c.Get(0, "Bits/s").Valid)
	assert.False(t, c.Get(1, "Spreading Factor").Valid)
	assert.Equal(t, 5468.0, c.Get(2, "Bits/s").Num)

}

func TestConcatWidensMixedKinds(t *testing.T) {
	a := newTestTable(t, []Column{{"Sender Address", KindNumber}, {"Line", KindNumber}},
		[]Value{Null, Number(4)},
		[]Value{Number(7), Number(5)})
	b := newTestTable(t, []Column{{"Sender Address", KindString}, {"Line", KindNumber}},
		[]Value{String("0a:01"), Number(4)})

	c, err := Concat(a, b)
	require.Nil(t, err)
	col, ok := c.Column("Sender Address")
	require.True(t, ok)
	assert.Equal(t, KindString, col.Kind)
	assert.False(t, c.Get(0, "Sender Address").Valid)
	assert.Equal(t, String("7"), c.Get(1, "Sender Address"))
	assert.Equal(t, String("0a:01"), c.Get(2, "Sender Address"))

	line, _ := c.Column("Line")
	assert.Equal(t, KindNumber, line.Kind)
	assert.Equal(t, 4.0, c.Get(2, "Line").Num)
}

func TestSortByNullsLast(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Source", KindString}, {"Line", KindNumber}},
		[]Value{String("b.log"), Number(3)},
		[]Value{String("a.log"), Number(9)},
		[]Value{Null, Number(1)},
		[]Value{String("a.log"), Number(2)})
	require.Nil(t, tbl.SortBy("Source", "Line"))

	var got []string
	for i := 0; i < tbl.Len(); i++ {
		got = append(got, tbl.Get(i, "Source").Str+":"+tbl.Get(i, "Line").Format(KindNumber))
	}
	assert.Equal(t, []string{"a.log:2", "a.log:9", "b.log:3", ":1"}, got)
	assert.NotNil(t, tbl.SortBy("Nope"))
}

func TestExclude(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Messages/Node", KindNumber}, {"Mode", KindString}},
		[]Value{Number(1), String("m")},
		[]Value{Number(10), String("m")},
		[]Value{Null, String("m")},
		[]Value{Number(5), String("m")})
	out, err := tbl.Exclude("Messages/Node", 10, 5)
	require.Nil(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 4, tbl.Len())

	_, err = tbl.Exclude("Mode", 1)
	assert.NotNil(t, err)
	_, err = tbl.Exclude("Missing", 1)
	assert.NotNil(t, err)
}

func TestSample(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Line", KindNumber}})
	for i := 0; i < 100; i++ {
		require.Nil(t, tbl.Append(Number(float64(i))))
	}

	s1 := tbl.Sample(10, rand.New(rand.NewSource(7)))
	s2 := tbl.Sample(10, rand.New(rand.NewSource(7)))
	assert.Equal(t, 10, s1.Len())
	for i := 0; i < s1.Len(); i++ {
		assert.Equal(t, s1.Get(i, "Line"), s2.Get(i, "Line"))
		if i > 0 {
			assert.Less(t, s1.Get(i-1, "Line").Num, s1.Get(i, "Line").Num)
		}
	}

	assert.Equal(t, 100, tbl.Sample(1000, rand.New(rand.NewSource(1))).Len())
	assert.Equal(t, 0, tbl.Sample(0, rand.New(rand.NewSource(1))).Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Simulation Time", KindDuration}, {"Mode", KindString}, {"Distance", KindNumber}},
		[]Value{Duration(1500 * time.Millisecond), String("SF12/125kHz/51B"), Number(0)},
		[]Value{Duration(0), Null, Null})

	fn := filepath.Join(t.TempDir(), "df.d2d")
	require.Nil(t, tbl.SaveFile(fn))
	loaded, err := LoadFile(fn)
	require.Nil(t, err)

	assert.Equal(t, tbl.Columns(), loaded.Columns())
	assert.Equal(t, tbl.Len(), loaded.Len())
	for i := 0; i < tbl.Len(); i++ {
		assert.Equal(t, tbl.Row(i), loaded.Row(i))
	}

	_, err = Load(bytes.NewReader([]byte("not snappy")))
	assert.NotNil(t, err)
}

func TestWriteCSV(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Simulation Time", KindDuration}, {"Event", KindString}, {"Distance", KindNumber}},
		[]Value{Duration(42), String("TX"), Null},
		[]Value{Duration(43), String("RX"), Number(12.5)})

	var buf bytes.Buffer
	require.Nil(t, tbl.WriteCSV(&buf))
	assert.Equal(t, "Simulation Time,Event,Distance\n42,TX,\n43,RX,12.5\n", buf.String())
}

func TestSummary(t *testing.T) {
	tbl := newTestTable(t, []Column{{"Source", KindString}, {"Event", KindString}, {"Mode", KindString},
		{"Distance Labels", KindString}},
		[]Value{String("a.log"), String("TX"), String("m"), Null},
		[]Value{String("a.log"), String("RX"), String("m"), String("<500")},
		[]Value{String("b.log"), String("RX"), Null, String("<500")})

	s := Summarize(tbl)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, map[string]int{"a.log": 2, "b.log": 1}, s.Sources)
	assert.Equal(t, map[string]int{"TX": 1, "RX": 2}, s.Events)
	assert.Equal(t, map[string]int{"m": 2, NoneKey: 1}, s.Modes)
	assert.Equal(t, map[string]int{"<500": 2, NoneKey: 1}, s.DistanceLabels)

	fn := filepath.Join(t.TempDir(), "summary.json")
	require.Nil(t, s.SaveFile(fn))
	data, err := os.ReadFile(fn)
	require.Nil(t, err)
	var loaded Summary
	require.Nil(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, 3, loaded.Rows)
	assert.NotEmpty(t, loaded.FileTime)
}

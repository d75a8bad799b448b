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
	"encoding/gob"
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// fileMagic starts every saved table, after snappy framing.
const fileMagic = "d2deval-table/1"

type tableData struct {
	Magic   string
	Columns []Column
	Rows    [][]Value
}

// Save writes the table as a snappy-compressed gob stream.
func (t *Table) Save(w io.Writer) error {
	sw := snappy.NewBufferedWriter(w)
	err := gob.NewEncoder(sw).Encode(&tableData{Magic: fileMagic, Columns: t.columns, Rows: t.rows})
	if err != nil {
		_ = sw.Close()
		return errors.Wrap(err, "encode table")
	}
	return sw.Close()
}

// Load reads a table written by Save.
func Load(r io.Reader) (*Table, error) {
	var data tableData
	if err := gob.NewDecoder(snappy.NewReader(r)).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode table")
	}
	if data.Magic != fileMagic {
		return nil, errors.Errorf("not a saved table (magic %q)", data.Magic)
	}
	t, err := NewTable(data.Columns...)
	if err != nil {
		return nil, err
	}
	for i, r := range data.Rows {
		if len(r) != len(t.columns) {
			return nil, errors.Errorf("row %d has %d values, table has %d columns", i, len(r), len(t.columns))
		}
	}
	t.rows = data.Rows
	return t, nil
}

// SaveFile saves the table to a file.
func (t *Table) SaveFile(fn string) error {
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrapf(err, "create %s", fn)
	}
	if err = t.Save(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "save %s", fn)
	}
	return f.Close()
}

// LoadFile loads a table saved with SaveFile.
func LoadFile(fn string) (*Table, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", fn)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", fn)
	}
	return t, nil
}

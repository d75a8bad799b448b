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

// Package runlog turns one simulator log file into an annotated table. A log
// mixes node position declarations with a comma separated event table; the
// positions are extracted first, the remaining lines are read as the table and
// every event is then joined with its run parameters and node positions.
package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/scheme"
	. "github.com/lorad2d/d2deval/types"
)

// FileTables holds what is read from one log: the annotated events and the
// declared node positions.
type FileTables struct {
	Events    *dataset.Table
	Positions *dataset.Table
}

// LoadFile runs the whole per-file transform on one simulator log. Any error
// is a *FileError naming the path.
func LoadFile(path string, s *scheme.Scheme) (*FileTables, error) {
	logger.Infof("Loading %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	ft, err := Load(path, data, s)
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	logger.Debugf("%s: %d rows, %d nodes", filepath.Base(path), ft.Events.Len(), ft.Positions.Len())
	return ft, nil
}

// Load transforms the contents of the log file at path. Only the base name of
// path is used, for the run parameters and the Source column.
func Load(path string, data []byte, s *scheme.Scheme) (*FileTables, error) {
	rp, err := s.ParseFilename(path)
	if err != nil {
		return nil, err
	}

	logger.Debugf("Getting positions")
	positions, lines, err := ExtractPositions(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	et, err := LoadEvents(bytes.NewReader(data), NewLineSet(lines))
	if err != nil {
		return nil, err
	}

	records, err := Enrich(s, rp, positions, et.Events)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	events, err := ToTable(source, et, rp, records)
	if err != nil {
		return nil, err
	}
	pt, err := PositionsTable(source, rp, positions)
	if err != nil {
		return nil, err
	}
	return &FileTables{Events: events, Positions: pt}, nil
}

// PositionsTable lists the declared node positions of one run, ordered by
// address: Address, X, Y, then the run parameters and Source. Nodes that
// never appear in an event are listed too.
func PositionsTable(source string, rp scheme.RunParams, positions PositionMap) (*dataset.Table, error) {
	params := rp.Params()
	columns := []dataset.Column{
		{Name: ColAddress, Kind: dataset.KindNumber},
		{Name: ColX, Kind: dataset.KindNumber},
		{Name: ColY, Kind: dataset.KindNumber},
	}
	columns = append(columns, paramColumns(params)...)
	columns = append(columns, dataset.Column{Name: ColSource, Kind: dataset.KindString})

	t, err := dataset.NewTable(columns...)
	if err != nil {
		return nil, errors.Wrap(err, "build positions table")
	}

	addrs := make([]NodeAddr, 0, len(positions))
	for addr := range positions {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	pv := paramValues(params)
	for _, addr := range addrs {
		pos := positions[addr]
		row := []dataset.Value{
			dataset.Number(float64(addr)),
			dataset.Number(float64(pos.X)),
			dataset.Number(float64(pos.Y)),
		}
		row = append(row, pv...)
		row = append(row, dataset.String(source))
		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func paramColumns(params []scheme.Param) []dataset.Column {
	columns := make([]dataset.Column, len(params))
	for i, p := range params {
		columns[i] = dataset.Column{Name: p.Column, Kind: dataset.KindNumber}
		if p.Kind != scheme.IntField {
			columns[i].Kind = dataset.KindString
		}
	}
	return columns
}

func paramValues(params []scheme.Param) []dataset.Value {
	values := make([]dataset.Value, len(params))
	for i, p := range params {
		if p.Kind == scheme.IntField {
			values[i] = dataset.Number(float64(p.Int))
		} else {
			values[i] = dataset.String(p.Str)
		}
	}
	return values
}

// ToTable lays out enriched records as a dataset table: the log's own columns
// in header order, then the run parameters and the derived columns.
func ToTable(source string, et *EventTable, rp scheme.RunParams, records []Record) (*dataset.Table, error) {
	extra := make(map[string]ExtraColumn, len(et.Extra))
	extraIdx := make(map[string]int, len(et.Extra))
	for i, x := range et.Extra {
		extra[x.Name] = x
		extraIdx[x.Name] = i
	}

	var columns []dataset.Column
	for _, name := range et.Header {
		columns = append(columns, dataset.Column{Name: name, Kind: headerColumnKind(name, extra)})
	}
	params := rp.Params()
	columns = append(columns, paramColumns(params)...)
	columns = append(columns,
		dataset.Column{Name: ColMode, Kind: dataset.KindString},
		dataset.Column{Name: ColSenderPosX, Kind: dataset.KindNumber},
		dataset.Column{Name: ColSenderPosY, Kind: dataset.KindNumber},
		dataset.Column{Name: ColReceiverPosX, Kind: dataset.KindNumber},
		dataset.Column{Name: ColReceiverPosY, Kind: dataset.KindNumber},
		dataset.Column{Name: ColDistance, Kind: dataset.KindNumber},
		dataset.Column{Name: ColDistanceLabels, Kind: dataset.KindString},
		dataset.Column{Name: ColSource, Kind: dataset.KindString},
		dataset.Column{Name: ColLine, Kind: dataset.KindNumber},
	)

	t, err := dataset.NewTable(columns...)
	if err != nil {
		return nil, errors.Wrap(err, "build table")
	}

	pv := paramValues(params)
	row := make([]dataset.Value, len(columns))
	for _, rec := range records {
		i := 0
		for _, name := range et.Header {
			row[i] = headerValue(name, &rec, extra, extraIdx)
			i++
		}
		i += copy(row[i:], pv)

		row[i] = dataset.Null
		if rec.HasMode {
			row[i] = dataset.String(rec.Mode)
		}
		row[i+1] = dataset.Number(rec.SenderX)
		row[i+2] = dataset.Number(rec.SenderY)
		row[i+3] = dataset.Number(rec.ReceiverX)
		row[i+4] = dataset.Number(rec.ReceiverY)
		row[i+5] = dataset.Number(rec.Distance)
		row[i+6] = dataset.Null
		if rec.HasLabel {
			row[i+6] = dataset.String(rec.DistLabel)
		}
		row[i+7] = dataset.String(source)
		row[i+8] = dataset.Number(float64(rec.Line))

		if err := t.Append(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func headerColumnKind(name string, extra map[string]ExtraColumn) dataset.Kind {
	switch name {
	case ColSimulationTime:
		return dataset.KindDuration
	case ColEvent:
		return dataset.KindString
	case ColReceiverId, ColSenderId, ColPacketId:
		return dataset.KindNumber
	}
	if extra[name].Numeric {
		return dataset.KindNumber
	}
	return dataset.KindString
}

func headerValue(name string, rec *Record, extra map[string]ExtraColumn, extraIdx map[string]int) dataset.Value {
	switch name {
	case ColSimulationTime:
		return dataset.Duration(rec.SimDuration)
	case ColEvent:
		return dataset.String(string(rec.Kind))
	case ColReceiverId:
		return dataset.Number(float64(rec.Receiver))
	case ColSenderId:
		return dataset.Number(float64(rec.Sender))
	case ColPacketId:
		return dataset.Number(float64(rec.Packet))
	}

	v := rec.Extra[extraIdx[name]]
	if v == "" {
		return dataset.Null
	}
	if extra[name].Numeric {
		return dataset.Number(parseFloatOrNaN(v))
	}
	return dataset.String(v)
}

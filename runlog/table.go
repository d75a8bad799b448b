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

package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/pkg/errors"

	. "github.com/lorad2d/d2deval/types"
)

var requiredColumns = []string{ColSimulationTime, ColEvent, ColReceiverId, ColPacketId, ColSenderId}

// Event is one data row of the event table.
type Event struct {
	Line     int // 1-based source line
	Kind     EventKind
	Packet   PacketId
	Sender   NodeAddr
	Receiver NodeAddr
	SimTime  string   // raw Simulation Time value
	Extra    []string // values of EventTable.Extra, in order
}

// ExtraColumn is a table column the loader does not interpret.
type ExtraColumn struct {
	Name    string
	Numeric bool // every non-empty value parses as a number
	index   int
}

// EventTable is the parsed table section of a log.
type EventTable struct {
	Header []string
	Extra  []ExtraColumn
	Events []Event
}

type rawEvent struct {
	SimTime  string `csv:"Simulation Time"`
	Event    string `csv:"Event"`
	Receiver string `csv:"Receiver ID"`
	Packet   string `csv:"Packet ID"`
	Sender   string `csv:"Sender ID"`
}

// positionedReader records the stream line of the last record read.
type positionedReader struct {
	r    *csv.Reader
	line int
}

func (pr *positionedReader) Read() ([]string, error) {
	record, err := pr.r.Read()
	if err == nil {
		pr.line, _ = pr.r.FieldPos(0)
	}
	return record, err
}

// LoadEvents parses the lines of r that are not in skip as a comma separated
// table with a header row.
func LoadEvents(r io.Reader, skip LineSet) (*EventTable, error) {
	lf := newLineFilter(r, skip)
	cr := csv.NewReader(lf)
	cr.TrimLeadingSpace = true
	pr := &positionedReader{r: cr}

	header, err := pr.Read()
	if err == io.EOF {
		return nil, &TableFormatError{Reason: "no event table header"}
	} else if err != nil {
		return nil, tableError(lf, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, &TableFormatError{Line: lf.sourceLine(pr.line),
			Reason: fmt.Sprintf("event table header lacks column(s) %s", strings.Join(missing, ", "))}
	}

	dec, err := csvutil.NewDecoder(pr, header...)
	if err != nil {
		return nil, &TableFormatError{Line: lf.sourceLine(pr.line), Reason: err.Error()}
	}

	et := &EventTable{Header: header}
	for i, name := range header {
		if !isRequiredColumn(name) {
			et.Extra = append(et.Extra, ExtraColumn{Name: name, Numeric: true, index: i})
		}
	}

	for {
		var raw rawEvent
		if err = dec.Decode(&raw); err == io.EOF {
			break
		} else if err != nil {
			return nil, tableError(lf, err)
		}

		ev, err := raw.event(lf.sourceLine(pr.line))
		if err != nil {
			return nil, err
		}
		record := dec.Record()
		ev.Extra = make([]string, len(et.Extra))
		for j, x := range et.Extra {
			ev.Extra[j] = strings.TrimSpace(record[x.index])
		}
		et.Events = append(et.Events, ev)
	}

	et.inferExtraKinds()
	return et, nil
}

func (et *EventTable) inferExtraKinds() {
	for j := range et.Extra {
		for _, ev := range et.Events {
			if v := ev.Extra[j]; v != "" {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					et.Extra[j].Numeric = false
					break
				}
			}
		}
	}
}

func (raw *rawEvent) event(line int) (Event, error) {
	ev := Event{
		Line:    line,
		Kind:    EventKind(strings.TrimSpace(raw.Event)),
		SimTime: strings.TrimSpace(raw.SimTime),
	}
	if ev.Kind == InvalidEventKind {
		return ev, &TableFormatError{Line: line, Reason: "empty " + ColEvent}
	}

	var ok bool
	if ev.Packet, ok = parsePacketId(raw.Packet); !ok {
		return ev, &TableFormatError{Line: line, Reason: fmt.Sprintf("invalid %s %q", ColPacketId, raw.Packet)}
	}
	if ev.Sender, ok = ParseNodeAddr(raw.Sender); !ok {
		return ev, &TableFormatError{Line: line, Reason: fmt.Sprintf("invalid %s %q", ColSenderId, raw.Sender)}
	}
	if ev.Receiver, ok = ParseNodeAddr(raw.Receiver); !ok {
		return ev, &TableFormatError{Line: line, Reason: fmt.Sprintf("invalid %s %q", ColReceiverId, raw.Receiver)}
	}
	return ev, nil
}

// parsePacketId accepts "7" and the float spelling "7.0".
func parsePacketId(s string) (PacketId, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxUint64 {
		return 0, false
	}
	return PacketId(f), true
}

func tableError(lf *lineFilter, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		line := pe.Line
		reason := pe.Err.Error()
		if errors.Is(pe.Err, csv.ErrFieldCount) {
			line = pe.StartLine
			reason = "row column count does not match the header"
		}
		return &TableFormatError{Line: lf.sourceLine(line), Reason: reason}
	}
	return errors.Wrap(err, "read event table")
}

func missingColumns(header []string) []string {
	var missing []string
	for _, col := range requiredColumns {
		found := false
		for _, h := range header {
			if h == col {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, col)
		}
	}
	return missing
}

func isRequiredColumn(name string) bool {
	for _, col := range requiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

func parseFloatOrNaN(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

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
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/scheme"
	. "github.com/lorad2d/d2deval/types"
)

const scenarioLog = "Position: x=10, y=20, addr=1.0\n" +
	"Simulation Time,Event,Receiver ID,Packet ID,Sender ID,Current Seed\n" +
	"+1000000.0ns,TX,,7,1.0,42\n" +
	"+2000000.0ns,RX,1.0,7,,42\n"

func writeLog(t *testing.T, name string, content string) string {
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestLoadFileScenario(t *testing.T) {
	fn := writeLog(t, "100_1000_868_12_1_125000_51_10_42.log", scenarioLog)
	ft, err := LoadFile(fn, scheme.Default())
	require.NoError(t, err)
	tbl := ft.Events
	require.Equal(t, 2, tbl.Len())

	rx := 1
	assert.Equal(t, "RX", tbl.Get(rx, ColEvent).Str)
	assert.Equal(t, 1.0, tbl.Get(rx, ColSenderId).Float())
	assert.Equal(t, 10.0, tbl.Get(rx, ColSenderPosX).Float())
	assert.Equal(t, 20.0, tbl.Get(rx, ColSenderPosY).Float())
	assert.Equal(t, 0.0, tbl.Get(rx, ColDistance).Float())
	assert.Equal(t, "<500", tbl.Get(rx, ColDistanceLabels).Str)
	assert.Equal(t, 2*time.Millisecond, tbl.Get(rx, ColSimulationTime).Duration())
	assert.Equal(t, "SF12/125kHz/51B", tbl.Get(rx, ColMode).Str)
	assert.Equal(t, "100_1000_868_12_1_125000_51_10_42.log", tbl.Get(rx, ColSource).Str)
	assert.Equal(t, 4.0, tbl.Get(rx, ColLine).Float())
	assert.Equal(t, 42.0, tbl.Get(rx, "Seed").Float())
	assert.Equal(t, 12.0, tbl.Get(rx, "Spreading Factor").Float())

	// a transmission has no receiver, so nothing to measure
	tx := 0
	assert.False(t, tbl.Get(tx, ColReceiverId).Valid)
	assert.False(t, tbl.Get(tx, ColDistance).Valid)
	assert.False(t, tbl.Get(tx, ColDistanceLabels).Valid)

	c, ok := tbl.Column(ColCurrentSeed)
	require.True(t, ok)
	assert.Equal(t, dataset.KindNumber, c.Kind)

	var names []string
	for _, c := range tbl.Columns()[:6] {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{ColSimulationTime, ColEvent, ColReceiverId, ColPacketId, ColSenderId, ColCurrentSeed}, names)
}

func TestLoadFileDanglingPacket(t *testing.T) {
	content := "Position: x=10, y=20, addr=1.0\n" +
		"Simulation Time,Event,Receiver ID,Packet ID,Sender ID,Current Seed\n" +
		"+1000000.0ns,TX,,7,1.0,42\n" +
		"+2000000.0ns,RX,1.0,9,,42\n"
	fn := writeLog(t, "100_1000_868_12_1_125000_51_10_42.log", content)

	_, err := LoadFile(fn, scheme.Default())
	require.Error(t, err)

	var fe *FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fn, fe.Path)

	var de *DanglingPacketError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, PacketId(9), de.Packet)
	assert.Equal(t, 4, de.Line)
	assert.Contains(t, err.Error(), "packet 9")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(writeLog(t, "100_1000_868_12_1_125000_51_10.log", scenarioLog), scheme.Default())
	var ffe *scheme.FilenameFormatError
	assert.True(t, errors.As(err, &ffe))

	_, err = LoadFile(filepath.Join(t.TempDir(), "100_1000_868_12_1_125000_51_10_42.log"), scheme.Default())
	var fe *FileError
	assert.True(t, errors.As(err, &fe))

	bad := strings.Replace(scenarioLog, "+2000000.0ns", "2000000.0", 1)
	_, err = LoadFile(writeLog(t, "100_1000_868_12_1_125000_51_10_42.log", bad), scheme.Default())
	var te *MalformedTimestampError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 4, te.Line)
	assert.Equal(t, "2000000.0", te.Value)

	bad = "Position: x=10, y=20\n" + scenarioLog
	_, err = LoadFile(writeLog(t, "100_1000_868_12_1_125000_51_10_42.log", bad), scheme.Default())
	var pe *MalformedPositionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.Line)
}

func TestLoadRowCountPreserved(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n")
	rows := 0
	for p := 0; p < 20; p++ {
		sb.WriteString("Position: x=1, y=1, addr=" + itoa(p) + "\n")
		sb.WriteString("+" + itoa(p) + "ns,TX,," + itoa(p) + "," + itoa(p) + "\n")
		sb.WriteString("+" + itoa(p) + "ns,RX," + itoa(p+1) + "," + itoa(p) + ",\n")
		sb.WriteString("+" + itoa(p) + "ns,FI," + itoa(p+2) + "," + itoa(p) + ",\n")
		rows += 3
	}

	ft, err := Load("100_1000_868_7_1_125000_222_10_1.log", []byte(sb.String()), scheme.Default())
	require.NoError(t, err)
	assert.Equal(t, rows, ft.Events.Len())
	assert.Equal(t, "SF7/125kHz/222B", ft.Events.Get(0, ColMode).Str)
	assert.Equal(t, 20, ft.Positions.Len())
}

func TestLoadUnclassifiedMode(t *testing.T) {
	ft, err := Load("100_1000_868_9_1_125000_51_10_42.log", []byte(scenarioLog), scheme.Default())
	require.NoError(t, err)
	assert.False(t, ft.Events.Get(0, ColMode).Valid)
}

func TestLoadPositionsTable(t *testing.T) {
	content := "Position: x=300, y=400, addr=3\n" +
		"Position: x=10, y=20, addr=1.0\n" +
		"Position: x=0, y=0, addr=2\n" +
		"Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n" +
		"+1ns,TX,,7,1\n" +
		"Position: x=11, y=21, addr=1\n" +
		"+2ns,RX,2,7,\n"
	ft, err := Load("100_1000_868_12_1_125000_51_10_42.log", []byte(content), scheme.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, ft.Events.Len())

	pt := ft.Positions
	require.Equal(t, 3, pt.Len(), "one row per node, including node 3 which sends nothing")
	var names []string
	for _, c := range pt.Columns()[:4] {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{ColAddress, ColX, ColY, "Nodes"}, names)

	assert.Equal(t, 1.0, pt.Get(0, ColAddress).Float())
	assert.Equal(t, 11.0, pt.Get(0, ColX).Float(), "last declaration wins")
	assert.Equal(t, 21.0, pt.Get(0, ColY).Float())
	assert.Equal(t, 3.0, pt.Get(2, ColAddress).Float())
	assert.Equal(t, 400.0, pt.Get(2, ColY).Float())
	assert.Equal(t, 42.0, pt.Get(2, "Seed").Float())
	assert.Equal(t, "100_1000_868_12_1_125000_51_10_42.log", pt.Get(2, ColSource).Str)
}

func TestExtractPositions(t *testing.T) {
	input := "some preamble\n" +
		"Position: x=10, y=20, addr=1.0\n" +
		"Position: X=-5, Y=7, ID=2\n" +
		"Simulation Time,Event\n" +
		"Position: x=1, y=2, addr=1\n"
	positions, lines, err := ExtractPositions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 5}, lines)
	assert.Len(t, positions, 2)

	p, ok := positions.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, Position{X: 1, Y: 2}, p)

	p, ok = positions.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, Position{X: -5, Y: 7}, p)

	_, ok = positions.Lookup(3)
	assert.False(t, ok)
	_, ok = positions.Lookup(InvalidNodeAddr)
	assert.False(t, ok)
}

func TestExtractPositionsMalformed(t *testing.T) {
	for _, line := range []string{
		"Position: x=10, y=20",
		"Position: x=10, y=20, addr=1, extra",
		"Position: x=ten, y=20, addr=1",
		"Position: x=10, z=20, addr=1",
		"Position: x=10, y=20, addr=abc",
		"Position: 10, y=20, addr=1",
		"Position: x=1.5, y=20, addr=1",
	} {
		_, _, err := ExtractPositions(strings.NewReader("header\n" + line + "\n"))
		var pe *MalformedPositionError
		if assert.True(t, errors.As(err, &pe), line) {
			assert.Equal(t, 2, pe.Line)
			assert.Equal(t, line, pe.Text)
		}
	}
}

func TestLoadEventsColumnMismatch(t *testing.T) {
	input := "Position: x=0, y=0, addr=1\n" +
		"Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n" +
		"Position: x=3, y=4, addr=2\n" +
		"+1ns,TX,,1,1\n" +
		"+2ns,RX,2,1\n"
	positions, lines, err := ExtractPositions(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, positions, 2)

	_, err = LoadEvents(strings.NewReader(input), NewLineSet(lines))
	var te *TableFormatError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 5, te.Line)
}

func TestLoadEvents(t *testing.T) {
	input := "Simulation Time, Event, Receiver ID, Packet ID, Sender ID, Note, Rssi\n" +
		"   +1ns,  TX,    ,  1,  1, a, -80\n" +
		"\n" +
		"   +2ns,  RX,   2,  1,   , b,\n" +
		"   +3ns,  FS,   3,1.0,   , , -91.5\n"
	et, err := LoadEvents(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, et.Events, 3)
	assert.Equal(t, []string{ColSimulationTime, ColEvent, ColReceiverId, ColPacketId, ColSenderId, "Note", "Rssi"}, et.Header)

	require.Len(t, et.Extra, 2)
	assert.Equal(t, "Note", et.Extra[0].Name)
	assert.False(t, et.Extra[0].Numeric)
	assert.Equal(t, "Rssi", et.Extra[1].Name)
	assert.True(t, et.Extra[1].Numeric)

	ev := et.Events[2]
	assert.Equal(t, 5, ev.Line)
	assert.Equal(t, EventSensitivity, ev.Kind)
	assert.Equal(t, PacketId(1), ev.Packet)
	assert.Equal(t, NodeAddr(3), ev.Receiver)
	assert.False(t, ev.Sender.Valid())
	assert.Equal(t, []string{"", "-91.5"}, ev.Extra)
	assert.False(t, et.Events[0].Receiver.Valid())
}

func TestLoadEventsFormatErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":           "",
		"missing column":  "Simulation Time,Event,Receiver ID,Packet ID\n+1ns,TX,,1\n",
		"bad packet":      "Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n+1ns,TX,,x,1\n",
		"negative packet": "Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n+1ns,TX,,-1,1\n",
		"bad sender":      "Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n+1ns,TX,,1,node\n",
		"empty event":     "Simulation Time,Event,Receiver ID,Packet ID,Sender ID\n+1ns,,,1,1\n",
	} {
		_, err := LoadEvents(strings.NewReader(input), nil)
		var te *TableFormatError
		assert.True(t, errors.As(err, &te), name)
	}
}

func TestLineFilter(t *testing.T) {
	input := "a\nskip\nb\n\nskip\nc"
	lf := newLineFilter(strings.NewReader(input), NewLineSet([]int{2, 5}))
	output, err := io.ReadAll(lf)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n\nc", string(output))
	assert.Equal(t, 1, lf.sourceLine(1))
	assert.Equal(t, 3, lf.sourceLine(2))
	assert.Equal(t, 4, lf.sourceLine(3))
	assert.Equal(t, 6, lf.sourceLine(4))
}

func TestReconstructSenders(t *testing.T) {
	events := []Event{
		{Line: 2, Kind: EventRx, Packet: 1, Sender: InvalidNodeAddr, Receiver: 5},
		{Line: 3, Kind: EventTx, Packet: 1, Sender: 3, Receiver: InvalidNodeAddr},
		{Line: 4, Kind: EventTx, Packet: 1, Sender: 4, Receiver: InvalidNodeAddr},
		{Line: 5, Kind: EventWrongState, Packet: 1, Sender: 9, Receiver: 6},
		{Line: 6, Kind: EventTx, Packet: 2, Sender: 8, Receiver: InvalidNodeAddr},
		{Line: 7, Kind: EventInterference, Packet: 2, Sender: InvalidNodeAddr, Receiver: 3},
	}
	out, err := ReconstructSenders(events)
	require.NoError(t, err)
	require.Len(t, out, len(events))

	assert.Equal(t, NodeAddr(3), out[0].Sender)
	assert.Equal(t, NodeAddr(3), out[1].Sender)
	assert.Equal(t, NodeAddr(4), out[2].Sender)
	assert.Equal(t, NodeAddr(3), out[3].Sender)
	assert.Equal(t, NodeAddr(8), out[5].Sender)
	assert.False(t, events[0].Sender.Valid())

	_, err = ReconstructSenders(append(events, Event{Line: 8, Kind: EventRx, Packet: 3}))
	var de *DanglingPacketError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, PacketId(3), de.Packet)
	assert.Equal(t, 8, de.Line)
}

func TestParseSimTime(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"+1000000.0ns": time.Millisecond,
		"12ns":         12,
		"+0ns":         0,
		"+1.5e+09ns":   1500 * time.Millisecond,
		"+9.2e18ns":    time.Duration(9.2e18),
	} {
		d, err := ParseSimTime(1, in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, d, in)
	}

	for _, in := range []string{"", "1000", "+ns", "+abcns", "1000ms", "+NaNns", "++5ns", "+-5ns", "-5ns",
		"9223372036854775807ns", "+9.3e18ns", "+Infns"} {
		_, err := ParseSimTime(3, in)
		var te *MalformedTimestampError
		assert.True(t, errors.As(err, &te), in)
	}
}

func TestDistanceLabelBoundaries(t *testing.T) {
	assert.Len(t, DistanceBuckets, 11)
	for d, want := range map[float64]string{
		0:       "<500",
		499.999: "<500",
		500:     "500-1000",
		999.9:   "500-1000",
		1000:    "1000-1500",
		4500:    "4500-5000",
		4999.99: "4500-5000",
		5000:    ">5000",
		1e9:     ">5000",
	} {
		label, ok := DistanceLabel(d)
		assert.True(t, ok)
		assert.Equal(t, want, label, "%v", d)
	}

	_, ok := DistanceLabel(math.NaN())
	assert.False(t, ok)
}

func TestEnrichUnknownPositions(t *testing.T) {
	rp, err := scheme.Default().ParseFilename("100_1000_868_12_1_125000_51_10_42.log")
	require.NoError(t, err)
	events := []Event{
		{Line: 1, Kind: EventTx, Packet: 1, Sender: 1, Receiver: InvalidNodeAddr, SimTime: "+1ns"},
		{Line: 2, Kind: EventRx, Packet: 1, Sender: InvalidNodeAddr, Receiver: 2, SimTime: "+2ns"},
		{Line: 3, Kind: EventRx, Packet: 1, Sender: InvalidNodeAddr, Receiver: 3, SimTime: "+3ns"},
	}
	positions := PositionMap{1: {X: 0, Y: 0}, 2: {X: 3000, Y: 4000}}

	records, err := Enrich(scheme.Default(), rp, positions, events)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 5000.0, records[1].Distance)
	assert.Equal(t, ">5000", records[1].DistLabel)
	assert.True(t, math.IsNaN(records[2].ReceiverX))
	assert.True(t, math.IsNaN(records[2].Distance))
	assert.False(t, records[2].HasLabel)
	assert.Equal(t, time.Duration(3), records[2].SimDuration)
	assert.True(t, records[0].HasMode)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lorad2d/d2deval/scheme"
	. "github.com/lorad2d/d2deval/types"
)

// Record is an event annotated with everything known about its run.
type Record struct {
	Event
	Params      scheme.RunParams
	Mode        string
	HasMode     bool
	SimDuration time.Duration
	SenderX     float64 // NaN when the sender position is unknown
	SenderY     float64
	ReceiverX   float64
	ReceiverY   float64
	Distance    float64 // NaN when either position is unknown
	DistLabel   string
	HasLabel    bool
}

// DistanceBucket is the half-open range [Lower, next bucket's Lower).
type DistanceBucket struct {
	Lower float64
	Label string
}

const (
	distanceBucketWidth = 500
	distanceBucketLimit = 5000
)

// DistanceBuckets lists the distance ranges in ascending order. The last one
// is open upwards.
var DistanceBuckets = makeDistanceBuckets()

func makeDistanceBuckets() []DistanceBucket {
	buckets := []DistanceBucket{{Lower: 0, Label: fmt.Sprintf("<%d", distanceBucketWidth)}}
	for lo := distanceBucketWidth; lo < distanceBucketLimit; lo += distanceBucketWidth {
		buckets = append(buckets, DistanceBucket{Lower: float64(lo), Label: fmt.Sprintf("%d-%d", lo, lo+distanceBucketWidth)})
	}
	return append(buckets, DistanceBucket{Lower: distanceBucketLimit, Label: fmt.Sprintf(">%d", distanceBucketLimit)})
}

// DistanceLabel returns the label of the bucket containing d. A boundary value
// belongs to the upper bucket. NaN and negative distances have no label.
func DistanceLabel(d float64) (string, bool) {
	if math.IsNaN(d) || d < 0 {
		return "", false
	}
	for i := len(DistanceBuckets) - 1; i >= 0; i-- {
		if d >= DistanceBuckets[i].Lower {
			return DistanceBuckets[i].Label, true
		}
	}
	return "", false
}

// Distance is the Euclidean distance between two points given as
// coordinates; any NaN coordinate yields NaN.
func Distance(x1, y1, x2, y2 float64) float64 {
	dx, dy := x1-x2, y1-y2
	return math.Sqrt(dx*dx + dy*dy)
}

// ParseSimTime parses a simulator timestamp such as "+1500000.0ns". Times are
// never negative.
func ParseSimTime(line int, s string) (time.Duration, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "+")
	if !strings.HasSuffix(v, "ns") || strings.HasPrefix(v, "+") || strings.HasPrefix(v, "-") {
		return 0, &MalformedTimestampError{Line: line, Value: s}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "ns"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &MalformedTimestampError{Line: line, Value: s}
	}
	// float64(math.MaxInt64) is 2^63, which does not fit a Duration
	if f = math.Round(f); f >= math.MaxInt64 {
		return 0, &MalformedTimestampError{Line: line, Value: s}
	}
	return time.Duration(f), nil
}

// ReconstructSenders returns a copy of events where every non-transmission
// event carries the sender of the first transmission of its packet.
func ReconstructSenders(events []Event) ([]Event, error) {
	senders := make(map[PacketId]NodeAddr)
	for _, ev := range events {
		if !ev.Kind.IsTransmission() {
			continue
		}
		if _, ok := senders[ev.Packet]; !ok {
			senders[ev.Packet] = ev.Sender
		}
	}

	ret := make([]Event, len(events))
	for i, ev := range events {
		if !ev.Kind.IsTransmission() {
			sender, ok := senders[ev.Packet]
			if !ok {
				return nil, &DanglingPacketError{Line: ev.Line, Packet: ev.Packet, Kind: ev.Kind}
			}
			ev.Sender = sender
		}
		ret[i] = ev
	}
	return ret, nil
}

// Enrich annotates the events of one log file. The result has one record per
// event, in the same order.
func Enrich(s *scheme.Scheme, rp scheme.RunParams, positions PositionMap, events []Event) ([]Record, error) {
	events, err := ReconstructSenders(events)
	if err != nil {
		return nil, err
	}

	mode, hasMode := s.Classify(rp)
	records := make([]Record, len(events))
	for i, ev := range events {
		simTime, err := ParseSimTime(ev.Line, ev.SimTime)
		if err != nil {
			return nil, err
		}

		rec := Record{
			Event:       ev,
			Params:      rp,
			Mode:        mode,
			HasMode:     hasMode,
			SimDuration: simTime,
		}
		rec.SenderX, rec.SenderY = resolvePosition(positions, ev.Sender)
		rec.ReceiverX, rec.ReceiverY = resolvePosition(positions, ev.Receiver)
		rec.Distance = Distance(rec.SenderX, rec.SenderY, rec.ReceiverX, rec.ReceiverY)
		rec.DistLabel, rec.HasLabel = DistanceLabel(rec.Distance)
		records[i] = rec
	}
	return records, nil
}

func resolvePosition(positions PositionMap, addr NodeAddr) (x, y float64) {
	p, ok := positions.Lookup(addr)
	if !ok {
		return math.NaN(), math.NaN()
	}
	return float64(p.X), float64(p.Y)
}

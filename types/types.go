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

// Package types holds the small value types shared by the log loader, the
// dataset and the CLI.
package types

import (
	"math"
	"strconv"
	"strings"
)

// NodeAddr identifies a node in a simulator log. The simulator writes ids as
// integers ("3") while position declarations and reconstructed columns may carry
// them as floats ("3.0"), so addresses are kept as float64 and compare by value.
type NodeAddr float64

// InvalidNodeAddr is the missing-address sentinel.
var InvalidNodeAddr = NodeAddr(math.NaN())

// ParseNodeAddr parses a node address. An empty string yields InvalidNodeAddr
// and ok == true; NaN and infinities are rejected.
func ParseNodeAddr(s string) (addr NodeAddr, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return InvalidNodeAddr, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidNodeAddr, false
	}
	return NodeAddr(v), true
}

// Valid reports whether the address is not the missing sentinel.
func (a NodeAddr) Valid() bool {
	return !math.IsNaN(float64(a))
}

func (a NodeAddr) String() string {
	if !a.Valid() {
		return ""
	}
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

// EventKind is the value of the Event column.
type EventKind string

const (
	EventTx           EventKind = "TX" // transmission started
	EventRx           EventKind = "RX" // received
	EventWrongState   EventKind = "FW" // lost, receiver in wrong state
	EventInterference EventKind = "FI" // lost because of interference
	EventSensitivity  EventKind = "FS" // lost because under sensitivity
	InvalidEventKind  EventKind = ""
)

// IsTransmission reports whether the event describes the sending side of a packet.
func (k EventKind) IsTransmission() bool {
	return k == EventTx
}

func (k EventKind) String() string {
	return string(k)
}

// Position is a node coordinate as declared by the simulator.
type Position struct {
	X int
	Y int
}

// PacketId is the simulator packet uid.
type PacketId = uint64

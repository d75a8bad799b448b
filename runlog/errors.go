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

	. "github.com/lorad2d/d2deval/types"
)

// FileError attributes a stage error to the log file it occurred in.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// MalformedPositionError is a "Position:" line that does not have the
// `<label> x=<int>, y=<int>, addr=<value>` shape.
type MalformedPositionError struct {
	Line   int
	Text   string
	Reason string
}

func (e *MalformedPositionError) Error() string {
	return fmt.Sprintf("line %d: malformed position declaration %q: %s", e.Line, e.Text, e.Reason)
}

// TableFormatError is a structural problem of the event table.
type TableFormatError struct {
	Line   int // 0 if not attributable to a line
	Reason string
}

func (e *TableFormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

// MalformedTimestampError is a Simulation Time value not in `[+]<float>ns` form.
type MalformedTimestampError struct {
	Line  int
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("line %d: malformed simulation time %q", e.Line, e.Value)
}

// DanglingPacketError is a non-transmission event for a packet that was never
// transmitted in the same log.
type DanglingPacketError struct {
	Line   int
	Packet PacketId
	Kind   EventKind
}

func (e *DanglingPacketError) Error() string {
	return fmt.Sprintf("line %d: %s event references packet %d which has no %s event", e.Line, e.Kind, e.Packet, EventTx)
}

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
	"bufio"
	"io"
)

// lineFilter is a reader over the lines of an underlying reader that are not
// in skip. It remembers the source line number of every line it passes on, so
// that positions reported against the filtered stream can be mapped back.
type lineFilter struct {
	subr    *bufio.Reader
	skip    LineSet
	linebuf string
	lineNo  int
	kept    []int
	err     error
}

func newLineFilter(reader io.Reader, skip LineSet) *lineFilter {
	return &lineFilter{subr: bufio.NewReader(reader), skip: skip}
}

func (lf *lineFilter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(lf.linebuf) == 0 {
		if lf.err != nil {
			return 0, lf.err
		}
		lf.readLine()
	}

	n := copy(p, lf.linebuf)
	lf.linebuf = lf.linebuf[n:]
	return n, nil
}

func (lf *lineFilter) readLine() {
	line, err := lf.subr.ReadString('\n')
	if err != nil {
		lf.err = err
	}
	if len(line) == 0 {
		return
	}

	lf.lineNo++
	if lf.skip.Has(lf.lineNo) {
		return
	}
	lf.kept = append(lf.kept, lf.lineNo)
	lf.linebuf = line
}

// sourceLine maps a 1-based line of the filtered stream to the source line.
func (lf *lineFilter) sourceLine(line int) int {
	if line < 1 || line > len(lf.kept) {
		return line
	}
	return lf.kept[line-1]
}

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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorad2d/d2deval/logger"
	. "github.com/lorad2d/d2deval/types"
)

// PositionMarker marks a node position declaration line.
const PositionMarker = "Position:"

// PositionMap maps node addresses to their declared coordinate. It is built
// once per file and only read afterwards.
type PositionMap map[NodeAddr]Position

// Lookup returns the position of addr; unknown and invalid addresses are not found.
func (pm PositionMap) Lookup(addr NodeAddr) (Position, bool) {
	if !addr.Valid() {
		return Position{}, false
	}
	p, ok := pm[addr]
	return p, ok
}

// LineSet is a set of 1-based line numbers.
type LineSet map[int]struct{}

func NewLineSet(lines []int) LineSet {
	ls := make(LineSet, len(lines))
	for _, l := range lines {
		ls[l] = struct{}{}
	}
	return ls
}

func (ls LineSet) Has(line int) bool {
	_, ok := ls[line]
	return ok
}

// ExtractPositions scans r for position declarations. It returns the declared
// positions and the 1-based numbers of the declaration lines in ascending order.
func ExtractPositions(r io.Reader) (PositionMap, []int, error) {
	positions := PositionMap{}
	var lines []int

	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lineNo++
			if strings.Contains(line, PositionMarker) {
				addr, pos, perr := parsePositionLine(lineNo, line)
				if perr != nil {
					return nil, nil, perr
				}
				if prev, ok := positions[addr]; ok && prev != pos {
					logger.Debugf("line %d: node %s redeclared at (%d, %d), was (%d, %d)", lineNo, addr, pos.X, pos.Y, prev.X, prev.Y)
				}
				positions[addr] = pos
				lines = append(lines, lineNo)
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, nil, errors.Wrap(err, "read positions")
		}
	}
	return positions, lines, nil
}

func parsePositionLine(lineNo int, line string) (NodeAddr, Position, error) {
	text := strings.TrimRight(line, "\r\n")
	malformed := func(format string, args ...interface{}) error {
		return &MalformedPositionError{Line: lineNo, Text: text, Reason: fmt.Sprintf(format, args...)}
	}

	tokens := strings.Fields(text)
	if len(tokens) != 4 {
		return InvalidNodeAddr, Position{}, malformed("expected 4 tokens, got %d", len(tokens))
	}

	x, err := positionValue(tokens[1], "x")
	if err != nil {
		return InvalidNodeAddr, Position{}, malformed("%v", err)
	}
	y, err := positionValue(tokens[2], "y")
	if err != nil {
		return InvalidNodeAddr, Position{}, malformed("%v", err)
	}
	addrStr, err := keyValue(tokens[3], "addr", "id")
	if err != nil {
		return InvalidNodeAddr, Position{}, malformed("%v", err)
	}
	addr, ok := ParseNodeAddr(addrStr)
	if !ok || !addr.Valid() {
		return InvalidNodeAddr, Position{}, malformed("invalid address %q", addrStr)
	}
	return addr, Position{X: x, Y: y}, nil
}

func positionValue(token string, key string) (int, error) {
	s, err := keyValue(token, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("%s value %q is not an integer", key, s)
	}
	return v, nil
}

// keyValue splits a `key=value,` token; keys compare case-insensitively.
func keyValue(token string, keys ...string) (string, error) {
	idx := strings.IndexByte(token, '=')
	if idx < 0 {
		return "", errors.Errorf("token %q is not key=value", token)
	}
	key := token[:idx]
	for _, k := range keys {
		if strings.EqualFold(key, k) {
			return strings.TrimSuffix(token[idx+1:], ","), nil
		}
	}
	return "", errors.Errorf("unexpected key %q, want %s", key, keys[0])
}

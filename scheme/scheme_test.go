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

package scheme

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	s := Default()
	rp, err := s.ParseFilename("/results/2022-01-04_143612/100_1000_868_12_1_125000_51_10_42.log")
	require.Nil(t, err)

	assert.Equal(t, "sf-cr", rp.Scheme())
	assert.Equal(t, 9, rp.Len())
	nodes, ok := rp.Int("nodes")
	assert.True(t, ok)
	assert.Equal(t, int64(100), nodes)
	bw, _ := rp.Int("bw")
	assert.Equal(t, int64(125000), bw)
	seed, ok := rp.Seed()
	assert.True(t, ok)
	assert.Equal(t, int64(42), seed)

	params := rp.Params()
	assert.Equal(t, "Nodes", params[0].Column)
	assert.Equal(t, "Messages/Node", params[7].Column)
	params[0].Int = 1
	nodes, _ = rp.Int("nodes")
	assert.Equal(t, int64(100), nodes, "Params must return a copy")
}

func TestParseFilenameFieldCount(t *testing.T) {
	_, err := Default().ParseFilename("100_1000_868_12_1_125000_51_10.log")
	var fe *FilenameFormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 9, fe.Expected)
	assert.Equal(t, 8, fe.Got)
	assert.Contains(t, err.Error(), "100_1000_868_12_1_125000_51_10.log")

	_, err = Default().ParseFilename("100_1000_868_12_1_125000_51_10_42_7.log")
	assert.True(t, errors.As(err, &fe))
}

func TestParseFilenameNotInteger(t *testing.T) {
	_, err := Default().ParseFilename("100_1000_868_sf12_1_125000_51_10_42.log")
	var fe *FilenameFormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "sf", fe.Field)
	assert.Equal(t, "sf12", fe.Value)
}

func TestClassify(t *testing.T) {
	s := Default()
	cases := map[string]string{
		"100_1000_868_12_1_125000_51_10_42.log":  "SF12/125kHz/51B",
		"100_1000_868_7_1_125000_222_10_42.log":  "SF7/125kHz/222B",
		"100_1000_868_7_1_250000_222_10_42.log":  "SF7/250kHz/222B",
		"100_1000_868_9_1_125000_115_10_42.log":  "",
		"100_1000_868_12_1_125000_222_10_42.log": "",
	}
	for fn, want := range cases {
		rp, err := s.ParseFilename(fn)
		require.Nil(t, err)
		for i := 0; i < 3; i++ {
			label, ok := s.Classify(rp)
			assert.Equal(t, want != "", ok, fn)
			assert.Equal(t, want, label, fn)
		}
	}

	bps, err := Builtin().Get("bps-sps")
	require.Nil(t, err)
	rp, err := bps.ParseFilename("50_10000_433_292_61_125000_50_1_35039.log")
	require.Nil(t, err)
	label, ok := bps.Classify(rp)
	assert.True(t, ok)
	assert.Equal(t, "SF12/125kHz/50B", label)
}

func TestModeTableFirstMatchWins(t *testing.T) {
	table := ModeTable{
		{Label: "first", Match: map[string]int64{"sf": 7}},
		{Label: "second", Match: map[string]int64{"sf": 7, "payload": 222}},
	}
	rp, err := Default().ParseFilename("100_1000_868_7_1_125000_222_10_42.log")
	require.Nil(t, err)
	label, ok := table.Classify(rp)
	assert.True(t, ok)
	assert.Equal(t, "first", label)

	label, ok = ModeTable{table[1], table[0]}.Classify(rp)
	assert.True(t, ok)
	assert.Equal(t, "second", label)
}

func TestFilter(t *testing.T) {
	s := Default()
	f, err := NewFilter(s, map[string]string{"nodes": "100", "payload": "51", "sf": Wildcard})
	require.Nil(t, err)
	assert.Equal(t, "100_*_*_*_*_*_51_*_*.log", f.Glob())
	assert.Equal(t, "nodes=100 payload=51", f.String())

	rp, _ := s.ParseFilename("100_1000_868_12_1_125000_51_10_42.log")
	assert.True(t, f.Matches(rp))
	rp, _ = s.ParseFilename("100_1000_868_12_1_125000_222_10_42.log")
	assert.False(t, f.Matches(rp))

	f2, err := f.With("msg", "10")
	require.Nil(t, err)
	assert.Equal(t, "100_*_*_*_*_*_51_10_*.log", f2.Glob())
	assert.Equal(t, "100_*_*_*_*_*_51_*_*.log", f.Glob(), "With must not modify the receiver")

	f3 := f2.Without("payload")
	assert.Equal(t, "100_*_*_*_*_*_*_10_*.log", f3.Glob())
	assert.Equal(t, "100_*_*_*_*_*_51_10_*.log", f2.Glob())

	empty, err := NewFilter(s, nil)
	require.Nil(t, err)
	assert.Equal(t, "*_*_*_*_*_*_*_*_*.log", empty.Glob())
	assert.True(t, empty.Matches(rp))

	canonical, err := NewFilter(s, map[string]string{"nodes": "0100", "payload": "+51"})
	require.Nil(t, err)
	assert.Equal(t, f.Glob(), canonical.Glob())
	assert.Equal(t, "nodes=100 payload=51", canonical.String())

	// literal matching, like the glob
	rp, _ = s.ParseFilename("0100_1000_868_12_1_125000_51_10_42.log")
	assert.False(t, f.Matches(rp))
	assert.True(t, empty.Matches(rp))

	_, err = NewFilter(s, map[string]string{"bps": "292"})
	assert.NotNil(t, err)
	_, err = NewFilter(s, map[string]string{"nodes": "1*"})
	assert.NotNil(t, err)
	_, err = NewFilter(s, map[string]string{"nodes": "many"})
	assert.NotNil(t, err)
}

func TestParseConfig(t *testing.T) {
	r, err := ParseConfig([]byte(`
schemes:
  - name: compact
    delimiter: "-"
    extension: ".txt"
    fields:
      - {name: nodes, column: Nodes}
      - {name: tag, column: Tag, kind: string}
      - {name: seed, column: Seed}
    modes:
      - label: small
        match: {nodes: 10}
`))
	require.Nil(t, err)
	assert.Equal(t, []string{"compact"}, r.Names())

	s, err := r.Get("compact")
	require.Nil(t, err)
	rp, err := s.ParseFilename("10-night-3.txt")
	require.Nil(t, err)
	tag, ok := rp.Literal("tag")
	assert.True(t, ok)
	assert.Equal(t, "night", tag)
	label, ok := s.Classify(rp)
	assert.True(t, ok)
	assert.Equal(t, "small", label)

	merged := Builtin().Merge(r)
	assert.Equal(t, []string{"sf-cr", "bps-sps", "compact"}, merged.Names())
	_, err = Builtin().Get("compact")
	assert.NotNil(t, err, "Merge must not modify the built-in registry")
}

func TestParseConfigInvalid(t *testing.T) {
	invalid := []string{
		`schemes: []`,
		`schemes: [{name: x}]`,
		`schemes: [{fields: [{name: a, column: A}]}]`,
		`schemes: [{name: x, fields: [{name: a, column: A}, {name: a, column: B}]}]`,
		`schemes: [{name: x, fields: [{name: a, column: A, kind: float}]}]`,
		`schemes: [{name: x, fields: [{name: a, column: A}], modes: [{label: m, match: {b: 1}}]}]`,
		`schemes: [{name: x, fields: [{name: a, column: A, kind: string}], modes: [{label: m, match: {a: 1}}]}]`,
		`schemes: [{name: x, fields: [{name: a, column: A}]}, {name: x, fields: [{name: a, column: A}]}]`,
	}
	for _, cfg := range invalid {
		_, err := ParseConfig([]byte(cfg))
		assert.NotNil(t, err, cfg)
	}
}

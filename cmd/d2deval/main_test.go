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

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/scheme"
	. "github.com/lorad2d/d2deval/types"
)

const runLog = "Position: x=0, y=0, addr=1\n" +
	"Position: x=30, y=40, addr=2\n" +
	"Simulation Time,Event,Receiver ID,Packet ID,Sender ID,Current Seed\n" +
	"+1000.0ns,TX,,1,1,1\n" +
	"+2000.0ns,RX,2,1,,1\n"

func writeRuns(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(runLog), 0644))
	}
	return dir
}

func TestSelectScheme(t *testing.T) {
	_, s, filter, err := selectScheme(&commonFlags{scheme: scheme.DefaultSchemeName, filter: "nodes=100"})
	require.NoError(t, err)
	assert.Equal(t, scheme.DefaultSchemeName, s.Name)
	assert.Equal(t, "100", filter.Terms()["nodes"])

	_, _, _, err = selectScheme(&commonFlags{scheme: "nope"})
	assert.Error(t, err)

	_, _, _, err = selectScheme(&commonFlags{scheme: scheme.DefaultSchemeName, filter: "color=1"})
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging(&commonFlags{logLevel: "warn"}))
	assert.Error(t, setupLogging(&commonFlags{logLevel: "loud"}))
}

func TestRunLoad(t *testing.T) {
	dir := writeRuns(t,
		"100_1000_868_12_1_125000_51_10_1.log",
		"100_1000_868_12_1_125000_51_20_1.log",
		"50_1000_868_12_1_125000_51_10_1.log",
	)
	out := t.TempDir()
	flags := &loadFlags{
		commonFlags: &commonFlags{scheme: scheme.DefaultSchemeName, filter: "nodes=100", logLevel: "warn"},
		excludeMsg:  []int{20},
		out:         filepath.Join(out, "d2d.d2d"),
		csv:         filepath.Join(out, "d2d.csv"),
		summary:     filepath.Join(out, "summary.json"),
		metricsFile: filepath.Join(out, "metrics.prom"),
		posOut:      filepath.Join(out, "pos.d2d"),
		posCsv:      filepath.Join(out, "pos.csv"),
	}
	require.NoError(t, runLoad(dir, flags))

	table, err := dataset.LoadFile(flags.out)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "100_1000_868_12_1_125000_51_10_1.log", table.Get(0, ColSource).Str)

	positions, err := dataset.LoadFile(flags.posOut)
	require.NoError(t, err)
	assert.Equal(t, 2, positions.Len())
	assert.Equal(t, 30.0, positions.Get(1, ColX).Float())

	for _, fn := range []string{flags.csv, flags.summary, flags.metricsFile, flags.posCsv} {
		_, err := os.Stat(fn)
		assert.NoError(t, err, fn)
	}
}

func TestRunLoadNoFiles(t *testing.T) {
	flags := &loadFlags{commonFlags: &commonFlags{scheme: scheme.DefaultSchemeName}}
	assert.Error(t, runLoad(t.TempDir(), flags))
}

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

package dataset

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	. "github.com/lorad2d/d2deval/types"
)

// NoneKey counts null cells in a Summary.
const NoneKey = "n/a"

// Summary holds row counts of a table by the categorical columns.
type Summary struct {
	BatchId        string         `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	Rows           int            `json:"rows" yaml:"rows"`
	Sources        map[string]int `json:"sources" yaml:"sources"`
	Events         map[string]int `json:"events" yaml:"events"`
	Modes          map[string]int `json:"modes" yaml:"modes"`
	DistanceLabels map[string]int `json:"distance_labels" yaml:"distance_labels"`
	FileTime       string         `json:"file_time,omitempty" yaml:"file_time,omitempty"`
}

// Summarize counts rows per source file, event kind, mode and distance label.
func Summarize(t *Table) *Summary {
	return &Summary{
		Rows:           t.Len(),
		Sources:        countBy(t, ColSource),
		Events:         countBy(t, ColEvent),
		Modes:          countBy(t, ColMode),
		DistanceLabels: countBy(t, ColDistanceLabels),
	}
}

func countBy(t *Table, column string) map[string]int {
	counts := map[string]int{}
	c, ok := t.Column(column)
	if !ok {
		return counts
	}
	for i := 0; i < t.Len(); i++ {
		v := t.Get(i, column)
		key := NoneKey
		if v.Valid {
			key = v.Format(c.Kind)
		}
		counts[key]++
	}
	return counts
}

// SaveFile writes the summary as indented JSON.
func (s *Summary) SaveFile(fn string) error {
	s.FileTime = time.Now().Format(time.RFC3339)
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}
	if err = os.WriteFile(fn, data, 0644); err != nil {
		return errors.Wrapf(err, "write summary %s", fn)
	}
	return nil
}

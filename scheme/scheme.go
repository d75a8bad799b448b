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

// Package scheme describes how simulator runs are encoded in log file names and
// how a run's radio configuration maps to a mode label. Schemes are plain data:
// the loader is the same for every run generation, only the scheme differs.
package scheme

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultDelimiter = "_"
	DefaultExtension = ".log"
)

// FieldKind is the value type of a filename field.
type FieldKind string

const (
	IntField    FieldKind = "int"
	StringField FieldKind = "string"
)

// Field is one positional filename field.
type Field struct {
	Name   string    `yaml:"name" validate:"required"`
	Column string    `yaml:"column" validate:"required"`
	Kind   FieldKind `yaml:"kind,omitempty" validate:"omitempty,oneof=int string"`
}

func (f Field) kind() FieldKind {
	if f.Kind == "" {
		return IntField
	}
	return f.Kind
}

// Scheme is one filename layout plus its mode classification table.
type Scheme struct {
	Name      string     `yaml:"name" validate:"required"`
	Delimiter string     `yaml:"delimiter,omitempty"`
	Extension string     `yaml:"extension,omitempty"`
	Fields    []Field    `yaml:"fields" validate:"required,min=1,dive"`
	Modes     []ModeRule `yaml:"modes,omitempty" validate:"dive"`
}

func (s *Scheme) delimiter() string {
	if s.Delimiter == "" {
		return DefaultDelimiter
	}
	return s.Delimiter
}

func (s *Scheme) extension() string {
	if s.Extension == "" {
		return DefaultExtension
	}
	return s.Extension
}

// Field returns the field with the given name.
func (s *Scheme) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in filename order.
func (s *Scheme) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// check validates what struct tags cannot express.
func (s *Scheme) check() error {
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if _, ok := seen[f.Name]; ok {
			return errors.Errorf("scheme %s: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	for i, m := range s.Modes {
		for name := range m.Match {
			f, ok := s.Field(name)
			if !ok {
				return errors.Errorf("scheme %s: mode %d (%s) matches unknown field %q", s.Name, i, m.Label, name)
			}
			if f.kind() != IntField {
				return errors.Errorf("scheme %s: mode %d (%s) matches non-integer field %q", s.Name, i, m.Label, name)
			}
		}
	}
	return nil
}

// Param is one parsed filename field.
type Param struct {
	Name   string
	Column string
	Kind   FieldKind
	Int    int64
	Str    string
}

// RunParams are the run parameters parsed from one file name, in scheme order.
// The zero value has no parameters.
type RunParams struct {
	scheme string
	params []Param
}

// Scheme returns the name of the scheme that produced the parameters.
func (rp RunParams) Scheme() string {
	return rp.scheme
}

// Params returns a copy of the parameters.
func (rp RunParams) Params() []Param {
	ret := make([]Param, len(rp.params))
	copy(ret, rp.params)
	return ret
}

// Len returns the number of parameters.
func (rp RunParams) Len() int {
	return len(rp.params)
}

// Int returns the value of an integer parameter.
func (rp RunParams) Int(name string) (int64, bool) {
	for _, p := range rp.params {
		if p.Name == name && p.Kind == IntField {
			return p.Int, true
		}
	}
	return 0, false
}

// Literal returns the parameter as it was written in the file name.
func (rp RunParams) Literal(name string) (string, bool) {
	for _, p := range rp.params {
		if p.Name == name {
			return p.Str, true
		}
	}
	return "", false
}

// Seed is the last filename field.
func (rp RunParams) Seed() (int64, bool) {
	if len(rp.params) == 0 {
		return 0, false
	}
	last := rp.params[len(rp.params)-1]
	return last.Int, last.Kind == IntField
}

// FilenameFormatError reports a file name that does not fit the scheme.
type FilenameFormatError struct {
	Name     string
	Scheme   string
	Expected int
	Got      int
	Field    string // set when a single field failed to parse
	Value    string
}

func (e *FilenameFormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("file name %q (scheme %s): field %s=%q is not an integer", e.Name, e.Scheme, e.Field, e.Value)
	}
	return fmt.Sprintf("file name %q (scheme %s): expected %d fields, got %d", e.Name, e.Scheme, e.Expected, e.Got)
}

// ParseFilename parses the run parameters from a log file path.
func (s *Scheme) ParseFilename(path string) (RunParams, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	tokens := strings.Split(name, s.delimiter())
	if len(tokens) != len(s.Fields) {
		return RunParams{}, &FilenameFormatError{Name: base, Scheme: s.Name, Expected: len(s.Fields), Got: len(tokens)}
	}

	rp := RunParams{scheme: s.Name, params: make([]Param, len(tokens))}
	for i, f := range s.Fields {
		p := Param{Name: f.Name, Column: f.Column, Kind: f.kind(), Str: tokens[i]}
		if p.Kind == IntField {
			v, err := strconv.ParseInt(tokens[i], 10, 64)
			if err != nil {
				return RunParams{}, &FilenameFormatError{Name: base, Scheme: s.Name, Expected: len(s.Fields),
					Got: len(tokens), Field: f.Name, Value: tokens[i]}
			}
			p.Int = v
		}
		rp.params[i] = p
	}
	return rp, nil
}

// Classify returns the mode label for the run parameters; ok is false when no
// rule matches.
func (s *Scheme) Classify(rp RunParams) (label string, ok bool) {
	return ModeTable(s.Modes).Classify(rp)
}

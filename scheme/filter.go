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
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Wildcard matches any value of a field.
const Wildcard = "*"

// Filter selects runs by literal filename field values, the way a shell glob
// does: nodes=100 matches "100_..." but not "0100_...". Integer values are kept
// in their canonical decimal spelling, so nodes=0100 is the same filter as
// nodes=100. A Filter is immutable; With and Without return new filters.
type Filter struct {
	scheme *Scheme
	terms  map[string]string
}

// NewFilter builds a filter for the scheme. Fields not named in terms, or set
// to Wildcard, match anything.
func NewFilter(s *Scheme, terms map[string]string) (Filter, error) {
	f := Filter{scheme: s, terms: make(map[string]string, len(terms))}
	for name, value := range terms {
		value, err := f.checkTerm(name, value)
		if err != nil {
			return Filter{}, err
		}
		if value != Wildcard {
			f.terms[name] = value
		}
	}
	return f, nil
}

// checkTerm validates a term and returns its canonical value.
func (f Filter) checkTerm(name, value string) (string, error) {
	field, ok := f.scheme.Field(name)
	if !ok {
		return "", errors.Errorf("unknown filter parameter %q for scheme %s (known: %s)", name, f.scheme.Name,
			strings.Join(f.scheme.FieldNames(), ", "))
	}
	if value == Wildcard {
		return value, nil
	}
	if value == "" || strings.ContainsAny(value, "*?[]\\"+f.scheme.delimiter()) {
		return "", errors.Errorf("invalid filter value %q for %s", value, name)
	}
	if field.kind() == IntField {
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", errors.Errorf("filter value %q for %s is not an integer", value, name)
		}
		value = strconv.FormatInt(v, 10)
	}
	return value, nil
}

// Scheme returns the scheme the filter was built for.
func (f Filter) Scheme() *Scheme {
	return f.scheme
}

// With returns a copy of the filter with one more term.
func (f Filter) With(name, value string) (Filter, error) {
	terms := f.Terms()
	terms[name] = value
	return NewFilter(f.scheme, terms)
}

// Without returns a copy of the filter with the named field set to Wildcard.
func (f Filter) Without(name string) Filter {
	terms := f.Terms()
	delete(terms, name)
	return Filter{scheme: f.scheme, terms: terms}
}

// Terms returns a copy of the non-wildcard terms.
func (f Filter) Terms() map[string]string {
	ret := make(map[string]string, len(f.terms))
	for k, v := range f.terms {
		ret[k] = v
	}
	return ret
}

// Glob renders the filter as a file name pattern, e.g. "100_*_*_*_*_*_51_*_*.log".
func (f Filter) Glob() string {
	parts := make([]string, len(f.scheme.Fields))
	for i, field := range f.scheme.Fields {
		if v, ok := f.terms[field.Name]; ok {
			parts[i] = v
		} else {
			parts[i] = Wildcard
		}
	}
	return strings.Join(parts, f.scheme.delimiter()) + f.scheme.extension()
}

// Matches reports whether the run parameters satisfy every term. Globs can
// match across delimiters, so discovered files are re-checked with Matches.
func (f Filter) Matches(rp RunParams) bool {
	for name, want := range f.terms {
		if got, ok := rp.Literal(name); !ok || got != want {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	if len(f.terms) == 0 {
		return Wildcard
	}
	names := make([]string, 0, len(f.terms))
	for k := range f.terms {
		names = append(names, k)
	}
	sort.Strings(names)
	for i, n := range names {
		names[i] = n + "=" + f.terms[n]
	}
	return strings.Join(names, " ")
}

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

package cli

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/lorad2d/d2deval/scheme"
)

// ParseFilter parses filter terms such as `nodes=100 sf=*` for the scheme. An
// empty expression matches every run.
func ParseFilter(s *scheme.Scheme, expr string) (scheme.Filter, error) {
	if strings.TrimSpace(expr) == "" {
		return scheme.NewFilter(s, nil)
	}
	var fe FilterExpr
	if err := filterParser.ParseString(expr, &fe); err != nil {
		return scheme.Filter{}, errors.Wrapf(err, "invalid filter %q", expr)
	}
	return applyFilterTerms(s, scheme.Filter{}, fe.Terms)
}

// applyFilterTerms adds terms to base; a zero base starts from an empty filter.
// Naming a field twice with different values is an error.
func applyFilterTerms(s *scheme.Scheme, base scheme.Filter, terms []FilterTerm) (scheme.Filter, error) {
	values := base.Terms()
	given := make(map[string]string, len(terms))
	for _, t := range terms {
		if prev, ok := given[t.Name]; ok && prev != t.Value {
			return scheme.Filter{}, errors.Errorf("conflicting values for %s: %s and %s", t.Name, prev, t.Value)
		}
		given[t.Name] = t.Value
		values[t.Name] = t.Value
	}
	return scheme.NewFilter(s, values)
}

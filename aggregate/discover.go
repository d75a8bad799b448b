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

package aggregate

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/scheme"
)

// Discover lists the log files in dir that match filter. When allow is not
// empty, only files whose base name is in allow are kept. The result is sorted.
func Discover(dir string, filter scheme.Filter, allow []string) ([]string, error) {
	if filter.Scheme() == nil {
		return nil, errors.Errorf("filter has no scheme")
	}
	matches, err := filepath.Glob(filepath.Join(dir, filter.Glob()))
	if err != nil {
		return nil, errors.Wrapf(err, "discover %s", dir)
	}

	allowed := make(map[string]struct{}, len(allow))
	for _, name := range allow {
		allowed[filepath.Base(name)] = struct{}{}
	}

	var paths []string
	for _, path := range matches {
		rp, err := filter.Scheme().ParseFilename(path)
		if err != nil {
			logger.Debugf("skip %s: %v", path, err)
			continue
		}
		if !filter.Matches(rp) {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[filepath.Base(path)]; !ok {
				continue
			}
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	logger.Infof("found %d files matching %s in %s", len(paths), filter, dir)
	return paths, nil
}

// ReadAllowList reads file names, one per line. Blank lines and lines starting
// with '#' are ignored.
func ReadAllowList(fn string) ([]string, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "read allow list")
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, errors.Wrap(scanner.Err(), "read allow list")
}

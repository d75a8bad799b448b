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

// Package aggregate runs the per-file transform over a batch of log files and
// concatenates the results.
package aggregate

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/runlog"
	"github.com/lorad2d/d2deval/scheme"
	. "github.com/lorad2d/d2deval/types"
)

// Options configure one Run. The zero value loads with the default scheme on
// runtime.NumCPU() workers and keeps going when a file fails.
type Options struct {
	Scheme   *scheme.Scheme
	Workers  int
	FailFast bool     // abort the batch on the first failed file
	Metrics  *Metrics // optional
}

func (o Options) scheme() *scheme.Scheme {
	if o.Scheme == nil {
		return scheme.Default()
	}
	return o.Scheme
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path     string
	Rows     int
	Nodes    int // declared node positions
	Duration time.Duration
	Err      error
}

// Result is the outcome of a batch.
type Result struct {
	BatchId   uuid.UUID
	Table     *dataset.Table // rows of all loaded files, sorted by Source and Line
	Positions *dataset.Table // node positions of all loaded files, sorted by Source and Address
	Files     []FileResult   // sorted by path
}

// Failed returns the results of the files that could not be loaded.
func (r *Result) Failed() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Loaded returns the number of files that were loaded.
func (r *Result) Loaded() int {
	return len(r.Files) - len(r.Failed())
}

// Summary summarizes the result table, stamped with the batch id.
func (r *Result) Summary() *dataset.Summary {
	s := dataset.Summarize(r.Table)
	s.BatchId = r.BatchId.String()
	return s
}

// Run loads every file in paths. A failed file is recorded in its FileResult
// and left out of the table, unless opts.FailFast is set: then the first
// failure cancels the remaining files and is returned along with the partial
// result. Cancelling ctx stops the batch the same way.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	paths = append([]string(nil), paths...)
	sort.Strings(paths)

	res := &Result{
		BatchId: uuid.New(),
		Files:   make([]FileResult, len(paths)),
	}
	s := opts.scheme()
	loaded := make([]*runlog.FileTables, len(paths))
	logger.Infof("batch %s: loading %d files with scheme %s", res.BatchId, len(paths), s.Name)
	opts.Metrics.recordBatch()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())
	for i, path := range paths {
		res.Files[i].Path = path
		g.Go(func() error {
			fr := &res.Files[i]
			if err := gctx.Err(); err != nil {
				fr.Err = err
				opts.Metrics.recordFile(StatusCanceled, 0, 0)
				return nil
			}

			start := time.Now()
			ft, err := runlog.LoadFile(path, s)
			fr.Duration = time.Since(start)
			if err != nil {
				fr.Err = err
				opts.Metrics.recordFile(StatusFailed, 0, fr.Duration)
				if opts.FailFast {
					return err
				}
				logger.Warnf("%v", err)
				return nil
			}

			loaded[i] = ft
			fr.Rows = ft.Events.Len()
			fr.Nodes = ft.Positions.Len()
			opts.Metrics.recordFile(StatusOk, fr.Rows, fr.Duration)
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	var events, positions []*dataset.Table
	for _, ft := range loaded {
		if ft != nil {
			events = append(events, ft.Events)
			positions = append(positions, ft.Positions)
		}
	}
	table, err := Combine(events...)
	if err != nil {
		return nil, err
	}
	res.Table = table
	if res.Positions, err = CombinePositions(positions...); err != nil {
		return nil, err
	}

	logger.Infof("batch %s: %d of %d files loaded, %d rows", res.BatchId, res.Loaded(), len(paths), table.Len())
	if n := len(res.Failed()); n > 0 && runErr == nil {
		logger.Notef("batch %s: %d files skipped", res.BatchId, n)
	}
	return res, runErr
}

// Combine concatenates per-file tables and orders the rows by source file and
// source line.
func Combine(tables ...*dataset.Table) (*dataset.Table, error) {
	table, err := dataset.Concat(tables...)
	if err != nil {
		return nil, errors.Wrap(err, "combine tables")
	}
	if len(tables) > 0 {
		if err := table.SortBy(ColSource, ColLine); err != nil {
			return nil, errors.Wrap(err, "combine tables")
		}
	}
	return table, nil
}

// CombinePositions concatenates per-file position tables and orders the rows
// by source file and node address.
func CombinePositions(tables ...*dataset.Table) (*dataset.Table, error) {
	table, err := dataset.Concat(tables...)
	if err != nil {
		return nil, errors.Wrap(err, "combine positions")
	}
	if len(tables) > 0 {
		if err := table.SortBy(ColSource, ColAddress); err != nil {
			return nil, errors.Wrap(err, "combine positions")
		}
	}
	return table, nil
}

// Sources returns the base names of paths, for allow lists and messages.
func Sources(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

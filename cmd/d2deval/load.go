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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lorad2d/d2deval/aggregate"
	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/prng"
	"github.com/lorad2d/d2deval/progctx"
)

// msgField is the scheme field holding the number of messages per node.
const msgField = "msg"

type loadFlags struct {
	*commonFlags
	allow       []string
	workers     int
	failFast    bool
	excludeMsg  []int
	sample      int
	seed        int64
	out         string
	csv         string
	summary     string
	metricsFile string
	posOut      string
	posCsv      string
}

func newLoadCmd(common *commonFlags) *cobra.Command {
	flags := &loadFlags{commonFlags: common}

	cmd := &cobra.Command{
		Use:   "load DIR",
		Short: "Load all matching logs in a directory",
		Long: `Load all log files in DIR whose name matches the filter, annotate their events
and combine them into one dataset.

A file that cannot be loaded is reported and left out, unless --fail-fast is
given. The combined dataset is sorted by file and line and can be written in
the native format (--out), as CSV (--csv) and as a JSON summary (--summary).
The declared node positions of all runs form a second dataset
(--positions-out, --positions-csv).`,
		Example: `  # Load all 100 node runs with 51 byte payload
  d2deval load logs --filter "nodes=100 payload=51" --out d2d.d2d

  # Older runs, a 1000 row sample as CSV
  d2deval load old-logs --scheme bps-sps --sample 1000 --seed 1 --csv sample.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&flags.allow, "allow", nil, "files listing the log file names to load")
	f.IntVar(&flags.workers, "workers", 0, "number of files loaded in parallel (default: number of CPUs)")
	f.BoolVar(&flags.failFast, "fail-fast", false, "stop at the first file that cannot be loaded")
	f.IntSliceVar(&flags.excludeMsg, "exclude-msg", nil, "drop runs with these messages per node")
	f.IntVar(&flags.sample, "sample", 0, "keep a random sample of this many rows")
	f.Int64Var(&flags.seed, "seed", 0, "seed for --sample (default: time based)")
	f.StringVar(&flags.out, "out", "", "write the dataset in the native format")
	f.StringVar(&flags.csv, "csv", "", "write the dataset as CSV")
	f.StringVar(&flags.summary, "summary", "", "write a JSON summary")
	f.StringVar(&flags.posOut, "positions-out", "", "write the node positions in the native format")
	f.StringVar(&flags.posCsv, "positions-csv", "", "write the node positions as CSV")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write load metrics in the Prometheus text format")

	return cmd
}

func runLoad(dir string, flags *loadFlags) error {
	ctx := progctx.New(nil)
	ctx.HandleSignals()
	defer ctx.Wait()
	defer ctx.Cancel(nil)

	_, s, filter, err := selectScheme(flags.commonFlags)
	if err != nil {
		return err
	}

	var allow []string
	for _, fn := range flags.allow {
		names, err := aggregate.ReadAllowList(fn)
		if err != nil {
			return err
		}
		allow = append(allow, names...)
	}

	paths, err := aggregate.Discover(dir, filter, allow)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.Errorf("no files matching %s in %s", filter.Glob(), dir)
	}

	metrics := aggregate.NewMetrics()
	if flags.metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(flags.metricsFile); err != nil {
				logger.Errorf("%v", err)
			}
		}()
	}

	res, err := aggregate.Run(ctx, paths, aggregate.Options{
		Scheme:   s,
		Workers:  flags.workers,
		FailFast: flags.failFast,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}
	for _, f := range res.Failed() {
		fmt.Fprintf(os.Stderr, "skipped %v\n", f.Err)
	}

	table, positions := res.Table, res.Positions
	if len(flags.excludeMsg) > 0 {
		field, ok := s.Field(msgField)
		if !ok {
			return errors.Errorf("scheme %s has no %s field", s.Name, msgField)
		}
		values := make([]float64, len(flags.excludeMsg))
		for i, v := range flags.excludeMsg {
			values[i] = float64(v)
		}
		if table, err = table.Exclude(field.Column, values...); err != nil {
			return err
		}
		if positions, err = positions.Exclude(field.Column, values...); err != nil {
			return err
		}
	}
	if flags.sample > 0 {
		prng.Init(flags.seed)
		table = table.Sample(flags.sample, prng.NewSampleRand())
	}

	if err = writeOutputs(flags, res, table, positions); err != nil {
		return err
	}
	fmt.Printf("batch %s: %d of %d files loaded, %d rows\n", res.BatchId, res.Loaded(), len(res.Files), table.Len())
	return nil
}

func writeOutputs(flags *loadFlags, res *aggregate.Result, table, positions *dataset.Table) error {
	if flags.out != "" {
		if err := table.SaveFile(flags.out); err != nil {
			return err
		}
		logger.Infof("dataset written to %s", flags.out)
	}
	if flags.csv != "" {
		if err := table.WriteCSVFile(flags.csv); err != nil {
			return err
		}
		logger.Infof("CSV written to %s", flags.csv)
	}
	if flags.posOut != "" {
		if err := positions.SaveFile(flags.posOut); err != nil {
			return err
		}
		logger.Infof("positions written to %s", flags.posOut)
	}
	if flags.posCsv != "" {
		if err := positions.WriteCSVFile(flags.posCsv); err != nil {
			return err
		}
	}
	if flags.summary != "" {
		summary := dataset.Summarize(table)
		summary.BatchId = res.BatchId.String()
		if err := summary.SaveFile(flags.summary); err != nil {
			return err
		}
	}
	return nil
}

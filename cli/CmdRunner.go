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

// Package cli implements the d2deval shell. It parses and executes commands
// that load simulator logs and work on the resulting dataset.
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lorad2d/d2deval/aggregate"
	"github.com/lorad2d/d2deval/dataset"
	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/prng"
	"github.com/lorad2d/d2deval/progctx"
	"github.com/lorad2d/d2deval/scheme"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner holds the shell state: the selected scheme and filter, and the
// dataset of the last load.
type CmdRunner struct {
	ctx      *progctx.ProgCtx
	registry *scheme.Registry
	scheme   *scheme.Scheme
	filter   scheme.Filter
	result    *aggregate.Result
	table     *dataset.Table
	positions *dataset.Table
	metrics  *aggregate.Metrics
	help     Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, registry *scheme.Registry, s *scheme.Scheme) *CmdRunner {
	filter, err := scheme.NewFilter(s, nil)
	logger.PanicIfError(err)
	return &CmdRunner{
		ctx:      ctx,
		registry: registry,
		scheme:   s,
		filter:   filter,
		metrics:  aggregate.NewMetrics(),
		help:     newHelp(),
	}
}

// SetFilter replaces the current filter. It must be built for the current scheme.
func (rt *CmdRunner) SetFilter(f scheme.Filter) {
	logger.AssertTrue(f.Scheme() == rt.scheme)
	rt.filter = f
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return rt.scheme.Name + Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.Filter != nil {
		rt.executeFilter(cc, cmd.Filter)
	} else if cmd.Scheme != nil {
		rt.executeScheme(cc, cmd.Scheme)
	} else if cmd.Config != nil {
		rt.executeConfig(cc, cmd.Config)
	} else if cmd.Files != nil {
		rt.executeFiles(cc)
	} else if cmd.Errors != nil {
		rt.executeErrors(cc)
	} else if cmd.Summary != nil {
		rt.executeSummary(cc, cmd.Summary)
	} else if cmd.Modes != nil {
		rt.executeModes(cc)
	} else if cmd.Positions != nil {
		rt.executePositions(cc, cmd.Positions)
	} else if cmd.Exclude != nil {
		rt.executeExclude(cc, cmd.Exclude)
	} else if cmd.Sample != nil {
		rt.executeSample(cc, cmd.Sample)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Open != nil {
		rt.executeOpen(cc, cmd.Open)
	} else if cmd.Export != nil {
		rt.executeExport(cc, cmd.Export)
	} else if cmd.Metrics != nil {
		rt.executeMetrics(cc, cmd.Metrics)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

// requireTable returns the working dataset, or nil after reporting an error.
func (rt *CmdRunner) requireTable(cc *CommandContext) *dataset.Table {
	if rt.table == nil {
		cc.errorf("no dataset, use 'load' or 'open' first")
	}
	return rt.table
}

func (rt *CmdRunner) executeScheme(cc *CommandContext, cmd *SchemeCmd) {
	if cmd.Name == "" {
		for _, name := range rt.registry.Names() {
			marker := " "
			if name == rt.scheme.Name {
				marker = "*"
			}
			cc.outputf("%s %s\n", marker, name)
		}
		return
	}

	s, err := rt.registry.Get(cmd.Name)
	if err != nil {
		cc.error(err)
		return
	}
	filter, err := scheme.NewFilter(s, nil)
	if err != nil {
		cc.error(err)
		return
	}
	rt.scheme = s
	rt.filter = filter
}

func (rt *CmdRunner) executeConfig(cc *CommandContext, cmd *ConfigCmd) {
	reg, err := scheme.LoadConfig(cmd.File)
	if err != nil {
		cc.error(err)
		return
	}
	rt.registry = rt.registry.Merge(reg)
	if s, err := rt.registry.Get(rt.scheme.Name); err == nil && s != rt.scheme {
		rt.scheme = s
		rt.filter, err = scheme.NewFilter(s, rt.filter.Terms())
		if err != nil {
			rt.filter, _ = scheme.NewFilter(s, nil)
			cc.outputf("filter cleared: %v\n", err)
		}
	}
	cc.outputItemsAsYaml(rt.registry.Names())
}

func (rt *CmdRunner) executeFilter(cc *CommandContext, cmd *FilterCmd) {
	var err error
	filter := rt.filter
	if cmd.Clear != nil {
		if len(cmd.Clear.Names) == 0 {
			filter, err = scheme.NewFilter(rt.scheme, nil)
		}
		for _, name := range cmd.Clear.Names {
			if _, ok := rt.scheme.Field(name); !ok {
				err = errors.Errorf("unknown filter parameter %q", name)
				break
			}
			filter = filter.Without(name)
		}
	} else if len(cmd.Terms) > 0 {
		filter, err = applyFilterTerms(rt.scheme, rt.filter, cmd.Terms)
	}
	if err != nil {
		cc.error(err)
		return
	}

	rt.filter = filter
	cc.outputf("%s (%s)\n", rt.filter, rt.filter.Glob())
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	opts := aggregate.Options{
		Scheme:  rt.scheme,
		Metrics: rt.metrics,
	}
	var allow []string
	for _, o := range cmd.Options {
		switch {
		case o.Workers != nil:
			opts.Workers = *o.Workers
		case o.FailFast != nil:
			opts.FailFast = true
		case o.Allow != nil:
			names, err := aggregate.ReadAllowList(*o.Allow)
			if err != nil {
				cc.error(err)
				return
			}
			allow = append(allow, names...)
		}
	}

	paths, err := aggregate.Discover(cmd.Dir, rt.filter, allow)
	if err != nil {
		cc.error(err)
		return
	}
	if len(paths) == 0 {
		cc.errorf("no files matching %s in %s", rt.filter.Glob(), cmd.Dir)
		return
	}

	res, err := aggregate.Run(rt.ctx, paths, opts)
	if res != nil {
		rt.result = res
		rt.table = res.Table
		rt.positions = res.Positions
		cc.outputf("batch %s: %d of %d files, %d rows\n", res.BatchId, res.Loaded(), len(res.Files), res.Table.Len())
		if n := len(res.Failed()); n > 0 && err == nil {
			cc.outputf("%d files failed, see 'errors'\n", n)
		}
	}
	cc.error(err)
}

type fileItem struct {
	File     string `yaml:"file"`
	Rows     int    `yaml:"rows"`
	Duration string `yaml:"duration"`
	Status   string `yaml:"status"`
}

func (rt *CmdRunner) executeFiles(cc *CommandContext) {
	if rt.result == nil {
		cc.errorf("no files loaded")
		return
	}
	items := make([]fileItem, 0, len(rt.result.Files))
	for _, f := range rt.result.Files {
		status := aggregate.StatusOk
		if f.Err != nil {
			status = aggregate.StatusFailed
		}
		items = append(items, fileItem{
			File:     filepath.Base(f.Path),
			Rows:     f.Rows,
			Duration: f.Duration.String(),
			Status:   status,
		})
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executeErrors(cc *CommandContext) {
	if rt.result == nil {
		cc.errorf("no files loaded")
		return
	}
	for _, f := range rt.result.Failed() {
		cc.outputf("%v\n", f.Err)
	}
}

func (rt *CmdRunner) executeSummary(cc *CommandContext, cmd *SummaryCmd) {
	t := rt.requireTable(cc)
	if t == nil {
		return
	}
	summary := dataset.Summarize(t)
	if rt.result != nil {
		summary.BatchId = rt.result.BatchId.String()
	}

	if cmd.File != nil {
		cc.error(summary.SaveFile(*cmd.File))
		return
	}
	data, err := yaml.Marshal(summary)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputStr(string(data))
}

func (rt *CmdRunner) executeModes(cc *CommandContext) {
	cc.outputItemsAsYaml(rt.scheme.Modes)
}

func (rt *CmdRunner) executePositions(cc *CommandContext, cmd *PositionsCmd) {
	if rt.positions == nil {
		cc.errorf("no node positions, use 'load' first")
		return
	}
	switch cmd.Action {
	case "save":
		cc.error(rt.positions.SaveFile(cmd.File))
	case "export":
		cc.error(rt.positions.WriteCSVFile(cmd.File))
	default:
		cc.outputf("%d nodes in %d files\n", rt.positions.Len(), rt.result.Loaded())
	}
}

func (rt *CmdRunner) executeExclude(cc *CommandContext, cmd *ExcludeCmd) {
	t := rt.requireTable(cc)
	if t == nil {
		return
	}
	nt, err := t.Exclude(cmd.Column, cmd.Values...)
	if err != nil {
		cc.error(err)
		return
	}
	rt.table = nt
	cc.outputf("excluded %d rows, %d left\n", t.Len()-nt.Len(), nt.Len())
}

func (rt *CmdRunner) executeSample(cc *CommandContext, cmd *SampleCmd) {
	t := rt.requireTable(cc)
	if t == nil {
		return
	}
	if cmd.N <= 0 {
		cc.errorf("sample size must be positive")
		return
	}
	rng := prng.NewSampleRand()
	if cmd.Seed != nil {
		rng = prng.NewRand(prng.RandomSeed(*cmd.Seed))
	}
	rt.table = t.Sample(cmd.N, rng)
	cc.outputf("%d rows\n", rt.table.Len())
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	if t := rt.requireTable(cc); t != nil {
		cc.error(t.SaveFile(cmd.File))
	}
}

func (rt *CmdRunner) executeOpen(cc *CommandContext, cmd *OpenCmd) {
	t, err := dataset.LoadFile(cmd.File)
	if err != nil {
		cc.error(err)
		return
	}
	rt.result = nil
	rt.table = t
	rt.positions = nil
	cc.outputf("%d rows\n", t.Len())
}

func (rt *CmdRunner) executeExport(cc *CommandContext, cmd *ExportCmd) {
	if t := rt.requireTable(cc); t != nil {
		cc.error(t.WriteCSVFile(cmd.File))
	}
}

func (rt *CmdRunner) executeMetrics(cc *CommandContext, cmd *MetricsCmd) {
	cc.error(rt.metrics.WriteTextfile(cmd.File))
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(logger.GetLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic, rt.scheme, rt.filter))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	rt.ctx.Cancel("exit")
}

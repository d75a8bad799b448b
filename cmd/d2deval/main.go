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

// Command d2deval loads LoRa D2D simulator logs into one dataset, either as a
// batch job or from an interactive shell.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lorad2d/d2deval/cli"
	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/scheme"
)

type commonFlags struct {
	scheme   string
	config   string
	filter   string
	logLevel string
	logFile  string
}

func main() {
	flags := &commonFlags{}

	rootCmd := &cobra.Command{
		Use:   "d2deval",
		Short: "Load LoRa D2D simulator logs into a dataset",
		Long: `d2deval reads the logs written by the LoRa device-to-device simulator. The run
parameters are taken from each file name, node positions and events from its
content. Every event is annotated with the sender and receiver positions, their
distance, a distance range label and the radio mode of the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.scheme, "scheme", scheme.DefaultSchemeName, "file name scheme")
	pf.StringVar(&flags.config, "config", "", "yaml file with additional file name schemes")
	pf.StringVar(&flags.filter, "filter", "", "run filter, e.g. \"nodes=100 sf=*\"")
	pf.StringVar(&flags.logLevel, "log", "info", "log level: micro, trace, debug, info, note, warn, error, off")
	pf.StringVar(&flags.logFile, "log-file", "", "also write the log to this file")

	rootCmd.AddCommand(newLoadCmd(flags))
	rootCmd.AddCommand(newShellCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func setupLogging(flags *commonFlags) error {
	level, err := logger.ParseLevelString(flags.logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if flags.logFile != "" {
		if err := logger.SetOutput([]string{"stderr", flags.logFile}); err != nil {
			return errors.Wrapf(err, "open log file %s", flags.logFile)
		}
	}
	return nil
}

// selectScheme returns the known schemes and the one selected by the flags,
// with the filter built for it.
func selectScheme(flags *commonFlags) (*scheme.Registry, *scheme.Scheme, scheme.Filter, error) {
	registry := scheme.Builtin()
	if flags.config != "" {
		reg, err := scheme.LoadConfig(flags.config)
		if err != nil {
			return nil, nil, scheme.Filter{}, err
		}
		registry = registry.Merge(reg)
	}

	s, err := registry.Get(flags.scheme)
	if err != nil {
		return nil, nil, scheme.Filter{}, err
	}
	filter, err := cli.ParseFilter(s, flags.filter)
	if err != nil {
		return nil, nil, scheme.Filter{}, err
	}
	return registry, s, filter, nil
}

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
	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Config    *ConfigCmd    `  @@` //nolint
	Errors    *ErrorsCmd    `| @@` //nolint
	Exclude   *ExcludeCmd   `| @@` //nolint
	Exit      *ExitCmd      `| @@` //nolint
	Export    *ExportCmd    `| @@` //nolint
	Files     *FilesCmd     `| @@` //nolint
	Filter    *FilterCmd    `| @@` //nolint
	Help      *HelpCmd      `| @@` //nolint
	Load      *LoadCmd      `| @@` //nolint
	LogLevel  *LogLevelCmd  `| @@` //nolint
	Metrics   *MetricsCmd   `| @@` //nolint
	Modes     *ModesCmd     `| @@` //nolint
	Open      *OpenCmd      `| @@` //nolint
	Positions *PositionsCmd `| @@` //nolint
	Sample    *SampleCmd    `| @@` //nolint
	Save      *SaveCmd      `| @@` //nolint
	Scheme    *SchemeCmd    `| @@` //nolint
	Summary   *SummaryCmd   `| @@` //nolint
}

// noinspection GoStructTag
type FilterTerm struct {
	Name  string `@Ident "="`                            //nolint
	Value string `( @Int | @"*" | @Ident | @String )` //nolint
}

// noinspection GoStructTag
type FilterExpr struct {
	Terms []FilterTerm `{ @@ }` //nolint
}

// noinspection GoStructTag
type FilterClear struct {
	Dummy struct{} `"clear"`     //nolint
	Names []string `{ @Ident }` //nolint
}

// noinspection GoStructTag
type FilterCmd struct {
	Cmd   struct{}     `"filter"` //nolint
	Clear *FilterClear `( @@`     //nolint
	Terms []FilterTerm `| { @@ } )` //nolint
}

// noinspection GoStructTag
type SchemeCmd struct {
	Cmd  struct{} `"scheme"`                                  //nolint
	Name string   `[ @String | @(Ident { "-" (Ident|Int) }) ]` //nolint
}

// noinspection GoStructTag
type ConfigCmd struct {
	Cmd  struct{} `"config"` //nolint
	File string   `@String`  //nolint
}

// noinspection GoStructTag
type LoadOption struct {
	Workers  *int    `  "workers" @Int`   //nolint
	FailFast *string `| @"failfast"`      //nolint
	Allow    *string `| "allow" @String` //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd     struct{}     `"load"`   //nolint
	Dir     string       `@String`  //nolint
	Options []LoadOption `{ @@ }` //nolint
}

// noinspection GoStructTag
type FilesCmd struct {
	Cmd struct{} `"files"` //nolint
}

// noinspection GoStructTag
type ErrorsCmd struct {
	Cmd struct{} `"errors"` //nolint
}

// noinspection GoStructTag
type SummaryCmd struct {
	Cmd  struct{} `"summary"`     //nolint
	File *string  `[ @String ]` //nolint
}

// noinspection GoStructTag
type ModesCmd struct {
	Cmd struct{} `"modes"` //nolint
}

// noinspection GoStructTag
type ExcludeCmd struct {
	Cmd    struct{}  `"exclude"`           //nolint
	Column string    `@String`             //nolint
	Values []float64 `( @Int | @Float )+` //nolint
}

// noinspection GoStructTag
type SampleCmd struct {
	Cmd  struct{} `"sample"`           //nolint
	N    int      `@Int`               //nolint
	Seed *int64   `[ "seed" @Int ]` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd  struct{} `"save"`  //nolint
	File string   `@String` //nolint
}

// noinspection GoStructTag
type OpenCmd struct {
	Cmd  struct{} `"open"`  //nolint
	File string   `@String` //nolint
}

// noinspection GoStructTag
type PositionsCmd struct {
	Cmd    struct{} `"positions"`               //nolint
	Action string   `[ @( "save" | "export" )` //nolint
	File   string   `  @String ]`              //nolint
}

// noinspection GoStructTag
type ExportCmd struct {
	Cmd  struct{} `"export"` //nolint
	File string   `@String`  //nolint
}

// noinspection GoStructTag
type MetricsCmd struct {
	Cmd  struct{} `"metrics"` //nolint
	File string   `@String`   //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                                                                             //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"note"|"warn"|"error"|"crit"|"off"|"none"|"T"|"D"|"I"|"N"|"W"|"E"|"C" )]` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
	filterParser  = participle.MustBuild(&FilterExpr{})
)

func parseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}

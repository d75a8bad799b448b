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
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/term"

	"github.com/lorad2d/d2deval/logger"
	"github.com/lorad2d/d2deval/scheme"
)

// helpTopic is the "### <command>" section of the shell manual.
type helpTopic struct {
	short string // first sentence of the description
	lines []string
}

type Help struct {
	termWidth uint
	topics    map[string]*helpTopic
}

var (
	linkTargetPattern = regexp.MustCompile(`\(#[a-z]+\)`)
	codeSpanPattern   = regexp.MustCompile("`([^`]*)`")
)

//go:embed README.md
var shellManual string

func newHelp() Help {
	h := Help{
		termWidth: 80,
		topics:    parseManual(shellManual),
	}
	h.update()
	return h
}

// update follows the width of the user's terminal.
func (help *Help) update() {
	fdTerm := int(os.Stdout.Fd()) // Windows platform requires cast to int.
	if term.IsTerminal(fdTerm) {
		width, _, err := term.GetSize(fdTerm)
		logger.PanicIfError(err, "Could not get terminal size.")
		help.termWidth = uint(width)
	}
}

func (help *Help) commands() []string {
	cmds := make([]string, 0, len(help.topics))
	for name := range help.topics {
		cmds = append(cmds, name)
	}
	sort.Strings(cmds)
	return cmds
}

// outputGeneralHelp lists all commands with their short description.
func (help *Help) outputGeneralHelp() string {
	var sb strings.Builder
	for _, name := range help.commands() {
		_, _ = fmt.Fprintf(&sb, "%-10s %s\n", name, help.topics[name].short)
	}
	sb.WriteString(wordwrap.WrapString("\nFor detailed help per command, use: 'help <command>'\n", help.termWidth))
	return sb.String()
}

// outputCommandHelp renders the manual section of one command, followed by
// what the selected scheme and filter mean for it.
func (help *Help) outputCommandHelp(command string, s *scheme.Scheme, f scheme.Filter) string {
	help.update()
	topic, ok := help.topics[command]
	if !ok {
		return command + "\n  (Non-existent command.)\n"
	}

	var sb strings.Builder
	sb.WriteString(command + "\n")
	help.writeIndented(&sb, topic.lines)
	help.writeIndented(&sb, schemeHelp(command, s, f))
	return sb.String()
}

func (help *Help) writeIndented(sb *strings.Builder, lines []string) {
	width := help.termWidth
	if width > 2 {
		width -= 2
	}
	for _, line := range lines {
		for _, l := range strings.Split(wordwrap.WrapString(line, width), "\n") {
			sb.WriteString(strings.TrimRight("  "+l, " ") + "\n")
		}
	}
}

// schemeHelp describes the part of scheme s that a command works with.
func schemeHelp(command string, s *scheme.Scheme, f scheme.Filter) []string {
	switch command {
	case "filter", "load":
		lines := []string{"", fmt.Sprintf("Fields of scheme %s:", s.Name)}
		for _, field := range s.Fields {
			lines = append(lines, fmt.Sprintf("  %-8s %s", field.Name, field.Column))
		}
		return append(lines, "", fmt.Sprintf("Current filter: %s (%s)", f, f.Glob()))
	case "modes", "scheme":
		if len(s.Modes) == 0 {
			return []string{"", fmt.Sprintf("Scheme %s labels no modes.", s.Name)}
		}
		lines := []string{"", fmt.Sprintf("Modes of scheme %s:", s.Name)}
		for _, m := range s.Modes {
			lines = append(lines, "  "+m.Label)
		}
		return lines
	}
	return nil
}

// parseManual splits the markdown manual into one topic per "### " header.
// Fenced "shell" blocks become the definition, "bash" blocks the example.
func parseManual(md string) map[string]*helpTopic {
	topics := map[string]*helpTopic{}
	var topic *helpTopic
	indent := ""
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "### "):
			topic = &helpTopic{}
			topics[strings.TrimSpace(line[4:])] = topic
			indent = ""
			continue
		case topic == nil || line == "":
			continue
		case line == "```shell":
			topic.lines = append(topic.lines, "", "Definition:")
			indent = "  "
			continue
		case line == "```bash":
			topic.lines = append(topic.lines, "", "Example:")
			indent = "  "
			continue
		case line == "```":
			indent = ""
			continue
		}

		if indent == "" {
			line = markdownUnquote(line)
			if topic.short == "" {
				topic.short = firstSentence(line)
			}
		}
		topic.lines = append(topic.lines, indent+line)
	}
	return topics
}

func firstSentence(line string) string {
	if idx := strings.Index(line, "."); idx > 0 {
		return line[:idx+1]
	}
	return line
}

func markdownUnquote(md string) string {
	md = strings.ReplaceAll(md, "\\", "")
	md = linkTargetPattern.ReplaceAllString(md, "")
	return codeSpanPattern.ReplaceAllString(md, "'$1'")
}

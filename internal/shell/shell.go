// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shell provides an interactive stepping interface over a
// tracer. The shell is the consumer side of the rendezvous: between
// commands the instrumented program stays parked at its last event.
package shell

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tracegate/tracegate/internal/record"
	"github.com/tracegate/tracegate/pkg/trace"
)

// CommandType identifies a shell command.
type CommandType string

const (
	CommandStep     CommandType = "step"
	CommandContinue CommandType = "continue"
	CommandLocals   CommandType = "locals"
	CommandScope    CommandType = "scope"
	CommandInspect  CommandType = "inspect"
	CommandEval     CommandType = "eval"
	CommandSet      CommandType = "set"
	CommandInfo     CommandType = "info"
	CommandQuit     CommandType = "quit"
)

// Command is one parsed shell command.
type Command struct {
	Type CommandType
	Args []string
}

// Shell provides an interactive stepping interface over a tracer.
type Shell struct {
	tracer *trace.Tracer
	sink   record.Sink
	input  io.Reader
	output io.Writer

	// continuing suppresses the prompt until the program finishes.
	continuing bool
}

// Option configures a Shell.
type Option func(*Shell)

// WithIO overrides the shell's input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Shell) {
		s.input = in
		s.output = out
	}
}

// WithSink records every delivered event into the given sink.
func WithSink(sink record.Sink) Option {
	return func(s *Shell) {
		s.sink = sink
	}
}

// New creates a shell driving the given tracer.
func New(tracer *trace.Tracer, opts ...Option) *Shell {
	s := &Shell{
		tracer: tracer,
		input:  os.Stdin,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the tracer and steps through its events interactively.
// It returns when the instrumented program finishes, the user quits,
// or the context is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	// Set up signal handling for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigCh)
		close(sigCh)
	}()

	go func() {
		for range sigCh {
			fmt.Fprintln(s.output, "\nInterrupt received. Type 'quit' to stop, or 'step' to resume.")
		}
	}()

	ev, err := s.tracer.Start()
	if err != nil {
		return err
	}

	// The producer stays parked between commands; on any exit path the
	// tracer must not be left holding it.
	defer s.tracer.Dispose()

	scanner := bufio.NewScanner(s.input)
	for ev != nil {
		if err := ctx.Err(); err != nil {
			return err
		}

		if s.sink != nil {
			if err := s.sink.Record(ctx, ev); err != nil {
				return fmt.Errorf("failed to record event: %w", err)
			}
		}

		if s.continuing {
			ev, err = s.tracer.Resume()
			if err != nil {
				return err
			}
			continue
		}

		quit, err := s.promptForCommand(scanner, ev)
		if err != nil {
			return err
		}
		if quit {
			return s.tracer.Dispose()
		}

		ev, err = s.tracer.Resume()
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(s.output, "✓ Program finished")
	return nil
}

// promptForCommand shows the paused event and reads commands until one
// resumes execution. It returns true when the user asked to quit.
func (s *Shell) promptForCommand(scanner *bufio.Scanner, ev *trace.Event) (bool, error) {
	s.displayEvent(ev)

	for {
		fmt.Fprint(s.output, "trace> ")

		if !scanner.Scan() {
			// EOF or error
			if err := scanner.Err(); err != nil {
				return false, fmt.Errorf("input error: %w", err)
			}
			// EOF - treat as quit
			return true, nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, err := s.parseCommand(line)
		if err != nil {
			fmt.Fprintf(s.output, "Error: %v\n", err)
			continue
		}

		switch cmd.Type {
		case CommandStep:
			return false, nil

		case CommandContinue:
			s.continuing = true
			return false, nil

		case CommandQuit:
			return true, nil

		case CommandLocals:
			s.handleLocals(ev)

		case CommandScope:
			s.handleScope(ev)

		case CommandInspect:
			s.handleInspect(ev, cmd.Args)

		case CommandEval:
			s.handleEval(ev, cmd.Args)

		case CommandSet:
			s.handleSet(ev, cmd.Args)

		case CommandInfo:
			s.handleInfo(ev)
		}
	}
}

// parseCommand parses a command string into a Command struct.
func (s *Shell) parseCommand(line string) (*Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	cmdStr := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmdStr {
	case "s", "step", "n", "next":
		return &Command{Type: CommandStep}, nil

	case "c", "continue":
		return &Command{Type: CommandContinue}, nil

	case "q", "quit", "dispose":
		return &Command{Type: CommandQuit}, nil

	case "l", "locals":
		return &Command{Type: CommandLocals}, nil

	case "scope":
		return &Command{Type: CommandScope}, nil

	case "i", "inspect":
		if len(args) == 0 {
			return nil, fmt.Errorf("inspect requires a variable name")
		}
		return &Command{Type: CommandInspect, Args: args}, nil

	case "e", "eval":
		if len(args) == 0 {
			return nil, fmt.Errorf("eval requires an expression")
		}
		return &Command{Type: CommandEval, Args: args}, nil

	case "set":
		if len(args) < 2 {
			return nil, fmt.Errorf("set requires a variable name and a value")
		}
		return &Command{Type: CommandSet, Args: args}, nil

	case "info":
		return &Command{Type: CommandInfo}, nil

	case "h", "help", "?":
		s.showHelp()
		return nil, fmt.Errorf("help displayed")

	default:
		return nil, fmt.Errorf("unknown command: %s (type 'help' for commands)", cmdStr)
	}
}

// displayEvent shows information about the current paused event.
func (s *Shell) displayEvent(ev *trace.Event) {
	rec := ev.Serialize()
	fmt.Fprintln(s.output, "\n═══════════════════════════════════════════════════════════")
	if rec.MethodID != "" {
		fmt.Fprintf(s.output, "Paused at %s: %s#%s (%s:%d)\n", rec.Event, rec.ModuleName, rec.MethodID, rec.Path, rec.Lineno)
	} else {
		fmt.Fprintf(s.output, "Paused at %s (%s:%d)\n", rec.Event, rec.Path, rec.Lineno)
	}
	fmt.Fprintln(s.output, "───────────────────────────────────────────────────────────")

	if frame := ev.Scope(); frame != nil && len(frame.Names()) > 0 {
		fmt.Fprintln(s.output, "Locals:")
		for _, name := range frame.Names() {
			fmt.Fprintf(s.output, "  - %s\n", name)
		}
	} else {
		fmt.Fprintln(s.output, "Locals: (none)")
	}

	fmt.Fprintln(s.output, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(s.output, "Commands: step, continue, locals, scope, inspect <name>, eval <expr>, set <name> <value>, info, quit, help")
	fmt.Fprintln(s.output)
}

// handleLocals summarizes the paused frame's variables.
func (s *Shell) handleLocals(ev *trace.Event) {
	frame := ev.Scope()
	if frame == nil || len(frame.Names()) == 0 {
		fmt.Fprintln(s.output, "Scope is empty")
		return
	}

	inspector := NewInspector(frame.Snapshot())
	fmt.Fprintln(s.output, "Locals:")
	fmt.Fprint(s.output, inspector.Summary())
}

// handleScope dumps the entire scope as JSON.
func (s *Shell) handleScope(ev *trace.Event) {
	frame := ev.Scope()
	if frame == nil {
		fmt.Fprintln(s.output, "No scope at this event")
		return
	}

	inspector := NewInspector(frame.Snapshot())
	formatted, err := inspector.FormatScope()
	if err != nil {
		fmt.Fprintf(s.output, "Error formatting scope: %v\n", err)
		return
	}
	fmt.Fprintln(s.output, formatted)
}

// handleInspect shows the value of one scope variable.
func (s *Shell) handleInspect(ev *trace.Event, args []string) {
	frame := ev.Scope()
	if frame == nil {
		fmt.Fprintln(s.output, "No scope at this event")
		return
	}

	name := args[0]
	inspector := NewInspector(frame.Snapshot())
	value, ok := inspector.Get(name)
	if !ok {
		fmt.Fprintf(s.output, "Variable '%s' not found in scope\n", name)
		return
	}

	formatted, err := inspector.Format(value)
	if err != nil {
		fmt.Fprintf(s.output, "Error formatting value: %v\n", err)
		return
	}

	fmt.Fprintf(s.output, "%s = %s\n", name, formatted)
}

// handleEval evaluates an expression against the paused frame.
func (s *Shell) handleEval(ev *trace.Event, args []string) {
	frame := ev.Scope()
	if frame == nil {
		fmt.Fprintln(s.output, "No scope at this event")
		return
	}

	src := strings.Join(args, " ")
	result, err := frame.Eval(src)
	if err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.output, "=> %v\n", result)
}

// handleSet mutates one scope variable. The value is parsed as JSON
// and falls back to a plain string.
func (s *Shell) handleSet(ev *trace.Event, args []string) {
	frame := ev.Scope()
	if frame == nil {
		fmt.Fprintln(s.output, "No scope at this event")
		return
	}

	name := args[0]
	raw := strings.Join(args[1:], " ")

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	frame.Set(name, value)
	fmt.Fprintf(s.output, "%s = %v\n", name, value)
}

// handleInfo dumps the serialized record of the current event.
func (s *Shell) handleInfo(ev *trace.Event) {
	jsonBytes, err := json.MarshalIndent(ev.Serialize(), "", "  ")
	if err != nil {
		fmt.Fprintf(s.output, "Error formatting event: %v\n", err)
		return
	}
	fmt.Fprintln(s.output, string(jsonBytes))
}

// showHelp displays available commands.
func (s *Shell) showHelp() {
	help := `
Trace Commands:
  step, s, next, n    Deliver the next trace event
  continue, c         Run to completion without prompting
  locals, l           List scope variables with their types
  scope               Dump the entire scope as JSON
  inspect <name>, i   Show the value of a scope variable (dot notation ok)
  eval <expr>, e      Evaluate an expression against the scope
  set <name> <value>  Mutate a scope variable (value parsed as JSON)
  info                Dump the current event as JSON
  quit, q, dispose    Dispose the tracer and exit
  help, h, ?          Show this help message

Press Ctrl+C to interrupt (then choose to quit or step)
`
	fmt.Fprintln(s.output, help)
}

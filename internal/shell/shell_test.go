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

package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tracegate/tracegate/pkg/trace"
)

// pausedAt runs a tracer up to its first event and returns the shell,
// the event, and the output buffer. The producer stays parked at the
// event until the tracer is disposed.
func pausedAt(t *testing.T, vars map[string]interface{}) (*Shell, *trace.Event, *bytes.Buffer) {
	t.Helper()

	tr := trace.New(func(p *trace.Probe) {
		frame := trace.NewFrame()
		for k, v := range vars {
			frame.Set(k, v)
		}
		p.Call("lib/demo.go", 3, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
		p.Return("lib/demo.go", 5, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
	})
	t.Cleanup(func() { tr.Dispose() })

	var output bytes.Buffer
	sh := New(tr, WithIO(strings.NewReader(""), &output))

	ev, err := tr.Start()
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return sh, ev, &output
}

func TestShell_ParseCommand(t *testing.T) {
	sh, _, _ := pausedAt(t, nil)

	tests := []struct {
		name    string
		input   string
		wantCmd CommandType
		wantErr bool
	}{
		{
			name:    "step command",
			input:   "step",
			wantCmd: CommandStep,
			wantErr: false,
		},
		{
			name:    "step shorthand",
			input:   "s",
			wantCmd: CommandStep,
			wantErr: false,
		},
		{
			name:    "next aliases step",
			input:   "next",
			wantCmd: CommandStep,
			wantErr: false,
		},
		{
			name:    "continue command",
			input:   "continue",
			wantCmd: CommandContinue,
			wantErr: false,
		},
		{
			name:    "locals command",
			input:   "locals",
			wantCmd: CommandLocals,
			wantErr: false,
		},
		{
			name:    "scope command",
			input:   "scope",
			wantCmd: CommandScope,
			wantErr: false,
		},
		{
			name:    "inspect command with arg",
			input:   "inspect message",
			wantCmd: CommandInspect,
			wantErr: false,
		},
		{
			name:    "inspect without arg",
			input:   "inspect",
			wantCmd: CommandInspect,
			wantErr: true,
		},
		{
			name:    "eval command",
			input:   "eval count + 1",
			wantCmd: CommandEval,
			wantErr: false,
		},
		{
			name:    "eval without arg",
			input:   "eval",
			wantCmd: CommandEval,
			wantErr: true,
		},
		{
			name:    "set command",
			input:   "set count 2",
			wantCmd: CommandSet,
			wantErr: false,
		},
		{
			name:    "set without value",
			input:   "set count",
			wantCmd: CommandSet,
			wantErr: true,
		},
		{
			name:    "info command",
			input:   "info",
			wantCmd: CommandInfo,
			wantErr: false,
		},
		{
			name:    "quit command",
			input:   "quit",
			wantCmd: CommandQuit,
			wantErr: false,
		},
		{
			name:    "dispose aliases quit",
			input:   "dispose",
			wantCmd: CommandQuit,
			wantErr: false,
		},
		{
			name:    "help command",
			input:   "help",
			wantCmd: "",
			wantErr: true, // help displays help and returns error
		},
		{
			name:    "unknown command",
			input:   "unknown",
			wantCmd: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := sh.parseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cmd.Type != tt.wantCmd {
				t.Errorf("parseCommand() cmd.Type = %v, want %v", cmd.Type, tt.wantCmd)
			}
		})
	}
}

func TestShell_HandleInspect(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"message": "Ruby is",
	})

	sh.handleInspect(ev, []string{"message"})

	outputStr := output.String()
	if !strings.Contains(outputStr, "message") {
		t.Errorf("Expected output to contain 'message', got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Ruby is") {
		t.Errorf("Expected output to contain the value, got: %s", outputStr)
	}
}

func TestShell_HandleInspect_MissingName(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"message": "Ruby is",
	})

	sh.handleInspect(ev, []string{"missing"})

	if !strings.Contains(output.String(), "not found") {
		t.Errorf("Expected output to contain 'not found', got: %s", output.String())
	}
}

func TestShell_HandleEval(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"count": 2,
	})

	sh.handleEval(ev, []string{"count", "*", "3"})

	if !strings.Contains(output.String(), "6") {
		t.Errorf("Expected eval result 6, got: %s", output.String())
	}
}

func TestShell_HandleSet(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"count": 2,
	})

	sh.handleSet(ev, []string{"count", "5"})

	value, ok := ev.Scope().Get("count")
	if !ok {
		t.Fatal("Expected 'count' to remain in scope")
	}
	if value != float64(5) {
		t.Errorf("Expected count = 5 after set, got %v (%T)", value, value)
	}
	if !strings.Contains(output.String(), "5") {
		t.Errorf("Expected output to show new value, got: %s", output.String())
	}
}

func TestShell_HandleSet_StringFallback(t *testing.T) {
	sh, ev, _ := pausedAt(t, nil)

	sh.handleSet(ev, []string{"greeting", "hello", "there"})

	value, ok := ev.Scope().Get("greeting")
	if !ok {
		t.Fatal("Expected 'greeting' to be set")
	}
	if value != "hello there" {
		t.Errorf("Expected plain string fallback, got %v", value)
	}
}

func TestShell_HandleInfo(t *testing.T) {
	sh, ev, output := pausedAt(t, nil)

	sh.handleInfo(ev)

	outputStr := output.String()
	if !strings.Contains(outputStr, `"event": "call"`) {
		t.Errorf("Expected serialized event kind, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "lib/demo.go") {
		t.Errorf("Expected serialized path, got: %s", outputStr)
	}
}

func TestShell_HandleScope(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"count":   2,
		"message": "Ruby is",
	})

	sh.handleScope(ev)

	outputStr := output.String()
	if !strings.Contains(outputStr, `"count": 2`) {
		t.Errorf("Expected scope dump to include count, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, `"message": "Ruby is"`) {
		t.Errorf("Expected scope dump to include message, got: %s", outputStr)
	}
}

func TestShell_HandleLocals_Empty(t *testing.T) {
	sh, ev, output := pausedAt(t, nil)

	sh.handleLocals(ev)

	if !strings.Contains(output.String(), "empty") {
		t.Errorf("Expected output to contain 'empty', got: %s", output.String())
	}
}

func TestShell_DisplayEvent(t *testing.T) {
	sh, ev, output := pausedAt(t, map[string]interface{}{
		"var1": "value1",
		"var2": "value2",
	})

	sh.displayEvent(ev)

	outputStr := output.String()
	if !strings.Contains(outputStr, "run") {
		t.Errorf("Expected output to contain method name, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "var1") {
		t.Errorf("Expected output to contain 'var1', got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "var2") {
		t.Errorf("Expected output to contain 'var2', got: %s", outputStr)
	}
}

func TestShell_ShowHelp(t *testing.T) {
	sh, _, output := pausedAt(t, nil)

	sh.showHelp()

	outputStr := output.String()
	expectedCommands := []string{"step", "continue", "locals", "scope", "inspect", "eval", "set", "info", "quit", "help"}
	for _, cmd := range expectedCommands {
		if !strings.Contains(outputStr, cmd) {
			t.Errorf("Expected help output to contain '%s', got: %s", cmd, outputStr)
		}
	}
}

func TestShell_Run_ScriptedSession(t *testing.T) {
	tr := trace.New(func(p *trace.Probe) {
		frame := trace.NewFrame()
		frame.Set("message", "Ruby is")
		p.Call("lib/demo.go", 3, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
		p.Return("lib/demo.go", 5, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
	})

	input := strings.NewReader("locals\nstep\ncontinue\n")
	var output bytes.Buffer
	sh := New(tr, WithIO(input, &output))

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	outputStr := output.String()
	if !strings.Contains(outputStr, "message") {
		t.Errorf("Expected locals listing in output, got: %s", outputStr)
	}
	if !strings.Contains(outputStr, "Program finished") {
		t.Errorf("Expected completion message, got: %s", outputStr)
	}
}

func TestShell_Run_EOFDisposes(t *testing.T) {
	tr := trace.New(func(p *trace.Probe) {
		frame := trace.NewFrame()
		p.Call("lib/demo.go", 3, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
		p.Return("lib/demo.go", 5, nil, trace.Method{Name: "run", Owner: "Demo"}, frame)
	})

	var output bytes.Buffer
	sh := New(tr, WithIO(strings.NewReader(""), &output))

	if err := sh.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tr.State() != trace.StateDisposed {
		t.Errorf("Expected disposed tracer after EOF, got state %v", tr.State())
	}
}

func TestInspector_Get_DotNotation(t *testing.T) {
	inspector := NewInspector(map[string]interface{}{
		"request": map[string]interface{}{
			"headers": map[string]interface{}{
				"accept": "text/html",
			},
		},
	})

	value, ok := inspector.Get("request.headers.accept")
	if !ok {
		t.Fatal("Expected nested lookup to succeed")
	}
	if value != "text/html" {
		t.Errorf("Expected 'text/html', got %v", value)
	}

	if _, ok := inspector.Get("request.body"); ok {
		t.Error("Expected missing nested key to report not found")
	}
	if _, ok := inspector.Get("request.headers.accept.charset"); ok {
		t.Error("Expected traversal through a leaf to report not found")
	}
}

func TestInspector_Summary(t *testing.T) {
	inspector := NewInspector(map[string]interface{}{
		"count":   2,
		"message": "Ruby is",
	})

	summary := inspector.Summary()
	if !strings.Contains(summary, "count: int") {
		t.Errorf("Expected summary to name types, got: %s", summary)
	}
	if !strings.Contains(summary, "message: string") {
		t.Errorf("Expected summary to include message, got: %s", summary)
	}
}

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

package demo

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tracegate/tracegate/internal/commands/shared"
	"github.com/tracegate/tracegate/internal/config"
	"github.com/tracegate/tracegate/internal/export"
	"github.com/tracegate/tracegate/internal/log"
	"github.com/tracegate/tracegate/internal/record"
	"github.com/tracegate/tracegate/internal/shell"
	"github.com/tracegate/tracegate/pkg/trace"
)

// NewDemoCommand creates the demo command
func NewDemoCommand() *cobra.Command {
	var (
		events      []string
		pauseExpr   string
		storePath   string
		jsonlPath   string
		otelSpans   bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Step through the built-in sample program",
		Long: `Run the built-in greeting program under the interactive shell.
The program parks at every delivered event; use 'step' to advance it,
'inspect' and 'set' to look at and mutate its scope.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, events, pauseExpr, storePath, jsonlPath, otelSpans, metricsAddr)
		},
	}

	cmd.Flags().StringSliceVar(&events, "events", nil, "Event kinds to deliver (e.g. call,return,line); default call,return,c_call,c_return")
	cmd.Flags().StringVar(&pauseExpr, "pause", "", "Pause predicate expression (e.g. 'kind == \"call\" && method == \"shout\"')")
	cmd.Flags().StringVar(&storePath, "record", "", "SQLite session store path")
	cmd.Flags().StringVar(&jsonlPath, "jsonl", "", "Append delivered events to a JSONL file")
	cmd.Flags().BoolVar(&otelSpans, "otel", false, "Export the session as console spans and session metrics")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve the Prometheus scrape endpoint at this address (requires --otel)")

	return cmd
}

func runDemo(cmd *cobra.Command, events []string, pauseExpr, storePath, jsonlPath string, otelSpans bool, metricsAddr string) error {
	cfg := config.Default()
	if path := shared.GetConfigPath(); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return shared.NewInvalidConfigError("failed to load config", err)
		}
		cfg = loaded
	}

	// Flags override config file values
	if len(events) > 0 {
		cfg.Events = events
	}
	if pauseExpr != "" {
		cfg.Pause = pauseExpr
	}
	if storePath != "" {
		cfg.Record.Path = storePath
	}
	if jsonlPath != "" {
		cfg.Record.JSONL = jsonlPath
	}

	opts, err := cfg.Options()
	if err != nil {
		return shared.NewInvalidInputError("invalid event filter", err)
	}

	logCfg := log.FromEnv()
	if lvl := shared.LogLevel(); lvl != "" {
		logCfg.Level = lvl
	}
	logger := log.New(logCfg)
	opts = append(opts, trace.WithLogger(log.WithComponent(logger, "demo")))

	var provider *export.Provider
	if otelSpans {
		v, _, _ := shared.GetVersion()
		p, err := export.NewProvider(export.Config{
			ServiceName:    "tracegate",
			ServiceVersion: v,
			Writer:         cmd.OutOrStdout(),
			PrettyPrint:    true,
		})
		if err != nil {
			return shared.NewExecutionError("failed to set up span exporter", err)
		}
		defer p.Shutdown(cmd.Context())
		provider = p
		opts = append(opts, trace.WithObserver(export.NewObserver(p.Metrics())))
	}
	if metricsAddr != "" {
		if provider == nil {
			return shared.NewInvalidInputError("--metrics-addr requires --otel", nil)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.MetricsHandler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		defer srv.Shutdown(cmd.Context())
		if !shared.GetQuiet() {
			cmd.Printf("Serving metrics on http://%s/metrics\n", metricsAddr)
		}
	}

	tracer := trace.New(greetingProgram, opts...)

	if cfg.Pause != "" {
		if err := tracer.PauseWhenExpr(cfg.Pause); err != nil {
			return shared.NewInvalidInputError("invalid pause expression", err)
		}
	}

	sessionID := uuid.NewString()
	sinks, cleanup, err := buildSinks(cmd, cfg, tracer, sessionID, provider)
	defer cleanup()
	if err != nil {
		return err
	}

	shellOpts := []shell.Option{
		shell.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
	}
	if len(sinks) > 0 {
		shellOpts = append(shellOpts, shell.WithSink(record.Multi(sinks)))
	}

	sh := shell.New(tracer, shellOpts...)
	if err := sh.Run(cmd.Context()); err != nil {
		return shared.NewExecutionError("tracing session failed", err)
	}
	return nil
}

// buildSinks assembles the recording pipeline the flags and config ask
// for. The returned cleanup closes everything in reverse order.
func buildSinks(cmd *cobra.Command, cfg *config.Config, tracer *trace.Tracer, sessionID string, provider *export.Provider) ([]record.Sink, func(), error) {
	var (
		sinks   []record.Sink
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Record.Path != "" {
		store, err := record.Open(record.Config{Path: cfg.Record.Path})
		if err != nil {
			return nil, cleanup, shared.NewStorageError("failed to open session store", err)
		}
		closers = append(closers, func() { store.Close() })

		sink, err := store.BeginSession(cmd.Context(), sessionID, tracer.ID(), "demo: greeting program", tracer.Filter())
		if err != nil {
			return nil, cleanup, shared.NewStorageError("failed to begin session", err)
		}
		sinks = append(sinks, sink)
		if !shared.GetQuiet() {
			cmd.Printf("Recording session %s\n", sessionID)
		}
	}

	if cfg.Record.JSONL != "" {
		sink, err := record.OpenJSONLFile(cfg.Record.JSONL)
		if err != nil {
			return nil, cleanup, shared.NewStorageError("failed to open JSONL file", err)
		}
		sinks = append(sinks, sink)
	}

	if provider != nil {
		sinks = append(sinks,
			export.NewSpanSink(provider.Tracer("demo"), sessionID),
			export.NewMetricsSink(provider.Metrics()))
	}

	// Sinks close before the store shuts down; the provider flushes in
	// the caller, after everything here.
	if len(sinks) > 0 {
		all := record.Multi(sinks)
		closers = append(closers, func() { all.Close() })
	}
	return sinks, cleanup, nil
}

// greetingProgram is the built-in instrumented sample. It mirrors a
// small object-oriented greeting script: a class body defines greet
// and shout, then the caller formats a message and upcases part of it.
func greetingProgram(p *trace.Probe) {
	const path = "demo/greeting.rb"

	top := trace.NewFrame()
	top.Set("message", "Ruby is")

	greet := trace.NewFrame()
	greet.Set("message", "Ruby is")
	p.Call(path, 3, "Greeting", trace.Method{Name: "greet", Owner: "Greeting", Singleton: true}, greet)
	p.Line(path, 4, greet)

	// greet may have been mutated while parked; pick up the change.
	message, _ := greet.Get("message")
	text := fmt.Sprintf("%v cool.", message)
	greet.Set("text", text)

	shout := trace.NewFrame()
	shout.Set("text", text)
	p.Call(path, 8, "Greeting", trace.Method{Name: "shout", Owner: "Greeting", Singleton: true}, shout)
	p.Line(path, 9, shout)

	p.CCall(path, 9, text, trace.Method{Name: "upcase", Owner: "String"}, shout)
	loud := strings.ToUpper(text)
	shout.Set("loud", loud)
	p.CReturn(path, 9, loud, trace.Method{Name: "upcase", Owner: "String"}, shout)

	p.Return(path, 10, loud, trace.Method{Name: "shout", Owner: "Greeting", Singleton: true}, shout)
	p.Return(path, 5, text, trace.Method{Name: "greet", Owner: "Greeting", Singleton: true}, greet)

	top.Set("result", loud)
	p.Line(path, 13, top)
}

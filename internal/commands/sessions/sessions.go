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

package sessions

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tracegate/tracegate/internal/commands/shared"
	"github.com/tracegate/tracegate/internal/record"
)

// NewSessionsCommand creates the sessions command group
func NewSessionsCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded tracing sessions",
		Long:  `List tracing sessions recorded in the session store, newest first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, dbPath)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "tracegate.db", "Session store path")

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show the events of one recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, dbPath, args[0])
		},
	}
	cmd.AddCommand(show)

	return cmd
}

func runList(cmd *cobra.Command, dbPath string) error {
	store, err := record.Open(record.Config{Path: dbPath})
	if err != nil {
		return shared.NewStorageError("failed to open session store", err)
	}
	defer store.Close()

	sessions, err := store.ListSessions(cmd.Context())
	if err != nil {
		return shared.NewStorageError("failed to list sessions", err)
	}

	if shared.GetJSON() {
		data, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sessions: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(sessions) == 0 {
		cmd.Println("No recorded sessions")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTARTED\tEVENTS\tFILTER\tLABEL")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.StartedAt.Format(time.RFC3339), s.EventCount, s.Filter, s.Label)
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, dbPath, sessionID string) error {
	store, err := record.Open(record.Config{Path: dbPath})
	if err != nil {
		return shared.NewStorageError("failed to open session store", err)
	}
	defer store.Close()

	events, err := store.Events(cmd.Context(), sessionID)
	if err != nil {
		return shared.NewStorageError("failed to read session events", err)
	}

	if shared.GetJSON() {
		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal events: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(events) == 0 {
		cmd.Printf("No events recorded for session %s\n", sessionID)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tEVENT\tLOCATION\tMETHOD")
	for i, rec := range events {
		method := rec.MethodID
		if method != "" && rec.ModuleName != "" {
			method = rec.ModuleName + "#" + rec.MethodID
		}
		fmt.Fprintf(w, "%d\t%s\t%s:%d\t%s\n", i, rec.Event, rec.Path, rec.Lineno, method)
	}
	return w.Flush()
}

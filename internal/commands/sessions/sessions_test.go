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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracegate/tracegate/internal/record"
	"github.com/tracegate/tracegate/pkg/trace"
)

// seedStore records one short session into a fresh store file.
func seedStore(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracegate.db")

	store, err := record.Open(record.Config{Path: path})
	require.NoError(t, err)
	defer store.Close()

	sink, err := store.BeginSession(ctx, "s-1", "t-1", "seeded run", trace.DefaultFilter())
	require.NoError(t, err)

	tr := trace.New(func(p *trace.Probe) {
		frame := trace.NewFrame()
		p.Call("lib/greeting.go", 3, nil, trace.Method{Name: "greet", Owner: "Greeting"}, frame)
		p.Return("lib/greeting.go", 5, nil, trace.Method{Name: "greet", Owner: "Greeting"}, frame)
	})
	defer tr.Dispose()

	ev, err := tr.Start()
	require.NoError(t, err)
	for ev != nil {
		require.NoError(t, sink.Record(ctx, ev))
		ev, err = tr.Resume()
		require.NoError(t, err)
	}
	require.NoError(t, sink.Close())
	return path
}

func TestSessionsList(t *testing.T) {
	path := seedStore(t)

	cmd := NewSessionsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--db", path})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "s-1")
	assert.Contains(t, output, "seeded run")
}

func TestSessionsShow(t *testing.T) {
	path := seedStore(t)

	cmd := NewSessionsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"show", "s-1", "--db", path})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "call")
	assert.Contains(t, output, "lib/greeting.go:3")
	assert.Contains(t, output, "Greeting#greet")
}

func TestSessionsShowEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracegate.db")
	store, err := record.Open(record.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cmd := NewSessionsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"show", "missing", "--db", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No events recorded")
}

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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Inspector provides utilities for inspecting a paused frame's scope.
type Inspector struct {
	scope map[string]interface{}
}

// NewInspector creates a new inspector for the given scope snapshot.
func NewInspector(scope map[string]interface{}) *Inspector {
	return &Inspector{
		scope: scope,
	}
}

// Get retrieves a value from the scope by name.
// Supports dot notation for nested access (e.g., "request.headers").
func (i *Inspector) Get(name string) (interface{}, bool) {
	parts := strings.Split(name, ".")
	current := i.scope

	for idx, part := range parts {
		value, ok := current[part]
		if !ok {
			return nil, false
		}

		// If this is the last part, return the value
		if idx == len(parts)-1 {
			return value, true
		}

		// Otherwise, try to navigate deeper
		nested, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = nested
	}

	return nil, false
}

// Names returns all top-level variable names in the scope, sorted.
func (i *Inspector) Names() []string {
	names := make([]string, 0, len(i.scope))
	for k := range i.scope {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Format formats a value for display.
func (i *Inspector) Format(value interface{}) (string, error) {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format value: %w", err)
	}
	return string(bytes), nil
}

// FormatScope formats the entire scope for display.
func (i *Inspector) FormatScope() (string, error) {
	return i.Format(i.scope)
}

// Summary returns a summary of the scope (variable names and types).
func (i *Inspector) Summary() string {
	var b strings.Builder
	for _, name := range i.Names() {
		b.WriteString(fmt.Sprintf("  %s: %T\n", name, i.scope[name]))
	}
	return b.String()
}

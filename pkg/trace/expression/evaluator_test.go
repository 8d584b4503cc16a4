package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracegate/tracegate/pkg/errors"
)

func TestEvaluateBool(t *testing.T) {
	eval := New()

	ctx := map[string]interface{}{
		"kind":   "call",
		"line":   12,
		"method": "greet",
		"locals": map[string]interface{}{
			"message": "Ruby is",
			"tags":    []interface{}{"hot", "new"},
		},
	}

	tests := []struct {
		name       string
		expression string
		want       bool
	}{
		{
			name:       "empty expression defaults to true",
			expression: "",
			want:       true,
		},
		{
			name:       "kind equality",
			expression: `kind == "call"`,
			want:       true,
		},
		{
			name:       "numeric comparison",
			expression: `line > 20`,
			want:       false,
		},
		{
			name:       "boolean logic",
			expression: `kind == "call" && method == "greet"`,
			want:       true,
		},
		{
			name:       "locals access",
			expression: `locals.message == "Ruby is"`,
			want:       true,
		},
		{
			name:       "membership operator",
			expression: `"hot" in locals.tags`,
			want:       true,
		},
		{
			name:       "has function",
			expression: `has(locals.tags, "new")`,
			want:       true,
		},
		{
			name:       "length function",
			expression: `length(locals.tags) == 2`,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.EvaluateBool(tt.expression, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateBoolErrors(t *testing.T) {
	eval := New()

	t.Run("syntax error", func(t *testing.T) {
		_, err := eval.EvaluateBool(`kind ==`, map[string]interface{}{})
		var ve *errors.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "expression", ve.Field)
	})

	t.Run("runtime failure", func(t *testing.T) {
		_, err := eval.EvaluateBool(`locals.missing.deeper == 1`, map[string]interface{}{
			"locals": map[string]interface{}{},
		})
		require.Error(t, err)
	})
}

func TestEvaluateValue(t *testing.T) {
	eval := New()

	v, err := eval.Evaluate(`message + " cool."`, map[string]interface{}{
		"message": "Ruby is",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ruby is cool.", v)
}

func TestCompile(t *testing.T) {
	eval := New()

	require.NoError(t, eval.Compile(`kind == "call"`, true))

	err := eval.Compile(`kind ==`, true)
	var ve *errors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCache(t *testing.T) {
	eval := New()
	require.Equal(t, 0, eval.CacheSize())

	ctx := map[string]interface{}{"line": 1}
	_, err := eval.EvaluateBool(`line > 0`, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, eval.CacheSize())

	// Repeated evaluation reuses the compiled program.
	_, err = eval.EvaluateBool(`line > 0`, ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, eval.CacheSize())

	// The same source compiled without AsBool is a distinct entry.
	_, err = eval.Evaluate(`line > 0`, ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, eval.CacheSize())

	eval.ClearCache()
	assert.Equal(t, 0, eval.CacheSize())
}

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameGetSet(t *testing.T) {
	f := NewFrame()

	_, ok := f.Get("message")
	assert.False(t, ok)

	f.Set("message", "Ruby is")
	v, ok := f.Get("message")
	require.True(t, ok)
	assert.Equal(t, "Ruby is", v)

	f.Set("message", "Ruby is cool.")
	v, _ = f.Get("message")
	assert.Equal(t, "Ruby is cool.", v)
}

func TestFrameNames(t *testing.T) {
	f := NewFrame()
	f.Set("b", 2)
	f.Set("a", 1)
	f.Set("c", 3)

	assert.Equal(t, []string{"a", "b", "c"}, f.Names())
}

func TestFrameSnapshotIsCopy(t *testing.T) {
	f := NewFrame()
	f.Set("count", 1)

	snap := f.Snapshot()
	snap["count"] = 99

	v, _ := f.Get("count")
	assert.Equal(t, 1, v, "mutating a snapshot must not touch the frame")
}

func TestFrameApply(t *testing.T) {
	f := NewFrame()
	f.Set("message", "Ruby is")
	f.Set("count", 1)

	f.Apply(map[string]interface{}{
		"message": "Ruby is cool.",
		"extra":   true,
	})

	v, _ := f.Get("message")
	assert.Equal(t, "Ruby is cool.", v)
	v, _ = f.Get("count")
	assert.Equal(t, 1, v)
	v, _ = f.Get("extra")
	assert.Equal(t, true, v)
}

func TestFrameEval(t *testing.T) {
	f := NewFrame()
	f.Set("message", "Ruby is")
	f.Set("count", 4)

	t.Run("reads locals by name", func(t *testing.T) {
		v, err := f.Eval(`message + " cool."`)
		require.NoError(t, err)
		assert.Equal(t, "Ruby is cool.", v)
	})

	t.Run("arithmetic", func(t *testing.T) {
		v, err := f.Eval(`count * 2`)
		require.NoError(t, err)
		assert.Equal(t, 8, v)
	})

	t.Run("compile error", func(t *testing.T) {
		_, err := f.Eval(`count +`)
		require.Error(t, err)
	})
}

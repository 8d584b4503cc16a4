package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()

	for _, k := range []Kind{KindCall, KindReturn, KindCCall, KindCReturn} {
		assert.True(t, f.Admits(k), "default filter should admit %s", k)
	}
	for _, k := range []Kind{KindLine, KindRaise, KindClass, KindEnd, KindBCall} {
		assert.False(t, f.Admits(k), "default filter should not admit %s", k)
	}
	assert.False(t, f.All())
}

func TestAllEvents(t *testing.T) {
	f := AllEvents()

	assert.True(t, f.All())
	for _, k := range Kinds() {
		assert.True(t, f.Admits(k))
	}
	assert.Equal(t, "all", f.String())
	assert.Len(t, f.Kinds(), len(Kinds()))
}

func TestZeroFilterAdmitsNothing(t *testing.T) {
	var f FilterSet
	for _, k := range Kinds() {
		assert.False(t, f.Admits(k))
	}
}

func TestParseFilter(t *testing.T) {
	t.Run("explicit kinds", func(t *testing.T) {
		f, err := ParseFilter([]string{"call", "line"})
		require.NoError(t, err)
		assert.True(t, f.Admits(KindCall))
		assert.True(t, f.Admits(KindLine))
		assert.False(t, f.Admits(KindReturn))
		assert.Equal(t, "call,line", f.String())
	})

	t.Run("wildcard sentinel", func(t *testing.T) {
		f, err := ParseFilter([]string{"all"})
		require.NoError(t, err)
		assert.True(t, f.All())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := ParseFilter([]string{"call", "jump"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jump")
	})
}

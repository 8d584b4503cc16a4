package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err, "kind %s", k)
		assert.Equal(t, k, parsed)
	}
}

func TestParseKindUnknown(t *testing.T) {
	_, err := ParseKind("call_return")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_return")
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		kind        Kind
		isCall      bool
		isReturn    bool
		isLine      bool
		isRaise     bool
		isModuleOp  bool
		isModuleCl  bool
		isBlockKind bool
	}{
		{kind: KindCall, isCall: true},
		{kind: KindCCall, isCall: true},
		{kind: KindReturn, isReturn: true},
		{kind: KindCReturn, isReturn: true},
		{kind: KindLine, isLine: true},
		{kind: KindRaise, isRaise: true},
		{kind: KindClass, isModuleOp: true},
		{kind: KindEnd, isModuleCl: true},
		{kind: KindBCall, isBlockKind: true},
		{kind: KindBReturn, isBlockKind: true},
		{kind: KindThreadBegin},
		{kind: KindFiberSwitch},
		{kind: KindScriptCompiled},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.isCall, tt.kind.IsCall())
			assert.Equal(t, tt.isReturn, tt.kind.IsReturn())
			assert.Equal(t, tt.isLine, tt.kind.IsLine())
			assert.Equal(t, tt.isRaise, tt.kind.IsRaise())
			assert.Equal(t, tt.isModuleOp, tt.kind.IsModuleOpen())
			assert.Equal(t, tt.isModuleCl, tt.kind.IsModuleClose())
			assert.Equal(t, tt.isBlockKind, tt.kind.IsBlock())
		})
	}
}

package trace

import (
	"fmt"

	"github.com/tracegate/tracegate/pkg/errors"
)

// Kind identifies the type of a trace event. The set of kinds is closed;
// new kinds are never added at runtime.
type Kind uint8

const (
	// KindCall is a managed method call.
	KindCall Kind = iota + 1

	// KindReturn is a managed method return.
	KindReturn

	// KindCCall is a native-implementation method call.
	KindCCall

	// KindCReturn is a native-implementation method return.
	KindCReturn

	// KindClass marks a module or class body being opened.
	KindClass

	// KindEnd marks a module or class body being closed.
	KindEnd

	// KindLine marks execution reaching a new source line.
	KindLine

	// KindRaise marks an exception being raised.
	KindRaise

	// KindBCall is a block invocation.
	KindBCall

	// KindBReturn is a block return.
	KindBReturn

	// KindThreadBegin marks a thread starting.
	KindThreadBegin

	// KindThreadEnd marks a thread terminating.
	KindThreadEnd

	// KindFiberSwitch marks control transferring between fibers.
	KindFiberSwitch

	// KindScriptCompiled marks a script being compiled.
	KindScriptCompiled
)

var kindNames = map[Kind]string{
	KindCall:           "call",
	KindReturn:         "return",
	KindCCall:          "c_call",
	KindCReturn:        "c_return",
	KindClass:          "class",
	KindEnd:            "end",
	KindLine:           "line",
	KindRaise:          "raise",
	KindBCall:          "b_call",
	KindBReturn:        "b_return",
	KindThreadBegin:    "thread_begin",
	KindThreadEnd:      "thread_end",
	KindFiberSwitch:    "fiber_switch",
	KindScriptCompiled: "script_compiled",
}

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ParseKind converts a kind name (e.g. "c_call") to its Kind value.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, &errors.ValidationError{
		Field:      "kind",
		Message:    fmt.Sprintf("unknown event kind %q", name),
		Suggestion: "use one of the canonical kind names, e.g. call, return, line, raise",
	}
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCall, KindReturn, KindCCall, KindCReturn,
		KindClass, KindEnd, KindLine, KindRaise,
		KindBCall, KindBReturn, KindThreadBegin, KindThreadEnd,
		KindFiberSwitch, KindScriptCompiled,
	}
}

// IsCall reports whether the kind is a call of either implementation
// flavor (call or c_call).
func (k Kind) IsCall() bool {
	return k == KindCall || k == KindCCall
}

// IsReturn reports whether the kind is a return of either implementation
// flavor (return or c_return).
func (k Kind) IsReturn() bool {
	return k == KindReturn || k == KindCReturn
}

// IsLine reports whether the kind is a line step.
func (k Kind) IsLine() bool { return k == KindLine }

// IsRaise reports whether the kind is an exception raise.
func (k Kind) IsRaise() bool { return k == KindRaise }

// IsModuleOpen reports whether the kind marks a module body opening.
func (k Kind) IsModuleOpen() bool { return k == KindClass }

// IsModuleClose reports whether the kind marks a module body closing.
func (k Kind) IsModuleClose() bool { return k == KindEnd }

// IsBlock reports whether the kind is a block call or block return.
func (k Kind) IsBlock() bool {
	return k == KindBCall || k == KindBReturn
}

package trace

import (
	"github.com/tracegate/tracegate/pkg/trace/expression"
)

// Predicate decides whether execution suspends at an event. It runs on
// the producer goroutine for every event admitted by the FilterSet, in
// emission order. Returning an error terminates the tracer.
type Predicate func(*Event) (bool, error)

// DefaultPredicate pauses on call and return events of either
// implementation flavor.
func DefaultPredicate() Predicate {
	return func(e *Event) (bool, error) {
		return e.IsCall() || e.IsReturn(), nil
	}
}

// PauseOnKinds builds a predicate pausing on exactly the given kinds.
func PauseOnKinds(kinds ...Kind) Predicate {
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(e *Event) (bool, error) {
		return set[e.Kind()], nil
	}
}

// predicateEval compiles and caches pause predicate expressions.
var predicateEval = expression.New()

// PauseExpr builds a predicate from a boolean expression evaluated over
// the event environment: kind, path, line, method, module, singleton
// and the frame's locals (as "locals"). Compilation errors are reported
// at build time rather than on the producer goroutine.
func PauseExpr(src string) (Predicate, error) {
	if err := predicateEval.Compile(src, true); err != nil {
		return nil, err
	}
	return func(e *Event) (bool, error) {
		return predicateEval.EvaluateBool(src, predicateEnv(e))
	}, nil
}

// predicateEnv projects an event into the expression environment.
func predicateEnv(e *Event) map[string]interface{} {
	env := map[string]interface{}{
		"kind": e.Kind().String(),
		"path": e.Path(),
		"line": e.Line(),
	}
	if e.method != nil {
		env["method"] = e.method.Name
		env["module"] = e.method.Owner
		env["singleton"] = e.method.Singleton
	}
	if e.frame != nil {
		env["locals"] = e.frame.Snapshot()
	} else {
		env["locals"] = map[string]interface{}{}
	}
	return env
}

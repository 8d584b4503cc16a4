package expression

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/tracegate/tracegate/pkg/errors"
)

// Evaluator evaluates expressions against an event or frame context.
// It caches compiled expressions for improved performance on repeated
// evaluations, which matters when a pause predicate runs on every
// admitted event.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new expression evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// Evaluate evaluates an expression against the given context and
// returns its value.
//
// The context typically contains the paused frame's locals, or for
// pause predicates the event environment:
//
//	ctx := map[string]interface{}{
//	    "kind": "call", "path": "app/service.rb", "line": 42,
//	    "method": "greet", "locals": map[string]interface{}{...},
//	}
//	result, err := eval.Evaluate(`locals.message + " cool."`, ctx)
func (e *Evaluator) Evaluate(expression string, ctx map[string]interface{}) (interface{}, error) {
	program, err := e.compile(expression, false)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax and ensure all referenced variables exist",
		}
	}

	result, err := expr.Run(program, e.runtimeContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("expression evaluation failed: %w", err)
	}
	return result, nil
}

// EvaluateBool evaluates a boolean expression against the given context.
// An empty expression defaults to true.
func (e *Evaluator) EvaluateBool(expression string, ctx map[string]interface{}) (bool, error) {
	if expression == "" {
		return true, nil
	}

	program, err := e.compile(expression, true)
	if err != nil {
		return false, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax and ensure all referenced variables exist",
		}
	}

	result, err := expr.Run(program, e.runtimeContext(ctx))
	if err != nil {
		return false, fmt.Errorf("expression evaluation failed: %w", err)
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("expression must return boolean, got %T (%v)", result, result),
			Suggestion: "use comparison operators (==, !=, <, >, etc.) or boolean functions",
		}
	}

	return boolResult, nil
}

// Compile checks an expression without evaluating it, so predicate
// expressions can be rejected at install time rather than on the
// producer goroutine.
func (e *Evaluator) Compile(expression string, asBool bool) error {
	_, err := e.compile(expression, asBool)
	if err != nil {
		return &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax and ensure all referenced variables exist",
		}
	}
	return nil
}

// runtimeContext merges custom functions into the caller's context.
// Note: "contains" is reserved in expr for string operations.
func (e *Evaluator) runtimeContext(ctx map[string]interface{}) map[string]interface{} {
	evalCtx := make(map[string]interface{}, len(ctx)+3)
	for k, v := range ctx {
		evalCtx[k] = v
	}
	evalCtx["has"] = containsFunc
	evalCtx["includes"] = containsFunc
	evalCtx["length"] = lenFunc
	return evalCtx
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string, asBool bool) (*vm.Program, error) {
	key := expression
	if asBool {
		key = "bool\x00" + expression
	}

	// Check cache first (read lock)
	e.mu.RLock()
	if prog, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	env := map[string]interface{}{
		"has":      containsFunc,
		"includes": containsFunc,
		"length":   lenFunc,
	}

	opts := []expr.Option{
		expr.Env(env),
		// The context is supplied at runtime
		expr.AllowUndefinedVariables(),
	}
	if asBool {
		opts = append(opts, expr.AsBool())
	}

	prog, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, err
	}

	// Cache the compiled program (write lock)
	e.mu.Lock()
	e.cache[key] = prog
	e.mu.Unlock()

	return prog, nil
}

// ClearCache clears the expression cache.
// This is mainly useful for testing.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*vm.Program)
	e.mu.Unlock()
}

// CacheSize returns the number of cached expressions.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

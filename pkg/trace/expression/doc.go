// Package expression provides expression evaluation for pause
// predicates and paused-frame inspection.
//
// It uses the expr-lang/expr library. Predicate expressions are
// evaluated against an event environment (kind, path, line, method,
// module, locals); frame expressions see the paused frame's locals by
// name. Expressions support:
//
//   - Variable access: kind, path, locals.message
//   - Comparisons: ==, !=, <, >, <=, >=
//   - Boolean logic: &&, ||, !
//   - Membership: "value" in array (built-in operator)
//   - Custom functions: has(array, element), length(collection)
//
// Example expressions:
//
//	kind == "call" && method == "greet"
//	line > 10 || kind in ["raise", "line"]
//	locals.count > 3
//
// The evaluator caches compiled expressions for performance.
//
// Note: The expr library uses "contains" as a string operator (for substring matching),
// so use "in" or "has()" for array membership checks.
package expression

// Package native is the global, name-indexed table of built-in
// operators: math, logic, compare, cast, construction, texture/image
// access, atomics, and derivatives. Each entry is a zero-state value with
// only method dispatch, implemented by a small per-function type and
// registered into a name map at startup.
package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// Function is the contract every built-in operator implements.
type Function interface {
	// Name is this function's lookup key in the registry.
	Name() string

	// DetermineReturnType resolves the result type for a call with the
	// given argument types, returning the (possibly cast-inserted)
	// argument types alongside. A returned Invalid result type means the
	// call failed and an error was reported.
	DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (result types.DataType, coercedArgs []types.DataType)

	// MutateFunction allows dispatch specialization. Returning the receiver
	// itself is the common case.
	MutateFunction(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) Function

	// Evaluate is the full compile-time evaluator. ret must already carry
	// the function's result type; Evaluate fills in ret.Value (leaving it
	// not-whole-defined if this operator cannot be folded, e.g. atomics,
	// derivatives, and texture access are never compile-time foldable).
	Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue)
}

// PartialEvaluator is implemented by the handful of built-ins that can
// determine their result from a strict prefix of their arguments.
type PartialEvaluator interface {
	// PartialEvaluate is offered arguments one at a time (args holds the
	// first k); it returns true the moment ret is fully decided, letting
	// the folder avoid materializing a dead branch.
	PartialEvaluate(ret *value.ExecutionValue, args []value.ExecutionValue) bool
}

// Registry is the process-wide, immutable-after-construction table of
// built-ins.
type Registry struct {
	byName map[string]Function
}

// NewRegistry returns an empty registry. Call RegisterBuiltins to populate
// it once, before any compilation begins; after that the registry is
// immutable and safe to read concurrently.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Function, 128)}
}

// Register adds fn under fn.Name(). A name collision is fatal:
// it indicates two built-ins were registered under the same key, which can
// only happen from a programming error in RegisterBuiltins, so this panics
// rather than returning an error.
func (r *Registry) Register(fn Function) {
	name := fn.Name()
	if _, exists := r.byName[name]; exists {
		panic("native: duplicate registration for " + name)
	}
	r.byName[name] = fn
}

// Lookup finds a built-in by name.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.byName[name]
	return fn, ok
}

// Len returns how many built-ins are registered.
func (r *Registry) Len() int { return len(r.byName) }

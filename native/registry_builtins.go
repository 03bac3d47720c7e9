package native

// RegisterBuiltins populates r with every built-in operator this module
// knows about. It must run exactly once, before any compilation begins
//; calling it twice on the same registry panics via Register's
// duplicate-name check, which is intentional — it is a programming error,
// not a runtime condition callers should handle.
func RegisterBuiltins(r *Registry) {
	r.Register(addFn)
	r.Register(subFn)
	r.Register(mulFunction{})
	r.Register(divFn)
	r.Register(modFn)
	r.Register(negFunction{})

	r.Register(bitAndFn)
	r.Register(bitOrFn)
	r.Register(bitXorFn)
	r.Register(bitNotFunction{})
	r.Register(shlFn)
	r.Register(shrFn)

	r.Register(ltFn)
	r.Register(leFn)
	r.Register(gtFn)
	r.Register(geFn)
	r.Register(eqFn)
	r.Register(neqFn)

	r.Register(logicAndFn)
	r.Register(logicOrFn)
	r.Register(logicalNotFunction{})
	r.Register(selectFunction{})

	r.Register(toBoolFn)
	r.Register(toIntFn)
	r.Register(toUintFn)
	r.Register(toFloatFn)

	for _, fn := range mathUnaryFns {
		r.Register(fn)
	}
	for _, fn := range mathBinaryFns {
		r.Register(fn)
	}
	for _, fn := range mathTernaryFns {
		r.Register(fn)
	}

	r.Register(allFn)
	r.Register(anyFn)

	r.Register(packHalf2x16Function{})
	r.Register(unpackHalf2x16Function{})

	for _, fn := range sideEffectFns {
		r.Register(fn)
	}

	for _, fn := range constructFns {
		r.Register(fn)
	}

	// __mvmul/__vmmul/__mmmul are reached only via mulFunction.MutateFunction
	// dispatch, never looked up by name directly, so they are intentionally
	// not registered under their own names.
}

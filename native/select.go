package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// logicalShortCircuitFunction implements __logicAnd/__logicOr: the folder
// can decide the whole call from a true scalar prefix without descending
// into the remaining operand, which
// is what lets a dead branch behind `a && isValid(a)` stay unevaluated.
type logicalShortCircuitFunction struct {
	name       string
	shortValue bool // And short-circuits on false, Or short-circuits on true
	op         componentBinOp
}

func (f logicalShortCircuitFunction) Name() string { return f.name }

func (f logicalShortCircuitFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 2 {
		errs.ReportError(loc, "expected 2 operands")
		return types.Invalid, argTypes
	}
	if argTypes[0].Base() != types.Bool || argTypes[1].Base() != types.Bool {
		errs.ReportError(loc, "logical operands must be bool")
		return types.Invalid, argTypes
	}
	return lib.BooleanType(argTypes[0].ComponentCount()), argTypes
}

func (f logicalShortCircuitFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f logicalShortCircuitFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalBinaryElementwise(ret, args, f.op)
}

// PartialEvaluate decides the result from the left operand alone when it is
// a scalar matching the short-circuit value.
func (f logicalShortCircuitFunction) PartialEvaluate(ret *value.ExecutionValue, args []value.ExecutionValue) bool {
	if len(args) < 1 || args[0].Value.Len() != 1 || !args[0].HasValue {
		return false
	}
	lhs := args[0].Value.Components[0]
	if lhs.Bool != f.shortValue {
		return false
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: []value.DataValueComponent{lhs}})
	return true
}

var (
	logicAndFn = logicalShortCircuitFunction{"__logicAnd", false, valop.LogicalAnd}
	logicOrFn  = logicalShortCircuitFunction{"__logicOr", true, valop.LogicalOr}
)

type logicalNotFunction struct{}

func (logicalNotFunction) Name() string { return "__logicNot" }

func (logicalNotFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 || argTypes[0].Base() != types.Bool {
		errs.ReportError(loc, "operand must be bool")
		return types.Invalid, argTypes
	}
	return argTypes[0], argTypes
}

func (logicalNotFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return logicalNotFunction{}
}

func (logicalNotFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalUnaryElementwise(ret, args, valop.LogicalNot)
}

// selectFunction implements __select(cond, whenTrue, whenFalse), matching a
// condition lane to a value lane componentwise.
type selectFunction struct{}

func (selectFunction) Name() string { return "__select" }

func (selectFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 3 {
		errs.ReportError(loc, "expected 3 operands")
		return types.Invalid, argTypes
	}
	cond, a, b := argTypes[0], argTypes[1], argTypes[2]
	if cond.Base() != types.Bool {
		errs.ReportError(loc, "condition must be bool")
		return types.Invalid, argTypes
	}
	if m := types.MatchType(b, a); !m.Matches() {
		errs.ReportError(loc, "select branches must match types")
		return types.Invalid, argTypes
	}
	return a, argTypes
}

func (selectFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return selectFunction{}
}

func (selectFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	cond, a, b := args[0], args[1], args[2]
	width := a.Value.Len()
	out := make([]value.DataValueComponent, width)
	for i := 0; i < width; i++ {
		c := lane(cond.Value, i)
		if !c.IsDefined() {
			continue
		}
		if c.Bool {
			out[i] = lane(a.Value, i)
		} else {
			out[i] = lane(b.Value, i)
		}
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

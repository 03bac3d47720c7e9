package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// castFunction implements the explicit scalar-base conversions, preserving
// the operand's shape.
type castFunction struct {
	name   string
	toBase types.BaseKind
	op     componentUnaryOp
}

func (f castFunction) Name() string { return f.name }

func (f castFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 {
		errs.ReportError(loc, "expected 1 operand")
		return types.Invalid, argTypes
	}
	return lib.GetCastedType(argTypes[0], f.toBase), argTypes
}

func (f castFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f castFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalUnaryElementwise(ret, args, f.op)
}

var (
	toBoolFn  = castFunction{"__toBool", types.Bool, valop.ToBool}
	toIntFn   = castFunction{"__toInt", types.Int, valop.ToInt}
	toUintFn  = castFunction{"__toUint", types.Uint, valop.ToUint}
	toFloatFn = castFunction{"__toFloat", types.Float, valop.ToFloat}
)

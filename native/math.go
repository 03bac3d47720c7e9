package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// mathUnaryFunction is a shape-preserving float-only built-in (sin, sqrt,
// floor, ...).
type mathUnaryFunction struct {
	name string
	op   componentUnaryOp
}

func (f mathUnaryFunction) Name() string { return f.name }

func (f mathUnaryFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 {
		errs.ReportError(loc, "expected 1 operand")
		return types.Invalid, argTypes
	}
	t := argTypes[0]
	if m := types.MatchType(t, lib.FloatType(t.ComponentCount())); !m.Matches() {
		errs.ReportError(loc, "operand is not a floating-point value")
		return types.Invalid, argTypes
	}
	return lib.FloatType(t.ComponentCount()), argTypes
}

func (f mathUnaryFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f mathUnaryFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalUnaryElementwise(ret, args, f.op)
}

var mathUnaryFns = []mathUnaryFunction{
	{"sin", valop.Sin}, {"cos", valop.Cos}, {"tan", valop.Tan},
	{"sqrt", valop.Sqrt}, {"rsqrt", valop.Rsqrt},
	{"log", valop.Log}, {"log2", valop.Log2}, {"exp", valop.Exp}, {"exp2", valop.Exp2},
	{"floor", valop.Floor}, {"ceil", valop.Ceil}, {"round", valop.Round}, {"trunc", valop.Trunc},
	{"frac", valop.Frac}, {"abs", valop.Abs}, {"sign", valop.Sign},
	{"saturate", func(a value.DataValueComponent) value.DataValueComponent {
		return valop.Clamp(a, value.ComponentFloat32(0), value.ComponentFloat32(1))
	}},
}

// mathBinaryFunction is a shape-broadcasting two-argument float built-in
// (pow, atan2, min, max, step).
type mathBinaryFunction struct {
	name string
	op   componentBinOp
}

func (f mathBinaryFunction) Name() string { return f.name }

func (f mathBinaryFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return binaryNumericReturnType(lib, argTypes, loc, errs)
}

func (f mathBinaryFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f mathBinaryFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalBinaryElementwise(ret, args, f.op)
}

var mathBinaryFns = []mathBinaryFunction{
	{"pow", valop.Pow}, {"atan2", valop.Atan2}, {"min", valop.Min}, {"max", valop.Max}, {"step", valop.Step},
}

// mathTernaryFunction covers lerp/clamp/smoothstep.
type mathTernaryFunction struct {
	name string
	op   func(a, b, c value.DataValueComponent) value.DataValueComponent
}

func (f mathTernaryFunction) Name() string { return f.name }

func (f mathTernaryFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 3 {
		errs.ReportError(loc, "expected 3 operands")
		return types.Invalid, argTypes
	}
	widest := argTypes[0]
	for _, t := range argTypes[1:] {
		if t.ComponentCount() > widest.ComponentCount() {
			widest = t
		}
	}
	return lib.FloatType(widest.ComponentCount()), argTypes
}

func (f mathTernaryFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f mathTernaryFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	evalTernaryElementwise(ret, args, f.op)
}

var mathTernaryFns = []mathTernaryFunction{
	{"lerp", valop.Lerp},
	{"clamp", func(a, b, c value.DataValueComponent) value.DataValueComponent { return valop.Clamp(a, b, c) }},
	{"smoothstep", valop.Smoothstep},
}

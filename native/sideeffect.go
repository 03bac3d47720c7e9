package native

import (
	"math"

	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// neverFoldableFunction covers built-ins that are legitimately impossible to
// evaluate at compile time: they read runtime-only state (screen-space
// derivatives, shared/global memory, the rasterizer's primitive stream,
// texture contents). Evaluate deliberately leaves ret untouched, so the
// folder's result stays not-whole-defined and the call is preserved as a
// genuine runtime operation.
type neverFoldableFunction struct {
	name       string
	argc       int // -1 means variable arity, skip the check
	returnType func(lib *types.Library, argTypes []types.DataType) types.DataType
}

func (f neverFoldableFunction) Name() string { return f.name }

func (f neverFoldableFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if f.argc >= 0 && len(argTypes) != f.argc {
		errs.ReportError(loc, "wrong argument count")
		return types.Invalid, argTypes
	}
	return f.returnType(lib, argTypes), argTypes
}

func (f neverFoldableFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (neverFoldableFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {}

func sameAsFirst(lib *types.Library, argTypes []types.DataType) types.DataType {
	if len(argTypes) == 0 {
		return types.Invalid
	}
	return argTypes[0].Dereferenced()
}

func voidReturn(lib *types.Library, argTypes []types.DataType) types.DataType { return lib.VoidType() }

var sideEffectFns = []neverFoldableFunction{
	// Atomics: operate on a reference, returning the pre-operation value.
	{"atomicAdd", 2, sameAsFirst},
	{"atomicSub", 2, sameAsFirst},
	{"atomicMin", 2, sameAsFirst},
	{"atomicMax", 2, sameAsFirst},
	{"atomicAnd", 2, sameAsFirst},
	{"atomicOr", 2, sameAsFirst},
	{"atomicXor", 2, sameAsFirst},
	{"atomicExchange", 2, sameAsFirst},
	{"atomicCompareExchange", 3, sameAsFirst},
	{"atomicLoad", 1, sameAsFirst},
	{"atomicStore", 2, voidReturn},

	// Barriers: no return value, side effect is a memory fence.
	{"barrier", 0, voidReturn},
	{"memoryBarrier", 0, voidReturn},
	{"groupMemoryBarrier", 0, voidReturn},

	// Screen-space derivatives: undefined outside rasterization, depend on
	// the neighboring invocation's values.
	{"ddx", 1, sameAsFirst},
	{"ddy", 1, sameAsFirst},
	{"fwidth", 1, sameAsFirst},

	// Geometry-stage emission.
	{"EmitVertex", 0, voidReturn},
	{"EndPrimitive", 0, voidReturn},

	// Texture/image access: depends on bound resource contents.
	{"texelLoad", -1, sameAsFirst},
	{"texelStore", -1, voidReturn},
	{"texelSize", -1, sameAsFirst},
}

// --- reductions (fully foldable: a pure function of the operand) ---

type reduceFunction struct {
	name string
	fold func(acc, c value.DataValueComponent) value.DataValueComponent
}

func (f reduceFunction) Name() string { return f.name }

func (f reduceFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 || argTypes[0].Base() != types.Bool {
		errs.ReportError(loc, "operand must be a bool vector")
		return types.Invalid, argTypes
	}
	return lib.BooleanType(1), argTypes
}

func (f reduceFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f reduceFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	v := args[0].Value
	if v.Len() == 0 {
		return
	}
	acc := v.Components[0]
	for _, c := range v.Components[1:] {
		acc = f.fold(acc, c)
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: []value.DataValueComponent{acc}})
}

var (
	allFn = reduceFunction{"all", valop.LogicalAnd}
	anyFn = reduceFunction{"any", valop.LogicalOr}
)

// --- bit packing (fully foldable) ---

// packHalf2x16Function / unpackHalf2x16Function implement a deterministic,
// loss-accepting 16-bit float pack used for compile-time folding of literal
// arguments; the runtime exporter (package stub) still emits the call for
// the hardware to execute bit-exactly when any operand isn't foldable.
type packHalf2x16Function struct{}

func (packHalf2x16Function) Name() string { return "packHalf2x16" }
func (packHalf2x16Function) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 || argTypes[0].ComponentCount() != 2 {
		errs.ReportError(loc, "expected a 2-component float vector")
		return types.Invalid, argTypes
	}
	return lib.UnsignedType(1), argTypes
}
func (packHalf2x16Function) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return packHalf2x16Function{}
}
func (packHalf2x16Function) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	v := args[0].Value
	if v.Len() != 2 || !v.IsWholeValueDefined() {
		return
	}
	lo := float32ToHalfBits(v.Components[0].Float32)
	hi := float32ToHalfBits(v.Components[1].Float32)
	packed := uint32(lo) | uint32(hi)<<16
	*ret = value.WriteValue(*ret, value.DataValue{Components: []value.DataValueComponent{value.ComponentUint32(packed)}})
}

type unpackHalf2x16Function struct{}

func (unpackHalf2x16Function) Name() string { return "unpackHalf2x16" }
func (unpackHalf2x16Function) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 || argTypes[0].Base() != types.Uint {
		errs.ReportError(loc, "expected a uint")
		return types.Invalid, argTypes
	}
	return lib.FloatType(2), argTypes
}
func (unpackHalf2x16Function) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return unpackHalf2x16Function{}
}
func (unpackHalf2x16Function) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	v := args[0].Value
	if v.Len() != 1 || !v.IsWholeValueDefined() {
		return
	}
	packed := v.Components[0].Uint32
	lo := halfBitsToFloat32(uint16(packed & 0xffff))
	hi := halfBitsToFloat32(uint16(packed >> 16))
	*ret = value.WriteValue(*ret, value.DataValue{Components: []value.DataValueComponent{
		value.ComponentFloat32(lo), value.ComponentFloat32(hi),
	}})
}

func float32ToHalfBits(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff
	switch {
	case exp <= 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}

func halfBitsToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)
	switch exp {
	case 0:
		return math.Float32frombits(sign)
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	default:
		return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
	}
}

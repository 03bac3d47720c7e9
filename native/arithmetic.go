package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// binaryNumericReturnType implements the common shape-resolution rule for
// elementwise binary arithmetic/bitwise operators: the wider
// operand's shape wins, the narrower one must be a scalar or equal-width,
// and MatchType decides whether the base kinds are compatible.
func binaryNumericReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 2 {
		errs.ReportError(loc, "expected 2 operands")
		return types.Invalid, argTypes
	}
	a, b := argTypes[0], argTypes[1]
	wide, narrow := a, b
	if b.ComponentCount() > a.ComponentCount() {
		wide, narrow = b, a
	}
	if narrow.ComponentCount() != 1 && narrow.ComponentCount() != wide.ComponentCount() {
		errs.ReportError(loc, "operand shapes are incompatible")
		return types.Invalid, argTypes
	}
	if m := types.MatchType(narrow, wide); !m.Matches() {
		errs.ReportError(loc, "operand types are incompatible")
		return types.Invalid, argTypes
	}
	return wide, argTypes
}

// baseOf reports the per-component base kind a DataType carries arithmetic
// as (Float/Int/Uint/Bool), independent of its vector/matrix shape.
func baseOf(t types.DataType) types.BaseKind { return t.Base() }

type binaryArithFunction struct {
	name     string
	floatOp  componentBinOp
	intOp    componentBinOp
	uintOp   componentBinOp
}

func (f binaryArithFunction) Name() string { return f.name }

func (f binaryArithFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return binaryNumericReturnType(lib, argTypes, loc, errs)
}

func (f binaryArithFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f binaryArithFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	switch baseOf(ret.Type) {
	case types.Float:
		evalBinaryElementwise(ret, args, f.floatOp)
	case types.Int:
		evalBinaryElementwise(ret, args, f.intOp)
	case types.Uint:
		evalBinaryElementwise(ret, args, f.uintOp)
	}
}

var (
	addFn = binaryArithFunction{"__add", valop.FAdd, valop.IAdd, valop.UAdd}
	subFn = binaryArithFunction{"__sub", valop.FSub, valop.ISub, valop.USub}
	divFn = binaryArithFunction{"__div", valop.FDiv, valop.IDiv, valop.UDiv}
	modFn = binaryArithFunction{"__mod", valop.FMod, valop.IMod, valop.UMod}
)

// negFunction is the unary arithmetic negation built-in.
type negFunction struct{}

func (negFunction) Name() string { return "__neg" }

func (negFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 {
		errs.ReportError(loc, "expected 1 operand")
		return types.Invalid, argTypes
	}
	return argTypes[0], argTypes
}

func (negFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return negFunction{}
}

func (negFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	switch baseOf(ret.Type) {
	case types.Float:
		evalUnaryElementwise(ret, args, valop.FNeg)
	case types.Int:
		evalUnaryElementwise(ret, args, valop.INeg)
	}
}

// --- bitwise / shift (integer-only) ---

type bitwiseFunction struct {
	name   string
	intOp  componentBinOp
	uintOp componentBinOp
}

func (f bitwiseFunction) Name() string { return f.name }

func (f bitwiseFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return binaryNumericReturnType(lib, argTypes, loc, errs)
}

func (f bitwiseFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f bitwiseFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	switch baseOf(ret.Type) {
	case types.Int:
		evalBinaryElementwise(ret, args, f.intOp)
	case types.Uint:
		evalBinaryElementwise(ret, args, f.uintOp)
	}
}

var (
	bitAndFn = bitwiseFunction{"__and", func(a, b value.DataValueComponent) value.DataValueComponent {
		return valop.ToInt(valop.BitwiseAnd(valop.ToUint(a), valop.ToUint(b)))
	}, valop.BitwiseAnd}
	bitOrFn = bitwiseFunction{"__or", func(a, b value.DataValueComponent) value.DataValueComponent {
		return valop.ToInt(valop.BitwiseOr(valop.ToUint(a), valop.ToUint(b)))
	}, valop.BitwiseOr}
	bitXorFn = bitwiseFunction{"__xor", func(a, b value.DataValueComponent) value.DataValueComponent {
		return valop.ToInt(valop.BitwiseXor(valop.ToUint(a), valop.ToUint(b)))
	}, valop.BitwiseXor}
	shlFn = bitwiseFunction{"__shl", func(a, b value.DataValueComponent) value.DataValueComponent {
		return valop.ToInt(valop.LogicalShiftLeft(valop.ToUint(a), valop.ToUint(b)))
	}, valop.LogicalShiftLeft}
	shrFn = bitwiseFunction{"__shr", valop.ArithmeticShiftRight, valop.LogicalShiftRight}
)

type bitNotFunction struct{}

func (bitNotFunction) Name() string { return "__bnot" }

func (bitNotFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 1 {
		errs.ReportError(loc, "expected 1 operand")
		return types.Invalid, argTypes
	}
	return argTypes[0], argTypes
}

func (bitNotFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return bitNotFunction{}
}

func (bitNotFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	switch baseOf(ret.Type) {
	case types.Int:
		evalUnaryElementwise(ret, args, func(a value.DataValueComponent) value.DataValueComponent {
			return valop.ToInt(valop.BitwiseNot(valop.ToUint(a)))
		})
	case types.Uint:
		evalUnaryElementwise(ret, args, valop.BitwiseNot)
	}
}

// --- compare (returns bool shape matching the widest operand) ---

type compareFunction struct {
	name    string
	floatOp componentBinOp
	intOp   componentBinOp
	uintOp  componentBinOp
}

func (f compareFunction) Name() string { return f.name }

func (f compareFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	shape, coerced := binaryNumericReturnType(lib, argTypes, loc, errs)
	if !shape.IsValid() {
		return types.Invalid, argTypes
	}
	return lib.BooleanType(shape.ComponentCount()), coerced
}

func (f compareFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f compareFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	switch baseOf(args[0].Type) {
	case types.Float:
		evalBinaryElementwise(ret, args, f.floatOp)
	case types.Int:
		evalBinaryElementwise(ret, args, f.intOp)
	case types.Uint:
		evalBinaryElementwise(ret, args, f.uintOp)
	}
}

var (
	ltFn = compareFunction{"__lt", valop.FloatLess, valop.IntLess, valop.UintLess}
	leFn = compareFunction{"__le", valop.FloatLessEqual, valop.IntLessEqual, valop.UintLessEqual}
	gtFn = compareFunction{"__gt", valop.FloatGreater, valop.IntGreater, valop.UintGreater}
	geFn = compareFunction{"__ge", valop.FloatGreaterEqual, valop.IntGreaterEqual, valop.UintGreaterEqual}
)

// eqFunction / neqFunction compare any matching scalar base, including bool.
type eqFunction struct {
	name  string
	wantEqual bool
}

func (f eqFunction) Name() string { return f.name }

func (f eqFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	shape, coerced := binaryNumericReturnType(lib, argTypes, loc, errs)
	if !shape.IsValid() {
		return types.Invalid, argTypes
	}
	return lib.BooleanType(shape.ComponentCount()), coerced
}

func (f eqFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f eqFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	if baseOf(args[0].Type) == types.Bool {
		op := valop.LogicalEqual
		if !f.wantEqual {
			op = valop.LogicalNotEqual
		}
		evalBinaryElementwise(ret, args, op)
		return
	}
	cmp := func(a, b value.DataValueComponent) value.DataValueComponent {
		eq := valop.FloatOrderedEqual(valop.ToFloat(a), valop.ToFloat(b))
		if f.wantEqual {
			return eq
		}
		return valop.LogicalNot(eq)
	}
	evalBinaryElementwise(ret, args, cmp)
}

var (
	eqFn  = eqFunction{"__eq", true}
	neqFn = eqFunction{"__neq", false}
)

package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// mulFunction is the `*` entry point. Matrix×vector, vector×matrix and
// matrix×matrix operands are dispatched by MutateFunction to a dedicated
// linear-algebra variant (mvmul/vmmul/mmmul) once operand shapes are known;
// every other combination, including matrix×scalar and scalar×matrix, is an
// elementwise broadcast multiply.
// Matrices store components column-major: component index = col*rows+row.
type mulFunction struct{}

func (mulFunction) Name() string { return "__mul" }

func (mulFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	if len(argTypes) != 2 {
		errs.ReportError(loc, "expected 2 operands")
		return types.Invalid, argTypes
	}
	a, b := argTypes[0], argTypes[1]
	switch {
	case a.IsMatrix() && b.IsVector():
		if a.ComponentCount() != b.ComponentCount() {
			errs.ReportError(loc, "matrix column count must match vector width")
			return types.Invalid, argTypes
		}
		return lib.FloatType(a.RowCount()), argTypes
	case a.IsVector() && b.IsMatrix():
		if a.ComponentCount() != b.RowCount() {
			errs.ReportError(loc, "vector width must match matrix row count")
			return types.Invalid, argTypes
		}
		return lib.FloatType(b.ComponentCount()), argTypes
	case a.IsMatrix() && b.IsMatrix():
		if a.ComponentCount() != b.RowCount() {
			errs.ReportError(loc, "inner matrix dimensions must agree")
			return types.Invalid, argTypes
		}
		return lib.MatrixType(types.Float, b.ComponentCount(), a.RowCount()), argTypes
	case a.IsMatrix() && b.IsScalar():
		return a, argTypes
	case a.IsScalar() && b.IsMatrix():
		return b, argTypes
	default:
		return binaryNumericReturnType(lib, argTypes, loc, errs)
	}
}

func (mulFunction) MutateFunction(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) Function {
	if len(argTypes) != 2 {
		return mulFunction{}
	}
	a, b := argTypes[0], argTypes[1]
	switch {
	case a.IsMatrix() && b.IsVector():
		return mvmulFunction{}
	case a.IsVector() && b.IsMatrix():
		return vmmulFunction{}
	case a.IsMatrix() && b.IsMatrix():
		return mmmulFunction{}
	default:
		// scalar*scalar, scalar*vector, vector*vector, and scalar*matrix /
		// matrix*scalar are all plain elementwise broadcast multiplies.
		return binaryArithFunction{"__mul", valop.FMul, valop.IMul, valop.UMul}
	}
}

func (mulFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	binaryArithFunction{"__mul", valop.FMul, valop.IMul, valop.UMul}.Evaluate(ret, args)
}

// mvmulFunction: matrix(cols,rows) * vector(cols) -> vector(rows).
type mvmulFunction struct{}

func (mvmulFunction) Name() string { return "__mvmul" }
func (f mvmulFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return mulFunction{}.DetermineReturnType(lib, argTypes, loc, errs)
}
func (f mvmulFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}
func (mvmulFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	m, v := args[0], args[1]
	cols, rows := m.Type.ComponentCount(), m.Type.RowCount()
	if v.Value.Len() != cols || m.Value.Len() != cols*rows {
		return
	}
	out := make([]value.DataValueComponent, rows)
	for r := 0; r < rows; r++ {
		sum := value.ComponentFloat32(0)
		for c := 0; c < cols; c++ {
			sum = valop.FAdd(sum, valop.FMul(m.Value.Components[c*rows+r], v.Value.Components[c]))
		}
		out[r] = sum
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

// vmmulFunction: vector(rows) * matrix(cols,rows) -> vector(cols) (row vector
// on the left).
type vmmulFunction struct{}

func (vmmulFunction) Name() string { return "__vmmul" }
func (f vmmulFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return mulFunction{}.DetermineReturnType(lib, argTypes, loc, errs)
}
func (f vmmulFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}
func (vmmulFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	v, m := args[0], args[1]
	cols, rows := m.Type.ComponentCount(), m.Type.RowCount()
	if v.Value.Len() != rows || m.Value.Len() != cols*rows {
		return
	}
	out := make([]value.DataValueComponent, cols)
	for c := 0; c < cols; c++ {
		sum := value.ComponentFloat32(0)
		for r := 0; r < rows; r++ {
			sum = valop.FAdd(sum, valop.FMul(v.Value.Components[r], m.Value.Components[c*rows+r]))
		}
		out[c] = sum
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

// mmmulFunction: matrix A(colsA,rowsA) * matrix B(colsB,rowsB), colsA==rowsB,
// producing matrix(colsB,rowsA).
type mmmulFunction struct{}

func (mmmulFunction) Name() string { return "__mmmul" }
func (f mmmulFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	return mulFunction{}.DetermineReturnType(lib, argTypes, loc, errs)
}
func (f mmmulFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}
func (mmmulFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	a, b := args[0], args[1]
	colsA, rowsA := a.Type.ComponentCount(), a.Type.RowCount()
	colsB, rowsB := b.Type.ComponentCount(), b.Type.RowCount()
	if colsA != rowsB || a.Value.Len() != colsA*rowsA || b.Value.Len() != colsB*rowsB {
		return
	}
	out := make([]value.DataValueComponent, colsB*rowsA)
	for c := 0; c < colsB; c++ {
		for r := 0; r < rowsA; r++ {
			sum := value.ComponentFloat32(0)
			for k := 0; k < colsA; k++ {
				sum = valop.FAdd(sum, valop.FMul(a.Value.Components[k*rowsA+r], b.Value.Components[c*rowsB+k]))
			}
			out[c*rowsA+r] = sum
		}
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

package native

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// constructFunction implements a vector constructor such as vec3<f32>: it
// accepts either a single scalar (splatted across every lane) or a list of
// scalar/vector arguments whose component counts sum to width, casting each
// source component to base. Modeling `vecN(...)` as a native function
// keeps construction on the same dispatch path as every other built-in
// instead of special AST-level sugar.
type constructFunction struct {
	name  string
	base  types.BaseKind
	width int
}

func (f constructFunction) Name() string { return f.name }

func (f constructFunction) DetermineReturnType(lib *types.Library, argTypes []types.DataType, loc diag.Location, errs diag.IErrorReporter) (types.DataType, []types.DataType) {
	result := lib.SimpleCompositeType(f.base, f.width)
	if len(argTypes) == 1 && argTypes[0].IsScalar() {
		return result, argTypes
	}
	total := 0
	for _, t := range argTypes {
		total += t.ComponentCount()
	}
	if total != f.width {
		errs.ReportError(loc, "constructor argument components do not sum to the target width")
		return types.Invalid, argTypes
	}
	return result, argTypes
}

func (f constructFunction) MutateFunction(*types.Library, []types.DataType, diag.Location, diag.IErrorReporter) Function {
	return f
}

func (f constructFunction) castOp() componentUnaryOp {
	switch f.base {
	case types.Bool:
		return valop.ToBool
	case types.Int:
		return valop.ToInt
	case types.Uint:
		return valop.ToUint
	default:
		return valop.ToFloat
	}
}

func (f constructFunction) Evaluate(ret *value.ExecutionValue, args []value.ExecutionValue) {
	cast := f.castOp()
	out := make([]value.DataValueComponent, f.width)
	if len(args) == 1 && args[0].Value.Len() == 1 {
		splat := cast(args[0].Value.Components[0])
		for i := range out {
			out[i] = splat
		}
		*ret = value.WriteValue(*ret, value.DataValue{Components: out})
		return
	}
	i := 0
	for _, a := range args {
		for _, c := range a.Value.Components {
			if i >= f.width {
				break
			}
			out[i] = cast(c)
			i++
		}
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

// constructFns enumerates the vecN<base> constructor family.
var constructFns = func() []constructFunction {
	bases := []struct {
		suffix string
		base   types.BaseKind
	}{
		{"f", types.Float}, {"i", types.Int}, {"u", types.Uint}, {"b", types.Bool},
	}
	var fns []constructFunction
	for _, b := range bases {
		for width := 2; width <= 4; width++ {
			fns = append(fns, constructFunction{
				name:  "vec" + itoa(width) + b.suffix,
				base:  b.base,
				width: width,
			})
		}
	}
	return fns
}()

func itoa(n int) string {
	if n < 0 || n > 9 {
		return "?"
	}
	return string(rune('0' + n))
}

package native

import "github.com/shaderforge/shaderc/value"

// componentBinOp is a per-component binary valop primitive.
type componentBinOp func(a, b value.DataValueComponent) value.DataValueComponent

// componentUnaryOp is a per-component unary valop primitive.
type componentUnaryOp func(a value.DataValueComponent) value.DataValueComponent

// broadcastWidth returns the lane count two operand widths zip to: the
// wider of the two, as long as the narrower is a bare scalar — the
// scalar-OP-vector broadcast shader languages use throughout.
func broadcastWidth(a, b int) (int, bool) {
	switch {
	case a == b:
		return a, true
	case a == 1:
		return b, true
	case b == 1:
		return a, true
	default:
		return 0, false
	}
}

func lane(v value.DataValue, i int) value.DataValueComponent {
	if len(v.Components) == 1 {
		return v.Components[0]
	}
	return v.Components[i]
}

// evalBinaryElementwise zips args[0] and args[1] lane by lane through op,
// broadcasting whichever operand is a scalar, and writes the result.
func evalBinaryElementwise(ret *value.ExecutionValue, args []value.ExecutionValue, op componentBinOp) {
	a, b := args[0], args[1]
	width, ok := broadcastWidth(a.Value.Len(), b.Value.Len())
	if !ok {
		return
	}
	out := make([]value.DataValueComponent, width)
	for i := 0; i < width; i++ {
		out[i] = op(lane(a.Value, i), lane(b.Value, i))
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

// evalUnaryElementwise applies op to every lane of args[0].
func evalUnaryElementwise(ret *value.ExecutionValue, args []value.ExecutionValue, op componentUnaryOp) {
	a := args[0]
	out := make([]value.DataValueComponent, a.Value.Len())
	for i, c := range a.Value.Components {
		out[i] = op(c)
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

// evalTernaryElementwise zips three equal-width (or scalar-broadcast against
// the widest) operands through op.
func evalTernaryElementwise(ret *value.ExecutionValue, args []value.ExecutionValue, op func(a, b, c value.DataValueComponent) value.DataValueComponent) {
	a, b, c := args[0], args[1], args[2]
	width := a.Value.Len()
	if b.Value.Len() > width {
		width = b.Value.Len()
	}
	if c.Value.Len() > width {
		width = c.Value.Len()
	}
	out := make([]value.DataValueComponent, width)
	for i := 0; i < width; i++ {
		out[i] = op(lane(a.Value, i), lane(b.Value, i), lane(c.Value, i))
	}
	*ret = value.WriteValue(*ret, value.DataValue{Components: out})
}

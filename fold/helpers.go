package fold

import (
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/value/valop"
)

// componentWidth mirrors value.componentWidth (unexported there): the
// flat component count backing a DataValue of type t.
func componentWidth(t types.DataType) int {
	if t.IsMatrix() {
		return t.ComponentCount() * t.RowCount()
	}
	n := t.ComponentCount()
	if n == 0 {
		return 1
	}
	return n
}

func memberComponentOffset(comp *types.CompositeType, name string) int {
	offset := 0
	for _, m := range comp.Members {
		if m.Name == name {
			return offset
		}
		offset += componentWidth(m.Type)
	}
	return -1
}

func indexComponent(v value.DataValue) int {
	if len(v.Components) == 0 {
		return 0
	}
	c := v.Components[0]
	switch c.Tag {
	case value.TagInt32:
		return int(c.Int32)
	case value.TagUint32:
		return int(c.Uint32)
	case value.TagInt64:
		return int(c.Int64)
	case value.TagUint64:
		return int(c.Uint64)
	case value.TagFloat32:
		return int(c.Float32)
	default:
		return 0
	}
}

func boolComponent(v value.DataValue) bool {
	if len(v.Components) == 0 {
		return false
	}
	c := v.Components[0]
	switch c.Tag {
	case value.TagBool:
		return c.Bool
	case value.TagInt32:
		return c.Int32 != 0
	case value.TagUint32:
		return c.Uint32 != 0
	case value.TagFloat32:
		return c.Float32 != 0
	default:
		return false
	}
}

func literalComponent(base types.BaseKind, v int) value.DataValueComponent {
	switch base {
	case types.Int:
		return value.ComponentInt32(int32(v))
	case types.Uint:
		return value.ComponentUint32(uint32(v))
	case types.Bool:
		return value.ComponentBool(v != 0)
	default:
		return value.ComponentFloat32(float32(v))
	}
}

// castValue applies the value-domain cast functions (value/valop) to every
// component of v, matching the Cast folding rule.
func castValue(v value.DataValue, target types.BaseKind) value.DataValue {
	out := value.DataValue{Components: make([]value.DataValueComponent, len(v.Components))}
	for i, c := range v.Components {
		out.Components[i] = castComponent(c, target)
	}
	return out
}

func castComponent(c value.DataValueComponent, target types.BaseKind) value.DataValueComponent {
	switch target {
	case types.Bool:
		return valop.ToBool(c)
	case types.Int:
		return valop.ToInt(c)
	case types.Uint:
		return valop.ToUint(c)
	case types.Float:
		return valop.ToFloat(c)
	default:
		return c
	}
}

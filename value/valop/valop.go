// Package valop implements the per-component arithmetic, comparison,
// logical, bitwise, math, and cast primitives native functions use to fold
// constants.
//
// Every operator propagates Undefined to its result if any operand is
// undefined; "can't be evaluated" is modeled as data (an Undefined
// component) rather than an error, since folding failure is recoverable
// and silent.
package valop

import (
	"math"

	"github.com/shaderforge/shaderc/value"
)

func undef() value.DataValueComponent { return value.DataValueComponent{} }

func anyUndefined(cs ...value.DataValueComponent) bool {
	for _, c := range cs {
		if !c.IsDefined() {
			return true
		}
	}
	return false
}

// --- arithmetic ---

func FAdd(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(a.Float32 + b.Float32)
}

func FSub(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(a.Float32 - b.Float32)
}

func FMul(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(a.Float32 * b.Float32)
}

func FDiv(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(a.Float32 / b.Float32)
}

func FMod(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(float32(math.Mod(float64(a.Float32), float64(b.Float32))))
}

func FNeg(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	return value.ComponentFloat32(-a.Float32)
}

func IAdd(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentInt32(a.Int32 + b.Int32)
}

func ISub(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentInt32(a.Int32 - b.Int32)
}

func IMul(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentInt32(a.Int32 * b.Int32)
}

func IDiv(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) || b.Int32 == 0 {
		return undef()
	}
	return value.ComponentInt32(a.Int32 / b.Int32)
}

func IMod(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) || b.Int32 == 0 {
		return undef()
	}
	return value.ComponentInt32(a.Int32 % b.Int32)
}

func INeg(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	return value.ComponentInt32(-a.Int32)
}

func UAdd(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 + b.Uint32)
}

func USub(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 - b.Uint32)
}

func UMul(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 * b.Uint32)
}

func UDiv(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) || b.Uint32 == 0 {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 / b.Uint32)
}

func UMod(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) || b.Uint32 == 0 {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 % b.Uint32)
}

// --- compare ---

func FloatOrderedEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Float32 == b.Float32)
}

func FloatLess(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Float32 < b.Float32)
}

func FloatLessEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Float32 <= b.Float32)
}

func FloatGreater(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Float32 > b.Float32)
}

func FloatGreaterEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Float32 >= b.Float32)
}

func IntLess(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Int32 < b.Int32)
}

func IntLessEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Int32 <= b.Int32)
}

func IntGreater(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Int32 > b.Int32)
}

func IntGreaterEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Int32 >= b.Int32)
}

func UintLess(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Uint32 < b.Uint32)
}

func UintLessEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Uint32 <= b.Uint32)
}

func UintGreater(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Uint32 > b.Uint32)
}

func UintGreaterEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Uint32 >= b.Uint32)
}

// --- logical ---

func LogicalAnd(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Bool && b.Bool)
}

func LogicalOr(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Bool || b.Bool)
}

func LogicalNot(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	return value.ComponentBool(!a.Bool)
}

func LogicalEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Bool == b.Bool)
}

func LogicalNotEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Bool != b.Bool)
}

// --- bitwise ---

func BitwiseAnd(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 & b.Uint32)
}

func BitwiseOr(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 | b.Uint32)
}

func BitwiseXor(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 ^ b.Uint32)
}

func BitwiseNot(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	return value.ComponentUint32(^a.Uint32)
}

func LogicalShiftLeft(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 << (b.Uint32 & 31))
}

func LogicalShiftRight(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentUint32(a.Uint32 >> (b.Uint32 & 31))
}

func ArithmeticShiftRight(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentInt32(a.Int32 >> (b.Uint32 & 31))
}

// --- math ---

func Sin(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Sin) }
func Cos(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Cos) }
func Tan(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Tan) }
func Sqrt(a value.DataValueComponent) value.DataValueComponent { return f1(a, math.Sqrt) }
func Rsqrt(a value.DataValueComponent) value.DataValueComponent {
	return f1(a, func(x float64) float64 { return 1 / math.Sqrt(x) })
}
func Log(a value.DataValueComponent) value.DataValueComponent   { return f1(a, math.Log) }
func Log2(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Log2) }
func Exp(a value.DataValueComponent) value.DataValueComponent   { return f1(a, math.Exp) }
func Exp2(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Exp2) }
func Floor(a value.DataValueComponent) value.DataValueComponent { return f1(a, math.Floor) }
func Ceil(a value.DataValueComponent) value.DataValueComponent  { return f1(a, math.Ceil) }
func Round(a value.DataValueComponent) value.DataValueComponent { return f1(a, math.Round) }
func Trunc(a value.DataValueComponent) value.DataValueComponent { return f1(a, math.Trunc) }
func Frac(a value.DataValueComponent) value.DataValueComponent {
	return f1(a, func(x float64) float64 { return x - math.Floor(x) })
}
func Abs(a value.DataValueComponent) value.DataValueComponent { return f1(a, math.Abs) }
func Sign(a value.DataValueComponent) value.DataValueComponent {
	return f1(a, func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})
}

func f1(a value.DataValueComponent, fn func(float64) float64) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	return value.ComponentFloat32(float32(fn(float64(a.Float32))))
}

func f2(a, b value.DataValueComponent, fn func(x, y float64) float64) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentFloat32(float32(fn(float64(a.Float32), float64(b.Float32))))
}

func Pow(a, b value.DataValueComponent) value.DataValueComponent     { return f2(a, b, math.Pow) }
func Atan2(a, b value.DataValueComponent) value.DataValueComponent   { return f2(a, b, math.Atan2) }
func Min(a, b value.DataValueComponent) value.DataValueComponent     { return f2(a, b, math.Min) }
func Max(a, b value.DataValueComponent) value.DataValueComponent     { return f2(a, b, math.Max) }

func Step(edge, x value.DataValueComponent) value.DataValueComponent {
	return f2(edge, x, func(e, v float64) float64 {
		if v < e {
			return 0
		}
		return 1
	})
}

func Lerp(a, b, t value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b, t) {
		return undef()
	}
	av, bv, tv := float64(a.Float32), float64(b.Float32), float64(t.Float32)
	return value.ComponentFloat32(float32(av + (bv-av)*tv))
}

func Clamp(x, lo, hi value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(x, lo, hi) {
		return undef()
	}
	v, l, h := x.Float32, lo.Float32, hi.Float32
	if v < l {
		v = l
	}
	if v > h {
		v = h
	}
	return value.ComponentFloat32(v)
}

func Smoothstep(edge0, edge1, x value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(edge0, edge1, x) {
		return undef()
	}
	e0, e1, v := float64(edge0.Float32), float64(edge1.Float32), float64(x.Float32)
	t := (v - e0) / (e1 - e0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return value.ComponentFloat32(float32(t * t * (3 - 2*t)))
}

// --- casts ---

func ToBool(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	switch a.Tag {
	case value.TagBool:
		return a
	case value.TagInt32:
		return value.ComponentBool(a.Int32 != 0)
	case value.TagUint32:
		return value.ComponentBool(a.Uint32 != 0)
	case value.TagFloat32:
		return value.ComponentBool(a.Float32 != 0)
	default:
		return undef()
	}
}

func ToInt(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	switch a.Tag {
	case value.TagInt32:
		return a
	case value.TagUint32:
		return value.ComponentInt32(int32(a.Uint32))
	case value.TagFloat32:
		return value.ComponentInt32(int32(a.Float32))
	case value.TagBool:
		if a.Bool {
			return value.ComponentInt32(1)
		}
		return value.ComponentInt32(0)
	default:
		return undef()
	}
}

func ToUint(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	switch a.Tag {
	case value.TagUint32:
		return a
	case value.TagInt32:
		return value.ComponentUint32(uint32(a.Int32))
	case value.TagFloat32:
		return value.ComponentUint32(uint32(a.Float32))
	case value.TagBool:
		if a.Bool {
			return value.ComponentUint32(1)
		}
		return value.ComponentUint32(0)
	default:
		return undef()
	}
}

func ToFloat(a value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a) {
		return undef()
	}
	switch a.Tag {
	case value.TagFloat32:
		return a
	case value.TagInt32:
		return value.ComponentFloat32(float32(a.Int32))
	case value.TagUint32:
		return value.ComponentFloat32(float32(a.Uint32))
	case value.TagBool:
		if a.Bool {
			return value.ComponentFloat32(1)
		}
		return value.ComponentFloat32(0)
	default:
		return undef()
	}
}

// NameEqual compares two interned-name components (used for resource
// identity comparisons).
func NameEqual(a, b value.DataValueComponent) value.DataValueComponent {
	if anyUndefined(a, b) {
		return undef()
	}
	return value.ComponentBool(a.Name == b.Name)
}

// Package types implements the shader type library: it interns
// scalar, vector, matrix, array, struct, resource, program, and function
// types and hands back canonical DataType values.
//
// The interning technique is a normalized-key registry: a
// normalized string key into a map, deduplicating structurally identical
// types so that repeated construction calls return pointer-equal handles.
package types

import (
	"strconv"
	"strings"
)

// BaseKind is the base kind of a DataType.
type BaseKind uint8

const (
	Void BaseKind = iota
	Bool
	Int
	Uint
	Float
	Composite
	Array
	Resource
	Program
	Function
)

func (b BaseKind) String() string {
	switch b {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Composite:
		return "composite"
	case Array:
		return "array"
	case Resource:
		return "resource"
	case Program:
		return "program"
	case Function:
		return "function"
	default:
		return "unknown"
	}
}

// Flags are per-use-site modifiers that do not participate in interning
// identity ("DataType equality... modulo flags").
type Flags uint8

const (
	// FlagReference marks the type as a reference (an lvalue). A reference
	// always wraps a non-reference inner type.
	FlagReference Flags = 1 << iota
	// FlagAtomic marks the type as an atomic access (only meaningful on
	// resource-array-access results).
	FlagAtomic
)

func (f Flags) IsReference() bool { return f&FlagReference != 0 }
func (f Flags) IsAtomic() bool    { return f&FlagAtomic != 0 }

// core is the interned, flag-free identity of a DataType.
type core struct {
	base BaseKind

	// Scalars/vectors/matrices.
	cols int // component count ("cols"); 1 for scalars
	rows int // 1 for scalars and vectors, >=2 for matrices

	// Composite (user-struct, or the shared vector/matrix composite hint
	// carrier when a library wants named composites for those too).
	composite *CompositeType

	// Array: innermost-first stack of dimension counts; -1 marks
	// a runtime-sized (unbounded) dimension. Element is the type one
	// dimension down (may itself be an Array core for nested arrays built
	// one dimension at a time via GetArrayInnerType).
	arrayCounts []int
	element     *core

	// Resource.
	resource *ResourceType

	// Program.
	program ProgramIdentity

	// Function.
	function *FunctionSignature
}

// ProgramIdentity is the minimal contract types needs from package program
// to represent DataType(program) and its nominal-subtyping match rule
//, without an import cycle.
type ProgramIdentity interface {
	ProgramName() string
	IsBasedOnProgram(other ProgramIdentity) bool
}

// FunctionSignature backs DataType kind Function (used for FuncRef nodes).
type FunctionSignature struct {
	Params []DataType
	Return DataType
}

// DataType is an interned, value-copyable, hash-comparable (modulo Flags)
// handle.
type DataType struct {
	c     *core
	flags Flags
}

// Invalid is the zero DataType, returned by constructors and resolution
// helpers on failure.
var Invalid DataType

// IsValid reports whether t was produced by a Library constructor.
func (t DataType) IsValid() bool { return t.c != nil }

// Base returns the type's base kind.
func (t DataType) Base() BaseKind {
	if t.c == nil {
		return Void
	}
	return t.c.base
}

// Flags returns the type's modifier flags.
func (t DataType) Flags() Flags { return t.flags }

// WithFlags returns a copy of t with the given flags, preserving the
// interned core (flags never affect identity).
func (t DataType) WithFlags(f Flags) DataType {
	t.flags = f
	return t
}

// AsReference returns t wrapped as a reference (lvalue). Per,
// references always wrap a non-reference inner type; calling this on an
// already-reference type is a no-op on the inner identity.
func (t DataType) AsReference() DataType {
	return DataType{c: t.c, flags: t.flags | FlagReference}
}

// Dereferenced returns t with FlagReference cleared.
func (t DataType) Dereferenced() DataType {
	return DataType{c: t.c, flags: t.flags &^ FlagReference}
}

// Equal reports identity equality modulo Flags.
func (t DataType) Equal(o DataType) bool {
	return t.c == o.c
}

// EqualStrict additionally requires the flags to match.
func (t DataType) EqualStrict(o DataType) bool {
	return t.c == o.c && t.flags == o.flags
}

// ComponentCount returns the scalar component count ("cols"); 1 for scalars.
func (t DataType) ComponentCount() int {
	if t.c == nil {
		return 0
	}
	return t.c.cols
}

// RowCount returns the row count; 1 for scalars and vectors, >=2 for matrices.
func (t DataType) RowCount() int {
	if t.c == nil {
		return 0
	}
	if t.c.rows == 0 {
		return 1
	}
	return t.c.rows
}

// IsScalar reports a component/row count of 1.
func (t DataType) IsScalar() bool {
	return t.ComponentCount() == 1 && t.RowCount() == 1
}

// IsVector reports row count 1 with more than one component.
func (t DataType) IsVector() bool {
	return t.RowCount() == 1 && t.ComponentCount() > 1
}

// IsMatrix reports both row and component count >= 2.
func (t DataType) IsMatrix() bool {
	return t.RowCount() >= 2 && t.ComponentCount() >= 2
}

// IsResource reports whether this type is a GPU resource.
func (t DataType) IsResource() bool { return t.Base() == Resource }

// Composite returns the composite payload and whether this type carries one.
func (t DataType) Composite() (*CompositeType, bool) {
	if t.c == nil || t.c.composite == nil {
		return nil, false
	}
	return t.c.composite, true
}

// Resource returns the resource payload and whether this type carries one.
func (t DataType) Resource() (*ResourceType, bool) {
	if t.c == nil || t.c.resource == nil {
		return nil, false
	}
	return t.c.resource, true
}

// ProgramIdentity returns the program this type names, for Base() == Program.
func (t DataType) ProgramIdentity() ProgramIdentity {
	if t.c == nil {
		return nil
	}
	return t.c.program
}

// FunctionSignature returns the function signature, for Base() == Function.
func (t DataType) FunctionSignature() *FunctionSignature {
	if t.c == nil {
		return nil
	}
	return t.c.function
}

// ArrayCounts returns the innermost-first dimension stack for an array type.
func (t DataType) ArrayCounts() []int {
	if t.c == nil {
		return nil
	}
	return t.c.arrayCounts
}

// Library interns DataType cores: a normalized string key into a map,
// so that two calls describing the same shape return the same *core.
type Library struct {
	byKey map[string]*core
	keyB  strings.Builder
}

// NewLibrary returns an empty, ready-to-use type library.
func NewLibrary() *Library {
	return &Library{byKey: make(map[string]*core, 64)}
}

func (l *Library) intern(key string, build func() *core) DataType {
	if c, ok := l.byKey[key]; ok {
		return DataType{c: c}
	}
	c := build()
	l.byKey[key] = c
	return DataType{c: c}
}

// scalarKey builds the interning key for a bare scalar/vector/matrix shape.
func scalarKey(base BaseKind, cols, rows int) string {
	var b strings.Builder
	b.WriteString(base.String())
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(cols))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(rows))
	return b.String()
}

// simpleCompositeType returns a scalar/vector/matrix shape of the given
// base kind, column count, and (for matrices) row count
func (l *Library) simpleCompositeType(base BaseKind, cols int, rows ...int) DataType {
	r := 1
	if len(rows) > 0 {
		r = rows[0]
	}
	key := scalarKey(base, cols, r)
	return l.intern(key, func() *core {
		return &core{base: base, cols: cols, rows: r}
	})
}

// SimpleCompositeType is the exported form of simpleCompositeType.
func (l *Library) SimpleCompositeType(base BaseKind, cols int, rows ...int) DataType {
	return l.simpleCompositeType(base, cols, rows...)
}

// FloatType returns the n-component float vector type (n==1 for scalar).
func (l *Library) FloatType(n int) DataType { return l.simpleCompositeType(Float, n) }

// IntegerType returns the n-component signed integer vector type.
func (l *Library) IntegerType(n int) DataType { return l.simpleCompositeType(Int, n) }

// UnsignedType returns the n-component unsigned integer vector type.
func (l *Library) UnsignedType(n int) DataType { return l.simpleCompositeType(Uint, n) }

// BooleanType returns the n-component boolean vector type.
func (l *Library) BooleanType(n int) DataType { return l.simpleCompositeType(Bool, n) }

// MatrixType returns a cols x rows matrix of the given scalar base kind.
func (l *Library) MatrixType(base BaseKind, cols, rows int) DataType {
	return l.simpleCompositeType(base, cols, rows)
}

// VoidType returns the canonical void type.
func (l *Library) VoidType() DataType {
	return l.intern("void", func() *core { return &core{base: Void} })
}

// StructType interns a named user-struct composite.
func (l *Library) StructType(name string, hint CompositeHint, members []Member) DataType {
	layout := computeLayout(members)
	comp := &CompositeType{Name: name, Hint: hint, Members: members, Layout: layout}
	key := "struct:" + name
	return l.intern(key, func() *core {
		return &core{base: Composite, cols: 1, rows: 1, composite: comp}
	})
}

// ArrayOf composes `element[count] of element`, innermost-first ("arrays
// compose as outer[N] of inner"). Pass count == -1 for a
// runtime-sized (unbounded) array.
func (l *Library) ArrayOf(element DataType, count int) DataType {
	counts := append(append([]int{}, element.c.arrayCounts...), count)
	base := element.c
	if element.Base() == Array {
		base = element.c.element
	}
	key := "array:" + element.keyOf() + ":" + strconv.Itoa(count)
	return l.intern(key, func() *core {
		return &core{base: Array, element: base, arrayCounts: counts}
	})
}

// keyOf reconstructs a stable identity key for an already-interned type,
// used to build composite keys (arrays of X) without re-walking the whole
// shape each time.
func (t DataType) keyOf() string {
	if t.c == nil {
		return "invalid"
	}
	switch t.c.base {
	case Array:
		b := strings.Builder{}
		b.WriteString("arrof:")
		inner := DataType{c: t.c.element}
		b.WriteString(inner.keyOf())
		for _, n := range t.c.arrayCounts {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(n))
		}
		return b.String()
	case Composite:
		return "struct:" + t.c.composite.Name
	default:
		return scalarKey(t.c.base, t.c.cols, t.c.rows)
	}
}

// GetArrayInnerType peels one array dimension, returning `inner` from
// `outer[N] of inner`. It returns Invalid if t is not an array.
func (l *Library) GetArrayInnerType(t DataType) DataType {
	if t.Base() != Array || len(t.c.arrayCounts) == 0 {
		return Invalid
	}
	if len(t.c.arrayCounts) == 1 {
		return DataType{c: t.c.element}
	}
	innerCounts := t.c.arrayCounts[:len(t.c.arrayCounts)-1]
	key := "array-inner:" + DataType{c: t.c.element}.keyOf()
	for _, n := range innerCounts {
		key += ":" + strconv.Itoa(n)
	}
	return l.intern(key, func() *core {
		return &core{base: Array, element: t.c.element, arrayCounts: append([]int{}, innerCounts...)}
	})
}

// ArrayLen returns the outermost array dimension (-1 if runtime-sized).
func (t DataType) ArrayLen() int {
	if t.Base() != Array || len(t.c.arrayCounts) == 0 {
		return 0
	}
	return t.c.arrayCounts[len(t.c.arrayCounts)-1]
}

// ResourceType interns a resource (texture/buffer/sampler) type.
func (l *Library) ResourceType(r ResourceType) DataType {
	key := "resource:" + r.key()
	rr := r
	return l.intern(key, func() *core {
		return &core{base: Resource, resource: &rr}
	})
}

// ProgramType interns DataType(program) for the given program identity
// (used by the `This` opcode).
func (l *Library) ProgramType(p ProgramIdentity) DataType {
	key := "program:" + p.ProgramName()
	return l.intern(key, func() *core {
		return &core{base: Program, program: p}
	})
}

// FunctionType interns a function signature (used by FuncRef nodes).
func (l *Library) FunctionType(sig FunctionSignature) DataType {
	key := "function:" + sig.Return.keyOf()
	for _, p := range sig.Params {
		key += ":" + p.keyOf()
	}
	sigCopy := sig
	return l.intern(key, func() *core {
		return &core{base: Function, function: &sigCopy}
	})
}

// ExtractBaseType returns the scalar base kind underlying t (the base kind
// itself for scalars/vectors/matrices).
func ExtractBaseType(t DataType) BaseKind { return t.Base() }

// ExtractComponentCount returns t.ComponentCount().
func ExtractComponentCount(t DataType) int { return t.ComponentCount() }

// ExtractRowCount returns t.RowCount().
func ExtractRowCount(t DataType) int { return t.RowCount() }

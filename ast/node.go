package ast

import (
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// ParameterScope is where a DataParameter lives.
type ParameterScope uint8

const (
	ScopeStaticConstant ParameterScope = iota
	ScopeGlobalConst
	ScopeGlobalParameter
	ScopeGlobalBuiltin
	ScopeVertexInput
	ScopeStageInput
	ScopeStageOutput
	ScopeGroupShared
	ScopeFunctionInput
	ScopeLocal
	ScopeExport
)

// BuiltinKind enumerates the `gl_*` builtin parameter set.
type BuiltinKind uint8

const (
	BuiltinNone BuiltinKind = iota
	BuiltinPosition
	BuiltinPositionIn
	BuiltinPointSize
	BuiltinPointSizeIn
	BuiltinClipDistance
	BuiltinVertexID
	BuiltinInstanceID
	BuiltinDrawID
	BuiltinBaseVertex
	BuiltinBaseInstance
	BuiltinPatchVerticesIn
	BuiltinPrimitiveID
	BuiltinPrimitiveIDIn
	BuiltinInvocationID
	BuiltinLayer
	BuiltinViewportIndex
	BuiltinTessLevelOuter
	BuiltinTessLevelInner
	BuiltinTessCoord
	BuiltinFragCoord
	BuiltinFrontFacing
	BuiltinPointCoord
	BuiltinSampleID
	BuiltinSamplePosition
	BuiltinSampleMaskIn
	BuiltinSampleMask
	BuiltinTarget0
	BuiltinTarget1
	BuiltinTarget2
	BuiltinTarget3
	BuiltinTarget4
	BuiltinTarget5
	BuiltinTarget6
	BuiltinTarget7
	BuiltinFragDepth
	BuiltinNumWorkGroups
	BuiltinGlobalInvocationID
	BuiltinLocalInvocationID
	BuiltinWorkGroupID
	BuiltinLocalInvocationIndex
)

// Attribute is a single `[key(value)]`-style annotation carried by a
// parameter, function, or program (e.g. `const`, `early_fragment_tests`,
// `local_size_x(8)`).
type Attribute struct {
	Name  string
	Value string
}

// DataParameter is a declared parameter: name, scope, type, attributes,
// location, parsed initializer, and (for globals) resource-table linkage.
type DataParameter struct {
	Name        string
	Scope       ParameterScope
	Type        types.DataType
	Attributes  []Attribute
	Location    int
	Initializer *CodeNode

	// Assignable mirrors the source's `assignable` flag: read-only builtins
	// and declared-const locals are not; ordinary locals and the writable
	// builtins (gl_Position, the render targets) are.
	Assignable bool

	// Builtin is populated only for ScopeGlobalBuiltin parameters.
	Builtin BuiltinKind

	// ResourceTable links a global parameter back to the descriptor it was
	// synthesized from; opaque here since the descriptor/symbol-table type
	// belongs to the external parser-side symbol table.
	ResourceTable any
}

// HasAttribute reports whether name is present among p's attributes.
func (p *DataParameter) HasAttribute(name string) bool {
	for _, a := range p.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// AttributeValue returns the value of the named attribute and whether it
// was present.
func (p *DataParameter) AttributeValue(name string) (string, bool) {
	for _, a := range p.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SwizzleMask is a parsed swizzle string (e.g. "wyz0"): up to 4 selectors,
// each either a source component index or a literal-zero/one marker.
type SwizzleMask struct {
	// Selectors holds one entry per output component.
	Selectors []SwizzleSelector
}

// SwizzleSelector is one letter of a swizzle mask.
type SwizzleSelector struct {
	// Kind distinguishes a source-component reference from a literal.
	Kind SwizzleSelectorKind
	// ComponentIndex is the 0-based source component, valid when Kind ==
	// SwizzleComponent.
	ComponentIndex int
}

type SwizzleSelectorKind uint8

const (
	SwizzleComponent SwizzleSelectorKind = iota
	SwizzleLiteralZero
	SwizzleLiteralOne
)

// NumberOfComponentsNeeded returns the output width.
func (m SwizzleMask) NumberOfComponentsNeeded() int { return len(m.Selectors) }

// IsIdentityOn reports whether m is the identity mask (x, xy, xyz, or
// xyzw) for a source of sourceComponents width — used by the exporter to
// decide pass-through vs. a true swizzle stub.
func (m SwizzleMask) IsIdentityOn(sourceComponents int) bool {
	if len(m.Selectors) != sourceComponents {
		return false
	}
	for i, s := range m.Selectors {
		if s.Kind != SwizzleComponent || s.ComponentIndex != i {
			return false
		}
	}
	return true
}

// IsValidWriteMask reports whether m can appear on the left of an
// assignment: every selector names a source component (no 0/1 literals)
// and no component is named twice.
func (m SwizzleMask) IsValidWriteMask() bool {
	if len(m.Selectors) == 0 {
		return false
	}
	var seen [4]bool
	for _, s := range m.Selectors {
		if s.Kind != SwizzleComponent {
			return false
		}
		if s.ComponentIndex < 0 || s.ComponentIndex >= len(seen) || seen[s.ComponentIndex] {
			return false
		}
		seen[s.ComponentIndex] = true
	}
	return true
}

// extraData is CodeNode's per-opcode payload union. Exactly the fields
// relevant to a node's opcode are populated; the rest stay zero.
type extraData struct {
	// Ident, Const(resource name), ProgramInstanceParam.
	Name string
	// ReadSwizzle.
	Mask SwizzleMask
	// Cast.
	CastType types.DataType
	// NativeCall.
	Native native.Function
	// ParamRef, VariableDecl (the newly allocated local).
	Param *DataParameter
	// Ident resolving against a descriptor/resource-table entry, or a
	// ResourceTable node; opaque, owned by the external symbol table.
	ResourceTable any
	// Maintained by the LinkScopes walk, not serialized.
	ParentScope *CodeNode
	// Call, once resolved: the concrete callee. Opaque here to avoid an
	// ast<->program import cycle (the callee's own body is itself an AST);
	// package program and package fold type-assert this back to
	// *program.Function.
	ResolvedFunction any
}

// CodeNode is the typed syntax tree node.
type CodeNode struct {
	Op       Opcode
	Location diag.Location

	// Type is this node's resolved DataType; zero until ResolveTypes visits
	// it (or always zero for opcodes that carry no value, e.g. Scope).
	Type types.DataType
	// Value is a Const node's value: set on literals when they are built,
	// on resource name carriers by the resolver, and by folding (package
	// fold) when it replaces a node with a Const.
	Value value.DataValue

	// Children is ordered and may contain nil entries (e.g. an omitted
	// Loop increment clause).
	Children []*CodeNode

	extra extraData

	// TypesResolved is set once ResolveTypes has visited this node.
	TypesResolved bool

	// Declarations holds the scope-local parameters introduced directly by
	// a Scope node. Nil on every
	// other opcode.
	Declarations []*DataParameter
}

// New allocates a bare node of the given opcode at loc. Children are
// attached by the caller (resolver/folder build trees bottom-up).
func New(op Opcode, loc diag.Location, children ...*CodeNode) *CodeNode {
	return &CodeNode{Op: op, Location: loc, Children: children}
}

// --- extraData accessors (keep the union itself unexported) ---

func (n *CodeNode) Name() string           { return n.extra.Name }
func (n *CodeNode) SetName(s string)       { n.extra.Name = s }
func (n *CodeNode) Mask() SwizzleMask      { return n.extra.Mask }
func (n *CodeNode) SetMask(m SwizzleMask)  { n.extra.Mask = m }
func (n *CodeNode) CastType() types.DataType {
	return n.extra.CastType
}
func (n *CodeNode) SetCastType(t types.DataType) { n.extra.CastType = t }
func (n *CodeNode) Native() native.Function       { return n.extra.Native }
func (n *CodeNode) SetNative(f native.Function)   { n.extra.Native = f }
func (n *CodeNode) Param() *DataParameter          { return n.extra.Param }
func (n *CodeNode) SetParam(p *DataParameter)      { n.extra.Param = p }
func (n *CodeNode) ResourceTable() any             { return n.extra.ResourceTable }
func (n *CodeNode) SetResourceTable(rt any)        { n.extra.ResourceTable = rt }
func (n *CodeNode) ParentScope() *CodeNode          { return n.extra.ParentScope }
func (n *CodeNode) SetParentScope(p *CodeNode)      { n.extra.ParentScope = p }
func (n *CodeNode) ResolvedFunction() any           { return n.extra.ResolvedFunction }
func (n *CodeNode) SetResolvedFunction(f any)       { n.extra.ResolvedFunction = f }

// IsReference reports whether this node's resolved type is an l-value.
func (n *CodeNode) IsReference() bool { return n.Type.Flags().IsReference() }

// IsWholeValueDefined reports whether this node already folded to a
// fully-defined constant.
func (n *CodeNode) IsWholeValueDefined() bool {
	return n.Op == Const && n.Value.IsWholeValueDefined()
}

// Clone makes a shallow copy of n for the folder. Children are not copied;
// callers attach fresh folded children.
func (n *CodeNode) Clone() *CodeNode {
	c := *n
	c.extra.ParentScope = nil
	c.Children = nil
	c.TypesResolved = n.TypesResolved
	return &c
}

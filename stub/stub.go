// Package stub implements the IR exporter's output model:
// a closed family of POD-like records rooted at StubProgram, mirroring the
// folded CodeNode tree but trimmed to only what a back-end needs — no
// source locations, no interpreter scratch state.
//
// StubNode reuses ast.Opcode as its discriminant rather than inventing a
// second, parallel opcode enum: the opcode set is already closed, and
// duplicating it buys nothing. What stub drops from
// CodeNode is Location, TypesResolved, and ParentScope/ResourceTable/
// ResolvedFunction — the resolver-only bookkeeping a back-end never reads.
package stub

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// TypeKind classifies a StubTypeDecl table entry.
type TypeKind uint8

const (
	TypeScalar TypeKind = iota
	TypeVector
	TypeMatrix
	TypeArray
	TypeStruct
	TypeResource
	TypeVoid
)

// StubTypeDecl is a back-end-facing mirror of a types.DataType: shape only,
// no interning machinery.
type StubTypeDecl struct {
	Kind       TypeKind
	Base       types.BaseKind
	Components int
	Rows       int
	ArrayLen   int
	Elem       *StubTypeDecl
	Struct     *StubStruct
	Resource   *types.ResourceType

	source types.DataType
}

// StubStructMember is one field of a StubStruct.
type StubStructMember struct {
	Name string
	Type *StubTypeDecl
}

// StubStruct mirrors a types.CompositeType with HintUserStruct.
type StubStruct struct {
	Name    string
	Members []StubStructMember

	source *types.CompositeType
}

// StubSamplerState is a static sampler entry; the actual filter/address-
// mode payload is an external collaborator's concern (device object
// creation), so only identity and source linkage are carried here.
type StubSamplerState struct {
	Name string

	source *ast.DataParameter
}

// StubVertexInputStream mirrors one ScopeVertexInput parameter.
type StubVertexInputStream struct {
	Name string
	Type *StubTypeDecl

	source *ast.DataParameter
}

// StubDescriptorMember is one entry of a StubDescriptor: a constant-buffer
// field, a structured/format/image resource, or a dynamic sampler slot.
type StubDescriptorMember struct {
	Descriptor *StubDescriptor
	Entry      string
	Member     string // non-empty only for a named field inside a cbuffer/struct
	Type       *StubTypeDecl
	Resource   *types.ResourceType // nil for a plain constant-buffer field

	// StaticSampler is set when this member is a sampled-image bound to a
	// fixed sampler.
	StaticSampler *StubSamplerState
	// DynamicSampler is set when this member instead carries a
	// descriptor-member link to a separate, caller-supplied sampler.
	DynamicSampler *StubDescriptorMember

	StageMask uint32

	source *ast.DataParameter
}

// StubDescriptor is one resource-binding group.
type StubDescriptor struct {
	Name      string
	Members   []*StubDescriptorMember
	StageMask uint32
}

// StubDataRefKind discriminates what a StubOpcodeDataRef node points at.
type StubDataRefKind uint8

const (
	DataRefDescriptorMember StubDataRefKind = iota
	DataRefStageInput
	DataRefStageOutput
	DataRefGroupShared
	DataRefBuiltin
	DataRefVertexStream
	DataRefLocal
)

// StubDataRef is the payload of a StubOpcodeDataRef-shaped StubNode (a
// node whose Op is ast.ParamRef).
type StubDataRef struct {
	Kind         StubDataRefKind
	Name         string
	Member       *StubDescriptorMember
	Builtin      ast.BuiltinKind
	VertexStream *StubVertexInputStream
	LocalIndex   int
}

// StubNode is the exporter's AST mirror.
type StubNode struct {
	Op       ast.Opcode
	Type     *StubTypeDecl
	Value    value.DataValue
	Children []*StubNode

	Mask     ast.SwizzleMask
	CastBase types.BaseKind
	DataRef  *StubDataRef

	// CalleeName names the StubFunction this Call node invokes (set only
	// when Op == ast.Call).
	CalleeName string
}

// StageKind enumerates the pipeline stages a StubProgram can carry.
type StageKind uint8

const (
	StageVertex StageKind = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
	StageCompute
)

func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "geometry"
	case StagePixel:
		return "pixel"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// StubStage is one pipeline stage's exported entry point plus the subset
// of the shared tables it actually touches.
type StubStage struct {
	Kind      StageKind
	EntryName string
	Body      *StubNode
	Locals    []*StubTypeDecl

	Attributes []ast.Attribute

	DescriptorMembers []*StubDescriptorMember
	VertexStreams     []*StubVertexInputStream
	Samplers          []*StubSamplerState
}

// StubFunction is a non-entry function reachable from a stage's call
// graph, exported once and referenced by name from Call stubs: each
// distinct folded callee gets its own table entry rather than being
// inlined at every call site.
type StubFunction struct {
	Name   string
	Body   *StubNode
	Locals []*StubTypeDecl
}

// StubProgram is the exporter's top-level output.
type StubProgram struct {
	Stages    []*StubStage
	Functions []*StubFunction

	Types         []*StubTypeDecl
	Structs       []*StubStruct
	Descriptors   []*StubDescriptor
	Samplers      []*StubSamplerState
	VertexStreams []*StubVertexInputStream

	RenderState *program.RenderState
}

// postLoad reconnects pointer fields that serialize as table indices. It
// is a no-op on a program built directly by the exporter (all pointers
// already valid); Deserialize calls it after resolving every index.
func (p *StubProgram) postLoad() {}

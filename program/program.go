// Package program implements the shader-program/function model: named
// programs with linearized multiple inheritance, their own parameters and
// functions, builtin-parameter materialization, and descriptor-element
// reference memoization.
//
// The inheritance walk is innermost-first and depth-first, first match
// wins, over a DAG of parent programs: a derived program shadows its
// parents.
package program

import (
	"fmt"

	"github.com/shaderforge/shaderc/arena"
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/types"
)

// Program is a named record of parameters, functions, and parent
// programs.
type Program struct {
	key  uint64
	name string

	// Parents in declaration order.
	Parents []*Program

	// Own parameters and functions, deduped/overriding by name.
	parameters map[string]*ast.DataParameter
	functions  map[string]*Function

	// RenderState is the attached static-render-state block, if any.
	RenderState *RenderState

	builtinCache    map[ast.BuiltinKind]*ast.DataParameter
	descriptorCache map[string]*ast.DataParameter
}

// Library allocates Programs and assigns them the stable interning keys
// instance hashing combines with constant hashes, the same role
// types.Library plays for DataType.
type Library struct {
	nextKey  uint64
	programs *arena.Arena[Program]
}

// NewLibrary returns an empty program library.
func NewLibrary() *Library {
	return &Library{programs: arena.New[Program](8)}
}

// NewProgram allocates a fresh, empty program named name with the given
// parents (already validated acyclic by the caller via AddParentProgram,
// or passed complete here). The program lives in the library's arena and
// is released with it.
func (l *Library) NewProgram(name string, parents ...*Program) *Program {
	l.nextKey++
	return l.programs.AllocValue(Program{
		key:             l.nextKey,
		name:            name,
		Parents:         append([]*Program{}, parents...),
		parameters:      make(map[string]*ast.DataParameter),
		functions:       make(map[string]*Function),
		builtinCache:    make(map[ast.BuiltinKind]*ast.DataParameter),
		descriptorCache: make(map[string]*ast.DataParameter),
	})
}

// Release drops every program the library allocated. Pointers handed out
// by NewProgram must not be used afterwards.
func (l *Library) Release() { l.programs.Reset() }

// ProgramName implements types.ProgramIdentity.
func (p *Program) ProgramName() string { return p.name }

// Key returns p's stable interning key.
func (p *Program) Key() uint64 { return p.key }

// IsBasedOnProgram implements types.ProgramIdentity: reachability in the
// parent DAG.
func (p *Program) IsBasedOnProgram(other types.ProgramIdentity) bool {
	if p == nil || other == nil {
		return false
	}
	if p.ProgramName() == other.ProgramName() {
		return true
	}
	for _, parent := range p.Parents {
		if parent.IsBasedOnProgram(other) {
			return true
		}
	}
	return false
}

// AddParentProgram appends parent, refusing to create a cycle.
func (p *Program) AddParentProgram(parent *Program) error {
	if parent.containsTransitively(p) {
		return fmt.Errorf("program %s: adding %s as a parent would create a cycle", p.name, parent.name)
	}
	p.Parents = append(p.Parents, parent)
	return nil
}

func (p *Program) containsTransitively(target *Program) bool {
	if p == target {
		return true
	}
	for _, parent := range p.Parents {
		if parent.containsTransitively(target) {
			return true
		}
	}
	return false
}

// AddParameter registers a parameter owned directly by p, de-duped by name.
func (p *Program) AddParameter(param *ast.DataParameter) {
	p.parameters[param.Name] = param
}

// AddFunction registers fn, overriding any parent function of the same
// name for lookups that start at p.
func (p *Program) AddFunction(fn *Function) {
	p.functions[fn.Name] = fn
}

// FindParameter walks p's own parameters, then (if recurse) the parent DAG
// depth-first in declaration order, returning the first match.
func (p *Program) FindParameter(name string, recurse bool) (*ast.DataParameter, bool) {
	if param, ok := p.parameters[name]; ok {
		return param, true
	}
	if !recurse {
		return nil, false
	}
	for _, parent := range p.Parents {
		if param, ok := parent.FindParameter(name, true); ok {
			return param, true
		}
	}
	return nil, false
}

// FindFunction is FindParameter's analogue for functions.
func (p *Program) FindFunction(name string, recurse bool) (*Function, bool) {
	if fn, ok := p.functions[name]; ok {
		return fn, true
	}
	if !recurse {
		return nil, false
	}
	for _, parent := range p.Parents {
		if fn, ok := parent.FindFunction(name, true); ok {
			return fn, true
		}
	}
	return nil, false
}

// OwnParameters returns p's directly-declared parameters (not inherited).
func (p *Program) OwnParameters() map[string]*ast.DataParameter { return p.parameters }

// OwnFunctions returns p's directly-declared functions (not inherited).
func (p *Program) OwnFunctions() map[string]*Function { return p.functions }

// RenderState is the static-render-state block a program or its parents
// may attach.
type RenderState struct {
	CullMode         string
	DepthTestEnable  bool
	DepthWriteEnable bool
	BlendEnable      bool
}

// MergeRenderState returns a copy of parent overridden field-by-field by
// child, the inheritance order the render-state accumulation pass uses.
func MergeRenderState(parent, child *RenderState) *RenderState {
	if parent == nil {
		return child
	}
	if child == nil {
		return parent
	}
	merged := *parent
	if child.CullMode != "" {
		merged.CullMode = child.CullMode
	}
	merged.DepthTestEnable = child.DepthTestEnable
	merged.DepthWriteEnable = child.DepthWriteEnable
	merged.BlendEnable = child.BlendEnable
	return &merged
}

// builtinSpec is the fixed type/assignability table for the closed gl_*
// set. Types are resolved lazily against the caller's
// types.Library since Program itself stores no Library reference.
func builtinSpec(lib *types.Library, kind ast.BuiltinKind) (types.DataType, bool) {
	switch kind {
	case ast.BuiltinPosition, ast.BuiltinPositionIn:
		return lib.FloatType(4), true
	case ast.BuiltinPointSize, ast.BuiltinPointSizeIn:
		return lib.FloatType(1), false
	case ast.BuiltinClipDistance:
		return lib.FloatType(1), true
	case ast.BuiltinVertexID, ast.BuiltinInstanceID, ast.BuiltinDrawID, ast.BuiltinBaseVertex, ast.BuiltinBaseInstance,
		ast.BuiltinPatchVerticesIn, ast.BuiltinPrimitiveID, ast.BuiltinPrimitiveIDIn, ast.BuiltinInvocationID,
		ast.BuiltinSampleID, ast.BuiltinSampleMaskIn:
		return lib.IntegerType(1), false
	case ast.BuiltinLayer, ast.BuiltinViewportIndex:
		return lib.IntegerType(1), true
	case ast.BuiltinTessLevelOuter:
		return lib.FloatType(4), true
	case ast.BuiltinTessLevelInner:
		return lib.FloatType(2), true
	case ast.BuiltinTessCoord:
		return lib.FloatType(3), false
	case ast.BuiltinFragCoord:
		return lib.FloatType(4), false
	case ast.BuiltinFrontFacing:
		return lib.BooleanType(1), false
	case ast.BuiltinPointCoord, ast.BuiltinSamplePosition:
		return lib.FloatType(2), false
	case ast.BuiltinSampleMask:
		return lib.IntegerType(1), true
	case ast.BuiltinTarget0, ast.BuiltinTarget1, ast.BuiltinTarget2, ast.BuiltinTarget3,
		ast.BuiltinTarget4, ast.BuiltinTarget5, ast.BuiltinTarget6, ast.BuiltinTarget7:
		return lib.FloatType(4), true
	case ast.BuiltinFragDepth:
		return lib.FloatType(1), true
	case ast.BuiltinNumWorkGroups, ast.BuiltinGlobalInvocationID, ast.BuiltinLocalInvocationID, ast.BuiltinWorkGroupID:
		return lib.UnsignedType(3), false
	case ast.BuiltinLocalInvocationIndex:
		return lib.UnsignedType(1), false
	default:
		return types.Invalid, false
	}
}

// CreateBuiltinParameterReference materializes the `gl_*` variable named
// by kind on first use, with a fixed type and assignable flag matching the
// stage semantics. Subsequent calls return the cached pointer.
func (p *Program) CreateBuiltinParameterReference(lib *types.Library, kind ast.BuiltinKind, name string) (*ast.DataParameter, bool) {
	if cached, ok := p.builtinCache[kind]; ok {
		return cached, true
	}
	t, assignable := builtinSpec(lib, kind)
	if !t.IsValid() {
		return nil, false
	}
	param := &ast.DataParameter{Name: name, Scope: ast.ScopeGlobalBuiltin, Type: t, Builtin: kind, Assignable: assignable}
	p.builtinCache[kind] = param
	return param, true
}

// CreateDescriptorElementReference memoizes a DataParameter per
// (descriptor, entry[, member]) triple so repeated references share
// pointer identity.
func (p *Program) CreateDescriptorElementReference(descriptor, entry, member string, t types.DataType, rt any) *ast.DataParameter {
	key := descriptor + "." + entry
	if member != "" {
		key += "." + member
	}
	if cached, ok := p.descriptorCache[key]; ok {
		return cached
	}
	param := &ast.DataParameter{
		Name: key, Scope: ast.ScopeGlobalParameter, Type: t, ResourceTable: rt,
	}
	p.descriptorCache[key] = param
	return param
}

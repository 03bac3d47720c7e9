package resolve

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
)

// resolveTypes is ResolveTypes's entry point: a post-order walk that
// annotates every node with its resolved DataType. Call,
// AccessArray, and AccessMember are dispatched before their children are
// generically recursed into, since each of those opcodes treats at least
// one child specially (Call's target names a function rather than a
// value; AccessMember's "child" is a name, not a node).
func (r *Resolver) resolveTypes(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	if node == nil || node.TypesResolved {
		return
	}
	switch node.Op {
	case ast.Call:
		r.resolveCall(fn, owner, node)
	case ast.AccessArray:
		r.resolveAccessArray(fn, owner, node)
	case ast.AccessMember:
		r.resolveAccessMember(fn, owner, node)
	default:
		for _, c := range node.Children {
			r.resolveTypes(fn, owner, c)
		}
		r.resolveSelf(fn, owner, node)
	}
	node.TypesResolved = true
}

// resolveSelf assigns node.Type once its children (if any) already carry
// resolved types.
func (r *Resolver) resolveSelf(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	lib := r.Env.Types
	switch node.Op {
	case ast.Ident:
		r.resolveIdent(fn, owner, node)

	case ast.This:
		if owner == nil {
			r.Errors.ReportError(node.Location, "This used outside a program")
			node.Type = types.Invalid
			return
		}
		node.Type = lib.ProgramType(owner)

	case ast.Load:
		if len(node.Children) != 1 {
			r.Errors.ReportError(node.Location, "Load expects exactly one operand")
			node.Type = types.Invalid
			return
		}
		node.Type = node.Children[0].Type.Dereferenced()

	case ast.Store:
		r.resolveStore(node)

	case ast.VariableDecl:
		r.resolveVariableDecl(node)

	case ast.Cast:
		r.resolveCast(node)

	case ast.IfElse:
		r.resolveIfElse(node)

	case ast.Loop:
		r.resolveLoop(node)

	case ast.CreateVector:
		r.resolveCreateVector(node)

	case ast.CreateMatrix:
		r.resolveCreateMatrix(node)

	case ast.CreateArray:
		r.resolveCreateArray(node)

	case ast.ProgramInstance:
		r.resolveProgramInstance(owner, node)

	case ast.ProgramInstanceParam:
		if len(node.Children) == 1 {
			node.Type = node.Children[0].Type
		}

	case ast.Return:
		r.resolveReturn(fn, node)

	case ast.Break, ast.Continue, ast.Exit, ast.Nop, ast.Scope,
		ast.ParamRef, ast.FuncRef, ast.Const, ast.ResourceTable, ast.NativeCall, ast.First:
		// Already typed (Const/ParamRef/FuncRef by their producer, or
		// carry no value at all).
	}
}

func (r *Resolver) resolveStore(node *ast.CodeNode) {
	if len(node.Children) != 2 {
		r.Errors.ReportError(node.Location, "Store expects a target and a value")
		node.Type = types.Invalid
		return
	}
	target, value := node.Children[0], node.Children[1]

	// A swizzled l-value stores through the swizzle's source: pull the
	// mask onto the store itself, re-treat the swizzle's child as the
	// target, and contract the stored width to the mask's output width.
	if target.Op == ast.ReadSwizzle {
		mask := target.Mask()
		if !mask.IsValidWriteMask() {
			r.Errors.ReportError(node.Location, "swizzle is not a writable mask")
			node.Type = types.Invalid
			return
		}
		inner := target.Children[0]
		if inner == nil || !inner.Type.Flags().IsReference() {
			r.Errors.ReportError(node.Location, "store target is not assignable")
			node.Type = types.Invalid
			return
		}
		node.SetMask(mask)
		node.Children[0] = inner
		target = inner
	}

	if !target.Type.Flags().IsReference() {
		r.Errors.ReportError(node.Location, "store target is not assignable")
		node.Type = types.Invalid
		return
	}
	want := target.Type.Dereferenced()
	if mask := node.Mask(); len(mask.Selectors) > 0 {
		want = r.Env.Types.GetContractedType(want, mask.NumberOfComponentsNeeded())
	}
	m := types.MatchType(value.Type, want)
	if !m.Matches() {
		r.Errors.ReportError(node.Location, "store value type does not match target")
		node.Type = want
		return
	}
	node.Children[1] = r.insertImplicitCast(value, want, m)
	node.Type = want
}

// resolveVariableDecl finalizes the local DataParameter mutateNode
// allocated: CastType (if the declaration carried an explicit type
// annotation) wins over the initializer's inferred type.
func (r *Resolver) resolveVariableDecl(node *ast.CodeNode) {
	param := node.Param()
	if param == nil {
		r.Errors.ReportError(node.Location, "unallocated local declaration")
		node.Type = types.Invalid
		return
	}
	var initType types.DataType
	if len(node.Children) > 0 && node.Children[0] != nil {
		initType = node.Children[0].Type
	}
	declared := node.CastType()
	switch {
	case declared.IsValid() && initType.IsValid():
		m := types.MatchType(initType, declared)
		if !m.Matches() {
			r.Errors.ReportError(node.Location, "initializer does not match declared type")
		} else if len(node.Children) > 0 {
			node.Children[0] = r.insertImplicitCast(node.Children[0], declared, m)
		}
		param.Type = declared
	case declared.IsValid():
		param.Type = declared
	case initType.IsValid():
		param.Type = initType
	default:
		r.Errors.ReportError(node.Location, "cannot infer type for "+param.Name)
		param.Type = types.Invalid
	}
	node.Type = param.Type.AsReference()
}

// numericShape reports whether t is a scalar, vector, or matrix of a
// numeric or bool base — the only shapes an explicit cast can convert.
func numericShape(t types.DataType) bool {
	if len(t.ArrayCounts()) > 0 {
		return false
	}
	switch t.Base() {
	case types.Bool, types.Int, types.Uint, types.Float:
		return true
	}
	return false
}

func (r *Resolver) resolveCast(node *ast.CodeNode) {
	if len(node.Children) != 1 {
		r.Errors.ReportError(node.Location, "Cast expects exactly one operand")
		node.Type = types.Invalid
		return
	}
	target := node.CastType()
	if !target.IsValid() {
		r.Errors.ReportError(node.Location, "cast has no target type")
		node.Type = types.Invalid
		return
	}
	source := node.Children[0].Type.Dereferenced()
	if m := types.MatchType(source, target); !m.Matches() {
		// The value-domain cast rules only cover numeric/bool shapes;
		// structs, resources, programs, and functions have no cast
		// semantics at all, whatever their component counts happen to be.
		if !numericShape(source) || !numericShape(target) || source.ComponentCount() != target.ComponentCount() {
			r.Errors.ReportError(node.Location, "invalid cast")
		}
	}
	node.Type = target
}

// resolveIfElse coerces every condition slot to bool. Children are laid out
// as condition/branch pairs with an optional trailing unconditional else
// branch: [cond0, then0, cond1, then1, ..., elseBody?].
func (r *Resolver) resolveIfElse(node *ast.CodeNode) {
	lib := r.Env.Types
	for i := 0; i+1 < len(node.Children); i += 2 {
		cond := node.Children[i]
		if cond == nil {
			continue
		}
		if cond.Type.Base() == types.Bool && cond.Type.ComponentCount() == 1 {
			continue
		}
		if !cond.Type.IsScalar() {
			r.Errors.ReportError(cond.Location, "if condition must be a scalar")
			continue
		}
		want := lib.BooleanType(1)
		m := types.MatchType(cond.Type, want)
		if !m.Matches() {
			r.Errors.ReportError(cond.Location, "if condition must be boolean-convertible")
			continue
		}
		node.Children[i] = r.insertImplicitCast(cond, want, m)
	}
	node.Type = types.Invalid
}

// resolveLoop coerces a `while`-style loop's leading condition to bool
//. For-loop desugaring into an init/increment
// Scope wrapper is left to the lowering that produces Loop nodes in the
// first place; this resolver only ever sees [cond, body].
func (r *Resolver) resolveLoop(node *ast.CodeNode) {
	if len(node.Children) == 0 || node.Children[0] == nil {
		node.Type = types.Invalid
		return
	}
	cond := node.Children[0]
	lib := r.Env.Types
	want := lib.BooleanType(1)
	if !(cond.Type.Base() == types.Bool && cond.Type.ComponentCount() == 1) {
		m := types.MatchType(cond.Type, want)
		if !m.Matches() {
			r.Errors.ReportError(cond.Location, "loop condition must be boolean-convertible")
		} else {
			node.Children[0] = r.insertImplicitCast(cond, want, m)
		}
	}
	node.Type = types.Invalid
}

// resolveCreateVector concatenates its arguments' components. The result's
// base kind is taken from the first argument; the arguments' base kinds are
// not checked against each other and no cast is inserted (unlike the
// `vec2f`/`vec3i`/... native constructors in native/construct.go, which cast
// every component to their own base).
func (r *Resolver) resolveCreateVector(node *ast.CodeNode) {
	if len(node.Children) == 0 {
		r.Errors.ReportError(node.Location, "CreateVector needs at least one component")
		node.Type = types.Invalid
		return
	}
	base := node.Children[0].Type.Base()
	total := 0
	for _, c := range node.Children {
		total += c.Type.ComponentCount()
	}
	if total < 1 || total > 4 {
		r.Errors.ReportError(node.Location, "vector width must be between 1 and 4")
		node.Type = types.Invalid
		return
	}
	node.Type = r.Env.Types.SimpleCompositeType(base, total)
}

// resolveCreateMatrix assembles column vectors into a matrix type.
// CreateMatrix has no value-domain fold rule; the folder leaves matrix
// construction symbolic.
func (r *Resolver) resolveCreateMatrix(node *ast.CodeNode) {
	if len(node.Children) < 2 {
		r.Errors.ReportError(node.Location, "CreateMatrix needs at least two columns")
		node.Type = types.Invalid
		return
	}
	base := node.Children[0].Type.Base()
	rows := node.Children[0].Type.ComponentCount()
	for _, c := range node.Children[1:] {
		if c.Type.ComponentCount() != rows {
			r.Errors.ReportError(node.Location, "matrix columns must share a row count")
			node.Type = types.Invalid
			return
		}
	}
	node.Type = r.Env.Types.MatrixType(base, len(node.Children), rows)
}

func (r *Resolver) resolveCreateArray(node *ast.CodeNode) {
	if len(node.Children) == 0 {
		r.Errors.ReportError(node.Location, "CreateArray needs at least one element")
		node.Type = types.Invalid
		return
	}
	elem := node.Children[0].Type
	node.Type = r.Env.Types.ArrayOf(elem, len(node.Children))
}

// resolveProgramInstance coerces each child ProgramInstanceParam's value
// against the matching global-const parameter on the named program.
// Materializing the actual interned program.Instance (via
// program.InstanceLibrary) is the folder's job, once every constant is a
// whole-defined value; here we only type-check.
func (r *Resolver) resolveProgramInstance(owner *program.Program, node *ast.CodeNode) {
	if len(node.Children) == 0 || node.Children[0] == nil {
		r.Errors.ReportError(node.Location, "ProgramInstance needs a target program")
		node.Type = types.Invalid
		return
	}
	target := node.Children[0]
	if target.Type.Base() != types.Program {
		r.Errors.ReportError(node.Location, "ProgramInstance target is not a program")
		node.Type = types.Invalid
		return
	}
	p := asProgram(target.Type.ProgramIdentity())
	if p == nil {
		r.Errors.ReportError(node.Location, "unresolved program identity")
		node.Type = types.Invalid
		return
	}
	for _, paramNode := range node.Children[1:] {
		if paramNode == nil || paramNode.Op != ast.ProgramInstanceParam || len(paramNode.Children) != 1 {
			continue
		}
		name := paramNode.Name()
		constParam, ok := p.FindParameter(name, true)
		if !ok || constParam.Scope != ast.ScopeGlobalConst {
			r.Errors.ReportError(paramNode.Location, "unknown program constant "+name)
			continue
		}
		value := paramNode.Children[0]
		m := types.MatchType(value.Type, constParam.Type)
		if !m.Matches() {
			r.Errors.ReportError(paramNode.Location, "program constant type mismatch for "+name)
			continue
		}
		paramNode.Children[0] = r.insertImplicitCast(value, constParam.Type, m)
		paramNode.SetParam(constParam)
	}
	node.Type = target.Type
}

func (r *Resolver) resolveReturn(fn *program.Function, node *ast.CodeNode) {
	if fn == nil {
		node.Type = types.Invalid
		return
	}
	if len(node.Children) == 0 || node.Children[0] == nil {
		if fn.Return.IsValid() && fn.Return.Base() != types.Void {
			r.Errors.ReportError(node.Location, "missing return value")
		}
		node.Type = types.Invalid
		return
	}
	value := node.Children[0]
	m := types.MatchType(value.Type, fn.Return)
	if !m.Matches() {
		r.Errors.ReportError(node.Location, "return value type mismatch")
		node.Type = types.Invalid
		return
	}
	node.Children[0] = r.insertImplicitCast(value, fn.Return, m)
	node.Type = types.Invalid
}

package resolve

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
)

// resolveCall handles the Call opcode specially: its target child names a
// function rather than producing a value, so it is inspected directly
// instead of going through the generic Ident priority chain.
func (r *Resolver) resolveCall(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	if len(node.Children) == 0 || node.Children[0] == nil {
		r.Errors.ReportError(node.Location, "call with no target")
		node.Type = types.Invalid
		return
	}
	target := node.Children[0]
	args := node.Children[1:]
	for _, a := range args {
		r.resolveTypes(fn, owner, a)
	}
	argTypes := make([]types.DataType, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
	}

	if target.Op == ast.Ident {
		name := target.Name()
		if nativeFn, ok := r.Env.Natives.Lookup(name); ok {
			r.resolveNativeCall(node, nativeFn.MutateFunction(r.Env.Types, argTypes, node.Location, r.Errors), args, argTypes)
			return
		}
		if owner != nil {
			if callee, ok := owner.FindFunction(name, true); ok {
				r.resolveUserCall(node, callee, args, argTypes)
				return
			}
		}
		if callee, ok := r.Env.GlobalFunctions[name]; ok {
			r.resolveUserCall(node, callee, args, argTypes)
			return
		}
		r.Errors.ReportError(node.Location, "undefined function "+name)
		node.Type = types.Invalid
		return
	}

	// The target is already a function-valued expression (e.g. a FuncRef
	// produced when this Ident was resolved earlier, outside call position).
	r.resolveTypes(fn, owner, target)
	sig := target.Type.FunctionSignature()
	if sig == nil {
		r.Errors.ReportError(node.Location, "call target is not a function")
		node.Type = types.Invalid
		return
	}
	node.SetResolvedFunction(target.ResolvedFunction())
	node.Children = args
	r.coerceCallArgs(node, sig.Params, args, argTypes)
	node.Type = sig.Return
}

func (r *Resolver) resolveNativeCall(node *ast.CodeNode, mutated native.Function, args []*ast.CodeNode, argTypes []types.DataType) {
	result, coerced := mutated.DetermineReturnType(r.Env.Types, argTypes, node.Location, r.Errors)
	newArgs := make([]*ast.CodeNode, len(args))
	for i, a := range args {
		if i < len(coerced) && coerced[i].IsValid() && !coerced[i].Equal(argTypes[i]) {
			m := types.MatchType(argTypes[i], coerced[i])
			if !m.Matches() {
				r.Errors.ReportError(a.Location, "argument type mismatch")
				newArgs[i] = a
				continue
			}
			newArgs[i] = r.insertImplicitCast(a, coerced[i], m)
		} else {
			newArgs[i] = a
		}
	}
	node.Op = ast.NativeCall
	node.Children = newArgs
	node.SetNative(mutated)
	node.Type = result
}

func (r *Resolver) resolveUserCall(node *ast.CodeNode, callee *program.Function, args []*ast.CodeNode, argTypes []types.DataType) {
	node.SetResolvedFunction(callee)
	params := make([]types.DataType, len(callee.Params))
	for i, p := range callee.Params {
		params[i] = p.Type
	}
	node.Children = args
	r.coerceCallArgs(node, params, args, argTypes)
	node.Type = callee.Return
}

func (r *Resolver) coerceCallArgs(node *ast.CodeNode, params []types.DataType, args []*ast.CodeNode, argTypes []types.DataType) {
	if len(args) != len(params) {
		r.Errors.ReportError(node.Location, "argument count mismatch")
		return
	}
	for i := range args {
		m := types.MatchType(argTypes[i], params[i])
		if !m.Matches() {
			r.Errors.ReportError(args[i].Location, "argument type mismatch")
			continue
		}
		node.Children[i] = r.insertImplicitCast(args[i], params[i], m)
	}
}

// insertImplicitCast wraps arg in a Cast node when it does not already
// have the required type: an implicit cast is a Cast node, later folded
// into the argument.
func (r *Resolver) insertImplicitCast(arg *ast.CodeNode, required types.DataType, m types.MatchResult) *ast.CodeNode {
	if m.Conversion == types.ConvMatches && m.Expansion.TargetComponents == 0 {
		return arg
	}
	cast := ast.New(ast.Cast, arg.Location, arg)
	cast.SetCastType(required)
	cast.Type = required
	cast.TypesResolved = true
	return cast
}

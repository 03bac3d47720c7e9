package resolve

import (
	"strings"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// resolveIdent implements the Ident lookup order: (a) `gl_`
// builtins, (b) enclosing scopes innermost-first, (c) the function's own
// input parameters, (d) the owning program's own-then-inherited parameters
// and functions, (e) descriptor entries, (f) global constants, (g) global
// functions, (h) native functions. The first match wins; node is rewritten
// in place into the opcode that match implies.
func (r *Resolver) resolveIdent(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	name := node.Name()
	lib := r.Env.Types

	if strings.HasPrefix(name, "gl_") {
		if kind, ok := builtinKindByName[name]; ok && owner != nil {
			if param, ok := owner.CreateBuiltinParameterReference(lib, kind, name); ok {
				r.becomeParamRef(node, param)
				return
			}
		}
		r.Errors.ReportError(node.Location, "unknown builtin "+name)
		node.Type = types.Invalid
		return
	}

	if scope := node.ParentScope(); scope != nil {
		if param, ok := lookupInScopeChain(scope, name); ok {
			r.becomeParamRef(node, param)
			return
		}
	}

	if fn != nil {
		if param, ok := fn.ParamByName(name); ok {
			r.becomeParamRef(node, param)
			return
		}
	}

	if owner != nil {
		if param, ok := owner.FindParameter(name, true); ok {
			r.becomeParamRef(node, param)
			return
		}
		if callee, ok := owner.FindFunction(name, true); ok {
			r.becomeFuncRef(node, callee)
			return
		}
	}

	if r.Env.Descriptors != nil {
		if param, resourceTable, ambiguous, ok := r.Env.Descriptors.Lookup(name); ambiguous {
			r.Errors.ReportError(node.Location, "ambiguous reference to "+name)
			node.Type = types.Invalid
			return
		} else if ok {
			if param.Type.IsResource() {
				// Resources collapse to an opaque name carrier right
				// here; constant-buffer elements stay ParamRefs so loads
				// and stores type-check against the member type.
				node.Op = ast.Const
				node.SetName(param.Name)
				node.SetResourceTable(resourceTable)
				node.Type = param.Type
				node.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentName("res:" + param.Name)}}
				return
			}
			r.becomeParamRef(node, param)
			return
		}
	}

	if param, ok := r.Env.GlobalConsts[name]; ok {
		r.becomeParamRef(node, param)
		return
	}

	if callee, ok := r.Env.GlobalFunctions[name]; ok {
		r.becomeFuncRef(node, callee)
		return
	}

	if _, ok := r.Env.Natives.Lookup(name); ok {
		r.Errors.ReportError(node.Location, "built-in function "+name+" cannot be used as a value")
		node.Type = types.Invalid
		return
	}

	r.Errors.ReportError(node.Location, "undefined identifier "+name)
	node.Type = types.Invalid
}

// lookupInScopeChain walks scope's ancestors (innermost first, via
// ParentScope, which always points at a Scope node) searching each one's
// Declarations.
func lookupInScopeChain(scope *ast.CodeNode, name string) (*ast.DataParameter, bool) {
	for s := scope; s != nil; s = s.ParentScope() {
		for _, p := range s.Declarations {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// becomeParamRef rewrites node in place into a ParamRef over param,
// carrying a reference type when param is assignable.
func (r *Resolver) becomeParamRef(node *ast.CodeNode, param *ast.DataParameter) {
	node.Op = ast.ParamRef
	node.SetParam(param)
	if param.Assignable {
		node.Type = param.Type.AsReference()
	} else {
		node.Type = param.Type
	}
}

// becomeFuncRef rewrites node in place into a FuncRef over callee.
func (r *Resolver) becomeFuncRef(node *ast.CodeNode, callee *program.Function) {
	lib := r.Env.Types
	params := make([]types.DataType, len(callee.Params))
	for i, p := range callee.Params {
		params[i] = p.Type
	}
	node.Op = ast.FuncRef
	node.SetResolvedFunction(callee)
	node.Type = lib.FunctionType(types.FunctionSignature{Params: params, Return: callee.Return})
}

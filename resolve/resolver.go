// Package resolve implements the two-pass semantic resolver:
// MutateNode (bottom-up lowering) followed by ResolveTypes (post-order
// type annotation), plus the LinkScopes walk that precedes both.
//
// The Resolver holds injected collaborators (a type library, a
// native-function registry, an error reporter) and a pair of tree-walk
// methods split between a lowering pass and a typing pass.
package resolve

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
)

// DescriptorSource is the external parser-side symbol table's resolver
// contract.
type DescriptorSource interface {
	// Lookup resolves name against every descriptor entry known to the
	// compilation. ok is false if nothing matched; ambiguous is true if
	// more than one entry matched.
	Lookup(name string) (param *ast.DataParameter, resourceTable any, ambiguous bool, ok bool)
}

// Environment bundles everything Ident resolution searches outside the
// current function body and program.
type Environment struct {
	Types           *types.Library
	Natives         *native.Registry
	GlobalConsts    map[string]*ast.DataParameter
	GlobalFunctions map[string]*program.Function
	Descriptors     DescriptorSource
}

// Resolver runs the two passes over one function body at a time.
type Resolver struct {
	Env    *Environment
	Errors diag.IErrorReporter
}

// New returns a Resolver over env, reporting through errs.
func New(env *Environment, errs diag.IErrorReporter) *Resolver {
	return &Resolver{Env: env, Errors: errs}
}

// ResolveFunction runs LinkScopes, MutateNode, then ResolveTypes over fn's
// body in place.
func (r *Resolver) ResolveFunction(fn *program.Function, owner *program.Program) {
	if fn.Body == nil {
		return
	}
	r.linkScopes(fn.Body, nil)
	fn.Body = r.mutateNode(fn, owner, fn.Body)
	r.linkScopes(fn.Body, nil) // re-run: MutateNode may have spliced new Scope nodes
	r.resolveTypes(fn, owner, fn.Body)
}

// ResolveInitializer runs the same two passes over a parameter's
// initializer expression, which no function body owns (global constants
// and pipeline-overridable defaults). The folder evaluates these against
// an empty scope, so they must be fully typed first.
func (r *Resolver) ResolveInitializer(p *ast.DataParameter, owner *program.Program) {
	if p.Initializer == nil {
		return
	}
	r.linkScopes(p.Initializer, nil)
	p.Initializer = r.mutateNode(nil, owner, p.Initializer)
	r.linkScopes(p.Initializer, nil)
	r.resolveTypes(nil, owner, p.Initializer)
}

// linkScopes is a pre-order walk assigning each node's nearest-enclosing
// Scope ancestor.
func (r *Resolver) linkScopes(node *ast.CodeNode, enclosing *ast.CodeNode) {
	if node == nil {
		return
	}
	node.SetParentScope(enclosing)
	next := enclosing
	if node.Op == ast.Scope {
		next = node
	}
	for _, child := range node.Children {
		r.linkScopes(child, next)
	}
}

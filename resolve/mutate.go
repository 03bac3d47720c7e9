package resolve

import (
	"strings"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
)

// mutateNode lowers sugar the parser may still be emitting into the closed
// core opcode set the rest of the pipeline understands:
// `__assign`/`__assign_<op>` calls become Store, `__create_vector` /
// `__create_matrix` / `__create_array` calls become their dedicated
// opcodes, VariableDecl allocates its local into the enclosing scope, and
// else-if chains flatten into one IfElse's child list.
//
// Children are rewritten bottom-up: nested else-if chains and nested
// assignment sugar are lowered at their own level before the parent node
// is examined, so a single structural rewrite at each level is enough —
// there is no need to re-visit a node after rewriting its children.
func (r *Resolver) mutateNode(fn *program.Function, owner *program.Program, node *ast.CodeNode) *ast.CodeNode {
	if node == nil {
		return nil
	}
	for i, child := range node.Children {
		node.Children[i] = r.mutateNode(fn, owner, child)
	}

	switch node.Op {
	case ast.Call:
		if lowered := r.lowerSugaredCall(node); lowered != nil {
			return lowered
		}
	case ast.VariableDecl:
		r.registerLocal(node)
	case ast.IfElse:
		flattenElseIf(node)
	}
	return node
}

// lowerSugaredCall recognizes `__assign`/`__assign_<op>`/`__create_vector`/
// `__create_matrix`/`__create_array` call forms and returns their lowered
// replacement, or nil if node is an ordinary call.
func (r *Resolver) lowerSugaredCall(node *ast.CodeNode) *ast.CodeNode {
	if len(node.Children) == 0 || node.Children[0] == nil || node.Children[0].Op != ast.Ident {
		return nil
	}
	name := node.Children[0].Name()

	switch {
	case name == "__assign":
		if len(node.Children) != 3 {
			r.Errors.ReportError(node.Location, "__assign expects a target and a value")
			return nil
		}
		target, value := node.Children[1], node.Children[2]
		return ast.New(ast.Store, node.Location, target, value)

	case strings.HasPrefix(name, "__assign_"):
		if len(node.Children) != 3 {
			r.Errors.ReportError(node.Location, "compound assignment expects a target and a value")
			return nil
		}
		target, value := node.Children[1], node.Children[2]
		opName := "__" + strings.TrimPrefix(name, "__assign_")
		opIdent := ast.New(ast.Ident, node.Location)
		opIdent.SetName(opName)
		combine := ast.New(ast.Call, node.Location, opIdent, cloneTree(target), value)
		return ast.New(ast.Store, node.Location, target, combine)

	case name == "__create_vector":
		return ast.New(ast.CreateVector, node.Location, node.Children[1:]...)
	case name == "__create_matrix":
		return ast.New(ast.CreateMatrix, node.Location, node.Children[1:]...)
	case name == "__create_array":
		return ast.New(ast.CreateArray, node.Location, node.Children[1:]...)
	}
	return nil
}

// registerLocal allocates node's DataParameter and appends it to the
// nearest enclosing Scope's Declarations list. The parameter's Type is
// left zero here; ResolveTypes fills it in once the initializer (or
// explicit type annotation) is known.
func (r *Resolver) registerLocal(node *ast.CodeNode) {
	var initializer *ast.CodeNode
	if len(node.Children) > 0 {
		initializer = node.Children[0]
	}
	param := &ast.DataParameter{
		Name:        node.Name(),
		Scope:       ast.ScopeLocal,
		Initializer: initializer,
		Assignable:  true,
	}
	node.SetParam(param)
	if scope := node.ParentScope(); scope != nil {
		scope.Declarations = append(scope.Declarations, param)
	}
}

// flattenElseIf merges a trailing `else { if (...) {...} else {...} }`
// branch directly into node's own child list, so `if/else if/else if/else`
// chains resolve as one IfElse rather than nested ones.
//
// Children are laid out as condition/branch pairs, with an optional
// trailing unconditional else branch when the list has odd length:
// [cond0, then0, cond1, then1, ..., elseBody?].
func flattenElseIf(node *ast.CodeNode) {
	for len(node.Children)%2 == 1 {
		last := node.Children[len(node.Children)-1]
		if last == nil || last.Op != ast.IfElse {
			break
		}
		node.Children = append(node.Children[:len(node.Children)-1], last.Children...)
	}
}

// cloneTree deep-copies node and its descendants, used to duplicate a
// compound assignment's lvalue target for its read side (`x += y` needs
// both a store address and a load of the current value).
func cloneTree(node *ast.CodeNode) *ast.CodeNode {
	if node == nil {
		return nil
	}
	c := node.Clone()
	if len(node.Children) > 0 {
		c.Children = make([]*ast.CodeNode, len(node.Children))
		for i, ch := range node.Children {
			c.Children[i] = cloneTree(ch)
		}
	}
	return c
}

package fold

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// maxExecutionSteps bounds the interpreter's total work per top-level
// Run; the budget is shared with every nested call frame rather than
// reset per frame.
const maxExecutionSteps = 65536

// maxExecutionDepth bounds call nesting so a self- or mutually-recursive
// function fails over to the structural fold instead of exhausting the
// native stack.
const maxExecutionDepth = 256

type execSignal uint8

const (
	sigNone execSignal = iota
	sigReturn
	sigBreak
	sigContinue
)

// ExecutionStack is a small tree-walking interpreter over an already
// resolved (not necessarily folded) AST, used by Call folding to attempt to
// fully reduce a callee to a concrete return value. Unlike the structural
// foldCode walk, it tracks local-variable values assigned through Store, and
// gives up gracefully ("could not execute") the moment it meets anything it
// cannot reduce — a runtime resource load, an unresolved condition, or the
// step budget running out.
type ExecutionStack struct {
	Folder       *Folder
	locals       map[*ast.DataParameter]value.ExecutionValue
	thisInstance *program.Instance

	// depth counts call nesting from the top-level Run; steps is the
	// cumulative work counter shared across every nested frame. Both
	// exist so recursion degrades into "could not execute" instead of a
	// native stack overflow.
	depth int
	steps *int
}

// tick consumes one unit of the shared step budget, reporting false once
// the budget is exhausted.
func (e *ExecutionStack) tick() bool {
	if e.steps == nil {
		e.steps = new(int)
	}
	*e.steps++
	return *e.steps <= maxExecutionSteps
}

// Run executes fn's body against args and thisInstance, returning the
// function's result value and whether execution completed without hitting
// anything irreducible.
func (e *ExecutionStack) Run(fn *program.Function, thisInstance *program.Instance, args []value.ExecutionValue) (value.ExecutionValue, bool) {
	if fn == nil || fn.Body == nil || len(args) != len(fn.Params) {
		return value.ExecutionValue{}, false
	}
	if e.depth > maxExecutionDepth {
		return value.ExecutionValue{}, false
	}
	e.locals = make(map[*ast.DataParameter]value.ExecutionValue, len(fn.Params))
	for i, p := range fn.Params {
		e.locals[p] = args[i]
	}
	e.thisInstance = thisInstance
	v, sig, ok := e.exec(fn.Body)
	if !ok {
		return value.ExecutionValue{}, false
	}
	switch {
	case sig == sigReturn:
		return v, true
	case fn.Return.Base() == types.Void:
		return value.ExecutionValue{}, true
	case v.HasValue:
		// The body is a bare expression (no enclosing Scope/Return):
		// falling off the end yields that expression's own value.
		return v, true
	default:
		return value.ExecutionValue{}, false
	}
}

func (e *ExecutionStack) exec(node *ast.CodeNode) (value.ExecutionValue, execSignal, bool) {
	if !e.tick() {
		return value.ExecutionValue{}, sigNone, false
	}
	if node == nil {
		return value.ExecutionValue{}, sigNone, true
	}

	switch node.Op {
	case ast.Scope:
		for _, p := range node.Declarations {
			if _, seeded := e.locals[p]; !seeded {
				e.locals[p] = value.NewExecutionValue(p.Type)
			}
		}
		for _, child := range node.Children {
			v, sig, ok := e.exec(child)
			if !ok {
				return value.ExecutionValue{}, sigNone, false
			}
			if sig != sigNone {
				return v, sig, true
			}
		}
		return value.ExecutionValue{}, sigNone, true

	case ast.VariableDecl:
		p := node.Param()
		if p == nil {
			return value.ExecutionValue{}, sigNone, false
		}
		if len(node.Children) > 0 && node.Children[0] != nil {
			v, _, ok := e.exec(node.Children[0])
			if !ok {
				return value.ExecutionValue{}, sigNone, false
			}
			e.locals[p] = v
		} else {
			e.locals[p] = value.NewExecutionValue(p.Type)
		}
		return value.ExecutionValue{}, sigNone, true

	case ast.Const:
		return value.NewConstExecutionValue(node.Type, node.Value), sigNone, true

	case ast.ParamRef:
		return e.readParam(node)

	case ast.Load:
		if len(node.Children) != 1 {
			return value.ExecutionValue{}, sigNone, false
		}
		return e.exec(node.Children[0])

	case ast.Store:
		if len(node.Children) != 2 {
			return value.ExecutionValue{}, sigNone, false
		}
		v, _, ok := e.exec(node.Children[1])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		if mask := node.Mask(); len(mask.Selectors) > 0 {
			if !e.writeMasked(node.Children[0], mask, v) {
				return value.ExecutionValue{}, sigNone, false
			}
			return v, sigNone, true
		}
		if !e.writeParam(node.Children[0], v) {
			return value.ExecutionValue{}, sigNone, false
		}
		return v, sigNone, true

	case ast.Cast:
		v, _, ok := e.exec(node.Children[0])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		if !v.HasValue {
			return value.NewExecutionValue(node.Type), sigNone, true
		}
		return value.NewConstExecutionValue(node.Type, castValue(v.Value, node.CastType().Base())), sigNone, true

	case ast.NativeCall:
		args := make([]value.ExecutionValue, len(node.Children))
		for i, c := range node.Children {
			v, _, ok := e.exec(c)
			if !ok {
				return value.ExecutionValue{}, sigNone, false
			}
			args[i] = v
		}
		fn := node.Native()
		if fn == nil {
			return value.ExecutionValue{}, sigNone, false
		}
		ret := value.NewExecutionValue(node.Type)
		decided := false
		if pe, ok := fn.(native.PartialEvaluator); ok {
			for k := 1; k <= len(args); k++ {
				if pe.PartialEvaluate(&ret, args[:k]) {
					decided = true
					break
				}
			}
		}
		if !decided {
			fn.Evaluate(&ret, args)
		}
		return ret, sigNone, true

	case ast.CreateVector, ast.CreateArray:
		vals := make([]value.ExecutionValue, len(node.Children))
		allDefined := true
		for i, c := range node.Children {
			v, _, ok := e.exec(c)
			if !ok {
				return value.ExecutionValue{}, sigNone, false
			}
			vals[i] = v
			if !v.HasValue {
				allDefined = false
			}
		}
		if !allDefined {
			return value.NewExecutionValue(node.Type), sigNone, true
		}
		var comps []value.DataValueComponent
		if node.Op == ast.CreateVector && len(vals) == 1 {
			width := node.Type.ComponentCount()
			src := vals[0].Value.Components
			comps = make([]value.DataValueComponent, width)
			for i := range comps {
				switch {
				case len(src) == 1:
					comps[i] = src[0]
				case i < len(src):
					comps[i] = src[i]
				}
			}
		} else {
			for _, v := range vals {
				comps = append(comps, v.Value.Components...)
			}
		}
		return value.NewConstExecutionValue(node.Type, value.DataValue{Components: comps}), sigNone, true

	case ast.CreateMatrix:
		// Left symbolic, same as the structural folder: cannot be reduced
		// to a concrete value here either.
		return value.ExecutionValue{}, sigNone, false

	case ast.ReadSwizzle:
		v, _, ok := e.exec(node.Children[0])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		if !v.HasValue {
			return value.NewExecutionValue(node.Type), sigNone, true
		}
		return value.NewConstExecutionValue(node.Type, evalSwizzle(node.Mask(), node.Type.Base(), v.Value)), sigNone, true

	case ast.AccessArray:
		target, _, ok := e.exec(node.Children[0])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		index, _, ok := e.exec(node.Children[1])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		if !target.HasValue || !index.HasValue {
			return value.NewExecutionValue(node.Type), sigNone, true
		}
		idx := indexComponent(index.Value)
		width := componentWidth(node.Type)
		start := idx * width
		if start < 0 || start+width > len(target.Value.Components) {
			return value.ExecutionValue{}, sigNone, false
		}
		slice := append([]value.DataValueComponent{}, target.Value.Components[start:start+width]...)
		return value.NewConstExecutionValue(node.Type, value.DataValue{Components: slice}), sigNone, true

	case ast.AccessMember:
		target, _, ok := e.exec(node.Children[0])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		if node.ResolvedFunction() != nil {
			return value.ExecutionValue{}, sigNone, false
		}
		comp, hasComp := target.Type.Composite()
		if !hasComp {
			return value.ExecutionValue{}, sigNone, false
		}
		if !target.HasValue {
			return value.NewExecutionValue(node.Type), sigNone, true
		}
		offset := memberComponentOffset(comp, node.Name())
		width := componentWidth(node.Type)
		if offset < 0 || offset+width > len(target.Value.Components) {
			return value.ExecutionValue{}, sigNone, false
		}
		slice := append([]value.DataValueComponent{}, target.Value.Components[offset:offset+width]...)
		return value.NewConstExecutionValue(node.Type, value.DataValue{Components: slice}), sigNone, true

	case ast.This:
		if e.thisInstance == nil {
			return value.ExecutionValue{}, sigNone, false
		}
		return value.NewConstExecutionValue(node.Type, instanceValue(e.thisInstance)), sigNone, true

	case ast.IfElse:
		n := len(node.Children)
		pairs := n / 2
		hasElse := n%2 == 1
		for i := 0; i < pairs; i++ {
			cond, _, ok := e.exec(node.Children[2*i])
			if !ok || !cond.HasValue {
				return value.ExecutionValue{}, sigNone, false
			}
			if boolComponent(cond.Value) {
				return e.exec(node.Children[2*i+1])
			}
		}
		if hasElse {
			return e.exec(node.Children[n-1])
		}
		return value.ExecutionValue{}, sigNone, true

	case ast.Loop:
		if len(node.Children) != 2 {
			return value.ExecutionValue{}, sigNone, false
		}
		cond, body := node.Children[0], node.Children[1]
		for {
			if !e.tick() {
				return value.ExecutionValue{}, sigNone, false
			}
			cv, _, ok := e.exec(cond)
			if !ok || !cv.HasValue {
				return value.ExecutionValue{}, sigNone, false
			}
			if !boolComponent(cv.Value) {
				return value.ExecutionValue{}, sigNone, true
			}
			v, sig, ok := e.exec(body)
			if !ok {
				return value.ExecutionValue{}, sigNone, false
			}
			switch sig {
			case sigBreak:
				return value.ExecutionValue{}, sigNone, true
			case sigReturn:
				return v, sigReturn, true
			}
		}

	case ast.Break:
		return value.ExecutionValue{}, sigBreak, true
	case ast.Continue:
		return value.ExecutionValue{}, sigContinue, true
	case ast.Exit:
		return value.ExecutionValue{}, sigReturn, true

	case ast.Return:
		if len(node.Children) == 0 || node.Children[0] == nil {
			return value.ExecutionValue{}, sigReturn, true
		}
		v, _, ok := e.exec(node.Children[0])
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		return v, sigReturn, true

	case ast.Call:
		return e.execCall(node)

	case ast.Nop:
		return value.ExecutionValue{}, sigNone, true

	default:
		// ProgramInstance, ProgramInstanceParam, ResourceTable, FuncRef,
		// First, and anything resource-shaped: not reducible by this
		// interpreter.
		return value.ExecutionValue{}, sigNone, false
	}
}

func (e *ExecutionStack) readParam(node *ast.CodeNode) (value.ExecutionValue, execSignal, bool) {
	p := node.Param()
	if p == nil {
		return value.ExecutionValue{}, sigNone, false
	}
	if v, ok := e.locals[p]; ok {
		return v, sigNone, true
	}
	if p.Scope == ast.ScopeGlobalConst && e.thisInstance != nil {
		if dv, ok := e.thisInstance.Constants[p]; ok {
			return value.NewConstExecutionValue(p.Type, dv), sigNone, true
		}
	}
	if p.Scope == ast.ScopeStaticConstant && p.Initializer != nil {
		nested := &ExecutionStack{Folder: e.Folder, depth: e.depth + 1, steps: e.steps}
		v, _, ok := nested.exec(p.Initializer)
		if ok {
			return v, sigNone, true
		}
	}
	if p.Type.IsResource() {
		// Resources carry no runtime value the interpreter can read.
		return value.ExecutionValue{}, sigNone, false
	}
	return value.NewExecutionValue(p.Type), sigNone, true
}

func (e *ExecutionStack) writeParam(target *ast.CodeNode, v value.ExecutionValue) bool {
	if target.Op != ast.ParamRef {
		// Element-write targets (a[i] = v) are not modeled by this
		// interpreter; Call folding simply fails over to the structural
		// fold in that case.
		return false
	}
	p := target.Param()
	if p == nil {
		return false
	}
	e.locals[p] = v
	return true
}

// writeMasked merges v's components into target's current value at the
// positions a store's write mask names, leaving the rest untouched.
func (e *ExecutionStack) writeMasked(target *ast.CodeNode, mask ast.SwizzleMask, v value.ExecutionValue) bool {
	if target.Op != ast.ParamRef {
		return false
	}
	p := target.Param()
	if p == nil {
		return false
	}
	cur, ok := e.locals[p]
	if !ok {
		cur = value.NewExecutionValue(p.Type)
	}
	comps := make([]value.DataValueComponent, componentWidth(p.Type))
	copy(comps, cur.Value.Components)
	for i, sel := range mask.Selectors {
		if sel.Kind != ast.SwizzleComponent || sel.ComponentIndex >= len(comps) || i >= len(v.Value.Components) {
			return false
		}
		comps[sel.ComponentIndex] = v.Value.Components[i]
	}
	e.locals[p] = value.NewConstExecutionValue(p.Type, value.DataValue{Components: comps})
	return true
}

func (e *ExecutionStack) execCall(node *ast.CodeNode) (value.ExecutionValue, execSignal, bool) {
	args := make([]value.ExecutionValue, len(node.Children))
	for i, c := range node.Children {
		v, _, ok := e.exec(c)
		if !ok {
			return value.ExecutionValue{}, sigNone, false
		}
		args[i] = v
	}
	callee, _ := node.ResolvedFunction().(*program.Function)
	if callee == nil {
		return value.ExecutionValue{}, sigNone, false
	}
	target, resolvedThis := dispatch(callee, e.thisInstance)
	nested := &ExecutionStack{Folder: e.Folder, depth: e.depth + 1, steps: e.steps}
	v, ok := nested.Run(target, resolvedThis, args)
	if !ok {
		return value.ExecutionValue{}, sigNone, false
	}
	return v, sigNone, true
}

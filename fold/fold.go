// Package fold implements the function folder: partial evaluation of a
// resolved function body against a set of compile-time-known argument
// values, producing a specialized Function with dead branches removed and
// reachable computation replaced by constants.
//
// The interning/renaming scheme is grounded on program/instance.go's
// InstanceLibrary (content-addressed key, two-phase insert so a
// self-recursive fold observes the in-progress entry rather than
// recursing forever), generalized from (Program, Constants) to
// (Function, Instance?, ArgumentValues).
package fold

import (
	"fmt"
	"hash/fnv"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// Folder owns the folded-function cache for one compilation session.
type Folder struct {
	Types     *types.Library
	Natives   *native.Registry
	Instances *program.InstanceLibrary
	Errors    diag.IErrorReporter

	cache map[cacheKey]*program.Function
	names map[string]int
}

// New returns an empty folder.
func New(typeLib *types.Library, natives *native.Registry, instances *program.InstanceLibrary, errs diag.IErrorReporter) *Folder {
	return &Folder{
		Types:     typeLib,
		Natives:   natives,
		Instances: instances,
		Errors:    errs,
		cache:     make(map[cacheKey]*program.Function),
		names:     make(map[string]int),
	}
}

// cacheKey implements the "(F, thisInstance?.key, hash(L))" interning
// key. *program.Function is itself comparable (pointer identity), so no
// extra indirection is needed for the F component.
type cacheKey struct {
	fn      *program.Function
	instKey uint64
	argsKey uint64
}

func instanceKey(inst *program.Instance) uint64 {
	if inst == nil {
		return 0
	}
	return inst.Key()
}

// foldScope is foldCode's per-call context: the this-instance (for
// global-const/This substitution) and the known function-input values.
type foldScope struct {
	thisInstance *program.Instance
	args         program.ProgramConstants
}

// FoldFunction specializes fn against thisInstance and L, returning the
// cached Function if this exact key was folded before.
func (f *Folder) FoldFunction(fn *program.Function, thisInstance *program.Instance, L program.ProgramConstants) *program.Function {
	if fn == nil {
		return nil
	}
	key := cacheKey{fn: fn, instKey: instanceKey(thisInstance), argsKey: hashConstants(L)}
	if cached, ok := f.cache[key]; ok {
		return cached
	}

	folded := &program.Function{
		Location:   fn.Location,
		Name:       f.freshName(fn.Name),
		Return:     fn.Return,
		Attributes: fn.Attributes,
		Program:    fn.Program,
	}
	// Two-phase insert: reserve the slot before folding the body,
	// so a self-recursive call to FoldFunction with this same key (reached
	// while folding fn.Body below) returns this same, still-incomplete
	// pointer instead of recursing forever.
	f.cache[key] = folded

	folded.Params, folded.StaticParameters = splitStaticParams(fn.Params, L)

	scope := &foldScope{thisInstance: thisInstance, args: L}
	folded.Body = f.foldCode(scope, fn.Body)
	return folded
}

// splitStaticParams removes the parameters present in L from the folded
// function's own parameter list, recording their names as
// StaticParameters.
func splitStaticParams(params []*ast.DataParameter, L program.ProgramConstants) (remaining []*ast.DataParameter, static []string) {
	for _, p := range params {
		if _, ok := L[p]; ok {
			static = append(static, p.Name)
			continue
		}
		remaining = append(remaining, p)
	}
	return remaining, static
}

// freshName implements the "foo, foo2, foo3" renaming scheme.
func (f *Folder) freshName(base string) string {
	n := f.names[base]
	f.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, n+1)
}

// foldCode is the recursive rewrite at the folder's center, producing a
// fresh node for every input node. For most
// opcodes children are folded eagerly; IfElse folds its branches lazily so
// a statically-dead branch is never materialized.
func (f *Folder) foldCode(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	if node == nil {
		return nil
	}
	switch node.Op {
	case ast.Scope:
		c := node.Clone()
		c.Children = f.foldChildren(s, node.Children)
		return c
	case ast.ParamRef:
		return f.foldParamRef(s, node)
	case ast.Const:
		return node.Clone()
	case ast.Cast:
		return f.foldCast(s, node)
	case ast.Load:
		return f.foldLoad(s, node)
	case ast.AccessArray:
		return f.foldAccessArray(s, node)
	case ast.AccessMember:
		return f.foldAccessMember(s, node)
	case ast.ReadSwizzle:
		return f.foldReadSwizzle(s, node)
	case ast.NativeCall:
		return f.foldNativeCall(s, node)
	case ast.This:
		return f.foldThis(s, node)
	case ast.ProgramInstanceParam:
		// Encountered standalone (outside a ProgramInstance's own
		// handling): unwrap to the already-folded child value.
		return f.foldCode(s, node.Children[0])
	case ast.ProgramInstance:
		return f.foldProgramInstance(s, node)
	case ast.IfElse:
		return f.foldIfElse(s, node)
	case ast.CreateVector:
		return f.foldCreateVector(s, node)
	case ast.CreateArray:
		return f.foldCreateArray(s, node)
	case ast.CreateMatrix:
		// Left symbolic: fold children, never collapse to Const.
		c := node.Clone()
		c.Children = f.foldChildren(s, node.Children)
		return c
	case ast.Call:
		return f.foldCall(s, node)
	default:
		// Store, VariableDecl, Loop, Return, Break, Continue, Exit, Nop,
		// FuncRef, ResourceTable, First: fold children, keep the opcode.
		c := node.Clone()
		c.Children = f.foldChildren(s, node.Children)
		return c
	}
}

func (f *Folder) foldChildren(s *foldScope, children []*ast.CodeNode) []*ast.CodeNode {
	if children == nil {
		return nil
	}
	out := make([]*ast.CodeNode, len(children))
	for i, c := range children {
		out[i] = f.foldCode(s, c)
	}
	return out
}

// foldParamRef implements the per-scope ParamRef substitution rule.
func (f *Folder) foldParamRef(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	p := node.Param()
	if p == nil {
		return node.Clone()
	}
	switch p.Scope {
	case ast.ScopeGlobalConst:
		if s.thisInstance != nil {
			if v, ok := s.thisInstance.Constants[p]; ok {
				return f.constNodeFrom(node, v)
			}
		}
		if p.Initializer != nil {
			init := f.foldCode(&foldScope{thisInstance: s.thisInstance}, p.Initializer)
			if init.Op == ast.Const {
				return f.constNodeFrom(node, init.Value)
			}
		}
		f.Errors.ReportError(node.Location, "parameter "+p.Name+" has a value that is not constant at compile time")
		return f.zeroConstNodeFrom(node)

	case ast.ScopeFunctionInput:
		if v, ok := s.args[p]; ok {
			return f.constNodeFrom(node, v)
		}
		return node.Clone()

	case ast.ScopeStaticConstant:
		init := f.foldCode(&foldScope{}, p.Initializer)
		if init != nil && init.Op == ast.Const {
			return f.constNodeFrom(node, init.Value)
		}
		f.Errors.ReportError(node.Location, "static constant "+p.Name+" has no initializer")
		return f.zeroConstNodeFrom(node)

	case ast.ScopeGlobalParameter:
		if p.Type.IsResource() {
			return f.resourceConstNode(node, p)
		}
		return node.Clone()

	default:
		return node.Clone()
	}
}

func (f *Folder) constNodeFrom(node *ast.CodeNode, v value.DataValue) *ast.CodeNode {
	c := ast.New(ast.Const, node.Location)
	c.Type = node.Type.Dereferenced()
	c.Value = v
	c.TypesResolved = true
	return c
}

func (f *Folder) zeroConstNodeFrom(node *ast.CodeNode) *ast.CodeNode {
	return f.constNodeFrom(node, value.UndefinedValue(componentWidth(node.Type)))
}

// resourceConstNode collapses a resource-typed global parameter to a
// Const carrying its opaque "res:<descriptor>.<entry>" name, and keeps the
// parameter linked so its attributes stay reachable from the Const.
func (f *Folder) resourceConstNode(node *ast.CodeNode, p *ast.DataParameter) *ast.CodeNode {
	c := ast.New(ast.Const, node.Location)
	c.Type = node.Type.Dereferenced()
	c.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentName("res:" + p.Name)}}
	c.SetParam(p)
	c.TypesResolved = true
	return c
}

func (f *Folder) foldCast(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	operand := f.foldCode(s, node.Children[0])
	if operand.Op != ast.Const || !operand.Value.IsWholeValueDefined() {
		c := node.Clone()
		c.Children = []*ast.CodeNode{operand}
		return c
	}
	v := castValue(operand.Value, node.CastType().Base())
	return f.constNodeFrom(node, v)
}

func (f *Folder) foldLoad(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	operand := f.foldCode(s, node.Children[0])
	if operand.Op == ast.Const {
		return f.constNodeFrom(node, operand.Value)
	}
	c := node.Clone()
	c.Children = []*ast.CodeNode{operand}
	return c
}

func (f *Folder) foldAccessArray(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	target := f.foldCode(s, node.Children[0])
	index := f.foldCode(s, node.Children[1])
	if target.Op == ast.Const && target.Value.IsWholeValueDefined() &&
		index.Op == ast.Const && index.Value.IsWholeValueDefined() {
		idx := indexComponent(index.Value)
		width := componentWidth(node.Type)
		start := idx * width
		if start >= 0 && start+width <= len(target.Value.Components) {
			slice := append([]value.DataValueComponent{}, target.Value.Components[start:start+width]...)
			return f.constNodeFrom(node, value.DataValue{Components: slice})
		}
	}
	c := node.Clone()
	c.Children = []*ast.CodeNode{target, index}
	return c
}

func (f *Folder) foldAccessMember(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	target := f.foldCode(s, node.Children[0])
	if node.ResolvedFunction() != nil {
		// A program member that resolved to a function reference: never a
		// value, so never foldable to Const.
		c := node.Clone()
		c.Children = []*ast.CodeNode{target}
		return c
	}
	if target.Op == ast.Const && target.Value.IsWholeValueDefined() {
		if comp, ok := target.Type.Composite(); ok {
			if _, _, found := comp.MemberByName(node.Name()); found {
				offset := memberComponentOffset(comp, node.Name())
				width := componentWidth(node.Type)
				if offset >= 0 && offset+width <= len(target.Value.Components) {
					slice := append([]value.DataValueComponent{}, target.Value.Components[offset:offset+width]...)
					return f.constNodeFrom(node, value.DataValue{Components: slice})
				}
			}
		}
	}
	c := node.Clone()
	c.Children = []*ast.CodeNode{target}
	return c
}

func (f *Folder) foldReadSwizzle(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	target := f.foldCode(s, node.Children[0])
	if target.Op == ast.Const && target.Value.IsWholeValueDefined() {
		return f.constNodeFrom(node, evalSwizzle(node.Mask(), node.Type.Base(), target.Value))
	}
	c := node.Clone()
	c.Children = []*ast.CodeNode{target}
	return c
}

func evalSwizzle(mask ast.SwizzleMask, base types.BaseKind, source value.DataValue) value.DataValue {
	comps := make([]value.DataValueComponent, len(mask.Selectors))
	for i, sel := range mask.Selectors {
		switch sel.Kind {
		case ast.SwizzleComponent:
			if sel.ComponentIndex < len(source.Components) {
				comps[i] = source.Components[sel.ComponentIndex]
			}
		case ast.SwizzleLiteralZero:
			comps[i] = literalComponent(base, 0)
		case ast.SwizzleLiteralOne:
			comps[i] = literalComponent(base, 1)
		}
	}
	return value.DataValue{Components: comps}
}

func (f *Folder) foldNativeCall(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	foldedArgs := f.foldChildren(s, node.Children)
	execArgs := make([]value.ExecutionValue, len(foldedArgs))
	for i, a := range foldedArgs {
		execArgs[i] = executionValueOf(a)
	}
	fn := node.Native()
	ret := value.NewExecutionValue(node.Type)
	decided := false
	if pe, ok := fn.(native.PartialEvaluator); ok {
		for k := 1; k <= len(execArgs); k++ {
			if pe.PartialEvaluate(&ret, execArgs[:k]) {
				decided = true
				break
			}
		}
	}
	if !decided {
		fn.Evaluate(&ret, execArgs)
	}
	if ret.Value.IsWholeValueDefined() {
		return f.constNodeFrom(node, ret.Value)
	}
	c := node.Clone()
	c.Children = foldedArgs
	return c
}

func executionValueOf(n *ast.CodeNode) value.ExecutionValue {
	if n.Op == ast.Const && n.Value.IsWholeValueDefined() {
		return value.NewConstExecutionValue(n.Type, n.Value)
	}
	return value.NewExecutionValue(n.Type)
}

func (f *Folder) foldThis(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	if s.thisInstance == nil {
		return ast.New(ast.Nop, node.Location)
	}
	c := ast.New(ast.Const, node.Location)
	c.Type = node.Type
	c.Value = instanceValue(s.thisInstance)
	c.TypesResolved = true
	return c
}

func instanceValue(inst *program.Instance) value.DataValue {
	return value.DataValue{Components: []value.DataValueComponent{
		value.ComponentProgramInstance(value.ProgramInstanceKey(inst.Key()), inst),
	}}
}

// foldProgramInstance builds a ProgramConstants from each child's folded
// value and interns the resulting Instance.
func (f *Folder) foldProgramInstance(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	if len(node.Children) == 0 {
		return node.Clone()
	}
	target := f.foldCode(s, node.Children[0])
	constants := program.ProgramConstants{}
	foldedParams := make([]*ast.CodeNode, 0, len(node.Children)-1)
	allDefined := true
	for _, paramNode := range node.Children[1:] {
		if paramNode == nil || len(paramNode.Children) != 1 {
			continue
		}
		valNode := f.foldCode(s, paramNode.Children[0])
		p := paramNode.Param()
		if valNode.Op != ast.Const || !valNode.Value.IsWholeValueDefined() {
			if p != nil {
				f.Errors.ReportError(paramNode.Location, "parameter "+p.Name+" for program instance is not constant at compile time")
			}
			allDefined = false
			continue
		}
		if p != nil {
			constants[p] = valNode.Value
		}
		fp := paramNode.Clone()
		fp.Children = []*ast.CodeNode{valNode}
		foldedParams = append(foldedParams, fp)
	}
	rebuilt := func() *ast.CodeNode {
		c := node.Clone()
		c.Children = append([]*ast.CodeNode{target}, foldedParams...)
		return c
	}
	if !allDefined || target.Type.Base() != types.Program {
		return rebuilt()
	}
	p := programOf(target.Type.ProgramIdentity())
	if p == nil {
		f.Errors.ReportError(node.Location, "unresolved program identity")
		return rebuilt()
	}
	inst, ok := f.Instances.GetOrCreate(p, constants, node.Location, f.Errors)
	if !ok {
		return rebuilt()
	}
	result := ast.New(ast.Const, node.Location)
	result.Type = node.Type
	result.Value = instanceValue(inst)
	result.TypesResolved = true
	return result
}

func programOf(pid types.ProgramIdentity) *program.Program {
	switch p := pid.(type) {
	case *program.Program:
		return p
	case *program.Instance:
		return p.Program
	default:
		return nil
	}
}

// foldIfElse implements the lazy branch-pruning rule. Children are
// laid out [cond0, then0, cond1, then1, ..., elseBody?] (the same
// convention resolve.resolveIfElse establishes).
func (f *Folder) foldIfElse(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	n := len(node.Children)
	pairs := n / 2
	hasElse := n%2 == 1
	var kept []*ast.CodeNode
	for i := 0; i < pairs; i++ {
		cond := f.foldCode(s, node.Children[2*i])
		if cond.Op == ast.Const && cond.Value.IsWholeValueDefined() {
			if boolComponent(cond.Value) {
				return f.foldCode(s, node.Children[2*i+1])
			}
			continue
		}
		body := f.foldCode(s, node.Children[2*i+1])
		kept = append(kept, cond, body)
	}
	var elseBody *ast.CodeNode
	if hasElse {
		elseBody = f.foldCode(s, node.Children[n-1])
	}
	if len(kept) == 0 {
		if elseBody != nil {
			return elseBody
		}
		return ast.New(ast.Nop, node.Location)
	}
	c := node.Clone()
	if elseBody != nil {
		kept = append(kept, elseBody)
	}
	c.Children = kept
	return c
}

func (f *Folder) foldCreateVector(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	foldedArgs := f.foldChildren(s, node.Children)
	if allWholeDefined(foldedArgs) {
		width := node.Type.ComponentCount()
		var comps []value.DataValueComponent
		if len(foldedArgs) == 1 {
			src := foldedArgs[0].Value.Components
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
			for _, a := range foldedArgs {
				comps = append(comps, a.Value.Components...)
			}
		}
		return f.constNodeFrom(node, value.DataValue{Components: comps})
	}
	c := node.Clone()
	c.Children = foldedArgs
	return c
}

func (f *Folder) foldCreateArray(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	foldedArgs := f.foldChildren(s, node.Children)
	if allWholeDefined(foldedArgs) {
		var comps []value.DataValueComponent
		for _, a := range foldedArgs {
			comps = append(comps, a.Value.Components...)
		}
		return f.constNodeFrom(node, value.DataValue{Components: comps})
	}
	c := node.Clone()
	c.Children = foldedArgs
	return c
}

func allWholeDefined(nodes []*ast.CodeNode) bool {
	for _, n := range nodes {
		if n.Op != ast.Const || !n.Value.IsWholeValueDefined() {
			return false
		}
	}
	return true
}

// foldCall is the hardest case: resolve the concrete (possibly
// dynamically-dispatched) callee, try to fully execute it via an
// ExecutionStack, and — whether or not that succeeds — recursively fold
// the callee against whatever arguments did fold statically.
func (f *Folder) foldCall(s *foldScope, node *ast.CodeNode) *ast.CodeNode {
	foldedArgs := f.foldChildren(s, node.Children)
	calleeOrig, _ := node.ResolvedFunction().(*program.Function)
	if calleeOrig == nil {
		c := node.Clone()
		c.Children = foldedArgs
		return c
	}

	target, resolvedThis := dispatch(calleeOrig, s.thisInstance)

	execArgs := make([]value.ExecutionValue, len(foldedArgs))
	for i, a := range foldedArgs {
		execArgs[i] = executionValueOf(a)
	}

	if result, ok := (&ExecutionStack{Folder: f}).Run(target, resolvedThis, execArgs); ok && result.Value.IsWholeValueDefined() {
		f.FoldFunction(target, resolvedThis, staticArgs(target.Params, execArgs))
		return f.constNodeFrom(node, result.Value)
	}

	folded := f.FoldFunction(target, resolvedThis, staticArgs(target.Params, execArgs))
	c := node.Clone()
	c.SetResolvedFunction(folded)
	remaining := make([]*ast.CodeNode, 0, len(foldedArgs))
	for i, a := range foldedArgs {
		if i < len(execArgs) && execArgs[i].HasValue {
			continue
		}
		remaining = append(remaining, a)
	}
	c.Children = remaining
	return c
}

// dispatch resolves the concrete callee: dynamic dispatch over the
// program inheritance hierarchy, selecting a derived override when the
// current this-instance is based on a more-derived program than the
// call's static owner.
func dispatch(callee *program.Function, thisInstance *program.Instance) (*program.Function, *program.Instance) {
	if callee.Program == nil {
		return callee, thisInstance
	}
	if thisInstance == nil {
		return callee, nil
	}
	target := callee
	if candidate, ok := thisInstance.Program.FindFunction(callee.Name, true); ok {
		target = candidate
	}
	if !thisInstance.IsBasedOnProgram(callee.Program) {
		// this does not apply to the resolved callee's declaring program;
		// no valid instance context carries over.
		return target, nil
	}
	return target, thisInstance
}

func staticArgs(params []*ast.DataParameter, execArgs []value.ExecutionValue) program.ProgramConstants {
	l := program.ProgramConstants{}
	for i, p := range params {
		if i < len(execArgs) && execArgs[i].HasValue {
			l[p] = execArgs[i].Value
		}
	}
	return l
}

// hashConstants order-independently hashes a ProgramConstants map (keys
// are pointers, and Go map iteration order is unstable), XOR-combining
// per-entry hashes rather than feeding everything through one running
// hash — the same technique program/instance.go uses for Instance keys.
func hashConstants(l program.ProgramConstants) uint64 {
	var acc uint64
	for p, v := range l {
		h := fnv.New64a()
		fmt.Fprintf(h, "%p", p)
		for _, c := range v.Components {
			h.Write([]byte{byte(c.Tag)})
			writeUint64(h, c.Uint64)
			writeUint64(h, uint64(c.Int32))
			writeUint64(h, uint64(c.Uint32))
			h.Write([]byte(c.Name))
		}
		acc ^= h.Sum64()
	}
	return acc
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	h.Write(b[:])
}

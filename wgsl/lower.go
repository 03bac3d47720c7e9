package wgsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// Lowerer turns a parsed WGSL module into a *program.Program of raw,
// not-yet-resolved CodeNode bodies. Package resolve's two-pass
// linkScopes/mutateNode/resolveTypes walk does everything past syntax:
// this type only needs to emit the correct, untyped, sugared node shapes
// (assignment and constructor forms as the `__assign`/`__create_*` magic
// calls resolve/mutate.go recognizes) and a fully-typed ast.Const for
// every literal, since a literal's type is syntactically self-evident and
// nothing downstream infers it for you.
type Lowerer struct {
	types *types.Library
	errs  diag.IErrorReporter

	name   string
	source string

	structTypes  map[string]types.DataType
	aliasTypes   map[string]Type
	globalConsts map[string]*ast.DataParameter
	descriptors  map[string]*ast.DataParameter

	prog *program.Program

	loops []loopContext
}

// loopContext tracks the statement a `continue` must re-run before it
// loops. ast.Loop only ever carries [cond, body] (nothing else walks a
// separate increment/continuing slot), so a naive `body = [...stmts,
// update]` desugaring would skip `update` on every `continue` path; this
// splices a fresh lowering of the increment/continuing block ahead of
// each Continue node emitted inside the loop's lexical extent instead.
type loopContext struct {
	rerun func() *ast.CodeNode
}

// NewLowerer returns a Lowerer that interns types through typeLib and
// reports diagnostics through errs.
func NewLowerer(typeLib *types.Library, errs diag.IErrorReporter) *Lowerer {
	return &Lowerer{
		types:        typeLib,
		errs:         errs,
		structTypes:  make(map[string]types.DataType),
		aliasTypes:   make(map[string]Type),
		globalConsts: make(map[string]*ast.DataParameter),
		descriptors:  make(map[string]*ast.DataParameter),
	}
}

// LowerModule lowers m into a single *program.Program named name.
// Resolving the resulting function bodies (mutateNode + resolveTypes) is
// left to the caller, the same split every function in this tree goes
// through before folding.
func (l *Lowerer) LowerModule(name string, m *Module, lib *program.Library, source string) (*program.Program, error) {
	l.name = name
	l.source = source
	l.prog = lib.NewProgram(name)

	for _, a := range m.Aliases {
		l.aliasTypes[a.Name] = a.Type
	}
	for _, s := range m.Structs {
		l.declareStruct(s)
	}
	for _, c := range m.Constants {
		l.declareGlobalConst(c)
	}
	for _, v := range m.GlobalVars {
		l.declareGlobalVar(v)
	}
	for _, fn := range m.Functions {
		l.declareFunction(fn)
	}

	if r, ok := l.errs.(interface{ HasErrors() bool }); ok && r.HasErrors() {
		return l.prog, fmt.Errorf("wgsl: module %q failed to lower", name)
	}
	return l.prog, nil
}

func (l *Lowerer) loc(s Span) diag.Location {
	return diag.Location{File: l.name, Line: s.Start.Line, Column: s.Start.Column}
}

func (l *Lowerer) errorf(s Span, format string, args ...any) {
	l.errs.ReportError(l.loc(s), fmt.Sprintf(format, args...))
}

// --- declarations ---

func (l *Lowerer) declareStruct(s *StructDecl) {
	members := make([]types.Member, 0, len(s.Members))
	for _, m := range s.Members {
		t, err := l.resolveType(m.Type)
		if err != nil {
			l.errorf(m.Span, "struct %s: field %s: %v", s.Name, m.Name, err)
			t = types.Invalid
		}
		members = append(members, types.Member{Name: m.Name, Type: t})
	}
	l.structTypes[s.Name] = l.types.StructType(s.Name, types.HintUserStruct, members)
}

func (l *Lowerer) declareGlobalConst(c *ConstDecl) {
	var t types.DataType
	if c.Type != nil {
		var err error
		t, err = l.resolveType(c.Type)
		if err != nil {
			l.errorf(c.Span, "const %s: %v", c.Name, err)
			t = types.Invalid
		}
	}
	if c.Override && c.Init == nil && c.Type == nil {
		l.errorf(c.Span, "override %s needs a type or a default value", c.Name)
		t = types.Invalid
	}
	var init *ast.CodeNode
	if c.Init != nil {
		init = l.lowerExpr(c.Init)
	}
	param := &ast.DataParameter{Name: c.Name, Scope: ast.ScopeGlobalConst, Type: t, Initializer: init, Assignable: false}
	l.globalConsts[c.Name] = param
	l.prog.AddParameter(param)
}

// GlobalConsts exposes the module-scope const and override parameters by
// name, for a driver assembling a resolve.Environment or binding override
// values into a program instance.
func (l *Lowerer) GlobalConsts() map[string]*ast.DataParameter { return l.globalConsts }

// Descriptors exposes every binding the module declared, keyed by the
// source-level variable name (not the dotted descriptor key), so a driver
// can serve the resolver's descriptor lookups.
func (l *Lowerer) Descriptors() map[string]*ast.DataParameter { return l.descriptors }

// LowerWithSource lowers an already-parsed module with a self-contained
// type and program library, converting any collected diagnostics into a
// *SourceErrors so callers that never touch package diag still get
// position-carrying errors with source context.
func LowerWithSource(m *Module, source string) (*program.Program, error) {
	errs := diag.NewSourceReporter()
	l := NewLowerer(types.NewLibrary(), errs)
	prog, _ := l.LowerModule("shader", m, program.NewLibrary(), source)
	if errs.HasErrors() {
		list := &SourceErrors{}
		for _, d := range errs.Diagnostics() {
			if d.Severity != diag.SeverityError {
				continue
			}
			list.AddError(d.Message, Span{Start: Position{Line: d.Location.Line, Column: d.Location.Column}}, source)
		}
		return nil, list
	}
	return prog, nil
}

// Lookup implements the resolver's descriptor-source contract over the
// module's own bindings. One module never declares the same name twice,
// so a hit is never ambiguous.
func (l *Lowerer) Lookup(name string) (*ast.DataParameter, any, bool, bool) {
	p, ok := l.descriptors[name]
	if !ok {
		return nil, nil, false, false
	}
	return p, p.ResourceTable, false, true
}

// declareGlobalVar handles a module-scope `var<address_space> name: T`.
// uniform/storage bindings become descriptor-element references; every
// other address space (private, workgroup) becomes an ordinary global
// parameter with no descriptor slot.
func (l *Lowerer) declareGlobalVar(v *VarDecl) {
	t, err := l.resolveType(v.Type)
	if err != nil {
		l.errorf(v.Span, "var %s: %v", v.Name, err)
		t = types.Invalid
	}

	switch v.AddressSpace {
	case "uniform", "storage":
		group, hasGroup := attrInt(v.Attributes, "group")
		if !hasGroup {
			group = 0
		}
		if v.AddressSpace == "storage" && v.AccessMode != "read" {
			t = t.AsReference()
		}
		param := l.prog.CreateDescriptorElementReference(descriptorSetName(group), v.Name, "", t, nil)
		l.descriptors[v.Name] = param
		l.prog.AddParameter(param)
	case "workgroup":
		param := &ast.DataParameter{Name: v.Name, Scope: ast.ScopeGroupShared, Type: t, Assignable: true}
		l.descriptors[v.Name] = param
		l.prog.AddParameter(param)
	default:
		param := &ast.DataParameter{Name: v.Name, Scope: ast.ScopeGlobalParameter, Type: t, Assignable: true}
		if v.Init != nil {
			param.Initializer = l.lowerExpr(v.Init)
		}
		l.descriptors[v.Name] = param
		l.prog.AddParameter(param)
	}
}

func descriptorSetName(group int) string { return "Group" + strconv.Itoa(group) }

// stageAttr is the attribute name stamped onto an entry function so a
// driver can tell which pipeline stage it belongs to without
// re-inspecting the raw WGSL attribute list.
const stageAttr = "stage"

func (l *Lowerer) declareFunction(fn *FunctionDecl) {
	stage, isEntry := entryStageName(fn.Attributes)

	params := make([]*ast.DataParameter, 0, len(fn.Params))
	for _, p := range fn.Params {
		t, err := l.resolveType(p.Type)
		if err != nil {
			l.errorf(p.Span, "function %s: parameter %s: %v", fn.Name, p.Name, err)
			t = types.Invalid
		}
		scope := ast.ScopeFunctionInput
		if isEntry {
			if stage == "vertex" {
				scope = ast.ScopeVertexInput
			} else {
				scope = ast.ScopeStageInput
			}
		}
		dp := &ast.DataParameter{Name: p.Name, Scope: scope, Type: t, Assignable: scope == ast.ScopeFunctionInput}
		if kind, ok := builtinAttr(p.Attributes); ok {
			dp.Scope = ast.ScopeGlobalBuiltin
			dp.Builtin = kind
		}
		params = append(params, dp)
	}

	retType, err := l.lowerReturnType(fn)
	if err != nil {
		l.errorf(fn.Span, "function %s: %v", fn.Name, err)
		retType = types.Invalid
	}

	attrs := make([]ast.Attribute, 0, len(fn.Attributes)+3)
	for _, a := range fn.Attributes {
		switch a.Name {
		case "vertex", "fragment", "compute":
			// folded into stageAttr below
		case "workgroup_size":
			x, y, z := workgroupSize(a)
			attrs = append(attrs, ast.Attribute{Name: "local_size_x", Value: strconv.Itoa(x)})
			attrs = append(attrs, ast.Attribute{Name: "local_size_y", Value: strconv.Itoa(y)})
			attrs = append(attrs, ast.Attribute{Name: "local_size_z", Value: strconv.Itoa(z)})
		default:
			attrs = append(attrs, ast.Attribute{Name: a.Name, Value: attrArgString(a)})
		}
	}
	if isEntry {
		attrs = append(attrs, ast.Attribute{Name: stageAttr, Value: stage})
	}
	if stage == "fragment" && (hasAttribute(fn.ReturnAttrs, "early_fragment_tests") || hasAttribute(fn.Attributes, "early_fragment_tests")) {
		attrs = append(attrs, ast.Attribute{Name: "early_fragment_tests"})
	}

	f := &program.Function{
		Location:   l.loc(fn.Span),
		Name:       fn.Name,
		Return:     retType,
		Params:     params,
		Attributes: attrs,
		Program:    l.prog,
	}
	l.prog.AddFunction(f)

	f.Body = l.lowerBlock(fn.Body)
}

// lowerReturnType folds a builtin-only return type (the common
// `-> @builtin(position) vec4<f32>` vertex/fragment case) to a plain
// value type. A struct-typed multi-output return is read back out of the
// return statement's own struct construction, not modeled separately.
func (l *Lowerer) lowerReturnType(fn *FunctionDecl) (types.DataType, error) {
	if fn.ReturnType == nil {
		return l.types.VoidType(), nil
	}
	return l.resolveType(fn.ReturnType)
}

func entryStageName(attrs []Attribute) (string, bool) {
	for _, a := range attrs {
		switch a.Name {
		case "vertex", "fragment", "compute":
			return a.Name, true
		}
	}
	return "", false
}

// builtinKindByName maps a WGSL @builtin(name) argument to the closed
// gl_* builtin set. Only entries with a WGSL surface form are listed.
var builtinKindByName = map[string]ast.BuiltinKind{
	"vertex_index":           ast.BuiltinVertexID,
	"instance_index":         ast.BuiltinInstanceID,
	"position":               ast.BuiltinPosition,
	"front_facing":           ast.BuiltinFrontFacing,
	"frag_depth":             ast.BuiltinFragDepth,
	"sample_index":           ast.BuiltinSampleID,
	"sample_mask":            ast.BuiltinSampleMask,
	"local_invocation_id":    ast.BuiltinLocalInvocationID,
	"local_invocation_index": ast.BuiltinLocalInvocationIndex,
	"global_invocation_id":   ast.BuiltinGlobalInvocationID,
	"workgroup_id":           ast.BuiltinWorkGroupID,
	"num_workgroups":         ast.BuiltinNumWorkGroups,
}

func builtinAttr(attrs []Attribute) (ast.BuiltinKind, bool) {
	for _, a := range attrs {
		if a.Name != "builtin" || len(a.Args) != 1 {
			continue
		}
		if id, ok := a.Args[0].(*Ident); ok {
			if kind, ok := builtinKindByName[id.Name]; ok {
				return kind, true
			}
		}
	}
	return ast.BuiltinNone, false
}

func hasAttribute(attrs []Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

func attrInt(attrs []Attribute, name string) (int, bool) {
	for _, a := range attrs {
		if a.Name != name || len(a.Args) != 1 {
			continue
		}
		if lit, ok := a.Args[0].(*Literal); ok {
			if n, err := strconv.Atoi(lit.Value); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func attrArgString(a Attribute) string {
	if len(a.Args) == 0 {
		return ""
	}
	switch e := a.Args[0].(type) {
	case *Literal:
		return e.Value
	case *Ident:
		return e.Name
	default:
		return ""
	}
}

func workgroupSize(a Attribute) (x, y, z int) {
	x, y, z = 1, 1, 1
	vals := make([]int, 0, len(a.Args))
	for _, arg := range a.Args {
		if lit, ok := arg.(*Literal); ok {
			if n, err := strconv.Atoi(lit.Value); err == nil {
				vals = append(vals, n)
			}
		}
	}
	if len(vals) > 0 {
		x = vals[0]
	}
	if len(vals) > 1 {
		y = vals[1]
	}
	if len(vals) > 2 {
		z = vals[2]
	}
	return
}

// --- types ---

func (l *Lowerer) resolveType(t Type) (types.DataType, error) {
	switch tt := t.(type) {
	case *NamedType:
		return l.resolveNamedType(tt)
	case *ArrayType:
		elem, err := l.resolveType(tt.Element)
		if err != nil {
			return types.Invalid, err
		}
		count := -1
		if tt.Size != nil {
			n, err := l.constIntLiteral(tt.Size)
			if err != nil {
				return types.Invalid, err
			}
			count = n
		}
		return l.types.ArrayOf(elem, count), nil
	case *PtrType, *BindingArrayType:
		return types.Invalid, fmt.Errorf("pointer and binding-array types are not supported by this lowering pass")
	default:
		return types.Invalid, fmt.Errorf("unsupported type")
	}
}

func (l *Lowerer) constIntLiteral(e Expr) (int, error) {
	lit, ok := e.(*Literal)
	if !ok {
		return 0, fmt.Errorf("array size must be an integer literal")
	}
	n, err := strconv.Atoi(strings.TrimRight(lit.Value, "uiUI"))
	if err != nil {
		return 0, fmt.Errorf("invalid array size %q", lit.Value)
	}
	return n, nil
}

var vecScalarBase = map[string]types.BaseKind{"f32": types.Float, "f16": types.Float, "i32": types.Int, "u32": types.Uint, "bool": types.Bool}

func (l *Lowerer) resolveNamedType(t *NamedType) (types.DataType, error) {
	name := t.Name
	switch name {
	case "bool":
		return l.types.BooleanType(1), nil
	case "f32", "f16":
		return l.types.FloatType(1), nil
	case "i32":
		return l.types.IntegerType(1), nil
	case "u32":
		return l.types.UnsignedType(1), nil
	}

	if n, ok := vecWidth(name); ok {
		base, err := l.vecParamBase(t)
		if err != nil {
			return types.Invalid, err
		}
		return l.types.SimpleCompositeType(base, n), nil
	}
	if cols, rows, ok := matShape(name); ok {
		base, err := l.vecParamBase(t)
		if err != nil {
			return types.Invalid, err
		}
		return l.types.MatrixType(base, cols, rows), nil
	}
	if rt, ok, err := l.resourceType(t); ok || err != nil {
		return rt, err
	}

	if alias, ok := l.aliasTypes[name]; ok {
		return l.resolveType(alias)
	}
	if st, ok := l.structTypes[name]; ok {
		return st, nil
	}
	return types.Invalid, fmt.Errorf("unknown type %s", name)
}

func (l *Lowerer) vecParamBase(t *NamedType) (types.BaseKind, error) {
	if len(t.TypeParams) != 1 {
		return types.Float, fmt.Errorf("%s needs exactly one type parameter", t.Name)
	}
	elemName, ok := t.TypeParams[0].(*NamedType)
	if !ok {
		return types.Float, fmt.Errorf("%s: unsupported element type", t.Name)
	}
	base, ok := vecScalarBase[elemName.Name]
	if !ok {
		return types.Float, fmt.Errorf("%s: unsupported element type %s", t.Name, elemName.Name)
	}
	return base, nil
}

func vecWidth(name string) (int, bool) {
	switch name {
	case "vec2":
		return 2, true
	case "vec3":
		return 3, true
	case "vec4":
		return 4, true
	}
	return 0, false
}

func matShape(name string) (cols, rows int, ok bool) {
	if !strings.HasPrefix(name, "mat") || len(name) != 6 {
		return 0, 0, false
	}
	// "matCxR", e.g. "mat4x4".
	c, err1 := strconv.Atoi(name[3:4])
	r, err2 := strconv.Atoi(name[5:6])
	if err1 != nil || err2 != nil || name[4] != 'x' {
		return 0, 0, false
	}
	return c, r, true
}

// resourceType covers the sampler/texture keywords this pass supports:
// 2D/cube/3D/array sampled images and filtering/comparison samplers.
// Storage and multisampled textures, and binding arrays of either, are a
// documented gap (see DESIGN.md): nothing in this module's fixtures
// exercises a read/write image slot, and the stub exporter's descriptor
// walk has no stage-mask rule for one yet.
func (l *Lowerer) resourceType(t *NamedType) (types.DataType, bool, error) {
	switch t.Name {
	case "sampler", "sampler_comparison":
		return l.types.ResourceType(types.ResourceType{View: types.ViewSampler}), true, nil
	case "texture_1d", "texture_2d", "texture_2d_array", "texture_3d", "texture_cube", "texture_cube_array",
		"texture_depth_2d", "texture_depth_2d_array", "texture_depth_cube", "texture_depth_cube_array":
		dim := textureDim(t.Name)
		flavor := types.FlavorFloat
		if len(t.TypeParams) == 1 {
			if elemName, ok := t.TypeParams[0].(*NamedType); ok {
				if base, ok := vecScalarBase[elemName.Name]; ok {
					flavor = flavorOf(base)
				}
			}
		}
		return l.types.ResourceType(types.ResourceType{View: types.ViewSampledImage, Dim: dim, Flavor: flavor}), true, nil
	}
	return types.Invalid, false, nil
}

func flavorOf(base types.BaseKind) types.ScalarFlavor {
	switch base {
	case types.Int:
		return types.FlavorSint
	case types.Uint:
		return types.FlavorUint
	default:
		return types.FlavorFloat
	}
}

func textureDim(name string) types.ImageDimension {
	switch name {
	case "texture_1d":
		return types.Dim1D
	case "texture_2d", "texture_depth_2d":
		return types.Dim2D
	case "texture_2d_array", "texture_depth_2d_array":
		return types.Dim2DArray
	case "texture_3d":
		return types.Dim3D
	case "texture_cube", "texture_depth_cube":
		return types.DimCube
	case "texture_cube_array", "texture_depth_cube_array":
		return types.DimCubeArray
	default:
		return types.Dim2D
	}
}

// --- statements ---

func (l *Lowerer) lowerBlock(b *BlockStmt) *ast.CodeNode {
	scope := ast.New(ast.Scope, l.loc(b.Span))
	children := make([]*ast.CodeNode, 0, len(b.Statements))
	for _, s := range b.Statements {
		if n := l.lowerStmt(s); n != nil {
			children = append(children, n)
		}
	}
	scope.Children = children
	return scope
}

func (l *Lowerer) lowerStmt(s Stmt) *ast.CodeNode {
	switch st := s.(type) {
	case *BlockStmt:
		return l.lowerBlock(st)

	case *ReturnStmt:
		if st.Value == nil {
			return ast.New(ast.Return, l.loc(st.Span))
		}
		return ast.New(ast.Return, l.loc(st.Span), l.lowerExpr(st.Value))

	case *DiscardStmt:
		return ast.New(ast.Exit, l.loc(st.Span))

	case *VarDecl:
		return l.lowerLocalVar(st)

	case *ConstDecl:
		return l.lowerLocalConst(st)

	case *AssignStmt:
		return l.lowerAssign(st)

	case *ExprStmt:
		return l.lowerExpr(st.Expr)

	case *IfStmt:
		return l.lowerIf(st)

	case *ForStmt:
		return l.lowerFor(st)

	case *WhileStmt:
		return l.lowerWhile(st)

	case *LoopStmt:
		return l.lowerLoop(st)

	case *BreakStmt:
		return ast.New(ast.Break, l.loc(st.Span))

	case *ContinueStmt:
		return l.lowerContinue(st.Span)

	case *SwitchStmt:
		return l.lowerSwitch(st)

	default:
		l.errorf(s.Pos(), "unsupported statement")
		return ast.New(ast.Nop, l.loc(s.Pos()))
	}
}

// lowerLocalVar lowers `var name[: T] [= init]`. The cast type is attached
// only when the declaration carries an explicit annotation; otherwise
// resolveTypes infers it purely from the initializer.
func (l *Lowerer) lowerLocalVar(v *VarDecl) *ast.CodeNode {
	node := ast.New(ast.VariableDecl, l.loc(v.Span))
	if v.Init != nil {
		node.Children = []*ast.CodeNode{l.lowerExpr(v.Init)}
	}
	node.SetName(v.Name)
	if v.Type != nil {
		t, err := l.resolveType(v.Type)
		if err != nil {
			l.errorf(v.Span, "var %s: %v", v.Name, err)
		} else {
			node.SetCastType(t)
		}
	}
	return node
}

// lowerLocalConst treats a function-local `const` exactly like `let`: this
// tree has no separate immutable-local enforcement pass, so the only
// observable difference (compile-time-only evaluation) is already covered
// by the folder, which specializes every local against whatever value it
// can prove constant regardless of how it was declared.
func (l *Lowerer) lowerLocalConst(c *ConstDecl) *ast.CodeNode {
	node := ast.New(ast.VariableDecl, l.loc(c.Span))
	if c.Init != nil {
		node.Children = []*ast.CodeNode{l.lowerExpr(c.Init)}
	}
	node.SetName(c.Name)
	if c.Type != nil {
		if t, err := l.resolveType(c.Type); err == nil {
			node.SetCastType(t)
		}
	}
	return node
}

var compoundAssignSuffix = map[TokenKind]string{
	TokenPlusEqual:           "add",
	TokenMinusEqual:          "sub",
	TokenStarEqual:           "mul",
	TokenSlashEqual:          "div",
	TokenPercentEqual:        "mod",
	TokenAmpEqual:            "and",
	TokenPipeEqual:           "or",
	TokenCaretEqual:          "xor",
	TokenLessLessEqual:       "shl",
	TokenGreaterGreaterEqual: "shr",
}

// lowerAssign lowers `target = value` / `target += value` / ... into the
// `__assign`/`__assign_<op>` sugared-call forms resolve/mutate.go's
// lowerSugaredCall recognizes.
func (l *Lowerer) lowerAssign(a *AssignStmt) *ast.CodeNode {
	loc := l.loc(a.Span)
	target := l.lowerExpr(a.Left)
	value := l.lowerExpr(a.Right)

	name := "__assign"
	if suffix, ok := compoundAssignSuffix[a.Op]; ok {
		name = "__assign_" + suffix
	} else if a.Op != TokenEqual {
		l.errorf(a.Span, "unsupported assignment operator")
	}
	ident := ast.New(ast.Ident, loc)
	ident.SetName(name)
	return ast.New(ast.Call, loc, ident, target, value)
}

func (l *Lowerer) lowerIf(s *IfStmt) *ast.CodeNode {
	loc := l.loc(s.Span)
	cond := l.lowerExpr(s.Condition)
	then := l.lowerBlock(s.Body)
	children := []*ast.CodeNode{cond, then}
	switch e := s.Else.(type) {
	case nil:
	case *BlockStmt:
		children = append(children, l.lowerBlock(e))
	case *IfStmt:
		// Left nested: resolve/mutate.go's flattenElseIf merges a
		// trailing `else { if ... }` into this node's own child list,
		// so a plain nested IfElse here is enough.
		children = append(children, l.lowerIf(e))
	}
	return ast.New(ast.IfElse, loc, children...)
}

// lowerFor desugars `for (init; cond; update) body` into
// Scope[init, Loop(cond, Scope[body..., update])] -- the wrapping
// ast.Loop itself never models, since resolveLoop only ever sees
// [cond, body].
func (l *Lowerer) lowerFor(s *ForStmt) *ast.CodeNode {
	loc := l.loc(s.Span)
	outer := ast.New(ast.Scope, loc)

	var initNode *ast.CodeNode
	if s.Init != nil {
		initNode = l.lowerStmt(s.Init)
	}

	var cond *ast.CodeNode
	if s.Condition != nil {
		cond = l.lowerExpr(s.Condition)
	} else {
		cond = l.constBool(loc, true)
	}

	l.loops = append(l.loops, loopContext{rerun: func() *ast.CodeNode {
		if s.Update == nil {
			return nil
		}
		return l.lowerStmt(s.Update)
	}})
	bodyScope := l.lowerBlock(s.Body)
	l.loops = l.loops[:len(l.loops)-1]

	if s.Update != nil {
		bodyScope.Children = append(bodyScope.Children, l.lowerStmt(s.Update))
	}

	loop := ast.New(ast.Loop, loc, cond, bodyScope)
	if initNode != nil {
		outer.Children = []*ast.CodeNode{initNode, loop}
	} else {
		outer.Children = []*ast.CodeNode{loop}
	}
	return outer
}

func (l *Lowerer) lowerWhile(s *WhileStmt) *ast.CodeNode {
	loc := l.loc(s.Span)
	cond := l.lowerExpr(s.Condition)
	l.loops = append(l.loops, loopContext{})
	body := l.lowerBlock(s.Body)
	l.loops = l.loops[:len(l.loops)-1]
	return ast.New(ast.Loop, loc, cond, body)
}

// lowerLoop desugars a bare `loop { body continuing { more } }` the same
// way a for-loop's update clause is handled: the continuing block is
// appended to the body and re-run ahead of every `continue` inside it.
func (l *Lowerer) lowerLoop(s *LoopStmt) *ast.CodeNode {
	loc := l.loc(s.Span)
	l.loops = append(l.loops, loopContext{rerun: func() *ast.CodeNode {
		if s.Continuing == nil {
			return nil
		}
		return l.lowerBlock(s.Continuing)
	}})
	body := l.lowerBlock(s.Body)
	l.loops = l.loops[:len(l.loops)-1]

	if s.Continuing != nil {
		body.Children = append(body.Children, l.lowerBlock(s.Continuing))
	}
	return ast.New(ast.Loop, loc, l.constBool(loc, true), body)
}

func (l *Lowerer) lowerContinue(span Span) *ast.CodeNode {
	loc := l.loc(span)
	cont := ast.New(ast.Continue, loc)
	if len(l.loops) == 0 {
		return cont
	}
	top := l.loops[len(l.loops)-1]
	if top.rerun == nil {
		return cont
	}
	rerun := top.rerun()
	if rerun == nil {
		return cont
	}
	return ast.New(ast.Scope, loc, rerun, cont)
}

// lowerSwitch desugars `switch (sel) { case a,b: body ... default: body }`
// into a nested IfElse chain: there is no dedicated switch opcode, so
// each case becomes one `sel == a || sel == b` condition/branch pair laid
// out as resolveIfElse expects ([cond0, then0, cond1, then1, ...,
// elseBody?]). Fallthrough between cases is not modeled.
func (l *Lowerer) lowerSwitch(s *SwitchStmt) *ast.CodeNode {
	loc := l.loc(s.Span)
	var children []*ast.CodeNode
	var defaultBody *ast.CodeNode
	for _, c := range s.Cases {
		body := l.lowerBlock(c.Body)
		if c.IsDefault {
			defaultBody = body
			continue
		}
		var cond *ast.CodeNode
		for _, sel := range c.Selectors {
			eqIdent := ast.New(ast.Ident, loc)
			eqIdent.SetName("__eq")
			eq := ast.New(ast.Call, loc, eqIdent, l.lowerExpr(s.Selector), l.lowerExpr(sel))
			if cond == nil {
				cond = eq
				continue
			}
			orIdent := ast.New(ast.Ident, loc)
			orIdent.SetName("__logicOr")
			cond = ast.New(ast.Call, loc, orIdent, cond, eq)
		}
		if cond == nil {
			continue
		}
		children = append(children, cond, body)
	}
	if defaultBody != nil {
		children = append(children, defaultBody)
	}
	return ast.New(ast.IfElse, loc, children...)
}

func (l *Lowerer) constBool(loc diag.Location, b bool) *ast.CodeNode {
	n := ast.New(ast.Const, loc)
	n.Type = l.types.BooleanType(1)
	n.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentBool(b)}}
	return n
}

// --- expressions ---

var binaryOpNative = map[TokenKind]string{
	TokenPlus: "__add", TokenMinus: "__sub", TokenStar: "__mul", TokenSlash: "__div", TokenPercent: "__mod",
	TokenAmpersand: "__and", TokenPipe: "__or", TokenCaret: "__xor",
	TokenLessLess: "__shl", TokenGreaterGreater: "__shr",
	TokenLess: "__lt", TokenLessEqual: "__le", TokenGreater: "__gt", TokenGreaterEqual: "__ge",
	TokenEqualEqual: "__eq", TokenBangEqual: "__neq",
	TokenAmpAmp: "__logicAnd", TokenPipePipe: "__logicOr",
}

var unaryOpNative = map[TokenKind]string{
	TokenMinus: "__neg", TokenBang: "__logicNot", TokenTilde: "__bnot",
}

func (l *Lowerer) lowerExpr(e Expr) *ast.CodeNode {
	loc := l.loc(e.Pos())
	switch ex := e.(type) {
	case *Ident:
		n := ast.New(ast.Ident, loc)
		n.SetName(ex.Name)
		return n

	case *Literal:
		return l.lowerLiteral(ex, loc)

	case *BinaryExpr:
		name, ok := binaryOpNative[ex.Op]
		if !ok {
			l.errorf(ex.Span, "unsupported binary operator")
			name = "__add"
		}
		ident := ast.New(ast.Ident, loc)
		ident.SetName(name)
		return ast.New(ast.Call, loc, ident, l.lowerExpr(ex.Left), l.lowerExpr(ex.Right))

	case *UnaryExpr:
		name, ok := unaryOpNative[ex.Op]
		if !ok {
			l.errorf(ex.Span, "unsupported unary operator")
			name = "__neg"
		}
		ident := ast.New(ast.Ident, loc)
		ident.SetName(name)
		return ast.New(ast.Call, loc, ident, l.lowerExpr(ex.Operand))

	case *CallExpr:
		return l.lowerCall(ex)

	case *IndexExpr:
		return ast.New(ast.AccessArray, loc, l.lowerExpr(ex.Expr), l.lowerExpr(ex.Index))

	case *MemberExpr:
		// Always a plain AccessMember: resolveAccessMember mutates this
		// to ReadSwizzle in place once it has the target's resolved
		// type, so the lowerer never has to disambiguate field vs.
		// swizzle itself.
		n := ast.New(ast.AccessMember, loc, l.lowerExpr(ex.Expr))
		n.SetName(ex.Member)
		return n

	case *ConstructExpr:
		return l.lowerConstruct(ex)

	case *BitcastExpr:
		t, err := l.resolveType(ex.Type)
		if err != nil {
			l.errorf(ex.Span, "bitcast: %v", err)
			t = types.Invalid
		}
		n := ast.New(ast.Cast, loc, l.lowerExpr(ex.Expr))
		n.SetCastType(t)
		return n

	default:
		l.errorf(e.Pos(), "unsupported expression")
		return ast.New(ast.Nop, loc)
	}
}

func (l *Lowerer) lowerLiteral(lit *Literal, loc diag.Location) *ast.CodeNode {
	n := ast.New(ast.Const, loc)
	switch lit.Kind {
	case TokenBoolLiteral, TokenTrue, TokenFalse:
		n.Type = l.types.BooleanType(1)
		n.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentBool(lit.Value == "true" || lit.Kind == TokenTrue)}}
	case TokenFloatLiteral:
		f, _ := strconv.ParseFloat(strings.TrimRight(lit.Value, "fhFH"), 32)
		n.Type = l.types.FloatType(1)
		n.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentFloat32(float32(f))}}
	case TokenIntLiteral:
		raw := lit.Value
		if strings.HasSuffix(raw, "u") || strings.HasSuffix(raw, "U") {
			v, _ := strconv.ParseUint(strings.TrimRight(raw, "uU"), 0, 32)
			n.Type = l.types.UnsignedType(1)
			n.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentUint32(uint32(v))}}
		} else {
			v, _ := strconv.ParseInt(strings.TrimRight(raw, "iI"), 0, 32)
			n.Type = l.types.IntegerType(1)
			n.Value = value.DataValue{Components: []value.DataValueComponent{value.ComponentInt32(int32(v))}}
		}
	default:
		l.errorf(Span{}, "unsupported literal")
		n.Type = types.Invalid
	}
	return n
}

// scalarCastNames are the bare-scalar constructor/cast forms WGSL allows
// to be called like a function (`f32(x)`, `u32(x)`, ...).
var scalarCastNames = map[string]types.BaseKind{
	"f32": types.Float, "i32": types.Int, "u32": types.Uint, "bool": types.Bool,
}

func (l *Lowerer) lowerCall(c *CallExpr) *ast.CodeNode {
	loc := l.loc(c.Span)
	name := c.Func.Name

	if base, ok := scalarCastNames[name]; ok && len(c.Args) == 1 {
		n := ast.New(ast.Cast, loc, l.lowerExpr(c.Args[0]))
		n.SetCastType(l.types.SimpleCompositeType(base, 1))
		return n
	}
	if _, ok := vecWidth(name); ok {
		args := make([]*ast.CodeNode, len(c.Args))
		for i, a := range c.Args {
			args[i] = l.lowerExpr(a)
		}
		ident := ast.New(ast.Ident, loc)
		ident.SetName("__create_vector")
		return ast.New(ast.Call, loc, append([]*ast.CodeNode{ident}, args...)...)
	}

	args := make([]*ast.CodeNode, len(c.Args))
	for i, a := range c.Args {
		args[i] = l.lowerExpr(a)
	}
	ident := ast.New(ast.Ident, loc)
	ident.SetName(name)
	return ast.New(ast.Call, loc, append([]*ast.CodeNode{ident}, args...)...)
}

// lowerConstruct handles the `T(...)` forms the parser keeps distinct from
// a plain call because T carries generic type arguments
// (`vec3<f32>(...)`, `mat4x4<f32>(...)`, `array<f32, 4>(...)`).
func (l *Lowerer) lowerConstruct(c *ConstructExpr) *ast.CodeNode {
	loc := l.loc(c.Span)
	args := make([]*ast.CodeNode, len(c.Args))
	for i, a := range c.Args {
		args[i] = l.lowerExpr(a)
	}

	if named, ok := c.Type.(*NamedType); ok {
		if _, ok := vecWidth(named.Name); ok {
			ident := ast.New(ast.Ident, loc)
			ident.SetName("__create_vector")
			return ast.New(ast.Call, loc, append([]*ast.CodeNode{ident}, args...)...)
		}
		if _, _, ok := matShape(named.Name); ok {
			ident := ast.New(ast.Ident, loc)
			ident.SetName("__create_matrix")
			return ast.New(ast.Call, loc, append([]*ast.CodeNode{ident}, args...)...)
		}
		if base, ok := scalarCastNames[named.Name]; ok && len(args) == 1 {
			n := ast.New(ast.Cast, loc, args[0])
			n.SetCastType(l.types.SimpleCompositeType(base, 1))
			return n
		}
	}
	if _, ok := c.Type.(*ArrayType); ok {
		ident := ast.New(ast.Ident, loc)
		ident.SetName("__create_array")
		return ast.New(ast.Call, loc, append([]*ast.CodeNode{ident}, args...)...)
	}

	l.errorf(c.Span, "unsupported constructor expression")
	return ast.New(ast.Nop, loc)
}

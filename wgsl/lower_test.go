package wgsl

import (
	"testing"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
)

// lowerSource parses and lowers source, failing the test on any error.
func lowerSource(t *testing.T, source string) (*program.Program, *Lowerer, *types.Library) {
	t.Helper()
	tokens, err := NewLexer(source).Tokenize()
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	module, err := NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	errs := diag.NewSourceReporter()
	typeLib := types.NewLibrary()
	l := NewLowerer(typeLib, errs)
	prog, _ := l.LowerModule("test", module, program.NewLibrary(), source)
	if errs.HasErrors() {
		t.Fatalf("lowering failed: %s", errs.FormatAll())
	}
	return prog, l, typeLib
}

func TestLowerSimpleVertexShader(t *testing.T) {
	source := `
@vertex
fn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	prog, _, _ := lowerSource(t, source)

	fn, ok := prog.FindFunction("main", false)
	if !ok {
		t.Fatal("main not declared on the module program")
	}
	if v, ok := fn.AttributeValue("stage"); !ok || v != "vertex" {
		t.Fatalf("stage attribute = %q, want vertex", v)
	}
	if len(fn.Params) != 1 {
		t.Fatalf("param count = %d, want 1", len(fn.Params))
	}
	p := fn.Params[0]
	if p.Scope != ast.ScopeGlobalBuiltin || p.Builtin != ast.BuiltinVertexID {
		t.Fatalf("idx lowered to scope %v builtin %v", p.Scope, p.Builtin)
	}
	if fn.Return.Base() != types.Float || fn.Return.ComponentCount() != 4 {
		t.Fatalf("return type = %s x%d, want float x4", fn.Return.Base(), fn.Return.ComponentCount())
	}

	if fn.Body == nil || fn.Body.Op != ast.Scope || len(fn.Body.Children) != 1 {
		t.Fatal("body should be a single-statement scope")
	}
	ret := fn.Body.Children[0]
	if ret.Op != ast.Return || len(ret.Children) != 1 {
		t.Fatal("statement should be a Return with one child")
	}
	call := ret.Children[0]
	if call.Op != ast.Call || call.Children[0].Name() != "__create_vector" {
		t.Fatalf("constructor should lower to a __create_vector call, got %s", call.Op)
	}
}

func TestLowerComputeEntryAttributes(t *testing.T) {
	source := `
@compute @workgroup_size(8, 4)
fn main() {
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("main", false)
	if v, _ := fn.AttributeValue("stage"); v != "compute" {
		t.Fatalf("stage = %q, want compute", v)
	}
	wantSizes := map[string]string{"local_size_x": "8", "local_size_y": "4", "local_size_z": "1"}
	for name, want := range wantSizes {
		if v, ok := fn.AttributeValue(name); !ok || v != want {
			t.Errorf("%s = %q, want %q", name, v, want)
		}
	}
}

func TestLowerUniformBecomesDescriptorElement(t *testing.T) {
	source := `
@group(2) @binding(0) var<uniform> tint: vec4<f32>;

@fragment
fn main() -> @location(0) vec4<f32> {
    return tint;
}
`
	prog, l, _ := lowerSource(t, source)

	param, _, ambiguous, ok := l.Lookup("tint")
	if !ok || ambiguous {
		t.Fatal("tint not found through the descriptor lookup")
	}
	if param.Name != "Group2.tint" {
		t.Fatalf("descriptor key = %q, want Group2.tint", param.Name)
	}
	if param.Scope != ast.ScopeGlobalParameter {
		t.Fatalf("scope = %v, want global-parameter", param.Scope)
	}
	// The dotted key is also registered on the program itself.
	if _, ok := prog.FindParameter("Group2.tint", false); !ok {
		t.Fatal("descriptor element missing from the program's parameters")
	}
}

func TestLowerWorkgroupVarIsGroupShared(t *testing.T) {
	source := `
var<workgroup> tile: array<f32, 64>;

@compute @workgroup_size(64)
fn main() {
}
`
	prog, _, _ := lowerSource(t, source)
	p, ok := prog.FindParameter("tile", false)
	if !ok {
		t.Fatal("tile not declared")
	}
	if p.Scope != ast.ScopeGroupShared {
		t.Fatalf("scope = %v, want group-shared", p.Scope)
	}
}

func TestLowerOverrideDeclarations(t *testing.T) {
	source := `
override gain: f32;
override scale: f32 = 2.0;

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(gain * scale, 0.0, 0.0, 1.0);
}
`
	_, l, _ := lowerSource(t, source)

	gain, ok := l.GlobalConsts()["gain"]
	if !ok {
		t.Fatal("gain missing from global consts")
	}
	if gain.Scope != ast.ScopeGlobalConst || gain.Initializer != nil {
		t.Fatal("gain should be an uninitialized global-const parameter")
	}
	if gain.Type.Base() != types.Float {
		t.Fatalf("gain type = %s, want float", gain.Type.Base())
	}

	scale := l.GlobalConsts()["scale"]
	if scale == nil || scale.Initializer == nil {
		t.Fatal("scale should carry its default initializer")
	}
	if scale.Initializer.Op != ast.Const {
		t.Fatalf("scale default should lower to Const, got %s", scale.Initializer.Op)
	}
}

func TestLowerAssignmentSugar(t *testing.T) {
	source := `
fn f() {
    var x = 1.0;
    x = 2.0;
    x += 3.0;
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)
	if len(fn.Body.Children) != 3 {
		t.Fatalf("statement count = %d, want 3", len(fn.Body.Children))
	}

	plain := fn.Body.Children[1]
	if plain.Op != ast.Call || plain.Children[0].Name() != "__assign" {
		t.Fatalf("plain assignment should lower to an __assign call, got %s", plain.Children[0].Name())
	}
	compound := fn.Body.Children[2]
	if compound.Op != ast.Call || compound.Children[0].Name() != "__assign_add" {
		t.Fatalf("+= should lower to __assign_add, got %s", compound.Children[0].Name())
	}
}

func TestLowerForDesugarsToLoop(t *testing.T) {
	source := `
fn f() {
    for (var i = 0; i < 4; i = i + 1) {
        let x = i;
    }
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)

	outer := fn.Body.Children[0]
	if outer.Op != ast.Scope || len(outer.Children) != 2 {
		t.Fatalf("for should lower to Scope[init, Loop], got %s with %d children", outer.Op, len(outer.Children))
	}
	if outer.Children[0].Op != ast.VariableDecl {
		t.Fatalf("init is %s, want VariableDecl", outer.Children[0].Op)
	}
	loop := outer.Children[1]
	if loop.Op != ast.Loop || len(loop.Children) != 2 {
		t.Fatalf("loop is %s with %d children, want Loop[cond, body]", loop.Op, len(loop.Children))
	}
	body := loop.Children[1]
	// The update clause is re-run as the last body statement.
	last := body.Children[len(body.Children)-1]
	if last.Op != ast.Call || last.Children[0].Name() != "__assign" {
		t.Fatal("update clause missing from the end of the loop body")
	}
}

func TestLowerIfElseChain(t *testing.T) {
	source := `
fn f(a: f32) -> f32 {
    if (a > 1.0) {
        return 1.0;
    } else if (a > 0.0) {
        return 0.5;
    } else {
        return 0.0;
    }
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)

	top := fn.Body.Children[0]
	if top.Op != ast.IfElse || len(top.Children) != 3 {
		t.Fatalf("if lowered to %s with %d children, want IfElse[cond, then, else]", top.Op, len(top.Children))
	}
	// The else-if tail stays nested here; resolve's mutate pass flattens
	// it into the parent's child list.
	if top.Children[2].Op != ast.IfElse {
		t.Fatalf("else-if tail is %s, want a nested IfElse", top.Children[2].Op)
	}
}

func TestLowerStructDeclaration(t *testing.T) {
	source := `
struct Light {
    position: vec3<f32>,
    intensity: f32,
}

@group(0) @binding(0) var<uniform> light: Light;

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(light.intensity, 0.0, 0.0, 1.0);
}
`
	prog, l, _ := lowerSource(t, source)

	param, _, _, ok := l.Lookup("light")
	if !ok {
		t.Fatal("light binding not declared")
	}
	comp, ok := param.Type.Composite()
	if !ok {
		t.Fatal("light should carry the struct type")
	}
	if len(comp.Members) != 2 || comp.Members[0].Name != "position" || comp.Members[1].Name != "intensity" {
		t.Fatalf("unexpected members: %+v", comp.Members)
	}

	fn, _ := prog.FindFunction("main", false)
	ret := fn.Body.Children[0]
	call := ret.Children[0]
	access := call.Children[1] // Children[0] is the __create_vector target ident
	if access.Op != ast.AccessMember || access.Name() != "intensity" {
		t.Fatalf("member read lowered to %s %q", access.Op, access.Name())
	}
}

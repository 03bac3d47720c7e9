package wgsl

import (
	"testing"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// Literal typing is the one inference the lowerer performs itself: a
// literal's type is syntactically self-evident, and everything else is
// left to the resolver's post-order typing pass.
func TestLowerLiteralTypes(t *testing.T) {
	source := `
fn f() {
    let a = 1.5;
    let b = 7;
    let c = 7u;
    let d = true;
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)

	wants := []struct {
		base types.BaseKind
		tag  value.Tag
	}{
		{types.Float, value.TagFloat32},
		{types.Int, value.TagInt32},
		{types.Uint, value.TagUint32},
		{types.Bool, value.TagBool},
	}
	for i, want := range wants {
		decl := fn.Body.Children[i]
		if decl.Op != ast.VariableDecl {
			t.Fatalf("statement %d is %s, want VariableDecl", i, decl.Op)
		}
		lit := decl.Children[0]
		if lit.Op != ast.Const {
			t.Fatalf("initializer %d is %s, want Const", i, lit.Op)
		}
		if lit.Type.Base() != want.base || lit.Type.ComponentCount() != 1 {
			t.Errorf("literal %d typed %s x%d, want %s x1", i, lit.Type.Base(), lit.Type.ComponentCount(), want.base)
		}
		if len(lit.Value.Components) != 1 || lit.Value.Components[0].Tag != want.tag {
			t.Errorf("literal %d value tag = %v, want %v", i, lit.Value.Components[0].Tag, want.tag)
		}
	}
}

func TestLowerLiteralValues(t *testing.T) {
	source := `
fn f() {
    let x = 0x10;
    let y = 42u;
    let z = 2.5;
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)

	x := fn.Body.Children[0].Children[0].Value.Components[0]
	if x.Int32 != 16 {
		t.Errorf("hex literal = %d, want 16", x.Int32)
	}
	y := fn.Body.Children[1].Children[0].Value.Components[0]
	if y.Uint32 != 42 {
		t.Errorf("unsigned literal = %d, want 42", y.Uint32)
	}
	z := fn.Body.Children[2].Children[0].Value.Components[0]
	if z.Float32 != 2.5 {
		t.Errorf("float literal = %v, want 2.5", z.Float32)
	}
}

// An explicit annotation is attached as the declaration's cast type; an
// unannotated declaration carries none and the resolver infers from the
// initializer instead.
func TestLowerVarAnnotationBecomesCastType(t *testing.T) {
	source := `
fn f() {
    var a: vec2<f32> = vec2<f32>(0.0, 0.0);
    var b = 1.0;
}
`
	prog, _, _ := lowerSource(t, source)
	fn, _ := prog.FindFunction("f", false)

	annotated := fn.Body.Children[0]
	ct := annotated.CastType()
	if !ct.IsValid() || ct.Base() != types.Float || ct.ComponentCount() != 2 {
		t.Fatalf("annotated cast type = %v, want float x2", ct)
	}

	bare := fn.Body.Children[1]
	if bare.CastType().IsValid() {
		t.Fatal("unannotated declaration should carry no cast type")
	}
}

// A module-level const with no annotation still lowers; its parameter
// type stays unset and the folder works from the initializer's type.
func TestLowerUntypedModuleConst(t *testing.T) {
	source := `
const half = 0.5;

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(half, half, half, 1.0);
}
`
	_, l, _ := lowerSource(t, source)
	p := l.GlobalConsts()["half"]
	if p == nil {
		t.Fatal("half not declared")
	}
	if p.Type.IsValid() {
		t.Fatal("untyped const should leave the declared type unset")
	}
	if p.Initializer == nil || p.Initializer.Op != ast.Const {
		t.Fatal("initializer should lower to a typed Const")
	}
	if p.Initializer.Type.Base() != types.Float {
		t.Fatalf("initializer typed %s, want float", p.Initializer.Type.Base())
	}
}

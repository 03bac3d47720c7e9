package program

import (
	"testing"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

func TestFindFunctionDerivedShadowsParent(t *testing.T) {
	lib := NewLibrary()
	a := lib.NewProgram("A")
	a.AddFunction(&Function{Name: "pick"})
	b := lib.NewProgram("B", a)
	derived := &Function{Name: "pick"}
	b.AddFunction(derived)

	got, ok := b.FindFunction("pick", true)
	if !ok || got != derived {
		t.Fatal("expected B's own pick to shadow A's")
	}
}

func TestFindFunctionFallsBackToParent(t *testing.T) {
	lib := NewLibrary()
	a := lib.NewProgram("A")
	shared := &Function{Name: "shared"}
	a.AddFunction(shared)
	b := lib.NewProgram("B", a)

	got, ok := b.FindFunction("shared", true)
	if !ok || got != shared {
		t.Fatal("expected B to inherit shared from A")
	}
}

func TestIsBasedOnProgram(t *testing.T) {
	lib := NewLibrary()
	a := lib.NewProgram("A")
	b := lib.NewProgram("B", a)
	if !b.IsBasedOnProgram(a) {
		t.Fatal("B should be based on A")
	}
	if a.IsBasedOnProgram(b) {
		t.Fatal("A should not be based on B")
	}
}

func TestAddParentProgramRejectsCycle(t *testing.T) {
	lib := NewLibrary()
	a := lib.NewProgram("A")
	b := lib.NewProgram("B", a)
	if err := b.AddParentProgram(b); err == nil {
		t.Fatal("expected self-parenting to be rejected")
	}
	if err := a.AddParentProgram(b); err == nil {
		t.Fatal("A depending on B (which already depends on A) should be rejected")
	}
}

func TestCreateBuiltinParameterReferenceIsMemoized(t *testing.T) {
	lib := NewLibrary()
	typeLib := types.NewLibrary()
	p := lib.NewProgram("Vertex")
	first, ok := p.CreateBuiltinParameterReference(typeLib, ast.BuiltinPosition, "gl_Position")
	if !ok {
		t.Fatal("expected gl_Position to resolve")
	}
	second, _ := p.CreateBuiltinParameterReference(typeLib, ast.BuiltinPosition, "gl_Position")
	if first != second {
		t.Fatal("expected the same pointer on repeated builtin reference")
	}
	if !first.Assignable {
		t.Fatal("gl_Position must be assignable")
	}
}

func TestInstanceLibraryInterns(t *testing.T) {
	lib := NewLibrary()
	typeLib := types.NewLibrary()
	p := lib.NewProgram("Frame")
	param := &ast.DataParameter{Name: "exposure", Scope: ast.ScopeGlobalConst, Type: typeLib.FloatType(1)}
	p.AddParameter(param)

	instLib := NewInstanceLibrary()
	errs := diag.NewSourceReporter()
	constants := ProgramConstants{param: value.DataValue{Components: []value.DataValueComponent{value.ComponentFloat32(1.5)}}}

	a, ok := instLib.GetOrCreate(p, constants, diag.Location{}, errs)
	if !ok {
		t.Fatalf("unexpected errors: %s", errs.FormatAll())
	}
	b, _ := instLib.GetOrCreate(p, constants, diag.Location{}, errs)
	if a != b {
		t.Fatal("expected the same instance pointer for identical program+constants")
	}
}

func TestInstanceLibraryRejectsNonConstParameter(t *testing.T) {
	lib := NewLibrary()
	typeLib := types.NewLibrary()
	p := lib.NewProgram("Frame")
	param := &ast.DataParameter{Name: "notConst", Scope: ast.ScopeGlobalParameter, Type: typeLib.FloatType(1)}
	p.AddParameter(param)

	instLib := NewInstanceLibrary()
	errs := diag.NewSourceReporter()
	constants := ProgramConstants{param: value.DataValue{}}
	if _, ok := instLib.GetOrCreate(p, constants, diag.Location{}, errs); ok {
		t.Fatal("expected rejection of a non-global-const parameter")
	}
}

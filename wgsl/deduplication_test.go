package wgsl

import "testing"

// Lowering the same spelled type from different declarations must hit the
// same interned DataType, so that every later identity-keyed table (the
// folder's caches, the exporter's type table) sees one canonical handle.
func TestLowerTypeDeduplication(t *testing.T) {
	source := `
@group(0) @binding(0) var<uniform> a: vec4<f32>;
@group(0) @binding(1) var<uniform> b: vec4<f32>;

fn f(x: vec4<f32>) -> vec4<f32> {
    return x;
}

@fragment
fn main() -> @location(0) vec4<f32> {
    return f(a + b);
}
`
	prog, l, _ := lowerSource(t, source)

	pa, _, _, _ := l.Lookup("a")
	pb, _, _, _ := l.Lookup("b")
	if pa == nil || pb == nil {
		t.Fatal("bindings not declared")
	}
	if !pa.Type.EqualStrict(pb.Type) {
		t.Fatal("identical spellings interned to different types")
	}

	fn, _ := prog.FindFunction("f", false)
	if !fn.Return.EqualStrict(pa.Type) {
		t.Fatal("function return type not shared with the binding type")
	}
	if !fn.Params[0].Type.EqualStrict(pa.Type) {
		t.Fatal("parameter type not shared with the binding type")
	}
}

// Struct types are interned by name: every reference to the declared
// struct resolves to the same composite.
func TestLowerStructTypeDeduplication(t *testing.T) {
	source := `
struct Camera {
    view: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> cam_a: Camera;
@group(1) @binding(0) var<uniform> cam_b: Camera;

@vertex
fn main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	_, l, _ := lowerSource(t, source)

	pa, _, _, _ := l.Lookup("cam_a")
	pb, _, _, _ := l.Lookup("cam_b")
	ca, ok := pa.Type.Composite()
	if !ok {
		t.Fatal("cam_a should carry a composite type")
	}
	cb, _ := pb.Type.Composite()
	if ca != cb {
		t.Fatal("the same struct declaration produced two composite payloads")
	}
}

// Aliases resolve through to the aliased type, not to a parallel copy.
func TestLowerAliasSharesInternedType(t *testing.T) {
	source := `
alias Color = vec4<f32>;

@group(0) @binding(0) var<uniform> a: Color;
@group(0) @binding(1) var<uniform> b: vec4<f32>;

@fragment
fn main() -> @location(0) vec4<f32> {
    return a + b;
}
`
	_, l, typeLib := lowerSource(t, source)

	pa, _, _, _ := l.Lookup("a")
	pb, _, _, _ := l.Lookup("b")
	if !pa.Type.EqualStrict(pb.Type) {
		t.Fatal("alias interned to a different type than its target")
	}
	if !pa.Type.EqualStrict(typeLib.FloatType(4)) {
		t.Fatal("alias does not match the library's canonical vec4<f32>")
	}
}

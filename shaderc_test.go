package shaderc

import (
	"strings"
	"testing"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/metadata"
	"github.com/shaderforge/shaderc/stub"
	"github.com/shaderforge/shaderc/value"
)

// TestCompileSimpleVertexShader compiles a minimal vertex shader end to
// end and checks the serialized binary and stage partitioning.
func TestCompileSimpleVertexShader(t *testing.T) {
	source := `
@vertex
fn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(compiled.Binary) == 0 {
		t.Fatal("empty serialized binary")
	}
	if len(compiled.Stubs.Stages) != 1 || compiled.Stubs.Stages[0].Kind != stub.StageVertex {
		t.Fatalf("expected exactly one vertex stage, got %d stages", len(compiled.Stubs.Stages))
	}
	if compiled.Metadata.StageMask&metadata.StageBitVertex == 0 {
		t.Fatalf("vertex bit missing from stage mask %#x", compiled.Metadata.StageMask)
	}
	if compiled.Metadata.StageMask&metadata.StageBitPixel != 0 {
		t.Fatalf("pixel bit set in a vertex-only program, mask %#x", compiled.Metadata.StageMask)
	}
}

// findConst walks a stub body looking for a whole-defined constant with
// the given float components.
func findConst(n *stub.StubNode, want []float32) bool {
	if n == nil {
		return false
	}
	if n.Op == ast.Const && len(n.Value.Components) == len(want) && n.Value.IsWholeValueDefined() {
		match := true
		for i, c := range n.Value.Components {
			if c.Tag != value.TagFloat32 || c.Float32 != want[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	for _, c := range n.Children {
		if findConst(c, want) {
			return true
		}
	}
	return false
}

// TestCompileFoldsConstantExpressions checks that pure arithmetic in a
// fragment shader reaches the stub IR as a single folded constant.
func TestCompileFoldsConstantExpressions(t *testing.T) {
	source := `
@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.5 * 2.0, 3.0 - 3.0, 0.0, 0.5 + 0.5);
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	body := compiled.Stubs.Stages[0].Body
	if !findConst(body, []float32{1, 0, 0, 1}) {
		t.Fatal("expected the constructor to fold to Const(vec4(1, 0, 0, 1))")
	}
}

// TestCompileBranchPruning checks that a statically-true condition leaves
// only the taken branch in the exported body.
func TestCompileBranchPruning(t *testing.T) {
	source := `
@fragment
fn main() -> @location(0) vec4<f32> {
    if (true) {
        return vec4<f32>(1.0, 1.0, 1.0, 1.0);
    } else {
        return vec4<f32>(0.0, 0.0, 0.0, 0.0);
    }
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	body := compiled.Stubs.Stages[0].Body
	if !findConst(body, []float32{1, 1, 1, 1}) {
		t.Fatal("taken branch missing from exported body")
	}
	if findConst(body, []float32{0, 0, 0, 0}) {
		t.Fatal("dead branch survived folding")
	}
}

// TestCompileUniformDescriptor checks that a uniform binding surfaces as
// a descriptor member with the referencing stage's bit set.
func TestCompileUniformDescriptor(t *testing.T) {
	source := `
@group(0) @binding(0) var<uniform> tint: vec4<f32>;

@fragment
fn main() -> @location(0) vec4<f32> {
    return tint;
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	md := compiled.Metadata
	var elem *metadata.ElementMetadata
	for _, d := range md.Descriptors {
		for _, e := range d.Elements {
			if strings.Contains(e.Name, "tint") {
				elem = e
			}
		}
	}
	if elem == nil {
		t.Fatalf("no descriptor element for the uniform, descriptors: %+v", md.Descriptors)
	}
	if elem.StageMask&metadata.StageBitPixel == 0 {
		t.Fatalf("pixel bit missing from element stage mask %#x", elem.StageMask)
	}
}

// TestCompileOverrideBinding checks that an override with no default
// fails without a bound value and folds with one.
func TestCompileOverrideBinding(t *testing.T) {
	source := `
override gain: f32;

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(gain * 0.5, 0.0, 0.0, 1.0);
}
`
	if _, err := Compile(source); err == nil {
		t.Fatal("expected an error for an unbound override with no default")
	}

	opts := DefaultOptions()
	opts.Constants = map[string]any{"gain": 2.0}
	compiled, err := CompileWithOptions(source, opts)
	if err != nil {
		t.Fatalf("CompileWithOptions failed: %v", err)
	}
	if !findConst(compiled.Stubs.Stages[0].Body, []float32{1, 0, 0, 1}) {
		t.Fatal("expected gain * 0.5 to fold to 1.0 with gain bound to 2.0")
	}
}

// TestCompileOverrideDefault checks that an override's initializer is the
// value used when no binding is supplied.
func TestCompileOverrideDefault(t *testing.T) {
	source := `
override scale: f32 = 4.0;

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(scale * 0.25, 0.0, 0.0, 1.0);
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !findConst(compiled.Stubs.Stages[0].Body, []float32{1, 0, 0, 1}) {
		t.Fatal("expected scale * 0.25 to fold through the default value")
	}
}

// TestCompileUnknownOverrideName rejects a binding for an override the
// module never declares.
func TestCompileUnknownOverrideName(t *testing.T) {
	source := `
@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`
	opts := DefaultOptions()
	opts.Constants = map[string]any{"missing": 1}
	if _, err := CompileWithOptions(source, opts); err == nil {
		t.Fatal("expected an error for an unknown override name")
	}
}

// TestCompileRoundTrip serializes, deserializes, and rebuilds metadata;
// the rebuilt record must carry the same derived keys and table shapes.
func TestCompileRoundTrip(t *testing.T) {
	source := `
@group(0) @binding(0) var<uniform> tint: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return tint;
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	reread, err := stub.Deserialize(compiled.Binary)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	rebuilt := metadata.BuildFromStubs(reread, compiled.Metadata.ContentKey)

	if rebuilt.ContentKey != compiled.Metadata.ContentKey {
		t.Fatal("content key changed across the round trip")
	}
	if rebuilt.VertexLayoutKey != compiled.Metadata.VertexLayoutKey {
		t.Fatalf("vertex layout key changed: %#x vs %#x", rebuilt.VertexLayoutKey, compiled.Metadata.VertexLayoutKey)
	}
	if rebuilt.DescriptorLayoutKey != compiled.Metadata.DescriptorLayoutKey {
		t.Fatalf("descriptor layout key changed: %#x vs %#x", rebuilt.DescriptorLayoutKey, compiled.Metadata.DescriptorLayoutKey)
	}
	if rebuilt.StageMask != compiled.Metadata.StageMask {
		t.Fatalf("stage mask changed: %#x vs %#x", rebuilt.StageMask, compiled.Metadata.StageMask)
	}
	if len(rebuilt.Descriptors) != len(compiled.Metadata.Descriptors) {
		t.Fatalf("descriptor count changed: %d vs %d", len(rebuilt.Descriptors), len(compiled.Metadata.Descriptors))
	}
}

// TestCompileComputeGroupSize reads workgroup dimensions back out of the
// metadata record.
func TestCompileComputeGroupSize(t *testing.T) {
	source := `
@compute @workgroup_size(8, 4, 1)
fn main() {
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	md := compiled.Metadata
	if md.ComputeGroupSizeX != 8 || md.ComputeGroupSizeY != 4 || md.ComputeGroupSizeZ != 1 {
		t.Fatalf("group size = (%d, %d, %d), want (8, 4, 1)",
			md.ComputeGroupSizeX, md.ComputeGroupSizeY, md.ComputeGroupSizeZ)
	}
	if md.StageMask&metadata.StageBitCompute == 0 {
		t.Fatalf("compute bit missing from stage mask %#x", md.StageMask)
	}
}

// TestCompileNoEntryPoint rejects a module with no entry function.
func TestCompileNoEntryPoint(t *testing.T) {
	source := `
fn helper(x: f32) -> f32 {
    return x * 2.0;
}
`
	if _, err := Compile(source); err == nil {
		t.Fatal("expected an error for a module with no entry point")
	}
}

// TestCompileParseError surfaces syntax errors with the parse failure
// prefix rather than a later-stage message.
func TestCompileParseError(t *testing.T) {
	_, err := Compile(`@fragment fn main( -> { }`)
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "parsing failed") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

// TestCompileUserFunctionSpecialization folds a helper called with a
// constant argument down to a constant at the call site.
func TestCompileUserFunctionSpecialization(t *testing.T) {
	source := `
fn double(x: f32) -> f32 {
    return x * 2.0;
}

@fragment
fn main() -> @location(0) vec4<f32> {
    return vec4<f32>(double(0.5), 0.0, 0.0, 1.0);
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !findConst(compiled.Stubs.Stages[0].Body, []float32{1, 0, 0, 1}) {
		t.Fatal("expected double(0.5) to fold to 1.0 through the call")
	}
}

// TestCompileSwizzleWrite checks that assigning through a swizzle mask
// (`c.xy = ...`) resolves, folds through a helper call, and leaves the
// merged constant in the exported body.
func TestCompileSwizzleWrite(t *testing.T) {
	source := `
fn tint() -> vec4<f32> {
    var c = vec4<f32>(0.0, 0.0, 0.75, 1.0);
    c.xy = vec2<f32>(0.25, 0.5);
    return c;
}

@fragment
fn main() -> @location(0) vec4<f32> {
    return tint();
}
`
	compiled, err := Compile(source)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !findConst(compiled.Stubs.Stages[0].Body, []float32{0.25, 0.5, 0.75, 1}) {
		t.Fatal("expected the swizzle write to fold into the returned constant")
	}
}

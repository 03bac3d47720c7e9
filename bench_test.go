package shaderc

import "testing"

// ---------------------------------------------------------------------------
// Benchmark shader sources at different complexity levels
// ---------------------------------------------------------------------------

// benchSmallVertex is a minimal vertex shader.
const benchSmallVertex = `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
`

// benchMediumPipeline is a vertex+fragment pair with a uniform binding
// and enough arithmetic to exercise the folder.
const benchMediumPipeline = `
@group(0) @binding(0) var<uniform> tint: vec4<f32>;

fn brighten(c: f32) -> f32 {
    return clamp(c * 1.25 + 0.05, 0.0, 1.0);
}

@vertex
fn vs_main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    var c = tint;
    if (brighten(0.5) > 0.5) {
        c = c * 2.0;
    }
    return c;
}
`

func BenchmarkCompile(b *testing.B) {
	cases := []struct {
		name   string
		source string
	}{
		{"small", benchSmallVertex},
		{"medium", benchMediumPipeline},
	}
	for _, bc := range cases {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Compile(bc.source); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(benchMediumPipeline); err != nil {
			b.Fatal(err)
		}
	}
}

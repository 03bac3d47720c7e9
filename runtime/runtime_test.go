package runtime

import (
	"testing"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/fold"
	"github.com/shaderforge/shaderc/metadata"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/stub"
	"github.com/shaderforge/shaderc/types"
)

// fakeDevice is a minimal in-memory Device: it mints counting handles
// instead of talking to a real GPU.
type fakeDevice struct {
	shaderCalls   int
	pipelineCalls int
}

func (d *fakeDevice) NewShaderCode(data []byte) (ShaderCode, error) {
	d.shaderCalls++
	return len(data), nil
}

func (d *fakeDevice) NewPipelineState(meta *metadata.ShaderMetadata) (PipelineState, error) {
	d.pipelineCalls++
	return meta.DescriptorLayoutKey, nil
}

func buildSimpleStub(t *testing.T) []byte {
	t.Helper()
	typeLib := types.NewLibrary()
	natives := native.NewRegistry()
	native.RegisterBuiltins(natives)
	errs := diag.NewSourceReporter()
	f := fold.New(typeLib, natives, program.NewInstanceLibrary(), errs)
	ex := stub.NewExporter(f, typeLib)

	lib := program.NewLibrary()
	prog := lib.NewProgram("Simple")

	posParam := &ast.DataParameter{Name: "position", Scope: ast.ScopeVertexInput, Type: typeLib.FloatType(3)}
	posRef := ast.New(ast.ParamRef, diag.Location{})
	posRef.SetParam(posParam)
	posRef.Type = typeLib.FloatType(3)
	vertex := &program.Function{Name: "vertexMain", Return: typeLib.FloatType(3), Program: prog, Body: posRef}
	prog.AddFunction(vertex)

	stubProg := ex.Export([]stub.StageEntry{{Kind: stub.StageVertex, Function: vertex}})
	data, err := stub.Serialize(stubProg)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	return data
}

func TestLoadMintsDeviceHandles(t *testing.T) {
	data := buildSimpleStub(t)
	dev := &fakeDevice{}

	compiled, err := Load(data, 0x42, dev)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if compiled.Metadata.ContentKey != 0x42 {
		t.Fatalf("expected content key to pass through, got %#x", compiled.Metadata.ContentKey)
	}
	if dev.shaderCalls != 1 || dev.pipelineCalls != 1 {
		t.Fatalf("expected exactly one shader and one pipeline call, got %d/%d", dev.shaderCalls, dev.pipelineCalls)
	}
	if compiled.Code == nil || compiled.Pipeline == nil {
		t.Fatal("expected non-nil device handles on the compiled shader")
	}
	if len(compiled.Program.Stages) != 1 {
		t.Fatalf("expected one stage in the deserialized program, got %d", len(compiled.Program.Stages))
	}
}

type erroringDevice struct{}

func (erroringDevice) NewShaderCode(data []byte) (ShaderCode, error) {
	return nil, errShaderCode
}
func (erroringDevice) NewPipelineState(meta *metadata.ShaderMetadata) (PipelineState, error) {
	return nil, nil
}

var errShaderCode = &deviceError{"shader code creation failed"}

type deviceError struct{ msg string }

func (e *deviceError) Error() string { return e.msg }

func TestLoadPropagatesDeviceError(t *testing.T) {
	data := buildSimpleStub(t)
	if _, err := Load(data, 0, erroringDevice{}); err == nil {
		t.Fatal("expected Load to propagate the device's shader-code error")
	}
}

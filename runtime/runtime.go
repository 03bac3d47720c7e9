// Package runtime is the opaque-handle surface the compiled-shader
// pipeline hands off to: it names what a device
// abstraction consumes — a compiled shader's serialized bytes plus its
// ShaderMetadata — without implementing buffer/image/pipeline creation
// itself.
package runtime

import (
	"github.com/shaderforge/shaderc/metadata"
	"github.com/shaderforge/shaderc/stub"
)

// ShaderCode is an opaque, device-assigned handle for a compiled shader
// module, mirroring the driver.ShaderCode/driver.Pipeline handle style the
// device abstraction itself would define.
type ShaderCode interface{}

// PipelineState is an opaque, device-assigned handle for a graphics or
// compute pipeline built from a ShaderMetadata record.
type PipelineState interface{}

// Device is the consumer contract a host GPU device abstraction
// implements. Runtime never implements this
// itself; it only calls through it.
type Device interface {
	// NewShaderCode creates a device-side shader module from a compiled
	// stub's serialized form.
	NewShaderCode(data []byte) (ShaderCode, error)

	// NewPipelineState creates a device-side pipeline object, given the
	// metadata derived from the same stub (descriptor layouts, render
	// state, compute group sizes).
	NewPipelineState(meta *metadata.ShaderMetadata) (PipelineState, error)
}

// CompiledShader bundles a deserialized StubProgram, its derived
// ShaderMetadata, and the device-side handles minted from them — the
// artifact that outlives a compilation session.
type CompiledShader struct {
	Program  *stub.StubProgram
	Metadata *metadata.ShaderMetadata

	Code     ShaderCode
	Pipeline PipelineState
}

// Load deserializes a stub-factory blob, rebuilds its ShaderMetadata under
// contentKey, and mints device-side handles through dev. It is the
// runtime-side half of the "Compiled-shader on-disk form" contract:
// parse/resolve/fold/export/metadata-build happen once at compile time and
// are never repeated here.
func Load(data []byte, contentKey uint64, dev Device) (*CompiledShader, error) {
	prog, err := stub.Deserialize(data)
	if err != nil {
		return nil, err
	}
	meta := metadata.BuildFromStubs(prog, contentKey)

	code, err := dev.NewShaderCode(data)
	if err != nil {
		return nil, err
	}
	pipeline, err := dev.NewPipelineState(meta)
	if err != nil {
		return nil, err
	}

	return &CompiledShader{Program: prog, Metadata: meta, Code: code, Pipeline: pipeline}, nil
}

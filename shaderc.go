// Package shaderc provides a pure Go shader compiler core.
//
// shaderc ingests WGSL source, resolves and constant-folds it, and lowers
// the result to a serializable, stage-partitioned stub IR plus a runtime
// metadata record for descriptor binding. Back-end code generators (GLSL,
// SPIR-V, HLSL printers) consume the stub IR; the device layer consumes
// the metadata.
//
// Example usage:
//
//	source := `
//	@vertex
//	fn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
//	    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
//	}
//	`
//	compiled, err := shaderc.Compile(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("shader.stub", compiled.Binary, 0644)
//
// Pipeline-overridable constants (`override` declarations) are bound at
// compile time through CompileOptions.Constants:
//
//	opts := shaderc.DefaultOptions()
//	opts.Constants = map[string]any{"sample_count": 4}
//	compiled, err := shaderc.CompileWithOptions(source, opts)
//
// For lower-level access to individual compilation stages, use the wgsl,
// resolve, fold, stub, and metadata packages directly.
package shaderc

import (
	"fmt"
	"hash/fnv"

	"github.com/shaderforge/shaderc/arena"
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/fold"
	"github.com/shaderforge/shaderc/metadata"
	"github.com/shaderforge/shaderc/native"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/resolve"
	"github.com/shaderforge/shaderc/stub"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
	"github.com/shaderforge/shaderc/wgsl"
)

// CompileOptions configures shader compilation.
type CompileOptions struct {
	// ModuleName names the program the module's declarations are gathered
	// into; it seeds the program's content key.
	ModuleName string

	// Constants binds values to `override` declarations by name. Accepted
	// value kinds are bool, int, int32, int64, uint32, uint64, float32 and
	// float64; each is coerced to the declared type of the override it
	// binds.
	Constants map[string]any
}

// DefaultOptions returns sensible default options.
func DefaultOptions() CompileOptions {
	return CompileOptions{ModuleName: "shader"}
}

// CompiledProgram is the result of a successful compilation: the stub IR
// graph, its serialized form, and the runtime metadata record derived
// from it. Binary and Metadata are the only artifacts meant to outlive
// the compilation.
type CompiledProgram struct {
	Stubs    *stub.StubProgram
	Binary   []byte
	Metadata *metadata.ShaderMetadata
}

// Compile compiles WGSL source with default options.
func Compile(source string) (*CompiledProgram, error) {
	return CompileWithOptions(source, DefaultOptions())
}

// CompileWithOptions compiles WGSL source: parse, lower, resolve, fold,
// export, serialize, and build metadata. Any diagnostic reported along
// the way fails the compilation with every collected message.
func CompileWithOptions(source string, opts CompileOptions) (*CompiledProgram, error) {
	if opts.ModuleName == "" {
		opts.ModuleName = "shader"
	}

	module, err := Parse(source)
	if err != nil {
		return nil, err
	}

	errs := diag.NewSourceReporter()
	typeLib := types.NewLibrary()
	progLib := program.NewLibrary()
	instances := program.NewInstanceLibrary()

	sess := arena.NewSession()
	defer sess.End()
	arena.Track(sess, progLib.Release)
	arena.Track(sess, instances.Release)

	lowerer := wgsl.NewLowerer(typeLib, errs)
	prog, err := lowerer.LowerModule(opts.ModuleName, module, progLib, source)
	if errs.HasErrors() {
		return nil, fmt.Errorf("lowering failed:\n%s", errs.FormatAll())
	}
	if err != nil {
		return nil, err
	}

	natives := native.NewRegistry()
	native.RegisterBuiltins(natives)

	env := &resolve.Environment{
		Types:           typeLib,
		Natives:         natives,
		GlobalConsts:    lowerer.GlobalConsts(),
		GlobalFunctions: map[string]*program.Function{},
		Descriptors:     lowerer,
	}
	resolver := resolve.New(env, errs)
	for _, p := range lowerer.GlobalConsts() {
		resolver.ResolveInitializer(p, prog)
	}
	for _, fn := range prog.OwnFunctions() {
		resolver.ResolveFunction(fn, prog)
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("resolution failed:\n%s", errs.FormatAll())
	}

	var instance *program.Instance
	if len(opts.Constants) > 0 {
		constants, err := bindConstants(lowerer.GlobalConsts(), opts.Constants)
		if err != nil {
			return nil, err
		}
		inst, ok := instances.GetOrCreate(prog, constants, diag.Location{File: opts.ModuleName}, errs)
		if !ok {
			return nil, fmt.Errorf("program instance creation failed:\n%s", errs.FormatAll())
		}
		instance = inst
	}

	stages, err := entryPoints(prog, instance)
	if err != nil {
		return nil, err
	}

	folder := fold.New(typeLib, natives, instances, errs)
	exporter := stub.NewExporter(folder, typeLib)
	stubs := exporter.Export(stages)
	if errs.HasErrors() {
		return nil, fmt.Errorf("folding failed:\n%s", errs.FormatAll())
	}

	binary, err := stub.Serialize(stubs)
	if err != nil {
		return nil, fmt.Errorf("serializing stub program: %w", err)
	}

	h := fnv.New64a()
	h.Write(binary)
	md := metadata.BuildFromStubs(stubs, h.Sum64())

	return &CompiledProgram{Stubs: stubs, Binary: binary, Metadata: md}, nil
}

// Parse tokenizes and parses WGSL source into its syntax tree without
// running any later stage.
func Parse(source string) (*wgsl.Module, error) {
	tokens, err := wgsl.NewLexer(source).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("lexing failed: %w", err)
	}
	module, err := wgsl.NewParser(tokens).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	return module, nil
}

// stageKinds maps the stage attribute the lowerer stamps onto entry
// functions to the exporter's stage partitioning, in pipeline order.
var stageKinds = []struct {
	attr string
	kind stub.StageKind
}{
	{"vertex", stub.StageVertex},
	{"fragment", stub.StagePixel},
	{"compute", stub.StageCompute},
}

func entryPoints(prog *program.Program, instance *program.Instance) ([]stub.StageEntry, error) {
	var stages []stub.StageEntry
	for _, sk := range stageKinds {
		var entry *program.Function
		for _, fn := range prog.OwnFunctions() {
			if v, ok := fn.AttributeValue("stage"); ok && v == sk.attr {
				if entry != nil {
					return nil, fmt.Errorf("multiple %s entry points: %s and %s", sk.attr, entry.Name, fn.Name)
				}
				entry = fn
			}
		}
		if entry != nil {
			stages = append(stages, stub.StageEntry{Kind: sk.kind, Function: entry, Instance: instance})
		}
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("no entry point: expected at least one @vertex, @fragment or @compute function")
	}
	return stages, nil
}

// bindConstants coerces user-supplied override values to the declared
// types of the overrides they bind.
func bindConstants(consts map[string]*ast.DataParameter, values map[string]any) (program.ProgramConstants, error) {
	bound := program.ProgramConstants{}
	for name, v := range values {
		param, ok := consts[name]
		if !ok {
			return nil, fmt.Errorf("no override named %q in this module", name)
		}
		dv, err := constantValue(param.Type, v)
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", name, err)
		}
		bound[param] = dv
	}
	return bound, nil
}

func constantValue(t types.DataType, v any) (value.DataValue, error) {
	if !t.IsScalar() {
		return value.DataValue{}, fmt.Errorf("only scalar overrides can be bound, declared type is %s", t.Base())
	}
	var c value.DataValueComponent
	switch t.Base() {
	case types.Bool:
		b, ok := v.(bool)
		if !ok {
			return value.DataValue{}, fmt.Errorf("expected bool, got %T", v)
		}
		c = value.ComponentBool(b)
	case types.Int:
		n, ok := asInt64(v)
		if !ok {
			return value.DataValue{}, fmt.Errorf("expected integer, got %T", v)
		}
		c = value.ComponentInt32(int32(n))
	case types.Uint:
		n, ok := asInt64(v)
		if !ok || n < 0 {
			return value.DataValue{}, fmt.Errorf("expected non-negative integer, got %v (%T)", v, v)
		}
		c = value.ComponentUint32(uint32(n))
	case types.Float:
		switch f := v.(type) {
		case float32:
			c = value.ComponentFloat32(f)
		case float64:
			c = value.ComponentFloat32(float32(f))
		default:
			n, ok := asInt64(v)
			if !ok {
				return value.DataValue{}, fmt.Errorf("expected float, got %T", v)
			}
			c = value.ComponentFloat32(float32(n))
		}
	default:
		return value.DataValue{}, fmt.Errorf("overrides of type %s are not supported", t.Base())
	}
	return value.DataValue{Components: []value.DataValueComponent{c}}, nil
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

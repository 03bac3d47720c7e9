// Command shaderc is the shader compiler CLI.
//
// Usage:
//
//	shaderc [options] <input>
//
// Examples:
//
//	shaderc shader.wgsl                     # Compile, report diagnostics
//	shaderc -o shader.stub shader.wgsl      # Compile to a stub binary
//	shaderc -metadata shader.wgsl           # Print the runtime metadata
//	shaderc -set gain=2.0 shader.wgsl       # Bind an override constant
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/shaderforge/shaderc"
)

var (
	output       = flag.String("o", "", "output file for the stub binary (default: none)")
	name         = flag.String("name", "", "module name (default: input file base name)")
	showMetadata = flag.Bool("metadata", false, "print the runtime metadata record")
	versionFlag  = flag.Bool("version", false, "print version")
)

// constantFlags collects repeated -set name=value flags.
type constantFlags map[string]any

func (c constantFlags) String() string { return "" }

func (c constantFlags) Set(s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	switch {
	case raw == "true" || raw == "false":
		c[name] = raw == "true"
	case strings.ContainsAny(raw, ".eE"):
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("constant %s: %v", name, err)
		}
		c[name] = f
	default:
		n, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return fmt.Errorf("constant %s: %v", name, err)
		}
		c[name] = n
	}
	return nil
}

// version returns the module version from build info.
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	constants := constantFlags{}
	flag.Var(constants, "set", "bind an override constant as name=value (repeatable)")
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("shaderc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]
	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	opts := shaderc.DefaultOptions()
	opts.ModuleName = *name
	if opts.ModuleName == "" {
		opts.ModuleName = moduleName(inputPath)
	}
	if len(constants) > 0 {
		opts.Constants = constants
	}

	compiled, err := shaderc.CompileWithOptions(string(source), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if *showMetadata {
		printMetadata(compiled)
	}

	if *output != "" {
		if err := os.WriteFile(*output, compiled.Binary, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(compiled.Binary), *output)
	} else if !*showMetadata {
		fmt.Printf("Compiled %s: %d bytes, %d stage(s)\n", inputPath, len(compiled.Binary), len(compiled.Stubs.Stages))
	}
}

func moduleName(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func printMetadata(compiled *shaderc.CompiledProgram) {
	md := compiled.Metadata
	fmt.Printf("content key:           %016x\n", md.ContentKey)
	fmt.Printf("vertex layout key:     %016x\n", md.VertexLayoutKey)
	fmt.Printf("descriptor layout key: %016x\n", md.DescriptorLayoutKey)
	fmt.Printf("stage mask:            %#x\n", md.StageMask)
	if md.ComputeGroupSizeX != 0 {
		fmt.Printf("compute group size:    %d x %d x %d\n", md.ComputeGroupSizeX, md.ComputeGroupSizeY, md.ComputeGroupSizeZ)
	}
	for _, d := range md.Descriptors {
		fmt.Printf("descriptor %d %s (stages %#x)\n", d.Index, d.Name, d.StageMask)
		for _, e := range d.Elements {
			fmt.Printf("  %-24s number=%-6d stages=%#x\n", e.Name, e.Number, e.StageMask)
		}
	}
	for _, v := range md.VertexStreams {
		fmt.Printf("vertex stream %s\n", v.Name)
	}
	for _, s := range md.StaticSamplers {
		fmt.Printf("static sampler %s\n", s.Name)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `shaderc - shader compiler

Usage:
  shaderc [options] <input.wgsl>

Options:
`)
	flag.PrintDefaults()
}

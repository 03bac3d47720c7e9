package stub

import (
	"strings"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/fold"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// StageEntry names one pipeline stage's entry-point function.
// Instance, when set, supplies the program-constant values the stage is
// specialized against; nil folds with no instance context.
type StageEntry struct {
	Kind     StageKind
	Function *program.Function
	Instance *program.Instance
}

// Exporter walks a bulk-folded AST per stage and builds the deduplicated
// StubProgram. One Exporter exports exactly one StubProgram;
// its tables accumulate across every stage passed to Export so that a
// type, descriptor, or sampler shared between stages is emitted once.
type Exporter struct {
	Folder *fold.Folder
	Types  *types.Library

	typesBySource     map[types.DataType]*StubTypeDecl
	structsBySource   map[*types.CompositeType]*StubStruct
	descriptorsByName map[string]*StubDescriptor
	membersByName     map[string]*StubDescriptorMember
	samplersByPreset  map[string]*StubSamplerState
	vstreamsBySource  map[*ast.DataParameter]*StubVertexInputStream
	functionsBySource map[*program.Function]*StubFunction

	allTypes       []*StubTypeDecl
	allStructs     []*StubStruct
	allDescriptors []*StubDescriptor
	allSamplers    []*StubSamplerState
	allVStreams    []*StubVertexInputStream
	allFunctions   []*StubFunction
}

// NewExporter builds an Exporter that folds through f and resolves
// resource-aggregate shapes through typeLib.
func NewExporter(f *fold.Folder, typeLib *types.Library) *Exporter {
	return &Exporter{
		Folder:            f,
		Types:             typeLib,
		typesBySource:     map[types.DataType]*StubTypeDecl{},
		structsBySource:   map[*types.CompositeType]*StubStruct{},
		descriptorsByName: map[string]*StubDescriptor{},
		membersByName:     map[string]*StubDescriptorMember{},
		samplersByPreset:  map[string]*StubSamplerState{},
		vstreamsBySource:  map[*ast.DataParameter]*StubVertexInputStream{},
		functionsBySource: map[*program.Function]*StubFunction{},
	}
}

// Export runs the pipeline over every stage: bulk-fold main with
// an empty ProgramConstants, walk the folded body emitting stubs, and
// accumulate the shared tables plus the render state.
func (ex *Exporter) Export(stages []StageEntry) *StubProgram {
	prog := &StubProgram{}
	var pixelPresent bool
	var renderState *program.RenderState
	for _, se := range stages {
		if se.Kind == StagePixel {
			pixelPresent = true
		}
		folded := ex.Folder.FoldFunction(se.Function, se.Instance, nil)
		ctx := newExportCtx()
		body := ex.walk(ctx, folded.Body)
		prog.Stages = append(prog.Stages, &StubStage{
			Kind:              se.Kind,
			EntryName:         folded.Name,
			Body:              body,
			Locals:            ctx.localTypes,
			Attributes:        folded.Attributes,
			DescriptorMembers: ctx.members,
			VertexStreams:     ctx.streams,
			Samplers:          ctx.samplers,
		})

		if se.Function.Program != nil {
			renderState = program.MergeRenderState(renderState, se.Function.Program.RenderState)
		}
	}
	// Render states are accumulated only if a pixel stage is present: a vertex-
	// only or compute-only program has nothing for a rasterizer state to attach
	// to.
	if pixelPresent {
		prog.RenderState = renderState
	}

	prog.Types = ex.allTypes
	prog.Structs = ex.allStructs
	prog.Descriptors = ex.allDescriptors
	prog.Samplers = ex.allSamplers
	prog.VertexStreams = ex.allVStreams
	prog.Functions = ex.allFunctions
	return prog
}

// exportCtx accumulates one stage's (or one StubFunction's) locals and the
// subset of the shared tables it actually touches.
type exportCtx struct {
	locals     map[*ast.DataParameter]int
	localTypes []*StubTypeDecl

	members     []*StubDescriptorMember
	memberSeen  map[*StubDescriptorMember]bool
	streams     []*StubVertexInputStream
	streamSeen  map[*StubVertexInputStream]bool
	samplers    []*StubSamplerState
	samplerSeen map[*StubSamplerState]bool
}

func newExportCtx() *exportCtx {
	return &exportCtx{
		locals:      map[*ast.DataParameter]int{},
		memberSeen:  map[*StubDescriptorMember]bool{},
		streamSeen:  map[*StubVertexInputStream]bool{},
		samplerSeen: map[*StubSamplerState]bool{},
	}
}

func (c *exportCtx) useMember(m *StubDescriptorMember) {
	if !c.memberSeen[m] {
		c.memberSeen[m] = true
		c.members = append(c.members, m)
	}
}

func (c *exportCtx) useStream(s *StubVertexInputStream) {
	if !c.streamSeen[s] {
		c.streamSeen[s] = true
		c.streams = append(c.streams, s)
	}
}

func (c *exportCtx) useSampler(s *StubSamplerState) {
	if !c.samplerSeen[s] {
		c.samplerSeen[s] = true
		c.samplers = append(c.samplers, s)
	}
}

func (c *exportCtx) localIndex(p *ast.DataParameter, t *StubTypeDecl) int {
	if idx, ok := c.locals[p]; ok {
		return idx
	}
	idx := len(c.localTypes)
	c.locals[p] = idx
	c.localTypes = append(c.localTypes, t)
	return idx
}

// walk converts one folded CodeNode into its StubNode mirror.
func (ex *Exporter) walk(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	if node == nil {
		return nil
	}
	switch node.Op {
	case ast.ParamRef:
		return ex.walkParamRef(ctx, node)
	case ast.Const:
		if isResourceConst(node.Value) {
			return ex.walkResourceConst(ctx, node)
		}
		return &StubNode{Op: ast.Const, Type: ex.typeDecl(node.Type), Value: node.Value}
	case ast.ReadSwizzle:
		return ex.walkReadSwizzle(ctx, node)
	case ast.Call:
		return ex.walkCall(ctx, node)
	case ast.Scope:
		for _, p := range node.Declarations {
			ctx.localIndex(p, ex.typeDecl(p.Type))
		}
		return ex.walkGeneric(ctx, node)
	default:
		return ex.walkGeneric(ctx, node)
	}
}

func (ex *Exporter) walkGeneric(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	s := &StubNode{Op: node.Op, Type: ex.typeDecl(node.Type), Value: node.Value, Mask: node.Mask()}
	if node.CastType().IsValid() {
		s.CastBase = node.CastType().Base()
	}
	if len(node.Children) > 0 {
		s.Children = make([]*StubNode, len(node.Children))
		for i, c := range node.Children {
			s.Children[i] = ex.walk(ctx, c)
		}
	}
	return s
}

// isResourceConst reports whether v is the "res:<descriptor>.<entry>"
// named-component shape the folder leaves on a resource ParamRef it
// cannot reduce any further.
func isResourceConst(v value.DataValue) bool {
	return v.Len() == 1 && v.Components[0].Tag == value.TagName && strings.HasPrefix(v.Components[0].Name, "res:")
}

func (ex *Exporter) walkResourceConst(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	name := strings.TrimPrefix(node.Value.Components[0].Name, "res:")
	m := ex.descriptorMember(name, node.Type, node.Param())
	ctx.useMember(m)
	return &StubNode{
		Op:      ast.Const,
		Type:    ex.typeDecl(node.Type),
		DataRef: &StubDataRef{Kind: DataRefDescriptorMember, Name: name, Member: m},
	}
}

func (ex *Exporter) walkParamRef(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	s := &StubNode{Op: ast.ParamRef, Type: ex.typeDecl(node.Type)}
	p := node.Param()
	if p == nil {
		return s
	}
	switch p.Scope {
	case ast.ScopeGlobalParameter:
		m := ex.descriptorMember(p.Name, p.Type, p)
		ctx.useMember(m)
		s.DataRef = &StubDataRef{Kind: DataRefDescriptorMember, Name: p.Name, Member: m}
	case ast.ScopeGlobalBuiltin:
		s.DataRef = &StubDataRef{Kind: DataRefBuiltin, Name: p.Name, Builtin: p.Builtin}
	case ast.ScopeVertexInput:
		v := ex.vertexStream(p)
		ctx.useStream(v)
		s.DataRef = &StubDataRef{Kind: DataRefVertexStream, Name: p.Name, VertexStream: v}
	case ast.ScopeStageInput:
		s.DataRef = &StubDataRef{Kind: DataRefStageInput, Name: p.Name}
	case ast.ScopeStageOutput:
		s.DataRef = &StubDataRef{Kind: DataRefStageOutput, Name: p.Name}
	case ast.ScopeGroupShared:
		s.DataRef = &StubDataRef{Kind: DataRefGroupShared, Name: p.Name}
	case ast.ScopeLocal:
		idx := ctx.localIndex(p, ex.typeDecl(p.Type))
		s.DataRef = &StubDataRef{Kind: DataRefLocal, Name: p.Name, LocalIndex: idx}
	default:
		// ScopeFunctionInput/ScopeStaticConstant/ScopeExport surviving a
		// bulk fold (empty ProgramConstants) means the value genuinely
		// depends on a caller never supplied here; leave an unresolved
		// local reference for the back-end to reject rather than guessing.
		s.DataRef = &StubDataRef{Kind: DataRefLocal, Name: p.Name, LocalIndex: -1}
	}
	return s
}

// walkReadSwizzle implements the step 2's three-way swizzle
// normalization: pass-through, true swizzle, or (when the mask carries a
// Zero/One literal) a composed CreateVector of per-selector reads and
// literal constants.
func (ex *Exporter) walkReadSwizzle(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	target := ex.walk(ctx, node.Children[0])
	mask := node.Mask()
	sourceWidth := node.Children[0].Type.Dereferenced().ComponentCount()
	if sourceWidth == 0 {
		sourceWidth = 1
	}
	if mask.IsIdentityOn(sourceWidth) {
		return target
	}

	hasLiteral := false
	for _, sel := range mask.Selectors {
		if sel.Kind != ast.SwizzleComponent {
			hasLiteral = true
			break
		}
	}
	if !hasLiteral {
		return &StubNode{Op: ast.ReadSwizzle, Type: ex.typeDecl(node.Type), Mask: mask, Children: []*StubNode{target}}
	}

	base := node.Type.Base()
	parts := make([]*StubNode, len(mask.Selectors))
	for i, sel := range mask.Selectors {
		switch sel.Kind {
		case ast.SwizzleComponent:
			parts[i] = &StubNode{
				Op:       ast.ReadSwizzle,
				Type:     ex.scalarTypeDecl(base),
				Mask:     ast.SwizzleMask{Selectors: []ast.SwizzleSelector{sel}},
				Children: []*StubNode{target},
			}
		case ast.SwizzleLiteralZero:
			parts[i] = ex.literalNode(base, 0)
		case ast.SwizzleLiteralOne:
			parts[i] = ex.literalNode(base, 1)
		}
	}
	return &StubNode{Op: ast.CreateVector, Type: ex.typeDecl(node.Type), Children: parts}
}

func (ex *Exporter) scalarTypeDecl(base types.BaseKind) *StubTypeDecl {
	return ex.typeDecl(ex.Types.SimpleCompositeType(base, 1))
}

func (ex *Exporter) literalNode(base types.BaseKind, v int) *StubNode {
	var comp value.DataValueComponent
	switch base {
	case types.Int:
		comp = value.ComponentInt32(int32(v))
	case types.Uint:
		comp = value.ComponentUint32(uint32(v))
	case types.Bool:
		comp = value.ComponentBool(v != 0)
	default:
		comp = value.ComponentFloat32(float32(v))
	}
	return &StubNode{Op: ast.Const, Type: ex.scalarTypeDecl(base), Value: value.DataValue{Components: []value.DataValueComponent{comp}}}
}

// walkCall exports a surviving (unfolded-to-a-value) Call: its arguments,
// plus a CalleeName reference into the StubFunction table built lazily as
// the call graph is discovered.
func (ex *Exporter) walkCall(ctx *exportCtx, node *ast.CodeNode) *StubNode {
	var args []*StubNode
	if len(node.Children) > 0 {
		args = make([]*StubNode, len(node.Children))
		for i, c := range node.Children {
			args[i] = ex.walk(ctx, c)
		}
	}
	s := &StubNode{Op: ast.Call, Type: ex.typeDecl(node.Type), Children: args}
	if fn, ok := node.ResolvedFunction().(*program.Function); ok && fn != nil {
		sf := ex.exportFunction(fn)
		s.CalleeName = sf.Name
	}
	return s
}

func (ex *Exporter) exportFunction(fn *program.Function) *StubFunction {
	if sf, ok := ex.functionsBySource[fn]; ok {
		return sf
	}
	sf := &StubFunction{Name: fn.Name}
	// Reserve before recursing: a call graph that loops back on itself
	// (mutual recursion) must see this entry already present.
	ex.functionsBySource[fn] = sf
	ex.allFunctions = append(ex.allFunctions, sf)

	fctx := newExportCtx()
	sf.Body = ex.walk(fctx, fn.Body)
	sf.Locals = fctx.localTypes
	return sf
}

func (ex *Exporter) descriptor(name string) *StubDescriptor {
	if d, ok := ex.descriptorsByName[name]; ok {
		return d
	}
	d := &StubDescriptor{Name: name}
	ex.descriptorsByName[name] = d
	ex.allDescriptors = append(ex.allDescriptors, d)
	return d
}

// descriptorMember resolves (or creates) the StubDescriptorMember for the
// dotted "<descriptor>.<entry>[.<member>]" name program.Program builds for
// every global-parameter and resource ParamRef. srcParam is nil when the
// only surviving evidence is a "res:..." Const that carries no parameter
// link; the member is keyed purely by name rather than by parameter
// identity either way.
func (ex *Exporter) descriptorMember(name string, t types.DataType, srcParam *ast.DataParameter) *StubDescriptorMember {
	if m, ok := ex.membersByName[name]; ok {
		return m
	}
	descriptorName, entry, member := parseDescriptorName(name)
	desc := ex.descriptor(descriptorName)
	deref := t.Dereferenced()
	dm := &StubDescriptorMember{Descriptor: desc, Entry: entry, Member: member, Type: ex.typeDecl(deref), source: srcParam}
	if res, ok := deref.Resource(); ok {
		dm.Resource = res
		// A sampled-image parameter carrying a `static_sampler(name)` attribute
		// binds to a fixed, compile-time sampler preset rather than a separately
		// bound resource: the preset has no descriptor slot of its own, so it is
		// looked up by name rather than by parameter identity.
		if res.View == types.ViewSampledImage && srcParam != nil {
			if preset, ok := srcParam.AttributeValue("static_sampler"); ok {
				dm.StaticSampler = ex.samplerByName(preset)
			}
		}
		// A dynamic sampler link (a second, separately bound ViewSampler
		// descriptor member) is left unwired here: it needs the native
		// sample-call site pairing the texture and sampler arguments
		// together, not information available from the texture parameter
		// alone.
	}
	desc.Members = append(desc.Members, dm)
	ex.membersByName[name] = dm
	return dm
}

// parseDescriptorName splits the dotted key program.Program builds
// ("Material.albedo" or "Material.albedo.offset") back into its parts.
func parseDescriptorName(name string) (descriptor, entry, member string) {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return name, "", ""
	}
	descriptor = name[:i]
	rest := name[i+1:]
	j := strings.IndexByte(rest, '.')
	if j < 0 {
		return descriptor, rest, ""
	}
	return descriptor, rest[:j], rest[j+1:]
}

// samplerByName resolves (or creates) the StubSamplerState for a static-
// sampler preset name. Presets have no backing DataParameter (they are a
// compile-time-fixed filter/address-mode configuration, not a bound
// resource), so they are deduplicated by name rather than by identity.
func (ex *Exporter) samplerByName(name string) *StubSamplerState {
	if s, ok := ex.samplersByPreset[name]; ok {
		return s
	}
	s := &StubSamplerState{Name: name}
	ex.samplersByPreset[name] = s
	ex.allSamplers = append(ex.allSamplers, s)
	return s
}

func (ex *Exporter) vertexStream(p *ast.DataParameter) *StubVertexInputStream {
	if v, ok := ex.vstreamsBySource[p]; ok {
		return v
	}
	v := &StubVertexInputStream{Name: p.Name, Type: ex.typeDecl(p.Type), source: p}
	ex.vstreamsBySource[p] = v
	ex.allVStreams = append(ex.allVStreams, v)
	return v
}

// typeDecl resolves (or creates) the StubTypeDecl for t, deduplicated on
// t itself: types.DataType is a small comparable struct (an interned
// pointer plus a flags byte), so it is already a valid map key without a
// surrogate.
func (ex *Exporter) typeDecl(t types.DataType) *StubTypeDecl {
	t = t.Dereferenced()
	if d, ok := ex.typesBySource[t]; ok {
		return d
	}
	d := &StubTypeDecl{source: t}
	ex.typesBySource[t] = d
	ex.allTypes = append(ex.allTypes, d)

	switch {
	case t.Base() == types.Void:
		d.Kind = TypeVoid
	case t.IsMatrix():
		d.Kind = TypeMatrix
		d.Base = t.Base()
		d.Components = t.ComponentCount()
		d.Rows = t.RowCount()
	case t.IsVector():
		d.Kind = TypeVector
		d.Base = t.Base()
		d.Components = t.ComponentCount()
	case t.IsScalar():
		d.Kind = TypeScalar
		d.Base = t.Base()
		d.Components = 1
	case t.Base() == types.Array:
		d.Kind = TypeArray
		d.ArrayLen = t.ArrayLen()
		d.Elem = ex.typeDecl(ex.Types.GetArrayInnerType(t))
	case t.Base() == types.Resource:
		d.Kind = TypeResource
		if res, ok := t.Resource(); ok {
			d.Resource = res
		}
	case t.Base() == types.Composite:
		d.Kind = TypeStruct
		if comp, ok := t.Composite(); ok {
			d.Struct = ex.structDecl(comp)
		}
	default:
		d.Kind = TypeScalar
		d.Base = t.Base()
	}
	return d
}

func (ex *Exporter) structDecl(comp *types.CompositeType) *StubStruct {
	if s, ok := ex.structsBySource[comp]; ok {
		return s
	}
	s := &StubStruct{Name: comp.Name, source: comp}
	ex.structsBySource[comp] = s
	ex.allStructs = append(ex.allStructs, s)
	for _, m := range comp.Members {
		s.Members = append(s.Members, StubStructMember{Name: m.Name, Type: ex.typeDecl(m.Type)})
	}
	return s
}

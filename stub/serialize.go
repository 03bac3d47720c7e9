package stub

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
	"github.com/shaderforge/shaderc/value"
)

// formatVersion is the factory version byte. Bump it, and branch on the byte
// read back, the day the record layout changes incompatibly.
const formatVersion = 1

// stub type tags, one per record kind, written ahead of each record's
// payload so an unrecognized tag can abort the load cleanly instead of
// misreading bytes as some other record shape.
const (
	tagType byte = iota
	tagStruct
	tagDescriptor
	tagSampler
	tagVertexStream
	tagFunction
	tagStage
	tagTrailer
)

// Serialize writes p in the binary form the describes: little-endian,
// a leading string table, then tag-prefixed records in definition order,
// with every cross-stub pointer rewritten to a table index.
func Serialize(p *StubProgram) ([]byte, error) {
	st := newStringTable()
	idx := newIndex(p)
	collectStrings(p, st, idx)

	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	st.write(&buf)

	writeU32(&buf, uint32(len(p.Types)))
	for _, t := range p.Types {
		buf.WriteByte(tagType)
		writeTypeDecl(&buf, t, st, idx)
	}
	writeU32(&buf, uint32(len(p.Structs)))
	for _, s := range p.Structs {
		buf.WriteByte(tagStruct)
		writeStruct(&buf, s, st, idx)
	}
	writeU32(&buf, uint32(len(p.Samplers)))
	for _, s := range p.Samplers {
		buf.WriteByte(tagSampler)
		writeU32(&buf, st.intern(s.Name))
	}
	writeU32(&buf, uint32(len(p.VertexStreams)))
	for _, v := range p.VertexStreams {
		buf.WriteByte(tagVertexStream)
		writeU32(&buf, st.intern(v.Name))
		writeI32(&buf, int32(idx.typeOf[v.Type]))
	}
	writeU32(&buf, uint32(len(p.Descriptors)))
	for _, d := range p.Descriptors {
		buf.WriteByte(tagDescriptor)
		writeDescriptor(&buf, d, st, idx)
	}
	writeU32(&buf, uint32(len(p.Functions)))
	for _, f := range p.Functions {
		buf.WriteByte(tagFunction)
		writeU32(&buf, st.intern(f.Name))
		writeLocals(&buf, f.Locals, idx)
		writeNode(&buf, f.Body, st, idx)
	}
	writeU32(&buf, uint32(len(p.Stages)))
	for _, s := range p.Stages {
		buf.WriteByte(tagStage)
		buf.WriteByte(byte(s.Kind))
		writeU32(&buf, st.intern(s.EntryName))
		writeLocals(&buf, s.Locals, idx)
		writeAttributes(&buf, s.Attributes, st)
		writeU32(&buf, uint32(len(s.DescriptorMembers)))
		for _, m := range s.DescriptorMembers {
			writeMemberRef(&buf, m, idx)
		}
		writeU32(&buf, uint32(len(s.VertexStreams)))
		for _, v := range s.VertexStreams {
			writeI32(&buf, int32(idx.vstreamOf[v]))
		}
		writeU32(&buf, uint32(len(s.Samplers)))
		for _, sm := range s.Samplers {
			writeI32(&buf, int32(idx.samplerOf[sm]))
		}
		writeNode(&buf, s.Body, st, idx)
	}

	buf.WriteByte(tagTrailer)
	writeRenderState(&buf, p.RenderState)

	return buf.Bytes(), nil
}

// Deserialize reverses Serialize, reconstructing every cross-stub pointer
// from its table index and calling postLoad() once the graph is whole.
func Deserialize(data []byte) (*StubProgram, error) {
	r := bytes.NewReader(data)
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("stub: empty input")
	}
	if version != formatVersion {
		return nil, fmt.Errorf("stub: unsupported format version %d", version)
	}
	st, err := readStringTable(r)
	if err != nil {
		return nil, err
	}

	p := &StubProgram{}
	b := &builder{strings: st}

	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if tag != tagType {
			return nil, fmt.Errorf("stub: expected type record, got tag %d", tag)
		}
		t, err := readTypeDecl(r, b)
		if err != nil {
			return nil, err
		}
		b.types = append(b.types, t)
	}
	p.Types = b.types

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagStruct {
			return nil, fmt.Errorf("stub: expected struct record")
		}
		s, err := readStruct(r, b)
		if err != nil {
			return nil, err
		}
		b.structs = append(b.structs, s)
	}
	p.Structs = b.structs

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagSampler {
			return nil, fmt.Errorf("stub: expected sampler record")
		}
		name, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		b.samplers = append(b.samplers, &StubSamplerState{Name: name})
	}
	p.Samplers = b.samplers

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagVertexStream {
			return nil, fmt.Errorf("stub: expected vertex-stream record")
		}
		name, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		tIdx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		b.vstreams = append(b.vstreams, &StubVertexInputStream{Name: name, Type: b.typeAt(int(tIdx))})
	}
	p.VertexStreams = b.vstreams

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagDescriptor {
			return nil, fmt.Errorf("stub: expected descriptor record")
		}
		d, err := readDescriptor(r, b)
		if err != nil {
			return nil, err
		}
		b.descriptors = append(b.descriptors, d)
	}
	p.Descriptors = b.descriptors

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagFunction {
			return nil, fmt.Errorf("stub: expected function record")
		}
		f := &StubFunction{}
		name, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		f.Name = name
		if f.Locals, err = readLocals(r, b); err != nil {
			return nil, err
		}
		if f.Body, err = readNode(r, b); err != nil {
			return nil, err
		}
		b.functions = append(b.functions, f)
	}
	p.Functions = b.functions

	if n, err = readU32(r); err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		if tag, err := r.ReadByte(); err != nil || tag != tagStage {
			return nil, fmt.Errorf("stub: expected stage record")
		}
		s, err := readStage(r, b)
		if err != nil {
			return nil, err
		}
		p.Stages = append(p.Stages, s)
	}

	tag, err := r.ReadByte()
	if err != nil || tag != tagTrailer {
		return nil, fmt.Errorf("stub: expected trailer record")
	}
	if p.RenderState, err = readRenderState(r); err != nil {
		return nil, err
	}

	if err := b.resolve(); err != nil {
		return nil, err
	}
	p.postLoad()
	return p, nil
}

// --- index: pointer -> table position, built once before writing ---

type index struct {
	typeOf    map[*StubTypeDecl]int
	structOf  map[*StubStruct]int
	descOf    map[*StubDescriptor]int
	memberOf  map[*StubDescriptorMember][2]int // [descriptorIndex, memberIndex]
	samplerOf map[*StubSamplerState]int
	vstreamOf map[*StubVertexInputStream]int
	funcOf    map[*StubFunction]int
}

func newIndex(p *StubProgram) *index {
	idx := &index{
		typeOf:    map[*StubTypeDecl]int{},
		structOf:  map[*StubStruct]int{},
		descOf:    map[*StubDescriptor]int{},
		memberOf:  map[*StubDescriptorMember][2]int{},
		samplerOf: map[*StubSamplerState]int{},
		vstreamOf: map[*StubVertexInputStream]int{},
		funcOf:    map[*StubFunction]int{},
	}
	for i, t := range p.Types {
		idx.typeOf[t] = i
	}
	for i, s := range p.Structs {
		idx.structOf[s] = i
	}
	for i, d := range p.Descriptors {
		idx.descOf[d] = i
		for j, m := range d.Members {
			idx.memberOf[m] = [2]int{i, j}
		}
	}
	for i, s := range p.Samplers {
		idx.samplerOf[s] = i
	}
	for i, v := range p.VertexStreams {
		idx.vstreamOf[v] = i
	}
	for i, f := range p.Functions {
		idx.funcOf[f] = i
	}
	return idx
}

func collectStrings(p *StubProgram, st *stringTable, idx *index) {
	for _, t := range p.Types {
		if t.Struct != nil {
			st.intern(t.Struct.Name)
		}
	}
	for _, s := range p.Structs {
		st.intern(s.Name)
		for _, m := range s.Members {
			st.intern(m.Name)
		}
	}
	for _, d := range p.Descriptors {
		st.intern(d.Name)
		for _, m := range d.Members {
			st.intern(m.Entry)
			st.intern(m.Member)
		}
	}
	for _, s := range p.Samplers {
		st.intern(s.Name)
	}
	for _, v := range p.VertexStreams {
		st.intern(v.Name)
	}
	for _, f := range p.Functions {
		st.intern(f.Name)
		collectNodeStrings(f.Body, st)
	}
	for _, s := range p.Stages {
		st.intern(s.EntryName)
		for _, a := range s.Attributes {
			st.intern(a.Name)
			st.intern(a.Value)
		}
		collectNodeStrings(s.Body, st)
	}
}

func collectNodeStrings(n *StubNode, st *stringTable) {
	if n == nil {
		return
	}
	if n.DataRef != nil {
		st.intern(n.DataRef.Name)
	}
	st.intern(n.CalleeName)
	for _, c := range n.Children {
		collectNodeStrings(c, st)
	}
}

// --- string table ---

type stringTable struct {
	values []string
	index  map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{index: map[string]uint32{}}
}

func (t *stringTable) intern(s string) uint32 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := uint32(len(t.values))
	t.values = append(t.values, s)
	t.index[s] = i
	return i
}

func (t *stringTable) write(buf *bytes.Buffer) {
	writeU32(buf, uint32(len(t.values)))
	for _, s := range t.values {
		writeU32(buf, uint32(len(s)))
		buf.WriteString(s)
	}
}

func readStringTable(r *bytes.Reader) ([]string, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := uint32(0); i < n; i++ {
		l, err := readU32(r)
		if err != nil {
			return nil, err
		}
		b := make([]byte, l)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		out[i] = string(b)
	}
	return out, nil
}

func readInternedString(r *bytes.Reader, table []string) (string, error) {
	i, err := readU32(r)
	if err != nil {
		return "", err
	}
	if int(i) >= len(table) {
		return "", fmt.Errorf("stub: string index %d out of range", i)
	}
	return table[i], nil
}

// --- primitive helpers ---

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r *bytes.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// --- type/struct/descriptor/render-state records ---

func writeTypeDecl(buf *bytes.Buffer, t *StubTypeDecl, st *stringTable, idx *index) {
	buf.WriteByte(byte(t.Kind))
	buf.WriteByte(byte(t.Base))
	writeU32(buf, uint32(t.Components))
	writeU32(buf, uint32(t.Rows))
	writeI32(buf, int32(t.ArrayLen))
	if t.Elem != nil {
		writeI32(buf, int32(idx.typeOf[t.Elem]))
	} else {
		writeI32(buf, -1)
	}
	if t.Struct != nil {
		writeI32(buf, int32(idx.structOf[t.Struct]))
	} else {
		writeI32(buf, -1)
	}
	writeResourceType(buf, t.Resource)
}

func readTypeDecl(r *bytes.Reader, b *builder) (*StubTypeDecl, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	base, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	comps, err := readU32(r)
	if err != nil {
		return nil, err
	}
	rows, err := readU32(r)
	if err != nil {
		return nil, err
	}
	arrLen, err := readI32(r)
	if err != nil {
		return nil, err
	}
	elemIdx, err := readI32(r)
	if err != nil {
		return nil, err
	}
	structIdx, err := readI32(r)
	if err != nil {
		return nil, err
	}
	res, err := readResourceType(r)
	if err != nil {
		return nil, err
	}
	t := &StubTypeDecl{
		Kind:       TypeKind(kind),
		Base:       types.BaseKind(base),
		Components: int(comps),
		Rows:       int(rows),
		ArrayLen:   int(arrLen),
		Resource:   res,
	}
	b.pendingTypeElem = append(b.pendingTypeElem, pendingRef{node: t, index: int(elemIdx)})
	b.pendingTypeStruct = append(b.pendingTypeStruct, pendingRef{node: t, index: int(structIdx)})
	return t, nil
}

func writeResourceType(buf *bytes.Buffer, r *types.ResourceType) {
	if r == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	buf.WriteByte(byte(r.View))
	buf.WriteByte(byte(r.Dim))
	buf.WriteByte(byte(r.Format))
	buf.WriteByte(byte(r.Flavor))
	writeBool(buf, r.Multisample)
	writeBool(buf, r.Readonly)
	// r.Struct (the resolved element layout of a structured buffer) is not
	// round-tripped: nothing downstream of a deserialized StubProgram
	// (metadata building, descriptor-layout hashing) consults it, only the
	// view/format/flavor shape does.
}

func readResourceType(r *bytes.Reader) (*types.ResourceType, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	view, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	dim, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	format, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	flavor, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ms, err := readBool(r)
	if err != nil {
		return nil, err
	}
	ro, err := readBool(r)
	if err != nil {
		return nil, err
	}
	return &types.ResourceType{
		View:        types.DeviceObjectViewType(view),
		Dim:         types.ImageDimension(dim),
		Format:      types.PixelFormat(format),
		Flavor:      types.ScalarFlavor(flavor),
		Multisample: ms,
		Readonly:    ro,
	}, nil
}

func writeStruct(buf *bytes.Buffer, s *StubStruct, st *stringTable, idx *index) {
	writeU32(buf, st.intern(s.Name))
	writeU32(buf, uint32(len(s.Members)))
	for _, m := range s.Members {
		writeU32(buf, st.intern(m.Name))
		writeI32(buf, int32(idx.typeOf[m.Type]))
	}
}

func readStruct(r *bytes.Reader, b *builder) (*StubStruct, error) {
	name, err := readInternedString(r, b.strings)
	if err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	s := &StubStruct{Name: name, Members: make([]StubStructMember, n)}
	for i := uint32(0); i < n; i++ {
		mName, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		tIdx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		s.Members[i] = StubStructMember{Name: mName, Type: b.typeAt(int(tIdx))}
	}
	return s, nil
}

func writeDescriptor(buf *bytes.Buffer, d *StubDescriptor, st *stringTable, idx *index) {
	writeU32(buf, st.intern(d.Name))
	writeU32(buf, d.StageMask)
	writeU32(buf, uint32(len(d.Members)))
	for _, m := range d.Members {
		writeU32(buf, st.intern(m.Entry))
		writeU32(buf, st.intern(m.Member))
		writeI32(buf, int32(idx.typeOf[m.Type]))
		writeResourceType(buf, m.Resource)
		if m.StaticSampler != nil {
			writeI32(buf, int32(idx.samplerOf[m.StaticSampler]))
		} else {
			writeI32(buf, -1)
		}
		writeMemberRef(buf, m.DynamicSampler, idx)
		writeU32(buf, m.StageMask)
	}
}

func readDescriptor(r *bytes.Reader, b *builder) (*StubDescriptor, error) {
	name, err := readInternedString(r, b.strings)
	if err != nil {
		return nil, err
	}
	mask, err := readU32(r)
	if err != nil {
		return nil, err
	}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	d := &StubDescriptor{Name: name, StageMask: mask}
	for i := uint32(0); i < n; i++ {
		entry, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		member, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		tIdx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		res, err := readResourceType(r)
		if err != nil {
			return nil, err
		}
		staticIdx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		dynDesc, dynMember, err := readMemberRef(r)
		if err != nil {
			return nil, err
		}
		memberMask, err := readU32(r)
		if err != nil {
			return nil, err
		}
		dm := &StubDescriptorMember{
			Descriptor: d,
			Entry:      entry,
			Member:     member,
			Type:       b.typeAt(int(tIdx)),
			Resource:   res,
			StageMask:  memberMask,
		}
		if staticIdx >= 0 {
			dm.StaticSampler = b.samplers[staticIdx]
		}
		d.Members = append(d.Members, dm)
		if dynDesc >= 0 {
			b.pendingDynamicSampler = append(b.pendingDynamicSampler, pendingMemberRef{node: dm, desc: dynDesc, member: dynMember})
		}
	}
	return d, nil
}

func writeMemberRef(buf *bytes.Buffer, m *StubDescriptorMember, idx *index) {
	if m == nil {
		writeI32(buf, -1)
		writeI32(buf, -1)
		return
	}
	ref := idx.memberOf[m]
	writeI32(buf, int32(ref[0]))
	writeI32(buf, int32(ref[1]))
}

func readMemberRef(r *bytes.Reader) (descIdx, memberIdx int32, err error) {
	if descIdx, err = readI32(r); err != nil {
		return
	}
	memberIdx, err = readI32(r)
	return
}

func writeLocals(buf *bytes.Buffer, locals []*StubTypeDecl, idx *index) {
	writeU32(buf, uint32(len(locals)))
	for _, l := range locals {
		writeI32(buf, int32(idx.typeOf[l]))
	}
}

func readLocals(r *bytes.Reader, b *builder) ([]*StubTypeDecl, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]*StubTypeDecl, n)
	for i := uint32(0); i < n; i++ {
		idx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		out[i] = b.typeAt(int(idx))
	}
	return out, nil
}

func writeAttributes(buf *bytes.Buffer, attrs []ast.Attribute, st *stringTable) {
	writeU32(buf, uint32(len(attrs)))
	for _, a := range attrs {
		writeU32(buf, st.intern(a.Name))
		writeU32(buf, st.intern(a.Value))
	}
}

func readAttributes(r *bytes.Reader, b *builder) ([]ast.Attribute, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]ast.Attribute, n)
	for i := uint32(0); i < n; i++ {
		name, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		val, err := readInternedString(r, b.strings)
		if err != nil {
			return nil, err
		}
		out[i] = ast.Attribute{Name: name, Value: val}
	}
	return out, nil
}

func writeRenderState(buf *bytes.Buffer, rs *program.RenderState) {
	if rs == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeU32(buf, uint32(len(rs.CullMode)))
	buf.WriteString(rs.CullMode)
	writeBool(buf, rs.DepthTestEnable)
	writeBool(buf, rs.DepthWriteEnable)
	writeBool(buf, rs.BlendEnable)
}

func readRenderState(r *bytes.Reader) (*program.RenderState, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	l, err := readU32(r)
	if err != nil {
		return nil, err
	}
	cull := make([]byte, l)
	if _, err := io.ReadFull(r, cull); err != nil {
		return nil, err
	}
	depthTest, err := readBool(r)
	if err != nil {
		return nil, err
	}
	depthWrite, err := readBool(r)
	if err != nil {
		return nil, err
	}
	blend, err := readBool(r)
	if err != nil {
		return nil, err
	}
	return &program.RenderState{
		CullMode:         string(cull),
		DepthTestEnable:  depthTest,
		DepthWriteEnable: depthWrite,
		BlendEnable:      blend,
	}, nil
}

// --- node records (recursive, inline - not a separate table) ---

func writeNode(buf *bytes.Buffer, n *StubNode, st *stringTable, idx *index) {
	if n == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeU32(buf, uint32(n.Op))
	writeI32(buf, int32(idx.typeOf[n.Type]))
	writeValue(buf, n.Value)
	writeU32(buf, uint32(len(n.Mask.Selectors)))
	for _, sel := range n.Mask.Selectors {
		buf.WriteByte(byte(sel.Kind))
		writeI32(buf, int32(sel.ComponentIndex))
	}
	buf.WriteByte(byte(n.CastBase))
	writeDataRef(buf, n.DataRef, st, idx)
	writeU32(buf, st.intern(n.CalleeName))
	writeU32(buf, uint32(len(n.Children)))
	for _, c := range n.Children {
		writeNode(buf, c, st, idx)
	}
}

func readNode(r *bytes.Reader, b *builder) (*StubNode, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	op, err := readU32(r)
	if err != nil {
		return nil, err
	}
	tIdx, err := readI32(r)
	if err != nil {
		return nil, err
	}
	val, err := readValue(r)
	if err != nil {
		return nil, err
	}
	selN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	mask := ast.SwizzleMask{Selectors: make([]ast.SwizzleSelector, selN)}
	for i := uint32(0); i < selN; i++ {
		kind, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		compIdx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		mask.Selectors[i] = ast.SwizzleSelector{Kind: ast.SwizzleSelectorKind(kind), ComponentIndex: int(compIdx)}
	}
	castBase, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	ref, err := readDataRef(r, b)
	if err != nil {
		return nil, err
	}
	callee, err := readInternedString(r, b.strings)
	if err != nil {
		return nil, err
	}
	childN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	children := make([]*StubNode, childN)
	for i := uint32(0); i < childN; i++ {
		children[i], err = readNode(r, b)
		if err != nil {
			return nil, err
		}
	}
	return &StubNode{
		Op:         ast.Opcode(op),
		Type:       b.typeAt(int(tIdx)),
		Value:      val,
		Mask:       mask,
		CastBase:   types.BaseKind(castBase),
		DataRef:    ref,
		CalleeName: callee,
		Children:   children,
	}, nil
}

func writeDataRef(buf *bytes.Buffer, ref *StubDataRef, st *stringTable, idx *index) {
	if ref == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	buf.WriteByte(byte(ref.Kind))
	writeU32(buf, st.intern(ref.Name))
	if ref.Member != nil {
		writeMemberRef(buf, ref.Member, idx)
	} else {
		writeI32(buf, -1)
		writeI32(buf, -1)
	}
	buf.WriteByte(byte(ref.Builtin))
	if ref.VertexStream != nil {
		writeI32(buf, int32(idx.vstreamOf[ref.VertexStream]))
	} else {
		writeI32(buf, -1)
	}
	writeI32(buf, int32(ref.LocalIndex))
}

func readDataRef(r *bytes.Reader, b *builder) (*StubDataRef, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	kind, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	name, err := readInternedString(r, b.strings)
	if err != nil {
		return nil, err
	}
	memberDesc, memberIdx, err := readMemberRef(r)
	if err != nil {
		return nil, err
	}
	builtin, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	vsIdx, err := readI32(r)
	if err != nil {
		return nil, err
	}
	localIdx, err := readI32(r)
	if err != nil {
		return nil, err
	}
	ref := &StubDataRef{
		Kind:       StubDataRefKind(kind),
		Name:       name,
		Builtin:    ast.BuiltinKind(builtin),
		LocalIndex: int(localIdx),
	}
	if memberDesc >= 0 {
		ref.Member = b.descriptors[memberDesc].Members[memberIdx]
	}
	if vsIdx >= 0 {
		ref.VertexStream = b.vstreams[vsIdx]
	}
	return ref, nil
}

func writeValue(buf *bytes.Buffer, v value.DataValue) {
	writeU32(buf, uint32(len(v.Components)))
	for _, c := range v.Components {
		buf.WriteByte(byte(c.Tag))
		switch c.Tag {
		case value.TagBool:
			writeBool(buf, c.Bool)
		case value.TagInt32:
			writeI32(buf, c.Int32)
		case value.TagUint32:
			writeU32(buf, c.Uint32)
		case value.TagFloat32:
			writeU32(buf, math.Float32bits(c.Float32))
		case value.TagInt64, value.TagUint64, value.TagFloat64:
			// Widths beyond 32 bits do not occur in folded shader
			// values; a zero placeholder word keeps the component
			// count intact, and the 64-bit value itself is not kept.
			writeU32(buf, 0)
		case value.TagName:
			writeU32(buf, 0)
		}
	}
}

func readValue(r *bytes.Reader) (value.DataValue, error) {
	n, err := readU32(r)
	if err != nil {
		return value.DataValue{}, err
	}
	out := value.DataValue{Components: make([]value.DataValueComponent, n)}
	for i := uint32(0); i < n; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return value.DataValue{}, err
		}
		switch value.Tag(tag) {
		case value.TagBool:
			b, err := readBool(r)
			if err != nil {
				return value.DataValue{}, err
			}
			out.Components[i] = value.ComponentBool(b)
		case value.TagInt32:
			v, err := readI32(r)
			if err != nil {
				return value.DataValue{}, err
			}
			out.Components[i] = value.ComponentInt32(v)
		case value.TagUint32:
			v, err := readU32(r)
			if err != nil {
				return value.DataValue{}, err
			}
			out.Components[i] = value.ComponentUint32(v)
		case value.TagFloat32:
			v, err := readU32(r)
			if err != nil {
				return value.DataValue{}, err
			}
			out.Components[i] = value.ComponentFloat32(math.Float32frombits(v))
		default:
			if _, err := readU32(r); err != nil {
				return value.DataValue{}, err
			}
		}
	}
	return out, nil
}

// --- builder: resolves table-index placeholders into live pointers ---

type pendingRef struct {
	node  *StubTypeDecl
	index int
}

type pendingMemberRef struct {
	node         *StubDescriptorMember
	desc, member int32
}

type builder struct {
	strings     []string
	types       []*StubTypeDecl
	structs     []*StubStruct
	descriptors []*StubDescriptor
	samplers    []*StubSamplerState
	vstreams    []*StubVertexInputStream
	functions   []*StubFunction

	pendingTypeElem       []pendingRef
	pendingTypeStruct     []pendingRef
	pendingDynamicSampler []pendingMemberRef
}

func (b *builder) typeAt(i int) *StubTypeDecl {
	if i < 0 || i >= len(b.types) {
		return nil
	}
	return b.types[i]
}

func (b *builder) resolve() error {
	for _, p := range b.pendingTypeElem {
		if p.index >= 0 {
			if p.index >= len(b.types) {
				return errors.New("stub: type element index out of range")
			}
			p.node.Elem = b.types[p.index]
		}
	}
	for _, p := range b.pendingTypeStruct {
		if p.index >= 0 {
			if p.index >= len(b.structs) {
				return errors.New("stub: type struct index out of range")
			}
			p.node.Struct = b.structs[p.index]
		}
	}
	for _, p := range b.pendingDynamicSampler {
		if p.desc >= 0 {
			p.node.DynamicSampler = b.descriptors[p.desc].Members[p.member]
		}
	}
	return nil
}

func readStage(r *bytes.Reader, b *builder) (*StubStage, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	entry, err := readInternedString(r, b.strings)
	if err != nil {
		return nil, err
	}
	locals, err := readLocals(r, b)
	if err != nil {
		return nil, err
	}
	attrs, err := readAttributes(r, b)
	if err != nil {
		return nil, err
	}
	memN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	members := make([]*StubDescriptorMember, memN)
	for i := uint32(0); i < memN; i++ {
		d, m, err := readMemberRef(r)
		if err != nil {
			return nil, err
		}
		if d >= 0 {
			members[i] = b.descriptors[d].Members[m]
		}
	}
	vsN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	streams := make([]*StubVertexInputStream, vsN)
	for i := uint32(0); i < vsN; i++ {
		idx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			streams[i] = b.vstreams[idx]
		}
	}
	smN, err := readU32(r)
	if err != nil {
		return nil, err
	}
	samplers := make([]*StubSamplerState, smN)
	for i := uint32(0); i < smN; i++ {
		idx, err := readI32(r)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			samplers[i] = b.samplers[idx]
		}
	}
	body, err := readNode(r, b)
	if err != nil {
		return nil, err
	}
	return &StubStage{
		Kind:              StageKind(kindByte),
		EntryName:         entry,
		Body:              body,
		Locals:            locals,
		Attributes:        attrs,
		DescriptorMembers: members,
		VertexStreams:     streams,
		Samplers:          samplers,
	}, nil
}

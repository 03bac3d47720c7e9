// Package metadata implements the runtime-facing metadata builder:
// ShaderMetadata::BuildFromStubs walks a StubProgram and produces the
// descriptor/vertex-stream/sampler record the device layer uses to build
// root signatures and descriptor set layouts, without ever touching the AST,
// the folder, or the native registry directly.
package metadata

import (
	"strconv"

	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/stub"
	"github.com/shaderforge/shaderc/types"
)

// StageMask bits mirror stub.StageKind's iota order; a program can combine
// several into one uint32.
const (
	StageBitVertex uint32 = 1 << iota
	StageBitHull
	StageBitDomain
	StageBitGeometry
	StageBitPixel
	StageBitCompute
)

func stageBit(k stub.StageKind) uint32 {
	switch k {
	case stub.StageVertex:
		return StageBitVertex
	case stub.StageHull:
		return StageBitHull
	case stub.StageDomain:
		return StageBitDomain
	case stub.StageGeometry:
		return StageBitGeometry
	case stub.StagePixel:
		return StageBitPixel
	case stub.StageCompute:
		return StageBitCompute
	default:
		return 0
	}
}

// ElementMetadata is one descriptor entry.
type ElementMetadata struct {
	Name      string
	Type      *stub.StubTypeDecl
	Resource  *types.ResourceType
	Number    int32
	StageMask uint32

	source *stub.StubDescriptorMember
}

// DescriptorMetadata is one binding group's runtime entry.
type DescriptorMetadata struct {
	Index     int
	Name      string
	Elements  []*ElementMetadata
	StageMask uint32
}

// VertexStreamMetadata mirrors one stub.StubVertexInputStream.
type VertexStreamMetadata struct {
	Name string
	Type *stub.StubTypeDecl
}

// SamplerMetadata mirrors one stub.StubSamplerState.
type SamplerMetadata struct {
	Name string
}

// ShaderMetadata is the runtime-facing record the enumerates: stage
// mask, content key, derived layout keys, compute group sizes, descriptor
// table, vertex streams, static samplers, and a render-state block.
type ShaderMetadata struct {
	ContentKey          uint64
	VertexLayoutKey     uint64
	DescriptorLayoutKey uint64

	StageMask uint32

	UsesPixelShaderEarlyTest bool

	ComputeGroupSizeX uint32
	ComputeGroupSizeY uint32
	ComputeGroupSizeZ uint32

	Descriptors   []*DescriptorMetadata
	VertexStreams []*VertexStreamMetadata
	StaticSamplers []*SamplerMetadata

	RenderState *program.RenderState
}

// BuildFromStubs derives the runtime record from an exported StubProgram.
func BuildFromStubs(p *stub.StubProgram, contentKey uint64) *ShaderMetadata {
	m := &ShaderMetadata{ContentKey: contentKey, RenderState: p.RenderState}

	descIndex := make(map[*stub.StubDescriptor]int, len(p.Descriptors))
	descMeta := make(map[*stub.StubDescriptor]*DescriptorMetadata, len(p.Descriptors))
	elemMeta := make(map[*stub.StubDescriptorMember]*ElementMetadata)
	samplerIndex := make(map[*stub.StubSamplerState]int, len(p.Samplers))

	for i, s := range p.Samplers {
		samplerIndex[s] = i
	}

	for i, d := range p.Descriptors {
		dm := &DescriptorMetadata{Index: i, Name: d.Name}
		descIndex[d] = i
		descMeta[d] = dm
		for _, mem := range d.Members {
			em := &ElementMetadata{
				Name:     mem.Entry,
				Type:     mem.Type,
				Resource: mem.Resource,
				source:   mem,
			}
			elemMeta[mem] = em
			dm.Elements = append(dm.Elements, em)
		}
		m.Descriptors = append(m.Descriptors, dm)
	}

	for _, em := range elemMeta {
		em.Number = memberNumber(em.source, descIndex, samplerIndex)
	}

	for _, s := range p.Stages {
		bit := stageBit(s.Kind)
		m.StageMask |= bit

		for _, mem := range s.DescriptorMembers {
			if dm, ok := descMeta[mem.Descriptor]; ok {
				dm.StageMask |= bit
			}
			if em, ok := elemMeta[mem]; ok {
				em.StageMask |= bit
			}
			// A dynamic sampler link names its own descriptor member, so
			// that descriptor also picks up this stage's bit; a static
			// sampler has no descriptor of its own to OR into.
			if mem.DynamicSampler != nil {
				if dm, ok := descMeta[mem.DynamicSampler.Descriptor]; ok {
					dm.StageMask |= bit
				}
				if em, ok := elemMeta[mem.DynamicSampler]; ok {
					em.StageMask |= bit
				}
			}
		}

		if s.Kind == stub.StagePixel {
			for _, a := range s.Attributes {
				if a.Name == "early_fragment_tests" {
					m.UsesPixelShaderEarlyTest = true
				}
			}
		}
		if s.Kind == stub.StageCompute {
			m.ComputeGroupSizeX = attrUint(s.Attributes, "local_size_x")
			m.ComputeGroupSizeY = attrUint(s.Attributes, "local_size_y")
			m.ComputeGroupSizeZ = attrUint(s.Attributes, "local_size_z")
		}
	}

	for _, v := range p.VertexStreams {
		m.VertexStreams = append(m.VertexStreams, &VertexStreamMetadata{Name: v.Name, Type: v.Type})
	}
	for _, s := range p.Samplers {
		m.StaticSamplers = append(m.StaticSamplers, &SamplerMetadata{Name: s.Name})
	}

	m.VertexLayoutKey = hashVertexLayout(m.VertexStreams)
	m.DescriptorLayoutKey = hashDescriptorLayout(m.Descriptors)

	return m
}

// memberNumber implements the four-way `number` encoding. A
// dynamic-sampler link encodes the *descriptor* that carries the bound
// sampler resource (not an element position within it): the runtime needs
// to know which bind group to fetch the sampler from, mirroring how a
// static-sampler link encodes a position in the shared sampler table rather
// than a descriptor.
func memberNumber(mem *stub.StubDescriptorMember, descIndex map[*stub.StubDescriptor]int, samplerIndex map[*stub.StubSamplerState]int) int32 {
	if mem.StaticSampler != nil {
		return int32(samplerIndex[mem.StaticSampler]) + 1
	}
	if mem.DynamicSampler != nil {
		return -(int32(descIndex[mem.DynamicSampler.Descriptor]) + 1)
	}
	if mem.Resource != nil {
		switch mem.Resource.View {
		case types.ViewBufferStructured, types.ViewBufferStructuredWritable:
			if mem.Resource.Struct != nil {
				return int32(mem.Resource.Struct.Layout.Size)
			}
			return int32(sizeOfStubType(mem.Type))
		default:
			return 0
		}
	}
	return int32(sizeOfStubType(mem.Type))
}

func attrUint(attrs []ast.Attribute, name string) uint32 {
	for _, a := range attrs {
		if a.Name == name {
			n, err := strconv.Atoi(a.Value)
			if err != nil || n < 0 {
				return 0
			}
			return uint32(n)
		}
	}
	return 0
}

package metadata

import (
	"hash/fnv"
	"sort"

	"github.com/shaderforge/shaderc/stub"
)

// sizeOfStubType computes a constant-buffer field's byte size from its
// StubTypeDecl shape, following the same std140-style packing rule as
// types/composite.go's computeLayout (a stub has already dropped the
// types.Library it was derived from, so the rule is reapplied here rather
// than borrowed by call).
func sizeOfStubType(t *stub.StubTypeDecl) uint32 {
	size, _ := sizeAndAlign(t)
	return size
}

func sizeAndAlign(t *stub.StubTypeDecl) (size, align uint32) {
	if t == nil {
		return 0, 4
	}
	switch t.Kind {
	case stub.TypeScalar:
		return 4, 4
	case stub.TypeVector:
		n := uint32(t.Components)
		return 4 * n, alignForCount(n)
	case stub.TypeMatrix:
		colAlign := alignForCount(uint32(t.Components))
		return colAlign * uint32(t.Rows), colAlign
	case stub.TypeArray:
		elemSize, elemAlign := sizeAndAlign(t.Elem)
		stride := roundUp(elemSize, 16)
		a := elemAlign
		if a < 16 {
			a = 16
		}
		return stride * uint32(t.ArrayLen), a
	case stub.TypeStruct:
		return structSizeAndAlign(t.Struct)
	default:
		return 0, 4
	}
}

func structSizeAndAlign(s *stub.StubStruct) (uint32, uint32) {
	if s == nil {
		return 0, 4
	}
	var offset uint32
	var maxAlign uint32 = 4
	for _, m := range s.Members {
		size, align := sizeAndAlign(m.Type)
		offset = roundUp(offset, align)
		offset += size
		if align > maxAlign {
			maxAlign = align
		}
	}
	return roundUp(offset, maxAlign), maxAlign
}

func alignForCount(n uint32) uint32 {
	switch n {
	case 1:
		return 4
	case 2:
		return 8
	default:
		return 16
	}
}

func roundUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	if rem := v % align; rem != 0 {
		return v + (align - rem)
	}
	return v
}

// hashVertexLayout and hashDescriptorLayout are content hashes over the
// relevant tables, stable under ordering: each table is sorted
// by name before hashing so two programs whose streams/descriptors were
// produced in a different order still yield the same key.
func hashVertexLayout(streams []*VertexStreamMetadata) uint64 {
	sorted := append([]*VertexStreamMetadata(nil), streams...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := fnv.New64a()
	for _, s := range sorted {
		h.Write([]byte(s.Name))
		writeTypeShape(h, s.Type)
	}
	return h.Sum64()
}

func hashDescriptorLayout(descriptors []*DescriptorMetadata) uint64 {
	sorted := append([]*DescriptorMetadata(nil), descriptors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := fnv.New64a()
	for _, d := range sorted {
		h.Write([]byte(d.Name))
		elems := append([]*ElementMetadata(nil), d.Elements...)
		sort.Slice(elems, func(i, j int) bool { return elems[i].Name < elems[j].Name })
		for _, e := range elems {
			h.Write([]byte(e.Name))
			writeTypeShape(h, e.Type)
			writeUint32(h, uint32(e.Number))
		}
	}
	return h.Sum64()
}

type fnvHasher interface {
	Write(p []byte) (int, error)
}

func writeUint32(h fnvHasher, v uint32) {
	h.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeTypeShape(h fnvHasher, t *stub.StubTypeDecl) {
	if t == nil {
		h.Write([]byte{0xff})
		return
	}
	h.Write([]byte{byte(t.Kind), byte(t.Base)})
	writeUint32(h, uint32(t.Components))
	writeUint32(h, uint32(t.Rows))
	writeUint32(h, uint32(t.ArrayLen))
	if t.Elem != nil {
		writeTypeShape(h, t.Elem)
	}
	if t.Struct != nil {
		h.Write([]byte(t.Struct.Name))
	}
}

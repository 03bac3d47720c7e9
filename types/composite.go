package types

import "strconv"

// CompositeHint drives swizzle/member access rules for a composite type.
type CompositeHint uint8

const (
	HintUserStruct CompositeHint = iota
	HintVector
	HintMatrix
)

// Member is one named, laid-out field of a composite type.
type Member struct {
	Name       string
	Type       DataType
	Location   SourceLocation
	Attributes []string

	// Layout is computed by computeLayout; zero until then.
	Layout MemberLayout
}

// SourceLocation is the minimal position info a member or parameter needs;
// it mirrors diag.Location without importing package diag (kept dependency
// -free since types is a leaf package).
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// MemberLayout is the computed linear layout of a composite member.
type MemberLayout struct {
	Offset      uint32
	Size        uint32
	Alignment   uint32
	ArrayStride uint32
}

// CompositeType is a named aggregate with ordered members.
type CompositeType struct {
	Name    string
	Hint    CompositeHint
	Members []Member
	Layout  MemberLayout // overall size/alignment of the composite itself
}

// MemberByName returns the member with the given name, or false.
func (c *CompositeType) MemberByName(name string) (Member, int, bool) {
	for i, m := range c.Members {
		if m.Name == name {
			return m, i, true
		}
	}
	return Member{}, -1, false
}

// sizeAndAlign returns the std140-like size/alignment of a scalar/vector
// shape; composite/array element sizes are folded in by the caller.
func sizeAndAlign(t DataType) (size, align uint32) {
	width := uint32(4)
	switch t.Base() {
	case Bool:
		width = 4 // bools are stored as 32-bit in buffer layouts
	}
	n := uint32(t.ComponentCount())
	rows := uint32(t.RowCount())
	switch {
	case t.IsMatrix():
		// Each column is padded to a vec4-equivalent alignment per row width.
		colAlign := alignForCount(n)
		return colAlign * rows, colAlign
	case n > 1:
		return width * n, alignForCount(n)
	default:
		return width, width
	}
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

// computeLayout assigns Offset/Size/Alignment/ArrayStride to each member in
// place and returns the composite's own total size/alignment, following the
// std140-style packing rule constant-buffer layouts expect (elements need
// a stable, predictable stride).
func computeLayout(members []Member) MemberLayout {
	var offset uint32
	var maxAlign uint32 = 4
	for i := range members {
		m := &members[i]
		var size, align uint32
		if m.Type.Base() == Array {
			elem := DataType{} // resolved lazily by caller via GetArrayInnerType if needed
			_ = elem
			elemSize, elemAlign := sizeAndAlign(arrayElementOrSelf(m.Type))
			stride := roundUp(elemSize, 16)
			count := uint32(m.Type.ArrayLen())
			size = stride * count
			align = maxU32(elemAlign, 16)
			m.Layout.ArrayStride = stride
		} else {
			size, align = sizeAndAlign(m.Type)
		}
		offset = roundUp(offset, align)
		m.Layout.Offset = offset
		m.Layout.Size = size
		m.Layout.Alignment = align
		offset += size
		if align > maxAlign {
			maxAlign = align
		}
	}
	total := roundUp(offset, maxAlign)
	return MemberLayout{Size: total, Alignment: maxAlign}
}

// arrayElementOrSelf returns the element type backing an array's stride
// computation; for non-arrays it returns t unchanged.
func arrayElementOrSelf(t DataType) DataType {
	if t.Base() != Array || t.c == nil || t.c.element == nil {
		return t
	}
	return DataType{c: t.c.element}
}

func roundUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	rem := v % align
	if rem == 0 {
		return v
	}
	return v + (align - rem)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// String renders a MemberLayout for diagnostics.
func (l MemberLayout) String() string {
	return "offset=" + strconv.FormatUint(uint64(l.Offset), 10) +
		" size=" + strconv.FormatUint(uint64(l.Size), 10) +
		" align=" + strconv.FormatUint(uint64(l.Alignment), 10)
}

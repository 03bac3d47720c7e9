package types

import "testing"

func TestSimpleCompositeTypeInterning(t *testing.T) {
	lib := NewLibrary()
	for n := 1; n <= 4; n++ {
		a := lib.simpleCompositeType(Float, n)
		b := lib.simpleCompositeType(Float, n)
		if a.c != b.c {
			t.Errorf("simpleCompositeType(Float, %d) not interned: %p != %p", n, a.c, b.c)
		}
	}
}

func TestDataTypeEqualityReflexiveSymmetricTransitive(t *testing.T) {
	lib := NewLibrary()
	a := lib.FloatType(3)
	b := lib.FloatType(3)
	c := lib.FloatType(3)

	if !a.Equal(a) {
		t.Fatal("Equal not reflexive")
	}
	if !a.Equal(b) || !b.Equal(a) {
		t.Fatal("Equal not symmetric")
	}
	if a.Equal(b) && b.Equal(c) && !a.Equal(c) {
		t.Fatal("Equal not transitive")
	}
}

func TestEqualityModuloFlags(t *testing.T) {
	lib := NewLibrary()
	a := lib.FloatType(1)
	ref := a.AsReference()
	if !a.Equal(ref) {
		t.Fatal("Equal should ignore Flags")
	}
	if a.EqualStrict(ref) {
		t.Fatal("EqualStrict should distinguish Flags")
	}
}

func TestMatchTypeReflexivity(t *testing.T) {
	lib := NewLibrary()
	candidates := []DataType{
		lib.FloatType(1), lib.FloatType(2), lib.FloatType(3), lib.FloatType(4),
		lib.IntegerType(1), lib.UnsignedType(2), lib.BooleanType(1),
		lib.MatrixType(Float, 4, 4),
	}
	for _, c := range candidates {
		if got := MatchType(c, c); got.Conversion != ConvMatches {
			t.Errorf("MatchType(%v, %v) = %v, want matches", c, c, got.Conversion)
		}
	}
}

func TestMatchTypeFloatToIntIsConvToInt(t *testing.T) {
	lib := NewLibrary()
	f := lib.FloatType(1)
	i := lib.IntegerType(1)
	got := MatchType(f, i)
	if got.Conversion != ConvToInt {
		t.Fatalf("MatchType(float,int).Conversion = %v, want ConvToInt", got.Conversion)
	}
	if !got.Conversion.IsImplicit() {
		t.Fatal("ConvToInt should be implicit")
	}
}

func TestMatchTypeNoMatchAcrossKinds(t *testing.T) {
	lib := NewLibrary()
	f := lib.FloatType(1)
	s := lib.StructType("Foo", HintUserStruct, []Member{{Name: "x", Type: lib.FloatType(1)}})
	got := MatchType(f, s)
	if got.Conversion != ConvNoMatch {
		t.Fatalf("scalar vs user-struct should not match, got %v", got.Conversion)
	}
}

func TestArrayComposesOuterOfInner(t *testing.T) {
	lib := NewLibrary()
	elem := lib.FloatType(4)
	arr := lib.ArrayOf(elem, 3)
	if arr.Base() != Array {
		t.Fatal("ArrayOf should produce an Array type")
	}
	if arr.ArrayLen() != 3 {
		t.Fatalf("ArrayLen() = %d, want 3", arr.ArrayLen())
	}
	inner := lib.GetArrayInnerType(arr)
	if !inner.Equal(elem) {
		t.Fatal("GetArrayInnerType should recover the element type")
	}
}

func TestProgramNominalSubtyping(t *testing.T) {
	lib := NewLibrary()
	a := fakeProgram{name: "A"}
	b := fakeProgram{name: "B", parent: &a}
	pa := lib.ProgramType(a)
	pb := lib.ProgramType(b)
	got := MatchType(pb, pa)
	if got.Conversion != ConvMatches {
		t.Fatalf("derived program should match base program type, got %v", got.Conversion)
	}
	got2 := MatchType(pa, pb)
	if got2.Conversion == ConvMatches {
		t.Fatal("base program should not match derived program type")
	}
}

type fakeProgram struct {
	name   string
	parent *fakeProgram
}

func (p fakeProgram) ProgramName() string { return p.name }
func (p fakeProgram) IsBasedOnProgram(other ProgramIdentity) bool {
	cur := &p
	for cur != nil {
		if cur.name == other.ProgramName() {
			return true
		}
		cur = cur.parent
	}
	return false
}

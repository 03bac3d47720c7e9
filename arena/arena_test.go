package arena

import "testing"

func TestAllocPointerStable(t *testing.T) {
	a := New[int](4)
	p1 := a.AllocValue(1)
	p2 := a.AllocValue(2)
	if *p1 != 1 || *p2 != 2 {
		t.Fatalf("unexpected values: %d, %d", *p1, *p2)
	}
	if a.At(0) != p1 || a.At(1) != p2 {
		t.Fatal("At() did not return the same pointers handed out by Alloc")
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
}

func TestReset(t *testing.T) {
	a := New[string](2)
	a.AllocValue("x")
	a.Reset()
	if a.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", a.Len())
	}
}

func TestSessionEndRunsAllClosers(t *testing.T) {
	s := NewSession()
	var ran []int
	Track(s, func() { ran = append(ran, 1) })
	Track(s, func() { ran = append(ran, 2) })
	s.End()
	if len(ran) != 2 || ran[0] != 1 || ran[1] != 2 {
		t.Fatalf("closers ran out of order or not at all: %v", ran)
	}
}

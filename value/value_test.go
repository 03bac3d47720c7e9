package value

import (
	"testing"

	"github.com/shaderforge/shaderc/types"
)

func TestIsWholeValueDefined(t *testing.T) {
	v := DataValue{Components: []DataValueComponent{ComponentFloat32(1), ComponentFloat32(2)}}
	if !v.IsWholeValueDefined() {
		t.Fatal("expected whole-defined value")
	}
	v.Components[1] = DataValueComponent{}
	if v.IsWholeValueDefined() {
		t.Fatal("expected not-whole-defined value once a component is undefined")
	}
}

func TestIsWholeValueDefinedEmptyIsFalse(t *testing.T) {
	if (DataValue{}).IsWholeValueDefined() {
		t.Fatal("an empty DataValue should not be considered whole-defined")
	}
}

func TestNewExecutionValueUndefined(t *testing.T) {
	lib := types.NewLibrary()
	ev := NewExecutionValue(lib.FloatType(3))
	if ev.HasValue {
		t.Fatal("a fresh runtime execution value must not report HasValue")
	}
	if ev.Value.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ev.Value.Len())
	}
}

func TestWriteValueRecomputesHasValue(t *testing.T) {
	lib := types.NewLibrary()
	ev := NewExecutionValue(lib.FloatType(1))
	ev = WriteValue(ev, DataValue{Components: []DataValueComponent{ComponentFloat32(2)}})
	if !ev.HasValue {
		t.Fatal("WriteValue with a defined component should set HasValue")
	}
}

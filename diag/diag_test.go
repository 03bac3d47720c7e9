package diag

import "testing"

func TestLocationString(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{}, ""},
		{Location{File: "a.shader", Line: 3}, "a.shader:3"},
		{Location{File: "a.shader", Line: 3, Column: 7}, "a.shader:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("Location(%+v).String() = %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestSourceReporterHasErrors(t *testing.T) {
	r := NewSourceReporter()
	if r.HasErrors() {
		t.Fatal("fresh reporter should have no errors")
	}
	r.ReportWarning(Location{File: "a", Line: 1}, "unused variable x")
	if r.HasErrors() {
		t.Fatal("warnings must not count as errors")
	}
	r.ReportError(Location{File: "a", Line: 2}, "unknown reference y")
	if !r.HasErrors() {
		t.Fatal("expected HasErrors after ReportError")
	}
	if r.ErrorCount() != 1 {
		t.Fatalf("ErrorCount() = %d, want 1", r.ErrorCount())
	}
}

func TestSourceReporterOrderPreserved(t *testing.T) {
	r := NewSourceReporter()
	r.ReportError(Location{Line: 1}, "first")
	r.ReportError(Location{Line: 2}, "second")
	diags := r.Diagnostics()
	if len(diags) != 2 || diags[0].Message != "first" || diags[1].Message != "second" {
		t.Fatalf("diagnostics out of order: %+v", diags)
	}
}

func TestSourceReporterFormatAll(t *testing.T) {
	r := NewSourceReporter()
	r.ReportError(Location{File: "s.shader", Line: 4}, "bad thing")
	want := "s.shader:4: error: bad thing"
	if got := r.FormatAll(); got != want {
		t.Errorf("FormatAll() = %q, want %q", got, want)
	}
}

// Package diag provides the diagnostic reporting contract shared by the
// resolver, folder, and exporter.
//
// The core never panics on a recoverable error: every fallible operation
// reports through an IErrorReporter and returns a boolean or invalid
// sentinel; the reporter is the only side channel.
package diag

import "fmt"

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Location is a source position supplied by the external lexer/parser.
type Location struct {
	File   string
	Line   int
	Column int
}

// String renders "file:line:column", omitting the column when zero, and
// renders nothing when both file and line are unset (an empty file with a
// line still renders as ":line"), matching the "file:line: error: message"
// rendering the driver uses.
func (l Location) String() string {
	switch {
	case l.File == "" && l.Line == 0:
		return ""
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Diagnostic is one reported error or warning.
type Diagnostic struct {
	Location Location
	Severity Severity
	Message  string
}

// Error implements the error interface so a Diagnostic can be returned or
// wrapped directly.
func (d Diagnostic) Error() string {
	loc := d.Location.String()
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Severity, d.Message)
}

// IErrorReporter is the injected sink every resolver/folder/exporter
// operation reports through. Implementations must preserve call order and
// must not throw (panic).
type IErrorReporter interface {
	ReportError(loc Location, message string)
	ReportWarning(loc Location, message string)
}

// SourceReporter is a concrete, order-preserving IErrorReporter that
// accumulates diagnostics in memory, grounded on wgsl.SourceErrors (an
// append-only slice with a HasErrors/Error/FormatAll API).
type SourceReporter struct {
	diagnostics []Diagnostic
	errorCount  int
}

// NewSourceReporter returns an empty reporter.
func NewSourceReporter() *SourceReporter {
	return &SourceReporter{}
}

// ReportError records a fatal-for-this-phase diagnostic.
func (r *SourceReporter) ReportError(loc Location, message string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Location: loc, Severity: SeverityError, Message: message})
	r.errorCount++
}

// ReportWarning records a non-gating diagnostic.
func (r *SourceReporter) ReportWarning(loc Location, message string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{Location: loc, Severity: SeverityWarning, Message: message})
}

// HasErrors reports whether any ReportError call has been made. The driver
// reads this after each phase and stops before moving to the next one.
func (r *SourceReporter) HasErrors() bool {
	return r.errorCount > 0
}

// ErrorCount returns the number of errors reported so far.
func (r *SourceReporter) ErrorCount() int {
	return r.errorCount
}

// Diagnostics returns all diagnostics reported so far, in report order.
func (r *SourceReporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// Error implements the error interface, returning the first diagnostic's
// message plus a count of how many more follow.
func (r *SourceReporter) Error() string {
	if len(r.diagnostics) == 0 {
		return "no diagnostics"
	}
	if len(r.diagnostics) == 1 {
		return r.diagnostics[0].Error()
	}
	return fmt.Sprintf("%s (and %d more diagnostics)", r.diagnostics[0].Error(), len(r.diagnostics)-1)
}

// FormatAll renders every diagnostic as "file:line: error: message", one
// per line, in report order.
func (r *SourceReporter) FormatAll() string {
	out := ""
	for i, d := range r.diagnostics {
		if i > 0 {
			out += "\n"
		}
		out += d.Error()
	}
	return out
}

package program

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/diag"
	"github.com/shaderforge/shaderc/types"
)

// Function is immutable after construction, with an optional owning
// program (nil for file-scope globals).
type Function struct {
	Location   diag.Location
	Name       string
	Return     types.DataType
	Params     []*ast.DataParameter
	Attributes []ast.Attribute
	Program    *Program
	Body       *ast.CodeNode

	// StaticParameters names the input parameters this Function was
	// specialized against at its call site (populated only on functions
	// produced by the folder).
	StaticParameters []string
}

// HasAttribute reports whether name is present among f's attributes.
func (f *Function) HasAttribute(name string) bool {
	for _, a := range f.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// AttributeValue returns the value of the named attribute and whether it
// was present.
func (f *Function) AttributeValue(name string) (string, bool) {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ParamByName returns f's input parameter named name, if any.
func (f *Function) ParamByName(name string) (*ast.DataParameter, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

package resolve

import (
	"github.com/shaderforge/shaderc/ast"
	"github.com/shaderforge/shaderc/program"
	"github.com/shaderforge/shaderc/types"
)

// resolveAccessArray handles `a[i]`, which
// dispatches very differently depending on whether the target is a plain
// array/vector or a GPU resource.
func (r *Resolver) resolveAccessArray(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	if len(node.Children) != 2 {
		r.Errors.ReportError(node.Location, "array access expects a target and an index")
		node.Type = types.Invalid
		return
	}
	target, index := node.Children[0], node.Children[1]
	r.resolveTypes(fn, owner, target)
	r.resolveTypes(fn, owner, index)

	base := target.Type.Dereferenced()
	switch {
	case base.IsResource():
		r.resolveResourceAccess(node, base, index)
	case base.Base() == types.Array:
		elem := r.Env.Types.GetArrayInnerType(base)
		node.Type = withTargetReference(elem, target.Type)
	case base.IsVector():
		elem := r.Env.Types.SimpleCompositeType(base.Base(), 1)
		node.Type = withTargetReference(elem, target.Type)
	default:
		r.Errors.ReportError(node.Location, "type is not indexable")
		node.Type = types.Invalid
	}
}

func withTargetReference(elem, targetType types.DataType) types.DataType {
	if targetType.Flags().IsReference() {
		return elem.AsReference()
	}
	return elem
}

// resolveResourceAccess implements the device-object-view
// dispatch table.
func (r *Resolver) resolveResourceAccess(node *ast.CodeNode, resourceDataType types.DataType, index *ast.CodeNode) {
	lib := r.Env.Types
	res, ok := resourceDataType.Resource()
	if !ok {
		r.Errors.ReportError(node.Location, "not a resource type")
		node.Type = types.Invalid
		return
	}
	switch res.View {
	case types.ViewBuffer, types.ViewBufferWritable:
		elem := lib.PackedFormatElementType(res.Format)
		if !elem.IsValid() {
			r.Errors.ReportError(node.Location, "unsupported buffer element format")
			node.Type = types.Invalid
			return
		}
		node.Type = maybeWritable(elem, res.View == types.ViewBufferWritable)

	case types.ViewBufferStructured, types.ViewBufferStructuredWritable:
		if res.Struct == nil {
			r.Errors.ReportError(node.Location, "structured buffer has no element layout")
			node.Type = types.Invalid
			return
		}
		elem := lib.StructType(res.Struct.Name, types.HintUserStruct, res.Struct.Members)
		node.Type = maybeWritable(elem, res.View == types.ViewBufferStructuredWritable)

	case types.ViewConstantBuffer:
		if res.Struct == nil {
			r.Errors.ReportError(node.Location, "constant buffer has no element layout")
			node.Type = types.Invalid
			return
		}
		node.Type = lib.StructType(res.Struct.Name, types.HintUserStruct, res.Struct.Members)

	case types.ViewSampledImage:
		if want := res.Dim.AddressComponentCount(); index.Type.ComponentCount() != want {
			r.Errors.ReportError(node.Location, "texture coordinate has the wrong component count")
		}
		node.Type = lib.SampledImageResultType(res.Flavor)

	case types.ViewImage, types.ViewImageWritable:
		if want := res.Dim.AddressComponentCount(); index.Type.ComponentCount() != want {
			r.Errors.ReportError(node.Location, "image coordinate has the wrong component count")
		}
		elem := lib.PackedFormatElementType(res.Format)
		node.Type = maybeWritable(elem, res.View == types.ViewImageWritable)

	case types.ViewSampler:
		r.Errors.ReportError(node.Location, "a sampler is not directly indexable")
		node.Type = types.Invalid

	default:
		r.Errors.ReportError(node.Location, "unsupported resource view")
		node.Type = types.Invalid
	}
}

func maybeWritable(t types.DataType, writable bool) types.DataType {
	if writable {
		return t.AsReference()
	}
	return t
}

// resolveAccessMember handles `a.b`: vector
// swizzle rewrites the node into ReadSwizzle, matrix member access is
// rejected, struct/program access looks the member up by name, and a bare
// scalar is treated as a one-component vector for swizzle purposes.
func (r *Resolver) resolveAccessMember(fn *program.Function, owner *program.Program, node *ast.CodeNode) {
	if len(node.Children) != 1 {
		r.Errors.ReportError(node.Location, "member access expects exactly one target")
		node.Type = types.Invalid
		return
	}
	target := node.Children[0]
	r.resolveTypes(fn, owner, target)
	name := node.Name()
	base := target.Type.Dereferenced()

	switch {
	case base.IsMatrix():
		r.Errors.ReportError(node.Location, "cannot access a member of a matrix")
		node.Type = types.Invalid

	case base.IsVector() || base.IsScalar():
		mask, ok := parseSwizzle(name, base.ComponentCount())
		if !ok {
			r.Errors.ReportError(node.Location, "invalid swizzle "+name)
			node.Type = types.Invalid
			return
		}
		node.Op = ast.ReadSwizzle
		node.SetMask(mask)
		result := r.Env.Types.GetContractedType(base, len(mask.Selectors))
		if target.Type.Flags().IsReference() && mask.IsIdentityOn(base.ComponentCount()) {
			result = result.AsReference()
		}
		node.Type = result

	case base.Base() == types.Composite:
		comp, ok := base.Composite()
		if !ok || comp.Hint != types.HintUserStruct {
			r.Errors.ReportError(node.Location, "not a struct type")
			node.Type = types.Invalid
			return
		}
		member, _, found := comp.MemberByName(name)
		if !found {
			r.Errors.ReportError(node.Location, "unknown member "+name)
			node.Type = types.Invalid
			return
		}
		node.Type = withTargetReference(member.Type, target.Type)

	case base.Base() == types.Program:
		r.resolveProgramMember(node, base, name)

	default:
		r.Errors.ReportError(node.Location, "type has no members")
		node.Type = types.Invalid
	}
}

func (r *Resolver) resolveProgramMember(node *ast.CodeNode, programType types.DataType, name string) {
	pid := programType.ProgramIdentity()
	p := asProgram(pid)
	if p == nil {
		r.Errors.ReportError(node.Location, "unresolved program identity")
		node.Type = types.Invalid
		return
	}
	if param, ok := p.FindParameter(name, true); ok {
		node.SetParam(param)
		if param.Assignable {
			node.Type = param.Type.AsReference()
		} else {
			node.Type = param.Type
		}
		return
	}
	if callee, ok := p.FindFunction(name, true); ok {
		r.becomeFuncRefFrom(node, callee)
		return
	}
	r.Errors.ReportError(node.Location, "unknown program member "+name)
	node.Type = types.Invalid
}

// becomeFuncRefFrom sets node's type to callee's signature without
// changing node's opcode (AccessMember keeps its shape so the exporter can
// still see which program the function came through).
func (r *Resolver) becomeFuncRefFrom(node *ast.CodeNode, callee *program.Function) {
	lib := r.Env.Types
	params := make([]types.DataType, len(callee.Params))
	for i, p := range callee.Params {
		params[i] = p.Type
	}
	node.SetResolvedFunction(callee)
	node.Type = lib.FunctionType(types.FunctionSignature{Params: params, Return: callee.Return})
}

func asProgram(pid types.ProgramIdentity) *program.Program {
	switch p := pid.(type) {
	case *program.Program:
		return p
	case *program.Instance:
		return p.Program
	default:
		return nil
	}
}

// swizzleLetterSets are the three accepted swizzle alphabets; a mask may
// not mix letters from different sets.
var swizzleLetterSets = [][4]byte{{'x', 'y', 'z', 'w'}, {'r', 'g', 'b', 'a'}, {'s', 't', 'p', 'q'}}

func parseSwizzle(name string, sourceComponents int) (ast.SwizzleMask, bool) {
	if name == "" || len(name) > 4 {
		return ast.SwizzleMask{}, false
	}
	selectors := make([]ast.SwizzleSelector, 0, len(name))
	letterSet := -1
	for _, ch := range []byte(name) {
		switch ch {
		case '0':
			selectors = append(selectors, ast.SwizzleSelector{Kind: ast.SwizzleLiteralZero})
			continue
		case '1':
			selectors = append(selectors, ast.SwizzleSelector{Kind: ast.SwizzleLiteralOne})
			continue
		}
		idx, ok := swizzleIndex(ch)
		if !ok || idx >= sourceComponents {
			return ast.SwizzleMask{}, false
		}
		for si, set := range swizzleLetterSets {
			if set[idx] == ch {
				if letterSet >= 0 && letterSet != si {
					return ast.SwizzleMask{}, false
				}
				letterSet = si
			}
		}
		selectors = append(selectors, ast.SwizzleSelector{Kind: ast.SwizzleComponent, ComponentIndex: idx})
	}
	return ast.SwizzleMask{Selectors: selectors}, true
}

func swizzleIndex(ch byte) (int, bool) {
	for _, set := range swizzleLetterSets {
		for i, letter := range set {
			if letter == ch {
				return i, true
			}
		}
	}
	return 0, false
}

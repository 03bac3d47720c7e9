package resolve

import "github.com/shaderforge/shaderc/ast"

// builtinKindByName maps every `gl_*` spelling to its BuiltinKind,
// the table Ident resolution's priority-chain step (a) consults first.
var builtinKindByName = map[string]ast.BuiltinKind{
	"gl_Position":            ast.BuiltinPosition,
	"gl_PositionIn":          ast.BuiltinPositionIn,
	"gl_PointSize":           ast.BuiltinPointSize,
	"gl_PointSizeIn":         ast.BuiltinPointSizeIn,
	"gl_ClipDistance":        ast.BuiltinClipDistance,
	"gl_VertexID":            ast.BuiltinVertexID,
	"gl_InstanceID":          ast.BuiltinInstanceID,
	"gl_DrawID":              ast.BuiltinDrawID,
	"gl_BaseVertex":          ast.BuiltinBaseVertex,
	"gl_BaseInstance":        ast.BuiltinBaseInstance,
	"gl_PatchVerticesIn":     ast.BuiltinPatchVerticesIn,
	"gl_PrimitiveID":         ast.BuiltinPrimitiveID,
	"gl_PrimitiveIDIn":       ast.BuiltinPrimitiveIDIn,
	"gl_InvocationID":        ast.BuiltinInvocationID,
	"gl_Layer":               ast.BuiltinLayer,
	"gl_ViewportIndex":       ast.BuiltinViewportIndex,
	"gl_TessLevelOuter":      ast.BuiltinTessLevelOuter,
	"gl_TessLevelInner":      ast.BuiltinTessLevelInner,
	"gl_TessCoord":           ast.BuiltinTessCoord,
	"gl_FragCoord":           ast.BuiltinFragCoord,
	"gl_FrontFacing":         ast.BuiltinFrontFacing,
	"gl_PointCoord":          ast.BuiltinPointCoord,
	"gl_SampleID":            ast.BuiltinSampleID,
	"gl_SamplePosition":      ast.BuiltinSamplePosition,
	"gl_SampleMaskIn":        ast.BuiltinSampleMaskIn,
	"gl_SampleMask":          ast.BuiltinSampleMask,
	"gl_Target0":             ast.BuiltinTarget0,
	"gl_Target1":             ast.BuiltinTarget1,
	"gl_Target2":             ast.BuiltinTarget2,
	"gl_Target3":             ast.BuiltinTarget3,
	"gl_Target4":             ast.BuiltinTarget4,
	"gl_Target5":             ast.BuiltinTarget5,
	"gl_Target6":             ast.BuiltinTarget6,
	"gl_Target7":             ast.BuiltinTarget7,
	"gl_FragDepth":           ast.BuiltinFragDepth,
	"gl_NumWorkGroups":       ast.BuiltinNumWorkGroups,
	"gl_GlobalInvocationID":  ast.BuiltinGlobalInvocationID,
	"gl_LocalInvocationID":   ast.BuiltinLocalInvocationID,
	"gl_WorkGroupID":         ast.BuiltinWorkGroupID,
	"gl_LocalInvocationIndex": ast.BuiltinLocalInvocationIndex,
}

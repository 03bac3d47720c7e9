package wgsl

import (
	"strings"
	"testing"
)

// tryParse attempts to parse WGSL source and returns the first error, if any.
func tryParse(source string) error {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return err
	}
	parser := NewParser(tokens)
	_, err = parser.Parse()
	return err
}

// tryLower attempts to parse and lower WGSL source and returns the first error, if any.
func tryLower(source string) error {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return err
	}
	parser := NewParser(tokens)
	ast, err := parser.Parse()
	if err != nil {
		return err
	}
	_, err = LowerWithSource(ast, source)
	return err
}

// TestWGSLErrors_ParseErrors tests that invalid WGSL is correctly rejected at parse time.
func TestWGSLErrors_ParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		errContains string
	}{
		// --- Unexpected token at top level ---
		{
			name:        "unexpected_token_at_top_level",
			source:      `42;`,
			errContains: "unexpected token",
		},
		{
			name:        "unexpected_keyword_at_top_level",
			source:      `return 0;`,
			errContains: "unexpected token",
		},

		// --- Missing function name ---
		{
			name:        "missing_function_name",
			source:      `fn () {}`,
			errContains: "expected function name",
		},

		// --- Missing opening paren in function ---
		{
			name:        "missing_function_open_paren",
			source:      `fn foo {}`,
			errContains: "expected (",
		},

		// --- Missing closing paren in function (parser tries to parse param) ---
		{
			name:        "missing_function_close_paren",
			source:      `fn foo( {}`,
			errContains: "expected parameter name",
		},

		// --- Missing function body brace ---
		{
			name:        "missing_function_body_open_brace",
			source:      `fn foo() return 0;`,
			errContains: "expected {",
		},

		// --- Missing struct name ---
		{
			name:        "missing_struct_name",
			source:      `struct { x: f32 }`,
			errContains: "expected struct name",
		},

		// --- Missing struct opening brace ---
		{
			name:        "missing_struct_open_brace",
			source:      `struct Foo x: f32`,
			errContains: "expected {",
		},

		// --- Missing member name in struct ---
		{
			name:        "missing_struct_member_name",
			source:      `struct Foo { : f32 }`,
			errContains: "expected member name",
		},

		// --- Missing colon in struct member ---
		{
			name:        "missing_struct_member_colon",
			source:      `struct Foo { x f32 }`,
			errContains: "expected :",
		},

		// --- Expected type in struct member ---
		{
			name:        "missing_struct_member_type",
			source:      `struct Foo { x: }`,
			errContains: "expected type",
		},

		// --- Missing variable name ---
		{
			name:        "missing_var_name",
			source:      `var : f32;`,
			errContains: "expected variable name",
		},

		// --- Missing constant name ---
		{
			name:        "missing_const_name",
			source:      `const = 1;`,
			errContains: "expected constant name",
		},

		// --- Missing const initializer (=) ---
		{
			name:        "missing_const_equal_sign",
			source:      `const x 1;`,
			errContains: "expected =",
		},

		// --- Missing let name ---
		{
			name:        "missing_let_name_top_level",
			source:      `let = 1;`,
			errContains: "expected variable name",
		},

		// --- Missing alias name ---
		{
			name:        "missing_alias_name",
			source:      `alias = f32;`,
			errContains: "expected alias name",
		},

		// --- Missing alias equal sign ---
		{
			name:        "missing_alias_equal",
			source:      `alias MyFloat f32;`,
			errContains: "expected =",
		},

		// --- Missing parameter name ---
		{
			name:        "missing_param_name",
			source:      `fn foo(: f32) {}`,
			errContains: "expected parameter name",
		},

		// --- Missing parameter colon ---
		{
			name:        "missing_param_colon",
			source:      `fn foo(x f32) {}`,
			errContains: "expected :",
		},

		// --- Missing parameter type ---
		{
			name:        "missing_param_type",
			source:      `fn foo(x: ) {}`,
			errContains: "expected type",
		},

		// --- Missing return type after arrow ---
		{
			name:        "missing_return_type",
			source:      `fn foo() -> {}`,
			errContains: "expected type",
		},

		// --- Unexpected token in expression ---
		{
			name:        "unexpected_token_in_expression",
			source:      `fn foo() { let x = ; }`,
			errContains: "unexpected token",
		},

		// --- Missing closing brace in function body ---
		{
			name:        "missing_function_close_brace",
			source:      `fn foo() { let x = 1;`,
			errContains: "expected }",
		},

		// --- Missing for loop open paren ---
		{
			name:        "missing_for_open_paren",
			source:      `fn foo() { for {} }`,
			errContains: "expected (",
		},

		// --- Missing member name after dot ---
		{
			name:        "missing_member_name_after_dot",
			source:      `fn foo() { let x = a.; }`,
			errContains: "expected member name",
		},

		// --- Missing closing paren in expression ---
		{
			name:        "missing_close_paren_in_expr",
			source:      `fn foo() { let x = (1 + 2; }`,
			errContains: "expected )",
		},

		// --- Missing let equal sign in function ---
		{
			name:        "missing_let_equal_in_function",
			source:      `fn foo() { let x 1; }`,
			errContains: "expected =",
		},

		// --- Expected case or default in switch ---
		{
			name:        "expected_case_or_default",
			source:      `fn foo() { switch x { 1 {} } }`,
			errContains: "expected 'case' or 'default'",
		},

		// --- Missing switch body brace ---
		{
			name:        "missing_switch_open_brace",
			source:      `fn foo() { switch x case 1 {} }`,
			errContains: "expected {",
		},

		// --- Ptr type missing address space ---
		{
			name:        "ptr_missing_address_space",
			source:      `fn foo(x: ptr<, f32>) {}`,
			errContains: "expected address space",
		},

		// --- Ptr type missing comma ---
		{
			name:        "ptr_missing_comma",
			source:      `fn foo(x: ptr<function f32>) {}`,
			errContains: "expected ,",
		},

		// --- Array missing closing angle bracket ---
		{
			name:        "array_missing_close_angle",
			source:      `fn foo(x: array<f32) {}`,
			errContains: "expected >",
		},

		// --- Bitcast missing angle bracket ---
		{
			name:        "bitcast_missing_less",
			source:      `fn foo() { let x = bitcast(1u); }`,
			errContains: "expected <",
		},

		// --- Loop missing opening brace ---
		{
			name:        "loop_missing_open_brace",
			source:      `fn foo() { loop return 0; }`,
			errContains: "expected {",
		},

		// --- Missing closing brace in struct ---
		{
			name:        "missing_struct_close_brace",
			source:      `struct Foo { x: f32`,
			errContains: "expected }",
		},

		// --- Const missing initializer value ---
		{
			name:        "const_missing_value",
			source:      `const X = ;`,
			errContains: "unexpected token",
		},

		// --- Multiple parsing errors (synchronization) ---
		{
			name:        "multiple_errors_synchronize",
			source:      `42; fn foo() {}`,
			errContains: "unexpected token",
		},

		// --- binding_array missing < ---
		{
			name:        "binding_array_missing_less",
			source:      `fn foo(x: binding_array) {}`,
			errContains: "expected <",
		},

		// --- Loop missing closing brace ---
		{
			name:        "loop_missing_close_brace",
			source:      `fn foo() { loop { break;`,
			errContains: "expected }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tryParse(tt.source)
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
			}
		})
	}
}


// TestWGSLErrors_OverrideParse covers the override-declaration grammar.
func TestWGSLErrors_OverrideParse(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		errContains string
	}{
		{
			name:        "override_no_type_no_init",
			source:      `override x;`,
			errContains: "override without initializer requires a type annotation",
		},
		{
			name:        "override_missing_name",
			source:      `override : f32;`,
			errContains: "expected override name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tryParse(tt.source)
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

// TestWGSLErrors_LowerErrors tests that WGSL the lowerer itself rejects
// (bad types, malformed shapes) fails with a position-carrying error.
// Identifier and call resolution failures surface later, in the semantic
// resolver, and are covered there.
func TestWGSLErrors_LowerErrors(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		errContains string
	}{
		// --- Unknown type ---
		{
			name:        "unknown_type_in_var",
			source:      `fn foo() { var x: unknown_type; }`,
			errContains: "unknown type unknown_type",
		},
		{
			name:        "unknown_type_in_function_param",
			source:      `fn foo(x: nonexistent_type) {}`,
			errContains: "unknown type nonexistent_type",
		},
		{
			name:        "unknown_type_in_return",
			source:      `fn foo() -> bogus_type { return 0.0; }`,
			errContains: "unknown type bogus_type",
		},

		// --- Global var unknown type ---
		{
			name:        "global_var_unknown_type",
			source:      `var<private> x: fake_type;`,
			errContains: "unknown type fake_type",
		},

		// --- Struct member unknown type ---
		{
			name:        "struct_member_unknown_type",
			source:      `struct Foo { x: some_undefined_type }`,
			errContains: "unknown type some_undefined_type",
		},

		// --- Unknown parameterized type ---
		{
			name:        "unknown_parameterized_type",
			source:      `fn foo(x: custom_thing<f32>) {}`,
			errContains: "unknown type custom_thing",
		},

		// --- Vector with no element type parameter ---
		{
			name:        "vec_missing_type_param",
			source:      `fn foo(v: vec2) {}`,
			errContains: "vec2 needs exactly one type parameter",
		},

		// --- Matrix with bad element type ---
		{
			name:        "mat_bad_element_type",
			source:      `fn foo(m: mat2x2<unknown_elem>) {}`,
			errContains: "unsupported element type",
		},

		// --- Pointer types rejected ---
		{
			name:        "pointer_param",
			source:      `fn foo(p: ptr<function, f32>) {}`,
			errContains: "pointer and binding-array types are not supported",
		},

		// --- Array size must be a literal ---
		{
			name:        "array_size_not_literal",
			source:      `fn foo() { var a: array<f32, 4.5>; }`,
			errContains: "invalid array size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tryLower(tt.source)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errContains)
			}
		})
	}
}

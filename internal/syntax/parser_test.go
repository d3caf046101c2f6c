package syntax

import (
	"errors"
	"testing"

	"github.com/xyproto/natbind/internal/engine"
)

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Parse("test.js", src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize(`var x = 0x1F + 'a\n' !== y;`)
	expected := []struct {
		typ   TokenType
		value string
	}{
		{TOKEN_VAR, "var"},
		{TOKEN_IDENT, "x"},
		{TOKEN_ASSIGN, "="},
		{TOKEN_NUMBER, "0x1F"},
		{TOKEN_PLUS, "+"},
		{TOKEN_STRING, "a\n"},
		{TOKEN_STRICT_NE, "!=="},
		{TOKEN_IDENT, "y"},
		{TOKEN_SEMICOLON, ";"},
		{TOKEN_EOF, ""},
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Type != expected[i].typ || tok.Value != expected[i].value {
			t.Errorf("Token %d: expected %v %q, got %v %q", i, expected[i].typ, expected[i].value, tok.Type, tok.Value)
		}
	}
	if tokens[5].Raw != `'a\n'` {
		t.Errorf("Expected the raw string to keep its quotes, got %q", tokens[5].Raw)
	}
}

func TestTokenPositions(t *testing.T) {
	tokens := Tokenize("a // comment\n  /* block\n */ bb")
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}
	bb := tokens[1]
	if bb.Line != 3 || bb.Column != 5 {
		t.Errorf("Expected bb at 3:5, got %d:%d", bb.Line, bb.Column)
	}
	if bb.Offset != 28 || bb.End != 30 {
		t.Errorf("Expected bb at offsets 28-30, got %d-%d", bb.Offset, bb.End)
	}
}

func TestTokenizeShebang(t *testing.T) {
	tokens := Tokenize("#!/usr/bin/env node\nx")
	if tokens[0].Type != TOKEN_IDENT || tokens[0].Line != 2 {
		t.Errorf("Expected the shebang line to be skipped, got %v on line %d", tokens[0], tokens[0].Line)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"open`, "unterminated string literal"},
		{"'line\nbreak'", "unterminated string literal"},
		{"/* never closed", "unterminated comment"},
		{"a @ b", "unexpected character"},
	}
	for _, tt := range tests {
		tokens := Tokenize(tt.input)
		last := tokens[len(tokens)-1]
		if last.Type != TOKEN_ILLEGAL || last.Value != tt.expected {
			t.Errorf("Tokenize(%q): expected illegal token %q, got %v %q", tt.input, tt.expected, last.Type, last.Value)
		}
	}
}

func TestPrint(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"var a = 1, b;", "var a = 1, b;"},
		{`let s = 'x' + "y"`, `let s = 'x' + "y";`},
		{"function add(a, b) { return a + b }", "function add(a, b) {\n  return a + b;\n}"},
		{"if (a) b(); else { c() }", "if (a) b(); else {\n  c();\n}"},
		{"for (let i = 0; i < 3; i++) {}", "for (let i = 0; i < 3; i++) {}"},
		{"while (!done) step()", "while (!done) step();"},
		{"x = typeof y === 'string' ? -1 : +2;", "x = typeof y === 'string' ? -1 : +2;"},
		{"var o = {a: 1, 'b c': [1, 2], d};", "var o = {a: 1, 'b c': [1, 2], d: d};"},
		{"new Foo;", "new Foo;"},
		{"new a.B(1)", "new a.B(1);"},
		{"o.list[0] += 2;", "o.list[0] += 2;"},
		{"var f = function named() {};", "var f = function named() {};"},
		{"(a + b) * c;", "(a + b) * c;"},
		{"a()\nb()", "a();\nb();"},
		{"--n; n++", "--n;\nn++;"},
		{";", ";"},
	}
	for _, tt := range tests {
		prog := mustParse(t, tt.input)
		if got := Print(prog); got != tt.expected {
			t.Errorf("Print(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestPrecedence(t *testing.T) {
	prog := mustParse(t, "a || b && c == d + e * f;")
	or, ok := prog.Stmts[0].(*ExprStmt).X.(*BinaryExpr)
	if !ok || or.Op != OpOr {
		t.Fatalf("Expected || at the top, got %v", prog.Stmts[0])
	}
	and := or.Right.(*BinaryExpr)
	if and.Op != OpAnd {
		t.Fatalf("Expected && under ||, got %s", and.Op)
	}
	eq := and.Right.(*BinaryExpr)
	add := eq.Right.(*BinaryExpr)
	mul := add.Right.(*BinaryExpr)
	if eq.Op != OpEq || add.Op != OpAdd || mul.Op != OpMul {
		t.Errorf("Expected == + * nesting, got %s %s %s", eq.Op, add.Op, mul.Op)
	}

	left := mustParse(t, "a - b - c;").Stmts[0].(*ExprStmt).X.(*BinaryExpr)
	if _, ok := left.Left.(*BinaryExpr); !ok {
		t.Errorf("Expected subtraction to associate to the left")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		line  int
	}{
		{"var = ;", 1},
		{"const x;", 1},
		{"foo(", 1},
		{"{", 1},
		{"a b", 1},
		{"1 = 2;", 1},
		{"var a = 1;\nvar b = {c 1};", 2},
		{"function () {}", 1},
		{"x = 'unterminated", 1},
	}
	for _, tt := range tests {
		_, err := Parse("bad.js", tt.input)
		if !errors.Is(err, engine.ErrParseFailure) {
			t.Errorf("Parse(%q): expected a parse failure, got %v", tt.input, err)
			continue
		}
		var ce *engine.CompilerError
		if !errors.As(err, &ce) {
			t.Errorf("Parse(%q): expected a *CompilerError", tt.input)
			continue
		}
		if ce.Location.File != "bad.js" || ce.Location.Line != tt.line {
			t.Errorf("Parse(%q): expected bad.js line %d, got %s", tt.input, tt.line, ce.Location)
		}
		if ce.Context.SourceLine == "" {
			t.Errorf("Parse(%q): expected the source line in the error context", tt.input)
		}
	}
}

func TestScopes(t *testing.T) {
	src := `var g = 1;
function f(p) {
  var local = p;
  { let inner = 2; var hoisted = 3; }
}
{ let blockOnly = 4; var top = 5; }
`
	prog := mustParse(t, src)
	global := prog.Scope

	if b := global.Lookup("g"); b == nil || b.Kind != BindVar {
		t.Errorf("Expected g as a global var, got %v", b)
	}
	if b := global.Lookup("f"); b == nil || b.Kind != BindFunction || b.Func == nil {
		t.Errorf("Expected f as a global function, got %v", b)
	}
	if global.Lookup("top") == nil {
		t.Errorf("Expected var in a block to be hoisted to the global scope")
	}
	for _, name := range []string{"local", "inner", "hoisted", "blockOnly", "p"} {
		if global.Lookup(name) != nil {
			t.Errorf("Expected %s not to be global", name)
		}
	}

	fn := prog.Stmts[1].(*FuncDecl).Func
	if b := fn.Scope.Lookup("p"); b == nil || b.Kind != BindParam {
		t.Errorf("Expected p as a parameter, got %v", b)
	}
	if fn.Scope.Lookup("hoisted") == nil || fn.Scope.Lookup("local") == nil {
		t.Errorf("Expected local and hoisted in the function scope")
	}
	if fn.Scope.Lookup("inner") != nil {
		t.Errorf("Expected inner to stay in its block")
	}
	if fn.Scope.FindBinding("g") != global.Lookup("g") {
		t.Errorf("Expected g to resolve outward to the global binding")
	}

	block := prog.Stmts[2].(*BlockStmt)
	if b := block.Scope.Lookup("blockOnly"); b == nil || b.Kind != BindLet {
		t.Errorf("Expected blockOnly as a let in the block scope, got %v", b)
	}
}

func TestHoistedBindingVisibleBeforeDeclaration(t *testing.T) {
	prog := mustParse(t, "use(x);\nvar x = 10;")
	call := prog.Stmts[0].(*ExprStmt).X.(*CallExpr)
	id := call.Args[0].(*Ident)
	b := id.FindBinding("x")
	if b == nil {
		t.Fatalf("Expected x to be visible before its declaration")
	}
	if lit, ok := b.Init.(*NumberLit); !ok || lit.Value != 10 {
		t.Errorf("Expected the initializer 10, got %v", b.Init)
	}
	if callee, ok := call.CalleeName(); !ok || callee.FindBinding("use") != nil {
		t.Errorf("Expected use to be an unbound bare callee")
	}
}

func TestNamedFunctionExpressionScope(t *testing.T) {
	prog := mustParse(t, "var f = function inner(n) { return inner; };")
	if prog.Scope.Lookup("inner") != nil {
		t.Errorf("Expected a named function expression not to bind in the enclosing scope")
	}
	fn := prog.Stmts[0].(*VarDecl).Decls[0].Init.(*FuncLit)
	if fn.Scope.Lookup("inner") == nil {
		t.Errorf("Expected the function name to bind inside its own scope")
	}
}

func TestProgramText(t *testing.T) {
	prog := mustParse(t, "log(0x10,   'single')")
	call := prog.Stmts[0].(*ExprStmt).X.(*CallExpr)
	tests := []struct {
		node     Node
		expected string
	}{
		{call, "log(0x10,   'single')"},
		{call.Args[0], "0x10"},
		{call.Args[1], "'single'"},
	}
	for _, tt := range tests {
		if got := prog.Text(tt.node); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
	if lit := call.Args[0].(*NumberLit); lit.Value != 16 {
		t.Errorf("Expected 0x10 to parse as 16, got %v", lit.Value)
	}
}

func TestObjectKeys(t *testing.T) {
	prog := mustParse(t, `x = {a: 1, "b": 2, 3: 3, 1.50: 4, if: 5};`)
	obj := prog.Stmts[0].(*ExprStmt).X.(*AssignExpr).Value.(*ObjectLit)
	expected := []string{"a", "b", "3", "1.5", "if"}
	if len(obj.Props) != len(expected) {
		t.Fatalf("Expected %d properties, got %d", len(expected), len(obj.Props))
	}
	for i, prop := range obj.Props {
		if prop.Key != expected[i] {
			t.Errorf("Property %d: expected key %q, got %q", i, expected[i], prop.Key)
		}
	}
}

func TestPrintNoop(t *testing.T) {
	prog := mustParse(t, "a();\nb();\nc();")
	prog.Stmts[1] = &NoopStmt{Marker: "package"}
	if got := Print(prog); got != "a();\nc();" {
		t.Errorf("Expected no-ops to be skipped, got %q", got)
	}
	ph := &Placeholder{Symbol: "__nb_app_0", Args: []string{"x + 1", `"s"`}}
	if got := ph.String(); got != `__nb_app_0(x + 1, "s")` {
		t.Errorf("Expected placeholder call text, got %q", got)
	}
}

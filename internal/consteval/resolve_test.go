package consteval

import (
	"errors"
	"math"
	"testing"

	"github.com/xyproto/natbind/internal/engine"
	"github.com/xyproto/natbind/internal/syntax"
)

// lastArgument parses code and returns the first argument of its last statement, which must be a call
func lastArgument(t *testing.T, code string) syntax.Expr {
	t.Helper()
	prog, err := syntax.Parse("test.js", code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	stmt, ok := prog.Stmts[len(prog.Stmts)-1].(*syntax.ExprStmt)
	if !ok {
		t.Fatalf("Expected an expression statement, got %T", prog.Stmts[len(prog.Stmts)-1])
	}
	call, ok := stmt.X.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		t.Fatalf("Expected a call with arguments, got %s", stmt.X)
	}
	return call.Args[0]
}

func TestResolveValues(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"string", `f("hello")`, `"hello"`},
		{"number", `f(42)`, `42`},
		{"hex", `f(0xff)`, `255`},
		{"boolean", `f(true)`, `true`},
		{"null", `f(null)`, `null`},
		{"paren", `f((("x")))`, `"x"`},
		{"array", `f([1, "two", [false]])`, `[1,"two",[false]]`},
		{"object", `f({a: 1, "b": [2]})`, `{"a":1,"b":[2]}`},
		{"last key wins", `f({a: 1, b: 2, a: 3})`, `{"a":3,"b":2}`},
		{"identifier", "var x = \"v\"\nf(x)", `"v"`},
		{"chained identifiers", "const a = 1\nconst b = a\nf([b])", `[1]`},
		{"concatenation", "var w = 10\nf(\"a\" + w)", `"a10"`},
		{"arithmetic", `f(2 * 3 + 4 % 3)`, `7`},
		{"precedence with parens", `f((1 + 2) * 3)`, `9`},
		{"comparison", `f(1 < 2)`, `true`},
		{"loose equality", `f("1" == 1)`, `true`},
		{"strict equality", `f("1" === 1)`, `false`},
		{"and short-circuit", `f(0 && missing)`, `0`},
		{"or short-circuit", `f("x" || missing)`, `"x"`},
		{"negation", `f(-5)`, `-5`},
		{"not", `f(!"")`, `true`},
		{"typeof", `f(typeof "s")`, `"string"`},
		{"float formatting", `f("" + 0.1 * 3)`, `"0.30000000000000004"`},
		{"large number formatting", `f("" + 1e21)`, `"1e+21"`},
		{"array to string", `f("" + [1, 2])`, `"1,2"`},
		{"composites compare by identity", `f(["[object Object]"] == {})`, `false`},
		{"array against object", `f([] == {})`, `false`},
		{"array against string", `f([1, 2] == "1,2")`, `true`},
		{"string order by code units", "f(\"\uff61\" < \"\U0001F600\")", `false`},
		{"string order within the basic plane", `f("a" < "b")`, `true`},
		{"redeclared var reads the earlier value", "var a = 1\nvar a = a + 1\nf(\"p\" + a)", `"p2"`},
		{"redeclaration chain", "var a = 1\nvar a = a + 1\nvar a = a * 3\nf(a)", `6`},
		{"redeclaration without initializer", "var a = 7\nvar a\nf(a)", `7`},
		{"not a number encodes as null", `f(0/0)`, `null`},
		{"infinity encodes as null", `f([1/0, -1/0])`, `[null,null]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Resolve(lastArgument(t, tt.code))
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveInsideFunctionUsesInnerScope(t *testing.T) {
	code := `
		var w = 1;
		function g() {
			var w = 2;
			f("n" + w);
		}
	`
	prog, err := syntax.Parse("test.js", code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	body := prog.Stmts[1].(*syntax.FuncDecl).Func.Body
	call := body.Stmts[1].(*syntax.ExprStmt).X.(*syntax.CallExpr)
	v, err := Resolve(call.Args[0])
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if s, _ := v.Str(); s != "n2" {
		t.Fatalf("Expected n2, got %s", v)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		sentinel error
		ident    string
	}{
		{"unbound identifier", `f(missing)`, engine.ErrUnresolvedReference, "missing"},
		{"unbound in binary", `f("a" + w)`, engine.ErrUnresolvedReference, "w"},
		{"call", `f(g())`, engine.ErrNotConstant, ""},
		{"member", `f(a.b)`, engine.ErrNotConstant, ""},
		{"function binding", "function g() {}\nf(g)", engine.ErrNotConstant, ""},
		{"uninitialized", "var u\nf(u)", engine.ErrNotConstant, ""},
		{"self reference", "var s = s + 1\nf(s)", engine.ErrNotConstant, ""},
		{"mutual reference", "var a = b\nvar b = a\nf(a)", engine.ErrNotConstant, ""},
		{"function expression", `f(function() {})`, engine.ErrNotConstant, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(lastArgument(t, tt.code))
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("Expected %v, got %v", tt.sentinel, err)
			}
			var ce *engine.CompilerError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected a *engine.CompilerError, got %T", err)
			}
			if tt.ident != "" && ce.Name != tt.ident {
				t.Errorf("Expected error to name %q, got %q", tt.ident, ce.Name)
			}
			if ce.Location.Line == 0 {
				t.Errorf("Expected a location, got %v", ce.Location)
			}
		})
	}
}

func TestUnresolvedSuggestion(t *testing.T) {
	_, err := Resolve(lastArgument(t, "var count = 1\nf(cuont)"))
	var ce *engine.CompilerError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected a compiler error, got %v", err)
	}
	if ce.Context.Suggestion != "did you mean 'count'?" {
		t.Errorf("Unexpected suggestion %q", ce.Context.Suggestion)
	}
}

func TestResolveObject(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{`f({foo: "bar"})`, `{"foo":"bar"}`},
		{`f(["x", "y"])`, `{"0":"x","1":"y"}`},
		{`f("ab")`, `{"0":"a","1":"b"}`},
		{`f(5)`, `{}`},
		{`f(null)`, `{}`},
	}
	for _, tt := range tests {
		obj, err := ResolveObject(lastArgument(t, tt.code))
		if err != nil {
			t.Fatalf("%s: ResolveObject failed: %v", tt.code, err)
		}
		if got := ObjectValue(obj).String(); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.code, tt.want, got)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{1e21, "1e+21"},
		{123456789012, "123456789012"},
		{1e-7, "1e-7"},
		{0.000001, "0.000001"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueJSONKeepsKeyOrder(t *testing.T) {
	var v Value
	if err := v.UnmarshalJSON([]byte(`{"z":1,"a":{"y":[true,null],"b":"s"}}`)); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	if got := v.String(); got != `{"z":1,"a":{"y":[true,null],"b":"s"}}` {
		t.Fatalf("Unexpected round trip %s", got)
	}
	if keys := v.Object().Keys(); keys[0] != "z" || keys[1] != "a" {
		t.Errorf("Expected insertion order, got %v", keys)
	}
}

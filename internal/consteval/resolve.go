// Package consteval statically evaluates the arguments of declaration
// markers. Only values fully known at compile time are accepted; anything
// that needs the program to run is an error, never a runtime fallback.
package consteval

import (
	"fmt"
	"strconv"

	"github.com/xyproto/natbind/internal/engine"
	"github.com/xyproto/natbind/internal/syntax"
)

// Evaluator resolves expressions to values. It tracks the bindings being
// resolved so that self-referencing initializers fail instead of looping.
type Evaluator struct {
	resolving map[*syntax.Binding]bool
}

func NewEvaluator() *Evaluator {
	return &Evaluator{resolving: make(map[*syntax.Binding]bool)}
}

// Resolve is a convenience wrapper around a fresh Evaluator
func Resolve(node syntax.Expr) (Value, error) {
	return NewEvaluator().Resolve(node)
}

// ResolveObject is a convenience wrapper around a fresh Evaluator
func ResolveObject(node syntax.Expr) (*Object, error) {
	return NewEvaluator().ResolveObject(node)
}

// Resolve turns node into a compile-time value. Errors are *engine.CompilerError.
func (ev *Evaluator) Resolve(node syntax.Expr) (Value, error) {
	switch n := node.(type) {
	case *syntax.NumberLit:
		return Number(n.Value), nil
	case *syntax.StringLit:
		return String(n.Value), nil
	case *syntax.BoolLit:
		return Bool(n.Value), nil
	case *syntax.NullLit:
		return Null(), nil
	case *syntax.ParenExpr:
		return ev.Resolve(n.X)
	case *syntax.ArrayLit:
		elems := make([]Value, 0, len(n.Elements))
		for _, elem := range n.Elements {
			v, err := ev.Resolve(elem)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return Array(elems...), nil
	case *syntax.ObjectLit:
		obj := NewObject()
		for _, prop := range n.Props {
			v, err := ev.Resolve(prop.Value)
			if err != nil {
				return Value{}, err
			}
			obj.Set(prop.Key, v)
		}
		return ObjectValue(obj), nil
	case *syntax.Ident:
		b := n.FindBinding(n.Name)
		if b == nil {
			candidates := engine.SimilarNames(n.Name, n.Scope.VisibleNames(), 1)
			return Value{}, engine.UnresolvedReferenceError(n.Name, n.Pos.Location(), candidates)
		}
		return ev.resolveBinding(b, n.Pos)
	case *syntax.UnaryExpr:
		x, err := ev.Resolve(n.X)
		if err != nil {
			return Value{}, err
		}
		return ev.unary(n, x)
	case *syntax.BinaryExpr:
		return ev.evalBinary(n, bindingTable(n.Scope))
	}
	return Value{}, engine.NotConstantError(describe(node), node.Span().Location())
}

// ResolveObject resolves node and converts the result to a key/value
// mapping whatever its shape: arrays and strings are keyed by index and
// other scalars give an empty mapping.
func (ev *Evaluator) ResolveObject(node syntax.Expr) (*Object, error) {
	v, err := ev.Resolve(node)
	if err != nil {
		return nil, err
	}
	return AsObject(v), nil
}

// AsObject converts v to a mapping the way Object.assign({}, v) would
func AsObject(v Value) *Object {
	switch v.kind {
	case KindObject:
		return v.obj
	case KindArray:
		obj := NewObject()
		for i, elem := range v.arr {
			obj.Set(strconv.Itoa(i), elem)
		}
		return obj
	case KindString:
		obj := NewObject()
		i := 0
		for _, r := range v.s {
			obj.Set(strconv.Itoa(i), String(string(r)))
			i++
		}
		return obj
	}
	return NewObject()
}

// resolveBinding resolves the initializer a name is bound to. A
// redeclared var that reads its own name, or has no initializer, sees the
// value of the declaration before it.
func (ev *Evaluator) resolveBinding(b *syntax.Binding, use syntax.Pos) (Value, error) {
	for b.Prev != nil && (ev.resolving[b] || (b.Kind == syntax.BindVar && b.Init == nil)) {
		b = b.Prev
	}
	switch {
	case b.Kind == syntax.BindFunction:
		return Value{}, engine.NotConstantError(fmt.Sprintf("function '%s'", b.Name), use.Location())
	case b.Kind == syntax.BindParam:
		return Value{}, engine.NotConstantError(fmt.Sprintf("parameter '%s'", b.Name), use.Location())
	case b.Init == nil:
		return Value{}, engine.NotConstantError(fmt.Sprintf("uninitialized variable '%s'", b.Name), use.Location())
	case ev.resolving[b]:
		return Value{}, engine.NotConstantError(fmt.Sprintf("'%s' (its initializer refers to itself)", b.Name), use.Location())
	}
	ev.resolving[b] = true
	defer delete(ev.resolving, b)
	return ev.Resolve(b.Init)
}

// bindingTable collects the bindings a binary expression may refer to: the
// innermost enclosing scope that declares variables, or the outermost scope
// when none does
func bindingTable(scope *syntax.Scope) map[string]*syntax.Binding {
	if scope == nil {
		return nil
	}
	for !scope.HasVariables() && scope.Parent != nil {
		scope = scope.Parent
	}
	table := make(map[string]*syntax.Binding)
	for _, b := range scope.Bindings() {
		table[b.Name] = b
	}
	return table
}

// evalBinary evaluates an operator expression against table. && and ||
// short-circuit and yield an operand, like the language does.
func (ev *Evaluator) evalBinary(n *syntax.BinaryExpr, table map[string]*syntax.Binding) (Value, error) {
	left, err := ev.operand(n.Left, table)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case syntax.OpAnd:
		if !Truthy(left) {
			return left, nil
		}
		return ev.operand(n.Right, table)
	case syntax.OpOr:
		if Truthy(left) {
			return left, nil
		}
		return ev.operand(n.Right, table)
	}
	right, err := ev.operand(n.Right, table)
	if err != nil {
		return Value{}, err
	}
	v, err := applyBinary(n.Op, left, right)
	if err != nil {
		return Value{}, engine.NotConstantError(err.Error(), n.Pos.Location())
	}
	return v, nil
}

// operand evaluates one side of a binary expression. Free identifiers are
// looked up in table only.
func (ev *Evaluator) operand(e syntax.Expr, table map[string]*syntax.Binding) (Value, error) {
	switch n := e.(type) {
	case *syntax.Ident:
		b, ok := table[n.Name]
		if !ok {
			names := make([]string, 0, len(table))
			for name := range table {
				names = append(names, name)
			}
			return Value{}, engine.UnresolvedReferenceError(n.Name, n.Pos.Location(), engine.SimilarNames(n.Name, names, 1))
		}
		return ev.resolveBinding(b, n.Pos)
	case *syntax.ParenExpr:
		return ev.operand(n.X, table)
	case *syntax.BinaryExpr:
		return ev.evalBinary(n, table)
	case *syntax.UnaryExpr:
		x, err := ev.operand(n.X, table)
		if err != nil {
			return Value{}, err
		}
		return ev.unary(n, x)
	}
	return ev.Resolve(e)
}

func (ev *Evaluator) unary(n *syntax.UnaryExpr, x Value) (Value, error) {
	v, err := applyUnary(n.Op, x)
	if err != nil {
		return Value{}, engine.NotConstantError(err.Error(), n.Pos.Location())
	}
	return v, nil
}

// describe names a node kind for a diagnostic, including the callee for calls
func describe(node syntax.Expr) string {
	switch n := node.(type) {
	case *syntax.CallExpr:
		return fmt.Sprintf("call to %s", n.Callee)
	case *syntax.NewExpr:
		return fmt.Sprintf("new %s", n.Callee)
	}
	return "a " + node.Kind().String()
}

package consteval

import (
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/xyproto/natbind/internal/syntax"
)

// applyUnary evaluates a unary operator on a resolved operand
func applyUnary(op syntax.Operator, x Value) (Value, error) {
	switch op {
	case syntax.OpNeg:
		return Number(-ToNumber(x)), nil
	case syntax.OpPlus:
		return Number(ToNumber(x)), nil
	case syntax.OpNot:
		return Bool(!Truthy(x)), nil
	case syntax.OpTypeof:
		return String(TypeOf(x)), nil
	}
	return Value{}, fmt.Errorf("unsupported unary operator %s", op)
}

// applyBinary evaluates a non-short-circuit binary operator on resolved operands
func applyBinary(op syntax.Operator, l, r Value) (Value, error) {
	switch op {
	case syntax.OpAdd:
		if isStringy(l) || isStringy(r) {
			return String(ToString(l) + ToString(r)), nil
		}
		return Number(ToNumber(l) + ToNumber(r)), nil
	case syntax.OpSub:
		return Number(ToNumber(l) - ToNumber(r)), nil
	case syntax.OpMul:
		return Number(ToNumber(l) * ToNumber(r)), nil
	case syntax.OpDiv:
		return Number(ToNumber(l) / ToNumber(r)), nil
	case syntax.OpMod:
		return Number(math.Mod(ToNumber(l), ToNumber(r))), nil
	case syntax.OpStrictEq:
		return Bool(strictEqual(l, r)), nil
	case syntax.OpStrictNe:
		return Bool(!strictEqual(l, r)), nil
	case syntax.OpEq:
		return Bool(looseEqual(l, r)), nil
	case syntax.OpNe:
		return Bool(!looseEqual(l, r)), nil
	case syntax.OpLt, syntax.OpGt, syntax.OpLe, syntax.OpGe:
		return Bool(compare(op, l, r)), nil
	}
	return Value{}, fmt.Errorf("unsupported binary operator %s", op)
}

// isStringy reports whether + on this operand concatenates. Arrays and
// objects convert to strings before addition.
func isStringy(v Value) bool {
	switch v.kind {
	case KindString, KindArray, KindObject:
		return true
	}
	return false
}

func strictEqual(l, r Value) bool {
	if l.kind != r.kind {
		return false
	}
	switch l.kind {
	case KindNull:
		return true
	case KindBool:
		return l.b == r.b
	case KindNumber:
		return l.n == r.n
	case KindString:
		return l.s == r.s
	}
	// Distinct composite literals never share identity
	return false
}

func looseEqual(l, r Value) bool {
	if l.kind == r.kind {
		return strictEqual(l, r)
	}
	if l.kind == KindNull || r.kind == KindNull {
		return false
	}
	// Two composites compare by identity, and no two literals share one
	if isComposite(l) && isComposite(r) {
		return false
	}
	if l.kind == KindBool {
		return looseEqual(Number(ToNumber(l)), r)
	}
	if r.kind == KindBool {
		return looseEqual(l, Number(ToNumber(r)))
	}
	if isComposite(l) {
		return looseEqual(String(ToString(l)), r)
	}
	if isComposite(r) {
		return looseEqual(l, String(ToString(r)))
	}
	// number against string
	return ToNumber(l) == ToNumber(r)
}

func isComposite(v Value) bool {
	return v.kind == KindArray || v.kind == KindObject
}

func compare(op syntax.Operator, l, r Value) bool {
	if isStringy(l) && isStringy(r) {
		c := compareUTF16(ToString(l), ToString(r))
		switch op {
		case syntax.OpLt:
			return c < 0
		case syntax.OpGt:
			return c > 0
		case syntax.OpLe:
			return c <= 0
		default:
			return c >= 0
		}
	}
	ln, rn := ToNumber(l), ToNumber(r)
	switch op {
	case syntax.OpLt:
		return ln < rn
	case syntax.OpGt:
		return ln > rn
	case syntax.OpLe:
		return ln <= rn
	default:
		return ln >= rn
	}
}

// compareUTF16 orders strings by UTF-16 code units, so characters outside
// the basic plane sort by their surrogates
func compareUTF16(a, b string) int {
	ua, ub := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	return len(ua) - len(ub)
}

package syntax

// Operator is a unary or binary operator
type Operator int

const (
	OpInvalid Operator = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpStrictEq
	OpStrictNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
	OpPlus
	OpTypeof
)

var operatorText = [...]string{
	OpInvalid:  "?",
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpMod:      "%",
	OpEq:       "==",
	OpNe:       "!=",
	OpStrictEq: "===",
	OpStrictNe: "!==",
	OpLt:       "<",
	OpGt:       ">",
	OpLe:       "<=",
	OpGe:       ">=",
	OpAnd:      "&&",
	OpOr:       "||",
	OpNot:      "!",
	OpNeg:      "-",
	OpPlus:     "+",
	OpTypeof:   "typeof",
}

func (op Operator) String() string {
	if int(op) < len(operatorText) {
		return operatorText[op]
	}
	return "?"
}

// binaryOps maps tokens to binary operators
var binaryOps = map[TokenType]Operator{
	TOKEN_PLUS:      OpAdd,
	TOKEN_MINUS:     OpSub,
	TOKEN_STAR:      OpMul,
	TOKEN_SLASH:     OpDiv,
	TOKEN_MOD:       OpMod,
	TOKEN_EQ:        OpEq,
	TOKEN_NE:        OpNe,
	TOKEN_STRICT_EQ: OpStrictEq,
	TOKEN_STRICT_NE: OpStrictNe,
	TOKEN_LT:        OpLt,
	TOKEN_GT:        OpGt,
	TOKEN_LE:        OpLe,
	TOKEN_GE:        OpGe,
	TOKEN_ANDAND:    OpAnd,
	TOKEN_OROR:      OpOr,
}

// precedence returns the binding power of a binary operator; higher binds tighter
func (op Operator) precedence() int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNe, OpStrictEq, OpStrictNe:
		return 3
	case OpLt, OpGt, OpLe, OpGe:
		return 4
	case OpAdd, OpSub:
		return 5
	case OpMul, OpDiv, OpMod:
		return 6
	default:
		return 0
	}
}

package syntax

import "fmt"

// TokenType classifies a lexical token
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL
	TOKEN_IDENT
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_PLUS
	TOKEN_MINUS
	TOKEN_STAR
	TOKEN_SLASH
	TOKEN_MOD
	TOKEN_ASSIGN      // =
	TOKEN_PLUS_ASSIGN // +=
	TOKEN_MINUS_ASSIGN
	TOKEN_STAR_ASSIGN
	TOKEN_SLASH_ASSIGN
	TOKEN_EQ        // ==
	TOKEN_NE        // !=
	TOKEN_STRICT_EQ // ===
	TOKEN_STRICT_NE // !==
	TOKEN_LT
	TOKEN_GT
	TOKEN_LE
	TOKEN_GE
	TOKEN_ANDAND
	TOKEN_OROR
	TOKEN_BANG
	TOKEN_QUESTION
	TOKEN_COLON
	TOKEN_INCREMENT
	TOKEN_DECREMENT
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACE
	TOKEN_RBRACE
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_COMMA
	TOKEN_SEMICOLON
	TOKEN_DOT
	// Keywords
	TOKEN_VAR
	TOKEN_LET
	TOKEN_CONST
	TOKEN_FUNCTION
	TOKEN_RETURN
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_FOR
	TOKEN_NEW
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NULL
	TOKEN_TYPEOF
)

// keywords maps reserved words to their token types. The marker names
// (package, class, static, native, import) are deliberately absent: they
// lex as identifiers so that user code may shadow them.
var keywords = map[string]TokenType{
	"var":      TOKEN_VAR,
	"let":      TOKEN_LET,
	"const":    TOKEN_CONST,
	"function": TOKEN_FUNCTION,
	"return":   TOKEN_RETURN,
	"if":       TOKEN_IF,
	"else":     TOKEN_ELSE,
	"while":    TOKEN_WHILE,
	"for":      TOKEN_FOR,
	"new":      TOKEN_NEW,
	"true":     TOKEN_TRUE,
	"false":    TOKEN_FALSE,
	"null":     TOKEN_NULL,
	"typeof":   TOKEN_TYPEOF,
}

// Token is a single lexeme with its position in the source
type Token struct {
	Type   TokenType
	Value  string // identifier name, decoded string contents or raw number text
	Raw    string // exact source text of the token
	Line   int
	Column int // 1-indexed
	Offset int // byte offset of the first character
	End    int // byte offset just past the last character
}

// isWord reports whether the token can be used as a property name
func (t Token) isWord() bool {
	if t.Type == TOKEN_IDENT {
		return true
	}
	_, ok := keywords[t.Raw]
	return ok
}

func (t Token) String() string {
	if t.Type == TOKEN_EOF {
		return "end of file"
	}
	return fmt.Sprintf("'%s'", t.Raw)
}

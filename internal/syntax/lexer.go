package syntax

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// processEscapeSequences converts escape sequences in a string literal body to their actual characters
func processEscapeSequences(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var result strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			result.WriteRune(runes[i])
			continue
		}
		switch runes[i+1] {
		case 'n':
			result.WriteRune('\n')
		case 't':
			result.WriteRune('\t')
		case 'r':
			result.WriteRune('\r')
		case '0':
			result.WriteRune(0)
		case 'u':
			if i+5 < len(runes) {
				if code, err := strconv.ParseUint(string(runes[i+2:i+6]), 16, 32); err == nil {
					result.WriteRune(rune(code))
					i += 5
					continue
				}
			}
			result.WriteRune('u')
		case '\n':
			// line continuation
		default:
			// \\ \" \' and unknown escapes all yield the escaped character
			result.WriteRune(runes[i+1])
		}
		i++
	}
	return result.String()
}

// Lexer splits source text into tokens
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int // Position where current line starts
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}

	// Skip shebang line if present (#!/usr/bin/env node)
	if strings.HasPrefix(input, "#!") {
		for l.pos < len(l.input) && l.input[l.pos] != '\n' {
			l.pos++
		}
	}

	return l
}

func (l *Lexer) peekAhead(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

func (l *Lexer) newline() {
	l.line++
	l.lineStart = l.pos
}

// skipSpaceAndComments consumes whitespace, // comments and /* */ comments.
// It returns false if a block comment is left unterminated.
func (l *Lexer) skipSpaceAndComments() bool {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\n':
			l.pos++
			l.newline()
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			l.pos++
		case ch == '/' && l.peekAhead(1) == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case ch == '/' && l.peekAhead(1) == '*':
			l.pos += 2
			for {
				if l.pos >= len(l.input) {
					return false
				}
				if l.input[l.pos] == '*' && l.peekAhead(1) == '/' {
					l.pos += 2
					break
				}
				if l.input[l.pos] == '\n' {
					l.pos++
					l.newline()
					continue
				}
				l.pos++
			}
		default:
			return true
		}
	}
	return true
}

// operators lists punctuation longest first so that maximal munch wins
var operators = []struct {
	text string
	typ  TokenType
}{
	{"===", TOKEN_STRICT_EQ},
	{"!==", TOKEN_STRICT_NE},
	{"==", TOKEN_EQ},
	{"!=", TOKEN_NE},
	{"<=", TOKEN_LE},
	{">=", TOKEN_GE},
	{"&&", TOKEN_ANDAND},
	{"||", TOKEN_OROR},
	{"++", TOKEN_INCREMENT},
	{"--", TOKEN_DECREMENT},
	{"+=", TOKEN_PLUS_ASSIGN},
	{"-=", TOKEN_MINUS_ASSIGN},
	{"*=", TOKEN_STAR_ASSIGN},
	{"/=", TOKEN_SLASH_ASSIGN},
	{"+", TOKEN_PLUS},
	{"-", TOKEN_MINUS},
	{"*", TOKEN_STAR},
	{"/", TOKEN_SLASH},
	{"%", TOKEN_MOD},
	{"=", TOKEN_ASSIGN},
	{"<", TOKEN_LT},
	{">", TOKEN_GT},
	{"!", TOKEN_BANG},
	{"?", TOKEN_QUESTION},
	{":", TOKEN_COLON},
	{"(", TOKEN_LPAREN},
	{")", TOKEN_RPAREN},
	{"{", TOKEN_LBRACE},
	{"}", TOKEN_RBRACE},
	{"[", TOKEN_LBRACKET},
	{"]", TOKEN_RBRACKET},
	{",", TOKEN_COMMA},
	{";", TOKEN_SEMICOLON},
	{".", TOKEN_DOT},
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// NextToken scans the next token. Malformed input yields TOKEN_ILLEGAL with
// a description in Value.
func (l *Lexer) NextToken() Token {
	if !l.skipSpaceAndComments() {
		return l.token(TOKEN_ILLEGAL, len(l.input), "unterminated comment")
	}

	if l.pos >= len(l.input) {
		return Token{Type: TOKEN_EOF, Line: l.line, Column: l.pos - l.lineStart + 1, Offset: l.pos, End: l.pos}
	}

	ch := l.input[l.pos]

	// String literal
	if ch == '"' || ch == '\'' {
		end := l.pos + 1
		for end < len(l.input) && l.input[end] != ch {
			if l.input[end] == '\n' {
				return l.token(TOKEN_ILLEGAL, end, "unterminated string literal")
			}
			if l.input[end] == '\\' && end+1 < len(l.input) {
				end++
			}
			end++
		}
		if end >= len(l.input) {
			return l.token(TOKEN_ILLEGAL, end, "unterminated string literal")
		}
		body := l.input[l.pos+1 : end]
		return l.token(TOKEN_STRING, end+1, processEscapeSequences(body))
	}

	// Number (decimal, fraction, exponent, hex)
	if isDigit(ch) || (ch == '.' && isDigit(l.peekAhead(1))) {
		end := l.pos
		if ch == '0' && (l.peekAhead(1) == 'x' || l.peekAhead(1) == 'X') {
			end += 2
			for end < len(l.input) && isHexDigit(l.input[end]) {
				end++
			}
		} else {
			for end < len(l.input) && (isDigit(l.input[end]) || l.input[end] == '.') {
				end++
			}
			if end < len(l.input) && (l.input[end] == 'e' || l.input[end] == 'E') {
				end++
				if end < len(l.input) && (l.input[end] == '+' || l.input[end] == '-') {
					end++
				}
				for end < len(l.input) && isDigit(l.input[end]) {
					end++
				}
			}
		}
		tok := l.token(TOKEN_NUMBER, end, "")
		tok.Value = tok.Raw
		return tok
	}

	// Identifier or keyword
	if r, _ := utf8.DecodeRuneInString(l.input[l.pos:]); isIdentStart(r) {
		end := l.pos
		for end < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[end:])
			if !isIdentPart(r) {
				break
			}
			end += size
		}
		word := l.input[l.pos:end]
		typ := TOKEN_IDENT
		if kw, ok := keywords[word]; ok {
			typ = kw
		}
		return l.token(typ, end, word)
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op.text) {
			return l.token(op.typ, l.pos+len(op.text), op.text)
		}
	}

	_, size := utf8.DecodeRuneInString(l.input[l.pos:])
	return l.token(TOKEN_ILLEGAL, l.pos+size, "unexpected character")
}

// token builds a token spanning [l.pos, end) and advances past it
func (l *Lexer) token(typ TokenType, end int, value string) Token {
	tok := Token{
		Type:   typ,
		Value:  value,
		Raw:    l.input[l.pos:end],
		Line:   l.line,
		Column: l.pos - l.lineStart + 1,
		Offset: l.pos,
		End:    end,
	}
	l.pos = end
	return tok
}

// Tokenize scans the whole input, mostly useful for tests
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_ILLEGAL {
			return tokens
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isHexDigit checks if a byte is a valid hexadecimal digit
func isHexDigit(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

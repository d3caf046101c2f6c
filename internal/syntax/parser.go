package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xyproto/natbind/internal/engine"
)

// Parser is a recursive descent parser for the host scripting language.
// Besides the tree it builds the lexical scope chain that the rewriter
// queries through FindBinding.
type Parser struct {
	lexer    *Lexer
	filename string
	source   string

	current  Token // next unconsumed token
	prevEnd  int   // end offset of the last consumed token
	prevLine int   // line of the last consumed token

	scope  *Scope
	errors *engine.ErrorCollector
}

// bailout unwinds the parser after the first syntax error
type bailout struct{}

func NewParserWithFilename(input, filename string) *Parser {
	p := &Parser{
		lexer:    NewLexer(input),
		filename: filename,
		source:   input,
		scope:    NewScope(ScopeGlobal, nil),
		errors:   engine.NewErrorCollector(1),
	}
	p.errors.SetSourceCode(input)
	p.current = p.lexer.NextToken()
	return p
}

// Parse parses a whole file. The returned error is a *engine.CompilerError
// in the parse category.
func Parse(filename, source string) (*Program, error) {
	return NewParserWithFilename(source, filename).ParseProgram()
}

// ParseProgram parses statements until the end of input
func (p *Parser) ParseProgram() (prog *Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog, err = nil, p.errors.First()
		}
	}()

	prog = &Program{File: p.filename, Source: p.source, Scope: p.scope}
	if p.is(TOKEN_ILLEGAL) {
		p.errorAt(p.current, "%s", p.current.Value)
	}
	for p.current.Type != TOKEN_EOF {
		prog.Stmts = append(prog.Stmts, p.parseStatement())
	}
	return prog, nil
}

// errorAt records a syntax error at tok and aborts parsing
func (p *Parser) errorAt(tok Token, format string, args ...any) {
	loc := engine.SourceLocation{File: p.filename, Line: tok.Line, Column: tok.Column, Length: tok.End - tok.Offset}
	p.errors.AddError(engine.SyntaxError(fmt.Sprintf(format, args...), loc))
	panic(bailout{})
}

func (p *Parser) nextToken() Token {
	tok := p.current
	p.prevEnd = tok.End
	p.prevLine = tok.Line
	p.current = p.lexer.NextToken()
	if p.current.Type == TOKEN_ILLEGAL {
		p.errorAt(p.current, "%s", p.current.Value)
	}
	return tok
}

func (p *Parser) is(t TokenType) bool {
	return p.current.Type == t
}

func (p *Parser) accept(t TokenType) bool {
	if p.current.Type == t {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType, what string) Token {
	if p.current.Type != t {
		p.errorAt(p.current, "expected %s, found %s", what, p.current)
	}
	return p.nextToken()
}

// span builds the position of a node that started at start and ends at the last consumed token
func (p *Parser) span(start Token) Pos {
	return Pos{File: p.filename, Line: start.Line, Column: start.Column, Offset: start.Offset, End: p.prevEnd}
}

// spanFrom is span for nodes that start where an already-built child starts
func (p *Parser) spanFrom(start Pos) Pos {
	start.End = p.prevEnd
	return start
}

// consumeSemicolon ends a simple statement: an explicit ';', or an implicit
// one before '}', end of file or a line break
func (p *Parser) consumeSemicolon() {
	if p.accept(TOKEN_SEMICOLON) {
		return
	}
	if p.is(TOKEN_RBRACE) || p.is(TOKEN_EOF) || p.current.Line > p.prevLine {
		return
	}
	p.errorAt(p.current, "expected ';', found %s", p.current)
}

func (p *Parser) pushScope(kind ScopeKind) *Scope {
	p.scope = NewScope(kind, p.scope)
	return p.scope
}

func (p *Parser) popScope() {
	if p.scope.Parent != nil {
		p.scope = p.scope.Parent
	}
}

func (p *Parser) parseStatement() Stmt {
	start := p.current
	switch p.current.Type {
	case TOKEN_SEMICOLON:
		p.nextToken()
		return &EmptyStmt{Pos: p.span(start)}
	case TOKEN_VAR, TOKEN_LET, TOKEN_CONST:
		decl := p.parseVarDecl()
		p.consumeSemicolon()
		decl.Pos = p.span(start)
		return decl
	case TOKEN_FUNCTION:
		fn := p.parseFunction(true)
		return &FuncDecl{Pos: p.span(start), Func: fn}
	case TOKEN_LBRACE:
		return p.parseBlock(true)
	case TOKEN_IF:
		return p.parseIf()
	case TOKEN_WHILE:
		p.nextToken()
		p.expect(TOKEN_LPAREN, "'('")
		cond := p.parseExpression()
		p.expect(TOKEN_RPAREN, "')'")
		body := p.parseStatement()
		return &WhileStmt{Pos: p.span(start), Cond: cond, Body: body}
	case TOKEN_FOR:
		return p.parseFor()
	case TOKEN_RETURN:
		p.nextToken()
		ret := &ReturnStmt{}
		if !p.is(TOKEN_SEMICOLON) && !p.is(TOKEN_RBRACE) && !p.is(TOKEN_EOF) && p.current.Line == p.prevLine {
			ret.X = p.parseExpression()
		}
		p.consumeSemicolon()
		ret.Pos = p.span(start)
		return ret
	}

	x := p.parseExpression()
	p.consumeSemicolon()
	return &ExprStmt{Pos: p.span(start), X: x}
}

// parseVarDecl parses a declaration list without its terminating semicolon
func (p *Parser) parseVarDecl() *VarDecl {
	start := p.nextToken()
	decl := &VarDecl{Keyword: start.Raw}

	kind := BindVar
	target := p.scope.functionScope()
	switch start.Type {
	case TOKEN_LET:
		kind, target = BindLet, p.scope
	case TOKEN_CONST:
		kind, target = BindConst, p.scope
	}

	for {
		nameTok := p.expect(TOKEN_IDENT, "variable name")
		d := &Declarator{Name: nameTok.Value}
		if p.accept(TOKEN_ASSIGN) {
			d.Init = p.parseAssignment()
		} else if kind == BindConst {
			p.errorAt(p.current, "missing initializer in const declaration '%s'", d.Name)
		}
		d.Pos = p.span(nameTok)
		d.Binding = &Binding{Name: d.Name, Kind: kind, Init: d.Init, Pos: d.Pos}
		target.Declare(d.Binding)
		decl.Decls = append(decl.Decls, d)
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	decl.Pos = p.span(start)
	return decl
}

// parseFunction parses `function [name](params) { body }`. Declarations bind
// their name in the enclosing scope, named expressions in their own scope.
func (p *Parser) parseFunction(isDecl bool) *FuncLit {
	start := p.expect(TOKEN_FUNCTION, "'function'")
	fn := &FuncLit{}

	var nameTok Token
	if p.is(TOKEN_IDENT) {
		nameTok = p.nextToken()
		fn.Name = nameTok.Value
	} else if isDecl {
		p.errorAt(p.current, "expected function name, found %s", p.current)
	}
	if isDecl {
		p.scope.Declare(&Binding{Name: fn.Name, Kind: BindFunction, Func: fn, Pos: p.span(nameTok)})
	}

	fn.Scope = p.pushScope(ScopeFunction)
	defer p.popScope()
	if !isDecl && fn.Name != "" {
		fn.Scope.Declare(&Binding{Name: fn.Name, Kind: BindFunction, Func: fn, Pos: p.span(nameTok)})
	}

	p.expect(TOKEN_LPAREN, "'('")
	for !p.is(TOKEN_RPAREN) {
		param := p.expect(TOKEN_IDENT, "parameter name")
		fn.Params = append(fn.Params, param.Value)
		fn.Scope.Declare(&Binding{Name: param.Value, Kind: BindParam, Pos: p.span(param)})
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN, "')'")

	// The body shares the function scope with the parameters
	fn.Body = p.parseBlock(false)
	fn.Pos = p.span(start)
	return fn
}

func (p *Parser) parseBlock(newScope bool) *BlockStmt {
	start := p.expect(TOKEN_LBRACE, "'{'")
	block := &BlockStmt{Scope: p.scope}
	if newScope {
		block.Scope = p.pushScope(ScopeBlock)
		defer p.popScope()
	}
	for !p.is(TOKEN_RBRACE) {
		if p.is(TOKEN_EOF) {
			p.errorAt(p.current, "expected '}', found %s", p.current)
		}
		block.Stmts = append(block.Stmts, p.parseStatement())
	}
	p.nextToken()
	block.Pos = p.span(start)
	return block
}

func (p *Parser) parseIf() Stmt {
	start := p.nextToken()
	p.expect(TOKEN_LPAREN, "'('")
	cond := p.parseExpression()
	p.expect(TOKEN_RPAREN, "')'")
	stmt := &IfStmt{Cond: cond, Then: p.parseStatement()}
	if p.accept(TOKEN_ELSE) {
		stmt.Else = p.parseStatement()
	}
	stmt.Pos = p.span(start)
	return stmt
}

func (p *Parser) parseFor() Stmt {
	start := p.nextToken()
	stmt := &ForStmt{Scope: p.pushScope(ScopeBlock)}
	defer p.popScope()

	p.expect(TOKEN_LPAREN, "'('")
	switch {
	case p.is(TOKEN_VAR) || p.is(TOKEN_LET) || p.is(TOKEN_CONST):
		stmt.Init = p.parseVarDecl()
	case !p.is(TOKEN_SEMICOLON):
		initStart := p.current
		x := p.parseExpression()
		stmt.Init = &ExprStmt{Pos: p.span(initStart), X: x}
	}
	p.expect(TOKEN_SEMICOLON, "';'")
	if !p.is(TOKEN_SEMICOLON) {
		stmt.Cond = p.parseExpression()
	}
	p.expect(TOKEN_SEMICOLON, "';'")
	if !p.is(TOKEN_RPAREN) {
		stmt.Post = p.parseExpression()
	}
	p.expect(TOKEN_RPAREN, "')'")
	stmt.Body = p.parseStatement()
	stmt.Pos = p.span(start)
	return stmt
}

func (p *Parser) parseExpression() Expr {
	return p.parseAssignment()
}

var assignOps = map[TokenType]bool{
	TOKEN_ASSIGN:       true,
	TOKEN_PLUS_ASSIGN:  true,
	TOKEN_MINUS_ASSIGN: true,
	TOKEN_STAR_ASSIGN:  true,
	TOKEN_SLASH_ASSIGN: true,
}

func (p *Parser) parseAssignment() Expr {
	opTok := p.current
	left := p.parseConditional()
	if !assignOps[p.current.Type] {
		return left
	}
	switch left.(type) {
	case *Ident, *MemberExpr, *IndexExpr:
	default:
		p.errorAt(opTok, "invalid assignment target")
	}
	op := p.nextToken()
	value := p.parseAssignment()
	return &AssignExpr{Pos: p.spanFrom(left.Span()), Op: op.Raw, Target: left, Value: value}
}

func (p *Parser) parseConditional() Expr {
	test := p.parseBinary(1)
	if !p.accept(TOKEN_QUESTION) {
		return test
	}
	then := p.parseAssignment()
	p.expect(TOKEN_COLON, "':'")
	els := p.parseAssignment()
	return &CondExpr{Pos: p.spanFrom(test.Span()), Test: test, Then: then, Else: els}
}

// parseBinary is precedence climbing over the left-associative binary operators
func (p *Parser) parseBinary(minPrec int) Expr {
	left := p.parseUnary()
	for {
		op, ok := binaryOps[p.current.Type]
		if !ok || op.precedence() < minPrec {
			return left
		}
		p.nextToken()
		right := p.parseBinary(op.precedence() + 1)
		left = &BinaryExpr{Pos: p.spanFrom(left.Span()), Op: op, Left: left, Right: right, Scope: p.scope}
	}
}

func (p *Parser) parseUnary() Expr {
	start := p.current
	var op Operator
	switch p.current.Type {
	case TOKEN_BANG:
		op = OpNot
	case TOKEN_MINUS:
		op = OpNeg
	case TOKEN_PLUS:
		op = OpPlus
	case TOKEN_TYPEOF:
		op = OpTypeof
	case TOKEN_INCREMENT, TOKEN_DECREMENT:
		p.nextToken()
		x := p.parseUnary()
		return &UpdateExpr{Pos: p.span(start), Op: start.Raw, Prefix: true, X: x}
	default:
		return p.parsePostfix()
	}
	p.nextToken()
	x := p.parseUnary()
	return &UnaryExpr{Pos: p.span(start), Op: op, X: x}
}

func (p *Parser) parsePostfix() Expr {
	x := p.parseCallOrMember()
	if (p.is(TOKEN_INCREMENT) || p.is(TOKEN_DECREMENT)) && p.current.Line == p.prevLine {
		op := p.nextToken()
		return &UpdateExpr{Pos: p.spanFrom(x.Span()), Op: op.Raw, X: x}
	}
	return x
}

func (p *Parser) parseCallOrMember() Expr {
	var x Expr
	if p.is(TOKEN_NEW) {
		x = p.parseNew()
	} else {
		x = p.parsePrimary()
	}
	for {
		switch p.current.Type {
		case TOKEN_LPAREN:
			args := p.parseArguments()
			x = &CallExpr{Pos: p.spanFrom(x.Span()), Callee: x, Args: args, Scope: p.scope}
		case TOKEN_DOT, TOKEN_LBRACKET:
			x = p.parseMemberSuffix(x)
		default:
			return x
		}
	}
}

// parseMemberSuffix parses one `.name` or `[index]` suffix
func (p *Parser) parseMemberSuffix(x Expr) Expr {
	if p.accept(TOKEN_DOT) {
		if !p.current.isWord() {
			p.errorAt(p.current, "expected property name, found %s", p.current)
		}
		name := p.nextToken()
		return &MemberExpr{Pos: p.spanFrom(x.Span()), X: x, Name: name.Raw}
	}
	p.expect(TOKEN_LBRACKET, "'['")
	index := p.parseExpression()
	p.expect(TOKEN_RBRACKET, "']'")
	return &IndexExpr{Pos: p.spanFrom(x.Span()), X: x, Index: index}
}

func (p *Parser) parseNew() Expr {
	start := p.expect(TOKEN_NEW, "'new'")
	var callee Expr
	if p.is(TOKEN_NEW) {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	for p.is(TOKEN_DOT) || p.is(TOKEN_LBRACKET) {
		callee = p.parseMemberSuffix(callee)
	}
	n := &NewExpr{Callee: callee, Scope: p.scope}
	if p.is(TOKEN_LPAREN) {
		n.Args = p.parseArguments()
		n.HasArgs = true
	}
	n.Pos = p.span(start)
	return n
}

func (p *Parser) parseArguments() []Expr {
	p.expect(TOKEN_LPAREN, "'('")
	var args []Expr
	for !p.is(TOKEN_RPAREN) {
		args = append(args, p.parseAssignment())
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN, "')'")
	return args
}

func (p *Parser) parsePrimary() Expr {
	start := p.current
	switch p.current.Type {
	case TOKEN_IDENT:
		p.nextToken()
		return &Ident{Pos: p.span(start), Name: start.Value, Scope: p.scope}
	case TOKEN_NUMBER:
		p.nextToken()
		return &NumberLit{Pos: p.span(start), Value: p.parseNumberLiteral(start), Raw: start.Raw}
	case TOKEN_STRING:
		p.nextToken()
		return &StringLit{Pos: p.span(start), Value: start.Value, Raw: start.Raw}
	case TOKEN_TRUE, TOKEN_FALSE:
		p.nextToken()
		return &BoolLit{Pos: p.span(start), Value: start.Type == TOKEN_TRUE}
	case TOKEN_NULL:
		p.nextToken()
		return &NullLit{Pos: p.span(start)}
	case TOKEN_LPAREN:
		p.nextToken()
		x := p.parseExpression()
		p.expect(TOKEN_RPAREN, "')'")
		return &ParenExpr{Pos: p.span(start), X: x}
	case TOKEN_LBRACKET:
		return p.parseArray()
	case TOKEN_LBRACE:
		return p.parseObject()
	case TOKEN_FUNCTION:
		return p.parseFunction(false)
	}
	p.errorAt(p.current, "unexpected %s", p.current)
	return nil
}

func (p *Parser) parseNumberLiteral(tok Token) float64 {
	s := tok.Raw
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			p.errorAt(tok, "invalid number literal %s", s)
		}
		return float64(v)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.errorAt(tok, "invalid number literal %s", s)
	}
	return v
}

func (p *Parser) parseArray() Expr {
	start := p.expect(TOKEN_LBRACKET, "'['")
	arr := &ArrayLit{}
	for !p.is(TOKEN_RBRACKET) {
		arr.Elements = append(arr.Elements, p.parseAssignment())
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RBRACKET, "']'")
	arr.Pos = p.span(start)
	return arr
}

func (p *Parser) parseObject() Expr {
	start := p.expect(TOKEN_LBRACE, "'{'")
	obj := &ObjectLit{}
	for !p.is(TOKEN_RBRACE) {
		keyTok := p.current
		prop := &Property{Raw: keyTok.Raw}
		switch {
		case keyTok.Type == TOKEN_STRING:
			prop.Key = keyTok.Value
		case keyTok.Type == TOKEN_NUMBER:
			prop.Key = formatNumberKey(p.parseNumberLiteral(keyTok))
		case keyTok.isWord():
			prop.Key = keyTok.Raw
		default:
			p.errorAt(keyTok, "expected property name, found %s", keyTok)
		}
		p.nextToken()

		if p.accept(TOKEN_COLON) {
			prop.Value = p.parseAssignment()
		} else if keyTok.Type == TOKEN_IDENT {
			// shorthand {name}
			prop.Value = &Ident{Pos: p.span(keyTok), Name: keyTok.Value, Scope: p.scope}
		} else {
			p.errorAt(p.current, "expected ':', found %s", p.current)
		}
		obj.Props = append(obj.Props, prop)
		if !p.accept(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RBRACE, "'}'")
	obj.Pos = p.span(start)
	return obj
}

// formatNumberKey renders a numeric property key the way the language converts it to a string
func formatNumberKey(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

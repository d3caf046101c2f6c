package syntax

import (
	"github.com/xyproto/natbind/internal/engine"
)

// NodeKind tags every concrete node type. The set is closed: only this
// package implements Node.
type NodeKind int

const (
	KindProgram NodeKind = iota
	// Statements
	KindVarDecl
	KindFuncDecl
	KindExprStmt
	KindReturnStmt
	KindIfStmt
	KindWhileStmt
	KindForStmt
	KindBlockStmt
	KindEmptyStmt
	KindNoopStmt
	// Expressions
	KindIdent
	KindNumberLit
	KindStringLit
	KindBoolLit
	KindNullLit
	KindArrayLit
	KindObjectLit
	KindParenExpr
	KindUnaryExpr
	KindUpdateExpr
	KindBinaryExpr
	KindAssignExpr
	KindCondExpr
	KindCallExpr
	KindNewExpr
	KindMemberExpr
	KindIndexExpr
	KindFuncLit
	KindPlaceholder
)

var kindNames = [...]string{
	KindProgram:     "program",
	KindVarDecl:     "variable declaration",
	KindFuncDecl:    "function declaration",
	KindExprStmt:    "expression statement",
	KindReturnStmt:  "return statement",
	KindIfStmt:      "if statement",
	KindWhileStmt:   "while statement",
	KindForStmt:     "for statement",
	KindBlockStmt:   "block",
	KindEmptyStmt:   "empty statement",
	KindNoopStmt:    "no-op",
	KindIdent:       "identifier",
	KindNumberLit:   "number literal",
	KindStringLit:   "string literal",
	KindBoolLit:     "boolean literal",
	KindNullLit:     "null literal",
	KindArrayLit:    "array literal",
	KindObjectLit:   "object literal",
	KindParenExpr:   "parenthesized expression",
	KindUnaryExpr:   "unary expression",
	KindUpdateExpr:  "update expression",
	KindBinaryExpr:  "binary expression",
	KindAssignExpr:  "assignment",
	KindCondExpr:    "conditional expression",
	KindCallExpr:    "call",
	KindNewExpr:     "constructor call",
	KindMemberExpr:  "member access",
	KindIndexExpr:   "index expression",
	KindFuncLit:     "function",
	KindPlaceholder: "placeholder",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Pos is the source span of a node
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int // byte offset of the first character
	End    int // byte offset just past the last character
}

// Location converts the span start to a diagnostic location
func (p Pos) Location() engine.SourceLocation {
	return engine.SourceLocation{File: p.File, Line: p.Line, Column: p.Column, Length: p.End - p.Offset}
}

// Node is implemented by every AST node
type Node interface {
	Kind() NodeKind
	Span() Pos
	String() string
}

// Expr is an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of one parsed file
type Program struct {
	File   string
	Source string
	Stmts  []Stmt
	Scope  *Scope // global scope
}

// Text returns the verbatim source text covered by n
func (p *Program) Text(n Node) string {
	pos := n.Span()
	if pos.Offset < 0 || pos.End > len(p.Source) || pos.Offset > pos.End {
		return n.String()
	}
	return p.Source[pos.Offset:pos.End]
}

// ---- statements

type VarDecl struct {
	Pos     Pos
	Keyword string // var, let or const
	Decls   []*Declarator
}

type Declarator struct {
	Pos     Pos
	Name    string
	Init    Expr // nil when uninitialized
	Binding *Binding
}

type FuncDecl struct {
	Pos  Pos
	Func *FuncLit
}

type ExprStmt struct {
	Pos Pos
	X   Expr
}

type ReturnStmt struct {
	Pos Pos
	X   Expr // nil for a bare return
}

type IfStmt struct {
	Pos  Pos
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
}

type WhileStmt struct {
	Pos  Pos
	Cond Expr
	Body Stmt
}

type ForStmt struct {
	Pos   Pos
	Init  Stmt // *VarDecl, *ExprStmt or nil
	Cond  Expr
	Post  Expr
	Body  Stmt
	Scope *Scope
}

type BlockStmt struct {
	Pos   Pos
	Stmts []Stmt
	Scope *Scope
}

type EmptyStmt struct {
	Pos Pos
}

// NoopStmt replaces a statement that has no runtime representation after
// rewriting. It prints as nothing.
type NoopStmt struct {
	Pos    Pos
	Marker string
}

// ---- expressions

type Ident struct {
	Pos   Pos
	Name  string
	Scope *Scope
}

type NumberLit struct {
	Pos   Pos
	Value float64
	Raw   string
}

type StringLit struct {
	Pos   Pos
	Value string
	Raw   string // including quotes
}

type BoolLit struct {
	Pos   Pos
	Value bool
}

type NullLit struct {
	Pos Pos
}

type ArrayLit struct {
	Pos      Pos
	Elements []Expr
}

type Property struct {
	Key   string
	Raw   string // key as written
	Value Expr
}

type ObjectLit struct {
	Pos   Pos
	Props []*Property
}

type ParenExpr struct {
	Pos Pos
	X   Expr
}

type UnaryExpr struct {
	Pos Pos
	Op  Operator
	X   Expr
}

// UpdateExpr is ++ or -- in prefix or postfix position
type UpdateExpr struct {
	Pos    Pos
	Op     string
	Prefix bool
	X      Expr
}

type BinaryExpr struct {
	Pos   Pos
	Op    Operator
	Left  Expr
	Right Expr
	Scope *Scope
}

type AssignExpr struct {
	Pos    Pos
	Op     string // =, +=, -=, *=, /=
	Target Expr
	Value  Expr
}

type CondExpr struct {
	Pos  Pos
	Test Expr
	Then Expr
	Else Expr
}

type CallExpr struct {
	Pos    Pos
	Callee Expr
	Args   []Expr
	Scope  *Scope
}

type NewExpr struct {
	Pos     Pos
	Callee  Expr
	Args    []Expr
	HasArgs bool // false for `new Foo` without parentheses
	Scope   *Scope
}

type MemberExpr struct {
	Pos  Pos
	X    Expr
	Name string
}

type IndexExpr struct {
	Pos   Pos
	X     Expr
	Index Expr
}

type FuncLit struct {
	Pos    Pos
	Name   string // empty for anonymous function expressions
	Params []string
	Body   *BlockStmt
	Scope  *Scope // function scope holding the parameters
}

// Placeholder is a generated-symbol call standing in for a rewritten
// constructor or function call. Args are printed verbatim.
type Placeholder struct {
	Pos    Pos
	Symbol string
	Args   []string
}

func (*Program) Kind() NodeKind     { return KindProgram }
func (*VarDecl) Kind() NodeKind     { return KindVarDecl }
func (*FuncDecl) Kind() NodeKind    { return KindFuncDecl }
func (*ExprStmt) Kind() NodeKind    { return KindExprStmt }
func (*ReturnStmt) Kind() NodeKind  { return KindReturnStmt }
func (*IfStmt) Kind() NodeKind      { return KindIfStmt }
func (*WhileStmt) Kind() NodeKind   { return KindWhileStmt }
func (*ForStmt) Kind() NodeKind     { return KindForStmt }
func (*BlockStmt) Kind() NodeKind   { return KindBlockStmt }
func (*EmptyStmt) Kind() NodeKind   { return KindEmptyStmt }
func (*NoopStmt) Kind() NodeKind    { return KindNoopStmt }
func (*Ident) Kind() NodeKind       { return KindIdent }
func (*NumberLit) Kind() NodeKind   { return KindNumberLit }
func (*StringLit) Kind() NodeKind   { return KindStringLit }
func (*BoolLit) Kind() NodeKind     { return KindBoolLit }
func (*NullLit) Kind() NodeKind     { return KindNullLit }
func (*ArrayLit) Kind() NodeKind    { return KindArrayLit }
func (*ObjectLit) Kind() NodeKind   { return KindObjectLit }
func (*ParenExpr) Kind() NodeKind   { return KindParenExpr }
func (*UnaryExpr) Kind() NodeKind   { return KindUnaryExpr }
func (*UpdateExpr) Kind() NodeKind  { return KindUpdateExpr }
func (*BinaryExpr) Kind() NodeKind  { return KindBinaryExpr }
func (*AssignExpr) Kind() NodeKind  { return KindAssignExpr }
func (*CondExpr) Kind() NodeKind    { return KindCondExpr }
func (*CallExpr) Kind() NodeKind    { return KindCallExpr }
func (*NewExpr) Kind() NodeKind     { return KindNewExpr }
func (*MemberExpr) Kind() NodeKind  { return KindMemberExpr }
func (*IndexExpr) Kind() NodeKind   { return KindIndexExpr }
func (*FuncLit) Kind() NodeKind     { return KindFuncLit }
func (*Placeholder) Kind() NodeKind { return KindPlaceholder }

func (p *Program) Span() Pos {
	return Pos{File: p.File, Line: 1, Column: 1, Offset: 0, End: len(p.Source)}
}
func (n *VarDecl) Span() Pos     { return n.Pos }
func (n *FuncDecl) Span() Pos    { return n.Pos }
func (n *ExprStmt) Span() Pos    { return n.Pos }
func (n *ReturnStmt) Span() Pos  { return n.Pos }
func (n *IfStmt) Span() Pos      { return n.Pos }
func (n *WhileStmt) Span() Pos   { return n.Pos }
func (n *ForStmt) Span() Pos     { return n.Pos }
func (n *BlockStmt) Span() Pos   { return n.Pos }
func (n *EmptyStmt) Span() Pos   { return n.Pos }
func (n *NoopStmt) Span() Pos    { return n.Pos }
func (n *Ident) Span() Pos       { return n.Pos }
func (n *NumberLit) Span() Pos   { return n.Pos }
func (n *StringLit) Span() Pos   { return n.Pos }
func (n *BoolLit) Span() Pos     { return n.Pos }
func (n *NullLit) Span() Pos     { return n.Pos }
func (n *ArrayLit) Span() Pos    { return n.Pos }
func (n *ObjectLit) Span() Pos   { return n.Pos }
func (n *ParenExpr) Span() Pos   { return n.Pos }
func (n *UnaryExpr) Span() Pos   { return n.Pos }
func (n *UpdateExpr) Span() Pos  { return n.Pos }
func (n *BinaryExpr) Span() Pos  { return n.Pos }
func (n *AssignExpr) Span() Pos  { return n.Pos }
func (n *CondExpr) Span() Pos    { return n.Pos }
func (n *CallExpr) Span() Pos    { return n.Pos }
func (n *NewExpr) Span() Pos     { return n.Pos }
func (n *MemberExpr) Span() Pos  { return n.Pos }
func (n *IndexExpr) Span() Pos   { return n.Pos }
func (n *FuncLit) Span() Pos     { return n.Pos }
func (n *Placeholder) Span() Pos { return n.Pos }

func (*VarDecl) stmtNode()    {}
func (*FuncDecl) stmtNode()   {}
func (*ExprStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*BlockStmt) stmtNode()  {}
func (*EmptyStmt) stmtNode()  {}
func (*NoopStmt) stmtNode()   {}

func (*Ident) exprNode()       {}
func (*NumberLit) exprNode()   {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NullLit) exprNode()     {}
func (*ArrayLit) exprNode()    {}
func (*ObjectLit) exprNode()   {}
func (*ParenExpr) exprNode()   {}
func (*UnaryExpr) exprNode()   {}
func (*UpdateExpr) exprNode()  {}
func (*BinaryExpr) exprNode()  {}
func (*AssignExpr) exprNode()  {}
func (*CondExpr) exprNode()    {}
func (*CallExpr) exprNode()    {}
func (*NewExpr) exprNode()     {}
func (*MemberExpr) exprNode()  {}
func (*IndexExpr) exprNode()   {}
func (*FuncLit) exprNode()     {}
func (*Placeholder) exprNode() {}

// FindBinding resolves name from the scope the identifier was parsed in
func (n *Ident) FindBinding(name string) *Binding { return n.Scope.FindBinding(name) }

// CalleeName returns the callee identifier of a call, if it is a bare name
func (n *CallExpr) CalleeName() (*Ident, bool) {
	id, ok := n.Callee.(*Ident)
	return id, ok
}

// CalleeName returns the constructor identifier, if it is a bare name
func (n *NewExpr) CalleeName() (*Ident, bool) {
	id, ok := n.Callee.(*Ident)
	return id, ok
}

package syntax

import (
	"strconv"
	"strings"
)

// printer renders nodes back to source text. Output is readable rather than
// byte-identical to the input; final formatting belongs to the minifier.
type printer struct {
	sb     strings.Builder
	indent int
}

// Print renders any node
func Print(n Node) string {
	var pr printer
	switch n := n.(type) {
	case *Program:
		pr.stmtList(n.Stmts)
	case Stmt:
		pr.stmt(n)
	case Expr:
		pr.expr(n)
	}
	return pr.sb.String()
}

func (pr *printer) write(s string) {
	pr.sb.WriteString(s)
}

func (pr *printer) newline() {
	pr.sb.WriteByte('\n')
	pr.sb.WriteString(strings.Repeat("  ", pr.indent))
}

// stmtList prints statements one per line, skipping no-ops
func (pr *printer) stmtList(stmts []Stmt) {
	first := true
	for _, s := range stmts {
		if _, ok := s.(*NoopStmt); ok {
			continue
		}
		if !first {
			pr.newline()
		}
		first = false
		pr.stmt(s)
	}
}

func (pr *printer) block(b *BlockStmt) {
	if b == nil {
		pr.write("{}")
		return
	}
	pr.write("{")
	pr.indent++
	empty := true
	for _, s := range b.Stmts {
		if _, ok := s.(*NoopStmt); ok {
			continue
		}
		pr.newline()
		pr.stmt(s)
		empty = false
	}
	pr.indent--
	if !empty {
		pr.newline()
	}
	pr.write("}")
}

func (pr *printer) varDecl(n *VarDecl) {
	pr.write(n.Keyword)
	pr.write(" ")
	for i, d := range n.Decls {
		if i > 0 {
			pr.write(", ")
		}
		pr.write(d.Name)
		if d.Init != nil {
			pr.write(" = ")
			pr.expr(d.Init)
		}
	}
}

func (pr *printer) stmt(s Stmt) {
	switch n := s.(type) {
	case *VarDecl:
		pr.varDecl(n)
		pr.write(";")
	case *FuncDecl:
		pr.function(n.Func)
	case *ExprStmt:
		pr.expr(n.X)
		pr.write(";")
	case *ReturnStmt:
		pr.write("return")
		if n.X != nil {
			pr.write(" ")
			pr.expr(n.X)
		}
		pr.write(";")
	case *IfStmt:
		pr.write("if (")
		pr.expr(n.Cond)
		pr.write(") ")
		pr.stmt(n.Then)
		if n.Else != nil {
			pr.write(" else ")
			pr.stmt(n.Else)
		}
	case *WhileStmt:
		pr.write("while (")
		pr.expr(n.Cond)
		pr.write(") ")
		pr.stmt(n.Body)
	case *ForStmt:
		pr.write("for (")
		switch init := n.Init.(type) {
		case *VarDecl:
			pr.varDecl(init)
		case *ExprStmt:
			pr.expr(init.X)
		}
		pr.write("; ")
		if n.Cond != nil {
			pr.expr(n.Cond)
		}
		pr.write("; ")
		if n.Post != nil {
			pr.expr(n.Post)
		}
		pr.write(") ")
		pr.stmt(n.Body)
	case *BlockStmt:
		pr.block(n)
	case *EmptyStmt:
		pr.write(";")
	case *NoopStmt:
		// lists skip no-ops; a lone body still needs a statement
		pr.write(";")
	}
}

func (pr *printer) function(fn *FuncLit) {
	pr.write("function")
	if fn.Name != "" {
		pr.write(" ")
		pr.write(fn.Name)
	}
	pr.write("(")
	pr.write(strings.Join(fn.Params, ", "))
	pr.write(") ")
	pr.block(fn.Body)
}

func (pr *printer) exprList(xs []Expr) {
	for i, x := range xs {
		if i > 0 {
			pr.write(", ")
		}
		pr.expr(x)
	}
}

func (pr *printer) expr(e Expr) {
	switch n := e.(type) {
	case *Ident:
		pr.write(n.Name)
	case *NumberLit:
		if n.Raw != "" {
			pr.write(n.Raw)
		} else {
			pr.write(strconv.FormatFloat(n.Value, 'g', -1, 64))
		}
	case *StringLit:
		if n.Raw != "" {
			pr.write(n.Raw)
		} else {
			pr.write(strconv.Quote(n.Value))
		}
	case *BoolLit:
		pr.write(strconv.FormatBool(n.Value))
	case *NullLit:
		pr.write("null")
	case *ArrayLit:
		pr.write("[")
		pr.exprList(n.Elements)
		pr.write("]")
	case *ObjectLit:
		pr.write("{")
		for i, prop := range n.Props {
			if i > 0 {
				pr.write(", ")
			}
			pr.write(prop.Raw)
			pr.write(": ")
			pr.expr(prop.Value)
		}
		pr.write("}")
	case *ParenExpr:
		pr.write("(")
		pr.expr(n.X)
		pr.write(")")
	case *UnaryExpr:
		pr.write(n.Op.String())
		if n.Op == OpTypeof {
			pr.write(" ")
		}
		pr.expr(n.X)
	case *UpdateExpr:
		if n.Prefix {
			pr.write(n.Op)
			pr.expr(n.X)
		} else {
			pr.expr(n.X)
			pr.write(n.Op)
		}
	case *BinaryExpr:
		pr.expr(n.Left)
		pr.write(" " + n.Op.String() + " ")
		pr.expr(n.Right)
	case *AssignExpr:
		pr.expr(n.Target)
		pr.write(" " + n.Op + " ")
		pr.expr(n.Value)
	case *CondExpr:
		pr.expr(n.Test)
		pr.write(" ? ")
		pr.expr(n.Then)
		pr.write(" : ")
		pr.expr(n.Else)
	case *CallExpr:
		pr.expr(n.Callee)
		pr.write("(")
		pr.exprList(n.Args)
		pr.write(")")
	case *NewExpr:
		pr.write("new ")
		pr.expr(n.Callee)
		if n.HasArgs {
			pr.write("(")
			pr.exprList(n.Args)
			pr.write(")")
		}
	case *MemberExpr:
		pr.expr(n.X)
		pr.write(".")
		pr.write(n.Name)
	case *IndexExpr:
		pr.expr(n.X)
		pr.write("[")
		pr.expr(n.Index)
		pr.write("]")
	case *FuncLit:
		pr.function(n)
	case *Placeholder:
		pr.write(n.Symbol)
		pr.write("(")
		pr.write(strings.Join(n.Args, ", "))
		pr.write(")")
	}
}

func (n *Program) String() string     { return Print(n) }
func (n *VarDecl) String() string     { return Print(n) }
func (n *FuncDecl) String() string    { return Print(n) }
func (n *ExprStmt) String() string    { return Print(n) }
func (n *ReturnStmt) String() string  { return Print(n) }
func (n *IfStmt) String() string      { return Print(n) }
func (n *WhileStmt) String() string   { return Print(n) }
func (n *ForStmt) String() string     { return Print(n) }
func (n *BlockStmt) String() string   { return Print(n) }
func (n *EmptyStmt) String() string   { return Print(n) }
func (n *NoopStmt) String() string    { return "" }
func (n *Ident) String() string       { return n.Name }
func (n *NumberLit) String() string   { return Print(n) }
func (n *StringLit) String() string   { return Print(n) }
func (n *BoolLit) String() string     { return Print(n) }
func (n *NullLit) String() string     { return "null" }
func (n *ArrayLit) String() string    { return Print(n) }
func (n *ObjectLit) String() string   { return Print(n) }
func (n *ParenExpr) String() string   { return Print(n) }
func (n *UnaryExpr) String() string   { return Print(n) }
func (n *UpdateExpr) String() string  { return Print(n) }
func (n *BinaryExpr) String() string  { return Print(n) }
func (n *AssignExpr) String() string  { return Print(n) }
func (n *CondExpr) String() string    { return Print(n) }
func (n *CallExpr) String() string    { return Print(n) }
func (n *NewExpr) String() string     { return Print(n) }
func (n *MemberExpr) String() string  { return Print(n) }
func (n *IndexExpr) String() string   { return Print(n) }
func (n *FuncLit) String() string     { return Print(n) }
func (n *Placeholder) String() string { return Print(n) }

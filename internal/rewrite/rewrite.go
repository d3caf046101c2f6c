// Package rewrite recognizes declaration markers and references to native
// names in a parsed file, records them in the file's source unit and
// replaces them with generated placeholders.
package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xyproto/natbind/internal/consteval"
	"github.com/xyproto/natbind/internal/engine"
	"github.com/xyproto/natbind/internal/model"
	"github.com/xyproto/natbind/internal/syntax"
)

// Marker is one of the reserved pseudo-statements
type Marker int

const (
	MarkerPackage Marker = iota
	MarkerClass
	MarkerStatic
	MarkerNative
	MarkerImport
)

var markerNames = map[string]Marker{
	"package": MarkerPackage,
	"class":   MarkerClass,
	"static":  MarkerStatic,
	"native":  MarkerNative,
	"import":  MarkerImport,
}

func (m Marker) String() string {
	switch m {
	case MarkerPackage:
		return "package"
	case MarkerClass:
		return "class"
	case MarkerStatic:
		return "static"
	case MarkerNative:
		return "native"
	case MarkerImport:
		return "import"
	default:
		return "unknown"
	}
}

// LookupMarker reports whether name is a marker keyword
func LookupMarker(name string) (Marker, bool) {
	m, ok := markerNames[name]
	return m, ok
}

// Options tune what counts as a native reference
type Options struct {
	// Globals are names provided by the host runtime. They are treated as
	// bound, so calls to them are left alone.
	Globals []string
}

// Fingerprint identifies the options by what they do: the same set of
// globals in any order and with repeats gives the same fingerprint
func (o Options) Fingerprint() string {
	set := make(map[string]bool, len(o.Globals))
	names := make([]string, 0, len(o.Globals))
	for _, g := range o.Globals {
		if !set[g] {
			set[g] = true
			names = append(names, g)
		}
	}
	sort.Strings(names)
	return model.HashBytes([]byte(strings.Join(names, "\n")))
}

type rewriter struct {
	prog    *syntax.Program
	unit    *model.SourceUnit
	globals map[string]bool
	eval    *consteval.Evaluator
}

// File rewrites prog into a new tree, appending every declaration and
// reference it finds to unit. prog is not modified; subtrees without
// rewrites are shared between the input and the result. The first
// evaluation failure aborts the file.
func File(prog *syntax.Program, unit *model.SourceUnit, opts Options) (*syntax.Program, error) {
	r := &rewriter{
		prog:    prog,
		unit:    unit,
		globals: make(map[string]bool, len(opts.Globals)),
		eval:    consteval.NewEvaluator(),
	}
	for _, g := range opts.Globals {
		r.globals[g] = true
	}
	stmts, _, err := r.stmtList(prog.Stmts)
	if err != nil {
		return nil, err
	}
	out := *prog
	out.Stmts = stmts
	return &out, nil
}

// unbound reports whether id refers to nothing declared in the file
func (r *rewriter) unbound(id *syntax.Ident) bool {
	return id.FindBinding(id.Name) == nil && !r.globals[id.Name]
}

func (r *rewriter) stmtList(stmts []syntax.Stmt) ([]syntax.Stmt, bool, error) {
	var out []syntax.Stmt
	for i, s := range stmts {
		ns, changed, err := r.stmt(s)
		if err != nil {
			return nil, false, err
		}
		if changed && out == nil {
			out = make([]syntax.Stmt, i, len(stmts))
			copy(out, stmts[:i])
		}
		if out != nil {
			out = append(out, ns)
		}
	}
	if out == nil {
		return stmts, false, nil
	}
	return out, true, nil
}

func (r *rewriter) stmt(s syntax.Stmt) (syntax.Stmt, bool, error) {
	switch n := s.(type) {
	case *syntax.ExprStmt:
		if noop, ok, err := r.marker(n); ok || err != nil {
			return noop, ok, err
		}
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return s, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.VarDecl:
		return r.varDecl(n)
	case *syntax.FuncDecl:
		fn, changed, err := r.function(n.Func)
		if err != nil || !changed {
			return s, false, err
		}
		cp := *n
		cp.Func = fn
		return &cp, true, nil
	case *syntax.ReturnStmt:
		if n.X == nil {
			return s, false, nil
		}
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return s, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.IfStmt:
		cond, c1, err := r.expr(n.Cond)
		if err != nil {
			return nil, false, err
		}
		then, c2, err := r.stmt(n.Then)
		if err != nil {
			return nil, false, err
		}
		var els syntax.Stmt
		c3 := false
		if n.Else != nil {
			if els, c3, err = r.stmt(n.Else); err != nil {
				return nil, false, err
			}
		}
		if !c1 && !c2 && !c3 {
			return s, false, nil
		}
		cp := *n
		cp.Cond, cp.Then, cp.Else = cond, then, els
		return &cp, true, nil
	case *syntax.WhileStmt:
		cond, c1, err := r.expr(n.Cond)
		if err != nil {
			return nil, false, err
		}
		body, c2, err := r.stmt(n.Body)
		if err != nil {
			return nil, false, err
		}
		if !c1 && !c2 {
			return s, false, nil
		}
		cp := *n
		cp.Cond, cp.Body = cond, body
		return &cp, true, nil
	case *syntax.ForStmt:
		return r.forStmt(n)
	case *syntax.BlockStmt:
		b, changed, err := r.block(n)
		if err != nil || !changed {
			return s, false, err
		}
		return b, true, nil
	}
	return s, false, nil
}

// marker replaces a marker statement with a no-op once its argument is
// recorded. ok is false when the statement is not a marker use.
func (r *rewriter) marker(n *syntax.ExprStmt) (syntax.Stmt, bool, error) {
	call, ok := n.X.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		return nil, false, nil
	}
	id, ok := call.CalleeName()
	if !ok {
		return nil, false, nil
	}
	m, ok := LookupMarker(id.Name)
	if !ok || !r.unbound(id) {
		return nil, false, nil
	}
	if err := r.record(m, call); err != nil {
		return nil, false, r.annotate(err, m, call)
	}
	return &syntax.NoopStmt{Pos: n.Pos, Marker: id.Name}, true, nil
}

func (r *rewriter) record(m Marker, call *syntax.CallExpr) error {
	arg := call.Args[0]
	loc := call.Pos.Location()
	if m == MarkerNative {
		obj, err := r.eval.ResolveObject(arg)
		if err != nil {
			return err
		}
		return r.unit.AddNative(obj)
	}
	v, err := r.eval.Resolve(arg)
	if err != nil {
		return err
	}
	switch m {
	case MarkerPackage:
		return r.unit.AddPackage(v, loc)
	case MarkerClass:
		return r.unit.AddClass(v)
	case MarkerStatic:
		return r.unit.AddStatic(v)
	default:
		return r.unit.AddImport(v, loc)
	}
}

// annotate adds the marker site to an evaluation failure
func (r *rewriter) annotate(err error, m Marker, call *syntax.CallExpr) error {
	ce, ok := err.(*engine.CompilerError)
	if !ok {
		return err
	}
	if ce.Location.File == "" {
		ce.Location.File = r.prog.File
	}
	if ce.Context.SourceLine == "" && ce.Location.Line > 0 {
		ce.Context.SourceLine = engine.SourceLine(r.prog.Source, ce.Location.Line)
	}
	site := fmt.Sprintf("in the argument of %s() at %s", m, call.Pos.Location())
	if ce.Context.HelpText == "" {
		ce.Context.HelpText = site
	} else {
		ce.Context.HelpText += " (" + site + ")"
	}
	return ce
}

func (r *rewriter) varDecl(n *syntax.VarDecl) (*syntax.VarDecl, bool, error) {
	var decls []*syntax.Declarator
	for i, d := range n.Decls {
		if d.Init == nil {
			if decls != nil {
				decls = append(decls, d)
			}
			continue
		}
		init, changed, err := r.expr(d.Init)
		if err != nil {
			return nil, false, err
		}
		if changed && decls == nil {
			decls = make([]*syntax.Declarator, i, len(n.Decls))
			copy(decls, n.Decls[:i])
		}
		if decls == nil {
			continue
		}
		if changed {
			cp := *d
			cp.Init = init
			d = &cp
		}
		decls = append(decls, d)
	}
	if decls == nil {
		return n, false, nil
	}
	cp := *n
	cp.Decls = decls
	return &cp, true, nil
}

func (r *rewriter) forStmt(n *syntax.ForStmt) (syntax.Stmt, bool, error) {
	var (
		init, body     syntax.Stmt
		cond, post     syntax.Expr
		c1, c2, c3, c4 bool
		err            error
	)
	if n.Init != nil {
		if init, c1, err = r.stmt(n.Init); err != nil {
			return nil, false, err
		}
	}
	if n.Cond != nil {
		if cond, c2, err = r.expr(n.Cond); err != nil {
			return nil, false, err
		}
	}
	if n.Post != nil {
		if post, c3, err = r.expr(n.Post); err != nil {
			return nil, false, err
		}
	}
	if body, c4, err = r.stmt(n.Body); err != nil {
		return nil, false, err
	}
	if !c1 && !c2 && !c3 && !c4 {
		return n, false, nil
	}
	cp := *n
	cp.Init, cp.Cond, cp.Post, cp.Body = init, cond, post, body
	return &cp, true, nil
}

func (r *rewriter) block(n *syntax.BlockStmt) (*syntax.BlockStmt, bool, error) {
	stmts, changed, err := r.stmtList(n.Stmts)
	if err != nil || !changed {
		return n, false, err
	}
	cp := *n
	cp.Stmts = stmts
	return &cp, true, nil
}

func (r *rewriter) function(fn *syntax.FuncLit) (*syntax.FuncLit, bool, error) {
	if fn.Body == nil {
		return fn, false, nil
	}
	body, changed, err := r.block(fn.Body)
	if err != nil || !changed {
		return fn, false, err
	}
	cp := *fn
	cp.Body = body
	return &cp, true, nil
}

func (r *rewriter) exprList(xs []syntax.Expr) ([]syntax.Expr, bool, error) {
	var out []syntax.Expr
	for i, x := range xs {
		nx, changed, err := r.expr(x)
		if err != nil {
			return nil, false, err
		}
		if changed && out == nil {
			out = make([]syntax.Expr, i, len(xs))
			copy(out, xs[:i])
		}
		if out != nil {
			out = append(out, nx)
		}
	}
	if out == nil {
		return xs, false, nil
	}
	return out, true, nil
}

func (r *rewriter) expr(e syntax.Expr) (syntax.Expr, bool, error) {
	switch n := e.(type) {
	case *syntax.CallExpr:
		return r.call(n)
	case *syntax.NewExpr:
		return r.newExpr(n)
	case *syntax.ArrayLit:
		elems, changed, err := r.exprList(n.Elements)
		if err != nil || !changed {
			return e, false, err
		}
		cp := *n
		cp.Elements = elems
		return &cp, true, nil
	case *syntax.ObjectLit:
		var props []*syntax.Property
		for i, p := range n.Props {
			v, changed, err := r.expr(p.Value)
			if err != nil {
				return nil, false, err
			}
			if changed && props == nil {
				props = make([]*syntax.Property, i, len(n.Props))
				copy(props, n.Props[:i])
			}
			if props == nil {
				continue
			}
			if changed {
				cp := *p
				cp.Value = v
				p = &cp
			}
			props = append(props, p)
		}
		if props == nil {
			return e, false, nil
		}
		cp := *n
		cp.Props = props
		return &cp, true, nil
	case *syntax.ParenExpr:
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return e, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.UnaryExpr:
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return e, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.UpdateExpr:
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return e, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.BinaryExpr:
		left, c1, err := r.expr(n.Left)
		if err != nil {
			return nil, false, err
		}
		right, c2, err := r.expr(n.Right)
		if err != nil {
			return nil, false, err
		}
		if !c1 && !c2 {
			return e, false, nil
		}
		cp := *n
		cp.Left, cp.Right = left, right
		return &cp, true, nil
	case *syntax.AssignExpr:
		target, c1, err := r.expr(n.Target)
		if err != nil {
			return nil, false, err
		}
		value, c2, err := r.expr(n.Value)
		if err != nil {
			return nil, false, err
		}
		if !c1 && !c2 {
			return e, false, nil
		}
		cp := *n
		cp.Target, cp.Value = target, value
		return &cp, true, nil
	case *syntax.CondExpr:
		test, c1, err := r.expr(n.Test)
		if err != nil {
			return nil, false, err
		}
		then, c2, err := r.expr(n.Then)
		if err != nil {
			return nil, false, err
		}
		els, c3, err := r.expr(n.Else)
		if err != nil {
			return nil, false, err
		}
		if !c1 && !c2 && !c3 {
			return e, false, nil
		}
		cp := *n
		cp.Test, cp.Then, cp.Else = test, then, els
		return &cp, true, nil
	case *syntax.MemberExpr:
		x, changed, err := r.expr(n.X)
		if err != nil || !changed {
			return e, false, err
		}
		cp := *n
		cp.X = x
		return &cp, true, nil
	case *syntax.IndexExpr:
		x, c1, err := r.expr(n.X)
		if err != nil {
			return nil, false, err
		}
		idx, c2, err := r.expr(n.Index)
		if err != nil {
			return nil, false, err
		}
		if !c1 && !c2 {
			return e, false, nil
		}
		cp := *n
		cp.X, cp.Index = x, idx
		return &cp, true, nil
	case *syntax.FuncLit:
		fn, changed, err := r.function(n)
		if err != nil || !changed {
			return e, false, err
		}
		return fn, true, nil
	}
	return e, false, nil
}

// call rewrites a call to an unbound name. The call site is recorded before
// the arguments are visited so outer calls come first and number lower.
func (r *rewriter) call(n *syntax.CallExpr) (syntax.Expr, bool, error) {
	id, ok := n.CalleeName()
	if !ok || !r.unbound(id) {
		return r.plainCall(n)
	}
	if _, isMarker := LookupMarker(id.Name); isMarker {
		return r.plainCall(n)
	}
	symbol := r.unit.NextSymbol()
	raw := make([]string, len(n.Args))
	for i, arg := range n.Args {
		raw[i] = r.prog.Text(arg)
	}
	err := r.unit.AddCallSite(model.CallSite{
		Symbol:       symbol,
		FunctionName: id.Name,
		RawArguments: raw,
		Location:     r.location(n.Pos),
	})
	if err != nil {
		return nil, false, err
	}
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		nx, changed, err := r.expr(arg)
		if err != nil {
			return nil, false, err
		}
		if changed {
			args[i] = syntax.Print(nx)
		} else {
			args[i] = raw[i]
		}
	}
	return &syntax.Placeholder{Pos: n.Pos, Symbol: symbol, Args: args}, true, nil
}

func (r *rewriter) plainCall(n *syntax.CallExpr) (syntax.Expr, bool, error) {
	callee, c1, err := r.expr(n.Callee)
	if err != nil {
		return nil, false, err
	}
	args, c2, err := r.exprList(n.Args)
	if err != nil {
		return nil, false, err
	}
	if !c1 && !c2 {
		return n, false, nil
	}
	cp := *n
	cp.Callee, cp.Args = callee, args
	return &cp, true, nil
}

// newExpr rewrites construction of an unbound class. The constructor
// arguments are dropped.
func (r *rewriter) newExpr(n *syntax.NewExpr) (syntax.Expr, bool, error) {
	if id, ok := n.CalleeName(); ok && r.unbound(id) {
		symbol := r.unit.NextSymbol()
		err := r.unit.AddInstantiation(model.Instantiation{
			Symbol:    symbol,
			ClassName: id.Name,
			Location:  r.location(n.Pos),
		})
		if err != nil {
			return nil, false, err
		}
		return &syntax.Placeholder{Pos: n.Pos, Symbol: symbol}, true, nil
	}
	callee, c1, err := r.expr(n.Callee)
	if err != nil {
		return nil, false, err
	}
	args, c2, err := r.exprList(n.Args)
	if err != nil {
		return nil, false, err
	}
	if !c1 && !c2 {
		return n, false, nil
	}
	cp := *n
	cp.Callee, cp.Args = callee, args
	return &cp, true, nil
}

func (r *rewriter) location(pos syntax.Pos) engine.SourceLocation {
	loc := pos.Location()
	if loc.File == "" {
		loc.File = r.prog.File
	}
	return loc
}

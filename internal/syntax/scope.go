package syntax

// ScopeKind tells which construct introduced a lexical scope
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// BindingKind tells how a name was introduced
type BindingKind int

const (
	BindVar BindingKind = iota
	BindLet
	BindConst
	BindFunction
	BindParam
)

func (k BindingKind) String() string {
	switch k {
	case BindVar:
		return "var"
	case BindLet:
		return "let"
	case BindConst:
		return "const"
	case BindFunction:
		return "function"
	case BindParam:
		return "parameter"
	default:
		return "unknown"
	}
}

// Binding is one declared name. Init is the initializer expression for
// variables and nil for parameters and uninitialized declarations.
type Binding struct {
	Name  string
	Kind  BindingKind
	Init  Expr
	Func  *FuncLit // set for function declarations
	Pos   Pos
	Scope *Scope
	Prev  *Binding // earlier declaration of the same name in this scope
}

// Scope is one level of the lexical scope chain. Scopes are complete once
// parsing finishes, which gives var and function declarations their
// hoisted visibility.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope

	bindings map[string]*Binding
	order    []string
}

// NewScope creates a scope nested in parent (nil for the global scope)
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, bindings: make(map[string]*Binding)}
}

// Declare adds b to the scope. A redeclaration shadows the earlier binding,
// which stays reachable through Prev, and keeps its original position in
// declaration order.
func (s *Scope) Declare(b *Binding) {
	b.Scope = s
	if existing, exists := s.bindings[b.Name]; exists {
		b.Prev = existing
	} else {
		s.order = append(s.order, b.Name)
	}
	s.bindings[b.Name] = b
}

// Lookup finds a binding declared directly in this scope
func (s *Scope) Lookup(name string) *Binding {
	if s == nil {
		return nil
	}
	return s.bindings[name]
}

// FindBinding looks name up outward through the scope chain
func (s *Scope) FindBinding(name string) *Binding {
	for sc := s; sc != nil; sc = sc.Parent {
		if b, ok := sc.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Bindings returns the scope's own bindings in declaration order
func (s *Scope) Bindings() []*Binding {
	if s == nil {
		return nil
	}
	result := make([]*Binding, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.bindings[name])
	}
	return result
}

// HasVariables reports whether any variable (not function or parameter) is declared here
func (s *Scope) HasVariables() bool {
	if s == nil {
		return false
	}
	for _, b := range s.bindings {
		switch b.Kind {
		case BindVar, BindLet, BindConst:
			return true
		}
	}
	return false
}

// VisibleNames lists every name reachable from this scope, innermost first
func (s *Scope) VisibleNames() []string {
	var names []string
	for sc := s; sc != nil; sc = sc.Parent {
		names = append(names, sc.order...)
	}
	return names
}

// functionScope returns the nearest enclosing function or global scope,
// which is where var declarations land
func (s *Scope) functionScope() *Scope {
	sc := s
	for sc.Kind == ScopeBlock && sc.Parent != nil {
		sc = sc.Parent
	}
	return sc
}

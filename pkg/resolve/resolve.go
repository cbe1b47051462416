// Package resolve implements the symbol-resolution pass: a single
// depth-first walk over an ast.TranslationUnit that builds a chain of
// lexical scopes, validates every identifier use, and records the scope
// visible at each scope-opening node into a ScopeMap for pkg/lower to
// consume read-only.
//
// The algorithm is a direct rewrite of the original badaclang
// implementation's SymbolTableVisitor: scopes nest at the translation unit
// and at each function definition only (parameters and every local
// declared anywhere in the body, including inside nested if/while/for
// blocks, land in that one function scope) — there is no separate scope per
// compound statement.
package resolve

import (
	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/diag"
)

// Scope is a nested symbol table: a mapping from identifier name to the
// declaring AST node, plus a parent link. Lookup walks parents; insertion
// is shallow (always into the current scope, never a parent).
type Scope struct {
	parent  *Scope
	symbols map[string]ast.Node
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: map[string]ast.Node{}}
}

// Insert binds name to node in this scope. It fails with a Redefinition
// error if name is already bound here (shadowing an outer scope is fine;
// colliding within the same scope is not).
func (s *Scope) Insert(name string, node ast.Node) error {
	if _, exists := s.symbols[name]; exists {
		return diag.Redefinitionf(node, "redefinition of '%s'", name)
	}
	s.symbols[name] = node
	return nil
}

// Lookup walks this scope and its parents for name.
func (s *Scope) Lookup(name string) (ast.Node, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if node, ok := scope.symbols[name]; ok {
			return node, true
		}
	}
	return nil, false
}

// ScopeMap records, for each scope-opening AST node (the translation unit
// itself, and each function definition), the Scope visible at that node's
// entry. pkg/lower uses it to resolve struct-tag field lists and
// enum-constant bindings without re-walking the AST.
type ScopeMap struct {
	entries map[ast.Node]*Scope
}

// ScopeOf returns the scope recorded for a scope-opening node.
func (m *ScopeMap) ScopeOf(n ast.Node) (*Scope, bool) {
	s, ok := m.entries[n]
	return s, ok
}

func (m *ScopeMap) record(n ast.Node, s *Scope) {
	m.entries[n] = s
}

// resolver carries the mutable state of one Resolve call: the current
// scope and the map being built up.
type resolver struct {
	scope *Scope
	out   *ScopeMap
}

// Resolve walks tu and returns the frozen ScopeMap, or the first
// UndeclaredIdentifier/Redefinition/UnsupportedConstruct error encountered.
func Resolve(tu *ast.TranslationUnit) (*ScopeMap, error) {
	r := &resolver{
		scope: newScope(nil),
		out:   &ScopeMap{entries: map[ast.Node]*Scope{}},
	}
	r.out.record(tu, r.scope)

	for _, decl := range tu.Decls {
		if err := r.handleExternalDecl(decl); err != nil {
			return nil, err
		}
	}
	return r.out, nil
}

func (r *resolver) handleExternalDecl(decl ast.ExternalDecl) error {
	switch d := decl.(type) {
	case ast.Decl:
		return r.handleDecl(&d)
	case *ast.FuncDef:
		return r.handleFuncDef(d)
	default:
		return diag.Unsupportedf(decl, "unsupported top-level declaration %T", decl)
	}
}

// handleDecl inserts a declaration's name into the current scope. A
// nameless declaration (possible only for a bare struct/enum definition) is
// inserted under its tag name instead, and an enum additionally spills each
// enumerator into the same (enclosing) scope.
func (r *resolver) handleDecl(d *ast.Decl) error {
	if d.Typedef {
		return diag.Unsupportedf(d, "typedef is not supported")
	}

	if d.Name == "" {
		switch t := d.Type.(type) {
		case *ast.Struct:
			return r.scope.Insert(t.Name, d)
		case *ast.Enum:
			if err := r.scope.Insert(t.Name, d); err != nil {
				return err
			}
			for _, enumerator := range t.Enumerators {
				if err := r.scope.Insert(enumerator, d); err != nil {
					return err
				}
			}
			return nil
		default:
			return diag.Unsupportedf(d, "nameless declaration must be a struct or enum")
		}
	}

	return r.scope.Insert(d.Name, d)
}

// handleFuncDef inserts the function's own name into the enclosing scope,
// then opens one new scope shared by every parameter and every local
// declared anywhere in the body (including inside nested blocks).
func (r *resolver) handleFuncDef(fd *ast.FuncDef) error {
	if err := r.scope.Insert(fd.Name, fd); err != nil {
		return err
	}

	outer := r.scope
	r.scope = newScope(outer)
	r.out.record(fd, r.scope)
	defer func() { r.scope = outer }()

	for _, param := range fd.Type.Params {
		if param.Name == "" {
			continue // the lone `void` parameter marker carries no binding
		}
		if err := r.scope.Insert(param.Name, param); err != nil {
			return err
		}
	}

	return r.handleCompoundStmt(fd.Body)
}

func (r *resolver) handleCompoundStmt(cs *ast.CompoundStmt) error {
	for _, item := range cs.Items {
		if err := r.handleBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) handleBlockItem(item ast.BlockItem) error {
	switch v := item.(type) {
	case ast.Decl:
		return r.handleDecl(&v)
	case interface{ Unwrap() ast.Stmt }:
		return r.handleStmt(v.Unwrap())
	default:
		return diag.Unsupportedf(item, "unsupported block item %T", item)
	}
}

func (r *resolver) handleStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		return r.handleCompoundStmt(st)
	case *ast.If:
		if err := r.handleExpr(st.Cond); err != nil {
			return err
		}
		if err := r.handleStmt(st.Then); err != nil {
			return err
		}
		if st.Else != nil {
			return r.handleStmt(st.Else)
		}
		return nil
	case *ast.While:
		if err := r.handleExpr(st.Cond); err != nil {
			return err
		}
		return r.handleStmt(st.Body)
	case *ast.For:
		if st.Init != nil {
			if err := r.handleBlockItem(st.Init); err != nil {
				return err
			}
		}
		if st.Cond != nil {
			if err := r.handleExpr(st.Cond); err != nil {
				return err
			}
		}
		if st.Post != nil {
			if err := r.handleExpr(st.Post); err != nil {
				return err
			}
		}
		return r.handleStmt(st.Body)
	case *ast.Switch:
		if err := r.handleExpr(st.Cond); err != nil {
			return err
		}
		for _, c := range st.Cases {
			if c.Value != nil {
				if err := r.handleExpr(c.Value); err != nil {
					return err
				}
			}
			for _, inner := range c.Body {
				if err := r.handleStmt(inner); err != nil {
					return err
				}
			}
		}
		return nil
	case *ast.Break:
		return nil
	case *ast.Return:
		if st.Value != nil {
			return r.handleExpr(st.Value)
		}
		return nil
	case *ast.ExprStmt:
		return r.handleExpr(st.Value)
	default:
		return diag.Unsupportedf(s, "unsupported statement %T", s)
	}
}

func (r *resolver) handleExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.Assignment:
		if err := r.handleExpr(ex.Rhs); err != nil {
			return err
		}
		return r.handleExpr(ex.Lhs)
	case *ast.Constant:
		return nil
	case *ast.ID:
		if _, ok := r.scope.Lookup(ex.Name); !ok {
			return diag.Undeclaredf(ex, "use of undeclared identifier '%s'", ex.Name)
		}
		return nil
	case *ast.BinaryOp:
		if err := r.handleExpr(ex.Lhs); err != nil {
			return err
		}
		return r.handleExpr(ex.Rhs)
	case *ast.UnaryOp:
		return r.handleExpr(ex.Operand)
	case *ast.Cast:
		return r.handleExpr(ex.Operand)
	case *ast.FuncCall:
		if _, ok := r.scope.Lookup(ex.Callee); !ok {
			return diag.Undeclaredf(ex, "use of undeclared identifier '%s'", ex.Callee)
		}
		for _, arg := range ex.Args {
			if err := r.handleExpr(arg); err != nil {
				return err
			}
		}
		return nil
	case *ast.ArrayRef:
		if err := r.handleExpr(ex.Base); err != nil {
			return err
		}
		return r.handleExpr(ex.Index)
	case *ast.StructRef:
		// Only the base expression is resolved here; the field name is
		// validated later by Lower against the struct's declared fields —
		// it is never a scope entry (spec.md §4.2).
		return r.handleExpr(ex.Base)
	case *ast.InitList:
		for _, item := range ex.Items {
			if err := r.handleExpr(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return diag.Unsupportedf(e, "unsupported expression %T", e)
	}
}

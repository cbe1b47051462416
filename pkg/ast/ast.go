// Package ast defines the tagged-tree node types that badaclang's parser
// binding (pkg/cparse) produces and that pkg/resolve and pkg/lower consume.
//
// The shape mirrors a C99 AST (translation unit, declarations, statements,
// expressions) closely enough that a reader familiar with pycparser's
// c_ast module will recognize every node. Nodes are plain structs behind
// small marker interfaces rather than one big discriminated union, so each
// pass can switch on concrete type; a node type a pass does not handle falls
// to that switch's default case and is reported as an error.
package ast

import "strconv"

// Coord locates a node in its source file, used to format diagnostics as
// "<file>:<line>:<column>: <message>".
type Coord struct {
	File   string
	Line   int
	Column int
}

func (c Coord) String() string {
	if c.File == "" {
		return "<unknown>"
	}
	if c.Column > 0 {
		return c.File + ":" + strconv.Itoa(c.Line) + ":" + strconv.Itoa(c.Column)
	}
	return c.File + ":" + strconv.Itoa(c.Line)
}

// Node is satisfied by every AST node; it exists so generic helpers (e.g.
// pkg/resolve's scope map) can be keyed on any node without an exhaustive
// type list.
type Node interface {
	Coordinate() Coord
}

// base embeds into every concrete node to provide Coordinate() once.
type base struct {
	Coord Coord
}

func (b base) Coordinate() Coord { return b.Coord }

// ----------------------------------------------------------------------------
// Top level

// TranslationUnit is the root of a parsed source file: an ordered list of
// top-level external declarations (function definitions and declarations).
type TranslationUnit struct {
	base
	Decls []ExternalDecl
}

// ExternalDecl is anything that can appear at file scope: a Decl (variable,
// function prototype, struct/enum tag) or a FuncDef (a function with a body).
type ExternalDecl interface {
	Node
	externalDecl()
}

// Decl declares a name (variable, function prototype, typedef target, or a
// bare struct/enum tag) without necessarily defining it.
type Decl struct {
	base
	Name string
	Type TypeNode
	Init Expr // nil unless this is a variable declaration with an initializer
	// Typedef marks this Decl as a `typedef` — badaclang rejects these
	// outright in Resolve (UnsupportedConstruct), matching spec.md's Non-goal.
	Typedef bool
}

func (Decl) externalDecl() {}

// FuncDef is a function definition: a FuncDecl type plus a body.
type FuncDef struct {
	base
	Name string
	Type *FuncDecl
	Body *CompoundStmt
}

func (FuncDef) externalDecl() {}

// ----------------------------------------------------------------------------
// Types

// TypeNode is any node that appears in type position.
type TypeNode interface {
	Node
	typeNode()
}

// IdentifierType is a base type name: void, char, or int. Struct and enum
// tag references are Struct and Enum nodes, not IdentifierType.
type IdentifierType struct {
	base
	Names []string // e.g. []string{"int"}
}

func (IdentifierType) typeNode() {}

// TypeDecl wraps a base type with the declared identifier's name, the
// innermost node of any pointer/array/function declarator chain.
type TypeDecl struct {
	base
	Name string
	Type TypeNode
}

func (TypeDecl) typeNode() {}

// PtrDecl is a pointer declarator: `T *name`.
type PtrDecl struct {
	base
	Type TypeNode
}

func (PtrDecl) typeNode() {}

// ArrayDecl is an array declarator: `T name[Dim]`. Dim is nil for an
// incomplete array type (e.g. a function parameter `T name[]`, which decays
// to a pointer per spec.md §4.1).
type ArrayDecl struct {
	base
	Type TypeNode
	Dim  Expr // nil => incomplete/decayed dimension
}

func (ArrayDecl) typeNode() {}

// FuncDecl is a function type: `RetType name(Params...)`.
type FuncDecl struct {
	base
	Params   []*Decl
	Type     TypeNode // return type
	Variadic bool
}

func (FuncDecl) typeNode() {}

// Struct is a struct type, optionally with a field list (a bare `struct Tag`
// reference has Fields == nil and is resolved through the scope map).
type Struct struct {
	base
	Name   string
	Fields []*Decl
}

func (Struct) typeNode() {}

// Enum is an enum type with its ordered list of enumerator names. Each
// enumerator is lowered to i32 and inserted into the enclosing scope as a
// constant, per spec.md §4.3.
type Enum struct {
	base
	Name       string
	Enumerators []string
}

func (Enum) typeNode() {}

// ----------------------------------------------------------------------------
// Statements

// Stmt is any statement node.
type Stmt interface {
	Node
	stmt()
}

// CompoundStmt is a `{ ... }` block: an ordered list of declarations and
// statements, each of which may open or extend the current scope.
type CompoundStmt struct {
	base
	Items []BlockItem
}

func (CompoundStmt) stmt() {}

// BlockItem is either a Decl (local variable) or a Stmt, the two things that
// may appear inside a CompoundStmt.
type BlockItem interface {
	Node
	blockItem()
}

func (Decl) blockItem() {}

// StmtItem lets any Stmt satisfy BlockItem without every statement type
// needing its own blockItem() method declared twice. Unwrap recovers the
// wrapped Stmt for callers (pkg/resolve, pkg/lower) that switch on concrete
// statement types.
type StmtItem struct{ Stmt }

func (StmtItem) blockItem() {}

// Unwrap returns the wrapped statement.
func (s StmtItem) Unwrap() Stmt { return s.Stmt }

// WrapStmt adapts a Stmt into a BlockItem for CompoundStmt.Items.
func WrapStmt(s Stmt) BlockItem { return StmtItem{s} }

// If is an `if (Cond) Then else Else` statement; Else is nil when absent.
type If struct {
	base
	Cond Expr
	Then Stmt
	Else Stmt
}

func (If) stmt() {}

// While is a `while (Cond) Body` loop.
type While struct {
	base
	Cond Expr
	Body Stmt
}

func (While) stmt() {}

// For is a `for (Init; Cond; Post) Body` loop; any of Init/Cond/Post may be
// nil. Init is a BlockItem (not a bare Stmt) so the common `for (int i = 0;
// ...)` form, which declares its induction variable, can be represented the
// same way a CompoundStmt's leading Decl is.
type For struct {
	base
	Init BlockItem // ExprStmt, a wrapped Stmt, a Decl, or nil
	Cond Expr
	Post Expr
	Body Stmt
}

func (For) stmt() {}

// Switch is a `switch (Cond) { Cases... }` statement.
type Switch struct {
	base
	Cond  Expr
	Cases []*Case
}

func (Switch) stmt() {}

// Case is one arm of a Switch: `case Value:` (Value == nil for `default:`)
// followed by its statements.
type Case struct {
	base
	Value Expr // nil => default case
	Body  []Stmt
}

func (Case) stmt() {}

// Break is a `break;` statement, valid inside While/For/Switch.
type Break struct{ base }

func (Break) stmt() {}

// Return is a `return Value;` statement; Value is nil for a bare `return;`.
type Return struct {
	base
	Value Expr
}

func (Return) stmt() {}

// ExprStmt is an expression evaluated for its side effect, e.g. a bare
// function call statement.
type ExprStmt struct {
	base
	Value Expr
}

func (ExprStmt) stmt() {}

// ----------------------------------------------------------------------------
// Expressions

// Expr is any expression node.
type Expr interface {
	Node
	expr()
}

// Assignment is `Lhs = Rhs` (badaclang only supports plain `=`, no
// compound assignment operators, per spec.md's Non-goals).
type Assignment struct {
	base
	Lhs Expr
	Rhs Expr
}

func (Assignment) expr() {}

// Constant is a literal: an integer, character, or string constant. Kind
// distinguishes how Raw should be interpreted when lowering (spec.md §4.4.2
// requires int base detection and string escaping).
type Constant struct {
	base
	Kind ConstantKind
	Raw  string
}

func (Constant) expr() {}

// ConstantKind tags the literal form of a Constant.
type ConstantKind int

const (
	IntConstant ConstantKind = iota
	CharConstant
	StringConstant
)

// ID is a bare identifier reference, resolved through the scope map.
type ID struct {
	base
	Name string
}

func (ID) expr() {}

// BinaryOp is `Lhs Op Rhs`: arithmetic (+ - * /), comparison
// (== != < <= > >=), or short-circuit boolean (&& ||).
type BinaryOp struct {
	base
	Op  string
	Lhs Expr
	Rhs Expr
}

func (BinaryOp) expr() {}

// UnaryOp is a prefix/postfix unary operator: -, &, ++, --, p++, p--.
type UnaryOp struct {
	base
	Op      string
	Operand Expr
}

func (UnaryOp) expr() {}

// Cast is `(Type) Operand`, restricted to pointer-to-pointer casts per
// spec.md's Non-goals (no implicit numeric conversions in the AST).
type Cast struct {
	base
	Type    TypeNode
	Operand Expr
}

func (Cast) expr() {}

// FuncCall is `Callee(Args...)`.
type FuncCall struct {
	base
	Callee string
	Args   []Expr
}

func (FuncCall) expr() {}

// ArrayRef is `Base[Index]`.
type ArrayRef struct {
	base
	Base  Expr
	Index Expr
}

func (ArrayRef) expr() {}

// StructRef is `Base.Field` or `Base->Field`; Arrow distinguishes the two
// since the former needs an extra address-of before the GEP.
type StructRef struct {
	base
	Base  Expr
	Field string
	Arrow bool
}

func (StructRef) expr() {}

// InitList is a brace initializer `{ Items... }`, valid only for array
// declarations per spec.md's Non-goals (no aggregate struct initializers).
type InitList struct {
	base
	Items []Expr
}

func (InitList) expr() {}

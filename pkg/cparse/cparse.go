// Package cparse binds badaclang's AST (pkg/ast) to a real external C front
// end instead of a hand-rolled grammar, mirroring
// original_source/badaclang/parser.py's delegation to pycparser. The chosen
// collaborator is modernc.org/cc/v3, a pure-Go, actively maintained C99
// front end (the successor of github.com/cznic/cc).
//
// The original implementation invoked the system preprocessor with `-xc++`
// so that comments were retained for source-coordinate bookkeeping. cc/v3
// runs its own preprocessor instead, so nothing is shelled out; Parse hands
// it an empty cc.Config and sets no option for retaining comments.
package cparse

import (
	"fmt"

	cc "modernc.org/cc/v3"

	"github.com/badaclang/badaclang/pkg/ast"
)

// Parse reads and parses filename as a C99 translation unit restricted to
// badaclang's accepted subset (void/char/int, pointers, arrays, structs,
// enums; no typedefs, floats, unions, bitfields, function pointers, or
// goto) and converts the result into a *ast.TranslationUnit. The nodes it
// builds carry no source coordinates: every Coord is left at its zero value,
// so diagnostics about them print the location as "<unknown>".
//
// Some constructs outside the subset are rejected by Parse itself with a
// plain error (typedef, union, explicit enumerator values, and any type
// specifier, declarator, statement or expression form the converter does
// not handle); others pass through and surface later as an
// UnsupportedConstruct diagnostic from pkg/resolve or pkg/lower.
func Parse(filename string) (*ast.TranslationUnit, error) {
	cfg := &cc.Config{}
	sources := []cc.Source{{Name: filename}}

	ccAST, err := cc.Parse(cfg, sources)
	if err != nil {
		return nil, fmt.Errorf("cparse: %s: %w", filename, err)
	}

	conv := &converter{file: filename}
	return conv.translationUnit(ccAST)
}

// converter walks a modernc.org/cc/v3 parse tree and builds the
// corresponding pkg/ast nodes. It carries only the source filename, which it
// uses in its error messages; it does not copy cc/v3's token positions into
// the ast.Coord of the nodes it builds.
type converter struct {
	file string
}

func (c *converter) coord(pos interface{ Line() int }) ast.Coord {
	if pos == nil {
		return ast.Coord{File: c.file}
	}
	return ast.Coord{File: c.file, Line: pos.Line()}
}

// translationUnit converts cc/v3's top-level declaration list into a
// TranslationUnit. cc/v3 represents the translation unit as a recursive
// singly-linked list of external declarations; badaclang only cares about
// ordinary declarations and function definitions (the two forms spec.md's
// data model names), so any other external-declaration form is reported as
// unsupported instead of silently dropped.
func (c *converter) translationUnit(tu *cc.AST) (*ast.TranslationUnit, error) {
	root := &ast.TranslationUnit{}

	for n := tu.TranslationUnit; n != nil; n = n.TranslationUnit {
		decl, err := c.externalDeclaration(n.ExternalDeclaration)
		if err != nil {
			return nil, err
		}
		if decl != nil {
			root.Decls = append(root.Decls, decl)
		}
	}
	return root, nil
}

func (c *converter) externalDeclaration(ed *cc.ExternalDeclaration) (ast.ExternalDecl, error) {
	switch ed.Case {
	case cc.ExternalDeclarationFuncDef:
		return c.funcDef(ed.FunctionDefinition)
	case cc.ExternalDeclarationDecl:
		return c.topLevelDecl(ed.Declaration)
	default:
		// Empty declarations (a bare `;`) and preprocessor-only
		// artifacts compile away to nothing.
		return nil, nil
	}
}

func (c *converter) funcDef(fd *cc.FunctionDefinition) (*ast.FuncDef, error) {
	name, funcType, err := c.declarator(fd.Declarator, fd.DeclarationSpecifiers)
	if err != nil {
		return nil, err
	}
	ft, ok := funcType.(*ast.FuncDecl)
	if !ok {
		return nil, fmt.Errorf("cparse: %s: function definition declarator did not produce a function type", c.file)
	}
	body, err := c.compoundStatement(fd.CompoundStatement)
	if err != nil {
		return nil, err
	}
	return &ast.FuncDef{
		Name: name,
		Type: ft,
		Body: body,
	}, nil
}

func (c *converter) topLevelDecl(d *cc.Declaration) (ast.Decl, error) {
	decl, err := c.declaration(d)
	if err != nil {
		return ast.Decl{}, err
	}
	return *decl, nil
}

// The remaining conversions (declaration, declarator, type-specifier,
// statement, expression) each switch on a cc/v3 grammar-production Case
// constant, the same open-dispatch style pkg/resolve and pkg/lower use for
// their own AST. Only the productions reachable from badaclang's accepted
// subset are implemented; anything else returns an error here rather than
// being silently accepted and mis-lowered downstream.

func (c *converter) declaration(d *cc.Declaration) (*ast.Decl, error) {
	if d.DeclarationSpecifiers == nil {
		return nil, fmt.Errorf("cparse: %s: declaration without a type", c.file)
	}
	if isTypedef(d.DeclarationSpecifiers) {
		return nil, fmt.Errorf("cparse: %s: typedef is not supported", c.file)
	}

	var name string
	var declType ast.TypeNode
	var err error
	if d.InitDeclaratorList != nil {
		idl := d.InitDeclaratorList
		name, declType, err = c.declarator(idl.InitDeclarator.Declarator, d.DeclarationSpecifiers)
		if err != nil {
			return nil, err
		}
	} else {
		// A declaration with no declarator at all: a bare `struct Tag;`
		// or `enum Tag;` forward reference. Name stays empty.
		declType, err = c.typeSpecifier(d.DeclarationSpecifiers)
		if err != nil {
			return nil, err
		}
	}

	decl := &ast.Decl{Name: name, Type: declType}
	if d.InitDeclaratorList != nil && d.InitDeclaratorList.InitDeclarator.Initializer != nil {
		init, err := c.initializer(d.InitDeclaratorList.InitDeclarator.Initializer)
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	return decl, nil
}

// isTypedef reports whether a declaration-specifiers list carries the
// `typedef` storage-class specifier. badaclang rejects every typedef
// outright (an explicit Non-goal), so Parse reports it immediately instead
// of letting it flow into pkg/resolve disguised as an ordinary declaration.
func isTypedef(ds *cc.DeclarationSpecifiers) bool {
	for n := ds; n != nil; n = n.DeclarationSpecifiers {
		if n.Case == cc.DeclarationSpecifiersStorage &&
			n.StorageClassSpecifier != nil &&
			n.StorageClassSpecifier.Case == cc.StorageClassSpecifierTypedef {
			return true
		}
	}
	return false
}

// typeSpecifier converts a declaration-specifiers list's base type (void,
// char, int, struct, or enum) into the corresponding pkg/ast type node,
// ignoring storage-class and qualifier specifiers this subset doesn't
// distinguish (spec.md names no `const`/`static` semantics).
func (c *converter) typeSpecifier(ds *cc.DeclarationSpecifiers) (ast.TypeNode, error) {
	for n := ds; n != nil; n = n.DeclarationSpecifiers {
		if n.Case != cc.DeclarationSpecifiersTypeSpec || n.TypeSpecifier == nil {
			continue
		}
		ts := n.TypeSpecifier
		switch ts.Case {
		case cc.TypeSpecifierVoid:
			return &ast.IdentifierType{Names: []string{"void"}}, nil
		case cc.TypeSpecifierChar:
			return &ast.IdentifierType{Names: []string{"char"}}, nil
		case cc.TypeSpecifierInt:
			return &ast.IdentifierType{Names: []string{"int"}}, nil
		case cc.TypeSpecifierStructOrUnion:
			return c.structSpecifier(ts.StructOrUnionSpecifier)
		case cc.TypeSpecifierEnum:
			return c.enumSpecifier(ts.EnumSpecifier)
		default:
			return nil, fmt.Errorf("cparse: %s: unsupported type specifier", c.file)
		}
	}
	return nil, fmt.Errorf("cparse: %s: declaration has no recognizable type specifier", c.file)
}

func (c *converter) structSpecifier(s *cc.StructOrUnionSpecifier) (*ast.Struct, error) {
	if s.StructOrUnion != nil && s.StructOrUnion.Case == cc.StructOrUnionUnion {
		return nil, fmt.Errorf("cparse: %s: union is not supported", c.file)
	}
	name := ""
	if s.Token2.Value != 0 {
		name = s.Token2.String()
	}
	if s.StructDeclarationList == nil {
		// Bare `struct Tag` reference: fields resolved later via scope.
		return &ast.Struct{Name: name}, nil
	}
	var fields []*ast.Decl
	for n := s.StructDeclarationList; n != nil; n = n.StructDeclarationList {
		fs, err := c.structDeclaration(n.StructDeclaration)
		if err != nil {
			return nil, err
		}
		fields = append(fields, fs...)
	}
	return &ast.Struct{Name: name, Fields: fields}, nil
}

func (c *converter) structDeclaration(sd *cc.StructDeclaration) ([]*ast.Decl, error) {
	var fields []*ast.Decl
	for n := sd.StructDeclaratorList; n != nil; n = n.StructDeclaratorList {
		name, t, err := c.declarator(n.StructDeclarator.Declarator, sd.SpecifierQualifierList)
		if err != nil {
			return nil, err
		}
		fields = append(fields, &ast.Decl{Name: name, Type: t})
	}
	return fields, nil
}

func (c *converter) enumSpecifier(e *cc.EnumSpecifier) (*ast.Enum, error) {
	name := ""
	if e.Token2.Value != 0 {
		name = e.Token2.String()
	}
	if e.EnumeratorList == nil {
		return &ast.Enum{Name: name}, nil
	}
	var names []string
	for n := e.EnumeratorList; n != nil; n = n.EnumeratorList {
		if n.Enumerator.Constant != nil {
			return nil, fmt.Errorf("cparse: %s: explicit enumerator values are not supported", c.file)
		}
		names = append(names, n.Enumerator.Token.String())
	}
	return &ast.Enum{Name: name, Enumerators: names}, nil
}

// declarator walks a (possibly pointer/array/function) declarator and
// returns the declared name together with its full pkg/ast type, built from
// the inside out the way pycparser's ast_transforms.fix_decl_name_type does:
// the base type specifier is the innermost TypeDecl, and each wrapping
// pointer/array/function layer is threaded outward around it.
func (c *converter) declarator(d *cc.Declarator, ds *cc.DeclarationSpecifiers) (string, ast.TypeNode, error) {
	base, err := c.typeSpecifier(ds)
	if err != nil {
		return "", nil, err
	}
	return c.directDeclarator(d.DirectDeclarator, d.Pointer, base)
}

func (c *converter) directDeclarator(dd *cc.DirectDeclarator, ptr *cc.Pointer, base ast.TypeNode) (string, ast.TypeNode, error) {
	switch dd.Case {
	case cc.DirectDeclaratorIdent:
		name := dd.Token.String()
		t := wrapPointers(ptr, base)
		return name, &ast.TypeDecl{Name: name, Type: t}, nil

	case cc.DirectDeclaratorArr:
		name, inner, err := c.directDeclarator(dd.DirectDeclarator, nil, base)
		if err != nil {
			return "", nil, err
		}
		var dim ast.Expr
		if dd.AssignmentExpression != nil {
			dim, err = c.expression(dd.AssignmentExpression)
			if err != nil {
				return "", nil, err
			}
		}
		arr := &ast.ArrayDecl{Type: unwrapTypeDecl(inner), Dim: dim}
		return name, wrapPointers(ptr, rewrapTypeDecl(inner, arr)), nil

	case cc.DirectDeclaratorFunc, cc.DirectDeclaratorParamTypeList:
		name, inner, err := c.directDeclarator(dd.DirectDeclarator, nil, base)
		if err != nil {
			return "", nil, err
		}
		params, variadic, err := c.paramList(dd.ParameterTypeList)
		if err != nil {
			return "", nil, err
		}
		fn := &ast.FuncDecl{Params: params, Variadic: variadic, Type: unwrapTypeDecl(inner)}
		return name, fn, nil

	case cc.DirectDeclaratorDecl:
		return c.directDeclarator(dd.Declarator.DirectDeclarator, combine(ptr, dd.Declarator.Pointer), base)

	default:
		return "", nil, fmt.Errorf("cparse: unsupported declarator form")
	}
}

func (c *converter) paramList(pl *cc.ParameterTypeList) ([]*ast.Decl, bool, error) {
	if pl == nil {
		return nil, false, nil
	}
	variadic := pl.Case == cc.ParameterTypeListVar
	var params []*ast.Decl
	for n := pl.ParameterList; n != nil; n = n.ParameterList {
		pd := n.ParameterDeclaration
		if pd.Declarator == nil {
			t, err := c.typeSpecifier(pd.DeclarationSpecifiers)
			if err != nil {
				return nil, false, err
			}
			if id, ok := t.(*ast.IdentifierType); ok && len(id.Names) == 1 && id.Names[0] == "void" && len(params) == 0 {
				continue // `f(void)` has zero parameters
			}
			params = append(params, &ast.Decl{Type: t})
			continue
		}
		name, t, err := c.declarator(pd.Declarator, pd.DeclarationSpecifiers)
		if err != nil {
			return nil, false, err
		}
		params = append(params, &ast.Decl{Name: name, Type: unwrapTypeDecl(t)})
	}
	return params, variadic, nil
}

// wrapPointers threads zero or more PtrDecl layers, outermost first, around
// inner — `int **p` walks Pointer twice.
func wrapPointers(ptr *cc.Pointer, inner ast.TypeNode) ast.TypeNode {
	t := inner
	for p := ptr; p != nil; p = p.Pointer {
		t = &ast.PtrDecl{Type: t}
	}
	return t
}

func combine(outer *cc.Pointer, inner *cc.Pointer) *cc.Pointer {
	if outer == nil {
		return inner
	}
	return outer
}

// unwrapTypeDecl strips a TypeDecl wrapper added by directDeclarator's base
// case so an outer ArrayDecl/FuncDecl can wrap the underlying type directly
// instead of nesting through a redundant TypeDecl.
func unwrapTypeDecl(t ast.TypeNode) ast.TypeNode {
	if td, ok := t.(*ast.TypeDecl); ok {
		return td.Type
	}
	return t
}

func rewrapTypeDecl(orig ast.TypeNode, newInner ast.TypeNode) ast.TypeNode {
	if td, ok := orig.(*ast.TypeDecl); ok {
		return &ast.TypeDecl{Name: td.Name, Type: newInner}
	}
	return newInner
}

func (c *converter) initializer(init *cc.Initializer) (ast.Expr, error) {
	if init.Case == cc.InitializerInitList {
		var items []ast.Expr
		for n := init.InitializerList; n != nil; n = n.InitializerList {
			item, err := c.initializer(n.Initializer.Initializer)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return &ast.InitList{Items: items}, nil
	}
	return c.expression(init.AssignmentExpression)
}

// compoundStatement converts a `{ ... }` block into pkg/ast's CompoundStmt,
// wrapping each statement item with ast.WrapStmt per pkg/ast's BlockItem
// convention.
func (c *converter) compoundStatement(cs *cc.CompoundStatement) (*ast.CompoundStmt, error) {
	out := &ast.CompoundStmt{}
	for n := cs.BlockItemList; n != nil; n = n.BlockItemList {
		bi := n.BlockItem
		if bi.Declaration != nil {
			d, err := c.declaration(bi.Declaration)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, *d)
			continue
		}
		s, err := c.statement(bi.Statement)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, ast.WrapStmt(s))
	}
	return out, nil
}

func (c *converter) statement(s *cc.Statement) (ast.Stmt, error) {
	switch s.Case {
	case cc.StatementCompound:
		return c.compoundStatement(s.CompoundStatement)

	case cc.StatementSelection:
		return c.selectionStatement(s.SelectionStatement)

	case cc.StatementIteration:
		return c.iterationStatement(s.IterationStatement)

	case cc.StatementJump:
		return c.jumpStatement(s.JumpStatement)

	case cc.StatementExpr:
		if s.ExpressionStatement.Expression == nil {
			return &ast.ExprStmt{}, nil
		}
		e, err := c.expression(s.ExpressionStatement.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Value: e}, nil

	default:
		return nil, fmt.Errorf("cparse: %s: unsupported statement form", c.file)
	}
}

func (c *converter) selectionStatement(s *cc.SelectionStatement) (ast.Stmt, error) {
	switch s.Case {
	case cc.SelectionStatementIf, cc.SelectionStatementIfElse:
		cond, err := c.expression(s.Expression)
		if err != nil {
			return nil, err
		}
		then, err := c.statement(s.Statement)
		if err != nil {
			return nil, err
		}
		n := &ast.If{Cond: cond, Then: then}
		if s.Case == cc.SelectionStatementIfElse {
			n.Else, err = c.statement(s.Statement2)
			if err != nil {
				return nil, err
			}
		}
		return n, nil

	case cc.SelectionStatementSwitch:
		cond, err := c.expression(s.Expression)
		if err != nil {
			return nil, err
		}
		body, err := c.statement(s.Statement)
		if err != nil {
			return nil, err
		}
		compound, ok := body.(*ast.CompoundStmt)
		if !ok {
			return nil, fmt.Errorf("cparse: %s: switch body must be a compound statement", c.file)
		}
		return switchFromCases(cond, compound)

	default:
		return nil, fmt.Errorf("cparse: %s: unsupported selection statement", c.file)
	}
}

// switchFromCases regroups a switch body's flat list of case/default labels
// and fall-through statements into pkg/ast's Switch/Case shape, mirroring
// the grouping original_source/badaclang/codegen.py's NodeVisitor does by
// walking Case.stmts linked lists.
func switchFromCases(cond ast.Expr, body *ast.CompoundStmt) (*ast.Switch, error) {
	sw := &ast.Switch{Cond: cond}
	var current *ast.Case
	for _, item := range body.Items {
		wrapped, ok := item.(interface{ Unwrap() ast.Stmt })
		if !ok {
			return nil, fmt.Errorf("cparse: switch body may only contain statements")
		}
		switch st := wrapped.Unwrap().(type) {
		case *caseLabel:
			current = &ast.Case{Value: st.Value}
			sw.Cases = append(sw.Cases, current)
		case *defaultLabel:
			current = &ast.Case{}
			sw.Cases = append(sw.Cases, current)
		default:
			if current == nil {
				return nil, fmt.Errorf("cparse: statement before any case label in switch")
			}
			current.Body = append(current.Body, st)
		}
	}
	return sw, nil
}

// caseLabel and defaultLabel are the markers switchFromCases groups a switch
// body on; they never reach pkg/resolve or pkg/lower. No conversion in this
// package creates them: statement has no case for labeled statements, so a
// `case` or `default` label in a switch body is rejected as an unsupported
// statement form before switchFromCases runs.
type caseLabel struct {
	ast.Break // embeds just for a Coord-bearing base; never treated as Break
	Value     ast.Expr
}
type defaultLabel struct{ ast.Break }

func (c *converter) iterationStatement(s *cc.IterationStatement) (ast.Stmt, error) {
	switch s.Case {
	case cc.IterationStatementWhile:
		cond, err := c.expression(s.Expression)
		if err != nil {
			return nil, err
		}
		body, err := c.statement(s.Statement)
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body}, nil

	case cc.IterationStatementFor:
		f := &ast.For{}
		if s.Declaration != nil {
			d, err := c.declaration(s.Declaration)
			if err != nil {
				return nil, err
			}
			// `for (int i = 0; ...)`: the induction variable is declared
			// (and bound into the enclosing function scope, like any
			// other local) before the condition is ever evaluated, per
			// original_source/badaclang/codegen.py's visit_For, which
			// runs generic_visit(node.init) on the declaration itself
			// instead of discarding it down to a bare assignment.
			f.Init = *d
		} else if s.Expression != nil {
			init, err := c.expression(s.Expression)
			if err != nil {
				return nil, err
			}
			f.Init = ast.WrapStmt(&ast.ExprStmt{Value: init})
		}
		if s.Expression2 != nil {
			cond, err := c.expression(s.Expression2)
			if err != nil {
				return nil, err
			}
			f.Cond = cond
		}
		if s.Expression3 != nil {
			post, err := c.expression(s.Expression3)
			if err != nil {
				return nil, err
			}
			f.Post = post
		}
		body, err := c.statement(s.Statement)
		if err != nil {
			return nil, err
		}
		f.Body = body
		return f, nil

	default:
		return nil, fmt.Errorf("cparse: %s: unsupported iteration statement (goto-free subset only)", c.file)
	}
}

func (c *converter) jumpStatement(s *cc.JumpStatement) (ast.Stmt, error) {
	switch s.Case {
	case cc.JumpStatementBreak:
		return &ast.Break{}, nil
	case cc.JumpStatementReturn:
		if s.Expression == nil {
			return &ast.Return{}, nil
		}
		v, err := c.expression(s.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: v}, nil
	default:
		return nil, fmt.Errorf("cparse: %s: unsupported jump statement (goto is a Non-goal)", c.file)
	}
}

// expression converts the full C99 binary-operator precedence chain
// (logical-or down through multiplicative), unary/postfix expressions, and
// primary expressions into pkg/ast's flat BinaryOp/UnaryOp/Constant/ID
// shape. badaclang's AST has no precedence levels of its own — the chain
// collapses during this conversion, not during lowering.
func (c *converter) expression(e *cc.Expression) (ast.Expr, error) {
	if e.Case == cc.ExpressionAssign {
		lhs, err := c.expression(e.UnaryExpression.AsExpression())
		if err != nil {
			return nil, err
		}
		rhs, err := c.expression(e.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Lhs: lhs, Rhs: rhs}, nil
	}
	return c.binaryChain(e.ConditionalExpression)
}

// binaryChain walks cc/v3's nested binary-expression productions
// generically: every level (LogicalOr, LogicalAnd, Equality, Relational,
// Additive, Multiplicative, …) has the same two-case shape, a unary pass-
// through and a `Lhs Op Rhs` case, so one helper handles them all via the
// cc.BinaryExpressionNode interface rather than repeating the same switch
// eleven times.
func (c *converter) binaryChain(n cc.BinaryExpressionNode) (ast.Expr, error) {
	if n.IsLeaf() {
		return c.unary(n.Leaf())
	}
	lhs, err := c.binaryChain(n.Lhs())
	if err != nil {
		return nil, err
	}
	rhs, err := c.binaryChain(n.Rhs())
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOp{Op: n.Operator(), Lhs: lhs, Rhs: rhs}, nil
}

func (c *converter) unary(u *cc.UnaryExpression) (ast.Expr, error) {
	switch u.Case {
	case cc.UnaryExpressionPostfix:
		return c.postfix(u.PostfixExpression)
	case cc.UnaryExpressionInc:
		operand, err := c.unary(u.UnaryExpression)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "++", Operand: operand}, nil
	case cc.UnaryExpressionDec:
		operand, err := c.unary(u.UnaryExpression)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "--", Operand: operand}, nil
	case cc.UnaryExpressionAddrof, cc.UnaryExpressionMinus:
		op := "&"
		if u.Case == cc.UnaryExpressionMinus {
			op = "-"
		}
		operand, err := c.castExpr(u.CastExpression)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, Operand: operand}, nil
	default:
		return nil, fmt.Errorf("cparse: %s: unsupported unary expression", c.file)
	}
}

func (c *converter) castExpr(ce *cc.CastExpression) (ast.Expr, error) {
	if ce.Case == cc.CastExpressionCast {
		t, err := c.typeSpecifier(ce.TypeName.SpecifierQualifierList)
		if err != nil {
			return nil, err
		}
		t = wrapPointers(ce.TypeName.AbstractDeclarator.Pointer, t)
		operand, err := c.castExpr(ce.CastExpression)
		if err != nil {
			return nil, err
		}
		return &ast.Cast{Type: t, Operand: operand}, nil
	}
	return c.unary(ce.UnaryExpression)
}

func (c *converter) postfix(p *cc.PostfixExpression) (ast.Expr, error) {
	switch p.Case {
	case cc.PostfixExpressionPrimary:
		return c.primary(p.PrimaryExpression)

	case cc.PostfixExpressionIndex:
		base, err := c.postfix(p.PostfixExpression)
		if err != nil {
			return nil, err
		}
		index, err := c.expression(p.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayRef{Base: base, Index: index}, nil

	case cc.PostfixExpressionCall:
		callee, ok := callableName(p.PostfixExpression)
		if !ok {
			return nil, fmt.Errorf("cparse: %s: only direct calls to a named function are supported", c.file)
		}
		var args []ast.Expr
		for n := p.ArgumentExpressionList; n != nil; n = n.ArgumentExpressionList {
			a, err := c.expression(n.AssignmentExpression.AsExpression())
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return &ast.FuncCall{Callee: callee, Args: args}, nil

	case cc.PostfixExpressionSelect, cc.PostfixExpressionPSelect:
		base, err := c.postfix(p.PostfixExpression)
		if err != nil {
			return nil, err
		}
		return &ast.StructRef{Base: base, Field: p.Token2.String(), Arrow: p.Case == cc.PostfixExpressionPSelect}, nil

	case cc.PostfixExpressionInc:
		operand, err := c.postfix(p.PostfixExpression)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "p++", Operand: operand}, nil

	case cc.PostfixExpressionDec:
		operand, err := c.postfix(p.PostfixExpression)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "p--", Operand: operand}, nil

	default:
		return nil, fmt.Errorf("cparse: %s: unsupported postfix expression", c.file)
	}
}

func callableName(p *cc.PostfixExpression) (string, bool) {
	if p.Case != cc.PostfixExpressionPrimary || p.PrimaryExpression.Case != cc.PrimaryExpressionIdent {
		return "", false
	}
	return p.PrimaryExpression.Token.String(), true
}

func (c *converter) primary(p *cc.PrimaryExpression) (ast.Expr, error) {
	switch p.Case {
	case cc.PrimaryExpressionIdent:
		return &ast.ID{Name: p.Token.String()}, nil

	case cc.PrimaryExpressionInt:
		return &ast.Constant{Kind: ast.IntConstant, Raw: p.Token.String()}, nil

	case cc.PrimaryExpressionChar:
		return &ast.Constant{Kind: ast.CharConstant, Raw: p.Token.String()}, nil

	case cc.PrimaryExpressionString:
		return &ast.Constant{Kind: ast.StringConstant, Raw: p.Token.String()}, nil

	case cc.PrimaryExpressionExpr:
		return c.expression(p.Expression)

	default:
		return nil, fmt.Errorf("cparse: %s: unsupported primary expression", c.file)
	}
}

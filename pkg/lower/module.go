package lower

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/collections"
	"github.com/badaclang/badaclang/pkg/diag"
	"github.com/badaclang/badaclang/pkg/resolve"
)

// Lowerer holds the state shared across an entire translation unit's
// lowering: the module under construction, the frozen scope map produced by
// Resolve, the module-wide enum-constant bindings, and the running counter
// for string-literal names (spec.md §5 requires str1, str2, … to be
// contiguous in source order across the whole module, not per function).
//
// constants and funcs are kept as OrderedMaps rather than plain Go maps so a
// future emit pass (e.g. a debug dump of every binding in source order) never
// has to re-derive that order from map iteration, which spec.md §5's
// determinism law forbids relying on.
type Lowerer struct {
	module    *ir.Module
	scopes    *resolve.ScopeMap
	constants *collections.OrderedMap[string, constant.Constant]
	// funcs indexes every declared/defined function by name, since nothing
	// in github.com/llir/llvm looks up a module global by name for us and
	// FuncCall lowering needs both the callee value and its signature.
	funcs     *collections.OrderedMap[string, *ir.Func]
	nextStrID int
}

// Lower walks tu in source order and returns the fully built LLVM module, or
// the first UnsupportedConstruct error encountered. scopes must be the
// ScopeMap produced by resolve.Resolve for the same tu.
func Lower(name string, tu *ast.TranslationUnit, scopes *resolve.ScopeMap) (*ir.Module, error) {
	l := &Lowerer{
		module:    ir.NewModule(),
		scopes:    scopes,
		constants: collections.NewOrderedMap[string, constant.Constant](),
		funcs:     collections.NewOrderedMap[string, *ir.Func](),
		nextStrID: 1,
	}
	l.module.SourceFilename = name

	scope, ok := scopes.ScopeOf(tu)
	if !ok {
		return nil, diag.Unsupportedf(tu, "no scope recorded for translation unit")
	}

	for _, decl := range tu.Decls {
		if err := l.lowerExternalDecl(decl, scope); err != nil {
			return nil, err
		}
	}
	return l.module, nil
}

func (l *Lowerer) lowerExternalDecl(decl ast.ExternalDecl, scope *resolve.Scope) error {
	switch d := decl.(type) {
	case ast.Decl:
		return l.lowerTopLevelDecl(&d, scope)
	case *ast.FuncDef:
		return l.lowerFuncDef(d, scope)
	default:
		return diag.Unsupportedf(decl, "unsupported top-level declaration %T", decl)
	}
}

func (l *Lowerer) lowerTopLevelDecl(d *ast.Decl, scope *resolve.Scope) error {
	// Enum definitions: assign each enumerator its zero-based position and
	// remember the binding for expression lowering. Enumerators never carry
	// explicit initializers in this subset (spec.md §4.3).
	if enum, ok := d.Type.(*ast.Enum); ok && enum.Enumerators != nil {
		for i, name := range enum.Enumerators {
			l.constants.Set(name, constant.NewInt(types.I32, int64(i)))
		}
		return nil
	}

	fn, ok := d.Type.(*ast.FuncDecl)
	if !ok {
		// A bare struct/enum tag declaration with no storage: nothing to
		// emit, its shape only matters for later type lookups via scope.
		return nil
	}

	// Function prototype (a Decl whose type is FuncDecl, with no body —
	// function definitions are FuncDef nodes, never reach this branch).
	sig, err := lowerType(fn, scope)
	if err != nil {
		return err
	}
	funcSig := sig.(*types.FuncType)
	f := l.module.NewFunc(d.Name, funcSig.RetType, paramsOf(funcSig)...)
	f.Sig.Variadic = funcSig.Variadic
	l.funcs.Set(d.Name, f)
	return nil
}

// paramsOf builds unnamed *ir.Param values for a prototype's signature; a
// prototype has no parameter names to preserve.
func paramsOf(sig *types.FuncType) []*ir.Param {
	params := make([]*ir.Param, len(sig.Params))
	for i, pt := range sig.Params {
		params[i] = ir.NewParam("", pt)
	}
	return params
}

// Package lower implements the IR-generation pass: the second AST walk that
// turns a resolved ast.TranslationUnit into an LLVM module, built with
// github.com/llir/llvm — the direct Go counterpart of llvmlite.ir used by
// the original badaclang implementation this pass is ported from.
package lower

import (
	"strconv"

	"github.com/llir/llvm/ir/types"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/diag"
	"github.com/badaclang/badaclang/pkg/resolve"
)

// lowerType translates an AST type subtree into an LLVM type, per spec.md
// §4.1's mapping table. scope is the symbol table visible at the type's
// position, needed to resolve a bare `struct Tag` reference back to its
// field declarations.
func lowerType(t ast.TypeNode, scope *resolve.Scope) (types.Type, error) {
	switch n := t.(type) {
	case *ast.TypeDecl:
		return lowerType(n.Type, scope)

	case *ast.PtrDecl:
		inner, err := lowerType(n.Type, scope)
		if err != nil {
			return nil, err
		}
		return types.NewPointer(inner), nil

	case *ast.ArrayDecl:
		elem, err := lowerType(n.Type, scope)
		if err != nil {
			return nil, err
		}
		if n.Dim == nil {
			// Unsized array in parameter position decays to a pointer.
			return types.NewPointer(elem), nil
		}
		dimConst, ok := n.Dim.(*ast.Constant)
		if !ok || dimConst.Kind != ast.IntConstant {
			return nil, diag.Unsupportedf(n, "array dimension must be an integer constant")
		}
		dim, err := parseIntConstant(dimConst.Raw)
		if err != nil {
			return nil, diag.Unsupportedf(n, "invalid array dimension: %v", err)
		}
		return types.NewArray(uint64(dim), elem), nil

	case *ast.FuncDecl:
		retType, err := lowerType(n.Type, scope)
		if err != nil {
			return nil, err
		}
		var paramTypes []types.Type
		for _, param := range n.Params {
			if param.Name == "" {
				if id, ok := param.Type.(*ast.IdentifierType); ok && len(id.Names) == 1 && id.Names[0] == "void" {
					continue // the lone `void` parameter marker: no parameters
				}
			}
			pt, err := lowerType(param.Type, scope)
			if err != nil {
				return nil, err
			}
			paramTypes = append(paramTypes, pt)
		}
		sig := types.NewFunc(retType, paramTypes...)
		sig.Variadic = n.Variadic
		return sig, nil

	case *ast.IdentifierType:
		if len(n.Names) != 1 {
			return nil, diag.Unsupportedf(n, "unsupported identifier type %v", n.Names)
		}
		switch n.Names[0] {
		case "void":
			return types.Void, nil
		case "char":
			return types.I8, nil
		case "int":
			return types.I32, nil
		default:
			return nil, diag.Unsupportedf(n, "unsupported base type %q", n.Names[0])
		}

	case *ast.Enum:
		return types.I32, nil

	case *ast.Struct:
		fields := n.Fields
		if fields == nil {
			// Bare `struct Tag` reference: resolve the tag through scope to
			// find the full definition's field list.
			node, ok := scope.Lookup(n.Name)
			if !ok {
				return nil, diag.Undeclaredf(n, "use of undeclared struct tag '%s'", n.Name)
			}
			decl, ok := node.(*ast.Decl)
			if !ok {
				return nil, diag.Unsupportedf(n, "'%s' does not name a struct", n.Name)
			}
			full, ok := decl.Type.(*ast.Struct)
			if !ok {
				return nil, diag.Unsupportedf(n, "'%s' does not name a struct", n.Name)
			}
			fields = full.Fields
		}
		elemTypes := make([]types.Type, len(fields))
		for i, field := range fields {
			ft, err := lowerType(field.Type, scope)
			if err != nil {
				return nil, err
			}
			elemTypes[i] = ft
		}
		return types.NewStruct(elemTypes...), nil

	default:
		return nil, diag.Unsupportedf(t, "unsupported type %T", t)
	}
}

// parseIntConstant applies the same base-detection rule used for integer
// literals throughout lowering: 0x… hex, leading-0 octal, else decimal.
func parseIntConstant(raw string) (int64, error) {
	switch {
	case len(raw) > 1 && (raw[:2] == "0x" || raw[:2] == "0X"):
		return strconv.ParseInt(raw[2:], 16, 64)
	case len(raw) > 1 && raw[0] == '0':
		return strconv.ParseInt(raw[1:], 8, 64)
	default:
		return strconv.ParseInt(raw, 10, 64)
	}
}

// structFieldIndex resolves a struct tag name and a field name to the
// field's zero-based position, for StructRef GEP lowering. at anchors any
// diagnostic to the coordinate of the StructRef that triggered the lookup.
func structFieldIndex(at ast.Node, structName, field string, scope *resolve.Scope) (int, error) {
	node, ok := scope.Lookup(structName)
	if !ok {
		return 0, diag.Undeclaredf(at, "use of undeclared struct tag '%s'", structName)
	}
	decl, ok := node.(*ast.Decl)
	if !ok {
		return 0, diag.Unsupportedf(at, "'%s' does not name a struct", structName)
	}
	full, ok := decl.Type.(*ast.Struct)
	if !ok {
		return 0, diag.Unsupportedf(at, "'%s' does not name a struct", structName)
	}
	for i, f := range full.Fields {
		if f.Name == field {
			return i, nil
		}
	}
	return 0, diag.Unsupportedf(at, "struct '%s' has no field '%s'", structName, field)
}

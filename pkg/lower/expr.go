package lower

import (
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/diag"
)

// lowerAddr computes an LLVM pointer to the l-value denoted by e. Defined
// only for identifiers, array subscripts, and struct field references, per
// spec.md §4.4.1.
func (fl *funcLowerer) lowerAddr(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.ID:
		addr, ok := fl.values[n.Name]
		if !ok {
			return nil, diag.Unsupportedf(n, "no binding for '%s'", n.Name)
		}
		return addr, nil

	case *ast.ArrayRef:
		base, err := fl.lowerAddr(n.Base)
		if err != nil {
			return nil, err
		}
		ptrType, ok := base.Type().(*types.PointerType)
		if !ok {
			return nil, diag.Unsupportedf(n, "array reference base is not addressable")
		}
		index, err := fl.lowerValue(n.Index)
		if err != nil {
			return nil, err
		}
		if arrType, isArray := ptrType.ElemType.(*types.ArrayType); isArray {
			// Array-to-pointer decay, then index directly.
			decayed := fl.block.NewBitCast(base, types.NewPointer(arrType.ElemType))
			return fl.block.NewGetElementPtr(arrType.ElemType, decayed, index), nil
		}
		// Base is already a pointer value stored at `base`; load it first.
		loaded := fl.block.NewLoad(ptrType.ElemType, base)
		return fl.block.NewGetElementPtr(ptrType.ElemType, loaded, index), nil

	case *ast.StructRef:
		if n.Arrow {
			return nil, diag.Unsupportedf(n, "'->' is not supported")
		}
		id, ok := n.Base.(*ast.ID)
		if !ok {
			return nil, diag.Unsupportedf(n, "struct field access base must be an identifier")
		}
		declNode, ok := fl.scope.Lookup(id.Name)
		if !ok {
			return nil, diag.Undeclaredf(id, "use of undeclared identifier '%s'", id.Name)
		}
		decl, ok := declNode.(*ast.Decl)
		if !ok {
			return nil, diag.Unsupportedf(n, "'%s' is not a struct value", id.Name)
		}
		typeDecl, ok := decl.Type.(*ast.TypeDecl)
		structTagName := ""
		if ok {
			if s, ok := typeDecl.Type.(*ast.Struct); ok {
				structTagName = s.Name
			}
		}
		if structTagName == "" {
			return nil, diag.Unsupportedf(n, "'%s' is not a struct value", id.Name)
		}
		index, err := structFieldIndex(n, structTagName, n.Field, fl.scope)
		if err != nil {
			return nil, err
		}
		base, err := fl.lowerAddr(n.Base)
		if err != nil {
			return nil, err
		}
		structType, err := lowerType(decl.Type, fl.scope)
		if err != nil {
			return nil, err
		}
		return fl.block.NewGetElementPtr(structType, base,
			constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(index))), nil

	default:
		return nil, diag.Unsupportedf(e, "expression %T is not an l-value", e)
	}
}

// lowerValue computes the r-value of e.
func (fl *funcLowerer) lowerValue(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.ID:
		if c, ok := fl.l.constants.Get(n.Name); ok {
			return c, nil // enum constant: no load
		}
		addr, err := fl.lowerAddr(n)
		if err != nil {
			return nil, err
		}
		return fl.block.NewLoad(elemTypeOf(addr), addr), nil

	case *ast.ArrayRef:
		addr, err := fl.lowerAddr(n)
		if err != nil {
			return nil, err
		}
		return fl.block.NewLoad(elemTypeOf(addr), addr), nil

	case *ast.StructRef:
		addr, err := fl.lowerAddr(n)
		if err != nil {
			return nil, err
		}
		return fl.block.NewLoad(elemTypeOf(addr), addr), nil

	case *ast.Constant:
		return fl.lowerConstant(n)

	case *ast.Assignment:
		rhs, err := fl.lowerValue(n.Rhs)
		if err != nil {
			return nil, err
		}
		addr, err := fl.lowerAddr(n.Lhs)
		if err != nil {
			return nil, err
		}
		fl.block.NewStore(rhs, addr)
		return rhs, nil

	case *ast.UnaryOp:
		return fl.lowerUnary(n)

	case *ast.BinaryOp:
		return fl.lowerBinary(n)

	case *ast.Cast:
		toType, err := lowerType(n.Type, fl.scope)
		if err != nil {
			return nil, err
		}
		if _, ok := toType.(*types.PointerType); !ok {
			return nil, diag.Unsupportedf(n, "only pointer casts are supported")
		}
		v, err := fl.lowerValue(n.Operand)
		if err != nil {
			return nil, err
		}
		return fl.block.NewBitCast(v, toType), nil

	case *ast.FuncCall:
		return fl.lowerCall(n)

	case *ast.InitList:
		return nil, diag.Unsupportedf(n, "initializer list is only legal in a local declaration")

	default:
		return nil, diag.Unsupportedf(e, "unsupported expression %T", e)
	}
}

func elemTypeOf(addr value.Value) types.Type {
	return addr.Type().(*types.PointerType).ElemType
}

// lowerConstant parses integer literals with base detection (0x hex,
// leading-0 octal, else decimal) and string literals into a `\n`-escaping,
// NUL-terminated global constant, per spec.md §4.4.2.
func (fl *funcLowerer) lowerConstant(c *ast.Constant) (value.Value, error) {
	switch c.Kind {
	case ast.IntConstant, ast.CharConstant:
		v, err := parseIntConstant(c.Raw)
		if err != nil {
			return nil, diag.Unsupportedf(c, "invalid integer constant %q: %v", c.Raw, err)
		}
		return constant.NewInt(types.I32, v), nil

	case ast.StringConstant:
		unescaped := strings.ReplaceAll(c.Raw, `\n`, "\n")
		withNUL := unescaped + "\x00"
		data := constant.NewCharArrayFromString(withNUL)
		name := "str" + strconv.Itoa(fl.l.nextStrID)
		fl.l.nextStrID++
		g := fl.l.module.NewGlobalDef(name, data)
		g.Immutable = true
		return fl.block.NewBitCast(g, types.NewPointer(types.I8)), nil

	default:
		return nil, diag.Unsupportedf(c, "unsupported constant kind")
	}
}

// lowerUnary lowers `-`, `&`, `++`/`--`, and postfix `p++`/`p--`.
//
// Open Question resolution: unlike the original source (which asserts the
// operand of unary `-` is a Constant), this generalizes to `sub i32 0, x`
// for non-constant operands; constant operands keep the fast constant-fold
// path.
func (fl *funcLowerer) lowerUnary(n *ast.UnaryOp) (value.Value, error) {
	switch n.Op {
	case "-":
		v, err := fl.lowerValue(n.Operand)
		if err != nil {
			return nil, err
		}
		if ci, ok := v.(*constant.Int); ok {
			return constant.NewInt(ci.Typ, -ci.X.Int64()), nil
		}
		return fl.block.NewSub(constant.NewInt(types.I32, 0), v), nil

	case "++", "p++", "--", "p--":
		v, err := fl.lowerValue(n.Operand)
		if err != nil {
			return nil, err
		}
		addr, err := fl.lowerAddr(n.Operand)
		if err != nil {
			return nil, err
		}
		one := constant.NewInt(types.I32, 1)
		var updated value.Value
		if n.Op == "++" || n.Op == "p++" {
			updated = fl.block.NewAdd(v, one)
		} else {
			updated = fl.block.NewSub(v, one)
		}
		fl.block.NewStore(updated, addr)
		if n.Op == "p++" || n.Op == "p--" {
			return v, nil // postfix yields the old value
		}
		return updated, nil

	case "&":
		id, ok := n.Operand.(*ast.ID)
		if !ok {
			return nil, diag.Unsupportedf(n, "'&' is only supported on identifiers")
		}
		return fl.lowerAddr(id)

	default:
		return nil, diag.Unsupportedf(n, "unsupported unary operator %q", n.Op)
	}
}

// lowerBinary lowers arithmetic, comparison, and short-circuit boolean
// operators.
func (fl *funcLowerer) lowerBinary(n *ast.BinaryOp) (value.Value, error) {
	lhs, err := fl.lowerValue(n.Lhs)
	if err != nil {
		return nil, err
	}

	if n.Op == "&&" || n.Op == "||" {
		return fl.lowerShortCircuit(n, lhs)
	}

	rhs, err := fl.lowerValue(n.Rhs)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return fl.block.NewAdd(lhs, rhs), nil
	case "-":
		return fl.block.NewSub(lhs, rhs), nil
	case "*":
		return fl.block.NewMul(lhs, rhs), nil
	case "/":
		return fl.block.NewSDiv(lhs, rhs), nil
	case "==":
		return fl.block.NewICmp(enum.IPredEQ, lhs, rhs), nil
	case "!=":
		return fl.block.NewICmp(enum.IPredNE, lhs, rhs), nil
	case "<":
		return fl.block.NewICmp(enum.IPredSLT, lhs, rhs), nil
	case "<=":
		return fl.block.NewICmp(enum.IPredSLE, lhs, rhs), nil
	case ">":
		return fl.block.NewICmp(enum.IPredSGT, lhs, rhs), nil
	case ">=":
		return fl.block.NewICmp(enum.IPredSGE, lhs, rhs), nil
	default:
		return nil, diag.Unsupportedf(n, "unsupported binary operator %q", n.Op)
	}
}

// lowerShortCircuit implements `&&`/`||` with a φ node. Open Question
// resolution: the φ's incoming block for lhs is captured *after* lowering
// lhs (fl.block may have moved if lhs was itself a nested short-circuit),
// not a block captured before entering this function.
func (fl *funcLowerer) lowerShortCircuit(n *ast.BinaryOp, lhs value.Value) (value.Value, error) {
	lhsBlock := fl.block

	prefix := "or"
	if n.Op == "&&" {
		prefix = "and"
	}
	rhsBlock := fl.fn.NewBlock(prefix + ".rhs")
	endBlock := fl.fn.NewBlock(prefix + ".end")

	if n.Op == "&&" {
		lhsBlock.NewCondBr(lhs, rhsBlock, endBlock)
	} else {
		lhsBlock.NewCondBr(lhs, endBlock, rhsBlock)
	}

	fl.block = rhsBlock
	rhs, err := fl.lowerValue(n.Rhs)
	if err != nil {
		return nil, err
	}
	fl.block.NewBr(endBlock)
	rhsBlockAfter := fl.block

	fl.block = endBlock
	phi := fl.block.NewPhi(
		ir.NewIncoming(lhs, lhsBlock),
		ir.NewIncoming(rhs, rhsBlockAfter),
	)
	return phi, nil
}

func (fl *funcLowerer) lowerCall(n *ast.FuncCall) (value.Value, error) {
	fn, ok := fl.l.funcs.Get(n.Callee)
	if !ok {
		return nil, diag.Undeclaredf(n, "use of undeclared identifier '%s'", n.Callee)
	}

	args := make([]value.Value, len(n.Args))
	for i, argExpr := range n.Args {
		var param types.Type
		if i < len(fn.Sig.Params) {
			param = fn.Sig.Params[i]
		}
		v, err := fl.lowerCallArg(argExpr, param)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	return fl.block.NewCall(fn, args...), nil
}

// lowerCallArg lowers one actual argument, applying array-to-pointer decay
// at the call site when the formal parameter expects a pointer to the
// argument's array element type (spec.md §4.4.2's FuncCall rule).
func (fl *funcLowerer) lowerCallArg(argExpr ast.Expr, param types.Type) (value.Value, error) {
	ptrParam, paramIsPointer := param.(*types.PointerType)
	if paramIsPointer {
		if addr, err := fl.lowerAddr(argExpr); err == nil {
			if addrPtr, ok := addr.Type().(*types.PointerType); ok {
				if arrType, ok := addrPtr.ElemType.(*types.ArrayType); ok && arrType.ElemType.Equal(ptrParam.ElemType) {
					return fl.block.NewBitCast(addr, ptrParam), nil
				}
			}
		}
	}
	return fl.lowerValue(argExpr)
}

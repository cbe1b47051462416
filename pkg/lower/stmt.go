package lower

import (
	"strconv"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/diag"
)

func (fl *funcLowerer) lowerCompoundStmt(cs *ast.CompoundStmt) error {
	for _, item := range cs.Items {
		if err := fl.lowerBlockItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (fl *funcLowerer) lowerBlockItem(item ast.BlockItem) error {
	switch v := item.(type) {
	case ast.Decl:
		return fl.lowerLocalDecl(&v)
	case interface{ Unwrap() ast.Stmt }:
		return fl.lowerStmt(v.Unwrap())
	default:
		return diag.Unsupportedf(item, "unsupported block item %T", item)
	}
}

// lowerLocalDecl allocates stack space for a local variable and stores its
// initializer, if any. An InitList initializer is only legal when the
// declared type is an array, per spec.md §4.4.2.
func (fl *funcLowerer) lowerLocalDecl(d *ast.Decl) error {
	t, err := lowerType(d.Type, fl.scope)
	if err != nil {
		return err
	}
	slot := fl.block.NewAlloca(t)
	slot.SetName(d.Name)
	fl.values[d.Name] = slot

	if d.Init == nil {
		return nil
	}

	initList, isList := d.Init.(*ast.InitList)
	if !isList {
		rhs, err := fl.lowerValue(d.Init)
		if err != nil {
			return err
		}
		fl.block.NewStore(rhs, slot)
		return nil
	}

	arrType, ok := t.(*types.ArrayType)
	if !ok {
		return diag.Unsupportedf(d, "initializer list requires an array-typed declaration")
	}
	if uint64(len(initList.Items)) != arrType.Len {
		return diag.Unsupportedf(initList, "expected %d initializers, got %d", arrType.Len, len(initList.Items))
	}
	for i, item := range initList.Items {
		v, err := fl.lowerValue(item)
		if err != nil {
			return err
		}
		elemAddr := fl.block.NewGetElementPtr(arrType, slot, constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(i)))
		fl.block.NewStore(v, elemAddr)
	}
	return nil
}

func (fl *funcLowerer) lowerStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.CompoundStmt:
		return fl.lowerCompoundStmt(st)
	case *ast.If:
		return fl.lowerIf(st)
	case *ast.While:
		return fl.lowerWhile(st)
	case *ast.For:
		return fl.lowerFor(st)
	case *ast.Switch:
		return fl.lowerSwitch(st)
	case *ast.Break:
		return fl.lowerBreak(st)
	case *ast.Return:
		return fl.lowerReturn(st)
	case *ast.ExprStmt:
		_, err := fl.lowerValue(st.Value)
		return err
	default:
		return diag.Unsupportedf(s, "unsupported statement %T", s)
	}
}

func (fl *funcLowerer) lowerIf(n *ast.If) error {
	thenBlock := fl.fn.NewBlock("if.then")
	var elseBlock *ir.Block
	if n.Else != nil {
		elseBlock = fl.fn.NewBlock("if.else")
	}
	endBlock := fl.fn.NewBlock("if.end")

	cond, err := fl.lowerValue(n.Cond)
	if err != nil {
		return err
	}
	falseTarget := endBlock
	if elseBlock != nil {
		falseTarget = elseBlock
	}
	fl.block.NewCondBr(cond, thenBlock, falseTarget)

	fl.block = thenBlock
	if err := fl.lowerStmt(n.Then); err != nil {
		return err
	}
	// A branch into endBlock is only meaningful if this arm actually falls
	// through to it — an arm that ended in return/break already moved
	// fl.block onto a "dead" sentinel (openDeadBlock), which stripDeadBlocks
	// discards along with any Br it holds.
	thenFallsThrough := !isDeadBlock(fl.block)
	if thenFallsThrough {
		fl.block.NewBr(endBlock)
	}

	elseFallsThrough := elseBlock == nil
	if elseBlock != nil {
		fl.block = elseBlock
		if err := fl.lowerStmt(n.Else); err != nil {
			return err
		}
		elseFallsThrough = !isDeadBlock(fl.block)
		if elseFallsThrough {
			fl.block.NewBr(endBlock)
		}
	}

	if !thenFallsThrough && !elseFallsThrough {
		// Neither arm ever reaches endBlock, so it has no predecessors and
		// would be left with no terminator — fold it into the same "dead"
		// convention the terminating arms themselves used.
		endBlock.SetName("dead")
	}

	fl.block = endBlock
	return nil
}

// isDeadBlock reports whether b is one of the fresh sentinel blocks opened
// by openDeadBlock after an unconditional terminator (return/break), or an
// if/else whose own arms both turned out dead.
func isDeadBlock(b *ir.Block) bool {
	return strings.HasPrefix(b.Name(), "dead")
}

func (fl *funcLowerer) lowerWhile(n *ast.While) error {
	condBlock := fl.fn.NewBlock("while.cond")
	bodyBlock := fl.fn.NewBlock("while.body")
	endBlock := fl.fn.NewBlock("while.end")

	fl.block.NewBr(condBlock)

	fl.block = condBlock
	cond, err := fl.lowerValue(n.Cond)
	if err != nil {
		return err
	}
	fl.block.NewCondBr(cond, bodyBlock, endBlock)

	fl.block = bodyBlock
	// Open Question resolution: unlike the original source, `while` pushes
	// its own break target, so `break` inside a plain while loop works the
	// same as inside `for`/`switch`.
	fl.breakTargets.Push(endBlock)
	err = fl.lowerStmt(n.Body)
	fl.breakTargets.Pop()
	if err != nil {
		return err
	}
	fl.block.NewBr(condBlock)

	fl.block = endBlock
	return nil
}

func (fl *funcLowerer) lowerFor(n *ast.For) error {
	if n.Init != nil {
		if err := fl.lowerBlockItem(n.Init); err != nil {
			return err
		}
	}

	condBlock := fl.fn.NewBlock("for.cond")
	bodyBlock := fl.fn.NewBlock("for.body")
	incBlock := fl.fn.NewBlock("for.inc")
	endBlock := fl.fn.NewBlock("for.end")

	fl.block.NewBr(condBlock)

	fl.block = condBlock
	if n.Cond != nil {
		cond, err := fl.lowerValue(n.Cond)
		if err != nil {
			return err
		}
		fl.block.NewCondBr(cond, bodyBlock, endBlock)
	} else {
		fl.block.NewBr(bodyBlock)
	}

	fl.block = bodyBlock
	fl.breakTargets.Push(endBlock)
	err := fl.lowerStmt(n.Body)
	fl.breakTargets.Pop()
	if err != nil {
		return err
	}
	fl.block.NewBr(incBlock)

	fl.block = incBlock
	if n.Post != nil {
		if _, err := fl.lowerValue(n.Post); err != nil {
			return err
		}
	}
	fl.block.NewBr(condBlock)

	fl.block = endBlock
	return nil
}

func (fl *funcLowerer) lowerSwitch(n *ast.Switch) error {
	caseBlocks := make([]*ir.Block, len(n.Cases))
	for i := range n.Cases {
		caseBlocks[i] = fl.fn.NewBlock(caseBlockName(i))
	}
	endBlock := fl.fn.NewBlock("switch.end")

	discriminant, err := fl.lowerValue(n.Cond)
	if err != nil {
		return err
	}

	var cases []*ir.Case
	defaultIdx := -1
	for i, c := range n.Cases {
		if c.Value == nil {
			defaultIdx = i
			continue
		}
		caseConst, err := fl.lowerValue(c.Value)
		if err != nil {
			return err
		}
		intConst, ok := caseConst.(*constant.Int)
		if !ok {
			return diag.Unsupportedf(c, "case expression must be a constant integer")
		}
		cases = append(cases, ir.NewCase(intConst, caseBlocks[i]))
	}

	target := endBlock
	if defaultIdx >= 0 {
		target = caseBlocks[defaultIdx]
	}
	fl.block.NewSwitch(discriminant, target, cases...)

	fl.breakTargets.Push(endBlock)
	for i, c := range n.Cases {
		fl.block = caseBlocks[i]
		for _, stmt := range c.Body {
			if err := fl.lowerStmt(stmt); err != nil {
				fl.breakTargets.Pop()
				return err
			}
		}
		// A case without a trailing `break` falls through to the next
		// case block (or to switch.end for the last case), same as C.
		if fl.block.Term == nil {
			next := endBlock
			if i+1 < len(caseBlocks) {
				next = caseBlocks[i+1]
			}
			fl.block.NewBr(next)
		}
	}
	fl.breakTargets.Pop()

	fl.block = endBlock
	return nil
}

func caseBlockName(i int) string {
	return "switch.case" + strconv.Itoa(i)
}

func (fl *funcLowerer) lowerBreak(n *ast.Break) error {
	target, err := fl.breakTargets.Top()
	if err != nil {
		return diag.Unsupportedf(n, "'break' outside of a loop or switch")
	}
	fl.block.NewBr(target)
	fl.openDeadBlock()
	return nil
}

func (fl *funcLowerer) lowerReturn(n *ast.Return) error {
	if n.Value == nil {
		fl.block.NewRet(nil)
		fl.openDeadBlock()
		return nil
	}
	v, err := fl.lowerValue(n.Value)
	if err != nil {
		return err
	}
	fl.block.NewRet(v)
	fl.openDeadBlock()
	return nil
}

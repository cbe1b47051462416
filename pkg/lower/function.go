package lower

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/collections"
	"github.com/badaclang/badaclang/pkg/diag"
	"github.com/badaclang/badaclang/pkg/resolve"
)

// funcLowerer carries the per-function state of lowering one FuncDef: the
// function being built, the scope visible inside it, the value table
// (name -> stack slot), the current insertion block, and the break-target
// stack for nested loops/switches.
type funcLowerer struct {
	l      *Lowerer
	fn     *ir.Func
	scope  *resolve.Scope
	values map[string]value.Value
	block  *ir.Block

	breakTargets collections.Stack[*ir.Block]
}

func (l *Lowerer) lowerFuncDef(fd *ast.FuncDef, outerScope *resolve.Scope) error {
	scope, ok := l.scopes.ScopeOf(fd)
	if !ok {
		return diag.Unsupportedf(fd, "no scope recorded for function '%s'", fd.Name)
	}

	sig, err := lowerType(fd.Type, outerScope)
	if err != nil {
		return err
	}
	funcSig := sig.(*types.FuncType)

	params := make([]*ir.Param, len(fd.Type.Params))
	for i, p := range fd.Type.Params {
		name := p.Name
		params[i] = ir.NewParam(name, funcSig.Params[i])
	}

	fn := l.module.NewFunc(fd.Name, funcSig.RetType, params...)
	fn.Sig.Variadic = funcSig.Variadic
	l.funcs.Set(fd.Name, fn)

	fl := &funcLowerer{
		l:      l,
		fn:     fn,
		scope:  scope,
		values: map[string]value.Value{},
	}

	entry := fn.NewBlock("entry")
	fl.block = entry

	for i, p := range fd.Type.Params {
		if p.Name == "" {
			continue
		}
		param := fn.Params[i]
		slot := fl.block.NewAlloca(param.Type())
		slot.SetName(p.Name + ".addr")
		fl.block.NewStore(param, slot)
		fl.values[p.Name] = slot
	}

	if err := fl.lowerCompoundStmt(fd.Body); err != nil {
		return err
	}

	stripDeadBlocks(fn)
	return nil
}

// stripDeadBlocks removes every basic block whose name begins with "dead":
// sentinel blocks opened after an unconditionally terminating statement
// (return, break) purely so later instructions have a valid insertion
// point. spec.md §8 requires none survive in the emitted function.
func stripDeadBlocks(fn *ir.Func) {
	live := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if !strings.HasPrefix(b.Name(), "dead") {
			live = append(live, b)
		}
	}
	fn.Blocks = live
}

// openDeadBlock positions the builder at a fresh sentinel block after an
// unconditional terminator, per spec.md §4.4's dead-block discipline.
func (fl *funcLowerer) openDeadBlock() {
	fl.block = fl.fn.NewBlock("dead")
}

package lower_test

import (
	"strings"
	"testing"

	"github.com/badaclang/badaclang/pkg/ast"
	"github.com/badaclang/badaclang/pkg/lower"
	"github.com/badaclang/badaclang/pkg/resolve"
)

func intType() *ast.TypeDecl {
	return &ast.TypeDecl{Type: &ast.IdentifierType{Names: []string{"int"}}}
}

func charPtrType() ast.TypeNode {
	return &ast.PtrDecl{Type: &ast.IdentifierType{Names: []string{"char"}}}
}

func compile(t *testing.T, tu *ast.TranslationUnit) string {
	t.Helper()
	scopes, err := resolve.Resolve(tu)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	module, err := lower.Lower("test.c", tu, scopes)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	return module.String()
}

func TestLowerReturnZero(t *testing.T) {
	// int main(void) { return 0; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "define i32 @main()") {
		t.Errorf("expected a main() definition, got:\n%s", ir)
	}
	if !strings.Contains(ir, "ret i32 0") {
		t.Errorf("expected `ret i32 0`, got:\n%s", ir)
	}
}

func TestLowerPrintfStringLiteral(t *testing.T) {
	// int printf(char *fmt, ...);
	// int main(void) { printf("hi\n"); return 0; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			ast.Decl{
				Name: "printf",
				Type: &ast.FuncDecl{
					Type:     intType(),
					Params:   []*ast.Decl{{Name: "fmt", Type: charPtrType()}},
					Variadic: true,
				},
			},
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.ExprStmt{Value: &ast.FuncCall{
						Callee: "printf",
						Args:   []ast.Expr{&ast.Constant{Kind: ast.StringConstant, Raw: `hi\n`}},
					}}),
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "declare i32 @printf(i8*, ...)") {
		t.Errorf("expected a variadic printf declaration, got:\n%s", ir)
	}
	if !strings.Contains(ir, "@str1") {
		t.Errorf("expected the first string literal named str1, got:\n%s", ir)
	}
	if !strings.Contains(ir, "call i32 (i8*, ...) @printf") {
		t.Errorf("expected a variadic call to printf, got:\n%s", ir)
	}
}

func TestLowerIfElseStripsDeadBlocks(t *testing.T) {
	// int main(void) { if (1) { return 1; } else { return 0; } }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.If{
						Cond: &ast.Constant{Kind: ast.IntConstant, Raw: "1"},
						Then: &ast.CompoundStmt{Items: []ast.BlockItem{
							ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}}),
						}},
						Else: &ast.CompoundStmt{Items: []ast.BlockItem{
							ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
						}},
					}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if strings.Contains(ir, "dead") {
		t.Errorf("expected no surviving 'dead' sentinel blocks, got:\n%s", ir)
	}
	if !strings.Contains(ir, "if.then") || !strings.Contains(ir, "if.else") {
		t.Errorf("expected both if.then and if.else blocks, got:\n%s", ir)
	}
	// Both arms unconditionally return, so if.end itself has no
	// predecessors and must not survive as a dangling, unterminated block.
	if strings.Contains(ir, "if.end") {
		t.Errorf("expected if.end to be folded into the dead convention and stripped, got:\n%s", ir)
	}
}

func TestLowerIfWithFallthroughKeepsEndBlockTerminated(t *testing.T) {
	// int main(void) { if (1) { return 1; } return 0; } — only the then arm
	// terminates, so if.end is reachable (from the false edge) and must
	// survive with its own terminator.
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.If{
						Cond: &ast.Constant{Kind: ast.IntConstant, Raw: "1"},
						Then: &ast.CompoundStmt{Items: []ast.BlockItem{
							ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}}),
						}},
					}),
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "if.end") {
		t.Errorf("expected if.end to survive since the false edge reaches it, got:\n%s", ir)
	}
	if strings.Contains(ir, "dead") {
		t.Errorf("expected no surviving 'dead' sentinel blocks, got:\n%s", ir)
	}
}

func TestLowerForLoop(t *testing.T) {
	// int main(void) { int i; for (i = 0; i < 10; i++) {} return i; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.Decl{Name: "i", Type: intType()},
					ast.WrapStmt(&ast.For{
						Init: ast.WrapStmt(&ast.ExprStmt{Value: &ast.Assignment{
							Lhs: &ast.ID{Name: "i"},
							Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "0"},
						}}),
						Cond: &ast.BinaryOp{Op: "<", Lhs: &ast.ID{Name: "i"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "10"}},
						Post: &ast.UnaryOp{Op: "p++", Operand: &ast.ID{Name: "i"}},
						Body: &ast.CompoundStmt{},
					}),
					ast.WrapStmt(&ast.Return{Value: &ast.ID{Name: "i"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	for _, want := range []string{"for.cond", "for.body", "for.inc", "for.end"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected block %q in output, got:\n%s", want, ir)
		}
	}
}

func TestLowerForLoopWithDeclaredInit(t *testing.T) {
	// int main(void) { for (int i = 0; i < 10; i = i + 1) {} return 0; }
	// The induction variable is declared in the init clause itself, per
	// spec.md §8 scenario 4 — it must bind into the enclosing function
	// scope and get its own alloca/store, not be silently discarded.
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.For{
						Init: ast.Decl{
							Name: "i",
							Type: intType(),
							Init: &ast.Constant{Kind: ast.IntConstant, Raw: "0"},
						},
						Cond: &ast.BinaryOp{Op: "<", Lhs: &ast.ID{Name: "i"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "10"}},
						Post: &ast.Assignment{
							Lhs: &ast.ID{Name: "i"},
							Rhs: &ast.BinaryOp{Op: "+", Lhs: &ast.ID{Name: "i"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}},
						},
						Body: &ast.CompoundStmt{},
					}),
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "%i = alloca i32") {
		t.Errorf("expected the declared induction variable to get its own alloca, got:\n%s", ir)
	}
	if !strings.Contains(ir, "store i32 0, i32* %i") {
		t.Errorf("expected the induction variable's initializer to be stored, got:\n%s", ir)
	}
	for _, want := range []string{"for.cond", "for.body", "for.inc", "for.end"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected block %q in output, got:\n%s", want, ir)
		}
	}
}

func TestLowerShortCircuitAndUsesPhi(t *testing.T) {
	// int f(int a, int b) { return a && b; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "f",
				Type: &ast.FuncDecl{
					Type: intType(),
					Params: []*ast.Decl{
						{Name: "a", Type: intType()},
						{Name: "b", Type: intType()},
					},
				},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.Return{Value: &ast.BinaryOp{
						Op:  "&&",
						Lhs: &ast.ID{Name: "a"},
						Rhs: &ast.ID{Name: "b"},
					}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "phi") {
		t.Errorf("expected a phi node for short-circuit &&, got:\n%s", ir)
	}
	if !strings.Contains(ir, "and.rhs") || !strings.Contains(ir, "and.end") {
		t.Errorf("expected and.rhs/and.end blocks, got:\n%s", ir)
	}
}

func TestLowerRedefinitionAbortsBeforeLowering(t *testing.T) {
	// int main(void) { int x; int x; return 0; } — Resolve must fail and
	// Lower must never run.
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.Decl{Name: "x", Type: intType()},
					ast.Decl{Name: "x", Type: intType()},
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	if _, err := resolve.Resolve(tu); err == nil {
		t.Fatal("expected Resolve to fail on redefinition")
	}
}

func TestLowerEnumeratorsAreZeroBased(t *testing.T) {
	// enum Color { RED, GREEN, BLUE }; int main(void) { return GREEN; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			ast.Decl{Type: &ast.Enum{Name: "Color", Enumerators: []string{"RED", "GREEN", "BLUE"}}},
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.Return{Value: &ast.ID{Name: "GREEN"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "ret i32 1") {
		t.Errorf("expected GREEN to lower to the constant 1, got:\n%s", ir)
	}
}

func TestLowerIsDeterministic(t *testing.T) {
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.WrapStmt(&ast.Return{Value: &ast.Constant{Kind: ast.IntConstant, Raw: "0"}}),
				}},
			},
		},
	}

	first := compile(t, tu)
	second := compile(t, tu)
	if first != second {
		t.Errorf("expected lowering the same AST twice to produce identical IR")
	}
}

func TestLowerSwitchFallsThroughWithoutBreak(t *testing.T) {
	// int main(void) {
	//   int x;
	//   switch (1) {
	//     case 1: x = 1;
	//     case 2: x = 2; break;
	//     default: x = 3;
	//   }
	//   return x;
	// }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.Decl{Name: "x", Type: intType()},
					ast.WrapStmt(&ast.Switch{
						Cond: &ast.Constant{Kind: ast.IntConstant, Raw: "1"},
						Cases: []*ast.Case{
							{
								Value: &ast.Constant{Kind: ast.IntConstant, Raw: "1"},
								Body: []ast.Stmt{
									&ast.ExprStmt{Value: &ast.Assignment{Lhs: &ast.ID{Name: "x"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}}},
								},
							},
							{
								Value: &ast.Constant{Kind: ast.IntConstant, Raw: "2"},
								Body: []ast.Stmt{
									&ast.ExprStmt{Value: &ast.Assignment{Lhs: &ast.ID{Name: "x"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "2"}}},
									&ast.Break{},
								},
							},
							{
								Value: nil, // default
								Body: []ast.Stmt{
									&ast.ExprStmt{Value: &ast.Assignment{Lhs: &ast.ID{Name: "x"}, Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "3"}}},
								},
							},
						},
					}),
					ast.WrapStmt(&ast.Return{Value: &ast.ID{Name: "x"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "switch.case0") || !strings.Contains(ir, "switch.case1") || !strings.Contains(ir, "switch.case2") {
		t.Fatalf("expected all three case blocks to be emitted, got:\n%s", ir)
	}
	if !strings.Contains(ir, "switch.end") {
		t.Fatalf("expected a switch.end block, got:\n%s", ir)
	}
	// Every block must end in a terminator — the case without `break` must
	// branch into the next case block rather than falling off the end.
	caseZero := blockBody(t, ir, "switch.case0")
	if !strings.Contains(caseZero, "br label %switch.case1") {
		t.Errorf("expected case0 (no break) to fall through into case1, got:\n%s", caseZero)
	}
	caseOne := blockBody(t, ir, "switch.case1")
	if !strings.Contains(caseOne, "br label %switch.end") {
		t.Errorf("expected case1's break to branch to switch.end, got:\n%s", caseOne)
	}
	caseTwo := blockBody(t, ir, "switch.case2")
	if !strings.Contains(caseTwo, "br label %switch.end") {
		t.Errorf("expected the default case (no break, last arm) to fall through into switch.end, got:\n%s", caseTwo)
	}
}

// blockBody extracts the text of a named basic block (up to the next
// labeled block or the function's closing brace) for terminator assertions.
func blockBody(t *testing.T, ir, label string) string {
	t.Helper()
	start := strings.Index(ir, label+":")
	if start < 0 {
		t.Fatalf("block %q not found in:\n%s", label, ir)
	}
	rest := ir[start+len(label)+1:]
	// Blocks are separated by a blank line before the next label or `}`.
	if idx := strings.Index(rest, "\n\n"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

func TestLowerStructFieldAccessUsesGEP(t *testing.T) {
	// struct Point { int x; int y; };
	// int main(void) { struct Point p; p.x = 1; return p.x; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			ast.Decl{Type: &ast.Struct{
				Name: "Point",
				Fields: []*ast.Decl{
					{Name: "x", Type: intType()},
					{Name: "y", Type: intType()},
				},
			}},
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.Decl{Name: "p", Type: &ast.TypeDecl{Name: "p", Type: &ast.Struct{Name: "Point"}}},
					ast.WrapStmt(&ast.ExprStmt{Value: &ast.Assignment{
						Lhs: &ast.StructRef{Base: &ast.ID{Name: "p"}, Field: "x"},
						Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "1"},
					}}),
					ast.WrapStmt(&ast.Return{Value: &ast.StructRef{Base: &ast.ID{Name: "p"}, Field: "x"}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "{ i32, i32 }") {
		t.Errorf("expected a two-field struct type in the module, got:\n%s", ir)
	}
	if !strings.Contains(ir, "getelementptr") {
		t.Errorf("expected field access to lower to getelementptr, got:\n%s", ir)
	}
	// x is field index 0: the GEP's trailing index must be 0, not y's 1.
	if !strings.Contains(ir, "i32 0, i32 0") {
		t.Errorf("expected the GEP into field x to use index 0, got:\n%s", ir)
	}
}

func TestLowerArrayIndexDecaysBaseToPointer(t *testing.T) {
	// int main(void) { int arr[3]; arr[1] = 5; return arr[1]; }
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FuncDef{
				Name: "main",
				Type: &ast.FuncDecl{Type: intType()},
				Body: &ast.CompoundStmt{Items: []ast.BlockItem{
					ast.Decl{Name: "arr", Type: &ast.ArrayDecl{
						Type: intType(),
						Dim:  &ast.Constant{Kind: ast.IntConstant, Raw: "3"},
					}},
					ast.WrapStmt(&ast.ExprStmt{Value: &ast.Assignment{
						Lhs: &ast.ArrayRef{Base: &ast.ID{Name: "arr"}, Index: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}},
						Rhs: &ast.Constant{Kind: ast.IntConstant, Raw: "5"},
					}}),
					ast.WrapStmt(&ast.Return{Value: &ast.ArrayRef{Base: &ast.ID{Name: "arr"}, Index: &ast.Constant{Kind: ast.IntConstant, Raw: "1"}}}),
				}},
			},
		},
	}

	ir := compile(t, tu)
	if !strings.Contains(ir, "alloca [3 x i32]") {
		t.Errorf("expected arr to be allocated as a [3 x i32], got:\n%s", ir)
	}
	if !strings.Contains(ir, "bitcast") {
		t.Errorf("expected the array base to decay via bitcast before indexing, got:\n%s", ir)
	}
	if !strings.Contains(ir, "getelementptr") {
		t.Errorf("expected indexing to lower to getelementptr, got:\n%s", ir)
	}
}

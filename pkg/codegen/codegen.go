package codegen

import (
	"github.com/xplshn/toycc/pkg/ast"
	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/diag"
	"github.com/xplshn/toycc/pkg/ir"
)

type Context struct {
	prog        *ir.Program
	currentFunc *ir.Func
	wordSize    int
	cfg         *config.Config
	warnings    *diag.Warnings
	// assigned tracks frame offsets stored to so far, in emission order.
	assigned map[int]bool
	reported map[int]bool
}

type bailout struct{ err *diag.Error }

func NewContext(cfg *config.Config) *Context {
	return &Context{
		prog:     &ir.Program{WordSize: cfg.WordSize},
		wordSize: cfg.WordSize,
		cfg:      cfg,
		warnings: diag.NewWarnings(cfg),
		assigned: make(map[int]bool),
		reported: make(map[int]bool),
	}
}

// Warnings returns the warnings reported during generation.
func (ctx *Context) Warnings() []diag.Warning { return ctx.warnings.List }

// Generate lowers the statement list into the body of "main". The first
// invalid construct aborts generation with a *diag.Error.
func (ctx *Context) Generate(root *ast.Program) (prog *ir.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	fn := &ir.Func{
		Name:      "main",
		NumLocals: root.NumLocals,
		FrameSize: ctx.cfg.FrameSize(root.NumLocals),
	}
	ctx.currentFunc = fn
	ctx.prog.Funcs = append(ctx.prog.Funcs, fn)

	if len(root.Stmts) == 0 {
		ctx.addInstr(ir.OpPush, 0)
		ctx.addInstr(ir.OpPop, 0)
	}

	for i, stmt := range root.Stmts {
		isLast := i == len(root.Stmts)-1
		if ret, ok := stmt.(*ast.Return); ok {
			ctx.codegenExpr(ret.Expr)
			ctx.addInstr(ir.OpPop, 0)
			ctx.addInstr(ir.OpRet, 0)
			if !isLast {
				next := root.Stmts[i+1]
				ctx.warnings.Warn(config.WarnUnreachableCode, startToken(next), "Unreachable code after 'return'")
			}
			return ctx.prog, nil
		}

		if _, isAssign := stmt.(*ast.Assign); !isAssign && !isLast {
			ctx.warnings.Warn(config.WarnUnusedValue, startToken(stmt), "Value of expression statement is discarded")
		}
		ctx.codegenExpr(stmt)
		ctx.addInstr(ir.OpPop, 0)
	}

	ctx.addInstr(ir.OpRet, 0)
	return ctx.prog, nil
}

func (ctx *Context) codegenExpr(node ast.Node) {
	switch n := node.(type) {
	case *ast.Num:
		ctx.addInstr(ir.OpPush, n.Value)
	case *ast.Var:
		if !ctx.assigned[n.Offset] && !ctx.reported[n.Offset] {
			ctx.reported[n.Offset] = true
			ctx.warnings.Warn(config.WarnExtra, n.Tok, "Variable '%s' is read before it is assigned and holds 0", n.Name)
		}
		ctx.codegenLvalue(n, n)
		ctx.addInstr(ir.OpLoad, 0)
	case *ast.Assign:
		ctx.codegenExpr(n.Rhs)
		ctx.codegenLvalue(n.Lhs, n)
		ctx.addInstr(ir.OpStore, 0)
		ctx.assigned[n.Lhs.(*ast.Var).Offset] = true
	case *ast.Binary:
		ctx.codegenBinary(n)
	default:
		ctx.errorAt(node, diag.UnexpectedToken, "Unexpected %s in expression", describe(node))
	}
}

// codegenLvalue pushes the address of target. owner anchors the diagnostic
// when target is not assignable.
func (ctx *Context) codegenLvalue(target ast.Node, owner ast.Node) {
	v, ok := target.(*ast.Var)
	if !ok {
		ctx.errorAt(owner, diag.InvalidAssignTarget, "Invalid target for assignment: %s is not a variable", describe(target))
	}
	ctx.addInstr(ir.OpAddr, int64(v.Offset))
}

// codegenBinary reports errors in source order: anything wrong in the left
// operand comes before a literal zero divisor.
func (ctx *Context) codegenBinary(n *ast.Binary) {
	op, ok := binaryOps[n.Op]
	if !ok {
		ctx.errorAt(n, diag.UnexpectedToken, "Unsupported operator %s", n.Op)
	}
	ctx.codegenExpr(n.Lhs)
	if n.Op == ast.Div {
		if lit, ok := n.Rhs.(*ast.Num); ok && lit.Value == 0 {
			ctx.errorAt(lit, diag.DivisionByZero, "Division by constant zero")
		}
	}
	ctx.codegenExpr(n.Rhs)
	ctx.addInstr(op, 0)
}

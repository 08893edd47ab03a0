package codegen

import (
	"fmt"

	"github.com/xplshn/toycc/pkg/ast"
	"github.com/xplshn/toycc/pkg/diag"
	"github.com/xplshn/toycc/pkg/ir"
	"github.com/xplshn/toycc/pkg/token"
)

var binaryOps = map[ast.Op]ir.Op{
	ast.Add: ir.OpAdd,
	ast.Sub: ir.OpSub,
	ast.Mul: ir.OpMul,
	ast.Div: ir.OpDiv,
	ast.Eq:  ir.OpCEq,
	ast.Ne:  ir.OpCNeq,
	ast.Lt:  ir.OpCLt,
	ast.Le:  ir.OpCLe,
	ast.Gt:  ir.OpCGt,
	ast.Ge:  ir.OpCGe,
}

func (ctx *Context) addInstr(op ir.Op, imm int64) {
	ctx.currentFunc.Code = append(ctx.currentFunc.Code, ir.Instruction{Op: op, Imm: imm})
}

func (ctx *Context) errorAt(node ast.Node, kind diag.Kind, format string, args ...any) {
	panic(bailout{diag.At(node.Token(), kind, format, args...)})
}

// startToken finds the leftmost token of an expression, which is where a
// statement begins in the source. Unary minus is the exception: its
// synthetic zero operand already carries the '-' token.
func startToken(node ast.Node) token.Token {
	switch n := node.(type) {
	case *ast.Binary:
		return startToken(n.Lhs)
	case *ast.Assign:
		return startToken(n.Lhs)
	default:
		return node.Token()
	}
}

func describe(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Num:
		return fmt.Sprintf("integer literal %d", n.Value)
	case *ast.Var:
		return fmt.Sprintf("variable '%s'", n.Name)
	case *ast.Binary:
		return fmt.Sprintf("%s expression", n.Op)
	case *ast.Assign:
		return "assignment"
	case *ast.Return:
		return "return statement"
	default:
		return fmt.Sprintf("%T", node)
	}
}

// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"fmt"
	"strings"

	"github.com/xplshn/toycc/pkg/token"
)

// Node is implemented by every expression and statement in the tree.
type Node interface {
	Token() token.Token
	node()
}

// Op is the operator of a Binary node
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var opNames = [...]string{
	Add: "Add", Sub: "Sub", Mul: "Mul", Div: "Div",
	Eq: "Equal", Ne: "NotEqual", Lt: "LessThan", Le: "LessOrEqual",
	Gt: "GreaterThan", Ge: "GreaterOrEqual",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// IsComparison reports whether op yields 0 or 1.
func (op Op) IsComparison() bool { return op >= Eq }

// BinaryOps maps operator tokens to the node operator they produce.
var BinaryOps = map[token.Type]Op{
	token.Plus: Add, token.Minus: Sub, token.Star: Mul, token.Slash: Div,
	token.EqEq: Eq, token.Neq: Ne, token.Lt: Lt, token.Lte: Le,
	token.Gt: Gt, token.Gte: Ge,
}

// --- Node variants ---

// Num is an integer literal.
type Num struct{ Tok token.Token; Value int64 }

// Var is a reference to a local; Offset is resolved at parse time.
type Var struct{ Tok token.Token; Name string; Offset int }

type Binary struct{ Tok token.Token; Op Op; Lhs, Rhs Node }
type Assign struct{ Tok token.Token; Lhs, Rhs Node }
type Return struct{ Tok token.Token; Expr Node }

func (n *Num) Token() token.Token    { return n.Tok }
func (n *Var) Token() token.Token    { return n.Tok }
func (n *Binary) Token() token.Token { return n.Tok }
func (n *Assign) Token() token.Token { return n.Tok }
func (n *Return) Token() token.Token { return n.Tok }

func (*Num) node()    {}
func (*Var) node()    {}
func (*Binary) node() {}
func (*Assign) node() {}
func (*Return) node() {}

// --- Node constructors ---

func NewNum(tok token.Token, value int64) *Num { return &Num{Tok: tok, Value: value} }
func NewVar(tok token.Token, name string, offset int) *Var {
	return &Var{Tok: tok, Name: name, Offset: offset}
}
func NewBinary(tok token.Token, op Op, lhs, rhs Node) *Binary {
	return &Binary{Tok: tok, Op: op, Lhs: lhs, Rhs: rhs}
}
func NewAssign(tok token.Token, lhs, rhs Node) *Assign { return &Assign{Tok: tok, Lhs: lhs, Rhs: rhs} }
func NewReturn(tok token.Token, expr Node) *Return    { return &Return{Tok: tok, Expr: expr} }

// Program is the top-level statement list of a compilation unit.
type Program struct {
	Stmts []Node
	// NumLocals is the number of distinct variables seen while parsing; the
	// generator sizes the frame from it.
	NumLocals int
}

// String renders a node in constructor notation, e.g.
// "Add(Num(1), Mul(Num(2), Num(3)))".
func String(n Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

func write(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Num:
		fmt.Fprintf(sb, "Num(%d)", n.Value)
	case *Var:
		fmt.Fprintf(sb, "Var(%s@%d)", n.Name, n.Offset)
	case *Binary:
		sb.WriteString(n.Op.String())
		sb.WriteByte('(')
		write(sb, n.Lhs)
		sb.WriteString(", ")
		write(sb, n.Rhs)
		sb.WriteByte(')')
	case *Assign:
		sb.WriteString("Assign(")
		write(sb, n.Lhs)
		sb.WriteString(", ")
		write(sb, n.Rhs)
		sb.WriteByte(')')
	case *Return:
		sb.WriteString("Return(")
		write(sb, n.Expr)
		sb.WriteByte(')')
	case nil:
		sb.WriteString("<nil>")
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}

// Dump writes one tree per line.
func (p *Program) Dump() string {
	var sb strings.Builder
	for _, stmt := range p.Stmts {
		write(&sb, stmt)
		sb.WriteByte('\n')
	}
	return sb.String()
}

package ast

import (
	"testing"

	"github.com/xplshn/toycc/pkg/token"
)

func TestString(t *testing.T) {
	tok := token.Token{}
	tests := []struct {
		node Node
		want string
	}{
		{NewNum(tok, 42), "Num(42)"},
		{NewVar(tok, "a", 8), "Var(a@8)"},
		{
			NewBinary(tok, Add, NewNum(tok, 1), NewBinary(tok, Mul, NewNum(tok, 2), NewNum(tok, 3))),
			"Add(Num(1), Mul(Num(2), Num(3)))",
		},
		{NewAssign(tok, NewVar(tok, "b", 16), NewNum(tok, 5)), "Assign(Var(b@16), Num(5))"},
		{NewReturn(tok, NewBinary(tok, Ge, NewNum(tok, 1), NewNum(tok, 1))), "Return(GreaterOrEqual(Num(1), Num(1)))"},
	}
	for _, tt := range tests {
		if got := String(tt.node); got != tt.want {
			t.Errorf("String: expected %q, got %q", tt.want, got)
		}
	}
}

func TestProgramDump(t *testing.T) {
	tok := token.Token{}
	p := &Program{Stmts: []Node{
		NewAssign(tok, NewVar(tok, "a", 8), NewNum(tok, 3)),
		NewReturn(tok, NewVar(tok, "a", 8)),
	}, NumLocals: 1}
	want := "Assign(Var(a@8), Num(3))\nReturn(Var(a@8))\n"
	if got := p.Dump(); got != want {
		t.Errorf("Dump: expected %q, got %q", want, got)
	}
}

func TestOpClassification(t *testing.T) {
	for _, op := range []Op{Add, Sub, Mul, Div} {
		if op.IsComparison() {
			t.Errorf("%v reported as comparison", op)
		}
	}
	for _, op := range []Op{Eq, Ne, Lt, Le, Gt, Ge} {
		if !op.IsComparison() {
			t.Errorf("%v not reported as comparison", op)
		}
	}
	if BinaryOps[token.Lte] != Le || BinaryOps[token.Gt] != Gt {
		t.Errorf("BinaryOps table maps relational tokens incorrectly")
	}
}

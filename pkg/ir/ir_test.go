package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMaxDepth(t *testing.T) {
	fn := &Func{Code: []Instruction{
		{Op: OpPush, Imm: 1},
		{Op: OpPush, Imm: 2},
		{Op: OpPush, Imm: 3},
		{Op: OpMul},
		{Op: OpAdd},
		{Op: OpPop},
		{Op: OpRet},
	}}
	if got := fn.MaxDepth(); got != 3 {
		t.Errorf("MaxDepth: expected 3, got %d", got)
	}
}

func TestOpClasses(t *testing.T) {
	for _, op := range []Op{OpAdd, OpSub, OpMul, OpDiv, OpCEq, OpCGe} {
		if !op.IsBinary() {
			t.Errorf("%s should be binary", op)
		}
	}
	for _, op := range []Op{OpPush, OpAddr, OpLoad, OpStore, OpPop, OpRet} {
		if op.IsBinary() {
			t.Errorf("%s should not be binary", op)
		}
	}
	if OpDiv.IsComparison() || !OpCLt.IsComparison() {
		t.Error("comparison classification is wrong")
	}
}

func TestProgramString(t *testing.T) {
	prog := &Program{WordSize: 8, Funcs: []*Func{{
		Name: "main", FrameSize: 16, NumLocals: 1,
		Code: []Instruction{{Op: OpPush, Imm: 3}, {Op: OpAddr, Imm: 8}, {Op: OpStore}, {Op: OpPop}, {Op: OpRet}},
	}}}
	want := "func main frame=16 locals=1\n\tpush 3\n\taddr 8\n\tstore\n\tpop\n\tret\n"
	if diff := cmp.Diff(want, prog.String()); diff != "" {
		t.Errorf("String mismatch (-want +got):\n%s", diff)
	}
	if prog.FindFunc("main") == nil || prog.FindFunc("other") != nil {
		t.Error("FindFunc lookup is wrong")
	}
}

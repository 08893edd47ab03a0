package vm_test

import (
	"errors"
	"testing"

	"github.com/xplshn/toycc/pkg/ir"
	"github.com/xplshn/toycc/pkg/vm"
)

func fn(frame int, code ...ir.Instruction) *ir.Func {
	return &ir.Func{Name: "main", FrameSize: frame, Code: code}
}

func push(v int64) ir.Instruction  { return ir.Instruction{Op: ir.OpPush, Imm: v} }
func addr(off int64) ir.Instruction { return ir.Instruction{Op: ir.OpAddr, Imm: off} }
func op(o ir.Op) ir.Instruction     { return ir.Instruction{Op: o} }

func TestMachineStackOps(t *testing.T) {
	m := vm.NewMachine(fn(0, push(0)), 8)
	m.Push(42)
	if m.SP != 1 {
		t.Errorf("expected SP=1, got %d", m.SP)
	}
	if v := m.Pop(); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if m.SP != 0 {
		t.Errorf("expected SP=0, got %d", m.SP)
	}
}

func TestMachineStackOverflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic on stack overflow")
		}
	}()
	m := vm.NewMachine(fn(0, push(1), push(2), op(ir.OpAdd), op(ir.OpPop), op(ir.OpRet)), 8)
	if len(m.Stack) != 2 {
		t.Fatalf("expected a stack of 2, got %d", len(m.Stack))
	}
	for i := 0; i < 3; i++ {
		m.Push(int64(i))
	}
}

func TestMachineDeepNesting(t *testing.T) {
	// 1+(1+(1+ ... )) keeps every left operand on the stack.
	const depth = 300
	var code []ir.Instruction
	for i := 0; i <= depth; i++ {
		code = append(code, push(1))
	}
	for i := 0; i < depth; i++ {
		code = append(code, op(ir.OpAdd))
	}
	code = append(code, op(ir.OpPop), op(ir.OpRet))
	f := fn(0, code...)

	got, err := vm.NewMachine(f, 8).Run(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != depth+1 {
		t.Errorf("expected %d, got %d", depth+1, got)
	}
}

func TestMachineRun(t *testing.T) {
	tests := []struct {
		name string
		code *ir.Func
		want int64
	}{
		{"add", fn(0, push(1), push(2), op(ir.OpAdd), op(ir.OpPop), op(ir.OpRet)), 3},
		{"sub order", fn(0, push(10), push(3), op(ir.OpSub), op(ir.OpPop), op(ir.OpRet)), 7},
		{"div truncates", fn(0, push(-7), push(2), op(ir.OpDiv), op(ir.OpPop), op(ir.OpRet)), -3},
		{"gt", fn(0, push(2), push(1), op(ir.OpCGt), op(ir.OpPop), op(ir.OpRet)), 1},
		{"ge equal", fn(0, push(1), push(1), op(ir.OpCGe), op(ir.OpPop), op(ir.OpRet)), 1},
		{"lt false", fn(0, push(2), push(1), op(ir.OpCLt), op(ir.OpPop), op(ir.OpRet)), 0},
		{"store then load", fn(16,
			push(9), addr(8), op(ir.OpStore), op(ir.OpPop),
			addr(8), op(ir.OpLoad), op(ir.OpPop), op(ir.OpRet)), 9},
		{"store yields value", fn(16, push(5), addr(16), op(ir.OpStore), op(ir.OpPop), op(ir.OpRet)), 5},
		{"locals start zeroed", fn(16, addr(16), op(ir.OpLoad), op(ir.OpPop), op(ir.OpRet)), 0},
		{"ret without pop", fn(0, op(ir.OpRet)), 0},
	}
	for _, tt := range tests {
		got, err := vm.NewMachine(tt.code, 8).Run(tt.code)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestMachineRunErrors(t *testing.T) {
	tests := []struct {
		name string
		code *ir.Func
		want error
	}{
		{"div by zero", fn(0, push(1), push(0), op(ir.OpDiv), op(ir.OpRet)), vm.ErrDivisionByZero},
		{"underflow", fn(0, op(ir.OpAdd)), vm.ErrStackUnderflow},
		{"address outside frame", fn(16, addr(24), op(ir.OpLoad)), vm.ErrBadAddress},
		{"address into nothing", fn(0, push(0), addr(8), op(ir.OpStore)), vm.ErrBadAddress},
		{"misaligned", fn(16, addr(4), op(ir.OpLoad)), vm.ErrBadAddress},
		{"no ret", fn(0, push(1), op(ir.OpPop)), vm.ErrNoReturn},
	}
	for _, tt := range tests {
		_, err := vm.NewMachine(tt.code, 8).Run(tt.code)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestMachineReuse(t *testing.T) {
	f := fn(16, addr(8), op(ir.OpLoad), push(1), op(ir.OpAdd), addr(8), op(ir.OpStore), op(ir.OpPop), op(ir.OpRet))
	m := vm.NewMachine(f, 8)
	for i := 0; i < 3; i++ {
		got, err := m.Run(f)
		if err != nil {
			t.Fatal(err)
		}
		if got != 1 {
			t.Errorf("run %d: frame was not reset, got %d", i, got)
		}
	}
}

func TestExec(t *testing.T) {
	prog := &ir.Program{WordSize: 8, Funcs: []*ir.Func{fn(0, push(4), op(ir.OpPop), op(ir.OpRet))}}
	got, err := vm.Exec(prog)
	if err != nil || got != 4 {
		t.Errorf("Exec: expected 4, got %d (%v)", got, err)
	}
	if _, err := vm.Exec(&ir.Program{WordSize: 8}); err == nil {
		t.Error("Exec without main: expected an error")
	}
}

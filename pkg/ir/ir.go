package ir

import (
	"fmt"
	"strings"
)

// Op is a stack-machine operation. Binary operations pop the right operand
// first, then the left one, and push a single result.
type Op int

const (
	OpPush Op = iota // push Imm
	OpAddr           // push the address of the local at frame offset Imm
	OpLoad           // pop address, push the word stored there
	OpStore          // pop address, pop value, store, push value
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCEq
	OpCNeq
	OpCLt
	OpCLe
	OpCGt
	OpCGe
	OpPop // pop into the result register
	OpRet // tear down the frame and return the result register
)

var opNames = [...]string{
	OpPush: "push", OpAddr: "addr", OpLoad: "load", OpStore: "store",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpCEq: "ceq", OpCNeq: "cne", OpCLt: "clt", OpCLe: "cle", OpCGt: "cgt", OpCGe: "cge",
	OpPop: "pop", OpRet: "ret",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op%d", int(op))
}

// IsBinary reports whether op consumes two operands.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpCGe }

// IsComparison reports whether op pushes 0 or 1.
func (op Op) IsComparison() bool { return op >= OpCEq && op <= OpCGe }

// StackEffect is the change in stack depth caused by op.
func (op Op) StackEffect() int {
	switch {
	case op == OpPush, op == OpAddr:
		return 1
	case op == OpLoad, op == OpRet:
		return 0
	case op == OpStore, op == OpPop:
		return -1
	case op.IsBinary():
		return -1
	}
	return 0
}

type Instruction struct {
	Op  Op
	Imm int64
}

func (in Instruction) String() string {
	switch in.Op {
	case OpPush, OpAddr:
		return fmt.Sprintf("%s %d", in.Op, in.Imm)
	default:
		return in.Op.String()
	}
}

// Func is the single routine of a compilation unit.
type Func struct {
	Name      string
	FrameSize int
	NumLocals int
	Code      []Instruction
}

type Program struct {
	Funcs    []*Func
	WordSize int
}

func (p *Program) FindFunc(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// MaxDepth computes the deepest evaluation stack reached by fn. The VM
// sizes its stack from it.
func (fn *Func) MaxDepth() int {
	depth, deepest := 0, 0
	for _, in := range fn.Code {
		depth += in.Op.StackEffect()
		if depth > deepest {
			deepest = depth
		}
	}
	return deepest
}

// String renders the program as one instruction per line.
func (p *Program) String() string {
	var sb strings.Builder
	for _, fn := range p.Funcs {
		fmt.Fprintf(&sb, "func %s frame=%d locals=%d\n", fn.Name, fn.FrameSize, fn.NumLocals)
		for _, in := range fn.Code {
			fmt.Fprintf(&sb, "\t%s\n", in)
		}
	}
	return sb.String()
}

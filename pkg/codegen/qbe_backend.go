package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/ir"
)

// qbeBackend lowers the stack IR to QBE by tracking the evaluation stack at
// compile time as a stack of temporaries.
type qbeBackend struct {
	out       *strings.Builder
	prog      *ir.Program
	currentFn *ir.Func
	stack     []string
	result    string
	tmpCount  int
	align     int
}

func NewQBEBackend() Backend { return &qbeBackend{} }

var qbeOps = map[ir.Op]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpMul: "mul", ir.OpDiv: "div",
	ir.OpCEq: "ceql", ir.OpCNeq: "cnel",
	ir.OpCLt: "csltl", ir.OpCLe: "cslel",
	ir.OpCGt: "csgtl", ir.OpCGe: "csgel",
}

func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	var qbeIRBuilder strings.Builder
	b.out = &qbeIRBuilder
	b.prog = prog
	b.align = qbeAlign(cfg.StackAlignment)

	for _, fn := range prog.Funcs {
		if err := b.genFunc(fn); err != nil {
			return "", err
		}
	}
	return qbeIRBuilder.String(), nil
}

// qbeAlign clamps an alignment to one QBE has an alloc instruction for.
func qbeAlign(align int) int {
	switch {
	case align >= 16:
		return 16
	case align >= 8:
		return 8
	default:
		return 4
	}
}

func (b *qbeBackend) newTemp() string {
	b.tmpCount++
	return fmt.Sprintf("%%t%d", b.tmpCount)
}

func (b *qbeBackend) push(t string) { b.stack = append(b.stack, t) }

func (b *qbeBackend) pop() (string, error) {
	if len(b.stack) == 0 {
		return "", fmt.Errorf("%s: evaluation stack underflow", b.currentFn.Name)
	}
	t := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return t, nil
}

func (b *qbeBackend) genFunc(fn *ir.Func) error {
	b.currentFn = fn
	b.stack = b.stack[:0]
	b.result = ""
	b.tmpCount = 0

	fmt.Fprintf(b.out, "export function l $%s() {\n@start\n", fn.Name)
	if fn.FrameSize > 0 {
		fmt.Fprintf(b.out, "\t%%fp =l alloc%d %d\n", b.align, fn.FrameSize)
	}
	for _, in := range fn.Code {
		if err := b.genInstr(in); err != nil {
			return err
		}
	}
	b.out.WriteString("}\n")
	return nil
}

func (b *qbeBackend) genInstr(in ir.Instruction) error {
	switch in.Op {
	case ir.OpPush:
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l copy %d\n", t, in.Imm)
		b.push(t)
	case ir.OpAddr:
		// The frame grows down from %fp+FrameSize, matching rbp-relative offsets.
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l add %%fp, %d\n", t, int64(b.currentFn.FrameSize)-in.Imm)
		b.push(t)
	case ir.OpLoad:
		addr, err := b.pop()
		if err != nil {
			return err
		}
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l loadl %s\n", t, addr)
		b.push(t)
	case ir.OpStore:
		addr, err := b.pop()
		if err != nil {
			return err
		}
		val, err := b.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(b.out, "\tstorel %s, %s\n", val, addr)
		b.push(val)
	case ir.OpPop:
		t, err := b.pop()
		if err != nil {
			return err
		}
		b.result = t
	case ir.OpRet:
		if b.result == "" {
			b.out.WriteString("\tret 0\n")
		} else {
			fmt.Fprintf(b.out, "\tret %s\n", b.result)
		}
	default:
		op, ok := qbeOps[in.Op]
		if !ok {
			return fmt.Errorf("%s: unsupported instruction '%s'", b.currentFn.Name, in)
		}
		rhs, err := b.pop()
		if err != nil {
			return err
		}
		lhs, err := b.pop()
		if err != nil {
			return err
		}
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l %s %s, %s\n", t, op, lhs, rhs)
		b.push(t)
	}
	return nil
}

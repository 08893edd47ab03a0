package codegen

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/xplshn/toycc/pkg/config"
	"github.com/xplshn/toycc/pkg/ir"
)

// x86Backend emits Intel-syntax assembly for a stack machine that keeps its
// evaluation stack on the hardware stack.
type x86Backend struct {
	out *strings.Builder
}

func NewX86Backend() Backend { return &x86Backend{} }

func (b *x86Backend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	asm, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}
	return bytes.NewBufferString(asm), nil
}

func (b *x86Backend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	if cfg.WordSize != 8 {
		return "", fmt.Errorf("x86_64 backend requires an 8-byte word, target has %d", cfg.WordSize)
	}
	var sb strings.Builder
	b.out = &sb

	sb.WriteString(".intel_syntax noprefix\n")
	for _, fn := range prog.Funcs {
		if err := b.genFunc(fn); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (b *x86Backend) emit(format string, args ...any) {
	b.out.WriteString("  ")
	fmt.Fprintf(b.out, format, args...)
	b.out.WriteByte('\n')
}

func (b *x86Backend) genFunc(fn *ir.Func) error {
	fmt.Fprintf(b.out, ".globl %s\n%s:\n", fn.Name, fn.Name)
	b.emit("push rbp")
	b.emit("mov rbp, rsp")
	b.emit("sub rsp, %d", fn.FrameSize)

	for _, in := range fn.Code {
		if err := b.genInstr(in); err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
	}
	return nil
}

func (b *x86Backend) genInstr(in ir.Instruction) error {
	switch in.Op {
	case ir.OpPush:
		if in.Imm >= math.MinInt32 && in.Imm <= math.MaxInt32 {
			b.emit("push %d", in.Imm)
		} else {
			b.emit("mov rax, %d", in.Imm)
			b.emit("push rax")
		}
	case ir.OpAddr:
		b.emit("lea rax, [rbp-%d]", in.Imm)
		b.emit("push rax")
	case ir.OpLoad:
		b.emit("pop rax")
		b.emit("mov rax, [rax]")
		b.emit("push rax")
	case ir.OpStore:
		b.emit("pop rdi")
		b.emit("pop rax")
		b.emit("mov [rdi], rax")
		b.emit("push rax")
	case ir.OpPop:
		b.emit("pop rax")
	case ir.OpRet:
		b.emit("mov rsp, rbp")
		b.emit("pop rbp")
		b.emit("ret")
	default:
		if !in.Op.IsBinary() {
			return fmt.Errorf("unsupported instruction '%s'", in)
		}
		b.emit("pop rdi")
		b.emit("pop rax")
		b.genBinary(in.Op)
		b.emit("push rax")
	}
	return nil
}

var x86SetCC = map[ir.Op]string{
	ir.OpCEq: "sete", ir.OpCNeq: "setne",
	ir.OpCLt: "setl", ir.OpCLe: "setle",
	ir.OpCGt: "setg", ir.OpCGe: "setge",
}

// genBinary computes rax = rax op rdi.
func (b *x86Backend) genBinary(op ir.Op) {
	switch op {
	case ir.OpAdd:
		b.emit("add rax, rdi")
	case ir.OpSub:
		b.emit("sub rax, rdi")
	case ir.OpMul:
		b.emit("imul rax, rdi")
	case ir.OpDiv:
		b.emit("cqo")
		b.emit("idiv rdi")
	default:
		b.emit("cmp rax, rdi")
		b.emit("%s al", x86SetCC[op])
		b.emit("movzb rax, al")
	}
}

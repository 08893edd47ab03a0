package vm

import (
	"errors"
	"fmt"

	"github.com/xplshn/toycc/pkg/ir"
)

var (
	ErrStackOverflow  = errors.New("vm: stack overflow")
	ErrStackUnderflow = errors.New("vm: stack underflow")
	ErrDivisionByZero = errors.New("vm: division by zero")
	ErrBadAddress     = errors.New("vm: bad address")
	ErrNoReturn       = errors.New("vm: fell off the end of the code")
)

// Machine executes one ir.Func. Addresses are byte offsets into the frame,
// with BP at its top so that "addr off" yields BP-off as on real hardware.
// The stack holds exactly fn.MaxDepth() values.
type Machine struct {
	Stack []int64
	SP    int

	Frame    []int64
	BP       int64
	WordSize int

	IP     int
	Result int64
}

// NewMachine returns a machine with a zeroed frame for fn.
func NewMachine(fn *ir.Func, wordSize int) *Machine {
	m := &Machine{WordSize: wordSize}
	m.reset(fn)
	return m
}

func (m *Machine) reset(fn *ir.Func) {
	m.SP, m.IP, m.Result = 0, 0, 0
	if depth := fn.MaxDepth(); cap(m.Stack) >= depth {
		m.Stack = m.Stack[:depth]
	} else {
		m.Stack = make([]int64, depth)
	}
	words := fn.FrameSize / m.WordSize
	if cap(m.Frame) >= words {
		m.Frame = m.Frame[:words]
		clear(m.Frame)
	} else {
		m.Frame = make([]int64, words)
	}
	m.BP = int64(fn.FrameSize)
}

// Push adds a value to the stack. Panics on overflow.
func (m *Machine) Push(v int64) {
	if m.SP >= len(m.Stack) {
		panic(ErrStackOverflow)
	}
	m.Stack[m.SP] = v
	m.SP++
}

// Pop removes and returns the top value from the stack. Panics on underflow.
func (m *Machine) Pop() int64 {
	if m.SP <= 0 {
		panic(ErrStackUnderflow)
	}
	m.SP--
	return m.Stack[m.SP]
}

func (m *Machine) slot(addr int64) (int, error) {
	w := int64(m.WordSize)
	if addr < 0 || addr%w != 0 || addr+w > m.BP {
		return 0, fmt.Errorf("%w: %d outside frame of %d bytes", ErrBadAddress, addr, m.BP)
	}
	return int(addr / w), nil
}

// Run executes fn from the start and returns the value its "ret" yields.
func (m *Machine) Run(fn *ir.Func) (result int64, err error) {
	m.reset(fn)
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && (e == ErrStackOverflow || e == ErrStackUnderflow) {
				err = fmt.Errorf("%w at %s+%d", e, fn.Name, m.IP)
				return
			}
			panic(r)
		}
	}()

	for m.IP < len(fn.Code) {
		in := fn.Code[m.IP]
		switch in.Op {
		case ir.OpPush:
			m.Push(in.Imm)
		case ir.OpAddr:
			m.Push(m.BP - in.Imm)
		case ir.OpLoad:
			i, err := m.slot(m.Pop())
			if err != nil {
				return 0, err
			}
			m.Push(m.Frame[i])
		case ir.OpStore:
			i, err := m.slot(m.Pop())
			if err != nil {
				return 0, err
			}
			v := m.Pop()
			m.Frame[i] = v
			m.Push(v)
		case ir.OpPop:
			m.Result = m.Pop()
		case ir.OpRet:
			return m.Result, nil
		default:
			if !in.Op.IsBinary() {
				return 0, fmt.Errorf("vm: unknown instruction '%s' at %s+%d", in, fn.Name, m.IP)
			}
			b := m.Pop()
			a := m.Pop()
			v, err := binary(in.Op, a, b)
			if err != nil {
				return 0, fmt.Errorf("%w at %s+%d", err, fn.Name, m.IP)
			}
			m.Push(v)
		}
		m.IP++
	}
	return 0, ErrNoReturn
}

// Exec runs the "main" function of prog.
func Exec(prog *ir.Program) (int64, error) {
	fn := prog.FindFunc("main")
	if fn == nil {
		return 0, errors.New("vm: program has no main function")
	}
	return NewMachine(fn, prog.WordSize).Run(fn)
}

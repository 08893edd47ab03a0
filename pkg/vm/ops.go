package vm

import "github.com/xplshn/toycc/pkg/ir"

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// binary computes a op b. Arithmetic wraps like the hardware does, and
// division truncates toward zero.
func binary(op ir.Op, a, b int64) (int64, error) {
	switch op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpSub:
		return a - b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpDiv:
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case ir.OpCEq:
		return boolToInt(a == b), nil
	case ir.OpCNeq:
		return boolToInt(a != b), nil
	case ir.OpCLt:
		return boolToInt(a < b), nil
	case ir.OpCLe:
		return boolToInt(a <= b), nil
	case ir.OpCGt:
		return boolToInt(a > b), nil
	case ir.OpCGe:
		return boolToInt(a >= b), nil
	}
	return 0, nil
}

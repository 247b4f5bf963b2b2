package evaluator

import (
	"fmt"
	"math"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// numericBinary applies an arithmetic operator, broadcasting over arrays:
// scalar∘scalar, scalar∘array, array∘scalar, same-shape array∘array, and
// matrix∘row where the row width matches. String concatenation with '+' is
// also supported.
func numericBinary(op string, left, right interface{}) (interface{}, error) {
	// String concatenation
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if op == "+" && ok {
			return ls + rs, nil
		}
		return nil, opError(op, left, right)
	}
	if _, ok := right.(string); ok {
		return nil, opError(op, left, right)
	}

	ls, lok := asScalar(left)
	rs, rok := asScalar(right)

	switch {
	case lok && rok:
		return scalarOp(op, ls, rs)

	case lok:
		arr, err := asArray(right)
		if err != nil {
			return nil, opError(op, left, right)
		}
		return mapArray(arr, func(v float64) (float64, error) {
			return scalarOp(op, ls, v)
		})

	case rok:
		arr, err := asArray(left)
		if err != nil {
			return nil, opError(op, left, right)
		}
		return mapArray(arr, func(v float64) (float64, error) {
			return scalarOp(op, v, rs)
		})

	default:
		la, lerr := asArray(left)
		ra, rerr := asArray(right)
		if lerr != nil || rerr != nil {
			return nil, opError(op, left, right)
		}
		return zipArrays(op, la, ra)
	}
}

// scalarOp applies an arithmetic operator to two scalars. Division follows
// IEEE semantics (x/0 is ±Inf or NaN); %, like Python, takes the sign of
// the divisor.
func scalarOp(op string, a, b float64) (float64, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		return a / b, nil
	case "//":
		return math.Floor(a / b), nil
	case "%":
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return m, nil
	case "**":
		return math.Pow(a, b), nil
	default:
		return 0, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("Unknown operator %q", op), -1)
	}
}

// mapArray applies fn elementwise, producing a new array of the same shape.
func mapArray(a *ndarray.Array, fn func(float64) (float64, error)) (*ndarray.Array, error) {
	out := a.Copy()
	for i, v := range a.Data {
		r, err := fn(v)
		if err != nil {
			return nil, err
		}
		out.Data[i] = r
	}
	return out, nil
}

// zipArrays applies an operator elementwise over two arrays, broadcasting a
// 1-D row over the rows of a 2-D matrix when the widths match.
func zipArrays(op string, a, b *ndarray.Array) (*ndarray.Array, error) {
	switch {
	case sameShape(a, b):
		out := a.Copy()
		for i := range a.Data {
			r, err := scalarOp(op, a.Data[i], b.Data[i])
			if err != nil {
				return nil, err
			}
			out.Data[i] = r
		}
		return out, nil

	case a.NDim() == 2 && b.NDim() == 1 && a.Shape[1] == b.Shape[0]:
		out := a.Copy()
		cols := a.Shape[1]
		for i := range a.Data {
			r, err := scalarOp(op, a.Data[i], b.Data[i%cols])
			if err != nil {
				return nil, err
			}
			out.Data[i] = r
		}
		return out, nil

	case a.NDim() == 1 && b.NDim() == 2 && b.Shape[1] == a.Shape[0]:
		out := b.Copy()
		cols := b.Shape[1]
		for i := range b.Data {
			r, err := scalarOp(op, a.Data[i%cols], b.Data[i])
			if err != nil {
				return nil, err
			}
			out.Data[i] = r
		}
		return out, nil

	default:
		return nil, types.NewError(types.ErrShapeMismatch,
			fmt.Sprintf("Operands could not be broadcast together with shapes %v and %v",
				a.Shape, b.Shape), -1)
	}
}

func sameShape(a, b *ndarray.Array) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// numericUnary applies a unary operator: numeric negation/identity over
// scalars and arrays, and boolean not.
func numericUnary(op string, operand interface{}) (interface{}, error) {
	if op == "not" {
		t, err := truthy(operand)
		if err != nil {
			return nil, err
		}
		return !t, nil
	}

	if s, ok := asScalar(operand); ok {
		if op == "-" {
			return -s, nil
		}
		return s, nil
	}

	if arr, ok := operand.(*ndarray.Array); ok {
		if op == "-" {
			return mapArray(arr, func(v float64) (float64, error) { return -v, nil })
		}
		return arr, nil
	}

	return nil, types.NewError(types.ErrBadOperand,
		fmt.Sprintf("Bad operand type for unary %s: %s", op, typeName(operand)), -1)
}

// compareValues applies a comparison operator. Scalar comparisons yield a
// bool; comparisons involving a multi-element array are elementwise and
// yield a 0/1 array. Strings compare for equality only.
func compareValues(op string, left, right interface{}) (interface{}, error) {
	if ls, ok := left.(string); ok {
		rs, ok2 := right.(string)
		if !ok2 {
			return nil, opError(op, left, right)
		}
		switch op {
		case "==":
			return ls == rs, nil
		case "!=":
			return ls != rs, nil
		default:
			return nil, opError(op, left, right)
		}
	}

	ls, lok := asScalar(left)
	rs, rok := asScalar(right)

	switch {
	case lok && rok:
		return scalarCompare(op, ls, rs), nil

	case lok:
		arr, err := asArray(right)
		if err != nil {
			return nil, opError(op, left, right)
		}
		return mapArray(arr, func(v float64) (float64, error) {
			return boolToFloat(scalarCompare(op, ls, v)), nil
		})

	case rok:
		arr, err := asArray(left)
		if err != nil {
			return nil, opError(op, left, right)
		}
		return mapArray(arr, func(v float64) (float64, error) {
			return boolToFloat(scalarCompare(op, v, rs)), nil
		})

	default:
		la, lerr := asArray(left)
		ra, rerr := asArray(right)
		if lerr != nil || rerr != nil {
			return nil, opError(op, left, right)
		}
		if !sameShape(la, ra) {
			return nil, types.NewError(types.ErrShapeMismatch,
				fmt.Sprintf("Cannot compare arrays with shapes %v and %v", la.Shape, ra.Shape), -1)
		}
		out := la.Copy()
		for i := range la.Data {
			out.Data[i] = boolToFloat(scalarCompare(op, la.Data[i], ra.Data[i]))
		}
		return out, nil
	}
}

func scalarCompare(op string, a, b float64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	default:
		return false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// logicalAnd combines two comparison results: bools directly, 0/1 arrays
// elementwise.
func logicalAnd(a, b interface{}) (interface{}, error) {
	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		return ab && bb, nil
	}

	la, lerr := asArray(a)
	ra, rerr := asArray(b)
	if lerr != nil || rerr != nil {
		return nil, types.NewError(types.ErrBadOperand,
			"Cannot combine comparison results", -1)
	}
	if !sameShape(la, ra) {
		return nil, types.NewError(types.ErrShapeMismatch,
			fmt.Sprintf("Cannot combine comparisons with shapes %v and %v", la.Shape, ra.Shape), -1)
	}
	out := la.Copy()
	for i := range la.Data {
		out.Data[i] = boolToFloat(la.Data[i] != 0 && ra.Data[i] != 0)
	}
	return out, nil
}

func opError(op string, left, right interface{}) error {
	return types.NewError(types.ErrBadOperand,
		fmt.Sprintf("Unsupported operand types for %s: %s and %s",
			op, typeName(left), typeName(right)), -1)
}

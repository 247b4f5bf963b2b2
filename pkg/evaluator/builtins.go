package evaluator

import (
	"fmt"
	"math"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// universalBuiltins are the callables available without any module prefix,
// resolved after context bindings so data names can shadow them.
var universalBuiltins = map[string]*Builtin{
	"len":   {Name: "len", Fn: builtinLen},
	"abs":   {Name: "abs", Fn: builtinAbs},
	"min":   {Name: "min", Fn: builtinMin},
	"max":   {Name: "max", Fn: builtinMax},
	"sum":   {Name: "sum", Fn: builtinSum},
	"range": {Name: "range", Fn: builtinRange},
	"float": {Name: "float", Fn: builtinFloat},
	"int":   {Name: "int", Fn: builtinInt},
	"round": {Name: "round", Fn: builtinRound},
}

func argCountError(name string, want string, got int) error {
	return types.NewError(types.ErrArgumentCount,
		fmt.Sprintf("%s() takes %s arguments, got %d", name, want, got), -1)
}

func builtinLen(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("len", "1", len(args))
	}
	switch v := args[0].(type) {
	case *ndarray.Array:
		return float64(v.Len()), nil
	case []interface{}:
		return float64(len(v)), nil
	case string:
		return float64(len(v)), nil
	}
	return nil, types.NewError(types.ErrBadOperand,
		fmt.Sprintf("%s has no length", typeName(args[0])), -1)
}

func builtinAbs(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("abs", "1", len(args))
	}
	if s, ok := asScalar(args[0]); ok {
		return math.Abs(s), nil
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	return mapArray(arr, func(v float64) (float64, error) { return math.Abs(v), nil })
}

// reduceArgs treats min(a, b, ...) as a reduction over its arguments and
// min(xs) as a reduction over the single iterable's elements.
func reduceArgs(name string, args []interface{}) ([]float64, error) {
	if len(args) == 0 {
		return nil, argCountError(name, "at least 1", 0)
	}
	if len(args) == 1 {
		arr, err := asArray(args[0])
		if err != nil {
			return nil, err
		}
		if arr.Size() == 0 {
			return nil, types.NewError(types.ErrBadOperand,
				fmt.Sprintf("%s() of an empty sequence", name), -1)
		}
		return arr.Data, nil
	}
	vals := make([]float64, len(args))
	for i, a := range args {
		s, ok := asScalar(a)
		if !ok {
			return nil, types.NewError(types.ErrBadOperand,
				fmt.Sprintf("%s() argument %d is not a number", name, i+1), -1)
		}
		vals[i] = s
	}
	return vals, nil
}

func builtinMin(args []interface{}) (interface{}, error) {
	vals, err := reduceArgs("min", args)
	if err != nil {
		return nil, err
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Min(m, v)
	}
	return m, nil
}

func builtinMax(args []interface{}) (interface{}, error) {
	vals, err := reduceArgs("max", args)
	if err != nil {
		return nil, err
	}
	m := vals[0]
	for _, v := range vals[1:] {
		m = math.Max(m, v)
	}
	return m, nil
}

func builtinSum(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("sum", "1", len(args))
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	var total float64
	for _, v := range arr.Data {
		total += v
	}
	return total, nil
}

func builtinRange(args []interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, argCountError("range", "1 to 3", len(args))
	}
	bounds := make([]int, len(args))
	for i, a := range args {
		n, err := asInt(a)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}

	start, stop, step := 0, 0, 1
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return nil, types.NewError(types.ErrBadOperand,
				"range() step cannot be zero", -1)
		}
	}

	var data []float64
	if step > 0 {
		for i := start; i < stop; i += step {
			data = append(data, float64(i))
		}
	} else {
		for i := start; i > stop; i += step {
			data = append(data, float64(i))
		}
	}
	return ndarray.FromSlice(data), nil
}

func builtinFloat(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("float", "1", len(args))
	}
	s, ok := asScalar(args[0])
	if !ok {
		return nil, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("Cannot convert %s to float", typeName(args[0])), -1)
	}
	return s, nil
}

func builtinInt(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("int", "1", len(args))
	}
	s, ok := asScalar(args[0])
	if !ok {
		return nil, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("Cannot convert %s to int", typeName(args[0])), -1)
	}
	return math.Trunc(s), nil
}

func builtinRound(args []interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, argCountError("round", "1 or 2", len(args))
	}
	digits := 0
	if len(args) == 2 {
		n, err := asInt(args[1])
		if err != nil {
			return nil, err
		}
		digits = n
	}
	scale := math.Pow(10, float64(digits))
	roundOne := func(v float64) (float64, error) {
		return math.Round(v*scale) / scale, nil
	}
	if s, ok := asScalar(args[0]); ok {
		return roundOne(s)
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	return mapArray(arr, roundOne)
}

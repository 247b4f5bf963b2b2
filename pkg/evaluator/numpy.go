package evaluator

import (
	"fmt"
	"math"
	"sort"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// NumPy builds the np namespace: array constructors, elementwise math and
// reductions, patterned on the parts of numpy that short data-pipeline
// expressions actually use.
func NumPy() *Module {
	m := NewModule("np")

	m.Set("pi", math.Pi)
	m.Set("e", math.E)
	m.Set("inf", math.Inf(1))
	m.Set("nan", math.NaN())

	m.SetFunc("array", npArray)
	m.SetFunc("arange", npArange)
	m.SetFunc("linspace", npLinspace)
	m.SetFunc("zeros", npZeros)
	m.SetFunc("ones", npOnes)
	m.SetFunc("full", npFull)
	m.SetFunc("concatenate", npConcatenate)

	m.SetFunc("sum", npReduce("sum", reduceSum))
	m.SetFunc("mean", npReduce("mean", reduceMean))
	m.SetFunc("std", npReduce("std", reduceStd))
	m.SetFunc("var", npReduce("var", reduceVar))
	m.SetFunc("min", npReduce("min", reduceMin))
	m.SetFunc("max", npReduce("max", reduceMax))
	m.SetFunc("prod", npReduce("prod", reduceProd))
	m.SetFunc("median", npReduce("median", reduceMedian))

	m.SetFunc("abs", npElementwise("abs", math.Abs))
	m.SetFunc("sqrt", npElementwise("sqrt", math.Sqrt))
	m.SetFunc("exp", npElementwise("exp", math.Exp))
	m.SetFunc("log", npElementwise("log", math.Log))
	m.SetFunc("log2", npElementwise("log2", math.Log2))
	m.SetFunc("log10", npElementwise("log10", math.Log10))
	m.SetFunc("sin", npElementwise("sin", math.Sin))
	m.SetFunc("cos", npElementwise("cos", math.Cos))
	m.SetFunc("tan", npElementwise("tan", math.Tan))
	m.SetFunc("floor", npElementwise("floor", math.Floor))
	m.SetFunc("ceil", npElementwise("ceil", math.Ceil))
	m.SetFunc("round", npElementwise("round", math.Round))

	m.SetFunc("dot", npDot)
	m.SetFunc("sort", npSort)
	m.SetFunc("cumsum", npCumsum)
	m.SetFunc("diff", npDiff)

	return m
}

// npElementwise lifts a scalar function over scalars and arrays.
func npElementwise(name string, fn func(float64) float64) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, argCountError("np."+name, "1", len(args))
		}
		if s, ok := asScalar(args[0]); ok {
			return fn(s), nil
		}
		arr, err := asArray(args[0])
		if err != nil {
			return nil, err
		}
		return mapArray(arr, func(v float64) (float64, error) { return fn(v), nil })
	}
}

// npReduce lifts a whole-array reduction into an np function.
func npReduce(name string, fn func([]float64) (float64, error)) func([]interface{}) (interface{}, error) {
	return func(args []interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, argCountError("np."+name, "1", len(args))
		}
		arr, err := asArray(args[0])
		if err != nil {
			return nil, err
		}
		return fn(arr.Data)
	}
}

func reduceSum(data []float64) (float64, error) {
	var total float64
	for _, v := range data {
		total += v
	}
	return total, nil
}

func reduceProd(data []float64) (float64, error) {
	total := 1.0
	for _, v := range data {
		total *= v
	}
	return total, nil
}

func reduceMean(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, types.NewError(types.ErrBadOperand, "Mean of an empty array", -1)
	}
	s, _ := reduceSum(data)
	return s / float64(len(data)), nil
}

func reduceVar(data []float64) (float64, error) {
	mean, err := reduceMean(data)
	if err != nil {
		return 0, err
	}
	var acc float64
	for _, v := range data {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(data)), nil
}

func reduceStd(data []float64) (float64, error) {
	v, err := reduceVar(data)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

func reduceMin(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, types.NewError(types.ErrBadOperand, "Min of an empty array", -1)
	}
	m := data[0]
	for _, v := range data[1:] {
		m = math.Min(m, v)
	}
	return m, nil
}

func reduceMax(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, types.NewError(types.ErrBadOperand, "Max of an empty array", -1)
	}
	m := data[0]
	for _, v := range data[1:] {
		m = math.Max(m, v)
	}
	return m, nil
}

func reduceMedian(data []float64) (float64, error) {
	if len(data) == 0 {
		return 0, types.NewError(types.ErrBadOperand, "Median of an empty array", -1)
	}
	sorted := sortedCopy(data)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

func sortedCopy(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	sort.Float64s(out)
	return out
}

func npArray(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("np.array", "1", len(args))
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	return arr.Copy(), nil
}

func npArange(args []interface{}) (interface{}, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, argCountError("np.arange", "1 to 3", len(args))
	}
	bounds := make([]float64, len(args))
	for i, a := range args {
		s, ok := asScalar(a)
		if !ok {
			return nil, types.NewError(types.ErrBadOperand,
				fmt.Sprintf("np.arange() argument %d is not a number", i+1), -1)
		}
		bounds[i] = s
	}

	start, stop, step := 0.0, 0.0, 1.0
	switch len(bounds) {
	case 1:
		stop = bounds[0]
	case 2:
		start, stop = bounds[0], bounds[1]
	case 3:
		start, stop, step = bounds[0], bounds[1], bounds[2]
		if step == 0 {
			return nil, types.NewError(types.ErrBadOperand,
				"np.arange() step cannot be zero", -1)
		}
	}

	var data []float64
	if step > 0 {
		for v := start; v < stop; v += step {
			data = append(data, v)
		}
	} else {
		for v := start; v > stop; v += step {
			data = append(data, v)
		}
	}
	return ndarray.FromSlice(data), nil
}

func npLinspace(args []interface{}) (interface{}, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, argCountError("np.linspace", "2 or 3", len(args))
	}
	start, ok1 := asScalar(args[0])
	stop, ok2 := asScalar(args[1])
	if !ok1 || !ok2 {
		return nil, types.NewError(types.ErrBadOperand,
			"np.linspace() bounds must be numbers", -1)
	}
	num := 50
	if len(args) == 3 {
		n, err := asInt(args[2])
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, types.NewError(types.ErrBadOperand,
				"np.linspace() sample count must be positive", -1)
		}
		num = n
	}

	data := make([]float64, num)
	if num == 1 {
		data[0] = start
	} else {
		step := (stop - start) / float64(num-1)
		for i := range data {
			data[i] = start + float64(i)*step
		}
		data[num-1] = stop
	}
	return ndarray.FromSlice(data), nil
}

// shapeArgs reads a shape from either (n) or (rows, cols) arguments, or a
// single tuple argument.
func shapeArgs(name string, args []interface{}) ([]int, error) {
	if len(args) == 1 {
		if tup, ok := args[0].([]interface{}); ok {
			args = tup
		}
	}
	if len(args) < 1 || len(args) > 2 {
		return nil, argCountError(name, "1 or 2", len(args))
	}
	shape := make([]int, len(args))
	for i, a := range args {
		n, err := asInt(a)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, types.NewError(types.ErrBadOperand,
				fmt.Sprintf("%s() dimensions must be non-negative", name), -1)
		}
		shape[i] = n
	}
	return shape, nil
}

func filled(shape []int, value float64) *ndarray.Array {
	size := 1
	for _, d := range shape {
		size *= d
	}
	data := make([]float64, size)
	if value != 0 {
		for i := range data {
			data[i] = value
		}
	}
	return ndarray.New(data, shape...)
}

func npZeros(args []interface{}) (interface{}, error) {
	shape, err := shapeArgs("np.zeros", args)
	if err != nil {
		return nil, err
	}
	return filled(shape, 0), nil
}

func npOnes(args []interface{}) (interface{}, error) {
	shape, err := shapeArgs("np.ones", args)
	if err != nil {
		return nil, err
	}
	return filled(shape, 1), nil
}

func npFull(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, argCountError("np.full", "2", len(args))
	}
	shape, err := shapeArgs("np.full", args[:1])
	if err != nil {
		return nil, err
	}
	v, ok := asScalar(args[1])
	if !ok {
		return nil, types.NewError(types.ErrBadOperand,
			"np.full() fill value must be a number", -1)
	}
	return filled(shape, v), nil
}

func npConcatenate(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("np.concatenate", "1", len(args))
	}
	parts, ok := args[0].([]interface{})
	if !ok {
		return nil, types.NewError(types.ErrBadOperand,
			"np.concatenate() expects a list or tuple of arrays", -1)
	}
	var data []float64
	for _, p := range parts {
		arr, err := asArray(p)
		if err != nil {
			return nil, err
		}
		data = append(data, arr.Flatten().Data...)
	}
	return ndarray.FromSlice(data), nil
}

func npDot(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, argCountError("np.dot", "2", len(args))
	}
	a, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	b, err := asArray(args[1])
	if err != nil {
		return nil, err
	}
	if a.NDim() != 1 || b.NDim() != 1 {
		return nil, types.NewError(types.ErrShapeMismatch,
			"np.dot() supports 1-D vectors only", -1)
	}
	if a.Size() != b.Size() {
		return nil, types.NewError(types.ErrShapeMismatch,
			fmt.Sprintf("np.dot() vectors of length %d and %d", a.Size(), b.Size()), -1)
	}
	var acc float64
	for i := range a.Data {
		acc += a.Data[i] * b.Data[i]
	}
	return acc, nil
}

func npSort(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("np.sort", "1", len(args))
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	return ndarray.New(sortedCopy(arr.Flatten().Data), arr.Size()), nil
}

func npCumsum(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("np.cumsum", "1", len(args))
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	flat := arr.Flatten()
	out := make([]float64, flat.Size())
	var acc float64
	for i, v := range flat.Data {
		acc += v
		out[i] = acc
	}
	return ndarray.FromSlice(out), nil
}

func npDiff(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, argCountError("np.diff", "1", len(args))
	}
	arr, err := asArray(args[0])
	if err != nil {
		return nil, err
	}
	flat := arr.Flatten()
	if flat.Size() < 2 {
		return ndarray.FromSlice(nil), nil
	}
	out := make([]float64, flat.Size()-1)
	for i := range out {
		out[i] = flat.Data[i+1] - flat.Data[i]
	}
	return ndarray.FromSlice(out), nil
}

// arrayMember resolves attribute access on arrays: reduction and reshaping
// methods plus the shape/size/ndim/T attributes.
func arrayMember(a *ndarray.Array, name string) (interface{}, bool) {
	switch name {
	case "shape":
		out := make([]interface{}, len(a.Shape))
		for i, d := range a.Shape {
			out[i] = float64(d)
		}
		return out, true
	case "size":
		return float64(a.Size()), true
	case "ndim":
		return float64(a.NDim()), true
	case "T":
		return a.Transpose(), true
	}

	method := func(fn func(args []interface{}) (interface{}, error)) (interface{}, bool) {
		return &Builtin{Name: "array." + name, Fn: fn}, true
	}

	switch name {
	case "sum":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.sum", "0", len(args))
			}
			return reduceSum(a.Data)
		})
	case "mean":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.mean", "0", len(args))
			}
			return reduceMean(a.Data)
		})
	case "std":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.std", "0", len(args))
			}
			return reduceStd(a.Data)
		})
	case "var":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.var", "0", len(args))
			}
			return reduceVar(a.Data)
		})
	case "min":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.min", "0", len(args))
			}
			return reduceMin(a.Data)
		})
	case "max":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.max", "0", len(args))
			}
			return reduceMax(a.Data)
		})
	case "reshape":
		return method(func(args []interface{}) (interface{}, error) {
			shape, err := shapeArgs("array.reshape", args)
			if err != nil {
				return nil, err
			}
			return a.Reshape(shape...)
		})
	case "flatten":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.flatten", "0", len(args))
			}
			return a.Flatten(), nil
		})
	case "tolist":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.tolist", "0", len(args))
			}
			items, err := iterate(a)
			if err != nil {
				return nil, err
			}
			return items, nil
		})
	case "copy":
		return method(func(args []interface{}) (interface{}, error) {
			if len(args) != 0 {
				return nil, argCountError("array.copy", "0", len(args))
			}
			return a.Copy(), nil
		})
	}
	return nil, false
}

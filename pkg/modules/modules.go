// Package modules resolves the helper namespaces importable with -m: the
// built-in math, random and stats modules, and WebAssembly extension modules
// loaded from .wasm files.
package modules

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/npcli/npcli/pkg/evaluator"
	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// Lookup resolves a module reference. A name ending in .wasm is loaded as a
// WebAssembly extension module; anything else must be one of the built-in
// modules. The returned closer releases resources held by extension modules
// and is a no-op for built-ins.
func Lookup(ctx context.Context, name string) (*evaluator.Module, func() error, error) {
	if strings.HasSuffix(name, ".wasm") {
		return LoadWasm(ctx, name)
	}

	noop := func() error { return nil }
	switch name {
	case "math":
		return mathModule(), noop, nil
	case "random":
		return randomModule(), noop, nil
	case "stats":
		return statsModule(), noop, nil
	default:
		return nil, nil, types.NewError(types.ErrUnknownModule,
			fmt.Sprintf("Unknown module %q", name), -1)
	}
}

func oneScalar(name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, types.NewError(types.ErrArgumentCount,
			fmt.Sprintf("%s() takes 1 argument, got %d", name, len(args)), -1)
	}
	s, ok := scalarOf(args[0])
	if !ok {
		return 0, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("%s() argument is not a number", name), -1)
	}
	return s, nil
}

func scalarOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case *ndarray.Array:
		if n.Size() == 1 {
			return n.Data[0], true
		}
	}
	return 0, false
}

func setScalarFunc(m *evaluator.Module, name string, fn func(float64) float64) {
	m.SetFunc(name, func(args []interface{}) (interface{}, error) {
		s, err := oneScalar(m.Name+"."+name, args)
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	})
}

func mathModule() *evaluator.Module {
	m := evaluator.NewModule("math")
	m.Set("pi", math.Pi)
	m.Set("e", math.E)
	m.Set("tau", 2*math.Pi)
	m.Set("inf", math.Inf(1))
	m.Set("nan", math.NaN())

	setScalarFunc(m, "sqrt", math.Sqrt)
	setScalarFunc(m, "exp", math.Exp)
	setScalarFunc(m, "log", math.Log)
	setScalarFunc(m, "log2", math.Log2)
	setScalarFunc(m, "log10", math.Log10)
	setScalarFunc(m, "sin", math.Sin)
	setScalarFunc(m, "cos", math.Cos)
	setScalarFunc(m, "tan", math.Tan)
	setScalarFunc(m, "asin", math.Asin)
	setScalarFunc(m, "acos", math.Acos)
	setScalarFunc(m, "atan", math.Atan)
	setScalarFunc(m, "sinh", math.Sinh)
	setScalarFunc(m, "cosh", math.Cosh)
	setScalarFunc(m, "tanh", math.Tanh)
	setScalarFunc(m, "floor", math.Floor)
	setScalarFunc(m, "ceil", math.Ceil)
	setScalarFunc(m, "fabs", math.Abs)
	setScalarFunc(m, "degrees", func(x float64) float64 { return x * 180 / math.Pi })
	setScalarFunc(m, "radians", func(x float64) float64 { return x * math.Pi / 180 })

	m.SetFunc("pow", func(args []interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("math.pow() takes 2 arguments, got %d", len(args)), -1)
		}
		a, ok1 := scalarOf(args[0])
		b, ok2 := scalarOf(args[1])
		if !ok1 || !ok2 {
			return nil, types.NewError(types.ErrBadOperand,
				"math.pow() arguments must be numbers", -1)
		}
		return math.Pow(a, b), nil
	})
	m.SetFunc("atan2", func(args []interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("math.atan2() takes 2 arguments, got %d", len(args)), -1)
		}
		y, ok1 := scalarOf(args[0])
		x, ok2 := scalarOf(args[1])
		if !ok1 || !ok2 {
			return nil, types.NewError(types.ErrBadOperand,
				"math.atan2() arguments must be numbers", -1)
		}
		return math.Atan2(y, x), nil
	})
	return m
}

func randomModule() *evaluator.Module {
	m := evaluator.NewModule("random")

	m.SetFunc("random", func(args []interface{}) (interface{}, error) {
		if len(args) != 0 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("random.random() takes 0 arguments, got %d", len(args)), -1)
		}
		return rand.Float64(), nil
	})
	m.SetFunc("uniform", func(args []interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("random.uniform() takes 2 arguments, got %d", len(args)), -1)
		}
		a, ok1 := scalarOf(args[0])
		b, ok2 := scalarOf(args[1])
		if !ok1 || !ok2 {
			return nil, types.NewError(types.ErrBadOperand,
				"random.uniform() arguments must be numbers", -1)
		}
		return a + rand.Float64()*(b-a), nil
	})
	m.SetFunc("gauss", func(args []interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("random.gauss() takes 2 arguments, got %d", len(args)), -1)
		}
		mu, ok1 := scalarOf(args[0])
		sigma, ok2 := scalarOf(args[1])
		if !ok1 || !ok2 {
			return nil, types.NewError(types.ErrBadOperand,
				"random.gauss() arguments must be numbers", -1)
		}
		return mu + rand.NormFloat64()*sigma, nil
	})
	m.SetFunc("randint", func(args []interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, types.NewError(types.ErrArgumentCount,
				fmt.Sprintf("random.randint() takes 2 arguments, got %d", len(args)), -1)
		}
		a, ok1 := scalarOf(args[0])
		b, ok2 := scalarOf(args[1])
		if !ok1 || !ok2 || a != math.Trunc(a) || b != math.Trunc(b) || b < a {
			return nil, types.NewError(types.ErrBadOperand,
				"random.randint() arguments must be integers with a <= b", -1)
		}
		return a + float64(rand.Intn(int(b-a)+1)), nil
	})
	return m
}

func dataArg(name string, args []interface{}) ([]float64, error) {
	if len(args) != 1 {
		return nil, types.NewError(types.ErrArgumentCount,
			fmt.Sprintf("%s() takes 1 argument, got %d", name, len(args)), -1)
	}
	switch v := args[0].(type) {
	case *ndarray.Array:
		return v.Data, nil
	case []interface{}:
		data := make([]float64, len(v))
		for i, it := range v {
			s, ok := scalarOf(it)
			if !ok {
				return nil, types.NewError(types.ErrBadOperand,
					fmt.Sprintf("%s() element %d is not a number", name, i), -1)
			}
			data[i] = s
		}
		return data, nil
	}
	return nil, types.NewError(types.ErrBadOperand,
		fmt.Sprintf("%s() argument must be an array or list", name), -1)
}

func statsModule() *evaluator.Module {
	m := evaluator.NewModule("stats")

	reduce := func(name string, fn func([]float64) (float64, error)) {
		m.SetFunc(name, func(args []interface{}) (interface{}, error) {
			data, err := dataArg("stats."+name, args)
			if err != nil {
				return nil, err
			}
			if len(data) == 0 {
				return nil, types.NewError(types.ErrBadOperand,
					fmt.Sprintf("stats.%s() of an empty sequence", name), -1)
			}
			return fn(data)
		})
	}

	mean := func(data []float64) (float64, error) {
		var s float64
		for _, v := range data {
			s += v
		}
		return s / float64(len(data)), nil
	}
	variance := func(data []float64) (float64, error) {
		mu, _ := mean(data)
		var acc float64
		for _, v := range data {
			d := v - mu
			acc += d * d
		}
		return acc / float64(len(data)), nil
	}

	reduce("mean", mean)
	reduce("variance", variance)
	reduce("stdev", func(data []float64) (float64, error) {
		v, _ := variance(data)
		return math.Sqrt(v), nil
	})
	reduce("median", func(data []float64) (float64, error) {
		sorted := make([]float64, len(data))
		copy(sorted, data)
		sort.Float64s(sorted)
		n := len(sorted)
		if n%2 == 1 {
			return sorted[n/2], nil
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2, nil
	})
	reduce("geometric_mean", func(data []float64) (float64, error) {
		var acc float64
		for _, v := range data {
			if v <= 0 {
				return 0, types.NewError(types.ErrBadOperand,
					"stats.geometric_mean() requires positive values", -1)
			}
			acc += math.Log(v)
		}
		return math.Exp(acc / float64(len(data))), nil
	})
	return m
}

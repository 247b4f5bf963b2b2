package evaluator

import (
	"context"
	"fmt"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

// Runtime values flowing through the evaluator are one of:
//
//	float64           scalar number
//	bool              comparison result
//	string            string literal or concatenation
//	*ndarray.Array    numeric array
//	[]interface{}     list or tuple
//	*Module           importable namespace (np, math, ...)
//	*Builtin          callable function value (free or bound method)

// Builtin is a callable function value. In-process functions set Fn;
// functions that can block or call out of the process set CtxFn so that
// evaluation-time cancellation and timeouts reach them.
type Builtin struct {
	Name  string
	Fn    func(args []interface{}) (interface{}, error)
	CtxFn func(ctx context.Context, args []interface{}) (interface{}, error)
}

// Call invokes the builtin with the given arguments and no cancellation.
func (b *Builtin) Call(args []interface{}) (interface{}, error) {
	return b.CallContext(context.Background(), args)
}

// CallContext invokes the builtin, passing the evaluation context to
// context-aware implementations.
func (b *Builtin) CallContext(ctx context.Context, args []interface{}) (interface{}, error) {
	if b.CtxFn != nil {
		return b.CtxFn(ctx, args)
	}
	return b.Fn(args)
}

// String returns a representation used in diagnostics.
func (b *Builtin) String() string {
	return fmt.Sprintf("<function %s>", b.Name)
}

// Module is a named namespace of values and functions exposed to
// expressions under a single top-level name.
type Module struct {
	Name  string
	attrs map[string]interface{}
}

// NewModule creates an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{
		Name:  name,
		attrs: make(map[string]interface{}),
	}
}

// Set binds a value under name inside the module.
func (m *Module) Set(name string, value interface{}) {
	m.attrs[name] = value
}

// SetFunc binds a builtin function under name inside the module.
func (m *Module) SetFunc(name string, fn func(args []interface{}) (interface{}, error)) {
	m.attrs[name] = &Builtin{Name: m.Name + "." + name, Fn: fn}
}

// SetCtxFunc binds a context-aware builtin function under name inside the
// module.
func (m *Module) SetCtxFunc(name string, fn func(ctx context.Context, args []interface{}) (interface{}, error)) {
	m.attrs[name] = &Builtin{Name: m.Name + "." + name, CtxFn: fn}
}

// Get looks up a member of the module.
func (m *Module) Get(name string) (interface{}, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// String returns a representation used in diagnostics.
func (m *Module) String() string {
	return fmt.Sprintf("<module %s>", m.Name)
}

// Normalize converts a final result value into an array for output: arrays
// pass through, scalars and bools wrap into a single-element vector, numeric
// lists convert elementwise. Strings and other values have no array form.
func Normalize(v interface{}) (*ndarray.Array, error) {
	return asArray(v)
}

// asScalar converts a value to a scalar number when possible.
// Booleans count as 0/1 and single-element arrays unwrap, matching the
// numeric semantics of the expression language.
func asScalar(v interface{}) (float64, bool) {
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

// asInt converts a value to an integer index.
func asInt(v interface{}) (int, error) {
	s, ok := asScalar(v)
	if !ok {
		return 0, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("Expected an integer, got %s", typeName(v)), -1)
	}
	i := int(s)
	if float64(i) != s {
		return 0, types.NewError(types.ErrBadOperand,
			fmt.Sprintf("Expected an integer, got %v", s), -1)
	}
	return i, nil
}

// asArray converts a value to an array: arrays pass through, scalars wrap
// into single-element vectors, and flat numeric lists (or lists of
// equal-length numeric rows) convert elementwise.
func asArray(v interface{}) (*ndarray.Array, error) {
	switch n := v.(type) {
	case *ndarray.Array:
		return n, nil
	case float64:
		return ndarray.FromScalar(n), nil
	case bool:
		s, _ := asScalar(n)
		return ndarray.FromScalar(s), nil
	case []interface{}:
		return listToArray(n)
	}
	return nil, types.NewError(types.ErrBadOperand,
		fmt.Sprintf("Cannot interpret %s as an array", typeName(v)), -1)
}

// listToArray converts a list of numbers into a 1-D array, or a list of
// equal-length numeric lists/vectors into a 2-D array.
func listToArray(items []interface{}) (*ndarray.Array, error) {
	if len(items) == 0 {
		return ndarray.FromSlice(nil), nil
	}

	// Flat numeric list
	if _, ok := asScalar(items[0]); ok {
		data := make([]float64, len(items))
		for i, it := range items {
			s, ok := asScalar(it)
			if !ok {
				return nil, types.NewError(types.ErrBadOperand,
					fmt.Sprintf("Non-numeric element %s in array literal", typeName(it)), -1)
			}
			data[i] = s
		}
		return ndarray.New(data, len(items)), nil
	}

	// List of rows
	var data []float64
	cols := -1
	for _, it := range items {
		row, err := asArray(it)
		if err != nil {
			return nil, err
		}
		if row.NDim() != 1 {
			return nil, types.NewError(types.ErrShapeMismatch,
				"Nested rows must be 1-dimensional", -1)
		}
		if cols < 0 {
			cols = row.Size()
		} else if row.Size() != cols {
			return nil, types.NewError(types.ErrShapeMismatch,
				fmt.Sprintf("Row of length %d, expected %d", row.Size(), cols), -1)
		}
		data = append(data, row.Data...)
	}
	return ndarray.New(data, len(items), cols), nil
}

// truthy evaluates the truth value of v. Multi-element arrays have no
// single truth value and are reported as an error, matching numpy.
func truthy(v interface{}) (bool, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case float64:
		return n != 0, nil
	case string:
		return n != "", nil
	case []interface{}:
		return len(n) > 0, nil
	case *ndarray.Array:
		switch n.Size() {
		case 0:
			return false, nil
		case 1:
			return n.Data[0] != 0, nil
		default:
			return false, types.NewError(types.ErrBadOperand,
				"The truth value of a multi-element array is ambiguous", -1)
		}
	case nil:
		return false, nil
	}
	return true, nil
}

// iterate returns the elements of an iterable value: list and tuple
// elements as-is, 1-D array elements as scalars, 2-D array rows as
// 1-D arrays.
func iterate(v interface{}) ([]interface{}, error) {
	switch n := v.(type) {
	case []interface{}:
		return n, nil
	case *ndarray.Array:
		if n.NDim() == 2 {
			out := make([]interface{}, n.Shape[0])
			for i := range out {
				out[i] = n.Row(i)
			}
			return out, nil
		}
		out := make([]interface{}, n.Size())
		for i, x := range n.Data {
			out[i] = x
		}
		return out, nil
	}
	return nil, types.NewError(types.ErrNotIterable,
		fmt.Sprintf("%s is not iterable", typeName(v)), -1)
}

// typeName names a runtime value's type for diagnostics.
func typeName(v interface{}) string {
	switch v.(type) {
	case float64:
		return "number"
	case bool:
		return "bool"
	case string:
		return "string"
	case []interface{}:
		return "list"
	case *ndarray.Array:
		return "array"
	case *Module:
		return "module"
	case *Builtin:
		return "function"
	case nil:
		return "none"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Package ndarray provides the in-memory numeric array used throughout
// npcli: a homogeneous float64 buffer with a 1-D or 2-D shape, together
// with the loaders that build arrays from delimited text or raw typed
// bytes and the formatters that serialize results.
package ndarray

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npcli/npcli/pkg/types"
)

// Array is an in-memory homogeneous numeric buffer with a shape.
// Data is stored in row-major order. Shape has one or two dimensions.
type Array struct {
	Data  []float64
	Shape []int
}

// New creates an array from row-major data and a shape.
// It panics if the shape does not match the data length; callers construct
// shapes from data they already hold.
func New(data []float64, shape ...int) *Array {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		panic(fmt.Sprintf("ndarray: shape %v does not fit %d elements", shape, len(data)))
	}
	return &Array{Data: data, Shape: shape}
}

// FromScalar wraps a scalar number into a single-element 1-D array.
func FromScalar(v float64) *Array {
	return &Array{Data: []float64{v}, Shape: []int{1}}
}

// FromSlice creates a 1-D array copying the given values.
func FromSlice(values []float64) *Array {
	data := make([]float64, len(values))
	copy(data, values)
	return &Array{Data: data, Shape: []int{len(values)}}
}

// NDim returns the number of dimensions (1 or 2).
func (a *Array) NDim() int {
	return len(a.Shape)
}

// Size returns the total number of elements.
func (a *Array) Size() int {
	return len(a.Data)
}

// Len returns the length of the first dimension.
func (a *Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Rows returns the number of rows of a 2-D array, or 1 for a 1-D array.
func (a *Array) Rows() int {
	if a.NDim() == 2 {
		return a.Shape[0]
	}
	return 1
}

// Cols returns the row width of a 2-D array, or the length of a 1-D array.
func (a *Array) Cols() int {
	if a.NDim() == 2 {
		return a.Shape[1]
	}
	return a.Shape[0]
}

// At returns the element at flat index i.
func (a *Array) At(i int) float64 {
	return a.Data[i]
}

// At2 returns the element at row i, column j of a 2-D array.
func (a *Array) At2(i, j int) float64 {
	return a.Data[i*a.Shape[1]+j]
}

// Row returns row i of a 2-D array as a 1-D array sharing no storage.
func (a *Array) Row(i int) *Array {
	w := a.Shape[1]
	return FromSlice(a.Data[i*w : (i+1)*w])
}

// Flatten returns a 1-D array with the same elements.
// The result shares storage with the receiver.
func (a *Array) Flatten() *Array {
	return &Array{Data: a.Data, Shape: []int{len(a.Data)}}
}

// Reshape returns an array with the same data and a new shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, types.NewError(types.ErrShapeMismatch,
				fmt.Sprintf("Invalid shape %v", shape), -1)
		}
		n *= s
	}
	if n != len(a.Data) {
		return nil, types.NewError(types.ErrShapeMismatch,
			fmt.Sprintf("Cannot reshape array of size %d into shape %v", len(a.Data), shape), -1)
	}
	return &Array{Data: a.Data, Shape: shape}, nil
}

// Transpose returns the transpose of the array. Transposing a 1-D array is
// a no-op, matching numpy semantics.
func (a *Array) Transpose() *Array {
	if a.NDim() != 2 {
		return a
	}
	rows, cols := a.Shape[0], a.Shape[1]
	out := make([]float64, len(a.Data))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = a.Data[i*cols+j]
		}
	}
	return New(out, cols, rows)
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	data := make([]float64, len(a.Data))
	copy(data, a.Data)
	shape := make([]int, len(a.Shape))
	copy(shape, a.Shape)
	return &Array{Data: data, Shape: shape}
}

// formatElement renders one element the way the text formatters do:
// shortest representation that round-trips ("%g"-style).
func formatElement(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// String returns a compact representation for debugging and logging.
func (a *Array) String() string {
	return a.Repr()
}

// Repr returns the debug/textual representation of the array, in the style
// of a numeric-library repr: array([1, 2, 3]) for 1-D,
// array([[1, 2], [3, 4]]) for 2-D.
func (a *Array) Repr() string {
	var b strings.Builder
	b.WriteString("array(")
	if a.NDim() == 2 {
		b.WriteByte('[')
		for i := 0; i < a.Shape[0]; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRow(&b, a.Data[i*a.Shape[1]:(i+1)*a.Shape[1]])
		}
		b.WriteByte(']')
	} else {
		writeRow(&b, a.Data)
	}
	b.WriteByte(')')
	return b.String()
}

func writeRow(b *strings.Builder, row []float64) {
	b.WriteByte('[')
	for i, v := range row {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatElement(v))
	}
	b.WriteByte(']')
}

package ndarray

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/npcli/npcli/pkg/types"
)

// Read loads an array from a stream. When dtype is the zero value the stream
// is parsed as whitespace/newline-delimited numeric text; otherwise the whole
// stream is read as one raw byte buffer of dtype elements.
func Read(r io.Reader, dtype DType) (*Array, error) {
	if dtype.IsZero() {
		return ReadText(r)
	}
	return ReadRaw(r, dtype)
}

// ReadText reads whitespace/newline-delimited numeric text into an array.
// Each line becomes a row; every line must have the same number of tokens.
// Blank lines are skipped. An input with exactly one column is flattened
// into a 1-D vector; everything else keeps its 2-D shape.
func ReadText(r io.Reader) (*Array, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var (
		data []float64
		rows int
		cols = -1
	)
	for i, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if cols < 0 {
			cols = len(fields)
		} else if len(fields) != cols {
			return nil, types.NewError(types.ErrRaggedRows,
				fmt.Sprintf("Line %d has %d values, expected %d", i+1, len(fields), cols), -1)
		}

		for _, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, types.NewError(types.ErrInvalidToken,
					fmt.Sprintf("Line %d: invalid number %q", i+1, tok), -1).WithCause(err)
			}
			data = append(data, v)
		}
		rows++
	}

	if rows == 0 {
		return &Array{Data: nil, Shape: []int{0}}, nil
	}

	// Treat a single column of numbers as a vector rather than an Nx1 matrix
	if cols == 1 {
		return &Array{Data: data, Shape: []int{rows}}, nil
	}
	return &Array{Data: data, Shape: []int{rows, cols}}, nil
}

// ReadRaw reads the entire stream as one raw byte buffer and reinterprets it
// as a flat 1-D array of dtype elements. A trailing partial element is a
// data-format error.
func ReadRaw(r io.Reader, dtype DType) (*Array, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(raw)%dtype.Size() != 0 {
		return nil, types.NewError(types.ErrTruncatedBuffer,
			fmt.Sprintf("Buffer of %d bytes is not a whole number of %s elements",
				len(raw), dtype.Name()), -1)
	}

	n := len(raw) / dtype.Size()
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = dtype.decode(raw[i*dtype.Size():])
	}
	return &Array{Data: data, Shape: []int{n}}, nil
}

// WriteText serializes the array as delimited text: one row per line,
// elements space-separated, each formatted with a generic number format.
func (a *Array) WriteText(w io.Writer) error {
	var b strings.Builder
	if a.NDim() == 2 {
		cols := a.Shape[1]
		for i := 0; i < a.Shape[0]; i++ {
			for j := 0; j < cols; j++ {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(formatElement(a.Data[i*cols+j]))
			}
			b.WriteByte('\n')
		}
	} else {
		for _, v := range a.Data {
			b.WriteString(formatElement(v))
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

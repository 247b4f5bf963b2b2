package ndarray_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/npcli/npcli/pkg/ndarray"
	"github.com/npcli/npcli/pkg/types"
)

func expectDataError(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s, got none", code)
	}
	var terr *types.Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *types.Error, got %T: %v", err, err)
	}
	if terr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, terr.Code, err)
	}
}

func TestReadTextMatrix(t *testing.T) {
	arr, err := ndarray.ReadText(strings.NewReader("1 2\n3 4\n5 6\n"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.NDim() != 2 || arr.Shape[0] != 3 || arr.Shape[1] != 2 {
		t.Fatalf("unexpected shape %v", arr.Shape)
	}
	if arr.At2(2, 1) != 6 {
		t.Fatalf("At2(2,1) = %v, want 6", arr.At2(2, 1))
	}
}

func TestReadTextSingleColumnFlattens(t *testing.T) {
	arr, err := ndarray.ReadText(strings.NewReader("1\n2\n3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.NDim() != 1 || arr.Len() != 3 {
		t.Fatalf("expected 1-D of 3, got shape %v", arr.Shape)
	}
}

func TestReadTextBlankLinesAndNoTrailingNewline(t *testing.T) {
	arr, err := ndarray.ReadText(strings.NewReader("\n1 2\n\n3 4"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.Shape[0] != 2 || arr.Shape[1] != 2 {
		t.Fatalf("unexpected shape %v", arr.Shape)
	}
}

func TestReadTextEmpty(t *testing.T) {
	arr, err := ndarray.ReadText(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if arr.NDim() != 1 || arr.Len() != 0 {
		t.Fatalf("expected empty 1-D array, got shape %v", arr.Shape)
	}
}

func TestReadTextRaggedRows(t *testing.T) {
	_, err := ndarray.ReadText(strings.NewReader("1 2\n3\n"))
	expectDataError(t, err, types.ErrRaggedRows)
}

func TestReadTextInvalidToken(t *testing.T) {
	_, err := ndarray.ReadText(strings.NewReader("1 two\n"))
	expectDataError(t, err, types.ErrInvalidToken)
}

func TestReadTextScientificNotation(t *testing.T) {
	arr, err := ndarray.ReadText(strings.NewReader("1e3 -2.5e-2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if arr.Data[0] != 1000 || arr.Data[1] != -0.025 {
		t.Fatalf("unexpected data %v", arr.Data)
	}
}

func TestParseDType(t *testing.T) {
	tests := []struct {
		name string
		want string
		size int
	}{
		{"float64", "float64", 8},
		{"f8", "float64", 8},
		{"float32", "float32", 4},
		{"i4", "int32", 4},
		{"int16", "int16", 2},
		{"u1", "uint8", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ndarray.ParseDType(tc.name)
			if err != nil {
				t.Fatal(err)
			}
			if d.Name() != tc.want || d.Size() != tc.size {
				t.Fatalf("ParseDType(%q) = %s/%d, want %s/%d", tc.name, d.Name(), d.Size(), tc.want, tc.size)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ndarray.ParseDType("complex128")
		expectDataError(t, err, types.ErrUnknownDType)
	})
}

func TestReadRawFloat64(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []float64{1.5, -2, 3.25} {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		buf.Write(b[:])
	}

	d, err := ndarray.ParseDType("float64")
	if err != nil {
		t.Fatal(err)
	}
	arr, err := ndarray.ReadRaw(&buf, d)
	if err != nil {
		t.Fatal(err)
	}
	if arr.NDim() != 1 || arr.Len() != 3 {
		t.Fatalf("unexpected shape %v", arr.Shape)
	}
	if arr.Data[0] != 1.5 || arr.Data[1] != -2 || arr.Data[2] != 3.25 {
		t.Fatalf("unexpected data %v", arr.Data)
	}
}

func TestReadRawInt32(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []int32{-1, 7} {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		buf.Write(b[:])
	}

	d, _ := ndarray.ParseDType("i4")
	arr, err := ndarray.ReadRaw(&buf, d)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Data[0] != -1 || arr.Data[1] != 7 {
		t.Fatalf("unexpected data %v", arr.Data)
	}
}

func TestReadRawTruncated(t *testing.T) {
	d, _ := ndarray.ParseDType("float64")
	_, err := ndarray.ReadRaw(bytes.NewReader(make([]byte, 12)), d)
	expectDataError(t, err, types.ErrTruncatedBuffer)
}

func TestBytesRoundTrip(t *testing.T) {
	for _, name := range []string{"float64", "float32", "int32", "uint8"} {
		t.Run(name, func(t *testing.T) {
			d, err := ndarray.ParseDType(name)
			if err != nil {
				t.Fatal(err)
			}
			orig := ndarray.FromSlice([]float64{0, 1, 7, 42})
			back, err := ndarray.ReadRaw(bytes.NewReader(orig.Bytes(d)), d)
			if err != nil {
				t.Fatal(err)
			}
			if back.Len() != orig.Len() {
				t.Fatalf("length changed: %d != %d", back.Len(), orig.Len())
			}
			for i := range orig.Data {
				if back.Data[i] != orig.Data[i] {
					t.Fatalf("element %d: %v != %v", i, back.Data[i], orig.Data[i])
				}
			}
		})
	}
}

func TestWriteText(t *testing.T) {
	t.Run("vector", func(t *testing.T) {
		var b strings.Builder
		if err := ndarray.FromSlice([]float64{1, 2.5, -3}).WriteText(&b); err != nil {
			t.Fatal(err)
		}
		if got := b.String(); got != "1\n2.5\n-3\n" {
			t.Fatalf("WriteText = %q", got)
		}
	})

	t.Run("matrix", func(t *testing.T) {
		var b strings.Builder
		if err := ndarray.New([]float64{1, 2, 3, 4}, 2, 2).WriteText(&b); err != nil {
			t.Fatal(err)
		}
		if got := b.String(); got != "1 2\n3 4\n" {
			t.Fatalf("WriteText = %q", got)
		}
	})
}

func TestTextRoundTrip(t *testing.T) {
	orig := ndarray.New([]float64{1.5, -2, 0.001, 4, 5, 6}, 2, 3)
	var b strings.Builder
	if err := orig.WriteText(&b); err != nil {
		t.Fatal(err)
	}
	back, err := ndarray.ReadText(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	if back.Shape[0] != 2 || back.Shape[1] != 3 {
		t.Fatalf("shape changed: %v", back.Shape)
	}
	for i := range orig.Data {
		if back.Data[i] != orig.Data[i] {
			t.Fatalf("element %d changed: %v != %v", i, back.Data[i], orig.Data[i])
		}
	}
}

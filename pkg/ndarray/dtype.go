package ndarray

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/npcli/npcli/pkg/types"
)

// DType identifies the element type of a raw typed buffer.
// Raw input and raw-format output are always little-endian.
type DType struct {
	name string
	size int
}

// Name returns the canonical dtype name.
func (d DType) Name() string { return d.name }

// Size returns the element size in bytes.
func (d DType) Size() int { return d.size }

// IsZero reports whether the DType is the zero value (no dtype given).
func (d DType) IsZero() bool { return d.size == 0 }

// dtypes maps every accepted spelling to its canonical dtype.
// Aliases follow the numpy single-character convention (f8, i4, u1, ...).
var dtypes = map[string]DType{
	"float64": {"float64", 8},
	"f8":      {"float64", 8},
	"float32": {"float32", 4},
	"f4":      {"float32", 4},
	"int64":   {"int64", 8},
	"i8":      {"int64", 8},
	"int32":   {"int32", 4},
	"i4":      {"int32", 4},
	"int16":   {"int16", 2},
	"i2":      {"int16", 2},
	"int8":    {"int8", 1},
	"i1":      {"int8", 1},
	"uint64":  {"uint64", 8},
	"u8":      {"uint64", 8},
	"uint32":  {"uint32", 4},
	"u4":      {"uint32", 4},
	"uint16":  {"uint16", 2},
	"u2":      {"uint16", 2},
	"uint8":   {"uint8", 1},
	"u1":      {"uint8", 1},
}

// ParseDType resolves a dtype name. Unknown names are a data-format error.
func ParseDType(name string) (DType, error) {
	if d, ok := dtypes[name]; ok {
		return d, nil
	}
	return DType{}, types.NewError(types.ErrUnknownDType,
		fmt.Sprintf("Unknown dtype %q", name), -1).WithToken(name)
}

// decode reads one element starting at b and returns it as float64.
func (d DType) decode(b []byte) float64 {
	switch d.name {
	case "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case "int64":
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case "int32":
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case "int16":
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case "int8":
		return float64(int8(b[0]))
	case "uint64":
		return float64(binary.LittleEndian.Uint64(b))
	case "uint32":
		return float64(binary.LittleEndian.Uint32(b))
	case "uint16":
		return float64(binary.LittleEndian.Uint16(b))
	case "uint8":
		return float64(b[0])
	}
	return 0
}

// encode appends one element to buf in the dtype's wire format.
func (d DType) encode(buf []byte, v float64) []byte {
	switch d.name {
	case "float64":
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	case "float32":
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	case "int64":
		return binary.LittleEndian.AppendUint64(buf, uint64(int64(v)))
	case "int32":
		return binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))
	case "int16":
		return binary.LittleEndian.AppendUint16(buf, uint16(int16(v)))
	case "int8":
		return append(buf, byte(int8(v)))
	case "uint64":
		return binary.LittleEndian.AppendUint64(buf, uint64(v))
	case "uint32":
		return binary.LittleEndian.AppendUint32(buf, uint32(v))
	case "uint16":
		return binary.LittleEndian.AppendUint16(buf, uint16(v))
	case "uint8":
		return append(buf, byte(v))
	}
	return buf
}

// Bytes returns the array reinterpreted as a flat buffer of dtype,
// in little-endian byte order.
func (a *Array) Bytes(d DType) []byte {
	buf := make([]byte, 0, len(a.Data)*d.size)
	for _, v := range a.Data {
		buf = d.encode(buf, v)
	}
	return buf
}

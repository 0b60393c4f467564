package tensor

import "fmt"

// DType is the compile-time constraint for element types carried by Tensor.
// The numeric path of the library runs on float32 and float64; int32 and
// bool exist for index and mask tensors.
type DType interface {
	~float32 | ~float64 | ~int32 | ~bool
}

// DataType is the runtime tag matching a DType instantiation.
type DataType int

const (
	Float32 DataType = iota
	Float64
	Int32
	Bool
)

// Size returns the element size in bytes.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	case Bool:
		return 1
	default:
		panic(fmt.Sprintf("unknown data type: %d", dt))
	}
}

// String returns a human-readable type name.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// dataTypeOf maps a Go element type to its runtime tag.
func dataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case bool:
		return Bool
	default:
		panic(fmt.Sprintf("unsupported element type %T", zero))
	}
}

package tensor

import "fmt"

// Tensor is the typed, backend-bound view over a RawTensor. T fixes the
// element type at compile time, B carries the compute backend.
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps an existing RawTensor. The raw dtype must match T.
func New[T DType, B Backend](raw *RawTensor, backend B) (*Tensor[T, B], error) {
	if raw.DType() != dataTypeOf[T]() {
		return nil, fmt.Errorf("raw tensor dtype %s does not match element type", raw.DType())
	}
	return &Tensor[T, B]{raw: raw, backend: backend}, nil
}

// FromSlice builds a tensor from a flat data slice with the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, backend B) (*Tensor[T, B], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), shape, shape.NumElements())
	}
	raw, err := NewRaw(shape, dataTypeOf[T](), backend.Device())
	if err != nil {
		return nil, err
	}
	copy(typedData[T](raw), data)
	return &Tensor[T, B]{raw: raw, backend: backend}, nil
}

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the compute backend the tensor is bound to.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Shape returns the tensor shape.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// Data returns the typed element slice backing the tensor.
func (t *Tensor[T, B]) Data() []T { return typedData[T](t.raw) }

// At reads the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

// Item returns the single element of a one-element tensor.
func (t *Tensor[T, B]) Item() T {
	if t.raw.NumElements() != 1 {
		panic(fmt.Sprintf("Item on tensor with %d elements", t.raw.NumElements()))
	}
	return t.Data()[0]
}

// Clone returns a tensor sharing the buffer via reference counting.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("got %d indices for %d-dimensional tensor", len(indices), len(shape)))
	}
	strides := t.raw.Strides()
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d (size %d)", idx, i, shape[i]))
		}
		flat += idx * strides[i]
	}
	return flat
}

// typedData reinterprets the raw buffer as []T.
func typedData[T DType](raw *RawTensor) []T {
	switch any(*new(T)).(type) {
	case float32:
		return any(raw.AsFloat32()).([]T)
	case float64:
		return any(raw.AsFloat64()).([]T)
	case int32:
		return any(raw.AsInt32()).([]T)
	case bool:
		return any(raw.AsBool()).([]T)
	default:
		panic(fmt.Sprintf("unsupported element type %T", *new(T)))
	}
}

// wrap pairs a raw result with the source tensor's backend.
func wrap[T DType, B Backend](raw *RawTensor, backend B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: backend}
}

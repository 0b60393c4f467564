package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	raw, err := NewRaw(shape, dataTypeOf[T](), backend.Device())
	if err != nil {
		panic(err)
	}
	return &Tensor[T, B]{raw: raw, backend: backend}
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, backend B) *Tensor[T, B] {
	return Full[T, B](shape, oneOf[T](), backend)
}

// Full creates a tensor filled with the given value.
func Full[T DType, B Backend](shape Shape, value T, backend B) *Tensor[T, B] {
	t := Zeros[T, B](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor of standard normal samples drawn from rng.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, backend B) *Tensor[T, B] {
	t := Zeros[T, B](shape, backend)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(rng.NormFloat64())
		}
	case []float64:
		for i := range data {
			data[i] = rng.NormFloat64()
		}
	default:
		panic("Randn requires a floating-point element type")
	}
	return t
}

// Rand creates a tensor of uniform samples in [0, 1) drawn from rng.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, backend B) *Tensor[T, B] {
	t := Zeros[T, B](shape, backend)
	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = rng.Float32()
		}
	case []float64:
		for i := range data {
			data[i] = rng.Float64()
		}
	default:
		panic("Rand requires a floating-point element type")
	}
	return t
}

// oneOf returns the representation of 1 for T. Bool maps to true.
func oneOf[T DType]() T {
	switch any(*new(T)).(type) {
	case bool:
		return any(true).(T)
	case float32:
		return any(float32(1)).(T)
	case float64:
		return any(float64(1)).(T)
	case int32:
		return any(int32(1)).(T)
	default:
		panic("unsupported element type")
	}
}

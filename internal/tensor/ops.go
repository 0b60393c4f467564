package tensor

// Method wrappers delegating to the bound backend. Results keep the
// element type and backend of the receiver.

// Add returns t + other with broadcasting.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return wrap[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub returns t - other with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return wrap[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul returns the element-wise product with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return wrap[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div returns the element-wise quotient with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return wrap[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// AddScalar returns t + scalar.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return wrap[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// MulScalar returns t * scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return wrap[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// MatMul multiplies two 2-D tensors.
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return wrap[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Abs returns element-wise absolute values.
func (t *Tensor[T, B]) Abs() *Tensor[T, B] {
	return wrap[T, B](t.backend.Abs(t.raw), t.backend)
}

// Sum reduces all elements to a [1] tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return wrap[T, B](t.backend.Sum(t.raw), t.backend)
}

// Mean reduces all elements to their mean as a [1] tensor.
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	return wrap[T, B](t.backend.Mean(t.raw), t.backend)
}

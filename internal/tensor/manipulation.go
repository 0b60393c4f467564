package tensor

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved.
func (t *Tensor[T, B]) Reshape(shape Shape) *Tensor[T, B] {
	return wrap[T, B](t.backend.Reshape(t.raw, shape), t.backend)
}

// Transpose permutes dimensions by the given axes.
func (t *Tensor[T, B]) Transpose(axes []int) *Tensor[T, B] {
	return wrap[T, B](t.backend.Transpose(t.raw, axes), t.backend)
}

// T swaps the two dimensions of a 2-D tensor.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	return t.Transpose([]int{1, 0})
}

// Chunk splits the tensor into n equal parts along dim.
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	raws := t.backend.Chunk(t.raw, n, dim)
	out := make([]*Tensor[T, B], len(raws))
	for i, raw := range raws {
		out[i] = wrap[T, B](raw, t.backend)
	}
	return out
}

// Cat concatenates tensors along dim. All inputs must share shape on the
// remaining dimensions.
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	raws := make([]*RawTensor, len(tensors))
	for i, t := range tensors {
		raws[i] = t.raw
	}
	return wrap[T, B](tensors[0].backend.Cat(raws, dim), tensors[0].backend)
}

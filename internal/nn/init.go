package nn

import (
	"math"
	"math/rand"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Xavier initializes a tensor with Glorot uniform values,
// U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))). Drawing from rng
// keeps initialization reproducible for a fixed seed.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Zeros creates a float32 tensor of zeros, the bias default.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a float32 tensor of ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

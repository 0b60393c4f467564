package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/AzanPy/rna-seq-factornet/internal/autodiff"
	"github.com/AzanPy/rna-seq-factornet/internal/backend/cpu"
	"github.com/AzanPy/rna-seq-factornet/internal/nn"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

type cpuAutodiff = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func floatEqual(a, b, tol float32) bool {
	diff := float64(a - b)
	return math.Abs(diff) <= float64(tol)
}

func newInput(t *testing.T, data []float32, shape tensor.Shape, backend cpuAutodiff) *tensor.Tensor[float32, cpuAutodiff] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func TestLinearForward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	layer := nn.NewLinear(3, 2, rng, backend)
	copy(layer.Weight().Tensor().Data(), []float32{1, 0, -1, 0.5, 0.5, 0.5})
	copy(layer.Bias().Tensor().Data(), []float32{1, -1})

	x := newInput(t, []float32{2, 3, 4}, tensor.Shape{1, 3}, backend)
	out := layer.Forward(x)

	if !out.Shape().Equal(tensor.Shape{1, 2}) {
		t.Fatalf("output shape = %v", out.Shape())
	}
	got := out.Data()
	// Row 0: 2*1 + 3*0 + 4*(-1) + 1 = -1; row 1: 0.5*(2+3+4) - 1 = 3.5
	if !floatEqual(got[0], -1, 1e-5) || !floatEqual(got[1], 3.5, 1e-5) {
		t.Errorf("forward = %v, want [-1 3.5]", got)
	}
}

func TestLinearStateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := nn.NewLinear(4, 3, rand.New(rand.NewSource(7)), backend)
	dst := nn.NewLinear(4, 3, rand.New(rand.NewSource(8)), backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	srcW := src.Weight().Tensor().Data()
	dstW := dst.Weight().Tensor().Data()
	for i := range srcW {
		if srcW[i] != dstW[i] {
			t.Fatalf("weight[%d] = %f, want %f", i, dstW[i], srcW[i])
		}
	}
}

func TestLinearLoadStateDictShapeMismatch(t *testing.T) {
	backend := autodiff.New(cpu.New())

	src := nn.NewLinear(4, 3, rand.New(rand.NewSource(7)), backend)
	dst := nn.NewLinear(4, 2, rand.New(rand.NewSource(8)), backend)

	if err := dst.LoadStateDict(src.StateDict()); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestConv1DLayerShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	layer := nn.NewConv1D(1, 8, 3, 1, 1, rng, backend)
	x := newInput(t, make([]float32, 2*1*10), tensor.Shape{2, 1, 10}, backend)
	out := layer.Forward(x)

	if !out.Shape().Equal(tensor.Shape{2, 8, 10}) {
		t.Fatalf("output shape = %v, want [2 8 10]", out.Shape())
	}
	if layer.OutWidth(10) != 10 {
		t.Errorf("OutWidth(10) = %d, want 10", layer.OutWidth(10))
	}
}

func TestConv1DLayerBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	layer := nn.NewConv1D(1, 2, 1, 1, 0, rng, backend)
	state := layer.StateDict()
	copy(state["weight"].AsFloat32(), []float32{1, 2})
	copy(state["bias"].AsFloat32(), []float32{10, 20})

	x := newInput(t, []float32{1, 2, 3}, tensor.Shape{1, 1, 3}, backend)
	out := layer.Forward(x)

	want := []float32{11, 12, 13, 22, 24, 26}
	got := out.Data()
	for i := range want {
		if !floatEqual(got[i], want[i], 1e-5) {
			t.Errorf("out[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestLSTMForwardShape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(3))

	layer := nn.NewLSTM(8, 16, rng, backend)
	x := newInput(t, make([]float32, 2*5*8), tensor.Shape{2, 5, 8}, backend)
	out := layer.Forward(x)

	if !out.Shape().Equal(tensor.Shape{2, 16}) {
		t.Fatalf("output shape = %v, want [2 16]", out.Shape())
	}
	if got := len(layer.Parameters()); got != 12 {
		t.Errorf("parameter count = %d, want 12", got)
	}
}

func TestLSTMZeroInputBounded(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(3))

	layer := nn.NewLSTM(4, 6, rng, backend)
	x := newInput(t, make([]float32, 1*3*4), tensor.Shape{1, 3, 4}, backend)
	out := layer.Forward(x)

	// tanh bounds the cell output.
	for i, v := range out.Data() {
		if v < -1 || v > 1 {
			t.Errorf("hidden[%d] = %f outside [-1, 1]", i, v)
		}
	}
}

func TestDropoutEvalIdentity(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(5))

	layer := nn.NewDropout(0.5, rng, backend)
	layer.SetTraining(false)

	vals := []float32{1, -2, 3, -4}
	x := newInput(t, append([]float32(nil), vals...), tensor.Shape{2, 2}, backend)
	out := layer.Forward(x)

	for i, v := range out.Data() {
		if v != vals[i] {
			t.Errorf("eval output[%d] = %f, want %f", i, v, vals[i])
		}
	}
}

func TestDropoutTrainingMasksAndScales(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(5))

	layer := nn.NewDropout(0.5, rng, backend)
	layer.SetTraining(true)

	n := 1000
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	x := newInput(t, data, tensor.Shape{1, n}, backend)
	out := layer.Forward(x)

	zeros := 0
	for _, v := range out.Data() {
		switch {
		case v == 0:
			zeros++
		case floatEqual(v, 2, 1e-5):
			// kept and rescaled by 1/(1-p)
		default:
			t.Fatalf("unexpected dropout output %f", v)
		}
	}
	if zeros < 400 || zeros > 600 {
		t.Errorf("dropped %d of %d at p=0.5", zeros, n)
	}
}

func TestDropoutRejectsBadProbability(t *testing.T) {
	backend := autodiff.New(cpu.New())
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for p=1")
		}
	}()
	nn.NewDropout(1.0, rand.New(rand.NewSource(1)), backend)
}

func TestMSELoss(t *testing.T) {
	backend := autodiff.New(cpu.New())

	pred := newInput(t, []float32{1, 2, 3}, tensor.Shape{3, 1}, backend)
	target := newInput(t, []float32{2, 2, 5}, tensor.Shape{3, 1}, backend)

	loss := nn.NewMSELoss[cpuAutodiff]().Forward(pred, target)
	// ((1)^2 + 0 + (2)^2) / 3
	if got := loss.Item(); !floatEqual(got, 5.0/3.0, 1e-5) {
		t.Errorf("loss = %f, want %f", got, 5.0/3.0)
	}
}

func TestActivations(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := newInput(t, []float32{-2, 0, 2}, tensor.Shape{3}, backend)

	relu := nn.NewReLU[cpuAutodiff]().Forward(x).Data()
	if relu[0] != 0 || relu[1] != 0 || !floatEqual(relu[2], 2, 1e-6) {
		t.Errorf("relu = %v", relu)
	}

	sig := nn.NewSigmoid[cpuAutodiff]().Forward(x).Data()
	if !floatEqual(sig[1], 0.5, 1e-6) {
		t.Errorf("sigmoid(0) = %f", sig[1])
	}
	if !floatEqual(sig[0]+sig[2], 1, 1e-5) {
		t.Errorf("sigmoid symmetry broken: %v", sig)
	}

	tanh := nn.NewTanh[cpuAutodiff]().Forward(x).Data()
	if !floatEqual(tanh[1], 0, 1e-6) || !floatEqual(tanh[0], -tanh[2], 1e-5) {
		t.Errorf("tanh = %v", tanh)
	}
}

func TestXavierRange(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(9))

	w := nn.Xavier(100, 100, tensor.Shape{100, 100}, rng, backend)
	limit := float32(math.Sqrt(6.0 / 200.0))
	for _, v := range w.Data() {
		if v < -limit || v > limit {
			t.Fatalf("xavier value %f outside [-%f, %f]", v, limit, limit)
		}
	}
}

package autodiff_test

import (
	"testing"

	"github.com/AzanPy/rna-seq-factornet/internal/autodiff"
	"github.com/AzanPy/rna-seq-factornet/internal/backend/cpu"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

type cpuAutodiff = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() cpuAutodiff {
	return autodiff.New(cpu.New())
}

// numericalGradient estimates df/dx with central differences, f being a
// full forward recomputation from the flat input values.
func numericalGradient(f func([]float32) float32, x []float32, eps float32) []float32 {
	grad := make([]float32, len(x))
	for i := range x {
		orig := x[i]
		x[i] = orig + eps
		plus := f(x)
		x[i] = orig - eps
		minus := f(x)
		x[i] = orig
		grad[i] = (plus - minus) / (2 * eps)
	}
	return grad
}

func checkClose(t *testing.T, name string, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length mismatch: %d vs %d", name, len(got), len(want))
	}
	for i := range got {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > tol {
			t.Errorf("%s[%d]: analytic %f, numeric %f", name, i, got[i], want[i])
		}
	}
}

func TestMulMeanBackward(t *testing.T) {
	backend := newBackend()
	xVals := []float32{0.5, -1.2, 2.0, 0.3}
	yVals := []float32{1.5, 0.7, -0.4, 2.2}

	x, _ := tensor.FromSlice(append([]float32(nil), xVals...), tensor.Shape{2, 2}, backend)
	y, _ := tensor.FromSlice(append([]float32(nil), yVals...), tensor.Shape{2, 2}, backend)

	backend.Tape().StartRecording()
	loss := x.Mul(y).Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	f := func(vals []float32) float32 {
		var sum float32
		for i, v := range vals {
			sum += v * yVals[i]
		}
		return sum / float32(len(vals))
	}
	numeric := numericalGradient(f, append([]float32(nil), xVals...), 1e-2)
	checkClose(t, "dMul/dx", grads[x.Raw()].AsFloat32(), numeric, 1e-3)
}

func TestMatMulBackward(t *testing.T) {
	backend := newBackend()
	aVals := []float32{1, 2, 3, 4, 5, 6}
	bVals := []float32{0.5, -1, 1.5, 2, -0.5, 1}

	a, _ := tensor.FromSlice(append([]float32(nil), aVals...), tensor.Shape{2, 3}, backend)
	b, _ := tensor.FromSlice(append([]float32(nil), bVals...), tensor.Shape{3, 2}, backend)

	backend.Tape().StartRecording()
	loss := a.MatMul(b).Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	f := func(vals []float32) float32 {
		plain := cpu.New()
		at, _ := tensor.FromSlice(append([]float32(nil), vals...), tensor.Shape{2, 3}, plain)
		bt, _ := tensor.FromSlice(append([]float32(nil), bVals...), tensor.Shape{3, 2}, plain)
		return at.MatMul(bt).Mean().Item()
	}
	numeric := numericalGradient(f, append([]float32(nil), aVals...), 1e-2)
	checkClose(t, "dMatMul/dA", grads[a.Raw()].AsFloat32(), numeric, 1e-2)
}

func TestSigmoidBackward(t *testing.T) {
	backend := newBackend()
	xVals := []float32{-2, -0.5, 0, 0.5, 2, 4}

	x, _ := tensor.FromSlice(append([]float32(nil), xVals...), tensor.Shape{6}, backend)

	backend.Tape().StartRecording()
	raw := backend.Sigmoid(x.Raw())
	out, _ := tensor.New[float32](raw, backend)
	loss := out.Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	f := func(vals []float32) float32 {
		plain := cpu.New()
		xt, _ := tensor.FromSlice(append([]float32(nil), vals...), tensor.Shape{6}, plain)
		st := autodiff.New(plain).Sigmoid(xt.Raw())
		var sum float32
		for _, v := range st.AsFloat32() {
			sum += v
		}
		return sum / 6
	}
	numeric := numericalGradient(f, append([]float32(nil), xVals...), 1e-2)
	checkClose(t, "dSigmoid/dx", grads[x.Raw()].AsFloat32(), numeric, 1e-3)
}

func TestConv1DBackward(t *testing.T) {
	backend := newBackend()
	inVals := []float32{0.5, -1, 2, 1.5, -0.5}
	kVals := []float32{1, -0.5, 0.25}

	input, _ := tensor.FromSlice(append([]float32(nil), inVals...), tensor.Shape{1, 1, 5}, backend)
	kernel, _ := tensor.FromSlice(append([]float32(nil), kVals...), tensor.Shape{1, 1, 3}, backend)

	backend.Tape().StartRecording()
	raw := backend.Conv1D(input.Raw(), kernel.Raw(), 1, 1)
	out, _ := tensor.New[float32](raw, backend)
	loss := out.Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	forward := func(in, k []float32) float32 {
		plain := cpu.New()
		it, _ := tensor.FromSlice(append([]float32(nil), in...), tensor.Shape{1, 1, 5}, plain)
		kt, _ := tensor.FromSlice(append([]float32(nil), k...), tensor.Shape{1, 1, 3}, plain)
		ot := plain.Conv1D(it.Raw(), kt.Raw(), 1, 1)
		var sum float32
		for _, v := range ot.AsFloat32() {
			sum += v
		}
		return sum / float32(ot.NumElements())
	}

	numericIn := numericalGradient(func(vals []float32) float32 {
		return forward(vals, kVals)
	}, append([]float32(nil), inVals...), 1e-2)
	checkClose(t, "dConv1D/dInput", grads[input.Raw()].AsFloat32(), numericIn, 1e-3)

	numericK := numericalGradient(func(vals []float32) float32 {
		return forward(inVals, vals)
	}, append([]float32(nil), kVals...), 1e-2)
	checkClose(t, "dConv1D/dKernel", grads[kernel.Raw()].AsFloat32(), numericK, 1e-3)
}

func TestChunkBackward(t *testing.T) {
	backend := newBackend()
	xVals := []float32{1, 2, 3, 4, 5, 6}

	x, _ := tensor.FromSlice(append([]float32(nil), xVals...), tensor.Shape{2, 3}, backend)
	w, _ := tensor.FromSlice([]float32{2, 2}, tensor.Shape{2, 1}, backend)

	backend.Tape().StartRecording()
	chunks := x.Chunk(3, 1)
	// Only the middle chunk reaches the loss; the rest must still get
	// a (zero) gradient slot so Cat lines up.
	loss := chunks[1].Mul(w).Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	got := grads[x.Raw()].AsFloat32()
	want := []float32{0, 1, 0, 0, 1, 0}
	checkClose(t, "dChunk/dx", got, want, 1e-5)
}

func TestBroadcastAddBackward(t *testing.T) {
	backend := newBackend()

	x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	bias, _ := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{1, 3}, backend)

	backend.Tape().StartRecording()
	loss := x.Add(bias).Mean()
	grads := autodiff.Backward(loss)
	backend.Tape().StopRecording()

	// Each bias element feeds two outputs of six.
	checkClose(t, "dAdd/dbias", grads[bias.Raw()].AsFloat32(), []float32{2.0 / 6, 2.0 / 6, 2.0 / 6}, 1e-6)
}

func TestTapeClearAndRecordingState(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()

	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	y, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)

	x.Mul(y)
	if tape.NumOps() != 0 {
		t.Fatalf("recorded %d ops while not recording", tape.NumOps())
	}

	tape.StartRecording()
	x.Mul(y)
	if tape.NumOps() != 1 {
		t.Fatalf("expected 1 op, got %d", tape.NumOps())
	}
	tape.Clear()
	if tape.NumOps() != 0 {
		t.Fatalf("clear left %d ops", tape.NumOps())
	}
	if !tape.IsRecording() {
		t.Fatal("clear should not stop recording")
	}
}

package nn

import (
	"fmt"
	"math/rand"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// LSTM is a single-layer long short-term memory recurrence. The input
// is [batch, seq, inSize]; the output is the last hidden state
// [batch, units]. All gate math runs through backend ops, so gradients
// reach both the parameters and the input sequence.
type LSTM[B tensor.Backend] struct {
	inSize  int
	units   int
	backend B

	// Gate weights: w* [inSize, units], u* [units, units], b* [units].
	wf, uf, bf *Parameter[B]
	wi, ui, bi *Parameter[B]
	wc, uc, bc *Parameter[B]
	wo, uo, bo *Parameter[B]
}

// NewLSTM creates an LSTM layer. The forget gate bias starts at 1.0 to
// keep early memory open.
func NewLSTM[B tensor.Backend](inSize, units int, rng *rand.Rand, backend B) *LSTM[B] {
	l := &LSTM[B]{inSize: inSize, units: units, backend: backend}

	gate := func(wName, uName, bName string) (*Parameter[B], *Parameter[B], *Parameter[B]) {
		w := Xavier(inSize, units, tensor.Shape{inSize, units}, rng, backend)
		u := Xavier(units, units, tensor.Shape{units, units}, rng, backend)
		b := Zeros(tensor.Shape{units}, backend)
		return NewParameter(wName, w), NewParameter(uName, u), NewParameter(bName, b)
	}

	l.wf, l.uf, l.bf = gate("w_f", "u_f", "b_f")
	l.wi, l.ui, l.bi = gate("w_i", "u_i", "b_i")
	l.wc, l.uc, l.bc = gate("w_c", "u_c", "b_c")
	l.wo, l.uo, l.bo = gate("w_o", "u_o", "b_o")

	forgetBias := l.bf.Tensor().Data()
	for i := range forgetBias {
		forgetBias[i] = 1.0
	}
	return l
}

// Forward unrolls the recurrence over the sequence dimension and
// returns the final hidden state [batch, units].
func (l *LSTM[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("LSTM.Forward: expected 3-D input [batch, seq, features], got %v", shape))
	}
	if shape[2] != l.inSize {
		panic(fmt.Sprintf("LSTM.Forward: expected %d input features, got %d", l.inSize, shape[2]))
	}
	batch, seq := shape[0], shape[1]

	h := tensor.Zeros[float32](tensor.Shape{batch, l.units}, l.backend)
	c := tensor.Zeros[float32](tensor.Shape{batch, l.units}, l.backend)

	steps := input.Chunk(seq, 1)
	for _, step := range steps {
		x := step.Reshape(tensor.Shape{batch, l.inSize})

		f := applySigmoid(l.gate(x, h, l.wf, l.uf, l.bf))
		i := applySigmoid(l.gate(x, h, l.wi, l.ui, l.bi))
		g := applyTanh(l.gate(x, h, l.wc, l.uc, l.bc))
		o := applySigmoid(l.gate(x, h, l.wo, l.uo, l.bo))

		c = f.Mul(c).Add(i.Mul(g))
		h = o.Mul(applyTanh(c))
	}
	return h
}

// gate computes x @ w + h @ u + b.
func (l *LSTM[B]) gate(x, h *tensor.Tensor[float32, B], w, u, b *Parameter[B]) *tensor.Tensor[float32, B] {
	pre := x.MatMul(w.Tensor()).Add(h.MatMul(u.Tensor()))
	bias := b.Tensor().Reshape(tensor.Shape{1, l.units})
	return pre.Add(bias)
}

// Parameters returns all twelve gate parameters.
func (l *LSTM[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{
		l.wf, l.uf, l.bf,
		l.wi, l.ui, l.bi,
		l.wc, l.uc, l.bc,
		l.wo, l.uo, l.bo,
	}
}

// Units returns the hidden state size.
func (l *LSTM[B]) Units() int { return l.units }

// StateDict exports parameters by name.
func (l *LSTM[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor, 12)
	for _, p := range l.Parameters() {
		state[p.Name()] = p.Tensor().Raw()
	}
	return state
}

// LoadStateDict copies parameter data from a state dictionary.
func (l *LSTM[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for _, p := range l.Parameters() {
		if err := loadParam(p, state, p.Name()); err != nil {
			return err
		}
	}
	return nil
}

package serialization_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzanPy/rna-seq-factornet/internal/serialization"
	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

func rawFromFloats(t *testing.T, vals []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), vals)
	return raw
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fnet")

	state := map[string]*tensor.RawTensor{
		"dense.weight": rawFromFloats(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"dense.bias":   rawFromFloats(t, []float32{0.5, -0.5}, tensor.Shape{2}),
	}
	metadata := map[string]string{"n_features": "20"}

	require.NoError(t, serialization.Save(path, "factornet", state, metadata))

	header, tensors, err := serialization.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "factornet", header.ModelType)
	assert.Equal(t, serialization.FormatVersion, header.FormatVersion)
	assert.Equal(t, "20", header.Metadata["n_features"])
	require.Len(t, tensors, 2)

	weight := tensors["dense.weight"]
	require.NotNil(t, weight)
	assert.Equal(t, tensor.Shape{2, 3}, weight.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, weight.AsFloat32())

	bias := tensors["dense.bias"]
	require.NotNil(t, bias)
	assert.Equal(t, []float32{0.5, -0.5}, bias.AsFloat32())
}

func TestTensorsSortedByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fnet")

	state := map[string]*tensor.RawTensor{
		"zzz": rawFromFloats(t, []float32{1}, tensor.Shape{1}),
		"aaa": rawFromFloats(t, []float32{2}, tensor.Shape{1}),
	}
	require.NoError(t, serialization.Save(path, "factornet", state, nil))

	header, _, err := serialization.Load(path)
	require.NoError(t, err)
	require.Len(t, header.Tensors, 2)
	assert.Equal(t, "aaa", header.Tensors[0].Name)
	assert.Equal(t, "zzz", header.Tensors[1].Name)
	assert.Equal(t, int64(0), header.Tensors[0].Offset)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.fnet")
	require.NoError(t, os.WriteFile(path, []byte("NOPE this is not a checkpoint, far too short anyway"), 0o644))

	_, _, err := serialization.Load(path)
	assert.ErrorIs(t, err, serialization.ErrBadMagic)
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.fnet")
	require.NoError(t, os.WriteFile(path, []byte("FNET"), 0o644))

	_, _, err := serialization.Load(path)
	assert.ErrorIs(t, err, serialization.ErrBadMagic)
}

func TestLoadDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fnet")

	state := map[string]*tensor.RawTensor{
		"w": rawFromFloats(t, []float32{1, 2, 3, 4}, tensor.Shape{4}),
	}
	require.NoError(t, serialization.Save(path, "factornet", state, nil))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte in the tensor data region.
	buf[len(buf)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, _, err = serialization.Load(path)
	assert.ErrorIs(t, err, serialization.ErrChecksumMismatch)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fnet")

	state := map[string]*tensor.RawTensor{
		"w": rawFromFloats(t, []float32{1}, tensor.Shape{1}),
	}
	require.NoError(t, serialization.Save(path, "factornet", state, nil))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	buf[4] = 99
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	_, _, err = serialization.Load(path)
	assert.ErrorIs(t, err, serialization.ErrUnsupportedVersion)
}

func TestDataStartsAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.fnet")

	state := map[string]*tensor.RawTensor{
		"w": rawFromFloats(t, []float32{1}, tensor.Shape{1}),
	}
	require.NoError(t, serialization.Save(path, "factornet", state, map[string]string{"k": "v"}))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	headerLen := int(uint32(buf[8]) | uint32(buf[9])<<8 | uint32(buf[10])<<16 | uint32(buf[11])<<24)
	assert.Zero(t, (serialization.FixedHeaderSize+headerLen)%serialization.DataAlignment)
}

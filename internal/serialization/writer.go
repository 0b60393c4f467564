package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Save writes a checkpoint file holding the given named tensors.
// Tensors are laid out in sorted name order for deterministic output.
func Save(path, modelType string, state map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	var offset int64
	for _, name := range names {
		t := state[name]
		size := int64(t.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(t.DType()),
			Shape:  append([]int(nil), t.Shape()...),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}

	// Pad the header so tensor data starts 64-byte aligned.
	dataStart := FixedHeaderSize + len(headerJSON)
	if rem := dataStart % DataAlignment; rem != 0 {
		headerJSON = append(headerJSON, make([]byte, DataAlignment-rem)...)
	}

	buf := make([]byte, FixedHeaderSize, FixedHeaderSize+len(headerJSON)+int(offset))
	copy(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(headerJSON)))

	buf = append(buf, headerJSON...)
	for _, name := range names {
		t := state[name]
		buf = append(buf, t.Data()[:t.ByteSize()]...)
	}

	sum := sha256.Sum256(buf[FixedHeaderSize:])
	copy(buf[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	return os.WriteFile(path, buf, 0o644)
}

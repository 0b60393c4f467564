package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

// Load reads a checkpoint file, validates its checksum and returns the
// header and the contained tensors.
func Load(path string) (*Header, map[string]*tensor.RawTensor, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(buf) < FixedHeaderSize || string(buf[0:4]) != MagicBytes {
		return nil, nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != FormatVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	headerLen := int(binary.LittleEndian.Uint32(buf[8:12]))
	if FixedHeaderSize+headerLen > len(buf) {
		return nil, nil, fmt.Errorf("%w: header length %d exceeds file size", ErrCorruptHeader, headerLen)
	}

	sum := sha256.Sum256(buf[FixedHeaderSize:])
	if !bytes.Equal(sum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize]) {
		return nil, nil, ErrChecksumMismatch
	}

	headerJSON := bytes.TrimRight(buf[FixedHeaderSize:FixedHeaderSize+headerLen], "\x00")
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCorruptHeader, err)
	}

	data := buf[FixedHeaderSize+headerLen:]
	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown dtype %q", ErrCorruptHeader, meta.DType)
		}
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, nil, fmt.Errorf("%w: tensor %q out of bounds", ErrCorruptHeader, meta.Name)
		}

		raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, tensor.CPU)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: tensor %q: %v", ErrCorruptHeader, meta.Name, err)
		}
		if int64(raw.ByteSize()) != meta.Size {
			return nil, nil, fmt.Errorf("%w: tensor %q size %d does not match shape %v",
				ErrCorruptHeader, meta.Name, meta.Size, meta.Shape)
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		tensors[meta.Name] = raw
	}
	return &header, tensors, nil
}

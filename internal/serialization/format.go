// Package serialization implements the native .fnet checkpoint format.
//
// Layout:
//
//	[0x00] magic "FNET" (4 bytes)
//	[0x04] format version, uint32 little-endian
//	[0x08] JSON header length, uint32 little-endian
//	[0x0C] reserved, uint32
//	[0x10] SHA-256 checksum of header + data section (32 bytes)
//	[0x30] JSON header, padded with zeros to 64-byte alignment
//	[....] tensor data, concatenated in header order
package serialization

import (
	"time"

	"github.com/AzanPy/rna-seq-factornet/internal/tensor"
)

const (
	MagicBytes      = "FNET"
	FormatVersion   = 1
	FixedHeaderSize = 0x30
	DataAlignment   = 64
	ChecksumOffset  = 0x10
	ChecksumSize    = 32
)

// Header is the JSON metadata block of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// TensorMeta locates one tensor inside the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"`
	Size   int64  `json:"size"`
}

func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case "float32":
		return tensor.Float32, true
	case "float64":
		return tensor.Float64, true
	case "int32":
		return tensor.Int32, true
	case "bool":
		return tensor.Bool, true
	default:
		return 0, false
	}
}

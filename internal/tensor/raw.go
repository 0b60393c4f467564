package tensor

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Device identifies the compute device a tensor lives on. Only the CPU
// is implemented; the enum exists so backends stay pluggable.
type Device int

const (
	CPU Device = iota
)

func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// buffer is a reference-counted byte buffer shared between tensor views.
// A refcount of 1 allows backends to reuse the buffer in place.
type buffer struct {
	data     []byte
	refCount atomic.Int32
}

func newBuffer(size int) *buffer {
	b := &buffer{data: make([]byte, size)}
	b.refCount.Store(1)
	return b
}

func (b *buffer) retain() { b.refCount.Add(1) }

func (b *buffer) release() {
	if b.refCount.Add(-1) == 0 {
		b.data = nil
	}
}

// RawTensor is the untyped tensor representation backends operate on.
type RawTensor struct {
	buf    *buffer
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zeroed RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		buf:    newBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

func (r *RawTensor) Shape() Shape      { return r.shape }
func (r *RawTensor) Strides() []int    { return r.stride }
func (r *RawTensor) DType() DataType   { return r.dtype }
func (r *RawTensor) Device() Device    { return r.device }
func (r *RawTensor) NumElements() int  { return r.shape.NumElements() }
func (r *RawTensor) ByteSize() int     { return r.NumElements() * r.dtype.Size() }

// Data exposes the raw bytes. Callers must not resize the slice.
func (r *RawTensor) Data() []byte { return r.buf.data }

// AsFloat32 reinterprets the buffer as []float32.
// Panics when the dtype does not match.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// AsFloat64 reinterprets the buffer as []float64.
// Panics when the dtype does not match.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// AsInt32 reinterprets the buffer as []int32.
// Panics when the dtype does not match.
func (r *RawTensor) AsInt32() []int32 {
	if r.dtype != Int32 {
		panic(fmt.Sprintf("tensor dtype is %s, not int32", r.dtype))
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// AsBool reinterprets the buffer as []bool.
// Panics when the dtype does not match.
func (r *RawTensor) AsBool() []bool {
	if r.dtype != Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not bool", r.dtype))
	}
	return unsafe.Slice((*bool)(unsafe.Pointer(&r.buf.data[0])), r.NumElements())
}

// Clone creates a view sharing the reference-counted buffer.
// The data is only duplicated when a backend needs to write while the
// buffer is shared.
func (r *RawTensor) Clone() *RawTensor {
	r.buf.retain()
	return &RawTensor{
		buf:    r.buf,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// Release drops this reference to the buffer.
func (r *RawTensor) Release() { r.buf.release() }

// IsUnique reports whether this tensor holds the only buffer reference,
// enabling in-place backend fast paths.
func (r *RawTensor) IsUnique() bool { return r.buf.refCount.Load() == 1 }

// ForceNonUnique pins the buffer so backends cannot modify it in place.
// The returned function undoes the pin and must be deferred. The gradient
// tape relies on this: in-place writes would corrupt recorded inputs.
func (r *RawTensor) ForceNonUnique() func() {
	r.buf.retain()
	return r.buf.release
}

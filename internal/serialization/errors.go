package serialization

import "errors"

var (
	// ErrBadMagic means the file does not start with the FNET magic.
	ErrBadMagic = errors.New("serialization: not a .fnet file")

	// ErrUnsupportedVersion means the format version is unknown.
	ErrUnsupportedVersion = errors.New("serialization: unsupported format version")

	// ErrChecksumMismatch means the file content does not match its
	// stored checksum.
	ErrChecksumMismatch = errors.New("serialization: checksum mismatch")

	// ErrCorruptHeader means the JSON header cannot be decoded or its
	// tensor metadata is inconsistent.
	ErrCorruptHeader = errors.New("serialization: corrupt header")
)

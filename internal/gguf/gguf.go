// Package gguf parses the GGUF container format far enough to serve as the
// tokenizer's metadata store.
//
// GGUF (GGML Universal Format) is the file format used by llama.cpp and its
// descendants for packaging models. A file starts with a header, followed by
// typed key-value metadata, tensor descriptors, and the aligned tensor data
// section. This package reads the header, the metadata, and the tensor
// descriptors; tensor payloads are never loaded, since the tokenizer only
// needs key-value lookups (token arrays, scores, merges, special ids).
//
// Specification: https://github.com/ggerganov/ggml/blob/master/docs/gguf.md
package gguf

import (
	"errors"
	"fmt"
	"strings"
)

// Magic bytes for GGUF files.
const (
	MagicLE uint32 = 0x46554747 // "GGUF" little-endian.
	MagicBE uint32 = 0x47475546 // "GGUF" big-endian (byte-swapped writer).
)

// Supported format versions.
const (
	Version1 uint32 = 1
	Version2 uint32 = 2
	Version3 uint32 = 3
)

// DefaultAlignment is the tensor data alignment unless overridden by the
// general.alignment key.
const DefaultAlignment = 32

// ErrBadMagic is returned when the input does not start with the GGUF magic.
var ErrBadMagic = errors.New("gguf: bad magic")

// ValueType identifies the wire type of a metadata value.
type ValueType uint32

// Metadata value types as defined by the GGUF specification.
const (
	ValueTypeUint8   ValueType = 0
	ValueTypeInt8    ValueType = 1
	ValueTypeUint16  ValueType = 2
	ValueTypeInt16   ValueType = 3
	ValueTypeUint32  ValueType = 4
	ValueTypeInt32   ValueType = 5
	ValueTypeFloat32 ValueType = 6
	ValueTypeBool    ValueType = 7
	ValueTypeString  ValueType = 8
	ValueTypeArray   ValueType = 9
	ValueTypeUint64  ValueType = 10
	ValueTypeInt64   ValueType = 11
	ValueTypeFloat64 ValueType = 12
)

var valueTypeNames = map[ValueType]string{
	ValueTypeUint8:   "uint8",
	ValueTypeInt8:    "int8",
	ValueTypeUint16:  "uint16",
	ValueTypeInt16:   "int16",
	ValueTypeUint32:  "uint32",
	ValueTypeInt32:   "int32",
	ValueTypeFloat32: "float32",
	ValueTypeBool:    "bool",
	ValueTypeString:  "string",
	ValueTypeArray:   "array",
	ValueTypeUint64:  "uint64",
	ValueTypeInt64:   "int64",
	ValueTypeFloat64: "float64",
}

// String returns the specification name of the value type.
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// TensorType is the GGML element type of a tensor, kept as an opaque id plus
// a name for inspection output. Payload decoding is out of scope here.
type TensorType uint32

var tensorTypeNames = map[TensorType]string{
	0: "F32", 1: "F16", 2: "Q4_0", 3: "Q4_1", 6: "Q5_0", 7: "Q5_1",
	8: "Q8_0", 9: "Q8_1", 10: "Q2_K", 11: "Q3_K", 12: "Q4_K", 13: "Q5_K",
	14: "Q6_K", 15: "Q8_K", 24: "I8", 25: "I16", 26: "I32", 27: "I64",
	28: "F64", 29: "BF16",
}

// String returns the GGML name of the tensor type.
func (t TensorType) String() string {
	if name, ok := tensorTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint32(t))
}

// Header is the fixed-size GGUF file header.
type Header struct {
	Magic           uint32
	Version         uint32
	TensorCount     uint64
	MetadataKVCount uint64
}

// TensorInfo describes one tensor without its payload.
type TensorInfo struct {
	Name       string
	Dimensions []uint64
	Type       TensorType
	Offset     uint64 // Relative to the start of the tensor data section.
}

// File is a parsed GGUF container. It is immutable after Parse returns and
// safe for concurrent readers.
type File struct {
	Header    Header
	Metadata  map[string]any
	Tensors   []TensorInfo
	Alignment int

	// TensorDataOffset is the absolute file offset of the data section.
	TensorDataOffset int64

	// FilePath is set by ParseFile, empty otherwise.
	FilePath string
}

// Has reports whether the metadata contains the key.
func (f *File) Has(key string) bool {
	_, ok := f.Metadata[key]
	return ok
}

// String returns the value of a string-typed key.
func (f *File) String(key string) (string, bool) {
	s, ok := f.Metadata[key].(string)
	return s, ok
}

// StringArray returns the value of a string-array key.
func (f *File) StringArray(key string) ([]string, bool) {
	a, ok := f.Metadata[key].([]string)
	return a, ok
}

// Float32Array returns the value of a float32-array key.
func (f *File) Float32Array(key string) ([]float32, bool) {
	a, ok := f.Metadata[key].([]float32)
	return a, ok
}

// Int returns the value of an integer key. Only uint32 and int32 values are
// accepted; any other type reports false, matching the reader behavior of the
// llama.cpp tokenizer key family.
func (f *File) Int(key string) (int32, bool) {
	switch v := f.Metadata[key].(type) {
	case uint32:
		return int32(v), true
	case int32:
		return v, true
	default:
		return 0, false
	}
}

// Uint32 returns the value of a uint32-typed key.
func (f *File) Uint32(key string) (uint32, bool) {
	v, ok := f.Metadata[key].(uint32)
	return v, ok
}

// Summary renders a short human-readable description of the container for
// inspection tooling.
func (f *File) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "gguf v%d: %d metadata keys, %d tensors\n",
		f.Header.Version, f.Header.MetadataKVCount, f.Header.TensorCount)
	if arch, ok := f.String("general.architecture"); ok {
		fmt.Fprintf(&sb, "architecture: %s\n", arch)
	}
	if model, ok := f.String("tokenizer.ggml.model"); ok {
		fmt.Fprintf(&sb, "tokenizer model: %s\n", model)
	}
	if tokens, ok := f.StringArray("tokenizer.ggml.tokens"); ok {
		fmt.Fprintf(&sb, "vocabulary size: %d\n", len(tokens))
	}
	if merges, ok := f.StringArray("tokenizer.ggml.merges"); ok {
		fmt.Fprintf(&sb, "merge rules: %d\n", len(merges))
	}
	return sb.String()
}

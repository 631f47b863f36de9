package gguf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// maxArrayLen bounds metadata array sizes so a corrupt length field cannot
// drive allocation.
const maxArrayLen = 100_000_000

// maxStringLen bounds metadata string sizes.
const maxStringLen = 1 << 30

// Parse reads a GGUF container from r, stopping at the tensor data section.
func Parse(r io.ReadSeeker) (*File, error) {
	p := &parser{r: r, order: binary.LittleEndian}
	return p.parse()
}

// ParseFile parses a GGUF container from disk.
//
//nolint:gosec // G304: path comes from the caller, not untrusted input.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() {
		_ = f.Close() // Read-only file.
	}()

	file, err := Parse(f)
	if err != nil {
		return nil, err
	}
	file.FilePath = path

	return file, nil
}

type parser struct {
	r     io.ReadSeeker
	order binary.ByteOrder
}

func (p *parser) parse() (*File, error) {
	file := &File{
		Metadata:  make(map[string]any),
		Alignment: DefaultAlignment,
	}

	if err := p.parseHeader(&file.Header); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	for i := uint64(0); i < file.Header.MetadataKVCount; i++ {
		key, value, err := p.parseMetadataKV()
		if err != nil {
			return nil, fmt.Errorf("parse metadata kv %d: %w", i, err)
		}
		file.Metadata[key] = value

		if key == "general.alignment" {
			if align, ok := value.(uint32); ok && align > 0 {
				file.Alignment = int(align)
			}
		}
	}

	file.Tensors = make([]TensorInfo, file.Header.TensorCount)
	for i := range file.Tensors {
		if err := p.parseTensorInfo(&file.Tensors[i]); err != nil {
			return nil, fmt.Errorf("parse tensor info %d: %w", i, err)
		}
	}

	pos, err := p.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}
	file.TensorDataOffset = alignOffset(pos, file.Alignment)

	return file, nil
}

func (p *parser) parseHeader(h *Header) error {
	if err := binary.Read(p.r, p.order, &h.Magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}

	switch h.Magic {
	case MagicLE:
		p.order = binary.LittleEndian
	case MagicBE:
		p.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: 0x%08X", ErrBadMagic, h.Magic)
	}

	if err := binary.Read(p.r, p.order, &h.Version); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if h.Version < Version1 || h.Version > Version3 {
		return fmt.Errorf("unsupported version: %d", h.Version)
	}

	if err := binary.Read(p.r, p.order, &h.TensorCount); err != nil {
		return fmt.Errorf("read tensor count: %w", err)
	}
	if err := binary.Read(p.r, p.order, &h.MetadataKVCount); err != nil {
		return fmt.Errorf("read metadata kv count: %w", err)
	}

	return nil
}

func (p *parser) parseMetadataKV() (string, any, error) {
	key, err := p.readString()
	if err != nil {
		return "", nil, fmt.Errorf("read key: %w", err)
	}

	var vt uint32
	if err := binary.Read(p.r, p.order, &vt); err != nil {
		return "", nil, fmt.Errorf("read value type: %w", err)
	}

	value, err := p.parseValue(ValueType(vt))
	if err != nil {
		return "", nil, fmt.Errorf("read value for %q: %w", key, err)
	}

	return key, value, nil
}

func (p *parser) parseValue(t ValueType) (any, error) {
	switch t {
	case ValueTypeUint8:
		return readScalar[uint8](p)
	case ValueTypeInt8:
		return readScalar[int8](p)
	case ValueTypeUint16:
		return readScalar[uint16](p)
	case ValueTypeInt16:
		return readScalar[int16](p)
	case ValueTypeUint32:
		return readScalar[uint32](p)
	case ValueTypeInt32:
		return readScalar[int32](p)
	case ValueTypeFloat32:
		return readScalar[float32](p)
	case ValueTypeUint64:
		return readScalar[uint64](p)
	case ValueTypeInt64:
		return readScalar[int64](p)
	case ValueTypeFloat64:
		return readScalar[float64](p)
	case ValueTypeBool:
		v, err := readScalar[uint8](p)
		return v != 0, err
	case ValueTypeString:
		return p.readString()
	case ValueTypeArray:
		return p.parseArray()
	default:
		return nil, fmt.Errorf("unknown value type: %d", t)
	}
}

func (p *parser) parseArray() (any, error) {
	var elemType uint32
	if err := binary.Read(p.r, p.order, &elemType); err != nil {
		return nil, fmt.Errorf("read array element type: %w", err)
	}

	var length uint64
	if err := binary.Read(p.r, p.order, &length); err != nil {
		return nil, fmt.Errorf("read array length: %w", err)
	}
	if length > maxArrayLen {
		return nil, fmt.Errorf("array too large: %d elements", length)
	}

	switch ValueType(elemType) {
	case ValueTypeUint8:
		return readSlice[uint8](p, length)
	case ValueTypeInt8:
		return readSlice[int8](p, length)
	case ValueTypeUint16:
		return readSlice[uint16](p, length)
	case ValueTypeInt16:
		return readSlice[int16](p, length)
	case ValueTypeUint32:
		return readSlice[uint32](p, length)
	case ValueTypeInt32:
		return readSlice[int32](p, length)
	case ValueTypeFloat32:
		return readSlice[float32](p, length)
	case ValueTypeUint64:
		return readSlice[uint64](p, length)
	case ValueTypeInt64:
		return readSlice[int64](p, length)
	case ValueTypeFloat64:
		return readSlice[float64](p, length)
	case ValueTypeBool:
		raw, err := readSlice[uint8](p, length)
		if err != nil {
			return nil, err
		}
		arr := make([]bool, len(raw))
		for i, v := range raw {
			arr[i] = v != 0
		}
		return arr, nil
	case ValueTypeString:
		arr := make([]string, length)
		for i := range arr {
			s, err := p.readString()
			if err != nil {
				return nil, fmt.Errorf("read array string %d: %w", i, err)
			}
			arr[i] = s
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unsupported array element type: %d", elemType)
	}
}

func (p *parser) parseTensorInfo(t *TensorInfo) error {
	name, err := p.readString()
	if err != nil {
		return fmt.Errorf("read tensor name: %w", err)
	}
	t.Name = name

	var ndims uint32
	if err := binary.Read(p.r, p.order, &ndims); err != nil {
		return fmt.Errorf("read ndims: %w", err)
	}
	if ndims > 8 {
		return fmt.Errorf("too many dimensions: %d", ndims)
	}

	t.Dimensions = make([]uint64, ndims)
	for i := range t.Dimensions {
		if err := binary.Read(p.r, p.order, &t.Dimensions[i]); err != nil {
			return fmt.Errorf("read dimension %d: %w", i, err)
		}
	}

	var tensorType uint32
	if err := binary.Read(p.r, p.order, &tensorType); err != nil {
		return fmt.Errorf("read type: %w", err)
	}
	t.Type = TensorType(tensorType)

	if err := binary.Read(p.r, p.order, &t.Offset); err != nil {
		return fmt.Errorf("read offset: %w", err)
	}

	return nil
}

func (p *parser) readString() (string, error) {
	var length uint64
	if err := binary.Read(p.r, p.order, &length); err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("string too large: %d bytes", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

func readScalar[T any](p *parser) (T, error) {
	var v T
	err := binary.Read(p.r, p.order, &v)
	return v, err
}

func readSlice[T any](p *parser, length uint64) ([]T, error) {
	arr := make([]T, length)
	if length == 0 {
		return arr, nil
	}
	if err := binary.Read(p.r, p.order, arr); err != nil {
		return nil, err
	}
	return arr, nil
}

func alignOffset(offset int64, alignment int) int64 {
	a := int64(alignment)
	return offset + (a-offset%a)%a
}

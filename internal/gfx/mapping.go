package gfx

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Mapping is the CPU-visible storage of a persistently mapped buffer.
// Backends embed it to implement Buffer.Update.
type Mapping struct {
	size  int
	data  []byte
	block any
}

// NewMapping allocates size bytes of mapped storage.
func NewMapping(size int) *Mapping {
	return &Mapping{size: size, data: make([]byte, size)}
}

// Write encodes a fixed-layout block (packed, little endian) into the mapping.
func (m *Mapping) Write(block any) error {
	n := binary.Size(block)
	if n < 0 {
		return fmt.Errorf("gfx: %T is not a fixed-layout block", block)
	}
	if n > m.size {
		return fmt.Errorf("gfx: block of %d bytes exceeds buffer size %d", n, m.size)
	}

	var b bytes.Buffer
	b.Grow(n)
	if err := binary.Write(&b, binary.LittleEndian, block); err != nil {
		return fmt.Errorf("gfx: failed to encode block: %w", err)
	}
	copy(m.data, b.Bytes())
	m.block = block
	return nil
}

// Bytes returns the mapped bytes.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Block returns the last block written, or nil.
func (m *Mapping) Block() any {
	return m.block
}

// SizeOf returns the packed size of a uniform block, or panics for variable-size types.
func SizeOf(block any) int {
	n := binary.Size(block)
	if n < 0 {
		panic(fmt.Sprintf("gfx: %T is not a fixed-layout block", block))
	}
	return n
}

// WriteUniform writes a uniform block into a persistently mapped buffer.
func WriteUniform(buf Buffer, block any) error {
	if buf == nil {
		return fmt.Errorf("gfx: write to nil buffer: %w", ErrUnknownHandle)
	}
	return buf.Update(block)
}

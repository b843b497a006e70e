package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrUnknownUniform is returned when a setter names a field the block does not declare.
	ErrUnknownUniform = errors.New("unknown uniform")

	// ErrUniformType is returned when a setter's value type does not match the declared field type.
	ErrUniformType = errors.New("uniform type mismatch")
)

// UniformType is the WGSL type of a uniform block field.
type UniformType int

const (
	// UniformFloat is a WGSL f32.
	UniformFloat UniformType = iota
	// UniformInt is a WGSL i32.
	UniformInt
	// UniformVec3 is a WGSL vec3<f32>.
	UniformVec3
	// UniformVec4 is a WGSL vec4<f32>.
	UniformVec4
	// UniformMat4 is a WGSL mat4x4<f32>.
	UniformMat4
)

func (t UniformType) String() string {
	switch t {
	case UniformFloat:
		return "f32"
	case UniformInt:
		return "i32"
	case UniformVec3:
		return "vec3<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformMat4:
		return "mat4x4<f32>"
	}
	return "unknown"
}

// alignment and size follow the WGSL uniform address space layout rules.
func (t UniformType) alignment() uint64 {
	switch t {
	case UniformVec3, UniformVec4, UniformMat4:
		return 16
	}
	return 4
}

func (t UniformType) size() uint64 {
	switch t {
	case UniformVec3:
		return 12
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	}
	return 4
}

// UniformField declares one member of a uniform block, in WGSL struct order.
type UniformField struct {
	Name string
	Type UniformType
}

type uniformSlot struct {
	offset uint64
	kind   UniformType
}

// uniformBlock is the implementation of the UniformBlock interface.
type uniformBlock struct {
	mu *sync.Mutex

	fields []UniformField
	slots  map[string]uniformSlot
	data   []byte
	dirty  bool
}

// UniformBlock is the CPU staging copy of a WGSL uniform struct.
// Setters write values at the offsets WGSL assigns to the declared fields; the renderer uploads Bytes()
// whenever the block is dirty.
type UniformBlock interface {
	// Size returns the struct size in bytes, rounded up to a multiple of 16.
	Size() uint64

	// Fields returns the declared fields in order.
	Fields() []UniformField

	// Offset returns the byte offset of a field.
	//
	// Parameters:
	//   - name: the field name
	//
	// Returns:
	//   - uint64: the byte offset of the field
	//   - bool: false if the field is not declared
	Offset(name string) (uint64, bool)

	// Bytes returns a copy of the staged struct bytes.
	Bytes() []byte

	// Dirty reports whether a setter changed the staged bytes since the last ClearDirty.
	Dirty() bool

	// ClearDirty marks the staged bytes as uploaded.
	ClearDirty()

	// SetFloat writes an f32 field.
	SetFloat(name string, v float32) error

	// SetInt writes an i32 field.
	SetInt(name string, v int32) error

	// SetVec3 writes a vec3<f32> field.
	SetVec3(name string, v mgl32.Vec3) error

	// SetVec4 writes a vec4<f32> field.
	SetVec4(name string, v mgl32.Vec4) error

	// SetMat4 writes a column-major mat4x4<f32> field.
	SetMat4(name string, v mgl32.Mat4) error
}

var _ UniformBlock = &uniformBlock{}

// NewUniformBlock lays out the given fields with WGSL uniform alignment rules.
//
// Parameters:
//   - fields: the struct members in declaration order
//
// Returns:
//   - UniformBlock: the zero-initialised staging block
func NewUniformBlock(fields ...UniformField) UniformBlock {
	b := &uniformBlock{
		mu:     &sync.Mutex{},
		fields: append([]UniformField(nil), fields...),
		slots:  make(map[string]uniformSlot, len(fields)),
	}

	var offset uint64
	for _, f := range fields {
		offset = alignUp(offset, f.Type.alignment())
		b.slots[f.Name] = uniformSlot{offset: offset, kind: f.Type}
		offset += f.Type.size()
	}

	b.data = make([]byte, alignUp(offset, 16))
	b.dirty = true

	return b
}

func (b *uniformBlock) Size() uint64 {
	return uint64(len(b.data))
}

func (b *uniformBlock) Fields() []UniformField {
	return append([]UniformField(nil), b.fields...)
}

func (b *uniformBlock) Offset(name string) (uint64, bool) {
	slot, ok := b.slots[name]
	return slot.offset, ok
}

func (b *uniformBlock) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

func (b *uniformBlock) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

func (b *uniformBlock) ClearDirty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirty = false
}

func (b *uniformBlock) SetFloat(name string, v float32) error {
	return b.write(name, UniformFloat, math.Float32bits(v))
}

func (b *uniformBlock) SetInt(name string, v int32) error {
	return b.write(name, UniformInt, uint32(v))
}

func (b *uniformBlock) SetVec3(name string, v mgl32.Vec3) error {
	return b.write(name, UniformVec3, floatWords(v[:])...)
}

func (b *uniformBlock) SetVec4(name string, v mgl32.Vec4) error {
	return b.write(name, UniformVec4, floatWords(v[:])...)
}

func (b *uniformBlock) SetMat4(name string, v mgl32.Mat4) error {
	return b.write(name, UniformMat4, floatWords(v[:])...)
}

// write stores little-endian 32-bit words at the field offset.
func (b *uniformBlock) write(name string, kind UniformType, words ...uint32) error {
	slot, ok := b.slots[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	if slot.kind != kind {
		return fmt.Errorf("%w: %q is %s, not %s", ErrUniformType, name, slot.kind, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, word := range words {
		binary.LittleEndian.PutUint32(b.data[slot.offset+uint64(i)*4:], word)
	}
	b.dirty = true

	return nil
}

func floatWords(values []float32) []uint32 {
	words := make([]uint32, len(values))
	for i, v := range values {
		words[i] = math.Float32bits(v)
	}
	return words
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) / alignment * alignment
}

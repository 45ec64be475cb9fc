// Package emu provides the flat main memory that the functional side of the
// simulator and the cache hierarchy share.
package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

// DefaultMemorySize is the size of a memory created by NewDefaultMemory.
const DefaultMemorySize = 1 * mem.MB

// Memory is a bounded, byte-addressable, little-endian main memory. It is the
// last level of the hierarchy, so every cache miss eventually resolves here.
//
// Addresses outside [0, Size()) are programming errors and cause a panic, the
// same way an out-of-range slice index does.
type Memory struct {
	storage *mem.Storage
	size    uint64
}

// NewMemory creates a zero-filled memory of size bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{
		storage: mem.NewStorage(size),
		size:    size,
	}
}

// NewDefaultMemory creates a memory of DefaultMemorySize bytes.
func NewDefaultMemory() *Memory {
	return NewMemory(DefaultMemorySize)
}

// Size returns the capacity of the memory in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// Contains reports whether the n bytes starting at addr are inside the memory.
func (m *Memory) Contains(addr uint64, n int) bool {
	end := addr + uint64(n)
	return n >= 0 && end >= addr && end <= m.size
}

func (m *Memory) mustContain(addr uint64, n int) {
	if !m.Contains(addr, n) {
		panic(fmt.Sprintf("emu: access of %d bytes at 0x%x is outside memory of size 0x%x",
			n, addr, m.size))
	}
}

// ReadBytes returns a copy of the n bytes starting at addr.
func (m *Memory) ReadBytes(addr uint64, n int) []byte {
	m.mustContain(addr, n)

	data, err := m.storage.Read(addr, uint64(n))
	if err != nil {
		panic(fmt.Sprintf("emu: read at 0x%x failed: %v", addr, err))
	}

	return data
}

// WriteBytes copies data into memory starting at addr.
func (m *Memory) WriteBytes(addr uint64, data []byte) {
	m.mustContain(addr, len(data))

	if err := m.storage.Write(addr, data); err != nil {
		panic(fmt.Sprintf("emu: write at 0x%x failed: %v", addr, err))
	}
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) uint8 {
	return m.ReadBytes(addr, 1)[0]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value uint8) {
	m.WriteBytes(addr, []byte{value})
}

// Read32 reads a little-endian 32-bit word.
func (m *Memory) Read32(addr uint64) uint32 {
	return binary.LittleEndian.Uint32(m.ReadBytes(addr, 4))
}

// Write32 writes a little-endian 32-bit word.
func (m *Memory) Write32(addr uint64, value uint32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, value)
	m.WriteBytes(addr, buf)
}

// Read64 reads a little-endian 64-bit word.
func (m *Memory) Read64(addr uint64) uint64 {
	return binary.LittleEndian.Uint64(m.ReadBytes(addr, 8))
}

// Write64 writes a little-endian 64-bit word.
func (m *Memory) Write64(addr uint64, value uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	m.WriteBytes(addr, buf)
}

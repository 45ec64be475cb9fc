package cache

import (
	"github.com/sarchlab/cachesim/emu"
)

// BackingStore is the slower storage a cache fills lines from and writes
// dirty lines back to.
type BackingStore interface {
	// Read returns size bytes starting at addr.
	Read(addr uint64, size int) []byte
	// Write stores data starting at addr.
	Write(addr uint64, data []byte)
}

// Eviction is a dirty line pushed out of a cache. Tag is the line-aligned
// address the bytes belong to.
type Eviction struct {
	Tag  uint64
	Data []byte
}

// MemoryBacking wraps emu.Memory as a BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	return m.memory.ReadBytes(addr, size)
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	m.memory.WriteBytes(addr, data)
}

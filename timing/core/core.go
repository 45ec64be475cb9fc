// Package core provides a trace-driven core that issues one memory access
// per cycle to the memory hierarchy. It stands in for the instruction
// pipeline when only the memory behavior of a program is of interest.
package core

import (
	"github.com/sarchlab/cachesim/timing/hierarchy"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Accesses is the number of accesses issued.
	Accesses uint64
	// Reads and Writes split Accesses by direction.
	Reads  uint64
	Writes uint64
	// Checksum is the XOR of every value read.
	Checksum uint64
}

// Core replays an access trace against a memory hierarchy.
type Core struct {
	// Hierarchy is the memory hierarchy accesses are sent to.
	Hierarchy *hierarchy.Hierarchy

	trace []Access
	pc    int
	stats Stats
}

// NewCore creates a Core that replays trace against h.
func NewCore(h *hierarchy.Hierarchy, trace []Access) *Core {
	return &Core{
		Hierarchy: h,
		trace:     trace,
	}
}

// PC returns the index of the next access in the trace.
func (c *Core) PC() int {
	return c.pc
}

// SetPC moves the replay position to index pc.
func (c *Core) SetPC(pc int) {
	c.pc = pc
}

// Tick issues the next access, if any.
func (c *Core) Tick() {
	if c.Halted() {
		return
	}

	c.stats.Cycles++
	c.Execute(c.trace[c.pc])
	c.pc++
}

// Halted returns true once the whole trace has been replayed.
func (c *Core) Halted() bool {
	return c.pc >= len(c.trace)
}

// Execute issues a single access and returns the value read, or 0 for a
// write.
func (c *Core) Execute(a Access) uint64 {
	h := c.Hierarchy
	c.stats.Accesses++

	if a.Op.IsWrite() {
		c.stats.Writes++

		switch a.Op {
		case OpWriteInstruction32:
			h.WriteInstruction32(a.Addr, uint32(a.Value))
		case OpWriteData32:
			h.WriteData32(a.Addr, uint32(a.Value))
		default:
			h.WriteData64(a.Addr, a.Value)
		}

		return 0
	}

	var value uint64
	switch a.Op {
	case OpReadInstruction32:
		value = uint64(h.ReadInstruction32(a.Addr))
	case OpReadData32:
		value = uint64(h.ReadData32(a.Addr))
	default:
		value = h.ReadData64(a.Addr)
	}

	c.stats.Reads++
	c.stats.Checksum ^= value

	return value
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return c.stats
}

// Run replays the rest of the trace and returns the number of accesses
// issued.
func (c *Core) Run() uint64 {
	start := c.stats.Accesses
	for !c.Halted() {
		c.Tick()
	}
	return c.stats.Accesses - start
}

// RunCycles executes the core for the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !c.Halted(); i++ {
		c.Tick()
	}
	return !c.Halted()
}

// Reset rewinds the trace and clears statistics. The hierarchy keeps its
// state.
func (c *Core) Reset() {
	c.pc = 0
	c.stats = Stats{}
}

// Package hierarchy wires a private L1 instruction cache, a private L1 data
// cache and a shared L2 cache in front of main memory.
//
// Reads probe L1, then L2, then memory, and fill every level they missed
// from main memory. Data writes are write-through at L1 (no allocation) and
// write-back at L2 (write-allocate). Whenever a fill evicts a dirty line, the
// line is written to main memory at its own address before the slot is
// reused.
package hierarchy

import (
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/timing/cache"
)

// Option configures a Hierarchy.
type Option func(*Hierarchy)

// WithAccessLogger records every access to logger.
func WithAccessLogger(logger AccessLogger) Option {
	return func(h *Hierarchy) {
		h.accessLog = logger
	}
}

// WithMemory uses memory as main memory instead of allocating one of
// Config.MemorySize bytes.
func WithMemory(memory *emu.Memory) Option {
	return func(h *Hierarchy) {
		h.memory = memory
	}
}

// WithLogger sets the diagnostics logger. The default is the logrus standard
// logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Hierarchy) {
		h.log = logger
	}
}

// Stats holds the statistics of the three caches.
type Stats struct {
	L1I cache.Statistics
	L1D cache.Statistics
	L2  cache.Statistics
}

// Hierarchy is the memory hierarchy controller. It is not safe for concurrent
// use; accesses are expected one at a time from a single simulated core.
type Hierarchy struct {
	*sim.HookableBase

	config Config

	l1i *cache.SACache
	l1d *cache.SACache
	l2  *cache.SACache

	memory  *emu.Memory
	backing *cache.MemoryBacking

	minLineSize int

	accessLog AccessLogger
	log       logrus.FieldLogger
}

// New builds a hierarchy from config.
func New(config Config, opts ...Option) (*Hierarchy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	l1i, err := cache.New(config.L1I)
	if err != nil {
		return nil, fmt.Errorf("l1i: %w", err)
	}

	l1d, err := cache.New(config.L1D)
	if err != nil {
		return nil, fmt.Errorf("l1d: %w", err)
	}

	l2, err := cache.New(config.L2)
	if err != nil {
		return nil, fmt.Errorf("l2: %w", err)
	}

	h := &Hierarchy{
		HookableBase: sim.NewHookableBase(),
		config:       config,
		l1i:          l1i,
		l1d:          l1d,
		l2:           l2,
		minLineSize:  config.minLineSize(),
		log:          logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.memory == nil {
		h.memory = emu.NewMemory(config.MemorySize)
	} else if err := checkMemorySize(h.memory.Size(), config.maxLineSize()); err != nil {
		return nil, err
	}

	h.backing = cache.NewMemoryBacking(h.memory)

	return h, nil
}

// Config returns the hierarchy configuration.
func (h *Hierarchy) Config() Config {
	return h.config
}

// Memory returns main memory.
func (h *Hierarchy) Memory() *emu.Memory {
	return h.memory
}

// L1I returns the instruction cache.
func (h *Hierarchy) L1I() *cache.SACache {
	return h.l1i
}

// L1D returns the data cache.
func (h *Hierarchy) L1D() *cache.SACache {
	return h.l1d
}

// L2 returns the shared second-level cache.
func (h *Hierarchy) L2() *cache.SACache {
	return h.l2
}

// ReadInstruction32 fetches a 32-bit instruction word through the
// instruction cache.
func (h *Hierarchy) ReadInstruction32(addr uint64) uint32 {
	return uint32(h.read(ReadInstruction, h.l1i, "l1i", addr, 4))
}

// ReadData32 reads a 32-bit data word through the data cache.
func (h *Hierarchy) ReadData32(addr uint64) uint32 {
	return uint32(h.read(ReadData32, h.l1d, "l1d", addr, 4))
}

// ReadData64 reads a 64-bit data word through the data cache.
func (h *Hierarchy) ReadData64(addr uint64) uint64 {
	return h.read(ReadData64, h.l1d, "l1d", addr, 8)
}

// WriteInstruction32 writes an instruction word straight to main memory.
// Copies of the line held by L1I or L2 are not updated and go stale; code is
// assumed not to modify itself.
func (h *Hierarchy) WriteInstruction32(addr uint64, value uint32) {
	h.memory.Write32(addr, value)
}

// WriteData32 writes a 32-bit data word.
func (h *Hierarchy) WriteData32(addr uint64, value uint32) {
	h.write(WriteData32, addr, 4, uint64(value))
}

// WriteData64 writes a 64-bit data word.
func (h *Hierarchy) WriteData64(addr uint64, value uint64) {
	h.write(WriteData64, addr, 8, value)
}

func (h *Hierarchy) read(
	kind AccessKind,
	l1 *cache.SACache,
	l1Name string,
	addr uint64,
	size int,
) uint64 {
	h.mustFitLine(kind, addr, size)

	level := LevelL1
	value, hit := l1.Read(addr, size)

	if !hit {
		level = LevelL2
		value, hit = h.l2.Read(addr, size)
	}

	if !hit {
		level = LevelMemory
		value = h.readMemory(addr, size)
	}

	// Both levels fill from main memory. An L1 filled on an L2 hit takes
	// the memory copy even when L2 holds a newer, dirty one.
	if level > LevelL1 {
		h.fill(l1, l1Name, addr, h.backing)
	}

	if level > LevelL2 {
		h.fill(h.l2, "l2", addr, h.backing)
	}

	h.record(kind, addr, level)

	return value
}

func (h *Hierarchy) write(kind AccessKind, addr uint64, size int, value uint64) {
	h.mustFitLine(kind, addr, size)

	// Write-through, no-allocate. The outcome does not affect the level.
	h.l1d.Write(addr, size, value)

	level := LevelL2
	if !h.l2.Write(addr, size, value) {
		level = LevelMemory

		h.fill(h.l2, "l2", addr, h.backing)
		if !h.l2.Write(addr, size, value) {
			panic(fmt.Sprintf("hierarchy: l2 write at 0x%x missed after fetching its line", addr))
		}
	}

	h.record(kind, addr, level)
}

// fill fetches the line containing addr into c from src and writes a dirty
// victim back to main memory.
func (h *Hierarchy) fill(c *cache.SACache, name string, addr uint64, src cache.BackingStore) {
	evicted := c.FetchLine(addr, src)
	if evicted == nil {
		return
	}

	h.memory.WriteBytes(evicted.Tag, evicted.Data)

	h.log.WithFields(logrus.Fields{
		"cache":  name,
		"addr":   fmt.Sprintf("0x%x", addr),
		"victim": fmt.Sprintf("0x%x", evicted.Tag),
	}).Debug("dirty line written back")
}

func (h *Hierarchy) readMemory(addr uint64, size int) uint64 {
	if size == 8 {
		return h.memory.Read64(addr)
	}

	return uint64(h.memory.Read32(addr))
}

func (h *Hierarchy) record(kind AccessKind, addr uint64, level HitLevel) {
	if h.accessLog != nil {
		h.accessLog.Record(kind, addr, level)
	}

	h.InvokeHook(sim.HookCtx{
		Domain: h,
		Pos:    HookPosAccess,
		Item: AccessEvent{
			Kind:  kind,
			Addr:  addr,
			Level: level,
		},
	})
}

// mustFitLine panics if the access crosses a line boundary of the smallest
// line in the hierarchy. Such an access cannot be served by a single line at
// any level.
func (h *Hierarchy) mustFitLine(kind AccessKind, addr uint64, size int) {
	offset := addr & uint64(h.minLineSize-1)
	if offset+uint64(size) > uint64(h.minLineSize) {
		panic(fmt.Sprintf("hierarchy: %s of %d bytes at 0x%x crosses a %d-byte line boundary",
			kind, size, addr, h.minLineSize))
	}
}

// Flush writes every dirty line of every cache back to main memory. The
// lines stay resident and clean. It returns the number of lines written.
func (h *Hierarchy) Flush() int {
	written := h.l1i.Flush(h.backing)
	written += h.l1d.Flush(h.backing)
	written += h.l2.Flush(h.backing)

	h.log.WithField("lines", written).Debug("hierarchy flushed")

	return written
}

// Stats returns the statistics of the three caches.
func (h *Hierarchy) Stats() Stats {
	return Stats{
		L1I: h.l1i.Stats(),
		L1D: h.l1d.Stats(),
		L2:  h.l2.Stats(),
	}
}

// ResetStats clears the statistics of the three caches.
func (h *Hierarchy) ResetStats() {
	h.l1i.ResetStats()
	h.l1d.ResetStats()
	h.l2.ResetStats()
}

// Close flushes the caches into main memory and closes the access logger if
// it is an io.Closer.
func (h *Hierarchy) Close() error {
	h.Flush()

	if closer, ok := h.accessLog.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close access log: %w", err)
		}
	}

	return nil
}

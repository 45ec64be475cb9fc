// Package latency turns hit levels reported by the memory hierarchy into
// cycle counts.
package latency

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cachesim/timing/hierarchy"
)

// Table provides per-level latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}

// Latency returns the cycles an access satisfied at level takes. Unknown
// levels cost as much as main memory.
func (t *Table) Latency(level hierarchy.HitLevel) uint64 {
	switch level {
	case hierarchy.LevelL1:
		return t.config.L1HitLatency
	case hierarchy.LevelL2:
		return t.config.L2HitLatency
	default:
		return t.config.MemoryLatency
	}
}

// Stats summarizes the accesses an Accumulator has seen.
type Stats struct {
	Accesses uint64
	Reads    uint64
	Writes   uint64
	Cycles   uint64
	// PerLevel counts accesses by hit level; index 0 is unused.
	PerLevel [4]uint64
}

// AMAT returns the average memory access time in cycles.
func (s Stats) AMAT() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Accesses)
}

// Accumulator is a hook that charges every access event its latency.
type Accumulator struct {
	table *Table
	stats Stats
}

// NewAccumulator creates an Accumulator that uses table.
func NewAccumulator(table *Table) *Accumulator {
	return &Accumulator{table: table}
}

// Func implements sim.Hook.
func (a *Accumulator) Func(ctx sim.HookCtx) {
	if ctx.Pos != hierarchy.HookPosAccess {
		return
	}

	event, ok := ctx.Item.(hierarchy.AccessEvent)
	if !ok {
		return
	}

	a.stats.Accesses++
	if event.Kind.IsWrite() {
		a.stats.Writes++
	} else {
		a.stats.Reads++
	}

	a.stats.Cycles += a.table.Latency(event.Level)
	if event.Level >= hierarchy.LevelL1 && event.Level <= hierarchy.LevelMemory {
		a.stats.PerLevel[event.Level]++
	}
}

// Stats returns the accumulated statistics.
func (a *Accumulator) Stats() Stats {
	return a.stats
}

// Reset clears the accumulated statistics.
func (a *Accumulator) Reset() {
	a.stats = Stats{}
}

package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/hierarchy"
)

func writeReport(w io.Writer, res *result) {
	_, _ = fmt.Fprintf(w, "Trace: %s\n", res.tracePath)
	_, _ = fmt.Fprintf(w, "Accesses: %d (%d reads, %d writes)\n",
		res.core.Accesses, res.core.Reads, res.core.Writes)
	_, _ = fmt.Fprintf(w, "Read checksum: 0x%016x\n", res.core.Checksum)
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Caches:\n")
	writeCache(w, "L1I", res.config.L1I, res.caches.L1I)
	writeCache(w, "L1D", res.config.L1D, res.caches.L1D)
	writeCache(w, "L2", res.config.L2, res.caches.L2)
	_, _ = fmt.Fprintf(w, "  Lines flushed at exit: %d\n", res.flushed)
	_, _ = fmt.Fprintf(w, "\n")

	t := res.timing
	total := t.Accesses
	if total == 0 {
		total = 1
	}

	_, _ = fmt.Fprintf(w, "Satisfied by:\n")
	for _, level := range []hierarchy.HitLevel{hierarchy.LevelL1, hierarchy.LevelL2, hierarchy.LevelMemory} {
		n := t.PerLevel[level]
		_, _ = fmt.Fprintf(w, "  %-7s %8d (%5.1f%%)\n",
			level.String()+":", n, 100.0*float64(n)/float64(total))
	}
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "Memory cycles: %d\n", t.Cycles)
	_, _ = fmt.Fprintf(w, "AMAT: %.2f cycles\n", t.AMAT())
}

func writeCache(w io.Writer, name string, config cache.Config, s cache.Statistics) {
	_, _ = fmt.Fprintf(w, "  %-4s %5d B, %3d B lines, %2d-way: %d hits, %d misses (%.1f%% hit), %d evictions, %d writebacks\n",
		name, config.Size, config.LineSize, config.Associativity,
		s.Hits, s.Misses, 100.0*s.HitRate(), s.Evictions, s.Writebacks)
}

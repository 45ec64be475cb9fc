package cache

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads  uint64
	Writes uint64
	Hits   uint64
	Misses uint64
	// Fills counts lines copied in by FetchLine.
	Fills uint64
	// Evictions counts valid lines displaced by a different line.
	Evictions uint64
	// Writebacks counts dirty lines handed back for writing to slower storage.
	Writebacks uint64
}

// Add returns the field-wise sum of s and o.
func (s Statistics) Add(o Statistics) Statistics {
	return Statistics{
		Reads:      s.Reads + o.Reads,
		Writes:     s.Writes + o.Writes,
		Hits:       s.Hits + o.Hits,
		Misses:     s.Misses + o.Misses,
		Fills:      s.Fills + o.Fills,
		Evictions:  s.Evictions + o.Evictions,
		Writebacks: s.Writebacks + o.Writebacks,
	}
}

// HitRate returns Hits / (Reads + Writes), or 0 before any access.
func (s Statistics) HitRate() float64 {
	accesses := s.Reads + s.Writes
	if accesses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(accesses)
}

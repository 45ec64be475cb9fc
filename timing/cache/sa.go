package cache

// SACache is a set-associative cache. The set index bits of an address pick
// one of NumSets independent fully associative caches, and every operation is
// delegated to that set.
type SACache struct {
	config Config

	offsetMask uint64
	indexShift uint
	indexMask  uint64

	sets []*FACache
}

// New creates a set-associative cache with the given configuration.
func New(config Config) (*SACache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.NumSets()
	setConfig := FullyAssociative(config.Size/numSets, config.LineSize)

	c := &SACache{
		config:     config,
		offsetMask: uint64(config.LineSize - 1),
		indexShift: log2(config.LineSize),
		sets:       make([]*FACache, numSets),
	}
	c.indexMask = uint64(numSets-1) << c.indexShift

	for i := range c.sets {
		c.sets[i] = newFACache(setConfig)
	}

	return c, nil
}

// NewSACache creates a cache of size bytes made of lineSize-byte lines in
// sets of associativity ways.
func NewSACache(size, lineSize, associativity int) (*SACache, error) {
	return New(Config{
		Size:          size,
		LineSize:      lineSize,
		Associativity: associativity,
	})
}

// Config returns the cache configuration.
func (c *SACache) Config() Config {
	return c.config
}

// NumSets returns the number of sets.
func (c *SACache) NumSets() int {
	return len(c.sets)
}

// SplitAddress decomposes addr into tag, set index and line offset.
func (c *SACache) SplitAddress(addr uint64) (tag, index, offset uint64) {
	offset = addr & c.offsetMask
	index = (addr & c.indexMask) >> c.indexShift
	tag = addr &^ (c.offsetMask | c.indexMask)
	return tag, index, offset
}

func (c *SACache) set(addr uint64) *FACache {
	_, index, _ := c.SplitAddress(addr)
	return c.sets[index]
}

// Read returns the size-byte value at addr; false on a miss.
func (c *SACache) Read(addr uint64, size int) (uint64, bool) {
	return c.set(addr).Read(addr, size)
}

// Write overwrites the size-byte value at addr if the line is resident.
func (c *SACache) Write(addr uint64, size int, value uint64) bool {
	return c.set(addr).Write(addr, size, value)
}

// FetchLine copies the line containing addr from src into its set. It
// returns the dirty line it displaced, if any.
func (c *SACache) FetchLine(addr uint64, src BackingStore) *Eviction {
	return c.set(addr).FetchLine(addr, src)
}

// PeekLine returns a copy of the resident line containing addr.
func (c *SACache) PeekLine(addr uint64) ([]byte, bool) {
	return c.set(addr).PeekLine(addr)
}

// IsDirty reports whether the line containing addr is resident and dirty.
func (c *SACache) IsDirty(addr uint64) bool {
	return c.set(addr).IsDirty(addr)
}

// Invalidate drops the line containing addr without writing it back.
func (c *SACache) Invalidate(addr uint64) bool {
	return c.set(addr).Invalidate(addr)
}

// Flush writes all dirty lines to dst and marks them clean.
func (c *SACache) Flush(dst BackingStore) int {
	written := 0
	for _, set := range c.sets {
		written += set.Flush(dst)
	}
	return written
}

// Stats returns the statistics summed over all sets.
func (c *SACache) Stats() Statistics {
	var total Statistics
	for _, set := range c.sets {
		total = total.Add(set.Stats())
	}
	return total
}

// ResetStats clears the statistics of every set.
func (c *SACache) ResetStats() {
	for _, set := range c.sets {
		set.ResetStats()
	}
}

// Reset empties every set without writeback.
func (c *SACache) Reset() {
	for _, set := range c.sets {
		set.Reset()
	}
}

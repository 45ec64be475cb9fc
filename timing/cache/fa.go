package cache

// dirEntry describes what one line slot holds. An entry that is not valid is
// empty and never matches a lookup.
type dirEntry struct {
	tag   uint64
	valid bool
	dirty bool
}

// FACache is a fully associative cache. Any line can live in any slot, and
// slots are replaced in strict insertion (FIFO) order regardless of how
// recently they were accessed.
//
// FACache never talks to slower storage on its own: reads and writes that
// miss only report the miss, and FetchLine hands dirty victims back to the
// caller.
type FACache struct {
	config     Config
	offsetMask uint64

	directory []dirEntry
	// data holds all lines back to back; slot i is
	// data[i*LineSize : (i+1)*LineSize].
	data []byte

	// nextVictim is the slot the next replacement will use.
	nextVictim int

	stats Statistics
}

// NewFACache creates a fully associative cache of size bytes organized in
// lines of lineSize bytes. The associativity is size/lineSize.
func NewFACache(size, lineSize int) (*FACache, error) {
	config := FullyAssociative(size, lineSize)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return newFACache(config), nil
}

func newFACache(config Config) *FACache {
	return &FACache{
		config:     config,
		offsetMask: uint64(config.LineSize - 1),
		directory:  make([]dirEntry, config.Associativity),
		data:       make([]byte, config.Associativity*config.LineSize),
	}
}

// Config returns the cache configuration.
func (c *FACache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *FACache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *FACache) ResetStats() {
	c.stats = Statistics{}
}

// SplitAddress splits addr into its line tag (the line-aligned address) and
// the byte offset inside the line.
func (c *FACache) SplitAddress(addr uint64) (tag, offset uint64) {
	offset = addr & c.offsetMask
	tag = addr &^ c.offsetMask
	return tag, offset
}

// Lookup returns the slot holding the line with the given tag.
func (c *FACache) Lookup(tag uint64) (int, bool) {
	for i, entry := range c.directory {
		if entry.valid && entry.tag == tag {
			return i, true
		}
	}

	return 0, false
}

func (c *FACache) line(slot int) []byte {
	start := slot * c.config.LineSize
	return c.data[start : start+c.config.LineSize]
}

// locate finds the slot and offset for an access of size bytes. Accesses that
// straddle the end of a line are never served from a single slot.
func (c *FACache) locate(addr uint64, size int) (slot int, offset uint64, ok bool) {
	tag, offset := c.SplitAddress(addr)
	if !fitsLine(offset, size, c.config.LineSize) {
		return 0, 0, false
	}

	slot, ok = c.Lookup(tag)
	return slot, offset, ok
}

// Read returns the size-byte little-endian value at addr. The second result
// is false on a miss.
func (c *FACache) Read(addr uint64, size int) (uint64, bool) {
	c.stats.Reads++

	slot, offset, ok := c.locate(addr, size)
	if !ok {
		c.stats.Misses++
		return 0, false
	}

	c.stats.Hits++
	return extractData(c.line(slot), offset, size), true
}

// Write overwrites size bytes at addr with value and marks the line dirty.
// On a miss nothing changes and false is returned; this cache never
// allocates on write.
func (c *FACache) Write(addr uint64, size int, value uint64) bool {
	c.stats.Writes++

	slot, offset, ok := c.locate(addr, size)
	if !ok {
		c.stats.Misses++
		return false
	}

	c.stats.Hits++
	storeData(c.line(slot), offset, size, value)
	c.directory[slot].dirty = true

	return true
}

// FetchLine copies the line containing addr from src into the cache.
//
// If the line is already resident its slot is refreshed in place and the FIFO
// order is left alone. Otherwise the slot under the FIFO cursor is replaced
// and the cursor advances. If the replaced slot was dirty, its bytes and tag
// are returned so the caller can write them back; otherwise FetchLine
// returns nil.
func (c *FACache) FetchLine(addr uint64, src BackingStore) *Eviction {
	tag, _ := c.SplitAddress(addr)

	victim, resident := c.Lookup(tag)
	if !resident {
		victim = c.nextVictim
	}

	entry := &c.directory[victim]
	line := c.line(victim)

	var evicted *Eviction
	if entry.valid && entry.dirty {
		evicted = &Eviction{
			Tag:  entry.tag,
			Data: append([]byte(nil), line...),
		}
		c.stats.Writebacks++
	}

	if entry.valid && !resident {
		c.stats.Evictions++
	}

	copy(line, src.Read(tag, c.config.LineSize))
	*entry = dirEntry{tag: tag, valid: true}
	c.stats.Fills++

	if !resident {
		c.nextVictim = (c.nextVictim + 1) % c.config.Associativity
	}

	return evicted
}

// PeekLine returns a copy of the resident line containing addr without
// touching statistics.
func (c *FACache) PeekLine(addr uint64) ([]byte, bool) {
	tag, _ := c.SplitAddress(addr)

	slot, ok := c.Lookup(tag)
	if !ok {
		return nil, false
	}

	return append([]byte(nil), c.line(slot)...), true
}

// IsDirty reports whether the line containing addr is resident and dirty.
func (c *FACache) IsDirty(addr uint64) bool {
	tag, _ := c.SplitAddress(addr)

	slot, ok := c.Lookup(tag)
	return ok && c.directory[slot].dirty
}

// Invalidate drops the line containing addr without writing it back. The FIFO
// cursor is not moved.
func (c *FACache) Invalidate(addr uint64) bool {
	tag, _ := c.SplitAddress(addr)

	slot, ok := c.Lookup(tag)
	if !ok {
		return false
	}

	c.directory[slot] = dirEntry{}
	return true
}

// Flush writes every dirty line to dst and marks it clean. Lines stay
// resident. It returns the number of lines written.
func (c *FACache) Flush(dst BackingStore) int {
	written := 0

	for i := range c.directory {
		entry := &c.directory[i]
		if !entry.valid || !entry.dirty {
			continue
		}

		dst.Write(entry.tag, c.line(i))
		entry.dirty = false
		c.stats.Writebacks++
		written++
	}

	return written
}

// Reset empties the cache without writeback and rewinds the FIFO cursor.
func (c *FACache) Reset() {
	for i := range c.directory {
		c.directory[i] = dirEntry{}
	}
	c.nextVictim = 0
	c.stats = Statistics{}
}

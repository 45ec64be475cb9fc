package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/timing/cache"
)

var _ = Describe("SACache", func() {
	var (
		c       *cache.SACache
		memory  *emu.Memory
		backing *cache.MemoryBacking
	)

	BeforeEach(func() {
		memory = emu.NewMemory(64 * 1024)
		backing = cache.NewMemoryBacking(memory)

		// Small cache for testing: 4KB, 4-way, 64B lines = 16 sets.
		var err error
		c, err = cache.NewSACache(4*1024, 64, 4)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should build one set per index", func() {
		Expect(c.NumSets()).To(Equal(16))
		Expect(c.Config().Associativity).To(Equal(4))
	})

	It("should decompose addresses into tag, index and offset", func() {
		tag, index, offset := c.SplitAddress(0x1234)
		Expect(offset).To(Equal(uint64(0x34)))
		Expect(index).To(Equal(uint64(8)))
		Expect(tag).To(Equal(uint64(0x1000)))
	})

	It("should use set 0 for a single-set cache", func() {
		fa, err := cache.NewSACache(256, 64, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(fa.NumSets()).To(Equal(1))

		tag, index, offset := fa.SplitAddress(0xABCD)
		Expect(index).To(BeZero())
		Expect(tag).To(Equal(uint64(0xABC0)))
		Expect(offset).To(Equal(uint64(0x0D)))
	})

	It("should miss on cold cache", func() {
		memory.Write64(0x1000, 0xDEADBEEF)

		_, hit := c.Read(0x1000, 8)
		Expect(hit).To(BeFalse())
	})

	It("should hit after a fetch", func() {
		memory.Write32(0x1000, 0x11111111)
		memory.Write32(0x1004, 0x22222222)

		Expect(c.FetchLine(0x1000, backing)).To(BeNil())

		value, hit := c.Read(0x1004, 4)
		Expect(hit).To(BeTrue())
		Expect(value).To(Equal(uint64(0x22222222)))
	})

	It("should keep lines of different sets apart", func() {
		for i := uint64(0); i < 16; i++ {
			c.FetchLine(i*64, backing)
		}

		for i := uint64(0); i < 16; i++ {
			_, hit := c.Read(i*64, 4)
			Expect(hit).To(BeTrue())
		}
		Expect(c.Stats().Evictions).To(BeZero())
	})

	Describe("Eviction", func() {
		It("should evict the first line fetched into a full set", func() {
			// Set 0 addresses: 0, 1024, 2048, 3072, 4096.
			c.FetchLine(0x0000, backing)
			c.FetchLine(0x0400, backing)
			c.FetchLine(0x0800, backing)
			c.FetchLine(0x0C00, backing)

			c.Write(0x0000, 8, 0x11111111)

			evicted := c.FetchLine(0x1000, backing)
			Expect(evicted).NotTo(BeNil())
			Expect(evicted.Tag).To(Equal(uint64(0)))
			Expect(evicted.Data[:8]).To(Equal([]byte{0x11, 0x11, 0x11, 0x11, 0, 0, 0, 0}))

			_, hit := c.Read(0x0000, 8)
			Expect(hit).To(BeFalse())
			_, hit = c.Read(0x0400, 8)
			Expect(hit).To(BeTrue())
		})

		It("should report the absolute line address of the victim", func() {
			c.FetchLine(0x0440, backing)
			c.Write(0x0448, 4, 7)
			c.FetchLine(0x0840, backing)
			c.FetchLine(0x0C40, backing)
			c.FetchLine(0x1040, backing)

			evicted := c.FetchLine(0x1440, backing)
			Expect(evicted).NotTo(BeNil())
			Expect(evicted.Tag).To(Equal(uint64(0x0440)))
		})
	})

	It("should write and read back through the same set", func() {
		c.FetchLine(0x2000, backing)
		Expect(c.Write(0x2010, 8, 0xFEEDFACE)).To(BeTrue())

		value, hit := c.Read(0x2010, 8)
		Expect(hit).To(BeTrue())
		Expect(value).To(Equal(uint64(0xFEEDFACE)))
		Expect(c.IsDirty(0x2000)).To(BeTrue())
	})

	It("should peek at a resident line", func() {
		memory.Write8(0x3003, 0x99)
		c.FetchLine(0x3000, backing)

		line, ok := c.PeekLine(0x3020)
		Expect(ok).To(BeTrue())
		Expect(line).To(HaveLen(64))
		Expect(line[3]).To(Equal(byte(0x99)))

		_, ok = c.PeekLine(0x4000)
		Expect(ok).To(BeFalse())
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			c.FetchLine(0x0000, backing)
			c.FetchLine(0x1000, backing)
			c.Write(0x0000, 8, 0x11111111)
			c.Write(0x1000, 8, 0x22222222)

			// Data not yet in memory (only in cache)
			Expect(memory.Read64(0x0000)).To(Equal(uint64(0)))
			Expect(memory.Read64(0x1000)).To(Equal(uint64(0)))

			Expect(c.Flush(backing)).To(Equal(2))

			Expect(memory.Read64(0x0000)).To(Equal(uint64(0x11111111)))
			Expect(memory.Read64(0x1000)).To(Equal(uint64(0x22222222)))
		})
	})

	It("should sum statistics over sets", func() {
		c.Read(0x0000, 4)
		c.Read(0x0040, 4)
		c.FetchLine(0x0040, backing)
		c.Read(0x0040, 4)

		stats := c.Stats()
		Expect(stats.Reads).To(Equal(uint64(3)))
		Expect(stats.Misses).To(Equal(uint64(2)))
		Expect(stats.Hits).To(Equal(uint64(1)))
		Expect(stats.Fills).To(Equal(uint64(1)))

		c.ResetStats()
		Expect(c.Stats()).To(Equal(cache.Statistics{}))
	})

	It("should drop all lines on reset", func() {
		c.FetchLine(0x0000, backing)
		c.Reset()

		_, hit := c.Read(0x0000, 4)
		Expect(hit).To(BeFalse())
	})

	It("should invalidate a single line", func() {
		c.FetchLine(0x0000, backing)
		Expect(c.Invalidate(0x0000)).To(BeTrue())

		_, hit := c.Read(0x0000, 4)
		Expect(hit).To(BeFalse())
	})
})

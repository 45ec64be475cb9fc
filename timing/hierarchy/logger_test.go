package hierarchy_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/hierarchy"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

var _ = Describe("TextLogger", func() {
	It("should write one line per event", func() {
		var buf bytes.Buffer
		logger := hierarchy.NewTextLogger(&buf)

		logger.Record(hierarchy.ReadInstruction, 0x1000, hierarchy.LevelMemory)
		logger.Record(hierarchy.ReadData64, 0x2008, hierarchy.LevelL1)
		logger.Record(hierarchy.WriteData64, 0x30, hierarchy.LevelL2)
		Expect(buf.Len()).To(BeZero())

		Expect(logger.Flush()).To(Succeed())
		Expect(buf.String()).To(Equal(
			"READI\t0x1000\t3\nREAD64\t0x2008\t1\nWRITE64\t0x30\t2\n"))
	})

	It("should keep the first write error", func() {
		logger := hierarchy.NewTextLogger(failingWriter{})
		logger.Record(hierarchy.ReadData32, 0, hierarchy.LevelL1)

		Expect(logger.Flush()).To(MatchError("disk full"))
		Expect(logger.Err()).To(HaveOccurred())
		Expect(logger.Close()).To(HaveOccurred())
	})

	It("should fail to create a log in a missing directory", func() {
		_, err := hierarchy.NewFileLogger("/nonexistent/dir/cacheLog.txt")
		Expect(err).To(HaveOccurred())
	})

	It("should name kinds and levels", func() {
		Expect(hierarchy.WriteData32.String()).To(Equal("WRITE32"))
		Expect(hierarchy.WriteData32.IsWrite()).To(BeTrue())
		Expect(hierarchy.ReadData32.IsWrite()).To(BeFalse())
		Expect(hierarchy.AccessKind(42).String()).To(Equal("AccessKind(42)"))
		Expect(hierarchy.LevelL2.String()).To(Equal("L2"))
		Expect(hierarchy.HitLevel(7).String()).To(Equal("HitLevel(7)"))
	})
})

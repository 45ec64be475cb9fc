package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/loader"
)

const (
	machineX86_64  = 62
	machineAArch64 = 183
)

type progHeader struct {
	typ     uint32
	flags   uint32
	vaddr   uint64
	data    []byte
	memSize uint64
}

// writeELF64 writes a little-endian ELF64 executable with the given program
// headers. Segment contents follow the header table in order.
func writeELF64(path string, machine uint16, entry uint64, phdrs []progHeader) {
	elfHeader := make([]byte, 64)

	copy(elfHeader[0:4], []byte{0x7f, 'E', 'L', 'F'})
	elfHeader[4] = 2                                         // 64-bit
	elfHeader[5] = 1                                         // little endian
	elfHeader[6] = 1                                         // version
	binary.LittleEndian.PutUint16(elfHeader[16:18], 2)       // executable
	binary.LittleEndian.PutUint16(elfHeader[18:20], machine) // machine
	binary.LittleEndian.PutUint32(elfHeader[20:24], 1)       // version
	binary.LittleEndian.PutUint64(elfHeader[24:32], entry)
	binary.LittleEndian.PutUint64(elfHeader[32:40], 64) // phoff
	binary.LittleEndian.PutUint16(elfHeader[52:54], 64) // ehsize
	binary.LittleEndian.PutUint16(elfHeader[54:56], 56) // phentsize
	binary.LittleEndian.PutUint16(elfHeader[56:58], uint16(len(phdrs)))

	out := elfHeader
	offset := uint64(64 + 56*len(phdrs))

	for _, p := range phdrs {
		ph := make([]byte, 56)
		binary.LittleEndian.PutUint32(ph[0:4], p.typ)
		binary.LittleEndian.PutUint32(ph[4:8], p.flags)
		binary.LittleEndian.PutUint64(ph[8:16], offset)
		binary.LittleEndian.PutUint64(ph[16:24], p.vaddr)
		binary.LittleEndian.PutUint64(ph[24:32], p.vaddr)
		binary.LittleEndian.PutUint64(ph[32:40], uint64(len(p.data)))
		binary.LittleEndian.PutUint64(ph[40:48], p.memSize)
		binary.LittleEndian.PutUint64(ph[48:56], 0x1000)

		out = append(out, ph...)
		offset += uint64(len(p.data))
	}

	for _, p := range phdrs {
		out = append(out, p.data...)
	}

	Expect(os.WriteFile(path, out, 0o644)).To(Succeed())
}

var _ = Describe("Loader", func() {
	var tempDir string

	code := []byte{
		0x40, 0x05, 0x80, 0xd2, // mov x0, #42
		0xc0, 0x03, 0x5f, 0xd6, // ret
	}

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	Describe("Load", func() {
		It("should read code and data segments", func() {
			path := filepath.Join(tempDir, "prog.elf")
			writeELF64(path, machineAArch64, 0x1000, []progHeader{
				{typ: 1, flags: 0x5, vaddr: 0x1000, data: code, memSize: uint64(len(code))},
				{typ: 1, flags: 0x6, vaddr: 0x4000, data: []byte{1, 2, 3, 4}, memSize: 64},
			})

			img, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Entry).To(Equal(uint64(0x1000)))
			Expect(img.Segments).To(HaveLen(2))

			text := img.Segments[0]
			Expect(text.Addr).To(Equal(uint64(0x1000)))
			Expect(text.Data).To(Equal(code))
			Expect(text.Flags & loader.SegmentFlagExecute).NotTo(BeZero())

			data := img.Segments[1]
			Expect(data.MemSize).To(Equal(uint64(64)))
			Expect(data.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
			Expect(img.Size()).To(Equal(uint64(len(code) + 64)))
		})

		It("should skip segments that are not PT_LOAD", func() {
			path := filepath.Join(tempDir, "note.elf")
			writeELF64(path, machineAArch64, 0x2000, []progHeader{
				{typ: 4, flags: 0x4},
			})

			img, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Segments).To(BeEmpty())
			Expect(img.Entry).To(Equal(uint64(0x2000)))
		})

		It("should reject other architectures", func() {
			path := filepath.Join(tempDir, "x86.elf")
			writeELF64(path, machineX86_64, 0, nil)

			_, err := loader.Load(path)
			Expect(err).To(MatchError(ContainSubstring("not an ARM64")))
		})

		It("should reject files that are not ELF", func() {
			path := filepath.Join(tempDir, "text.bin")
			Expect(os.WriteFile(path, []byte("not an elf file"), 0o644)).To(Succeed())

			_, err := loader.Load(path)
			Expect(err).To(HaveOccurred())

			_, err = loader.Load(filepath.Join(tempDir, "missing.elf"))
			Expect(err).To(MatchError(ContainSubstring("failed to open")))
		})
	})

	Describe("LoadRaw", func() {
		It("should place the whole file at the base address", func() {
			path := filepath.Join(tempDir, "prog.bin")
			Expect(os.WriteFile(path, code, 0o644)).To(Succeed())

			img, err := loader.LoadRaw(path, 0x800)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Entry).To(Equal(uint64(0x800)))
			Expect(img.Segments).To(HaveLen(1))
			Expect(img.Segments[0].Data).To(Equal(code))
		})

		It("should report a missing file", func() {
			_, err := loader.LoadRaw(filepath.Join(tempDir, "missing.bin"), 0)
			Expect(err).To(MatchError(ContainSubstring("failed to read raw image")))
		})
	})

	Describe("Install", func() {
		It("should copy segments and zero-fill BSS", func() {
			memory := emu.NewMemory(0x1000)
			memory.Write32(0x208, 0xFFFFFFFF)

			img := &loader.Image{Segments: []loader.Segment{
				{Addr: 0x100, Data: code, MemSize: uint64(len(code))},
				{Addr: 0x200, Data: []byte{9, 9, 9, 9}, MemSize: 16},
			}}

			Expect(img.Install(memory)).To(Succeed())
			Expect(memory.Read32(0x100)).To(Equal(uint32(0xd2800540)))
			Expect(memory.Read32(0x200)).To(Equal(uint32(0x09090909)))
			Expect(memory.Read32(0x208)).To(BeZero())
		})

		It("should refuse segments outside memory and write nothing", func() {
			memory := emu.NewMemory(0x1000)

			img := &loader.Image{Segments: []loader.Segment{
				{Addr: 0x0, Data: code, MemSize: uint64(len(code))},
				{Addr: 0xFFC, Data: code, MemSize: uint64(len(code))},
			}}

			Expect(img.Install(memory)).To(MatchError(ContainSubstring("does not fit")))
			Expect(memory.Read32(0x0)).To(BeZero())
		})
	})
})

// Package loader preloads program images into main memory so that a trace
// replayed against the cache hierarchy sees real code and data.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/cachesim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment is a contiguous range of an image.
type Segment struct {
	// Addr is the address the segment is placed at.
	Addr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Image is a program ready to be copied into main memory.
type Image struct {
	// Entry is the address of the first instruction.
	Entry uint64
	// Segments lists the loadable ranges of the image.
	Segments []Segment
}

// Load parses an ARM64 ELF binary and returns its PT_LOAD segments.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("not a 64-bit ELF file")
	}

	if f.Machine != elf.EM_AARCH64 {
		return nil, fmt.Errorf("not an ARM64 ELF file (machine type: %v)", f.Machine)
	}

	img := &Image{Entry: f.Entry}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		img.Segments = append(img.Segments, Segment{
			Addr:    phdr.Vaddr,
			Data:    data,
			MemSize: phdr.Memsz,
			Flags:   segmentFlags(phdr.Flags),
		})
	}

	return img, nil
}

func segmentFlags(pf elf.ProgFlag) SegmentFlags {
	var flags SegmentFlags
	if pf&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if pf&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if pf&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}
	return flags
}

// LoadRaw reads a flat binary that is placed at base and starts executing
// there.
func LoadRaw(path string, base uint64) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw image: %w", err)
	}

	return &Image{
		Entry: base,
		Segments: []Segment{{
			Addr:    base,
			Data:    data,
			MemSize: uint64(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagWrite | SegmentFlagExecute,
		}},
	}, nil
}

// Size returns the number of bytes the image occupies in memory.
func (img *Image) Size() uint64 {
	var total uint64
	for _, seg := range img.Segments {
		total += seg.MemSize
	}
	return total
}

// Install copies every segment into memory and zero-fills the part of each
// segment beyond its file contents. Nothing is written if any segment falls
// outside memory.
func (img *Image) Install(memory *emu.Memory) error {
	for _, seg := range img.Segments {
		size := seg.MemSize
		if uint64(len(seg.Data)) > size {
			size = uint64(len(seg.Data))
		}

		if size > memory.Size() || !memory.Contains(seg.Addr, int(size)) {
			return fmt.Errorf("segment at 0x%x of %d bytes does not fit in memory of %d bytes",
				seg.Addr, size, memory.Size())
		}
	}

	for _, seg := range img.Segments {
		memory.WriteBytes(seg.Addr, seg.Data)

		if bss := seg.MemSize - min(seg.MemSize, uint64(len(seg.Data))); bss > 0 {
			memory.WriteBytes(seg.Addr+uint64(len(seg.Data)), make([]byte, bss))
		}
	}

	return nil
}

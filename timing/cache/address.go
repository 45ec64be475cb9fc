package cache

import "math/bits"

// MaxAccessSize is the widest value, in bytes, a single access can move.
const MaxAccessSize = 8

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) uint {
	return uint(bits.TrailingZeros(uint(n)))
}

// fitsLine reports whether an access of size bytes at offset stays inside a
// line of lineSize bytes.
func fitsLine(offset uint64, size, lineSize int) bool {
	return size > 0 && size <= MaxAccessSize && offset+uint64(size) <= uint64(lineSize)
}

// extractData extracts a little-endian value of the given size from a line.
func extractData(line []byte, offset uint64, size int) uint64 {
	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(line[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeData stores a little-endian value of the given size into a line.
func storeData(line []byte, offset uint64, size int, value uint64) {
	for i := 0; i < size; i++ {
		line[int(offset)+i] = byte(value >> (i * 8))
	}
}

// Package cache provides the cache engine of the memory hierarchy: a fully
// associative cache with FIFO replacement and a set-associative cache built
// from one fully associative cache per set.
package cache

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when cache dimensions violate the
// power-of-two or divisibility constraints.
var ErrInvalidConfiguration = errors.New("invalid cache configuration")

// Config holds cache dimensions.
type Config struct {
	// Size in bytes
	Size int `yaml:"size" json:"size"`
	// LineSize in bytes
	LineSize int `yaml:"line_size" json:"line_size"`
	// Associativity (number of ways per set)
	Associativity int `yaml:"associativity" json:"associativity"`
}

// FullyAssociative returns the configuration of a fully associative cache,
// where every line belongs to the only set.
func FullyAssociative(size, lineSize int) Config {
	associativity := 0
	if lineSize > 0 {
		associativity = size / lineSize
	}

	return Config{
		Size:          size,
		LineSize:      lineSize,
		Associativity: associativity,
	}
}

// DefaultL1IConfig returns the L1 instruction cache configuration:
// 2KB, 4-way, 64B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:          2 * 1024,
		LineSize:      64,
		Associativity: 4,
	}
}

// DefaultL1DConfig returns the L1 data cache configuration:
// 2KB, 8-way, 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          2 * 1024,
		LineSize:      64,
		Associativity: 8,
	}
}

// DefaultL2Config returns the shared L2 configuration: 8KB, 8-way, 64B lines.
func DefaultL2Config() Config {
	return Config{
		Size:          8 * 1024,
		LineSize:      64,
		Associativity: 8,
	}
}

// NumSets returns the number of sets, or 0 if the configuration cannot form
// any set.
func (c Config) NumSets() int {
	setBytes := c.LineSize * c.Associativity
	if setBytes <= 0 {
		return 0
	}

	return c.Size / setBytes
}

// Validate checks that every dimension is a power of two and that the size
// is an exact multiple of LineSize*Associativity.
func (c Config) Validate() error {
	if !isPowerOfTwo(c.Size) {
		return fmt.Errorf("%w: size %d is not a power of two",
			ErrInvalidConfiguration, c.Size)
	}
	if !isPowerOfTwo(c.LineSize) {
		return fmt.Errorf("%w: line size %d is not a power of two",
			ErrInvalidConfiguration, c.LineSize)
	}
	if !isPowerOfTwo(c.Associativity) {
		return fmt.Errorf("%w: associativity %d is not a power of two",
			ErrInvalidConfiguration, c.Associativity)
	}

	numSets := c.NumSets()
	if numSets == 0 || numSets*c.LineSize*c.Associativity != c.Size {
		return fmt.Errorf("%w: size %d is not a multiple of %d-byte lines x %d ways",
			ErrInvalidConfiguration, c.Size, c.LineSize, c.Associativity)
	}

	return nil
}

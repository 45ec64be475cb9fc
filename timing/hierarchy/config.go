package hierarchy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/emu"
	"github.com/sarchlab/cachesim/timing/cache"
)

// Config holds the dimensions of the hierarchy.
type Config struct {
	// MemorySize is the main memory size in bytes.
	MemorySize uint64       `yaml:"memory_size"`
	L1I        cache.Config `yaml:"l1i"`
	L1D        cache.Config `yaml:"l1d"`
	L2         cache.Config `yaml:"l2"`
}

// DefaultConfig returns a 2KB 4-way L1I, a 2KB 8-way L1D and an 8KB 8-way
// shared L2, all with 64B lines, over 1MB of main memory.
func DefaultConfig() Config {
	return Config{
		MemorySize: emu.DefaultMemorySize,
		L1I:        cache.DefaultL1IConfig(),
		L1D:        cache.DefaultL1DConfig(),
		L2:         cache.DefaultL2Config(),
	}
}

// LoadConfig reads a YAML hierarchy configuration. Fields missing from the
// file keep their default values; unknown fields are errors.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read hierarchy config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes a YAML hierarchy configuration on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse hierarchy config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize hierarchy config: %w", err)
	}

	return data, nil
}

// Validate checks every cache and that main memory holds a whole number of
// the largest line.
func (c Config) Validate() error {
	named := []struct {
		name   string
		config cache.Config
	}{
		{"l1i", c.L1I},
		{"l1d", c.L1D},
		{"l2", c.L2},
	}

	for _, n := range named {
		if err := n.config.Validate(); err != nil {
			return fmt.Errorf("%s: %w", n.name, err)
		}
	}

	return checkMemorySize(c.MemorySize, c.maxLineSize())
}

func (c Config) maxLineSize() int {
	return max(c.L1I.LineSize, c.L1D.LineSize, c.L2.LineSize)
}

func (c Config) minLineSize() int {
	return min(c.L1I.LineSize, c.L1D.LineSize, c.L2.LineSize)
}

func checkMemorySize(size uint64, lineSize int) error {
	if size == 0 || size%uint64(lineSize) != 0 {
		return fmt.Errorf("%w: memory size %d is not a positive multiple of %d-byte lines",
			cache.ErrInvalidConfiguration, size, lineSize)
	}

	return nil
}

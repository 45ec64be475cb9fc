package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the access latency of each level of the hierarchy.
type TimingConfig struct {
	// L1HitLatency is the latency of an access satisfied by L1.
	// Default: 4 cycles.
	L1HitLatency uint64 `json:"l1_hit_latency"`

	// L2HitLatency is the latency of an access satisfied by the shared L2.
	// Default: 12 cycles.
	L2HitLatency uint64 `json:"l2_hit_latency"`

	// MemoryLatency is the latency of an access that reaches main memory.
	// Default: 150 cycles.
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		L1HitLatency:  4,
		L2HitLatency:  12,
		MemoryLatency: 150,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every latency is positive and that slower levels are
// never faster than the ones above them.
func (c *TimingConfig) Validate() error {
	if c.L1HitLatency == 0 {
		return fmt.Errorf("l1_hit_latency must be > 0")
	}
	if c.L2HitLatency < c.L1HitLatency {
		return fmt.Errorf("l2_hit_latency must be >= l1_hit_latency")
	}
	if c.MemoryLatency < c.L2HitLatency {
		return fmt.Errorf("memory_latency must be >= l2_hit_latency")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}

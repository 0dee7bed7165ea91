// Package config holds the testbench configuration.
package config

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"os"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/axi"
)

// Config describes a testbench: the masters and slaves, the widths of both
// sides of the interconnect, the traffic mix and the run length.
type Config struct {
	// Masters is the number of traffic generating masters.
	Masters int `json:"masters"`

	// Slaves is the number of reference slaves. Each one owns one range of
	// the address map.
	Slaves int `json:"slaves"`

	// Bus holds the AXI features shared by every interface. The data width
	// is overridden per side by the lane counts below.
	Bus axi.Config `json:"bus"`

	// RdMasterLanes and RdSlaveLanes are the read data bus widths, in
	// bytes, on the master and slave side of the interconnect.
	RdMasterLanes int `json:"rd_master_lanes"`
	RdSlaveLanes  int `json:"rd_slave_lanes"`

	// WrMasterLanes and WrSlaveLanes are the write data bus widths.
	WrMasterLanes int `json:"wr_master_lanes"`
	WrSlaveLanes  int `json:"wr_slave_lanes"`

	// IDCount is the number of transaction identifiers masters draw from.
	// Default: 4.
	IDCount int `json:"id_count"`

	// MaxLen bounds fixed burst lengths and wrapping beat counts.
	// Default: 4.
	MaxLen int `json:"max_len"`

	// MaxIncrLen bounds incrementing burst lengths. Default: 4.
	MaxIncrLen int `json:"max_incr_len"`

	// AddrStride is the offset of the alternate address a master may pick.
	// Default: 0x10000.
	AddrStride uint64 `json:"addr_stride"`

	// AddrMap lists the inclusive address range of every slave.
	AddrMap []addrmap.Range `json:"addr_map"`

	// GenRateRd and GenRateWr are the per-cycle probabilities, in percent,
	// of generating a read or a write.
	GenRateRd int `json:"gen_rate_rd"`
	GenRateWr int `json:"gen_rate_wr"`

	// GenCycles is the cycle at which masters stop generating. In-flight
	// traffic still drains.
	GenCycles uint64 `json:"gen_cycles"`

	// StallThreshold is the number of cycles a master may wait without
	// progress while it has outstanding traffic. Zero disables the check.
	StallThreshold uint64 `json:"stall_threshold"`

	// ChannelDepth is the capacity of every handshake channel.
	ChannelDepth int `json:"channel_depth"`

	// ReadLatency and WriteLatency are the response latencies, in cycles,
	// of each slave. Missing entries default to 1.
	ReadLatency  []uint64 `json:"read_latency"`
	WriteLatency []uint64 `json:"write_latency"`

	// FreqGHz is the clock frequency of every component.
	FreqGHz float64 `json:"freq_ghz"`

	// Seed seeds the random generators. Master i uses Seed + i.
	Seed int64 `json:"seed"`

	// Parallel selects the parallel simulation engine.
	Parallel bool `json:"parallel"`

	// FailFast halts the run at the first verification failure.
	FailFast bool `json:"fail_fast"`

	// AllowReorder lets the interconnect return same-id responses out of
	// order. It injects a protocol fault for the verifier to catch.
	AllowReorder bool `json:"allow_reorder"`
}

// DefaultConfig returns a two-master, two-slave bench that downsizes 64-bit
// masters onto 32-bit slaves.
func DefaultConfig() *Config {
	return &Config{
		Masters:       2,
		Slaves:        2,
		Bus:           axi.DefaultConfig(),
		RdMasterLanes: 8,
		RdSlaveLanes:  4,
		WrMasterLanes: 8,
		WrSlaveLanes:  4,
		IDCount:       4,
		MaxLen:        4,
		MaxIncrLen:    4,
		AddrStride:    0x10000,
		AddrMap: []addrmap.Range{
			{Low: 0x0, High: 0xFFFF},
			{Low: 0x10000, High: 0x1FFFF},
		},
		GenRateRd:      20,
		GenRateWr:      20,
		GenCycles:      2000,
		StallThreshold: 1000,
		ChannelDepth:   2,
		ReadLatency:    []uint64{2, 5},
		WriteLatency:   []uint64{3, 1},
		FreqGHz:        1,
		Seed:           1,
		FailFast:       true,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testbench config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse testbench config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize testbench config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write testbench config file: %w", err)
	}

	return nil
}

// Validate checks that the bench can be built and that every address a
// master may generate is mapped.
func (c *Config) Validate() error {
	if c.Masters <= 0 {
		return fmt.Errorf("masters must be > 0")
	}
	if c.Slaves <= 0 {
		return fmt.Errorf("slaves must be > 0")
	}
	if len(c.AddrMap) != c.Slaves {
		return fmt.Errorf("addr_map must have one range per slave, got %d",
			len(c.AddrMap))
	}
	if err := c.AddressMap().Validate(); err != nil {
		return fmt.Errorf("addr_map: %w", err)
	}

	if err := c.validateBus(); err != nil {
		return err
	}

	if c.IDCount <= 0 || c.IDCount > 1<<c.Bus.IDWidth {
		return fmt.Errorf("id_count must be in [1, %d]", 1<<c.Bus.IDWidth)
	}
	if c.MaxLen <= 0 || c.MaxIncrLen <= 0 {
		return fmt.Errorf("max_len and max_incr_len must be > 0")
	}
	if c.GenRateRd < 0 || c.GenRateRd > 100 ||
		c.GenRateWr < 0 || c.GenRateWr > 100 {
		return fmt.Errorf("gen_rate_rd and gen_rate_wr must be in [0, 100]")
	}
	if c.ChannelDepth <= 0 {
		return fmt.Errorf("channel_depth must be > 0")
	}
	if c.FreqGHz <= 0 {
		return fmt.Errorf("freq_ghz must be > 0")
	}

	return c.validateCoverage()
}

func (c *Config) validateBus() error {
	for _, l := range []int{
		c.RdMasterLanes, c.RdSlaveLanes, c.WrMasterLanes, c.WrSlaveLanes,
	} {
		if l < 2 || l > 64 || bits.OnesCount(uint(l)) != 1 {
			return fmt.Errorf("lane counts must be powers of two in [2, 64]")
		}
	}

	if err := c.Bus.WithLanes(c.RdMasterLanes).Validate(); err != nil {
		return fmt.Errorf("bus: %w", err)
	}

	resp := c.Bus.Widths().Resp
	if c.Slaves > 1<<resp {
		return fmt.Errorf("%d slaves cannot be told apart by a %d-bit resp",
			c.Slaves, resp)
	}

	limit := 1 << c.Bus.Widths().Len
	for _, ratio := range []int{
		ratioOf(c.RdMasterLanes, c.RdSlaveLanes),
		ratioOf(c.WrMasterLanes, c.WrSlaveLanes),
	} {
		if c.MaxLen*ratio > limit || c.MaxIncrLen > limit {
			return fmt.Errorf("bursts may exceed %d beats after downsizing",
				limit)
		}
	}

	return nil
}

func (c *Config) validateCoverage() error {
	amap := c.AddressMap()
	lanes := uint64(max(c.RdMasterLanes, c.WrMasterLanes))
	last := c.GenCycles * lanes

	for _, addr := range []uint64{
		0, last, c.AddrStride, last + c.AddrStride,
	} {
		if _, err := amap.Resolve(addr); err != nil {
			return fmt.Errorf("generated addresses may fall outside the "+
				"address map: %w", err)
		}
	}

	return nil
}

func ratioOf(m, s int) int {
	if m > s {
		return m / s
	}

	return 1
}

// AddressMap builds the address map.
func (c *Config) AddressMap() *addrmap.Map {
	return addrmap.New(c.AddrMap...)
}

// RdMaster returns the read interface on the master side.
func (c *Config) RdMaster() axi.Config {
	return c.Bus.WithLanes(c.RdMasterLanes)
}

// RdSlave returns the read interface on the slave side.
func (c *Config) RdSlave() axi.Config {
	return c.Bus.WithLanes(c.RdSlaveLanes)
}

// WrMaster returns the write interface on the master side.
func (c *Config) WrMaster() axi.Config {
	return c.Bus.WithLanes(c.WrMasterLanes)
}

// WrSlave returns the write interface on the slave side.
func (c *Config) WrSlave() axi.Config {
	return c.Bus.WithLanes(c.WrSlaveLanes)
}

// ReadLatencyOf returns the read latency of a slave.
func (c *Config) ReadLatencyOf(slave int) uint64 {
	return latencyOf(c.ReadLatency, slave)
}

// WriteLatencyOf returns the write latency of a slave.
func (c *Config) WriteLatencyOf(slave int) uint64 {
	return latencyOf(c.WriteLatency, slave)
}

func latencyOf(l []uint64, i int) uint64 {
	if i < len(l) && l[i] > 0 {
		return l[i]
	}

	return 1
}

// Freq returns the clock frequency.
func (c *Config) Freq() sim.Freq {
	return sim.Freq(c.FreqGHz) * sim.GHz
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.AddrMap = append([]addrmap.Range(nil), c.AddrMap...)
	clone.ReadLatency = append([]uint64(nil), c.ReadLatency...)
	clone.WriteLatency = append([]uint64(nil), c.WriteLatency...)

	return &clone
}

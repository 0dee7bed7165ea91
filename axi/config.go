// Package axi models the AXI4 and ACE channel payloads and the handshake
// channels that carry them between masters, the interconnect and slaves.
package axi

import (
	"fmt"
	"math/bits"
)

// Config describes one AXI4 interface. Field widths of the channel payloads
// are derived from it.
type Config struct {
	// DataWidth is the width of the data bus in bits. It must be a power of
	// two between 16 and 512 so that the strobe fits one field.
	DataWidth int `json:"data_width"`

	// AddrWidth is the width of the address bus in bits.
	AddrWidth int `json:"addr_width"`

	// IDWidth is the width of the transaction identifier in bits.
	IDWidth int `json:"id_width"`

	// MaxBurstSize is the largest beat count a burst may carry.
	MaxBurstSize int `json:"max_burst_size"`

	AUserWidth int `json:"auser_width"`
	WUserWidth int `json:"wuser_width"`
	BUserWidth int `json:"buser_width"`
	RUserWidth int `json:"ruser_width"`

	UseWriteResponses   bool `json:"use_write_responses"`
	UseBurst            bool `json:"use_burst"`
	UseFixedBurst       bool `json:"use_fixed_burst"`
	UseWrapBurst        bool `json:"use_wrap_burst"`
	UseVariableBeatSize bool `json:"use_variable_beat_size"`
	UseLast             bool `json:"use_last"`
	UseCache            bool `json:"use_cache"`
	UseWriteStrobes     bool `json:"use_write_strobes"`

	// UseACE enables the ACE coherence extension fields.
	UseACE bool `json:"use_ace"`
}

// Widths holds the derived width, in bits, of every payload field. A zero
// width means the field is not part of the interface.
type Widths struct {
	ID, BID, Addr, Len, Size, Burst, Cache, Last, Data, Strb, Resp int
	AUser, WUser, BUser, RUser                                     int
	Snoop, Domain, Barrier, Unique                                 int
}

// DefaultConfig returns a fully featured 64-bit AXI4 interface.
func DefaultConfig() Config {
	return Config{
		DataWidth:           64,
		AddrWidth:           32,
		IDWidth:             4,
		MaxBurstSize:        256,
		UseWriteResponses:   true,
		UseBurst:            true,
		UseFixedBurst:       true,
		UseWrapBurst:        true,
		UseVariableBeatSize: true,
		UseLast:             true,
		UseCache:            true,
		UseWriteStrobes:     true,
	}
}

// WithDataWidth returns a copy of the config with a different data width.
func (c Config) WithDataWidth(width int) Config {
	c.DataWidth = width
	return c
}

// WithLanes returns a copy of the config with a data bus of the given number
// of byte lanes.
func (c Config) WithLanes(lanes int) Config {
	return c.WithDataWidth(lanes * 8)
}

// Lanes returns the number of byte lanes of the data bus.
func (c Config) Lanes() int {
	return c.DataWidth / 8
}

// Widths derives the payload field widths.
func (c Config) Widths() Widths {
	w := Widths{
		ID:    c.IDWidth,
		Addr:  c.AddrWidth,
		Data:  c.DataWidth,
		AUser: c.AUserWidth,
		WUser: c.WUserWidth,
		RUser: c.RUserWidth,
		Resp:  2,
	}

	if c.UseWriteResponses {
		w.BID = c.IDWidth
		w.BUser = c.BUserWidth
	}

	if c.UseBurst {
		w.Len = log2Ceil(c.MaxBurstSize)
		if c.UseFixedBurst || c.UseWrapBurst {
			w.Burst = 2
		}
	}

	if c.UseVariableBeatSize {
		w.Size = 3
	}

	if c.UseLast {
		w.Last = 1
	}

	if c.UseCache {
		w.Cache = 4
	}

	if c.UseWriteStrobes {
		w.Strb = c.DataWidth / 8
	}

	if c.UseACE {
		w.Resp = 4
		w.Snoop = 4
		w.Domain = 2
		w.Barrier = 2
		w.Unique = 1
	}

	return w
}

// Validate checks that the interface can be modeled.
func (c Config) Validate() error {
	if c.DataWidth < 16 || c.DataWidth > 512 ||
		bits.OnesCount(uint(c.DataWidth)) != 1 {
		return fmt.Errorf(
			"data width must be a power of two in [16, 512], got %d",
			c.DataWidth)
	}

	if c.AddrWidth <= 0 || c.AddrWidth > 64 {
		return fmt.Errorf("address width must be in (0, 64], got %d",
			c.AddrWidth)
	}

	if c.IDWidth < 0 || c.IDWidth > 32 {
		return fmt.Errorf("id width must be in [0, 32], got %d", c.IDWidth)
	}

	if c.UseBurst && c.MaxBurstSize < 1 {
		return fmt.Errorf("max burst size must be > 0")
	}

	for _, u := range []int{
		c.AUserWidth, c.WUserWidth, c.BUserWidth, c.RUserWidth,
	} {
		if u < 0 || u > 64 {
			return fmt.Errorf("user width must be in [0, 64], got %d", u)
		}
	}

	return nil
}

func log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}

	return bits.Len(uint(n - 1))
}

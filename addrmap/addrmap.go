// Package addrmap resolves addresses to destination slave indices.
package addrmap

import (
	"errors"
	"fmt"
	"log"
)

// ErrUnmapped is returned when no range contains an address.
var ErrUnmapped = errors.New("address is not mapped")

// Range is an inclusive address range.
type Range struct {
	Low  uint64 `json:"low"`
	High uint64 `json:"high"`
}

// Contains tells if the address falls in the range.
func (r Range) Contains(addr uint64) bool {
	return addr >= r.Low && addr <= r.High
}

// Map assigns the i-th range to destination i. Ranges are searched in order
// and the first match wins.
type Map struct {
	Ranges []Range `json:"ranges"`
}

// New creates a map over the given ranges.
func New(ranges ...Range) *Map {
	return &Map{Ranges: ranges}
}

// Resolve returns the destination index of an address.
func (m *Map) Resolve(addr uint64) (int, error) {
	for i, r := range m.Ranges {
		if r.Contains(addr) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr)
}

// MustResolve returns the destination index of an address and panics when
// the address is not mapped. An unmapped address is a configuration error.
func (m *Map) MustResolve(addr uint64) int {
	dst, err := m.Resolve(addr)
	if err != nil {
		log.Panicf("addrmap: %v", err)
	}

	return dst
}

// Len returns the number of destinations.
func (m *Map) Len() int {
	return len(m.Ranges)
}

// Validate checks that every range is well formed.
func (m *Map) Validate() error {
	if len(m.Ranges) == 0 {
		return errors.New("address map has no range")
	}

	for i, r := range m.Ranges {
		if r.Low > r.High {
			return fmt.Errorf("range %d: low 0x%x is above high 0x%x",
				i, r.Low, r.High)
		}
	}

	return nil
}

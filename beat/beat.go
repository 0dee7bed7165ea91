// Package beat models how the bytes of a burst are laid out on the byte
// lanes of a data bus, beat by beat.
package beat

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/sarchlab/axitb/axi"
)

// Beat lists, in burst order, the lane each byte of one beat travels on.
type Beat struct {
	Lanes []int
	Last  bool
}

// ErrUnaligned reports a burst whose address is not a multiple of its beat
// size.
var ErrUnaligned = errors.New("burst address is not aligned to its beat size")

// CheckAligned returns ErrUnaligned when the burst does not start on a beat
// boundary. The byte model only describes aligned bursts.
func CheckAligned(req axi.AddrPayload) error {
	if req.Addr.Get()%uint64(req.BeatBytes()) != 0 {
		return fmt.Errorf("%w: addr 0x%x, %d-byte beats",
			ErrUnaligned, req.Addr.Get(), req.BeatBytes())
	}

	return nil
}

// Segment splits the burst into beats for a bus of the given number of
// lanes. The byte pointer starts at addr mod lanes. Fixed bursts cycle
// within the beat-sized window holding the start lane; other bursts rotate
// over every lane. Every beat carries 2^size bytes, so a burst always has
// len+1 beats and only the final one is last.
func Segment(req axi.AddrPayload, lanes int) []Beat {
	total := req.Bytes()
	beatBytes := req.BeatBytes()
	fixed := req.BurstKind() == axi.Fixed

	init := int(req.Addr.Get() % uint64(lanes))
	base := init &^ (beatBytes - 1)
	ptr := init

	beats := make([]Beat, 0, req.Beats())
	cur := Beat{}

	for k := 0; k < total; k++ {
		cur.Lanes = append(cur.Lanes, ptr)

		if fixed {
			ptr = base + (ptr-base+1)%beatBytes
		} else {
			ptr = (ptr + 1) % lanes
		}

		if (k+1)%beatBytes == 0 || k == total-1 {
			cur.Last = k == total-1
			beats = append(beats, cur)
			cur = Beat{}
		}
	}

	return beats
}

// Downsize returns the burst as seen by a bus of the given number of lanes.
// When a beat is wider than the bus, the beat size shrinks to the bus width
// and the beat count grows so that the burst carries the same bytes.
func Downsize(req axi.AddrPayload, lanes int) axi.AddrPayload {
	if req.BeatBytes() <= lanes {
		return req
	}

	size := Log2(lanes)
	shift := int(req.Size.Get()) - size

	out := req
	out.Size.Set(uint64(size))
	out.Len.Set((uint64(req.Beats()) << shift) - 1)

	return out
}

// Fill lays the bytes of one beat on a bus. Byte i of the beat carries
// value(first + i), where first is the position of the beat's first byte in
// the burst. The returned strobe has one bit per used lane.
func Fill(
	b Beat,
	lanes int,
	first int,
	value func(k int) byte,
) (data []byte, strb uint64) {
	data = make([]byte, lanes)

	for i, lane := range b.Lanes {
		data[lane] = value(first + i)
		strb |= uint64(1) << lane
	}

	return data, strb
}

// Bytes extracts the bytes of one beat from the bus in burst order.
func Bytes(b Beat, data []byte) []byte {
	out := make([]byte, len(b.Lanes))

	for i, lane := range b.Lanes {
		out[i] = data[lane]
	}

	return out
}

// Log2 returns floor(log2(n)).
func Log2(n int) int {
	if n <= 1 {
		return 0
	}

	return bits.Len(uint(n)) - 1
}

// Log2Ceil returns ceil(log2(n)).
func Log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}

	return bits.Len(uint(n - 1))
}

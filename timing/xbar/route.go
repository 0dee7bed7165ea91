package xbar

import (
	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
)

// stream carries the bytes of one burst across a width change. Bytes enter
// in burst order from one side's segmentation and leave through the other
// side's.
type stream struct {
	bytes    []byte
	consumed int

	in     []beat.Beat
	inNext int

	out     []beat.Beat
	outNext int
}

func newStream(in, out []beat.Beat) *stream {
	return &stream{in: in, out: out}
}

// put appends the bytes of the next incoming beat.
func (s *stream) put(data []byte) {
	s.bytes = append(s.bytes, beat.Bytes(s.in[s.inNext], data)...)
	s.inNext++
}

func (s *stream) inDone() bool {
	return s.inNext == len(s.in)
}

func (s *stream) outDone() bool {
	return s.outNext == len(s.out)
}

// ready tells if enough bytes arrived to form the next outgoing beat.
func (s *stream) ready() bool {
	if s.outDone() {
		return false
	}

	return len(s.bytes)-s.consumed >= len(s.out[s.outNext].Lanes)
}

// peek lays the next outgoing beat on a bus of the given lanes without
// consuming it.
func (s *stream) peek(lanes int) (data []byte, strb uint64, last bool) {
	b := s.out[s.outNext]
	data, strb = beat.Fill(b, lanes, 0, func(k int) byte {
		return s.bytes[s.consumed+k]
	})

	return data, strb, b.Last
}

// advance consumes the beat returned by the last peek.
func (s *stream) advance() {
	s.consumed += len(s.out[s.outNext].Lanes)
	s.outNext++
}

type readRoute struct {
	master int
	dst    int
	req    axi.AddrPayload
	stream *stream
	resp   uint64
}

type writeRoute struct {
	master int
	dst    int
	req    axi.AddrPayload
	stream *stream
}

// idGuard tracks, per transaction identifier, the destination and number
// of bursts a master has in flight.
type idGuard struct {
	dst   map[uint64]int
	count map[uint64]int
}

func newIDGuard() *idGuard {
	return &idGuard{
		dst:   make(map[uint64]int),
		count: make(map[uint64]int),
	}
}

// allows tells if a burst with the id may go to dst without risking its
// response overtaking an older one.
func (g *idGuard) allows(id uint64, dst int) bool {
	return g.count[id] == 0 || g.dst[id] == dst
}

func (g *idGuard) add(id uint64, dst int) {
	g.dst[id] = dst
	g.count[id]++
}

func (g *idGuard) remove(id uint64) {
	g.count[id]--
	if g.count[id] <= 0 {
		delete(g.count, id)
		delete(g.dst, id)
	}
}

func (g *idGuard) inFlight() int {
	n := 0
	for _, c := range g.count {
		n += c
	}

	return n
}

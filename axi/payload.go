package axi

import (
	"bytes"
	"fmt"
	"strings"
)

// BurstKind is the AxBURST encoding of a burst.
type BurstKind uint64

// Burst kinds as encoded on the AxBURST field.
const (
	Fixed BurstKind = 0
	Incr  BurstKind = 1
	Wrap  BurstKind = 2
)

func (k BurstKind) String() string {
	switch k {
	case Fixed:
		return "FIXED"
	case Incr:
		return "INCR"
	case Wrap:
		return "WRAP"
	default:
		return fmt.Sprintf("BURST(%d)", uint64(k))
	}
}

// AddrPayload is the content of an AR or AW handshake. It describes one
// burst.
type AddrPayload struct {
	ID    Field
	Addr  Field
	Burst Field
	Len   Field
	Size  Field
	Cache Field
	AUser Field

	Snoop   Field
	Domain  Field
	Barrier Field
	Unique  Field
}

// NewAddrPayload creates an all-zero address payload for the interface.
func NewAddrPayload(c Config) AddrPayload {
	w := c.Widths()

	return AddrPayload{
		ID:      NewField(w.ID, 0),
		Addr:    NewField(w.Addr, 0),
		Burst:   NewField(w.Burst, 0),
		Len:     NewField(w.Len, 0),
		Size:    NewField(w.Size, 0),
		Cache:   NewField(w.Cache, 0),
		AUser:   NewField(w.AUser, 0),
		Snoop:   NewField(w.Snoop, 0),
		Domain:  NewField(w.Domain, 0),
		Barrier: NewField(w.Barrier, 0),
		Unique:  NewField(w.Unique, 0),
	}
}

// BurstKind returns the kind of the burst.
func (p AddrPayload) BurstKind() BurstKind {
	return BurstKind(p.Burst.Get())
}

// Beats returns the number of beats of the burst.
func (p AddrPayload) Beats() int {
	return int(p.Len.Get()) + 1
}

// BeatBytes returns the number of bytes transferred per beat.
func (p AddrPayload) BeatBytes() int {
	return 1 << p.Size.Get()
}

// Bytes returns the number of bytes the burst transfers.
func (p AddrPayload) Bytes() int {
	return p.Beats() * p.BeatBytes()
}

// Width returns the number of bits the payload occupies on the wires.
func (p AddrPayload) Width() int {
	return p.ID.Width() + p.Addr.Width() + p.Burst.Width() + p.Len.Width() +
		p.Size.Width() + p.Cache.Width() + p.AUser.Width() +
		p.Snoop.Width() + p.Domain.Width() + p.Barrier.Width() +
		p.Unique.Width()
}

// Equal compares every field of two address payloads.
func (p AddrPayload) Equal(o AddrPayload) bool {
	return p.ID.Equal(o.ID) &&
		p.Addr.Equal(o.Addr) &&
		p.Burst.Equal(o.Burst) &&
		p.Len.Equal(o.Len) &&
		p.Size.Equal(o.Size) &&
		p.Cache.Equal(o.Cache) &&
		p.AUser.Equal(o.AUser) &&
		p.Snoop.Equal(o.Snoop) &&
		p.Domain.Equal(o.Domain) &&
		p.Barrier.Equal(o.Barrier) &&
		p.Unique.Equal(o.Unique)
}

func (p AddrPayload) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Id:%s Addr:%s Len:%s Sz:%s Bu:%s Ca:%s Usr:%s",
		p.ID, p.Addr, p.Len, p.Size, p.Burst, p.Cache, p.AUser)

	if p.Snoop.Present() {
		fmt.Fprintf(&b, " Snp:%s Dom:%s Bar:%s Unq:%s",
			p.Snoop, p.Domain, p.Barrier, p.Unique)
	}

	return b.String()
}

// ReadPayload is one R beat.
type ReadPayload struct {
	ID    Field
	Data  []byte
	Resp  Field
	Last  Field
	RUser Field
}

// NewReadPayload creates an all-zero read beat for the interface.
func NewReadPayload(c Config) ReadPayload {
	w := c.Widths()

	return ReadPayload{
		ID:    NewField(w.ID, 0),
		Data:  make([]byte, c.Lanes()),
		Resp:  NewField(w.Resp, 0),
		Last:  NewField(w.Last, 0),
		RUser: NewField(w.RUser, 0),
	}
}

// IsLast tells if the beat closes its burst. Without a last signal every
// beat is reported as the last one.
func (p ReadPayload) IsLast() bool {
	return !p.Last.Present() || p.Last.Get() == 1
}

// Width returns the number of bits the payload occupies on the wires.
func (p ReadPayload) Width() int {
	return p.ID.Width() + len(p.Data)*8 + p.Resp.Width() + p.Last.Width() +
		p.RUser.Width()
}

// Matches compares the fields a read response is verified on: identifier,
// data, response code and last flag.
func (p ReadPayload) Matches(o ReadPayload) bool {
	return p.ID.Equal(o.ID) &&
		bytes.Equal(p.Data, o.Data) &&
		p.Resp.Equal(o.Resp) &&
		p.Last.Equal(o.Last)
}

func (p ReadPayload) String() string {
	return fmt.Sprintf("Id:%s Data:%s Resp:%s Last:%s Usr:%s",
		p.ID, hexData(p.Data), p.Resp, p.Last, p.RUser)
}

// WritePayload is one W beat.
type WritePayload struct {
	Data  []byte
	Last  Field
	Strb  Field
	WUser Field
}

// NewWritePayload creates a write beat whose strobe has every lane enabled.
func NewWritePayload(c Config) WritePayload {
	w := c.Widths()

	return WritePayload{
		Data:  make([]byte, c.Lanes()),
		Last:  NewField(w.Last, 0),
		Strb:  NewField(w.Strb, ^uint64(0)),
		WUser: NewField(w.WUser, 0),
	}
}

// IsLast tells if the beat closes its burst.
func (p WritePayload) IsLast() bool {
	return !p.Last.Present() || p.Last.Get() == 1
}

// Width returns the number of bits the payload occupies on the wires.
func (p WritePayload) Width() int {
	return len(p.Data)*8 + p.Last.Width() + p.Strb.Width() + p.WUser.Width()
}

// Equal compares data, last flag and strobe.
func (p WritePayload) Equal(o WritePayload) bool {
	return bytes.Equal(p.Data, o.Data) &&
		p.Last.Equal(o.Last) &&
		p.Strb.Equal(o.Strb)
}

func (p WritePayload) String() string {
	return fmt.Sprintf("Data:%s Last:%s Strb:%s Usr:%s",
		hexData(p.Data), p.Last, p.Strb, p.WUser)
}

// WRespPayload is one B handshake.
type WRespPayload struct {
	ID    Field
	Resp  Field
	BUser Field
}

// NewWRespPayload creates an all-zero write response for the interface.
func NewWRespPayload(c Config) WRespPayload {
	w := c.Widths()

	return WRespPayload{
		ID:    NewField(w.BID, 0),
		Resp:  NewField(w.Resp, 0),
		BUser: NewField(w.BUser, 0),
	}
}

// Width returns the number of bits the payload occupies on the wires.
func (p WRespPayload) Width() int {
	return p.ID.Width() + p.Resp.Width() + p.BUser.Width()
}

// Matches compares identifier and response code.
func (p WRespPayload) Matches(o WRespPayload) bool {
	return p.ID.Equal(o.ID) && p.Resp.Equal(o.Resp)
}

func (p WRespPayload) String() string {
	return fmt.Sprintf("Id:%s Resp:%s Usr:%s", p.ID, p.Resp, p.BUser)
}

// hexData prints the data bus most significant lane first.
func hexData(data []byte) string {
	var b strings.Builder

	for i := len(data) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%02x", data[i])
	}

	return b.String()
}

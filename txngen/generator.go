// Package txngen synthesizes random AXI bursts together with the effects
// they must have at the far side of a width converter.
package txngen

import (
	"math/rand"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
)

// A Resolver maps an address to the destination slave.
type Resolver interface {
	MustResolve(addr uint64) int
}

// Config configures a Generator.
type Config struct {
	// Master is the index of the issuing master. Writes carry it in their
	// final byte.
	Master int

	// RdMaster and RdSlave describe the read interfaces on both sides of
	// the converter. WrMaster and WrSlave do the same for writes.
	RdMaster, RdSlave axi.Config
	WrMaster, WrSlave axi.Config

	// IDCount is the number of transaction identifiers in use.
	IDCount int

	// MaxLen bounds the len field of fixed bursts and the beat count of
	// wrapping bursts.
	MaxLen int

	// MaxIncrLen bounds the len field of incrementing bursts before the
	// downsizing adjustment.
	MaxIncrLen int

	// AddrStride is the offset of the alternate address.
	AddrStride uint64
}

// ReadTxn is a generated read burst and its expected effects.
type ReadTxn struct {
	Master axi.AddrPayload
	Slave  axi.AddrPayload
	Dst    int
	Beats  []axi.ReadPayload
}

// WriteTxn is a generated write burst and its expected effects.
type WriteTxn struct {
	Master      axi.AddrPayload
	Slave       axi.AddrPayload
	Dst         int
	MasterBeats []axi.WritePayload
	SlaveBeats  []axi.WritePayload
	Resp        axi.WRespPayload
}

// Generator produces random bursts. It is not safe for concurrent use.
type Generator struct {
	cfg      Config
	resolver Resolver
	rng      *rand.Rand

	rdAddr uint64
	wrAddr uint64
}

// New creates a Generator drawing from the given random source.
func New(cfg Config, resolver Resolver, rng *rand.Rand) *Generator {
	return &Generator{
		cfg:      cfg,
		resolver: resolver,
		rng:      rng,
	}
}

// NextRead generates a random read burst.
func (g *Generator) NextRead() (ReadTxn, error) {
	req := g.randomBurst(g.cfg.RdMaster, g.cfg.RdSlave, &g.rdAddr)
	return g.BuildRead(req)
}

// NextWrite generates a random write burst.
func (g *Generator) NextWrite() (WriteTxn, error) {
	req := g.randomBurst(g.cfg.WrMaster, g.cfg.WrSlave, &g.wrAddr)
	return g.BuildWrite(req)
}

func (g *Generator) randomBurst(
	mCfg, sCfg axi.Config,
	counter *uint64,
) axi.AddrPayload {
	mLanes := mCfg.Lanes()
	sLanes := sCfg.Lanes()
	sizeBits := beat.Log2Ceil(mLanes)

	req := axi.NewAddrPayload(mCfg)
	req.ID.Set(uint64(g.rng.Intn(g.cfg.IDCount)))
	req.Size.Set(uint64((g.rng.Intn(sizeBits) + 1) & ((1 << sizeBits) - 1)))

	kind := axi.BurstKind(g.rng.Intn(3))
	req.Burst.Set(uint64(kind))
	req.Len.Set(uint64(g.randomLen(kind, mLanes, sLanes)))

	if g.rng.Intn(2) == 1 {
		req.Addr.Set(*counter)
	} else {
		req.Addr.Set(*counter + g.cfg.AddrStride)
	}
	*counter += uint64(mLanes)

	return req
}

func (g *Generator) randomLen(kind axi.BurstKind, mLanes, sLanes int) int {
	switch kind {
	case axi.Wrap:
		k := g.rng.Intn(beat.Log2Ceil(g.cfg.MaxLen + 1))
		return (1 << k) - 1
	case axi.Fixed:
		return g.rng.Intn(g.cfg.MaxLen)
	default:
		bound := g.cfg.MaxIncrLen
		if mLanes > sLanes {
			bound /= mLanes / sLanes
		}

		return g.rng.Intn(max(bound, 1))
	}
}

// BuildRead derives the slave view, the destination and the expected
// response beats of a read burst. Bursts not aligned to their beat size are
// rejected with beat.ErrUnaligned.
func (g *Generator) BuildRead(req axi.AddrPayload) (ReadTxn, error) {
	if err := beat.CheckAligned(req); err != nil {
		return ReadTxn{}, err
	}

	mLanes := g.cfg.RdMaster.Lanes()
	slave := beat.Downsize(req, g.cfg.RdSlave.Lanes())
	dst := g.resolver.MustResolve(slave.Addr.Get())

	txn := ReadTxn{Master: req, Slave: slave, Dst: dst}

	first := 0
	for _, b := range beat.Segment(req, mLanes) {
		r := axi.NewReadPayload(g.cfg.RdMaster)
		r.ID.Set(req.ID.Get())
		r.Data, _ = beat.Fill(b, mLanes, first, ReadByte)
		r.Resp.Set(uint64(dst))
		if b.Last {
			r.Last.Set(1)
		}

		txn.Beats = append(txn.Beats, r)
		first += len(b.Lanes)
	}

	return txn, nil
}

// BuildWrite derives the slave view, the destination, the beats on both
// sides and the expected write response of a write burst. Unaligned bursts
// are rejected like in BuildRead.
func (g *Generator) BuildWrite(req axi.AddrPayload) (WriteTxn, error) {
	if err := beat.CheckAligned(req); err != nil {
		return WriteTxn{}, err
	}

	slave := beat.Downsize(req, g.cfg.WrSlave.Lanes())
	dst := g.resolver.MustResolve(slave.Addr.Get())

	txn := WriteTxn{Master: req, Slave: slave, Dst: dst}

	value := WriteByte(req.Bytes(), g.cfg.Master)
	txn.MasterBeats = writeBeats(req, g.cfg.WrMaster, value)
	txn.SlaveBeats = writeBeats(slave, g.cfg.WrSlave, value)

	txn.Resp = axi.NewWRespPayload(g.cfg.WrMaster)
	txn.Resp.ID.Set(req.ID.Get())
	txn.Resp.Resp.Set(uint64(dst))

	return txn, nil
}

func writeBeats(
	req axi.AddrPayload,
	cfg axi.Config,
	value func(k int) byte,
) []axi.WritePayload {
	lanes := cfg.Lanes()

	var beats []axi.WritePayload
	first := 0
	for _, b := range beat.Segment(req, lanes) {
		w := axi.NewWritePayload(cfg)

		var strb uint64
		w.Data, strb = beat.Fill(b, lanes, first, value)
		w.Strb.Set(strb)
		if b.Last {
			w.Last.Set(1)
		}

		beats = append(beats, w)
		first += len(b.Lanes)
	}

	return beats
}

// ReadByte is the content of byte k of every read burst.
func ReadByte(k int) byte {
	return byte(k & 0xFF)
}

// WriteByte returns the content of the bytes of a write burst of total
// bytes issued by the given master. The final byte carries the master
// index.
func WriteByte(total, master int) func(k int) byte {
	return func(k int) byte {
		if k == total-1 {
			return byte(master & 0xFF)
		}

		return byte(k & 0xFF)
	}
}

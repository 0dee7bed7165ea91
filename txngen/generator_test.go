package txngen_test

import (
	"math/bits"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
	"github.com/sarchlab/axitb/txngen"
)

func readBytes(beats []axi.ReadPayload, req axi.AddrPayload, lanes int) []byte {
	var out []byte
	for i, b := range beat.Segment(req, lanes) {
		out = append(out, beat.Bytes(b, beats[i].Data)...)
	}

	return out
}

func writeBytes(
	beats []axi.WritePayload,
	req axi.AddrPayload,
	lanes int,
) []byte {
	var out []byte
	for i, b := range beat.Segment(req, lanes) {
		out = append(out, beat.Bytes(b, beats[i].Data)...)
	}

	return out
}

var _ = Describe("Generator", func() {
	var (
		cfg  txngen.Config
		amap *addrmap.Map
		gen  *txngen.Generator
	)

	nextRead := func() txngen.ReadTxn {
		txn, err := gen.NextRead()
		Expect(err).NotTo(HaveOccurred())
		return txn
	}

	nextWrite := func(g *txngen.Generator) txngen.WriteTxn {
		txn, err := g.NextWrite()
		Expect(err).NotTo(HaveOccurred())
		return txn
	}

	BeforeEach(func() {
		bus := axi.DefaultConfig()
		cfg = txngen.Config{
			Master:     3,
			RdMaster:   bus.WithLanes(8),
			RdSlave:    bus.WithLanes(4),
			WrMaster:   bus.WithLanes(8),
			WrSlave:    bus.WithLanes(2),
			IDCount:    4,
			MaxLen:     4,
			MaxIncrLen: 4,
			AddrStride: 0x10000,
		}
		amap = addrmap.New(
			addrmap.Range{Low: 0x0, High: 0xFFFF},
			addrmap.Range{Low: 0x10000, High: 0x1FFFF},
		)
		gen = txngen.New(cfg, amap, rand.New(rand.NewSource(1)))
	})

	It("should generate legal read bursts", func() {
		var lastAddr uint64
		for i := 0; i < 500; i++ {
			txn := nextRead()
			req := txn.Master

			Expect(req.ID.Get()).To(BeNumerically("<", 4))
			Expect(req.Size.Get()).To(BeNumerically(">=", 1))
			Expect(req.Size.Get()).To(BeNumerically("<=", 3))

			if req.BurstKind() == axi.Wrap {
				n := req.Beats()
				Expect(bits.OnesCount(uint(n))).To(Equal(1))
				Expect(n).To(BeNumerically("<=", 4))
			}

			counter := req.Addr.Get() % 0x10000
			Expect(counter).To(BeNumerically(">=", lastAddr))
			lastAddr = counter

			Expect(txn.Dst).To(Equal(amap.MustResolve(req.Addr.Get())))
		}
	})

	It("should expect one response beat per master beat", func() {
		for i := 0; i < 200; i++ {
			txn := nextRead()

			Expect(txn.Beats).To(HaveLen(
				len(beat.Segment(txn.Master, 8))))

			lasts := 0
			for _, b := range txn.Beats {
				Expect(b.Resp.Get()).To(Equal(uint64(txn.Dst)))
				Expect(b.ID.Equal(txn.Master.ID)).To(BeTrue())
				if b.IsLast() {
					lasts++
				}
			}
			Expect(lasts).To(Equal(1))
			Expect(txn.Beats[len(txn.Beats)-1].IsLast()).To(BeTrue())

			data := readBytes(txn.Beats, txn.Master, 8)
			Expect(data).To(HaveLen(txn.Master.Bytes()))
			for k, v := range data {
				Expect(v).To(Equal(byte(k & 0xFF)))
			}
		}
	})

	It("should keep downsized incrementing bursts within bounds", func() {
		for i := 0; i < 500; i++ {
			txn := nextRead()
			if txn.Master.BurstKind() != axi.Incr {
				continue
			}

			Expect(txn.Master.Len.Get()).To(BeNumerically("<", 2))
			Expect(txn.Slave.Bytes()).To(Equal(txn.Master.Bytes()))
		}
	})

	It("should describe the same bytes on both sides of a write", func() {
		for i := 0; i < 300; i++ {
			txn := nextWrite(gen)

			m := writeBytes(txn.MasterBeats, txn.Master, 8)
			s := writeBytes(txn.SlaveBeats, txn.Slave, 2)

			Expect(s).To(Equal(m))
			Expect(m[len(m)-1]).To(Equal(byte(3)))
			Expect(txn.Resp.Resp.Get()).To(Equal(uint64(txn.Dst)))
			Expect(txn.Resp.ID.Equal(txn.Master.ID)).To(BeTrue())
			Expect(txn.SlaveBeats[len(txn.SlaveBeats)-1].IsLast()).
				To(BeTrue())
		}
	})

	It("should reproduce a sequence from the same seed", func() {
		other := txngen.New(cfg, amap, rand.New(rand.NewSource(1)))

		for i := 0; i < 50; i++ {
			Expect(nextWrite(gen).Master.Equal(nextWrite(other).Master)).
				To(BeTrue())
		}
	})

	Context("deterministic bursts", func() {
		It("should place sequential bytes without conversion", func() {
			bus := axi.DefaultConfig()
			cfg.RdMaster = bus.WithLanes(4)
			cfg.RdSlave = bus.WithLanes(4)
			gen = txngen.New(cfg, amap, rand.New(rand.NewSource(1)))

			req := axi.NewAddrPayload(cfg.RdMaster)
			req.Burst.Set(uint64(axi.Incr))
			req.Size.Set(1)
			req.Len.Set(3)

			txn, err := gen.BuildRead(req)
			Expect(err).NotTo(HaveOccurred())

			Expect(txn.Slave.Equal(req)).To(BeTrue())
			Expect(txn.Beats).To(HaveLen(4))
			Expect(txn.Beats[0].Data).To(Equal([]byte{0, 1, 0, 0}))
			Expect(txn.Beats[1].Data).To(Equal([]byte{0, 0, 2, 3}))
			Expect(txn.Beats[2].Data).To(Equal([]byte{4, 5, 0, 0}))
			Expect(txn.Beats[3].Data).To(Equal([]byte{0, 0, 6, 7}))
		})

		It("should inflate the slave burst on a 2:1 downsize", func() {
			cfg.RdSlave = axi.DefaultConfig().WithLanes(4)
			gen = txngen.New(cfg, amap, rand.New(rand.NewSource(1)))

			req := axi.NewAddrPayload(cfg.RdMaster)
			req.Burst.Set(uint64(axi.Incr))
			req.Size.Set(3)
			req.Len.Set(1)

			txn, err := gen.BuildRead(req)
			Expect(err).NotTo(HaveOccurred())

			Expect(txn.Slave.Size.Get()).To(Equal(uint64(2)))
			Expect(txn.Slave.Len.Get()).To(Equal(uint64(3)))
			Expect(txn.Slave.Bytes()).To(Equal(req.Bytes()))
		})

		It("should strobe the same window on every fixed beat", func() {
			bus := axi.DefaultConfig()
			cfg.WrMaster = bus.WithLanes(4)
			cfg.WrSlave = bus.WithLanes(4)
			gen = txngen.New(cfg, amap, rand.New(rand.NewSource(1)))

			req := axi.NewAddrPayload(cfg.WrMaster)
			req.Burst.Set(uint64(axi.Fixed))
			req.Size.Set(2)
			req.Len.Set(2)

			txn, err := gen.BuildWrite(req)
			Expect(err).NotTo(HaveOccurred())

			Expect(txn.MasterBeats).To(HaveLen(3))
			for _, b := range txn.MasterBeats {
				Expect(b.Strb.Get()).To(Equal(uint64(0xF)))
			}
			Expect(txn.MasterBeats[2].Data).To(Equal([]byte{8, 9, 10, 3}))
		})

		It("should route the alternate address to the second slave", func() {
			req := axi.NewAddrPayload(cfg.RdMaster)
			req.Addr.Set(0x10000)

			txn, err := gen.BuildRead(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(txn.Dst).To(Equal(1))
		})

		It("should reject bursts not aligned to their beat size", func() {
			req := axi.NewAddrPayload(cfg.RdMaster)
			req.Burst.Set(uint64(axi.Incr))
			req.Size.Set(2)
			req.Len.Set(1)
			req.Addr.Set(0x2)

			_, err := gen.BuildRead(req)
			Expect(err).To(MatchError(beat.ErrUnaligned))

			w := axi.NewAddrPayload(cfg.WrMaster)
			w.Burst.Set(uint64(axi.Fixed))
			w.Size.Set(3)
			w.Addr.Set(0x10004)

			_, err = gen.BuildWrite(w)
			Expect(err).To(MatchError(beat.ErrUnaligned))
		})
	})
})

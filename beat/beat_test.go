package beat_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
)

func burst(
	cfg axi.Config,
	kind axi.BurstKind,
	addr uint64,
	size, length int,
) axi.AddrPayload {
	req := axi.NewAddrPayload(cfg)
	req.Burst.Set(uint64(kind))
	req.Addr.Set(addr)
	req.Size.Set(uint64(size))
	req.Len.Set(uint64(length))

	return req
}

func flatten(beats []beat.Beat) []int {
	var lanes []int
	for _, b := range beats {
		lanes = append(lanes, b.Lanes...)
	}

	return lanes
}

var _ = Describe("Segment", func() {
	var cfg axi.Config

	BeforeEach(func() {
		cfg = axi.DefaultConfig()
	})

	It("should lay an incrementing burst over rotating lanes", func() {
		req := burst(cfg, axi.Incr, 0, 1, 3)

		beats := beat.Segment(req, 4)

		Expect(beats).To(HaveLen(4))
		Expect(beats[0].Lanes).To(Equal([]int{0, 1}))
		Expect(beats[1].Lanes).To(Equal([]int{2, 3}))
		Expect(beats[2].Lanes).To(Equal([]int{0, 1}))
		Expect(beats[3].Lanes).To(Equal([]int{2, 3}))
		Expect(beats[3].Last).To(BeTrue())
	})

	It("should keep a fixed burst in one window", func() {
		req := burst(cfg, axi.Fixed, 0, 2, 2)

		beats := beat.Segment(req, 4)

		Expect(beats).To(HaveLen(3))
		for _, b := range beats {
			Expect(b.Lanes).To(Equal([]int{0, 1, 2, 3}))
		}
	})

	It("should anchor the pointer at the address offset", func() {
		req := burst(cfg, axi.Incr, 0x6, 1, 1)

		beats := beat.Segment(req, 8)

		Expect(beats[0].Lanes).To(Equal([]int{6, 7}))
		Expect(beats[1].Lanes).To(Equal([]int{0, 1}))
	})

	It("should mark exactly the final beat as last", func() {
		for _, kind := range []axi.BurstKind{axi.Fixed, axi.Incr, axi.Wrap} {
			for size := 0; size <= 3; size++ {
				req := burst(cfg, kind, 0x100, size, 3)
				beats := beat.Segment(req, 8)

				total := 0
				lasts := 0
				for i, b := range beats {
					total += len(b.Lanes)
					if b.Last {
						lasts++
						Expect(i).To(Equal(len(beats) - 1))
					}
				}

				Expect(total).To(Equal(4 << size))
				Expect(lasts).To(Equal(1))
			}
		}
	})

	It("should keep an unaligned fixed burst inside its window", func() {
		req := burst(cfg, axi.Fixed, 0x2, 2, 2)

		beats := beat.Segment(req, 4)

		Expect(beats).To(HaveLen(3))
		first := 0
		for _, b := range beats {
			Expect(b.Lanes).To(Equal([]int{2, 3, 0, 1}))
			Expect(func() {
				beat.Fill(b, 4, first, func(k int) byte { return byte(k) })
			}).NotTo(Panic())
			first += len(b.Lanes)
		}

		beats = beat.Segment(burst(cfg, axi.Fixed, 0x1, 1, 2), 4)

		Expect(beats).To(HaveLen(3))
		for _, b := range beats {
			Expect(b.Lanes).To(Equal([]int{1, 0}))
		}
		Expect(beats[2].Last).To(BeTrue())
	})

	It("should give an unaligned incrementing burst len+1 beats", func() {
		req := burst(cfg, axi.Incr, 0x1, 1, 3)

		beats := beat.Segment(req, 4)

		Expect(beats).To(HaveLen(4))
		Expect(beats[0].Lanes).To(Equal([]int{1, 2}))
		Expect(beats[1].Lanes).To(Equal([]int{3, 0}))
		Expect(beats[3].Last).To(BeTrue())
	})
})

var _ = Describe("CheckAligned", func() {
	It("should reject a burst starting inside a beat", func() {
		cfg := axi.DefaultConfig()

		Expect(beat.CheckAligned(burst(cfg, axi.Incr, 0x1, 1, 3))).
			To(MatchError(beat.ErrUnaligned))
		Expect(beat.CheckAligned(burst(cfg, axi.Fixed, 0x6, 2, 0))).
			To(MatchError(beat.ErrUnaligned))
		Expect(beat.CheckAligned(burst(cfg, axi.Incr, 0x4, 2, 3))).
			To(Succeed())
		Expect(beat.CheckAligned(burst(cfg, axi.Incr, 0x3, 0, 3))).
			To(Succeed())
	})
})

var _ = Describe("Downsize", func() {
	var cfg axi.Config

	BeforeEach(func() {
		cfg = axi.DefaultConfig()
	})

	It("should shrink the beat and inflate the length", func() {
		req := burst(cfg, axi.Incr, 0, 3, 1)

		s := beat.Downsize(req, 4)

		Expect(s.Size.Get()).To(Equal(uint64(2)))
		Expect(s.Len.Get()).To(Equal(uint64(3)))
		Expect(s.Bytes()).To(Equal(req.Bytes()))
	})

	It("should pass narrow beats through", func() {
		req := burst(cfg, axi.Incr, 0, 1, 3)

		Expect(beat.Downsize(req, 4).Equal(req)).To(BeTrue())
	})

	It("should preserve the byte multiset across widths", func() {
		req := burst(cfg, axi.Wrap, 0x40, 3, 3)
		value := func(k int) byte { return byte(k) }

		collect := func(view axi.AddrPayload, lanes int) []byte {
			var out []byte
			first := 0
			for _, b := range beat.Segment(view, lanes) {
				data, _ := beat.Fill(b, lanes, first, value)
				out = append(out, beat.Bytes(b, data)...)
				first += len(b.Lanes)
			}
			return out
		}

		master := collect(req, 8)
		slave := collect(beat.Downsize(req, 2), 2)

		Expect(slave).To(ConsistOf(master))
	})
})

var _ = Describe("Fill", func() {
	It("should place values and set strobes on used lanes", func() {
		b := beat.Beat{Lanes: []int{2, 3}}

		data, strb := beat.Fill(b, 4, 10, func(k int) byte { return byte(k) })

		Expect(data).To(Equal([]byte{0, 0, 10, 11}))
		Expect(strb).To(Equal(uint64(0xC)))
		Expect(beat.Bytes(b, data)).To(Equal([]byte{10, 11}))
	})
})

var _ = Describe("Log2", func() {
	It("should round down and up", func() {
		Expect(beat.Log2(8)).To(Equal(3))
		Expect(beat.Log2(9)).To(Equal(3))
		Expect(beat.Log2Ceil(8)).To(Equal(3))
		Expect(beat.Log2Ceil(9)).To(Equal(4))
		Expect(beat.Log2Ceil(1)).To(Equal(0))
	})
})

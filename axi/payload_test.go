package axi_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axitb/axi"
)

var _ = Describe("Payload", func() {
	var cfg axi.Config

	BeforeEach(func() {
		cfg = axi.DefaultConfig()
	})

	Context("derived widths", func() {
		It("should derive AXI4 widths", func() {
			w := cfg.Widths()

			Expect(w.Len).To(Equal(8))
			Expect(w.Size).To(Equal(3))
			Expect(w.Burst).To(Equal(2))
			Expect(w.Strb).To(Equal(8))
			Expect(w.Resp).To(Equal(2))
			Expect(w.BID).To(Equal(4))
			Expect(w.Snoop).To(BeZero())
		})

		It("should widen the response and add coherence fields with ACE",
			func() {
				cfg.UseACE = true
				w := cfg.Widths()

				Expect(w.Resp).To(Equal(4))
				Expect(w.Snoop).To(Equal(4))
				Expect(w.Domain).To(Equal(2))
				Expect(w.Barrier).To(Equal(2))
				Expect(w.Unique).To(Equal(1))
			})

		It("should drop the write response id without write responses",
			func() {
				cfg.UseWriteResponses = false
				Expect(cfg.Widths().BID).To(BeZero())
				Expect(axi.NewWRespPayload(cfg).ID.Present()).To(BeFalse())
			})

		It("should drop len and burst without bursts", func() {
			cfg.UseBurst = false
			w := cfg.Widths()

			Expect(w.Len).To(BeZero())
			Expect(w.Burst).To(BeZero())
		})
	})

	Context("validation", func() {
		It("should accept the default interface", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should reject a single lane bus", func() {
			Expect(cfg.WithDataWidth(8).Validate()).NotTo(Succeed())
		})

		It("should reject a bus that is not a power of two", func() {
			Expect(cfg.WithDataWidth(48).Validate()).NotTo(Succeed())
		})
	})

	It("should compute the burst geometry", func() {
		p := axi.NewAddrPayload(cfg)
		p.Len.Set(3)
		p.Size.Set(2)
		p.Burst.Set(uint64(axi.Wrap))

		Expect(p.Beats()).To(Equal(4))
		Expect(p.BeatBytes()).To(Equal(4))
		Expect(p.Bytes()).To(Equal(16))
		Expect(p.BurstKind()).To(Equal(axi.Wrap))
	})

	It("should enable every strobe lane by default", func() {
		w := axi.NewWritePayload(cfg)
		Expect(w.Strb.Get()).To(Equal(uint64(0xFF)))
		Expect(w.Data).To(HaveLen(8))
	})

	It("should sum the widths of present fields", func() {
		r := axi.NewReadPayload(cfg)
		Expect(r.Width()).To(Equal(4 + 64 + 2 + 1))
	})

	It("should match read beats on id, data, resp and last only", func() {
		a := axi.NewReadPayload(cfg)
		a.ID.Set(1)
		a.Data[0] = 0xAB
		a.Last.Set(1)

		b := a
		b.Data = append([]byte(nil), a.Data...)
		b.RUser.Set(5)
		Expect(a.Matches(b)).To(BeTrue())

		b.Data[0] = 0xAC
		Expect(a.Matches(b)).To(BeFalse())
	})

	It("should print address payloads", func() {
		p := axi.NewAddrPayload(cfg)
		p.ID.Set(2)
		p.Addr.Set(0x10000)

		Expect(p.String()).To(HavePrefix("Id:2 Addr:10000 Len:0"))
	})

	It("should print data most significant lane first", func() {
		cfg = cfg.WithDataWidth(16)
		r := axi.NewReadPayload(cfg)
		r.Data[0] = 0x01
		r.Data[1] = 0x02

		Expect(r.String()).To(ContainSubstring("Data:0201"))
	})
})

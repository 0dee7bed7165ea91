package master_test

import (
	"bytes"
	"errors"
	"io"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/addrmap"
	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/scoreboard"
	"github.com/sarchlab/axitb/timing/master"
	"github.com/sarchlab/axitb/txngen"
)

type fakeHalter struct {
	errs []error
}

func (h *fakeHalter) Halt(err error) {
	h.errs = append(h.errs, err)
}

func (h *fakeHalter) Halted() bool {
	return len(h.errs) > 0
}

type eventLog struct {
	events []master.Event
}

func (l *eventLog) Record(e master.Event) {
	l.events = append(l.events, e)
}

var _ = Describe("Master", func() {
	var (
		mockCtrl *gomock.Controller
		sb       *MockScoreboard
		engine   sim.Engine
		amap     *addrmap.Map
		bus      axi.Config
		genCfg   txngen.Config
		gen      *txngen.Generator
		rdCh     axi.ReadChannels
		wrCh     axi.WriteChannels
		rdSlave  *axi.ReadSlave
		wrSlave  *axi.WriteSlave
		halter   *fakeHalter
		events   *eventLog
		builder  master.Builder
	)

	writeBurst := func(id, addr uint64) txngen.WriteTxn {
		req := axi.NewAddrPayload(bus)
		req.ID.Set(id)
		req.Addr.Set(addr)
		req.Burst.Set(uint64(axi.Incr))
		req.Size.Set(2)
		txn, err := gen.BuildWrite(req)
		Expect(err).NotTo(HaveOccurred())
		return txn
	}

	readBurst := func(id, addr uint64) txngen.ReadTxn {
		req := axi.NewAddrPayload(bus)
		req.ID.Set(id)
		req.Addr.Set(addr)
		req.Burst.Set(uint64(axi.Incr))
		req.Size.Set(2)
		req.Len.Set(1)
		txn, err := gen.BuildRead(req)
		Expect(err).NotTo(HaveOccurred())
		return txn
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sb = NewMockScoreboard(mockCtrl)
		engine = sim.NewSerialEngine()
		amap = addrmap.New(
			addrmap.Range{Low: 0x0, High: 0xFFFF},
			addrmap.Range{Low: 0x10000, High: 0x1FFFF},
		)
		bus = axi.DefaultConfig().WithLanes(4)
		genCfg = txngen.Config{
			RdMaster:   bus,
			RdSlave:    bus,
			WrMaster:   bus,
			WrSlave:    bus,
			IDCount:    4,
			MaxLen:     4,
			MaxIncrLen: 4,
			AddrStride: 0x10000,
		}
		gen = txngen.New(genCfg, amap, nil)

		rdCh = axi.NewReadChannels("Master[0]", 4)
		wrCh = axi.NewWriteChannels("Master[0]", 4)
		rdSlave = axi.NewReadSlave(rdCh)
		wrSlave = axi.NewWriteSlave(wrCh)
		rdSlave.Reset()
		wrSlave.Reset()

		halter = &fakeHalter{}
		events = &eventLog{}

		builder = master.MakeBuilder().
			WithEngine(engine).
			WithScoreboard(sb).
			WithResolver(amap).
			WithGeneratorConfig(genCfg).
			WithGenRates(0, 0).
			WithReadChannels(rdCh).
			WithWriteChannels(wrCh).
			WithStopSignal(master.StopAt(100)).
			WithHalter(halter).
			WithRecorder(events).
			WithLogger(log.New(io.Discard, "", 0))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should inject a read and accept its in-order response", func() {
		m := builder.Build("Master[0]")
		txn := readBurst(1, 0x40)

		sb.EXPECT().RecordRead(0, 0, txn.Slave, txn.Beats, uint64(0))
		m.IssueRead(txn, 0)

		Expect(m.Tick()).To(BeTrue())
		ar, ok := rdSlave.RecvAR()
		Expect(ok).To(BeTrue())
		Expect(ar.Equal(txn.Master)).To(BeTrue())

		for i, b := range txn.Beats {
			match := scoreboard.Match[axi.ReadPayload]{Found: true}
			if i == len(txn.Beats)-1 {
				match.Delay, match.HasDelay = 3, true
			}
			sb.EXPECT().VerifyRead(0, b, gomock.Any()).Return(match, nil)
			Expect(rdSlave.SendR(b)).To(BeTrue())
			m.Tick()
		}

		stats := m.Stats()
		Expect(stats.ARInjected).To(Equal(uint64(1)))
		Expect(stats.RBeats).To(Equal(uint64(2)))
		Expect(stats.RBursts).To(Equal(uint64(1)))
		Expect(stats.AvgReadDelay()).To(Equal(3.0))
		Expect(stats.Errors()).To(BeZero())
		Expect(m.Outstanding()).To(BeZero())
		Expect(halter.Halted()).To(BeFalse())
	})

	It("should inject address and data of a write independently", func() {
		m := builder.Build("Master[0]")
		txn := writeBurst(2, 0x10000)

		sb.EXPECT().RecordWrite(0, 1, txn.Slave, txn.SlaveBeats, txn.Resp,
			uint64(0))
		m.IssueWrite(txn, 0)
		m.Tick()

		wb, ok := wrSlave.NBWRead()
		Expect(ok).To(BeTrue())
		Expect(wb.Req.Equal(txn.Master)).To(BeTrue())
		Expect(wb.Beat.Equal(txn.MasterBeats[0])).To(BeTrue())
		Expect(m.Stats().AWInjected).To(Equal(uint64(1)))
		Expect(m.Stats().WInjected).To(Equal(uint64(1)))
	})

	It("should report a write response without a request", func() {
		m := builder.Build("Master[0]")
		resp := axi.NewWRespPayload(bus)
		resp.ID.Set(3)

		sb.EXPECT().VerifyWriteResp(0, resp, gomock.Any()).
			Return(scoreboard.Match[axi.WRespPayload]{Found: true}, nil)
		Expect(wrSlave.SendB(resp)).To(BeTrue())

		Expect(m.Tick()).To(BeFalse())

		var verr *master.VerificationError
		Expect(halter.errs).To(HaveLen(1))
		Expect(errors.As(halter.errs[0], &verr)).To(BeTrue())
		Expect(verr.Outcome).To(Equal(master.RequestMissing))
		Expect(verr.Error()).To(ContainSubstring("[Master 0] WR-Resp"))
		Expect(m.Stats().RequestMissing).To(Equal(uint64(1)))
	})

	It("should name the order queue head when a request is missing", func() {
		var logBuf bytes.Buffer
		m := builder.
			WithFailFast(false).
			WithLogger(log.New(&logBuf, "", 0)).
			Build("Master[0]")
		w := writeBurst(1, 0x40)

		sb.EXPECT().RecordWrite(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any())
		m.IssueWrite(w, 0)

		resp := axi.NewWRespPayload(bus)
		resp.ID.Set(3)
		sb.EXPECT().VerifyWriteResp(0, resp, gomock.Any()).
			Return(scoreboard.Match[axi.WRespPayload]{Found: true}, nil)
		Expect(wrSlave.SendB(resp)).To(BeTrue())

		m.Tick()

		Expect(m.Stats().RequestMissing).To(Equal(uint64(1)))
		Expect(logBuf.String()).To(ContainSubstring(
			"order queue head: " + w.Master.String()))
	})

	It("should flag a same-id response from the later destination", func() {
		m := builder.Build("Master[0]")
		a := writeBurst(1, 0x0)
		b := writeBurst(1, 0x10000)
		Expect(a.Dst).To(Equal(0))
		Expect(b.Dst).To(Equal(1))

		sb.EXPECT().RecordWrite(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
		m.IssueWrite(a, 0)
		m.IssueWrite(b, 0)

		sb.EXPECT().VerifyWriteResp(0, b.Resp, gomock.Any()).
			Return(scoreboard.Match[axi.WRespPayload]{Found: true}, nil)
		Expect(wrSlave.SendB(b.Resp)).To(BeTrue())
		m.Tick()

		Expect(halter.errs).To(HaveLen(1))
		var verr *master.VerificationError
		Expect(errors.As(halter.errs[0], &verr)).To(BeTrue())
		Expect(verr.Outcome).To(Equal(master.Reordered))
		Expect(m.Stats().Reordered).To(Equal(uint64(1)))
	})

	It("should let a missing expectation dominate", func() {
		m := builder.WithFailFast(false).Build("Master[0]")
		beat := axi.NewReadPayload(bus)
		beat.Last.Set(1)

		sb.EXPECT().VerifyRead(0, gomock.Any(), gomock.Any()).
			Return(scoreboard.Match[axi.ReadPayload]{}, nil)
		Expect(rdSlave.SendR(beat)).To(BeTrue())

		Expect(m.Tick()).To(BeTrue())
		Expect(halter.Halted()).To(BeFalse())
		Expect(m.Stats().NotFound).To(Equal(uint64(1)))
		Expect(m.Stats().RequestMissing).To(BeZero())
		Expect(events.events[len(events.events)-1].Outcome).
			To(Equal(master.NotFound))
	})

	It("should halt on a scoreboard failure", func() {
		m := builder.Build("Master[0]")
		txn := readBurst(0, 0)

		sb.EXPECT().RecordRead(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any()).Return(scoreboard.ErrClosed)
		m.IssueRead(txn, 0)

		Expect(halter.errs[0]).To(MatchError(scoreboard.ErrClosed))
		Expect(m.Outstanding()).To(BeZero())
	})

	It("should generate traffic at the configured rate", func() {
		m := builder.WithGenRates(100, 100).Build("Master[0]")

		sb.EXPECT().RecordRead(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any()).Times(3)
		sb.EXPECT().RecordWrite(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any(), gomock.Any()).Times(3)

		for i := 0; i < 3; i++ {
			m.Tick()
		}

		Expect(m.Stats().RdGenerated).To(Equal(uint64(3)))
		Expect(m.Stats().WrGenerated).To(Equal(uint64(3)))
		Expect(events.events).To(HaveLen(6))
	})

	It("should finish once stopped and drained", func() {
		m := builder.WithStopSignal(master.StopAt(0)).Build("Master[0]")

		Expect(m.Tick()).To(BeFalse())
		Expect(m.Done()).To(BeTrue())
	})

	It("should report a stall when responses never come", func() {
		m := builder.WithStallThreshold(20).Build("Master[0]")
		txn := readBurst(0, 0)

		sb.EXPECT().RecordRead(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any())
		m.IssueRead(txn, 0)
		m.TickLater()

		Expect(engine.Run()).To(Succeed())

		Expect(halter.errs).To(HaveLen(1))
		Expect(halter.errs[0]).To(MatchError(master.ErrStalled))
		Expect(m.Stats().Stalls).To(Equal(uint64(1)))
		Expect(m.Done()).To(BeFalse())
	})
})

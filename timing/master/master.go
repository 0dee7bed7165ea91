// Package master provides the traffic generating and verifying AXI master.
package master

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/order"
	"github.com/sarchlab/axitb/txngen"
)

// Stats counts the traffic of one master.
type Stats struct {
	RdGenerated uint64 `json:"rd_generated"`
	WrGenerated uint64 `json:"wr_generated"`

	ARInjected uint64 `json:"ar_injected"`
	AWInjected uint64 `json:"aw_injected"`
	WInjected  uint64 `json:"w_injected"`

	RBeats  uint64 `json:"r_beats"`
	RBursts uint64 `json:"r_bursts"`
	BResps  uint64 `json:"b_resps"`

	RdDelayTotal uint64 `json:"rd_delay_total"`
	WrDelayTotal uint64 `json:"wr_delay_total"`

	NotFound       uint64 `json:"not_found"`
	RequestMissing uint64 `json:"request_missing"`
	Reordered      uint64 `json:"reordered"`
	Stalls         uint64 `json:"stalls"`
	Internal       uint64 `json:"internal"`
}

// Errors returns the number of failures of any kind.
func (s Stats) Errors() uint64 {
	return s.NotFound + s.RequestMissing + s.Reordered + s.Stalls + s.Internal
}

// AvgReadDelay returns the average read burst latency in cycles.
func (s Stats) AvgReadDelay() float64 {
	if s.RBursts == 0 {
		return 0
	}

	return float64(s.RdDelayTotal) / float64(s.RBursts)
}

// AvgWriteDelay returns the average write latency in cycles.
func (s Stats) AvgWriteDelay() float64 {
	if s.BResps == 0 {
		return 0
	}

	return float64(s.WrDelayTotal) / float64(s.BResps)
}

// Master generates random bursts, injects them on its channels, and checks
// every response against the scoreboard and its order trackers.
type Master struct {
	*sim.TickingComponent

	index int
	rng   *rand.Rand
	gen   *txngen.Generator
	sb    Scoreboard

	resolver order.Resolver

	rd *axi.ReadMaster
	wr *axi.WriteMaster

	rdOrder *order.Tracker
	wrOrder *order.Tracker

	arQueue []axi.AddrPayload
	awQueue []axi.AddrPayload
	wQueue  []axi.WritePayload

	genRateRd int
	genRateWr int

	stop     StopSignal
	halter   Halter
	recorder Recorder
	logger   *log.Logger

	failFast       bool
	stallThreshold uint64
	lastProgress   uint64

	statsLock sync.Mutex
	stats     Stats
	done      bool
}

// Index returns the index of the master.
func (m *Master) Index() int {
	return m.index
}

// Stats returns a copy of the counters.
func (m *Master) Stats() Stats {
	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	return m.stats
}

// Done tells if the master has stopped generating and drained everything it
// issued.
func (m *Master) Done() bool {
	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	return m.done
}

// Outstanding returns the number of bursts waiting for a response.
func (m *Master) Outstanding() int {
	return m.rdOrder.Len() + m.wrOrder.Len()
}

// Tick runs one clock cycle: generate, inject, then eject and verify.
func (m *Master) Tick() bool {
	if m.halter.Halted() {
		return false
	}

	now := m.Freq.Cycle(m.CurrentTime())
	stopped := m.stop.Stopped(now)

	if !stopped {
		m.generate(now)
	}

	progress := m.inject()
	progress = m.eject(now) || progress

	if progress || !m.busy() {
		m.lastProgress = now
	}

	if stopped && !m.busy() {
		m.statsLock.Lock()
		m.done = true
		m.statsLock.Unlock()

		return false
	}

	m.checkStall(now)

	return !m.halter.Halted()
}

func (m *Master) busy() bool {
	return len(m.arQueue) > 0 || len(m.awQueue) > 0 || len(m.wQueue) > 0 ||
		m.Outstanding() > 0
}

func (m *Master) generate(now uint64) {
	if m.rng.Intn(100) < m.genRateRd {
		txn, err := m.gen.NextRead()
		if err != nil {
			m.internalError(err)
			return
		}

		m.IssueRead(txn, now)
	}

	if m.rng.Intn(100) < m.genRateWr {
		txn, err := m.gen.NextWrite()
		if err != nil {
			m.internalError(err)
			return
		}

		m.IssueWrite(txn, now)
	}
}

// IssueRead records the expectations of a read burst and queues it for
// injection.
func (m *Master) IssueRead(txn txngen.ReadTxn, now uint64) {
	err := m.sb.RecordRead(m.index, txn.Dst, txn.Slave, txn.Beats, now)
	if err != nil {
		m.internalError(err)
		return
	}

	m.rdOrder.Push(txn.Master)
	m.arQueue = append(m.arQueue, txn.Master)

	m.statsLock.Lock()
	m.stats.RdGenerated++
	m.statsLock.Unlock()

	m.record(Event{
		Kind:    ReadGenerated,
		Cycle:   now,
		ID:      txn.Master.ID.Get(),
		Addr:    txn.Master.Addr.Get(),
		Dst:     txn.Dst,
		Payload: txn.Master.String(),
	})
}

// IssueWrite records the expectations of a write burst and queues its
// address and data for injection.
func (m *Master) IssueWrite(txn txngen.WriteTxn, now uint64) {
	err := m.sb.RecordWrite(
		m.index, txn.Dst, txn.Slave, txn.SlaveBeats, txn.Resp, now)
	if err != nil {
		m.internalError(err)
		return
	}

	m.wrOrder.Push(txn.Master)
	m.awQueue = append(m.awQueue, txn.Master)
	m.wQueue = append(m.wQueue, txn.MasterBeats...)

	m.statsLock.Lock()
	m.stats.WrGenerated++
	m.statsLock.Unlock()

	m.record(Event{
		Kind:    WriteGenerated,
		Cycle:   now,
		ID:      txn.Master.ID.Get(),
		Addr:    txn.Master.Addr.Get(),
		Dst:     txn.Dst,
		Payload: txn.Master.String(),
	})
}

func (m *Master) inject() bool {
	progress := false

	m.statsLock.Lock()
	defer m.statsLock.Unlock()

	if len(m.arQueue) > 0 && m.rd.SendAR(m.arQueue[0]) {
		m.arQueue = m.arQueue[1:]
		m.stats.ARInjected++
		progress = true
	}

	if len(m.awQueue) > 0 && m.wr.SendAW(m.awQueue[0]) {
		m.awQueue = m.awQueue[1:]
		m.stats.AWInjected++
		progress = true
	}

	if len(m.wQueue) > 0 && m.wr.SendW(m.wQueue[0]) {
		m.wQueue = m.wQueue[1:]
		m.stats.WInjected++
		progress = true
	}

	return progress
}

func (m *Master) eject(now uint64) bool {
	progress := false

	if r, ok := m.rd.RecvR(); ok {
		m.verifyRead(r, now)
		progress = true
	}

	if b, ok := m.wr.RecvB(); ok {
		m.verifyWrite(b, now)
		progress = true
	}

	return progress
}

func (m *Master) verifyRead(got axi.ReadPayload, now uint64) {
	match, err := m.sb.VerifyRead(m.index, got, now)
	if err != nil {
		m.internalError(err)
		return
	}

	ord, req := m.rdOrder.Check(got.ID, got.Resp.Get(), got.IsLast())
	outcome := combine(match.Found, ord)

	m.statsLock.Lock()
	m.stats.RBeats++
	if got.IsLast() {
		m.stats.RBursts++
	}
	if match.HasDelay {
		m.stats.RdDelayTotal += match.Delay
	}
	m.statsLock.Unlock()

	m.record(Event{
		Kind:    ReadVerified,
		Cycle:   now,
		ID:      got.ID.Get(),
		Addr:    req.Addr.Get(),
		Dst:     int(got.Resp.Get()),
		Last:    got.IsLast(),
		Outcome: outcome,
		Delay:   match.Delay,
		Payload: got.String(),
	})

	if outcome == OK {
		return
	}

	var detail string
	switch outcome {
	case NotFound:
		detail = "expected head: none"
		if match.HasHead {
			detail = fmt.Sprintf("expected head: %s @%d",
				match.Head.Payload, match.Head.Generated)
		}
	case RequestMissing:
		detail = missingDetail("read", m.rdOrder)
	case Reordered:
		detail = fmt.Sprintf("oldest same-id read %s expects dst %d",
			req, m.resolveHint(req))
	}

	m.fail(&VerificationError{
		Master:  m.index,
		Channel: "RD-Resp : " + got.String(),
		Outcome: outcome,
		Cycle:   now,
		Detail:  detail,
	})
}

func (m *Master) verifyWrite(got axi.WRespPayload, now uint64) {
	match, err := m.sb.VerifyWriteResp(m.index, got, now)
	if err != nil {
		m.internalError(err)
		return
	}

	ord, req := m.wrOrder.Check(got.ID, got.Resp.Get(), true)
	outcome := combine(match.Found, ord)

	m.statsLock.Lock()
	m.stats.BResps++
	if match.HasDelay {
		m.stats.WrDelayTotal += match.Delay
	}
	m.statsLock.Unlock()

	m.record(Event{
		Kind:    WriteVerified,
		Cycle:   now,
		ID:      got.ID.Get(),
		Addr:    req.Addr.Get(),
		Dst:     int(got.Resp.Get()),
		Last:    true,
		Outcome: outcome,
		Delay:   match.Delay,
		Payload: got.String(),
	})

	if outcome == OK {
		return
	}

	var detail string
	switch outcome {
	case NotFound:
		detail = "expected head: none"
		if match.HasHead {
			detail = fmt.Sprintf("expected head: %s @%d",
				match.Head.Payload, match.Head.Generated)
		}
	case RequestMissing:
		detail = missingDetail("write", m.wrOrder)
	case Reordered:
		detail = fmt.Sprintf("oldest same-id write %s expects dst %d",
			req, m.resolveHint(req))
	}

	m.fail(&VerificationError{
		Master:  m.index,
		Channel: "WR-Resp : " + got.String(),
		Outcome: outcome,
		Cycle:   now,
		Detail:  detail,
	})
}

// combine merges the scoreboard lookup and the order check. A missing
// expectation dominates a missing request, which dominates a reorder.
func combine(found bool, ord order.Outcome) Outcome {
	switch {
	case !found:
		return NotFound
	case ord == order.RequestMissing:
		return RequestMissing
	case ord == order.Reordered:
		return Reordered
	default:
		return OK
	}
}

// missingDetail names the head of the order queue the response failed to
// match.
func missingDetail(kind string, t *order.Tracker) string {
	entries := t.Entries()
	if len(entries) == 0 {
		return fmt.Sprintf("no outstanding %s with this id, order queue empty",
			kind)
	}

	return fmt.Sprintf("no outstanding %s with this id, order queue head: %s",
		kind, entries[0])
}

func (m *Master) resolveHint(req axi.AddrPayload) int {
	return m.resolver.MustResolve(req.Addr.Get())
}

func (m *Master) fail(err *VerificationError) {
	m.logger.Print(err.Error())

	m.statsLock.Lock()
	switch err.Outcome {
	case NotFound:
		m.stats.NotFound++
	case RequestMissing:
		m.stats.RequestMissing++
	case Reordered:
		m.stats.Reordered++
	}
	m.statsLock.Unlock()

	if m.failFast {
		m.halter.Halt(err)
	}
}

func (m *Master) internalError(err error) {
	err = fmt.Errorf("master %d: %w", m.index, err)
	m.logger.Print(err)

	m.statsLock.Lock()
	m.stats.Internal++
	m.statsLock.Unlock()

	m.halter.Halt(err)
}

func (m *Master) checkStall(now uint64) {
	if m.stallThreshold == 0 || now-m.lastProgress < m.stallThreshold {
		return
	}

	err := fmt.Errorf(
		"master %d: %w for %d cycles with %d bursts outstanding "+
			"(AR %d, AW %d, W %d queued) @%d",
		m.index, ErrStalled, now-m.lastProgress, m.Outstanding(),
		len(m.arQueue), len(m.awQueue), len(m.wQueue), now)
	m.logger.Print(err)

	m.statsLock.Lock()
	m.stats.Stalls++
	m.statsLock.Unlock()

	m.halter.Halt(err)
}

func (m *Master) record(e Event) {
	if m.recorder == nil {
		return
	}

	e.Master = m.index
	m.recorder.Record(e)
}

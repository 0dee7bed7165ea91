// Package xbar provides the reference interconnect. It routes bursts from
// every master to the slave owning their address, converts the data between
// the bus widths of both sides, and keeps the responses of one transaction
// identifier in order.
package xbar

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
)

// ErrUnexpectedResponse reports a response a slave returned without a burst
// routed to it.
var ErrUnexpectedResponse = errors.New("unexpected response")

// Resolver maps an address to a slave index.
type Resolver interface {
	Resolve(addr uint64) (int, error)
}

// Halter stops the whole run.
type Halter interface {
	Halt(err error)
	Halted() bool
}

// Stats counts the traffic crossing the interconnect.
type Stats struct {
	ARRouted    uint64 `json:"ar_routed"`
	AWRouted    uint64 `json:"aw_routed"`
	RBeatsIn    uint64 `json:"r_beats_in"`
	RBeatsOut   uint64 `json:"r_beats_out"`
	WBeatsIn    uint64 `json:"w_beats_in"`
	WBeatsOut   uint64 `json:"w_beats_out"`
	BRouted     uint64 `json:"b_routed"`
	GuardStalls uint64 `json:"guard_stalls"`
}

// Xbar connects masters to slaves. Slaves must answer the bursts routed to
// them in the order they accepted them.
type Xbar struct {
	*sim.TickingComponent

	rdMaster, rdSlave axi.Config
	wrMaster, wrSlave axi.Config

	resolver     Resolver
	halter       Halter
	logger       *log.Logger
	allowReorder bool

	mRd []*axi.ReadSlave
	mWr []*axi.WriteSlave
	sRd []*axi.ReadMaster
	sWr []*axi.WriteMaster

	rdGuard []*idGuard
	wrGuard []*idGuard

	rdRoutes [][]*readRoute
	outR     [][]axi.ReadPayload
	rdStart  int

	wActive []*writeRoute
	wOrder  [][]*writeRoute
	bRoutes [][]*writeRoute
	outB    [][]axi.WRespPayload
	wrStart int

	outRCap int

	statsMu sync.Mutex
	stats   Stats
}

// Stats returns a copy of the counters.
func (x *Xbar) Stats() Stats {
	x.statsMu.Lock()
	defer x.statsMu.Unlock()

	return x.stats
}

// Pending returns the number of bursts routed but not yet answered.
func (x *Xbar) Pending() int {
	n := 0
	for i := range x.rdRoutes {
		n += len(x.rdRoutes[i]) + len(x.bRoutes[i])
	}

	for i := range x.outR {
		n += len(x.outR[i]) + len(x.outB[i])
	}

	return n
}

// Tick moves at most one handshake per channel.
func (x *Xbar) Tick() bool {
	if x.halter.Halted() {
		return false
	}

	progress := x.routeReads()
	progress = x.convertReads() || progress
	progress = x.returnReads() || progress
	progress = x.routeWrites() || progress
	progress = x.collectWriteData() || progress
	progress = x.forwardWriteData() || progress
	progress = x.convertWriteResps() || progress
	progress = x.returnWriteResps() || progress

	return progress
}

func (x *Xbar) routeReads() bool {
	progress := false
	granted := make([]bool, len(x.sRd))

	for k := range x.mRd {
		i := (x.rdStart + k) % len(x.mRd)

		req, ok := x.mRd[i].PeekAR()
		if !ok {
			continue
		}

		dst, err := x.resolver.Resolve(req.Addr.Get())
		if err != nil {
			x.fail(fmt.Errorf("%s: AR from master %d: %w", x.Name(), i, err))
			return true
		}

		if err := beat.CheckAligned(req); err != nil {
			x.fail(fmt.Errorf("%s: AR from master %d: %w", x.Name(), i, err))
			return true
		}

		if granted[dst] {
			continue
		}

		id := req.ID.Get()
		if !x.allowReorder && !x.rdGuard[i].allows(id, dst) {
			x.count(func(s *Stats) { s.GuardStalls++ })
			continue
		}

		sReq := beat.Downsize(req, x.rdSlave.Lanes())
		if !x.sRd[dst].SendAR(sReq) {
			continue
		}

		x.mRd[i].RecvAR()
		granted[dst] = true
		progress = true

		x.rdGuard[i].add(id, dst)
		x.rdRoutes[dst] = append(x.rdRoutes[dst], &readRoute{
			master: i,
			dst:    dst,
			req:    req,
			stream: newStream(
				beat.Segment(sReq, x.rdSlave.Lanes()),
				beat.Segment(req, x.rdMaster.Lanes()),
			),
		})
		x.count(func(s *Stats) { s.ARRouted++ })
	}

	x.rdStart = (x.rdStart + 1) % len(x.mRd)

	return progress
}

func (x *Xbar) convertReads() bool {
	progress := false

	for dst := range x.sRd {
		if len(x.rdRoutes[dst]) > 0 &&
			len(x.outR[x.rdRoutes[dst][0].master]) >= x.outRCap {
			continue
		}

		in, ok := x.sRd[dst].RecvR()
		if !ok {
			continue
		}

		progress = true
		x.count(func(s *Stats) { s.RBeatsIn++ })

		if len(x.rdRoutes[dst]) == 0 || x.rdRoutes[dst][0].stream.inDone() {
			x.fail(fmt.Errorf("%s: R from slave %d: %s: %w",
				x.Name(), dst, in, ErrUnexpectedResponse))
			return true
		}

		r := x.rdRoutes[dst][0]
		r.resp = in.Resp.Get()
		r.stream.put(in.Data)

		for r.stream.ready() {
			data, _, last := r.stream.peek(x.rdMaster.Lanes())
			r.stream.advance()

			out := axi.NewReadPayload(x.rdMaster)
			out.ID.Set(r.req.ID.Get())
			out.Data = data
			out.Resp.Set(r.resp)
			if last {
				out.Last.Set(1)
			}

			x.outR[r.master] = append(x.outR[r.master], out)
		}

		if r.stream.outDone() {
			x.rdRoutes[dst] = x.rdRoutes[dst][1:]
			x.rdGuard[r.master].remove(r.req.ID.Get())
		}
	}

	return progress
}

func (x *Xbar) returnReads() bool {
	progress := false

	for i := range x.mRd {
		if len(x.outR[i]) == 0 {
			continue
		}

		if !x.mRd[i].SendR(x.outR[i][0]) {
			continue
		}

		x.outR[i] = x.outR[i][1:]
		progress = true
		x.count(func(s *Stats) { s.RBeatsOut++ })
	}

	return progress
}

func (x *Xbar) routeWrites() bool {
	progress := false
	granted := make([]bool, len(x.sWr))

	for k := range x.mWr {
		i := (x.wrStart + k) % len(x.mWr)

		if x.wActive[i] != nil {
			continue
		}

		req, ok := x.mWr[i].PeekAW()
		if !ok {
			continue
		}

		dst, err := x.resolver.Resolve(req.Addr.Get())
		if err != nil {
			x.fail(fmt.Errorf("%s: AW from master %d: %w", x.Name(), i, err))
			return true
		}

		if err := beat.CheckAligned(req); err != nil {
			x.fail(fmt.Errorf("%s: AW from master %d: %w", x.Name(), i, err))
			return true
		}

		if granted[dst] {
			continue
		}

		id := req.ID.Get()
		if !x.allowReorder && !x.wrGuard[i].allows(id, dst) {
			x.count(func(s *Stats) { s.GuardStalls++ })
			continue
		}

		sReq := beat.Downsize(req, x.wrSlave.Lanes())
		if !x.sWr[dst].SendAW(sReq) {
			continue
		}

		x.mWr[i].RecvAW()
		granted[dst] = true
		progress = true

		r := &writeRoute{
			master: i,
			dst:    dst,
			req:    req,
			stream: newStream(
				beat.Segment(req, x.wrMaster.Lanes()),
				beat.Segment(sReq, x.wrSlave.Lanes()),
			),
		}
		x.wActive[i] = r
		x.wOrder[dst] = append(x.wOrder[dst], r)
		x.bRoutes[dst] = append(x.bRoutes[dst], r)
		x.wrGuard[i].add(id, dst)
		x.count(func(s *Stats) { s.AWRouted++ })
	}

	x.wrStart = (x.wrStart + 1) % len(x.mWr)

	return progress
}

func (x *Xbar) collectWriteData() bool {
	progress := false

	for i := range x.mWr {
		r := x.wActive[i]
		if r == nil {
			continue
		}

		w, ok := x.mWr[i].RecvW()
		if !ok {
			continue
		}

		r.stream.put(w.Data)
		progress = true
		x.count(func(s *Stats) { s.WBeatsIn++ })

		if r.stream.inDone() {
			x.wActive[i] = nil
		}
	}

	return progress
}

func (x *Xbar) forwardWriteData() bool {
	progress := false

	for dst := range x.sWr {
		if len(x.wOrder[dst]) == 0 {
			continue
		}

		r := x.wOrder[dst][0]
		if !r.stream.ready() {
			continue
		}

		data, strb, last := r.stream.peek(x.wrSlave.Lanes())

		out := axi.NewWritePayload(x.wrSlave)
		out.Data = data
		out.Strb.Set(strb)
		if last {
			out.Last.Set(1)
		}

		if !x.sWr[dst].SendW(out) {
			continue
		}

		r.stream.advance()
		progress = true
		x.count(func(s *Stats) { s.WBeatsOut++ })

		if r.stream.outDone() {
			x.wOrder[dst] = x.wOrder[dst][1:]
		}
	}

	return progress
}

func (x *Xbar) convertWriteResps() bool {
	progress := false

	for dst := range x.sWr {
		in, ok := x.sWr[dst].RecvB()
		if !ok {
			continue
		}

		progress = true

		if len(x.bRoutes[dst]) == 0 {
			x.fail(fmt.Errorf("%s: B from slave %d: %s: %w",
				x.Name(), dst, in, ErrUnexpectedResponse))
			return true
		}

		r := x.bRoutes[dst][0]
		x.bRoutes[dst] = x.bRoutes[dst][1:]
		x.wrGuard[r.master].remove(r.req.ID.Get())

		out := axi.NewWRespPayload(x.wrMaster)
		out.ID.Set(r.req.ID.Get())
		out.Resp.Set(in.Resp.Get())

		x.outB[r.master] = append(x.outB[r.master], out)
		x.count(func(s *Stats) { s.BRouted++ })
	}

	return progress
}

func (x *Xbar) returnWriteResps() bool {
	progress := false

	for i := range x.mWr {
		if len(x.outB[i]) == 0 {
			continue
		}

		if !x.mWr[i].SendB(x.outB[i][0]) {
			continue
		}

		x.outB[i] = x.outB[i][1:]
		progress = true
	}

	return progress
}

func (x *Xbar) fail(err error) {
	x.logger.Print(err)
	x.halter.Halt(err)
}

func (x *Xbar) count(f func(*Stats)) {
	x.statsMu.Lock()
	f(&x.stats)
	x.statsMu.Unlock()
}

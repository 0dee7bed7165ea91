// Package slave provides a reference AXI slave that checks the traffic it
// receives against the scoreboard and answers with synthesized data.
package slave

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/beat"
	"github.com/sarchlab/axitb/scoreboard"
	"github.com/sarchlab/axitb/txngen"
)

// ErrNotFound reports traffic that reached a slave without being expected
// there.
var ErrNotFound = errors.New("NOT FOUND")

// Scoreboard is the part of the scoreboard a slave talks to.
type Scoreboard interface {
	MatchReadReq(
		dst int,
		got axi.AddrPayload,
	) (scoreboard.Match[axi.AddrPayload], error)
	MatchWriteReq(
		dst int,
		got axi.AddrPayload,
	) (scoreboard.Match[axi.AddrPayload], error)
	MatchWriteData(
		dst int,
		got axi.WritePayload,
	) (scoreboard.Match[axi.WritePayload], error)
}

// Halter stops the whole run.
type Halter interface {
	Halt(err error)
	Halted() bool
}

// Stats counts the traffic of one slave.
type Stats struct {
	ARReceived   uint64 `json:"ar_received"`
	AWReceived   uint64 `json:"aw_received"`
	WReceived    uint64 `json:"w_received"`
	RSent        uint64 `json:"r_sent"`
	BSent        uint64 `json:"b_sent"`
	ReqNotFound  uint64 `json:"req_not_found"`
	DataNotFound uint64 `json:"data_not_found"`
}

// Errors returns the number of unexpected items received.
func (s Stats) Errors() uint64 {
	return s.ReqNotFound + s.DataNotFound
}

type pendingRead struct {
	ready uint64
	beats []axi.ReadPayload
	next  int
}

type pendingWrite struct {
	ready uint64
	resp  axi.WRespPayload
}

// Slave answers reads and writes after a fixed latency. Read data byte k of
// a burst is k mod 256 and every response code carries the slave index.
type Slave struct {
	*sim.TickingComponent

	index int
	rdCfg axi.Config
	wrCfg axi.Config

	rd *axi.ReadSlave
	wr *axi.WriteSlave

	sb       Scoreboard
	halter   Halter
	logger   *log.Logger
	failFast bool

	readLatency  uint64
	writeLatency uint64

	reads  []*pendingRead
	writes []pendingWrite

	statsLock sync.Mutex
	stats     Stats
}

// Index returns the destination index of the slave.
func (s *Slave) Index() int {
	return s.index
}

// Stats returns a copy of the counters.
func (s *Slave) Stats() Stats {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()

	return s.stats
}

// Pending returns the number of responses not yet returned.
func (s *Slave) Pending() int {
	return len(s.reads) + len(s.writes)
}

// Tick accepts requests and write data and returns due responses.
func (s *Slave) Tick() bool {
	if s.halter.Halted() {
		return false
	}

	now := s.Freq.Cycle(s.CurrentTime())

	progress := s.acceptRead(now)
	progress = s.acceptWrite(now) || progress
	progress = s.sendRead(now) || progress
	progress = s.sendWrite(now) || progress

	return progress || s.Pending() > 0
}

func (s *Slave) acceptRead(now uint64) bool {
	req, ok := s.rd.RecvAR()
	if !ok {
		return false
	}

	s.count(func(st *Stats) { st.ARReceived++ })

	match, err := s.sb.MatchReadReq(s.index, req)
	if err != nil {
		s.halter.Halt(fmt.Errorf("slave %d: %w", s.index, err))
		return true
	}

	if !match.Found {
		s.count(func(st *Stats) { st.ReqNotFound++ })
		s.fail("RD-Req", req, now)
	}

	s.reads = append(s.reads, &pendingRead{
		ready: now + s.readLatency,
		beats: s.readBeats(req),
	})

	return true
}

func (s *Slave) readBeats(req axi.AddrPayload) []axi.ReadPayload {
	lanes := s.rdCfg.Lanes()

	var beats []axi.ReadPayload
	first := 0
	for _, b := range beat.Segment(req, lanes) {
		r := axi.NewReadPayload(s.rdCfg)
		r.ID.Set(req.ID.Get())
		r.Data, _ = beat.Fill(b, lanes, first, txngen.ReadByte)
		r.Resp.Set(uint64(s.index))
		if b.Last {
			r.Last.Set(1)
		}

		beats = append(beats, r)
		first += len(b.Lanes)
	}

	return beats
}

func (s *Slave) acceptWrite(now uint64) bool {
	wb, ok := s.wr.NBWRead()
	if !ok {
		return false
	}

	if wb.First {
		s.count(func(st *Stats) { st.AWReceived++ })

		match, err := s.sb.MatchWriteReq(s.index, wb.Req)
		if err != nil {
			s.halter.Halt(fmt.Errorf("slave %d: %w", s.index, err))
			return true
		}

		if !match.Found {
			s.count(func(st *Stats) { st.ReqNotFound++ })
			s.fail("WR-Req", wb.Req, now)
		}
	}

	s.count(func(st *Stats) { st.WReceived++ })

	match, err := s.sb.MatchWriteData(s.index, wb.Beat)
	if err != nil {
		s.halter.Halt(fmt.Errorf("slave %d: %w", s.index, err))
		return true
	}

	if !match.Found {
		s.count(func(st *Stats) { st.DataNotFound++ })
		s.fail("WR-Data", wb.Beat, now)
	}

	if wb.Beat.IsLast() {
		resp := axi.NewWRespPayload(s.wrCfg)
		resp.ID.Set(wb.Req.ID.Get())
		resp.Resp.Set(uint64(s.index))

		s.writes = append(s.writes, pendingWrite{
			ready: now + s.writeLatency,
			resp:  resp,
		})
	}

	return true
}

func (s *Slave) sendRead(now uint64) bool {
	if len(s.reads) == 0 || s.reads[0].ready > now {
		return false
	}

	p := s.reads[0]
	if !s.rd.SendR(p.beats[p.next]) {
		return false
	}

	s.count(func(st *Stats) { st.RSent++ })

	p.next++
	if p.next == len(p.beats) {
		s.reads = s.reads[1:]
	}

	return true
}

func (s *Slave) sendWrite(now uint64) bool {
	if len(s.writes) == 0 || s.writes[0].ready > now {
		return false
	}

	if !s.wr.SendB(s.writes[0].resp) {
		return false
	}

	s.count(func(st *Stats) { st.BSent++ })
	s.writes = s.writes[1:]

	return true
}

func (s *Slave) fail(channel string, got fmt.Stringer, now uint64) {
	err := fmt.Errorf("[Slave %d] %s : %s %w! @%d",
		s.index, channel, got, ErrNotFound, now)
	s.logger.Print(err)

	if s.failFast {
		s.halter.Halt(err)
	}
}

func (s *Slave) count(f func(*Stats)) {
	s.statsLock.Lock()
	f(&s.stats)
	s.statsLock.Unlock()
}

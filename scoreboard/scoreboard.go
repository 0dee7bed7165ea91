// Package scoreboard holds the expected effects of every generated burst
// until the matching traffic is observed.
//
// The scoreboard is an actor. A single goroutine started by Run owns all the
// queues, and every operation is one message to it, so each
// check-and-remove happens atomically with respect to all callers.
package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/axitb/axi"
)

// ErrClosed is returned by operations issued after the actor has stopped.
var ErrClosed = errors.New("scoreboard is closed")

// Entry is an expected item together with the cycle it was generated at.
type Entry[T any] struct {
	Payload   T
	Generated uint64
}

// Match is the result of looking up an observed item.
type Match[T any] struct {
	// Found tells if an expected entry matched. It is removed when found.
	Found bool
	Entry Entry[T]

	// Head is the oldest entry of the queue that was searched, for
	// diagnostics. HasHead is false when the queue was empty.
	Head    Entry[T]
	HasHead bool

	// Delay is the number of cycles between generation and observation,
	// reported on the final beat of a burst.
	Delay    uint64
	HasDelay bool
}

type state struct {
	rdReq  [][]Entry[axi.AddrPayload]
	wrReq  [][]Entry[axi.AddrPayload]
	wrData [][]Entry[axi.WritePayload]
	rdResp [][]Entry[axi.ReadPayload]
	wrResp [][]Entry[axi.WRespPayload]
}

// Scoreboard keeps per-destination expected requests and write data, and
// per-master expected responses.
type Scoreboard struct {
	masters, slaves int

	st   *state
	ops  chan func(*state)
	quit chan struct{}
	done chan struct{}

	closeOnce sync.Once
	doneOnce  sync.Once
}

// New creates a scoreboard for the given number of masters and slaves.
func New(masters, slaves int) *Scoreboard {
	return &Scoreboard{
		masters: masters,
		slaves:  slaves,
		st: &state{
			rdReq:  make([][]Entry[axi.AddrPayload], slaves),
			wrReq:  make([][]Entry[axi.AddrPayload], slaves),
			wrData: make([][]Entry[axi.WritePayload], slaves),
			rdResp: make([][]Entry[axi.ReadPayload], masters),
			wrResp: make([][]Entry[axi.WRespPayload], masters),
		},
		ops:  make(chan func(*state)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Run serves operations until Close is called or the context ends.
func (s *Scoreboard) Run(ctx context.Context) error {
	defer s.doneOnce.Do(func() { close(s.done) })

	for {
		select {
		case op := <-s.ops:
			op(s.st)
		case <-s.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the actor.
func (s *Scoreboard) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}

func (s *Scoreboard) do(op func(*state)) error {
	finished := make(chan struct{})
	wrapped := func(st *state) {
		op(st)
		close(finished)
	}

	select {
	case s.ops <- wrapped:
	case <-s.done:
		return ErrClosed
	}

	<-finished

	return nil
}

func (s *Scoreboard) checkMaster(m int) error {
	if m < 0 || m >= s.masters {
		return fmt.Errorf("master %d out of range [0, %d)", m, s.masters)
	}

	return nil
}

func (s *Scoreboard) checkSlave(d int) error {
	if d < 0 || d >= s.slaves {
		return fmt.Errorf("destination %d out of range [0, %d)", d, s.slaves)
	}

	return nil
}

// RecordRead stores the expectations of a generated read burst: the
// slave-side request at the destination and the response beats at the
// master.
func (s *Scoreboard) RecordRead(
	master, dst int,
	req axi.AddrPayload,
	beats []axi.ReadPayload,
	now uint64,
) error {
	if err := s.checkMaster(master); err != nil {
		return err
	}

	if err := s.checkSlave(dst); err != nil {
		return err
	}

	return s.do(func(st *state) {
		st.rdReq[dst] = append(st.rdReq[dst],
			Entry[axi.AddrPayload]{Payload: req, Generated: now})

		for _, b := range beats {
			st.rdResp[master] = append(st.rdResp[master],
				Entry[axi.ReadPayload]{Payload: b, Generated: now})
		}
	})
}

// RecordWrite stores the expectations of a generated write burst: the
// slave-side request and data at the destination and the response at the
// master.
func (s *Scoreboard) RecordWrite(
	master, dst int,
	req axi.AddrPayload,
	data []axi.WritePayload,
	resp axi.WRespPayload,
	now uint64,
) error {
	if err := s.checkMaster(master); err != nil {
		return err
	}

	if err := s.checkSlave(dst); err != nil {
		return err
	}

	return s.do(func(st *state) {
		st.wrReq[dst] = append(st.wrReq[dst],
			Entry[axi.AddrPayload]{Payload: req, Generated: now})

		for _, d := range data {
			st.wrData[dst] = append(st.wrData[dst],
				Entry[axi.WritePayload]{Payload: d, Generated: now})
		}

		st.wrResp[master] = append(st.wrResp[master],
			Entry[axi.WRespPayload]{Payload: resp, Generated: now})
	})
}

// VerifyRead looks up a read beat received by a master. The beat matches
// on identifier, data, response code and last flag.
func (s *Scoreboard) VerifyRead(
	master int,
	got axi.ReadPayload,
	now uint64,
) (Match[axi.ReadPayload], error) {
	var m Match[axi.ReadPayload]

	if err := s.checkMaster(master); err != nil {
		return m, err
	}

	err := s.do(func(st *state) {
		m = take(&st.rdResp[master], got.Matches)
		if m.Found && got.IsLast() {
			m.Delay, m.HasDelay = delay(m.Entry.Generated, now), true
		}
	})

	return m, err
}

// VerifyWriteResp looks up a write response received by a master. The
// response matches on identifier and response code.
func (s *Scoreboard) VerifyWriteResp(
	master int,
	got axi.WRespPayload,
	now uint64,
) (Match[axi.WRespPayload], error) {
	var m Match[axi.WRespPayload]

	if err := s.checkMaster(master); err != nil {
		return m, err
	}

	err := s.do(func(st *state) {
		m = take(&st.wrResp[master], got.Matches)
		if m.Found {
			m.Delay, m.HasDelay = delay(m.Entry.Generated, now), true
		}
	})

	return m, err
}

// MatchReadReq looks up a read request received by a slave.
func (s *Scoreboard) MatchReadReq(
	dst int,
	got axi.AddrPayload,
) (Match[axi.AddrPayload], error) {
	return s.matchReq(dst, got, func(st *state) *[]Entry[axi.AddrPayload] {
		return &st.rdReq[dst]
	})
}

// MatchWriteReq looks up a write request received by a slave.
func (s *Scoreboard) MatchWriteReq(
	dst int,
	got axi.AddrPayload,
) (Match[axi.AddrPayload], error) {
	return s.matchReq(dst, got, func(st *state) *[]Entry[axi.AddrPayload] {
		return &st.wrReq[dst]
	})
}

func (s *Scoreboard) matchReq(
	dst int,
	got axi.AddrPayload,
	queue func(*state) *[]Entry[axi.AddrPayload],
) (Match[axi.AddrPayload], error) {
	var m Match[axi.AddrPayload]

	if err := s.checkSlave(dst); err != nil {
		return m, err
	}

	err := s.do(func(st *state) {
		m = take(queue(st), got.Equal)
	})

	return m, err
}

// MatchWriteData looks up a write beat received by a slave.
func (s *Scoreboard) MatchWriteData(
	dst int,
	got axi.WritePayload,
) (Match[axi.WritePayload], error) {
	var m Match[axi.WritePayload]

	if err := s.checkSlave(dst); err != nil {
		return m, err
	}

	err := s.do(func(st *state) {
		m = take(&st.wrData[dst], got.Equal)
	})

	return m, err
}

// take removes the first entry accepted by eq.
func take[T any](q *[]Entry[T], eq func(T) bool) Match[T] {
	var m Match[T]

	if len(*q) > 0 {
		m.Head = (*q)[0]
		m.HasHead = true
	}

	for i, e := range *q {
		if eq(e.Payload) {
			m.Found = true
			m.Entry = e
			*q = append((*q)[:i], (*q)[i+1:]...)

			return m
		}
	}

	return m
}

func delay(generated, now uint64) uint64 {
	if now <= generated+1 {
		return 0
	}

	return now - generated - 1
}

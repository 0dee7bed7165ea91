package master

import (
	"github.com/sarchlab/axitb/axi"
	"github.com/sarchlab/axitb/scoreboard"
)

// Scoreboard is the part of the scoreboard a master talks to.
type Scoreboard interface {
	RecordRead(
		master, dst int,
		req axi.AddrPayload,
		beats []axi.ReadPayload,
		now uint64,
	) error
	RecordWrite(
		master, dst int,
		req axi.AddrPayload,
		data []axi.WritePayload,
		resp axi.WRespPayload,
		now uint64,
	) error
	VerifyRead(
		master int,
		got axi.ReadPayload,
		now uint64,
	) (scoreboard.Match[axi.ReadPayload], error)
	VerifyWriteResp(
		master int,
		got axi.WRespPayload,
		now uint64,
	) (scoreboard.Match[axi.WRespPayload], error)
}

// StopSignal tells masters when to stop generating new traffic.
type StopSignal interface {
	Stopped(cycle uint64) bool
}

// Halter stops the whole run.
type Halter interface {
	Halt(err error)
	Halted() bool
}

// Recorder receives an event for every generated and verified transaction.
type Recorder interface {
	Record(e Event)
}

// StopAt returns a StopSignal raised from the given cycle on.
func StopAt(cycle uint64) StopSignal {
	return stopAt(cycle)
}

type stopAt uint64

func (s stopAt) Stopped(cycle uint64) bool {
	return cycle >= uint64(s)
}

type localHalter struct {
	err error
}

func (h *localHalter) Halt(err error) {
	if h.err == nil {
		h.err = err
	}
}

func (h *localHalter) Halted() bool {
	return h.err != nil
}

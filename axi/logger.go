package axi

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"
)

// ChannelLogger is a hook that traces every handshake on the channels it is
// attached to.
type ChannelLogger struct {
	sim.LogHookBase

	timeTeller sim.TimeTeller
	freq       sim.Freq
}

// NewChannelLogger creates a ChannelLogger that stamps entries with the
// cycle reported by the time teller.
func NewChannelLogger(
	logger *log.Logger,
	timeTeller sim.TimeTeller,
	freq sim.Freq,
) *ChannelLogger {
	h := new(ChannelLogger)
	h.Logger = logger
	h.timeTeller = timeTeller
	h.freq = freq

	return h
}

// Func writes the handshake into the logger.
func (h *ChannelLogger) Func(ctx sim.HookCtx) {
	name := "?"
	if n, ok := ctx.Domain.(sim.Named); ok {
		name = n.Name()
	}

	h.Logger.Printf("%d,%s,%s,%v\n",
		h.freq.Cycle(h.timeTeller.CurrentTime()),
		name, ctx.Pos.Name, ctx.Item)
}

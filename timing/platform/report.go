package platform

import (
	"fmt"
	"io"

	"github.com/sarchlab/axitb/scoreboard"
	"github.com/sarchlab/axitb/timing/master"
	"github.com/sarchlab/axitb/timing/slave"
	"github.com/sarchlab/axitb/timing/xbar"
)

// Report summarizes a finished run.
type Report struct {
	Cycles   uint64              `json:"cycles"`
	Masters  []master.Stats      `json:"masters"`
	Slaves   []slave.Stats       `json:"slaves"`
	Xbar     xbar.Stats          `json:"xbar"`
	Leftover scoreboard.Snapshot `json:"leftover"`
}

// Errors returns the number of failures seen by every master and slave.
func (r Report) Errors() uint64 {
	var n uint64

	for _, m := range r.Masters {
		n += m.Errors()
	}

	for _, s := range r.Slaves {
		n += s.Errors()
	}

	return n
}

// Totals sums the counters of every master.
func (r Report) Totals() master.Stats {
	var t master.Stats

	for _, m := range r.Masters {
		t.RdGenerated += m.RdGenerated
		t.WrGenerated += m.WrGenerated
		t.ARInjected += m.ARInjected
		t.AWInjected += m.AWInjected
		t.WInjected += m.WInjected
		t.RBeats += m.RBeats
		t.RBursts += m.RBursts
		t.BResps += m.BResps
		t.RdDelayTotal += m.RdDelayTotal
		t.WrDelayTotal += m.WrDelayTotal
		t.NotFound += m.NotFound
		t.RequestMissing += m.RequestMissing
		t.Reordered += m.Reordered
		t.Stalls += m.Stalls
		t.Internal += m.Internal
	}

	return t
}

// Print writes a human readable summary.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Cycles: %d\n", r.Cycles)

	for i, m := range r.Masters {
		fmt.Fprintf(w, "Master[%d]: rd %d/%d wr %d/%d "+
			"avg delay rd %.2f wr %.2f errors %d\n",
			i, m.RBursts, m.RdGenerated, m.BResps, m.WrGenerated,
			m.AvgReadDelay(), m.AvgWriteDelay(), m.Errors())
	}

	for i, s := range r.Slaves {
		fmt.Fprintf(w, "Slave[%d]: AR %d AW %d W %d R %d B %d errors %d\n",
			i, s.ARReceived, s.AWReceived, s.WReceived, s.RSent, s.BSent,
			s.Errors())
	}

	fmt.Fprintf(w, "Xbar: AR %d AW %d R %d->%d W %d->%d B %d "+
		"guard stalls %d\n",
		r.Xbar.ARRouted, r.Xbar.AWRouted, r.Xbar.RBeatsIn, r.Xbar.RBeatsOut,
		r.Xbar.WBeatsIn, r.Xbar.WBeatsOut, r.Xbar.BRouted,
		r.Xbar.GuardStalls)

	for _, q := range r.Leftover.NonEmpty() {
		fmt.Fprintf(w, "Leftover %s: %d, head %s\n", q.Name, q.Depth, q.Head)
	}
}

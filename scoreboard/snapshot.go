package scoreboard

import (
	"fmt"
)

// QueueState describes one scoreboard queue.
type QueueState struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
	Head  string `json:"head,omitempty"`
}

// Snapshot is a consistent view of every queue.
type Snapshot struct {
	Queues []QueueState `json:"queues"`
}

// Outstanding returns the number of expected items across all queues.
func (s Snapshot) Outstanding() int {
	n := 0
	for _, q := range s.Queues {
		n += q.Depth
	}

	return n
}

// NonEmpty returns the queues that still hold entries.
func (s Snapshot) NonEmpty() []QueueState {
	var out []QueueState

	for _, q := range s.Queues {
		if q.Depth > 0 {
			out = append(out, q)
		}
	}

	return out
}

// Snapshot captures the state of every queue.
func (s *Scoreboard) Snapshot() (Snapshot, error) {
	var snap Snapshot

	err := s.do(func(st *state) {
		for d := 0; d < s.slaves; d++ {
			snap.Queues = append(snap.Queues,
				describe(fmt.Sprintf("Slave[%d].RdReq", d), st.rdReq[d]),
				describe(fmt.Sprintf("Slave[%d].WrReq", d), st.wrReq[d]),
				describe(fmt.Sprintf("Slave[%d].WrData", d), st.wrData[d]),
			)
		}

		for m := 0; m < s.masters; m++ {
			snap.Queues = append(snap.Queues,
				describe(fmt.Sprintf("Master[%d].RdResp", m), st.rdResp[m]),
				describe(fmt.Sprintf("Master[%d].WrResp", m), st.wrResp[m]),
			)
		}
	})

	return snap, err
}

// Outstanding returns the number of expected items across all queues.
func (s *Scoreboard) Outstanding() (int, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return 0, err
	}

	return snap.Outstanding(), nil
}

func describe[T fmt.Stringer](name string, q []Entry[T]) QueueState {
	qs := QueueState{Name: name, Depth: len(q)}
	if len(q) > 0 {
		qs.Head = fmt.Sprintf("%s @%d", q[0].Payload, q[0].Generated)
	}

	return qs
}

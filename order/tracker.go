// Package order checks that responses sharing a transaction identifier come
// back in the order their requests were issued.
package order

import (
	"github.com/sarchlab/axitb/axi"
)

// Outcome is the result of an order check.
type Outcome int

// Order check outcomes.
const (
	Ordered Outcome = iota
	Reordered
	RequestMissing
)

func (o Outcome) String() string {
	switch o {
	case Ordered:
		return "ordered"
	case Reordered:
		return "reordered"
	case RequestMissing:
		return "request missing"
	default:
		return "unknown"
	}
}

// A Resolver maps an address to the destination slave.
type Resolver interface {
	MustResolve(addr uint64) int
}

// Tracker keeps the requests of one master and one direction in issue
// order. It is not safe for concurrent use.
type Tracker struct {
	resolver Resolver
	queue    []axi.AddrPayload
}

// NewTracker creates an empty tracker.
func NewTracker(resolver Resolver) *Tracker {
	return &Tracker{resolver: resolver}
}

// Push records an issued request.
func (t *Tracker) Push(req axi.AddrPayload) {
	t.queue = append(t.queue, req)
}

// Check finds the oldest request with the given identifier and compares the
// destination it resolves to against the destination code carried by the
// response. The request is removed when retire is set, whatever the
// outcome.
func (t *Tracker) Check(
	id axi.Field,
	code uint64,
	retire bool,
) (Outcome, axi.AddrPayload) {
	for i, req := range t.queue {
		if req.ID.Get() != id.Get() {
			continue
		}

		if retire {
			t.queue = append(t.queue[:i], t.queue[i+1:]...)
		}

		dst := t.resolver.MustResolve(req.Addr.Get())
		if uint64(dst) != code {
			return Reordered, req
		}

		return Ordered, req
	}

	return RequestMissing, axi.AddrPayload{}
}

// Len returns the number of requests still waiting for a response.
func (t *Tracker) Len() int {
	return len(t.queue)
}

// Entries returns a copy of the pending requests, oldest first.
func (t *Tracker) Entries() []axi.AddrPayload {
	return append([]axi.AddrPayload(nil), t.queue...)
}

package master

import (
	"errors"
	"fmt"
)

// ErrStalled reports a master that stopped making progress while it still
// had outstanding traffic.
var ErrStalled = errors.New("no progress")

// Outcome is the result of verifying one response.
type Outcome int

// Verification outcomes. A response is OK only when it matches an expected
// entry and arrives in identifier order.
const (
	OK Outcome = iota
	NotFound
	RequestMissing
	Reordered
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case NotFound:
		return "NOT FOUND"
	case RequestMissing:
		return "REQUEST MISSING"
	case Reordered:
		return "REORDERED"
	default:
		return "UNKNOWN"
	}
}

// VerificationError describes a response that failed verification.
type VerificationError struct {
	Master  int
	Channel string
	Outcome Outcome
	Cycle   uint64
	Detail  string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("[Master %d] %s : %s! @%d: %s",
		e.Master, e.Channel, e.Outcome, e.Cycle, e.Detail)
}

// EventKind names what happened to a transaction.
type EventKind string

// Event kinds.
const (
	ReadGenerated  EventKind = "RdGen"
	WriteGenerated EventKind = "WrGen"
	ReadVerified   EventKind = "RdResp"
	WriteVerified  EventKind = "WrResp"
)

// Event is one entry of the transaction trace.
type Event struct {
	Master  int
	Kind    EventKind
	Cycle   uint64
	ID      uint64
	Addr    uint64
	Dst     int
	Last    bool
	Outcome Outcome
	Delay   uint64
	Payload string
}

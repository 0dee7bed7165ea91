package recording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/axitb/timing/master"
)

// Table names.
const (
	TransactionTable = "axi_transactions"
	ExecTable        = "exec_info"
)

type transactionRow struct {
	RecordID string
	Master   int
	Kind     string
	Cycle    uint64
	TxnID    uint64
	Addr     uint64
	Dst      int
	Last     bool
	Outcome  string
	Delay    uint64
	Payload  string
}

type execRow struct {
	Property string
	Value    string
}

// TransactionRecorder writes every transaction event of the masters into
// a DataRecorder. It is safe for concurrent use.
type TransactionRecorder struct {
	recorder DataRecorder
	start    time.Time
}

// NewTransactionRecorder creates the tables of the trace and records the
// start of the run.
func NewTransactionRecorder(r DataRecorder) *TransactionRecorder {
	r.CreateTable(TransactionTable, transactionRow{})
	r.CreateTable(ExecTable, execRow{})

	t := &TransactionRecorder{recorder: r, start: time.Now()}
	t.exec("Start Time", t.start.Format(time.RFC3339Nano))
	t.exec("Command", strings.Join(os.Args, " "))

	return t
}

// Record stores one event.
func (t *TransactionRecorder) Record(e master.Event) {
	t.recorder.InsertData(TransactionTable, transactionRow{
		RecordID: xid.New().String(),
		Master:   e.Master,
		Kind:     string(e.Kind),
		Cycle:    e.Cycle,
		TxnID:    e.ID,
		Addr:     e.Addr,
		Dst:      e.Dst,
		Last:     e.Last,
		Outcome:  outcomeOf(e),
		Delay:    e.Delay,
		Payload:  e.Payload,
	})
}

// Property stores a key-value pair describing the run.
func (t *TransactionRecorder) Property(key, value string) {
	t.exec(key, value)
}

// End records the end of the run and flushes the database.
func (t *TransactionRecorder) End() {
	t.exec("End Time", time.Now().Format(time.RFC3339Nano))
	t.recorder.Flush()
}

func (t *TransactionRecorder) exec(key, value string) {
	t.recorder.InsertData(ExecTable, execRow{Property: key, Value: value})
}

func outcomeOf(e master.Event) string {
	if e.Kind == master.ReadGenerated || e.Kind == master.WriteGenerated {
		return ""
	}

	return e.Outcome.String()
}

package tracker

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/prathamesh-mutkure/tx-tracker-pba/internal/domain/model"
)

// Stage labels the lifecycle step of a trace entry.
type Stage string

const (
	StageSettled Stage = "settled"
	StageDone    Stage = "done"
)

// TraceEntry is one recorded callback invocation.
type TraceEntry struct {
	Stage   Stage         `json:"stage"`
	Tx      model.TxRef   `json:"tx"`
	Outcome model.Outcome `json:"outcome"`
}

// Recorder captures the callback trace in invocation order. Used by the
// replay harness, tests and the CLI trace output.
type Recorder struct {
	mu      sync.Mutex
	entries []TraceEntry
}

var _ Callbacks = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnTxSettled(tx model.TxRef, outcome model.Outcome) {
	r.record(TraceEntry{Stage: StageSettled, Tx: tx, Outcome: outcome})
}

func (r *Recorder) OnTxDone(tx model.TxRef, outcome model.Outcome) {
	r.record(TraceEntry{Stage: StageDone, Tx: tx, Outcome: outcome})
}

func (r *Recorder) record(e TraceEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded trace.
func (r *Recorder) Entries() []TraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// WriteNDJSON writes the trace one JSON object per line.
func (r *Recorder) WriteNDJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, e := range r.Entries() {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// Fanout invokes each callback set in order for every notification.
func Fanout(cbs ...Callbacks) Callbacks {
	return fanout(cbs)
}

type fanout []Callbacks

func (f fanout) OnTxSettled(tx model.TxRef, outcome model.Outcome) {
	for _, cb := range f {
		cb.OnTxSettled(tx, outcome)
	}
}

func (f fanout) OnTxDone(tx model.TxRef, outcome model.Outcome) {
	for _, cb := range f {
		cb.OnTxDone(tx, outcome)
	}
}

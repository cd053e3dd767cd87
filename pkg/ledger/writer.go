package ledger

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/migalabs/beacon-events/pkg/spec"
	"github.com/migalabs/beacon-events/pkg/utils"
	"github.com/pkg/errors"
)

// Sink receives the events of one block at a time.
type Sink interface {
	WriteEvents(events []spec.Event) error
	Close() error
}

// JSONLinesWriter writes one JSON document per event.
type JSONLinesWriter struct {
	m   sync.Mutex
	out *utils.Output
	enc *json.Encoder
}

func NewJSONLinesWriter(out *utils.Output) *JSONLinesWriter {
	return &JSONLinesWriter{
		out: out,
		enc: json.NewEncoder(out),
	}
}

// NewJSONLinesWriterTo writes to w, with optional snappy framing.
func NewJSONLinesWriterTo(w io.Writer, compress bool) *JSONLinesWriter {
	return NewJSONLinesWriter(utils.NewOutputFromWriter(w, compress))
}

// WriteEvents writes and flushes the events of one block.
func (w *JSONLinesWriter) WriteEvents(events []spec.Event) error {
	w.m.Lock()
	defer w.m.Unlock()
	for _, e := range events {
		if err := w.enc.Encode(e); err != nil {
			return errors.Wrapf(err, "unable to write event %d of block %d", e.SortKey, e.Block)
		}
	}
	return w.out.Flush()
}

func (w *JSONLinesWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	return w.out.Close()
}

package utils

import (
	"io"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

const StdoutOutput = "-"

// Output is the destination of an event stream, optionally wrapped in the
// snappy framing format.
type Output struct {
	file   *os.File
	snappy *snappy.Writer
	w      io.Writer
}

// NewOutput opens path for appending ("-" means stdout).
func NewOutput(path string, compress bool) (*Output, error) {
	out := &Output{}
	if path == "" || path == StdoutOutput {
		out.w = os.Stdout
	} else {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to open output %s", path)
		}
		out.file = f
		out.w = f
	}
	if compress {
		out.snappy = snappy.NewBufferedWriter(out.w)
		out.w = out.snappy
	}
	return out, nil
}

// NewOutputFromWriter wraps an already open writer.
func NewOutputFromWriter(w io.Writer, compress bool) *Output {
	out := &Output{w: w}
	if compress {
		out.snappy = snappy.NewBufferedWriter(w)
		out.w = out.snappy
	}
	return out
}

func (o *Output) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

// Flush pushes any buffered snappy frame to the underlying writer.
func (o *Output) Flush() error {
	if o.snappy == nil {
		return nil
	}
	return errors.Wrap(o.snappy.Flush(), "unable to flush snappy frame")
}

func (o *Output) Close() error {
	if o.snappy != nil {
		if err := o.snappy.Close(); err != nil {
			return errors.Wrap(err, "unable to close snappy writer")
		}
	}
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

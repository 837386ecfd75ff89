package bridge

import (
	"io"
	"os"
)

// FileSink writes the raw trace stream to a file or any io.WriteCloser.
// The recorded bytes can be opened in SystemView as a saved recording.
type FileSink struct {
	w io.WriteCloser
}

// NewFileSink wraps w.
func NewFileSink(w io.WriteCloser) *FileSink {
	return &FileSink{w: w}
}

// CreateFileSink creates or truncates path.
func CreateFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return NewFileSink(f), nil
}

// WriteTrace implements Sink.
func (f *FileSink) WriteTrace(p []byte) error {
	_, err := f.w.Write(p)
	return err
}

// Close implements Sink.
func (f *FileSink) Close() error {
	return f.w.Close()
}

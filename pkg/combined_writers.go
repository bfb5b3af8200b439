package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriters fans a single write out to all given writers,
// e.g. stdout plus a rotated log file.
type CombinedWriters struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriters {
	return &CombinedWriters{
		writers: writers,
	}
}

func (cw *CombinedWriters) Write(p []byte) (n int, err error) {
	var errs error
	for _, w := range cw.writers {
		if n, werr := w.Write(p); werr != nil {
			errs = multierr.Append(errs, werr)
		} else if n != len(p) {
			errs = multierr.Append(errs, io.ErrShortWrite)
		}
	}
	return len(p), errs
}

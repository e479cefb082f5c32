package iolib

import (
	"io"
	"sync/atomic"
)

// CountingWriter counts the bytes successfully written to the underlying writer.
type CountingWriter struct {
	w io.Writer
	n atomic.Uint64
}

func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (cw *CountingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.n.Add(uint64(n))
	return n, err
}

func (cw *CountingWriter) Count() uint64 { return cw.n.Load() }

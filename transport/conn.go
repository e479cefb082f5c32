// Package transport abstracts the byte streams the HTTP layer is served over.
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConnClosed         = errors.New("connection is closed")
	ErrConnListenerClosed = errors.New("conn listener is closed")
	ErrConnRefused        = errors.New("connection refused")
	ErrAddrAlreadyInUse   = errors.New("address already in use")
	ErrDeadLineExceeded   = errors.New("deadline exceeded")
)

// Addr is satisfied by [net.Addr].
type Addr interface {
	Network() string
	String() string
}

// Conn is a full-duplex byte stream.
// Read returns io.EOF once the peer has closed its side,
// and ErrConnClosed once this side has been closed.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error

	LocalAddr() Addr
	RemoteAddr() Addr

	// A zero value clears the deadline.
	SetReadDeadLine(t time.Time)
	SetWriteDeadLine(t time.Time)
}

type ConnListener interface {
	// Accept waits for the next connection.
	// It returns ErrConnListenerClosed after Close, or ctx.Err() when ctx is done.
	Accept(ctx context.Context) (Conn, error)
	Close() error
	Addr() Addr
}

type ConnDialer interface {
	Dial(ctx context.Context, addr Addr) (Conn, error)
}

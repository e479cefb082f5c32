// Package tcp serves [transport] connections over the operating system's TCP stack.
package tcp

import (
	"context"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"go-httpd/transport"

	"github.com/pkg/errors"
)

type Listener struct {
	tl *net.TCPListener
}

var _ transport.ConnListener = (*Listener)(nil)

// Listen binds addr (e.g. "0.0.0.0:8080").
// A zero port picks an ephemeral one, see [Listener.Addr].
func Listen(addr string) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %q", addr)
	}

	tl, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, errors.Wrapf(transport.ErrAddrAlreadyInUse, "binding %s", addr)
		}
		return nil, errors.Wrapf(err, "binding %s", addr)
	}

	return &Listener{tl: tl}, nil
}

// aLongTimeAgo is used as a deadline to wake up a blocked Accept.
var aLongTimeAgo = time.Unix(1, 0)

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		l.tl.SetDeadline(aLongTimeAgo)
	})

	c, err := l.tl.AcceptTCP()

	if !stop() {
		// ctx is done and the deadline was (or is being) moved, restore it.
		<-fired
		l.tl.SetDeadline(time.Time{})
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, transport.ErrConnListenerClosed
		}
		return nil, errors.Wrap(err, "accepting tcp connection")
	}

	return WrapConn(c), nil
}

func (l *Listener) Close() error {
	if err := l.tl.Close(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return transport.ErrConnListenerClosed
		}
		return err
	}
	return nil
}

func (l *Listener) Addr() transport.Addr { return l.tl.Addr() }

type Dialer struct {
	net.Dialer
}

var _ transport.ConnDialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	c, err := d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, errors.Wrapf(transport.ErrConnRefused, "dialing %s", addr)
		}
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	return WrapConn(c), nil
}

type conn struct {
	c net.Conn
}

var _ transport.Conn = (*conn)(nil)

// WrapConn adapts a [net.Conn] to [transport.Conn].
func WrapConn(c net.Conn) transport.Conn {
	return &conn{c: c}
}

func (c *conn) Read(p []byte) (int, error) {
	n, err := c.c.Read(p)
	return n, convertErr(err)
}

func (c *conn) Write(p []byte) (int, error) {
	n, err := c.c.Write(p)
	return n, convertErr(err)
}

func (c *conn) Close() error {
	return convertErr(c.c.Close())
}

func (c *conn) LocalAddr() transport.Addr  { return c.c.LocalAddr() }
func (c *conn) RemoteAddr() transport.Addr { return c.c.RemoteAddr() }

func (c *conn) SetReadDeadLine(t time.Time)  { c.c.SetReadDeadline(t) }
func (c *conn) SetWriteDeadLine(t time.Time) { c.c.SetWriteDeadline(t) }

func convertErr(err error) error {
	switch {
	case err == nil:
		return nil
	case err == io.EOF:
		// Kept as is so readers can tell an orderly shutdown by the peer.
		return io.EOF
	case errors.Is(err, os.ErrDeadlineExceeded):
		return transport.ErrDeadLineExceeded
	case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return transport.ErrConnClosed
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return errors.Wrap(transport.ErrConnClosed, err.Error())
	}
	return err
}

// Package pipe provides an in-memory [transport] whose connections are
// synchronous, unbuffered pipes with deadlines driven by a [clock.Clock].
package pipe

import (
	"context"
	"io"
	"sync"
	"time"

	"go-httpd/transport"

	"github.com/benbjohnson/clock"
)

type Addr struct {
	Name string
}

func (a Addr) Network() string { return "pipe" }
func (a Addr) String() string  { return a.Name }

var _ transport.Addr = Addr{}

type pipe struct {
	stream chan []byte // stream that this pipe reads from.
	nc     chan int    // counterpart's respond will be sent here.

	writeMu sync.Mutex

	closed chan struct{}
	once   sync.Once

	rdeadLine *deadLine
	wdeadLine *deadLine

	counterpart *pipe

	addr Addr
}

var _ transport.Conn = (*pipe)(nil)

func newPipe(name string, clock clock.Clock) *pipe {
	return &pipe{
		stream:    make(chan []byte),
		nc:        make(chan int),
		closed:    make(chan struct{}),
		rdeadLine: newDeadLine(clock),
		wdeadLine: newDeadLine(clock),
		addr:      Addr{Name: name},
	}
}

// NewPair creates two connected ends.
func NewPair(name1, name2 string, clock clock.Clock) (c1, c2 transport.Conn) {
	p1, p2 := newPipe(name1, clock), newPipe(name2, clock)
	p1.counterpart, p2.counterpart = p2, p1
	return p1, p2
}

func (p *pipe) LocalAddr() transport.Addr  { return p.addr }
func (p *pipe) RemoteAddr() transport.Addr { return p.counterpart.addr }

func (p *pipe) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipe) Read(b []byte) (n int, err error) {
	switch {
	case isClosed(p.closed):
		return 0, transport.ErrConnClosed
	case isClosed(p.rdeadLine.wait()):
		return 0, transport.ErrDeadLineExceeded
	}

	select {
	case received := <-p.stream:
		n := copy(b, received)
		p.counterpart.nc <- n
		return n, nil
	case <-p.closed:
		return 0, transport.ErrConnClosed
	case <-p.counterpart.closed:
		// Writes are synchronous, nothing is in flight once the peer closed.
		return 0, io.EOF
	case <-p.rdeadLine.wait():
		return 0, transport.ErrDeadLineExceeded
	}
}

func (p *pipe) Write(b []byte) (n int, err error) {
	switch {
	case isClosed(p.closed), isClosed(p.counterpart.closed):
		return 0, transport.ErrConnClosed
	case isClosed(p.wdeadLine.wait()):
		return 0, transport.ErrDeadLineExceeded
	}

	// Serialize write operations to prevent interleaving write.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	for len(b) > 0 {
		select {
		case p.counterpart.stream <- b:
			nn := <-p.nc
			b = b[nn:]
			n += nn
		case <-p.closed:
			return n, transport.ErrConnClosed
		case <-p.counterpart.closed:
			return n, transport.ErrConnClosed
		case <-p.wdeadLine.wait():
			return n, transport.ErrDeadLineExceeded
		}
	}

	return n, nil
}

func (p *pipe) SetReadDeadLine(t time.Time)  { p.rdeadLine.set(t) }
func (p *pipe) SetWriteDeadLine(t time.Time) { p.wdeadLine.set(t) }

type deadLine struct {
	clock clock.Clock

	t *clock.Timer
	m sync.Mutex

	exceeded chan struct{}
}

func newDeadLine(clock clock.Clock) *deadLine {
	return &deadLine{
		clock:    clock,
		exceeded: make(chan struct{}),
	}
}

func (d *deadLine) set(t time.Time) {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
	d.t = nil

	if isClosed(d.exceeded) {
		d.exceeded = make(chan struct{})
	}

	if t.IsZero() {
		// zero value means no limit.
		return
	}

	wait := d.clock.Until(t)
	if wait <= 0 {
		close(d.exceeded)
		return
	}

	exceeded := d.exceeded
	d.t = d.clock.AfterFunc(wait, func() { close(exceeded) })
}

func (d *deadLine) wait() <-chan struct{} {
	d.m.Lock()
	defer d.m.Unlock()
	return d.exceeded
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

type dialRequest struct {
	conn     transport.Conn
	accepted chan struct{}
}

// Transport routes dialed connections to listeners by name.
type Transport struct {
	listeners map[Addr]*Listener
	clock     clock.Clock

	mu sync.Mutex
}

var _ transport.ConnDialer = (*Transport)(nil)

func NewTransport(clock clock.Clock) *Transport {
	return &Transport{
		listeners: make(map[Addr]*Listener),
		clock:     clock,
	}
}

func (t *Transport) Listen(addr Addr) (*Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.listeners[addr]; ok {
		return nil, transport.ErrAddrAlreadyInUse
	}

	l := &Listener{
		addr:      addr,
		transport: t,
		requests:  make(chan dialRequest),
		closed:    make(chan struct{}),
	}
	t.listeners[addr] = l

	return l, nil
}

func (t *Transport) Dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	t.mu.Lock()
	l, ok := t.listeners[Addr{Name: addr.String()}]
	t.mu.Unlock()

	if !ok {
		return nil, transport.ErrConnRefused
	}

	local, remote := NewPair("dialer", l.addr.Name, t.clock)
	req := dialRequest{conn: remote, accepted: make(chan struct{})}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnRefused
	case l.requests <- req:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnRefused
	case <-req.accepted:
	}

	return local, nil
}

type Listener struct {
	addr      Addr
	transport *Transport

	requests chan dialRequest
	closed   chan struct{}
	once     sync.Once
}

var _ transport.ConnListener = (*Listener)(nil)

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, transport.ErrConnListenerClosed
	case req := <-l.requests:
		close(req.accepted)
		return req.conn, nil
	}
}

func (l *Listener) Close() error {
	err := transport.ErrConnListenerClosed
	l.once.Do(func() {
		close(l.closed)

		l.transport.mu.Lock()
		delete(l.transport.listeners, l.addr)
		l.transport.mu.Unlock()

		err = nil
	})
	return err
}

func (l *Listener) Addr() transport.Addr { return l.addr }

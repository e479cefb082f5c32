package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go-httpd/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Server struct {
	l transport.ConnListener

	closeListener func()
	cancelConns   func()
	acceptDone    chan struct{}
	closeOnce     sync.Once
	wg            sync.WaitGroup

	logger *slog.Logger
	opts   Options

	handle HandleFunc
	clock  clock.Clock
}

func New(
	l transport.ConnListener,
	logger *slog.Logger,
	clock clock.Clock,
	handle HandleFunc,
	opts Options,
) *Server {
	if handle == nil {
		handle = NotFound
	}

	return &Server{
		l:      l,
		logger: logger,
		opts:   opts,
		handle: handle,
		clock:  clock,
	}
}

// Start runs the accept loop in its own goroutine and returns immediately.
// Every accepted connection is served in a goroutine of its own.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	connCtx, connCancel := context.WithCancel(context.Background())

	s.closeListener = cancel
	s.cancelConns = connCancel
	s.acceptDone = make(chan struct{})

	go func() {
		defer close(s.acceptDone)
		s.logger.Info("accepting connections", "addr", s.l.Addr())

		var delay time.Duration
		for {
			conn, err := s.acceptConn(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				if errors.Is(err, transport.ErrConnListenerClosed) {
					s.logger.Error("listener closed, no longer accepting connections")
					return
				}

				delay = s.opts.nextRetryDelay(delay)
				s.logger.Warn("accepting connection failed, retrying", "error", err, "retry_in", delay)
				if !s.sleep(ctx, delay) {
					return
				}
				continue
			}
			delay = 0

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				conn.start(connCtx)
			}()
		}
	}()
}

// sleep reports false if ctx was done before d elapsed.
func (s *Server) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := s.clock.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (s *Server) acceptConn(ctx context.Context) (*conn, error) {
	con, err := s.l.Accept(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listening for connection")
	}

	logger := s.logger.With("conn", con.RemoteAddr())
	logger.Debug("connection accepted")

	return &conn{
		con:    con,
		handle: s.handle,
		clock:  s.clock,
		logger: logger,
		opts:   s.opts,
		state:  stateAccepted,
	}, nil
}

func (s *Server) Addr() transport.Addr { return s.l.Addr() }

// Close stops accepting, closes the listener and interrupts in-flight connections.
// It returns once every connection goroutine has exited.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closeListener != nil {
			s.closeListener()
			<-s.acceptDone
		}

		if e := s.l.Close(); e != nil && !errors.Is(e, transport.ErrConnListenerClosed) {
			err = errors.Wrap(e, "closing listener")
		}

		if s.cancelConns != nil {
			s.cancelConns()
		}
		s.wg.Wait()

		s.logger.Info("server closed")
	})
	return err
}

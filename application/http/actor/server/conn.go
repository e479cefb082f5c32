package server

import (
	"context"
	"log/slog"

	"go-httpd/application/http"
	"go-httpd/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type connState uint8

const (
	stateAccepted connState = iota
	stateParsing
	stateResponding
	stateClosed
	stateErrored
)

func (s connState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateParsing:
		return "parsing"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	case stateErrored:
		return "errored"
	}
	return "unknown"
}

// conn serves exactly one request, then closes.
type conn struct {
	con    transport.Conn
	handle HandleFunc
	clock  clock.Clock
	logger *slog.Logger
	opts   Options

	state connState
}

func (c *conn) setState(state connState) {
	c.logger.Debug("connection state changed", "from", c.state, "to", state)
	c.state = state
}

func (c *conn) start(ctx context.Context) {
	start := c.clock.Now()

	// Unblocks pending reads and writes on shutdown.
	stop := context.AfterFunc(ctx, func() { c.con.Close() })
	defer stop()

	defer func() {
		if err := c.con.Close(); err != nil && !errors.Is(err, transport.ErrConnClosed) {
			c.logger.Error("error when closing connection", "error", err)
		}
		c.logger.Debug("connection finished", "state", c.state, "elapsed", c.clock.Since(start))
	}()

	err := c.serve(ctx)
	switch {
	case err == nil:
		// no-op.
	case ctx.Err() != nil:
		c.logger.Debug("connection interrupted by shutdown", "error", err)
	case http.IsParseError(err):
		c.logger.Info("malformed request", "error", err)
	case errors.Is(err, transport.ErrDeadLineExceeded):
		c.logger.Info("timeout exceeded", "error", err)
	default:
		c.logger.Error("connection failed", "error", err)
	}
}

func (c *conn) serve(ctx context.Context) error {
	dec := http.NewRequestDecoder(c.con, c.opts.Decode)
	enc := http.NewResponseEncoder(c.con)

	c.setState(stateParsing)
	request, err := c.readRequest(dec)
	if err != nil {
		c.setState(stateErrored)
		return errors.Wrap(err, "reading request")
	}
	c.logger.Info("request received", "method", request.Method, "path", request.Path)

	c.setState(stateResponding)
	hctx := &HandleContext{ctx: ctx, remoteAddr: c.con.RemoteAddr()}
	response, err := hctx.doHandle(c.handle, request)
	if err != nil {
		c.setState(stateErrored)
		return errors.Wrap(err, "handling request")
	}

	n, err := c.writeResponse(response, enc)
	if err != nil {
		c.setState(stateErrored)
		return errors.Wrap(err, "writing response")
	}
	c.logger.Info("response sent", "status", response.Status.Code(), "body_bytes", n)

	c.setState(stateClosed)
	return nil
}

func (c *conn) readRequest(dec *http.RequestDecoder) (*http.Request, error) {
	if timeout := c.opts.Timeout.ReadTimeout; timeout > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(timeout))
	}

	var request http.Request
	if err := dec.Decode(&request); err != nil {
		return nil, err
	}

	return &request, nil
}

func (c *conn) writeResponse(response *http.Response, enc *http.ResponseEncoder) (int64, error) {
	if timeout := c.opts.Timeout.WriteTimeout; timeout > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(timeout))
	}

	return enc.Encode(response)
}

// Package client sends single GET requests and reads back whatever the server answers.
// Each request uses a connection of its own which is closed afterwards.
package client

import (
	"context"
	"log/slog"

	"go-httpd/application/http"
	"go-httpd/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Client struct {
	opts Options

	logger     *slog.Logger
	clock      clock.Clock
	connDialer transport.ConnDialer
}

func New(
	d transport.ConnDialer,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		connDialer: d,
		logger:     logger,
		clock:      clock,
		opts:       opts,
	}
}

// Get requests path from addr.
// The response body is read per Content-Length when present, otherwise until the server closes.
func (c *Client) Get(ctx context.Context, addr transport.Addr, path string, headers http.Headers) (*http.RawResponse, error) {
	con, err := c.dial(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "dialing")
	}
	defer con.Close()

	// Unblocks the exchange when ctx is done.
	stop := context.AfterFunc(ctx, func() { con.Close() })
	defer stop()

	logger := c.logger.With("addr", addr, "path", path)

	if timeout := c.opts.Timeout.ResponseTimeout; timeout > 0 {
		deadLine := c.clock.Now().Add(timeout)
		con.SetReadDeadLine(deadLine)
		con.SetWriteDeadLine(deadLine)
	}

	request := http.Request{Method: http.MethodGet, Path: path, Headers: headers}
	if err := http.NewRequestEncoder(con).Encode(request); err != nil {
		return nil, c.ctxErr(ctx, errors.Wrap(err, "sending request"))
	}
	logger.Debug("request sent")

	var response http.RawResponse
	dec := http.NewResponseDecoder(con, c.opts.Receive.Decode)
	if err := dec.Decode(&response); err != nil {
		return nil, c.ctxErr(ctx, errors.Wrap(err, "receiving response"))
	}
	logger.Debug("response received", "status", response.StatusCode, "body_bytes", len(response.Body))

	return &response, nil
}

func (c *Client) dial(ctx context.Context, addr transport.Addr) (transport.Conn, error) {
	if timeout := c.opts.Timeout.DialTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return c.connDialer.Dial(ctx, addr)
}

// ctxErr prefers the context's error, since a done context is what closed the conn.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, err.Error())
	}
	return err
}

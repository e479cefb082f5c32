package server

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"go-httpd/application/http"
	"go-httpd/application/http/status"
	"go-httpd/transport"
	"go-httpd/transport/pipe"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type ConnTestSuite struct {
	suite.Suite

	ctx       context.Context
	clock     clock.Clock
	otherConn transport.Conn

	conn *conn
}

func TestConnTestSuite(t *testing.T) {
	suite.Run(t, new(ConnTestSuite))
}

func (s *ConnTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.New()

	con, otherConn := pipe.NewPair("server", "client", s.clock)
	s.otherConn = otherConn

	s.conn = &conn{
		con:    con,
		handle: NotFound,
		clock:  s.clock,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		opts:   DefaultOptions,
		state:  stateAccepted,
	}
}

func (s *ConnTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.conn.con.Close()
	s.otherConn.Close()
}

// send writes raw to the client end, then closes it when closeAfter is set.
func (s *ConnTestSuite) send(wg *sync.WaitGroup, raw string, closeAfter bool) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if raw != "" {
			_, err := s.otherConn.Write([]byte(raw))
			s.NoError(err)
		}
		if closeAfter {
			s.NoError(s.otherConn.Close())
		}
	}()
}

func (s *ConnTestSuite) TestServeNotFound() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.send(&wg, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n", false)

	wg.Add(1)
	go func() {
		defer wg.Done()

		var res http.RawResponse
		s.Require().NoError(http.NewResponseDecoder(s.otherConn, http.DefaultDecodeOptions).Decode(&res))

		s.Equal(status.NotFound.Code(), res.StatusCode)
		s.Equal("Not Found", res.ReasonPhrase)

		contentType, _ := res.Headers.Get("Content-Type")
		s.Equal(http.ContentTypeHTML, contentType)
		s.Equal(NotFoundPage, string(res.Body))
	}()

	s.NoError(s.conn.serve(s.ctx))
	s.Equal(stateClosed, s.conn.state)
}

func (s *ConnTestSuite) TestServeReceivesRequest() {
	var wg sync.WaitGroup
	defer wg.Wait()

	var got *http.Request
	s.conn.handle = func(c *HandleContext, request *http.Request) *http.Response {
		got = request
		s.Equal(s.ctx, c.Context())
		s.Equal("client", c.RemoteAddr().String())
		return NotFound(c, request)
	}

	s.send(&wg, "GET /index.html HTTP/1.1\nHost: localhost\nAccept: */*\n\n", false)

	wg.Add(1)
	go func() {
		defer wg.Done()
		var res http.RawResponse
		s.NoError(http.NewResponseDecoder(s.otherConn, http.DefaultDecodeOptions).Decode(&res))
	}()

	s.Require().NoError(s.conn.serve(s.ctx))
	s.Require().NotNil(got)

	s.Equal(http.MethodGet, got.Method)
	s.Equal("/index.html", got.Path)
	s.Equal(map[string]string{"Host": "localhost", "Accept": "*/*"}, got.Headers.Map())
}

func (s *ConnTestSuite) TestServeMalformedRequest() {
	testcases := []struct {
		desc     string
		raw      string
		expected error
	}{
		{desc: "unsupported method", raw: "POST / HTTP/1.1\r\n\r\n", expected: http.ErrUnsupportedMethod},
		{desc: "missing path", raw: "GET\r\n\r\n", expected: http.ErrMissingPath},
		{desc: "header without colon", raw: "GET / HTTP/1.1\r\nHost\r\n\r\n", expected: http.ErrMissingHeaderValue},
		{desc: "empty stream", raw: "", expected: http.ErrMissingMethod},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			s.SetupTest()
			defer s.TearDownTest()

			var wg sync.WaitGroup
			defer wg.Wait()

			handled := false
			s.conn.handle = func(c *HandleContext, request *http.Request) *http.Response {
				handled = true
				return NotFound(c, request)
			}

			s.send(&wg, tc.raw, true)

			err := s.conn.serve(s.ctx)
			s.ErrorIs(err, tc.expected)
			s.True(http.IsParseError(err))
			s.False(handled)
			s.Equal(stateErrored, s.conn.state)
		})
	}
}

func (s *ConnTestSuite) TestServeUnexpectedEOF() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.send(&wg, "GET / HTTP/1.1\r\nHost: localhost\r\n", true)

	err := s.conn.serve(s.ctx)
	s.ErrorIs(err, io.ErrUnexpectedEOF)
	s.False(http.IsParseError(err))
	s.Equal(stateErrored, s.conn.state)
}

func (s *ConnTestSuite) TestServeNothingWrittenOnParseError() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.send(&wg, "POST / HTTP/1.1\r\n\r\n", false)

	s.Error(s.conn.serve(s.ctx))
	s.NoError(s.conn.con.Close())

	b, err := io.ReadAll(s.otherConn)
	s.NoError(err)
	s.Empty(b)
}

func (s *ConnTestSuite) TestServeWriteFailure() {
	var wg sync.WaitGroup
	defer wg.Wait()

	// The client leaves without reading the response.
	s.send(&wg, "GET / HTTP/1.1\r\n\r\n", true)

	err := s.conn.serve(s.ctx)
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Equal(stateErrored, s.conn.state)
}

func (s *ConnTestSuite) TestServeHandlerPanic() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.conn.handle = func(c *HandleContext, request *http.Request) *http.Response {
		panic("boom")
	}

	s.send(&wg, "GET / HTTP/1.1\r\n\r\n", false)

	err := s.conn.serve(s.ctx)
	s.ErrorContains(err, "boom")
	s.Equal(stateErrored, s.conn.state)
}

func (s *ConnTestSuite) TestServeNilResponse() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.conn.handle = func(c *HandleContext, request *http.Request) *http.Response { return nil }

	s.send(&wg, "GET / HTTP/1.1\r\n\r\n", false)

	s.Error(s.conn.serve(s.ctx))
	s.Equal(stateErrored, s.conn.state)
}

func (s *ConnTestSuite) TestReadTimeout() {
	s.conn.opts.Timeout.ReadTimeout = 20 * time.Millisecond

	err := s.conn.serve(s.ctx)
	s.ErrorIs(err, transport.ErrDeadLineExceeded)
	s.Equal(stateErrored, s.conn.state)
}

func (s *ConnTestSuite) TestStartClosesConn() {
	var wg sync.WaitGroup
	defer wg.Wait()

	s.send(&wg, "GET / HTTP/1.1\r\n\r\n", false)

	wg.Add(1)
	go func() {
		defer wg.Done()
		var res http.RawResponse
		s.NoError(http.NewResponseDecoder(s.otherConn, http.DefaultDecodeOptions).Decode(&res))

		// Server side is gone once the response is through.
		_, err := s.otherConn.Read(make([]byte, 1))
		s.ErrorIs(err, io.EOF)
	}()

	s.conn.start(s.ctx)
}

func (s *ConnTestSuite) TestStartInterruptedByCancel() {
	ctx, cancel := context.WithCancel(s.ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.conn.start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.FailNow("connection was not interrupted")
	}
	s.Equal(stateErrored, s.conn.state)

	_, err := s.conn.con.Read(make([]byte, 1))
	s.ErrorIs(err, transport.ErrConnClosed)
}

func TestConnStateString(t *testing.T) {
	states := map[connState]string{
		stateAccepted:   "accepted",
		stateParsing:    "parsing",
		stateResponding: "responding",
		stateClosed:     "closed",
		stateErrored:    "errored",
		connState(42):   "unknown",
	}
	for state, expected := range states {
		if got := state.String(); got != expected {
			t.Errorf("connState(%d).String() = %q, want %q", state, got, expected)
		}
	}
}

package http

import (
	"io"
	"strings"
	"testing"

	"go-httpd/application/http/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTMLResponse(t *testing.T) {
	testcases := []struct {
		desc   string
		text   string
		length string
	}{
		{desc: "simple page", text: "<html></html>", length: "13"},
		{desc: "empty", text: "", length: "0"},
		{desc: "multi-byte characters", text: "<p>héllo, 世界</p>", length: "21"},
		{desc: "emoji", text: "🙂", length: "4"},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			res := NewHTMLResponse(status.NotFound, tc.text)

			assert.Equal(t, status.NotFound, res.Status)
			assert.Equal(t, []Field{
				{"Content-Type", "text/html"},
				{"Content-Length", tc.length},
			}, res.Headers.Fields())

			n, ok := res.ContentLength()
			require.True(t, ok)

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.text, string(body))
			assert.Equal(t, int64(len(body)), n)
		})
	}
}

func TestNewResponseUnknownLength(t *testing.T) {
	res := NewResponse(status.NotFound, "text/plain", NewStreamBody(strings.NewReader("stream"), -1))

	_, ok := res.Headers.Get("Content-Length")
	assert.False(t, ok)

	_, ok = res.ContentLength()
	assert.False(t, ok)

	v, _ := res.Headers.Get("Content-Type")
	assert.Equal(t, "text/plain", v)
}

func TestNewResponseDeclaredLength(t *testing.T) {
	res := NewResponse(status.NotFound, "", NewStreamBody(strings.NewReader("Hello, World!"), 5))

	assert.Equal(t, []Field{{"Content-Length", "5"}}, res.Headers.Fields())

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(body))
}

func TestNewResponseNilBody(t *testing.T) {
	res := NewResponse(status.NotFound, "", nil)
	assert.Zero(t, res.Headers.Len())
}

func TestContentLengthInvalid(t *testing.T) {
	res := &Response{Status: status.NotFound, Headers: NewHeaders(Field{"Content-Length", "-1"})}
	_, ok := res.ContentLength()
	assert.False(t, ok)

	res.Headers.Set("Content-Length", "abc")
	_, ok = res.ContentLength()
	assert.False(t, ok)
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestStreamBodyClose(t *testing.T) {
	for _, size := range []int64{-1, 3} {
		src := &closeTracker{Reader: strings.NewReader("abc")}
		body := NewStreamBody(src, size)

		require.NoError(t, body.Close())
		assert.True(t, src.closed)
		assert.Equal(t, size, body.Size())
	}
}

package http

import (
	"bytes"
	"io"
	"strconv"

	"go-httpd/application/http/status"
	iolib "go-httpd/lib/io"
)

const ContentTypeHTML = "text/html"

// Body is the source of a response payload.
// It is read sequentially and drained exactly once by the encoder.
type Body interface {
	io.Reader
}

// Sized is implemented by bodies whose length is known before they are read.
type Sized interface {
	Size() int64
}

// BytesBody is an in-memory body.
type BytesBody struct {
	r *bytes.Reader
}

var (
	_ Body  = (*BytesBody)(nil)
	_ Sized = (*BytesBody)(nil)
)

func NewBytesBody(b []byte) *BytesBody {
	return &BytesBody{r: bytes.NewReader(b)}
}

func (b *BytesBody) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *BytesBody) Size() int64                { return b.r.Size() }

// StreamBody wraps a reader whose content is produced while it is sent,
// e.g. a file or another connection.
type StreamBody struct {
	r    io.Reader
	size int64
}

var (
	_ Body      = (*StreamBody)(nil)
	_ io.Closer = (*StreamBody)(nil)
)

// NewStreamBody creates a body reading from r.
// A negative size marks the length as unknown. Otherwise at most size bytes
// are read from r.
func NewStreamBody(r io.Reader, size int64) *StreamBody {
	if size < 0 {
		return &StreamBody{r: r, size: -1}
	}
	return &StreamBody{r: iolib.LimitReader(r, uint(size)), size: size}
}

func (s *StreamBody) Read(p []byte) (int, error) { return s.r.Read(p) }

// Size returns -1 if the length is unknown.
func (s *StreamBody) Size() int64 { return s.size }

func (s *StreamBody) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func bodySize(body Body) (int64, bool) {
	sized, ok := body.(Sized)
	if !ok {
		return 0, false
	}

	size := sized.Size()
	return size, size >= 0
}

type Response struct {
	Status  status.Status
	Headers Headers
	Body    Body
}

// NewHTMLResponse builds a response carrying text as an html page.
// Its headers are exactly Content-Type and Content-Length.
func NewHTMLResponse(st status.Status, text string) *Response {
	return NewResponse(st, ContentTypeHTML, NewBytesBody([]byte(text)))
}

// NewResponse builds a response around body.
// Content-Length is only set when the body length is known up front.
func NewResponse(st status.Status, contentType string, body Body) *Response {
	res := &Response{Status: st, Body: body}

	if contentType != "" {
		res.Headers.Set("Content-Type", contentType)
	}

	if size, ok := bodySize(body); ok {
		res.Headers.Set("Content-Length", strconv.FormatInt(size, 10))
	}

	return res
}

// ContentLength reports the value of the Content-Length header.
// ok is false if the header is absent or not a valid length.
func (r *Response) ContentLength() (n int64, ok bool) {
	v, found := r.Headers.Get("Content-Length")
	if !found {
		return 0, false
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

package http

import (
	"bufio"
	"bytes"
	"io"

	iolib "go-httpd/lib/io"

	"github.com/pkg/errors"
)

type MessageEncoder struct {
	bw *bufio.Writer
	cw *iolib.CountingWriter
}

func newMessageEncoder(w io.Writer) MessageEncoder {
	cw := iolib.NewCountingWriter(w)
	return MessageEncoder{bw: bufio.NewWriter(cw), cw: cw}
}

// Written returns the number of bytes that reached the underlying writer.
func (me *MessageEncoder) Written() uint64 { return me.cw.Count() }

func (me *MessageEncoder) writeLine(line []byte) error {
	if _, err := me.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := me.bw.Write(CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (me *MessageEncoder) encodeHeaders(headers Headers) error {
	for _, field := range headers.fields {
		if err := me.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// An empty line ends the header block.
	if err := me.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

var (
	ErrInvalidStatus         = errors.New("invalid status")
	ErrContentLengthMismatch = errors.New("body length does not match content length")
)

type ResponseEncoder struct{ MessageEncoder }

func NewResponseEncoder(w io.Writer) *ResponseEncoder {
	return &ResponseEncoder{newMessageEncoder(w)}
}

// Encode writes the status line, the headers, an empty line and the whole body.
// Any failure leaves the response partially sent, the connection should be dropped.
// It returns the number of body bytes written.
func (re *ResponseEncoder) Encode(response *Response) (int64, error) {
	if response.Body != nil {
		if c, ok := response.Body.(io.Closer); ok {
			defer c.Close()
		}
	}

	if !response.Status.Valid() {
		return 0, errors.Wrapf(ErrInvalidStatus, "status %d", response.Status)
	}

	line := append(Version1_1.Text(), SP)
	line = append(line, response.Status.Text()...)
	if err := re.writeLine(line); err != nil {
		return 0, errors.Wrap(err, "encoding status line")
	}

	if err := re.encodeHeaders(response.Headers); err != nil {
		return 0, errors.Wrap(err, "encoding headers")
	}

	if err := re.bw.Flush(); err != nil {
		return 0, errors.Wrap(err, "flushing status line & header")
	}

	n, err := re.encodeBody(response)
	if err != nil {
		return n, err
	}

	if err := re.bw.Flush(); err != nil {
		return n, errors.Wrap(err, "flushing response body")
	}

	return n, nil
}

func (re *ResponseEncoder) encodeBody(response *Response) (int64, error) {
	body := response.Body
	if body == nil {
		// Still has to agree with a declared length.
		body = bytes.NewReader(nil)
	}

	length, hasLength := response.ContentLength()
	if !hasLength {
		n, err := io.Copy(re.bw, body)
		if err != nil {
			return n, errors.Wrap(err, "writing response body")
		}
		return n, nil
	}

	n, err := io.CopyN(re.bw, body, length)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, errors.Wrapf(ErrContentLengthMismatch, "body ended after %d of %d bytes", n, length)
		}
		return n, errors.Wrap(err, "writing response body")
	}

	// The body must be exhausted exactly at the declared length.
	if extra, _ := io.CopyN(io.Discard, body, 1); extra > 0 {
		return n, errors.Wrapf(ErrContentLengthMismatch, "body longer than %d bytes", length)
	}

	return n, nil
}

type RequestEncoder struct{ MessageEncoder }

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{newMessageEncoder(w)}
}

var (
	ErrInvalidMethod    = errors.New("invalid method")
	ErrInvalidTarget    = errors.New("invalid request target")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrInvalidFieldVal  = errors.New("invalid field value")
)

func validateRequest(request Request) error {
	if _, ok := methodTokens[request.Method]; !ok {
		return errors.Wrapf(ErrInvalidMethod, "method %d", request.Method)
	}
	if !isValidTarget(request.Path) {
		return errors.Wrapf(ErrInvalidTarget, "%q", request.Path)
	}
	for _, f := range request.Headers.fields {
		if !isValidToken(f.Name) {
			return errors.Wrapf(ErrInvalidFieldName, "%q", f.Name)
		}
		if !isValidFieldValue(f.Value) {
			return errors.Wrapf(ErrInvalidFieldVal, "field %s", f.Name)
		}
	}
	return nil
}

// Encode writes nothing if request cannot be represented on the wire.
func (re *RequestEncoder) Encode(request Request) error {
	if err := validateRequest(request); err != nil {
		return err
	}

	line := append([]byte(request.Method.String()), SP)
	line = append(line, request.Path...)
	line = append(line, SP)
	line = append(line, Version1_1.Text()...)

	if err := re.writeLine(line); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request.Headers); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request line & header")
	}

	return nil
}

package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	iolib "go-httpd/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// MaxLineLength limits the length of a single line, terminator included.
	// Zero means no limit.
	MaxLineLength uint

	// MaxHeaderCount limits the number of header lines in a message.
	// Zero means no limit.
	MaxHeaderCount uint
}

var DefaultDecodeOptions = DecodeOptions{
	MaxLineLength:  0,
	MaxHeaderCount: 0,
}

type MessageDecoder struct {
	br   *bufio.Reader
	opts DecodeOptions
}

// readLine reads up to and including the next LF and returns the line
// without its LF or CRLF terminator.
// On error the raw bytes read so far are returned along with it.
func (md *MessageDecoder) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := md.br.ReadSlice(LF)
		line = append(line, chunk...)

		if limit := md.opts.MaxLineLength; limit > 0 && uint(len(line)) > limit {
			return nil, ErrLineTooLong
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			return line, err
		}
		break
	}

	line = line[:len(line)-1]
	line = bytes.TrimSuffix(line, []byte{CR})

	return line, nil
}

// decodeHeaders reads field lines until an empty line.
// Running out of input before that empty line is an I/O failure,
// not an empty header block.
func (md *MessageDecoder) decodeHeaders(headers *Headers) error {
	var tmp Headers
	for count := uint(0); ; count++ {
		line, err := md.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return errors.Wrap(err, "reading field line")
		}

		if len(line) == 0 {
			break
		}

		if limit := md.opts.MaxHeaderCount; limit > 0 && count >= limit {
			return ErrTooManyHeaders
		}

		field, err := parseField(line)
		if err != nil {
			return err
		}

		tmp.Set(field.Name, field.Value)
	}

	*headers = tmp

	return nil
}

// parseField splits a field line at its first colon.
// The name is kept as is, the value is trimmed.
func parseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, errors.Wrapf(ErrMissingHeaderValue, "field line %q", line)
	}

	if len(name) == 0 {
		return Field{}, errors.Wrapf(ErrMissingHeaderName, "field line %q", line)
	}

	return Field{Name: string(name), Value: strings.TrimSpace(string(value))}, nil
}

type RequestDecoder struct{ MessageDecoder }

func NewRequestDecoder(r io.Reader, opts DecodeOptions) *RequestDecoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &RequestDecoder{
		MessageDecoder{br: br, opts: opts},
	}
}

// r MUST be a non-nil pointer
func (rd *RequestDecoder) Decode(r *Request) error {
	var req Request
	if err := rd.decodeRequestLine(&req); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	if err := rd.decodeHeaders(&req.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	*r = req

	return nil
}

func (rd *RequestDecoder) decodeRequestLine(req *Request) error {
	line, err := rd.readLine()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return errors.Wrap(err, "reading line")
		}
		// The stream ended. Whatever was read is still split below,
		// an empty read is reported as a missing method.
	}

	parts := strings.Fields(string(line))
	if len(parts) == 0 {
		return ErrMissingMethod
	}

	method, err := ParseMethod(parts[0])
	if err != nil {
		return err
	}

	if len(parts) < 2 {
		return ErrMissingPath
	}

	// Anything after the path (the protocol version) is not validated.
	req.Method = method
	req.Path = parts[1]

	return nil
}

var ErrMalformedStatusLine = errors.New("status line is malformed")

// RawResponse is a response as read back from the wire.
type RawResponse struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
	Headers      Headers
	Body         []byte
}

type ResponseDecoder struct{ MessageDecoder }

func NewResponseDecoder(r io.Reader, opts DecodeOptions) *ResponseDecoder {
	return &ResponseDecoder{
		MessageDecoder{br: bufio.NewReader(r), opts: opts},
	}
}

// Decode reads a whole response. The body is delimited by Content-Length
// when present, otherwise it extends to the end of the stream.
//
// r MUST be a non-nil pointer
func (rd *ResponseDecoder) Decode(r *RawResponse) error {
	var res RawResponse

	line, err := rd.readLine()
	if err != nil {
		return errors.Wrap(err, "reading status line")
	}

	if err := parseStatusLine(line, &res); err != nil {
		return err
	}

	if err := rd.decodeHeaders(&res.Headers); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	if cl, ok := res.Headers.Get("Content-Length"); ok {
		n, err := strconv.ParseUint(cl, 10, 63)
		if err != nil {
			return errors.Errorf("invalid content length: %q", cl)
		}

		// The declared length is untrusted, the body grows only as bytes arrive.
		res.Body, err = io.ReadAll(iolib.LimitReader(rd.br, uint(n)))
		if err != nil {
			return errors.Wrap(err, "reading body")
		}
		if uint64(len(res.Body)) < n {
			return errors.Wrapf(io.ErrUnexpectedEOF, "reading body: got %d of %d bytes", len(res.Body), n)
		}
	} else {
		res.Body, err = io.ReadAll(rd.br)
		if err != nil {
			return errors.Wrap(err, "reading body")
		}
	}

	*r = res

	return nil
}

func parseStatusLine(line []byte, res *RawResponse) error {
	parts := bytes.SplitN(line, []byte{SP}, 3)
	if len(parts) < 3 {
		return ErrMalformedStatusLine
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	code, err := strconv.ParseUint(string(parts[1]), 10, 64)
	if err != nil || len(parts[1]) != 3 {
		return errors.Wrapf(ErrMalformedStatusLine, "status code %q", parts[1])
	}

	res.Version = ver
	res.StatusCode = uint(code)
	res.ReasonPhrase = string(parts[2])

	return nil
}

package http

import (
	"strconv"

	"github.com/pkg/errors"
)

type Method uint8

const (
	MethodGet Method = iota + 1
)

var methodTokens = map[Method]string{
	MethodGet: "GET",
}

// ParseMethod maps a request line token to a [Method].
// Tokens are case-sensitive.
func ParseMethod(token string) (Method, error) {
	for m, t := range methodTokens {
		if t == token {
			return m, nil
		}
	}
	return 0, &UnsupportedMethodError{Token: token}
}

func (m Method) String() string {
	if t, ok := methodTokens[m]; ok {
		return t
	}
	return "Method(" + strconv.Itoa(int(m)) + ")"
}

type Request struct {
	Method  Method
	Path    string
	Headers Headers
}

var (
	ErrMissingMethod      = errors.New("missing method")
	ErrMissingPath        = errors.New("missing path")
	ErrUnsupportedMethod  = errors.New("unsupported method")
	ErrMissingHeaderName  = errors.New("missing header name")
	ErrMissingHeaderValue = errors.New("missing header value")
	ErrLineTooLong        = errors.New("line length exceeds limit")
	ErrTooManyHeaders     = errors.New("header count exceeds limit")
)

var parseErrors = []error{
	ErrMissingMethod,
	ErrMissingPath,
	ErrUnsupportedMethod,
	ErrMissingHeaderName,
	ErrMissingHeaderValue,
	ErrLineTooLong,
	ErrTooManyHeaders,
}

// UnsupportedMethodError carries the rejected method token.
type UnsupportedMethodError struct {
	Token string
}

func (e *UnsupportedMethodError) Error() string {
	return "unsupported method: " + e.Token
}

func (e *UnsupportedMethodError) Is(target error) bool {
	return target == ErrUnsupportedMethod
}

// IsParseError reports whether err means the client sent a malformed request,
// as opposed to the transport failing.
func IsParseError(err error) bool {
	for _, target := range parseErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

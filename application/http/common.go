package http

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

const (
	CR byte = '\r'
	LF byte = '\n'
	SP byte = ' '
)

var CRLF = []byte{CR, LF}

// [Major, Minor]
type Version [2]uint

// Version1_1 is the only version this package writes.
var Version1_1 = Version{1, 1}

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot separator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	b := append([]byte("HTTP/"), strconv.FormatUint(uint64(ver[0]), 10)...)
	b = append(b, '.')
	return append(b, strconv.FormatUint(uint64(ver[1]), 10)...)
}

func (ver Version) String() string { return string(ver.Text()) }

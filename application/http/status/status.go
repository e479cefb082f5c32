// Package status enumerates the response statuses the server can emit.
package status

// Status is a closed set. Each variant owns one status line text
// which embeds both the code and the reason phrase.
type Status uint8

const (
	NotFound Status = iota + 1
)

type entry struct {
	code uint
	text string
}

// Client Error 4xx
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.5
var table = map[Status]entry{
	NotFound: {404, "404 Not Found"},
}

// Text returns the part of the status line after the version, e.g. "404 Not Found".
func (s Status) Text() string {
	return table[s].text
}

func (s Status) Code() uint {
	return table[s].code
}

func (s Status) Valid() bool {
	_, ok := table[s]
	return ok
}

func (s Status) String() string {
	if !s.Valid() {
		return "unknown status"
	}
	return s.Text()
}

func FromCode(code uint) (Status, bool) {
	for s, e := range table {
		if e.code == code {
			return s, true
		}
	}
	return 0, false
}

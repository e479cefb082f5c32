package http

import "strings"

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func isValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		// ALPHA
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			continue
		}
		// DIGIT
		if '0' <= c && c <= '9' {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// Field values must not break out of their line.
func isValidFieldValue(s string) bool {
	return !strings.ContainsAny(s, "\r\n")
}

// A request target is a single whitespace-free word.
func isValidTarget(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

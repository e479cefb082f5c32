// Package http implements the HTTP/1.1 wire layer of the server:
// request parsing, response construction and response serialization.
//
// Only the subset needed by a single-request, close-after-response server
// is covered. There is no keep-alive, no chunked transfer coding and no
// request body.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http

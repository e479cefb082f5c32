package client

import (
	"time"

	"go-httpd/application/http"
)

type Options struct {
	Receive ReceiveOptions
	Timeout TimeoutOptions
}

type ReceiveOptions struct {
	Decode http.DecodeOptions
}

// Zero values disable the timeout.
type TimeoutOptions struct {
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
	// ResponseTimeout bounds the whole exchange once connected.
	ResponseTimeout time.Duration
}

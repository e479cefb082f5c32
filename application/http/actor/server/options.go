package server

import (
	"time"

	"go-httpd/application/http"
)

type Options struct {
	Decode  http.DecodeOptions
	Timeout TimeoutOptions

	// AcceptRetryDelay is the first pause after a failed accept.
	// It doubles on every consecutive failure up to MaxAcceptRetryDelay.
	// Zero retries immediately.
	AcceptRetryDelay    time.Duration
	MaxAcceptRetryDelay time.Duration
}

// Zero values disable the timeout.
type TimeoutOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

var DefaultOptions = Options{
	Decode:              http.DefaultDecodeOptions,
	AcceptRetryDelay:    5 * time.Millisecond,
	MaxAcceptRetryDelay: time.Second,
}

func (o Options) nextRetryDelay(prev time.Duration) time.Duration {
	if o.AcceptRetryDelay <= 0 {
		return 0
	}
	if prev <= 0 {
		return o.AcceptRetryDelay
	}

	next := prev * 2
	if o.MaxAcceptRetryDelay > 0 && next > o.MaxAcceptRetryDelay {
		next = o.MaxAcceptRetryDelay
	}
	return next
}

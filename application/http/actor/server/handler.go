package server

import (
	"context"

	"go-httpd/application/http"
	"go-httpd/application/http/status"
	"go-httpd/transport"

	"github.com/pkg/errors"
)

type HandleFunc func(c *HandleContext, request *http.Request) *http.Response

type HandleContext struct {
	ctx        context.Context
	remoteAddr transport.Addr
}

func (c *HandleContext) doHandle(handle HandleFunc, request *http.Request) (res *http.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("handler panicked: %v", e)
		}
	}()

	response := handle(c, request)
	if response == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return response, nil
}

func (c *HandleContext) Context() context.Context   { return c.ctx }
func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }

const NotFoundPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>404 Not Found</title>
</head>
<body>
<h1>Not Found</h1>
<p>The requested resource could not be found on this server.</p>
</body>
</html>
`

// NotFound answers every request with [NotFoundPage].
func NotFound(c *HandleContext, request *http.Request) *http.Response {
	return http.NewHTMLResponse(status.NotFound, NotFoundPage)
}

// Command probe sends one GET request and prints the raw response.
//
//	probe <host:port> [path]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"time"

	"go-httpd/application/http"
	"go-httpd/application/http/actor/client"
	"go-httpd/transport/tcp"

	"github.com/benbjohnson/clock"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: probe <host:port> [path]")
		return 2
	}

	addr, err := net.ResolveTCPAddr("tcp", args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	path := "/"
	if len(args) == 2 {
		path = args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c := client.New(&tcp.Dialer{}, logger, clock.New(), client.Options{
		Receive: client.ReceiveOptions{Decode: http.DefaultDecodeOptions},
		Timeout: client.TimeoutOptions{
			DialTimeout:     5 * time.Second,
			ResponseTimeout: 10 * time.Second,
		},
	})

	headers := http.NewHeaders(http.Field{Name: "Host", Value: args[0]})
	res, err := c.Get(ctx, addr, path, headers)
	if err != nil {
		logger.Error("request failed", "error", err)
		return 1
	}

	fmt.Printf("%s %d %s\n", res.Version, res.StatusCode, res.ReasonPhrase)
	for _, f := range res.Headers.Fields() {
		fmt.Printf("%s\n", f.Text())
	}
	fmt.Println()
	os.Stdout.Write(res.Body)

	return 0
}

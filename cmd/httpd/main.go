// Command httpd answers every HTTP/1.1 GET request with a 404 page.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-httpd/application/http/actor/server"
	"go-httpd/transport/tcp"

	"github.com/benbjohnson/clock"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := ParseConfig(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	lis, err := tcp.Listen(cfg.Addr())
	if err != nil {
		logger.Error("failed to bind listener", "addr", cfg.Addr(), "error", err)
		return 1
	}

	srv := server.New(lis, logger, clock.New(), server.NotFound, server.DefaultOptions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.Start()
	logger.Info("listening", "addr", srv.Addr())

	<-ctx.Done()
	logger.Info("shutting down")

	if err := srv.Close(); err != nil {
		logger.Error("failed to shut down", "error", err)
		return 1
	}
	return 0
}

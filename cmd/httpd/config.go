package main

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 8080
)

var ErrUsage = errors.New("usage: httpd [port]")

type Config struct {
	Host string
	Port uint16
}

// ParseConfig reads the arguments following the program name.
// The only accepted argument is an optional port.
func ParseConfig(args []string) (Config, error) {
	cfg := Config{Host: defaultHost, Port: defaultPort}

	switch len(args) {
	case 0:
		return cfg, nil
	case 1:
	default:
		return Config{}, errors.Wrapf(ErrUsage, "unexpected arguments %q", args[1:])
	}

	port, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil || port == 0 {
		return Config{}, errors.Wrapf(ErrUsage, "invalid port %q", args[0])
	}
	cfg.Port = uint16(port)

	return cfg, nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

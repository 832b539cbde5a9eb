// Package netx contains small helpers for parsing the positional
// [port] [host] arguments accepted by the client and server binaries.
package netx

import (
	"fmt"
	"strconv"
)

// ParsePort validates a positional port argument.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// HostPort joins a host and a numeric port into a dialable address.
func HostPort(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vecu-cosim/cosim-host/sim/broker"
)

// ParseBrokerAddress splits "<host>:<port>" at the last colon. IPv6 hosts
// may be bracketed.
func ParseBrokerAddress(addr string) (string, int, error) {
	i := strings.LastIndex(addr, ":")
	if i < 0 {
		return "", 0, fmt.Errorf("invalid address format, expected <host>:<port>, got: %s", addr)
	}
	host := strings.TrimSuffix(strings.TrimPrefix(addr[:i], "["), "]")
	if host == "" {
		return "", 0, fmt.Errorf("missing host in %q", addr)
	}
	port, err := strconv.Atoi(addr[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid port number: %q", addr[i+1:])
	}
	if port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("port %d out of range", port)
	}
	return host, port, nil
}

// ResolveBrokerAddress is ParseBrokerAddress with a fallback: invalid input
// is reported and the default broker address is used instead.
func ResolveBrokerAddress(addr string) (string, int) {
	host, port, err := ParseBrokerAddress(addr)
	if err != nil {
		logrus.Warnf("%v; using default: %s:%d", err, broker.DefaultHost, broker.DefaultPort)
		return broker.DefaultHost, broker.DefaultPort
	}
	return host, port
}

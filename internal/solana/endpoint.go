package solana

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// WebSocketURL derives the pubsub endpoint from an HTTP RPC endpoint.
// Validators serve pubsub on the RPC port + 1, so an explicit port is
// incremented; hosted endpoints without a port share the HTTP host.
func WebSocketURL(rpcURL string) (string, error) {
	u, err := url.Parse(rpcURL)
	if err != nil {
		return "", fmt.Errorf("parse rpc url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported rpc url scheme %q", u.Scheme)
	}

	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return "", fmt.Errorf("parse rpc port: %w", err)
		}
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(p+1))
	}

	return u.String(), nil
}

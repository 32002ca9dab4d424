package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// authorizerPingTimeout bounds the authorizer reachability probe.
const authorizerPingTimeout = 1500 * time.Millisecond

var defaultPorts = map[string]string{
	"https": "443",
	"http":  "80",
	"mysql": "3306",
}

// PingService dials the host of serviceURL over TCP. Only reachability is
// checked; nothing is sent.
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return fmt.Errorf("invalid URL: no host in %q", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		port = defaultPorts[parsedURL.Scheme]
		if port == "" {
			port = "80"
		}
	}
	address := net.JoinHostPort(parsedURL.Hostname(), port)

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(ctx context.Context, authzURL string) error {
	return PingService(ctx, authzURL, authorizerPingTimeout)
}

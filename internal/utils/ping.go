package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// PingTimeout bounds every reachability check.
const PingTimeout = 1500 * time.Millisecond

var defaultPorts = map[string]string{
	"https": "443",
	"http":  "80",
	"smtp":  "587",
	"smtps": "465",
}

// PingService checks that a TCP connection can be opened to the host of serviceURL
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	host := parsedURL.Hostname()
	port := parsedURL.Port()
	if port == "" {
		port = defaultPorts[parsedURL.Scheme]
		if port == "" {
			port = "80"
		}
	}

	address := net.JoinHostPort(host, port)

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(ctx context.Context, authzURL string) error {
	return PingService(ctx, authzURL, PingTimeout)
}

// PingSMTP checks if the mail server is reachable
func PingSMTP(ctx context.Context, host string, port int) error {
	return PingService(ctx, "smtp://"+net.JoinHostPort(host, strconv.Itoa(port)), PingTimeout)
}

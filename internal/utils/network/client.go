package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// NewSecureHTTPClient returns an http.Client with the shared TLS settings.
// Callers reuse this instead of re-defining TLS configuration everywhere.
func NewSecureHTTPClient() *http.Client {
	return newClient(0, 30*time.Second)
}

// NewTransferClient returns a client tuned for file transfers. overall is
// the per-attempt watchdog; zero disables it so long downloads are bounded
// by the caller's context instead. connect caps dial time.
func NewTransferClient(overall, connect time.Duration) *http.Client {
	return newClient(overall, connect)
}

func newClient(overall, connect time.Duration) *http.Client {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}
	transport := &http.Transport{
		TLSClientConfig:   tlsConfig,
		ForceAttemptHTTP2: true,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &http.Client{
		Timeout:   overall,
		Transport: transport,
	}
}

package connectivity

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
)

// checkDNS verifies that host resolves to at least one address. The
// resolver has no dialer-level timeout, so the attempt is bounded here; a
// hung lookup must not stall the cycle.
func (p *Prober) checkDNS(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()

	if _, err := p.resolver.LookupHost(ctx, host); err != nil {
		return &DNSError{Host: host, Err: err}
	}
	return nil
}

// checkTLS performs a full TLS handshake against addr and closes the
// connection on every exit path. ServerName defaults to the host part of
// addr; p.tlsConfig overrides the config when a custom CA bundle is needed.
func (p *Prober) checkTLS(ctx context.Context, addr string) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.dialTimeout},
		Config:    p.tlsConfig,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &TLSError{Addr: addr, Err: err}
	}
	conn.Close()
	return nil
}

// checkHTTP performs the lightweight search-engine health call. Success is
// HTTP 200 exactly; any other status or transport error is a failure and
// never propagates as a panic past this check.
func (p *Prober) checkHTTP(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// checkTCP performs a bare connect-and-close probe against the queue
// service.
func (p *Prober) checkTCP(ctx context.Context, addr string) error {
	dialer := &net.Dialer{Timeout: p.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("queue connect failed for %s: %w", addr, err)
	}
	conn.Close()
	return nil
}

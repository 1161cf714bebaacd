package connectivity

import "fmt"

// DNSError reports a failed hostname resolution.
type DNSError struct {
	Host string
	Err  error
}

func (e *DNSError) Error() string {
	return fmt.Sprintf("dns resolution failed for %s: %v", e.Host, e.Err)
}

func (e *DNSError) Unwrap() error { return e.Err }

// TLSError reports a refused, timed-out or failed TLS handshake.
type TLSError struct {
	Addr string
	Err  error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("tls handshake failed for %s: %v", e.Addr, e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

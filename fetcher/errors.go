package fetcher

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrErrorPage is returned when a 2xx response carries an error page.
	ErrErrorPage = errors.New("response looks like an error page")
	// ErrInvalidURL is returned when the target cannot be turned into an
	// http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNotFeed is returned by FetchFeed when the body has no RSS or Atom
	// root marker.
	ErrNotFeed = errors.New("response is not an RSS or Atom feed")
)

// ErrorKind groups fetch failures by how callers should treat them.
type ErrorKind string

const (
	// KindNetwork covers timeouts, refused connections and TLS failures.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers non-2xx responses.
	KindHTTP ErrorKind = "http"
	// KindContent covers responses that arrived but are unusable. These are
	// never retried.
	KindContent ErrorKind = "content"
)

// FetchError is the terminal error of a fetch, carrying the last underlying
// error once the retry budget is spent.
type FetchError struct {
	URL        string
	Kind       ErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s) (status %d): %v",
			e.URL, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later run might succeed where this one failed.
func (e *FetchError) Retryable() bool {
	return e.Kind != KindContent
}

// statusError is the per-attempt error for a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.code)
}

// isTLSError reports whether err came from the TLS handshake or certificate
// verification.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}

	var verifyErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var authorityErr x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &verifyErr) || errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) || errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") ||
		strings.Contains(msg, "certificate")
}

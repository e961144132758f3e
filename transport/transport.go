// Package transport defines the HTTP collaborator the session layer talks
// to. The default implementation is a plain *http.Client with a cookie jar;
// callers may substitute anything that can execute a request, for example to
// record traffic in tests.
package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/opentam/tamclient/tamerrors"
)

// UserAgent is sent on every request. The intranet serves a degraded page to
// unknown clients.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:87.0) Gecko/20100101 Firefox/87.0"

// Transport executes a single HTTP exchange.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPTransport is the default Transport: an *http.Client with an in-memory
// cookie jar holding the intranet session cookies.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates the default transport.
func NewHTTPTransport() (*HTTPTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{
		client: &http.Client{Jar: jar},
	}, nil
}

// Do implements Transport.
func (t *HTTPTransport) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// WrapError classifies a transport failure. Timeouts (per-call deadline or
// network-level) map to the timeout variant; everything below HTTP semantics
// maps to the generic transport error.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	timeout := errors.Is(err, context.DeadlineExceeded)
	var netErr net.Error
	if !timeout && errors.As(err, &netErr) {
		timeout = netErr.Timeout()
	}
	return &tamerrors.TransportError{Op: op, Timeout: timeout, Err: err}
}

// DefaultTimeout is the per-call timeout applied when the caller does not
// configure one.
const DefaultTimeout = 20 * time.Second

package sharedhttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

const UserAgent = "mangapdf"

var Transport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ReadBufferSize:        65536,
	WriteBufferSize:       65536,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// NewClient returns a client on the shared transport. A zero timeout uses 60 seconds.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: Transport,
	}
}

// Policy controls how often a request is retried.
type Policy struct {
	Attempts uint
	Delay    time.Duration
}

var DefaultPolicy = Policy{
	Attempts: 3,
	Delay:    3 * time.Second,
}

func (p Policy) options(ctx context.Context) []retry.Option {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	delay := p.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}

	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxJitter(delay / 3),
		retry.LastErrorOnly(true),
	}
}

// Do runs fn until it succeeds, returns an unrecoverable error or runs out of attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	return retry.Do(fn, p.options(ctx)...)
}

func CheckStatusCode(statusCode int) error {
	switch statusCode {
	case http.StatusOK:

	case http.StatusUnauthorized, http.StatusForbidden:
		return retry.Unrecoverable(fmt.Errorf("unauthorized: status code %d", statusCode))

	case http.StatusMethodNotAllowed:
		return retry.Unrecoverable(fmt.Errorf("method not allowed: status code %d", statusCode))

	case http.StatusNotFound:
		return fmt.Errorf("not found - retrying: status code %d", statusCode)

	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limited - retrying: status code %d", statusCode)

	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusInternalServerError:
		return fmt.Errorf("server error: status code %d - retrying", statusCode)

	default:
		return retry.Unrecoverable(fmt.Errorf("unexpected status code %d", statusCode))
	}

	return nil
}

// ExecRequest sends req and returns the response if the status code is OK.
// The caller has to close the body.
func ExecRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if err := CheckStatusCode(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

package netutil

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
)

type stubTransport struct {
	calls int
	errs  []error
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	stub := &stubTransport{errs: []error{dialErr, dialErr}}
	rt := &retryTransport{base: stub, maxRetries: 3}

	req, _ := http.NewRequest(http.MethodPost, "http://example.invalid", strings.NewReader("x"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if stub.calls != 3 {
		t.Fatalf("calls = %d, want 3", stub.calls)
	}
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	stub := &stubTransport{errs: []error{errors.New("tls: bad certificate")}}
	rt := &retryTransport{base: stub, maxRetries: 3}

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if stub.calls != 1 {
		t.Fatalf("calls = %d, want 1", stub.calls)
	}
}

func TestNewClientWithoutRetries(t *testing.T) {
	c := NewClient(ClientOptions{})
	if _, wrapped := c.Transport.(*retryTransport); wrapped {
		t.Fatal("zero retries must not wrap the transport")
	}
	if c.Timeout != defaultClientTimeout {
		t.Fatalf("timeout = %v", c.Timeout)
	}
}

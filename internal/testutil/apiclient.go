package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// APIClient is a JSON HTTP test client for the zenbeasts API.
type APIClient struct {
	base string
	http *http.Client
	t    *testing.T
}

// Response is a completed request.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the body into v or fails the test.
func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decoding %q: %v", r.Body, err)
	}
}

// NewAPIClient returns a client for the server at base, e.g. an
// httptest.Server URL.
//
// Precondition: base must be an absolute http URL with no trailing slash.
func NewAPIClient(t *testing.T, base string) *APIClient {
	t.Helper()
	return &APIClient{base: base, http: &http.Client{Timeout: 5 * time.Second}, t: t}
}

// Do sends method to path as account with body encoded as JSON. A nil body
// sends no payload and a zero account sends no account header.
//
// Postcondition: Returns the response or fails the test on transport errors.
func (c *APIClient) Do(account uuid.UUID, method, path string, body any) Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("encoding %s %s: %v", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatalf("building %s %s: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if account != uuid.Nil {
		req.Header.Set("X-Account-ID", account.String())
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("reading %s %s: %v", method, path, err)
	}
	return Response{Status: resp.StatusCode, Body: data}
}

// Get issues an unauthenticated GET.
func (c *APIClient) Get(path string) Response {
	c.t.Helper()
	return c.Do(uuid.Nil, http.MethodGet, path, nil)
}

// Post issues a POST as account.
func (c *APIClient) Post(account uuid.UUID, path string, body any) Response {
	c.t.Helper()
	return c.Do(account, http.MethodPost, path, body)
}

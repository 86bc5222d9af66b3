package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cower-go/cower/internal/errs"
)

func TestGetReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer server.Close()

	c := New(WithTimeout(5 * time.Second))
	body, err := c.Get(context.Background(), "foo", server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	buf, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("body = %q, want hello", buf)
	}
}

func TestGetClientErrorDoesNotRetry(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := New(WithMaxRetries(3))
	_, err := c.Get(context.Background(), "foo", server.URL)

	var httpErr *errs.RemoteHTTP
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("Get error = %v, want *errs.RemoteHTTP with code 404", err)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (4xx must not be retried)", got)
	}
}

func TestGetServerErrorRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(WithMaxRetries(1))
	if _, err := c.Get(context.Background(), "foo", server.URL); err == nil {
		t.Fatal("expected an error after retries exhausted")
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2 (initial attempt plus one retry)", got)
	}
}

func TestGetSendsIdentityEncoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept-Encoding"); got != "identity" {
			t.Errorf("Accept-Encoding = %q, want identity", got)
		}
	}))
	defer server.Close()

	c := New()
	body, err := c.Get(context.Background(), "foo", server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body.Close()
}

package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetReadsFullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("body = %q, want %q", resp.Body, "hello")
	}
}

func TestGetPassesThroughHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := NewClient().Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestGetClassifiesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(20 * time.Millisecond))
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %T (%v), want *TimeoutError", err, err)
	}
	if te.URL != srv.URL {
		t.Errorf("timeout URL = %q, want %q", te.URL, srv.URL)
	}
}

func TestGetClassifiesTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient().Get(context.Background(), url)
	if err == nil {
		t.Fatal("expected transport error")
	}
	var tre *TransportError
	if !errors.As(err, &tre) {
		t.Fatalf("error = %T (%v), want *TransportError", err, err)
	}
	if tre.Unwrap() == nil {
		t.Error("transport error should wrap the underlying error")
	}
}

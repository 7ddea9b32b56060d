package stocks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/telepath-bot/telepath/internal/httpx"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0700", "0700.HK"},
		{"700", "0700.HK"},
		{"5", "0005.HK"},
		{"12345", "12345.HK"},
		{"0700.hk", "0700.HK"},
		{"AAPL", "AAPL.US"},
		{"aapl", "AAPL.US"},
		{"BRK.B", "BRK.B"},
		{"aapl.us", "AAPL.US"},
		{" TSLA ", "TSLA.US"},
		{"123456", "123456.US"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeSymbol(tt.in); got != tt.want {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBareNumericEqualsSuffixedForm(t *testing.T) {
	if NormalizeSymbol("0700") != NormalizeSymbol("0700.hk") {
		t.Errorf("0700 and 0700.hk should normalize identically, got %q and %q",
			NormalizeSymbol("0700"), NormalizeSymbol("0700.hk"))
	}
}

func newTestTool(t *testing.T, handler http.HandlerFunc) (*Tool, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTool(httpx.NewClient(), &Config{QuoteURL: srv.URL}), srv
}

func TestExecuteReturnsQuote(t *testing.T) {
	tool, _ := newTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("s"); got != "0700.hk" {
			t.Errorf("query symbol = %q, want lowercase qualified symbol", got)
		}
		_, _ = w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\n" +
			"0700.HK,2026-09-01,16:08:00,600.0,612.0,598.0,610.5,12345678\n"))
	})

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"symbol":"0700"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected degraded result: %s", res.Content)
	}
	if !strings.Contains(res.Content, "0700.HK") || !strings.Contains(res.Content, "610.5") {
		t.Errorf("result = %q, want symbol and close price", res.Content)
	}
}

func TestExecuteNotAvailableSentinel(t *testing.T) {
	tool, _ := newTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\n" +
			"XXXX.US,N/D,N/D,N/D,N/D,N/D,N/D,N/D\n"))
	})

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"symbol":"XXXX"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Content, "No quote data was found for XXXX.US") {
		t.Errorf("result = %q, want clarification prompt", res.Content)
	}
}

func TestExecuteMissingRow(t *testing.T) {
	tool, _ := newTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\n"))
	})

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"symbol":"AAPL"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Content, "No quote data was found") {
		t.Errorf("result = %q, want clarification prompt", res.Content)
	}
}

func TestExecuteEmptySymbolNoNetwork(t *testing.T) {
	hits := 0
	tool, _ := newTestTool(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	res, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if hits != 0 {
		t.Errorf("feed was called %d times, want 0", hits)
	}
	if !strings.Contains(res.Content, "No ticker was given") {
		t.Errorf("result = %q, want clarification prompt", res.Content)
	}
}

func TestExecuteUpstreamFailureDegrades(t *testing.T) {
	tool, _ := newTestTool(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"symbol":"AAPL"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.IsError {
		t.Error("upstream failure should produce a degraded result")
	}
	if !strings.Contains(res.Content, "unavailable right now") {
		t.Errorf("result = %q, want explanatory text", res.Content)
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledgerkit/internal/ledger/memory"
	"ledgerkit/internal/services"
	"ledgerkit/internal/tools"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, perMinute int, pinger Pinger) *Server {
	t.Helper()
	store, err := memory.NewFromSeed(memory.Seed{
		Accounts: []memory.SeedAccount{{ID: "chk", Name: "Checking", Type: "checking"}},
		Groups: []memory.SeedGroup{{ID: "g-living", Name: "Living", Categories: []memory.SeedCategory{
			{ID: "food", Name: "Food"},
		}}},
		Transactions: []memory.SeedTransaction{
			{ID: "t1", Account: "chk", Date: "2024-03-01", Amount: 250000},
			{ID: "t2", Account: "chk", Date: "2024-03-04", Amount: -4500, Category: "food"},
		},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	reg := tools.New(tools.Deps{
		Ledger:  store,
		Service: services.NewLedgerService(store, nil, nil),
		Now:     func() time.Time { return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) },
	})
	if pinger == nil {
		pinger = store
	}
	srv := NewServer(Options{Addr: ":0", RequestTimeout: 5 * time.Second, RateLimitPerMinute: perMinute}, reg, pinger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s content type=%q", path, ct)
		}
	}

	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	decodeBody(t, do(t, srv, http.MethodGet, "/readyz", ""), &ready)
	if ready.Status != "ready" || ready.Checks["ledger"] != "ok" {
		t.Fatalf("unexpected readiness: %+v", ready)
	}
}

func TestReady_LedgerDown(t *testing.T) {
	srv := newTestServer(t, 0, failingPinger{})

	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Fatalf("body missing cause: %s", rr.Body.String())
	}
}

func TestSecurityAndTraceHeaders(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing X-Content-Type-Options")
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("X-Request-ID=%q", rr.Header().Get("X-Request-ID"))
	}
}

func TestListTools(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodGet, "/tools", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var body struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"inputSchema"`
		} `json:"tools"`
	}
	decodeBody(t, rr, &body)
	found := false
	for _, tool := range body.Tools {
		if tool.Name == "spending-by-category" {
			found = true
			if tool.InputSchema["type"] != "object" {
				t.Fatalf("schema type=%v", tool.InputSchema["type"])
			}
		}
	}
	if !found {
		t.Fatal("spending-by-category not listed")
	}
}

func TestCallTool(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	tests := []struct {
		name     string
		target   string
		body     string
		status   int
		isError  bool
		contains string
	}{
		{"no body", "/tools/get-accounts", "", http.StatusOK, false, "$2,455.00"},
		{"report", "/tools/spending-by-category", `{"startDate":"2024-03-01","endDate":"2024-03-31"}`, http.StatusOK, false, "## Living"},
		{"tool error stays 200", "/tools/get-transactions", `{}`, http.StatusOK, true, "Error: invalid input: accountId is required"},
		{"unknown tool", "/tools/nope", `{}`, http.StatusNotFound, true, "Error: Unknown tool nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status=%d, want %d (%s)", rr.Code, tt.status, rr.Body.String())
			}
			var res tools.Result
			decodeBody(t, rr, &res)
			if res.IsError != tt.isError {
				t.Fatalf("isError=%v, want %v: %s", res.IsError, tt.isError, res.Text())
			}
			if !strings.Contains(res.Text(), tt.contains) {
				t.Fatalf("result %q missing %q", res.Text(), tt.contains)
			}
		})
	}

	rr := do(t, srv, http.MethodPost, "/tools/get-accounts", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status=%d, want 400", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/tools/get-accounts", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on tool status=%d, want 405", rr.Code)
	}
}

func TestCallTool_Mutation(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodPost, "/tools/create-payee", `{"name":"Bakery"}`)
	var res tools.Result
	decodeBody(t, rr, &res)
	if res.IsError || !strings.HasPrefix(res.Text(), "Successfully created payee ") {
		t.Fatalf("unexpected result: %s", res.Text())
	}

	decodeBody(t, do(t, srv, http.MethodPost, "/tools/get-payees", ""), &res)
	if !strings.Contains(res.Text(), "Bakery") {
		t.Fatalf("payee not listed: %s", res.Text())
	}
}

func TestPrompts(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodGet, "/prompts", "")
	if !strings.Contains(rr.Body.String(), `"budget-review"`) {
		t.Fatalf("prompts list: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/prompts/budget-review", `{"arguments":{"months":"6"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got tools.PromptResult
	decodeBody(t, rr, &got)
	if got.Description != "Budget review for the past 6 months" {
		t.Fatalf("description=%q", got.Description)
	}

	tests := []struct {
		target string
		body   string
		status int
	}{
		{"/prompts/nope", "", http.StatusNotFound},
		{"/prompts/budget-review", `{"arguments":{"months":"many"}}`, http.StatusBadRequest},
		{"/prompts/budget-review", `{"arguments":{"months":6}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rr := do(t, srv, http.MethodPost, tt.target, tt.body); rr.Code != tt.status {
			t.Errorf("%s %s status=%d, want %d", tt.target, tt.body, rr.Code, tt.status)
		}
	}
}

func TestResources(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	rr := do(t, srv, http.MethodGet, "/resources", "")
	if !strings.Contains(rr.Body.String(), "ledger://accounts/chk") {
		t.Fatalf("resources list: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/resources/read?uri=ledger://accounts/chk", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		Contents []tools.ResourceContents `json:"contents"`
	}
	decodeBody(t, rr, &body)
	if len(body.Contents) != 1 || !strings.Contains(body.Contents[0].Text, "# Account: Checking") {
		t.Fatalf("contents: %+v", body.Contents)
	}

	tests := []struct {
		target string
		status int
	}{
		{"/resources/read", http.StatusBadRequest},
		{"/resources/read?uri=ledger://accounts/nope", http.StatusNotFound},
		{"/resources/read?uri=ledger://payees", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := do(t, srv, http.MethodGet, tt.target, ""); rr.Code != tt.status {
			t.Errorf("%s status=%d, want %d", tt.target, rr.Code, tt.status)
		}
	}
}

func TestRateLimit_PostOnly(t *testing.T) {
	srv := newTestServer(t, 2, nil)

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/tools/get-accounts", ""); rr.Code != http.StatusOK {
			t.Fatalf("call %d status=%d", i+1, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/tools/get-accounts", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	if rr := do(t, srv, http.MethodGet, "/tools", ""); rr.Code != http.StatusOK {
		t.Fatalf("GET should not be limited, status=%d", rr.Code)
	}

	metrics := do(t, srv, http.MethodGet, "/metrics", "").Body.String()
	if !strings.Contains(metrics, "rate_limit_rejected_total 1") {
		t.Fatalf("metrics missing rejection:\n%s", metrics)
	}
}

func TestShutdownTwice(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/memstore"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &core.ValidationError{Fields: []string{"name"}}, http.StatusBadRequest},
		{"empty batch", core.ErrEmptyBatch, http.StatusBadRequest},
		{"batch too large", fmt.Errorf("%w: 6000", core.ErrBatchTooLarge), http.StatusBadRequest},
		{"unknown entity", core.ErrUnknownEntity, http.StatusBadRequest},
		{"bad request", badRequest(errors.New("invalid request body")), http.StatusBadRequest},
		{"parent not found", &core.ParentNotFoundError{Parent: core.EntityAluno, ID: 9}, http.StatusNotFound},
		{"not found", core.ErrNotFound, http.StatusNotFound},
		{"unique", &core.ConstraintError{Kind: core.ConstraintUnique}, http.StatusConflict},
		{"busy", core.ErrTooManySyncs, http.StatusServiceUnavailable},
		{"rate limited", errRateLimited, http.StatusTooManyRequests},
		{"timeout", fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"other", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRespondError_ServerErrorsHideDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/escolas", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, errors.New("pq: password authentication failed for user app"))

	expectStatus(t, rec, http.StatusInternalServerError)
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != "ERR000" || resp.Error != resp.Message {
		t.Errorf("server error leaked detail: %+v", resp)
	}
}

func TestRespondError_BusyAddsRetryAfter(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/presencas/sync", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, core.ErrTooManySyncs)

	expectStatus(t, rec, http.StatusServiceUnavailable)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "SYNC003" {
		t.Errorf("code = %q, want SYNC003", resp.Code)
	}
}

func TestRespondError_HTMLForBrowsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/revisao", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, core.ErrNotFound)

	expectStatus(t, rec, http.StatusNotFound)
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("10.0.0.1") || !rl.allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("10.0.0.1") {
		t.Error("third request in the window should be limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other clients have their own bucket")
	}

	now = now.Add(time.Minute + time.Second)
	if !rl.allow("10.0.0.1") {
		t.Error("bucket should refill after the window")
	}

	now = now.Add(3 * time.Minute)
	rl.evictIdle()
	if len(rl.visitors) != 0 {
		t.Errorf("idle visitors not evicted: %d left", len(rl.visitors))
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/api/escolas", nil)
		req.RemoteAddr = "192.0.2.10:5123"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestServer_SyncRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 100
	cfg.Rate.SyncLimit = 1

	s := NewServer(core.NewService(memstore.New(), core.ServiceOptions{}), cfg)
	defer s.Shutdown(context.Background())

	body := `{"records":[{"name":"Escola","address":"Rua A"}]}`
	expectStatus(t, do(t, s, http.MethodPost, "/api/escolas/sync", body), http.StatusOK)
	expectStatus(t, do(t, s, http.MethodPost, "/api/escolas/sync", body), http.StatusTooManyRequests)

	// Reads use the general limit.
	expectStatus(t, do(t, s, http.MethodGet, "/api/escolas", ""), http.StatusOK)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/fieldwork/backoffice-api/internal/core/ports"
)

type stubProvider struct {
	pingErr error
}

func (s stubProvider) Store(string) ports.RecordStore   { return nil }
func (s stubProvider) Ping(ctx context.Context) error { return s.pingErr }

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/health", "", nil)
	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	cases := []struct {
		name     string
		pingErr  error
		wantCode int
		wantBody string
	}{
		{"store up", nil, http.StatusOK, `"postgres":{"status":"ok"}`},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, `"status":"degraded"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthDependenciesHandler("postgres", stubProvider{pingErr: tc.pingErr}, nil)
			c, rec := newTestContext(http.MethodGet, "/health/ready", "", nil)

			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("expected %s in %s", tc.wantBody, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "redis") {
				t.Fatalf("redis must not be reported when not configured")
			}
		})
	}
}

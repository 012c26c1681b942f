package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func readyz(t *testing.T, h *Handler, ctx context.Context) (int, result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Readyz(rec, req)

	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	New().Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("tts unreachable") }

	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
		},
		{
			name:       "all pass",
			checkers:   []Checker{{Name: "image", Check: ok}, {Name: "tts", Check: ok}},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"image": "ok", "tts": "ok"},
		},
		{
			name:       "one fails",
			checkers:   []Checker{{Name: "image", Check: ok}, {Name: "tts", Check: fail}},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"image": "ok", "tts": "fail: tts unreachable"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, body := readyz(t, New(tt.checkers...), context.Background())
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			for k, want := range tt.wantChecks {
				if body.Checks[k] != want {
					t.Errorf("checks[%q] = %q, want %q", k, body.Checks[k], want)
				}
			}
		})
	}
}

func TestReadyz_CancelledRequest(t *testing.T) {
	t.Parallel()
	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code, _ := readyz(t, h, ctx); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	New().Register(mux)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestWritableDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := WritableDir("images", dir).Check(context.Background()); err != nil {
		t.Fatalf("Check(%s) = %v, want nil", dir, err)
	}
	missing := filepath.Join(dir, "missing")
	if err := WritableDir("images", missing).Check(context.Background()); err == nil {
		t.Fatalf("Check(%s) = nil, want error", missing)
	}
}

func TestAnyAvailable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		states  map[string]string
		wantErr bool
	}{
		{"empty", nil, true},
		{"one closed", map[string]string{"openai": "open", "mock": "closed"}, false},
		{"all open", map[string]string{"openai": "open", "coqui": "open"}, true},
	}
	for _, tt := range tests {
		c := AnyAvailable("tts", func() map[string]string { return tt.states }, "open")
		err := c.Check(context.Background())
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Check() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

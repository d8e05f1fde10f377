package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, h http.Handler, path string) (int, result) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec.Code, body
}

func TestHealthz_AlwaysOK(t *testing.T) {
	h := New()
	mux := http.NewServeMux()
	h.Register(mux)

	code, body := get(t, mux, "/healthz")
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = %d %+v", code, body)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	h := New(Checker{Name: "audio_store", Check: func(context.Context) error { return nil }})
	mux := http.NewServeMux()
	h.Register(mux)

	code, body := get(t, mux, "/readyz")
	if code != http.StatusServiceUnavailable || body.Status != "not_ready" {
		t.Errorf("readyz = %d %+v", code, body)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		checkErr   error
		wantStatus int
		wantBody   string
		wantCheck  string
	}{
		{name: "passing", wantStatus: http.StatusOK, wantBody: "ok", wantCheck: "ok"},
		{name: "failing", checkErr: errors.New("cache unavailable"), wantStatus: http.StatusServiceUnavailable, wantBody: "fail", wantCheck: "fail: cache unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(
				Checker{Name: "prompts", Check: func(context.Context) error { return nil }},
				Checker{Name: "audio_store", Check: func(context.Context) error { return tt.checkErr }},
			)
			h.SetReady(true)
			mux := http.NewServeMux()
			h.Register(mux)

			code, body := get(t, mux, "/readyz")
			if code != tt.wantStatus || body.Status != tt.wantBody {
				t.Errorf("readyz = %d %+v", code, body)
			}
			if body.Checks["audio_store"] != tt.wantCheck {
				t.Errorf("audio_store = %q, want %q", body.Checks["audio_store"], tt.wantCheck)
			}
			if body.Checks["prompts"] != "ok" {
				t.Errorf("prompts = %q", body.Checks["prompts"])
			}
		})
	}
}

func TestSetReady_Toggle(t *testing.T) {
	h := New()
	h.SetReady(true)
	if !h.Ready() {
		t.Fatal("Ready = false after SetReady(true)")
	}
	h.SetReady(false)
	if code, _ := get(t, http.HandlerFunc(h.Readyz), "/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d after SetReady(false)", code)
	}
}

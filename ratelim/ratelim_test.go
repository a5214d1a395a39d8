package ratelim

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

func TestLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)
	h := rl.Limit(func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h(rec, req, nil)
		return rec.Code
	}

	for i := 0; i < 3; i++ {
		if code := call("10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	// Same IP, different port: still the same client.
	if code := call("10.0.0.1:6000"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := call("10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("other clients should be unaffected, got %d", code)
	}
}

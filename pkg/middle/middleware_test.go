package middle

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestRequestIDAndRecovery(t *testing.T) {
	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		if LoggerFrom(r.Context()) == nil {
			t.Error("no request logger")
		}
		panic("boom")
	}), RequestIDMiddleware(zap.NewNop()), LoggingMiddleware(zap.NewNop()))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	id := rr.Header().Get("X-Request-ID")
	if !strings.HasPrefix(id, "req-") || id != seen {
		t.Errorf("header id %q, context id %q", id, seen)
	}
}

func TestResponseWriterStatus(t *testing.T) {
	rw := wrapResponseWriter(httptest.NewRecorder())
	if rw.Status() != http.StatusOK {
		t.Errorf("default status = %d", rw.Status())
	}
	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK)
	n, _ := rw.Write([]byte("abc"))
	if rw.Status() != http.StatusTeapot || rw.size != n || n != 3 {
		t.Errorf("status %d size %d", rw.Status(), rw.size)
	}
}

func TestRequestIDOutsideRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if RequestID(r.Context()) != "" {
		t.Error("expected empty request id")
	}
}

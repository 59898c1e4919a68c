package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func serveWithHeaders(mw echo.MiddlewareFunc, path string) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw)
	e.GET(path, func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_API(t *testing.T) {
	rec := serveWithHeaders(SecurityHeaders(false, "/api/docs"), "/api/v1/doctors")

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Cache-Control":           "no-store",
		"Content-Security-Policy": apiCSP,
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off unless enabled")
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	rec := serveWithHeaders(SecurityHeaders(true, ""), "/health")
	if got := rec.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=31536000") {
		t.Errorf("unexpected HSTS header %q", got)
	}
}

func TestSecurityHeaders_DocsPolicy(t *testing.T) {
	rec := serveWithHeaders(SecurityHeaders(false, "/api/docs"), "/api/docs")
	csp := rec.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "https://unpkg.com") {
		t.Errorf("docs page must allow the Swagger UI assets, got %q", csp)
	}
	if !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("docs page must still refuse framing, got %q", csp)
	}
}

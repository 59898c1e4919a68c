package middleware

import (
	"github.com/labstack/echo/v4"
)

const (
	apiCSP  = "default-src 'none'; frame-ancestors 'none'"
	docsCSP = "default-src 'none'; frame-ancestors 'none'; connect-src 'self'; img-src 'self' data:; " +
		"script-src https://unpkg.com 'unsafe-inline'; style-src https://unpkg.com 'unsafe-inline'"
)

// SecurityHeaders sets hardening headers on every response. HSTS is only sent
// when hsts is true, which the server enables in production. Requests for
// docsPath get a policy that lets the Swagger UI assets load.
func SecurityHeaders(hsts bool, docsPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			// Schedules change with every booking.
			h.Set("Cache-Control", "no-store")

			if docsPath != "" && c.Request().URL.Path == docsPath {
				h.Set("Content-Security-Policy", docsCSP)
			} else {
				h.Set("Content-Security-Policy", apiCSP)
			}
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			return next(c)
		}
	}
}

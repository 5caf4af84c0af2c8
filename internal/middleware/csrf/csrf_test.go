package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestOriginGuard(t *testing.T) {
	e := echo.New()
	e.POST("/api/refresh", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		OriginGuard([]string{"https://app.example.com"}))
	e.GET("/api/refresh", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		OriginGuard(nil))

	tests := []struct {
		name    string
		method  string
		origin  string
		referer string
		want    int
	}{
		{name: "no origin", method: http.MethodPost, want: http.StatusOK},
		{name: "same origin", method: http.MethodPost, origin: "http://example.com", want: http.StatusOK},
		{name: "allowed origin", method: http.MethodPost, origin: "https://app.example.com", want: http.StatusOK},
		{name: "allowed referer", method: http.MethodPost, referer: "https://app.example.com/login", want: http.StatusOK},
		{name: "foreign origin", method: http.MethodPost, origin: "https://evil.test", want: http.StatusForbidden},
		{name: "foreign referer", method: http.MethodPost, referer: "https://evil.test/x", want: http.StatusForbidden},
		{name: "safe method", method: http.MethodGet, origin: "https://evil.test", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/api/refresh", nil)
			if tt.origin != "" {
				req.Header.Set(echo.HeaderOrigin, tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"ok":false,"error":"bad_origin"}`, rec.Body.String())
			}
		})
	}
}

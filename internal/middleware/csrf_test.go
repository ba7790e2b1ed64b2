package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func csrfRouter() *gin.Engine {
	r := gin.New()
	r.Use(CSRF())
	r.GET("/csrf-token", CSRFTokenHandler)
	r.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/write", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func TestCSRF(t *testing.T) {
	t.Run("safe_method_sets_cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/read", nil)
		csrfRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if cookieValue(rec, csrfCookieName) == "" {
			t.Error("expected a CSRF cookie to be set on a safe request")
		}
	})

	t.Run("mutating_without_cookie_is_forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/write", strings.NewReader("{}"))
		csrfRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("mutating_with_mismatched_header_is_forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/write", strings.NewReader("{}"))
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "cookie-value"})
		req.Header.Set(CSRFHeaderName, "different-value")
		csrfRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("mutating_with_matching_tokens_passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/write", strings.NewReader("{}"))
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "matching-token"})
		req.Header.Set(CSRFHeaderName, "matching-token")
		csrfRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestCSRFTokenHandler(t *testing.T) {
	t.Run("issues_token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/csrf-token", nil)
		csrfRouter().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "csrfToken") {
			t.Errorf("expected csrfToken in body, got %s", rec.Body.String())
		}
	})

	t.Run("reuses_existing_cookie_token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/csrf-token", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
		csrfRouter().ServeHTTP(rec, req)

		if !strings.Contains(rec.Body.String(), "existing-token") {
			t.Errorf("expected existing token to be returned, got %s", rec.Body.String())
		}
	})
}

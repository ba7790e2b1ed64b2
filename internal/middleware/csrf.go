package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"intouch/internal/config"
	apperrors "intouch/internal/errors"
	"intouch/internal/logger"
)

const (
	// csrfCookieName holds the CSRF token. Not http-only: the client reads it
	// and echoes it back in the header on mutating requests.
	csrfCookieName = "csrf_token"

	// CSRFHeaderName is the request header checked on mutating requests.
	CSRFHeaderName = "X-CSRF-Token"

	csrfCookieMaxAge = 86400 // 24 hours
)

// CSRF returns a middleware enforcing the double-submit cookie scheme. Safe
// methods (GET, HEAD, OPTIONS) skip validation and make sure a token cookie
// exists; state-changing methods must echo the cookie value in the
// X-CSRF-Token header.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			ensureCSRFCookie(c)
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(csrfCookieName)
		if err != nil || cookieToken == "" {
			logger.Get().Warnw("CSRF validation failed: missing cookie token",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			abortWithAppError(c, apperrors.ErrInvalidCSRF)
			return
		}

		headerToken := c.GetHeader(CSRFHeaderName)
		if headerToken == "" || headerToken != cookieToken {
			logger.Get().Warnw("CSRF validation failed: header token mismatch",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			abortWithAppError(c, apperrors.ErrInvalidCSRF)
			return
		}

		c.Next()
	}
}

// CSRFTokenHandler serves GET /api/auth/csrf-token. It returns the existing
// token if the cookie is already set, otherwise generates and sets a new one.
func CSRFTokenHandler(c *gin.Context) {
	token, err := c.Cookie(csrfCookieName)
	if err != nil || token == "" {
		token, err = generateCSRFToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": apperrors.ErrInternalServer.Code, "message": apperrors.ErrInternalServer.Message},
			})
			return
		}
		setCSRFCookie(c, token)
	}

	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func ensureCSRFCookie(c *gin.Context) {
	if v, err := c.Cookie(csrfCookieName); err == nil && v != "" {
		return
	}
	token, err := generateCSRFToken()
	if err != nil {
		logger.Get().Errorw("failed to generate CSRF token", "error", err.Error())
		return
	}
	setCSRFCookie(c, token)
}

func setCSRFCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(csrfCookieName, token, csrfCookieMaxAge, "/", "", config.Get().IsProduction(), false)
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"intouch/internal/config"
	apperrors "intouch/internal/errors"
	"intouch/internal/services"
)

const (
	accessTokenExpiry  = 30 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour

	// RefreshCookieName is the http-only cookie carrying the refresh token.
	// Refresh tokens never travel in a response body.
	RefreshCookieName = "refresh_token"
)

// Context keys set by the guards for downstream handlers.
const (
	ContextUserIDKey = "userID"
	ContextUserKey   = "currentUser"
)

// Claims represents the JWT claims. The user id is the only domain claim.
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

func accessKey() []byte  { return []byte(config.Get().AccessTokenSecret) }
func refreshKey() []byte { return []byte(config.Get().RefreshTokenSecret) }

func generateToken(userID uint, key []byte, expiry time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "intouch-api",
			Subject:   fmt.Sprintf("%d", userID),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// GenerateAccessToken generates a short-lived JWT access token for a user.
func GenerateAccessToken(userID uint) (string, error) {
	return generateToken(userID, accessKey(), accessTokenExpiry)
}

// GenerateRefreshToken generates a long-lived JWT refresh token for a user.
// It is signed with a secret distinct from the access token secret.
func GenerateRefreshToken(userID uint) (string, error) {
	return generateToken(userID, refreshKey(), refreshTokenExpiry)
}

// IssueTokenPair generates an access/refresh token pair for a user.
func IssueTokenPair(userID uint) (access, refresh string, err error) {
	access, err = GenerateAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refresh, err = GenerateRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func parseToken(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// VerifyAccessToken parses and validates an access token. Signature, expiry,
// and malformed-token failures all collapse to a single error; the caller
// never sees a panic or a partial claim set.
func VerifyAccessToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, accessKey())
}

// VerifyRefreshToken parses and validates a refresh token.
func VerifyRefreshToken(tokenString string) (*Claims, error) {
	return parseToken(tokenString, refreshKey())
}

// SetRefreshCookie sets the refresh token as an http-only cookie. In
// production the cookie is Secure with SameSite=None so the SPA can run on a
// separate origin; elsewhere Lax keeps local development working over http.
func SetRefreshCookie(c *gin.Context, token string) {
	prod := config.Get().IsProduction()
	if prod {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(RefreshCookieName, token, int(refreshTokenExpiry.Seconds()), "/", "", prod, true)
}

// ClearRefreshCookie removes the refresh token cookie.
func ClearRefreshCookie(c *gin.Context) {
	prod := config.Get().IsProduction()
	if prod {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(RefreshCookieName, "", -1, "/", "", prod, true)
}

func abortWithAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}

// RequireAccessToken verifies the bearer access token and sets the user id in
// the context. No database access happens here.
func RequireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithAppError(c, apperrors.ErrMissingToken)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithAppError(c, apperrors.ErrMissingToken)
			return
		}

		claims, err := VerifyAccessToken(parts[1])
		if err != nil {
			abortWithAppError(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireRefreshToken verifies the refresh token cookie and loads the full
// user record into the context for downstream handlers (token reissuance).
// A valid token for a user that no longer exists is a 404, not a 401.
func RequireRefreshToken(users services.UserServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(RefreshCookieName)
		if err != nil || tokenString == "" {
			abortWithAppError(c, apperrors.ErrMissingRefresh)
			return
		}

		claims, err := VerifyRefreshToken(tokenString)
		if err != nil {
			abortWithAppError(c, apperrors.ErrInvalidToken)
			return
		}

		user, err := users.GetUserByID(claims.UserID)
		if err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				appErr = apperrors.ErrInternalServer
			}
			abortWithAppError(c, appErr)
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"intouch/internal/config"
	apperrors "intouch/internal/errors"
	"intouch/internal/logger"
	"intouch/internal/middleware"
	"intouch/internal/services"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600
)

// OAuthProvider abstracts the OAuth authorization-code flow so handlers can
// be tested without talking to Google.
type OAuthProvider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (services.OAuthIdentity, error)
	NewState() (string, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	users  services.UserServicer
	oauth  OAuthProvider
	config *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServicer, oauth OAuthProvider, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:  users,
		oauth:  oauth,
		config: cfg,
	}
}

// SignupRequest represents the signup request body.
type SignupRequest struct {
	Username    string `json:"username" binding:"required,username"`
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"omitempty,max=100"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup godoc
// @Summary Register a new account
// @Description Creates an account and sends a verification email.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup details"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	_, err := h.users.Signup(req.Username, req.Email, req.Password, displayName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{
		Message: "Account created. Please check your email to verify your address.",
	})
}

// Login godoc
// @Summary Log in with email and password
// @Description Returns an access token in the body and sets the refresh token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	user, err := h.users.AuthenticateByEmail(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	access, refresh, err := middleware.IssueTokenPair(user.ID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	middleware.SetRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: access})
}

// GoogleLogin godoc
// @Summary Start the Google OAuth flow
// @Description Redirects the browser to Google's consent screen.
// @Tags auth
// @Success 302
// @Router /auth/google [get]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := h.oauth.NewState()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.config.IsProduction(), true)
	c.Redirect(http.StatusFound, h.oauth.LoginURL(state))
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Description Exchanges the authorization code, resolves the account, and redirects to the frontend.
// @Tags auth
// @Success 302
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	frontend := h.config.FrontendURL

	state := c.Query("state")
	cookieState, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.config.IsProduction(), true)
	if err != nil || state == "" || state != cookieState {
		c.Redirect(http.StatusFound, frontend+"/?error=auth_failed")
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, frontend+"/?error=auth_failed")
		return
	}

	identity, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		logger.Get().Errorw("oauth exchange failed", "error", err.Error())
		c.Redirect(http.StatusFound, frontend+"/?error=server_error")
		return
	}

	user, err := h.users.ResolveOAuthUser(identity)
	if err != nil {
		logger.Get().Errorw("oauth user resolution failed", "error", err.Error())
		c.Redirect(http.StatusFound, frontend+"/?error=server_error")
		return
	}

	access, refresh, err := middleware.IssueTokenPair(user.ID)
	if err != nil {
		logger.Get().Errorw("token issuance failed", "error", err.Error())
		c.Redirect(http.StatusFound, frontend+"/?error=server_error")
		return
	}

	middleware.SetRefreshCookie(c, refresh)

	needsUsername := "false"
	if user.Username == nil {
		needsUsername = "true"
	}
	c.Redirect(http.StatusFound, frontend+"/oauth-callback?token="+url.QueryEscape(access)+"&needsUsername="+needsUsername)
}

// Refresh godoc
// @Summary Rotate the token pair
// @Description Requires a valid refresh token cookie. Issues a new access token and replaces the refresh cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	access, refresh, err := middleware.IssueTokenPair(userID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	middleware.SetRefreshCookie(c, refresh)
	c.JSON(http.StatusOK, TokenResponse{AccessToken: access})
}

// VerifyTokenRequest represents a token verification request body.
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifyTokenResponse reports whether a token is valid and for whom.
type VerifyTokenResponse struct {
	Valid  bool `json:"valid"`
	UserID uint `json:"user_id,omitempty"`
}

// VerifyAccessToken godoc
// @Summary Check an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyTokenRequest true "Token to check"
// @Success 200 {object} VerifyTokenResponse
// @Failure 401 {object} VerifyTokenResponse
// @Router /auth/verify-token [post]
func (h *AuthHandler) VerifyAccessToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	claims, err := middleware.VerifyAccessToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, VerifyTokenResponse{Valid: false})
		return
	}
	c.JSON(http.StatusOK, VerifyTokenResponse{Valid: true, UserID: claims.UserID})
}

// VerifyRefreshToken godoc
// @Summary Check a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyTokenRequest true "Token to check"
// @Success 200 {object} VerifyTokenResponse
// @Failure 401 {object} VerifyTokenResponse
// @Router /auth/verify-refresh-token [post]
func (h *AuthHandler) VerifyRefreshToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	claims, err := middleware.VerifyRefreshToken(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, VerifyTokenResponse{Valid: false})
		return
	}
	c.JSON(http.StatusOK, VerifyTokenResponse{Valid: true, UserID: claims.UserID})
}

// VerifyEmail godoc
// @Summary Verify an email address
// @Description Consumes the token from the verification link. Idempotent for already-verified accounts.
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Param id query int true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	idParam := c.Query("id")
	if token == "" || idParam == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Missing token or id"))
		return
	}

	userID, err := parseQueryID(idParam)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.users.VerifyEmail(userID, token); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified successfully."})
}

// ResetRequest represents a password reset initiation body.
type ResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetCompleteRequest represents a password reset completion body.
type ResetCompleteRequest struct {
	Token       string `json:"token" binding:"required"`
	ID          uint   `json:"id" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// InitiateReset godoc
// @Summary Request a password reset
// @Description Always responds 200 to avoid revealing whether the email is registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) InitiateReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	if err := h.users.InitiatePasswordReset(req.Email); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{
		Message: "If an account exists for that email, a reset link has been sent.",
	})
}

// CompleteReset godoc
// @Summary Complete a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetCompleteRequest true "Reset token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /auth/reset-password/complete [post]
func (h *AuthHandler) CompleteReset(c *gin.Context) {
	var req ResetCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	if err := h.users.CompletePasswordReset(req.ID, req.Token, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated successfully."})
}

// Logout godoc
// @Summary Log out
// @Description Clears the refresh token cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearRefreshCookie(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully."})
}

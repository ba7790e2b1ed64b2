package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"intouch/internal/config"
	"intouch/internal/handlers"
	"intouch/internal/logger"
	"intouch/internal/middleware"
	"intouch/internal/models"
	"intouch/internal/services"
	"intouch/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Mailer *capturingMailer
}

// capturingMailer records the plaintext tokens that would have been mailed so
// flows can follow the links.
type capturingMailer struct {
	mu           sync.Mutex
	verifyTokens map[uint]string
	resetTokens  map[uint]string
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{
		verifyTokens: make(map[uint]string),
		resetTokens:  make(map[uint]string),
	}
}

func (m *capturingMailer) SendVerificationEmail(to, token string, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyTokens[userID] = token
	return nil
}

func (m *capturingMailer) SendPasswordResetEmail(to, token string, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[userID] = token
	return nil
}

func (m *capturingMailer) verifyToken(userID uint) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyTokens[userID]
}

func (m *capturingMailer) resetToken(userID uint) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetTokens[userID]
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Hobby{},
		&models.Connection{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	mailer := newCapturingMailer()

	cfg := &config.Config{
		Env:         "test",
		FrontendURL: "http://localhost:5173",
		BackendURL:  "http://localhost:8080",
	}

	userService := services.NewUserService(db, mailer)
	connectionService := services.NewConnectionService(db)

	authHandler := handlers.NewAuthHandler(userService, stubOAuth{}, cfg)
	userHandler := handlers.NewUserHandler(userService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/token/refresh", middleware.RequireRefreshToken(userService), authHandler.Refresh)
	auth.POST("/verify-token", authHandler.VerifyAccessToken)
	auth.GET("/verify-email", authHandler.VerifyEmail)
	auth.POST("/reset-password", authHandler.InitiateReset)
	auth.POST("/reset-password/complete", authHandler.CompleteReset)

	users := api.Group("/users")
	users.Use(middleware.RequireAccessToken())
	users.GET("", userHandler.GetProfile)
	users.PUT("", userHandler.UpdateProfile)
	users.DELETE("", userHandler.DeleteAccount)

	connections := api.Group("/connections")
	connections.Use(middleware.RequireAccessToken())
	connections.GET("/page/:page", connectionHandler.List)
	connections.GET("/search/:query", connectionHandler.Search)
	connections.GET("/id/:id", connectionHandler.Get)
	connections.POST("", connectionHandler.Create)
	connections.PUT("/:id", connectionHandler.Update)
	connections.DELETE("/:id", connectionHandler.Delete)
	connections.POST("/:id/contacted", connectionHandler.MarkContacted)

	return &testApp{DB: db, Router: router, Mailer: mailer}
}

// stubOAuth satisfies the OAuth provider contract; the Google flow itself is
// covered by handler unit tests.
type stubOAuth struct{}

func (stubOAuth) LoginURL(state string) string { return "https://example.com?state=" + state }
func (stubOAuth) Exchange(ctx context.Context, code string) (services.OAuthIdentity, error) {
	return services.OAuthIdentity{}, nil
}
func (stubOAuth) NewState() (string, error) { return "state", nil }

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	return app.requestWithCookies(method, path, body, token, nil)
}

// requestWithCookies makes a request carrying the given cookies.
func (app *testApp) requestWithCookies(method, path, body, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// cookieNamed returns the named cookie from a response, or nil.
func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// signupUser registers a user and returns their ID.
func (app *testApp) signupUser(t *testing.T, username, email, password string) uint {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":%q}`, username, email, password)
	rec := app.request("POST", "/api/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}

	var user models.User
	if err := app.DB.Where("email = ?", email).First(&user).Error; err != nil {
		t.Fatalf("failed to look up signed-up user: %v", err)
	}
	return user.ID
}

// loginUser logs in and returns the access token and refresh cookie.
func (app *testApp) loginUser(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	token, _ := result["access_token"].(string)
	return token, cookieNamed(rec, middleware.RefreshCookieName)
}

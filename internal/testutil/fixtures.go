package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"intouch/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password every fixture user is created with.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a verified user with a hashed password and unique
// email and username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", nextID()))
}

// CreateTestUserWithEmail creates a verified user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	hashStr := string(hash)
	username := fmt.Sprintf("testuser%d", nextID())
	user := &models.User{
		Email:           email,
		Username:        &username,
		DisplayName:     "Test User",
		PasswordHash:    &hashStr,
		IsEmailVerified: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestConnection creates a connection with the given name, reminder
// cadence, and priority. LastContactedAt starts nil.
func CreateTestConnection(t *testing.T, db *gorm.DB, userID uint, name string, freqDays, priority int) *models.Connection {
	t.Helper()

	conn := &models.Connection{
		UserID:                userID,
		Name:                  name,
		ReminderFrequencyDays: freqDays,
		ReachOutPriority:      priority,
		Type:                  "acquaintance",
	}
	if err := db.Create(conn).Error; err != nil {
		t.Fatalf("failed to create test connection: %v", err)
	}
	return conn
}

package services

import (
	"time"

	"intouch/internal/models"
	"intouch/internal/pagination"
)

// Mailer sends transactional mail. Delivery failures are logged by callers,
// never surfaced to clients.
type Mailer interface {
	SendVerificationEmail(to, token string, userID uint) error
	SendPasswordResetEmail(to, token string, userID uint) error
}

// OAuthIdentity is the provider-verified identity handed to ResolveOAuthUser.
type OAuthIdentity struct {
	SubID      string
	Email      string
	Name       string
	PictureURL string
}

// Profile is the whitelisted view of a user returned by the profile
// endpoints, with hobby names joined in alphabetical order.
type Profile struct {
	ID                uint       `json:"id"`
	Email             string     `json:"email"`
	Username          *string    `json:"username"`
	DisplayName       string     `json:"display_name"`
	ProfilePictureURL string     `json:"profile_picture_url"`
	Bio               string     `json:"bio"`
	PersonalityType   string     `json:"personality_type"`
	NearestCity       string     `json:"nearest_city"`
	CreatedAt         time.Time  `json:"created_at"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	Hobbies           []string   `json:"hobbies"`
}

// ProfileUpdate carries the mutable profile fields. Nil means "leave
// unchanged"; a non-nil Hobbies replaces the full hobby list.
type ProfileUpdate struct {
	Username          *string
	DisplayName       *string
	ProfilePictureURL *string
	Bio               *string
	PersonalityType   *string
	NearestCity       *string
	Hobbies           *[]string
}

// UserServicer defines the contract for user and authentication business logic.
type UserServicer interface {
	Signup(username, email, password, displayName string) (*models.User, error)
	AuthenticateByEmail(email, password string) (*models.User, error)
	ResolveOAuthUser(identity OAuthIdentity) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	VerifyEmail(userID uint, token string) error
	InitiatePasswordReset(email string) error
	CompletePasswordReset(userID uint, token, newPassword string) error
	GetProfile(userID uint) (*Profile, error)
	UpdateProfile(userID uint, update ProfileUpdate) (*Profile, error)
	DeleteAccount(userID uint) error
}

// ConnectionListItem is the partial row returned by list and search; the
// detail endpoint returns the full model.
type ConnectionListItem struct {
	ID                    uint       `gorm:"column:id" json:"id"`
	Name                  string     `gorm:"column:connection_name" json:"connection_name"`
	ReachOutPriority      int        `gorm:"column:reach_out_priority" json:"reach_out_priority"`
	ReminderFrequencyDays int        `gorm:"column:reminder_frequency_days" json:"reminder_frequency_days"`
	CreatedAt             time.Time  `gorm:"column:created_at" json:"created_at"`
	LastContactedAt       *time.Time `gorm:"column:last_contacted_at" json:"last_contacted_at"`
}

// ConnectionCreate carries a new connection's fields after boundary
// validation. Optional text fields arrive empty, never null.
type ConnectionCreate struct {
	Name                  string
	ReminderFrequencyDays int
	ReachOutPriority      int
	Notes                 string
	Type                  string
	KnowFrom              string
}

// ConnectionUpdate carries a partial update. Nil fields keep the stored value.
type ConnectionUpdate struct {
	Name                  *string
	ReminderFrequencyDays *int
	ReachOutPriority      *int
	Notes                 *string
	Type                  *string
	KnowFrom              *string
}

// ConnectionServicer defines the contract for connection business logic.
// Every operation is scoped to the owning user.
type ConnectionServicer interface {
	ListConnections(userID uint, page pagination.Page) (*pagination.Response[ConnectionListItem], error)
	SearchConnections(userID uint, query string) ([]ConnectionListItem, error)
	CreateConnection(userID uint, in ConnectionCreate) (*models.Connection, error)
	GetConnectionByID(userID, connectionID uint) (*models.Connection, error)
	UpdateConnection(userID, connectionID uint, in ConnectionUpdate) (*models.Connection, error)
	MarkContacted(userID, connectionID uint) (*models.Connection, error)
	DeleteConnection(userID, connectionID uint) error
}

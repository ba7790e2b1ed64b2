package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "intouch/internal/errors"
	"intouch/internal/logger"
	"intouch/internal/models"
)

const (
	verificationTokenTTL = 24 * time.Hour
	resetTokenTTL        = time.Hour

	maxHobbies      = 4
	maxHobbyNameLen = 25
)

// userService handles user and authentication business logic.
type userService struct {
	db     *gorm.DB
	mailer Mailer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, mailer Mailer) UserServicer {
	return &userService{db: db, mailer: mailer}
}

// Signup registers a new password-based user in the unverified state and
// sends the verification mail. Uniqueness is pre-checked with lookups; the
// small race window between check and insert is accepted. Mail delivery
// failures are logged, never surfaced.
func (s *userService) Signup(username, email, password, displayName string) (*models.User, error) {
	if email == "" || password == "" || username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}
	email = strings.ToLower(email)

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrEmailTaken
	}

	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrUsernameTaken
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	plainToken, hashedToken, err := NewEmailToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expiresAt := time.Now().Add(verificationTokenTTL)

	user := &models.User{
		Email:                           email,
		Username:                        &username,
		DisplayName:                     displayName,
		PasswordHash:                    &passwordHash,
		EmailVerificationToken:          &hashedToken,
		EmailVerificationTokenExpiresAt: &expiresAt,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendVerificationEmail(user.Email, plainToken, user.ID); err != nil {
		logger.Get().Errorw("failed to send verification email",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}

	return user, nil
}

// AuthenticateByEmail checks email/password credentials. Missing user,
// passwordless (OAuth-only) account, and wrong password all return the same
// generic error to resist account enumeration.
func (s *userService) AuthenticateByEmail(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.PasswordHash == nil || !ComparePassword(password, *user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	s.touchLastLogin(&user)
	return &user, nil
}

// ResolveOAuthUser maps a provider-verified identity to a local account:
// match by subject id, else link by email (provider emails are verified, so
// the account is force-verified), else create a new passwordless account
// with the username left unset.
func (s *userService) ResolveOAuthUser(identity OAuthIdentity) (*models.User, error) {
	var user models.User
	err := s.db.Where("google_sub_id = ?", identity.SubID).First(&user).Error
	if err == nil {
		s.touchLastLogin(&user)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	email := strings.ToLower(identity.Email)
	err = s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{
			"google_sub_id":     identity.SubID,
			"is_email_verified": true,
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		s.touchLastLogin(&user)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	subID := identity.SubID
	now := time.Now()
	user = models.User{
		Email:             email,
		DisplayName:       identity.Name,
		GoogleSubID:       &subID,
		IsEmailVerified:   true,
		ProfilePictureURL: identity.PictureURL,
		LastLoginAt:       &now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *userService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyEmail validates a verification token against the stored hash. Checks
// run in a fixed order: user exists, already verified (idempotent success),
// token present, not expired, hash match.
func (s *userService) VerifyEmail(userID uint, token string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.IsEmailVerified {
		return nil
	}

	if user.EmailVerificationToken == nil || user.EmailVerificationTokenExpiresAt == nil {
		return apperrors.ErrNoVerifyToken
	}
	if user.EmailVerificationTokenExpiresAt.Before(time.Now()) {
		return apperrors.ErrVerifyTokenExpired
	}
	if !ComparePassword(token, *user.EmailVerificationToken) {
		return apperrors.ErrVerifyTokenInvalid
	}

	updates := map[string]interface{}{
		"is_email_verified":                   true,
		"email_verification_token":            nil,
		"email_verification_token_expires_at": nil,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// InitiatePasswordReset stores a hashed reset token and mails the plaintext.
// A missing email is not an error; the handler returns the same generic
// message either way to avoid confirming account existence.
func (s *userService) InitiatePasswordReset(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	plainToken, hashedToken, err := NewEmailToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expiresAt := time.Now().Add(resetTokenTTL)

	updates := map[string]interface{}{
		"password_reset_token":            hashedToken,
		"password_reset_token_expires_at": expiresAt,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, plainToken, user.ID); err != nil {
		logger.Get().Errorw("failed to send password reset email",
			"user_id", user.ID,
			"error", err.Error(),
		)
	}
	return nil
}

// CompletePasswordReset validates the reset token (expiry before hash, same
// ordering as email verification) and replaces the password hash, clearing
// the token fields in the same statement.
func (s *userService) CompletePasswordReset(userID uint, token, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.PasswordResetTokenExpiresAt == nil || user.PasswordResetTokenExpiresAt.Before(time.Now()) {
		return apperrors.ErrResetTokenExpired
	}
	if user.PasswordResetToken == nil || !ComparePassword(token, *user.PasswordResetToken) {
		return apperrors.ErrResetTokenInvalid
	}

	newHash, err := HashPassword(newPassword)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"password_hash":                   newHash,
		"password_reset_token":            nil,
		"password_reset_token_expires_at": nil,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetProfile returns the whitelisted profile view with hobby names in
// alphabetical order.
func (s *userService) GetProfile(userID uint) (*Profile, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	hobbies, err := s.hobbyNames(userID)
	if err != nil {
		return nil, err
	}

	return s.toProfile(user, hobbies), nil
}

// UpdateProfile applies a partial update to the whitelisted profile fields.
// A present hobbies list is replaced wholesale inside a transaction:
// delete-then-reinsert either fully applies or fully rolls back. Field
// updates commit before the hobby replacement, so a hobby failure can leave
// the fields updated while the links stay unchanged.
func (s *userService) UpdateProfile(userID uint, update ProfileUpdate) (*Profile, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	var hobbies []string
	if update.Hobbies != nil {
		hobbies, err = sanitizeHobbies(*update.Hobbies)
		if err != nil {
			return nil, err
		}
	}

	if update.Username != nil {
		var count int64
		if err := s.db.Model(&models.User{}).
			Where("username = ? AND id <> ?", *update.Username, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.ErrUsernameTaken
		}
	}

	updates := make(map[string]interface{})
	if update.Username != nil {
		updates["username"] = *update.Username
	}
	if update.DisplayName != nil {
		updates["display_name"] = *update.DisplayName
	}
	if update.ProfilePictureURL != nil {
		updates["profile_picture_url"] = *update.ProfilePictureURL
	}
	if update.Bio != nil {
		updates["bio"] = *update.Bio
	}
	if update.PersonalityType != nil {
		updates["personality_type"] = *update.PersonalityType
	}
	if update.NearestCity != nil {
		updates["nearest_city"] = *update.NearestCity
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if update.Hobbies != nil {
		if err := s.replaceHobbies(userID, hobbies); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(userID)
}

// DeleteAccount removes the user row along with owned connections and hobby
// links.
func (s *userService) DeleteAccount(userID uint) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := s.db.Select(clause.Associations).Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *userService) touchLastLogin(user *models.User) {
	now := time.Now()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		logger.Get().Warnw("failed to record last login", "user_id", user.ID, "error", err.Error())
	}
}

func (s *userService) hobbyNames(userID uint) ([]string, error) {
	names := []string{}
	err := s.db.Model(&models.Hobby{}).
		Joins("JOIN user_hobbies ON user_hobbies.hobby_id = hobbies.id").
		Where("user_hobbies.user_id = ?", userID).
		Order("hobbies.name ASC").
		Pluck("hobbies.name", &names).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return names, nil
}

// replaceHobbies clears the user's hobby links and relinks the given names,
// lazily creating hobby rows. The whole replacement is one transaction so a
// failed partial write never leaves the user with a truncated list.
func (s *userService) replaceHobbies(userID uint, names []string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_hobbies WHERE user_id = ?", userID).Error; err != nil {
			return err
		}
		for _, name := range names {
			var hobby models.Hobby
			if err := tx.Where(models.Hobby{Name: name}).FirstOrCreate(&hobby).Error; err != nil {
				return err
			}
			if err := tx.Exec("INSERT INTO user_hobbies (user_id, hobby_id) VALUES (?, ?)", userID, hobby.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// sanitizeHobbies trims entries, drops empties, deduplicates, and enforces
// the count and length caps.
func sanitizeHobbies(raw []string) ([]string, error) {
	seen := make(map[string]bool)
	cleaned := make([]string, 0, len(raw))
	for _, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		cleaned = append(cleaned, h)
	}
	if len(cleaned) > maxHobbies {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "You can provide at most 4 hobbies")
	}
	for _, h := range cleaned {
		if len(h) > maxHobbyNameLen {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Each hobby must be at most 25 characters")
		}
	}
	return cleaned, nil
}

func (s *userService) toProfile(user *models.User, hobbies []string) *Profile {
	return &Profile{
		ID:                user.ID,
		Email:             user.Email,
		Username:          user.Username,
		DisplayName:       user.DisplayName,
		ProfilePictureURL: user.ProfilePictureURL,
		Bio:               user.Bio,
		PersonalityType:   user.PersonalityType,
		NearestCity:       user.NearestCity,
		CreatedAt:         user.CreatedAt,
		LastLoginAt:       user.LastLoginAt,
		Hobbies:           hobbies,
	}
}

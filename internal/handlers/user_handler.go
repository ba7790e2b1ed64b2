package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "intouch/internal/errors"
	"intouch/internal/services"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	users services.UserServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServicer) *UserHandler {
	return &UserHandler{users: users}
}

// UpdateProfileRequest represents a partial profile update. Fields left out of
// the JSON body keep their stored values.
type UpdateProfileRequest struct {
	Username          *string   `json:"username" binding:"omitempty,username"`
	DisplayName       *string   `json:"display_name" binding:"omitempty,max=100"`
	ProfilePictureURL *string   `json:"profile_picture_url" binding:"omitempty,max=500"`
	Bio               *string   `json:"bio" binding:"omitempty,max=500"`
	PersonalityType   *string   `json:"personality_type" binding:"omitempty,max=50"`
	NearestCity       *string   `json:"nearest_city" binding:"omitempty,max=100"`
	// Hobbies pass through raw: the service trims, drops empties, dedupes,
	// and then applies the count and length caps.
	Hobbies *[]string `json:"hobbies"`
}

// GetProfile godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Success 200 {object} services.Profile
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	profile, err := h.users.GetProfile(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile godoc
// @Summary Update the authenticated user's profile
// @Description Partial update. Only the fields present in the body are changed.
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Fields to update"
// @Success 200 {object} services.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	profile, err := h.users.UpdateProfile(userID, services.ProfileUpdate{
		Username:          req.Username,
		DisplayName:       req.DisplayName,
		ProfilePictureURL: req.ProfilePictureURL,
		Bio:               req.Bio,
		PersonalityType:   req.PersonalityType,
		NearestCity:       req.NearestCity,
		Hobbies:           req.Hobbies,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// DeleteAccount godoc
// @Summary Delete the authenticated user's account
// @Description Removes the account and all of its connections and hobby links.
// @Tags users
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [delete]
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.users.DeleteAccount(userID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"net/http"

	"chorely/models"
	"chorely/service"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the caller's own profile and its mutations.
type ProfileHandler struct {
	Accounts *service.AccountsService
	Users    service.UsersStore
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	user, err := h.Users.Fetch(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	FullName   *string  `json:"fullName"`
	Birthday   *int64   `json:"birthday"`
	LookingFor []string `json:"lookingFor"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	err := h.Accounts.UpdateProfile(ctx, userID, service.UpdateProfileInput{
		FullName:   req.FullName,
		Birthday:   req.Birthday,
		LookingFor: req.LookingFor,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *ProfileHandler) UpdateEmail(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.Accounts.UpdateEmail(ctx, userID, req.Email); err != nil {
		var auth *models.AuthError
		if errors.As(err, &auth) {
			c.JSON(http.StatusConflict, gin.H{"error": auth.Reason})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email updated"})
}

type UpdatePhoneRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

func (h *ProfileHandler) UpdatePhoneNumber(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpdatePhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.Accounts.UpdatePhoneNumber(ctx, userID, req.PhoneNumber); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Phone number updated"})
}

func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.Accounts.DeleteAccount(ctx, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

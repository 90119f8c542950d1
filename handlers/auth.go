package handlers

import (
	"errors"
	"net/http"

	"chorely/models"
	"chorely/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler exposes registration and sign-in over the accounts service.
type AuthHandler struct {
	Accounts *service.AccountsService
}

type SignupRequest struct {
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	FullName    string   `json:"fullName" binding:"required"`
	PhoneNumber string   `json:"phoneNumber"`
	Birthday    int64    `json:"birthday"`
	LookingFor  []string `json:"lookingFor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	creds, err := h.Accounts.Register(ctx, service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Birthday:    req.Birthday,
		LookingFor:  req.LookingFor,
	})
	if err != nil {
		var auth *models.AuthError
		if errors.As(err, &auth) {
			c.JSON(http.StatusConflict, gin.H{"error": auth.Reason})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"token":   creds.Token,
		"userId":  creds.UserID.Hex(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	creds, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  creds.Token,
		"userId": creds.UserID.Hex(),
	})
}

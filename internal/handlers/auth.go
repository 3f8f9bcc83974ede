package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	user, err := ah.authService.RegisterUser(c.Request.Context(), input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var body struct {
		UniversityID string `json:"universityId"`
		Password     string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	token, user, err := ah.authService.LoginUser(c.Request.Context(), body.UniversityID, body.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"token": token, "user": user})
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/requestdata"
	"github.com/daleelapp/daleel-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	user, err := uh.userService.GetProfile(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var update services.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), rd.UserID, update)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) UpdateSchedule(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		Schedule json.RawMessage `json:"schedule"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	user, err := uh.userService.UpdateSchedule(c.Request.Context(), rd.UserID, body.Schedule)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (uh *UserHandler) UpdateLanguage(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		PreferredLanguage string `json:"preferredLanguage"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	user, err := uh.userService.UpdateLanguage(c.Request.Context(), rd.UserID, body.PreferredLanguage)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

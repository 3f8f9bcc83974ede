package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/requestdata"
	"github.com/daleelapp/daleel-backend/internal/services"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

func (uh *UploadHandler) Register(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.UploadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}
	upload, err := uh.uploadService.RegisterUpload(c.Request.Context(), rd.UserID, input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"upload": upload})
}

func (uh *UploadHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	uploads, err := uh.uploadService.ListUploads(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"uploads": uploads})
}

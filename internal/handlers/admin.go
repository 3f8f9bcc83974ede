package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/daleelapp/daleel-backend/internal/services"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (ah *AdminHandler) Overview(c *gin.Context) {
	overview, err := ah.adminService.Overview(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"overview": overview})
}

func (ah *AdminHandler) Files(c *gin.Context) {
	paths, err := ah.adminService.RecentFiles(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"files": paths})
}

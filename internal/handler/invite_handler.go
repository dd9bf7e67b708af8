package handler

import (
	"net/http"
	"strconv"
	"time"

	"visahub/internal/domain"
	"visahub/internal/middleware"
	"visahub/internal/models"
	"visahub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InviteHandler struct {
	repo *repository.InviteRepository
}

func NewInviteHandler(repo *repository.InviteRepository) *InviteHandler {
	return &InviteHandler{repo: repo}
}

type createInviteRequest struct {
	Role      string `json:"role" binding:"required"` // LAWYER | ADMIN
	ExpiresIn string `json:"expires_in"`              // Go duration, default 168h
}

func (h *InviteHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Role != domain.RoleLawyer && req.Role != domain.RoleAdmin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be LAWYER or ADMIN"})
		return
	}
	ttl := 168 * time.Hour
	if req.ExpiresIn != "" {
		if d, err := time.ParseDuration(req.ExpiresIn); err == nil && d > 0 {
			ttl = d
		}
	}
	inv := &models.InviteCode{
		Code:      uuid.NewString(),
		Role:      req.Role,
		CreatedBy: userID,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := h.repo.Create(inv); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": inv})
}

func (h *InviteHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.repo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": list})
}
